// Package campaign holds the campaign-level index: which armies are in
// play, whose they are, and the points-derived values the tracker shows
// next to each of them.
package campaign

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Campaign is the campaign index document.
type Campaign struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Armies      []Army `yaml:"armies" json:"armies"`
}

// Army is one campaign participant's entry.
type Army struct {
	ID         string `yaml:"id" json:"id"`
	Player     string `yaml:"player" json:"player"`
	ListID     string `yaml:"listId" json:"listId"`
	BasePoints int    `yaml:"basePoints" json:"basePoints"`
}

// Load reads a campaign index from a yaml or json file.
func Load(path string) (*Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read campaign index: %w", err)
	}
	var c Campaign
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &c)
	} else {
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return nil, fmt.Errorf("parse campaign index %s: %w", path, err)
	}
	if len(c.Armies) == 0 {
		return nil, fmt.Errorf("campaign index %s has no armies", path)
	}
	return &c, nil
}

// ArmyByID returns the entry with the given id, or nil.
func (c *Campaign) ArmyByID(id string) *Army {
	for i := range c.Armies {
		if c.Armies[i].ID == id {
			return &c.Armies[i]
		}
	}
	return nil
}

// MaxListPoints is the largest declared list in the campaign.
func (c *Campaign) MaxListPoints() int {
	max := 0
	for _, a := range c.Armies {
		if a.BasePoints > max {
			max = a.BasePoints
		}
	}
	return max
}

// CommandPoints is the command-point allowance for a list: 4 per full
// 1000 points, never less than 4.
func CommandPoints(listPoints int) int {
	cp := listPoints / 1000 * 4
	if cp < 4 {
		cp = 4
	}
	return cp
}

// UnderdogPoints grants 1 point per full 50 points a list trails the
// largest list in the campaign.
func UnderdogPoints(listPoints, maxPoints int) int {
	diff := maxPoints - listPoints
	if diff <= 0 {
		return 0
	}
	return diff / 50
}
