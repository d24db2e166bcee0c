package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Majawat/convergence-protocol2-sub000/internal/api"
	"github.com/Majawat/convergence-protocol2-sub000/internal/army"
	"github.com/Majawat/convergence-protocol2-sub000/internal/cache"
	"github.com/Majawat/convergence-protocol2-sub000/internal/campaign"
	"github.com/Majawat/convergence-protocol2-sub000/internal/state"
)

// Build metadata injected via -ldflags at build time
var (
	buildVersion = "dev"
	buildTime    = ""
)

type config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	DataAPIBase  string `env:"DATA_API_BASE" envDefault:"https://army-forge.onepagerules.com"`
	CampaignFile string `env:"CAMPAIGN_FILE" envDefault:"campaign.yaml"`
	StateDB      string `env:"STATE_DB" envDefault:"tracker.db"`
}

type server struct {
	log    *zap.SugaredLogger
	engine *army.Engine
	client *api.Client
	camp   *campaign.Campaign
	store  *state.Store
	hub    *hub
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalw("parse env config", "err", err)
	}

	camp, err := campaign.Load(cfg.CampaignFile)
	if err != nil {
		log.Fatalw("load campaign index", "file", cfg.CampaignFile, "err", err)
	}
	store, err := state.Open(cfg.StateDB)
	if err != nil {
		log.Fatalw("open state store", "db", cfg.StateDB, "err", err)
	}
	defer func() { _ = store.Close() }()

	s := &server{
		log:    log,
		engine: army.NewEngine(logger),
		client: api.NewClient(cfg.DataAPIBase, cache.NewMemory(), logger),
		camp:   camp,
		store:  store,
		hub:    newHub(log),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/campaign", s.handleCampaign).Methods(http.MethodGet)
	r.HandleFunc("/api/armies/{id}", s.handleArmy).Methods(http.MethodGet)
	r.HandleFunc("/api/armies/{id}/state", s.handleArmyState).Methods(http.MethodGet)
	r.HandleFunc("/api/armies/{id}/state/hp", s.handleSetHP).Methods(http.MethodPost)
	r.HandleFunc("/api/armies/{id}/state/unit", s.handleSetUnitState).Methods(http.MethodPost)
	r.HandleFunc("/api/armies/{id}/spend-cp", s.handleSpendCP).Methods(http.MethodPost)
	r.HandleFunc("/api/armies/{id}/reset-round", s.handleResetRound).Methods(http.MethodPost)
	r.HandleFunc("/ws/{id}", s.handleWS)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"version": buildVersion, "time": buildTime})
	})

	addr := ":" + cfg.Port
	log.Infow("campaign tracker listening", "addr", addr, "dataAPI", cfg.DataAPIBase, "campaign", camp.Name)
	log.Fatal(http.ListenAndServe(addr, r))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// campaignArmy is the campaign view with points-derived values attached.
type campaignArmy struct {
	campaign.Army
	CommandPoints  int `json:"commandPoints"`
	UnderdogPoints int `json:"underdogPoints"`
}

func (s *server) handleCampaign(w http.ResponseWriter, _ *http.Request) {
	maxPts := s.camp.MaxListPoints()
	armies := make([]campaignArmy, 0, len(s.camp.Armies))
	for _, a := range s.camp.Armies {
		armies = append(armies, campaignArmy{
			Army:           a,
			CommandPoints:  campaign.CommandPoints(a.BasePoints),
			UnderdogPoints: campaign.UnderdogPoints(a.BasePoints, maxPts),
		})
	}
	writeJSON(w, map[string]any{
		"name":        s.camp.Name,
		"description": s.camp.Description,
		"armies":      armies,
	})
}

// loadArmy fetches and normalizes one campaign army, seeding tracked
// state for any models not seen before.
func (s *server) loadArmy(ctx context.Context, id string) (*army.NormalizedArmy, *campaign.Army, error) {
	entry := s.camp.ArmyByID(id)
	if entry == nil {
		return nil, nil, errNotFound
	}
	raw, err := s.client.FetchList(ctx, entry.ListID)
	if err != nil {
		return nil, nil, err
	}
	normalized, err := s.engine.Normalize(raw)
	if err != nil {
		return nil, nil, err
	}
	if err := s.store.SeedArmy(ctx, id, normalized); err != nil {
		return nil, nil, err
	}
	return normalized, entry, nil
}

var errNotFound = errors.New("army not in campaign")

func (s *server) handleArmy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	normalized, entry, err := s.loadArmy(ctx, id)
	if err == errNotFound {
		http.Error(w, "unknown army", http.StatusNotFound)
		return
	}
	if errors.Is(err, army.ErrNoUnits) {
		s.log.Warnw("list document has no units", "army", id)
		http.Error(w, "list document has no units", http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		s.log.Errorw("load army", "army", id, "err", err)
		http.Error(w, "failed to load army", http.StatusBadGateway)
		return
	}

	// keep the point pools in step with the declared list size
	maxPts := s.camp.MaxListPoints()
	cp := campaign.CommandPoints(normalized.Meta.ListPoints)
	up := campaign.UnderdogPoints(entry.BasePoints, maxPts)
	if err := s.store.SetPoints(ctx, id, cp, up); err != nil {
		s.log.Warnw("persist point pools", "army", id, "err", err)
	}

	st, err := s.store.ArmyState(ctx, id)
	if err != nil {
		s.log.Errorw("read army state", "army", id, "err", err)
		http.Error(w, "failed to read state", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"army": normalized, "state": st})
}

func (s *server) handleArmyState(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	st, err := s.store.ArmyState(r.Context(), id)
	if err != nil {
		s.log.Errorw("read army state", "army", id, "err", err)
		http.Error(w, "failed to read state", http.StatusInternalServerError)
		return
	}
	writeJSON(w, st)
}

func (s *server) handleSetHP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		UnitID  string `json:"unitId"`
		ModelID string `json:"modelId"`
		HP      int    `json:"hp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UnitID == "" || req.ModelID == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	stored, err := s.store.SetModelHP(r.Context(), id, req.UnitID, req.ModelID, req.HP)
	if err != nil {
		s.log.Warnw("set model hp", "army", id, "unit", req.UnitID, "model", req.ModelID, "err", err)
		http.Error(w, "unknown model", http.StatusNotFound)
		return
	}
	s.hub.broadcast(id, wsEvent{Type: "hp", ArmyID: id, Data: map[string]any{
		"unitId": req.UnitID, "modelId": req.ModelID, "hp": stored,
	}})
	writeJSON(w, map[string]int{"hp": stored})
}

func (s *server) handleSetUnitState(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		UnitID string `json:"unitId"`
		state.UnitState
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UnitID == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := s.store.SetUnitState(r.Context(), id, req.UnitID, req.UnitState); err != nil {
		s.log.Errorw("set unit state", "army", id, "unit", req.UnitID, "err", err)
		http.Error(w, "failed to store unit state", http.StatusInternalServerError)
		return
	}
	s.hub.broadcast(id, wsEvent{Type: "unit", ArmyID: id, Data: map[string]any{
		"unitId": req.UnitID, "state": req.UnitState,
	}})
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSpendCP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	left, err := s.store.SpendCommandPoints(r.Context(), id, req.Amount)
	if err != nil {
		s.log.Errorw("spend command points", "army", id, "err", err)
		http.Error(w, "failed to spend", http.StatusInternalServerError)
		return
	}
	s.hub.broadcast(id, wsEvent{Type: "cp", ArmyID: id, Data: map[string]int{"commandPoints": left}})
	writeJSON(w, map[string]int{"commandPoints": left})
}

func (s *server) handleResetRound(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.ResetRound(r.Context(), id); err != nil {
		s.log.Errorw("reset round", "army", id, "err", err)
		http.Error(w, "failed to reset round", http.StatusInternalServerError)
		return
	}
	s.hub.broadcast(id, wsEvent{Type: "round", ArmyID: id})
	w.WriteHeader(http.StatusNoContent)
}
