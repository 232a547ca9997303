// Package api serves the REST endpoints: leaderboard and analytics over the
// store, and a stateless decision endpoint over the agents.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/connect-four/agent/internal/agent"
	"github.com/connect-four/agent/internal/board"
	"github.com/connect-four/agent/internal/game"
	"github.com/connect-four/agent/internal/kafka"
	"github.com/connect-four/agent/internal/matchmaker"
	"github.com/connect-four/agent/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	leaderboardLimit = 20
	tournamentLimit  = 50
	maxDecideBudget  = 10 * time.Second
)

// Handlers holds API handler dependencies. store may be nil, in which case
// the persistence endpoints answer 503.
type Handlers struct {
	store      storage.Store
	matchmaker *matchmaker.Matchmaker
	producer   *kafka.Producer
	consumer   *kafka.Consumer
	settings   agent.Settings
}

// NewHandlers creates a new API handlers instance. settings are the defaults
// for agents built by the decide endpoint.
func NewHandlers(store storage.Store, mm *matchmaker.Matchmaker, producer *kafka.Producer, consumer *kafka.Consumer, settings agent.Settings) *Handlers {
	if producer == nil {
		producer = kafka.NewProducerFrom(nil)
	}
	return &Handlers{
		store:      store,
		matchmaker: mm,
		producer:   producer,
		consumer:   consumer,
		settings:   settings,
	}
}

// RegisterRoutes registers API routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/leaderboard", h.GetLeaderboard)
	r.Delete("/leaderboard", h.ClearLeaderboard)
	r.Get("/stats/{username}", h.GetPlayerStats)
	r.Get("/analytics", h.GetAnalytics)
	r.Get("/tournaments", h.ListTournaments)
	r.Get("/status", h.GetStatus)
	r.Post("/decide", h.Decide)
}

func (h *Handlers) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		http.Error(w, "Storage not available", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// GetLeaderboard returns the top players
func (h *Handlers) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	entries, err := h.store.GetLeaderboard(r.Context(), leaderboardLimit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard query failed")
		http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// ClearLeaderboard deletes all games and resets the leaderboard
func (h *Handlers) ClearLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	if err := h.store.ClearAllGames(r.Context()); err != nil {
		log.Error().Err(err).Msg("clearing games failed")
		http.Error(w, "Failed to clear leaderboard", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Leaderboard cleared successfully"})
}

// GetPlayerStats returns statistics for a specific player
func (h *Handlers) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		http.Error(w, "Username required", http.StatusBadRequest)
		return
	}
	if !h.requireStore(w) {
		return
	}

	stats, err := h.store.GetPlayerStats(r.Context(), username)
	if err != nil {
		log.Error().Err(err).Str("user", username).Msg("player stats query failed")
		http.Error(w, "Failed to get player stats", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetAnalytics returns game analytics
func (h *Handlers) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"realtime": map[string]any{
			"activeGames":    h.matchmaker.GetActiveGameCount(),
			"playersWaiting": h.matchmaker.GetWaitingCount(),
			"kafkaEnabled":   h.producer.IsEnabled(),
		},
	}

	if h.store != nil {
		db, err := h.store.GetAnalytics(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("analytics query failed")
			http.Error(w, "Failed to get analytics", http.StatusInternalServerError)
			return
		}
		response["database"] = db
	}

	if h.consumer != nil {
		response["kafka"] = map[string]any{
			"avgGameDuration":    h.consumer.GetAverageGameDuration(),
			"avgDecisionMs":      h.consumer.GetAverageDecisionMs(),
			"mostFrequentWinner": h.consumer.GetMostFrequentWinner(),
			"gamesPerHour":       h.consumer.GetGamesPerHour(),
			"metrics":            h.consumer.GetMetrics(),
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// ListTournaments returns stored tournament results, newest first
func (h *Handlers) ListTournaments(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	limit := tournamentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.store.ListTournaments(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("tournament query failed")
		http.Error(w, "Failed to list tournaments", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// GetStatus returns server status
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"activeGames":    h.matchmaker.GetActiveGameCount(),
		"playersWaiting": h.matchmaker.GetWaitingCount(),
		"kafkaEnabled":   h.producer.IsEnabled(),
		"storeEnabled":   h.store != nil,
	})
}

// DecideRequest is one stateless decision. The position is given either as
// Layout, in the X/O/. text form with X the mover, or as Board and Mask in
// the harness observation format.
type DecideRequest struct {
	Layout     string     `json:"layout,omitempty"`
	Board      [][][2]int `json:"board,omitempty"`
	Mask       []int      `json:"mask,omitempty"`
	Terminated bool       `json:"terminated,omitempty"`
	Truncated  bool       `json:"truncated,omitempty"`
	Agent      string     `json:"agent,omitempty"`
	Depth      int        `json:"depth,omitempty"`
	BudgetMs   int        `json:"budgetMs,omitempty"`
	Seed       uint64     `json:"seed,omitempty"`
	GameID     string     `json:"gameId,omitempty"`
}

type DecideResponse struct {
	Agent     string  `json:"agent"`
	Column    int     `json:"column"`
	Rule      string  `json:"rule"`
	Depth     int     `json:"depth,omitempty"`
	Score     int     `json:"score,omitempty"`
	Nodes     int     `json:"nodes,omitempty"`
	ElapsedMs float64 `json:"elapsedMs"`
}

var (
	errNoPosition = errors.New("layout or board is required")
	errBoardShape = fmt.Errorf("board must be %d rows of %d cells", board.Rows, board.Columns)
	errMaskShape  = fmt.Errorf("mask must have %d entries", board.Columns)
	errCellValue  = errors.New("cell channels must be 0 or 1 and not both set")
	errMaskValue  = errors.New("mask entries must be 0 or 1")
	errMaskFull   = errors.New("mask opens a full column")
	errFloating   = errors.New("board has a piece above an empty cell")
)

// observation validates the request and converts it for the agent
func (req DecideRequest) observation() (agent.Observation, error) {
	obs := agent.Observation{Terminated: req.Terminated, Truncated: req.Truncated}

	var b board.Board
	switch {
	case req.Layout != "":
		b = board.Parse(req.Layout)
		obs.Board = b.Snapshot()
	case req.Board != nil:
		rows := req.Board
		if len(rows) != board.Rows {
			return obs, errBoardShape
		}
		for r, cells := range rows {
			if len(cells) != board.Columns {
				return obs, errBoardShape
			}
			for c, cell := range cells {
				if !binary(cell[0]) || !binary(cell[1]) || cell[0]+cell[1] > 1 {
					return obs, errCellValue
				}
				obs.Board[r][c] = [2]uint8{uint8(cell[0]), uint8(cell[1])}
			}
		}
		b = board.FromSnapshot(obs.Board)
	default:
		return obs, errNoPosition
	}
	if !b.Settled() {
		return obs, errFloating
	}
	obs.Mask = b.Mask()

	if req.Mask != nil {
		if len(req.Mask) != board.Columns {
			return obs, errMaskShape
		}
		for col, v := range req.Mask {
			if !binary(v) {
				return obs, errMaskValue
			}
			if v == 1 && !obs.Mask.Legal(col) {
				return obs, errMaskFull
			}
			obs.Mask[col] = uint8(v)
		}
	}
	return obs, nil
}

func binary(v int) bool {
	return v == 0 || v == 1
}

func (h *Handlers) agentFor(req DecideRequest) (agent.Agent, error) {
	settings := h.settings
	if req.Depth > 0 {
		settings.Depth = req.Depth
	}
	if req.BudgetMs > 0 {
		settings.Budget = min(time.Duration(req.BudgetMs)*time.Millisecond, maxDecideBudget)
	}
	if req.Seed != 0 {
		settings.Seed = req.Seed
	}
	return agent.New(req.Agent, settings)
}

// Decide runs one agent on the posted position and returns its column, or
// -1 when the position is terminal or has no legal column
func (h *Handlers) Decide(w http.ResponseWriter, r *http.Request) {
	var req DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	obs, err := req.observation()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := h.agentFor(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d := game.Decide(a, obs)
	h.producer.EmitDecision(req.GameID, a.Name(), d)
	log.Debug().Str("agent", a.Name()).Int("column", d.Column).Str("rule", d.Rule).Dur("elapsed", d.Elapsed).Msg("decide")

	respondJSON(w, http.StatusOK, DecideResponse{
		Agent:     a.Name(),
		Column:    d.Column,
		Rule:      d.Rule,
		Depth:     d.Depth,
		Score:     d.Score,
		Nodes:     d.Nodes,
		ElapsedMs: float64(d.Elapsed) / float64(time.Millisecond),
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("error writing response")
	}
}
