package storage

import (
	"encoding/json"
	"time"

	"github.com/connect-four/agent/internal/game"
	"github.com/connect-four/agent/internal/tournament"
)

// CompletedGame is a finished session as persisted. An empty Winner is a draw.
type CompletedGame struct {
	ID              string    `json:"id"`
	Player1         string    `json:"player1"`
	Player2         string    `json:"player2"`
	IsVsBot         bool      `json:"isVsBot"`
	Winner          string    `json:"winner"`
	IsForfeit       bool      `json:"isForfeit"`
	IsDraw          bool      `json:"isDraw"`
	DurationSeconds int       `json:"durationSeconds"`
	MoveCount       int       `json:"moveCount"`
	Moves           string    `json:"moves"` // JSON array of game.Move
	CreatedAt       time.Time `json:"createdAt"`
	EndedAt         time.Time `json:"endedAt"`
}

// NewCompletedGame flattens a finished game into its stored form
func NewCompletedGame(g *game.Game) CompletedGame {
	state := g.GetState()
	moves, err := json.Marshal(g.Moves)
	if err != nil {
		moves = []byte("[]")
	}
	return CompletedGame{
		ID:              g.ID,
		Player1:         state.Player1,
		Player2:         state.Player2,
		IsVsBot:         state.IsVsBot,
		Winner:          state.Winner,
		IsForfeit:       state.Result == string(game.ResultForfeit),
		IsDraw:          state.Result == string(game.ResultDraw),
		DurationSeconds: g.GetDuration(),
		MoveCount:       state.MoveCount,
		Moves:           string(moves),
		CreatedAt:       g.StartTime,
		EndedAt:         g.EndTime,
	}
}

// TournamentRecord is a finished agent match
type TournamentRecord struct {
	ID            string    `json:"id"`
	Agent0        string    `json:"agent0"`
	Agent1        string    `json:"agent1"`
	Games         int       `json:"games"`
	Wins0         int       `json:"wins0"`
	Wins1         int       `json:"wins1"`
	Draws         int       `json:"draws"`
	AvgDecisionMs float64   `json:"avgDecisionMs"`
	MaxDecisionMs float64   `json:"maxDecisionMs"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewTournamentRecord(r tournament.Result) TournamentRecord {
	return TournamentRecord{
		ID:            r.ID,
		Agent0:        r.Agents[0],
		Agent1:        r.Agents[1],
		Games:         r.Games,
		Wins0:         r.Wins[0],
		Wins1:         r.Wins[1],
		Draws:         r.Draws,
		AvgDecisionMs: float64(r.AvgDecision) / float64(time.Millisecond),
		MaxDecisionMs: float64(r.MaxDecision) / float64(time.Millisecond),
		CreatedAt:     r.EndTime,
	}
}

// LeaderboardEntry represents a player's ranking
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Draws    int     `json:"draws"`
	Games    int     `json:"games"`
	WinRate  float64 `json:"winRate"`
}

// PlayerStats represents detailed player statistics
type PlayerStats struct {
	Username      string  `json:"username"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Draws         int     `json:"draws"`
	TotalGames    int     `json:"totalGames"`
	WinRate       float64 `json:"winRate"`
	BotWins       int     `json:"botWins"`
	BotLosses     int     `json:"botLosses"`
	AvgGameLength float64 `json:"avgGameLength"`
	CurrentStreak int     `json:"currentStreak"`
}

// GameAnalytics represents aggregated game analytics
type GameAnalytics struct {
	TotalGames         int     `json:"totalGames"`
	TotalPlayers       int     `json:"totalPlayers"`
	AvgGameDuration    float64 `json:"avgGameDuration"`
	BotGamesPlayed     int     `json:"botGamesPlayed"`
	GamesToday         int     `json:"gamesToday"`
	GamesThisHour      int     `json:"gamesThisHour"`
	MostFrequentWinner string  `json:"mostFrequentWinner"`
	Tournaments        int     `json:"tournaments"`
}
