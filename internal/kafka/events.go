package kafka

import (
	"encoding/json"
	"time"
)

const TopicGameEvents = "game-events"

// EventType represents the type of game event
type EventType string

const (
	EventGameStart     EventType = "game_start"
	EventMove          EventType = "move"
	EventGameEnd       EventType = "game_end"
	EventDecision      EventType = "decision"
	EventTournamentEnd EventType = "tournament_end"
)

// GameEvent is the envelope on the topic. Data holds one of the *Data types
// below, chosen by Type.
type GameEvent struct {
	Type      EventType       `json:"type"`
	GameID    string          `json:"gameId"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type GameStartData struct {
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
	IsVsBot bool   `json:"isVsBot"`
}

type MoveData struct {
	Player  string `json:"player"`
	Column  int    `json:"column"`
	Row     int    `json:"row"`
	MoveNum int    `json:"moveNum"`
}

type GameEndData struct {
	Player1         string `json:"player1"`
	Player2         string `json:"player2"`
	Winner          string `json:"winner"`
	Result          string `json:"result"`
	DurationSeconds int    `json:"durationSeconds"`
	TotalMoves      int    `json:"totalMoves"`
	IsVsBot         bool   `json:"isVsBot"`
}

// DecisionData describes one agent move and how it was picked
type DecisionData struct {
	Agent     string  `json:"agent"`
	Column    int     `json:"column"`
	Rule      string  `json:"rule"`
	Depth     int     `json:"depth,omitempty"`
	Score     int     `json:"score,omitempty"`
	Nodes     int     `json:"nodes,omitempty"`
	ElapsedMs float64 `json:"elapsedMs"`
}

type TournamentEndData struct {
	Agent0        string  `json:"agent0"`
	Agent1        string  `json:"agent1"`
	Games         int     `json:"games"`
	Wins0         int     `json:"wins0"`
	Wins1         int     `json:"wins1"`
	Draws         int     `json:"draws"`
	AvgDecisionMs float64 `json:"avgDecisionMs"`
}

func newEvent(t EventType, id string, data any) (GameEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return GameEvent{}, err
	}
	return GameEvent{Type: t, GameID: id, Timestamp: time.Now(), Data: raw}, nil
}
