package websocket

import (
	"encoding/json"

	"github.com/connect-four/agent/internal/game"
	"github.com/connect-four/agent/internal/matchmaker"
	"github.com/rs/zerolog/log"
)

// Message types
const (
	TypeJoin                 = "join"
	TypeMove                 = "move"
	TypeReconnect            = "reconnect"
	TypeWaiting              = "waiting"
	TypeMatched              = "matched"
	TypeState                = "state"
	TypeGameOver             = "gameOver"
	TypeError                = "error"
	TypeOpponentDisconnected = "opponentDisconnected"
	TypeOpponentReconnected  = "opponentReconnected"
)

// Message represents a WebSocket message
type Message struct {
	Type              string          `json:"type"`
	Username          string          `json:"username,omitempty"`
	Column            int             `json:"column,omitempty"`
	Row               int             `json:"row,omitempty"`
	Rule              string          `json:"rule,omitempty"` // how the bot chose Column
	GameID            string          `json:"gameId,omitempty"`
	Opponent          string          `json:"opponent,omitempty"`
	YourTurn          bool            `json:"yourTurn,omitempty"`
	State             *game.GameState `json:"state,omitempty"`
	Winner            string          `json:"winner,omitempty"`
	Reason            string          `json:"reason,omitempty"`
	Message           string          `json:"message,omitempty"`
	ReconnectDeadline string          `json:"reconnectDeadline,omitempty"`
	PlayerNum         int             `json:"playerNum,omitempty"`
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	Type     string `json:"type"`
	Column   int    `json:"column,omitempty"`
	GameID   string `json:"gameId,omitempty"`
	Username string `json:"username,omitempty"`
}

// Handler processes WebSocket messages
type Handler struct {
	hub        *Hub
	matchmaker *matchmaker.Matchmaker
}

// NewHandler creates a new message handler
func NewHandler(hub *Hub, mm *matchmaker.Matchmaker) *Handler {
	return &Handler{
		hub:        hub,
		matchmaker: mm,
	}
}

// HandleMessage processes an incoming message
func (h *Handler) HandleMessage(client *Client, data []byte) {
	var msg IncomingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Str("user", client.username).Msg("error parsing message")
		client.sendMessage(Message{Type: TypeError, Message: "Invalid message format"})
		return
	}

	switch msg.Type {
	case TypeJoin:
		h.handleJoin(client)
	case TypeMove:
		h.handleMove(client, msg.Column)
	case TypeReconnect:
		h.handleReconnect(client, msg.GameID)
	default:
		client.sendMessage(Message{Type: TypeError, Message: "Unknown message type"})
	}
}

// handleJoin handles a player joining the matchmaking queue
func (h *Handler) handleJoin(client *Client) {
	// Check for existing game to reconnect
	existingGame := h.matchmaker.GetGameByPlayer(client.username)
	if existingGame != nil && existingGame.GetState().Status != game.StatusFinished {
		h.handleReconnectToGame(client, existingGame)
		return
	}

	gameChan, err := h.matchmaker.JoinQueue(client.username)
	if err != nil {
		client.sendMessage(Message{Type: TypeError, Message: err.Error()})
		return
	}
	client.sendMessage(Message{
		Type:    TypeWaiting,
		Message: "Looking for opponent...",
	})

	go func() {
		g := <-gameChan
		if g == nil {
			return
		}

		h.hub.RegisterToGame(g.ID, client)
		client.sendMessage(matched(g, client.username))
	}()
}

// handleMove plays the client's column and lets a bot seat answer
func (h *Handler) handleMove(client *Client, column int) {
	if client.gameID == "" {
		client.sendMessage(Message{Type: TypeError, Message: "Not in a game"})
		return
	}
	g := h.matchmaker.GetGame(client.gameID)
	if g == nil {
		client.sendMessage(Message{Type: TypeError, Message: game.ErrGameNotFound.Error()})
		return
	}
	playerNum := g.GetPlayerByUsername(client.username)
	if playerNum == 0 {
		client.sendMessage(Message{Type: TypeError, Message: game.ErrPlayerNotFound.Error()})
		return
	}

	row, err := g.MakeMove(playerNum, column)
	if err != nil {
		log.Debug().Err(err).Str("user", client.username).Int("column", column).Msg("move rejected")
		client.sendMessage(Message{Type: TypeError, Message: err.Error()})
		return
	}
	h.hub.moved(g, playerNum, column, row)
	h.hub.BroadcastGameState(g)

	if h.hub.finishIfOver(g) {
		return
	}
	if g.Bot != nil && g.GetState().CurrentTurn == game.Player2 {
		go h.hub.HandleBotMove(g)
	}
}

// handleReconnect handles a player trying to reconnect to a game
func (h *Handler) handleReconnect(client *Client, gameID string) {
	g := h.matchmaker.GetGame(gameID)
	if g == nil {
		g = h.matchmaker.GetGameByPlayer(client.username)
	}

	if g == nil {
		client.sendMessage(Message{Type: TypeError, Message: game.ErrGameNotFound.Error()})
		return
	}

	h.handleReconnectToGame(client, g)
}

// handleReconnectToGame handles reconnection to a specific game
func (h *Handler) handleReconnectToGame(client *Client, g *game.Game) {
	playerNum := g.GetPlayerByUsername(client.username)
	if playerNum == 0 {
		client.sendMessage(Message{Type: TypeError, Message: "Not a player in this game"})
		return
	}

	if !g.PlayerReconnected(playerNum) {
		state := g.GetState()
		if state.Status == game.StatusFinished {
			client.sendMessage(Message{Type: TypeError, Message: "Game has already ended"})
			return
		}
		client.sendMessage(Message{Type: TypeError, Message: "Reconnection failed"})
		return
	}

	h.hub.RegisterToGame(g.ID, client)

	h.hub.broadcastToGame(g.ID, Message{
		Type: TypeOpponentReconnected,
	})

	client.sendMessage(matched(g, client.username))
}

// matched tells username which seat it holds and whose turn it is
func matched(g *game.Game, username string) Message {
	state := g.GetState()
	playerNum := g.GetPlayerByUsername(username)
	opponent := state.Player2
	if playerNum == game.Player2 {
		opponent = state.Player1
	}
	return Message{
		Type:      TypeMatched,
		GameID:    g.ID,
		Opponent:  opponent,
		YourTurn:  state.CurrentTurn == playerNum,
		PlayerNum: playerNum,
		State:     state,
	}
}
