// Package websocket serves live games over gorilla/websocket: one client per
// player, a hub routing game messages, and bot replies driven by the agent.
package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/connect-four/agent/internal/agent"
	"github.com/connect-four/agent/internal/game"
	"github.com/connect-four/agent/internal/matchmaker"
	"github.com/rs/zerolog/log"
)

const (
	defaultBotDelay = 500 * time.Millisecond
	cleanupDelay    = 5 * time.Second
)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients     map[string]*Client            // by username
	gameClients map[string]map[string]*Client // gameID -> username -> client
	register    chan *Client
	unregister  chan *Client
	matchmaker  *matchmaker.Matchmaker

	onGameEnd  func(g *game.Game)
	onMove     func(g *game.Game, player string, column, row int)
	onDecision func(g *game.Game, d agent.Decision)
	botDelay   time.Duration

	mu sync.RWMutex
}

func NewHub(mm *matchmaker.Matchmaker) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		gameClients: make(map[string]map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		matchmaker:  mm,
		botDelay:    defaultBotDelay,
	}
}

func (h *Hub) SetOnGameEnd(callback func(g *game.Game)) {
	h.onGameEnd = callback
}

// SetOnMove is called after every accepted move, human or bot
func (h *Hub) SetOnMove(callback func(g *game.Game, player string, column, row int)) {
	h.onMove = callback
}

// SetOnDecision is called with the bot's reasoning for each of its moves
func (h *Hub) SetOnDecision(callback func(g *game.Game, d agent.Decision)) {
	h.onDecision = callback
}

// SetBotDelay sets the pause before a bot replies
func (h *Hub) SetBotDelay(d time.Duration) {
	h.botDelay = d
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.username]; ok && old != client && old.conn != nil {
				old.conn.Close() // its readPump unregisters it as stale
			}
			h.clients[client.username] = client
			h.mu.Unlock()
			log.Debug().Str("user", client.username).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			current := h.clients[client.username] == client
			if current {
				delete(h.clients, client.username)
				close(client.send)
			}
			if players := h.gameClients[client.gameID]; players[client.username] == client {
				delete(players, client.username)
			}
			h.mu.Unlock()
			log.Debug().Str("user", client.username).Bool("replaced", !current).Msg("client unregistered")

			if current {
				h.handleDisconnect(client)
			}
		}
	}
}

func (h *Hub) handleDisconnect(client *Client) {
	if client.gameID == "" {
		h.matchmaker.LeaveQueue(client.username)
		return
	}

	g := h.matchmaker.GetGame(client.gameID)
	if g == nil {
		return
	}
	playerNum := g.GetPlayerByUsername(client.username)
	if playerNum == 0 {
		return
	}

	// A bot never waits for a reconnect
	if g.Player2 != nil && g.Player2.IsBot && playerNum == game.Player1 {
		g.Forfeit(game.Player1)
		h.handleGameEnd(g)
		return
	}

	g.PlayerDisconnected(playerNum)
	h.notifyOpponentDisconnected(g, playerNum)
	go h.handleReconnectTimeout(g, playerNum)
}

func (h *Hub) handleReconnectTimeout(g *game.Game, disconnectedPlayer int) {
	time.Sleep(g.ReconnectWindow)

	if g.GetState().Status != game.StatusDisconnect {
		return
	}
	g.Forfeit(disconnectedPlayer)
	h.handleGameEnd(g)
	h.broadcastToGame(g.ID, Message{
		Type:   TypeGameOver,
		Winner: g.GetState().Winner,
		Reason: string(game.ResultForfeit),
	})
}

func (h *Hub) notifyOpponentDisconnected(g *game.Game, disconnectedPlayerNum int) {
	deadline := time.Now().Add(g.ReconnectWindow)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for username, client := range h.gameClients[g.ID] {
		if g.GetPlayerByUsername(username) != disconnectedPlayerNum {
			client.sendMessage(Message{
				Type:              TypeOpponentDisconnected,
				ReconnectDeadline: deadline.Format(time.RFC3339),
			})
		}
	}
}

// RegisterToGame adds a client to a game's client list
func (h *Hub) RegisterToGame(gameID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.gameClients[gameID] == nil {
		h.gameClients[gameID] = make(map[string]*Client)
	}
	h.gameClients[gameID][client.username] = client
	client.gameID = gameID
}

// BroadcastGameState sends game state to all players in a game
func (h *Hub) BroadcastGameState(g *game.Game) {
	h.broadcastToGame(g.ID, Message{Type: TypeState, State: g.GetState()})
}

func (h *Hub) broadcastToGame(gameID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("error marshaling message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for username, client := range h.gameClients[gameID] {
		select {
		case client.send <- data:
		default:
			log.Warn().Str("game", gameID).Str("user", username).Str("type", msg.Type).Msg("send buffer full")
		}
	}
}

// SendToClient sends a message to a specific client
func (h *Hub) SendToClient(username string, msg Message) {
	h.mu.RLock()
	client, ok := h.clients[username]
	h.mu.RUnlock()
	if ok {
		client.sendMessage(msg)
	}
}

func (h *Hub) moved(g *game.Game, playerNum, column, row int) {
	if h.onMove == nil {
		return
	}
	name := g.Player1.Username
	if playerNum == game.Player2 {
		name = g.Player2.Username
	}
	h.onMove(g, name, column, row)
}

// finishIfOver announces the result and reports whether the game ended
func (h *Hub) finishIfOver(g *game.Game) bool {
	state := g.GetState()
	if state.Status != game.StatusFinished {
		return false
	}
	h.broadcastToGame(g.ID, Message{
		Type:   TypeGameOver,
		Winner: state.Winner,
		Reason: state.Result,
	})
	h.handleGameEnd(g)
	return true
}

func (h *Hub) handleGameEnd(g *game.Game) {
	if h.onGameEnd != nil {
		h.onGameEnd(g)
	}

	go func() {
		time.Sleep(cleanupDelay)
		h.mu.Lock()
		delete(h.gameClients, g.ID)
		h.mu.Unlock()
		h.matchmaker.RemoveGame(g.ID)
	}()
}

// HandleBotMove lets the bot answer if it is its turn
func (h *Hub) HandleBotMove(g *game.Game) {
	state := g.GetState()
	if g.Bot == nil || state.Status != game.StatusPlaying || state.CurrentTurn != game.Player2 {
		return
	}

	time.Sleep(h.botDelay)

	d, row, err := g.MakeBotMove()
	if err != nil {
		log.Error().Err(err).Str("game", g.ID).Msg("bot move failed")
		return
	}
	log.Debug().
		Str("game", g.ID).
		Str("agent", g.Bot.Name()).
		Int("column", d.Column).
		Str("rule", d.Rule).
		Dur("elapsed", d.Elapsed).
		Msg("bot moved")

	if h.onDecision != nil {
		h.onDecision(g, d)
	}
	h.moved(g, game.Player2, d.Column, row)

	h.broadcastToGame(g.ID, Message{
		Type:   TypeState,
		State:  g.GetState(),
		Column: d.Column,
		Row:    row,
		Rule:   d.Rule,
	})
	h.finishIfOver(g)
}

func (h *Hub) GetClient(username string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[username]
}
