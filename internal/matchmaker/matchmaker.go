// Package matchmaker pairs waiting players and seats a bot when nobody shows up.
package matchmaker

import (
	"errors"
	"sync"
	"time"

	"github.com/connect-four/agent/internal/agent"
	"github.com/connect-four/agent/internal/game"
	"github.com/rs/zerolog/log"
)

const DefaultTimeout = 10 * time.Second

// ErrAlreadyWaiting is returned when a queued player joins again
var ErrAlreadyWaiting = errors.New("already waiting for an opponent")

// BotFactory builds the agent for a new bot game
type BotFactory func() agent.Agent

type Option func(m *Matchmaker)

// WithTimeout sets how long a player waits before getting a bot
func WithTimeout(d time.Duration) Option {
	return func(m *Matchmaker) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithBotFactory(f BotFactory) Option {
	return func(m *Matchmaker) {
		if f != nil {
			m.newBot = f
		}
	}
}

// WithReconnectWindow is applied to every game the matchmaker creates
func WithReconnectWindow(d time.Duration) Option {
	return func(m *Matchmaker) {
		if d > 0 {
			m.reconnectWindow = d
		}
	}
}

// WaitingPlayer represents a player waiting for a match
type WaitingPlayer struct {
	Username  string
	JoinedAt  time.Time
	MatchChan chan *game.Game
}

// Matchmaker handles player matching
type Matchmaker struct {
	waitingQueue    []*WaitingPlayer
	activeGames     map[string]*game.Game // gameID -> game
	playerGames     map[string]string     // username -> gameID
	mu              sync.Mutex
	onGameStart     func(g *game.Game)
	timeout         time.Duration
	reconnectWindow time.Duration
	newBot          BotFactory
}

func NewMatchmaker(options ...Option) *Matchmaker {
	m := &Matchmaker{
		waitingQueue:    make([]*WaitingPlayer, 0),
		activeGames:     make(map[string]*game.Game),
		playerGames:     make(map[string]string),
		timeout:         DefaultTimeout,
		reconnectWindow: game.DefaultReconnectWindow,
		newBot:          func() agent.Agent { return agent.NewMinimax() },
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *Matchmaker) newGame(player1 string) *game.Game {
	g := game.NewGame(player1)
	g.ReconnectWindow = m.reconnectWindow
	return g
}

// SetOnGameStart sets the callback for when a game starts
func (m *Matchmaker) SetOnGameStart(callback func(g *game.Game)) {
	m.onGameStart = callback
}

// JoinQueue adds a player to the matchmaking queue
// Returns a channel that will receive the game when matched
func (m *Matchmaker) JoinQueue(username string) (<-chan *game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check if player is already in a game
	if gameID, exists := m.playerGames[username]; exists {
		if g, ok := m.activeGames[gameID]; ok {
			// Return existing game for reconnection
			ch := make(chan *game.Game, 1)
			ch <- g
			return ch, nil
		}
	}

	for _, w := range m.waitingQueue {
		if w.Username == username {
			return nil, ErrAlreadyWaiting
		}
	}

	// Check if there's a waiting player to match with
	if len(m.waitingQueue) > 0 {
		// Match with the first waiting player
		opponent := m.waitingQueue[0]
		m.waitingQueue = m.waitingQueue[1:]

		g := m.newGame(opponent.Username)
		g.AddPlayer2(username, nil)

		m.activeGames[g.ID] = g
		m.playerGames[opponent.Username] = g.ID
		m.playerGames[username] = g.ID

		// Notify the waiting player
		opponent.MatchChan <- g

		// Return the game to the joining player
		ch := make(chan *game.Game, 1)
		ch <- g

		if m.onGameStart != nil {
			go m.onGameStart(g)
		}

		return ch, nil
	}

	// No opponent available, add to queue
	waiting := &WaitingPlayer{
		Username:  username,
		JoinedAt:  time.Now(),
		MatchChan: make(chan *game.Game, 1),
	}
	m.waitingQueue = append(m.waitingQueue, waiting)

	// Start timeout goroutine
	go m.handleMatchmakingTimeout(waiting)

	return waiting.MatchChan, nil
}

// handleMatchmakingTimeout seats a bot once the player has waited too long
func (m *Matchmaker) handleMatchmakingTimeout(waiting *WaitingPlayer) {
	time.Sleep(m.timeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Check if still in queue
	for i, w := range m.waitingQueue {
		if w == waiting {
			m.waitingQueue = append(m.waitingQueue[:i], m.waitingQueue[i+1:]...)

			bot := m.newBot()
			g := m.newGame(waiting.Username)
			g.AddPlayer2(game.BotUsername, bot)
			log.Info().
				Str("component", "matchmaker").
				Str("game", g.ID).
				Str("player", waiting.Username).
				Str("agent", bot.Name()).
				Msg("bot game created")

			m.activeGames[g.ID] = g
			m.playerGames[waiting.Username] = g.ID

			waiting.MatchChan <- g

			if m.onGameStart != nil {
				go m.onGameStart(g)
			}

			return
		}
	}
}

// GetGame returns a game by ID
func (m *Matchmaker) GetGame(gameID string) *game.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeGames[gameID]
}

// GetGameByPlayer returns a game by player username
func (m *Matchmaker) GetGameByPlayer(username string) *game.Game {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gameID, exists := m.playerGames[username]; exists {
		return m.activeGames[gameID]
	}
	return nil
}

// RemoveGame removes a completed game from active games
func (m *Matchmaker) RemoveGame(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, exists := m.activeGames[gameID]; exists {
		delete(m.playerGames, g.Player1.Username)
		if g.Player2 != nil && !g.Player2.IsBot {
			delete(m.playerGames, g.Player2.Username)
		}
		delete(m.activeGames, gameID)
	}
}

// LeaveQueue removes a player from the waiting queue
func (m *Matchmaker) LeaveQueue(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, w := range m.waitingQueue {
		if w.Username == username {
			m.waitingQueue = append(m.waitingQueue[:i], m.waitingQueue[i+1:]...)
			close(w.MatchChan)
			return
		}
	}
}

// GetActiveGameCount returns the number of active games
func (m *Matchmaker) GetActiveGameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activeGames)
}

// GetWaitingCount returns the number of players waiting
func (m *Matchmaker) GetWaitingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waitingQueue)
}
