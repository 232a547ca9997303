package game

import (
	"sync"
	"time"

	"github.com/connect-four/agent/internal/agent"
	"github.com/google/uuid"
)

// BotUsername is the seat name of a server-side agent
const BotUsername = "BOT"

// DefaultReconnectWindow is how long a disconnected player may come back
const DefaultReconnectWindow = 30 * time.Second

// GameStatus represents the current state of the game
type GameStatus string

const (
	StatusWaiting    GameStatus = "waiting"
	StatusPlaying    GameStatus = "playing"
	StatusFinished   GameStatus = "finished"
	StatusDisconnect GameStatus = "disconnected"
)

// GameResult represents the outcome of a game
type GameResult string

const (
	ResultWinPlayer1 GameResult = "player1_win"
	ResultWinPlayer2 GameResult = "player2_win"
	ResultDraw       GameResult = "draw"
	ResultForfeit    GameResult = "forfeit"
)

// Player represents a player in the game
type Player struct {
	Username    string
	PlayerNum   int // Player1 or Player2
	IsBot       bool
	IsConnected bool
}

// Move represents a single move in the game
type Move struct {
	PlayerNum int       `json:"playerNum"`
	Column    int       `json:"column"`
	Row       int       `json:"row"`
	Timestamp time.Time `json:"timestamp"`
}

// Game represents a Connect Four game instance
type Game struct {
	ID                 string
	Player1            *Player
	Player2            *Player
	Board              *Board
	CurrentTurn        int // Player1 or Player2
	Status             GameStatus
	Winner             *Player
	Result             GameResult
	Moves              []Move
	StartTime          time.Time
	EndTime            time.Time
	DisconnectTime     time.Time
	DisconnectedPlayer int
	ReconnectWindow    time.Duration
	Bot                agent.Agent
	mu                 sync.RWMutex
}

// NewGame creates a new game instance
func NewGame(player1Username string) *Game {
	return &Game{
		ID: uuid.New().String(),
		Player1: &Player{
			Username:    player1Username,
			PlayerNum:   Player1,
			IsBot:       false,
			IsConnected: true,
		},
		Board:           NewBoard(),
		CurrentTurn:     Player1,
		Status:          StatusWaiting,
		Moves:           make([]Move, 0),
		StartTime:       time.Now(),
		ReconnectWindow: DefaultReconnectWindow,
	}
}

// AddPlayer2 seats the second player. A non-nil bot makes it a bot seat.
func (g *Game) AddPlayer2(username string, bot agent.Agent) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Player2 = &Player{
		Username:    username,
		PlayerNum:   Player2,
		IsBot:       bot != nil,
		IsConnected: true,
	}
	g.Bot = bot
	g.Status = StatusPlaying
}

// MakeMove makes a move for the specified player
func (g *Game) MakeMove(playerNum, column int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status != StatusPlaying {
		return -1, ErrGameNotInProgress
	}

	if g.CurrentTurn != playerNum {
		return -1, ErrNotYourTurn
	}

	row, err := g.Board.DropDisc(column, playerNum)
	if err != nil {
		return -1, err
	}

	g.Moves = append(g.Moves, Move{
		PlayerNum: playerNum,
		Column:    column,
		Row:       row,
		Timestamp: time.Now(),
	})

	if g.Board.CheckWin(playerNum) {
		g.Status = StatusFinished
		g.EndTime = time.Now()
		g.Winner = g.playerLocked(playerNum)
		g.Result = ResultWinPlayer1
		if playerNum == Player2 {
			g.Result = ResultWinPlayer2
		}
		return row, nil
	}

	if g.Board.IsFull() {
		g.Status = StatusFinished
		g.EndTime = time.Now()
		g.Result = ResultDraw
		return row, nil
	}

	g.CurrentTurn = Opponent(g.CurrentTurn)
	return row, nil
}

// Observation is the board from player's seat, ready for an agent
func (g *Game) Observation(player int) agent.Observation {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.observationLocked(player)
}

func (g *Game) observationLocked(player int) agent.Observation {
	return agent.Observation{
		Board:      g.Board.Snapshot(player),
		Mask:       g.Board.Mask(),
		Terminated: g.Status == StatusFinished && g.Result != ResultForfeit,
		Truncated:  g.Result == ResultForfeit,
	}
}

// MakeBotMove asks the bot for a column and plays it. The agent runs
// without holding the game lock.
func (g *Game) MakeBotMove() (agent.Decision, int, error) {
	g.mu.RLock()
	if g.Bot == nil || g.Status != StatusPlaying || g.CurrentTurn != Player2 {
		g.mu.RUnlock()
		return agent.Decision{Column: agent.NoAction}, -1, ErrNotYourTurn
	}
	bot := g.Bot
	obs := g.observationLocked(Player2)
	g.mu.RUnlock()

	d := Decide(bot, obs)
	if d.Column == agent.NoAction {
		return d, -1, ErrNoMove
	}
	row, err := g.MakeMove(Player2, d.Column)
	return d, row, err
}

// Decide runs a, keeping the rule trace when the agent can explain itself
func Decide(a agent.Agent, obs agent.Observation) agent.Decision {
	if d, ok := a.(agent.Decider); ok {
		return d.Decide(obs)
	}
	start := time.Now()
	col := a.ChooseAction(obs)
	return agent.Decision{Column: col, Elapsed: time.Since(start)}
}

// PlayerDisconnected marks a player as disconnected
func (g *Game) PlayerDisconnected(playerNum int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status != StatusPlaying {
		return
	}

	g.DisconnectedPlayer = playerNum
	g.DisconnectTime = time.Now()
	g.Status = StatusDisconnect

	g.playerLocked(playerNum).IsConnected = false
}

// PlayerReconnected marks a player as reconnected
func (g *Game) PlayerReconnected(playerNum int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status != StatusDisconnect || g.DisconnectedPlayer != playerNum {
		return false
	}

	if time.Since(g.DisconnectTime) > g.ReconnectWindow {
		return false
	}

	g.Status = StatusPlaying
	g.DisconnectedPlayer = 0
	g.DisconnectTime = time.Time{}

	g.playerLocked(playerNum).IsConnected = true

	return true
}

// Forfeit ends the game with a forfeit
func (g *Game) Forfeit(loserPlayerNum int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Status = StatusFinished
	g.EndTime = time.Now()
	g.Result = ResultForfeit

	g.Winner = g.playerLocked(Opponent(loserPlayerNum))
}

func (g *Game) playerLocked(playerNum int) *Player {
	if playerNum == Player1 {
		return g.Player1
	}
	return g.Player2
}

// GetState returns the current game state for serialization
func (g *Game) GetState() *GameState {
	g.mu.RLock()
	defer g.mu.RUnlock()

	state := &GameState{
		ID:          g.ID,
		Board:       g.Board.ToSlice(),
		CurrentTurn: g.CurrentTurn,
		Status:      g.Status,
		MoveCount:   len(g.Moves),
	}

	if g.Player1 != nil {
		state.Player1 = g.Player1.Username
	}
	if g.Player2 != nil {
		state.Player2 = g.Player2.Username
		state.IsVsBot = g.Player2.IsBot
	}
	if g.Winner != nil {
		state.Winner = g.Winner.Username
	}
	if len(g.Moves) > 0 {
		lastMove := g.Moves[len(g.Moves)-1]
		state.LastMove = &MoveInfo{
			Column: lastMove.Column,
			Row:    lastMove.Row,
		}
	}
	if g.Result != "" {
		state.Result = string(g.Result)
	}

	return state
}

// GetPlayerByUsername returns the player number for a username
func (g *Game) GetPlayerByUsername(username string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.Player1 != nil && g.Player1.Username == username {
		return Player1
	}
	if g.Player2 != nil && g.Player2.Username == username {
		return Player2
	}
	return 0
}

// GetDuration returns the game duration in seconds
func (g *Game) GetDuration() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.EndTime.IsZero() {
		return int(time.Since(g.StartTime).Seconds())
	}
	return int(g.EndTime.Sub(g.StartTime).Seconds())
}

// GameState represents the serializable game state
type GameState struct {
	ID          string     `json:"id"`
	Player1     string     `json:"player1"`
	Player2     string     `json:"player2"`
	IsVsBot     bool       `json:"isVsBot"`
	Board       [][]int    `json:"board"`
	CurrentTurn int        `json:"currentTurn"`
	Status      GameStatus `json:"status"`
	Winner      string     `json:"winner,omitempty"`
	Result      string     `json:"result,omitempty"`
	LastMove    *MoveInfo  `json:"lastMove,omitempty"`
	MoveCount   int        `json:"moveCount"`
}

// MoveInfo represents info about a move
type MoveInfo struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// Errors
var (
	ErrGameNotInProgress = &GameError{"game is not in progress"}
	ErrNotYourTurn       = &GameError{"not your turn"}
	ErrGameNotFound      = &GameError{"game not found"}
	ErrPlayerNotFound    = &GameError{"player not found"}
	ErrNoMove            = &GameError{"agent returned no move"}
)

type GameError struct {
	msg string
}

func (e *GameError) Error() string {
	return e.msg
}
