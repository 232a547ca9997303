// Package tournament plays agents against each other on the game harness and
// keeps score.
package tournament

import (
	"context"
	"fmt"
	"time"

	"github.com/connect-four/agent/internal/agent"
	"github.com/connect-four/agent/internal/game"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Result is the score of a match. Index 0 is the first agent passed to Run,
// whichever seat it played from.
type Result struct {
	ID          string        `json:"id"`
	Agents      [2]string     `json:"agents"`
	Games       int           `json:"games"`
	Wins        [2]int        `json:"wins"`
	Draws       int           `json:"draws"`
	Forfeits    [2]int        `json:"forfeits"`
	Decisions   int           `json:"decisions"`
	AvgDecision time.Duration `json:"avgDecision"`
	MaxDecision time.Duration `json:"maxDecision"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
}

func (r Result) String() string {
	return fmt.Sprintf("%s %d - %d %s (%d draws, %d games, avg %s, max %s)",
		r.Agents[0], r.Wins[0], r.Wins[1], r.Agents[1], r.Draws, r.Games, r.AvgDecision, r.MaxDecision)
}

type Option func(c *config)

type config struct {
	swapSeats bool
	logger    zerolog.Logger
	onGame    func(g *game.Game)
}

// WithSwapSeats alternates which agent moves first
func WithSwapSeats() Option {
	return func(c *config) {
		c.swapSeats = true
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithGameHook is called with every finished game
func WithGameHook(fn func(g *game.Game)) Option {
	return func(c *config) {
		c.onGame = fn
	}
}

// Run plays games between a0 and a1. It stops early, returning the partial
// result, when ctx is done.
func Run(ctx context.Context, a0, a1 agent.Agent, games int, options ...Option) (Result, error) {
	c := &config{logger: log.Logger}
	for _, option := range options {
		option(c)
	}

	res := Result{
		ID:        uuid.New().String(),
		Agents:    [2]string{a0.Name(), a1.Name()},
		StartTime: time.Now(),
	}
	var total time.Duration

	for i := 0; i < games; i++ {
		if err := ctx.Err(); err != nil {
			res.EndTime = time.Now()
			return res, fmt.Errorf("tournament stopped after %d games: %w", res.Games, err)
		}

		// seats[k] is the index into res of the agent sitting in seat k
		seats := [2]int{0, 1}
		if c.swapSeats && i%2 == 1 {
			seats = [2]int{1, 0}
		}
		agents := [2]agent.Agent{a0, a1}
		seated := [2]agent.Agent{agents[seats[0]], agents[seats[1]]}

		out := playGame(seated, c.logger)
		res.Games++
		res.Decisions += len(out.timings)
		for _, d := range out.timings {
			total += d
			if d > res.MaxDecision {
				res.MaxDecision = d
			}
		}

		switch out.game.Result {
		case game.ResultWinPlayer1:
			res.Wins[seats[0]]++
		case game.ResultWinPlayer2:
			res.Wins[seats[1]]++
		case game.ResultForfeit:
			loser := seats[out.forfeiter-1]
			res.Forfeits[loser]++
			res.Wins[1-loser]++
		default:
			res.Draws++
		}

		c.logger.Debug().
			Int("game", i+1).
			Str("first", seated[0].Name()).
			Str("result", string(out.game.Result)).
			Int("moves", len(out.game.Moves)).
			Msg("game finished")
		if c.onGame != nil {
			c.onGame(out.game)
		}
	}

	if res.Decisions > 0 {
		res.AvgDecision = total / time.Duration(res.Decisions)
	}
	res.EndTime = time.Now()
	c.logger.Info().Str("result", res.String()).Msg("tournament finished")
	return res, nil
}

type outcome struct {
	game      *game.Game
	timings   []time.Duration
	forfeiter int
}

// playGame runs one game to the end. An agent that answers a live position
// with NoAction or an illegal column forfeits.
func playGame(seated [2]agent.Agent, logger zerolog.Logger) outcome {
	g := game.NewGame(seated[0].Name())
	g.AddPlayer2(seated[1].Name(), nil)
	out := outcome{game: g}

	for g.Status == game.StatusPlaying {
		player := g.CurrentTurn
		a := seated[player-1]
		obs := g.Observation(player)

		start := time.Now()
		col := a.ChooseAction(obs)
		out.timings = append(out.timings, time.Since(start))

		if _, err := g.MakeMove(player, col); err != nil {
			logger.Warn().Err(err).Str("agent", a.Name()).Int("column", col).Msg("illegal move, forfeiting")
			out.forfeiter = player
			g.Forfeit(player)
		}
	}

	// Both agents see the final position; a well-behaved agent passes
	for player := game.Player1; player <= game.Player2; player++ {
		a := seated[player-1]
		if col := a.ChooseAction(g.Observation(player)); col != agent.NoAction {
			logger.Warn().Str("agent", a.Name()).Int("column", col).Msg("agent moved on a finished game")
		}
	}
	return out
}
