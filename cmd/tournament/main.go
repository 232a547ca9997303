// Command tournament plays two agents against each other and records the
// result in the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/connect-four/agent/internal/agent"
	"github.com/connect-four/agent/internal/kafka"
	"github.com/connect-four/agent/internal/logging"
	"github.com/connect-four/agent/internal/storage"
	"github.com/connect-four/agent/internal/tournament"
	"github.com/rs/zerolog/log"
)

func main() {
	first := flag.String("a", agent.KindMinimax, "first agent: random, rules or minimax")
	second := flag.String("b", agent.KindRandom, "second agent")
	games := flag.Int("games", 100, "number of games")
	depth := flag.Int("depth", agent.DefaultDepth, "minimax base depth")
	budget := flag.Duration("budget", agent.DefaultBudget, "time budget per minimax decision")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random agent seed")
	swap := flag.Bool("swap", true, "alternate who moves first")
	backend := flag.String("store", "", "store backend: postgres, badger or memory; empty skips saving")
	target := flag.String("target", "", "postgres DSN or badger directory")
	brokers := flag.String("kafka", "", "comma separated kafka brokers; empty disables events")
	level := flag.String("log", "info", "log level")
	flag.Parse()

	logging.Setup(*level, true)

	settings := agent.Settings{Seed: *seed, Depth: *depth, Budget: *budget}
	a0, err := agent.New(*first, settings)
	if err != nil {
		log.Fatal().Err(err).Msg("first agent")
	}
	// a distinct seed keeps two random agents from mirroring each other
	settings.Seed++
	a1, err := agent.New(*second, settings)
	if err != nil {
		log.Fatal().Err(err).Msg("second agent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var options []tournament.Option
	if *swap {
		options = append(options, tournament.WithSwapSeats())
	}
	res, err := tournament.Run(ctx, a0, a1, *games, options...)
	if err != nil {
		log.Warn().Err(err).Msg("tournament interrupted, keeping partial result")
	}
	fmt.Println(res)

	if *brokers != "" {
		producer := kafka.NewProducer(strings.Split(*brokers, ","))
		producer.EmitTournamentEnd(res)
		producer.Close()
	}

	if *backend == "" {
		return
	}
	store, err := storage.Open(context.Background(), *backend, *target)
	if err != nil {
		log.Fatal().Err(err).Str("backend", *backend).Msg("open store")
	}
	defer store.Close()
	if err := store.SaveTournament(context.Background(), storage.NewTournamentRecord(res)); err != nil {
		log.Error().Err(err).Msg("save tournament")
		return
	}
	log.Info().Str("id", res.ID).Str("backend", *backend).Msg("tournament saved")
}
