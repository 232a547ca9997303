// Package storage persists finished games and tournaments and answers the
// leaderboard queries over them.
package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// Backends accepted by Open
const (
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
	BackendMemory   = "memory"
)

const defaultLeaderboardLimit = 10

type Store interface {
	SaveGame(ctx context.Context, g CompletedGame) error
	SaveTournament(ctx context.Context, t TournamentRecord) error
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	GetPlayerStats(ctx context.Context, username string) (*PlayerStats, error)
	GetAnalytics(ctx context.Context) (*GameAnalytics, error)
	ListTournaments(ctx context.Context, limit int) ([]TournamentRecord, error)
	ClearAllGames(ctx context.Context) error
	Close() error
}

// Open connects the configured backend. target is a DSN for postgres and a
// directory for badger.
func Open(ctx context.Context, backend, target string) (Store, error) {
	switch backend {
	case BackendPostgres:
		return NewPostgresStore(ctx, target)
	case BackendBadger:
		return NewBadgerStore(target)
	case BackendMemory, "":
		return NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func winRate(wins, games int) float64 {
	if games == 0 {
		return 0
	}
	return math.Round(float64(wins)/float64(games)*1000) / 10
}

// leaderboard ranks human players by wins, then win rate, then name
func leaderboard(games []CompletedGame, limit int) []LeaderboardEntry {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	byName := map[string]*LeaderboardEntry{}
	tally := func(username, winner string) {
		e, ok := byName[username]
		if !ok {
			e = &LeaderboardEntry{Username: username}
			byName[username] = e
		}
		e.Games++
		switch winner {
		case username:
			e.Wins++
		case "":
			e.Draws++
		default:
			e.Losses++
		}
	}
	for _, g := range games {
		tally(g.Player1, g.Winner)
		if !g.IsVsBot {
			tally(g.Player2, g.Winner)
		}
	}

	entries := make([]LeaderboardEntry, 0, len(byName))
	for _, e := range byName {
		e.WinRate = winRate(e.Wins, e.Games)
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		return a.Username < b.Username
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func playerStats(games []CompletedGame, username string) *PlayerStats {
	stats := &PlayerStats{Username: username}
	var played []CompletedGame
	var duration int
	for _, g := range games {
		if g.Player1 != username && g.Player2 != username {
			continue
		}
		played = append(played, g)
		stats.TotalGames++
		duration += g.DurationSeconds
		switch g.Winner {
		case username:
			stats.Wins++
			if g.IsVsBot {
				stats.BotWins++
			}
		case "":
			stats.Draws++
		default:
			stats.Losses++
			if g.IsVsBot {
				stats.BotLosses++
			}
		}
	}
	if stats.TotalGames > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.TotalGames) * 100
		stats.AvgGameLength = float64(duration) / float64(stats.TotalGames)
	}

	sort.Slice(played, func(i, j int) bool { return played[i].EndedAt.After(played[j].EndedAt) })
	winners := make([]string, len(played))
	for i, g := range played {
		winners[i] = g.Winner
	}
	stats.CurrentStreak = streak(winners, username)
	return stats
}

// streak counts username's consecutive wins at the head of winners, newest first
func streak(winners []string, username string) int {
	n := 0
	for _, w := range winners {
		if w != username {
			break
		}
		n++
	}
	return n
}

func analytics(games []CompletedGame, tournaments int, now time.Time) *GameAnalytics {
	a := &GameAnalytics{TotalGames: len(games), Tournaments: tournaments}
	today := now.Truncate(24 * time.Hour)
	thisHour := now.Truncate(time.Hour)

	players := map[string]struct{}{}
	wins := map[string]int{}
	var duration int
	for _, g := range games {
		players[g.Player1] = struct{}{}
		if g.IsVsBot {
			a.BotGamesPlayed++
		} else {
			players[g.Player2] = struct{}{}
		}
		duration += g.DurationSeconds
		if !g.CreatedAt.Before(today) {
			a.GamesToday++
		}
		if !g.CreatedAt.Before(thisHour) {
			a.GamesThisHour++
		}
		if g.Winner != "" {
			wins[g.Winner]++
		}
	}
	a.TotalPlayers = len(players)
	if len(games) > 0 {
		a.AvgGameDuration = float64(duration) / float64(len(games))
	}
	for name, n := range wins {
		best := wins[a.MostFrequentWinner]
		if n > best || (n == best && name < a.MostFrequentWinner) {
			a.MostFrequentWinner = name
		}
	}
	return a
}
