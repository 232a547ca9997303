package storage

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes
const (
	prefixGame       = "game/"
	prefixTournament = "tournament/"
)

// BadgerStore keeps records in an embedded BadgerDB. Queries scan and
// aggregate in memory, which suits a single-node deployment.
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

const DefaultBadgerDir = "data/badger"

// NewBadgerStore opens (or creates) a database in dir
func NewBadgerStore(dir string) (*BadgerStore, error) {
	if dir == "" {
		dir = DefaultBadgerDir
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	return openBadger(opts)
}

// NewMemoryStore is a BadgerStore that lives only as long as the process
func NewMemoryStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts)
}

func openBadger(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, now: time.Now}, nil
}

func (s *BadgerStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *BadgerStore) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// scan decodes every value under prefix with decode
func (s *BadgerStore) scan(prefix string, decode func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := it.Item().Value(decode); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) games() ([]CompletedGame, error) {
	var games []CompletedGame
	err := s.scan(prefixGame, func(val []byte) error {
		var g CompletedGame
		if err := json.Unmarshal(val, &g); err != nil {
			return err
		}
		games = append(games, g)
		return nil
	})
	return games, err
}

func (s *BadgerStore) tournaments() ([]TournamentRecord, error) {
	var records []TournamentRecord
	err := s.scan(prefixTournament, func(val []byte) error {
		var t TournamentRecord
		if err := json.Unmarshal(val, &t); err != nil {
			return err
		}
		records = append(records, t)
		return nil
	})
	return records, err
}

// SaveGame stores a completed game. Saving the same ID twice keeps the first.
func (s *BadgerStore) SaveGame(ctx context.Context, g CompletedGame) error {
	key := []byte(prefixGame + g.ID)
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(key, data)
	})
}

func (s *BadgerStore) SaveTournament(ctx context.Context, t TournamentRecord) error {
	return s.put(prefixTournament+t.ID, t)
}

func (s *BadgerStore) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	games, err := s.games()
	if err != nil {
		return nil, err
	}
	return leaderboard(games, limit), nil
}

func (s *BadgerStore) GetPlayerStats(ctx context.Context, username string) (*PlayerStats, error) {
	games, err := s.games()
	if err != nil {
		return nil, err
	}
	return playerStats(games, username), nil
}

func (s *BadgerStore) GetAnalytics(ctx context.Context) (*GameAnalytics, error) {
	games, err := s.games()
	if err != nil {
		return nil, err
	}
	tournaments, err := s.tournaments()
	if err != nil {
		return nil, err
	}
	return analytics(games, len(tournaments), s.now()), nil
}

// ListTournaments returns the most recent tournaments first
func (s *BadgerStore) ListTournaments(ctx context.Context, limit int) ([]TournamentRecord, error) {
	records, err := s.tournaments()
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// ClearAllGames drops every stored game; tournaments are kept
func (s *BadgerStore) ClearAllGames(ctx context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		var keys [][]byte
		p := []byte(prefixGame)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}
