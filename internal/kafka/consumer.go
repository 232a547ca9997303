package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/connect-four/agent/internal/game"
	"github.com/rs/zerolog/log"
)

const ConsumerGroup = "analytics-consumer"

// AnalyticsMetrics holds aggregated analytics data
type AnalyticsMetrics struct {
	TotalGames      int64                     `json:"totalGames"`
	FinishedGames   int64                     `json:"finishedGames"`
	TotalMoves      int64                     `json:"totalMoves"`
	BotGames        int64                     `json:"botGames"`
	TotalDuration   int64                     `json:"totalDuration"`
	WinCounts       map[string]int            `json:"winCounts"`
	GamesPerHour    map[string]int            `json:"gamesPerHour"`
	GamesPerDay     map[string]int            `json:"gamesPerDay"`
	PlayerStats     map[string]*PlayerMetrics `json:"playerStats"`
	Decisions       int64                     `json:"decisions"`
	DecisionsByRule map[string]int            `json:"decisionsByRule"`
	DecisionMs      float64                   `json:"decisionMs"`
	MaxDecisionMs   float64                   `json:"maxDecisionMs"`
	Tournaments     int64                     `json:"tournaments"`
}

// PlayerMetrics holds per-player analytics
type PlayerMetrics struct {
	Wins       int   `json:"wins"`
	Losses     int   `json:"losses"`
	Draws      int   `json:"draws"`
	TotalGames int   `json:"totalGames"`
	TotalMoves int64 `json:"totalMoves"`
}

func newMetrics() *AnalyticsMetrics {
	return &AnalyticsMetrics{
		WinCounts:       make(map[string]int),
		GamesPerHour:    make(map[string]int),
		GamesPerDay:     make(map[string]int),
		PlayerStats:     make(map[string]*PlayerMetrics),
		DecisionsByRule: make(map[string]int),
	}
}

// Consumer folds the event stream into in-memory metrics
type Consumer struct {
	group   sarama.ConsumerGroup
	metrics *AnalyticsMetrics
	mu      sync.RWMutex
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

func NewConsumer(brokers []string) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, ConsumerGroup, config)
	if err != nil {
		return nil, err
	}
	c := newConsumer()
	c.group = group
	return c, nil
}

func newConsumer() *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		metrics: newMetrics(),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start consumes in the background until Stop
func (c *Consumer) Start() {
	c.started = true
	go func() {
		defer close(c.done)
		for {
			if err := c.group.Consume(c.ctx, []string{TopicGameEvents}, c); err != nil {
				log.Error().Err(err).Msg("kafka consumer error")
			}
			if c.ctx.Err() != nil {
				return
			}
		}
	}()
	log.Info().Str("group", ConsumerGroup).Msg("kafka consumer started")
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		c.processMessage(msg)
		session.MarkMessage(msg, "")
	}
	return nil
}

func (c *Consumer) processMessage(msg *sarama.ConsumerMessage) {
	var event GameEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Warn().Err(err).Int64("offset", msg.Offset).Msg("skipping undecodable event")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	switch event.Type {
	case EventGameStart:
		err = decode(event, c.handleGameStart)
	case EventMove:
		err = decode(event, c.handleMove)
	case EventGameEnd:
		err = decode(event, c.handleGameEnd)
	case EventDecision:
		err = decode(event, c.handleDecision)
	case EventTournamentEnd:
		c.metrics.Tournaments++
	}
	if err != nil {
		log.Warn().Err(err).Str("type", string(event.Type)).Msg("skipping event with bad data")
	}
}

func decode[T any](event GameEvent, handle func(GameEvent, T)) error {
	var data T
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return err
	}
	handle(event, data)
	return nil
}

func (c *Consumer) player(name string) *PlayerMetrics {
	p := c.metrics.PlayerStats[name]
	if p == nil {
		p = &PlayerMetrics{}
		c.metrics.PlayerStats[name] = p
	}
	return p
}

func (c *Consumer) handleGameStart(event GameEvent, data GameStartData) {
	c.metrics.TotalGames++
	if data.IsVsBot {
		c.metrics.BotGames++
	}
	c.metrics.GamesPerHour[event.Timestamp.Format("2006-01-02-15")]++
	c.metrics.GamesPerDay[event.Timestamp.Format("2006-01-02")]++

	c.player(data.Player1).TotalGames++
	if !data.IsVsBot && data.Player2 != game.BotUsername {
		c.player(data.Player2).TotalGames++
	}
}

func (c *Consumer) handleMove(_ GameEvent, data MoveData) {
	c.metrics.TotalMoves++
	c.player(data.Player).TotalMoves++
}

func (c *Consumer) handleGameEnd(_ GameEvent, data GameEndData) {
	c.metrics.FinishedGames++
	c.metrics.TotalDuration += int64(data.DurationSeconds)

	seats := []string{data.Player1}
	if !data.IsVsBot {
		seats = append(seats, data.Player2)
	}
	if data.Winner != "" {
		c.metrics.WinCounts[data.Winner]++
	}
	for _, name := range seats {
		if name == "" {
			continue
		}
		p := c.player(name)
		switch data.Winner {
		case name:
			p.Wins++
		case "":
			p.Draws++
		default:
			p.Losses++
		}
	}
}

func (c *Consumer) handleDecision(_ GameEvent, data DecisionData) {
	c.metrics.Decisions++
	c.metrics.DecisionsByRule[data.Rule]++
	c.metrics.DecisionMs += data.ElapsedMs
	if data.ElapsedMs > c.metrics.MaxDecisionMs {
		c.metrics.MaxDecisionMs = data.ElapsedMs
	}
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// GetMetrics returns a copy of the current metrics
func (c *Consumer) GetMetrics() *AnalyticsMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m := *c.metrics
	m.WinCounts = copyCounts(c.metrics.WinCounts)
	m.GamesPerHour = copyCounts(c.metrics.GamesPerHour)
	m.GamesPerDay = copyCounts(c.metrics.GamesPerDay)
	m.DecisionsByRule = copyCounts(c.metrics.DecisionsByRule)
	m.PlayerStats = make(map[string]*PlayerMetrics, len(c.metrics.PlayerStats))
	for k, v := range c.metrics.PlayerStats {
		p := *v
		m.PlayerStats[k] = &p
	}
	return &m
}

// GetAverageGameDuration is the mean duration of finished games, in seconds
func (c *Consumer) GetAverageGameDuration() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.metrics.FinishedGames == 0 {
		return 0
	}
	return float64(c.metrics.TotalDuration) / float64(c.metrics.FinishedGames)
}

// GetAverageDecisionMs is the mean agent decision time
func (c *Consumer) GetAverageDecisionMs() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.metrics.Decisions == 0 {
		return 0
	}
	return c.metrics.DecisionMs / float64(c.metrics.Decisions)
}

// GetMostFrequentWinner returns the player with most wins, ties by name
func (c *Consumer) GetMostFrequentWinner() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	winner, most := "", 0
	for player, wins := range c.metrics.WinCounts {
		if wins > most || (wins == most && player < winner) {
			winner, most = player, wins
		}
	}
	return winner
}

// GetGamesPerHour returns games started in each of the last 24 hours
func (c *Consumer) GetGamesPerHour() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	result := make(map[string]int, 24)
	for i := 0; i < 24; i++ {
		key := now.Add(-time.Duration(i) * time.Hour).Format("2006-01-02-15")
		result[key] = c.metrics.GamesPerHour[key]
	}
	return result
}

func (c *Consumer) Stop() {
	c.cancel()
	if c.group != nil {
		if c.started {
			<-c.done
		}
		if err := c.group.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing kafka consumer")
		}
	}
}
