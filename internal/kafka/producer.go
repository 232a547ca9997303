// Package kafka publishes game and agent events and aggregates them for the
// analytics view.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/connect-four/agent/internal/agent"
	"github.com/connect-four/agent/internal/game"
	"github.com/connect-four/agent/internal/tournament"
	"github.com/rs/zerolog/log"
)

// Producer publishes events. A producer without a broker connection is
// disabled and drops everything, so callers never need to check.
type Producer struct {
	producer sarama.SyncProducer
	enabled  bool
}

// NewConfig is the producer configuration shared with tests
func NewConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	return config
}

// NewProducer connects to brokers, or returns a disabled producer
func NewProducer(brokers []string) *Producer {
	producer, err := sarama.NewSyncProducer(brokers, NewConfig())
	if err != nil {
		log.Warn().Err(err).Strs("brokers", brokers).Msg("kafka producer not available, analytics disabled")
		return &Producer{enabled: false}
	}
	log.Info().Strs("brokers", brokers).Msg("kafka producer connected")
	return NewProducerFrom(producer)
}

// NewProducerFrom wraps an existing sarama producer
func NewProducerFrom(p sarama.SyncProducer) *Producer {
	return &Producer{producer: p, enabled: p != nil}
}

func (p *Producer) EmitGameStart(g *game.Game) {
	state := g.GetState()
	p.emit(EventGameStart, g.ID, GameStartData{
		Player1: state.Player1,
		Player2: state.Player2,
		IsVsBot: state.IsVsBot,
	})
}

func (p *Producer) EmitMove(g *game.Game, player string, column, row, moveNum int) {
	p.emit(EventMove, g.ID, MoveData{
		Player:  player,
		Column:  column,
		Row:     row,
		MoveNum: moveNum,
	})
}

func (p *Producer) EmitGameEnd(g *game.Game) {
	state := g.GetState()
	p.emit(EventGameEnd, g.ID, GameEndData{
		Player1:         state.Player1,
		Player2:         state.Player2,
		Winner:          state.Winner,
		Result:          state.Result,
		DurationSeconds: g.GetDuration(),
		TotalMoves:      state.MoveCount,
		IsVsBot:         state.IsVsBot,
	})
}

// EmitDecision publishes how an agent chose its move. gameID may be empty for
// stateless decisions.
func (p *Producer) EmitDecision(gameID, agentName string, d agent.Decision) {
	p.emit(EventDecision, gameID, DecisionData{
		Agent:     agentName,
		Column:    d.Column,
		Rule:      d.Rule,
		Depth:     d.Depth,
		Score:     d.Score,
		Nodes:     d.Nodes,
		ElapsedMs: float64(d.Elapsed) / float64(time.Millisecond),
	})
}

func (p *Producer) EmitTournamentEnd(r tournament.Result) {
	p.emit(EventTournamentEnd, r.ID, TournamentEndData{
		Agent0:        r.Agents[0],
		Agent1:        r.Agents[1],
		Games:         r.Games,
		Wins0:         r.Wins[0],
		Wins1:         r.Wins[1],
		Draws:         r.Draws,
		AvgDecisionMs: float64(r.AvgDecision) / float64(time.Millisecond),
	})
}

func (p *Producer) emit(t EventType, id string, data any) {
	if !p.enabled {
		return
	}
	event, err := newEvent(t, id, data)
	if err != nil {
		log.Error().Err(err).Str("type", string(t)).Msg("error encoding event data")
		return
	}
	p.send(event)
}

func (p *Producer) send(event GameEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("error marshaling event")
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: TopicGameEvents,
		Key:   sarama.StringEncoder(event.GameID),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		log.Error().Err(err).Str("type", string(event.Type)).Msg("error sending event to kafka")
	}
}

func (p *Producer) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func (p *Producer) IsEnabled() bool {
	return p.enabled
}
