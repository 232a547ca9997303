package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/connect-four/agent/internal/agent"
	"github.com/connect-four/agent/internal/game"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, typ EventType, id string, at time.Time, data any) *sarama.ConsumerMessage {
	t.Helper()
	event, err := newEvent(typ, id, data)
	require.NoError(t, err)
	event.Timestamp = at
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: TopicGameEvents, Value: raw}
}

func TestConsumerAggregates(t *testing.T) {
	at := time.Date(2026, 5, 4, 10, 15, 0, 0, time.UTC)
	c := newConsumer()
	c.now = func() time.Time { return at }

	c.processMessage(message(t, EventGameStart, "g1", at, GameStartData{Player1: "alice", Player2: "bob"}))
	c.processMessage(message(t, EventGameStart, "g2", at, GameStartData{Player1: "alice", Player2: game.BotUsername, IsVsBot: true}))
	c.processMessage(message(t, EventMove, "g1", at, MoveData{Player: "alice", Column: 3}))
	c.processMessage(message(t, EventMove, "g1", at, MoveData{Player: "bob", Column: 3}))
	c.processMessage(message(t, EventGameEnd, "g1", at, GameEndData{Player1: "alice", Player2: "bob", Winner: "alice", DurationSeconds: 40}))
	c.processMessage(message(t, EventGameEnd, "g2", at, GameEndData{Player1: "alice", Player2: game.BotUsername, IsVsBot: true, DurationSeconds: 20}))
	c.processMessage(message(t, EventDecision, "g2", at, DecisionData{Agent: "Minimax(d=4)", Rule: agent.RuleSearch, ElapsedMs: 12}))
	c.processMessage(message(t, EventDecision, "g2", at, DecisionData{Agent: "Minimax(d=4)", Rule: agent.RuleWin, ElapsedMs: 2}))
	c.processMessage(&sarama.ConsumerMessage{Value: []byte("not json")})

	m := c.GetMetrics()
	require.EqualValues(t, 2, m.TotalGames)
	require.EqualValues(t, 1, m.BotGames)
	require.EqualValues(t, 2, m.TotalMoves)
	require.Equal(t, 2, m.PlayerStats["alice"].TotalGames)
	require.Equal(t, 1, m.PlayerStats["alice"].Wins)
	require.Equal(t, 1, m.PlayerStats["alice"].Draws)
	require.Equal(t, 1, m.PlayerStats["bob"].Losses)
	require.NotContains(t, m.PlayerStats, game.BotUsername)
	require.Equal(t, map[string]int{agent.RuleSearch: 1, agent.RuleWin: 1}, m.DecisionsByRule)
	require.InDelta(t, 12.0, m.MaxDecisionMs, 1e-9)

	require.InDelta(t, 30.0, c.GetAverageGameDuration(), 1e-9)
	require.InDelta(t, 7.0, c.GetAverageDecisionMs(), 1e-9)
	require.Equal(t, "alice", c.GetMostFrequentWinner())

	perHour := c.GetGamesPerHour()
	require.Len(t, perHour, 24)
	require.Equal(t, 2, perHour["2026-05-04-10"])

	// The copy is detached from live metrics
	m.PlayerStats["alice"].Wins = 99
	require.Equal(t, 1, c.GetMetrics().PlayerStats["alice"].Wins)
}

func TestProducerSends(t *testing.T) {
	mock := mocks.NewSyncProducer(t, NewConfig())
	p := NewProducerFrom(mock)
	require.True(t, p.IsEnabled())

	g := game.NewGame("alice")
	g.AddPlayer2(game.BotUsername, agent.NewRuleBased())

	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event GameEvent
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		var data GameStartData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if event.Type != EventGameStart || !data.IsVsBot || event.GameID != g.ID {
			return sarama.ErrInvalidMessage
		}
		return nil
	})
	p.EmitGameStart(g)

	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event GameEvent
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		var data DecisionData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if event.Type != EventDecision || data.Column != 3 || data.ElapsedMs != 5 {
			return sarama.ErrInvalidMessage
		}
		return nil
	})
	p.EmitDecision(g.ID, "RuleBased", agent.Decision{Column: 3, Rule: agent.RuleCenter, Elapsed: 5 * time.Millisecond})

	require.NoError(t, p.Close())
}

func TestDisabledProducerDrops(t *testing.T) {
	p := NewProducerFrom(nil)
	require.False(t, p.IsEnabled())
	p.EmitGameEnd(game.NewGame("alice"))
	require.NoError(t, p.Close())
}
