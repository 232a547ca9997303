package game

import (
	"testing"
	"time"

	"github.com/connect-four/agent/internal/agent"
	"github.com/stretchr/testify/require"
)

// A full 42-move game that ends without four in a row
var drawSequence = []int{
	4, 3, 6, 0, 1, 4, 5, 5, 1, 1, 5, 0, 1, 6, 0, 1, 5, 5, 1, 0, 4,
	6, 3, 2, 6, 6, 0, 4, 6, 5, 2, 0, 4, 2, 4, 2, 2, 2, 3, 3, 3, 3,
}

func newTwoPlayerGame() *Game {
	g := NewGame("alice")
	g.AddPlayer2("bob", nil)
	return g
}

func TestMakeMove(t *testing.T) {
	t.Run("vertical win", func(t *testing.T) {
		g := newTwoPlayerGame()
		for i := 0; i < 3; i++ {
			_, err := g.MakeMove(Player1, 0)
			require.NoError(t, err)
			_, err = g.MakeMove(Player2, 1)
			require.NoError(t, err)
		}
		row, err := g.MakeMove(Player1, 0)
		require.NoError(t, err)
		require.Equal(t, 2, row)
		require.Equal(t, StatusFinished, g.Status)
		require.Equal(t, ResultWinPlayer1, g.Result)
		require.Equal(t, "alice", g.GetState().Winner)

		_, err = g.MakeMove(Player2, 1)
		require.ErrorIs(t, err, ErrGameNotInProgress)
	})

	t.Run("turn order", func(t *testing.T) {
		g := newTwoPlayerGame()
		_, err := g.MakeMove(Player2, 3)
		require.ErrorIs(t, err, ErrNotYourTurn)
	})

	t.Run("full column", func(t *testing.T) {
		g := newTwoPlayerGame()
		player := Player1
		for i := 0; i < Rows; i++ {
			_, err := g.MakeMove(player, 2)
			require.NoError(t, err)
			player = Opponent(player)
		}
		_, err := g.MakeMove(player, 2)
		require.ErrorIs(t, err, ErrColumnFull)
		_, err = g.MakeMove(player, Columns)
		require.ErrorIs(t, err, ErrInvalidColumn)
	})

	t.Run("draw", func(t *testing.T) {
		g := newTwoPlayerGame()
		player := Player1
		for _, col := range drawSequence {
			_, err := g.MakeMove(player, col)
			require.NoError(t, err)
			player = Opponent(player)
		}
		require.Equal(t, StatusFinished, g.Status)
		require.Equal(t, ResultDraw, g.Result)
		require.Nil(t, g.Winner)
		require.True(t, g.Board.IsFull())
	})
}

func TestObservationPerspective(t *testing.T) {
	g := newTwoPlayerGame()
	_, err := g.MakeMove(Player1, 3)
	require.NoError(t, err)

	mine := g.Observation(Player1)
	theirs := g.Observation(Player2)
	require.Equal(t, uint8(1), mine.Board[5][3][0])
	require.Equal(t, uint8(0), mine.Board[5][3][1])
	require.Equal(t, uint8(1), theirs.Board[5][3][1])
	require.Equal(t, uint8(0), theirs.Board[5][3][0])
	require.False(t, theirs.Over())
	for col := 0; col < Columns; col++ {
		require.True(t, theirs.Mask.Legal(col))
	}

	g.Forfeit(Player2)
	obs := g.Observation(Player1)
	require.True(t, obs.Truncated)
	require.False(t, obs.Terminated)
}

func TestMakeBotMove(t *testing.T) {
	g := NewGame("alice")
	g.AddPlayer2("bot", agent.NewRuleBased())
	require.True(t, g.Player2.IsBot)

	_, _, err := g.MakeBotMove()
	require.ErrorIs(t, err, ErrNotYourTurn)

	_, err = g.MakeMove(Player1, 0)
	require.NoError(t, err)
	d, row, err := g.MakeBotMove()
	require.NoError(t, err)
	require.Equal(t, 3, d.Column)
	require.Equal(t, agent.RuleCenter, d.Rule)
	require.Equal(t, Rows-1, row)
	require.Equal(t, Player1, g.CurrentTurn)
}

func TestReconnect(t *testing.T) {
	g := newTwoPlayerGame()
	g.PlayerDisconnected(Player2)
	require.Equal(t, StatusDisconnect, g.Status)
	require.False(t, g.Player2.IsConnected)
	require.False(t, g.PlayerReconnected(Player1))
	require.True(t, g.PlayerReconnected(Player2))
	require.Equal(t, StatusPlaying, g.Status)

	g.ReconnectWindow = time.Millisecond
	g.PlayerDisconnected(Player1)
	g.DisconnectTime = time.Now().Add(-time.Second)
	require.False(t, g.PlayerReconnected(Player1))

	g.Forfeit(Player1)
	require.Equal(t, ResultForfeit, g.Result)
	require.Equal(t, "bob", g.Winner.Username)
}
