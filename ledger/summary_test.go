package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary_Empty(t *testing.T) {
	l := New("real")

	s := l.Summary()

	assert.True(t, s.TotalPnL.IsZero())
	assert.True(t, s.TotalInvested.IsZero())
	assert.Nil(t, s.BestPerformer)
	assert.Nil(t, s.WorstPerformer)
}

func TestSummary_ExcludesAbsentPnL(t *testing.T) {
	l := New("real")
	require.NoError(t, l.Open(entry("AAPL", 10, 150), Append)) // resolves to 160: pnl +100
	require.NoError(t, l.Open(entry("NOPE", 5, 20), Append))   // never resolves: pnl absent
	require.NoError(t, l.Open(entry("MSFT", 2, 300), Append))  // resolves to 280: pnl -40

	resolver := &stubResolver{prices: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(160),
		"MSFT": decimal.NewFromInt(280),
	}}
	l.RefreshAll(context.Background(), resolver)

	s := l.Summary()

	assert.True(t, s.TotalPnL.Equal(decimal.NewFromInt(60)), "totalPnL = %s", s.TotalPnL)
	// 10*150 + 5*20 + 2*300 = 2200, regardless of quote availability.
	assert.True(t, s.TotalInvested.Equal(decimal.NewFromInt(2200)), "totalInvested = %s", s.TotalInvested)

	require.NotNil(t, s.BestPerformer)
	assert.Equal(t, "AAPL", s.BestPerformer.Ticker)
	require.NotNil(t, s.WorstPerformer)
	assert.Equal(t, "MSFT", s.WorstPerformer.Ticker)
}

func TestSummary_NoQualifyingPerformers(t *testing.T) {
	l := New("real")
	require.NoError(t, l.Open(entry("AAPL", 10, 150), Append))

	// Resolves exactly at basis: pnl = 0, neither a winner nor a loser.
	resolver := &stubResolver{prices: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(150),
	}}
	l.RefreshAll(context.Background(), resolver)

	s := l.Summary()

	assert.Nil(t, s.BestPerformer)
	assert.Nil(t, s.WorstPerformer)
}

func TestSummary_PicksExtremes(t *testing.T) {
	l := New("real")
	require.NoError(t, l.Open(entry("A", 1, 10), Append))
	require.NoError(t, l.Open(entry("B", 1, 10), Append))
	require.NoError(t, l.Open(entry("C", 1, 10), Append))
	require.NoError(t, l.Open(entry("D", 1, 10), Append))

	resolver := &stubResolver{prices: map[string]decimal.Decimal{
		"A": decimal.NewFromInt(12), // +2
		"B": decimal.NewFromInt(15), // +5
		"C": decimal.NewFromInt(9),  // -1
		"D": decimal.NewFromInt(4),  // -6
	}}
	l.RefreshAll(context.Background(), resolver)

	s := l.Summary()

	require.NotNil(t, s.BestPerformer)
	assert.Equal(t, "B", s.BestPerformer.Ticker)
	require.NotNil(t, s.WorstPerformer)
	assert.Equal(t, "D", s.WorstPerformer.Ticker)
	assert.True(t, s.TotalPnL.IsZero())
}
