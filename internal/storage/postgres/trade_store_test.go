package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taq-bars/internal/domain"
	"taq-bars/internal/storage"
)

var sessionOpen = time.Date(2020, 1, 2, 14, 30, 0, 0, time.UTC)

func TestTradeStore_InsertBulkAndGetBySymbol(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trades := []*domain.Trade{
		{Symbol: "AAPL", Exchange: "Q", Timestamp: sessionOpen.Add(2 * time.Second), Price: 300.5, Volume: 100, SaleCondition: "@", SequenceNo: 2},
		{Symbol: "AAPL", Exchange: "N", Timestamp: sessionOpen.Add(time.Second), Price: 300.0, Volume: 200, SaleCondition: "@", SequenceNo: 1},
		{Symbol: "MSFT", Exchange: "Q", Timestamp: sessionOpen, Price: 160.0, Volume: 50, SaleCondition: "@", SequenceNo: 1},
	}
	require.NoError(t, store.InsertBulk(ctx, trades))

	result, err := store.GetBySymbol(ctx, "AAPL", nil)
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, 300.0, result[0].Price)
	assert.Equal(t, int64(200), result[0].Volume)
	assert.Equal(t, "N", result[0].Exchange)
	assert.True(t, result[0].Timestamp.Equal(sessionOpen.Add(time.Second)))
	assert.NotZero(t, result[0].ID)
	assert.Equal(t, 300.5, result[1].Price)
}

func TestTradeStore_GetBySymbolExcludesConditions(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trades := []*domain.Trade{
		{Symbol: "AAPL", Timestamp: sessionOpen, Price: 1, SaleCondition: "@ TI", SequenceNo: 1},
		{Symbol: "AAPL", Timestamp: sessionOpen.Add(time.Millisecond), Price: 2, SaleCondition: "@", SequenceNo: 2},
		{Symbol: "AAPL", Timestamp: sessionOpen.Add(2 * time.Millisecond), Price: 3, SaleCondition: "@ Z", SequenceNo: 3},
		{Symbol: "AAPL", Timestamp: sessionOpen.Add(3 * time.Millisecond), Price: 4, SaleCondition: "50%", SequenceNo: 4},
	}
	require.NoError(t, store.InsertBulk(ctx, trades))

	result, err := store.GetBySymbol(ctx, "AAPL", []string{"I", "Z"})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, 2.0, result[0].Price)
	assert.Equal(t, 4.0, result[1].Price)

	// Wildcards in codes match literally.
	result, err = store.GetBySymbol(ctx, "AAPL", []string{"%"})
	require.NoError(t, err)
	assert.Len(t, result, 3)
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trades := []*domain.Trade{{Symbol: "AAPL", Timestamp: sessionOpen, Price: 1, Volume: 1, SequenceNo: 1}}
	require.NoError(t, store.InsertBulk(ctx, trades))

	err := store.InsertBulk(ctx, trades)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeStore_IntraBatchDuplicateRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trades := []*domain.Trade{
		{Symbol: "AAPL", Timestamp: sessionOpen, Price: 1, SequenceNo: 1},
		{Symbol: "AAPL", Timestamp: sessionOpen, Price: 2, SequenceNo: 1},
	}
	err := store.InsertBulk(ctx, trades)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	result, err := store.GetBySymbol(ctx, "AAPL", nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestTradeStore_GetByTimeRangeAndListSymbols(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	var trades []*domain.Trade
	for i := 0; i < 5; i++ {
		trades = append(trades, &domain.Trade{
			Symbol: "AAPL", Timestamp: sessionOpen.Add(time.Duration(i) * time.Minute), Price: float64(i + 1), SequenceNo: int64(i),
		})
	}
	trades = append(trades, &domain.Trade{Symbol: "IBM", Timestamp: sessionOpen, Price: 120})
	require.NoError(t, store.InsertBulk(ctx, trades))

	result, err := store.GetByTimeRange(ctx, "AAPL", sessionOpen.Add(time.Minute), sessionOpen.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Len(t, result, 3)

	symbols, err := store.ListSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "IBM"}, symbols)
}

func TestLikePatterns(t *testing.T) {
	assert.Equal(t, []string{"%I%", `%\%%`, `%\_%`}, likePatterns([]string{"I", "", "%", "_"}))
	assert.Empty(t, likePatterns(nil))
}
