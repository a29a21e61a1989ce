package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dheryaagarwal/energy-bill-extractor/dto"
)

func newTestHistory(t *testing.T) *BillHistory {
	t.Helper()

	history, err := NewBillHistory(filepath.Join(t.TempDir(), "bills.db"))
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	return history
}

func sampleRecord(id, filename string, createdAt time.Time) *dto.BillRecord {
	return &dto.BillRecord{
		ID:             id,
		Filename:       filename,
		Month:          "MAR-2025",
		UnitsConsumed:  "4018",
		SanctionedLoad: "35.0",
		ContractDemand: "30.0",
		MaxDemand:      "28",
		Method:         dto.MethodTextLayer,
		OcrConfidence:  92.5,
		CreatedAt:      createdAt,
	}
}

func TestHistorySaveAndGet(t *testing.T) {
	history := newTestHistory(t)
	ctx := context.Background()

	saved := sampleRecord("rec-1", "march.pdf", time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, history.Save(ctx, saved))

	loaded, err := history.GetByID(ctx, "rec-1")
	require.NoError(t, err)

	assert.Equal(t, "march.pdf", loaded.Filename)
	assert.Equal(t, "MAR-2025", loaded.Month)
	assert.Equal(t, "4018", loaded.UnitsConsumed)
	assert.Equal(t, "35.0", loaded.SanctionedLoad)
	assert.Equal(t, "30.0", loaded.ContractDemand)
	assert.Equal(t, "28", loaded.MaxDemand)
	assert.Equal(t, dto.MethodTextLayer, loaded.Method)
	assert.InDelta(t, 92.5, loaded.OcrConfidence, 0.001)
	assert.WithinDuration(t, saved.CreatedAt, loaded.CreatedAt, time.Second)
}

func TestHistoryGetMissing(t *testing.T) {
	history := newTestHistory(t)

	record, err := history.GetByID(context.Background(), "no-such-id")

	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.Nil(t, record)
}

func TestHistoryListRecentNewestFirst(t *testing.T) {
	history := newTestHistory(t)
	ctx := context.Background()

	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, history.Save(ctx, sampleRecord("rec-1", "jan.pdf", base)))
	require.NoError(t, history.Save(ctx, sampleRecord("rec-2", "feb.pdf", base.Add(time.Hour))))
	require.NoError(t, history.Save(ctx, sampleRecord("rec-3", "mar.pdf", base.Add(2*time.Hour))))

	records, err := history.ListRecent(ctx, 2)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "rec-3", records[0].ID)
	assert.Equal(t, "rec-2", records[1].ID)
}

func TestHistoryListAll(t *testing.T) {
	history := newTestHistory(t)
	ctx := context.Background()

	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, history.Save(ctx, sampleRecord("rec-1", "jan.pdf", base)))
	require.NoError(t, history.Save(ctx, sampleRecord("rec-2", "feb.pdf", base.Add(time.Hour))))

	records, err := history.ListAll(ctx)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "rec-2", records[0].ID)
	assert.Equal(t, "rec-1", records[1].ID)
}

func TestHistoryListEmpty(t *testing.T) {
	history := newTestHistory(t)

	records, err := history.ListRecent(context.Background(), 10)

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistorySaveSetsCreatedAt(t *testing.T) {
	history := newTestHistory(t)
	ctx := context.Background()

	record := sampleRecord("rec-1", "march.pdf", time.Time{})
	require.NoError(t, history.Save(ctx, record))

	assert.False(t, record.CreatedAt.IsZero())

	loaded, err := history.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), loaded.CreatedAt, time.Minute)
}
