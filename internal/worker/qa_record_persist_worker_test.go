package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/model"
)

type memoryRecords struct {
	records []model.QARecord
	err     error
}

func (m *memoryRecords) Create(_ context.Context, record *model.QARecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, *record)
	return nil
}

func TestHandle_PersistsDecodedRecord(t *testing.T) {
	store := &memoryRecords{}
	w := NewQARecordPersistWorker(nil, store, "q", nil)

	err := w.handle(context.Background(), []byte(`{"session_id":3,"question":"why?","answer":"because","score":0.5}`))

	require.NoError(t, err)
	require.Len(t, store.records, 1)
	assert.Equal(t, uint(3), store.records[0].SessionID)
	assert.Equal(t, "because", store.records[0].Answer)
	assert.InDelta(t, 0.5, store.records[0].Score, 1e-9)
}

func TestHandle_RejectsMalformedBody(t *testing.T) {
	store := &memoryRecords{}
	w := NewQARecordPersistWorker(nil, store, "q", nil)

	err := w.handle(context.Background(), []byte("{"))

	assert.Error(t, err)
	assert.Empty(t, store.records)
}

func TestHandle_PropagatesStoreError(t *testing.T) {
	down := errors.New("db down")
	w := NewQARecordPersistWorker(nil, &memoryRecords{err: down}, "q", nil)

	err := w.handle(context.Background(), []byte(`{"question":"q"}`))

	assert.ErrorIs(t, err, down)
}
