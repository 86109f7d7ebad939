package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpExportWrite, 30*time.Millisecond)
	c.RecordTiming(OpExportWrite, 10*time.Millisecond)
	c.RecordTiming(OpExportWrite, 20*time.Millisecond)

	snap := c.Snapshot()
	require.NotNil(t, snap.ExportWrite)
	assert.Equal(t, int64(3), snap.ExportWrite.Count)
	assert.Equal(t, 60*time.Millisecond, snap.ExportWrite.Total)
	assert.Equal(t, 20*time.Millisecond, snap.ExportWrite.Average)
	assert.Equal(t, 10*time.Millisecond, snap.ExportWrite.Min)
	assert.Equal(t, 30*time.Millisecond, snap.ExportWrite.Max)
	assert.Nil(t, snap.ExportWrite.TotalInputTokens)

	assert.Nil(t, snap.ArchiveRead, "unrecorded operations have no snapshot")
	assert.Nil(t, snap.LLMSummarize)
}

func TestCollector_RecordLLMUsage(t *testing.T) {
	c := NewCollector()
	c.RecordLLMUsage(OpLLMSummarize, time.Second, 100, 20)
	c.RecordLLMUsage(OpLLMSummarize, 3*time.Second, 50, 5)

	snap := c.Snapshot().LLMSummarize
	require.NotNil(t, snap)
	assert.Equal(t, int64(2), snap.Count)
	assert.Equal(t, 2*time.Second, snap.Average)
	require.NotNil(t, snap.TotalInputTokens)
	assert.Equal(t, int64(150), *snap.TotalInputTokens)
	assert.Equal(t, int64(25), *snap.TotalOutputTokens)
}

func TestCollector_LLMUsageWithoutTokens(t *testing.T) {
	c := NewCollector()
	c.RecordLLMUsage(OpLLMSummarize, time.Second, 0, 0)

	snap := c.Snapshot().LLMSummarize
	require.NotNil(t, snap)
	assert.Nil(t, snap.TotalInputTokens)
	assert.Nil(t, snap.TotalOutputTokens)
}

func TestCollector_Time(t *testing.T) {
	c := NewCollector()
	boom := errors.New("boom")

	assert.NoError(t, c.Time(OpArchiveRead, func() error { return nil }))
	assert.ErrorIs(t, c.Time(OpArchiveRead, func() error { return boom }), boom)

	snap := c.Snapshot().ArchiveRead
	require.NotNil(t, snap)
	assert.Equal(t, int64(2), snap.Count, "failed calls are timed too")
}
