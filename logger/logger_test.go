package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggerIsNop(t *testing.T) {
	require.NotNil(t, Logger)
	assert.NotPanics(t, func() {
		Logger.Infow("silent", FieldRunID, "x")
		ComponentLogger("reconstruct").Warnw("silent")
	})
}

func TestInitialize(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	require.NoError(t, Initialize(true, "debug"))
	assert.NotNil(t, Logger)
	require.NoError(t, Initialize(false, "not-a-level"))
	assert.NotNil(t, Logger)
}

func TestRecorder(t *testing.T) {
	var rec Recorder
	var sink Sink = &rec
	sink.Infow("residual outlier", FieldBaseline, 3, FieldMagnitude, 12.5)
	sink.Warnw("no convergence", FieldIterations, 25)
	sink.Infow("residual outlier", FieldBaseline, 7, "dangling")

	records := rec.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "warn", records[1].Level)
	assert.Equal(t, 25, records[1].Fields[FieldIterations])

	outliers := rec.Messages("residual outlier")
	require.Len(t, outliers, 2)
	assert.Equal(t, 3, outliers[0].Fields[FieldBaseline])
	assert.Equal(t, 7, outliers[1].Fields[FieldBaseline])
	assert.Len(t, outliers[1].Fields, 1)
}

func TestNopSink(t *testing.T) {
	assert.NotPanics(t, func() { NopSink().Infow("x", "k", 1) })
}
