package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordChunkTranscribed(t *testing.T) {
	AudioChunksTotal.Reset()

	RecordChunkTranscribed(true)
	RecordChunkTranscribed(true)
	RecordChunkTranscribed(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(AudioChunksTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(AudioChunksTotal.WithLabelValues("error")))
}

func TestRecordStageOutcomeAndRun(t *testing.T) {
	StageOutcomesTotal.Reset()
	RunsTotal.Reset()
	RunErrorsTotal.Reset()

	RecordStageOutcome("summarize", "failed")
	RecordRun("partial")
	RecordRunError("DECODE_FAILED")

	assert.Equal(t, 1.0, testutil.ToFloat64(StageOutcomesTotal.WithLabelValues("summarize", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RunsTotal.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RunErrorsTotal.WithLabelValues("DECODE_FAILED")))
}

func TestRecordDuration(t *testing.T) {
	StageDuration.Reset()

	RecordDuration("edit", 0.3)

	assert.Equal(t, 1, testutil.CollectAndCount(StageDuration))
}
