package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AudioChunksTotal 音频切片转写总数计数器
	// Labels: status (success/error)
	AudioChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audioscribe_audio_chunks_total",
			Help: "Total number of audio chunks transcribed",
		},
		[]string{"status"},
	)

	// StageOutcomesTotal 流水线阶段结果计数器
	// Labels: stage (detect_language/translate/edit/summarize/extract_action_items), status (succeeded/failed/skipped)
	StageOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audioscribe_stage_outcomes_total",
			Help: "Total number of pipeline stage outcomes by stage and status",
		},
		[]string{"stage", "status"},
	)

	// RunsTotal 流水线运行计数器
	// Labels: outcome (complete/partial/fatal)
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audioscribe_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	// RunErrorsTotal 致命错误计数器
	// Labels: error_code (INVALID_INPUT/DECODE_FAILED/TRANSCRIPTION_FAILED)
	RunErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audioscribe_run_errors_total",
			Help: "Total number of fatal pipeline errors by error code",
		},
		[]string{"error_code"},
	)

	// StageDuration 阶段耗时直方图（秒）
	// Buckets: 0.1s, 0.5s, 1s, 2s, 5s, 10s, 30s, 60s, 120s, 300s
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audioscribe_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)
)

// RecordChunkTranscribed 记录一个切片转写完成
func RecordChunkTranscribed(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	AudioChunksTotal.WithLabelValues(status).Inc()
}

// RecordStageOutcome 记录阶段结果
func RecordStageOutcome(stage, status string) {
	StageOutcomesTotal.WithLabelValues(stage, status).Inc()
}

// RecordRun 记录一次运行结果
func RecordRun(outcome string) {
	RunsTotal.WithLabelValues(outcome).Inc()
}

// RecordRunError 记录致命错误
func RecordRunError(errorCode string) {
	RunErrorsTotal.WithLabelValues(errorCode).Inc()
}

// RecordDuration 记录阶段耗时（秒）
func RecordDuration(stage string, durationSeconds float64) {
	StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}
