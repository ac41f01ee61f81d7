package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/houzhh15/audioscribe/cmd/server/internal/audio"
	"github.com/houzhh15/audioscribe/cmd/server/internal/config"
	"github.com/houzhh15/audioscribe/cmd/server/internal/dedupe"
	"github.com/houzhh15/audioscribe/cmd/server/internal/enrich"
	"github.com/houzhh15/audioscribe/cmd/server/internal/langdetect"
	"github.com/houzhh15/audioscribe/cmd/server/internal/llm"
	"github.com/houzhh15/audioscribe/cmd/server/internal/orchestrator"
	"github.com/houzhh15/audioscribe/cmd/server/internal/orchestrator/dependency"
	"github.com/houzhh15/audioscribe/cmd/server/internal/orchestrator/health"
	"github.com/houzhh15/audioscribe/cmd/server/internal/orchestrator/whisper"
	"github.com/houzhh15/audioscribe/cmd/server/internal/transcribe"
	"github.com/houzhh15/audioscribe/pkg/logger"
)

// app 持有进程内共享的只读组件，启动时构建一次
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	deps         *dependency.DependencyClient
	recognizer   *whisper.GoWhisperImpl
	llm          *llm.Client
	orchestrator *orchestrator.Orchestrator
}

// loadConfig 读取 --config 并校验
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(cfg *config.Config) (*app, error) {
	env := "dev"
	if cfg.IsProduction() {
		env = "prod"
	}
	log, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Environment: env,
		WithSource:  !cfg.IsProduction(),
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	deps := dependency.NewClient(dependency.ExecutorConfig{
		LocalBinaryPaths: map[string]string{"ffmpeg": cfg.Audio.FFmpegPath},
		DefaultTimeout:   cfg.Audio.DecodeTimeout,
		AllowedCommands:  []string{"ffmpeg"},
	})
	decoder := audio.NewFFmpegDecoder(deps, cfg.Audio.TempDir, log.With("component", "decoder"))

	recognizer := whisper.NewGoWhisperImpl(cfg.Whisper.APIURL, whisper.Options{
		Model:      cfg.Whisper.Model,
		Timeout:    cfg.Whisper.Timeout,
		MaxRetries: cfg.Whisper.MaxRetries,
		Logger:     log.With("component", "whisper"),
	})
	engine := transcribe.NewEngine(recognizer, transcribe.Options{
		BeamWidth:   cfg.Whisper.BeamWidth,
		Concurrency: cfg.Whisper.Concurrency,
		Timeout:     cfg.Whisper.Timeout,
		Logger:      log.With("component", "transcribe"),
	})

	llmClient, err := llm.NewClient(llm.Config{
		BaseURL:       cfg.LLM.BaseURL,
		APIKey:        cfg.LLM.APIKey,
		Model:         cfg.LLM.Model,
		Timeout:       cfg.LLM.Timeout,
		MaxRetries:    cfg.LLM.MaxRetries,
		MaxConcurrent: cfg.LLM.MaxConcurrent,
		Logger:        log.With("component", "llm"),
	})
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}

	detector := langdetect.NewDetector(langdetect.NewLLMClassifier(llmClient), cfg.LLM.Timeout)
	pipeline := enrich.NewPipeline(llmClient, enrich.Options{
		TargetLanguage: cfg.Pipeline.TargetLanguage,
		MinEditRatio:   cfg.Pipeline.MinEditRatio,
		Timeout:        cfg.LLM.Timeout,
		Logger:         log.With("component", "enrich"),
	})

	orch := orchestrator.New(decoder, engine, detector, pipeline, orchestrator.Options{
		SampleRate:   cfg.Audio.SampleRate,
		ChunkSeconds: cfg.Audio.ChunkSeconds,
		LanguageHint: cfg.Whisper.LanguageHint,
		Dedupe:       dedupe.Filter{NearDuplicateDistance: cfg.Dedupe.NearDuplicateDistance},
		Logger:       log.With("component", "orchestrator"),
	})

	return &app{
		cfg:          cfg,
		logger:       log,
		deps:         deps,
		recognizer:   recognizer,
		llm:          llmClient,
		orchestrator: orch,
	}, nil
}

// healthCheckers 为外部依赖创建周期健康检查
func (a *app) healthCheckers() health.Set {
	interval := a.cfg.Pipeline.HealthCheckInterval
	threshold := a.cfg.Pipeline.HealthCheckFailThreshold
	l := a.logger.With("component", "health")
	return health.Set{
		health.NewHealthChecker(a.recognizer, interval, threshold, l),
		health.NewHealthChecker(a.llm, interval, threshold, l),
		health.NewHealthChecker(health.FromErrorCheck(a.deps.Name(), a.deps.HealthCheck), interval, threshold, l),
	}
}

func (a *app) environmentConfig() orchestrator.EnvironmentConfig {
	return orchestrator.EnvironmentConfig{
		FFmpegPath: a.cfg.Audio.FFmpegPath,
		TempDir:    a.cfg.Audio.TempDir,
		WhisperURL: a.cfg.Whisper.APIURL,
		LLMBaseURL: a.cfg.LLM.BaseURL,
		LLMAPIKey:  a.cfg.LLM.APIKey,
	}
}
