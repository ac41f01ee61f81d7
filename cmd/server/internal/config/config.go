package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 统一配置结构
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Audio    AudioConfig    `yaml:"audio"`
	Whisper  WhisperConfig  `yaml:"whisper"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Dedupe   DedupeConfig   `yaml:"dedupe"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env         string `yaml:"env"` // dev, staging, production
	Port        string `yaml:"port"`
	UploadDir   string `yaml:"upload_dir"`
	MaxUploadMB int    `yaml:"max_upload_mb"`

	// MaxConcurrentRuns 同时执行的上传转写数，超出的请求排队 RunQueueTimeout 后返回 503
	MaxConcurrentRuns int           `yaml:"max_concurrent_runs"`
	RunQueueTimeout   time.Duration `yaml:"run_queue_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AudioConfig 音频解码与切片配置
type AudioConfig struct {
	SampleRate    int           `yaml:"sample_rate"`
	ChunkSeconds  float64       `yaml:"chunk_seconds"`
	FFmpegPath    string        `yaml:"ffmpeg_path"`
	DecodeTimeout time.Duration `yaml:"decode_timeout"`
	TempDir       string        `yaml:"temp_dir"`
}

// WhisperConfig 语音识别服务配置
type WhisperConfig struct {
	APIURL       string        `yaml:"api_url"`
	Model        string        `yaml:"model"`
	BeamWidth    int           `yaml:"beam_width"`
	LanguageHint string        `yaml:"language_hint"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	Concurrency  int           `yaml:"concurrency"`
}

// LLMConfig 文本生成服务配置（OpenAI 兼容接口）
type LLMConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Model         string        `yaml:"model"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

// PipelineConfig 增强流水线配置
type PipelineConfig struct {
	TargetLanguage           string        `yaml:"target_language"`
	MinEditRatio             float64       `yaml:"min_edit_ratio"`
	HealthCheckInterval      time.Duration `yaml:"health_check_interval"`
	HealthCheckFailThreshold int           `yaml:"health_check_fail_threshold"`
}

// DedupeConfig 去重配置；NearDuplicateDistance < 0 表示关闭近似去重
type DedupeConfig struct {
	NearDuplicateDistance int `yaml:"near_duplicate_distance"`
}

var languageCodePattern = regexp.MustCompile(`^[a-z]{2}$`)

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Env:         "dev",
			Port:        "8000",
			UploadDir:   os.TempDir(),
			MaxUploadMB: 200,

			MaxConcurrentRuns: 2,
			RunQueueTimeout:   30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Audio: AudioConfig{
			SampleRate:    16000,
			ChunkSeconds:  30,
			FFmpegPath:    "ffmpeg",
			DecodeTimeout: 5 * time.Minute,
		},
		Whisper: WhisperConfig{
			APIURL:       "http://whisper:80",
			Model:        "ggml-base",
			BeamWidth:    5,
			LanguageHint: "en",
			Timeout:      2 * time.Minute,
			MaxRetries:   2,
			Concurrency:  4,
		},
		LLM: LLMConfig{
			BaseURL:       "https://api.openai.com/v1",
			Model:         "gpt-4o-mini",
			Timeout:       2 * time.Minute,
			MaxRetries:    2,
			MaxConcurrent: 4,
		},
		Pipeline: PipelineConfig{
			TargetLanguage:           "pt",
			MinEditRatio:             0.5,
			HealthCheckInterval:      5 * time.Minute,
			HealthCheckFailThreshold: 3,
		},
		Dedupe: DedupeConfig{
			NearDuplicateDistance: -1,
		},
	}
}

// LoadConfig 加载配置：默认值 → YAML 文件（可选）→ 环境变量覆盖
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv 环境变量覆盖配置文件
func applyEnv(cfg *Config) {
	cfg.Server.Env = getEnv("ENV", cfg.Server.Env)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.UploadDir = getEnv("UPLOAD_DIR", cfg.Server.UploadDir)
	cfg.Server.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", cfg.Server.MaxUploadMB)
	cfg.Server.MaxConcurrentRuns = getEnvInt("MAX_CONCURRENT_RUNS", cfg.Server.MaxConcurrentRuns)

	cfg.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", cfg.Log.Level))
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)

	cfg.Audio.SampleRate = getEnvInt("SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.ChunkSeconds = getEnvFloat("CHUNK_SECONDS", cfg.Audio.ChunkSeconds)
	cfg.Audio.FFmpegPath = getEnv("FFMPEG_PATH", cfg.Audio.FFmpegPath)
	cfg.Audio.TempDir = getEnv("AUDIO_TEMP_DIR", cfg.Audio.TempDir)

	cfg.Whisper.APIURL = getEnv("WHISPER_API_URL", cfg.Whisper.APIURL)
	cfg.Whisper.Model = getEnv("WHISPER_MODEL", cfg.Whisper.Model)
	cfg.Whisper.LanguageHint = getEnv("SOURCE_LANGUAGE", cfg.Whisper.LanguageHint)
	cfg.Whisper.BeamWidth = getEnvInt("WHISPER_BEAM_WIDTH", cfg.Whisper.BeamWidth)
	cfg.Whisper.Concurrency = getEnvInt("TRANSCRIBE_CONCURRENCY", cfg.Whisper.Concurrency)
	cfg.Whisper.Timeout = getEnvDuration("WHISPER_TIMEOUT", cfg.Whisper.Timeout)

	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", cfg.LLM.APIKey))
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.Timeout = getEnvDuration("LLM_TIMEOUT", cfg.LLM.Timeout)

	cfg.Pipeline.TargetLanguage = getEnv("TARGET_LANGUAGE", cfg.Pipeline.TargetLanguage)
}

// ValidateConfig 验证配置的有效性，一次性返回所有问题
func ValidateConfig(cfg *Config) error {
	var errors []string

	// 1. 端口验证
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	// 2. 日志级别验证
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	// 3. 环境验证
	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true, "prod": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	if cfg.Server.MaxConcurrentRuns < 1 {
		errors = append(errors, "server.max_concurrent_runs must be at least 1")
	}

	// 4. 音频参数
	if cfg.Audio.SampleRate <= 0 {
		errors = append(errors, "audio.sample_rate must be greater than 0")
	}
	if cfg.Audio.ChunkSeconds <= 0 {
		errors = append(errors, "audio.chunk_seconds must be greater than 0")
	}

	// 5. 识别参数
	if cfg.Whisper.APIURL == "" {
		errors = append(errors, "whisper.api_url cannot be empty")
	}
	if cfg.Whisper.BeamWidth < 1 {
		errors = append(errors, "whisper.beam_width must be at least 1")
	}
	if cfg.Whisper.Concurrency < 1 {
		errors = append(errors, "whisper.concurrency must be at least 1")
	}
	if cfg.Whisper.LanguageHint != "" && !languageCodePattern.MatchString(cfg.Whisper.LanguageHint) {
		errors = append(errors, fmt.Sprintf("invalid SOURCE_LANGUAGE: %s (must be an ISO 639-1 code)", cfg.Whisper.LanguageHint))
	}

	// 6. 文本生成服务
	if cfg.LLM.BaseURL == "" {
		errors = append(errors, "llm.base_url cannot be empty")
	}
	if cfg.LLM.Model == "" {
		errors = append(errors, "llm.model cannot be empty")
	}
	if cfg.LLM.MaxConcurrent < 1 {
		errors = append(errors, "llm.max_concurrent must be at least 1")
	}

	// 7. 流水线
	if !languageCodePattern.MatchString(cfg.Pipeline.TargetLanguage) {
		errors = append(errors, fmt.Sprintf("invalid TARGET_LANGUAGE: %s (must be an ISO 639-1 code)", cfg.Pipeline.TargetLanguage))
	}
	if cfg.Pipeline.MinEditRatio < 0 || cfg.Pipeline.MinEditRatio > 1 {
		errors = append(errors, "pipeline.min_edit_ratio must be within [0, 1]")
	}
	if cfg.Dedupe.NearDuplicateDistance > 64 {
		errors = append(errors, "dedupe.near_duplicate_distance must be at most 64")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// PrintConfig 打印配置（脱敏）
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Audio: %d Hz, %.1fs chunks
  Whisper: %s (model=%s, beam=%d, concurrency=%d)
  LLM: %s (model=%s, api_key=%s)
  Target Language: %s`,
		c.Server.Env,
		c.Server.Port,
		c.Audio.SampleRate,
		c.Audio.ChunkSeconds,
		c.Whisper.APIURL,
		c.Whisper.Model,
		c.Whisper.BeamWidth,
		c.Whisper.Concurrency,
		c.LLM.BaseURL,
		c.LLM.Model,
		maskSecret(c.LLM.APIKey),
		c.Pipeline.TargetLanguage,
	)
}

// 辅助函数

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// maskSecret 对敏感信息进行脱敏
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}
