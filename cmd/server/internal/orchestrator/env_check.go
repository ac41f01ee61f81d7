package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"
)

// EnvironmentStatus 表示整体环境状态
type EnvironmentStatus struct {
	Ready    bool               `json:"ready"`
	Issues   []string           `json:"issues"`
	Warnings []string           `json:"warnings"`
	Details  EnvironmentDetails `json:"details"`
}

// EnvironmentDetails 包含各组件的详细状态
type EnvironmentDetails struct {
	LLMAPIKey      TokenStatus   `json:"llm_api_key"`
	TempDir        DirStatus     `json:"temp_dir"`
	WhisperService ServiceStatus `json:"whisper_service"`
	LLMService     ServiceStatus `json:"llm_service"`
	FFmpeg         ToolStatus    `json:"ffmpeg"`
}

// TokenStatus 表示 API Key 配置状态
type TokenStatus struct {
	Configured bool   `json:"configured"`
	Masked     string `json:"masked,omitempty"`
}

// DirStatus 表示临时目录状态
type DirStatus struct {
	Writable bool   `json:"writable"`
	Path     string `json:"path"`
	Error    string `json:"error,omitempty"`
}

// ServiceStatus 表示外部服务状态
type ServiceStatus struct {
	Reachable bool   `json:"reachable"`
	URL       string `json:"url"`
	Latency   string `json:"latency,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ToolStatus 表示命令行工具状态
type ToolStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// EnvironmentConfig 环境检查所需参数
type EnvironmentConfig struct {
	FFmpegPath string
	TempDir    string
	WhisperURL string
	LLMBaseURL string
	LLMAPIKey  string
}

// CheckEnvironment 执行完整的环境检查
func CheckEnvironment(ctx context.Context, cfg EnvironmentConfig) *EnvironmentStatus {
	status := &EnvironmentStatus{
		Ready:    true,
		Issues:   []string{},
		Warnings: []string{},
	}

	// 1. LLM API Key（本地兼容服务可不配置）
	if cfg.LLMAPIKey == "" {
		status.Warnings = append(status.Warnings, "LLM_API_KEY 未配置，仅适用于无需鉴权的本地服务")
	} else {
		status.Details.LLMAPIKey = TokenStatus{Configured: true, Masked: maskToken(cfg.LLMAPIKey)}
	}

	// 2. 临时目录
	status.Details.TempDir = checkTempDir(cfg.TempDir)
	if !status.Details.TempDir.Writable {
		status.Ready = false
		status.Issues = append(status.Issues, fmt.Sprintf("临时目录不可写: %s", status.Details.TempDir.Error))
	}

	// 3. Whisper 服务
	status.Details.WhisperService = checkServiceConnection(ctx, cfg.WhisperURL, "/api/whisper/model", "")
	if !status.Details.WhisperService.Reachable {
		status.Ready = false
		status.Issues = append(status.Issues, fmt.Sprintf("Whisper 服务不可达: %s", status.Details.WhisperService.Error))
	}

	// 4. LLM 服务
	status.Details.LLMService = checkServiceConnection(ctx, cfg.LLMBaseURL, "/models", cfg.LLMAPIKey)
	if !status.Details.LLMService.Reachable {
		// 文本增强阶段可部分失败，不阻塞就绪
		status.Warnings = append(status.Warnings, fmt.Sprintf("LLM 服务不可达: %s", status.Details.LLMService.Error))
	}

	// 5. FFmpeg
	status.Details.FFmpeg = checkFFmpeg(ctx, cfg.FFmpegPath)
	if !status.Details.FFmpeg.Available {
		status.Ready = false
		status.Issues = append(status.Issues, fmt.Sprintf("FFmpeg 不可用: %s", status.Details.FFmpeg.Error))
	}

	return status
}

// maskToken 遮蔽 Token 的中间部分
func maskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func checkTempDir(dir string) DirStatus {
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, ".envcheck-*")
	if err != nil {
		return DirStatus{Writable: false, Path: dir, Error: err.Error()}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return DirStatus{Writable: true, Path: dir}
}

// checkServiceConnection 检查 HTTP 服务健康状态
func checkServiceConnection(ctx context.Context, baseURL, checkPath, apiKey string) ServiceStatus {
	if baseURL == "" {
		return ServiceStatus{Reachable: false, Error: "URL not configured"}
	}
	checkURL := strings.TrimSuffix(baseURL, "/") + checkPath

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
	if err != nil {
		return ServiceStatus{Reachable: false, URL: baseURL, Error: err.Error()}
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return ServiceStatus{Reachable: false, URL: baseURL, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ServiceStatus{Reachable: false, URL: baseURL, Error: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	return ServiceStatus{
		Reachable: true,
		URL:       baseURL,
		Latency:   fmt.Sprintf("%dms", latency.Milliseconds()),
	}
}

// checkFFmpeg 检查 FFmpeg 可用性
func checkFFmpeg(ctx context.Context, bin string) ToolStatus {
	if strings.TrimSpace(bin) == "" {
		bin = "ffmpeg"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return ToolStatus{Available: false, Error: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	output, err := exec.CommandContext(ctx, bin, "-version").CombinedOutput()
	if err != nil {
		return ToolStatus{Available: false, Error: err.Error()}
	}

	// 第一行形如 "ffmpeg version 6.1.1 Copyright ..."
	version := "unknown"
	if first, _, _ := strings.Cut(string(output), "\n"); first != "" {
		if parts := strings.Fields(first); len(parts) >= 3 {
			version = parts[2]
		}
	}
	return ToolStatus{Available: true, Version: version}
}
