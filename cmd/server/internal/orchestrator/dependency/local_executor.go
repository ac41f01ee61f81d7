package dependency

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"syscall"
	"time"

	"github.com/houzhh15/audioscribe/pkg/metrics"
)

// maxCapturedOutput 单个输出流保留的最大字节数，ffmpeg 解码长音频时 stderr 可能很大
const maxCapturedOutput = 64 << 10

// killGrace 进程组收到 SIGKILL 后等待输出管道关闭的时长
const killGrace = 2 * time.Second

// LocalExecutor runs whitelisted tools as child processes of the server.
type LocalExecutor struct {
	config ExecutorConfig
}

// NewLocalExecutor creates a LocalExecutor.
func NewLocalExecutor(config ExecutorConfig) *LocalExecutor {
	return &LocalExecutor{config: config}
}

// ExecuteCommand runs req and waits for it. The child gets its own process
// group so a timeout or cancellation also stops anything it spawned.
func (e *LocalExecutor) ExecuteCommand(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	binaryPath, err := e.resolveBinaryPath(req.Command)
	if err != nil {
		return CommandResponse{}, fmt.Errorf("failed to resolve binary path for %s: %w", req.Command, err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.config.DefaultTimeout
	}
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, binaryPath, req.Args...)
	cmd.Env = append(os.Environ(), envList(req.Env)...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = killGrace

	stdout := &cappedBuffer{limit: maxCapturedOutput}
	stderr := &cappedBuffer{limit: maxCapturedOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)
	metrics.RecordCapabilityCall(req.Command, metrics.CallStatus(runErr, timedOut))
	metrics.RecordCapabilityDuration(req.Command, elapsed.Seconds())

	resp := CommandResponse{
		Success:  runErr == nil,
		ExitCode: exitCode(runErr),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: elapsed,
	}
	switch {
	case timedOut:
		return resp, fmt.Errorf("command execution timeout (%v): %s", timeout, req.Command)
	case ctx.Err() != nil:
		return resp, fmt.Errorf("%s cancelled: %w", req.Command, ctx.Err())
	}
	return resp, runErr
}

// HealthCheck runs "<tool> -version" for every configured binary, which
// catches broken installs that a PATH lookup alone would miss.
func (e *LocalExecutor) HealthCheck(ctx context.Context) error {
	names := make([]string, 0, len(e.config.LocalBinaryPaths))
	for name := range e.config.LocalBinaryPaths {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		resp, err := e.ExecuteCommand(ctx, CommandRequest{
			Command: name,
			Args:    []string{"-version"},
			Timeout: 10 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("local command %s not usable: %w", name, err)
		}
		if !resp.Success {
			return fmt.Errorf("local command %s -version exited with %d", name, resp.ExitCode)
		}
	}
	return nil
}

// resolveBinaryPath prefers the configured path and falls back to PATH lookup.
func (e *LocalExecutor) resolveBinaryPath(command string) (string, error) {
	if path, ok := e.config.LocalBinaryPaths[command]; ok && path != "" {
		return exec.LookPath(path)
	}
	return exec.LookPath(command)
}

func envList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// cappedBuffer keeps the tail of a stream once it exceeds limit bytes.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= b.limit {
		b.buf.Reset()
		b.buf.Write(p[len(p)-b.limit:])
		b.truncated = true
		return n, nil
	}
	if over := b.buf.Len() + len(p) - b.limit; over > 0 {
		b.buf.Next(over)
		b.truncated = true
	}
	b.buf.Write(p)
	return n, nil
}

func (b *cappedBuffer) String() string {
	if b.truncated {
		return "...(truncated)\n" + b.buf.String()
	}
	return b.buf.String()
}
