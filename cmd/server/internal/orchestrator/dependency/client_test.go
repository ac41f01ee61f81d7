package dependency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FakeExecutor is a test double that records commands instead of running them.
type FakeExecutor struct {
	ResponseToReturn CommandResponse
	ErrorToReturn    error
	ExecutedCommands []CommandRequest
}

func (f *FakeExecutor) ExecuteCommand(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	f.ExecutedCommands = append(f.ExecutedCommands, req)
	return f.ResponseToReturn, f.ErrorToReturn
}

func (f *FakeExecutor) HealthCheck(ctx context.Context) error {
	return f.ErrorToReturn
}

func TestDependencyClient_ConvertToWAV_Success(t *testing.T) {
	fakeExec := &FakeExecutor{
		ResponseToReturn: CommandResponse{Success: true, Duration: 300 * time.Millisecond},
	}
	config := ExecutorConfig{DefaultTimeout: time.Minute, AllowedCommands: []string{"ffmpeg"}}
	client := NewClientWithExecutor(fakeExec, config)

	err := client.ConvertToWAV(context.Background(), "/tmp/in/talk.m4a", "/tmp/out/talk.wav", 16000)

	require.NoError(t, err)
	require.Len(t, fakeExec.ExecutedCommands, 1)

	cmd := fakeExec.ExecutedCommands[0]
	assert.Equal(t, "ffmpeg", cmd.Command)
	assert.Equal(t, time.Minute, cmd.Timeout)
	assert.Contains(t, cmd.Args, "/tmp/in/talk.m4a")
	assert.Contains(t, cmd.Args, "16000")
	assert.Contains(t, cmd.Args, "pcm_s16le")
	assert.Equal(t, "/tmp/out/talk.wav", cmd.Args[len(cmd.Args)-1])

	for i, arg := range cmd.Args {
		if arg == "-ac" {
			assert.Equal(t, "1", cmd.Args[i+1], "output must be mono")
		}
	}
}

func TestDependencyClient_ConvertToWAV_NonZeroExit(t *testing.T) {
	fakeExec := &FakeExecutor{
		ResponseToReturn: CommandResponse{Success: false, ExitCode: 1, Stderr: "Invalid data found when processing input"},
	}
	client := NewClientWithExecutor(fakeExec, ExecutorConfig{})

	err := client.ConvertToWAV(context.Background(), "/tmp/in/broken.mp3", "/tmp/out/broken.wav", 16000)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit code 1")
	assert.Contains(t, err.Error(), "Invalid data found")
}

func TestDependencyClient_ConvertToWAV_ExecutorError(t *testing.T) {
	fakeExec := &FakeExecutor{
		ResponseToReturn: CommandResponse{Stderr: "killed"},
		ErrorToReturn:    errors.New("command execution timeout (1m0s): ffmpeg"),
	}
	client := NewClientWithExecutor(fakeExec, ExecutorConfig{})

	err := client.ConvertToWAV(context.Background(), "/tmp/in/long.ogg", "/tmp/out/long.wav", 16000)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Contains(t, err.Error(), "killed")
}

func TestDependencyClient_ConvertToWAV_RejectsInvalidRequests(t *testing.T) {
	fakeExec := &FakeExecutor{ResponseToReturn: CommandResponse{Success: true}}
	client := NewClientWithExecutor(fakeExec, ExecutorConfig{AllowedCommands: []string{"sox"}})

	err := client.ConvertToWAV(context.Background(), "/tmp/in/a.wav", "/tmp/out/a.wav", 16000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in whitelist")

	err = NewClientWithExecutor(fakeExec, ExecutorConfig{}).ConvertToWAV(context.Background(), "-f", "/tmp/out/a.wav", 16000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not start with '-'")

	err = NewClientWithExecutor(fakeExec, ExecutorConfig{}).ConvertToWAV(context.Background(), "/tmp/a.wav", "/tmp/b.wav", 0)
	require.Error(t, err)

	assert.Empty(t, fakeExec.ExecutedCommands, "invalid requests must not reach the executor")
}

func TestValidateCommandRequest_ControlCharacters(t *testing.T) {
	err := ValidateCommandRequest(CommandRequest{Command: "ffmpeg", Args: []string{"-i", "a\nb.wav"}}, ExecutorConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "control characters")
}

func TestLocalExecutor_MissingBinary(t *testing.T) {
	exec := NewLocalExecutor(ExecutorConfig{
		LocalBinaryPaths: map[string]string{"ffmpeg": "/nonexistent/ffmpeg"},
	})

	_, err := exec.ExecuteCommand(context.Background(), CommandRequest{Command: "ffmpeg"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve binary path")

	assert.Error(t, exec.HealthCheck(context.Background()))
}

func TestLocalExecutor_RunsCommand(t *testing.T) {
	exec := NewLocalExecutor(ExecutorConfig{DefaultTimeout: 10 * time.Second})

	resp, err := exec.ExecuteCommand(context.Background(), CommandRequest{
		Command: "sh",
		Args:    []string{"-c", "echo $GREETING; echo oops >&2; exit 3"},
		Env:     map[string]string{"GREETING": "hello"},
	})

	require.Error(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, 3, resp.ExitCode)
	assert.Equal(t, "hello\n", resp.Stdout)
	assert.Equal(t, "oops\n", resp.Stderr)
}

func TestLocalExecutor_Timeout(t *testing.T) {
	exec := NewLocalExecutor(ExecutorConfig{})

	start := time.Now()
	_, err := exec.ExecuteCommand(context.Background(), CommandRequest{
		Command: "sh",
		Args:    []string{"-c", "sleep 5"},
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Less(t, time.Since(start), 4*time.Second, "process group killed on timeout")
}

func TestCappedBuffer_KeepsTail(t *testing.T) {
	b := &cappedBuffer{limit: 8}
	_, _ = b.Write([]byte("0123456"))
	assert.Equal(t, "0123456", b.String())

	_, _ = b.Write([]byte("789ab"))
	assert.Equal(t, "...(truncated)\n456789ab", b.String())

	_, _ = b.Write([]byte("this is longer than eight"))
	assert.Equal(t, "...(truncated)\nan eight", b.String())
}
