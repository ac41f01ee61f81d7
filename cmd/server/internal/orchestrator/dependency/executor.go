package dependency

import "context"

// DependencyExecutor runs an external command and reports its outcome.
//
// LocalExecutor is the production implementation; tests substitute fakes.
type DependencyExecutor interface {
	// ExecuteCommand executes a command with the given request.
	// If the context is cancelled, the command should be terminated promptly.
	ExecuteCommand(ctx context.Context, req CommandRequest) (CommandResponse, error)

	// HealthCheck returns nil if the executor can run its configured commands.
	HealthCheck(ctx context.Context) error
}
