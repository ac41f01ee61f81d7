package dependency

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateCommandRequest performs safety checks before command execution:
//  1. Command whitelist (if configured)
//  2. No control characters in arguments
//  3. Input paths (the value after "-i") must not look like options
func ValidateCommandRequest(req CommandRequest, config ExecutorConfig) error {
	if len(config.AllowedCommands) > 0 && !slices.Contains(config.AllowedCommands, req.Command) {
		return fmt.Errorf("command %s is not in whitelist (allowed: %v)", req.Command, config.AllowedCommands)
	}

	for i, arg := range req.Args {
		if strings.ContainsAny(arg, "\x00\n\r") {
			return fmt.Errorf("argument %d contains control characters", i)
		}
		if arg == "-i" && i+1 < len(req.Args) && strings.HasPrefix(req.Args[i+1], "-") {
			return fmt.Errorf("input path must not start with '-': %s", req.Args[i+1])
		}
	}

	return nil
}
