package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/houzhh15/audioscribe/cmd/server/internal/orchestrator"
)

func newTranscribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "转写单个音频文件并输出结果",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format != "json" && format != "markdown" {
				return fmt.Errorf("invalid --format %q (json|markdown)", format)
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.transcribe(ctx, args[0], format, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringP("format", "f", "json", "输出格式: json|markdown")
	return cmd
}

func (a *app) transcribe(ctx context.Context, path, format string, out, errOut io.Writer) error {
	state, err := a.orchestrator.Run(ctx, path)
	if err != nil {
		if code := orchestrator.CodeOf(err); code != "" {
			return fmt.Errorf("%s: %w", code, err)
		}
		return err
	}
	if state.Partial() {
		fmt.Fprintln(errOut, "warning: some enrichment stages failed, output is partial")
	}
	return render(out, state, format)
}

// render 按格式输出运行结果
func render(out io.Writer, state *orchestrator.State, format string) error {
	if format == "markdown" {
		_, err := io.WriteString(out, state.Markdown())
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(state.Result())
}
