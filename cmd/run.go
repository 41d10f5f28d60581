package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wayward-wolves/chronocall/internal/assistant"
	"github.com/wayward-wolves/chronocall/internal/session"
)

func newRunCmd() *cobra.Command {
	var toolCall bool

	cmd := &cobra.Command{
		Use:   "run [command]",
		Short: "Run a single command and print the result",
		Long: `Run one scheduling command against the calendar of --account and print
the result. The exit status is non-zero when the action failed.

With --tool-call the argument is treated as model output containing a
<tool_call> block and the model is not contacted.`,
		Example: `  chronocall run "add a meeting tomorrow at ten"
  chronocall run --lang en "what do I have on 2024-06-02?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, appOptions{defaultLogLevel: "warn"})
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.sc.SessionForAccount(globals.account, session.SourceRun)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			var turn assistant.Turn
			if toolCall {
				turn = a.sc.Assistant().HandleToolCall(ctx, sess, text)
				turn.ModelText = ""
			} else {
				turn = a.sc.Assistant().HandleTurn(ctx, sess, text)
			}

			printTurn(cmd.OutOrStdout(), sess.Language, turn)
			if !turn.Result.Success {
				return fmt.Errorf("action failed: %s", turn.Result.Outcome)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&toolCall, "tool-call", false, "Treat the argument as model output and skip the model")

	return cmd
}
