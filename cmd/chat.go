package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wayward-wolves/chronocall/internal/assistant"
	"github.com/wayward-wolves/chronocall/internal/messages"
	"github.com/wayward-wolves/chronocall/internal/session"
)

const maxChatLine = 1 << 20

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		Long: `Start an interactive chat. Each line is sent to the model and the
resulting action is applied to the calendar of --account.

Commands inside the chat:
  /help         Show how to phrase commands
  /lang th|en   Switch the display language
  /quit         Leave the chat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, appOptions{defaultLogLevel: "warn"})
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.sc.SessionForAccount(globals.account, session.SourceChat)
			if err != nil {
				return err
			}
			return runChat(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), a.sc.Assistant(), sess)
		},
	}
}

// runChat reads commands from in until EOF, /quit or ctx is done.
func runChat(ctx context.Context, in io.Reader, out io.Writer, asst *assistant.Assistant, sess *session.Session) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxChatLine)

	fmt.Fprintln(out, hintStyle.Render(messages.For(sess.Language).Sprintf(messages.ChatIntro)))
	fmt.Fprintln(out)

	for ctx.Err() == nil {
		fmt.Fprint(out, promptStyle.Render("> "))
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/help":
			fmt.Fprintln(out, messages.For(sess.Language).Usage())
			continue
		case strings.HasPrefix(line, "/lang"):
			lang := strings.TrimSpace(strings.TrimPrefix(line, "/lang"))
			if !messages.Supported(lang) {
				fmt.Fprintln(out, failureStyle.Render(fmt.Sprintf("unsupported language %q (want th or en)", lang)))
				continue
			}
			sess.Language = messages.For(lang).Language()
			fmt.Fprintln(out, hintStyle.Render(messages.For(sess.Language).Sprintf(messages.ChatIntro)))
			continue
		}

		renderTurn(out, sess.Language, asst.HandleTurn(ctx, sess, line))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
