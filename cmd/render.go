package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/wayward-wolves/chronocall/internal/assistant"
	"github.com/wayward-wolves/chronocall/internal/executor"
	"github.com/wayward-wolves/chronocall/internal/messages"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Padding(0, 2)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Padding(0, 2)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
)

// turnLines returns the assistant line (empty when there is nothing to
// echo) and the result message of a turn.
func turnLines(lang string, turn assistant.Turn) (string, string) {
	if turn.ModelText == "" || turn.Result.Outcome == executor.OutcomeNoAction {
		return "", turn.Result.Message
	}
	return messages.For(lang).Sprintf(messages.AssistantLine, turn.ModelText), turn.Result.Message
}

// renderTurn prints a turn for the terminal chat.
func renderTurn(w io.Writer, lang string, turn assistant.Turn) {
	echo, msg := turnLines(lang, turn)
	if echo != "" {
		fmt.Fprintln(w, assistantStyle.Render(echo))
	}

	style := resultStyle
	if !turn.Result.Success {
		style = failureStyle
	}
	fmt.Fprintln(w, style.Render(msg))
	fmt.Fprintln(w)
}

// printTurn prints a turn without styling, for scripts.
func printTurn(w io.Writer, lang string, turn assistant.Turn) {
	echo, msg := turnLines(lang, turn)
	if echo != "" {
		fmt.Fprintln(w, echo)
	}
	fmt.Fprintln(w, msg)
}
