package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the chronocall application
var rootCmd = &cobra.Command{
	Use:   "chronocall",
	Short: "Manage a Google Calendar with natural-language commands",
	Long: `chronocall turns scheduling commands in Thai or English into Google
Calendar actions. A language model reads the command and answers with a
tool call; chronocall applies it to your calendar.

It can run as:
  - An interactive chat in the terminal (default)
  - A one-shot command for scripts (run)
  - A web server with Google login (serve)
  - An MCP (Model Context Protocol) server for AI assistants (mcp)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "chronocall version %s\n" .Version}}`)

	// If no subcommand is provided, start the chat
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "chat")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newHelpActionsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
