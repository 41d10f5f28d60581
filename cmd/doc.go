// Package cmd implements the command-line interface for chronocall.
//
// This package provides the following commands:
//   - chat: Interactive terminal chat (default when no subcommand is given)
//   - run: Run a single command and print the result
//   - auth: Authorize a Google account and store its token
//   - serve: Start the web front-end and the metrics server
//   - mcp: Start the MCP server for AI assistants
//   - help-actions: Show how to phrase commands
//   - version: Display version information
package cmd
