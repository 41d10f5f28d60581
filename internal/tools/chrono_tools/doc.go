// Package chrono_tools exposes the ChronoCall assistant as MCP tools.
//
// chrono_command runs a full turn: the text goes to the model, and the
// tool call in its reply is applied to the account's calendar.
// chrono_execute_tool_call skips the model and applies a reply that
// already contains a <tool_call> block. chrono_help returns the usage
// text.
package chrono_tools
