package chrono_tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/wayward-wolves/chronocall/internal/assistant"
	"github.com/wayward-wolves/chronocall/internal/executor"
	"github.com/wayward-wolves/chronocall/internal/messages"
	"github.com/wayward-wolves/chronocall/internal/server"
	"github.com/wayward-wolves/chronocall/internal/session"
	"github.com/wayward-wolves/chronocall/internal/tools/common"
)

// Tool names.
const (
	ToolCommand         = "chrono_command"
	ToolExecuteToolCall = "chrono_execute_tool_call"
	ToolHelp            = "chrono_help"
)

const accountDescription = "Account name (default: 'default'). Must have been authorized with `chronocall auth`."

// RegisterChronoTools registers the assistant tools with the MCP server.
func RegisterChronoTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	commandTool := mcp.NewTool(ToolCommand,
		mcp.WithDescription("Run a scheduling command in Thai or English, e.g. 'add a meeting tomorrow at ten'. "+
			"The command can add, delete, move or list events on one day."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The command as the user typed it"),
		),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
	)
	s.AddTool(commandTool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler(ToolCommand, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCommand(ctx, request, sc)
		})))

	executeTool := mcp.NewTool(ToolExecuteToolCall,
		mcp.WithDescription("Apply a model reply containing a <tool_call>{\"name\": ..., \"arguments\": {...}}</tool_call> block. "+
			"Names: add_event_date, delete_event_date, update_event, view_event_date. "+
			"Arguments: date (YYYY-MM-DD), time (HH:MM), title."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Model output with a tool-call block"),
		),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
	)
	s.AddTool(executeTool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler(ToolExecuteToolCall, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleExecuteToolCall(ctx, request, sc)
		})))

	helpTool := mcp.NewTool(ToolHelp,
		mcp.WithDescription("Describe how to phrase add, delete, move and list commands"),
		mcp.WithString("language",
			mcp.Description("th or en (default: the server language)"),
		),
	)
	s.AddTool(helpTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleHelp(ctx, request, sc)
	})

	return nil
}

func handleCommand(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	return runTurn(request, sc, func(sess *session.Session, text string) assistant.Turn {
		return sc.Assistant().HandleTurn(ctx, sess, text)
	})
}

func handleExecuteToolCall(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	return runTurn(request, sc, func(sess *session.Session, text string) assistant.Turn {
		turn := sc.Assistant().HandleToolCall(ctx, sess, text)
		turn.ModelText = ""
		return turn
	})
}

func runTurn(request mcp.CallToolRequest, sc *server.ServerContext, fn func(*session.Session, string) assistant.Turn) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	text := common.GetStringArg(args, "text")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	sess, err := sc.SessionForAccount(common.GetAccountFromArgs(args), session.SourceMCP)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	turn := fn(sess, text)
	out := formatTurn(sess.Language, turn)
	if !turn.Result.Success {
		return mcp.NewToolResultError(out), nil
	}
	return mcp.NewToolResultText(out), nil
}

func handleHelp(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	lang := common.GetStringArg(request.GetArguments(), "language")
	if !messages.Supported(lang) {
		lang = sc.Language()
	}
	return mcp.NewToolResultText(messages.For(lang).Usage()), nil
}

// formatTurn renders a turn as chat shows it: the assistant line, then the
// result. A reply without a tool call is shown once.
func formatTurn(lang string, turn assistant.Turn) string {
	if turn.ModelText == "" || turn.Result.Outcome == executor.OutcomeNoAction {
		return turn.Result.Message
	}
	return messages.For(lang).Sprintf(messages.AssistantLine, turn.ModelText) + "\n\n" + turn.Result.Message
}
