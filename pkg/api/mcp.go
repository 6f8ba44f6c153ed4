package api

import (
	"fmt"
	"log/slog"

	"github.com/hazyhaar/lessico/pkg/kit"
	"github.com/hazyhaar/lessico/pkg/ledger"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the table MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, reg *ledger.Registry, logger *slog.Logger) {
	eps := newEndpoints(reg, logger)
	registerListTables(srv, eps)
	registerTermExists(srv, eps)
	registerCheckTerm(srv, eps)
	registerAddTerm(srv, eps)
	registerFinalize(srv, eps)
}

func registerListTables(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("list_tables",
		mcp.WithDescription("List the configured dictionary tables with their key columns, fields and row counts."),
	)
	kit.RegisterMCPTool(srv, tool, eps.listTables, func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}

func registerTermExists(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("term_exists",
		mcp.WithDescription("Report whether a value is already present in a column of a table, ignoring case and surrounding spaces."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table ID")),
		mcp.WithString("column", mcp.Required(), mcp.Description("Column name, e.g. English_Translation")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Value to look up")),
	)
	kit.RegisterMCPTool(srv, tool, eps.exists, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		table, err := requiredString(args, "table")
		if err != nil {
			return nil, err
		}
		column, _ := args["column"].(string)
		value, _ := args["value"].(string)
		return &kit.MCPDecodeResult{Request: &existsReq{Table: table, Column: column, Value: value}}, nil
	})
}

func registerCheckTerm(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("check_term",
		mcp.WithDescription("Look an English term up in a table and append it, lowercased, when it is missing."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table ID")),
		mcp.WithString("term", mcp.Required(), mcp.Description("English term")),
	)
	kit.RegisterMCPTool(srv, tool, eps.check, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		table, err := requiredString(args, "table")
		if err != nil {
			return nil, err
		}
		term, _ := args["term"].(string)
		return &kit.MCPDecodeResult{Request: &checkReq{Table: table, Term: term}}, nil
	})
}

func registerAddTerm(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("add_term",
		mcp.WithDescription("Append a term verbatim to a column of a table unless a matching value is already there."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table ID")),
		mcp.WithString("column", mcp.Required(), mcp.Description("Column name, e.g. Italian_Translation")),
		mcp.WithString("term", mcp.Required(), mcp.Description("Term to add")),
	)
	kit.RegisterMCPTool(srv, tool, eps.addTerm, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		table, err := requiredString(args, "table")
		if err != nil {
			return nil, err
		}
		column, _ := args["column"].(string)
		term, _ := args["term"].(string)
		return &kit.MCPDecodeResult{Request: &addTermReq{Table: table, Column: column, Term: term}}, nil
	})
}

func registerFinalize(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("finalize",
		mcp.WithDescription("Consolidate a table: drop exact duplicates, merge rows sharing an English or Italian identity, sort, and atomically rewrite the file."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table ID")),
	)
	kit.RegisterMCPTool(srv, tool, eps.finalize, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		table, err := requiredString(req.GetArguments(), "table")
		if err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &finalizeReq{Table: table}}, nil
	})
}

func requiredString(args map[string]any, name string) (string, error) {
	v, _ := args[name].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}
