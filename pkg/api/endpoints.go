package api

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/lessico/pkg/dict"
	"github.com/hazyhaar/lessico/pkg/journal"
	"github.com/hazyhaar/lessico/pkg/kit"
	"github.com/hazyhaar/lessico/pkg/ledger"
)

// Shared request/response types used by both HTTP and MCP transports.

type tablesResponse struct {
	Tables []ledger.TableStatus `json:"tables"`
}

type existsReq struct {
	Table  string
	Column string
	Value  string
}

type existsResponse struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Exists bool   `json:"exists"`
}

type checkReq struct {
	Table string
	Term  string
}

type addTermReq struct {
	Table  string
	Column string
	Term   string
}

type finalizeReq struct {
	Table string
}

type finalizeResponse struct {
	Table  string       `json:"table"`
	Report *dict.Report `json:"report"`
}

type passesReq struct {
	Table string
	Limit int
}

type passesResponse struct {
	Passes []journal.Pass `json:"passes"`
}

// endpoints holds every kit.Endpoint backed by the registry, wrapped with
// the logging and recovery middlewares.
type endpoints struct {
	listTables kit.Endpoint
	exists     kit.Endpoint
	check      kit.Endpoint
	addTerm    kit.Endpoint
	finalize   kit.Endpoint
	passes     kit.Endpoint
}

func newEndpoints(reg *ledger.Registry, logger *slog.Logger) *endpoints {
	if logger == nil {
		logger = slog.Default()
	}
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Logging(logger, name), kit.Recover(logger))(ep)
	}
	return &endpoints{
		listTables: wrap("list_tables", listTablesEndpoint(reg)),
		exists:     wrap("term_exists", existsEndpoint(reg)),
		check:      wrap("check_term", checkEndpoint(reg)),
		addTerm:    wrap("add_term", addTermEndpoint(reg)),
		finalize:   wrap("finalize", finalizeEndpoint(reg)),
		passes:     wrap("list_passes", passesEndpoint(reg)),
	}
}

func listTablesEndpoint(reg *ledger.Registry) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		return tablesResponse{Tables: reg.List(ctx)}, nil
	}
}

func existsEndpoint(reg *ledger.Registry) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*existsReq)
		l, err := reg.Get(req.Table)
		if err != nil {
			return nil, err
		}
		found, err := l.Exists(ctx, req.Column, req.Value)
		if err != nil {
			return nil, err
		}
		return existsResponse{Table: req.Table, Column: req.Column, Value: req.Value, Exists: found}, nil
	}
}

func checkEndpoint(reg *ledger.Registry) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*checkReq)
		l, err := reg.Get(req.Table)
		if err != nil {
			return nil, err
		}
		return l.Check(ctx, req.Term)
	}
}

func addTermEndpoint(reg *ledger.Registry) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*addTermReq)
		l, err := reg.Get(req.Table)
		if err != nil {
			return nil, err
		}
		return l.AddTerm(ctx, req.Column, req.Term)
	}
}

func finalizeEndpoint(reg *ledger.Registry) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*finalizeReq)
		l, err := reg.Get(req.Table)
		if err != nil {
			return nil, err
		}
		rep, err := l.Finalize(ctx)
		if err != nil {
			return nil, err
		}
		return finalizeResponse{Table: l.ID(), Report: rep}, nil
	}
}

func passesEndpoint(reg *ledger.Registry) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*passesReq)
		if _, err := reg.Get(req.Table); err != nil {
			return nil, err
		}
		j := reg.Journal()
		if j == nil {
			return passesResponse{Passes: []journal.Pass{}}, nil
		}
		passes, err := j.ListPasses(ctx, req.Table, req.Limit)
		if err != nil {
			return nil, err
		}
		if passes == nil {
			passes = []journal.Pass{}
		}
		return passesResponse{Passes: passes}, nil
	}
}
