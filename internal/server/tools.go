package server

import (
	"context"
	"encoding/json"
	"fmt"

	"kloc/internal/query"
	"kloc/internal/render"
	"kloc/internal/traversal"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Arguments structs

type ResolveSymbolArgs struct {
	Project string `json:"project,omitempty" jsonschema:"description:Project name from the configuration; optional when only one project is configured"`
	Symbol  string `json:"symbol" jsonschema:"required,description:Symbol to resolve: an FQN, a suffix, or a partial name"`
}

type GetContextArgs struct {
	Project     string `json:"project,omitempty" jsonschema:"description:Project name from the configuration"`
	Symbol      string `json:"symbol" jsonschema:"required,description:Symbol whose context to build"`
	Depth       int    `json:"depth,omitempty" jsonschema:"description:Maximum traversal depth (default 2)"`
	Limit       int    `json:"limit,omitempty" jsonschema:"description:Maximum number of entries (default 100)"`
	IncludeImpl bool   `json:"include_impl,omitempty" jsonschema:"description:Expand implementations and overrides"`
	DirectOnly  bool   `json:"direct_only,omitempty" jsonschema:"description:Only direct references, no transitive expansion"`
	WithImports bool   `json:"with_imports,omitempty" jsonschema:"description:Include file-level import references"`
}

type GetUsagesArgs struct {
	Project string `json:"project,omitempty" jsonschema:"description:Project name from the configuration"`
	Symbol  string `json:"symbol" jsonschema:"required,description:Symbol whose usages to find"`
	Depth   int    `json:"depth,omitempty" jsonschema:"description:Maximum traversal depth (default 2)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"description:Maximum number of entries (default 100)"`
}

type GetDepsArgs struct {
	Project string `json:"project,omitempty" jsonschema:"description:Project name from the configuration"`
	Symbol  string `json:"symbol" jsonschema:"required,description:Symbol whose dependencies to list"`
	Depth   int    `json:"depth,omitempty" jsonschema:"description:Maximum traversal depth (default 2)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"description:Maximum number of entries (default 100)"`
}

type GetInheritanceArgs struct {
	Project   string `json:"project,omitempty" jsonschema:"description:Project name from the configuration"`
	Symbol    string `json:"symbol" jsonschema:"required,description:Type whose hierarchy to walk"`
	Direction string `json:"direction,omitempty" jsonschema:"description:up for ancestors, down for subtypes (default up)"`
	Depth     int    `json:"depth,omitempty" jsonschema:"description:Maximum number of levels (default 2)"`
}

type GetOverridesArgs struct {
	Project   string `json:"project,omitempty" jsonschema:"description:Project name from the configuration"`
	Symbol    string `json:"symbol" jsonschema:"required,description:Method whose override chain to walk"`
	Direction string `json:"direction,omitempty" jsonschema:"description:up for overridden declarations, down for overriding methods (default up)"`
	Depth     int    `json:"depth,omitempty" jsonschema:"description:Maximum number of levels (default 2)"`
}

type GetOwnersArgs struct {
	Project string `json:"project,omitempty" jsonschema:"description:Project name from the configuration"`
	Symbol  string `json:"symbol" jsonschema:"required,description:Symbol whose containment chain to return"`
}

type IndexStatusArgs struct {
	Project string `json:"project,omitempty" jsonschema:"description:Project name from the configuration"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "resolve_symbol",
		Description: "Resolves a symbol name to its definitions in the code graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ResolveSymbolArgs) (*mcp.CallToolResult, any, error) {
		svc, err := s.registry.Get(ctx, args.Project)
		if err != nil {
			return nil, nil, err
		}
		candidates := svc.Resolve(args.Symbol)
		if len(candidates) == 0 {
			return textResult("Symbol not found."), nil, nil
		}
		return jsonResult(render.Candidates(candidates))
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_context",
		Description: "Builds the full context of a symbol: who uses it, what it uses, and its definition",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetContextArgs) (*mcp.CallToolResult, any, error) {
		svc, node, res, err := s.resolveOne(ctx, args.Project, args.Symbol)
		if res != nil || err != nil {
			return res, nil, err
		}
		opts := traversal.Options{
			MaxDepth:    args.Depth,
			Limit:       args.Limit,
			IncludeImpl: args.IncludeImpl,
			DirectOnly:  args.DirectOnly,
			WithImports: args.WithImports,
		}
		result, err := svc.Context(node, opts)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(render.Context(result))
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_usages",
		Description: "Finds everything that uses a symbol, as a depth-bounded tree",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetUsagesArgs) (*mcp.CallToolResult, any, error) {
		svc, node, res, err := s.resolveOne(ctx, args.Project, args.Symbol)
		if res != nil || err != nil {
			return res, nil, err
		}
		entries, err := svc.Usages(node, traversal.Options{MaxDepth: args.Depth, Limit: args.Limit})
		if err != nil {
			return nil, nil, err
		}
		if len(entries) == 0 {
			return textResult("No usages found."), nil, nil
		}
		return jsonResult(render.Entries(entries))
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_deps",
		Description: "Lists everything a symbol depends on, as a depth-bounded tree",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetDepsArgs) (*mcp.CallToolResult, any, error) {
		svc, node, res, err := s.resolveOne(ctx, args.Project, args.Symbol)
		if res != nil || err != nil {
			return res, nil, err
		}
		entries, err := svc.Deps(node, traversal.Options{MaxDepth: args.Depth, Limit: args.Limit})
		if err != nil {
			return nil, nil, err
		}
		if len(entries) == 0 {
			return textResult("No dependencies found."), nil, nil
		}
		return jsonResult(render.Entries(entries))
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_inheritance",
		Description: "Walks the inheritance hierarchy of a type, up or down",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetInheritanceArgs) (*mcp.CallToolResult, any, error) {
		svc, node, res, err := s.resolveOne(ctx, args.Project, args.Symbol)
		if res != nil || err != nil {
			return res, nil, err
		}
		items, err := svc.Inherit(node, direction(args.Direction), args.Depth, 0)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(render.Items(items))
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_overrides",
		Description: "Walks the override chain of a method, up or down",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetOverridesArgs) (*mcp.CallToolResult, any, error) {
		svc, node, res, err := s.resolveOne(ctx, args.Project, args.Symbol)
		if res != nil || err != nil {
			return res, nil, err
		}
		items, err := svc.Overrides(node, direction(args.Direction), args.Depth, 0)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(render.Items(items))
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_owners",
		Description: "Returns the containment chain of a symbol, from itself to its file",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetOwnersArgs) (*mcp.CallToolResult, any, error) {
		svc, node, res, err := s.resolveOne(ctx, args.Project, args.Symbol)
		if res != nil || err != nil {
			return res, nil, err
		}
		items, err := svc.Owners(node)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(render.Items(items))
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "index_status",
		Description: "Reports node and edge counts of a project's built index",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IndexStatusArgs) (*mcp.CallToolResult, any, error) {
		svc, err := s.registry.Get(ctx, args.Project)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(render.StatsOf(svc.Store()))
	})
}

// resolveOne resolves a symbol to exactly one node id. Ambiguity is
// reported back to the client as the candidate list, not silently picked
// through.
func (s *Server) resolveOne(ctx context.Context, project, symbol string) (*query.Service, string, *mcp.CallToolResult, error) {
	svc, err := s.registry.Get(ctx, project)
	if err != nil {
		return nil, "", nil, err
	}
	candidates := svc.Resolve(symbol)
	switch len(candidates) {
	case 0:
		return nil, "", textResult("Symbol not found."), nil
	case 1:
		return svc, candidates[0].ID, nil, nil
	}
	payload, _ := json.MarshalIndent(render.Candidates(candidates), "", "  ")
	msg := fmt.Sprintf("Symbol %q is ambiguous, %d candidates:\n%s", symbol, len(candidates), payload)
	return nil, "", textResult(msg), nil
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return textResult(string(jsonBytes)), nil, nil
}

func direction(raw string) query.Direction {
	if raw == "" {
		return query.DirectionUp
	}
	return query.Direction(raw)
}
