package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"kloc/internal/config"
	"kloc/internal/query"
	"kloc/internal/registry"
	"kloc/internal/render"
	"kloc/internal/server"
	"kloc/internal/traversal"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "kloc",
		Short: "Code graph index and context queries",
	}
	configPath  string
	graphPath   string
	cachePath   string
	projectName string
	maxDepth    int
	limit       int
	includeImpl bool
	directOnly  bool
	withImports bool
	direction   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&graphPath, "graph", "g", "", "Path to the graph JSON file (overrides configured projects)")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "Path to the index cache database (SQLite)")
	rootCmd.PersistentFlags().StringVarP(&projectName, "project", "p", "", "Configured project to query")
	rootCmd.PersistentFlags().IntVarP(&maxDepth, "depth", "d", 0, "Maximum traversal depth")
	rootCmd.PersistentFlags().IntVarP(&limit, "limit", "l", 0, "Maximum number of result entries")

	contextCmd.Flags().BoolVar(&includeImpl, "impl", false, "Expand implementations and overrides")
	contextCmd.Flags().BoolVar(&directOnly, "direct", false, "Only direct references")
	contextCmd.Flags().BoolVar(&withImports, "imports", false, "Include file-level import references")
	inheritCmd.Flags().StringVar(&direction, "direction", "up", "Walk direction: up or down")
	overridesCmd.Flags().StringVar(&direction, "direction", "up", "Walk direction: up or down")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(usagesCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(ownersCmd)
	rootCmd.AddCommand(inheritCmd)
	rootCmd.AddCommand(overridesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
}

// initRegistry loads the configuration and sets up logging. A --graph flag
// wins over configured projects.
func initRegistry() *registry.Registry {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if graphPath != "" {
		cfg.Projects = []config.Project{{Name: "default", Graph: graphPath, Cache: cachePath}}
		projectName = "default"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if maxDepth == 0 {
		maxDepth = cfg.Query.MaxDepth
	}
	if limit == 0 {
		limit = cfg.Query.Limit
	}

	return registry.New(cfg, logger)
}

func initService() *query.Service {
	reg := initRegistry()
	svc, err := reg.Get(context.Background(), projectName)
	if err != nil {
		log.Fatalf("Failed to build index: %v", err)
	}
	return svc
}

// resolveOne resolves a symbol argument to exactly one node, failing on
// ambiguity with the candidate list.
func resolveOne(svc *query.Service, symbol string) string {
	candidates := svc.Resolve(symbol)
	switch len(candidates) {
	case 0:
		log.Fatalf("Symbol not found: %s", symbol)
	case 1:
		return candidates[0].ID
	}
	fmt.Fprintf(os.Stderr, "Symbol %q is ambiguous:\n", symbol)
	printJSON(render.Candidates(candidates))
	os.Exit(1)
	return ""
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	fmt.Println(string(b))
}

func queryOpts() traversal.Options {
	return traversal.Options{
		MaxDepth:    maxDepth,
		Limit:       limit,
		IncludeImpl: includeImpl,
		DirectOnly:  directOnly,
		WithImports: withImports,
	}
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <symbol>",
	Short: "Resolve a symbol name to its definitions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := initService()
		candidates := svc.Resolve(args[0])
		if len(candidates) == 0 {
			log.Fatalf("Symbol not found: %s", args[0])
		}
		printJSON(render.Candidates(candidates))
	},
}

var contextCmd = &cobra.Command{
	Use:   "context <symbol>",
	Short: "Show the full context of a symbol: usages, dependencies, definition",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := initService()
		id := resolveOne(svc, args[0])
		result, err := svc.Context(id, queryOpts())
		if err != nil {
			log.Fatalf("Context query failed: %v", err)
		}
		printJSON(render.Context(result))
	},
}

var usagesCmd = &cobra.Command{
	Use:   "usages <symbol>",
	Short: "Find everything that uses a symbol",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := initService()
		id := resolveOne(svc, args[0])
		entries, err := svc.Usages(id, queryOpts())
		if err != nil {
			log.Fatalf("Usages query failed: %v", err)
		}
		printJSON(render.Entries(entries))
	},
}

var depsCmd = &cobra.Command{
	Use:   "deps <symbol>",
	Short: "List everything a symbol depends on",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := initService()
		id := resolveOne(svc, args[0])
		entries, err := svc.Deps(id, queryOpts())
		if err != nil {
			log.Fatalf("Deps query failed: %v", err)
		}
		printJSON(render.Entries(entries))
	},
}

var ownersCmd = &cobra.Command{
	Use:   "owners <symbol>",
	Short: "Show the containment chain of a symbol",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := initService()
		id := resolveOne(svc, args[0])
		items, err := svc.Owners(id)
		if err != nil {
			log.Fatalf("Owners query failed: %v", err)
		}
		printJSON(render.Items(items))
	},
}

var inheritCmd = &cobra.Command{
	Use:   "inherit <symbol>",
	Short: "Walk the inheritance hierarchy of a type",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := initService()
		id := resolveOne(svc, args[0])
		items, err := svc.Inherit(id, query.Direction(direction), maxDepth, limit)
		if err != nil {
			log.Fatalf("Inheritance query failed: %v", err)
		}
		printJSON(render.Items(items))
	},
}

var overridesCmd = &cobra.Command{
	Use:   "overrides <symbol>",
	Short: "Walk the override chain of a method",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := initService()
		id := resolveOne(svc, args[0])
		items, err := svc.Overrides(id, query.Direction(direction), maxDepth, limit)
		if err != nil {
			log.Fatalf("Overrides query failed: %v", err)
		}
		printJSON(render.Items(items))
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print node and edge counts of the built index",
	Run: func(cmd *cobra.Command, args []string) {
		svc := initService()
		printJSON(render.StatsOf(svc.Store()))
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query tools over MCP stdio",
	Run: func(cmd *cobra.Command, args []string) {
		reg := initRegistry()
		srv := server.NewServer(reg, slog.Default())
		if err := srv.Run(context.Background()); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	},
}
