// Package registry lazily builds and shares one query service per named
// project. Stores are immutable after build, so a built service is safe to
// share across concurrent queries; only the first use of a project pays
// the build cost.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"kloc/internal/cache"
	"kloc/internal/config"
	"kloc/internal/query"

	"golang.org/x/sync/singleflight"
)

type Registry struct {
	cfg *config.Config
	log *slog.Logger

	mu       sync.RWMutex
	services map[string]*query.Service
	group    singleflight.Group
}

func New(cfg *config.Config, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		cfg:      cfg,
		log:      log,
		services: make(map[string]*query.Service),
	}
}

// Get returns the query service for a named project, building its index on
// first use. Concurrent first uses of the same project resolve to a single
// build.
func (r *Registry) Get(ctx context.Context, name string) (*query.Service, error) {
	project, ok := r.cfg.FindProject(name)
	if !ok {
		return nil, fmt.Errorf("unknown project %q", name)
	}

	r.mu.RLock()
	svc := r.services[project.Name]
	r.mu.RUnlock()
	if svc != nil {
		return svc, nil
	}

	v, err, _ := r.group.Do(project.Name, func() (any, error) {
		r.mu.RLock()
		svc := r.services[project.Name]
		r.mu.RUnlock()
		if svc != nil {
			return svc, nil
		}

		r.log.Info("building index", "project", project.Name, "graph", project.Graph)
		store, err := cache.LoadOrBuild(ctx, project.Graph, project.Cache, r.log)
		if err != nil {
			return nil, fmt.Errorf("failed to build index for %q: %w", project.Name, err)
		}
		stats := store.ComputeStats()
		r.log.Info("index ready", "project", project.Name, "nodes", stats.Nodes, "edges", stats.Edges)

		svc = query.New(store)
		r.mu.Lock()
		r.services[project.Name] = svc
		r.mu.Unlock()
		return svc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*query.Service), nil
}

// Projects lists the configured project names.
func (r *Registry) Projects() []string {
	names := make([]string, 0, len(r.cfg.Projects))
	for _, p := range r.cfg.Projects {
		names = append(names, p.Name)
	}
	return names
}
