// Package cache persists a loaded graph document to a SQLite side-file so
// repeated invocations skip the JSON parse. The cache is keyed by the
// source file's mtime, size, content hash and a format version; a mismatch
// on any key is a miss, never an error. Derived data (closures, tries) is
// recomputed on load.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"kloc/internal/graph"
	"kloc/internal/loader"
	"kloc/internal/model"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"
)

// FormatVersion is bumped whenever the cached schema or the model types
// change shape; old caches then read as misses.
const FormatVersion = 1

// Key identifies the exact source file state a cache entry was built from.
type Key struct {
	MTimeNanos int64
	Size       int64
	Hash       uint64
	Format     int
}

// KeyFor stats and hashes the source file.
func KeyFor(path string) (Key, []byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Key{}, nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Key{}, nil, err
	}
	return Key{
		MTimeNanos: info.ModTime().UnixNano(),
		Size:       info.Size(),
		Hash:       xxhash.Sum64(b),
		Format:     FormatVersion,
	}, b, nil
}

type Cache struct {
	db *sql.DB
}

// Open creates or opens the cache database.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	c := &Cache{db: db}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return c, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			kind TEXT,
			fqn TEXT,
			filepath TEXT,
			data JSON
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			seq INTEGER PRIMARY KEY,
			type TEXT,
			from_id TEXT,
			to_id TEXT,
			data JSON
		);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(filepath);`,
	}
	for _, q := range queries {
		if _, err := c.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the cached document when every component of the key
// matches, or (nil, false) otherwise. Corrupt rows read as a miss.
func (c *Cache) Load(ctx context.Context, key Key) (*model.Document, bool) {
	stored, err := c.loadKey(ctx)
	if err != nil || stored != key {
		return nil, false
	}

	doc := &model.Document{}
	if v, err := c.metaValue(ctx, "version"); err == nil {
		doc.Version = v
	}

	// 1. Load nodes
	rows, err := c.db.QueryContext(ctx, "SELECT data FROM nodes")
	if err != nil {
		return nil, false
	}
	defer rows.Close()
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, false
		}
		var n model.Node
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, false
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	if rows.Err() != nil {
		return nil, false
	}

	// 2. Load edges in insertion order
	edgeRows, err := c.db.QueryContext(ctx, "SELECT data FROM edges ORDER BY seq")
	if err != nil {
		return nil, false
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var data []byte
		if err := edgeRows.Scan(&data); err != nil {
			return nil, false
		}
		var e model.Edge
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, false
		}
		doc.Edges = append(doc.Edges, e)
	}
	if edgeRows.Err() != nil {
		return nil, false
	}
	return doc, true
}

// Save replaces the cache content with the document, atomically within one
// transaction.
func (c *Cache) Save(ctx context.Context, key Key, doc *model.Document) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"meta", "nodes", "edges"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	// 1. Save key + document metadata
	metaStmt, err := tx.PrepareContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer metaStmt.Close()
	meta := map[string]string{
		"mtime":   fmt.Sprintf("%d", key.MTimeNanos),
		"size":    fmt.Sprintf("%d", key.Size),
		"hash":    fmt.Sprintf("%d", key.Hash),
		"format":  fmt.Sprintf("%d", key.Format),
		"version": doc.Version,
	}
	for k, v := range meta {
		if _, err := metaStmt.Exec(k, v); err != nil {
			return err
		}
	}

	// 2. Save nodes
	nodeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, kind, fqn, filepath, data) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer nodeStmt.Close()
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		if _, err := nodeStmt.Exec(n.ID, string(n.Kind), n.FQN, n.File, data); err != nil {
			return err
		}
	}

	// 3. Save edges, seq preserving input order
	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (seq, type, from_id, to_id, data) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()
	for i := range doc.Edges {
		e := &doc.Edges[i]
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := edgeStmt.Exec(i, string(e.Type), e.From, e.To, data); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (c *Cache) loadKey(ctx context.Context) (Key, error) {
	var key Key
	read := func(name string, dst any) error {
		v, err := c.metaValue(ctx, name)
		if err != nil {
			return err
		}
		_, err = fmt.Sscanf(v, "%d", dst)
		return err
	}
	if err := read("mtime", &key.MTimeNanos); err != nil {
		return key, err
	}
	if err := read("size", &key.Size); err != nil {
		return key, err
	}
	if err := read("hash", &key.Hash); err != nil {
		return key, err
	}
	if err := read("format", &key.Format); err != nil {
		return key, err
	}
	return key, nil
}

func (c *Cache) metaValue(ctx context.Context, name string) (string, error) {
	var v string
	err := c.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", name).Scan(&v)
	return v, err
}

// LoadOrBuild builds a graph store from the source file, going through the
// cache when cachePath is set. Cache failures of any sort fall back to a
// full rebuild; a failed cache write is logged and otherwise ignored.
func LoadOrBuild(ctx context.Context, sourcePath, cachePath string, log *slog.Logger) (*graph.Store, error) {
	if log == nil {
		log = slog.Default()
	}
	key, raw, err := KeyFor(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	var c *Cache
	if cachePath != "" {
		if c, err = Open(cachePath); err != nil {
			log.Warn("cache unavailable, rebuilding", "path", cachePath, "error", err)
			c = nil
		} else {
			defer c.Close()
		}
	}

	if c != nil {
		if doc, ok := c.Load(ctx, key); ok {
			log.Debug("cache hit", "source", sourcePath, "nodes", len(doc.Nodes))
			return graph.Build(doc), nil
		}
	}

	doc, err := loader.ParseDocument(raw)
	if err != nil {
		return nil, err
	}
	store := graph.Build(doc)
	if c != nil {
		if err := c.Save(ctx, key, doc); err != nil {
			log.Warn("cache write failed", "path", cachePath, "error", err)
		}
	}
	return store, nil
}
