package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Project is one named graph a long-lived server can load.
type Project struct {
	Name  string `yaml:"name"`
	Graph string `yaml:"graph"`
	Cache string `yaml:"cache"`
}

type Config struct {
	Projects []Project `yaml:"projects"`
	Query    struct {
		MaxDepth int `yaml:"max_depth"`
		Limit    int `yaml:"limit"`
	} `yaml:"query"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Query.MaxDepth = 2
	cfg.Query.Limit = 100
	cfg.Log.Level = "info"
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	cfg := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	}

	// 3. Override with Environment Variables if present
	if level := os.Getenv("KLOC_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if depth := os.Getenv("KLOC_MAX_DEPTH"); depth != "" {
		n, err := strconv.Atoi(depth)
		if err != nil {
			return nil, fmt.Errorf("invalid KLOC_MAX_DEPTH: %w", err)
		}
		cfg.Query.MaxDepth = n
	}
	if limit := os.Getenv("KLOC_LIMIT"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid KLOC_LIMIT: %w", err)
		}
		cfg.Query.Limit = n
	}
	if graph := os.Getenv("KLOC_GRAPH"); graph != "" {
		cfg.Projects = append(cfg.Projects, Project{Name: "default", Graph: graph})
	}

	return cfg, nil
}

// FindProject returns the named project, or the sole configured project
// when name is empty.
func (c *Config) FindProject(name string) (Project, bool) {
	if name == "" && len(c.Projects) == 1 {
		return c.Projects[0], true
	}
	for _, p := range c.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return Project{}, false
}
