package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fileConfig is the on-disk shape. Durations are written as strings ("10s")
// so both encoders produce something a person can edit.
type fileConfig struct {
	Servers        []fileServer `json:"servers" yaml:"servers"`
	UpdateDelay    int          `json:"update_delay" yaml:"update_delay"`
	FetchTimeout   string       `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty"`
	TickRate       string       `json:"tick_rate,omitempty" yaml:"tick_rate,omitempty"`
	PollTimeout    string       `json:"poll_timeout,omitempty" yaml:"poll_timeout,omitempty"`
	RefreshAll     bool         `json:"refresh_all,omitempty" yaml:"refresh_all,omitempty"`
	TopLimit       int          `json:"top_limit,omitempty" yaml:"top_limit,omitempty"`
	DisableSeconds int          `json:"disable_seconds,omitempty" yaml:"disable_seconds,omitempty"`
	RateLimit      float64      `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	CachePath      string       `json:"cache_path,omitempty" yaml:"cache_path,omitempty"`
}

type fileServer struct {
	Name   string `json:"name" yaml:"name"`
	Host   string `json:"host" yaml:"host"`
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// toFile keeps only settings that differ from the defaults, so generated
// files stay short.
func toFile(cfg *Config) fileConfig {
	def := DefaultConfig()
	fc := fileConfig{
		UpdateDelay: cfg.UpdateDelay,
		RefreshAll:  cfg.RefreshAll,
		CachePath:   cfg.CachePath,
	}
	for _, s := range cfg.Servers {
		fc.Servers = append(fc.Servers, fileServer(s))
	}
	if cfg.FetchTimeout != def.FetchTimeout {
		fc.FetchTimeout = cfg.FetchTimeout.String()
	}
	if cfg.TickRate != def.TickRate {
		fc.TickRate = cfg.TickRate.String()
	}
	if cfg.PollTimeout != def.PollTimeout {
		fc.PollTimeout = cfg.PollTimeout.String()
	}
	if cfg.TopLimit != def.TopLimit {
		fc.TopLimit = cfg.TopLimit
	}
	if cfg.DisableSeconds != def.DisableSeconds {
		fc.DisableSeconds = cfg.DisableSeconds
	}
	if cfg.RateLimit != def.RateLimit {
		fc.RateLimit = cfg.RateLimit
	}
	return fc
}

// isYAML reports whether path should be written as YAML.
func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Save writes cfg to path as YAML or JSON depending on the extension.
func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(toFile(cfg))
	} else {
		data, err = json.MarshalIndent(toFile(cfg), "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	// 0600: the file may hold API keys.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// AppendServer adds a server to an existing config file. YAML files are
// edited through yaml.Node so comments and layout survive; JSON files are
// decoded and rewritten.
func AppendServer(path string, server Server) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if !isYAML(path) {
		var fc fileConfig
		if err := json.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		fc.Servers = append(fc.Servers, fileServer(server))
		out, err := json.MarshalIndent(fc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return os.WriteFile(path, append(out, '\n'), 0600)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}
	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	var entry yaml.Node
	if err := entry.Encode(fileServer(server)); err != nil {
		return fmt.Errorf("failed to encode server: %w", err)
	}

	serversNode := findMapValue(docNode, "servers")
	if serversNode == nil {
		serversNode = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		docNode.Content = append(docNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "servers"},
			serversNode,
		)
	}
	if serversNode.Kind != yaml.SequenceNode {
		return fmt.Errorf("'servers' must be a list")
	}
	serversNode.Content = append(serversNode.Content, &entry)

	out, err := yaml.Marshal(&root)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(path, out, 0600)
}

// findMapValue finds a value node in a mapping node by key.
func findMapValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(mapping.Content)-1; i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
