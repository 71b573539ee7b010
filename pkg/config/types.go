package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent helpbot configuration stored as
// config.toml in the .helpbot/ directory.
type Config struct {
	Version     int               `toml:"version"`
	Corpus      CorpusConfig      `toml:"corpus"`
	Index       IndexConfig       `toml:"index"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	LLM         LLMConfig         `toml:"llm"`
	Chat        ChatConfig        `toml:"chat"`
	API         APIConfig         `toml:"api"`
	Sources     SourcesConfig     `toml:"sources"`
}

// CorpusConfig describes the HTML documentation tree to ingest.
// Each collection is a subdirectory of Root and becomes its own index.
type CorpusConfig struct {
	Root        string   `toml:"root,omitempty"`
	Collections []string `toml:"collections,omitempty"`

	// Merged names the combined index holding every collection. The chat
	// pipeline searches this index.
	Merged string `toml:"merged,omitempty"`
}

// IndexConfig holds index build and retrieval settings.
type IndexConfig struct {
	// Dir is where index files and manifests are written. Empty means
	// <.helpbot>/index.
	Dir     string `toml:"dir,omitempty"`
	TopK    uint   `toml:"top_k,omitempty"`
	Workers uint   `toml:"workers,omitempty"`
}

// VectorStoreConfig selects the vector driver. Target is a URL or DSN for
// the network backends and ignored by sqlite.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`

	// ModelDir caches downloaded ONNX models for the hugot provider.
	ModelDir string `toml:"model_dir,omitempty"`
}

// LLMConfig configures the inference caller shared by the condenser and
// the answer generator.
type LLMConfig struct {
	Provider string `toml:"provider,omitempty"`

	// SageMaker
	Endpoint string `toml:"endpoint,omitempty"`
	Region   string `toml:"region,omitempty"`

	// Ollama
	Target string `toml:"target,omitempty"`
	Model  string `toml:"model,omitempty"`
}

// ChatConfig holds session settings.
type ChatConfig struct {
	// MaxHistoryLength bounds a session's history; see chat.History.
	// Zero or negative disables the bound.
	MaxHistoryLength int    `toml:"max_history_length,omitempty"`
	SessionTTL       string `toml:"session_ttl,omitempty"`
}

// APIConfig holds web server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// SourcesConfig controls how document sources are displayed.
type SourcesConfig struct {
	Rewrites []SourceRewrite `toml:"rewrites,omitempty"`
}

// SourceRewrite maps a source path prefix to a public URL prefix.
type SourceRewrite struct {
	Prefix string `toml:"prefix"`
	URL    string `toml:"url"`
}

// SessionTTLDuration parses Chat.SessionTTL, falling back to the default on
// an empty or invalid value.
func (c *Config) SessionTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.Chat.SessionTTL)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(defaultSessionTTL)
	}
	return d
}

// FormatRewrites renders rewrites as "prefix=url" pairs joined by commas,
// the form accepted by ParseRewrites.
func FormatRewrites(rs []SourceRewrite) string {
	parts := make([]string, 0, len(rs))
	for _, r := range rs {
		parts = append(parts, r.Prefix+"="+r.URL)
	}
	return strings.Join(parts, ",")
}

// ParseRewrites parses "prefix=url[,prefix=url...]".
func ParseRewrites(s string) ([]SourceRewrite, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var out []SourceRewrite
	for pair := range strings.SplitSeq(s, ",") {
		prefix, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || prefix == "" {
			return nil, fmt.Errorf("invalid source rewrite %q: expected prefix=url", pair)
		}
		out = append(out, SourceRewrite{Prefix: prefix, URL: url})
	}
	return out, nil
}

func splitList(v string) []string {
	var out []string
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}


// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"corpus.root": stringKey(func(c *Config) *string { return &c.Corpus.Root }),
	"corpus.collections": {
		get: func(c *Config) string { return strings.Join(c.Corpus.Collections, ",") },
		set: func(c *Config, v string) error { c.Corpus.Collections = splitList(v); return nil },
	},
	"corpus.merged": stringKey(func(c *Config) *string { return &c.Corpus.Merged }),

	"index.dir":     stringKey(func(c *Config) *string { return &c.Index.Dir }),
	"index.top_k":   uintKey("index.top_k", func(c *Config) *uint { return &c.Index.TopK }),
	"index.workers": uintKey("index.workers", func(c *Config) *uint { return &c.Index.Workers }),

	"vector_store.provider": stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":   stringKey(func(c *Config) *string { return &c.VectorStore.Target }),

	"embedding.provider":   stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":     stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":      stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"embedding.model_dir":  stringKey(func(c *Config) *string { return &c.Embedding.ModelDir }),

	"llm.provider":       stringKey(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.endpoint":       stringKey(func(c *Config) *string { return &c.LLM.Endpoint }),
	"llm.region":         stringKey(func(c *Config) *string { return &c.LLM.Region }),
	"llm.target":         stringKey(func(c *Config) *string { return &c.LLM.Target }),
	"llm.model":          stringKey(func(c *Config) *string { return &c.LLM.Model }),

	"chat.max_history_length": {
		get: func(c *Config) string {
			if c.Chat.MaxHistoryLength == 0 {
				return ""
			}
			return strconv.Itoa(c.Chat.MaxHistoryLength)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for chat.max_history_length: %w", err)
			}
			c.Chat.MaxHistoryLength = n
			return nil
		},
	},
	"chat.session_ttl": {
		get: func(c *Config) string { return c.Chat.SessionTTL },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for chat.session_ttl: %w", err)
			}
			c.Chat.SessionTTL = v
			return nil
		},
	},

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),

	"sources.rewrites": {
		get: func(c *Config) string { return FormatRewrites(c.Sources.Rewrites) },
		set: func(c *Config, v string) error {
			rs, err := ParseRewrites(v)
			if err != nil {
				return err
			}
			c.Sources.Rewrites = rs
			return nil
		},
	},
}
