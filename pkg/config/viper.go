package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/papercomputeco/helpbot/pkg/dotdir"
)

// EnvPrefix is prepended to every dotted key when read from the environment
// (corpus.root -> HELPBOT_CORPUS_ROOT).
const EnvPrefix = "HELPBOT"

// legacyEnv binds the unprefixed variable names used by earlier deployments.
// They rank below the HELPBOT_ form.
var legacyEnv = map[string]string{
	"llm.region":              "AWS_REGION",
	"llm.endpoint":            "LLAMA2_ENDPOINT",
	"embedding.model":         "EMBEDDING_MODEL",
	"chat.max_history_length": "MAX_HISTORY_LENGTH",
}

// LoadDotEnv loads .env from the working directory into the process
// environment. Variables already set are left alone and a missing file is
// not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// InitViper creates and returns a configured *viper.Viper.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (HELPBOT_LLM_ENDPOINT, then legacy LLAMA2_ENDPOINT)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("corpus.root", d.Corpus.Root)
	v.SetDefault("corpus.collections", d.Corpus.Collections)
	v.SetDefault("corpus.merged", d.Corpus.Merged)

	v.SetDefault("index.dir", d.Index.Dir)
	v.SetDefault("index.top_k", d.Index.TopK)
	v.SetDefault("index.workers", d.Index.Workers)

	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.model_dir", d.Embedding.ModelDir)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.endpoint", d.LLM.Endpoint)
	v.SetDefault("llm.region", d.LLM.Region)
	v.SetDefault("llm.target", d.LLM.Target)
	v.SetDefault("llm.model", d.LLM.Model)

	v.SetDefault("chat.max_history_length", d.Chat.MaxHistoryLength)
	v.SetDefault("chat.session_ttl", d.Chat.SessionTTL)

	v.SetDefault("api.listen", d.API.Listen)

	v.SetDefault("sources.rewrites", FormatRewrites(d.Sources.Rewrites))
}

// FromViper materializes a Config from the resolved viper values.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Corpus: CorpusConfig{
			Root:        v.GetString("corpus.root"),
			Collections: stringList(v.Get("corpus.collections")),
			Merged:      v.GetString("corpus.merged"),
		},
		Index: IndexConfig{
			Dir:     v.GetString("index.dir"),
			TopK:    v.GetUint("index.top_k"),
			Workers: v.GetUint("index.workers"),
		},
		VectorStore: VectorStoreConfig{
			Provider: v.GetString("vector_store.provider"),
			Target:   v.GetString("vector_store.target"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
			ModelDir:   v.GetString("embedding.model_dir"),
		},
		LLM: LLMConfig{
			Provider:     v.GetString("llm.provider"),
			Endpoint:     v.GetString("llm.endpoint"),
			Region:       v.GetString("llm.region"),
			Target:       v.GetString("llm.target"),
			Model:        v.GetString("llm.model"),
		},
		Chat: ChatConfig{
			MaxHistoryLength: v.GetInt("chat.max_history_length"),
			SessionTTL:       v.GetString("chat.session_ttl"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
	}

	switch raw := v.Get("sources.rewrites").(type) {
	case string:
		rs, err := ParseRewrites(raw)
		if err != nil {
			return nil, err
		}
		cfg.Sources.Rewrites = rs
	default:
		if err := v.UnmarshalKey("sources.rewrites", &cfg.Sources.Rewrites); err != nil {
			return nil, fmt.Errorf("decoding sources.rewrites: %w", err)
		}
	}

	return cfg, nil
}

// stringList accepts a TOML array, a bound string slice flag, or a
// comma separated env value.
func stringList(raw any) []string {
	switch val := raw.(type) {
	case string:
		return splitList(val)
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}
