package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so --embedding-model means
// the same thing on ingest, serve, chat and search.
type Flag struct {
	// Name is the long flag name (e.g. "endpoint").
	Name string

	// Shorthand is the one-letter short flag (e.g. "l"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "llm.endpoint").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagCorpusRoot      = "corpus-root"
	FlagCollections     = "collections"
	FlagMerged          = "merged"
	FlagIndexDir        = "index-dir"
	FlagTopK            = "top-k"
	FlagWorkers         = "workers"
	FlagVectorStoreProv = "vector-store-provider"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagLLMProvider     = "llm-provider"
	FlagLLMEndpoint     = "endpoint"
	FlagLLMRegion       = "region"
	FlagLLMTarget       = "llm-target"
	FlagLLMModel        = "llm-model"
	FlagMaxHistory      = "max-history"
	FlagListen          = "listen"
)

// Flags is the registry shared by every helpbot command.
var Flags = FlagSet{
	FlagCorpusRoot:      {Name: "corpus-root", ViperKey: "corpus.root", Description: "Root directory of the HTML corpus"},
	FlagCollections:     {Name: "collections", ViperKey: "corpus.collections", Description: "Collections (subdirectories of the corpus root) to ingest"},
	FlagMerged:          {Name: "merged", ViperKey: "corpus.merged", Description: "Name of the merged index searched by chat"},
	FlagIndexDir:        {Name: "index-dir", ViperKey: "index.dir", Description: "Directory holding index files (default <.helpbot>/index)"},
	FlagTopK:            {Name: "top-k", Shorthand: "k", ViperKey: "index.top_k", Description: "Number of passages retrieved per question"},
	FlagWorkers:         {Name: "workers", ViperKey: "index.workers", Description: "Concurrent embedding workers during ingest"},
	FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector store provider (sqlite, chroma, qdrant, pgvector)"},
	FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector store URL or DSN"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (hugot, ollama)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensionality"},
	FlagLLMProvider:     {Name: "llm-provider", ViperKey: "llm.provider", Description: "Inference provider (sagemaker, ollama)"},
	FlagLLMEndpoint:     {Name: "endpoint", ViperKey: "llm.endpoint", Description: "SageMaker endpoint name"},
	FlagLLMRegion:       {Name: "region", ViperKey: "llm.region", Description: "AWS region of the SageMaker endpoint"},
	FlagLLMTarget:       {Name: "llm-target", ViperKey: "llm.target", Description: "Ollama URL for the ollama inference provider"},
	FlagLLMModel:        {Name: "llm-model", ViperKey: "llm.model", Description: "Ollama model for the ollama inference provider"},
	FlagMaxHistory:      {Name: "max-history", ViperKey: "chat.max_history_length", Description: "Maximum chat history length before it is cleared"},
	FlagListen:          {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the web server to listen on"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddStringSliceFlag registers a comma separated list flag.
func AddStringSliceFlag(cmd *cobra.Command, fs FlagSet, key string, target *[]string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := stringList(defaults().Get(def.ViperKey))
	if def.Shorthand != "" {
		cmd.Flags().StringSliceVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringSliceVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaults().GetUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *int) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaults().GetInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
