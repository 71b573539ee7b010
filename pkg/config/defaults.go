package config

const (
	defaultCorpusRoot   = "./aws_docs"
	defaultCorpusMerged = "aws"

	defaultTopK    = 2
	defaultWorkers = 4

	defaultVectorProvider = "sqlite"

	defaultEmbeddingProvider   = "hugot"
	defaultEmbeddingModel      = "sentence-transformers/all-MiniLM-L12-v2"
	defaultEmbeddingDimensions = 384

	defaultLLMProvider     = "sagemaker"
	defaultLLMRegion       = "us-east-1"
	defaultOllamaTarget    = "http://localhost:11434"
	defaultOllamaModel     = "llama2"
	defaultMaxHistoryLen   = 10
	defaultSessionTTL      = "30m"
	defaultAPIListen       = ":8501"
	defaultSageMakerPrefix = "./aws_docs/sagemaker/"
	defaultSageMakerURL    = "https://docs.aws.amazon.com/sagemaker/latest/dg/"
)

func defaultCollections() []string {
	return []string{"lambda", "sagemaker"}
}

func defaultRewrites() []SourceRewrite {
	return []SourceRewrite{{Prefix: defaultSageMakerPrefix, URL: defaultSageMakerURL}}
}

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Corpus: CorpusConfig{
			Root:        defaultCorpusRoot,
			Collections: defaultCollections(),
			Merged:      defaultCorpusMerged,
		},
		Index: IndexConfig{
			TopK:    defaultTopK,
			Workers: defaultWorkers,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		LLM: LLMConfig{
			Provider:     defaultLLMProvider,
			Region:       defaultLLMRegion,
			Target:       defaultOllamaTarget,
			Model:        defaultOllamaModel,
		},
		Chat: ChatConfig{
			MaxHistoryLength: defaultMaxHistoryLen,
			SessionTTL:       defaultSessionTTL,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Sources: SourcesConfig{
			Rewrites: defaultRewrites(),
		},
	}
}
