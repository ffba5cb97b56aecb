// Package conf loads the service configuration via viper and validates it
// with go-playground/validator, following the teacher's internal/conf shape
// re-keyed to this service's sections (SPEC_FULL.md §10).
package conf

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"ragcore/internal/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Vector    VectorConfig    `mapstructure:"vector_store"`
	Chunking  ChunkingConfig  `mapstructure:"chunking"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	FlowLog   FlowLogConfig   `mapstructure:"flow_log"`
	KBStore   KBStoreConfig   `mapstructure:"kb_store"`
	Log       logger.Config   `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`
}

type LLMConfig struct {
	Host      string        `mapstructure:"host" validate:"required,url"`
	Model     string        `mapstructure:"model" validate:"required"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"required"`
	MaxTurnToolCalls int    `mapstructure:"max_tool_calls" validate:"min=1"`
}

type EmbeddingConfig struct {
	Host                string        `mapstructure:"host" validate:"required,url"`
	Model               string        `mapstructure:"model" validate:"required"`
	APIKey              string        `mapstructure:"api_key"`
	Dimension           int           `mapstructure:"dim" validate:"required,min=1"`
	BatchSize           int           `mapstructure:"batch_size" validate:"min=1,max=64"`
	Retries             int           `mapstructure:"retries" validate:"min=0"`
	BackoffInitial      time.Duration `mapstructure:"backoff_initial"`
	BackoffFactor       float64       `mapstructure:"backoff_factor" validate:"min=1"`
	InterBatchDelay     time.Duration `mapstructure:"inter_batch_delay"`
	Timeout             time.Duration `mapstructure:"timeout" validate:"required"`
}

type VectorConfig struct {
	URL              string        `mapstructure:"url" validate:"required,url"`
	DefaultTimeout   time.Duration `mapstructure:"timeout" validate:"required"`
	UpsertBatchSize  int           `mapstructure:"upsert_batch_size" validate:"min=1"`
}

type ChunkingConfig struct {
	ChunkSize               int  `mapstructure:"chunk_size" validate:"required,min=1"`
	ChunkOverlap            int  `mapstructure:"chunk_overlap" validate:"min=0"`
	RespectSentenceBoundary bool `mapstructure:"respect_sentence_boundary"`
	ChineseAware            bool `mapstructure:"chinese_aware"`
}

type RetrievalConfig struct {
	Mode                   string  `mapstructure:"mode" validate:"oneof=vector fulltext hybrid"`
	TopK                   int     `mapstructure:"top_k" validate:"min=1"`
	SimilarityThreshold    float64 `mapstructure:"similarity_threshold" validate:"min=0,max=1"`
	HybridVectorWeight     float64 `mapstructure:"hybrid_vector_weight" validate:"min=0,max=1"`
	HybridKeywordWeight    float64 `mapstructure:"hybrid_keyword_weight" validate:"min=0,max=1"`
	HybridFusion           string  `mapstructure:"hybrid_fusion" validate:"omitempty,oneof=weighted rrf"`
	AdaptiveMinThreshold   float64 `mapstructure:"adaptive_min_threshold" validate:"min=0,max=1"`
	AdaptiveTargetResults  int     `mapstructure:"adaptive_target_results" validate:"min=0"`
}

type IngestionConfig struct {
	MaxQueryLength int `mapstructure:"max_query_length" validate:"required,min=1"`
	MaxFileSizeBytes int64 `mapstructure:"max_file_size_bytes" validate:"required,min=1"`
	WorkerPoolSize int `mapstructure:"worker_pool_size" validate:"min=1"`
}

type FlowLogConfig struct {
	Path        string `mapstructure:"path" validate:"required"`
	DetailLevel string `mapstructure:"detail_level" validate:"oneof=minimal normal verbose"`
	QueueSize   int    `mapstructure:"queue_size" validate:"min=1"`
	LogPrompts  bool   `mapstructure:"log_prompts"`
	LogResponses bool  `mapstructure:"log_responses"`
	RedactPrompts bool `mapstructure:"redact_prompts"`
	RedactResponses bool `mapstructure:"redact_responses"`
}

type KBStoreConfig struct {
	DatabasePath string `mapstructure:"database_path" validate:"required"`
}

var validate = validator.New()

// Load reads path via viper (YAML + environment overrides), unmarshals into
// Config, and runs struct-tag validation plus the cross-field checks §6
// specifies (chunk_overlap < chunk_size, hybrid weights sum to 1).
func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs struct-tag validation and the cross-field invariants of §6.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("invalid configuration: chunk_overlap (%d) must be less than chunk_size (%d)",
			c.Chunking.ChunkOverlap, c.Chunking.ChunkSize)
	}
	if sum := c.Retrieval.HybridVectorWeight + c.Retrieval.HybridKeywordWeight; c.Retrieval.Mode == "hybrid" && (sum < 0.999 || sum > 1.001) {
		return fmt.Errorf("invalid configuration: hybrid_vector_weight + hybrid_keyword_weight must sum to 1.0, got %f", sum)
	}
	return nil
}

// Default returns a Config populated with the defaults named throughout
// SPEC_FULL.md §4 so a config file only needs to override what differs.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		LLM: LLMConfig{
			Timeout:          60 * time.Second,
			MaxTurnToolCalls: 5,
		},
		Embedding: EmbeddingConfig{
			BatchSize:       16,
			Retries:         5,
			BackoffInitial:  1500 * time.Millisecond,
			BackoffFactor:   1.5,
			InterBatchDelay: 0,
			Timeout:         30 * time.Second,
		},
		Vector: VectorConfig{
			DefaultTimeout:  10 * time.Second,
			UpsertBatchSize: 100,
		},
		Chunking: ChunkingConfig{
			ChunkSize:               500,
			ChunkOverlap:            50,
			RespectSentenceBoundary: true,
			ChineseAware:            false,
		},
		Retrieval: RetrievalConfig{
			Mode:                  "hybrid",
			TopK:                  5,
			SimilarityThreshold:   0.3,
			HybridVectorWeight:    0.5,
			HybridKeywordWeight:   0.5,
			HybridFusion:          "weighted",
			AdaptiveMinThreshold:  0.2,
			AdaptiveTargetResults: 3,
		},
		Ingestion: IngestionConfig{
			MaxQueryLength:   2000,
			MaxFileSizeBytes: 100 * 1024 * 1024,
			WorkerPoolSize:   4,
		},
		FlowLog: FlowLogConfig{
			Path:        "logs/unified_flow.log",
			DetailLevel: "normal",
			QueueSize:   1000,
			LogPrompts:  true,
			LogResponses: true,
		},
		KBStore: KBStoreConfig{
			DatabasePath: "data/knowledge_bases.db",
		},
		Log: *logger.DefaultConfig(),
	}
}
