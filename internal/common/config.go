package common

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	LLM        LLMConfig
	Extraction ExtractionConfig
	Checkpoint CheckpointConfig
	Batch      BatchConfig
	TextSource TextSourceConfig
}

// LLMConfig holds model-extractor configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
	// ModelConfidence is the policy confidence assigned to every model-extracted
	// field. Model output is generally better than a weak pattern match but it
	// must not outrank a strong one.
	ModelConfidence float64
	// ExcerptBytes bounds how much document text is sent per request.
	ExcerptBytes int
}

// ExtractionConfig holds reconciliation thresholds. These are tunables, not
// law; the defaults reflect what worked across application years.
type ExtractionConfig struct {
	// HighConfidence is the pattern-extractor confidence at or above which the
	// model extractor is not consulted for a field.
	HighConfidence float64
}

// CheckpointConfig holds checkpoint-store configuration
type CheckpointConfig struct {
	Backend    string // "file" or "sqlite"
	Path       string // checkpoint file or sqlite database path
	ResultsLog string // results log path (file backend only)
	StatusLog  string // human-readable status log, appended across runs
}

// BatchConfig holds batch-orchestrator configuration
type BatchConfig struct {
	SubBatchSize int
	// MaxDocuments bounds one invocation; 0 means run to completion.
	MaxDocuments int
	// Workers > 1 enables the bounded worker pool inside a sub-batch.
	Workers int
}

// TextSourceConfig holds text-adapter configuration
type TextSourceConfig struct {
	Pdftotext string // external fallback binary; empty disables the fallback
	MaxPages  int    // 0 = no limit
}

// LoadConfig loads configuration from defaults, an optional config file, and
// TDHCA_-prefixed environment variables (e.g. TDHCA_LLM_API_KEY).
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", "45s")
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.model_confidence", 0.70)
	v.SetDefault("llm.excerpt_bytes", 6000)

	v.SetDefault("extraction.high_confidence", 0.80)

	v.SetDefault("checkpoint.backend", "file")
	v.SetDefault("checkpoint.path", "checkpoint.json")
	v.SetDefault("checkpoint.results_log", "results.jsonl")
	v.SetDefault("checkpoint.status_log", "status.log")

	v.SetDefault("batch.sub_batch_size", 25)
	v.SetDefault("batch.max_documents", 0)
	v.SetDefault("batch.workers", 1)

	v.SetDefault("textsource.pdftotext", "pdftotext")
	v.SetDefault("textsource.max_pages", 0)

	v.SetEnvPrefix("TDHCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
	}

	cfg := &Config{
		LLM: LLMConfig{
			Model:           v.GetString("llm.model"),
			APIKey:          v.GetString("llm.api_key"),
			BaseURL:         v.GetString("llm.base_url"),
			Temperature:     float32(v.GetFloat64("llm.temperature")),
			Timeout:         v.GetDuration("llm.timeout"),
			MaxRetries:      v.GetInt("llm.max_retries"),
			ModelConfidence: v.GetFloat64("llm.model_confidence"),
			ExcerptBytes:    v.GetInt("llm.excerpt_bytes"),
		},
		Extraction: ExtractionConfig{
			HighConfidence: v.GetFloat64("extraction.high_confidence"),
		},
		Checkpoint: CheckpointConfig{
			Backend:    v.GetString("checkpoint.backend"),
			Path:       v.GetString("checkpoint.path"),
			ResultsLog: v.GetString("checkpoint.results_log"),
			StatusLog:  v.GetString("checkpoint.status_log"),
		},
		Batch: BatchConfig{
			SubBatchSize: v.GetInt("batch.sub_batch_size"),
			MaxDocuments: v.GetInt("batch.max_documents"),
			Workers:      v.GetInt("batch.workers"),
		},
		TextSource: TextSourceConfig{
			Pdftotext: v.GetString("textsource.pdftotext"),
			MaxPages:  v.GetInt("textsource.max_pages"),
		},
	}
	return cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Extraction.HighConfidence <= 0 || c.Extraction.HighConfidence > 1 {
		return NewAppError("CONFIG_ERROR", "extraction.high_confidence must be in (0,1]", ErrInvalidInput)
	}
	if c.LLM.ModelConfidence < 0 || c.LLM.ModelConfidence > 1 {
		return NewAppError("CONFIG_ERROR", "llm.model_confidence must be in [0,1]", ErrInvalidInput)
	}
	if c.Batch.SubBatchSize < 1 || c.Batch.SubBatchSize > 200 {
		return NewAppError("CONFIG_ERROR", "batch.sub_batch_size must be in [1,200]", ErrInvalidInput)
	}
	if c.Batch.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "batch.workers must be >= 1", ErrInvalidInput)
	}
	switch c.Checkpoint.Backend {
	case "file", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", "checkpoint.backend must be file or sqlite", ErrInvalidInput)
	}
	return nil
}
