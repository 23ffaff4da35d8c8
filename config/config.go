// Package config loads the campusrag configuration from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/campusrag/documentloaders"
	"github.com/sevigo/campusrag/parsers/pdf"
	"github.com/sevigo/campusrag/timetable"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Database  DatabaseConfig        `yaml:"database"`
	Parser    pdf.Options           `yaml:"parser"`
	Documents []documentloaders.Job `yaml:"documents"`
	Website   WebsiteConfig         `yaml:"website"`
	Timetable TimetableConfig       `yaml:"timetable"`
	LLM       LLMConfig             `yaml:"llm"`
	Qdrant    QdrantConfig          `yaml:"qdrant"`
	Retrieval RetrievalConfig       `yaml:"retrieval"`
	Server    ServerConfig          `yaml:"server"`
	Workers   int                   `yaml:"workers"`
	// PromptsFile optionally overrides the chat system prompt.
	PromptsFile string `yaml:"prompts_file"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type WebsiteConfig struct {
	StartURL    string   `yaml:"start_url"`
	MaxPages    int      `yaml:"max_pages"`
	Exclude     []string `yaml:"exclude"`
	DownloadDir string   `yaml:"download_dir"`
}

type TimetableConfig struct {
	URLTemplate string   `yaml:"url_template"`
	Groups      []string `yaml:"groups"`
}

type LLMConfig struct {
	Provider       string  `yaml:"provider"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	ServerURL      string  `yaml:"server_url"`
	APIKey         string  `yaml:"api_key"`
	Temperature    float64 `yaml:"temperature"`
}

type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
}

type RetrievalConfig struct {
	TopK           int     `yaml:"top_k"`
	MaxHistory     int     `yaml:"max_history"`
	ScoreThreshold float32 `yaml:"score_threshold"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// DefaultConfig returns a configuration for a local Ollama and Qdrant.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "chunks.db"},
		Parser:   pdf.DefaultOptions(),
		Website:  WebsiteConfig{MaxPages: 50},
		Timetable: TimetableConfig{
			URLTemplate: timetable.DefaultURLTemplate,
		},
		LLM: LLMConfig{
			Provider:  "ollama",
			Model:     "llama3.1",
			ServerURL: "http://localhost:11434",
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "university_docs",
		},
		Retrieval: RetrievalConfig{TopK: 3, MaxHistory: 10},
		Server:    ServerConfig{Port: "8000"},
		Workers:   4,
	}
}

// Load reads path on top of the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Database.Path = envOr("CAMPUSRAG_DB_PATH", c.Database.Path)
	c.LLM.Provider = envOr("CAMPUSRAG_LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Model = envOr("CAMPUSRAG_LLM_MODEL", c.LLM.Model)
	c.LLM.EmbeddingModel = envOr("CAMPUSRAG_EMBEDDING_MODEL", c.LLM.EmbeddingModel)
	c.LLM.ServerURL = envOr("OLLAMA_URL", c.LLM.ServerURL)
	c.LLM.APIKey = envOr("GEMINI_API_KEY", c.LLM.APIKey)
	c.Qdrant.Host = envOr("QDRANT_HOST", c.Qdrant.Host)
	c.Qdrant.Port = envInt("QDRANT_PORT", c.Qdrant.Port)
	c.Qdrant.APIKey = envOr("QDRANT_API_KEY", c.Qdrant.APIKey)
	c.Qdrant.Collection = envOr("CAMPUSRAG_COLLECTION", c.Qdrant.Collection)
	c.Server.Port = envOr("PORT", c.Server.Port)
	c.Workers = envInt("CAMPUSRAG_WORKERS", c.Workers)
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	switch c.LLM.Provider {
	case "ollama":
	case "gemini":
		if c.LLM.APIKey == "" {
			errs = append(errs, errors.New("llm.api_key (GEMINI_API_KEY) is required for gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is not one of ollama, gemini", c.LLM.Provider))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if c.Qdrant.Collection == "" {
		errs = append(errs, errors.New("qdrant.collection is required"))
	}
	if c.Qdrant.Port <= 0 {
		errs = append(errs, errors.New("qdrant.port must be positive"))
	}
	if c.Retrieval.TopK <= 0 {
		errs = append(errs, errors.New("retrieval.top_k must be positive"))
	}
	if c.Retrieval.ScoreThreshold < 0 || c.Retrieval.ScoreThreshold > 1 {
		errs = append(errs, errors.New("retrieval.score_threshold must be within [0, 1]"))
	}
	if c.Retrieval.MaxHistory < 0 {
		errs = append(errs, errors.New("retrieval.max_history cannot be negative"))
	}
	if c.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	for i, d := range c.Documents {
		if strings.TrimSpace(d.Path) == "" {
			errs = append(errs, fmt.Errorf("documents[%d].path is required", i))
		}
		if d.Parser != "" && d.Parser != "calendar" && d.Parser != "structured" {
			errs = append(errs, fmt.Errorf("documents[%d].parser %q is not one of calendar, structured", i, d.Parser))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
