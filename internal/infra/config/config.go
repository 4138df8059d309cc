package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds server-mode deployment settings. Funnel parameters
// (K values, fusion weights) live in the ranking package.
type Config struct {
	Env  string
	Port string

	// CorpusPath, NoteLinksPath and CalibrationPath locate the collaborator
	// inputs loaded at startup. NoteLinksPath and CalibrationPath may be
	// empty.
	CorpusPath      string
	NoteLinksPath   string
	CalibrationPath string

	// LexicalBackend selects "bm25" (in-process) or "meili".
	LexicalBackend string
	MeiliHost      string
	MeiliAPIKey    string
	MeiliIndex     string

	// DenseBackend selects "embedded" (in-process cosine) or "pgvector".
	DenseBackend string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string

	// EncoderBackend selects the query/chunk embedder: "hash" or "ollama".
	EncoderBackend string
	OllamaURL      string
	EmbeddingModel string

	// PairwiseBackend selects the judge scorer: "overlap" or "cross-encoder".
	PairwiseBackend  string
	RerankURL        string
	RerankModel      string
	RerankTimeoutSec int
	RerankMaxRPS     float64

	OTelEnabled bool
}

func Load() *Config {
	return &Config{
		Env:              getEnv("ENV", "development"),
		Port:             getEnv("PORT", "9030"),
		CorpusPath:       getEnv("CORPUS_PATH", "data/chunks.jsonl"),
		NoteLinksPath:    getEnv("NOTE_LINKS_PATH", ""),
		CalibrationPath:  getEnv("CALIBRATION_PATH", ""),
		LexicalBackend:   getEnv("LEXICAL_BACKEND", "bm25"),
		MeiliHost:        getEnv("MEILISEARCH_HOST", "http://meilisearch:7700"),
		MeiliAPIKey:      getSecret("MEILISEARCH_API_KEY", "MEILISEARCH_API_KEY_FILE", ""),
		MeiliIndex:       getEnv("MEILISEARCH_INDEX", "note_chunks"),
		DenseBackend:     getEnv("DENSE_BACKEND", "embedded"),
		DBHost:           getEnv("DB_HOST", "ranker-db"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "ranker_user"),
		DBPassword:       getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "ranker_password"),
		DBName:           getEnv("DB_NAME", "ranker_db"),
		EncoderBackend:   getEnv("ENCODER_BACKEND", "hash"),
		OllamaURL:        getEnvWithAlt("OLLAMA_URL", "OLLAMA_EXTERNAL_URL", "http://ollama:11434"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "embeddinggemma"),
		PairwiseBackend:  getEnv("PAIRWISE_BACKEND", "overlap"),
		RerankURL:        getEnv("RERANK_URL", "http://cross-encoder:8001"),
		RerankModel:      getEnv("RERANK_MODEL", "bge-reranker-v2-m3"),
		RerankTimeoutSec: getEnvInt("RERANK_TIMEOUT_SECONDS", 30),
		RerankMaxRPS:     getEnvFloat("RERANK_MAX_RPS", 0),
		OTelEnabled:      getEnv("OTEL_ENABLED", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	// 1. Try direct environment variable
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	// 2. Try reading from file specified by fileEnvKey
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
