package config

import (
	"log"
	"os"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	AWSRegion       string
	DocumentsBucket string
	DocumentsTable  string

	MetadataStore string // dynamo | postgres | memory
	DatabaseURL   string

	BlobStore     string // s3 | local
	LocalStoreDir string

	OCRProvider string // textract | local
	LLMProvider string // bedrock | none
	LLMModelID  string

	ExtractQueueURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	table := getEnv("DOCUMENTS_TABLE", "DocuMindDocuments")
	store := normalizeMetadataStore(getEnv("METADATA_STORE", ""))

	if env == "production" && store == "memory" {
		log.Printf("METADATA_STORE=memory is not durable; set dynamo or postgres in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "*")),
		Env:             env,
		AWSRegion:       getEnv("AWS_REGION", ""),
		DocumentsBucket: getEnv("DOCUMENTS_BUCKET", "documind-documents"),
		DocumentsTable:  table,
		MetadataStore:   store,
		DatabaseURL:     dbURL,
		BlobStore:       normalizeBlobStore(getEnv("BLOB_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		OCRProvider:     normalizeOCRProvider(getEnv("OCR_PROVIDER", "local")),
		LLMProvider:     normalizeLLMProvider(getEnv("LLM_PROVIDER", "none")),
		LLMModelID:      getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),
		ExtractQueueURL: getEnv("EXTRACT_QUEUE_URL", ""),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeMetadataStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "dynamo", "dynamodb":
		return "dynamo"
	case "postgres", "pg":
		return "postgres"
	case "memory":
		return "memory"
	default:
		return "memory"
	}
}

func normalizeBlobStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeOCRProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "textract":
		return "textract"
	default:
		return "local"
	}
}

func normalizeLLMProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bedrock":
		return "bedrock"
	default:
		return "none"
	}
}
