package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIAddr             string
	PostgresURL         string
	GoogleBooksBaseURL  string
	GoogleBooksAPIKey   string
	UseGoogleBooks      bool
	OpenLibraryBaseURL  string
	CatalogTimeoutSecs  int
	LLMProviders        string
	EmbedProviders      string
	EmbedDim            int
	GenTemperature      float64
	GenMaxTokens        int
	ChatRetryLimit      int
	ChatCandidateFields int
}

func Load() Config {
	return Config{
		APIAddr:             getenv("LIRIA_API_ADDR", ":8080"),
		PostgresURL:         getenv("LIRIA_POSTGRES_URL", ""),
		GoogleBooksBaseURL:  getenv("LIRIA_GOOGLE_BOOKS_URL", "https://www.googleapis.com/books/v1/volumes"),
		GoogleBooksAPIKey:   getenv("GOOGLE_BOOKS_API_KEY", ""),
		UseGoogleBooks:      getenvBool("LIRIA_USE_GOOGLE_BOOKS", true),
		OpenLibraryBaseURL:  getenv("LIRIA_OPEN_LIBRARY_URL", "https://openlibrary.org/search.json"),
		CatalogTimeoutSecs:  getenvInt("LIRIA_CATALOG_TIMEOUT_SECONDS", 10),
		LLMProviders:        getenv("LIRIA_LLM_PROVIDERS", "mock"),
		EmbedProviders:      getenv("LIRIA_EMBED_PROVIDERS", "mock"),
		EmbedDim:            getenvInt("LIRIA_EMBED_DIM", 1536),
		GenTemperature:      getenvFloat("LIRIA_GEN_TEMPERATURE", 0.4),
		GenMaxTokens:        getenvInt("LIRIA_GEN_MAX_TOKENS", 450),
		ChatRetryLimit:      getenvInt("LIRIA_CHAT_RETRY_LIMIT", 3),
		ChatCandidateFields: getenvInt("LIRIA_CHAT_CANDIDATE_FIELDS", 3),
	}
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(k string, fallback bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
