package config

import "os"

// Config carries the environment-provided settings shared by the API server
// and the offline ingest CLI.
type Config struct {
	MongoURI   string // MONGODB_URI
	Database   string // MONGO_DB
	Collection string // MONGO_COLLECTION
	APIKey     string // API_KEY, the shared secret checked on write endpoints
	Port       string // PORT
}

// FromEnv reads configuration from the environment, falling back to
// development defaults.
func FromEnv() Config {
	return Config{
		MongoURI:   envOr("MONGODB_URI", "mongodb://localhost:27017"),
		Database:   envOr("MONGO_DB", "financial"),
		Collection: envOr("MONGO_COLLECTION", "transactions"),
		APIKey:     envOr("API_KEY", "dev-key"),
		Port:       envOr("PORT", "8080"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
