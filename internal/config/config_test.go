package config

import "testing"

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"MONGODB_URI", "MONGO_DB", "MONGO_COLLECTION", "API_KEY", "PORT"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("MongoURI = %q", cfg.MongoURI)
	}
	if cfg.Database != "financial" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.Collection != "transactions" {
		t.Errorf("Collection = %q", cfg.Collection)
	}
	if cfg.APIKey != "dev-key" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("MONGO_DB", "prod")
	t.Setenv("MONGO_COLLECTION", "tx")
	t.Setenv("API_KEY", "s3cret")
	t.Setenv("PORT", "9090")

	cfg := FromEnv()

	if cfg.MongoURI != "mongodb://db:27017" || cfg.Database != "prod" ||
		cfg.Collection != "tx" || cfg.APIKey != "s3cret" || cfg.Port != "9090" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}
