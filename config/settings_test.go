package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_TOPIC", "")

	s, err := LoadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if s.LogLevel != "info" || s.KafkaTopic != "formpipe.runs" || s.DatabaseURL != "" || len(s.KafkaBrokers) != 0 {
		t.Errorf("defaults: %+v", s)
	}
}

func TestLoadSettings_EnvFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_TOPIC", "")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("KAFKA_BROKERS")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "LOG_LEVEL=debug\nDATABASE_URL=postgres://localhost/formpipe\nKAFKA_BROKERS=k1:9092, k2:9092,\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	// already-set variables win over the file
	if s.LogLevel != "warn" {
		t.Errorf("LogLevel: got %q", s.LogLevel)
	}
	if s.DatabaseURL != "postgres://localhost/formpipe" {
		t.Errorf("DatabaseURL: got %q", s.DatabaseURL)
	}
	if len(s.KafkaBrokers) != 2 || s.KafkaBrokers[0] != "k1:9092" || s.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("KafkaBrokers: got %v", s.KafkaBrokers)
	}
}

func TestLoadSettings_MissingExplicitFile(t *testing.T) {
	if _, err := LoadSettings(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("expected error for missing env file")
	}
}
