package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Settings are the process-level settings of the formpipe CLI.
type Settings struct {
	LogLevel     string   // LOG_LEVEL, default "info"
	DatabaseURL  string   // DATABASE_URL; empty disables the Postgres run log
	KafkaBrokers []string // KAFKA_BROKERS, comma separated; empty disables run events
	KafkaTopic   string   // KAFKA_TOPIC, default "formpipe.runs"
}

const (
	defaultLogLevel   = "info"
	defaultKafkaTopic = "formpipe.runs"
)

// LoadSettings reads Settings from the environment after loading the given
// .env files (".env" when none are given). Variables already set in the
// environment win over the files. A missing default .env file is not an error.
func LoadSettings(envFiles ...string) (Settings, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Settings{}, fmt.Errorf("load env files: %w", err)
	}

	s := Settings{
		LogLevel:    getenv("LOG_LEVEL", defaultLogLevel),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		KafkaTopic:  getenv("KAFKA_TOPIC", defaultKafkaTopic),
	}
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			s.KafkaBrokers = append(s.KafkaBrokers, b)
		}
	}
	return s, nil
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
