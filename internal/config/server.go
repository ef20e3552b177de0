package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type StoreKind string

const (
	StoreMemory   StoreKind = "memory"
	StoreSQLite   StoreKind = "sqlite"
	StorePostgres StoreKind = "postgres"
)

// Server holds process-level options read from the environment.
type Server struct {
	Addr        string
	StagePath   string
	Store       StoreKind
	SQLitePath  string
	DatabaseURL string
	TickHz      int
	Env         string
}

// FromEnv loads .env files if present, then reads LOBBY_* variables.
// Missing .env files are fine; variables already set win.
func FromEnv(files ...string) (Server, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return Server{}, fmt.Errorf("load %s: %w", f, err)
			}
		}
	}

	s := Server{
		Addr:        getenv("LOBBY_ADDR", ":8080"),
		StagePath:   os.Getenv("LOBBY_CONFIG"),
		Store:       StoreKind(getenv("LOBBY_STORE", string(StoreMemory))),
		SQLitePath:  getenv("LOBBY_SQLITE_PATH", "data/lobby.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		TickHz:      60,
		Env:         getenv("LOBBY_ENV", "production"),
	}
	if v := os.Getenv("LOBBY_TICK_HZ"); v != "" {
		hz, err := strconv.Atoi(v)
		if err != nil || hz <= 0 {
			return s, fmt.Errorf("%w: LOBBY_TICK_HZ must be a positive integer, got %q", ErrInvalidConfig, v)
		}
		s.TickHz = hz
	}

	switch s.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if s.DatabaseURL == "" {
			return s, fmt.Errorf("%w: DATABASE_URL is required for LOBBY_STORE=postgres", ErrInvalidConfig)
		}
	default:
		return s, fmt.Errorf("%w: unknown LOBBY_STORE %q", ErrInvalidConfig, s.Store)
	}
	return s, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
