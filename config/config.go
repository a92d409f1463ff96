// Package config reads FlowDAG's process-level settings from the
// environment, optionally populated from a .env file the way
// leofalp/aigo's examples load provider credentials.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// StateBackend selects which state.Store implementation a process
// constructs at startup.
type StateBackend string

const (
	StateBackendMem    StateBackend = "MEM"
	StateBackendSQLite StateBackend = "SQLITE"
)

// Config is the full set of environment-derived settings a coordinator or
// worker process needs to start.
type Config struct {
	// CoordinatorURI is the address a worker dials to reach its
	// coordinator, or the address a coordinator process binds for
	// worker-facing control RPCs.
	CoordinatorURI string

	// StateBackend picks the state.Store a coordinator persists dataflows
	// and a worker persists operator checkpoints to.
	StateBackend StateBackend

	// SQLitePath is the database file StateBackendSQLite opens. Ignored
	// for StateBackendMem.
	SQLitePath string
}

// Load reads COORDINATOR_URI, STATE_MANAGER and SQLITE_PATH (default
// "flowdag.db") from the environment. If a
// .env file is present in the working directory it is loaded first, and
// its values are only applied where the corresponding environment
// variable is not already set. A missing .env file is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}

	uri := os.Getenv("COORDINATOR_URI")
	if uri == "" {
		return Config{}, fmt.Errorf("config: COORDINATOR_URI is required")
	}

	backend := StateBackend(os.Getenv("STATE_MANAGER"))
	switch backend {
	case StateBackendMem, StateBackendSQLite:
	case "":
		backend = StateBackendMem
	default:
		return Config{}, fmt.Errorf("config: unrecognized STATE_MANAGER %q", backend)
	}

	path := os.Getenv("SQLITE_PATH")
	if path == "" {
		path = "flowdag.db"
	}

	return Config{
		CoordinatorURI: uri,
		StateBackend:   backend,
		SQLitePath:     path,
	}, nil
}
