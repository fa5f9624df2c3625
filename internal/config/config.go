// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the history database and report snapshots
	LogLevel string
	Pretty   bool // Pretty console logging (default on; this is an interactive tool)

	Allocation AllocationDefaults
	Simulation SimulationDefaults
}

// AllocationDefaults carries the constraint parameters used when the
// corresponding CLI flags are not given. The values mirror the hand-tuned
// defaults from the decision logs.
type AllocationDefaults struct {
	MinPosition float64 // Positions below this fraction are zeroed out
	MaxPosition float64 // Positions above this fraction are capped
	MaxSector   float64 // Combined weight ceiling per sector
	ShortWindow int     // Trading days (~3 months)
	LongWindow  int     // Trading days (~6 months)
	ShortWeight float64 // Blend weight of the short-window momentum
	Capital     float64 // Total capital to allocate, USD
}

// SimulationDefaults carries the Monte Carlo parameters used when the
// corresponding CLI flags are not given.
type SimulationDefaults struct {
	BlockLength int   // Trading days per sampled block
	Horizon     int   // Trading days to simulate (~3 months)
	Paths       int   // Number of simulated paths
	Seed        int64 // RNG seed; fixed so reruns are comparable
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("SORTINO_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sortino")
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Pretty:   getEnvAsBool("LOG_PRETTY", true),
		Allocation: AllocationDefaults{
			MinPosition: getEnvAsFloat("SORTINO_MIN_POSITION", 0.05),
			MaxPosition: getEnvAsFloat("SORTINO_MAX_POSITION", 0.30),
			MaxSector:   getEnvAsFloat("SORTINO_MAX_SECTOR", 0.33),
			ShortWindow: getEnvAsInt("SORTINO_SHORT_WINDOW", 63),
			LongWindow:  getEnvAsInt("SORTINO_LONG_WINDOW", 126),
			ShortWeight: getEnvAsFloat("SORTINO_SHORT_WEIGHT", 0.5),
			Capital:     getEnvAsFloat("SORTINO_CAPITAL", 60_000),
		},
		Simulation: SimulationDefaults{
			BlockLength: getEnvAsInt("SORTINO_BLOCK_LENGTH", 5),
			Horizon:     getEnvAsInt("SORTINO_HORIZON", 63),
			Paths:       getEnvAsInt("SORTINO_PATHS", 10_000),
			Seed:        int64(getEnvAsInt("SORTINO_SEED", 42)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configured defaults are internally consistent.
func (c *Config) Validate() error {
	a := c.Allocation
	if a.MinPosition < 0 || a.MinPosition >= 1 {
		return fmt.Errorf("min position must be in [0,1): got %v", a.MinPosition)
	}
	if a.MaxPosition <= 0 || a.MaxPosition > 1 {
		return fmt.Errorf("max position must be in (0,1]: got %v", a.MaxPosition)
	}
	if a.MinPosition > a.MaxPosition {
		return fmt.Errorf("min position %v exceeds max position %v", a.MinPosition, a.MaxPosition)
	}
	if a.MaxSector <= 0 || a.MaxSector > 1 {
		return fmt.Errorf("max sector must be in (0,1]: got %v", a.MaxSector)
	}
	if a.ShortWindow <= 0 || a.LongWindow <= 0 {
		return fmt.Errorf("lookback windows must be positive: got %d/%d", a.ShortWindow, a.LongWindow)
	}
	if a.ShortWeight < 0 || a.ShortWeight > 1 {
		return fmt.Errorf("short momentum weight must be in [0,1]: got %v", a.ShortWeight)
	}

	s := c.Simulation
	if s.BlockLength <= 0 || s.Horizon <= 0 || s.Paths <= 0 {
		return fmt.Errorf("simulation parameters must be positive: block=%d horizon=%d paths=%d",
			s.BlockLength, s.Horizon, s.Paths)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
