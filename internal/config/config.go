// Package config provides configuration management for the Clipframe Agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8790
	DefaultLogLevel = "info"
	DefaultDataDir  = ".clipframe"

	// Environment variable names
	EnvPort     = "CLIPFRAME_PORT"
	EnvLogLevel = "CLIPFRAME_LOG_LEVEL"
	EnvDataDir  = "CLIPFRAME_DATA_DIR"

	// Editor environment variable names
	EnvFPS               = "CLIPFRAME_FPS"
	EnvProjectID         = "CLIPFRAME_PROJECT_ID"
	EnvAutosaveIntervalS = "CLIPFRAME_AUTOSAVE_INTERVAL_S"

	// Render farm environment variable names
	EnvFarmURL       = "CLIPFRAME_FARM_URL"
	EnvFarmToken     = "CLIPFRAME_FARM_TOKEN"
	EnvCompositionID = "CLIPFRAME_COMPOSITION_ID"
	EnvSiteSrc       = "CLIPFRAME_SITE_SRC"
	EnvRenderPollMs  = "CLIPFRAME_RENDER_POLL_MS"
	EnvRenderDelayMs = "CLIPFRAME_RENDER_INITIAL_DELAY_MS"

	// Database filename
	DBFilename = "clipframe.db"

	// Editor defaults
	DefaultFPS               = 30
	DefaultProjectID         = "default-project"
	DefaultAutosaveIntervalS = 10

	// Render defaults
	DefaultCompositionID = "TimelineComposition"
	DefaultSiteSrc       = "clipframe-editor"
	DefaultRenderPollMs  = 1000
	DefaultRenderDelayMs = 0
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	FPS() int
	ProjectID() string
	AutosaveInterval() time.Duration
	FarmURL() string
	FarmToken() string
	CompositionID() string
	SiteSrc() string
	RenderPollInterval() time.Duration
	RenderInitialDelay() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string

	fps               int
	projectID         string
	autosaveIntervalS int

	farmURL       string
	farmToken     string
	compositionID string
	siteSrc       string
	renderPollMs  int
	renderDelayMs int
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:              DefaultPort,
		logLevel:          DefaultLogLevel,
		dataDir:           defaultDataDir(),
		fps:               DefaultFPS,
		projectID:         DefaultProjectID,
		autosaveIntervalS: DefaultAutosaveIntervalS,
		compositionID:     DefaultCompositionID,
		siteSrc:           DefaultSiteSrc,
		renderPollMs:      DefaultRenderPollMs,
		renderDelayMs:     DefaultRenderDelayMs,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if f := os.Getenv(EnvFPS); f != "" {
		fps, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvFPS, err)
		}
		if fps < 1 || fps > 240 {
			return nil, fmt.Errorf("invalid %s: fps must be between 1 and 240", EnvFPS)
		}
		cfg.fps = fps
	}

	if pid := os.Getenv(EnvProjectID); pid != "" {
		cfg.projectID = pid
	}

	if s := os.Getenv(EnvAutosaveIntervalS); s != "" {
		secs, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvAutosaveIntervalS, err)
		}
		if secs < 1 {
			return nil, fmt.Errorf("invalid %s: interval must be at least 1 second", EnvAutosaveIntervalS)
		}
		cfg.autosaveIntervalS = secs
	}

	cfg.farmURL = os.Getenv(EnvFarmURL)
	cfg.farmToken = os.Getenv(EnvFarmToken)

	if cid := os.Getenv(EnvCompositionID); cid != "" {
		cfg.compositionID = cid
	}

	if src := os.Getenv(EnvSiteSrc); src != "" {
		cfg.siteSrc = src
	}

	if ms := os.Getenv(EnvRenderPollMs); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvRenderPollMs, err)
		}
		if v < 100 {
			return nil, fmt.Errorf("invalid %s: poll interval must be at least 100ms", EnvRenderPollMs)
		}
		cfg.renderPollMs = v
	}

	if ms := os.Getenv(EnvRenderDelayMs); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvRenderDelayMs, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("invalid %s: delay must not be negative", EnvRenderDelayMs)
		}
		cfg.renderDelayMs = v
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// FPS returns the timeline frame rate
func (c *EnvConfig) FPS() int {
	return c.fps
}

// ProjectID returns the project the agent session belongs to
func (c *EnvConfig) ProjectID() string {
	return c.projectID
}

// AutosaveInterval returns the period between autosave ticks
func (c *EnvConfig) AutosaveInterval() time.Duration {
	return time.Duration(c.autosaveIntervalS) * time.Second
}

func (c *EnvConfig) FarmURL() string {
	return c.farmURL
}

func (c *EnvConfig) FarmToken() string {
	return c.farmToken
}

func (c *EnvConfig) CompositionID() string {
	return c.compositionID
}

func (c *EnvConfig) SiteSrc() string {
	return c.siteSrc
}

func (c *EnvConfig) RenderPollInterval() time.Duration {
	return time.Duration(c.renderPollMs) * time.Millisecond
}

func (c *EnvConfig) RenderInitialDelay() time.Duration {
	return time.Duration(c.renderDelayMs) * time.Millisecond
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
