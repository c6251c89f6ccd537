package ftl

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration constants from the core spec §6.4.
const (
	// DefaultGCThreshold is the free-page ratio below which soft GC
	// triggers (GC_THRESHOLD).
	DefaultGCThreshold = 0.9995

	// DefaultGCRatio is the fraction of the dirty list reclaimed per soft
	// GC, rounded up to at least one segment (GC_RATIO).
	DefaultGCRatio = 0.10

	// GCRatioAll forces a full reclaim of every dirty segment.
	GCRatioAll = 1.0
)

// Config configures an FTL instance. Construct with DefaultConfig and
// override fields, or decode one from YAML with LoadConfigYAML — the same
// two-path convention the teacher uses for PagerConfig / StorageConfig
// (programmatic default plus an operator-editable file).
type Config struct {
	// GCThreshold is the free-page ratio below which the background
	// scheduler's soft GC sweep runs. Ignored by forced GC.
	GCThreshold float64 `yaml:"gc_threshold"`

	// GCRatio is the fraction of the dirty list a soft GC pass reclaims.
	GCRatio float64 `yaml:"gc_ratio"`

	// BackgroundGCInterval is how often the background scheduler checks
	// whether a soft GC sweep is due. Zero disables the background
	// scheduler entirely (no soft GC runs; GC then only runs as a forced
	// pass when the write path exhausts free pages, or via an explicit
	// Trim call).
	BackgroundGCInterval time.Duration `yaml:"background_gc_interval"`

	// Logger receives FTL diagnostics (migration read failures, erase
	// failures, background soft-GC results and failures, an invalid
	// scheduler interval). GC start and soft-GC skips are not logged.
	// Defaults to log.Default().
	Logger *log.Logger `yaml:"-"`
}

// DefaultConfig returns the core spec's default constants.
func DefaultConfig() Config {
	return Config{
		GCThreshold:          DefaultGCThreshold,
		GCRatio:              DefaultGCRatio,
		BackgroundGCInterval: 5 * time.Second,
		Logger:               log.Default(),
	}
}

// LoadConfigYAML reads a YAML config file and overlays it onto
// DefaultConfig, so a file only needs to mention the fields it overrides.
func LoadConfigYAML(path string) (Config, error) {
	cfg := DefaultConfig()
	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("ftl: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("ftl: parse config %s: %w", path, err)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.GCThreshold <= 0 || c.GCThreshold > 1 {
		return fmt.Errorf("ftl: gc_threshold %v out of range (0,1]", c.GCThreshold)
	}
	if c.GCRatio <= 0 || c.GCRatio > 1 {
		return fmt.Errorf("ftl: gc_ratio %v out of range (0,1]", c.GCRatio)
	}
	return nil
}
