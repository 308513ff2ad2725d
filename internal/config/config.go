// Package config loads service configuration from defaults, an optional YAML
// file and ASKDOC_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when ASKDOC_CONFIG is not set.
const DefaultPath = "config.yaml"

// Storage drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig selects where documents and raw uploads are kept.
type StorageConfig struct {
	Driver      string        `yaml:"driver"`
	SQLitePath  string        `yaml:"sqlite_path"`
	UploadDir   string        `yaml:"upload_dir"`
	DocumentTTL time.Duration `yaml:"document_ttl"`
}

// UploadConfig bounds uploads.
type UploadConfig struct {
	MaxSize int64 `yaml:"max_size"`
}

// SearchConfig holds relevance search defaults.
type SearchConfig struct {
	TopK          int     `yaml:"top_k"`
	ContextWindow int     `yaml:"context_window"`
	MinSimilarity float64 `yaml:"min_similarity"`
	MaxFeatures   int     `yaml:"max_features"`
	MinDF         int     `yaml:"min_df"`
	MaxDF         float64 `yaml:"max_df"`
}

// ExtractConfig holds paragraph length thresholds.
type ExtractConfig struct {
	MinPDFParagraph int `yaml:"min_pdf_paragraph"`
	MinParagraph    int `yaml:"min_paragraph"`
}

// TitleConfig configures title derivation.
type TitleConfig struct {
	MaxLength int `yaml:"max_length"`
}

// RateLimitConfig limits requests per client IP. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// WatchConfig enables directory ingestion when Dir is set.
type WatchConfig struct {
	Dir         string        `yaml:"dir"`
	Debounce    time.Duration `yaml:"debounce"`
	InitialScan bool          `yaml:"initial_scan"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CORS      CORSConfig      `yaml:"cors"`
	Storage   StorageConfig   `yaml:"storage"`
	Upload    UploadConfig    `yaml:"upload"`
	Search    SearchConfig    `yaml:"search"`
	Extract   ExtractConfig   `yaml:"extract"`
	Title     TitleConfig     `yaml:"title"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Watch     WatchConfig     `yaml:"watch"`
	Log       LogConfig       `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
		Storage: StorageConfig{
			Driver:     DriverMemory,
			SQLitePath: "askdoc.db",
			UploadDir:  "uploads",
		},
		Upload: UploadConfig{MaxSize: 50 << 20},
		Search: SearchConfig{
			TopK:          5,
			ContextWindow: 5,
			MinSimilarity: 0.1,
			MaxFeatures:   1000,
			MinDF:         1,
			MaxDF:         0.8,
		},
		Extract: ExtractConfig{
			MinPDFParagraph: 20,
			MinParagraph:    10,
		},
		Title:     TitleConfig{MaxLength: 100},
		RateLimit: RateLimitConfig{RPS: 10, Burst: 20},
		Watch:     WatchConfig{Debounce: 500 * time.Millisecond, InitialScan: true},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads .env (if present), then the file named by ASKDOC_CONFIG or
// config.yaml, then environment overrides. An explicitly named config file
// must exist.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	path, explicit := os.LookupEnv("ASKDOC_CONFIG")
	if !explicit || path == "" {
		return LoadFrom(DefaultPath, false)
	}
	return LoadFrom(path, true)
}

// LoadFrom reads the YAML file at path over the defaults and applies
// environment overrides. A missing file is an error only when required.
func LoadFrom(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	str("ASKDOC_ADDR", &c.Server.Addr)
	str("ASKDOC_STORAGE", &c.Storage.Driver)
	str("ASKDOC_SQLITE_PATH", &c.Storage.SQLitePath)
	str("ASKDOC_UPLOAD_DIR", &c.Storage.UploadDir)
	str("ASKDOC_WATCH_DIR", &c.Watch.Dir)
	str("ASKDOC_LOG_LEVEL", &c.Log.Level)

	if v := os.Getenv("ASKDOC_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowedOrigins = origins
	}
	if v := os.Getenv("ASKDOC_DOCUMENT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ASKDOC_DOCUMENT_TTL: %w", err)
		}
		c.Storage.DocumentTTL = d
	}
	if v := os.Getenv("ASKDOC_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ASKDOC_MAX_UPLOAD_BYTES: %w", err)
		}
		c.Upload.MaxSize = n
	}
	if v := os.Getenv("ASKDOC_LOG_DEV"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ASKDOC_LOG_DEV: %w", err)
		}
		c.Log.Development = b
	}
	return nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}
	if c.Search.TopK <= 0 {
		errs = append(errs, errors.New("search.top_k must be positive"))
	}
	if c.Search.ContextWindow < 0 {
		errs = append(errs, errors.New("search.context_window must not be negative"))
	}
	if c.Search.MaxDF <= 0 || c.Search.MaxDF > 1 {
		errs = append(errs, errors.New("search.max_df must be in (0, 1]"))
	}
	if c.Title.MaxLength <= 0 {
		errs = append(errs, errors.New("title.max_length must be positive"))
	}
	if c.Watch.Dir != "" {
		inside, err := Within(c.Watch.Dir, c.Storage.UploadDir)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("watch.dir: %w", err))
		case inside:
			errs = append(errs, errors.New("watch.dir must not contain storage.upload_dir"))
		}
	}

	return errors.Join(errs...)
}

// Within reports whether path is root or lies below it, comparing absolute
// paths.
func Within(root, path string) (bool, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}
