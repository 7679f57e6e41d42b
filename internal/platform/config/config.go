package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	defaultEnvFile              = ".env"
	defaultLogLevel             = "info"
	defaultStockQuantity        = 10
	defaultMinimumPrice         = "0.01"
	defaultStockStatus          = "in_stock"
	defaultSKUTokenLimit        = 15
	defaultTempMediaPrefix      = "temp_"
	defaultAutoSelectCategories = true
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Log     LogConfig
	Sources SourceConfig
	Engine  EngineConfig
	Editor  EditorConfig
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string
}

// SourceConfig points at the fixture files backing the catalog and category tree.
type SourceConfig struct {
	CatalogFile  string
	CategoryFile string
}

// EngineConfig holds the defaults applied to newly generated combinations.
type EngineConfig struct {
	DefaultStockQuantity int
	MinimumPrice         decimal.Decimal
	DefaultStockStatus   string
	SKUTokenLimit        int
}

// EditorConfig toggles session behaviour.
type EditorConfig struct {
	TempMediaPrefix      string
	AutoSelectCategories bool
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, .env overrides, environment variables and
// the explicit env map, in increasing order of precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	p := parser{lookup: lookup}
	cfg := Config{
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "EDITOR_LOG_LEVEL", defaultLogLevel)),
		},
		Sources: SourceConfig{
			CatalogFile:  stringWithDefault(lookup, "EDITOR_CATALOG_FILE", ""),
			CategoryFile: stringWithDefault(lookup, "EDITOR_CATEGORY_FILE", ""),
		},
		Engine: EngineConfig{
			DefaultStockQuantity: p.intValue("Engine.DefaultStockQuantity", "EDITOR_DEFAULT_STOCK_QUANTITY", defaultStockQuantity),
			MinimumPrice:         p.decimalValue("Engine.MinimumPrice", "EDITOR_MINIMUM_PRICE", defaultMinimumPrice),
			DefaultStockStatus:   strings.ToLower(stringWithDefault(lookup, "EDITOR_DEFAULT_STOCK_STATUS", defaultStockStatus)),
			SKUTokenLimit:        p.intValue("Engine.SKUTokenLimit", "EDITOR_SKU_TOKEN_LIMIT", defaultSKUTokenLimit),
		},
		Editor: EditorConfig{
			TempMediaPrefix:      stringWithDefault(lookup, "EDITOR_TEMP_MEDIA_PREFIX", defaultTempMediaPrefix),
			AutoSelectCategories: p.boolValue("Editor.AutoSelectCategories", "EDITOR_AUTO_SELECT_CATEGORIES", defaultAutoSelectCategories),
		},
	}

	if err := validateConfig(cfg, p.invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config, invalid []string) error {
	fields := append([]string(nil), invalid...)

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error", "dpanic", "panic", "fatal":
	default:
		fields = append(fields, "Log.Level")
	}
	if cfg.Engine.DefaultStockQuantity < 0 {
		fields = append(fields, "Engine.DefaultStockQuantity")
	}
	if !cfg.Engine.MinimumPrice.IsPositive() {
		fields = append(fields, "Engine.MinimumPrice")
	}
	switch cfg.Engine.DefaultStockStatus {
	case "in_stock", "out_of_stock", "low_stock", "backorder":
	default:
		fields = append(fields, "Engine.DefaultStockStatus")
	}
	if cfg.Engine.SKUTokenLimit <= 0 {
		fields = append(fields, "Engine.SKUTokenLimit")
	}
	if strings.TrimSpace(cfg.Editor.TempMediaPrefix) == "" {
		fields = append(fields, "Editor.TempMediaPrefix")
	}

	if len(fields) > 0 {
		return &ValidationError{fields: dedupe(fields)}
	}
	return nil
}

func dedupe(fields []string) []string {
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, field := range fields {
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return out
}

// loadDotEnv reads local overrides. A missing file is not an error.
func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	values, err := godotenv.Read(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

// parser records the fields whose raw values could not be parsed instead of silently falling
// back to defaults.
type parser struct {
	lookup  func(string) (string, bool)
	invalid []string
}

func (p *parser) raw(key string) (string, bool) {
	value, ok := p.lookup(key)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func (p *parser) intValue(field, key string, fallback int) int {
	value, ok := p.raw(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		p.invalid = append(p.invalid, field)
		return fallback
	}
	return parsed
}

func (p *parser) decimalValue(field, key, fallback string) decimal.Decimal {
	value, ok := p.raw(key)
	if !ok {
		value = fallback
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		p.invalid = append(p.invalid, field)
		return decimal.RequireFromString(fallback)
	}
	return parsed
}

func (p *parser) boolValue(field, key string, fallback bool) bool {
	value, ok := p.raw(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	p.invalid = append(p.invalid, field)
	return fallback
}
