package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/disease-map-service/internal/chart"
	"github.com/couchcryptid/disease-map-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DataSource is a local directory or an http(s) base URL holding the
	// dataset files and the boundary file.
	DataSource   string
	BoundaryFile string
	Catalog      domain.Catalog
	DefaultYear  int

	FetchTimeout   time.Duration
	FetchRetries   int
	FetchCacheSize int
	FetchCacheTTL  time.Duration

	AssetsDir      string
	MatrixRenderer string
	ColorPalette   string
	CORSOrigins    []string

	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaSummaryTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	fetchCacheTTL, err := parsePositiveDuration("FETCH_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	fetchRetries, err := parseNonNegativeInt("FETCH_RETRIES", 2)
	if err != nil {
		return nil, err
	}
	fetchCacheSize, err := parseNonNegativeInt("FETCH_CACHE_SIZE", 16)
	if err != nil {
		return nil, err
	}
	defaultYear, err := parseNonNegativeInt("DEFAULT_YEAR", 2019)
	if err != nil {
		return nil, err
	}
	if defaultYear == 0 {
		return nil, errors.New("DEFAULT_YEAR must be a positive year")
	}

	catalog, err := LoadCatalog(os.Getenv("DATASET_CATALOG"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataSource:   sharedcfg.EnvOrDefault("DATA_SOURCE", "./data"),
		BoundaryFile: sharedcfg.EnvOrDefault("BOUNDARY_FILE", "usa_states.geojson"),
		Catalog:      catalog,
		DefaultYear:  defaultYear,

		FetchTimeout:   fetchTimeout,
		FetchRetries:   fetchRetries,
		FetchCacheSize: fetchCacheSize,
		FetchCacheTTL:  fetchCacheTTL,

		AssetsDir:      os.Getenv("ASSETS_DIR"),
		MatrixRenderer: sharedcfg.EnvOrDefault("MATRIX_RENDERER", chart.RendererAuto),
		ColorPalette:   sharedcfg.EnvOrDefault("COLOR_PALETTE", domain.PaletteNameHeat),
		CORSOrigins:    parseList(os.Getenv("CORS_ALLOWED_ORIGINS")),

		KafkaEnabled:      os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSummaryTopic: sharedcfg.EnvOrDefault("KAFKA_SUMMARY_TOPIC", "dataset-summaries"),
	}

	switch cfg.MatrixRenderer {
	case chart.RendererAuto, chart.RendererMatrix, chart.RendererTable:
	default:
		return nil, fmt.Errorf("invalid MATRIX_RENDERER %q", cfg.MatrixRenderer)
	}
	if _, err := domain.ScaleNamed(cfg.ColorPalette); err != nil {
		return nil, fmt.Errorf("invalid COLOR_PALETTE: %w", err)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSummaryTopic == "" {
			return nil, errors.New("KAFKA_SUMMARY_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// LoadCatalog reads a YAML dataset list. An empty path yields the built-in
// catalog.
//
//	datasets:
//	  - id: HIV_data.xlsx
//	    name: HIV
//	    file: HIV_data.xlsx
func LoadCatalog(path string) (domain.Catalog, error) {
	if path == "" {
		return domain.DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read DATASET_CATALOG: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog document. Entries without
// a name use their id.
func ParseCatalog(data []byte) (domain.Catalog, error) {
	var doc struct {
		Datasets domain.Catalog `yaml:"datasets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse DATASET_CATALOG: %w", err)
	}
	for i := range doc.Datasets {
		if doc.Datasets[i].Name == "" {
			doc.Datasets[i].Name = doc.Datasets[i].ID
		}
	}
	if err := doc.Datasets.Validate(); err != nil {
		return nil, fmt.Errorf("invalid DATASET_CATALOG: %w", err)
	}
	return doc.Datasets, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
