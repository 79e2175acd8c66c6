package common

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/quizgen/constants"
)

// Config holds all application configuration
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Staging    StagingConfig    `yaml:"staging"`
	Queue      QueueConfig      `yaml:"queue"`
	LLM        LLMConfig        `yaml:"llm"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	// URL is a postgres:// URL or a sqlite file path.
	URL              string        `yaml:"url"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCAddr        string        `yaml:"grpc_addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ExtractionConfig holds the document extraction pipeline configuration
type ExtractionConfig struct {
	OCREnabled           bool                           `yaml:"ocr_enabled"`
	OCRLanguage          string                         `yaml:"ocr_language"`
	RenderResolution     int                            `yaml:"render_resolution"`
	OCREngine            string                         `yaml:"ocr_engine"`
	OCRPoolSize          int                            `yaml:"ocr_pool_size"`
	OCRMinConfidence     float64                        `yaml:"ocr_min_confidence"`
	OCRUnavailablePolicy constants.OCRUnavailablePolicy `yaml:"ocr_unavailable_policy"`
	TextBackend          string                         `yaml:"text_backend"`
	PageTimeout          time.Duration                  `yaml:"page_timeout"`
	MaxPages             int                            `yaml:"max_pages"`
	Pdftotext            string                         `yaml:"pdftotext"`
	Pdftoppm             string                         `yaml:"pdftoppm"`
	Tesseract            string                         `yaml:"tesseract"`
	TessdataDir          string                         `yaml:"tessdata_dir"`
	PSM                  int                            `yaml:"psm"`
	OEM                  int                            `yaml:"oem"`
}

// StagingConfig holds upload staging and retention configuration
type StagingConfig struct {
	Dir           string        `yaml:"dir"`
	Retention     string        `yaml:"retention"`
	RetainFor     time.Duration `yaml:"retain_for"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	ArchiveBucket string        `yaml:"archive_bucket"`
	WatchDir      string        `yaml:"watch_dir"`
}

// QueueConfig holds the background processing queue configuration
type QueueConfig struct {
	Workers        int           `yaml:"workers"`
	Size           int           `yaml:"size"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Temperature       float32       `yaml:"temperature"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	VertexProject     string        `yaml:"vertex_project"`
	VertexRegion      string        `yaml:"vertex_region"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Database: DatabaseConfig{
			URL:             "quizgen.db",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			HTTPAddr:        ":8088",
			GRPCAddr:        ":8089",
			AllowedOrigins:  []string{"*"},
			MaxUploadBytes:  32 << 20,
			ShutdownTimeout: 15 * time.Second,
		},
		Extraction: ExtractionConfig{
			OCREnabled:           true,
			OCRLanguage:          "en",
			RenderResolution:     200,
			OCREngine:            constants.OCREngineTesseract,
			OCRPoolSize:          runtime.NumCPU(),
			OCRUnavailablePolicy: constants.OCRUnavailableDegrade,
			TextBackend:          constants.TextBackendPdftotext,
			Pdftotext:            "pdftotext",
			Pdftoppm:             "pdftoppm",
			Tesseract:            "tesseract",
		},
		Staging: StagingConfig{
			Dir:           "uploads",
			Retention:     constants.RetentionDelete,
			RetainFor:     24 * time.Hour,
			SweepInterval: time.Hour,
		},
		Queue: QueueConfig{
			Workers:        2,
			Size:           64,
			ProcessTimeout: 10 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:     constants.LLMProviderMock,
			Model:        "gpt-4o-mini",
			BaseURL:      "https://api.openai.com/v1",
			Temperature:  0.2,
			Timeout:      60 * time.Second,
			VertexRegion: "us-central1",
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file named by
// QUIZGEN_CONFIG, and environment variables, in that order of precedence.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("QUIZGEN_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("CONFIG_ERROR", "read config file", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.AllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", c.Server.AllowedOrigins)
	c.Server.MaxUploadBytes = getEnvAsInt64("MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes)
	c.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	e := &c.Extraction
	e.OCREnabled = getEnvAsBool("OCR_ENABLED", e.OCREnabled)
	e.OCRLanguage = getEnv("OCR_LANGUAGE", e.OCRLanguage)
	e.RenderResolution = getEnvAsInt("RENDER_RESOLUTION", e.RenderResolution)
	e.OCREngine = getEnv("OCR_ENGINE", e.OCREngine)
	e.OCRPoolSize = getEnvAsInt("OCR_POOL_SIZE", e.OCRPoolSize)
	e.OCRMinConfidence = getEnvAsFloat64("OCR_MIN_CONFIDENCE", e.OCRMinConfidence)
	e.OCRUnavailablePolicy = constants.OCRUnavailablePolicy(getEnv("OCR_UNAVAILABLE_POLICY", string(e.OCRUnavailablePolicy)))
	e.TextBackend = getEnv("TEXT_BACKEND", e.TextBackend)
	e.PageTimeout = getEnvAsDuration("PAGE_TIMEOUT", e.PageTimeout)
	e.MaxPages = getEnvAsInt("MAX_PAGES", e.MaxPages)
	e.Pdftotext = getEnv("PDFTOTEXT_PATH", e.Pdftotext)
	e.Pdftoppm = getEnv("PDFTOPPM_PATH", e.Pdftoppm)
	e.Tesseract = getEnv("TESSERACT_PATH", e.Tesseract)
	e.TessdataDir = getEnv("TESSDATA_DIR", e.TessdataDir)
	e.PSM = getEnvAsInt("TESSERACT_PSM", e.PSM)
	e.OEM = getEnvAsInt("TESSERACT_OEM", e.OEM)

	c.Staging.Dir = getEnv("UPLOAD_DIR", c.Staging.Dir)
	c.Staging.Retention = getEnv("UPLOAD_RETENTION", c.Staging.Retention)
	c.Staging.RetainFor = getEnvAsDuration("UPLOAD_RETAIN_FOR", c.Staging.RetainFor)
	c.Staging.SweepInterval = getEnvAsDuration("UPLOAD_SWEEP_INTERVAL", c.Staging.SweepInterval)
	c.Staging.ArchiveBucket = getEnv("UPLOAD_ARCHIVE_BUCKET", c.Staging.ArchiveBucket)
	c.Staging.WatchDir = getEnv("WATCH_DIR", c.Staging.WatchDir)

	c.Queue.Workers = getEnvAsInt("QUEUE_WORKERS", c.Queue.Workers)
	c.Queue.Size = getEnvAsInt("QUEUE_SIZE", c.Queue.Size)
	c.Queue.ProcessTimeout = getEnvAsDuration("QUEUE_PROCESS_TIMEOUT", c.Queue.ProcessTimeout)

	c.LLM.Provider = getEnv("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Temperature = getEnvAsFloat32("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.RequestsPerMinute = getEnvAsInt("LLM_RPM", c.LLM.RequestsPerMinute)
	c.LLM.VertexProject = getEnv("VERTEX_PROJECT", c.LLM.VertexProject)
	c.LLM.VertexRegion = getEnv("VERTEX_REGION", c.LLM.VertexRegion)
}

// Helper functions for environment variable parsing
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration and reports every problem at once.
func (c *Config) Validate() error {
	e := c.Extraction
	v := NewValidator().
		Field("HTTP_ADDR", c.Server.HTTPAddr, Required).
		Field("DATABASE_URL", c.Database.URL, Required).
		Field("RENDER_RESOLUTION", e.RenderResolution, IntRange(50, 600)).
		Field("OCR_LANGUAGE", e.OCRLanguage, Required).
		Field("OCR_POOL_SIZE", e.OCRPoolSize, IntRange(1, 256)).
		Field("OCR_MIN_CONFIDENCE", e.OCRMinConfidence, FloatRange(0, 100)).
		Field("OCR_UNAVAILABLE_POLICY", e.OCRUnavailablePolicy,
			OneOf(string(constants.OCRUnavailableFail), string(constants.OCRUnavailableDegrade))).
		Field("TEXT_BACKEND", e.TextBackend, OneOf(constants.TextBackendPdftotext, constants.TextBackendNative)).
		Field("OCR_ENGINE", e.OCREngine, OneOf(constants.OCREngineTesseract, constants.OCREngineGosseract)).
		Field("UPLOAD_RETENTION", c.Staging.Retention, OneOf(constants.RetentionDelete, constants.RetentionRetain)).
		Field("LLM_PROVIDER", c.LLM.Provider,
			OneOf(constants.LLMProviderMock, constants.LLMProviderOpenAI, constants.LLMProviderVertex)).
		Check(c.LLM.Provider != constants.LLMProviderOpenAI || c.LLM.APIKey != "",
			"OPENAI_API_KEY", "is required for the openai provider").
		Check(c.LLM.Provider != constants.LLMProviderVertex || c.LLM.VertexProject != "",
			"VERTEX_PROJECT", "is required for the vertex provider").
		Check(c.Staging.WatchDir == "" || !dirsOverlap(c.Staging.Dir, c.Staging.WatchDir),
			"WATCH_DIR", "must not overlap UPLOAD_DIR").
		Field("QUEUE_WORKERS", c.Queue.Workers, IntRange(1, 1024)).
		Field("QUEUE_SIZE", c.Queue.Size, IntRange(1, 1<<20))
	return v.AsError("CONFIG_ERROR")
}

// dirsOverlap reports whether a and b are the same directory or one contains the other.
func dirsOverlap(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	within := func(parent, child string) bool {
		rel, err := filepath.Rel(parent, child)
		return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
	}
	return within(absA, absB) || within(absB, absA)
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
