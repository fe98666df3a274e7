package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `json:"host" env:"SERVER_HOST"`
	Port int    `json:"port" env:"SERVER_PORT"`
}

// DatabaseConfig controls persistence.
type DatabaseConfig struct {
	Driver          string `json:"driver" env:"DATABASE_DRIVER"`
	DSN             string `json:"dsn" env:"DATABASE_DSN"`
	Host            string `json:"host" env:"DATABASE_HOST"`
	Port            int    `json:"port" env:"DATABASE_PORT"`
	User            string `json:"user" env:"DATABASE_USER"`
	Password        string `json:"password" env:"DATABASE_PASSWORD"`
	Name            string `json:"name" env:"DATABASE_NAME"`
	SSLMode         string `json:"sslmode" env:"DATABASE_SSLMODE"`
	MaxOpenConns    int    `json:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `json:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `json:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME"`
	MigrateOnStart  bool   `json:"migrate_on_start" yaml:"migrate_on_start" env:"DATABASE_MIGRATE_ON_START"`
}

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level      string `json:"level" env:"LOG_LEVEL"`
	Format     string `json:"format" env:"LOG_FORMAT"`
	Output     string `json:"output" env:"LOG_OUTPUT"`
	FilePrefix string `json:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// SecurityConfig controls secret-handling parameters.
type SecurityConfig struct {
	SecretEncryptionKey string `json:"secret_encryption_key" env:"SECRET_ENCRYPTION_KEY"`
}

// AuthConfig controls the credential-issuance hook (see auth).
// There is no login flow or RBAC here: a bearer token mints a short-lived
// (subject, workspace) claim pair and is optional on every route.
type AuthConfig struct {
	JWTSecret  string `json:"jwt_secret" env:"AUTH_JWT_SECRET"`
	TokenTTLMS int64  `json:"token_ttl_ms" env:"AUTH_TOKEN_TTL_MS"`
	Issuer     string `json:"issuer" env:"AUTH_ISSUER"`
}

// RedisConfig configures the optional cross-process blob cache accelerator.
// Absence of Addr disables it; store/blobstore falls back to the in-memory
// tier silently.
type RedisConfig struct {
	Addr     string `json:"addr" env:"REDIS_ADDR"`
	Password string `json:"password" env:"REDIS_PASSWORD"`
	DB       int    `json:"db" env:"REDIS_DB"`
}

// BlobStoreConfig tunes the content store and cache.
type BlobStoreConfig struct {
	MaxCacheBytes  int64  `json:"max_cache_bytes" env:"BLOBSTORE_MAX_CACHE_BYTES"`
	DefaultTTLSecs int    `json:"default_ttl_secs" env:"BLOBSTORE_DEFAULT_TTL_SECS"`
	RedisNamespace string `json:"redis_namespace" env:"BLOBSTORE_REDIS_NAMESPACE"`
}

// VFSConfig configures the virtual filesystem engine's materialization root.
type VFSConfig struct {
	MaterializeRoot string `json:"materialize_root" env:"VFS_MATERIALIZE_ROOT"`
	DebounceMS      int    `json:"debounce_ms" env:"VFS_DEBOUNCE_MS"`
}

// GraphConfig bounds the in-memory dependency graph cache.
type GraphConfig struct {
	MaxNodes int `json:"max_nodes" env:"GRAPH_MAX_NODES"`
}

// MemoryConfig schedules the memory subsystem's background jobs.
type MemoryConfig struct {
	ConsolidationCron string `json:"consolidation_cron" env:"MEMORY_CONSOLIDATION_CRON"`
	ForgettingCron    string `json:"forgetting_cron" env:"MEMORY_FORGETTING_CRON"`
}

// OrchestratorConfig tunes the workflow executor's worker pool.
type OrchestratorConfig struct {
	MaxConcurrent   int `json:"max_concurrent" env:"ORCHESTRATOR_MAX_CONCURRENT"`
	TaskTimeoutSecs int `json:"task_timeout_secs" env:"ORCHESTRATOR_TASK_TIMEOUT_SECS"`
}

// EventBusConfig tunes per-subscriber delivery.
type EventBusConfig struct {
	SubscriberQueueDepth int `json:"subscriber_queue_depth" env:"EVENTBUS_SUBSCRIBER_QUEUE_DEPTH"`
}

// SessionConfig tunes the session/lock service.
type SessionConfig struct {
	LockSweepCron   string `json:"lock_sweep_cron" env:"SESSION_LOCK_SWEEP_CRON"`
	IdleTimeoutSecs int    `json:"idle_timeout_secs" env:"SESSION_IDLE_TIMEOUT_SECS"`
}

// TracingConfig configures OTLP/Tracing resource attributes attached to
// service metrics and log records.
type TracingConfig struct {
	Endpoint           string            `json:"endpoint" env:"TRACING_OTLP_ENDPOINT"`
	Insecure           bool              `json:"insecure" env:"TRACING_OTLP_INSECURE"`
	ServiceName        string            `json:"service_name" env:"TRACING_SERVICE_NAME"`
	ResourceAttributes map[string]string `json:"resource_attributes" mapstructure:"resource_attributes"`
	AttributesEnv      string            `json:"-" yaml:"-" env:"TRACING_OTLP_ATTRIBUTES"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server       ServerConfig       `json:"server"`
	Database     DatabaseConfig     `json:"database"`
	Logging      LoggingConfig      `json:"logging"`
	Security     SecurityConfig     `json:"security"`
	Auth         AuthConfig         `json:"auth"`
	Redis        RedisConfig        `json:"redis"`
	BlobStore    BlobStoreConfig    `json:"blobstore"`
	VFS          VFSConfig          `json:"vfs"`
	Graph        GraphConfig        `json:"graph"`
	Memory       MemoryConfig       `json:"memory"`
	Orchestrator OrchestratorConfig `json:"orchestrator"`
	EventBus     EventBusConfig     `json:"eventbus"`
	Session      SessionConfig      `json:"session"`
	Tracing      TracingConfig      `json:"tracing"`
}

// New returns a configuration populated with defaults.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			MigrateOnStart:  true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			FilePrefix: "agentsvc",
		},
		Security: SecurityConfig{},
		Auth: AuthConfig{
			TokenTTLMS: 3600_000,
			Issuer:     "agentsvc",
		},
		Redis: RedisConfig{},
		BlobStore: BlobStoreConfig{
			MaxCacheBytes:  256 << 20,
			DefaultTTLSecs: 3600,
			RedisNamespace: "agentsvc:blob",
		},
		VFS: VFSConfig{
			DebounceMS: 200,
		},
		Graph: GraphConfig{
			MaxNodes: 50_000,
		},
		Memory: MemoryConfig{
			ConsolidationCron: "0 */6 * * *",
			ForgettingCron:    "0 3 * * *",
		},
		Orchestrator: OrchestratorConfig{
			MaxConcurrent:   8,
			TaskTimeoutSecs: 600,
		},
		EventBus: EventBusConfig{
			SubscriberQueueDepth: 256,
		},
		Session: SessionConfig{
			LockSweepCron:   "*/5 * * * *",
			IdleTimeoutSecs: 1800,
		},
		Tracing: TracingConfig{},
	}
}

// ConnectionString builds a PostgreSQL connection string using host parameters.
func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Load loads configuration from file (if present) and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		_ = loadFromFile("configs/config.yaml", cfg)
	}

	if err := envdecode.Decode(cfg); err != nil {
		// envdecode returns an error when no tagged fields are present in the
		// environment; treat that case as "no overrides" so local runs work
		// without exporting vars.
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}

	applyDatabaseURLOverride(cfg)
	cfg.normalize()

	return cfg, nil
}

// LoadFile reads configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}
	applyDatabaseURLOverride(cfg)
	cfg.normalize()
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	expanded, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return nil
}

// LoadConfig is a helper used by tests to load JSON config snippets.
func LoadConfig(path string) (*Config, error) {
	cfg := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDatabaseURLOverride(cfg)
	cfg.normalize()
	return cfg, nil
}

// applyDatabaseURLOverride aligns config loading with cmd/agentsvcd: DATABASE_URL
// overrides any file-based DSN to reduce setup friction.
func applyDatabaseURLOverride(cfg *Config) {
	if cfg == nil {
		return
	}
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		cfg.Database.DSN = dsn
	}
}

func (t *TracingConfig) normalize() {
	if t == nil {
		return
	}
	t.MergeAttributes(t.AttributesEnv)
}

// MergeAttributes merges comma-separated key=value pairs into ResourceAttributes.
func (t *TracingConfig) MergeAttributes(raw string) {
	if t == nil {
		return
	}
	pairs := parseAttributePairs(raw)
	if len(pairs) == 0 {
		return
	}
	if t.ResourceAttributes == nil {
		t.ResourceAttributes = make(map[string]string, len(pairs))
	}
	for k, v := range pairs {
		if k == "" {
			continue
		}
		t.ResourceAttributes[k] = v
	}
}

func parseAttributePairs(raw string) map[string]string {
	result := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		key := strings.TrimSpace(kv[0])
		if key == "" {
			continue
		}
		val := ""
		if len(kv) > 1 {
			val = strings.TrimSpace(kv[1])
		}
		result[key] = val
	}
	return result
}

func (c *Config) normalize() {
	if c == nil {
		return
	}
	c.Tracing.normalize()
}
