package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Store      StoreConfig      `yaml:"store"`
	Firebase   FirebaseConfig   `yaml:"firebase"`
	Blob       BlobConfig       `yaml:"blob"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	MaxUploadMB     int64   `yaml:"max_upload_mb"`
}

// DatabaseConfig holds the SQL connection configuration used by the gorm backend.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // gorm or firestore
}

// FirebaseConfig holds the Firebase project used by the firestore store and
// the firebase blob backend.
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	StorageBucket   string `yaml:"storage_bucket"`
}

// BlobConfig selects where uploaded images are stored.
type BlobConfig struct {
	Backend    string `yaml:"backend"` // local or firebase
	Dir        string `yaml:"dir"`
	BaseURL    string `yaml:"base_url"`
	PublicPath string `yaml:"public_path"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level   string   `yaml:"level"`
	Outputs []string `yaml:"outputs"`
}

// Load reads the configuration from the given path. A .env file in the
// working directory is loaded first; environment variables override the
// file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("SERVER_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	cfg.Database.Driver = getEnv("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DATABASE_DSN", cfg.Database.DSN)
	cfg.Store.Backend = getEnv("STORE_BACKEND", cfg.Store.Backend)
	cfg.Blob.Backend = getEnv("BLOB_BACKEND", cfg.Blob.Backend)
	cfg.Firebase.ProjectID = getEnv("FIREBASE_PROJECT_ID", cfg.Firebase.ProjectID)
	cfg.Firebase.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", cfg.Firebase.CredentialsFile)
	cfg.Firebase.StorageBucket = getEnv("FIREBASE_STORAGE_BUCKET", cfg.Firebase.StorageBucket)
	cfg.Push.PublicKey = getEnv("VAPID_PUBLIC_KEY", cfg.Push.PublicKey)
	cfg.Push.PrivateKey = getEnv("VAPID_PRIVATE_KEY", cfg.Push.PrivateKey)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 32
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "gorm"
	}

	if cfg.Blob.Backend == "" {
		cfg.Blob.Backend = "local"
	}
	if cfg.Blob.Dir == "" {
		cfg.Blob.Dir = "./uploads"
	}
	if cfg.Blob.PublicPath == "" {
		cfg.Blob.PublicPath = "/uploads"
	}
	if cfg.Blob.BaseURL == "" {
		cfg.Blob.BaseURL = cfg.Blob.PublicPath
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if len(cfg.Log.Outputs) == 0 {
		cfg.Log.Outputs = []string{"stdout"}
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
