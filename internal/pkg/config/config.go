package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	MetadataJSONFile = "jsonfile"
	MetadataBadger   = "badger"

	UsersSQLite = "sqlite"
	UsersMongo  = "mongo"
)

type Config struct {
	Port      string        `env:"PORT,      default=5000"`
	Env       string        `env:"ENV,       default=development"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`

	Uploads  UploadsConfig
	Metadata MetadataConfig
	Users    UsersConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type UploadsConfig struct {
	Dir           string        `env:"UPLOADS_DIR,      default=uploads"`
	MaxBytes      int64         `env:"MAX_UPLOAD_BYTES, default=26214400"`
	StagingMaxAge time.Duration `env:"STAGING_MAX_AGE,  default=1h"`
	Roles         []string      `env:"UPLOAD_ROLES,     default=student,teacher"`
}

type MetadataConfig struct {
	Driver    string `env:"METADATA_DRIVER,     default=jsonfile"`
	File      string `env:"METADATA_FILE,       default=data/materials.json"`
	BadgerDir string `env:"METADATA_BADGER_DIR, default=data/badger"`
}

type UsersConfig struct {
	Driver     string `env:"USERS_DRIVER,      default=sqlite"`
	SQLitePath string `env:"USERS_SQLITE_PATH, default=data/users.db"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=materials_portal"`
}

// RedisConfig enables the listing cache when Addr is set.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	DB       int           `env:"REDIS_DB,        default=0"`
	CacheTTL time.Duration `env:"REDIS_CACHE_TTL, default=5m"`
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration from l and validates it.
func LoadFrom(l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be blank"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Uploads.MaxBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if len(c.Uploads.Roles) == 0 {
		errs = append(errs, errors.New("UPLOAD_ROLES must name at least one role"))
	}
	for i, r := range c.Uploads.Roles {
		c.Uploads.Roles[i] = strings.TrimSpace(r)
	}

	switch c.Metadata.Driver {
	case MetadataJSONFile, MetadataBadger:
	default:
		errs = append(errs, fmt.Errorf("METADATA_DRIVER %q: want %s or %s", c.Metadata.Driver, MetadataJSONFile, MetadataBadger))
	}
	switch c.Users.Driver {
	case UsersSQLite, UsersMongo:
	default:
		errs = append(errs, fmt.Errorf("USERS_DRIVER %q: want %s or %s", c.Users.Driver, UsersSQLite, UsersMongo))
	}

	return errors.Join(errs...)
}
