package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port                    string
	Env                     string
	MetricsPort             string
	LogLevel                string
	DBDriver                string
	PostgresConnStr         string
	SQLitePath              string
	MongoURI                string
	MongoDatabase           string
	FirebaseCredentialsPath string
	EntryImagesBucket       string
	AvatarsBucket           string
	StoragePublicBaseURL    string
	JWTSecret               string
	StoreTimeout            time.Duration
}

// LoadDotEnv reads a .env file into the process environment when one exists.
func LoadDotEnv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

// NewViper returns a viper instance reading the environment with defaults applied.
func NewViper() *viper.Viper {
	v := viper.New()
	ApplyDefaults(v)
	return v
}

func ApplyDefaults(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("metrics_port", "9090")
	v.SetDefault("log_level", "info")
	v.SetDefault("db_driver", DriverPostgres)
	v.SetDefault("postgres_conn_str", "")
	v.SetDefault("sqlite_path", "three-good-things.db")
	v.SetDefault("mongo_uri", "")
	v.SetDefault("mongo_database", "three_good_things")
	v.SetDefault("firebase_credentials_path", "./firebase_credentials.json")
	v.SetDefault("entry_images_bucket", "")
	v.SetDefault("avatars_bucket", "")
	v.SetDefault("storage_public_base_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("store_timeout", 10*time.Second)
}

// Load reads the configuration and checks the database settings every command needs.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                    strings.TrimSpace(v.GetString("port")),
		Env:                     strings.TrimSpace(v.GetString("env")),
		MetricsPort:             strings.TrimSpace(v.GetString("metrics_port")),
		LogLevel:                strings.TrimSpace(v.GetString("log_level")),
		DBDriver:                strings.ToLower(strings.TrimSpace(v.GetString("db_driver"))),
		PostgresConnStr:         strings.TrimSpace(v.GetString("postgres_conn_str")),
		SQLitePath:              strings.TrimSpace(v.GetString("sqlite_path")),
		MongoURI:                strings.TrimSpace(v.GetString("mongo_uri")),
		MongoDatabase:           strings.TrimSpace(v.GetString("mongo_database")),
		FirebaseCredentialsPath: strings.TrimSpace(v.GetString("firebase_credentials_path")),
		EntryImagesBucket:       strings.TrimSpace(v.GetString("entry_images_bucket")),
		AvatarsBucket:           strings.TrimSpace(v.GetString("avatars_bucket")),
		StoragePublicBaseURL:    strings.TrimSpace(v.GetString("storage_public_base_url")),
		JWTSecret:               v.GetString("jwt_secret"),
		StoreTimeout:            v.GetDuration("store_timeout"),
	}
	if err := cfg.validateDatabase(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validateDatabase() error {
	var errs []error
	switch c.DBDriver {
	case DriverPostgres:
		if c.PostgresConnStr == "" {
			errs = append(errs, errors.New("POSTGRES_CONN_STR environment variable not set"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH environment variable not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI environment variable not set"))
	}
	if c.MongoDatabase == "" {
		errs = append(errs, errors.New("MONGO_DATABASE environment variable not set"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT environment variable not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable not set"))
	}
	if c.FirebaseCredentialsPath == "" {
		errs = append(errs, errors.New("FIREBASE_CREDENTIALS_PATH environment variable not set"))
	}
	if c.EntryImagesBucket == "" {
		errs = append(errs, errors.New("ENTRY_IMAGES_BUCKET environment variable not set"))
	}
	if c.AvatarsBucket == "" {
		errs = append(errs, errors.New("AVATARS_BUCKET environment variable not set"))
	}
	return errors.Join(errs...)
}
