package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	v := NewViper()
	v.Set("postgres_conn_str", "postgres://localhost/tgt")
	v.Set("mongo_uri", "mongodb://localhost:27017")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "9090", cfg.MetricsPort)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "three_good_things", cfg.MongoDatabase)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/journal.db")
	t.Setenv("MONGO_URI", "mongodb://mongo:27017")
	t.Setenv("STORE_TIMEOUT", "3s")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "/tmp/journal.db", cfg.SQLitePath)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadRejectsMissingDatabaseSettings(t *testing.T) {
	v := NewViper()
	v.Set("db_driver", "oracle")

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported DB_DRIVER "oracle"`)
	assert.Contains(t, err.Error(), "MONGO_URI environment variable not set")
}

func TestValidateServerListsEveryMissingSetting(t *testing.T) {
	cfg := &Config{Port: "8080", FirebaseCredentialsPath: "creds.json"}
	err := cfg.ValidateServer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "ENTRY_IMAGES_BUCKET")
	assert.Contains(t, err.Error(), "AVATARS_BUCKET")

	cfg.JWTSecret = "secret"
	cfg.EntryImagesBucket = "images"
	cfg.AvatarsBucket = "avatars"
	assert.NoError(t, cfg.ValidateServer())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TGT_DOTENV_LOADED=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TGT_DOTENV_LOADED") })

	assert.True(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("TGT_DOTENV_LOADED"))
	assert.False(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
