package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CONFIG_FILE", "PORT", "STORE", "LOG_LEVEL", "MONGO_URI", "MONGO_DB",
		"JWT_SECRET", "JWT_EXPIRY", "MQTT_BROKER", "MQTT_CLIENT_ID", "MQTT_TOPIC_PREFIX", "TRUST_PROXY"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	yamlData := `
port: "9090"
store: mongo
mongo:
  uri: mongodb://db:27017
  database: dashboard
auth:
  jwt_expiry: 2h
mqtt:
  broker: tcp://broker:1883
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o600))
	clearEnv(t)
	t.Setenv("PORT", "7070")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.Store)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "dashboard", cfg.Mongo.Database)
	assert.Equal(t, 2*time.Hour, cfg.Auth.JWTExpiry)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "logistics", cfg.MQTT.TopicPrefix)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MQTT_TOPIC_PREFIX=depot-7\n"), 0o600))
	clearEnv(t)
	// .env only fills variables that are unset
	require.NoError(t, os.Unsetenv("MQTT_TOPIC_PREFIX"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "depot-7", cfg.MQTT.TopicPrefix)
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)

	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)

	t.Setenv("STORE", "postgres")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoad_IgnoresBadExpiry(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)
	t.Setenv("JWT_EXPIRY", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTExpiry)
}

func TestLoad_TrustProxy(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.RateLimit.TrustProxy)

	t.Setenv("TRUST_PROXY", "true")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.True(t, cfg.RateLimit.TrustProxy)
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("loud").GetLevel())
	_, ok := NewLogger("info").Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}
