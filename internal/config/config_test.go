package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "dental.changes", cfg.Events.Channel)
	require.Len(t, cfg.Auth.Accounts, 3)
	assert.Equal(t, "admin@dental.com", cfg.Auth.Accounts[0].Email)
	assert.Equal(t, "admin", cfg.Auth.Accounts[0].Role)
	assert.Equal(t, int64(1), cfg.Auth.Accounts[0].ID)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9090
storage:
  driver: sqlite
  sqlite:
    path: /tmp/clinic.db
auth:
  jwt_secret: from-file
  accounts:
    - id: 10
      email: desk@clinic.test
      password_hash: "$2a$10$abcdefghijklmnopqrstuv"
      name: Front Desk
      role: admin
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("DENTAL_SERVER_PORT", "7070")
	t.Setenv("DENTAL_AUTH_JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/clinic.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	require.Len(t, cfg.Auth.Accounts, 1)
	assert.Equal(t, "Front Desk", cfg.Auth.Accounts[0].Name)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: 80}, Storage: StorageConfig{Driver: "floppy"}}
	assert.Error(t, cfg.Validate())

	cfg.Storage.Driver = "s3"
	assert.Error(t, cfg.Validate(), "s3 needs a bucket")

	cfg.Storage.S3.Bucket = "clinic"
	assert.NoError(t, cfg.Validate())
}

func TestValidateBackupAndTimezone(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 80},
		Storage: StorageConfig{Driver: "memory"},
		Backup:  BackupConfig{Enabled: true, Storage: StorageConfig{Driver: "memory"}},
	}
	assert.Error(t, cfg.Validate(), "memory backups are lost on exit")

	cfg.Backup.Storage.Driver = "FILE"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "file", cfg.Backup.Storage.Driver)

	cfg.Clinic.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())

	cfg.Clinic.Timezone = "Europe/Berlin"
	require.NoError(t, cfg.Validate())
	loc, err := cfg.Clinic.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}
