package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *Config {
	return &Config{
		CredentialsFile: defaultCredentialsFile,
		KeepCount:       defaultKeepCount,
		Provider:        ProviderDrive,
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backupPath: /home/me/backups
remoteFolderId: folder-123
keepCount: 5
provider: s3
s3:
  endpoint: minio.local:9000
  bucket: dotfiles
  prefix: machines/desktop
`), 0644))

	cfg := baseConfig()
	require.NoError(t, cfg.loadFile(path))

	assert.Equal(t, "/home/me/backups", cfg.BackupPath)
	assert.Equal(t, "folder-123", cfg.RemoteFolderID)
	assert.Equal(t, 5, cfg.KeepCount)
	assert.Equal(t, ProviderS3, cfg.Provider)
	assert.Equal(t, "minio.local:9000", cfg.S3.Endpoint)
	assert.Equal(t, "dotfiles", cfg.S3.Bucket)
	// Untouched fields keep their defaults.
	assert.Equal(t, defaultCredentialsFile, cfg.CredentialsFile)
}

func TestLoadFileMissingIsFine(t *testing.T) {
	cfg := baseConfig()
	require.NoError(t, cfg.loadFile(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Equal(t, defaultKeepCount, cfg.KeepCount)
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backupPath: [unclosed"), 0644))
	assert.Error(t, baseConfig().loadFile(path))
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("BACKUP_FOLDER_PATH", "/env/backups")
	t.Setenv("GOOGLE_DRIVE_FOLDER_ID", "env-folder")
	t.Setenv("BACKUP_KEEP_COUNT", "7")
	t.Setenv("BACKUP_PROVIDER", ProviderDrive)

	cfg := baseConfig()
	cfg.BackupPath = "/file/backups"
	cfg.RemoteFolderID = "file-folder"
	cfg.loadEnv()

	assert.Equal(t, "/env/backups", cfg.BackupPath)
	assert.Equal(t, "env-folder", cfg.RemoteFolderID)
	assert.Equal(t, 7, cfg.KeepCount)
}

func TestEnvIgnoresBadKeepCount(t *testing.T) {
	for _, v := range []string{"zero", "0", "-2"} {
		t.Setenv("BACKUP_KEEP_COUNT", v)
		cfg := baseConfig()
		cfg.loadEnv()
		assert.Equal(t, defaultKeepCount, cfg.KeepCount, "value %q", v)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "drive ok",
			mutate: func(c *Config) { c.BackupPath = "/b" },
		},
		{
			name:    "missing backup path",
			mutate:  func(c *Config) {},
			wantErr: "BACKUP_FOLDER_PATH",
		},
		{
			name: "unknown provider",
			mutate: func(c *Config) {
				c.BackupPath = "/b"
				c.Provider = "ftp"
			},
			wantErr: "unknown storage provider",
		},
		{
			name: "s3 without endpoint",
			mutate: func(c *Config) {
				c.BackupPath = "/b"
				c.Provider = ProviderS3
				c.S3.Bucket = "dotfiles"
			},
			wantErr: "S3_ENDPOINT",
		},
		{
			name: "s3 ok",
			mutate: func(c *Config) {
				c.BackupPath = "/b"
				c.Provider = ProviderS3
				c.S3.Endpoint = "minio.local:9000"
				c.S3.Bucket = "dotfiles"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestStagingDir(t *testing.T) {
	cfg := &Config{BackupPath: "/home/me/backups"}
	assert.Equal(t, filepath.Join("/home/me/backups", "fish-data"), cfg.StagingDir("fish"))
}
