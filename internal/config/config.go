package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage providers.
const (
	ProviderDrive = "drive"
	ProviderS3    = "s3"
)

const (
	defaultCredentialsFile = "google-creds.json"
	defaultKeepCount       = 3
)

// Config holds everything the backup, restore and prune paths need. It is
// built once at startup and passed by pointer; nothing reads the process
// environment after Load returns.
type Config struct {
	BackupPath      string   `yaml:"backupPath"`
	RemoteFolderID  string   `yaml:"remoteFolderId"`
	CredentialsFile string   `yaml:"credentialsFile"`
	KeepCount       int      `yaml:"keepCount"`
	Provider        string   `yaml:"provider"`
	S3              S3Config `yaml:"s3"`
}

// S3Config configures the S3-compatible storage provider.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

// DefaultFile returns the path of the optional YAML config file.
func DefaultFile() string {
	return filepath.Join(xdg.ConfigHome, "auto-backup", "config.yaml")
}

// Load builds the configuration from the optional YAML file, a .env file in
// the working directory, and the process environment, in that order of
// increasing precedence.
func Load() (*Config, error) {
	cfg := &Config{
		CredentialsFile: defaultCredentialsFile,
		KeepCount:       defaultKeepCount,
		Provider:        ProviderDrive,
	}

	if err := cfg.loadFile(DefaultFile()); err != nil {
		return nil, err
	}

	// Matches the historical .env workflow; a missing file is fine.
	_ = godotenv.Load()
	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("BACKUP_FOLDER_PATH"); v != "" {
		c.BackupPath = v
	}
	if v := os.Getenv("GOOGLE_DRIVE_FOLDER_ID"); v != "" {
		c.RemoteFolderID = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS_FILE"); v != "" {
		c.CredentialsFile = v
	}
	if v := os.Getenv("BACKUP_KEEP_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.KeepCount = n
		}
	}
	if v := os.Getenv("BACKUP_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		c.S3.Bucket = v
	}
	if v := os.Getenv("S3_PREFIX"); v != "" {
		c.S3.Prefix = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		c.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		c.S3.SecretKey = v
	}
}

// Validate reports the fatal startup conditions.
func (c *Config) Validate() error {
	if c.BackupPath == "" {
		return fmt.Errorf("BACKUP_FOLDER_PATH is not set; configure it in the environment, a .env file, or %s", DefaultFile())
	}
	switch c.Provider {
	case ProviderDrive, ProviderS3:
	default:
		return fmt.Errorf("unknown storage provider %q (expected %q or %q)", c.Provider, ProviderDrive, ProviderS3)
	}
	if c.Provider == ProviderS3 {
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return fmt.Errorf("s3 provider requires S3_ENDPOINT and S3_BUCKET")
		}
	}
	return nil
}

// StagingDir returns the staging directory for one application, e.g.
// <backup>/fish-data.
func (c *Config) StagingDir(app string) string {
	return filepath.Join(c.BackupPath, app+"-data")
}
