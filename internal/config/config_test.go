package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestInit_Defaults(t *testing.T) {
	viper.Reset()

	Init()

	if !viper.GetBool("compress") {
		t.Error("expected compress default true")
	}
	if !viper.GetBool("verify") {
		t.Error("expected verify default true")
	}
	if viper.GetBool("strict_extra") {
		t.Error("expected strict_extra default false")
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	viper.Reset()
	Init()

	cfg, err := Load("")
	if err != nil {
		t.Errorf("Load() with no config file should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config to be returned")
	}
	if cfg.BackupDir == "" {
		t.Error("expected default backup_dir")
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := []byte("backup_dir: /srv/backups\ncompress: false\nstrict_extra: true\n")
	if err := os.WriteFile(configPath, content, 0600); err != nil {
		t.Fatal(err)
	}

	Init()

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BackupDir != "/srv/backups" {
		t.Errorf("BackupDir = %q", cfg.BackupDir)
	}
	if cfg.Compress {
		t.Error("expected compress false from file")
	}
	if !cfg.StrictExtra {
		t.Error("expected strict_extra true from file")
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	viper.Reset()
	Init()

	if _, err := Load("/non/existent/path/config.yaml"); err == nil {
		t.Error("Load() with non-existent explicit path should error")
	}
}

func TestValidate_EmptyBackupDir(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject empty backup_dir")
	}
}
