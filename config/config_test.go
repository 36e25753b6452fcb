package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := LoadConfig(path)
	if cfg.Port != "38870" {
		t.Errorf("default port = %q, want 38870", cfg.Port)
	}
	if cfg.Blocksize != 20 {
		t.Errorf("default blocksize = %d, want 20", cfg.Blocksize)
	}
	if cfg.MapWidth != 20 || cfg.MapHeight != 20 {
		t.Errorf("default map = %dx%d, want 20x20", cfg.MapWidth, cfg.MapHeight)
	}
	if cfg.TickInterval != 1 {
		t.Errorf("default tick_interval = %d, want 1", cfg.TickInterval)
	}

	// 首次加载时应落盘一份默认配置
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}

	if got := GetConfigValue("blocksize").(int); got != cfg.Blocksize {
		t.Errorf("GetConfigValue(blocksize) = %d, want %d", got, cfg.Blocksize)
	}
	if got := GetConfigValue("unknown").(string); got != "" {
		t.Errorf("GetConfigValue(unknown) = %q, want empty", got)
	}
}
