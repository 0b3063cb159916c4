package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

func DefaultConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("获取可执行文件路径失败: %w", err)
	}
	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, "config", "config.yaml"), nil
}

func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("cfg 不能为空")
	}
	if path == "" {
		return fmt.Errorf("path 不能为空")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	payload := map[string]any{
		"app": map[string]any{
			"name":       cfg.App.Name,
			"version":    cfg.App.Version,
			"log_level":  cfg.App.LogLevel,
			"log_path":   cfg.App.LogPath,
			"log_format": cfg.App.LogFormat,
		},
		"remote": map[string]any{
			"base_url":          cfg.Remote.BaseURL,
			"token":             cfg.Remote.Token,
			"rate_per_second":   cfg.Remote.RatePerSecond,
			"burst":             cfg.Remote.Burst,
			"max_attempts":      cfg.Remote.MaxAttempts,
			"retry_wait_min_ms": cfg.Remote.RetryWaitMinMs,
			"retry_wait_max_ms": cfg.Remote.RetryWaitMaxMs,
			"timeout_sec":       cfg.Remote.TimeoutSec,
		},
		"storage": map[string]any{
			"db_path": cfg.Storage.DBPath,
		},
		"server": map[string]any{
			"host":                 cfg.Server.Host,
			"port":                 cfg.Server.Port,
			"asset_dir":            cfg.Server.AssetDir,
			"cors_allowed_origins": cfg.Server.CORSAllowedOrigins,
		},
		"collector": map[string]any{
			"enabled":      cfg.Collector.Enabled,
			"schedule":     cfg.Collector.Schedule,
			"concurrency":  cfg.Collector.Concurrency,
			"run_on_start": cfg.Collector.RunOnStart,
		},
	}

	b, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	// token 可能落盘，文件权限保持 0600
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
