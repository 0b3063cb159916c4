package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Collector CollectorConfig `mapstructure:"collector"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name      string `mapstructure:"name"`
	Version   string `mapstructure:"version"`
	LogLevel  string `mapstructure:"log_level"`
	LogPath   string `mapstructure:"log_path"`
	LogFormat string `mapstructure:"log_format"` // text | json
}

// RemoteConfig 远端游戏 API 配置
type RemoteConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	Token          string  `mapstructure:"token"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
	Burst          int     `mapstructure:"burst"`
	MaxAttempts    int     `mapstructure:"max_attempts"`
	RetryWaitMinMs int     `mapstructure:"retry_wait_min_ms"`
	RetryWaitMaxMs int     `mapstructure:"retry_wait_max_ms"`
	TimeoutSec     int     `mapstructure:"timeout_sec"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host               string   `mapstructure:"host"`
	Port               int      `mapstructure:"port"`
	AssetDir           string   `mapstructure:"asset_dir"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// CollectorConfig 采集调度配置
type CollectorConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Schedule    string `mapstructure:"schedule"`    // cron 表达式
	Concurrency int    `mapstructure:"concurrency"` // 单阶段并发上限
	RunOnStart  bool   `mapstructure:"run_on_start"`
}

// BindAddress 返回监听地址 host:port
func (s ServerConfig) BindAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 支持环境变量
	v.SetEnvPrefix("LEADERBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Warn("配置文件未找到，使用默认配置")
		} else if os.IsNotExist(err) {
			slog.Warn("配置文件不存在，使用默认配置", "path", configPath)
		} else {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		slog.Info("加载配置文件", "path", v.ConfigFileUsed())
	}
	return v, nil
}

// bindLegacyEnv 兼容部署脚本里的扁平环境变量
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("storage.db_path", "LEADERBOARD_DATABASE_URL", "LEADERBOARD_STORAGE_DB_PATH")
	_ = v.BindEnv("server.host", "LEADERBOARD_HOST", "LEADERBOARD_SERVER_HOST")
	_ = v.BindEnv("server.port", "LEADERBOARD_PORT", "LEADERBOARD_SERVER_PORT")
	_ = v.BindEnv("server.asset_dir", "LEADERBOARD_ASSET_DIR", "LEADERBOARD_SERVER_ASSET_DIR")
	_ = v.BindEnv("remote.token", "LEADERBOARD_TOKEN", "LEADERBOARD_REMOTE_TOKEN")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 处理环境变量占位符
	cfg.Remote.Token = expandEnv(cfg.Remote.Token)

	// 处理 sqlite:// URL 与相对路径
	cfg.Storage.DBPath = resolvePath(normalizeDBPath(cfg.Storage.DBPath))
	if cfg.Server.AssetDir != "" {
		cfg.Server.AssetDir = resolvePath(cfg.Server.AssetDir)
	}

	return &cfg, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	d := Default()

	// App
	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.version", d.App.Version)
	v.SetDefault("app.log_level", d.App.LogLevel)
	v.SetDefault("app.log_path", d.App.LogPath)
	v.SetDefault("app.log_format", d.App.LogFormat)

	// Remote
	v.SetDefault("remote.base_url", d.Remote.BaseURL)
	v.SetDefault("remote.token", d.Remote.Token)
	v.SetDefault("remote.rate_per_second", d.Remote.RatePerSecond)
	v.SetDefault("remote.burst", d.Remote.Burst)
	v.SetDefault("remote.max_attempts", d.Remote.MaxAttempts)
	v.SetDefault("remote.retry_wait_min_ms", d.Remote.RetryWaitMinMs)
	v.SetDefault("remote.retry_wait_max_ms", d.Remote.RetryWaitMaxMs)
	v.SetDefault("remote.timeout_sec", d.Remote.TimeoutSec)

	// Storage
	v.SetDefault("storage.db_path", d.Storage.DBPath)

	// Server
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.asset_dir", d.Server.AssetDir)
	v.SetDefault("server.cors_allowed_origins", d.Server.CORSAllowedOrigins)

	// Collector
	v.SetDefault("collector.enabled", d.Collector.Enabled)
	v.SetDefault("collector.schedule", d.Collector.Schedule)
	v.SetDefault("collector.concurrency", d.Collector.Concurrency)
	v.SetDefault("collector.run_on_start", d.Collector.RunOnStart)
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:      "st-leaderboard",
			Version:   "0.1.0",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Remote: RemoteConfig{
			BaseURL:        "https://api.spacetraders.io/v2",
			RatePerSecond:  2,
			Burst:          1,
			MaxAttempts:    3,
			RetryWaitMinMs: 1000,
			RetryWaitMaxMs: 30000,
			TimeoutSec:     30,
		},
		Storage: StorageConfig{
			DBPath: "./data/leaderboard.db",
		},
		Server: ServerConfig{
			Host:               "127.0.0.1",
			Port:               8080,
			CORSAllowedOrigins: []string{"*"},
		},
		Collector: CollectorConfig{
			Enabled:     true,
			Schedule:    "*/5 * * * *",
			Concurrency: 8,
			RunOnStart:  true,
		},
	}
}

// expandEnv 展开环境变量占位符 ${VAR}
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		envVar := s[2 : len(s)-1]
		return os.Getenv(envVar)
	}
	return s
}

// normalizeDBPath 将 sqlite://data/x.db?mode=rwc 还原为文件路径
func normalizeDBPath(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "sqlite:") {
		return s
	}
	s = strings.TrimPrefix(s, "sqlite:")
	s = strings.TrimPrefix(s, "//")
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		return u.Path
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	return s
}

// resolvePath 解析相对路径为绝对路径
func resolvePath(path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}

	// 获取可执行文件目录
	exe, err := os.Executable()
	if err != nil {
		return path
	}

	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, path)
}
