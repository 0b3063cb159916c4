package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch 监听配置文件变化；目前只热更新日志级别，其余配置需要重启生效。
func Watch(configPath string, onChange func(*Config)) error {
	v, err := newViper(configPath)
	if err != nil {
		return err
	}
	if v.ConfigFileUsed() == "" {
		return nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			slog.Warn("重新加载配置失败", "path", e.Name, "error", err)
			return
		}
		SetLogLevel(cfg.App.LogLevel)
		slog.Info("配置已重新加载", "path", e.Name, "log_level", cfg.App.LogLevel)
		if onChange != nil {
			onChange(cfg)
		}
	})
	v.WatchConfig()
	return nil
}
