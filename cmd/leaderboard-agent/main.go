package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yuqie6/st-leaderboard/internal/bootstrap"
	"github.com/yuqie6/st-leaderboard/internal/httpapi"
	"github.com/yuqie6/st-leaderboard/internal/pkg/buildinfo"
	"github.com/yuqie6/st-leaderboard/internal/pkg/config"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "配置文件路径（默认为可执行文件旁的 config/config.yaml）")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfgPath == "" {
		if p, err := config.DefaultConfigPath(); err == nil {
			cfgPath = p
			if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
				if err := config.WriteFile(cfgPath, config.Default()); err != nil {
					slog.Warn("写入默认配置失败", "path", cfgPath, "error", err)
				}
			}
		}
	}

	rt, err := bootstrap.NewAgentRuntime(ctx, cfgPath)
	if err != nil {
		slog.Error("启动 Agent 失败", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	slog.Info("Leaderboard Agent 启动中...", "name", rt.Cfg.App.Name, "version", buildinfo.Version, "commit", buildinfo.Commit)

	// 只热更新日志级别，调度与服务端口需要重启
	if err := config.Watch(cfgPath, nil); err != nil {
		slog.Warn("配置热更新不可用", "error", err)
	}

	server, err := httpapi.Start(ctx, rt, httpapi.Options{ListenAddr: rt.Cfg.Server.BindAddress()})
	if err != nil {
		slog.Error("启动 HTTP 服务失败", "error", err)
		os.Exit(1)
	}
	slog.Info("Leaderboard Agent 已启动", "base_url", server.BaseURL())

	<-ctx.Done()
	slog.Info("收到系统退出信号，正在关闭...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("关闭 HTTP 服务超时", "error", err)
	}
	shutdownCancel()
	slog.Info("Leaderboard Agent 已退出")
}
