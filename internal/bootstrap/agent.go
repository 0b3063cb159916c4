package bootstrap

import (
	"context"
	"log/slog"

	"github.com/yuqie6/st-leaderboard/internal/eventbus"
	"github.com/yuqie6/st-leaderboard/internal/service"
)

// AgentRuntime 常驻进程需要的调度与事件广播
type AgentRuntime struct {
	*Core
	Hub       *eventbus.Hub
	Scheduler *service.Scheduler
}

// NewAgentRuntime 构建运行时并启动采集调度
func NewAgentRuntime(ctx context.Context, cfgPath string) (*AgentRuntime, error) {
	core, err := NewCore(cfgPath)
	if err != nil {
		return nil, err
	}

	rt := &AgentRuntime{Core: core, Hub: eventbus.NewHub()}

	if core.DB != nil && core.DB.SafeMode {
		// 安全模式：HTTP 照常启动，不启动任何写库链路，原因由 /api/status 展示
		slog.Warn("数据库处于安全模式，采集调度未启动", "reason", core.DB.MigrationError)
		return rt, nil
	}
	if !core.Cfg.Collector.Enabled {
		slog.Info("采集已在配置中关闭")
		return rt, nil
	}

	rt.Scheduler = service.NewScheduler(core.Services.Collector, core.DB, rt.Hub, service.SchedulerConfig{
		Schedule:   core.Cfg.Collector.Schedule,
		RunOnStart: core.Cfg.Collector.RunOnStart,
	})
	if err := rt.Scheduler.Start(ctx); err != nil {
		_ = core.Close()
		return nil, err
	}
	return rt, nil
}

// Close 先停调度再关库
func (rt *AgentRuntime) Close() error {
	if rt == nil {
		return nil
	}
	if rt.Scheduler != nil {
		rt.Scheduler.Stop()
	}
	return rt.Core.Close()
}
