package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuqie6/st-leaderboard/internal/repository"
	"github.com/yuqie6/st-leaderboard/internal/schema"
	"github.com/yuqie6/st-leaderboard/internal/stclient"
	"golang.org/x/sync/errgroup"
)

// CollectorConfig 采集参数
type CollectorConfig struct {
	Concurrency int // 单阶段并发上限，真正的出站速率由共享限速器控制
}

// TickResult 一次采集的结果摘要
type TickResult struct {
	ResetDate        string
	JobRunID         int64
	EventTimeMinutes int64
	Discovered       []string
	TrackedAgents    int
	TrackedSites     int
	Duration         time.Duration
}

// Collector 采集编排：发现新 agent、拉取当前状态、原子写入一次快照
type Collector struct {
	remote    RemoteAPI
	resets    ResetRepository
	dims      DimensionRepository
	snapshots SnapshotRepository
	metrics   *Metrics
	cfg       CollectorConfig
	now       func() time.Time
}

// NewCollector 创建采集服务，metrics 可为 nil
func NewCollector(
	remote RemoteAPI,
	resets ResetRepository,
	dims DimensionRepository,
	snapshots SnapshotRepository,
	metrics *Metrics,
	cfg CollectorConfig,
) *Collector {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Collector{
		remote:    remote,
		resets:    resets,
		dims:      dims,
		snapshots: snapshots,
		metrics:   metrics,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock 替换时钟（测试用）
func (c *Collector) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// Tick 执行一次完整采集。任一远端调用失败都会中止本次采集，不写入半截快照。
func (c *Collector) Tick(ctx context.Context) (*TickResult, error) {
	start := time.Now()
	res, err := c.tick(ctx)
	d := time.Since(start)
	c.metrics.observeTick(err, d)
	if err != nil {
		slog.Error("采集失败", "error", err, "duration", d)
		return nil, err
	}
	res.Duration = d
	slog.Info("采集完成",
		"reset", res.ResetDate,
		"job_run_id", res.JobRunID,
		"event_time_minutes", res.EventTimeMinutes,
		"discovered", len(res.Discovered),
		"agents", res.TrackedAgents,
		"sites", res.TrackedSites,
		"duration", d,
	)
	return res, nil
}

func (c *Collector) tick(ctx context.Context) (*TickResult, error) {
	now := c.now().UTC()
	nowMs := now.UnixMilli()

	status, err := c.remote.GetStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取世界状态失败: %w", err)
	}
	date, err := repository.ParseResetDate(status.ResetDate)
	if err != nil {
		return nil, fmt.Errorf("%w: resetDate=%q", ErrDataInconsistency, status.ResetDate)
	}

	reset, err := c.resets.LoadOrCreate(ctx, date, nowMs)
	if err != nil {
		return nil, err
	}

	tracked, err := c.dims.ListAgents(ctx, reset.ResetID)
	if err != nil {
		return nil, err
	}
	missing := MissingAgents(RankedAgentSymbols(status), tracked)
	slog.Info("开始采集", "reset", date, "tracked", len(tracked), "missing", len(missing))

	if len(missing) > 0 {
		discovered, err := c.discover(ctx, missing)
		if err != nil {
			return nil, err
		}
		if err := c.dims.SaveDiscovered(ctx, reset.ResetID, discovered, nowMs); err != nil {
			return nil, err
		}
		c.metrics.addDiscovered(len(discovered))
		slog.Info("发现新 agent", "reset", date, "agents", missing)
	}

	agents, err := c.dims.ListAgents(ctx, reset.ResetID)
	if err != nil {
		return nil, err
	}
	sites, err := c.dims.ListConstructionSites(ctx, reset.ResetID)
	if err != nil {
		return nil, err
	}
	c.metrics.setTracked(len(agents), len(sites))

	agentObs, siteObs, err := c.fetchCurrent(ctx, agents, sites)
	if err != nil {
		return nil, err
	}

	job, err := c.snapshots.WriteTick(ctx, repository.TickSnapshot{
		Reset:  *reset,
		NowMs:  nowMs,
		Agents: agentObs,
		Sites:  siteObs,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUnknownDimension) {
			return nil, fmt.Errorf("%w: %v", ErrDataInconsistency, err)
		}
		return nil, fmt.Errorf("写入快照失败: %w", err)
	}

	return &TickResult{
		ResetDate:        date,
		JobRunID:         job.ID,
		EventTimeMinutes: job.EventTimeMinutes,
		Discovered:       missing,
		TrackedAgents:    len(agents),
		TrackedSites:     len(sites),
	}, nil
}

// RankedAgentSymbols 资金榜与海图榜的并集，保持首次出现的顺序
func RankedAgentSymbols(status *stclient.StatusResponse) []string {
	if status == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(sym string) {
		if sym == "" {
			return
		}
		if _, ok := seen[sym]; ok {
			return
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	for _, e := range status.Leaderboards.MostCredits {
		add(e.AgentSymbol)
	}
	for _, e := range status.Leaderboards.MostSubmittedCharts {
		add(e.AgentSymbol)
	}
	return out
}

// MissingAgents 榜单中尚未跟踪的 agent
func MissingAgents(ranked []string, tracked []schema.Agent) []string {
	known := make(map[string]struct{}, len(tracked))
	for _, a := range tracked {
		known[a.AgentSymbol] = struct{}{}
	}
	var out []string
	for _, sym := range ranked {
		if _, ok := known[sym]; !ok {
			out = append(out, sym)
		}
	}
	return out
}

// discover 并发查询新 agent 的总部与所在星系的跃迁门
func (c *Collector) discover(ctx context.Context, symbols []string) ([]repository.NewAgent, error) {
	out := make([]repository.NewAgent, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			a, err := c.discoverAgent(gctx, sym)
			if err != nil {
				return err
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Collector) discoverAgent(ctx context.Context, symbol string) (repository.NewAgent, error) {
	agent, err := c.remote.GetPublicAgent(ctx, symbol)
	if err != nil {
		return repository.NewAgent{}, fmt.Errorf("获取 agent %s 失败: %w", symbol, err)
	}
	system, err := stclient.SystemSymbol(agent.Headquarters)
	if err != nil {
		return repository.NewAgent{}, fmt.Errorf("%w: agent %s: %v", ErrDataInconsistency, symbol, err)
	}
	gates, err := c.remote.GetJumpGateWaypoints(ctx, system)
	if err != nil {
		return repository.NewAgent{}, fmt.Errorf("获取星系 %s 跃迁门失败: %w", system, err)
	}
	if len(gates) == 0 {
		return repository.NewAgent{}, fmt.Errorf("%w: 星系 %s 没有跃迁门", ErrDataInconsistency, system)
	}
	if len(gates) > 1 {
		slog.Warn("星系存在多个跃迁门，使用第一个", "system", system, "count", len(gates))
	}
	return repository.NewAgent{
		Symbol:                 symbol,
		Headquarters:           agent.Headquarters,
		StartingFaction:        agent.StartingFaction,
		JumpGateWaypointSymbol: gates[0].Symbol,
	}, nil
}

// fetchCurrent 并发拉取所有已跟踪 agent 与工地的当前状态
func (c *Collector) fetchCurrent(ctx context.Context, agents []schema.Agent, sites []schema.ConstructionSite) ([]repository.AgentObservation, []repository.SiteObservation, error) {
	agentObs := make([]repository.AgentObservation, len(agents))
	siteObs := make([]repository.SiteObservation, len(sites))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, a := range agents {
		g.Go(func() error {
			info, err := c.remote.GetPublicAgent(gctx, a.AgentSymbol)
			if err != nil {
				return fmt.Errorf("获取 agent %s 失败: %w", a.AgentSymbol, err)
			}
			agentObs[i] = repository.AgentObservation{
				Symbol:    a.AgentSymbol,
				Credits:   info.Credits,
				ShipCount: int64(info.ShipCount),
			}
			return nil
		})
	}
	for i, s := range sites {
		g.Go(func() error {
			cs, err := c.remote.GetConstructionSite(gctx, s.JumpGateWaypointSymbol)
			if err != nil {
				return fmt.Errorf("获取工地 %s 失败: %w", s.JumpGateWaypointSymbol, err)
			}
			mats := make([]repository.MaterialObservation, 0, len(cs.Materials))
			for _, m := range cs.Materials {
				mats = append(mats, repository.MaterialObservation{
					TradeSymbol: m.TradeSymbol,
					Required:    m.Required,
					Fulfilled:   m.Fulfilled,
				})
			}
			siteObs[i] = repository.SiteObservation{
				WaypointSymbol: s.JumpGateWaypointSymbol,
				IsComplete:     cs.IsComplete,
				Materials:      mats,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return agentObs, siteObs, nil
}
