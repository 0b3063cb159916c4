package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yuqie6/st-leaderboard/internal/eventbus"
)

// ErrTickInProgress 上一次采集尚未结束
var ErrTickInProgress = errors.New("tick already in progress")

// Ticker 执行一次采集
type Ticker interface {
	Tick(ctx context.Context) (*TickResult, error)
}

// Publisher 推送采集事件
type Publisher interface {
	Publish(evt eventbus.Event)
}

// SchedulerConfig 调度参数
type SchedulerConfig struct {
	Schedule   string // 标准 5 段 cron 表达式
	RunOnStart bool
}

// LastTick 最近一次采集的状态
type LastTick struct {
	At               int64 // Unix 毫秒
	OK               bool
	Error            string
	ResetDate        string
	JobRunID         int64
	EventTimeMinutes int64
	Duration         time.Duration
}

// Scheduler 按 cron 表达式触发采集，与 HTTP 服务相互独立
type Scheduler struct {
	ticker       Ticker
	checkpointer Checkpointer
	publisher    Publisher
	cfg          SchedulerConfig

	cron    *cron.Cron
	running atomic.Bool

	mu   sync.RWMutex
	last *LastTick
}

// NewScheduler 创建调度器，checkpointer 与 publisher 可为 nil
func NewScheduler(ticker Ticker, checkpointer Checkpointer, publisher Publisher, cfg SchedulerConfig) *Scheduler {
	if cfg.Schedule == "" {
		cfg.Schedule = "*/5 * * * *"
	}
	logger := cronLogger{l: slog.Default().With("component", "scheduler")}
	return &Scheduler{
		ticker:       ticker,
		checkpointer: checkpointer,
		publisher:    publisher,
		cfg:          cfg,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start 注册定时任务并启动；ctx 取消后不再发起新的远端请求
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		_, _ = s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("解析调度表达式 %q 失败: %w", s.cfg.Schedule, err)
	}
	s.cron.Start()
	slog.Info("采集调度已启动", "schedule", s.cfg.Schedule, "run_on_start", s.cfg.RunOnStart)

	if s.cfg.RunOnStart {
		go func() { _, _ = s.RunOnce(ctx) }()
	}
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce 立即执行一次采集；失败只记录，不影响后续调度
func (s *Scheduler) RunOnce(ctx context.Context) (*TickResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		slog.Warn("上一次采集仍在进行，跳过")
		return nil, ErrTickInProgress
	}
	defer s.running.Store(false)

	res, err := s.ticker.Tick(ctx)
	last := &LastTick{At: time.Now().UnixMilli(), OK: err == nil}
	if err != nil {
		last.Error = err.Error()
		s.publish(eventbus.Event{Type: eventbus.TypeTickFailed, Data: map[string]any{"error": err.Error()}})
	} else {
		last.ResetDate = res.ResetDate
		last.JobRunID = res.JobRunID
		last.EventTimeMinutes = res.EventTimeMinutes
		last.Duration = res.Duration
		s.publish(eventbus.Event{Type: eventbus.TypeTickCompleted, Data: map[string]any{
			"resetDate":        res.ResetDate,
			"jobRunId":         res.JobRunID,
			"eventTimeMinutes": res.EventTimeMinutes,
			"discovered":       len(res.Discovered),
			"trackedAgents":    res.TrackedAgents,
			"trackedSites":     res.TrackedSites,
		}})
		if s.checkpointer != nil {
			if cerr := s.checkpointer.Checkpoint(ctx); cerr != nil {
				slog.Warn("WAL checkpoint 失败", "error", cerr)
			}
		}
	}

	s.mu.Lock()
	s.last = last
	s.mu.Unlock()
	return res, err
}

// Last 最近一次采集状态，尚未执行过时返回 nil
func (s *Scheduler) Last() *LastTick {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	cp := *s.last
	return &cp
}

func (s *Scheduler) publish(evt eventbus.Event) {
	if s.publisher != nil {
		s.publisher.Publish(evt)
	}
}

// cronLogger 把 cron 的日志接到 slog
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
