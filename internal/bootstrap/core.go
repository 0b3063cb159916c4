package bootstrap

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/yuqie6/st-leaderboard/internal/httpclient"
	"github.com/yuqie6/st-leaderboard/internal/pkg/config"
	"github.com/yuqie6/st-leaderboard/internal/repository"
	"github.com/yuqie6/st-leaderboard/internal/service"
	"github.com/yuqie6/st-leaderboard/internal/stclient"
)

// Core 持有跨二进制共享的核心依赖
type Core struct {
	Cfg       *config.Config
	CfgPath   string
	DB        *repository.Database
	LogCloser io.Closer
	Registry  *prometheus.Registry
	StartedAt time.Time

	Repos struct {
		Reset     *repository.ResetRepository
		Dimension *repository.DimensionRepository
		Snapshot  *repository.SnapshotRepository
		Query     *repository.QueryRepository
	}

	Services struct {
		Collector *service.Collector
		Query     *service.QueryService
	}

	Clients struct {
		HTTP   *httpclient.Client
		Remote *stclient.Client
	}
}

// NewCore 构建核心依赖（不启动调度）
func NewCore(cfgPath string) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logCloser, _ := config.SetupLogger(config.LoggerOptions{
		Level:     cfg.App.LogLevel,
		Path:      cfg.App.LogPath,
		Format:    cfg.App.LogFormat,
		Component: filepath.Base(os.Args[0]),
	})

	db, err := repository.NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		if logCloser != nil {
			_ = logCloser.Close()
		}
		return nil, err
	}

	c := &Core{
		Cfg:       cfg,
		CfgPath:   cfgPath,
		DB:        db,
		LogCloser: logCloser,
		Registry:  prometheus.NewRegistry(),
		StartedAt: time.Now(),
	}
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Repos
	c.Repos.Reset = repository.NewResetRepository(db.DB)
	c.Repos.Dimension = repository.NewDimensionRepository(db.DB)
	c.Repos.Snapshot = repository.NewSnapshotRepository(db.DB)
	c.Repos.Query = repository.NewQueryRepository(db.DB)

	// Clients：一个进程只有一个限速器
	c.Clients.HTTP = httpclient.New(httpclient.Options{
		Token:         cfg.Remote.Token,
		RatePerSecond: cfg.Remote.RatePerSecond,
		Burst:         cfg.Remote.Burst,
		MaxAttempts:   cfg.Remote.MaxAttempts,
		RetryWaitMin:  time.Duration(cfg.Remote.RetryWaitMinMs) * time.Millisecond,
		RetryWaitMax:  time.Duration(cfg.Remote.RetryWaitMaxMs) * time.Millisecond,
		Timeout:       time.Duration(cfg.Remote.TimeoutSec) * time.Second,
	})
	c.Clients.Remote = stclient.New(c.Clients.HTTP, cfg.Remote.BaseURL)

	// Services
	c.Services.Collector = service.NewCollector(
		c.Clients.Remote,
		c.Repos.Reset,
		c.Repos.Dimension,
		c.Repos.Snapshot,
		service.NewMetrics(c.Registry),
		service.CollectorConfig{Concurrency: cfg.Collector.Concurrency},
	)
	c.Services.Query = service.NewQueryService(c.Repos.Reset, c.Repos.Query)

	return c, nil
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	var dbErr error
	if c.DB != nil {
		dbErr = c.DB.Close()
	}
	if c.LogCloser != nil {
		_ = c.LogCloser.Close()
	}
	return dbErr
}
