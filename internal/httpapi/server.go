package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuqie6/st-leaderboard/internal/bootstrap"
	"github.com/yuqie6/st-leaderboard/internal/dto"
	"github.com/yuqie6/st-leaderboard/internal/eventbus"
	"github.com/yuqie6/st-leaderboard/internal/pkg/buildinfo"
	"github.com/yuqie6/st-leaderboard/internal/uiassets"
)

// LocalServer 对外 HTTP 服务
type LocalServer struct {
	ln      net.Listener
	srv     *http.Server
	baseURL string
}

type Options struct {
	ListenAddr string // e.g. "0.0.0.0:8080"
}

// Config 构建路由需要的依赖
type Config struct {
	Queries        Queries
	Hub            *eventbus.Hub
	Gatherer       prometheus.Gatherer
	Status         func() dto.StatusDTO // 为空时 /api/status 只返回应用信息
	Assets         fs.FS                // 为空时只提供 API
	AllowedOrigins []string
	AppName        string
	Version        string
	StartedAt      time.Time
}

// Start 监听并在后台提供服务，ctx 取消后自动关闭
func Start(ctx context.Context, rt *bootstrap.AgentRuntime, opts Options) (*LocalServer, error) {
	if rt == nil {
		return nil, fmt.Errorf("rt 不能为空")
	}
	if strings.TrimSpace(opts.ListenAddr) == "" {
		opts.ListenAddr = rt.Cfg.Server.BindAddress()
	}

	ln, err := net.Listen("tcp", opts.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("监听 %s 失败: %w", opts.ListenAddr, err)
	}
	baseURL := "http://" + ln.Addr().String()

	assets, assetSource := pickUIFS(rt.Cfg.Server.AssetDir)
	slog.Info("UI 资源来源", "source", assetSource)

	handler := NewHandler(Config{
		Queries:        rt.Services.Query,
		Hub:            rt.Hub,
		Gatherer:       rt.Registry,
		Status:         func() dto.StatusDTO { return runtimeStatus(rt) },
		Assets:         assets,
		AllowedOrigins: rt.Cfg.Server.CORSAllowedOrigins,
		AppName:        rt.Cfg.App.Name,
		Version:        buildinfo.Version,
		StartedAt:      rt.StartedAt,
	})

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ls := &LocalServer{ln: ln, srv: srv, baseURL: baseURL}

	go func() {
		<-ctx.Done()
		_ = ls.Shutdown(context.Background())
	}()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server 异常退出", "error", err)
		}
	}()

	slog.Info("HTTP 服务已启动", "base_url", baseURL)
	return ls, nil
}

func (s *LocalServer) BaseURL() string {
	if s == nil {
		return ""
	}
	return s.baseURL
}

func (s *LocalServer) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// NewHandler 组装路由
func NewHandler(cfg Config) http.Handler {
	if cfg.Hub == nil {
		cfg.Hub = eventbus.NewHub()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.NewRegistry()
	}
	if cfg.StartedAt.IsZero() {
		cfg.StartedAt = time.Now()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	a := &apiServer{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", a.handleStatus)
		r.Get("/events", a.handleSSE)
		a.registerJSONRoutes(r)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not found")
		})
	})

	if cfg.Assets != nil {
		r.Handle("/*", spaHandler(cfg.Assets, "index.html"))
	}
	return r
}

type apiServer struct {
	cfg Config
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.HealthDTO{
		OK:        true,
		Name:      a.cfg.AppName,
		Version:   a.cfg.Version,
		StartedAt: a.cfg.StartedAt.UTC().Format(time.RFC3339),
	})
}

func (a *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	var status dto.StatusDTO
	if a.cfg.Status != nil {
		status = a.cfg.Status()
	}
	status.App.Name = a.cfg.AppName
	status.App.Version = a.cfg.Version
	status.App.Commit = buildinfo.Commit
	status.App.StartedAt = a.cfg.StartedAt.UTC().Format(time.RFC3339)
	status.App.UptimeSec = int64(time.Since(a.cfg.StartedAt).Seconds())
	status.Collector.Subscribers = a.cfg.Hub.Subscribers()
	writeJSON(w, http.StatusOK, status)
}

func runtimeStatus(rt *bootstrap.AgentRuntime) dto.StatusDTO {
	out := dto.StatusDTO{
		App: dto.AppStatusDTO{ConfigPath: rt.CfgPath},
		Storage: dto.StorageStatusDTO{
			DBPath: rt.Cfg.Storage.DBPath,
		},
		Collector: dto.CollectorStatusDTO{
			Enabled:  rt.Scheduler != nil,
			Schedule: rt.Cfg.Collector.Schedule,
		},
	}
	if rt.DB != nil {
		out.Storage.SchemaVersion = rt.DB.SchemaVersion
	}
	if rt.Scheduler != nil {
		if last := rt.Scheduler.Last(); last != nil {
			out.Collector.LastTick = &dto.LastTickDTO{
				At:               formatTs(last.At),
				OK:               last.OK,
				Error:            last.Error,
				ResetDate:        last.ResetDate,
				JobRunID:         last.JobRunID,
				EventTimeMinutes: last.EventTimeMinutes,
				DurationMs:       last.Duration.Milliseconds(),
			}
		}
	}
	return out
}

// requestLogger 访问日志走 slog，级别为 Debug
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("http 请求",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func pickUIFS(assetDir string) (fs.FS, string) {
	if assetDir != "" {
		if _, err := os.Stat(filepath.Join(assetDir, "index.html")); err == nil {
			return os.DirFS(assetDir), assetDir
		}
		slog.Warn("静态资源目录缺少 index.html，使用内置页面", "dir", assetDir)
	}
	return uiassets.FS(), "embedded"
}
