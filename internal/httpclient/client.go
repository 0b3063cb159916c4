// Package httpclient 提供带全局限速与重试的出站 HTTP 客户端。
//
// 限速放在 Transport 层，每一次实际发出的请求（包括重试）都会先等待令牌。
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// ErrRateLimiterCancelled 等待令牌时上下文已取消或将超出截止时间
var ErrRateLimiterCancelled = errors.New("rate limiter cancelled")

// Options 客户端参数
type Options struct {
	Token         string
	RatePerSecond float64
	Burst         int
	MaxAttempts   int // 总尝试次数，含首次
	RetryWaitMin  time.Duration
	RetryWaitMax  time.Duration
	Timeout       time.Duration

	// Limiter 非空时直接使用（多客户端共享同一限速器）
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

// Client 出站客户端
type Client struct {
	retry *retryablehttp.Client
}

// New 创建客户端
func New(opts Options) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = time.Second
	}
	if opts.RetryWaitMax < opts.RetryWaitMin {
		opts.RetryWaitMax = opts.RetryWaitMin
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewLimiter(opts.RatePerSecond, opts.Burst)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.MaxAttempts - 1
	rc.RetryWaitMin = opts.RetryWaitMin
	rc.RetryWaitMax = opts.RetryWaitMax
	rc.Logger = logger.With("component", "httpclient")
	rc.CheckRetry = checkRetry
	if opts.Timeout > 0 {
		rc.HTTPClient.Timeout = opts.Timeout
	}
	rc.HTTPClient.Transport = &limiterTransport{
		base:    rc.HTTPClient.Transport,
		limiter: limiter,
		token:   opts.Token,
	}

	return &Client{retry: rc}
}

// NewLimiter 按每秒请求数创建限速器，非正数视为不限速
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// StandardClient 返回包装了重试逻辑的 *http.Client
func (c *Client) StandardClient() *http.Client {
	return c.retry.StandardClient()
}

// Do 发送请求，网络错误、429 与 5xx 会按退避重试
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	rreq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("构造重试请求失败: %w", err)
	}
	return c.retry.Do(rreq)
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if errors.Is(err, ErrRateLimiterCancelled) {
		return false, err
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

type limiterTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
	token   string
}

func (t *limiterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateLimiterCancelled, err)
	}
	if t.token != "" && req.Header.Get("Authorization") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
