// Package stclient 封装 SpaceTraders 公开接口。
package stclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yuqie6/st-leaderboard/internal/pagination"
)

// WaypointTypeJumpGate 跃迁门航点类型
const WaypointTypeJumpGate = "JUMP_GATE"

// Doer 发送 HTTP 请求（httpclient.Client 满足该接口）
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError 远端返回非 2xx
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s 返回 %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client 远端 API 客户端
type Client struct {
	doer    Doer
	baseURL string
}

// New 创建客户端，baseURL 形如 https://api.spacetraders.io/v2
func New(doer Doer, baseURL string) *Client {
	return &Client{doer: doer, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// GetStatus 世界状态与官方榜单
func (c *Client) GetStatus(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.getJSON(ctx, "/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPublicAgent 查询单个 agent
func (c *Client) GetPublicAgent(ctx context.Context, symbol string) (*Agent, error) {
	var out dataEnvelope[Agent]
	if err := c.getJSON(ctx, "/agents/"+url.PathEscape(symbol), nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// GetJumpGateWaypoints 查询星系内的跃迁门航点
func (c *Client) GetJumpGateWaypoints(ctx context.Context, system string) ([]Waypoint, error) {
	q := url.Values{"type": []string{WaypointTypeJumpGate}}
	var out pageEnvelope[Waypoint]
	if err := c.getJSON(ctx, "/systems/"+url.PathEscape(system)+"/waypoints", q, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetConstructionSite 查询工地状态
func (c *Client) GetConstructionSite(ctx context.Context, waypoint string) (*Construction, error) {
	system, err := SystemSymbol(waypoint)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/systems/%s/waypoints/%s/construction", url.PathEscape(system), url.PathEscape(waypoint))
	var out dataEnvelope[Construction]
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// ListAgentsPage 拉取一页 agent
func (c *Client) ListAgentsPage(ctx context.Context, page, limit int) (pagination.Page[Agent], error) {
	var out pageEnvelope[Agent]
	if err := c.getJSON(ctx, "/agents", pageQuery(page, limit), &out); err != nil {
		return pagination.Page[Agent]{}, err
	}
	return pagination.Page[Agent]{Items: out.Data, Total: out.Meta.Total, Limit: out.Meta.Limit}, nil
}

// ListAllAgents 拉取全部 agent
func (c *Client) ListAllAgents(ctx context.Context, concurrency int) ([]Agent, error) {
	return pagination.Paginate(ctx, pagination.Options{Concurrency: concurrency}, c.ListAgentsPage)
}

// ListSystemWaypointsPage 拉取星系内一页航点
func (c *Client) ListSystemWaypointsPage(ctx context.Context, system string, page, limit int) (pagination.Page[Waypoint], error) {
	var out pageEnvelope[Waypoint]
	if err := c.getJSON(ctx, "/systems/"+url.PathEscape(system)+"/waypoints", pageQuery(page, limit), &out); err != nil {
		return pagination.Page[Waypoint]{}, err
	}
	return pagination.Page[Waypoint]{Items: out.Data, Total: out.Meta.Total, Limit: out.Meta.Limit}, nil
}

// ListSystemWaypoints 拉取星系内全部航点
func (c *Client) ListSystemWaypoints(ctx context.Context, system string, concurrency int) ([]Waypoint, error) {
	return pagination.Paginate(ctx, pagination.Options{Concurrency: concurrency},
		func(ctx context.Context, page, limit int) (pagination.Page[Waypoint], error) {
			return c.ListSystemWaypointsPage(ctx, system, page, limit)
		})
}

// SystemSymbol 由航点符号取星系符号：X1-AB12-C3 -> X1-AB12
func SystemSymbol(waypoint string) (string, error) {
	parts := strings.Split(waypoint, "-")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("无法解析航点符号 %q", waypoint)
	}
	return parts[0] + "-" + parts[1], nil
}

func pageQuery(page, limit int) url.Values {
	return url.Values{
		"page":  []string{strconv.Itoa(page)},
		"limit": []string{strconv.Itoa(limit)},
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("请求 %s 失败: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Method: http.MethodGet, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析 %s 响应失败: %w", path, err)
	}
	return nil
}
