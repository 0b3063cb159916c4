// Package pagination 并发拉取分页接口的全部页面。
package pagination

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// DefaultPageSize 远端分页接口允许的最大 limit
const DefaultPageSize = 20

// Page 单页结果
type Page[T any] struct {
	Items []T
	Total int
	Limit int
}

// FetchFunc 拉取第 page 页（从 1 开始）
type FetchFunc[T any] func(ctx context.Context, page, limit int) (Page[T], error)

// Options 拉取参数
type Options struct {
	PageSize    int
	Concurrency int // <=0 表示不限制
}

// Paginate 先拉第一页拿到 total，再并发拉取剩余页面，结果按页码顺序拼接。
// 任意一页失败则整体失败。
func Paginate[T any](ctx context.Context, opts Options, fetch FetchFunc[T]) ([]T, error) {
	limit := opts.PageSize
	if limit <= 0 {
		limit = DefaultPageSize
	}

	first, err := fetch(ctx, 1, limit)
	if err != nil {
		return nil, fmt.Errorf("拉取第 1 页失败: %w", err)
	}

	pageLimit := first.Limit
	if pageLimit <= 0 {
		pageLimit = limit
	}
	totalPages := (first.Total + pageLimit - 1) / pageLimit
	if totalPages <= 1 {
		return first.Items, nil
	}

	pages := make([][]T, totalPages)
	pages[0] = first.Items

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for p := 2; p <= totalPages; p++ {
		g.Go(func() error {
			slog.Debug("拉取分页", "page", p, "total_pages", totalPages)
			res, err := fetch(gctx, p, pageLimit)
			if err != nil {
				return fmt.Errorf("拉取第 %d 页失败: %w", p, err)
			}
			pages[p-1] = res.Items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]T, 0, first.Total)
	for _, items := range pages {
		out = append(out, items...)
	}
	return out, nil
}
