package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/st-leaderboard/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrResetNotFound 指定日期的周期不存在
var ErrResetNotFound = errors.New("reset not found")

// ResetInfo 周期及其派生字段（查询时计算，不落库）
type ResetInfo struct {
	ResetID   int64
	Date      string
	FirstTs   int64 // Unix 毫秒
	LatestTs  int64 // 最近一次采集时间，无采集时等于 FirstTs
	IsOngoing bool  // 不存在更晚的周期
}

// DurationMinutes 周期已持续的分钟数
func (r ResetInfo) DurationMinutes() int64 {
	return EventTimeMinutes(r.FirstTs, r.LatestTs)
}

type resetRow struct {
	ResetID  int64
	Reset    string
	FirstTs  int64
	LatestTs int64
}

const resetSelect = `
select r.reset_id
     , r.reset
     , r.first_ts
     , coalesce(max(jr.query_time), r.first_ts) as latest_ts
  from reset_date r
  left join job_run jr on r.reset_id = jr.reset_id`

// ResetRepository 周期仓储
type ResetRepository struct {
	db *gorm.DB
}

// NewResetRepository 创建仓储
func NewResetRepository(db *gorm.DB) *ResetRepository {
	return &ResetRepository{db: db}
}

// LoadOrCreate 按日期加载周期，不存在则以 nowMs 作为 first_ts 创建。
// 依赖 reset 列唯一索引，并发创建只会留下一行。
func (r *ResetRepository) LoadOrCreate(ctx context.Context, date string, nowMs int64) (*ResetInfo, error) {
	row := schema.Reset{Date: date, FirstTs: nowMs}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reset"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("创建周期失败: %w", err)
	}
	return r.GetByDate(ctx, date)
}

// GetByDate 按日期查询周期
func (r *ResetRepository) GetByDate(ctx context.Context, date string) (*ResetInfo, error) {
	var rows []resetRow
	err := r.db.WithContext(ctx).
		Raw(resetSelect+`
 where r.reset = ?
 group by r.reset_id, r.reset, r.first_ts`, date).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询周期失败: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrResetNotFound, date)
	}

	var later int64
	if err := r.db.WithContext(ctx).Model(&schema.Reset{}).Where("reset > ?", date).Count(&later).Error; err != nil {
		return nil, fmt.Errorf("查询周期失败: %w", err)
	}

	info := toResetInfo(rows[0])
	info.IsOngoing = later == 0
	return &info, nil
}

// List 全部周期，按日期升序
func (r *ResetRepository) List(ctx context.Context) ([]ResetInfo, error) {
	var rows []resetRow
	err := r.db.WithContext(ctx).
		Raw(resetSelect + `
 group by r.reset_id, r.reset, r.first_ts
 order by r.reset`).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询周期列表失败: %w", err)
	}

	out := make([]ResetInfo, 0, len(rows))
	for _, row := range rows {
		out = append(out, toResetInfo(row))
	}
	if len(out) > 0 {
		out[len(out)-1].IsOngoing = true
	}
	return out, nil
}

func toResetInfo(row resetRow) ResetInfo {
	return ResetInfo{
		ResetID:  row.ResetID,
		Date:     row.Reset,
		FirstTs:  row.FirstTs,
		LatestTs: row.LatestTs,
	}
}
