package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// LeaderboardRow 周期最新一次采集中的 agent 状态
type LeaderboardRow struct {
	AgentSymbol                     string
	Credits                         int64
	ShipCount                       int64
	AgentHeadquartersWaypointSymbol string
	JumpGateWaypointSymbol          string
}

// AllTimeRow 每个周期内按资金排名
type AllTimeRow struct {
	ResetID     int64
	Reset       string
	AgentSymbol string
	Credits     int64
	Rank        int64
}

// AssignmentRow agent 与工地的归属关系
type AssignmentRow struct {
	ResetID                         int64
	ConstructionSiteID              int64
	AgentHeadquartersWaypointSymbol string
	JumpGateWaypointSymbol          string
	AgentSymbol                     string
}

// ProgressRow 最新一次采集中某工地某物资的进度
type ProgressRow struct {
	ConstructionSiteID        int64
	ConstructionRequirementID int64
	JumpGateWaypointSymbol    string
	TradeSymbol               string
	Fulfilled                 int64
	Required                  int64
	IsJumpGateComplete        bool
	TsLatestEntryOfReset      int64
}

// DeliveryEvent (工地, 物资) 的完成量首次超过初始值的那次采集
type DeliveryEvent struct {
	ResetID                   int64
	ConstructionSiteID        int64
	ConstructionRequirementID int64
	JobID                     int64
	QueryTime                 int64
}

// CompletionEvent 工地首次标记完成的那次采集
type CompletionEvent struct {
	ResetID            int64
	ConstructionSiteID int64
	QueryTime          int64
}

// HistoryFilter 历史曲线查询条件，窗口为闭区间 [From, To]
type HistoryFilter struct {
	ResetID      int64
	From         int64
	To           int64
	Resolution   int64
	AgentSymbols []string
}

// AgentHistoryPoint agent 曲线上的一个采样点
type AgentHistoryPoint struct {
	AgentSymbol        string
	ConstructionSiteID int64
	EventTimeMinutes   int64
	Credits            int64
	ShipCount          int64
}

// MaterialHistoryPoint 物资曲线上的一个采样点
type MaterialHistoryPoint struct {
	JumpGateWaypointSymbol string
	TradeSymbol            string
	Required               int64
	EventTimeMinutes       int64
	Fulfilled              int64
}

// QueryRepository 只读聚合查询
type QueryRepository struct {
	db *gorm.DB
}

// NewQueryRepository 创建仓储
func NewQueryRepository(db *gorm.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// latestJobOfReset 周期内最新的一次采集
const latestJobOfReset = `
select id, query_time
  from job_run
 where reset_id = ?
 order by query_time desc, id desc
 limit 1`

// Leaderboard 最新一次采集的排行：资金降序，其次飞船数降序
func (r *QueryRepository) Leaderboard(ctx context.Context, resetID int64) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := r.db.WithContext(ctx).Raw(`
with latest as (`+latestJobOfReset+`)
select sai.agent_symbol
     , al.credits
     , al.ship_count
     , sai.agent_headquarters_waypoint_symbol
     , cs.jump_gate_waypoint_symbol
  from latest l
  join agent_log al on al.job_id = l.id
  join static_agent_info sai on al.agent_id = sai.id
  join construction_site cs on sai.construction_site_id = cs.id
 order by al.credits desc, al.ship_count desc, sai.agent_symbol`, resetID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询排行榜失败: %w", err)
	}
	return rows, nil
}

// AllTimePerformance 各周期最新一次采集中的资金排名，同资金按符号升序
func (r *QueryRepository) AllTimePerformance(ctx context.Context) ([]AllTimeRow, error) {
	var rows []AllTimeRow
	err := r.db.WithContext(ctx).Raw(`
with latest as (
    select id, reset_id
      from (select jr.id
                 , jr.reset_id
                 , row_number() over (partition by jr.reset_id order by jr.query_time desc, jr.id desc) as rn
              from job_run jr) sub
     where rn = 1)
select r.reset_id
     , r.reset
     , sai.agent_symbol
     , al.credits
     , row_number() over (partition by r.reset_id order by al.credits desc, sai.agent_symbol) as rank
  from latest l
  join reset_date r on r.reset_id = l.reset_id
  join agent_log al on al.job_id = l.id
  join static_agent_info sai on al.agent_id = sai.id
 order by r.reset, rank`).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询历史表现失败: %w", err)
	}
	return rows, nil
}

// Assignments agent 与工地归属，resetID 为 0 时返回全部周期
func (r *QueryRepository) Assignments(ctx context.Context, resetID int64) ([]AssignmentRow, error) {
	var rows []AssignmentRow
	err := r.db.WithContext(ctx).Raw(`
select sai.reset_id
     , sai.construction_site_id
     , sai.agent_headquarters_waypoint_symbol
     , cs.jump_gate_waypoint_symbol
     , sai.agent_symbol
  from static_agent_info sai
  join construction_site cs on sai.construction_site_id = cs.id
 where (? = 0 or sai.reset_id = ?)
 order by sai.reset_id, cs.jump_gate_waypoint_symbol, sai.agent_headquarters_waypoint_symbol, sai.agent_symbol`,
		resetID, resetID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询工地归属失败: %w", err)
	}
	return rows, nil
}

// MostRecentProgress 最新一次采集中各工地的物资进度（忽略需求量不超过 1 的物资）
func (r *QueryRepository) MostRecentProgress(ctx context.Context, resetID int64) ([]ProgressRow, error) {
	var rows []ProgressRow
	err := r.db.WithContext(ctx).Raw(`
with latest as (`+latestJobOfReset+`)
select cl.construction_site_id
     , cml.construction_requirement_id
     , cs.jump_gate_waypoint_symbol
     , cr.trade_symbol
     , cml.fulfilled
     , cr.required
     , cl.is_complete as is_jump_gate_complete
     , l.query_time   as ts_latest_entry_of_reset
  from latest l
  join construction_log cl on cl.job_id = l.id
  join construction_site cs on cl.construction_site_id = cs.id
  join construction_material_log cml on cml.construction_log_id = cl.id
  join construction_requirement cr on cml.construction_requirement_id = cr.id
 where cr.required > 1
 order by cs.jump_gate_waypoint_symbol, cr.trade_symbol`, resetID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询工地进度失败: %w", err)
	}
	return rows, nil
}

// FirstDeliveryEvents 每个 (工地, 物资) 完成量第一次超过初始值的采集，resetID 为 0 时返回全部周期
func (r *QueryRepository) FirstDeliveryEvents(ctx context.Context, resetID int64) ([]DeliveryEvent, error) {
	var rows []DeliveryEvent
	err := r.db.WithContext(ctx).Raw(`
with material as (
    select jr.reset_id
         , cl.construction_site_id
         , cml.construction_requirement_id
         , jr.id as job_id
         , jr.query_time
         , cml.fulfilled
         , first_value(cml.fulfilled) over (
               partition by cl.construction_site_id, cml.construction_requirement_id
               order by jr.query_time, jr.id) as initial_fulfilled
      from construction_material_log cml
      join construction_log cl on cml.construction_log_id = cl.id
      join job_run jr on cl.job_id = jr.id
     where (? = 0 or jr.reset_id = ?))
, changed as (
    select m.*
         , row_number() over (
               partition by m.construction_site_id, m.construction_requirement_id
               order by m.query_time, m.job_id) as rn
      from material m
     where m.fulfilled > m.initial_fulfilled)
select reset_id
     , construction_site_id
     , construction_requirement_id
     , job_id
     , query_time
  from changed
 where rn = 1
 order by reset_id, construction_site_id, construction_requirement_id`, resetID, resetID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询交付事件失败: %w", err)
	}
	return rows, nil
}

// CompletionEvents 每个工地第一次完成的采集，resetID 为 0 时返回全部周期
func (r *QueryRepository) CompletionEvents(ctx context.Context, resetID int64) ([]CompletionEvent, error) {
	var rows []CompletionEvent
	err := r.db.WithContext(ctx).Raw(`
select jr.reset_id
     , cl.construction_site_id
     , min(jr.query_time) as query_time
  from construction_log cl
  join job_run jr on cl.job_id = jr.id
 where cl.is_complete
   and (? = 0 or jr.reset_id = ?)
 group by jr.reset_id, cl.construction_site_id
 order by jr.reset_id, cl.construction_site_id`, resetID, resetID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询完工事件失败: %w", err)
	}
	return rows, nil
}

// AgentHistory 窗口内按分辨率降采样的 agent 曲线，窗口末尾一个分辨率内的点总是保留
func (r *QueryRepository) AgentHistory(ctx context.Context, f HistoryFilter) ([]AgentHistoryPoint, error) {
	if len(f.AgentSymbols) == 0 {
		return nil, nil
	}
	if f.Resolution <= 0 {
		return nil, fmt.Errorf("resolution 必须为正数: %d", f.Resolution)
	}
	var rows []AgentHistoryPoint
	err := r.db.WithContext(ctx).Raw(`
select sai.agent_symbol
     , sai.construction_site_id
     , jr.event_time_minutes
     , al.credits
     , al.ship_count
  from job_run jr
  join agent_log al on al.job_id = jr.id
  join static_agent_info sai on al.agent_id = sai.id
 where jr.reset_id = ?
   and jr.event_time_minutes >= ?
   and jr.event_time_minutes <= ?
   and (jr.event_time_minutes % ? = 0 or jr.event_time_minutes >= ?)
   and sai.agent_symbol in ?
 order by sai.agent_symbol, jr.event_time_minutes`,
		f.ResetID, f.From, f.To, f.Resolution, f.To-f.Resolution, f.AgentSymbols).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询 agent 历史失败: %w", err)
	}
	return rows, nil
}

// ConstructionHistory 过滤后 agent 所属工地的物资曲线，采样规则同 AgentHistory
func (r *QueryRepository) ConstructionHistory(ctx context.Context, f HistoryFilter) ([]MaterialHistoryPoint, error) {
	if len(f.AgentSymbols) == 0 {
		return nil, nil
	}
	if f.Resolution <= 0 {
		return nil, fmt.Errorf("resolution 必须为正数: %d", f.Resolution)
	}
	var rows []MaterialHistoryPoint
	err := r.db.WithContext(ctx).Raw(`
select cs.jump_gate_waypoint_symbol
     , cr.trade_symbol
     , cr.required
     , jr.event_time_minutes
     , cml.fulfilled
  from job_run jr
  join construction_log cl on cl.job_id = jr.id
  join construction_site cs on cl.construction_site_id = cs.id
  join construction_material_log cml on cml.construction_log_id = cl.id
  join construction_requirement cr on cml.construction_requirement_id = cr.id
 where jr.reset_id = ?
   and jr.event_time_minutes >= ?
   and jr.event_time_minutes <= ?
   and (jr.event_time_minutes % ? = 0 or jr.event_time_minutes >= ?)
   and cr.required > 1
   and cs.id in (select construction_site_id
                   from static_agent_info
                  where reset_id = ?
                    and agent_symbol in ?)
 order by cs.jump_gate_waypoint_symbol, cr.trade_symbol, jr.event_time_minutes`,
		f.ResetID, f.From, f.To, f.Resolution, f.To-f.Resolution, f.ResetID, f.AgentSymbols).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询工地历史失败: %w", err)
	}
	return rows, nil
}
