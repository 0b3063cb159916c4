package service

import (
	"context"
	"fmt"

	"github.com/yuqie6/st-leaderboard/internal/repository"
)

// QueryService 只读聚合查询
type QueryService struct {
	resets  ResetRepository
	queries QueryRepository
}

// NewQueryService 创建查询服务
func NewQueryService(resets ResetRepository, queries QueryRepository) *QueryService {
	return &QueryService{resets: resets, queries: queries}
}

// JumpGateAssignment 共享同一跃迁门的一组 agent
type JumpGateAssignment struct {
	AgentHeadquartersWaypointSymbol string
	JumpGateWaypointSymbol          string
	Agents                          []string
}

// ConstructionProgress 工地某物资的最新进度
type ConstructionProgress struct {
	JumpGateWaypointSymbol string
	TradeSymbol            string
	Fulfilled              int64
	Required               int64
	IsJumpGateComplete     bool
	TsStartOfReset         int64
	TsLatestEntryOfReset   int64
}

// ConstructionEventOverview 工地某物资的首次交付与完工时间
type ConstructionEventOverview struct {
	JumpGateWaypointSymbol   string
	TradeSymbol              string
	Fulfilled                int64
	Required                 int64
	IsJumpGateComplete       bool
	TsStartOfReset           int64
	TsFirstConstructionEvent *int64
	TsLastConstructionEvent  *int64
}

// HistoryRequest 历史曲线请求
type HistoryRequest struct {
	AgentSymbols        []string
	SelectionMode       SelectionMode
	EventTimeMinutesGte *int64
	EventTimeMinutesLte int64
}

// AgentSeries agent 的降采样曲线，各数组等长且按事件时间升序
type AgentSeries struct {
	AgentSymbol        string
	ConstructionSiteID int64
	EventTimesMinutes  []int64
	CreditsTimeline    []int64
	ShipCountTimeline  []int64
}

// MaterialSeries 工地物资的降采样曲线
type MaterialSeries struct {
	JumpGateWaypointSymbol string
	TradeSymbol            string
	Required               int64
	EventTimesMinutes      []int64
	FulfilledTimeline      []int64
}

// HistoryResult 历史曲线结果
type HistoryResult struct {
	Reset                       repository.ResetInfo
	Window                      Window
	AgentHistory                []AgentSeries
	ConstructionMaterialHistory []MaterialSeries
}

func (s *QueryService) reset(ctx context.Context, date string) (*repository.ResetInfo, error) {
	normalized, err := repository.ParseResetDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResetDate, date)
	}
	return s.resets.GetByDate(ctx, normalized)
}

// ListResets 全部周期
func (s *QueryService) ListResets(ctx context.Context) ([]repository.ResetInfo, error) {
	return s.resets.List(ctx)
}

// Leaderboard 周期最新排行
func (s *QueryService) Leaderboard(ctx context.Context, date string) (*repository.ResetInfo, []repository.LeaderboardRow, error) {
	reset, err := s.reset(ctx, date)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.queries.Leaderboard(ctx, reset.ResetID)
	if err != nil {
		return nil, nil, err
	}
	return reset, rows, nil
}

// AllTimePerformance 各周期资金排名
func (s *QueryService) AllTimePerformance(ctx context.Context) ([]repository.AllTimeRow, error) {
	return s.queries.AllTimePerformance(ctx)
}

// JumpGateAssignments 周期内按 (总部, 跃迁门) 分组的 agent
func (s *QueryService) JumpGateAssignments(ctx context.Context, date string) (*repository.ResetInfo, []JumpGateAssignment, error) {
	reset, err := s.reset(ctx, date)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.queries.Assignments(ctx, reset.ResetID)
	if err != nil {
		return nil, nil, err
	}
	return reset, groupAssignments(rows), nil
}

// groupAssignments 行已按 (跃迁门, 总部, agent) 排序
func groupAssignments(rows []repository.AssignmentRow) []JumpGateAssignment {
	var out []JumpGateAssignment
	for _, row := range rows {
		n := len(out)
		if n > 0 && out[n-1].JumpGateWaypointSymbol == row.JumpGateWaypointSymbol &&
			out[n-1].AgentHeadquartersWaypointSymbol == row.AgentHeadquartersWaypointSymbol {
			out[n-1].Agents = append(out[n-1].Agents, row.AgentSymbol)
			continue
		}
		out = append(out, JumpGateAssignment{
			AgentHeadquartersWaypointSymbol: row.AgentHeadquartersWaypointSymbol,
			JumpGateWaypointSymbol:          row.JumpGateWaypointSymbol,
			Agents:                          []string{row.AgentSymbol},
		})
	}
	return out
}

// MostRecentProgress 周期最新一次采集的工地进度
func (s *QueryService) MostRecentProgress(ctx context.Context, date string) (*repository.ResetInfo, []ConstructionProgress, error) {
	reset, err := s.reset(ctx, date)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.queries.MostRecentProgress(ctx, reset.ResetID)
	if err != nil {
		return nil, nil, err
	}
	out := make([]ConstructionProgress, 0, len(rows))
	for _, row := range rows {
		out = append(out, ConstructionProgress{
			JumpGateWaypointSymbol: row.JumpGateWaypointSymbol,
			TradeSymbol:            row.TradeSymbol,
			Fulfilled:              row.Fulfilled,
			Required:               row.Required,
			IsJumpGateComplete:     row.IsJumpGateComplete,
			TsStartOfReset:         reset.FirstTs,
			TsLatestEntryOfReset:   row.TsLatestEntryOfReset,
		})
	}
	return reset, out, nil
}

// ConstructionEventOverview 周期内各 (工地, 物资) 的首次交付与完工时间
func (s *QueryService) ConstructionEventOverview(ctx context.Context, date string) (*repository.ResetInfo, []ConstructionEventOverview, error) {
	reset, err := s.reset(ctx, date)
	if err != nil {
		return nil, nil, err
	}
	progress, err := s.queries.MostRecentProgress(ctx, reset.ResetID)
	if err != nil {
		return nil, nil, err
	}
	firsts, err := s.queries.FirstDeliveryEvents(ctx, reset.ResetID)
	if err != nil {
		return nil, nil, err
	}
	completions, err := s.queries.CompletionEvents(ctx, reset.ResetID)
	if err != nil {
		return nil, nil, err
	}

	type key struct{ site, req int64 }
	firstByKey := make(map[key]int64, len(firsts))
	for _, e := range firsts {
		firstByKey[key{e.ConstructionSiteID, e.ConstructionRequirementID}] = e.QueryTime
	}
	doneBySite := make(map[int64]int64, len(completions))
	for _, e := range completions {
		doneBySite[e.ConstructionSiteID] = e.QueryTime
	}

	out := make([]ConstructionEventOverview, 0, len(progress))
	for _, row := range progress {
		entry := ConstructionEventOverview{
			JumpGateWaypointSymbol: row.JumpGateWaypointSymbol,
			TradeSymbol:            row.TradeSymbol,
			Fulfilled:              row.Fulfilled,
			Required:               row.Required,
			IsJumpGateComplete:     row.IsJumpGateComplete,
			TsStartOfReset:         reset.FirstTs,
		}
		if ts, ok := firstByKey[key{row.ConstructionSiteID, row.ConstructionRequirementID}]; ok {
			entry.TsFirstConstructionEvent = &ts
		}
		if ts, ok := doneBySite[row.ConstructionSiteID]; ok {
			entry.TsLastConstructionEvent = &ts
		}
		out = append(out, entry)
	}
	return reset, out, nil
}

// History 时间窗口内的降采样曲线
func (s *QueryService) History(ctx context.Context, date string, req HistoryRequest) (*HistoryResult, error) {
	reset, err := s.reset(ctx, date)
	if err != nil {
		return nil, err
	}
	w, err := ComputeWindow(req.SelectionMode, req.EventTimeMinutesGte, req.EventTimeMinutesLte, reset.DurationMinutes())
	if err != nil {
		return nil, err
	}

	f := repository.HistoryFilter{
		ResetID:      reset.ResetID,
		From:         w.From,
		To:           w.To,
		Resolution:   w.Resolution,
		AgentSymbols: req.AgentSymbols,
	}
	agentPoints, err := s.queries.AgentHistory(ctx, f)
	if err != nil {
		return nil, err
	}
	materialPoints, err := s.queries.ConstructionHistory(ctx, f)
	if err != nil {
		return nil, err
	}

	return &HistoryResult{
		Reset:                       *reset,
		Window:                      w,
		AgentHistory:                agentSeries(agentPoints),
		ConstructionMaterialHistory: materialSeries(materialPoints),
	}, nil
}

// agentSeries 点已按 (agent, 事件时间) 排序
func agentSeries(points []repository.AgentHistoryPoint) []AgentSeries {
	var out []AgentSeries
	for _, p := range points {
		n := len(out)
		if n == 0 || out[n-1].AgentSymbol != p.AgentSymbol {
			out = append(out, AgentSeries{AgentSymbol: p.AgentSymbol, ConstructionSiteID: p.ConstructionSiteID})
			n++
		}
		cur := &out[n-1]
		cur.EventTimesMinutes = append(cur.EventTimesMinutes, p.EventTimeMinutes)
		cur.CreditsTimeline = append(cur.CreditsTimeline, p.Credits)
		cur.ShipCountTimeline = append(cur.ShipCountTimeline, p.ShipCount)
	}
	return out
}

// materialSeries 点已按 (跃迁门, 物资, 事件时间) 排序
func materialSeries(points []repository.MaterialHistoryPoint) []MaterialSeries {
	var out []MaterialSeries
	for _, p := range points {
		n := len(out)
		if n == 0 || out[n-1].JumpGateWaypointSymbol != p.JumpGateWaypointSymbol || out[n-1].TradeSymbol != p.TradeSymbol {
			out = append(out, MaterialSeries{
				JumpGateWaypointSymbol: p.JumpGateWaypointSymbol,
				TradeSymbol:            p.TradeSymbol,
				Required:               p.Required,
			})
			n++
		}
		cur := &out[n-1]
		cur.EventTimesMinutes = append(cur.EventTimesMinutes, p.EventTimeMinutes)
		cur.FulfilledTimeline = append(cur.FulfilledTimeline, p.Fulfilled)
	}
	return out
}
