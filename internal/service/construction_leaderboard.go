package service

import (
	"context"
	"sort"

	"github.com/yuqie6/st-leaderboard/internal/repository"
)

// ConstructionLeaderboardEntry 一个周期内一个跃迁门工地的建造耗时与排名
type ConstructionLeaderboardEntry struct {
	ResetDate              string
	TsStartOfReset         int64
	JumpGateWaypointSymbol string
	AgentsInSystem         []string

	TsStartJumpGateConstruction  int64
	TsFinishJumpGateConstruction *int64

	DurationMinutesStartFortnightStartJumpGateConstruction  int64
	DurationMinutesStartFortnightFinishJumpGateConstruction *int64
	DurationMinutesJumpGateConstruction                     *int64

	RankJumpGateConstruction                     int
	RankStartFortnightStartJumpGateConstruction  int
	RankStartFortnightFinishJumpGateConstruction int
}

// AllTimeConstructionLeaderboard 全部周期的跃迁门建造榜，按周期、建造耗时排名输出
func (s *QueryService) AllTimeConstructionLeaderboard(ctx context.Context) ([]ConstructionLeaderboardEntry, error) {
	resets, err := s.resets.List(ctx)
	if err != nil {
		return nil, err
	}
	firsts, err := s.queries.FirstDeliveryEvents(ctx, 0)
	if err != nil {
		return nil, err
	}
	completions, err := s.queries.CompletionEvents(ctx, 0)
	if err != nil {
		return nil, err
	}
	assignments, err := s.queries.Assignments(ctx, 0)
	if err != nil {
		return nil, err
	}
	return BuildConstructionLeaderboard(resets, firsts, completions, assignments), nil
}

// BuildConstructionLeaderboard 由交付事件推导建造榜。没有任何交付事件的工地不出现；
// 排名从 1 开始，同值按跃迁门符号升序，未完工的排在已完工之后。
func BuildConstructionLeaderboard(
	resets []repository.ResetInfo,
	firsts []repository.DeliveryEvent,
	completions []repository.CompletionEvent,
	assignments []repository.AssignmentRow,
) []ConstructionLeaderboardEntry {
	resetByID := make(map[int64]repository.ResetInfo, len(resets))
	for _, r := range resets {
		resetByID[r.ResetID] = r
	}

	type siteKey struct{ reset, site int64 }
	start := make(map[siteKey]int64)
	for _, e := range firsts {
		k := siteKey{e.ResetID, e.ConstructionSiteID}
		if cur, ok := start[k]; !ok || e.QueryTime < cur {
			start[k] = e.QueryTime
		}
	}
	finish := make(map[siteKey]int64, len(completions))
	for _, e := range completions {
		finish[siteKey{e.ResetID, e.ConstructionSiteID}] = e.QueryTime
	}
	agents := make(map[siteKey][]string)
	gate := make(map[siteKey]string)
	for _, a := range assignments {
		k := siteKey{a.ResetID, a.ConstructionSiteID}
		agents[k] = append(agents[k], a.AgentSymbol)
		gate[k] = a.JumpGateWaypointSymbol
	}

	byReset := make(map[int64][]ConstructionLeaderboardEntry)
	for k, tsStart := range start {
		reset, ok := resetByID[k.reset]
		if !ok {
			continue
		}
		e := ConstructionLeaderboardEntry{
			ResetDate:                   reset.Date,
			TsStartOfReset:              reset.FirstTs,
			JumpGateWaypointSymbol:      gate[k],
			AgentsInSystem:              agents[k],
			TsStartJumpGateConstruction: tsStart,
		}
		e.DurationMinutesStartFortnightStartJumpGateConstruction = repository.EventTimeMinutes(reset.FirstTs, tsStart)
		if tsFinish, ok := finish[k]; ok {
			fromReset := repository.EventTimeMinutes(reset.FirstTs, tsFinish)
			construction := repository.EventTimeMinutes(tsStart, tsFinish)
			e.TsFinishJumpGateConstruction = &tsFinish
			e.DurationMinutesStartFortnightFinishJumpGateConstruction = &fromReset
			e.DurationMinutesJumpGateConstruction = &construction
		}
		byReset[k.reset] = append(byReset[k.reset], e)
	}

	var out []ConstructionLeaderboardEntry
	for _, r := range resets {
		entries := byReset[r.ResetID]
		if len(entries) == 0 {
			continue
		}
		rankBy(entries, func(e *ConstructionLeaderboardEntry) *int64 { return e.DurationMinutesJumpGateConstruction },
			func(e *ConstructionLeaderboardEntry, rank int) { e.RankJumpGateConstruction = rank })
		rankBy(entries, func(e *ConstructionLeaderboardEntry) *int64 {
			v := e.DurationMinutesStartFortnightStartJumpGateConstruction
			return &v
		}, func(e *ConstructionLeaderboardEntry, rank int) { e.RankStartFortnightStartJumpGateConstruction = rank })
		rankBy(entries, func(e *ConstructionLeaderboardEntry) *int64 { return e.DurationMinutesStartFortnightFinishJumpGateConstruction },
			func(e *ConstructionLeaderboardEntry, rank int) { e.RankStartFortnightFinishJumpGateConstruction = rank })

		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].RankJumpGateConstruction < entries[j].RankJumpGateConstruction
		})
		out = append(out, entries...)
	}
	return out
}

// rankBy 按 value 升序赋予 1 开始的名次，nil 排最后，同值按跃迁门符号
func rankBy(entries []ConstructionLeaderboardEntry, value func(*ConstructionLeaderboardEntry) *int64, set func(*ConstructionLeaderboardEntry, int)) {
	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ea, eb := &entries[idx[a]], &entries[idx[b]]
		va, vb := value(ea), value(eb)
		switch {
		case va == nil && vb == nil:
		case va == nil:
			return false
		case vb == nil:
			return true
		case *va != *vb:
			return *va < *vb
		}
		return ea.JumpGateWaypointSymbol < eb.JumpGateWaypointSymbol
	})
	for rank, i := range idx {
		set(&entries[i], rank+1)
	}
}
