package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuqie6/st-leaderboard/internal/dto"
	"github.com/yuqie6/st-leaderboard/internal/repository"
	"github.com/yuqie6/st-leaderboard/internal/service"
)

// Queries HTTP 层依赖的只读查询
type Queries interface {
	ListResets(ctx context.Context) ([]repository.ResetInfo, error)
	Leaderboard(ctx context.Context, date string) (*repository.ResetInfo, []repository.LeaderboardRow, error)
	AllTimePerformance(ctx context.Context) ([]repository.AllTimeRow, error)
	AllTimeConstructionLeaderboard(ctx context.Context) ([]service.ConstructionLeaderboardEntry, error)
	JumpGateAssignments(ctx context.Context, date string) (*repository.ResetInfo, []service.JumpGateAssignment, error)
	MostRecentProgress(ctx context.Context, date string) (*repository.ResetInfo, []service.ConstructionProgress, error)
	ConstructionEventOverview(ctx context.Context, date string) (*repository.ResetInfo, []service.ConstructionEventOverview, error)
	History(ctx context.Context, date string, req service.HistoryRequest) (*service.HistoryResult, error)
}

func (a *apiServer) registerJSONRoutes(r chi.Router) {
	r.Get("/reset-dates", a.handleResetDates)
	r.Get("/leaderboard/{resetDate}", a.handleLeaderboard)
	r.Get("/all-time-performance", a.handleAllTimePerformance)
	r.Get("/all-time-construction-leaderboard", a.handleConstructionLeaderboard)
	r.Get("/jump-gate-assignment/{resetDate}", a.handleJumpGateAssignment)
	r.Get("/jump-gate-most-recent-progress/{resetDate}", a.handleMostRecentProgress)
	r.Get("/jump-gate-construction-event-overview/{resetDate}", a.handleConstructionEventOverview)
	r.Post("/history/{resetDate}", a.handleHistory)
}

func (a *apiServer) handleResetDates(w http.ResponseWriter, r *http.Request) {
	resets, err := a.cfg.Queries.ListResets(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := dto.ListResetDatesResponse{ResetDates: make([]dto.ResetDateDTO, 0, len(resets))}
	for _, rs := range resets {
		out.ResetDates = append(out.ResetDates, dto.ResetDateDTO{
			Reset:           rs.Date,
			FirstTs:         formatTs(rs.FirstTs),
			LatestTs:        formatTs(rs.LatestTs),
			DurationMinutes: rs.DurationMinutes(),
			IsOngoing:       rs.IsOngoing,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	reset, rows, err := a.cfg.Queries.Leaderboard(r.Context(), chi.URLParam(r, "resetDate"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := dto.LeaderboardResponse{ResetDate: reset.Date, LeaderboardEntries: make([]dto.LeaderboardEntryDTO, 0, len(rows))}
	for _, row := range rows {
		out.LeaderboardEntries = append(out.LeaderboardEntries, dto.LeaderboardEntryDTO{
			AgentSymbol:                     row.AgentSymbol,
			Credits:                         row.Credits,
			ShipCount:                       row.ShipCount,
			AgentHeadquartersWaypointSymbol: row.AgentHeadquartersWaypointSymbol,
			JumpGateWaypointSymbol:          row.JumpGateWaypointSymbol,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) handleAllTimePerformance(w http.ResponseWriter, r *http.Request) {
	rows, err := a.cfg.Queries.AllTimePerformance(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := dto.AllTimePerformanceResponse{Entries: make([]dto.AllTimePerformanceEntryDTO, 0, len(rows))}
	for _, row := range rows {
		out.Entries = append(out.Entries, dto.AllTimePerformanceEntryDTO{
			Reset:       row.Reset,
			AgentSymbol: row.AgentSymbol,
			Credits:     row.Credits,
			Rank:        row.Rank,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) handleConstructionLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := a.cfg.Queries.AllTimeConstructionLeaderboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := dto.AllTimeConstructionLeaderboardResponse{Entries: make([]dto.ConstructionLeaderboardEntryDTO, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, dto.ConstructionLeaderboardEntryDTO{
			ResetDate:                    e.ResetDate,
			TsStartOfReset:               formatTs(e.TsStartOfReset),
			JumpGateWaypointSymbol:       e.JumpGateWaypointSymbol,
			AgentsInSystem:               nonNil(e.AgentsInSystem),
			TsStartJumpGateConstruction:  formatTs(e.TsStartJumpGateConstruction),
			TsFinishJumpGateConstruction: formatTsPtr(e.TsFinishJumpGateConstruction),

			DurationMinutesStartFortnightStartJumpGateConstruction:  e.DurationMinutesStartFortnightStartJumpGateConstruction,
			DurationMinutesStartFortnightFinishJumpGateConstruction: e.DurationMinutesStartFortnightFinishJumpGateConstruction,
			DurationMinutesJumpGateConstruction:                     e.DurationMinutesJumpGateConstruction,

			RankJumpGateConstruction:                     e.RankJumpGateConstruction,
			RankStartFortnightStartJumpGateConstruction:  e.RankStartFortnightStartJumpGateConstruction,
			RankStartFortnightFinishJumpGateConstruction: e.RankStartFortnightFinishJumpGateConstruction,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) handleJumpGateAssignment(w http.ResponseWriter, r *http.Request) {
	reset, groups, err := a.cfg.Queries.JumpGateAssignments(r.Context(), chi.URLParam(r, "resetDate"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := dto.JumpGateAssignmentResponse{ResetDate: reset.Date, JumpGateAssignmentEntries: make([]dto.JumpGateAssignmentEntryDTO, 0, len(groups))}
	for _, g := range groups {
		out.JumpGateAssignmentEntries = append(out.JumpGateAssignmentEntries, dto.JumpGateAssignmentEntryDTO{
			AgentHeadquartersWaypointSymbol: g.AgentHeadquartersWaypointSymbol,
			JumpGateWaypointSymbol:          g.JumpGateWaypointSymbol,
			AgentsInSystem:                  nonNil(g.Agents),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) handleMostRecentProgress(w http.ResponseWriter, r *http.Request) {
	reset, rows, err := a.cfg.Queries.MostRecentProgress(r.Context(), chi.URLParam(r, "resetDate"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := dto.ConstructionProgressResponse{ResetDate: reset.Date, ProgressEntries: make([]dto.ConstructionProgressEntryDTO, 0, len(rows))}
	for _, row := range rows {
		out.ProgressEntries = append(out.ProgressEntries, dto.ConstructionProgressEntryDTO{
			JumpGateWaypointSymbol: row.JumpGateWaypointSymbol,
			TradeSymbol:            row.TradeSymbol,
			Fulfilled:              row.Fulfilled,
			Required:               row.Required,
			IsJumpGateComplete:     row.IsJumpGateComplete,
			TsStartOfReset:         formatTs(row.TsStartOfReset),
			TsLatestEntryOfReset:   formatTs(row.TsLatestEntryOfReset),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) handleConstructionEventOverview(w http.ResponseWriter, r *http.Request) {
	reset, rows, err := a.cfg.Queries.ConstructionEventOverview(r.Context(), chi.URLParam(r, "resetDate"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := dto.ConstructionEventOverviewResponse{ResetDate: reset.Date, EventEntries: make([]dto.ConstructionEventEntryDTO, 0, len(rows))}
	for _, row := range rows {
		out.EventEntries = append(out.EventEntries, dto.ConstructionEventEntryDTO{
			JumpGateWaypointSymbol:   row.JumpGateWaypointSymbol,
			TradeSymbol:              row.TradeSymbol,
			Fulfilled:                row.Fulfilled,
			Required:                 row.Required,
			IsJumpGateComplete:       row.IsJumpGateComplete,
			TsStartOfReset:           formatTs(row.TsStartOfReset),
			TsFirstConstructionEvent: formatTsPtr(row.TsFirstConstructionEvent),
			TsLastConstructionEvent:  formatTsPtr(row.TsLastConstructionEvent),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	var req dto.HistoryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	mode, err := service.ParseSelectionMode(req.SelectionMode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	symbols := make([]string, 0, len(req.AgentSymbols))
	for _, s := range req.AgentSymbols {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}

	res, err := a.cfg.Queries.History(r.Context(), chi.URLParam(r, "resetDate"), service.HistoryRequest{
		AgentSymbols:        symbols,
		SelectionMode:       mode,
		EventTimeMinutesGte: req.EventTimeMinutesGte,
		EventTimeMinutesLte: req.EventTimeMinutesLte,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := dto.HistoryResponse{
		ResetDate: res.Reset.Date,
		Window: dto.HistoryWindowDTO{
			EventTimeMinutesGte: res.Window.From,
			EventTimeMinutesLte: res.Window.To,
			ResolutionMinutes:   res.Window.Resolution,
		},
		AgentHistory:                make([]dto.AgentHistoryDTO, 0, len(res.AgentHistory)),
		ConstructionMaterialHistory: make([]dto.ConstructionMaterialHistoryDTO, 0, len(res.ConstructionMaterialHistory)),
	}
	for _, s := range res.AgentHistory {
		out.AgentHistory = append(out.AgentHistory, dto.AgentHistoryDTO{
			AgentSymbol:        s.AgentSymbol,
			ConstructionSiteID: s.ConstructionSiteID,
			EventTimesMinutes:  s.EventTimesMinutes,
			CreditsTimeline:    s.CreditsTimeline,
			ShipCountTimeline:  s.ShipCountTimeline,
		})
	}
	for _, s := range res.ConstructionMaterialHistory {
		out.ConstructionMaterialHistory = append(out.ConstructionMaterialHistory, dto.ConstructionMaterialHistoryDTO{
			JumpGateWaypointSymbol: s.JumpGateWaypointSymbol,
			TradeSymbol:            s.TradeSymbol,
			Required:               s.Required,
			EventTimesMinutes:      s.EventTimesMinutes,
			FulfilledTimeline:      s.FulfilledTimeline,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
