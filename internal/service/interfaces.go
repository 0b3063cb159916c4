package service

import (
	"context"

	"github.com/yuqie6/st-leaderboard/internal/repository"
	"github.com/yuqie6/st-leaderboard/internal/schema"
	"github.com/yuqie6/st-leaderboard/internal/stclient"
)

// 仓储/外部依赖的最小接口集合（ISP）

type RemoteAPI interface {
	GetStatus(ctx context.Context) (*stclient.StatusResponse, error)
	GetPublicAgent(ctx context.Context, symbol string) (*stclient.Agent, error)
	GetJumpGateWaypoints(ctx context.Context, system string) ([]stclient.Waypoint, error)
	GetConstructionSite(ctx context.Context, waypoint string) (*stclient.Construction, error)
}

type ResetRepository interface {
	LoadOrCreate(ctx context.Context, date string, nowMs int64) (*repository.ResetInfo, error)
	GetByDate(ctx context.Context, date string) (*repository.ResetInfo, error)
	List(ctx context.Context) ([]repository.ResetInfo, error)
}

type DimensionRepository interface {
	ListAgents(ctx context.Context, resetID int64) ([]schema.Agent, error)
	ListConstructionSites(ctx context.Context, resetID int64) ([]schema.ConstructionSite, error)
	SaveDiscovered(ctx context.Context, resetID int64, agents []repository.NewAgent, nowMs int64) error
}

type SnapshotRepository interface {
	WriteTick(ctx context.Context, snap repository.TickSnapshot) (*schema.JobRun, error)
}

type QueryRepository interface {
	Leaderboard(ctx context.Context, resetID int64) ([]repository.LeaderboardRow, error)
	AllTimePerformance(ctx context.Context) ([]repository.AllTimeRow, error)
	Assignments(ctx context.Context, resetID int64) ([]repository.AssignmentRow, error)
	MostRecentProgress(ctx context.Context, resetID int64) ([]repository.ProgressRow, error)
	FirstDeliveryEvents(ctx context.Context, resetID int64) ([]repository.DeliveryEvent, error)
	CompletionEvents(ctx context.Context, resetID int64) ([]repository.CompletionEvent, error)
	AgentHistory(ctx context.Context, f repository.HistoryFilter) ([]repository.AgentHistoryPoint, error)
	ConstructionHistory(ctx context.Context, f repository.HistoryFilter) ([]repository.MaterialHistoryPoint, error)
}

type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}
