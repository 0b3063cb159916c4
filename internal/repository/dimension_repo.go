package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/st-leaderboard/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnknownDimension 快照引用了尚未登记的 agent/工地/物资需求
var ErrUnknownDimension = errors.New("unknown dimension")

// NewAgent 待登记的 agent 静态信息
type NewAgent struct {
	Symbol                 string
	Headquarters           string
	StartingFaction        string
	JumpGateWaypointSymbol string
}

// DimensionRepository agent 与工地维表仓储。维表只插入，不更新。
type DimensionRepository struct {
	db *gorm.DB
}

// NewDimensionRepository 创建仓储
func NewDimensionRepository(db *gorm.DB) *DimensionRepository {
	return &DimensionRepository{db: db}
}

// ListAgents 周期内已跟踪的 agent
func (r *DimensionRepository) ListAgents(ctx context.Context, resetID int64) ([]schema.Agent, error) {
	var agents []schema.Agent
	err := r.db.WithContext(ctx).
		Where("reset_id = ?", resetID).
		Order("agent_symbol").
		Find(&agents).Error
	if err != nil {
		return nil, fmt.Errorf("查询 agent 失败: %w", err)
	}
	return agents, nil
}

// ListConstructionSites 周期内已跟踪的工地
func (r *DimensionRepository) ListConstructionSites(ctx context.Context, resetID int64) ([]schema.ConstructionSite, error) {
	var sites []schema.ConstructionSite
	err := r.db.WithContext(ctx).
		Where("reset_id = ?", resetID).
		Order("jump_gate_waypoint_symbol").
		Find(&sites).Error
	if err != nil {
		return nil, fmt.Errorf("查询工地失败: %w", err)
	}
	return sites, nil
}

// SaveDiscovered 登记新发现的 agent 以及它们引用的工地，已存在的行保持不变
func (r *DimensionRepository) SaveDiscovered(ctx context.Context, resetID int64, agents []NewAgent, nowMs int64) error {
	if len(agents) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sites, err := ensureConstructionSites(tx, resetID, agents)
		if err != nil {
			return err
		}

		rows := make([]schema.Agent, 0, len(agents))
		for _, a := range agents {
			siteID, ok := sites[a.JumpGateWaypointSymbol]
			if !ok {
				return fmt.Errorf("%w: 工地 %s", ErrUnknownDimension, a.JumpGateWaypointSymbol)
			}
			rows = append(rows, schema.Agent{
				AgentSymbol:                     a.Symbol,
				AgentHeadquartersWaypointSymbol: a.Headquarters,
				ConstructionSiteID:              siteID,
				StartingFaction:                 a.StartingFaction,
				ResetID:                         resetID,
				QueryTime:                       nowMs,
			})
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reset_id"}, {Name: "agent_symbol"}},
			DoNothing: true,
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("写入 agent 失败: %w", err)
		}
		return nil
	})
}

// ensureConstructionSites 插入缺失的工地并返回 waypoint -> id
func ensureConstructionSites(tx *gorm.DB, resetID int64, agents []NewAgent) (map[string]int64, error) {
	seen := make(map[string]struct{}, len(agents))
	var rows []schema.ConstructionSite
	var symbols []string
	for _, a := range agents {
		if _, ok := seen[a.JumpGateWaypointSymbol]; ok {
			continue
		}
		seen[a.JumpGateWaypointSymbol] = struct{}{}
		symbols = append(symbols, a.JumpGateWaypointSymbol)
		rows = append(rows, schema.ConstructionSite{ResetID: resetID, JumpGateWaypointSymbol: a.JumpGateWaypointSymbol})
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reset_id"}, {Name: "jump_gate_waypoint_symbol"}},
		DoNothing: true,
	}).Create(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("写入工地失败: %w", err)
	}

	var stored []schema.ConstructionSite
	if err := tx.Where("reset_id = ? AND jump_gate_waypoint_symbol IN ?", resetID, symbols).Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("查询工地失败: %w", err)
	}
	out := make(map[string]int64, len(stored))
	for _, s := range stored {
		out[s.JumpGateWaypointSymbol] = s.ID
	}
	return out, nil
}
