package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/st-leaderboard/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AgentObservation 一次采集中某个 agent 的当前状态
type AgentObservation struct {
	Symbol    string
	Credits   int64
	ShipCount int64
}

// MaterialObservation 工地某种物资的当前进度
type MaterialObservation struct {
	TradeSymbol string
	Required    int64
	Fulfilled   int64
}

// SiteObservation 一次采集中某个工地的当前状态
type SiteObservation struct {
	WaypointSymbol string
	IsComplete     bool
	Materials      []MaterialObservation
}

// TickSnapshot 一次采集需要写入的全部事实
type TickSnapshot struct {
	Reset  ResetInfo
	NowMs  int64
	Agents []AgentObservation
	Sites  []SiteObservation
}

// SnapshotRepository 事实表写入
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建仓储
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// WriteTick 在单个事务内写入 job_run 及其全部子行，任一步失败整体回滚
func (r *SnapshotRepository) WriteTick(ctx context.Context, snap TickSnapshot) (*schema.JobRun, error) {
	var job schema.JobRun
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resetID := snap.Reset.ResetID

		requirements, err := seedRequirements(tx, resetID, snap.Sites)
		if err != nil {
			return err
		}
		agents, err := agentIDs(tx, resetID)
		if err != nil {
			return err
		}
		sites, err := siteIDs(tx, resetID)
		if err != nil {
			return err
		}

		job = schema.JobRun{
			ResetID:          resetID,
			QueryTime:        snap.NowMs,
			EventTimeMinutes: EventTimeMinutes(snap.Reset.FirstTs, snap.NowMs),
		}
		if err := tx.Create(&job).Error; err != nil {
			return fmt.Errorf("写入 job_run 失败: %w", err)
		}

		if len(snap.Agents) > 0 {
			logs := make([]schema.AgentLog, 0, len(snap.Agents))
			for _, a := range snap.Agents {
				id, ok := agents[a.Symbol]
				if !ok {
					return fmt.Errorf("%w: agent %s", ErrUnknownDimension, a.Symbol)
				}
				logs = append(logs, schema.AgentLog{AgentID: id, JobID: job.ID, Credits: a.Credits, ShipCount: a.ShipCount})
			}
			if err := tx.Create(&logs).Error; err != nil {
				return fmt.Errorf("写入 agent_log 失败: %w", err)
			}
		}

		for _, s := range snap.Sites {
			siteID, ok := sites[s.WaypointSymbol]
			if !ok {
				return fmt.Errorf("%w: 工地 %s", ErrUnknownDimension, s.WaypointSymbol)
			}
			cl := schema.ConstructionLog{JobID: job.ID, ConstructionSiteID: siteID, IsComplete: s.IsComplete}
			if err := tx.Create(&cl).Error; err != nil {
				return fmt.Errorf("写入 construction_log 失败: %w", err)
			}
			if len(s.Materials) == 0 {
				continue
			}
			mats := make([]schema.ConstructionMaterialLog, 0, len(s.Materials))
			for _, m := range s.Materials {
				reqID, ok := requirements[m.TradeSymbol]
				if !ok {
					return fmt.Errorf("%w: 物资需求 %s", ErrUnknownDimension, m.TradeSymbol)
				}
				mats = append(mats, schema.ConstructionMaterialLog{
					ConstructionLogID:         cl.ID,
					ConstructionRequirementID: reqID,
					Fulfilled:                 m.Fulfilled,
				})
			}
			if err := tx.Create(&mats).Error; err != nil {
				return fmt.Errorf("写入 construction_material_log 失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// seedRequirements 用第一个工地的物资清单补齐需求表（已有行不覆盖），返回 trade_symbol -> id
func seedRequirements(tx *gorm.DB, resetID int64, sites []SiteObservation) (map[string]int64, error) {
	if len(sites) > 0 && len(sites[0].Materials) > 0 {
		rows := make([]schema.ConstructionRequirement, 0, len(sites[0].Materials))
		for _, m := range sites[0].Materials {
			rows = append(rows, schema.ConstructionRequirement{ResetID: resetID, TradeSymbol: m.TradeSymbol, Required: m.Required})
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reset_id"}, {Name: "trade_symbol"}},
			DoNothing: true,
		}).Create(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("写入物资需求失败: %w", err)
		}
	}

	var stored []schema.ConstructionRequirement
	if err := tx.Where("reset_id = ?", resetID).Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("查询物资需求失败: %w", err)
	}
	out := make(map[string]int64, len(stored))
	for _, req := range stored {
		out[req.TradeSymbol] = req.ID
	}
	return out, nil
}

func agentIDs(tx *gorm.DB, resetID int64) (map[string]int64, error) {
	var agents []schema.Agent
	if err := tx.Select("id", "agent_symbol").Where("reset_id = ?", resetID).Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("查询 agent 失败: %w", err)
	}
	out := make(map[string]int64, len(agents))
	for _, a := range agents {
		out[a.AgentSymbol] = a.ID
	}
	return out, nil
}

func siteIDs(tx *gorm.DB, resetID int64) (map[string]int64, error) {
	var sites []schema.ConstructionSite
	if err := tx.Where("reset_id = ?", resetID).Find(&sites).Error; err != nil {
		return nil, fmt.Errorf("查询工地失败: %w", err)
	}
	out := make(map[string]int64, len(sites))
	for _, s := range sites {
		out[s.JumpGateWaypointSymbol] = s.ID
	}
	return out, nil
}
