package testutil

import (
	"testing"

	"github.com/yuqie6/st-leaderboard/internal/schema"
	"gorm.io/gorm"
)

// Fixture 直接向测试库写入维表与事实行
type Fixture struct {
	t  *testing.T
	db *gorm.DB
}

// NewFixture 创建 Fixture
func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()
	return &Fixture{t: t, db: db}
}

func (f *Fixture) create(v any) {
	f.t.Helper()
	if err := f.db.Create(v).Error; err != nil {
		f.t.Fatalf("create %T: %v", v, err)
	}
}

// Reset 写入周期
func (f *Fixture) Reset(date string, firstTs int64) *schema.Reset {
	f.t.Helper()
	r := &schema.Reset{Date: date, FirstTs: firstTs}
	f.create(r)
	return r
}

// Site 写入工地
func (f *Fixture) Site(resetID int64, waypoint string) *schema.ConstructionSite {
	f.t.Helper()
	s := &schema.ConstructionSite{ResetID: resetID, JumpGateWaypointSymbol: waypoint}
	f.create(s)
	return s
}

// Agent 写入 agent
func (f *Fixture) Agent(resetID, siteID int64, symbol, headquarters string) *schema.Agent {
	f.t.Helper()
	a := &schema.Agent{
		AgentSymbol:                     symbol,
		AgentHeadquartersWaypointSymbol: headquarters,
		ConstructionSiteID:              siteID,
		StartingFaction:                 "COSMIC",
		ResetID:                         resetID,
	}
	f.create(a)
	return a
}

// Requirement 写入物资需求
func (f *Fixture) Requirement(resetID int64, trade string, required int64) *schema.ConstructionRequirement {
	f.t.Helper()
	r := &schema.ConstructionRequirement{ResetID: resetID, TradeSymbol: trade, Required: required}
	f.create(r)
	return r
}

// Job 写入一次采集，queryTime 为 Unix 毫秒
func (f *Fixture) Job(resetID, queryTime, eventTimeMinutes int64) *schema.JobRun {
	f.t.Helper()
	j := &schema.JobRun{ResetID: resetID, QueryTime: queryTime, EventTimeMinutes: eventTimeMinutes}
	f.create(j)
	return j
}

// AgentLog 写入 agent 快照
func (f *Fixture) AgentLog(jobID, agentID, credits, shipCount int64) {
	f.t.Helper()
	f.create(&schema.AgentLog{JobID: jobID, AgentID: agentID, Credits: credits, ShipCount: shipCount})
}

// SiteLog 写入工地快照及物资进度，fulfilled 按 requirement id 给出
func (f *Fixture) SiteLog(jobID, siteID int64, complete bool, fulfilled map[int64]int64) {
	f.t.Helper()
	cl := &schema.ConstructionLog{JobID: jobID, ConstructionSiteID: siteID, IsComplete: complete}
	f.create(cl)
	for reqID, v := range fulfilled {
		f.create(&schema.ConstructionMaterialLog{ConstructionLogID: cl.ID, ConstructionRequirementID: reqID, Fulfilled: v})
	}
}

// Count 统计表行数
func (f *Fixture) Count(model any) int64 {
	f.t.Helper()
	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		f.t.Fatalf("count %T: %v", model, err)
	}
	return n
}
