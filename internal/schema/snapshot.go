package schema

// AgentLog 每次采集每个 agent 一行
type AgentLog struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	AgentID   int64 `gorm:"column:agent_id;not null;uniqueIndex:idx_agent_log_job_agent,priority:2"`
	JobID     int64 `gorm:"column:job_id;not null;uniqueIndex:idx_agent_log_job_agent,priority:1"`
	Credits   int64 `gorm:"column:credits;not null"`
	ShipCount int64 `gorm:"column:ship_count;not null"`
}

// TableName 指定表名
func (AgentLog) TableName() string {
	return "agent_log"
}

// ConstructionLog 每次采集每个工地一行
type ConstructionLog struct {
	ID                 int64 `gorm:"primaryKey;autoIncrement"`
	JobID              int64 `gorm:"column:job_id;not null;uniqueIndex:idx_construction_log_job_site,priority:1"`
	ConstructionSiteID int64 `gorm:"column:construction_site_id;not null;uniqueIndex:idx_construction_log_job_site,priority:2"`
	IsComplete         bool  `gorm:"column:is_complete;not null"`
}

// TableName 指定表名
func (ConstructionLog) TableName() string {
	return "construction_log"
}

// ConstructionMaterialLog 工地快照下每种物资的完成量
type ConstructionMaterialLog struct {
	ID                        int64 `gorm:"primaryKey;autoIncrement"`
	ConstructionLogID         int64 `gorm:"column:construction_log_id;not null;uniqueIndex:idx_material_log_log_req,priority:1"`
	ConstructionRequirementID int64 `gorm:"column:construction_requirement_id;not null;uniqueIndex:idx_material_log_log_req,priority:2"`
	Fulfilled                 int64 `gorm:"column:fulfilled;not null"`
}

// TableName 指定表名
func (ConstructionMaterialLog) TableName() string {
	return "construction_material_log"
}
