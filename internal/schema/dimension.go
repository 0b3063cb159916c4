package schema

// ConstructionSite 跃迁门工地，(reset_id, jump_gate_waypoint_symbol) 唯一
type ConstructionSite struct {
	ID                     int64  `gorm:"primaryKey;autoIncrement"`
	ResetID                int64  `gorm:"column:reset_id;not null;uniqueIndex:idx_construction_site_reset_wp,priority:1"`
	JumpGateWaypointSymbol string `gorm:"column:jump_gate_waypoint_symbol;size:64;not null;uniqueIndex:idx_construction_site_reset_wp,priority:2"`
}

// TableName 指定表名
func (ConstructionSite) TableName() string {
	return "construction_site"
}

// Agent 被跟踪 agent 的静态信息，插入后不再修改
type Agent struct {
	ID                              int64  `gorm:"primaryKey;autoIncrement"`
	AgentSymbol                     string `gorm:"column:agent_symbol;size:64;not null;uniqueIndex:idx_static_agent_reset_symbol,priority:2"`
	AgentHeadquartersWaypointSymbol string `gorm:"column:agent_headquarters_waypoint_symbol;size:64;not null"`
	ConstructionSiteID              int64  `gorm:"column:construction_site_id;not null;index"`
	StartingFaction                 string `gorm:"column:starting_faction;size:64"`
	ResetID                         int64  `gorm:"column:reset_id;not null;uniqueIndex:idx_static_agent_reset_symbol,priority:1"`
	QueryTime                       int64  `gorm:"column:query_time;not null"` // 首次发现时间，Unix 毫秒
}

// TableName 指定表名
func (Agent) TableName() string {
	return "static_agent_info"
}

// ConstructionRequirement 周期内某种物资的需求量，周期内视为不变
type ConstructionRequirement struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	ResetID     int64  `gorm:"column:reset_id;not null;uniqueIndex:idx_construction_requirement_reset_trade,priority:1"`
	TradeSymbol string `gorm:"column:trade_symbol;size:64;not null;uniqueIndex:idx_construction_requirement_reset_trade,priority:2"`
	Required    int64  `gorm:"column:required;not null"`
}

// TableName 指定表名
func (ConstructionRequirement) TableName() string {
	return "construction_requirement"
}
