package stclient

// StatusResponse GET / 的世界状态
type StatusResponse struct {
	Status       string       `json:"status"`
	Version      string       `json:"version"`
	ResetDate    string       `json:"resetDate"` // YYYY-MM-DD
	Description  string       `json:"description"`
	Stats        Stats        `json:"stats"`
	Leaderboards Leaderboards `json:"leaderboards"`
}

// Stats 世界统计
type Stats struct {
	Agents    int `json:"agents"`
	Ships     int `json:"ships"`
	Systems   int `json:"systems"`
	Waypoints int `json:"waypoints"`
}

// Leaderboards 官方榜单
type Leaderboards struct {
	MostCredits         []AgentCredits `json:"mostCredits"`
	MostSubmittedCharts []AgentCharts  `json:"mostSubmittedCharts"`
}

// AgentCredits 资金榜条目
type AgentCredits struct {
	AgentSymbol string `json:"agentSymbol"`
	Credits     int64  `json:"credits"`
}

// AgentCharts 海图提交榜条目
type AgentCharts struct {
	AgentSymbol string `json:"agentSymbol"`
	ChartCount  int    `json:"chartCount"`
}

// Agent 公开的 agent 信息
type Agent struct {
	Symbol          string `json:"symbol"`
	Headquarters    string `json:"headquarters"`
	Credits         int64  `json:"credits"`
	StartingFaction string `json:"startingFaction"`
	ShipCount       int    `json:"shipCount"`
}

// Meta 分页元数据
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Waypoint 航点（只保留用到的字段）
type Waypoint struct {
	Symbol              string `json:"symbol"`
	Type                string `json:"type"`
	SystemSymbol        string `json:"systemSymbol"`
	X                   int64  `json:"x"`
	Y                   int64  `json:"y"`
	IsUnderConstruction bool   `json:"isUnderConstruction"`
}

// Construction 建造工地状态
type Construction struct {
	Symbol     string                 `json:"symbol"`
	Materials  []ConstructionMaterial `json:"materials"`
	IsComplete bool                   `json:"isComplete"`
}

// ConstructionMaterial 工地所需物资
type ConstructionMaterial struct {
	TradeSymbol string `json:"tradeSymbol"`
	Required    int64  `json:"required"`
	Fulfilled   int64  `json:"fulfilled"`
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

type pageEnvelope[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}
