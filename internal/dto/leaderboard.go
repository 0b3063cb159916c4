package dto

// 注意：本包用于承载“对外契约”的 DTO（与前端/HTTP API 保持稳定），字段一律 camelCase。
// 不要在这里放 GORM/持久化细节；内部持久化 schema 请见 internal/schema；业务逻辑收敛在 internal/service。

type ResetDateDTO struct {
	Reset           string `json:"reset"`
	FirstTs         string `json:"firstTs"`
	LatestTs        string `json:"latestTs"`
	DurationMinutes int64  `json:"durationMinutes"`
	IsOngoing       bool   `json:"isOngoing"`
}

type ListResetDatesResponse struct {
	ResetDates []ResetDateDTO `json:"resetDates"`
}

type LeaderboardEntryDTO struct {
	AgentSymbol                     string `json:"agentSymbol"`
	Credits                         int64  `json:"credits"`
	ShipCount                       int64  `json:"shipCount"`
	AgentHeadquartersWaypointSymbol string `json:"agentHeadquartersWaypointSymbol"`
	JumpGateWaypointSymbol          string `json:"jumpGateWaypointSymbol"`
}

type LeaderboardResponse struct {
	ResetDate          string                `json:"resetDate"`
	LeaderboardEntries []LeaderboardEntryDTO `json:"leaderboardEntries"`
}

type AllTimePerformanceEntryDTO struct {
	Reset       string `json:"reset"`
	AgentSymbol string `json:"agentSymbol"`
	Credits     int64  `json:"credits"`
	Rank        int64  `json:"rank"`
}

type AllTimePerformanceResponse struct {
	Entries []AllTimePerformanceEntryDTO `json:"entries"`
}

type ConstructionLeaderboardEntryDTO struct {
	ResetDate              string   `json:"resetDate"`
	TsStartOfReset         string   `json:"tsStartOfReset"`
	JumpGateWaypointSymbol string   `json:"jumpGateWaypointSymbol"`
	AgentsInSystem         []string `json:"agentsInSystem"`

	TsStartJumpGateConstruction  string  `json:"tsStartJumpGateConstruction"`
	TsFinishJumpGateConstruction *string `json:"tsFinishJumpGateConstruction"`

	DurationMinutesStartFortnightStartJumpGateConstruction  int64  `json:"durationMinutesStartFortnightStartJumpGateConstruction"`
	DurationMinutesStartFortnightFinishJumpGateConstruction *int64 `json:"durationMinutesStartFortnightFinishJumpGateConstruction"`
	DurationMinutesJumpGateConstruction                     *int64 `json:"durationMinutesJumpGateConstruction"`

	RankJumpGateConstruction                     int `json:"rankJumpGateConstruction"`
	RankStartFortnightStartJumpGateConstruction  int `json:"rankStartFortnightStartJumpGateConstruction"`
	RankStartFortnightFinishJumpGateConstruction int `json:"rankStartFortnightFinishJumpGateConstruction"`
}

type AllTimeConstructionLeaderboardResponse struct {
	Entries []ConstructionLeaderboardEntryDTO `json:"entries"`
}
