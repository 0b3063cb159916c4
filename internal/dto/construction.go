package dto

type JumpGateAssignmentEntryDTO struct {
	AgentHeadquartersWaypointSymbol string   `json:"agentHeadquartersWaypointSymbol"`
	JumpGateWaypointSymbol          string   `json:"jumpGateWaypointSymbol"`
	AgentsInSystem                  []string `json:"agentsInSystem"`
}

type JumpGateAssignmentResponse struct {
	ResetDate                 string                       `json:"resetDate"`
	JumpGateAssignmentEntries []JumpGateAssignmentEntryDTO `json:"jumpGateAssignmentEntries"`
}

type ConstructionProgressEntryDTO struct {
	JumpGateWaypointSymbol string `json:"jumpGateWaypointSymbol"`
	TradeSymbol            string `json:"tradeSymbol"`
	Fulfilled              int64  `json:"fulfilled"`
	Required               int64  `json:"required"`
	IsJumpGateComplete     bool   `json:"isJumpGateComplete"`
	TsStartOfReset         string `json:"tsStartOfReset"`
	TsLatestEntryOfReset   string `json:"tsLatestEntryOfReset"`
}

type ConstructionProgressResponse struct {
	ResetDate       string                         `json:"resetDate"`
	ProgressEntries []ConstructionProgressEntryDTO `json:"progressEntries"`
}

type ConstructionEventEntryDTO struct {
	JumpGateWaypointSymbol   string  `json:"jumpGateWaypointSymbol"`
	TradeSymbol              string  `json:"tradeSymbol"`
	Fulfilled                int64   `json:"fulfilled"`
	Required                 int64   `json:"required"`
	IsJumpGateComplete       bool    `json:"isJumpGateComplete"`
	TsStartOfReset           string  `json:"tsStartOfReset"`
	TsFirstConstructionEvent *string `json:"tsFirstConstructionEvent"`
	TsLastConstructionEvent  *string `json:"tsLastConstructionEvent"`
}

type ConstructionEventOverviewResponse struct {
	ResetDate    string                      `json:"resetDate"`
	EventEntries []ConstructionEventEntryDTO `json:"eventEntries"`
}
