package dto

// HistoryRequest POST /api/history/{resetDate} 请求体，时间单位为分钟
type HistoryRequest struct {
	AgentSymbols        []string `json:"agentSymbols"`
	SelectionMode       string   `json:"selectionMode"` // "first" | "last"
	EventTimeMinutesGte *int64   `json:"eventTimeMinutesGte,omitempty"`
	EventTimeMinutesLte int64    `json:"eventTimeMinutesLte"`
}

type AgentHistoryDTO struct {
	AgentSymbol        string  `json:"agentSymbol"`
	ConstructionSiteID int64   `json:"constructionSiteId"`
	EventTimesMinutes  []int64 `json:"eventTimesMinutes"`
	CreditsTimeline    []int64 `json:"creditsTimeline"`
	ShipCountTimeline  []int64 `json:"shipCountTimeline"`
}

type ConstructionMaterialHistoryDTO struct {
	JumpGateWaypointSymbol string  `json:"jumpGateWaypointSymbol"`
	TradeSymbol            string  `json:"tradeSymbol"`
	Required               int64   `json:"required"`
	EventTimesMinutes      []int64 `json:"eventTimesMinutes"`
	FulfilledTimeline      []int64 `json:"fulfilledTimeline"`
}

type HistoryWindowDTO struct {
	EventTimeMinutesGte int64 `json:"eventTimeMinutesGte"`
	EventTimeMinutesLte int64 `json:"eventTimeMinutesLte"`
	ResolutionMinutes   int64 `json:"resolutionMinutes"`
}

type HistoryResponse struct {
	ResetDate                   string                           `json:"resetDate"`
	Window                      HistoryWindowDTO                 `json:"window"`
	AgentHistory                []AgentHistoryDTO                `json:"agentHistory"`
	ConstructionMaterialHistory []ConstructionMaterialHistoryDTO `json:"constructionMaterialHistory"`
}
