package dto

type StatusDTO struct {
	App       AppStatusDTO       `json:"app"`
	Storage   StorageStatusDTO   `json:"storage"`
	Collector CollectorStatusDTO `json:"collector"`
}

type AppStatusDTO struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	StartedAt  string `json:"startedAt"`
	UptimeSec  int64  `json:"uptimeSec"`
	ConfigPath string `json:"configPath,omitempty"`
}

type StorageStatusDTO struct {
	DBPath        string `json:"dbPath"`
	SchemaVersion int    `json:"schemaVersion"`
}

type CollectorStatusDTO struct {
	Enabled     bool         `json:"enabled"`
	Schedule    string       `json:"schedule"`
	Subscribers int          `json:"subscribers"`
	LastTick    *LastTickDTO `json:"lastTick,omitempty"`
}

type LastTickDTO struct {
	At               string `json:"at"`
	OK               bool   `json:"ok"`
	Error            string `json:"error,omitempty"`
	ResetDate        string `json:"resetDate,omitempty"`
	JobRunID         int64  `json:"jobRunId,omitempty"`
	EventTimeMinutes int64  `json:"eventTimeMinutes"`
	DurationMs       int64  `json:"durationMs"`
}

type HealthDTO struct {
	OK        bool   `json:"ok"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	StartedAt string `json:"startedAt"`
}

type ErrorDTO struct {
	Error string `json:"error"`
}
