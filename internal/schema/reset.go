package schema

// Reset 一个重置周期（游戏世界的一次生命周期）
// 数据量级：十级/年
type Reset struct {
	ResetID int64  `gorm:"column:reset_id;primaryKey;autoIncrement"`
	Date    string `gorm:"column:reset;size:10;not null;uniqueIndex:idx_reset_date_reset"` // YYYY-MM-DD
	FirstTs int64  `gorm:"column:first_ts;not null"`                                       // 首次观测时间，Unix 毫秒
}

// TableName 指定表名
func (Reset) TableName() string {
	return "reset_date"
}

// JobRun 一次采集（tick）
// 数据量级：每周期约 4000 条
type JobRun struct {
	ID               int64 `gorm:"primaryKey;autoIncrement"`
	ResetID          int64 `gorm:"column:reset_id;not null;index:idx_job_run_reset_time,priority:1"`
	QueryTime        int64 `gorm:"column:query_time;not null;index:idx_job_run_reset_time,priority:2"` // Unix 毫秒
	EventTimeMinutes int64 `gorm:"column:event_time_minutes;not null"`                                 // 距周期开始的分钟数
}

// TableName 指定表名
func (JobRun) TableName() string {
	return "job_run"
}
