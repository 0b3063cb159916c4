package service

import "errors"

var (
	// ErrInvalidResetDate 日期不是 YYYY-MM-DD
	ErrInvalidResetDate = errors.New("invalid reset date")
	// ErrInvalidSelectionMode 选择模式不是 first/last
	ErrInvalidSelectionMode = errors.New("invalid selection mode")
	// ErrInvalidWindow 时间窗口参数非法
	ErrInvalidWindow = errors.New("invalid event time window")
	// ErrDataInconsistency 远端数据或本地维表不满足采集假设，本次 tick 中止
	ErrDataInconsistency = errors.New("data inconsistency")
)
