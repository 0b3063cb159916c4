package repository

import (
	"fmt"
	"time"
)

// ResetDateLayout 重置日期格式
const ResetDateLayout = "2006-01-02"

// ParseResetDate 校验并规范化 YYYY-MM-DD
func ParseResetDate(date string) (string, error) {
	t, err := time.ParseInLocation(ResetDateLayout, date, time.UTC)
	if err != nil {
		return "", fmt.Errorf("解析日期失败: %w", err)
	}
	return t.Format(ResetDateLayout), nil
}

// EventTimeMinutes 两个毫秒时间戳之间的整分钟数（向零取整）
func EventTimeMinutes(startMs, endMs int64) int64 {
	return (endMs - startMs) / int64(time.Minute/time.Millisecond)
}
