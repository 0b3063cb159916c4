package service

import (
	"fmt"
	"strings"
)

// SelectionMode 历史窗口的锚定方式
type SelectionMode string

const (
	// SelectionFirst 从周期开始计的窗口
	SelectionFirst SelectionMode = "first"
	// SelectionLast 以周期当前时长为终点的窗口
	SelectionLast SelectionMode = "last"
)

// ParseSelectionMode 解析 first/last（大小写不敏感）
func ParseSelectionMode(s string) (SelectionMode, error) {
	switch SelectionMode(strings.ToLower(strings.TrimSpace(s))) {
	case SelectionFirst:
		return SelectionFirst, nil
	case SelectionLast:
		return SelectionLast, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSelectionMode, s)
	}
}

// Window 事件时间窗口 [From, To] 与采样分辨率，单位分钟
type Window struct {
	From       int64
	To         int64
	Resolution int64
}

// ResolutionFor 按窗口宽度选择分辨率：6 小时内 5 分钟，24 小时内 15 分钟，否则 60 分钟
func ResolutionFor(widthMinutes int64) int64 {
	switch {
	case widthMinutes < 6*60:
		return 5
	case widthMinutes < 24*60:
		return 15
	default:
		return 60
	}
}

// ComputeWindow 计算有效窗口。
// first：[gte 或 0, lte]，颠倒时交换；last：以 ageMinutes 为终点向前 lte 分钟，超出周期时长则取 [0, ageMinutes]。
func ComputeWindow(mode SelectionMode, gte *int64, lte int64, ageMinutes int64) (Window, error) {
	if lte < 0 {
		return Window{}, fmt.Errorf("%w: eventTimeMinutesLte=%d", ErrInvalidWindow, lte)
	}
	if gte != nil && *gte < 0 {
		return Window{}, fmt.Errorf("%w: eventTimeMinutesGte=%d", ErrInvalidWindow, *gte)
	}
	if ageMinutes < 0 {
		ageMinutes = 0
	}

	var from, to int64
	switch mode {
	case SelectionFirst:
		if gte != nil {
			from = *gte
		}
		to = lte
		if from > to {
			from, to = to, from
		}
	case SelectionLast:
		to = ageMinutes
		if lte > ageMinutes {
			from = 0
		} else {
			from = ageMinutes - lte
		}
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidSelectionMode, mode)
	}

	return Window{From: from, To: to, Resolution: ResolutionFor(to - from)}, nil
}
