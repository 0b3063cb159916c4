package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yuqie6/st-leaderboard/internal/dto"
	"github.com/yuqie6/st-leaderboard/internal/repository"
	"github.com/yuqie6/st-leaderboard/internal/service"
)

// tsLayout 前端约定的时间格式（UTC，不带时区）
const tsLayout = "2006-01-02T15:04:05"

func formatTs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(tsLayout)
}

func formatTsPtr(ms *int64) *string {
	if ms == nil {
		return nil
	}
	s := formatTs(*ms)
	return &s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorDTO{Error: msg})
}

// writeServiceError 已知错误映射为 4xx，其余记日志后统一 500
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrResetNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidResetDate),
		errors.Is(err, service.ErrInvalidSelectionMode),
		errors.Is(err, service.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("处理请求失败", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func readJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}
