package uiassets

import (
	"embed"
	"io/fs"
)

// dist 为内置的最小页面；部署时可用 server.asset_dir 指向完整的前端构建产物。
//
//go:embed all:dist
var embedded embed.FS

func FS() fs.FS {
	sub, err := fs.Sub(embedded, "dist")
	if err != nil {
		return embedded
	}
	return sub
}
