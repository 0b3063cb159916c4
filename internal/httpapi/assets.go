package httpapi

import (
	"bytes"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
)

func spaHandler(assetFS fs.FS, index string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upath := r.URL.Path
		if upath == "" || upath == "/" {
			serveAsset(w, r, assetFS, index)
			return
		}

		clean := path.Clean(upath)
		clean = strings.TrimPrefix(clean, "/")

		// 只允许访问资源目录内文件
		if strings.Contains(clean, "..") {
			http.NotFound(w, r)
			return
		}

		// 资源存在则直接返回，否则回退到 index.html（SPA 路由）
		if _, err := fs.Stat(assetFS, clean); err == nil {
			serveAsset(w, r, assetFS, clean)
			return
		}
		serveAsset(w, r, assetFS, index)
	})
}

func serveAsset(w http.ResponseWriter, r *http.Request, assetFS fs.FS, name string) {
	f, err := assetFS.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil || stat.IsDir() {
		http.NotFound(w, r)
		return
	}

	if ctype := mime.TypeByExtension(path.Ext(name)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	payload, err := io.ReadAll(f)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, name, stat.ModTime(), bytes.NewReader(payload))
}
