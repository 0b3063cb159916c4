package config

import (
	"path/filepath"
	"testing"
)

func TestNormalizeDBPath(t *testing.T) {
	cases := map[string]string{
		"sqlite://data/flwi-leaderboard.db?mode=rwc": "data/flwi-leaderboard.db",
		"sqlite:///var/lib/lb.db":                    "/var/lib/lb.db",
		"./data/leaderboard.db":                      "./data/leaderboard.db",
		":memory:":                                   ":memory:",
	}
	for in, want := range cases {
		if got := normalizeDBPath(in); got != want {
			t.Fatalf("normalizeDBPath(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestWriteFileThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.Storage.DBPath = filepath.Join(dir, "lb.db")
	cfg.Server.Port = 9191
	cfg.Collector.Schedule = "*/10 * * * *"
	if err := WriteFile(path, cfg); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Server.Port != 9191 || got.Collector.Schedule != "*/10 * * * *" {
		t.Fatalf("got=%+v", got)
	}
	if got.Storage.DBPath != cfg.Storage.DBPath {
		t.Fatalf("db_path=%q, want %q", got.Storage.DBPath, cfg.Storage.DBPath)
	}
	if got.Remote.MaxAttempts != 3 || got.Remote.RatePerSecond != 2 {
		t.Fatalf("remote defaults=%+v", got.Remote)
	}
}

func TestLoadLegacyEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LEADERBOARD_DATABASE_URL", "sqlite://"+filepath.Join(dir, "env.db")+"?mode=rwc")
	t.Setenv("LEADERBOARD_PORT", "7070")
	t.Setenv("LEADERBOARD_TOKEN", "secret")

	got, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Storage.DBPath != filepath.Join(dir, "env.db") {
		t.Fatalf("db_path=%q", got.Storage.DBPath)
	}
	if got.Server.Port != 7070 || got.Remote.Token != "secret" {
		t.Fatalf("got=%+v", got.Server)
	}
}

func TestExpandEnvPlaceholder(t *testing.T) {
	t.Setenv("ST_TOKEN", "abc")
	if got := expandEnv("${ST_TOKEN}"); got != "abc" {
		t.Fatalf("expandEnv=%q", got)
	}
	if got := expandEnv("plain"); got != "plain" {
		t.Fatalf("expandEnv=%q", got)
	}
}
