package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultProfile = "work"
	cfg.Feed.URL = "ws://feed.internal:9000/feed"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	if loaded.Feed.URL != "ws://feed.internal:9000/feed" {
		t.Errorf("Feed.URL = %q", loaded.Feed.URL)
	}
	if loaded.Seed.Conversations != cfg.Seed.Conversations {
		t.Errorf("Seed.Conversations = %d, want %d", loaded.Seed.Conversations, cfg.Seed.Conversations)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	if cfg.Feed.PingInterval() != 10*time.Second {
		t.Errorf("PingInterval = %v, want 10s", cfg.Feed.PingInterval())
	}
	if cfg.Feed.PongTimeout() != 25*time.Second {
		t.Errorf("PongTimeout = %v, want 25s", cfg.Feed.PongTimeout())
	}
	if cfg.Seed.Window() != 30*24*time.Hour {
		t.Errorf("Window = %v, want 720h", cfg.Seed.Window())
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
