package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/CrestNiraj12/commonswipe/infra/commons"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("COMMONSWIPE_DATA_DIR", dir)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Endpoint != "https://commons.wikimedia.org/w/api.php" {
		t.Fatalf("unexpected endpoint: %q", cfg.Endpoint)
	}
	if cfg.Mode != commons.ModeRandom || cfg.PageSize != 50 || cfg.ImageWidth != 800 {
		t.Fatalf("unexpected feed config: %#v", cfg)
	}
	if cfg.LedgerCapacity != 1000 || cfg.PrefetchWindow != 3 || cfg.PrefetchLowWater != 5 {
		t.Fatalf("unexpected engine config: %#v", cfg)
	}
	if cfg.Timeout != 20*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout)
	}
	if cfg.DBPath != filepath.Join(dir, "state.db") {
		t.Fatalf("db path must default under data dir: %q", cfg.DBPath)
	}
	if cfg.UserAgent != commons.DefaultUserAgent {
		t.Fatalf("unexpected user agent: %q", cfg.UserAgent)
	}
}

func TestLoad_ParsesEnvAndFlags(t *testing.T) {
	t.Setenv("COMMONSWIPE_ENDPOINT", "https://example.org/w/api.php/")
	t.Setenv("COMMONSWIPE_DATA_DIR", t.TempDir())
	t.Setenv("COMMONSWIPE_MODE", "paged")

	cfg, err := Load([]string{"--page-size", "25", "--category", "Category:Bridges in Paris", "--timeout", "5s"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Endpoint != "https://example.org/w/api.php" {
		t.Fatalf("endpoint must be normalized: %q", cfg.Endpoint)
	}
	if cfg.Mode != commons.ModePaged || cfg.PageSize != 25 {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	if cfg.Category != "Bridges_in_Paris" {
		t.Fatalf("category must be normalized: %q", cfg.Category)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout)
	}
}

func TestLoad_RejectsNonHTTPS(t *testing.T) {
	t.Setenv("COMMONSWIPE_DATA_DIR", t.TempDir())
	t.Setenv("COMMONSWIPE_ENDPOINT", "http://insecure.local/w/api.php")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for non-https endpoint")
	}
}

func TestLoad_RejectsRelativeEndpoint(t *testing.T) {
	t.Setenv("COMMONSWIPE_DATA_DIR", t.TempDir())
	if _, err := Load([]string{"--endpoint", "w/api.php"}); err == nil {
		t.Fatalf("expected error for relative endpoint")
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("COMMONSWIPE_DATA_DIR", t.TempDir())
	for _, args := range [][]string{
		{"--mode", "sideways"},
		{"--page-size", "0"},
		{"--ledger-capacity", "-1"},
		{"--image-width", "0"},
	} {
		if _, err := Load(args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestLoad_Help(t *testing.T) {
	_, err := Load([]string{"--help"})
	if !errors.Is(err, ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Fatalf("GetVersion should never return empty string")
	}
}
