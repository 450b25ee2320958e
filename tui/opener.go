package tui

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// BrowserOpener opens description pages in the system browser. It
// implements nav.Opener.
type BrowserOpener struct{}

// Open starts the platform's URL handler for rawURL without waiting for it.
func (BrowserOpener) Open(rawURL string) error {
	if !isSafeExternalURL(rawURL) {
		return fmt.Errorf("refusing to open %q", rawURL)
	}
	return browserCommand(runtime.GOOS, rawURL).Start()
}

func browserCommand(goos, rawURL string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", rawURL)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return exec.Command("xdg-open", rawURL)
	}
}

func isSafeExternalURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Host == "" {
		return false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}
