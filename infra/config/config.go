package config

import (
	"cmp"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/infra/commons"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// ErrHelp is returned when --help was requested and usage was printed.
var ErrHelp = errors.New("help requested")

// Config holds application-level configuration.
type Config struct {
	Endpoint         string // e.g. "https://commons.wikimedia.org/w/api.php"
	Mode             commons.Mode
	PageSize         int
	ImageWidth       int
	DataDir          string
	DBPath           string
	LogLevel         string
	LedgerCapacity   int
	PrefetchWindow   int
	PrefetchLowWater int
	RequestsPerSec   float64
	Timeout          time.Duration
	UserAgent        string
	Category         domain.Category // Overrides the persisted selection when set
	ShowVersion      bool
	Version          string
}

type rawCfg struct {
	Endpoint         string        `long:"endpoint" env:"COMMONSWIPE_ENDPOINT" default:"https://commons.wikimedia.org/w/api.php" description:"MediaWiki action API endpoint"`
	Mode             string        `long:"mode" env:"COMMONSWIPE_MODE" default:"random" choice:"random" choice:"paged" description:"Feed order: shuffled first page or upstream paging"`
	PageSize         int           `long:"page-size" env:"COMMONSWIPE_PAGE_SIZE" default:"50" description:"Items per request in paged mode"`
	ImageWidth       int           `long:"image-width" env:"COMMONSWIPE_IMAGE_WIDTH" default:"800" description:"Requested image width in pixels"`
	DataDir          string        `long:"data-dir" env:"COMMONSWIPE_DATA_DIR" description:"Directory for state and logs (default: user config dir)"`
	DBPath           string        `long:"db-path" env:"COMMONSWIPE_DB_PATH" description:"SQLite state file (default: <data-dir>/state.db)"`
	LogLevel         string        `long:"log-level" env:"COMMONSWIPE_LOG_LEVEL" default:"info" description:"debug, info, warn or error"`
	LedgerCapacity   int           `long:"ledger-capacity" env:"COMMONSWIPE_LEDGER_CAPACITY" default:"1000" description:"How many viewed images to remember"`
	PrefetchWindow   int           `long:"prefetch-window" env:"COMMONSWIPE_PREFETCH_WINDOW" default:"3" description:"Images to download ahead of the cursor"`
	PrefetchLowWater int           `long:"prefetch-low-water" env:"COMMONSWIPE_PREFETCH_LOW_WATER" default:"5" description:"Fetch more when fewer images than this remain"`
	Rate             float64       `long:"rate" env:"COMMONSWIPE_RATE" default:"2" description:"Maximum API requests per second"`
	Timeout          time.Duration `long:"timeout" env:"COMMONSWIPE_TIMEOUT" default:"20s" description:"HTTP timeout"`
	UserAgent        string        `long:"user-agent" env:"COMMONSWIPE_USER_AGENT" description:"User-Agent sent to Wikimedia"`
	Category         string        `long:"category" env:"COMMONSWIPE_CATEGORY" description:"Start in this category"`
	Version          bool          `long:"version" description:"Print version and exit"`
}

// GetVersion returns the build version.
func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

// Load parses args (without the program name) and the environment.
func Load(args []string) (Config, error) {
	var raw rawCfg
	parser := flags.NewParser(&raw, flags.Default)
	parser.Name = "commonswipe"

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return Config{}, ErrHelp
		}
		return Config{}, fmt.Errorf("parsing configuration: %w", err)
	}
	return fromRaw(raw)
}

func fromRaw(raw rawCfg) (Config, error) {
	endpoint, err := normalizeEndpoint(raw.Endpoint)
	if err != nil {
		return Config{}, err
	}

	dataDir := strings.TrimSpace(raw.DataDir)
	if dataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("cannot determine config directory: %w", err)
		}
		dataDir = filepath.Join(base, "commonswipe")
	}
	dbPath := strings.TrimSpace(raw.DBPath)
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "state.db")
	}

	switch {
	case raw.PageSize <= 0:
		return Config{}, fmt.Errorf("invalid page size %d: must be positive", raw.PageSize)
	case raw.ImageWidth <= 0:
		return Config{}, fmt.Errorf("invalid image width %d: must be positive", raw.ImageWidth)
	case raw.LedgerCapacity <= 0:
		return Config{}, fmt.Errorf("invalid ledger capacity %d: must be positive", raw.LedgerCapacity)
	case raw.Rate < 0:
		return Config{}, fmt.Errorf("invalid rate %v: must not be negative", raw.Rate)
	}

	return Config{
		Endpoint:         endpoint,
		Mode:             commons.Mode(raw.Mode),
		PageSize:         raw.PageSize,
		ImageWidth:       raw.ImageWidth,
		DataDir:          dataDir,
		DBPath:           dbPath,
		LogLevel:         raw.LogLevel,
		LedgerCapacity:   raw.LedgerCapacity,
		PrefetchWindow:   raw.PrefetchWindow,
		PrefetchLowWater: raw.PrefetchLowWater,
		RequestsPerSec:   raw.Rate,
		Timeout:          raw.Timeout,
		UserAgent:        cmp.Or(strings.TrimSpace(raw.UserAgent), commons.DefaultUserAgent),
		Category:         domain.Category(raw.Category).Normalize(),
		ShowVersion:      raw.Version,
		Version:          GetVersion(),
	}, nil
}

func normalizeEndpoint(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid endpoint: must be an absolute URL")
	}
	if parsed.Scheme != "https" {
		return "", fmt.Errorf("invalid endpoint: only https is allowed")
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}
