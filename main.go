package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/commonswipe/app"
	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/feed"
	"github.com/CrestNiraj12/commonswipe/gesture"
	"github.com/CrestNiraj12/commonswipe/infra/commons"
	"github.com/CrestNiraj12/commonswipe/infra/config"
	"github.com/CrestNiraj12/commonswipe/infra/editor"
	"github.com/CrestNiraj12/commonswipe/infra/imagecache"
	"github.com/CrestNiraj12/commonswipe/infra/kv"
	"github.com/CrestNiraj12/commonswipe/infra/logging"
	"github.com/CrestNiraj12/commonswipe/ledger"
	"github.com/CrestNiraj12/commonswipe/nav"
	"github.com/CrestNiraj12/commonswipe/prefetch"
	"github.com/CrestNiraj12/commonswipe/prefs"
	"github.com/CrestNiraj12/commonswipe/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func resolveVersionInfo(v, c, d, moduleVersion string, settings map[string]string) (string, string, string) {
	if v == "dev" {
		mv := strings.TrimSpace(moduleVersion)
		if mv != "" && mv != "(devel)" {
			v = mv
		}
	}
	if c == "none" {
		rev := strings.TrimSpace(settings["vcs.revision"])
		if rev != "" {
			if len(rev) > 12 {
				rev = rev[:12]
			}
			c = rev
		}
	}
	if d == "unknown" {
		t := strings.TrimSpace(settings["vcs.time"])
		if t != "" {
			d = t
		}
	}
	return v, c, d
}

func buildSettingsMap(in []debug.BuildSetting) map[string]string {
	out := make(map[string]string, len(in))
	for _, s := range in {
		out[s.Key] = s.Value
	}
	return out
}

func resolvedRuntimeVersionInfo(v, c, d string) (string, string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return v, c, d
	}
	return resolveVersionInfo(v, c, d, info.Main.Version, buildSettingsMap(info.Settings))
}

func main() {
	// 1. Load config from flags and environment.
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if cfg.ShowVersion {
		v, c, d := resolvedRuntimeVersionInfo(version, commit, date)
		fmt.Printf("CommonSwipe %s\ncommit: %s\nbuilt: %s\n", v, c, d)
		return
	}

	// 2. Build infrastructure.
	logger, closeLog, err := logging.OpenFile(cfg.DataDir, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	logger.Info("commonswipe starting", "endpoint", cfg.Endpoint, "mode", cfg.Mode)

	var durable app.KVStore
	sqlite, err := kv.OpenSQLite(cfg.DBPath)
	if err != nil {
		// Viewed history and preferences last for this session only.
		logger.Warn("state database unavailable", "path", cfg.DBPath, "err", err)
	} else {
		defer sqlite.Close()
		durable = sqlite
	}
	store := kv.NewResilient(durable, logger)
	if store.Degraded() {
		logger.Warn("viewed history and categories will not be saved this session")
	}

	// 3. Build services.
	catalog := domain.Builtins()
	viewed := ledger.Load(store, cfg.LedgerCapacity, logger)
	preferences := prefs.Load(store, catalog, logger)
	if cfg.Category != "" {
		if err := preferences.SetSelected(cfg.Category); err != nil {
			logger.Warn("saving start category", "err", err)
		}
	}

	client := commons.NewClient(cfg.Endpoint, commons.ClientOptions{
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSec,
	})
	catalogSvc := commons.NewCatalogService(client, viewed, commons.CatalogOptions{
		Mode:       cfg.Mode,
		PageSize:   cfg.PageSize,
		ImageWidth: cfg.ImageWidth,
	}, logger)
	feedStore := feed.NewStore(catalogSvc, feed.SelfHeal{History: viewed}, logger)
	images := imagecache.New(imagecache.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	}, logger)
	scheduler := prefetch.New(feedStore, images, cfg.PrefetchWindow, cfg.PrefetchLowWater, logger)

	// 4. Wire navigation and the root TUI model.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	surface := tui.NewSurface()
	defer surface.Close()
	controller := nav.New(nav.Deps{
		Feed:     feedStore,
		History:  viewed,
		Surface:  surface,
		Prefs:    preferences,
		Prefetch: scheduler,
		Gestures: surface,
		Opener:   tui.BrowserOpener{},
		Catalog:  catalog,
		Logger:   logger,
	})

	rootModel := tui.NewApp(tui.Deps{
		Ctx:        ctx,
		Controller: controller,
		Surface:    surface,
		Gestures:   gesture.New(tui.GestureConfig()),
		Prefs:      preferences,
		Editor:     editor.NewEnvEditor(),
		Images:     images,
		Logger:     logger,
	})

	// 5. Run.
	p := tea.NewProgram(rootModel, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, runErr := p.Run()
	cancel()
	scheduler.Wait()
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		logger.Error("program exited", "err", runErr)
		fmt.Fprintf(os.Stderr, "commonswipe: %v\n", runErr)
		os.Exit(1)
	}
}
