package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/jgivc/downloadset/internal/adapter/httpadapter"
	"github.com/jgivc/downloadset/internal/adapter/platform"
	"github.com/jgivc/downloadset/internal/common"
	"github.com/jgivc/downloadset/internal/config"
	"github.com/jgivc/downloadset/internal/entity"
	"github.com/jgivc/downloadset/internal/service/download"
	"github.com/jgivc/downloadset/internal/service/manifest"
)

type plan struct {
	mc     config.ManifestConfig
	result *manifest.Result
}

type App struct {
	cfgPath string
	cfg     *config.Config
	log     *slog.Logger
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

/*
Run executes the whole pipeline once: every declared manifest is parsed
and resolved before the first byte is fetched, so a broken manifest never
produces a partial download set. With dryRun the resolved plan is printed
and nothing is downloaded.
*/
func (a *App) Run(ctx context.Context, dryRun bool) error {
	_ = godotenv.Load()

	a.cfg = config.MustLoad(a.cfgPath)

	lo := &slog.HandlerOptions{}
	switch a.cfg.LogLevel {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, lo))
	a.log = log

	facts := platform.Facts()
	log.Info("Platform facts",
		slog.String("os_name", facts.OSName),
		slog.String("sys_platform", facts.SysPlatform),
		slog.String("platform_machine", facts.PlatformMachine))

	plans, err := a.resolveAll(facts)
	if err != nil {
		return err
	}

	if dryRun {
		a.printPlan(plans)

		return nil
	}

	fetcher := httpadapter.New(time.Duration(a.cfg.HTTPTimeout))
	srv := download.NewService(fetcher, log)

	var installed []entity.InstalledFile
	for _, p := range plans {
		destRoot := filepath.Join(a.cfg.DestDir, p.mc.Subdir)

		files, err := srv.Execute(ctx, p.result.Actions, destRoot,
			download.Options{Executable: p.mc.Executable})
		if err != nil {
			return fmt.Errorf("manifest %s: %w", p.mc.Name, err)
		}

		installed = append(installed, files...)
	}

	for i, f := range installed {
		fmt.Printf("%d. %s, %d bytes\n", i+1, f.Path, f.Size)
	}
	fmt.Println("Done.")

	return nil
}

func (a *App) resolveAll(facts entity.PlatformFacts) ([]plan, error) {
	plans := make([]plan, 0, len(a.cfg.Manifests))

	for _, mc := range a.cfg.Manifests {
		text, err := a.manifestText(&mc)
		if err != nil {
			return nil, err
		}

		sections, err := manifest.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", mc.Name, err)
		}

		res, err := manifest.Resolve(sections, facts)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", mc.Name, err)
		}

		for _, sk := range res.Skipped {
			if mc.RequireAll {
				return nil, fmt.Errorf("manifest %s: group %s: %w (os_name=%q sys_platform=%q platform_machine=%q)",
					mc.Name, sk.Group, common.ErrGroupUnsupported,
					facts.OSName, facts.SysPlatform, facts.PlatformMachine)
			}

			a.log.Warn("No variant for this platform",
				slog.String("manifest", mc.Name), slog.String("group", sk.Group))
		}

		plans = append(plans, plan{mc: mc, result: res})
	}

	return plans, nil
}

func (a *App) manifestText(mc *config.ManifestConfig) (string, error) {
	if mc.Inline != "" {
		return mc.Inline, nil
	}

	data, err := os.ReadFile(mc.Path)
	if err != nil {
		return "", fmt.Errorf("manifest %s: cannot read %s: %w", mc.Name, mc.Path, err)
	}

	return string(data), nil
}

func (a *App) printPlan(plans []plan) {
	n := 0
	for _, p := range plans {
		for _, act := range p.result.Actions {
			n++
			dest := filepath.Join(a.cfg.DestDir, p.mc.Subdir, filepath.FromSlash(act.Filename))
			fmt.Printf("%d. %s: %s <- %s\n", n, p.mc.Name, dest, act.URL)
		}
		for _, sk := range p.result.Skipped {
			fmt.Printf("   %s: group %s skipped (no variant for this platform)\n", p.mc.Name, sk.Group)
		}
	}
	fmt.Println("Dry run, nothing downloaded.")
}
