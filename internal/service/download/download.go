// Package download executes resolved manifest actions: fetch, verify,
// optionally extract, and install into the destination tree.
package download

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jgivc/downloadset/internal/adapter/archive"
	"github.com/jgivc/downloadset/internal/common"
	"github.com/jgivc/downloadset/internal/entity"
	"github.com/jgivc/downloadset/internal/util"
	"github.com/spf13/afero"
)

const (
	modeDir    = 0o755
	modeFile   = 0o644
	modeScript = 0o755
)

// Fetcher retrieves the raw bytes behind a manifest URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Options control how a manifest's files are installed.
type Options struct {
	Executable bool // install with the executable bit set (script manifests)
}

type Service struct {
	fetcher Fetcher
	fs      afero.Fs
	log     *slog.Logger
}

func NewService(fetcher Fetcher, log *slog.Logger) *Service {
	return NewServiceWithFS(afero.NewOsFs(), fetcher, log)
}

func NewServiceWithFS(fsys afero.Fs, fetcher Fetcher, log *slog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		fs:      fsys,
		log:     log.With(slog.String("item", "DownloadService")),
	}
}

/*
Execute runs the actions strictly in order, one fetch-verify-install at a
time, and returns the inventory of installed files.

The first failure aborts the remaining actions. Files already installed
stay on disk; every install is independent and idempotent to rerun, so
there is nothing to roll back.
*/
func (s *Service) Execute(ctx context.Context, actions []entity.ResolvedAction, destRoot string, opts Options) ([]entity.InstalledFile, error) {
	installed := make([]entity.InstalledFile, 0, len(actions))

	for i := range actions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := s.execute(ctx, &actions[i], destRoot, opts)
		if err != nil {
			s.log.Error("Cannot install file",
				slog.String("filename", actions[i].Filename), slog.Any("error", err))

			return nil, err
		}

		installed = append(installed, *info)
	}

	return installed, nil
}

func (s *Service) execute(ctx context.Context, a *entity.ResolvedAction, destRoot string, opts Options) (*entity.InstalledFile, error) {
	log := s.log.With(slog.String("filename", a.Filename))
	log.Info("Fetch", slog.String("url", a.URL))

	data, err := s.fetcher.Fetch(ctx, a.URL)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch %s: %w", a.URL, err)
	}

	got := util.SHA256Hex(data)
	if got != a.SHA256 {
		return nil, fmt.Errorf("%s: %w: expected %s, got %s",
			a.Filename, common.ErrChecksumMismatch, a.SHA256, got)
	}

	if a.Extract != entity.ArchiveNone {
		data, err = archive.ReadMember(data, a.Extract, a.ExtractPath)
		if err != nil {
			return nil, fmt.Errorf("%s: cannot extract %s: %w", a.Filename, a.ExtractPath, err)
		}
	}

	dest := filepath.Join(destRoot, filepath.FromSlash(a.Filename))
	if err := s.fs.MkdirAll(filepath.Dir(dest), modeDir); err != nil {
		return nil, fmt.Errorf("cannot create %s: %w", filepath.Dir(dest), err)
	}

	mode := fs.FileMode(modeFile)
	if opts.Executable {
		mode = modeScript
	}

	// Stage next to the target, then rename over it, so a failed write
	// never leaves a truncated file at the destination path.
	staging := filepath.Join(filepath.Dir(dest), ".downloadset-"+uuid.NewString())
	if err := afero.WriteFile(s.fs, staging, data, mode); err != nil {
		return nil, fmt.Errorf("cannot write %s: %w", staging, err)
	}

	_ = s.fs.Remove(dest) // overwrite any previous install
	if err := s.fs.Rename(staging, dest); err != nil {
		_ = s.fs.Remove(staging)

		return nil, fmt.Errorf("cannot install %s: %w", dest, err)
	}

	log.Info("Installed", slog.String("path", dest), slog.Int("size", len(data)))

	return &entity.InstalledFile{
		Path:   dest,
		Size:   int64(len(data)),
		SHA256: got,
	}, nil
}
