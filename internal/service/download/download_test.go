package download

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/jgivc/downloadset/internal/common"
	"github.com/jgivc/downloadset/internal/entity"
	"github.com/jgivc/downloadset/internal/util"
)

// stubFetcher serves canned bodies and records the order of requests.
type stubFetcher struct {
	bodies map[string][]byte
	calls  []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)

	body, ok := f.bodies[url]
	if !ok {
		return nil, common.ErrFetch
	}

	return body, nil
}

func newService(fetcher Fetcher) (*Service, afero.Fs) {
	fs := afero.NewMemMapFs()
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	return NewServiceWithFS(fs, fetcher, log), fs
}

func action(filename, url string, body []byte) entity.ResolvedAction {
	return entity.ResolvedAction{
		Filename: filename,
		URL:      url,
		SHA256:   util.SHA256Hex(body),
	}
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestExecuteVerbatim(t *testing.T) {
	body := []byte("tool bytes")
	fetcher := &stubFetcher{bodies: map[string][]byte{"https://example.com/tool": body}}
	srv, fs := newService(fetcher)

	installed, err := srv.Execute(context.Background(),
		[]entity.ResolvedAction{action("bin/tool", "https://example.com/tool", body)},
		"/dest", Options{})
	require.NoError(t, err)
	require.Len(t, installed, 1)
	require.Equal(t, "/dest/bin/tool", installed[0].Path)
	require.Equal(t, int64(len(body)), installed[0].Size)
	require.Equal(t, util.SHA256Hex(body), installed[0].SHA256)

	got, err := afero.ReadFile(fs, "/dest/bin/tool")
	require.NoError(t, err)
	require.Equal(t, body, got)
}

func TestExecuteChecksumMismatch(t *testing.T) {
	fetcher := &stubFetcher{bodies: map[string][]byte{"https://example.com/tool": []byte("tampered")}}
	srv, fs := newService(fetcher)

	act := action("bin/tool", "https://example.com/tool", []byte("expected"))

	_, err := srv.Execute(context.Background(), []entity.ResolvedAction{act}, "/dest", Options{})
	require.Error(t, err)
	require.ErrorIs(t, err, common.ErrChecksumMismatch)
	require.Contains(t, err.Error(), act.SHA256)
	require.Contains(t, err.Error(), util.SHA256Hex([]byte("tampered")))

	// nothing may be installed from unverified content
	exists, err := afero.Exists(fs, "/dest/bin/tool")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestExecuteExtractZip(t *testing.T) {
	archiveBytes := buildZip(t, map[string]string{
		"a/b.bin": "member payload",
		"a/other": "noise",
	})
	fetcher := &stubFetcher{bodies: map[string][]byte{"https://example.com/tool.zip": archiveBytes}}
	srv, fs := newService(fetcher)

	act := action("tool.bin", "https://example.com/tool.zip", archiveBytes)
	act.Extract = entity.ArchiveZip
	act.ExtractPath = "a/b.bin"

	installed, err := srv.Execute(context.Background(), []entity.ResolvedAction{act}, "/dest", Options{})
	require.NoError(t, err)
	require.Len(t, installed, 1)

	got, err := afero.ReadFile(fs, "/dest/tool.bin")
	require.NoError(t, err)
	require.Equal(t, "member payload", string(got))

	// inventory digest refers to the verified archive, size to the file
	require.Equal(t, util.SHA256Hex(archiveBytes), installed[0].SHA256)
	require.Equal(t, int64(len("member payload")), installed[0].Size)
}

func TestExecuteExtractMemberMissingAborts(t *testing.T) {
	archiveBytes := buildZip(t, map[string]string{"a/b.bin": "x"})
	body := []byte("second")
	fetcher := &stubFetcher{bodies: map[string][]byte{
		"https://example.com/tool.zip": archiveBytes,
		"https://example.com/second":   body,
	}}
	srv, fs := newService(fetcher)

	bad := action("tool.bin", "https://example.com/tool.zip", archiveBytes)
	bad.Extract = entity.ArchiveZip
	bad.ExtractPath = "missing/path"

	actions := []entity.ResolvedAction{bad, action("second", "https://example.com/second", body)}

	_, err := srv.Execute(context.Background(), actions, "/dest", Options{})
	require.Error(t, err)
	require.ErrorIs(t, err, common.ErrMemberNotFound)

	// the failing action aborts the list before the next fetch or write
	require.Equal(t, []string{"https://example.com/tool.zip"}, fetcher.calls)
	exists, err := afero.Exists(fs, "/dest/second")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestExecuteSequentialOrder(t *testing.T) {
	a, b := []byte("aa"), []byte("bb")
	fetcher := &stubFetcher{bodies: map[string][]byte{
		"https://example.com/a": a,
		"https://example.com/b": b,
	}}
	srv, _ := newService(fetcher)

	actions := []entity.ResolvedAction{
		action("a", "https://example.com/a", a),
		action("b", "https://example.com/b", b),
	}

	installed, err := srv.Execute(context.Background(), actions, "/dest", Options{})
	require.NoError(t, err)
	require.Len(t, installed, 2)
	require.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, fetcher.calls)
}

func TestExecuteFetchFailureAborts(t *testing.T) {
	b := []byte("bb")
	fetcher := &stubFetcher{bodies: map[string][]byte{"https://example.com/b": b}}
	srv, _ := newService(fetcher)

	actions := []entity.ResolvedAction{
		action("a", "https://example.com/a", []byte("aa")), // not served
		action("b", "https://example.com/b", b),
	}

	_, err := srv.Execute(context.Background(), actions, "/dest", Options{})
	require.Error(t, err)
	require.ErrorIs(t, err, common.ErrFetch)
	require.Equal(t, []string{"https://example.com/a"}, fetcher.calls)
}

func TestExecuteOverwritesExisting(t *testing.T) {
	body := []byte("fresh")
	fetcher := &stubFetcher{bodies: map[string][]byte{"https://example.com/f": body}}
	srv, fs := newService(fetcher)

	require.NoError(t, afero.WriteFile(fs, "/dest/f", []byte("stale"), 0o644))

	_, err := srv.Execute(context.Background(),
		[]entity.ResolvedAction{action("f", "https://example.com/f", body)}, "/dest", Options{})
	require.NoError(t, err)

	got, err := afero.ReadFile(fs, "/dest/f")
	require.NoError(t, err)
	require.Equal(t, body, got)
}

func TestExecuteExecutableMode(t *testing.T) {
	body := []byte("#!/bin/sh\n")
	fetcher := &stubFetcher{bodies: map[string][]byte{"https://example.com/run.sh": body}}
	srv, fs := newService(fetcher)

	_, err := srv.Execute(context.Background(),
		[]entity.ResolvedAction{action("run.sh", "https://example.com/run.sh", body)},
		"/dest", Options{Executable: true})
	require.NoError(t, err)

	info, err := fs.Stat("/dest/run.sh")
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o100)
}

func TestExecuteCancelledContext(t *testing.T) {
	body := []byte("x")
	fetcher := &stubFetcher{bodies: map[string][]byte{"https://example.com/x": body}}
	srv, _ := newService(fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := srv.Execute(ctx,
		[]entity.ResolvedAction{action("x", "https://example.com/x", body)}, "/dest", Options{})
	require.Error(t, err)
	require.Empty(t, fetcher.calls)
}

func TestExecuteNoActions(t *testing.T) {
	srv, _ := newService(&stubFetcher{})

	installed, err := srv.Execute(context.Background(), nil, "/dest", Options{})
	require.NoError(t, err)
	require.Empty(t, installed)
}
