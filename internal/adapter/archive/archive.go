// Package archive reads single members out of in-memory zip and tar
// archives. Whole-archive extraction is deliberately absent: a manifest
// entry names exactly one member and one destination.
package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/jgivc/downloadset/internal/common"
	"github.com/jgivc/downloadset/internal/entity"
)

// ReadMember returns the contents of the member at path inside the
// archive. Unsupported kinds are rejected during resolution, so hitting
// that branch here means a programming error upstream.
func ReadMember(data []byte, kind entity.ArchiveKind, path string) ([]byte, error) {
	switch kind {
	case entity.ArchiveZip:
		return readZipMember(data, path)
	case entity.ArchiveTar:
		return readTarMember(data, path)
	}

	return nil, fmt.Errorf("unsupported archive kind %q", kind)
}

func readZipMember(data []byte, path string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("cannot open zip: %w", err)
	}

	want := normalize(path)
	for _, f := range zr.File {
		if normalize(f.Name) != want {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("cannot open zip member %s: %w", path, err)
		}
		defer rc.Close()

		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("cannot read zip member %s: %w", path, err)
		}

		return b, nil
	}

	return nil, fmt.Errorf("%w: %s", common.ErrMemberNotFound, path)
}

func readTarMember(data []byte, path string) ([]byte, error) {
	var r io.Reader = bytes.NewReader(data)

	// tarballs commonly arrive gzip-compressed; sniff the magic bytes
	if len(data) > 1 && data[0] == 0x1f && data[1] == 0x8b {
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("cannot open gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	want := normalize(path)
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read tar: %w", err)
		}

		if normalize(hdr.Name) != want {
			continue
		}

		b, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("cannot read tar member %s: %w", path, err)
		}

		return b, nil
	}

	return nil, fmt.Errorf("%w: %s", common.ErrMemberNotFound, path)
}

// normalize strips a leading "./" and a trailing slash so member lookup
// is insensitive to how the archiver recorded the path.
func normalize(p string) string {
	return strings.TrimSuffix(strings.TrimPrefix(p, "./"), "/")
}
