// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package archive extracts zip and tar archives into a directory.
//
// Supported extensions: .zip, .tar, .tar.gz, .tgz, .tar.bz2, .tbz2,
// .tar.zst, .tzst. Entries that would land outside the destination are
// rejected.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/jeranaias/mopsterm/internal/shellerr"
)

// Format identifies an archive type.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatTar
	FormatTarGz
	FormatTarBz2
	FormatTarZst
)

var suffixes = []struct {
	suffix string
	format Format
}{
	{".tar.gz", FormatTarGz},
	{".tgz", FormatTarGz},
	{".tar.bz2", FormatTarBz2},
	{".tbz2", FormatTarBz2},
	{".tar.zst", FormatTarZst},
	{".tzst", FormatTarZst},
	{".tar", FormatTar},
	{".zip", FormatZip},
}

// Detect picks the format from the file name.
func Detect(name string) Format {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.format
		}
	}
	return FormatUnknown
}

// IsZip reports whether f is the zip format.
func (f Format) IsZip() bool { return f == FormatZip }

// Result summarizes an extraction.
type Result struct {
	Format Format
	Files  int
}

// Extract unpacks src into dest. A missing src is KindNotFound; an unknown
// extension is KindUnsupportedFormat and nothing is read.
func Extract(src, dest string) (*Result, error) {
	info, err := os.Stat(src)
	if err != nil || info.IsDir() {
		return nil, &shellerr.Error{Kind: shellerr.KindNotFound, Message: "File is not real.", Cause: err}
	}

	format := Detect(src)
	if format == FormatUnknown {
		return nil, shellerr.New(shellerr.KindUnsupportedFormat, "Unsupported archive type.")
	}

	var n int
	if format == FormatZip {
		n, err = extractZip(src, dest)
	} else {
		n, err = extractTarFile(src, dest, format)
	}
	if err != nil {
		var se *shellerr.Error
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, shellerr.Wrap(shellerr.KindIOError, err, "Extract error")
	}
	return &Result{Format: format, Files: n}, nil
}

// =============================================================================
// ZIP
// =============================================================================

func extractZip(src, dest string) (int, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n := 0
	for _, f := range r.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return n, err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return n, err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return n, err
		}
		err = writeFile(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// =============================================================================
// TAR
// =============================================================================

func extractTarFile(src, dest string, format Format) (int, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var r io.Reader = f
	switch format {
	case FormatTarGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, err
		}
		defer gz.Close()
		r = gz
	case FormatTarBz2:
		r = bzip2.NewReader(f)
	case FormatTarZst:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return 0, err
		}
		defer zr.Close()
		r = zr
	}
	return extractTar(r, dest)
}

func extractTar(r io.Reader, dest string) (int, error) {
	tr := tar.NewReader(r)
	n := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return n, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return n, err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, fs.FileMode(hdr.Mode)&fs.ModePerm); err != nil {
				return n, err
			}
			n++
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return n, fmt.Errorf("illegal symlink target %q", hdr.Linkname)
			}
			if _, err := safeJoin(dest, filepath.Join(filepath.Dir(hdr.Name), hdr.Linkname)); err != nil {
				return n, err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return n, err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return n, err
			}
		default:
			// devices, fifos and hard links are skipped
		}
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// safeJoin joins name onto dest and refuses results outside dest.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("illegal path in archive: %q", name)
	}
	return target, nil
}

func writeFile(target string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if mode&0600 == 0 {
		mode |= 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
