// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fsops implements the directory listing, tree and text search
// built-ins. Functions report entries through callbacks so callers can
// stream results as they are found.
package fsops

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jeranaias/mopsterm/internal/shellerr"
)

// =============================================================================
// LIST
// =============================================================================

// Entry is one directory child.
type Entry struct {
	Name  string
	IsDir bool
}

// Display returns the name with a trailing separator for directories.
func (e Entry) Display() string {
	if e.IsDir {
		return e.Name + string(filepath.Separator)
	}
	return e.Name
}

// List returns the immediate children of dir sorted by name.
func List(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pathError(err, dir)
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Entry{Name: e.Name(), IsDir: isDir(filepath.Join(dir, e.Name()), e)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// isDir follows symlinks so a link to a directory lists as one.
func isDir(path string, e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// =============================================================================
// TREE
// =============================================================================

const (
	connMid   = "├── "
	connLast  = "└── "
	prefixMid = "│   "
	prefixEnd = "    "
)

// DefaultTreeDepth is the nesting cap used when none is configured.
const DefaultTreeDepth = 4

// Tree walks root and calls emit for each entry, prefixed with box-drawing
// connectors. Directories at nesting level maxDepth are listed but not
// descended into, so at most maxDepth+1 levels appear. The depth cap is the
// only protection against symlink cycles.
//
// emit receives the rendered line and whether it names a directory. Errors
// reading a subdirectory are reported through onErr and the walk continues.
func Tree(root string, maxDepth int, emit func(line string, isDir bool), onErr func(error)) error {
	info, err := os.Stat(root)
	if err != nil {
		return pathError(err, root)
	}
	if !info.IsDir() {
		return shellerr.New(shellerr.KindNotFound, "Tree error: %s is not a directory", root)
	}
	walkTree(root, "", 0, maxDepth, emit, onErr)
	return nil
}

func walkTree(dir, prefix string, depth, maxDepth int, emit func(string, bool), onErr func(error)) {
	if depth > maxDepth {
		return
	}
	entries, err := List(dir)
	if err != nil {
		if onErr != nil {
			onErr(err)
		}
		return
	}
	for i, e := range entries {
		last := i == len(entries)-1
		conn, ext := connMid, prefixMid
		if last {
			conn, ext = connLast, prefixEnd
		}
		if e.IsDir {
			emit(prefix+conn+e.Name+"/", true)
			walkTree(filepath.Join(dir, e.Name), prefix+ext, depth+1, maxDepth, emit, onErr)
		} else {
			emit(prefix+conn+e.Name, false)
		}
	}
}

// =============================================================================
// SEARCH
// =============================================================================

// Match is one matching line.
type Match struct {
	Path string // relative to the search root
	Line int    // 1-based
	Text string // trimmed line content
}

// String renders "path:line: text".
func (m Match) String() string {
	return m.Path + ":" + strconv.Itoa(m.Line) + ": " + m.Text
}

// sniffLen is how much of a file is checked for NUL bytes.
const sniffLen = 8000

// Search walks root and calls onMatch for every line containing pattern,
// case-insensitively. Unreadable entries and binary files are skipped. It
// returns the number of matches.
func Search(root, pattern string, onMatch func(Match)) (int, error) {
	if _, err := os.Stat(root); err != nil {
		return 0, pathError(err, root)
	}
	needle := strings.ToLower(pattern)
	count := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		count += searchFile(path, rel, needle, onMatch)
		return nil
	})
	return count, err
}

func searchFile(path, rel, needle string, onMatch func(Match)) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64*1024)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return 0
	}

	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	n, count := 0, 0
	for sc.Scan() {
		n++
		line := sc.Text()
		if strings.Contains(strings.ToLower(line), needle) {
			onMatch(Match{Path: rel, Line: n, Text: strings.TrimSpace(line)})
			count++
		}
	}
	return count
}

// =============================================================================
// HELPERS
// =============================================================================

func pathError(err error, path string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return shellerr.Wrap(shellerr.KindNotFound, err, "no such file or directory: %s", path)
	}
	return shellerr.Wrap(shellerr.KindIOError, err, "cannot read %s", path)
}
