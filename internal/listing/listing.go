// Package listing produces tabby file listings for a dataset's content,
// either by walking a directory or by asking git for the tracked
// files of a worktree.
package listing

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Entry is one row of a file listing.
type Entry struct {
	Path     string `parquet:"path"`
	Size     int64  `parquet:"size_bytes"`
	Checksum string `parquet:"checksum_md5,optional"`
}

// ParseAnnexKey extracts the md5 checksum and content size from a
// git-annex key such as MD5E-s1024--d41d8cd98f00b204e9800998ecf8427e.dat.
// Only the MD5 backends carry the checksum in the key.
// https://git-annex.branchable.com/internals/key_format/
func ParseAnnexKey(key string) (md5sum string, size int64, ok bool) {
	if !strings.HasPrefix(key, "MD5") {
		return "", 0, false
	}
	rest := key
	if i := strings.LastIndex(key, "--"); i >= 0 {
		rest = key[i+2:]
	}
	md5sum, _, _ = strings.Cut(rest, ".")
	for _, field := range strings.Split(key, "-") {
		if len(field) > 1 && field[0] == 's' {
			if n, err := strconv.ParseInt(field[1:], 10, 64); err == nil {
				size = n
				break
			}
		}
	}
	return md5sum, size, true
}

// Directory lists the files under root, hashing each file's content
// when hash is set. Annexed files present as symlinks report the
// checksum and size recorded in their key instead of being read.
// Version control internals are skipped.
func Directory(root string, hash bool) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entry, err := fileEntry(path, info, hash)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entry.Path = filepath.ToSlash(rel)
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing directory %s: %w", root, err)
	}
	return entries, nil
}

// Worktree lists the files git tracks in the worktree at root. Paths
// staged for deletion are skipped.
func Worktree(ctx context.Context, root string, hash bool) ([]Entry, error) {
	out, err := exec.CommandContext(ctx, "git", "-C", root, "ls-files", "-z").Output()
	if err != nil {
		return nil, fmt.Errorf("listing git worktree %s: %w", root, err)
	}
	var entries []Entry
	for _, name := range strings.Split(strings.TrimRight(string(out), "\x00"), "\x00") {
		if name == "" {
			continue
		}
		path := filepath.Join(root, name)
		info, err := os.Lstat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("listing git worktree %s: %w", root, err)
		}
		entry, err := fileEntry(path, info, hash)
		if err != nil {
			return nil, fmt.Errorf("listing git worktree %s: %w", root, err)
		}
		entry.Path = filepath.ToSlash(name)
		entries = append(entries, entry)
	}
	return entries, nil
}

func fileEntry(path string, info fs.FileInfo, hash bool) (Entry, error) {
	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return Entry{}, err
		}
		if md5sum, size, ok := ParseAnnexKey(filepath.Base(target)); ok {
			return Entry{Size: size, Checksum: md5sum}, nil
		}
		resolved, err := os.Stat(path)
		if err != nil {
			// dangling link, as for an annexed file without content
			return Entry{}, nil
		}
		return contentEntry(path, resolved.Size(), hash)
	}
	return contentEntry(path, info.Size(), hash)
}

func contentEntry(path string, size int64, hash bool) (Entry, error) {
	if !hash {
		return Entry{Size: size}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return Entry{}, err
	}
	return Entry{Size: size, Checksum: hex.EncodeToString(h.Sum(nil))}, nil
}
