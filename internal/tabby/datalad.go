package tabby

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// IsSelfDescription reports whether path names a tabby file describing
// the dataset it lives in, recognized by its location under
// .datalad/tabby.
func IsSelfDescription(path string) bool {
	dir := filepath.ToSlash(filepath.Dir(path))
	if strings.HasSuffix(dir, ".datalad/tabby/self") {
		return true
	}
	return strings.HasSuffix(dir, ".datalad/tabby") &&
		strings.HasPrefix(filepath.Base(path), "self")
}

// DatasetRoot walks up from path to the enclosing dataset root, marked
// by a .datalad or .git directory.
func DatasetRoot(path string) (string, bool) {
	dir := path
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		dir = filepath.Dir(path)
	}
	for {
		for _, marker := range []string{".datalad", ".git"} {
			if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DataladID reads the dataset id recorded in the dataset's
// .datalad/config.
func DataladID(root string) (string, error) {
	path := filepath.Join(root, ".datalad", "config")
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var inDataset bool
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			inDataset = line == `[datalad "dataset"]`
			continue
		}
		if !inDataset {
			continue
		}
		if key, value, ok := strings.Cut(line, "="); ok && strings.TrimSpace(key) == "id" {
			return strings.TrimSpace(value), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no dataset id in %s", path)
}

// HeadCommit returns the commit the dataset worktree is at.
func HeadCommit(ctx context.Context, root string) (string, error) {
	out, err := exec.CommandContext(ctx, "git", "-C", root, "rev-parse", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD of %s: %w", root, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// DatasetSheets finds the dataset tabby files in a dataset's
// .datalad/tabby collection. With anywhere set, the git index is
// searched instead, turning up dataset sheets wherever they are
// tracked.
func DatasetSheets(ctx context.Context, root string, anywhere bool) ([]string, error) {
	if anywhere {
		out, err := exec.CommandContext(ctx, "git", "-C", root,
			"ls-files", "-z", "*dataset@tby*.tsv").Output()
		if err != nil {
			return nil, fmt.Errorf("searching %s for dataset sheets: %w", root, err)
		}
		var sheets []string
		for _, name := range strings.Split(strings.TrimRight(string(out), "\x00"), "\x00") {
			if name != "" {
				sheets = append(sheets, filepath.Join(root, name))
			}
		}
		return sheets, nil
	}

	collection := filepath.Join(root, ".datalad", "tabby")
	if _, err := os.Stat(collection); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var sheets []string
	err := filepath.WalkDir(collection, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if !d.IsDir() && strings.Contains(name, "dataset") && strings.HasSuffix(name, ".tsv") {
			sheets = append(sheets, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching %s for dataset sheets: %w", collection, err)
	}
	return sheets, nil
}

// SubdatasetPath derives the path of the subdataset a tabby file
// describes: the file's directory relative to the superdataset root.
// For sheets kept in a collection directly under .datalad/tabby, the
// collection entry's name alone is the path.
func SubdatasetPath(tabbyPath, root string) (string, error) {
	rel, err := filepath.Rel(root, filepath.Dir(tabbyPath))
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if parts := strings.Split(rel, "/"); len(parts) == 3 &&
		parts[0] == ".datalad" && parts[1] == "tabby" {
		return parts[2], nil
	}
	return rel, nil
}
