package listing

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
)

// md5 of the ASCII string "hello"
const helloMD5 = "5d41402abc4b2a76b9719d911017c592"

func TestParseAnnexKey(t *testing.T) {
	tests := []struct {
		key  string
		md5  string
		size int64
		ok   bool
	}{
		{"MD5E-s31390--5d41402abc4b2a76b9719d911017c592.nii.gz", helloMD5, 31390, true},
		{"MD5-s5--5d41402abc4b2a76b9719d911017c592", helloMD5, 5, true},
		{"SHA256E-s100--deadbeef.dat", "", 0, false},
		{"URL--http&c%%example.com", "", 0, false},
	}
	for _, tc := range tests {
		md5sum, size, ok := ParseAnnexKey(tc.key)
		if ok != tc.ok || md5sum != tc.md5 || size != tc.size {
			t.Errorf("ParseAnnexKey(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tc.key, md5sum, size, ok, tc.md5, tc.size, tc.ok)
		}
	}
}

func TestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"), "hello")
	writeFile(t, filepath.Join(root, "data", "raw.dat"), "hello")
	writeFile(t, filepath.Join(root, ".git", "config"), "ignored")

	annexKey := "MD5E-s2048--5d41402abc4b2a76b9719d911017c592.dat"
	target := filepath.Join(".git", "annex", "objects", annexKey)
	if err := os.Symlink(target, filepath.Join(root, "data", "big.dat")); err != nil {
		t.Fatal(err)
	}

	entries, err := Directory(root, true)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}

	want := []Entry{
		{Path: "README.md", Size: 5, Checksum: helloMD5},
		{Path: "data/big.dat", Size: 2048, Checksum: helloMD5},
		{Path: "data/raw.dat", Size: 5, Checksum: helloMD5},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("got %+v\nwant %+v", entries, want)
	}
}

func TestDirectoryNoHash(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"), "hello")

	entries, err := Directory(root, false)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if len(entries) != 1 || entries[0].Checksum != "" || entries[0].Size != 5 {
		t.Errorf("got %+v, want size without checksum", entries)
	}
}

func TestWorktree(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	root := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", root}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	git("init", "-q")
	writeFile(t, filepath.Join(root, "README.md"), "hello")
	writeFile(t, filepath.Join(root, "untracked.txt"), "not added")
	git("add", "README.md")

	entries, err := Worktree(context.Background(), root, true)
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	want := []Entry{{Path: "README.md", Size: 5, Checksum: helloMD5}}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("got %+v, want %+v", entries, want)
	}
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTSV(&buf, []Entry{
		{Path: "data/raw.dat", Size: 5, Checksum: helloMD5},
		{Path: "no-checksum.bin", Size: 12},
	})
	if err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}
	want := strings.Join([]string{
		"path[POSIX]\tsize[bytes]\tchecksum[md5]",
		"data/raw.dat\t5\t" + helloMD5,
		"no-checksum.bin\t12\t",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteFileParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files.parquet")
	want := []Entry{
		{Path: "data/raw.dat", Size: 5, Checksum: helloMD5},
		{Path: "no-checksum.bin", Size: 12},
	}
	if err := WriteFile(path, want); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := parquet.ReadFile[Entry](path)
	if err != nil {
		t.Fatalf("reading parquet back: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestWriteFileTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files.tsv")
	if err := WriteFile(path, []Entry{{Path: "a.txt", Size: 1}}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(content), "path[POSIX]\t") {
		t.Errorf("TSV header missing: %q", content)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
