// Package testutil writes minimal on-disk Git repositories for tests.
package testutil

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"
)

const emptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Repo is a bare-bones .git layout holding only loose objects and refs.
type Repo struct {
	t       testing.TB
	WorkDir string
	GitDir  string
	seq     int
}

// NewRepo creates WorkDir/.git with objects, refs/heads and HEAD.
func NewRepo(t testing.TB) *Repo {
	t.Helper()

	workDir := t.TempDir()
	gitDir := filepath.Join(workDir, ".git")
	for _, dir := range []string{"objects", filepath.Join("refs", "heads"), filepath.Join("refs", "tags")} {
		if err := os.MkdirAll(filepath.Join(gitDir, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s failed: %v", dir, err)
		}
	}
	if err := os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		t.Fatalf("write HEAD failed: %v", err)
	}

	return &Repo{t: t, WorkDir: workDir, GitDir: gitDir}
}

// Commit writes a commit object with the given parents and returns its hash.
// Every call produces a distinct object.
func (r *Repo) Commit(parents ...string) string {
	r.t.Helper()
	r.seq++

	var body strings.Builder
	fmt.Fprintf(&body, "tree %s\n", emptyTree)
	for _, parent := range parents {
		fmt.Fprintf(&body, "parent %s\n", parent)
	}
	ts := 1713800000 + r.seq
	fmt.Fprintf(&body, "author Test User <test@example.com> %d +0000\n", ts)
	fmt.Fprintf(&body, "committer Test User <test@example.com> %d +0000\n", ts)
	fmt.Fprintf(&body, "\ncommit %d\n", r.seq)

	return r.WriteObject("commit", []byte(body.String()))
}

// WriteObject stores body as a loose object of the given type.
func (r *Repo) WriteObject(objType string, body []byte) string {
	r.t.Helper()

	raw := append([]byte(fmt.Sprintf("%s %d\x00", objType, len(body))), body...)
	sum := sha1.Sum(raw)
	hash := hex.EncodeToString(sum[:])

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		r.t.Fatalf("compress object failed: %v", err)
	}
	if err := zw.Close(); err != nil {
		r.t.Fatalf("compress object failed: %v", err)
	}

	r.WriteRaw(hash, buf.Bytes())
	return hash
}

// WriteRaw stores data verbatim at the loose object path for hash.
func (r *Repo) WriteRaw(hash string, data []byte) {
	r.t.Helper()

	path := filepath.Join(r.GitDir, "objects", hash[:2], hash[2:])
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatalf("mkdir %s failed: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		r.t.Fatalf("write %s failed: %v", path, err)
	}
}

// RemoveObject deletes the loose object for hash.
func (r *Repo) RemoveObject(hash string) {
	r.t.Helper()

	path := filepath.Join(r.GitDir, "objects", hash[:2], hash[2:])
	if err := os.Remove(path); err != nil {
		r.t.Fatalf("remove %s failed: %v", path, err)
	}
}

// Branch points refs/heads/<name> at hash. name may contain slashes.
func (r *Repo) Branch(name, hash string) {
	r.t.Helper()
	r.WriteFile(filepath.Join("refs", "heads", filepath.FromSlash(name)), hash+"\n")
}

// WriteFile writes content at a path relative to GitDir.
func (r *Repo) WriteFile(relPath, content string) {
	r.t.Helper()

	path := filepath.Join(r.GitDir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatalf("mkdir %s failed: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatalf("write %s failed: %v", path, err)
	}
}
