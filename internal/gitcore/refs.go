package gitcore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// BranchIndex maps commit hashes to the names of the branches pointing at
// them. Tips are kept in the order they were first seen.
type BranchIndex struct {
	tips  []Hash
	names map[Hash][]string
}

// NewBranchIndex returns an empty index.
func NewBranchIndex() *BranchIndex {
	return &BranchIndex{names: make(map[Hash][]string)}
}

// Add records that branch name points at hash.
func (b *BranchIndex) Add(hash Hash, name string) {
	if _, ok := b.names[hash]; !ok {
		b.tips = append(b.tips, hash)
	}
	b.names[hash] = append(b.names[hash], name)
}

// Tips returns every distinct branch target in discovery order.
func (b *BranchIndex) Tips() []Hash {
	out := make([]Hash, len(b.tips))
	copy(out, b.tips)
	return out
}

// Names returns the branches pointing at hash, or nil.
func (b *BranchIndex) Names(hash Hash) []string {
	return b.names[hash]
}

// Len returns the number of distinct tips.
func (b *BranchIndex) Len() int {
	return len(b.tips)
}

// LoadBranches walks every loose ref file below refsDir. A branch's name is
// its slash-separated path relative to refsDir, so refs/heads/feature/x is
// "feature/x". A missing directory yields an empty index; packed-refs and
// symbolic refs are not resolved.
func LoadBranches(refsDir string) (*BranchIndex, error) {
	index := NewBranchIndex()

	if _, err := os.Stat(refsDir); errors.Is(err, fs.ErrNotExist) {
		// No branches yet (or all of them are packed), this is ok.
		return index, nil
	} else if err != nil {
		return nil, err
	}

	err := filepath.WalkDir(refsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !isRefFile(path, d) {
			return nil
		}
		if strings.HasSuffix(path, ".lock") {
			return nil
		}

		relPath, err := filepath.Rel(refsDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(relPath)

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		hash, err := NewHash(strings.TrimSpace(string(content)))
		if err != nil {
			// Log the error but continue with other potentially valid refs.
			log.WithField("ref", name).Warnf("skipping unresolvable branch: %v", err)
			return nil
		}

		index.Add(hash, name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return index, nil
}

// isRefFile reports whether a walked entry holds a ref. Symlinks count when
// they resolve to a regular file.
func isRefFile(path string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular()
	}
	return d.Type().IsRegular()
}
