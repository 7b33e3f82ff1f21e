package gitcore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zlib"
)

var (
	// ErrObjectNotFound means the store has no loose object for a hash.
	ErrObjectNotFound = errors.New("object not found")
	// ErrCorruptObject means a loose object exists but could not be inflated.
	ErrCorruptObject = errors.New("corrupt object")
)

// ObjectReadError records which object failed to load.
type ObjectReadError struct {
	Hash Hash
	Err  error
}

func (e *ObjectReadError) Error() string {
	return fmt.Sprintf("read object %s: %v", e.Hash, e.Err)
}

func (e *ObjectReadError) Unwrap() error {
	return e.Err
}

// LooseObjectStore reads zlib-compressed objects from objects/<xx>/<rest>.
// Pack files are not consulted.
type LooseObjectStore struct {
	dir string
}

// NewLooseObjectStore returns a store rooted at the given objects directory.
func NewLooseObjectStore(objectsDir string) *LooseObjectStore {
	return &LooseObjectStore{dir: objectsDir}
}

// objectPath returns where the loose object for id is stored. id must be valid.
func (s *LooseObjectStore) objectPath(id Hash) string {
	return filepath.Join(s.dir, string(id)[:2], string(id)[2:])
}

// ReadObject returns the inflated content of a loose object, including its
// "<type> <size>\x00" header.
func (s *LooseObjectStore) ReadObject(id Hash) ([]byte, error) {
	if !id.IsValid() {
		return nil, &ObjectReadError{Hash: id, Err: fmt.Errorf("%w: malformed hash", ErrObjectNotFound)}
	}

	file, err := os.Open(s.objectPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ObjectReadError{Hash: id, Err: ErrObjectNotFound}
		}
		return nil, &ObjectReadError{Hash: id, Err: err}
	}
	defer file.Close()

	zr, err := zlib.NewReader(file)
	if err != nil {
		return nil, &ObjectReadError{Hash: id, Err: fmt.Errorf("%w: %v", ErrCorruptObject, err)}
	}
	defer zr.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return nil, &ObjectReadError{Hash: id, Err: fmt.Errorf("%w: %v", ErrCorruptObject, err)}
	}
	return buf.Bytes(), nil
}

// Parents returns the parent hashes declared by the commit id, in the order
// they appear in the object.
func (s *LooseObjectStore) Parents(id Hash) ([]Hash, error) {
	content, err := s.ReadObject(id)
	if err != nil {
		return nil, err
	}
	return ParseParents(content), nil
}

// ParseParents extracts the "parent <hash>" header lines of a commit object.
// An object without parent lines is treated as a root. Scanning stops at the
// blank line separating headers from the message.
func ParseParents(content []byte) []Hash {
	if nullIdx := bytes.IndexByte(content, 0); nullIdx != -1 {
		content = content[nullIdx+1:]
	}

	var parents []Hash
	for _, line := range strings.Split(string(content), "\n") {
		if line == "" {
			break
		}
		if !strings.HasPrefix(line, "parent ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		parents = append(parents, Hash(fields[1]))
	}
	return parents
}
