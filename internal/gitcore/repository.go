package gitcore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotRepository is returned when no .git directory exists in the start
// directory or any of its ancestors.
var ErrNotRepository = errors.New("not a git repository")

// Repository is a resolved Git metadata directory. It carries no cached state;
// every accessor reads from disk when called.
type Repository struct {
	gitDir  string
	workDir string

	objects *LooseObjectStore
}

// NewRepository locates and validates the repository containing path.
// path can be either:
//   - The working directory (will find .git within)
//   - The .git directory itself
//   - Any directory below the working directory
func NewRepository(path string) (*Repository, error) {
	gitDir, workDir, err := FindGitDir(path)
	if err != nil {
		return nil, err
	}
	return Open(gitDir, workDir)
}

// Open wraps an already resolved metadata directory.
func Open(gitDir, workDir string) (*Repository, error) {
	if err := validateGitDirectory(gitDir); err != nil {
		return nil, err
	}

	return &Repository{
		gitDir:  gitDir,
		workDir: workDir,
		objects: NewLooseObjectStore(filepath.Join(gitDir, "objects")),
	}, nil
}

// Name returns the repository's directory name.
func (r *Repository) Name() string {
	return filepath.Base(r.workDir)
}

// GitDir returns the metadata directory path.
func (r *Repository) GitDir() string {
	return r.gitDir
}

// HeadsDir returns the directory holding loose branch refs.
func (r *Repository) HeadsDir() string {
	return filepath.Join(r.gitDir, "refs", "heads")
}

// Objects returns the loose object store of the repository.
func (r *Repository) Objects() *LooseObjectStore {
	return r.objects
}

// Branches loads the branch index from refs/heads.
func (r *Repository) Branches() (*BranchIndex, error) {
	return LoadBranches(r.HeadsDir())
}

// Config reads the repository's config file.
func (r *Repository) Config() (*Config, error) {
	return ReadConfig(filepath.Join(r.gitDir, "config"))
}

// FindGitDir locates the .git directory starting from the given path and
// walking up through its ancestors. Returns both the .git directory and the
// working directory.
func FindGitDir(startPath string) (gitDir string, workDir string, err error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if filepath.Base(absPath) == ".git" {
		info, err := os.Stat(absPath)
		if err == nil && info.IsDir() {
			return absPath, filepath.Dir(absPath), nil
		}
	}

	currentPath := absPath
	for {
		gitPath := filepath.Join(currentPath, ".git")

		info, err := os.Stat(gitPath)
		if err == nil {
			if info.IsDir() {
				return gitPath, currentPath, nil
			}
			return handleGitFile(gitPath, currentPath)
		}

		parentPath := filepath.Dir(currentPath)
		if parentPath == currentPath {
			return "", "", fmt.Errorf("%w (or any parent up to mount point): %s", ErrNotRepository, startPath)
		}
		currentPath = parentPath
	}
}

// handleGitFile handles the case where .git is a file (worktrees, submodules).
// .git file format: "gitdir: /path/to/actual/.git"
func handleGitFile(gitFilePath string, workDir string) (string, string, error) {
	content, err := os.ReadFile(gitFilePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read .git file: %w", err)
	}

	line := strings.TrimSpace(string(content))
	if !strings.HasPrefix(line, "gitdir: ") {
		return "", "", fmt.Errorf("invalid .git file format: %s", gitFilePath)
	}

	gitDir := strings.TrimPrefix(line, "gitdir: ")
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(filepath.Dir(gitFilePath), gitDir)
	}
	gitDir = filepath.Clean(gitDir)

	if _, err := os.Stat(gitDir); err != nil {
		return "", "", fmt.Errorf("gitdir points to non-existent directory: %s", gitDir)
	}

	return gitDir, workDir, nil
}

// validateGitDirectory checks if the directory is a valid Git repository.
func validateGitDirectory(gitDir string) error {
	info, err := os.Stat(gitDir)
	if err != nil {
		return fmt.Errorf("git directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("git path is not a directory: %s", gitDir)
	}

	requiredPaths := []string{"objects", "refs", "HEAD"}
	for _, required := range requiredPaths {
		path := filepath.Join(gitDir, required)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("invalid git repository, missing: %s", required)
		}
	}

	return nil
}
