package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	gitc "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

type Repository struct {
	repo *gitc.Repository
}

// NewLocalRepository will attempt to open a pre-existing git repository in the given directory
// If no repository is found, it will return an empty Repository
func NewLocalRepository(dir string) (*Repository, error) {
	repo, err := gitc.PlainOpenWithOptions(dir, &gitc.PlainOpenOptions{
		DetectDotGit: true,
	})
	if errors.Is(err, gitc.ErrRepositoryNotExists) {
		return &Repository{}, nil
	} else if err != nil {
		return &Repository{}, fmt.Errorf("git: %w", err)
	}

	return &Repository{repo: repo}, nil
}

// InitLocalRepository will initialize a new git repository in the given directory
func InitLocalRepository(dir string) (*Repository, error) {
	// Try to retrieve the default branch from the global git config
	// if the user has an explicit default branch set. Otherwise it
	// will default to master.
	branch := getDefaultGitBranch()
	reference := plumbing.NewBranchReferenceName(branch)

	repo, err := gitc.PlainInitWithOptions(dir, &gitc.PlainInitOptions{
		Bare: false,
		InitOptions: gitc.InitOptions{
			DefaultBranch: reference,
		},
	})

	if err != nil {
		return &Repository{}, err
	}

	return &Repository{repo: repo}, nil
}

func (r *Repository) IsNil() bool {
	return r.repo == nil
}

func (r *Repository) HeadHash() (string, error) {
	if r.IsNil() {
		return "", nil
	}

	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("git: %w", err)
	}

	return head.Hash().String(), nil
}

// Root returns the top level directory of the working tree, or "" for a bare or missing repository.
func (r *Repository) Root() string {
	if r.IsNil() {
		return ""
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return ""
	}
	return wt.Filesystem.Root()
}

// GitDir returns the repository's internal state directory (usually <root>/.git).
func (r *Repository) GitDir() (string, error) {
	if r.IsNil() {
		return "", fmt.Errorf("git repository not initialized")
	}
	fsStorer, ok := r.repo.Storer.(*filesystem.Storage)
	if !ok {
		return "", fmt.Errorf("git repository is not backed by a filesystem")
	}
	return fsStorer.Filesystem().Root(), nil
}

// IndexPath converts a path relative to dir (or absolute) into the slash separated,
// root relative form used by index entries.
func (r *Repository) IndexPath(dir, path string) (string, error) {
	root := r.Root()
	if root == "" {
		return "", fmt.Errorf("repository root not found")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside repository %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}

// SetLocalConfig sets section.key = value in the repository's local config.
func (r *Repository) SetLocalConfig(section, key, value string) error {
	if r.IsNil() {
		return fmt.Errorf("git repository not initialized")
	}
	cfg, err := r.repo.Config()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	cfg.Raw.Section(section).SetOption(key, value)
	if err := r.repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// LocalConfig reads section.key from the repository's local config.
func (r *Repository) LocalConfig(section, key string) (string, error) {
	if r.IsNil() {
		return "", fmt.Errorf("git repository not initialized")
	}
	cfg, err := r.repo.Config()
	if err != nil {
		return "", fmt.Errorf("failed to read config: %w", err)
	}
	return cfg.Raw.Section(section).Option(key), nil
}

const (
	defaultBranch string = "master"
)

// Retrieves the default branch from the user's global git config
// e.g
// git config --get init.defaultbranch
func getDefaultGitBranch() string {
	if cfg, _ := config.LoadConfig(config.GlobalScope); cfg != nil {
		if branch := cfg.Raw.Section("init").Options.Get("defaultBranch"); branch != "" {
			return branch
		}
	}
	return defaultBranch
}
