// Package vcs reads the revision of the code being benchmarked.
package vcs

import (
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNoCommits is returned for a repository whose HEAD has no commit yet.
var ErrNoCommits = errors.New("repository has no commits")

// Revision identifies the checked-out code.
type Revision struct {
	Hash  string
	Dirty bool // uncommitted changes to tracked files
}

// Short returns the abbreviated hash.
func (r Revision) Short() string {
	if len(r.Hash) <= 7 {
		return r.Hash
	}
	return r.Hash[:7]
}

// Repository is an opened git repository.
type Repository interface {
	Head() (plumbing.Hash, error)
	IsDirty() (bool, error)
}

// GitOpener opens git repositories using go-git.
type GitOpener struct{}

// NewGitOpener creates a new GitOpener.
func NewGitOpener() *GitOpener {
	return &GitOpener{}
}

// PlainOpen opens an existing git repository.
func (o *GitOpener) PlainOpen(path string) (Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, err
	}
	return &gitRepository{repo: repo}, nil
}

// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
func (o *GitOpener) PlainOpenWithDetect(path string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, err
	}
	return &gitRepository{repo: repo}, nil
}

type gitRepository struct {
	repo *git.Repository
}

func (r *gitRepository) Head() (plumbing.Hash, error) {
	ref, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, ErrNoCommits
	}
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

// IsDirty reports uncommitted changes. Untracked files are not considered dirty.
func (r *gitRepository) IsDirty() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, err
	}

	status, err := wt.Status()
	if err != nil {
		return false, err
	}

	for _, s := range status {
		if s.Staging == git.Untracked && s.Worktree == git.Untracked {
			continue
		}
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			return true, nil
		}
	}
	return false, nil
}

// CurrentRevision returns the revision of the repository containing path.
func CurrentRevision(path string) (Revision, error) {
	repo, err := NewGitOpener().PlainOpenWithDetect(path)
	if err != nil {
		return Revision{}, err
	}

	hash, err := repo.Head()
	if err != nil {
		return Revision{}, err
	}

	dirty, err := repo.IsDirty()
	if err != nil {
		return Revision{}, err
	}

	return Revision{Hash: hash.String(), Dirty: dirty}, nil
}
