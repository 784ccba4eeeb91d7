package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	repoFileName = ".cobit"
	lockFileName = ".cobit.lock"
)

var ErrNoRepo = errors.New("no cobit repo found, run `cobit init` first")

type Commit struct {
	Message   string    `json:"message"`
	Files     []string  `json:"files"`
	Timestamp time.Time `json:"timestamp"`
}

// Repo is the local state kept in ./.cobit. ID names the remote snippet.
type Repo struct {
	ID         string   `json:"id"`
	Visibility string   `json:"visibility"`
	Staged     []string `json:"staged"`
	Commits    []Commit `json:"commits"`
}

func (r *Repo) IsStaged(name string) bool {
	for _, s := range r.Staged {
		if s == name {
			return true
		}
	}
	return false
}

func (r *Repo) LatestCommit() (Commit, bool) {
	if len(r.Commits) == 0 {
		return Commit{}, false
	}
	return r.Commits[len(r.Commits)-1], true
}

// Workspace is a directory that may hold a .cobit file.
type Workspace struct {
	Dir string
}

func (w Workspace) path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Load reads the repo state without taking the lock.
func (w Workspace) Load() (*Repo, error) {
	raw, err := os.ReadFile(w.path(repoFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRepo
	}
	if err != nil {
		return nil, err
	}

	var r Repo
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("corrupt %s: %w", repoFileName, err)
	}
	if r.Staged == nil {
		r.Staged = []string{}
	}
	if r.Commits == nil {
		r.Commits = []Commit{}
	}
	return &r, nil
}

// Update runs fn on the current state under an exclusive lock and writes the
// result back. When create is set a missing .cobit starts out empty.
func (w Workspace) Update(create bool, fn func(r *Repo) error) error {
	lock := flock.New(w.path(lockFileName))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", lockFileName, err)
	}
	defer lock.Unlock()

	r, err := w.Load()
	if errors.Is(err, ErrNoRepo) && create {
		r, err = &Repo{Staged: []string{}, Commits: []Commit{}}, nil
	}
	if err != nil {
		return err
	}

	if err := fn(r); err != nil {
		return err
	}
	return w.save(r)
}

func (w Workspace) save(r *Repo) error {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	tmp := w.path(repoFileName + ".tmp")
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, w.path(repoFileName))
}
