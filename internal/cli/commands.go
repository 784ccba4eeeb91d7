package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const initCode = "// cobit initialized"

// Env carries everything a command touches so tests can swap each piece.
type Env struct {
	Workspace Workspace
	Creds     CredentialStore
	Client    *Client
	Prompt    Prompter
	Print     Printer
	Now       func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Env) local(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(e.Workspace.Dir, name)
}

// Init creates the remote snippet and a fresh .cobit pointing at it.
func (e *Env) Init(ctx context.Context, file, visibility string) error {
	visibility = strings.ToLower(strings.TrimSpace(visibility))
	if visibility == "" {
		picked, err := e.Prompt.Visibility()
		if err != nil {
			return err
		}
		visibility = picked
	}
	if visibility != "public" && visibility != "private" {
		return fmt.Errorf("visibility must be public or private, got %q", visibility)
	}

	title := "Init"
	if file != "" {
		title = filepath.Base(file)
		if err := os.WriteFile(e.local(file), []byte(initCode), 0o644); err != nil {
			return err
		}
		e.Print.Success("Created file: %s", file)
	}

	// a saved login makes the caller the snippet's author
	token, _ := e.Creds.Load()
	created, err := e.Client.CreateSnippet(ctx, token, SnippetInput{
		Title:       title,
		Description: "Cobit repo initialized",
		Code:        initCode,
		Visibility:  visibility,
	})
	if err != nil {
		return fmt.Errorf("init failed: %w", err)
	}
	if created.ID == "" {
		return errors.New("init failed: no id returned from server")
	}

	err = e.Workspace.Update(true, func(r *Repo) error {
		*r = Repo{ID: created.ID, Visibility: visibility, Staged: []string{}, Commits: []Commit{}}
		if file != "" {
			r.Staged = append(r.Staged, file)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.Print.Success("Cobit repo initialized. ID: %s", created.ID)
	e.Print.Success("Visibility set to: %s", visibility)
	if file != "" {
		e.Print.Success("Added %s to staged files", file)
	}
	return nil
}

func (e *Env) Add(names []string) error {
	if len(names) == 0 {
		return errors.New("nothing specified, use `cobit add <file>` or `cobit add .`")
	}

	return e.Workspace.Update(false, func(r *Repo) error {
		var toStage []string
		if contains(names, ".") {
			files, err := e.workspaceFiles()
			if err != nil {
				return err
			}
			if r.ID != "" && len(r.Staged) == 0 {
				// freshly cloned: the snippet file is the only thing worth staging
				if len(files) > 0 {
					e.Print.Info("Found cloned file: %s", files[0])
					toStage = append(toStage, files[0])
				}
			} else {
				for _, f := range files {
					if !r.IsStaged(f) {
						toStage = append(toStage, f)
					}
				}
			}
		} else {
			for _, f := range names {
				if reason := e.unreadable(f); reason != "" {
					e.Print.Warn("Skipping: %s -> %s", reason, f)
					continue
				}
				if !r.IsStaged(f) && !contains(toStage, f) {
					toStage = append(toStage, f)
				}
			}
		}

		if len(toStage) == 0 {
			e.Print.Info("Nothing new to stage.")
			return nil
		}

		r.Staged = append(r.Staged, toStage...)
		e.Print.Success("Staged: %s", strings.Join(toStage, ", "))
		if len(r.Staged) > 1 {
			e.Print.Warn("Cobit pushes only the first staged file.")
		}
		return nil
	})
}

// workspaceFiles lists non-hidden regular files, sorted by name.
func (e *Env) workspaceFiles() ([]string, error) {
	entries, err := os.ReadDir(e.Workspace.Dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") || !entry.Type().IsRegular() {
			continue
		}
		files = append(files, entry.Name())
	}
	return files, nil
}

func (e *Env) unreadable(name string) string {
	info, err := os.Stat(e.local(name))
	if err != nil {
		return "file does not exist"
	}
	if !info.Mode().IsRegular() {
		return "not a file"
	}
	f, err := os.Open(e.local(name))
	if err != nil {
		return "not readable"
	}
	f.Close()
	return ""
}

func (e *Env) Commit(message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return errors.New("commit message is required, use -m")
	}

	return e.Workspace.Update(false, func(r *Repo) error {
		if len(r.Staged) == 0 {
			return errors.New("nothing staged, use `cobit add` first")
		}
		files := append([]string(nil), r.Staged...)
		r.Commits = append(r.Commits, Commit{Message: message, Files: files, Timestamp: e.now().UTC()})
		r.Staged = []string{}
		e.Print.Success("Committed %d file(s): %s", len(files), message)
		return nil
	})
}

func (e *Env) Status() error {
	r, err := e.Workspace.Load()
	if err != nil {
		return err
	}

	id := r.ID
	if id == "" {
		id = "(none)"
	}
	e.Print.Field("Repo", id)
	e.Print.Field("Visibility", r.Visibility)
	if len(r.Staged) == 0 {
		e.Print.Field("Staged", "(nothing)")
	} else {
		e.Print.Field("Staged", strings.Join(r.Staged, ", "))
	}
	e.Print.Field("Commits", fmt.Sprint(len(r.Commits)))
	if latest, ok := r.LatestCommit(); ok {
		e.Print.Field("Latest", latest.Message)
	}
	return nil
}

// Push uploads the first file of the latest commit as the snippet's code.
func (e *Env) Push(ctx context.Context) error {
	r, err := e.Workspace.Load()
	if err != nil {
		return err
	}
	if r.ID == "" {
		return errors.New("repo has no remote snippet, run `cobit init` or `cobit clone`")
	}
	latest, ok := r.LatestCommit()
	if !ok {
		return errors.New("nothing to push, make a commit first")
	}
	if len(latest.Files) == 0 {
		return errors.New("latest commit has no files")
	}

	filename := latest.Files[0]
	code, err := os.ReadFile(e.local(filename))
	if err != nil {
		return fmt.Errorf("file missing locally: %s", filename)
	}

	token, err := e.ensureToken(ctx)
	if err != nil {
		return err
	}

	_, err = e.Client.UpdateSnippet(ctx, token, r.ID, SnippetInput{
		Title:       filename,
		Description: latest.Message,
		Code:        string(code),
	})
	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	e.Print.Success("Pushed %s to snippet %s", filename, r.ID)
	return nil
}

// ensureToken returns a token the server accepts, logging in when needed.
func (e *Env) ensureToken(ctx context.Context) (string, error) {
	token, err := e.Creds.Load()
	if err != nil {
		return "", err
	}

	if token != "" {
		valid, err := e.Client.Verify(ctx, token)
		if err != nil {
			return "", err
		}
		if valid {
			return token, nil
		}
		e.Print.Warn("Your session has expired. Please log in again.")
	} else {
		e.Print.Warn("You are not logged in.")
	}

	return e.login(ctx)
}

func (e *Env) Login(ctx context.Context) error {
	_, err := e.login(ctx)
	return err
}

func (e *Env) login(ctx context.Context) (string, error) {
	email, password, err := e.Prompt.Credentials()
	if err != nil {
		return "", err
	}

	res, err := e.Client.Login(ctx, email, password)
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	if err := e.Creds.Save(res.Token); err != nil {
		return "", fmt.Errorf("saving token: %w", err)
	}

	e.Print.Success("Login successful")
	return res.Token, nil
}

func (e *Env) Logout(ctx context.Context) error {
	token, err := e.Creds.Load()
	if err != nil {
		return err
	}
	if token == "" {
		e.Print.Info("You were not logged in")
		return nil
	}

	if err := e.Client.Logout(ctx, token); err != nil {
		e.Print.Warn("Server logout failed: %v", err)
	}
	if _, err := e.Creds.Delete(); err != nil {
		return err
	}
	e.Print.Success("Logged out")
	return nil
}

func (e *Env) Clone(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("snippet id is required")
	}

	snippet, err := e.Client.GetSnippet(ctx, id)
	if err != nil {
		return fmt.Errorf("clone failed: %w", err)
	}

	filename := filepath.Base(strings.TrimSpace(snippet.Title))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		filename = "snippet"
	}
	if filepath.Ext(filename) == "" {
		filename += ".txt"
	}

	path := e.local(filename)
	if _, err := os.Stat(path); err == nil {
		e.Print.Warn("File already exists, overwriting: %s", filename)
	}
	if err := os.WriteFile(path, []byte(snippet.Code), 0o644); err != nil {
		return err
	}

	err = e.Workspace.Update(true, func(r *Repo) error {
		r.ID = id
		switch {
		case snippet.Visibility != "":
			r.Visibility = snippet.Visibility
		case r.Visibility == "":
			r.Visibility = "public"
		}
		if !r.IsStaged(filename) {
			r.Staged = append(r.Staged, filename)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.Print.Success("Cloned snippet %s into %s", id, filename)
	e.Print.Success("Added %s to staged files", filename)
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
