package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// CredentialStore keeps the bearer token in <Dir>/auth.json, readable only by
// the owner.
type CredentialStore struct {
	Dir string
}

type savedAuth struct {
	Token string `json:"token"`
}

func (s CredentialStore) path() string {
	return filepath.Join(s.Dir, "auth.json")
}

// Load returns "" when nobody is logged in.
func (s CredentialStore) Load() (string, error) {
	raw, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var a savedAuth
	if err := json.Unmarshal(raw, &a); err != nil {
		return "", err
	}
	return strings.TrimSpace(a.Token), nil
}

func (s CredentialStore) Save(token string) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(savedAuth{Token: token})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path(), raw, 0o600); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing file
	return os.Chmod(s.path(), 0o600)
}

// Delete reports whether a token was stored.
func (s CredentialStore) Delete() (bool, error) {
	err := os.Remove(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
