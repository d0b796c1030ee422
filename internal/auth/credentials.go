// Package auth loads service-account credentials and exchanges them for
// bearer tokens scoped to the Search Console and Indexing APIs.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Credential is one service-account identity. Immutable once loaded.
type Credential struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// Valid reports whether both fields are present.
func (c Credential) Valid() bool {
	return c.ClientEmail != "" && c.PrivateKey != ""
}

// FromPair builds a credential from an explicit email/key override.
func FromPair(email, key string) (Credential, error) {
	cred := Credential{ClientEmail: email, PrivateKey: key}
	if !cred.Valid() {
		return Credential{}, fmt.Errorf("both client email and private key are required")
	}
	return cred, nil
}

// Load reads credentials from path, which may name a single service-account
// JSON key file or a directory of them. A directory lets one run carry
// multiple identities for quota rotation; files are loaded in name order so
// rotation order is deterministic.
func Load(path string) ([]Credential, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat credentials path: %w", err)
	}
	if !info.IsDir() {
		cred, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		return []Credential{cred}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	creds := make([]Credential, 0, len(names))
	for _, name := range names {
		cred, err := loadFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("no credential files found in %q", path)
	}
	return creds, nil
}

func loadFile(path string) (Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credential{}, fmt.Errorf("read credential file: %w", err)
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return Credential{}, fmt.Errorf("decode credential file %q: %w", path, err)
	}
	if !cred.Valid() {
		return Credential{}, fmt.Errorf("credential file %q is missing client_email or private_key", path)
	}
	return cred, nil
}
