package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// LoadCache reads a token written by SaveCache. os.ErrNotExist is returned, wrapped, if there is no cache
// yet.
func LoadCache(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token cache: %w", err)
	}
	tok := new(oauth2.Token)
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("decode token cache %s: %w", path, err)
	}
	return tok, nil
}

// SaveCache writes the token to path, readable only by the current user.
func SaveCache(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "\t")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token cache directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}
