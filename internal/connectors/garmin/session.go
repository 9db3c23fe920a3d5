package garmin

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// sessionFile is the cached session file name within the state
// directory.
const sessionFile = "garmin_session.json"

// sessionCache persists the OAuth token between runs so every sync does
// not start with a fresh SSO login.
type sessionCache struct {
	path string
}

// newSessionCache creates a session cache in the given state directory.
// An empty directory disables caching.
func newSessionCache(stateDir string) *sessionCache {
	if stateDir == "" {
		return &sessionCache{}
	}
	return &sessionCache{path: filepath.Join(stateDir, sessionFile)}
}

// load returns the cached token, or nil when absent or unreadable.
func (c *sessionCache) load() *oauth2.Token {
	if c.path == "" {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil
	}
	return &token
}

// save persists the token, best-effort.
func (c *sessionCache) save(token *oauth2.Token) error {
	if c.path == "" || token == nil {
		return nil
	}

	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0600)
}

// clear removes the cached session.
func (c *sessionCache) clear() {
	if c.path != "" {
		os.Remove(c.path)
	}
}
