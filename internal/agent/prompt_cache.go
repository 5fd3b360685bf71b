package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// PromptCache resolves system prompts, preferring an override file
// <dir>/<stage>.txt over the built-in text. Files are read once.
type PromptCache struct {
	dir string

	mu      sync.RWMutex
	raw     map[string]string
	missing map[string]bool
}

// NewPromptCache creates a cache rooted at dir. An empty dir disables
// overrides.
func NewPromptCache(dir string) *PromptCache {
	return &PromptCache{
		dir:     dir,
		raw:     make(map[string]string),
		missing: make(map[string]bool),
	}
}

// LoadPrompt loads a prompt from file or cache
func (pc *PromptCache) LoadPrompt(path string) (string, error) {
	pc.mu.RLock()
	if content, ok := pc.raw[path]; ok {
		pc.mu.RUnlock()
		return content, nil
	}
	pc.mu.RUnlock()

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt file: %w", err)
	}

	pc.mu.Lock()
	pc.raw[path] = string(content)
	pc.mu.Unlock()

	return string(content), nil
}

// Resolve returns the override for stage if one exists, otherwise fallback.
func (pc *PromptCache) Resolve(stage, fallback string) string {
	if pc == nil || pc.dir == "" {
		return fallback
	}

	path := filepath.Join(pc.dir, stage+".txt")
	pc.mu.RLock()
	skip := pc.missing[path]
	pc.mu.RUnlock()
	if skip {
		return fallback
	}

	content, err := pc.LoadPrompt(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			pc.mu.Lock()
			pc.missing[path] = true
			pc.mu.Unlock()
		}
		return fallback
	}
	return content
}

// reset drops cached prompts and known-missing files.
func (pc *PromptCache) reset() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.raw = make(map[string]string)
	pc.missing = make(map[string]bool)
}

// stats returns the number of cached and known-missing files.
func (pc *PromptCache) stats() (cached int, missing int) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	return len(pc.raw), len(pc.missing)
}
