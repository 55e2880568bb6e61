package session

import (
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
)

// entry holds one cached password. ready is closed once the first prompt for
// the address resolves, so concurrent first lookups coalesce into a single
// prompt instead of stacking duplicate prompts.
type entry struct {
	ready    chan struct{}
	password []byte
	err      error
}

// PasswordCache is a process-wide password cache keyed by lower-cased wallet
// address. Distinct addresses are fully independent.
type PasswordCache struct {
	mu      sync.Mutex
	entries map[string]*entry

	hookOnce sync.Once
	sigCh    chan os.Signal
}

// NewPasswordCache creates an empty cache.
func NewPasswordCache() *PasswordCache {
	return &PasswordCache{entries: make(map[string]*entry)}
}

// GetOrPrompt returns the cached password for address, invoking promptFn
// exactly once on the first lookup. Concurrent first lookups for the same
// address wait for the single in-flight prompt. A failed prompt is not
// cached; the next lookup prompts again.
func (c *PasswordCache) GetOrPrompt(address string, promptFn func() (string, error)) (string, error) {
	key := strings.ToLower(address)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		<-e.ready
		if e.err != nil {
			return "", e.err
		}
		// Snapshot under the mutex: wipe() zeroes the same backing array
		// when Clear or Remove runs concurrently (signal-driven Clear in
		// particular), and the copy must never observe a half-wiped value.
		c.mu.Lock()
		password := string(e.password)
		c.mu.Unlock()
		return password, nil
	}

	e := &entry{ready: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	password, err := promptFn()
	if err != nil {
		e.err = err
		close(e.ready)
		// Drop the failed entry so a later call can retry the prompt.
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", err
	}

	e.password = []byte(password)
	close(e.ready)
	return password, nil
}

// Remove drops the entry for address, overwriting the stored value first.
func (c *PasswordCache) Remove(address string) {
	key := strings.ToLower(address)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		wipe(e)
		delete(c.entries, key)
	}
}

// Clear overwrites every stored value before removing the entries. It is the
// cache's only destructor and runs on normal process exit and on signals via
// RegisterShutdownHook.
func (c *PasswordCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		wipe(e)
		delete(c.entries, key)
	}
}

// Len reports the number of cached entries.
func (c *PasswordCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RegisterShutdownHook arranges for Clear to run when the process receives
// an interrupt or termination signal. Safe to call multiple times; only the
// first registration takes effect. Normal-exit clearing remains the caller's
// responsibility (a deferred Clear in main).
func (c *PasswordCache) RegisterShutdownHook() {
	c.hookOnce.Do(func() {
		c.sigCh = make(chan os.Signal, 1)
		signal.Notify(c.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			for range c.sigCh {
				c.Clear()
			}
		}()
	})
}

// wipe overwrites an entry's password bytes. Entries still waiting on an
// in-flight prompt have no password yet and nothing to overwrite.
func wipe(e *entry) {
	select {
	case <-e.ready:
	default:
		return
	}
	for i := range e.password {
		e.password[i] = 0
	}
	e.password = nil
}
