// Package cache stores rendered public post responses on disk, keyed by
// post slug, so repeated reads skip the database and markdown rendering.
package cache

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// PageCache entries carry no version of their own. A per-slug generation,
// bumped by every invalidation, lets a response rendered before an
// invalidation be dropped instead of written back.
type PageCache struct {
	dir string
	ttl time.Duration

	mu          sync.Mutex
	generations map[string]uint64
	epoch       uint64
}

// Generation identifies the cache state a rendering of slug starts from.
type Generation struct {
	epoch uint64
	slug  uint64
}

func New(dir string, ttl time.Duration) *PageCache {
	if dir == "" {
		dir = "cache"
	}
	return &PageCache{dir: dir, ttl: ttl, generations: make(map[string]uint64)}
}

// Generation returns the current generation of slug.
func (p *PageCache) Generation(slug string) Generation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Generation{epoch: p.epoch, slug: p.generations[slug]}
}

// WriteIfCurrent stores body only if slug has not been invalidated since
// gen was taken. It reports whether the entry was written.
func (p *PageCache) WriteIfCurrent(slug string, gen Generation, body []byte) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != (Generation{epoch: p.epoch, slug: p.generations[slug]}) {
		return false, nil
	}
	if err := p.Write(slug, body); err != nil {
		return false, err
	}
	return true, nil
}

// Path returns the cache file path for a post slug
func (p *PageCache) Path(slug string) string {
	return filepath.Join(p.dir, "posts", fmt.Sprintf("%s_%s.json", slug, generateHash(slug)[:16]))
}

// generateHash generates an xxHash hash for the given string
func generateHash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

func (p *PageCache) Write(slug string, body []byte) error {
	if err := os.MkdirAll(filepath.Join(p.dir, "posts"), 0755); err != nil {
		return err
	}
	return os.WriteFile(p.Path(slug), body, 0644)
}

// Read returns the cached body if it exists and is younger than the TTL
func (p *PageCache) Read(slug string) ([]byte, bool) {
	path := p.Path(slug)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > p.ttl {
		return nil, false
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return body, true
}

// InvalidatePost removes every cached rendering of slug. Failures are
// logged; a stale entry still expires with the TTL.
func (p *PageCache) InvalidatePost(slug string) {
	if slug == "" || strings.ContainsAny(slug, `/\`) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.generations[slug]++

	if err := os.Remove(p.Path(slug)); err != nil && !os.IsNotExist(err) {
		log.Printf("cache: failed to remove %s: %v", slug, err)
	}

	matches, err := filepath.Glob(filepath.Join(p.dir, "posts", slug+"_*.json"))
	if err != nil {
		return
	}
	for _, match := range matches {
		os.Remove(match)
	}
}

// Clear drops the whole cache
func (p *PageCache) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.epoch++
	return os.RemoveAll(filepath.Join(p.dir, "posts"))
}

// Sweep removes entries older than the TTL
func (p *PageCache) Sweep() error {
	root := filepath.Join(p.dir, "posts")
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		if time.Since(info.ModTime()) > p.ttl {
			os.Remove(path)
		}
		return nil
	})
}
