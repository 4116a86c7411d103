package template

import (
	"sync"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/codegen"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/config"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/i18n"
)

// Cache shares compiled programs between templates with the same source
// and compile settings. Each template renders the shared program with its
// own render settings.
type Cache struct {
	mu       sync.Mutex
	programs map[string]*codegen.Program
}

// NewCache creates a new empty Cache
func NewCache() *Cache {
	return &Cache{programs: map[string]*codegen.Program{}}
}

// Key returns the cache key of a template source compiled with cfg
func Key(filename, source string, cfg *config.CompilerConfig) string {
	return i18n.Digest(filename, source, cfg.Fingerprint())
}

// Get returns the program stored under key
func (c *Cache) Get(key string) (*codegen.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.programs[key]
	return p, ok
}

// Put stores a program under key
func (c *Cache) Put(key string, p *codegen.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs[key] = p
}

// Len returns the number of cached programs
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.programs)
}
