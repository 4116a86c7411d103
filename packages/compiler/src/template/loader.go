package template

import (
	"fmt"
	"path"
	"strings"
	"sync"
)

// Source is the text of a template together with the name it was loaded by
type Source struct {
	Name     string
	Filename string
	Text     string
}

// Loader resolves template names to their source. Reading files, sniffing
// encodings and watching for changes are left to implementations.
type Loader interface {
	Load(name string) (*Source, error)
}

// NotFoundError is returned by loaders for unknown template names
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found", e.Name)
}

// MapLoader loads templates from a map of names to source text
type MapLoader struct {
	templates map[string]string
	mu        sync.RWMutex
}

// NewMapLoader creates a new map loader
func NewMapLoader(templates map[string]string) *MapLoader {
	l := &MapLoader{templates: make(map[string]string, len(templates))}
	for name, text := range templates {
		l.templates[name] = text
	}
	return l
}

// Load implements Loader
func (l *MapLoader) Load(name string) (*Source, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	text, ok := l.templates[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return &Source{Name: name, Filename: name, Text: text}, nil
}

// Set adds or replaces a template
func (l *MapLoader) Set(name, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[name] = text
}

// resolveName joins a relative template name with the directory of the
// template that refers to it
func resolveName(name, parent string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "/") || parent == "" {
		return strings.TrimPrefix(path.Clean(name), "/")
	}
	return path.Join(path.Dir(parent), name)
}
