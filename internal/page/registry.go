package page

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]*Page)
	registryMu sync.RWMutex
)

// Register adds a compiled page to the registry.
// Panics if a page with the same name is already registered.
func Register(p *Page) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[p.Name]; exists {
		panic(fmt.Sprintf("page already registered: %s", p.Name))
	}
	registry[p.Name] = p
}

// Get returns a page by name.
// Returns false if not found.
func Get(name string) (*Page, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[name]
	return p, ok
}

// All returns all registered pages.
// Sorted by group then by name for consistent ordering.
func All() []*Page {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]*Page, 0, len(registry))
	for _, p := range registry {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Name < result[j].Name
	})

	return result
}

// ByGroup returns all pages for a specific group, sorted by name.
func ByGroup(group string) []*Page {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []*Page
	for _, p := range registry {
		if p.Group == group {
			result = append(result, p)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// Groups returns all unique group names, sorted.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, p := range registry {
		seen[p.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// Count returns the number of registered pages.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered pages.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]*Page)
}
