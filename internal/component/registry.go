package component

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Registry holds component definitions per owner scope.
//
// Names are compared after NFC normalization so visually identical
// names cannot coexist. A colliding registration is disambiguated by
// appending a numeric suffix ("poller" → "poller-2", "poller-3", …)
// and the registered name is returned to the caller.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	owners map[string]map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{owners: make(map[string]map[string]*Definition)}
}

// Register validates def and stores it under owner, returning the
// possibly disambiguated name.
func (r *Registry) Register(owner string, def *Definition) (string, error) {
	if err := def.Validate(); err != nil {
		return "", fmt.Errorf("register component: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	scope := r.owners[owner]
	if scope == nil {
		scope = make(map[string]*Definition)
		r.owners[owner] = scope
	}

	name := norm.NFC.String(def.Name)
	if _, taken := scope[name]; taken {
		for i := 2; ; i++ {
			candidate := fmt.Sprintf("%s-%d", name, i)
			if _, taken := scope[candidate]; !taken {
				name = candidate
				break
			}
		}
	}

	scope[name] = def
	return name, nil
}

// Lookup returns the definition registered under owner/name.
func (r *Registry) Lookup(owner, name string) (*Definition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	scope := r.owners[owner]
	if scope == nil {
		return nil, false
	}
	def, ok := scope[norm.NFC.String(name)]
	return def, ok
}

// Names returns the sorted registered names for an owner scope.
func (r *Registry) Names(owner string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	scope := r.owners[owner]
	names := make([]string, 0, len(scope))
	for name := range scope {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
