package scope

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of scopes.yaml.
type File struct {
	Scopes []Scope `yaml:"scopes"`
}

// Registry resolves scope names. User scopes shadow builtins of the same
// name.
type Registry struct {
	order  []string
	scopes map[string]Scope
}

// NewRegistry returns a registry holding the builtin scopes followed by
// extra, in that order.
func NewRegistry(extra ...Scope) *Registry {
	r := &Registry{scopes: make(map[string]Scope)}
	for _, s := range BuiltinScopes() {
		r.Add(s)
	}
	for _, s := range extra {
		r.Add(s)
	}
	return r
}

// Add registers s, replacing any scope with the same name.
func (r *Registry) Add(s Scope) {
	key := strings.ToLower(strings.TrimSpace(s.Name))
	if key == "" {
		return
	}
	if _, ok := r.scopes[key]; !ok {
		r.order = append(r.order, key)
	}
	r.scopes[key] = s
}

// Lookup finds a scope by case-insensitive name. An empty name resolves to
// the "all" scope.
func (r *Registry) Lookup(name string) (Scope, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "all"
	}
	s, ok := r.scopes[key]
	if !ok {
		return Scope{}, fmt.Errorf("unknown scope %q", name)
	}
	return s, nil
}

// All returns every registered scope in registration order.
func (r *Registry) All() []Scope {
	out := make([]Scope, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.scopes[key])
	}
	return out
}

// LoadFile reads user scopes from a YAML file. A missing file yields no
// scopes and no error.
func LoadFile(path string) ([]Scope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading scopes: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing scopes %s: %w", path, err)
	}
	return f.Scopes, nil
}
