package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Competition is one competition entry under an organization in the league
// registry.
type Competition struct {
	Key  string `yaml:"key" json:"key"`
	Name string `yaml:"name" json:"name"`
}

// Organization is one followed sports organization.
type Organization struct {
	Key          string        `yaml:"-" json:"key"`
	Name         string        `yaml:"name" json:"name"`
	Competitions []Competition `yaml:"competitions" json:"competitions"`
}

// LeagueRegistry holds the organizations the dashboard follows, keyed by
// organization key.
type LeagueRegistry struct {
	orgs map[string]Organization
}

// Has reports whether the registry contains an organization with the given key.
func (r *LeagueRegistry) Has(orgKey string) bool {
	_, ok := r.orgs[orgKey]
	return ok
}

// Get returns the organization with the given key, or false if absent.
func (r *LeagueRegistry) Get(orgKey string) (Organization, bool) {
	org, ok := r.orgs[orgKey]
	return org, ok
}

// All returns every organization sorted by key.
func (r *LeagueRegistry) All() []Organization {
	out := make([]Organization, 0, len(r.orgs))
	for _, org := range r.orgs {
		out = append(out, org)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// LoadLeagueRegistry reads the league registry YAML file at filePath. If the
// file does not exist, an empty registry is returned (not an error).
func LoadLeagueRegistry(filePath string) (*LeagueRegistry, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // path is from admin-configured data dir
	if err != nil {
		if os.IsNotExist(err) {
			return &LeagueRegistry{orgs: make(map[string]Organization)}, nil
		}
		return nil, fmt.Errorf("reading league registry %q: %w", filePath, err)
	}

	var raw map[string]Organization
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing league registry %q: %w", filePath, err)
	}

	registry := &LeagueRegistry{orgs: make(map[string]Organization, len(raw))}
	for key, org := range raw {
		if org.Name == "" {
			return nil, fmt.Errorf("league registry %q: organization %q has no name", filePath, key)
		}
		org.Key = key
		registry.orgs[key] = org
	}
	return registry, nil
}
