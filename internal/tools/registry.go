package tools

import (
	"os"
	"slices"
	"sync"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/miniagent/internal/models"
	"golang.org/x/exp/maps"
)

// Registry is a threadsafe storage for LLMTools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]models.LLMTool
	debug bool
}

// NewRegistry returns an empty tools registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]models.LLMTool), debug: misc.Truthy(os.Getenv("DEBUG"))}
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (models.LLMTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Set registers tool under its specification name.
func (r *Registry) Set(t models.LLMTool) {
	name := t.Specification().Name
	r.mu.Lock()
	if r.debug {
		ancli.Okf("adding tool to registry, name: %v\n", name)
	}
	r.tools[name] = t
	r.mu.Unlock()
}

// All registered tools, as a copy.
func (r *Registry) All() map[string]models.LLMTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make(map[string]models.LLMTool, len(r.tools))
	for k, v := range r.tools {
		ret[k] = v
	}
	return ret
}

// Names of all registered tools, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := maps.Keys(r.tools)
	slices.Sort(names)
	return names
}

// Specifications of all registered tools, sorted by name so that the
// request body is stable between turns.
func (r *Registry) Specifications() []models.Specification {
	all := r.All()
	names := maps.Keys(all)
	slices.Sort(names)
	specs := make([]models.Specification, 0, len(names))
	for _, n := range names {
		specs = append(specs, all[n].Specification())
	}
	return specs
}

// Len is the amount of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
