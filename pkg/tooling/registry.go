package tooling

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/concierge-labs/concierge/pkg/errorsx"
)

// Registry is the in-memory tool catalog. It is populated once at process
// start and safe for unsynchronized concurrent reads afterwards.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	specs map[string]ToolSpec
	order []string
}

// NewRegistry constructs a catalog seeded with the provided tools. Seeding
// errors surface immediately since the catalog is static configuration.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]Tool),
		specs: make(map[string]ToolSpec),
	}
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool under a lower-cased key. Duplicate names are rejected.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	spec := tool.Spec()
	key := strings.ToLower(strings.TrimSpace(spec.Name))
	if key == "" {
		return fmt.Errorf("tool name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[key]; exists {
		return errorsx.E(errorsx.KindDuplicateTool, "tool %s already registered", spec.Name)
	}
	r.tools[key] = tool
	r.specs[key] = spec
	r.order = append(r.order, key)
	return nil
}

// Lookup returns the tool and its specification if present.
func (r *Registry) Lookup(name string) (Tool, ToolSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	tool, ok := r.tools[key]
	if !ok {
		return nil, ToolSpec{}, errorsx.E(errorsx.KindUnknownTool, "unknown tool: %s", name)
	}
	return tool, r.specs[key], nil
}

// Specs returns the tool specifications in registration order.
func (r *Registry) Specs() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(r.order))
	for _, key := range r.order {
		specs = append(specs, r.specs[key])
	}
	return specs
}

// SpecsFor returns specifications for the named subset, skipping names the
// registry does not know.
func (r *Registry) SpecsFor(names []string) []ToolSpec {
	specs := make([]ToolSpec, 0, len(names))
	for _, name := range names {
		if _, spec, err := r.Lookup(name); err == nil {
			specs = append(specs, spec)
		}
	}
	return specs
}

// Invoke resolves a tool, validates arguments against its schema and calls it.
// Faults from the tool itself never escape as panics or raw errors: they come
// back as a kinded error whose message a reasoning loop can read as text.
func (r *Registry) Invoke(ctx context.Context, name string, req ToolRequest) (resp ToolResponse, err error) {
	tool, spec, lerr := r.Lookup(name)
	if lerr != nil {
		return ToolResponse{}, lerr
	}
	if verr := validateArguments(spec, req.Arguments); verr != nil {
		return ToolResponse{}, verr
	}

	defer func() {
		if rec := recover(); rec != nil {
			resp = ToolResponse{}
			err = errorsx.E(errorsx.KindExternalService, "tool %s panicked: %v", spec.Name, rec)
		}
	}()

	resp, err = tool.Invoke(ctx, req)
	if err != nil {
		return ToolResponse{}, errorsx.Wrap(fmt.Errorf("tool %s: %w", spec.Name, err), errorsx.KindExternalService)
	}
	return resp, nil
}

func validateArguments(spec ToolSpec, args map[string]any) error {
	known := make(map[string]bool, len(spec.Params))
	var missing []string
	for _, p := range spec.Params {
		known[p.Name] = true
		if !p.Required {
			continue
		}
		v, ok := args[p.Name]
		if !ok || v == nil {
			missing = append(missing, p.Name)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, p.Name)
		}
	}

	var extra []string
	for name := range args {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing: %s", strings.Join(missing, ", ")))
	}
	if len(extra) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected: %s", strings.Join(extra, ", ")))
	}
	return errorsx.E(errorsx.KindSchemaValidation, "tool %s arguments invalid (%s)", spec.Name, strings.Join(parts, "; "))
}
