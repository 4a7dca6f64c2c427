package strategy

// Registry holds the set of strategies a bot process can be
// configured to run, looked up by name (spec §9: "strategies must be
// hot-registered by name from configuration"). Mirrors the source's
// set_strategy: an unknown name falls back to the first registered
// strategy rather than erroring.
type Registry struct {
	strategies []Strategy
}

// NewRegistry builds a Registry from an ordered strategy list. Order
// matters only for the fallback-to-first-entry behavior of Get.
func NewRegistry(strategies ...Strategy) *Registry {
	return &Registry{strategies: strategies}
}

// Get looks up a strategy by name, defaulting to the first registered
// strategy when name does not match any entry.
func (r *Registry) Get(name string) Strategy {
	if len(r.strategies) == 0 {
		return nil
	}
	selected := r.strategies[0]
	for _, s := range r.strategies {
		if s.Name() == name {
			selected = s
		}
	}
	return selected
}

// Names returns every registered strategy's name, in registration
// order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}
