package gateway

import (
	"sort"

	"careerdev-subscription/internal/domain"
	"careerdev-subscription/internal/domain/ports/adapter"
)

// Registry holds the configured gateway signers keyed by name. Keeping
// one strategy per provider avoids branching on provider names inside a
// single hash function, which is how formulas get cross-contaminated.
type Registry struct {
	signers map[string]adapter.GatewaySigner
}

func NewRegistry(signers ...adapter.GatewaySigner) *Registry {
	r := &Registry{signers: make(map[string]adapter.GatewaySigner, len(signers))}
	for _, s := range signers {
		r.signers[s.Name()] = s
	}
	return r
}

func (r *Registry) Get(name string) (adapter.GatewaySigner, error) {
	s, ok := r.signers[name]
	if !ok {
		return nil, domain.ErrUnknownGateway
	}
	return s, nil
}

// Names lists the registered gateways in stable order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.signers))
	for n := range r.signers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
