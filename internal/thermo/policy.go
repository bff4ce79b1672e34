package thermo

import (
	"sync"

	"github.com/nkarsten/flownet/internal/network"
	"github.com/nkarsten/flownet/internal/simerr"
)

// StrictPolicy delegates straight to the backend; any rejection is fatal.
type StrictPolicy struct{}

func (StrictPolicy) CreateState(p, h float64, comp Composition, backend Backend, node network.NodeID) (StateResult, error) {
	st, err := backend.State(PH(p, h), comp)
	if err != nil {
		return StateResult{}, simerr.InvalidStatef(
			"state creation failed at p=%g Pa h=%g J/kg", p, h).AtNode(node.Index())
	}
	return StateResult{State: st}, nil
}

// FallbackPolicy tries the primary backend first and, on rejection, uses a
// per-node surrogate to estimate temperature from enthalpy and re-attempts
// the flash as (p, T) through the same backend. Fallback use is counted, not
// hidden. One instance per run; the counter is safe for concurrent read.
type FallbackPolicy struct {
	mu         sync.Mutex
	surrogates map[network.NodeID]*Surrogate
	uses       int
}

func NewFallbackPolicy() *FallbackPolicy {
	return &FallbackPolicy{surrogates: make(map[network.NodeID]*Surrogate)}
}

// RegisterSurrogate anchors a surrogate for a node, typically from the last
// successfully solved state. Surrogates are never invalidated automatically.
func (f *FallbackPolicy) RegisterSurrogate(node network.NodeID, s *Surrogate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.surrogates[node] = s
}

// FallbackUses reports how many state creations went through the surrogate path.
func (f *FallbackPolicy) FallbackUses() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uses
}

func (f *FallbackPolicy) surrogate(node network.NodeID) *Surrogate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.surrogates[node]
}

func (f *FallbackPolicy) countUse() {
	f.mu.Lock()
	f.uses++
	f.mu.Unlock()
}

func (f *FallbackPolicy) CreateState(p, h float64, comp Composition, backend Backend, node network.NodeID) (StateResult, error) {
	st, err := backend.State(PH(p, h), comp)
	if err == nil {
		return StateResult{State: st}, nil
	}
	sur := f.surrogate(node)
	if sur == nil {
		return StateResult{}, simerr.InvalidStatef(
			"state creation failed at p=%g Pa h=%g J/kg, no fallback available", p, h).AtNode(node.Index())
	}
	tEst := sur.EstimateTemperature(h)
	st, err2 := backend.State(PT(p, tEst), comp)
	if err2 != nil {
		return StateResult{}, simerr.InvalidStatef(
			"fallback re-attempt failed at p=%g Pa Test=%g K (original h=%g J/kg)",
			p, tEst, h).AtNode(node.Index())
	}
	f.countUse()
	return StateResult{State: st, Fallback: true}, nil
}
