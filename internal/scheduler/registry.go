// registry.go - name -> PCB registry.
//
// Its own mutex, acquired alone.
//
// License: GPLv3 or later

package scheduler

import (
	"sync"

	"github.com/csopesy-lab/osemu/internal/pcb"
)

type registry struct {
	mu     sync.Mutex
	byName map[string]*pcb.PCB
}

func newRegistry() *registry {
	return &registry{byName: make(map[string]*pcb.PCB)}
}

// insert adds p under p.Name if the name is not already taken. Returns
// false on collision.
func (r *registry) insert(p *pcb.PCB) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[p.Name]; exists {
		return false
	}
	r.byName[p.Name] = p
	return true
}

func (r *registry) exists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byName[name]
	return ok
}

func (r *registry) find(name string) (*pcb.PCB, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byName[name]
	return p, ok
}

// all returns a snapshot of every registered PCB, in no particular order.
func (r *registry) all() []*pcb.PCB {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*pcb.PCB, 0, len(r.byName))
	for _, p := range r.byName {
		out = append(out, p)
	}
	return out
}
