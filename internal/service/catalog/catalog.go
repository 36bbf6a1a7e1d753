// Package catalog projects the role repository into the searchable, optionally
// grouped display tree.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/alanyang/role-master/internal/domain/event"
	domainrole "github.com/alanyang/role-master/internal/domain/role"
	portbus "github.com/alanyang/role-master/internal/port/eventbus"
)

// Reader is the read side of the role repository.
type Reader interface {
	GetConfig(ctx context.Context) (domainrole.UserConfig, error)
}

// Projection holds the live search query and grouping toggle. It never
// writes to the repository.
type Projection struct {
	repo Reader

	mu         sync.RWMutex
	query      string
	grouped    bool
	generation uint64
	listeners  []func(generation uint64)
}

func NewProjection(repo Reader) *Projection {
	return &Projection{repo: repo, grouped: true}
}

// SetQuery stores the query lower-cased and refreshes listeners.
func (p *Projection) SetQuery(q string) {
	p.mu.Lock()
	p.query = strings.ToLower(q)
	p.mu.Unlock()
	p.Refresh()
}

func (p *Projection) Query() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.query
}

// ToggleGrouping flips between grouped and flat mode and returns the new mode.
func (p *Projection) ToggleGrouping() bool {
	p.mu.Lock()
	p.grouped = !p.grouped
	grouped := p.grouped
	p.mu.Unlock()
	p.Refresh()
	return grouped
}

func (p *Projection) Grouped() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.grouped
}

// Generation counts refreshes since construction.
func (p *Projection) Generation() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.generation
}

// OnRefresh registers fn to run after every refresh, with the new generation.
func (p *Projection) OnRefresh(fn func(generation uint64)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Refresh bumps the generation and notifies listeners. Trees are always
// recomputed on read, so nothing is cached here.
func (p *Projection) Refresh() {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	listeners := append([]func(uint64){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(gen)
	}
}

// Tree recomputes the display tree with the live query and grouping. A failed
// repository read yields the single error leaf together with the error.
func (p *Projection) Tree(ctx context.Context) ([]Node, error) {
	p.mu.RLock()
	query, grouped := p.query, p.grouped
	p.mu.RUnlock()
	return p.TreeFor(ctx, query, grouped)
}

// TreeFor computes a tree for an explicit query and mode without touching
// the live state.
func (p *Projection) TreeFor(ctx context.Context, query string, grouped bool) ([]Node, error) {
	doc, err := p.repo.GetConfig(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load roles for catalog", "error", err)
		return []Node{ErrorNode()}, fmt.Errorf("build catalog: %w", err)
	}
	return Build(doc, query, grouped), nil
}

// Watch refreshes the projection on every repository event that changes what
// the tree shows. The returned func unsubscribes.
func (p *Projection) Watch(ctx context.Context, bus portbus.EventBus) (func(), error) {
	var subs []portbus.Subscription
	stop := func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}
	for _, et := range event.Types() {
		if !et.AffectsCatalog() {
			continue
		}
		sub, err := bus.Subscribe(ctx, et, func(context.Context, event.Event) { p.Refresh() })
		if err != nil {
			stop()
			return nil, fmt.Errorf("watch catalog: %w", err)
		}
		subs = append(subs, sub)
	}
	return stop, nil
}
