package view

import (
	"sync"

	"github.com/kilianp07/robofleet/core/fleet"
	"github.com/kilianp07/robofleet/core/model"
)

// Source is the read side of a fleet store.
type Source interface {
	Snapshot() []model.Robot
	Subscribe(o fleet.Observer) (cancel func())
}

// View is one derived projection of the fleet.
type View struct {
	Selection Selection
	Robots    []model.Robot
	Counts    Counts
	Summary   Summary
}

// Derive computes the full view of fleet under sel.
func Derive(fleet []model.Robot, sel Selection) View {
	return View{
		Selection: sel,
		Robots:    Filter(fleet, sel),
		Counts:    Count(fleet),
		Summary:   Summarize(fleet),
	}
}

// Projector keeps a View up to date with its Source and Selection.
type Projector struct {
	mu       sync.Mutex
	fleet    []model.Robot
	sel      Selection
	current  View
	onChange func(View)
	cancel   func()
}

// NewProjector subscribes to src and derives the initial view. onChange,
// when non-nil, is called with every recomputed view, including the first.
func NewProjector(src Source, sel Selection, onChange func(View)) *Projector {
	p := &Projector{sel: sel, onChange: onChange}
	p.mu.Lock()
	p.fleet = src.Snapshot()
	v := p.recompute()
	p.mu.Unlock()
	p.cancel = src.Subscribe(p.onFleet)
	p.emit(v)
	return p
}

func (p *Projector) onFleet(f []model.Robot) {
	p.mu.Lock()
	p.fleet = f
	v := p.recompute()
	p.mu.Unlock()
	p.emit(v)
}

// SetSelection replaces the selection and recomputes the view.
func (p *Projector) SetSelection(sel Selection) View {
	p.mu.Lock()
	p.sel = sel
	v := p.recompute()
	p.mu.Unlock()
	p.emit(v)
	return v
}

// Selection returns the active selection.
func (p *Projector) Selection() Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sel
}

// Current returns the latest view.
func (p *Projector) Current() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Close stops following the source.
func (p *Projector) Close() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Projector) recompute() View {
	p.current = Derive(p.fleet, p.sel)
	return p.current
}

func (p *Projector) emit(v View) {
	if p.onChange != nil {
		p.onChange(v)
	}
}
