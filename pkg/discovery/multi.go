package discovery

import (
	"net/url"
	"sync"
)

// MultiDiscovery merges the records of several child sources into one
// view keyed by primary URI. Children are priority-ordered: the first
// child holding a cached record for a URI supplies the printer's
// identity fields, later children contribute only paths it does not
// already have.
type MultiDiscovery struct {
	children []Discovery

	mu        sync.Mutex
	listeners []Listener
	merged    map[string]*DiscoveredPrinter
	cl        *childListener
}

// NewMultiDiscovery builds an aggregate over children in priority order.
func NewMultiDiscovery(children ...Discovery) *MultiDiscovery {
	return &MultiDiscovery{
		children: children,
		merged:   make(map[string]*DiscoveredPrinter),
	}
}

// childListener funnels every child's events into the merge. A single
// shared instance is registered with each child so child priority stays
// with the children slice, not with event arrival order.
type childListener struct {
	d *MultiDiscovery
}

func (c *childListener) PrinterFound(p *DiscoveredPrinter) { c.d.childFound(p) }
func (c *childListener) PrinterLost(p *DiscoveredPrinter)  { c.d.childLost(p) }

func (d *MultiDiscovery) Start(l Listener) {
	d.mu.Lock()
	first := len(d.listeners) == 0
	d.listeners = append(d.listeners, l)
	if first {
		d.cl = &childListener{d: d}
	}
	cl := d.cl
	cached := make([]*DiscoveredPrinter, 0, len(d.merged))
	for _, p := range d.merged {
		cached = append(cached, p)
	}
	d.mu.Unlock()

	for _, p := range cached {
		l.PrinterFound(p)
	}
	if first {
		for _, child := range d.children {
			child.Start(cl)
		}
	}
}

func (d *MultiDiscovery) Stop(l Listener) {
	d.mu.Lock()
	for i, known := range d.listeners {
		if known == l {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			break
		}
	}
	last := len(d.listeners) == 0
	var lost []*DiscoveredPrinter
	cl := d.cl
	if last {
		for _, p := range d.merged {
			lost = append(lost, p)
		}
		d.merged = make(map[string]*DiscoveredPrinter)
		d.cl = nil
	}
	d.mu.Unlock()

	if !last {
		return
	}
	for _, child := range d.children {
		child.Stop(cl)
	}
	for _, p := range lost {
		l.PrinterLost(p)
	}
}

func (d *MultiDiscovery) Printer(uri string) *DiscoveredPrinter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.merged[uri]
}

// Children flattens the aggregate to its leaf sources.
func (d *MultiDiscovery) Children() []Discovery {
	var leaves []Discovery
	for _, child := range d.children {
		if sub := child.Children(); len(sub) > 0 {
			leaves = append(leaves, sub...)
			continue
		}
		leaves = append(leaves, child)
	}
	return leaves
}

// merge recomputes the aggregate record for uri across all children in
// priority order. Returns nil when no child has a cached record.
func (d *MultiDiscovery) merge(uri string) *DiscoveredPrinter {
	var merged *DiscoveredPrinter
	for _, child := range d.children {
		p := child.Printer(uri)
		if p == nil {
			continue
		}
		if merged == nil {
			merged = &DiscoveredPrinter{
				UUID:     p.UUID,
				Name:     p.Name,
				Location: p.Location,
			}
		}
		for _, path := range p.Paths {
			if !merged.HasPath(path) {
				merged.Paths = append(merged.Paths, cloneURL(path))
			}
		}
	}
	return merged
}

func cloneURL(u *url.URL) *url.URL {
	c := *u
	return &c
}

func (d *MultiDiscovery) childFound(p *DiscoveredPrinter) {
	u := p.URI()
	if u == nil {
		return
	}
	uri := u.String()

	d.mu.Lock()
	merged := d.merge(uri)
	if merged == nil {
		d.mu.Unlock()
		return
	}
	d.merged[uri] = merged
	listeners := append([]Listener(nil), d.listeners...)
	d.mu.Unlock()

	// Re-emitted even when unchanged so listeners see every refresh.
	for _, l := range listeners {
		l.PrinterFound(merged)
	}
}

func (d *MultiDiscovery) childLost(p *DiscoveredPrinter) {
	u := p.URI()
	if u == nil {
		return
	}
	uri := u.String()

	d.mu.Lock()
	merged := d.merge(uri)
	var gone *DiscoveredPrinter
	if merged == nil {
		gone = d.merged[uri]
		if gone == nil {
			gone = p
		}
		delete(d.merged, uri)
	} else {
		d.merged[uri] = merged
	}
	listeners := append([]Listener(nil), d.listeners...)
	d.mu.Unlock()

	for _, l := range listeners {
		if merged != nil {
			l.PrinterFound(merged)
		} else {
			l.PrinterLost(gone)
		}
	}
}
