// Package discovery finds network printers over mDNS and manual entry
// and merges the records surfaced by multiple sources into a single
// deduplicated view.
package discovery

import (
	"net/url"
	"sync"

	"github.com/google/uuid"
)

// DiscoveredPrinter is one printer as seen by a discovery source. A
// printer is identified by its primary URI; Paths holds every candidate
// network path in discovery order.
type DiscoveredPrinter struct {
	UUID     string
	Name     string
	Location string
	Paths    []*url.URL
}

// URI returns the printer's primary path, its identity key.
func (p *DiscoveredPrinter) URI() *url.URL {
	if len(p.Paths) == 0 {
		return nil
	}
	return p.Paths[0]
}

// ID returns the printer's advertised UUID, or a stable UUID derived
// from its primary URI when the printer does not advertise one.
func (p *DiscoveredPrinter) ID() uuid.UUID {
	if id, err := uuid.Parse(p.UUID); err == nil {
		return id
	}
	u := p.URI()
	if u == nil {
		return uuid.Nil
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(u.String()))
}

// IsSecure reports whether any advertised path uses the encrypted
// scheme.
func (p *DiscoveredPrinter) IsSecure() bool {
	for _, u := range p.Paths {
		if u.Scheme == "ipps" {
			return true
		}
	}
	return false
}

// HasPath reports whether the printer already advertises path, compared
// by exact URI equality.
func (p *DiscoveredPrinter) HasPath(path *url.URL) bool {
	for _, u := range p.Paths {
		if u.String() == path.String() {
			return true
		}
	}
	return false
}

// Listener receives printer found/lost events. Callbacks may arrive from
// a source's own goroutine.
type Listener interface {
	PrinterFound(p *DiscoveredPrinter)
	PrinterLost(p *DiscoveredPrinter)
}

// ListenerFunc adapts plain functions to the Listener interface. Either
// field may be nil.
type ListenerFunc struct {
	Found func(p *DiscoveredPrinter)
	Lost  func(p *DiscoveredPrinter)
}

func (l *ListenerFunc) PrinterFound(p *DiscoveredPrinter) {
	if l.Found != nil {
		l.Found(p)
	}
}

func (l *ListenerFunc) PrinterLost(p *DiscoveredPrinter) {
	if l.Lost != nil {
		l.Lost(p)
	}
}

// Discovery is a source of printer records. Start with the first
// listener activates the source; removing the last listener deactivates
// it and drops its cache.
type Discovery interface {
	Start(l Listener)
	Stop(l Listener)

	// Printer returns the cached record for a primary URI, or nil.
	Printer(uri string) *DiscoveredPrinter

	// Children returns the flattened leaf sources, or nil for a leaf.
	Children() []Discovery
}

// source is the common listener and cache bookkeeping shared by the leaf
// sources. Concrete sources set the activation hooks before first use.
type source struct {
	mu        sync.Mutex
	listeners []Listener
	printers  map[string]*DiscoveredPrinter

	onStart func()
	onStop  func()
}

func (s *source) Start(l Listener) {
	s.mu.Lock()
	first := len(s.listeners) == 0
	s.listeners = append(s.listeners, l)
	cached := make([]*DiscoveredPrinter, 0, len(s.printers))
	for _, p := range s.printers {
		cached = append(cached, p)
	}
	s.mu.Unlock()

	// Replay the cache so a late listener sees printers found earlier.
	for _, p := range cached {
		l.PrinterFound(p)
	}
	if first && s.onStart != nil {
		s.onStart()
	}
}

func (s *source) Stop(l Listener) {
	s.mu.Lock()
	for i, known := range s.listeners {
		if known == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			break
		}
	}
	last := len(s.listeners) == 0
	if last {
		s.printers = nil
	}
	s.mu.Unlock()

	if last && s.onStop != nil {
		s.onStop()
	}
}

func (s *source) Printer(uri string) *DiscoveredPrinter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.printers[uri]
}

func (s *source) Children() []Discovery {
	return nil
}

// found caches p and fans it out to every listener.
func (s *source) found(p *DiscoveredPrinter) {
	u := p.URI()
	if u == nil {
		return
	}
	s.mu.Lock()
	if s.printers == nil {
		s.printers = make(map[string]*DiscoveredPrinter)
	}
	s.printers[u.String()] = p
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l.PrinterFound(p)
	}
}

// lost drops p from the cache and fans it out.
func (s *source) lost(p *DiscoveredPrinter) {
	u := p.URI()
	if u == nil {
		return
	}
	s.mu.Lock()
	delete(s.printers, u.String())
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l.PrinterLost(p)
	}
}
