package discovery

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"
)

// DefaultIPPPort is the registered IPP port used when a manual address
// carries none.
const DefaultIPPPort = 631

const probeTimeout = 10 * time.Second

// Prober resolves a bare address into a full printer record, typically
// by querying the printer's IPP attributes.
type Prober func(ctx context.Context, uri *url.URL) (*DiscoveredPrinter, error)

// ManualDiscovery announces printers added by explicit address. Entries
// survive stop/start cycles and are re-announced on each start.
type ManualDiscovery struct {
	source
	probe Prober

	entryMu sync.Mutex
	entries map[string]*DiscoveredPrinter
}

// NewManualDiscovery builds a manual source. probe may be nil, in which
// case added printers keep their address-derived name.
func NewManualDiscovery(probe Prober) *ManualDiscovery {
	d := &ManualDiscovery{
		probe:   probe,
		entries: make(map[string]*DiscoveredPrinter),
	}
	d.onStart = d.announce
	return d
}

func (d *ManualDiscovery) announce() {
	d.entryMu.Lock()
	entries := make([]*DiscoveredPrinter, 0, len(d.entries))
	for _, p := range d.entries {
		entries = append(entries, p)
	}
	d.entryMu.Unlock()

	for _, p := range entries {
		d.found(p)
	}
}

// AddAddress registers a printer by host address or full URI. The probe,
// when configured, runs asynchronously and upgrades the record once the
// printer answers.
func (d *ManualDiscovery) AddAddress(addr string) (*url.URL, error) {
	uri, err := parseManualAddress(addr)
	if err != nil {
		return nil, err
	}

	p := &DiscoveredPrinter{
		Name:  uri.Hostname(),
		Paths: []*url.URL{uri},
	}
	d.remember(p)

	if d.probe != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
			defer cancel()
			probed, err := d.probe(ctx, uri)
			if err != nil || probed == nil {
				return
			}
			if len(probed.Paths) == 0 {
				probed.Paths = []*url.URL{uri}
			}
			d.remember(probed)
		}()
	}
	return uri, nil
}

// RemoveAddress forgets a previously added printer.
func (d *ManualDiscovery) RemoveAddress(uri *url.URL) {
	d.entryMu.Lock()
	p, ok := d.entries[uri.String()]
	delete(d.entries, uri.String())
	d.entryMu.Unlock()

	if ok {
		d.lost(p)
	}
}

func (d *ManualDiscovery) remember(p *DiscoveredPrinter) {
	d.entryMu.Lock()
	d.entries[p.URI().String()] = p
	d.entryMu.Unlock()
	d.found(p)
}

func parseManualAddress(addr string) (*url.URL, error) {
	uri, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	if uri.Scheme == "" || uri.Host == "" {
		// A bare host; default to ipp on the standard port and path.
		uri, err = url.Parse("ipp://" + addr)
		if err != nil {
			return nil, err
		}
	}
	if uri.Port() == "" {
		uri.Host = fmt.Sprintf("%s:%d", uri.Hostname(), DefaultIPPPort)
	}
	if uri.Path == "" {
		uri.Path = "ipp/print"
	}
	return uri, nil
}
