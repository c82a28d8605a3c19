package ipp

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/openbips/bips/pkg/cert"
	"github.com/openbips/bips/pkg/discovery"
	"github.com/openbips/bips/pkg/wire"
)

const (
	capsTTL          = 10 * time.Minute
	capsFetchTimeout = 15 * time.Second
)

type capsEntry struct {
	caps    *wire.PrinterCapabilities
	fetched time.Time
}

// Cache resolves printer capabilities with a per-URI TTL and coalesces
// concurrent requests for the same printer. It implements
// job.CapabilitiesCache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*capsEntry
	pending map[string][]func(*wire.PrinterCapabilities)
	certs   cert.Store
}

func NewCache(certs cert.Store) *Cache {
	return &Cache{
		entries: make(map[string]*capsEntry),
		pending: make(map[string][]func(*wire.PrinterCapabilities)),
		certs:   certs,
	}
}

func (c *Cache) Request(p *discovery.DiscoveredPrinter, upgradeToSecure bool, fn func(*wire.PrinterCapabilities)) {
	path := c.pickPath(p, upgradeToSecure)
	if path == nil {
		go fn(nil)
		return
	}

	key := path.String()

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && time.Since(entry.fetched) < capsTTL {
		c.mu.Unlock()
		go fn(entry.caps)
		return
	}

	if waiters, ok := c.pending[key]; ok {
		c.pending[key] = append(waiters, fn)
		c.mu.Unlock()
		return
	}

	c.pending[key] = []func(*wire.PrinterCapabilities){fn}
	c.mu.Unlock()

	go c.fetch(p, path, key)
}

func (c *Cache) fetch(p *discovery.DiscoveredPrinter, path *url.URL, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), capsFetchTimeout)
	defer cancel()

	var caps *wire.PrinterCapabilities

	client := New(path.String())
	if path.Scheme == "ipps" {
		var pinned []byte
		if c.certs != nil {
			pinned = c.certs.Get(p.UUID)
		}
		client = NewWithCertificate(path.String(), pinned)
	}

	attrs, err := client.PrinterAttributes(ctx)
	if err != nil {
		log.Printf("failed to fetch capabilities from %v: %v", key, err)
	} else {
		caps = attrs.Capabilities(key)

		// Discovery fills in what the printer itself did not report.
		if caps.Name == "" {
			caps.Name = p.Name
		}
		if caps.UUID == "" {
			caps.UUID = p.UUID
		}
		if caps.Location == "" {
			caps.Location = p.Location
		}
		if c.certs != nil {
			caps.Certificate = c.certs.Get(caps.UUID)
		}
	}

	c.mu.Lock()
	if caps != nil {
		c.entries[key] = &capsEntry{caps: caps, fetched: time.Now()}
	}
	waiters := c.pending[key]
	delete(c.pending, key)
	c.mu.Unlock()

	for _, fn := range waiters {
		fn(caps)
	}
}

// pickPath selects the endpoint to query: the first IPPS path when a
// secure upgrade is requested and one exists, otherwise the primary.
func (c *Cache) pickPath(p *discovery.DiscoveredPrinter, upgradeToSecure bool) *url.URL {
	if p == nil || len(p.Paths) == 0 {
		return nil
	}

	if upgradeToSecure {
		for _, path := range p.Paths {
			if path.Scheme == "ipps" {
				return path
			}
		}
	}

	return p.Paths[0]
}
