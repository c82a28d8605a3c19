package discovery

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/brutella/dnssd"
)

// DNSSDDiscovery browses IPP printers through the dnssd responder API,
// which reports both appearances and removals. It complements the
// zeroconf browser by supplying true lost events.
type DNSSDDiscovery struct {
	source
	cancel context.CancelFunc
}

func NewDNSSDDiscovery() *DNSSDDiscovery {
	d := &DNSSDDiscovery{}
	d.onStart = d.browse
	d.onStop = d.halt
	return d
}

func (d *DNSSDDiscovery) browse() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	go d.lookup(ctx, "_ipp._tcp.local.", "ipp")
	go d.lookup(ctx, "_ipps._tcp.local.", "ipps")
}

func (d *DNSSDDiscovery) halt() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *DNSSDDiscovery) lookup(ctx context.Context, service, scheme string) {
	add := func(entry dnssd.BrowseEntry) {
		if p := parseBrowseEntry(&entry, scheme); p != nil {
			d.found(p)
		}
	}
	rmv := func(entry dnssd.BrowseEntry) {
		if p := parseBrowseEntry(&entry, scheme); p != nil {
			d.lost(p)
		}
	}

	if err := dnssd.LookupType(ctx, service, add, rmv); err != nil && ctx.Err() == nil {
		log.Printf("dnssd: failed to browse %s: %v", service, err)
	}
}

func parseBrowseEntry(entry *dnssd.BrowseEntry, scheme string) *DiscoveredPrinter {
	host := entry.Host
	if len(entry.IPs) > 0 {
		host = entry.IPs[0].String()
	}
	if host == "" {
		return nil
	}

	uri := &url.URL{
		Scheme: scheme,
		Host:   fmt.Sprintf("%v:%v", host, strconv.Itoa(entry.Port)),
		Path:   entry.Text["rp"],
	}

	return &DiscoveredPrinter{
		UUID:     entry.Text["UUID"],
		Name:     entry.Name,
		Location: entry.Text["note"],
		Paths:    []*url.URL{uri},
	}
}
