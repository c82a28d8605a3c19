package discovery

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/grandcat/zeroconf"
)

// MDNSDiscovery browses _ipp._tcp and _ipps._tcp over multicast DNS.
// The browser only reports appearances; lost events for mDNS printers
// come from the DNS-SD source when both are active.
type MDNSDiscovery struct {
	source
	cancel context.CancelFunc
}

func NewMDNSDiscovery() *MDNSDiscovery {
	d := &MDNSDiscovery{}
	d.onStart = d.browse
	d.onStop = d.halt
	return d
}

func (d *MDNSDiscovery) browse() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	go d.browseService(ctx, "_ipp._tcp", "ipp")
	go d.browseService(ctx, "_ipps._tcp", "ipps")
}

func (d *MDNSDiscovery) halt() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *MDNSDiscovery) browseService(ctx context.Context, service, scheme string) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		log.Printf("mdns: failed to create resolver: %v", err)
		return
	}

	entries := make(chan *zeroconf.ServiceEntry)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case entry := <-entries:
				if entry == nil {
					return
				}
				if p := parseServiceEntry(entry, scheme); p != nil {
					d.found(p)
				}
			}
		}
	}()

	if err := resolver.Browse(ctx, service, "local.", entries); err != nil {
		log.Printf("mdns: failed to browse %s: %v", service, err)
	}
}

// parseServiceEntry maps an mDNS answer to a printer record. TXT keys
// follow the IPP everywhere conventions: rp for the resource path, UUID
// for identity, note for location.
func parseServiceEntry(entry *zeroconf.ServiceEntry, scheme string) *DiscoveredPrinter {
	attr := map[string]string{}
	for _, txt := range entry.Text {
		kv := strings.SplitN(txt, "=", 2)
		if len(kv) == 2 {
			attr[kv[0]] = kv[1]
		}
	}

	hostname := strings.TrimSuffix(entry.HostName, ".")
	if hostname == "" {
		return nil
	}

	uri := &url.URL{
		Scheme: scheme,
		Host:   fmt.Sprintf("%v:%v", hostname, strconv.Itoa(entry.Port)),
		Path:   attr["rp"],
	}

	return &DiscoveredPrinter{
		UUID:     attr["UUID"],
		Name:     entry.Instance,
		Location: attr["note"],
		Paths:    []*url.URL{uri},
	}
}
