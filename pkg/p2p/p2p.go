// Package p2p opens and holds direct connections to Wi-Fi Direct style
// printers for the duration of a print job.
package p2p

import (
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/openbips/bips/pkg/discovery"
)

// Wi-Fi Direct group owners hand out addresses in this subnet.
const directSubnetPrefix = "192.168.49."

const (
	dialTimeout    = 30 * time.Second
	delayThreshold = 1 * time.Second
)

// IsP2P reports whether the printer path points into the Wi-Fi Direct
// subnet.
func IsP2P(u *url.URL) bool {
	if u == nil {
		return false
	}
	return strings.HasPrefix(u.Hostname(), directSubnetPrefix)
}

// OnConnectedInterface reports whether the printer's address lies on a
// network any local interface is currently attached to.
func OnConnectedInterface(u *url.URL) bool {
	if u == nil {
		return false
	}
	ip := net.ParseIP(u.Hostname())
	if ip == nil {
		addrs, err := net.LookupIP(u.Hostname())
		if err != nil || len(addrs) == 0 {
			return false
		}
		ip = addrs[0]
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.Contains(ip) {
				return true
			}
		}
	}
	return false
}

// Listener receives the outcome of a connection attempt. Callbacks
// arrive from the connection's own goroutine.
type Listener interface {
	// ConnectionDelayed fires with true when the dial is taking long,
	// and false again once it resolves.
	ConnectionDelayed(delayed bool)

	// ConnectionComplete fires once; nil means the printer could not be
	// reached.
	ConnectionComplete(p *discovery.DiscoveredPrinter)
}

// Connection dials the printer and keeps the socket open until closed.
// The holding job closes it on terminal completion.
type Connection struct {
	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// Connect starts a connection attempt in the background and reports the
// outcome through l.
func Connect(printer *discovery.DiscoveredPrinter, l Listener) *Connection {
	c := &Connection{}
	go c.dial(printer, l)
	return c
}

func (c *Connection) dial(printer *discovery.DiscoveredPrinter, l Listener) {
	uri := printer.URI()
	if uri == nil {
		l.ConnectionComplete(nil)
		return
	}

	delayed := make(chan struct{})
	done := make(chan struct{})
	go func() {
		select {
		case <-time.After(delayThreshold):
			close(delayed)
			l.ConnectionDelayed(true)
		case <-done:
		}
	}()

	conn, err := net.DialTimeout("tcp", uri.Host, dialTimeout)
	close(done)
	select {
	case <-delayed:
		l.ConnectionDelayed(false)
	default:
	}

	if err != nil {
		l.ConnectionComplete(nil)
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		l.ConnectionComplete(nil)
		return
	}
	c.conn = conn
	c.mu.Unlock()

	l.ConnectionComplete(printer)
}

// Close releases the held socket. Safe to call at any point, including
// while the dial is still in flight.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
