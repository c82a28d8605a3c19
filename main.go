package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openbips/bips/pkg/cert"
	"github.com/openbips/bips/pkg/discovery"
	"github.com/openbips/bips/pkg/ipp"
	"github.com/openbips/bips/pkg/job"
	"github.com/openbips/bips/pkg/wire"
)

var version = "0.0.0"
var commit = "HEAD"

var config struct {
	PrinterURL       string
	File             string
	MIMEType         string
	Pages            string
	PageCount        int
	Copies           int
	Duplex           string
	CertDir          string
	Trust            bool
	DiscoveryTimeout time.Duration
	LookupTimeout    time.Duration
}

func main() {
	flag.Usage = func() {
		f := flag.CommandLine.Output()
		_, _ = fmt.Fprintf(f, "Usage: %s [options]\n", os.Args[0])
		_, _ = fmt.Fprintf(f, "Version: %s (%s)\n", version, commit)
		_, _ = fmt.Fprintln(f, "Options:")
		flag.PrintDefaults()
	}

	flag.StringVar(&config.PrinterURL, "printer", "", "Printer URL or host. Use \"ipps\" schema to connect with TLS.")
	flag.StringVar(&config.File, "file", "", "Document file to print. Without it, available printers are listed.")
	flag.StringVar(&config.MIMEType, "mime", "application/pdf", "Document MIME type")
	flag.StringVar(&config.Pages, "pages", "", "Page range, e.g. \"1-4,7\". Empty prints everything.")
	flag.IntVar(&config.PageCount, "page-count", 0, "Total pages in the document, required to resolve -pages")
	flag.IntVar(&config.Copies, "copies", 1, "Number of copies")
	flag.StringVar(&config.Duplex, "duplex", "none", "Duplex mode: none, long-edge or short-edge")
	flag.StringVar(&config.CertDir, "cert-dir", "", "Directory for remembered printer certificates. Empty keeps them in memory.")
	flag.BoolVar(&config.Trust, "trust", false, "Accept certificate changes and unencrypted printers without failing the job")
	flag.DurationVar(&config.DiscoveryTimeout, "discovery-timeout", job.DefaultDiscoveryTimeout, "How long a job waits for its printer to appear")
	flag.DurationVar(&config.LookupTimeout, "lookup-timeout", time.Minute, "How long the printer listing collects answers")
	flag.Parse()

	if config.File == "" {
		list()
		return
	}

	if config.PrinterURL == "" {
		fail("Printer URL is required, please add -printer argument")
	}

	if _, err := os.Stat(config.File); err != nil {
		fail("Cannot read %q: %v", config.File, err)
	}

	if config.Pages != "" && config.PageCount <= 0 {
		fail("-pages requires -page-count so the range can be validated")
	}

	certs, err := certStore()
	if err != nil {
		fail("Failed to open certificate store: %v", err)
	}

	if err := run(certs); err != nil {
		log.Printf("ERROR: %v", err)
		os.Exit(1)
	}
}

func fail(msg string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "ERROR: "+msg+"\n", args...)
	flag.Usage()
	os.Exit(-1)
}

func certStore() (cert.Store, error) {
	if config.CertDir == "" {
		return cert.NewMemoryStore(), nil
	}
	return cert.NewFileStore(config.CertDir)
}

// list browses the network for printers and prints what it finds.
func list() {
	f := flag.CommandLine.Output()
	_, _ = fmt.Fprintln(f, "Looking for available printers...")

	multi := discovery.NewMultiDiscovery(
		discovery.NewDNSSDDiscovery(),
		discovery.NewMDNSDiscovery(),
	)

	seen := make(map[string]bool)
	var mu sync.Mutex

	listener := discovery.ListenerFunc{
		Found: func(p *discovery.DiscoveredPrinter) {
			mu.Lock()
			defer mu.Unlock()
			if seen[p.URI().String()] {
				return
			}
			seen[p.URI().String()] = true
			fmt.Fprintf(f, "- %s (%s)\n", p.URI(), p.Name)
		},
		Lost: func(p *discovery.DiscoveredPrinter) {},
	}

	multi.Start(&listener)
	time.Sleep(config.LookupTimeout)
	multi.Stop(&listener)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 {
		_, _ = fmt.Fprintln(f, "No printers found.")
	} else {
		_, _ = fmt.Fprintln(f, "")
		_, _ = fmt.Fprintln(f, "Restart this application with -printer and -file options to print.")
	}
}

// run wires the full stack, submits one job and waits for it to finish.
func run(certs cert.Store) error {
	manual := discovery.NewManualDiscovery(probePrinter)
	uri, err := manual.AddAddress(config.PrinterURL)
	if err != nil {
		return fmt.Errorf("invalid printer address %q: %w", config.PrinterURL, err)
	}

	multi := discovery.NewMultiDiscovery(
		manual,
		discovery.NewDNSSDDiscovery(),
		discovery.NewMDNSDiscovery(),
	)

	target := manual.Printer(uri.String())
	if target == nil {
		return fmt.Errorf("printer %q was not registered", uri)
	}

	doc := &job.Document{
		Files:     []string{config.File},
		MIMEType:  config.MIMEType,
		PageCount: config.PageCount,
	}

	params := &wire.JobParameters{
		JobName:         config.File,
		OriginatingUser: "printer-agent",
		Copies:          config.Copies,
		PageRange:       config.Pages,
		Duplex:          duplexMode(config.Duplex),
	}

	console := &consoleJob{}
	policy := &trustPolicy{certs: certs}
	done := make(chan *job.LocalPrintJob, 1)

	j := job.New(job.Config{
		Job:              console,
		Document:         doc,
		Params:           params,
		PrinterID:        target.ID(),
		Discovery:        multi,
		Capabilities:     ipp.NewCache(certs),
		Backend:          ipp.NewBackend(),
		Certificates:     certs,
		Notifier:         policy,
		WakeLock:         job.NewWakeLock(nil, nil),
		DiscoveryTimeout: config.DiscoveryTimeout,
	})
	policy.job = j

	eg, ctx := errgroup.WithContext(context.Background())

	eg.Go(func() error {
		j.Start(func(finished *job.LocalPrintJob) { done <- finished })

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	eg.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)

		select {
		case <-sig:
			log.Println("Interrupted, cancelling job...")
			j.Cancel()
			return nil
		case <-ctx.Done():
			return nil
		}
	})

	if err := eg.Wait(); err != nil {
		return err
	}

	return console.Err()
}

// probePrinter fills in the reported name and location for a manually
// added address. The record keeps its address-derived identity so a job
// targeting the address still matches after the upgrade.
func probePrinter(ctx context.Context, uri *url.URL) (*discovery.DiscoveredPrinter, error) {
	client := ipp.New(uri.String())
	if uri.Scheme == "ipps" {
		client = ipp.NewWithCertificate(uri.String(), nil)
	}

	attrs, err := client.PrinterAttributes(ctx)
	if err != nil {
		return nil, err
	}

	p := &discovery.DiscoveredPrinter{
		Name:     attrs.Name,
		Location: attrs.Location,
		Paths:    []*url.URL{uri},
	}
	if p.Name == "" {
		p.Name = attrs.Info
	}
	if p.Name == "" {
		p.Name = uri.Hostname()
	}
	return p, nil
}

func duplexMode(mode string) int {
	switch mode {
	case "long-edge":
		return wire.DuplexLongEdge
	case "short-edge":
		return wire.DuplexShortEdge
	default:
		return wire.DuplexNone
	}
}

// consoleJob is the host-side job handle for the agent: transitions go
// to the log and the terminal outcome is kept for the exit status.
type consoleJob struct {
	mu      sync.Mutex
	blocked bool
	err     error
}

func (c *consoleJob) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blocked {
		log.Println("Job resumed")
	}
	c.blocked = false
}

func (c *consoleJob) Block(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocked = true
	log.Printf("Job blocked: %v", reason)
}

func (c *consoleJob) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = fmt.Errorf("job cancelled")
	log.Println("Job cancelled")
}

func (c *consoleJob) Complete() {
	log.Println("Job complete")
}

func (c *consoleJob) Fail(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if reason == "" {
		reason = "unknown error"
	}
	c.err = fmt.Errorf("job failed: %v", reason)
	log.Printf("Job failed: %v", reason)
}

func (c *consoleJob) IsBlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocked
}

func (c *consoleJob) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// trustPolicy resolves certificate prompts without a user present:
// with -trust the change is recorded and the job restarted, otherwise
// the job is cancelled.
type trustPolicy struct {
	certs cert.Store
	job   *job.LocalPrintJob
}

func (t *trustPolicy) CertificateChanged(printerName, printerUUID string, oldCert, newCert []byte) {
	if !config.Trust {
		log.Printf("Printer %q presented an unexpected certificate, refusing to print (use -trust to override)", printerName)
		t.job.Cancel()
		return
	}

	if newCert == nil {
		// Unencrypted target; forget the pinned certificate and retry.
		log.Printf("Printer %q is no longer encrypted, trusting it anyway", printerName)
		if err := t.certs.Remove(printerUUID); err != nil {
			log.Printf("Failed to forget certificate: %v", err)
		}
	} else {
		log.Printf("Printer %q changed its certificate, trusting the new one", printerName)
		if err := t.certs.Put(printerUUID, newCert); err != nil {
			log.Printf("Failed to record certificate: %v", err)
		}
	}

	t.job.Restart()
}
