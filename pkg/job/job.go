// Package job drives a print job from discovery through delivery. Each
// LocalPrintJob owns one request end to end and linearizes every
// asynchronous callback onto a single job-owned goroutine.
package job

import (
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/openbips/bips/pkg/cert"
	"github.com/openbips/bips/pkg/discovery"
	"github.com/openbips/bips/pkg/p2p"
	"github.com/openbips/bips/pkg/wire"
)

// State is the lifecycle position of a LocalPrintJob.
type State int

const (
	StateInit State = iota
	StateDiscovery
	StateCapabilities
	StateDelivering
	StateSecurity
	StateCancel
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateDiscovery:
		return "discovery"
	case StateCapabilities:
		return "capabilities"
	case StateDelivering:
		return "delivering"
	case StateSecurity:
		return "security"
	case StateCancel:
		return "cancel"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// User-facing job messages.
const (
	MsgWaitingToSend    = "waiting to send"
	MsgPrinterOffline   = "printer offline"
	MsgConnectionFailed = "failed to connect to printer"
	MsgConnecting       = "connecting to printer"
	MsgNotEncrypted     = "printer requires an encrypted connection"
	MsgBadCertificate   = "printer certificate is invalid"
	MsgPrinterCheck     = "check printer"
	MsgUnreadableInput  = "unreadable input"
	MsgDeliveryFailed   = "failed to deliver job"
)

// DefaultDiscoveryTimeout bounds how long a job waits for its printer to
// appear.
const DefaultDiscoveryTimeout = 2 * time.Minute

const (
	ippScheme  = "ipp"
	ippsScheme = "ipps"
)

// Config wires a LocalPrintJob to its collaborators.
type Config struct {
	Job       PrintJob
	Document  *Document
	Params    *wire.JobParameters
	PrinterID uuid.UUID

	Discovery    discovery.Discovery
	Capabilities CapabilitiesCache
	Backend      Backend
	Certificates cert.Store
	Notifier     CertificateChangeNotifier
	WakeLock     *WakeLock

	// Connector opens the held connection to a printer on a direct or
	// already-connected interface. Defaults to p2p.Connect.
	Connector func(printer *discovery.DiscoveredPrinter, l p2p.Listener) *p2p.Connection

	// DiscoveryTimeout defaults to DefaultDiscoveryTimeout when zero.
	DiscoveryTimeout time.Duration
}

// LocalPrintJob is the per-job state machine. Public methods and
// listener callbacks may be invoked from any goroutine; each posts onto
// the job's event loop so state only ever mutates there.
type LocalPrintJob struct {
	cfg Config

	events chan func()
	quit   chan struct{}

	// Mutated on the event loop only.
	state          State
	path           *url.URL
	capabilities   *wire.PrinterCapabilities
	blockedReasons []string
	timeout        *DelayedAction
	conn           *p2p.Connection
	finished       bool
	onComplete     func(*LocalPrintJob)
}

// New builds a job. The host job is immediately started and blocked
// "waiting to send" until Start is called.
func New(cfg Config) *LocalPrintJob {
	if cfg.DiscoveryTimeout == 0 {
		cfg.DiscoveryTimeout = DefaultDiscoveryTimeout
	}
	if cfg.Connector == nil {
		cfg.Connector = p2p.Connect
	}
	j := &LocalPrintJob{
		cfg:    cfg,
		events: make(chan func(), 16),
		quit:   make(chan struct{}),
		state:  StateInit,
	}
	go j.loop()

	cfg.Job.Start()
	cfg.Job.Block(MsgWaitingToSend)
	return j
}

func (j *LocalPrintJob) loop() {
	for {
		select {
		case fn := <-j.events:
			fn()
		case <-j.quit:
			return
		}
	}
}

// post queues fn onto the event loop; events posted after the job is
// done are dropped.
func (j *LocalPrintJob) post(fn func()) {
	select {
	case j.events <- fn:
	case <-j.quit:
	}
}

// State reports the current lifecycle position. It round-trips through
// the event loop so the answer is ordered after every prior event; after
// the job is done it answers directly.
func (j *LocalPrintJob) State() State {
	ch := make(chan State, 1)
	select {
	case j.events <- func() { ch <- j.state }:
		return <-ch
	case <-j.quit:
		return j.state
	}
}

// BlockedReasons returns the accumulated blocked-reason history.
func (j *LocalPrintJob) BlockedReasons() []string {
	ch := make(chan []string, 1)
	collect := func() { ch <- append([]string(nil), j.blockedReasons...) }
	select {
	case j.events <- collect:
		return <-ch
	case <-j.quit:
		return append([]string(nil), j.blockedReasons...)
	}
}

// Start begins job processing: discovery of the target printer,
// capability negotiation, delivery and completion. callback fires
// exactly once when the job reaches its terminal state.
func (j *LocalPrintJob) Start(callback func(*LocalPrintJob)) {
	j.post(func() {
		if j.state != StateInit {
			log.Printf("job: invalid start state %v", j.state)
			return
		}
		j.cfg.Job.Start()

		// Hold the network up while the job is in flight.
		if j.cfg.WakeLock != nil {
			j.cfg.WakeLock.Acquire()
		}

		j.state = StateDiscovery
		j.onComplete = callback
		j.timeout = After(j.cfg.DiscoveryTimeout, func() {
			j.post(func() {
				if j.state == StateDiscovery {
					j.finish(false, MsgPrinterOffline)
				}
			})
		})

		j.cfg.Discovery.Start(j)
	})
}

// Restart retries delivery after a trust decision. It has no effect
// outside the security gate.
func (j *LocalPrintJob) Restart() {
	j.post(func() {
		if j.state != StateSecurity {
			return
		}
		j.capabilities.Certificate = j.cfg.Certificates.Get(j.capabilities.UUID)
		j.deliver()
	})
}

// Cancel aborts the job. Before delivery the job finishes immediately;
// during delivery the backend is asked to cancel and the terminal state
// arrives through the status callback.
func (j *LocalPrintJob) Cancel() {
	j.post(func() {
		switch j.state {
		case StateDiscovery, StateCapabilities, StateSecurity:
			j.state = StateCancel
			j.finish(false, "")
		case StateDelivering:
			j.state = StateCancel
			j.cfg.Backend.Cancel()
		}
	})
}

// PrinterFound implements discovery.Listener.
func (j *LocalPrintJob) PrinterFound(printer *discovery.DiscoveredPrinter) {
	j.post(func() {
		if j.state != StateDiscovery {
			return
		}
		if printer.ID() != j.cfg.PrinterID {
			return
		}

		if p2p.IsP2P(printer.URI()) {
			// Reach the printer over the direct link first; delivery
			// proceeds once the connection completes.
			if j.conn == nil {
				j.conn = j.cfg.Connector(printer, j)
			}
			return
		}

		if j.conn == nil && p2p.OnConnectedInterface(printer.URI()) {
			// Hold the connection up during printing.
			j.conn = j.cfg.Connector(printer, j)
		}

		j.advance(printer)
	})
}

// PrinterLost implements discovery.Listener. Lost printers are ignored;
// a capability request in flight will fail on its own.
func (j *LocalPrintJob) PrinterLost(printer *discovery.DiscoveredPrinter) {}

// ConnectionDelayed implements p2p.Listener.
func (j *LocalPrintJob) ConnectionDelayed(delayed bool) {
	j.post(func() {
		if j.state != StateDiscovery {
			return
		}
		if delayed {
			j.cfg.Job.Block(MsgConnecting)
		} else {
			j.cfg.Job.Start()
		}
	})
}

// ConnectionComplete implements p2p.Listener. A nil printer means the
// connection attempt failed.
func (j *LocalPrintJob) ConnectionComplete(printer *discovery.DiscoveredPrinter) {
	j.post(func() {
		if j.state != StateDiscovery {
			return
		}
		if printer == nil {
			j.finish(false, MsgConnectionFailed)
			return
		}
		if j.cfg.Job.IsBlocked() {
			j.cfg.Job.Start()
		}
		j.advance(printer)
	})
}

// advance leaves discovery with a chosen path and requests capabilities.
func (j *LocalPrintJob) advance(printer *discovery.DiscoveredPrinter) {
	j.cfg.Discovery.Stop(j)
	j.state = StateCapabilities
	j.path = printer.URI()
	for _, path := range printer.Paths {
		if path.Scheme == ippsScheme {
			j.path = path
			break
		}
	}

	j.cfg.Capabilities.Request(printer, true, func(caps *wire.PrinterCapabilities) {
		j.post(func() { j.onCapabilities(caps) })
	})
}

func (j *LocalPrintJob) onCapabilities(caps *wire.PrinterCapabilities) {
	if j.state != StateCapabilities {
		return
	}
	if caps == nil {
		j.finish(false, MsgPrinterOffline)
		return
	}
	if j.timeout != nil {
		j.timeout.Cancel()
	}
	j.capabilities = caps
	j.deliver()
}

// deliver gates on encryption and hands the job to the backend.
func (j *LocalPrintJob) deliver() {
	// Upgrade to the secure scheme when the resolved capability path
	// carries one with an explicit port.
	if capURL, err := url.Parse(j.capabilities.Path); err == nil {
		if capURL.Scheme == ippsScheme && capURL.Port() != "" && j.path.Scheme == ippScheme {
			upgraded := *j.path
			upgraded.Scheme = ippsScheme
			upgraded.Host = j.path.Hostname() + ":" + capURL.Port()
			j.path = &upgraded
		}
	}

	if j.capabilities.Certificate != nil && j.path.Scheme != ippsScheme {
		j.state = StateSecurity
		j.cfg.Job.Block(MsgNotEncrypted)
		if j.cfg.Notifier != nil {
			old := j.cfg.Certificates.Get(j.capabilities.UUID)
			j.cfg.Notifier.CertificateChanged(j.capabilities.Name, j.capabilities.UUID, old, nil)
		}
		return
	}

	j.state = StateDelivering
	j.cfg.Job.Start()
	err := j.cfg.Backend.Print(j.path, j.cfg.Document, j.cfg.Params, j.capabilities,
		func(st *wire.JobStatus) {
			j.post(func() { j.handleJobStatus(st) })
		})
	if err != nil {
		log.Printf("job: print failed: %v", err)
		j.finish(false, MsgDeliveryFailed)
	}
}

func (j *LocalPrintJob) handleJobStatus(st *wire.JobStatus) {
	if st.Certificate != nil && j.capabilities != nil {
		// First-seen certificate wins; later ones are reported as
		// changes, never silently recorded.
		if j.cfg.Certificates.Get(j.capabilities.UUID) == nil {
			if err := j.cfg.Certificates.Put(j.capabilities.UUID, st.Certificate); err != nil {
				log.Printf("job: failed to record certificate: %v", err)
			}
		}
	}

	j.blockedReasons = append(j.blockedReasons, st.BlockedReasons...)

	switch st.State {
	case wire.JobStateDone:
		switch st.Result {
		case wire.JobDoneOk:
			j.finish(true, "")
		case wire.JobDoneCancelled:
			j.state = StateCancel
			j.finish(false, "")
		case wire.JobDoneCorrupt:
			j.finish(false, MsgUnreadableInput)
		case wire.JobDoneBadCertificate:
			j.handleBadCertificate(st)
		default:
			j.finish(false, "")
		}

	case wire.JobStateBlocked:
		if j.state == StateCancel {
			return
		}
		reason := st.BlockedMessage()
		if reason == "" {
			reason = MsgPrinterCheck
		}
		j.cfg.Job.Block(reason)

	case wire.JobStateRunning:
		if j.state == StateCancel {
			return
		}
		j.cfg.Job.Start()
	}
}

func (j *LocalPrintJob) handleBadCertificate(st *wire.JobStatus) {
	if st.Certificate == nil {
		// No certificate came with the failure; the job cannot recover.
		j.cfg.Job.Fail(MsgBadCertificate)
		return
	}
	j.state = StateSecurity
	j.cfg.Job.Block(MsgBadCertificate)
	if j.cfg.Notifier != nil {
		old := j.cfg.Certificates.Get(j.capabilities.UUID)
		j.cfg.Notifier.CertificateChanged(j.capabilities.Name, j.capabilities.UUID, old, st.Certificate)
	}
}

// finish terminates the job and notifies the completion callback exactly
// once, no matter how many transition paths reach it.
func (j *LocalPrintJob) finish(success bool, errMsg string) {
	if j.finished {
		return
	}
	j.finished = true

	j.cfg.Discovery.Stop(j)
	if j.timeout != nil {
		j.timeout.Cancel()
	}
	if j.conn != nil {
		j.conn.Close()
	}
	if j.cfg.WakeLock != nil {
		j.cfg.WakeLock.Release()
	}
	j.cfg.Backend.CloseDocument()

	if success {
		// The host job must be unblocked before completion.
		j.cfg.Job.Start()
		j.cfg.Job.Complete()
	} else if j.state == StateCancel {
		j.cfg.Job.Cancel()
	} else {
		j.cfg.Job.Fail(errMsg)
	}

	j.state = StateDone
	callback := j.onComplete
	close(j.quit)
	if callback != nil {
		callback(j)
	}
}
