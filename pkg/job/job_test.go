package job

import (
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbips/bips/pkg/cert"
	"github.com/openbips/bips/pkg/discovery"
	"github.com/openbips/bips/pkg/p2p"
	"github.com/openbips/bips/pkg/wire"
)

var _ p2p.Listener = (*LocalPrintJob)(nil)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeHostJob records host-side transitions.
type fakeHostJob struct {
	mu        sync.Mutex
	blocked   bool
	blocks    []string
	completes int
	cancels   int
	fails     []string
}

func (f *fakeHostJob) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked = false
}

func (f *fakeHostJob) Block(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked = true
	f.blocks = append(f.blocks, reason)
}

func (f *fakeHostJob) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func (f *fakeHostJob) Complete() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completes++
}

func (f *fakeHostJob) Fail(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails = append(f.fails, reason)
}

func (f *fakeHostJob) IsBlocked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blocked
}

func (f *fakeHostJob) snapshot() (blocks []string, completes, cancels int, fails []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.blocks...), f.completes, f.cancels, append([]string(nil), f.fails...)
}

// fakeDiscovery is a hand-driven source.
type fakeDiscovery struct {
	mu        sync.Mutex
	listeners []discovery.Listener
	stops     int
}

func (f *fakeDiscovery) Start(l discovery.Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, l)
}

func (f *fakeDiscovery) Stop(l discovery.Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, known := range f.listeners {
		if known == l {
			f.listeners = append(f.listeners[:i], f.listeners[i+1:]...)
			break
		}
	}
	f.stops++
}

func (f *fakeDiscovery) Printer(uri string) *discovery.DiscoveredPrinter { return nil }
func (f *fakeDiscovery) Children() []discovery.Discovery                 { return nil }

func (f *fakeDiscovery) emit(p *discovery.DiscoveredPrinter) {
	f.mu.Lock()
	listeners := append([]discovery.Listener(nil), f.listeners...)
	f.mu.Unlock()
	for _, l := range listeners {
		l.PrinterFound(p)
	}
}

// fakeCaps hands out a fixed capability record.
type fakeCaps struct {
	mu       sync.Mutex
	caps     *wire.PrinterCapabilities
	upgrades []bool
}

func (f *fakeCaps) Request(p *discovery.DiscoveredPrinter, upgradeToSecure bool, fn func(*wire.PrinterCapabilities)) {
	f.mu.Lock()
	f.upgrades = append(f.upgrades, upgradeToSecure)
	caps := f.caps
	f.mu.Unlock()
	go fn(caps)
}

// fakeBackend captures the delivery and exposes the status callback.
type fakeBackend struct {
	mu      sync.Mutex
	prints  int
	paths   []*url.URL
	status  func(*wire.JobStatus)
	cancels int
	closes  int
	err     error
}

func (f *fakeBackend) Print(path *url.URL, doc *Document, params *wire.JobParameters,
	caps *wire.PrinterCapabilities, status func(*wire.JobStatus)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prints++
	f.paths = append(f.paths, path)
	f.status = status
	return f.err
}

func (f *fakeBackend) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func (f *fakeBackend) CloseDocument() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
}

func (f *fakeBackend) emit(st *wire.JobStatus) {
	f.mu.Lock()
	status := f.status
	f.mu.Unlock()
	if status != nil {
		status(st)
	}
}

func (f *fakeBackend) printCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prints
}

func (f *fakeBackend) lastPath() *url.URL {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.paths) == 0 {
		return nil
	}
	return f.paths[len(f.paths)-1]
}

// fakeNotifier records certificate prompts.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []struct {
		name    string
		uuid    string
		oldCert []byte
		newCert []byte
	}
}

func (f *fakeNotifier) CertificateChanged(printerName, printerUUID string, oldCert, newCert []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, struct {
		name    string
		uuid    string
		oldCert []byte
		newCert []byte
	}{printerName, printerUUID, oldCert, newCert})
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeConnector stands in for dialing the printer directly.
type fakeConnector struct {
	mu    sync.Mutex
	count int
}

func (f *fakeConnector) connect(*discovery.DiscoveredPrinter, p2p.Listener) *p2p.Connection {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return &p2p.Connection{}
}

func (f *fakeConnector) connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

type fixture struct {
	host      *fakeHostJob
	disc      *fakeDiscovery
	caps      *fakeCaps
	backend   *fakeBackend
	certs     cert.Store
	notifier  *fakeNotifier
	conns     *fakeConnector
	printer   *discovery.DiscoveredPrinter
	job       *LocalPrintJob
	completed chan *LocalPrintJob
}

func testURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

const testUUID = "6a0e46d6-1dbe-4ea5-b41a-a9e121deee0c"

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()

	printer := &discovery.DiscoveredPrinter{
		UUID:  testUUID,
		Name:  "Office Printer",
		Paths: []*url.URL{testURL(t, "ipp://203.0.113.9:631/ipp/print")},
	}

	f := &fixture{
		host:     &fakeHostJob{},
		disc:     &fakeDiscovery{},
		backend:  &fakeBackend{},
		certs:    cert.NewMemoryStore(),
		notifier: &fakeNotifier{},
		conns:    &fakeConnector{},
		printer:  printer,
		caps: &fakeCaps{caps: &wire.PrinterCapabilities{
			Path: "ipp://203.0.113.9:631/ipp/print",
			Name: "Office Printer",
			UUID: testUUID,
		}},
		completed: make(chan *LocalPrintJob, 2),
	}

	f.job = New(Config{
		Job:              f.host,
		Document:         &Document{Files: []string{"doc.pdf"}, MIMEType: "application/pdf", PageCount: 4},
		Params:           &wire.JobParameters{JobName: "doc.pdf"},
		PrinterID:        printer.ID(),
		Discovery:        f.disc,
		Capabilities:     f.caps,
		Backend:          f.backend,
		Certificates:     f.certs,
		Notifier:         f.notifier,
		WakeLock:         NewWakeLock(nil, nil),
		Connector:        f.conns.connect,
		DiscoveryTimeout: timeout,
	})

	return f
}

// start kicks the job off and waits until discovery is active.
func (f *fixture) start(t *testing.T) {
	t.Helper()
	f.job.Start(func(j *LocalPrintJob) { f.completed <- j })
	require.Eventually(t, func() bool { return f.job.State() == StateDiscovery }, waitFor, tick)
}

// deliverTo drives the job to the delivering state.
func (f *fixture) deliverTo(t *testing.T) {
	t.Helper()
	f.disc.emit(f.printer)
	require.Eventually(t, func() bool { return f.backend.printCount() > 0 }, waitFor, tick)
}

func (f *fixture) waitDone(t *testing.T) *LocalPrintJob {
	t.Helper()
	select {
	case j := <-f.completed:
		return j
	case <-time.After(waitFor):
		t.Fatal("job did not complete")
		return nil
	}
}

func TestJobHappyPath(t *testing.T) {
	f := newFixture(t, time.Minute)

	// Construction alone parks the host job on the waiting message.
	blocks, _, _, _ := f.host.snapshot()
	require.Equal(t, []string{MsgWaitingToSend}, blocks)

	f.start(t)
	f.deliverTo(t)

	f.backend.emit(&wire.JobStatus{JobID: 42, State: wire.JobStateRunning})
	f.backend.emit(&wire.JobStatus{JobID: 42, State: wire.JobStateDone, Result: wire.JobDoneOk})

	done := f.waitDone(t)
	assert.Equal(t, StateDone, done.State())

	_, completes, cancels, fails := f.host.snapshot()
	assert.Equal(t, 1, completes)
	assert.Zero(t, cancels)
	assert.Empty(t, fails)
	assert.Equal(t, 1, f.backend.closes)
}

func TestJobCompletionCallbackFiresOnce(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.start(t)
	f.deliverTo(t)

	// Several terminal statuses race in; only one completion may
	// surface.
	f.backend.emit(&wire.JobStatus{State: wire.JobStateDone, Result: wire.JobDoneOk})
	f.backend.emit(&wire.JobStatus{State: wire.JobStateDone, Result: wire.JobDoneOk})
	f.backend.emit(&wire.JobStatus{State: wire.JobStateDone, Result: wire.JobDoneError})

	f.waitDone(t)

	select {
	case <-f.completed:
		t.Fatal("completion callback fired twice")
	case <-time.After(100 * time.Millisecond):
	}

	_, completes, _, fails := f.host.snapshot()
	assert.Equal(t, 1, completes)
	assert.Empty(t, fails)
}

func TestJobPrefersSecurePath(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.printer.Paths = append(f.printer.Paths, testURL(t, "ipps://203.0.113.9:443/ipp/print"))

	f.start(t)
	f.deliverTo(t)

	require.NotNil(t, f.backend.lastPath())
	assert.Equal(t, "ipps", f.backend.lastPath().Scheme)
}

func TestJobUpgradesPathFromCapabilities(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.caps.caps.Path = "ipps://203.0.113.9:443/ipp/print"

	f.start(t)
	f.deliverTo(t)

	p := f.backend.lastPath()
	require.NotNil(t, p)
	assert.Equal(t, "ipps", p.Scheme)
	assert.Equal(t, "203.0.113.9:443", p.Host)
}

func TestJobIgnoresForeignPrinters(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.start(t)

	f.disc.emit(&discovery.DiscoveredPrinter{
		UUID:  "0f0e46d6-1dbe-4ea5-b41a-a9e121dee000",
		Paths: []*url.URL{testURL(t, "ipp://203.0.113.77:631/ipp/print")},
	})

	// Still discovering; nothing was delivered.
	assert.Equal(t, StateDiscovery, f.job.State())
	assert.Zero(t, f.backend.printCount())
}

func TestJobDiscoveryTimeout(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	f.start(t)

	f.waitDone(t)

	_, _, _, fails := f.host.snapshot()
	require.Equal(t, []string{MsgPrinterOffline}, fails)
	assert.Equal(t, StateDone, f.job.State())
}

func TestJobOfflineWhenCapabilitiesUnavailable(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.caps.caps = nil
	f.start(t)

	f.disc.emit(f.printer)
	f.waitDone(t)

	_, _, _, fails := f.host.snapshot()
	assert.Equal(t, []string{MsgPrinterOffline}, fails)
}

func TestJobCancelDuringDiscovery(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.start(t)

	f.job.Cancel()
	f.waitDone(t)

	_, completes, cancels, _ := f.host.snapshot()
	assert.Zero(t, completes)
	assert.Equal(t, 1, cancels)
	assert.Zero(t, f.backend.printCount())
}

func TestJobCancelDuringDelivery(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.start(t)
	f.deliverTo(t)

	f.job.Cancel()
	require.Eventually(t, func() bool {
		f.backend.mu.Lock()
		defer f.backend.mu.Unlock()
		return f.backend.cancels == 1
	}, waitFor, tick)

	// The terminal state still arrives from the backend.
	f.backend.emit(&wire.JobStatus{State: wire.JobStateDone, Result: wire.JobDoneCancelled})
	f.waitDone(t)

	_, _, cancels, _ := f.host.snapshot()
	assert.Equal(t, 1, cancels)
}

func TestJobDeliveryErrorFails(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.backend.err = assert.AnError
	f.start(t)

	f.disc.emit(f.printer)
	f.waitDone(t)

	_, _, _, fails := f.host.snapshot()
	assert.Equal(t, []string{MsgDeliveryFailed}, fails)
}

func TestJobCorruptDocument(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.start(t)
	f.deliverTo(t)

	f.backend.emit(&wire.JobStatus{State: wire.JobStateDone, Result: wire.JobDoneCorrupt})
	f.waitDone(t)

	_, _, _, fails := f.host.snapshot()
	assert.Equal(t, []string{MsgUnreadableInput}, fails)
}

func TestJobBlockedReasonsAccumulate(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.start(t)
	f.deliverTo(t)

	f.backend.emit(&wire.JobStatus{State: wire.JobStateBlocked, BlockedReasons: []string{wire.ReasonOutOfPaper}})
	f.backend.emit(&wire.JobStatus{State: wire.JobStateBlocked, BlockedReasons: []string{wire.ReasonJammed}})
	f.backend.emit(&wire.JobStatus{State: wire.JobStateBlocked})

	require.Eventually(t, func() bool { return len(f.job.BlockedReasons()) == 2 }, waitFor, tick)
	assert.Equal(t, []string{wire.ReasonOutOfPaper, wire.ReasonJammed}, f.job.BlockedReasons())

	blocks, _, _, _ := f.host.snapshot()
	// Block messages: the initial waiting message, both reasons, and the
	// generic fallback when the engine supplied none.
	assert.Equal(t, []string{MsgWaitingToSend, wire.ReasonOutOfPaper, wire.ReasonJammed, MsgPrinterCheck}, blocks)
}

func TestJobRecordsFirstSeenCertificate(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.start(t)
	f.deliverTo(t)

	f.backend.emit(&wire.JobStatus{State: wire.JobStateRunning, Certificate: []byte{1, 2, 3}})
	require.Eventually(t, func() bool { return f.certs.Get(testUUID) != nil }, waitFor, tick)
	assert.Equal(t, []byte{1, 2, 3}, f.certs.Get(testUUID))

	// A later, different certificate must not silently replace it.
	f.backend.emit(&wire.JobStatus{State: wire.JobStateRunning, Certificate: []byte{9, 9, 9}})
	f.backend.emit(&wire.JobStatus{State: wire.JobStateDone, Result: wire.JobDoneOk})
	f.waitDone(t)

	assert.Equal(t, []byte{1, 2, 3}, f.certs.Get(testUUID))
}

func TestJobSecurityGateOnUnencryptedPrinter(t *testing.T) {
	f := newFixture(t, time.Minute)

	// The printer was previously trusted over an encrypted channel but
	// is only reachable unencrypted now.
	f.caps.caps.Certificate = []byte{1, 2, 3}
	require.NoError(t, f.certs.Put(testUUID, []byte{1, 2, 3}))

	f.start(t)
	f.disc.emit(f.printer)

	require.Eventually(t, func() bool { return f.job.State() == StateSecurity }, waitFor, tick)
	assert.Zero(t, f.backend.printCount())

	blocks, _, _, _ := f.host.snapshot()
	assert.Contains(t, blocks, MsgNotEncrypted)

	require.Equal(t, 1, f.notifier.count())
	f.notifier.mu.Lock()
	call := f.notifier.calls[0]
	f.notifier.mu.Unlock()
	assert.Equal(t, testUUID, call.uuid)
	assert.Equal(t, []byte{1, 2, 3}, call.oldCert)
	assert.Nil(t, call.newCert)

	// The trust decision forgets the pin and retries.
	require.NoError(t, f.certs.Remove(testUUID))
	f.caps.caps.Certificate = nil
	f.job.Restart()

	require.Eventually(t, func() bool { return f.backend.printCount() == 1 }, waitFor, tick)
}

func TestJobBadCertificateChange(t *testing.T) {
	f := newFixture(t, time.Minute)
	require.NoError(t, f.certs.Put(testUUID, []byte{1}))

	f.start(t)
	f.deliverTo(t)

	f.backend.emit(&wire.JobStatus{
		State:       wire.JobStateDone,
		Result:      wire.JobDoneBadCertificate,
		Certificate: []byte{2},
	})

	require.Eventually(t, func() bool { return f.job.State() == StateSecurity }, waitFor, tick)

	blocks, _, _, _ := f.host.snapshot()
	assert.Contains(t, blocks, MsgBadCertificate)

	require.Equal(t, 1, f.notifier.count())
	f.notifier.mu.Lock()
	call := f.notifier.calls[0]
	f.notifier.mu.Unlock()
	assert.Equal(t, []byte{1}, call.oldCert)
	assert.Equal(t, []byte{2}, call.newCert)

	// Accepting the new certificate restarts delivery.
	require.NoError(t, f.certs.Put(testUUID, []byte{2}))
	f.job.Restart()
	require.Eventually(t, func() bool { return f.backend.printCount() == 2 }, waitFor, tick)
}

func TestJobBadCertificateWithoutCertificate(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.start(t)
	f.deliverTo(t)

	f.backend.emit(&wire.JobStatus{State: wire.JobStateDone, Result: wire.JobDoneBadCertificate})

	require.Eventually(t, func() bool {
		_, _, _, fails := f.host.snapshot()
		return len(fails) == 1
	}, waitFor, tick)

	_, _, _, fails := f.host.snapshot()
	assert.Equal(t, []string{MsgBadCertificate}, fails)
	assert.Zero(t, f.notifier.count())
}

func TestJobRestartOutsideSecurityIsIgnored(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.start(t)
	f.deliverTo(t)

	f.job.Restart()
	assert.Equal(t, StateDelivering, f.job.State())
	assert.Equal(t, 1, f.backend.printCount())
}

func TestJobReleasesWakeLock(t *testing.T) {
	f := newFixture(t, time.Minute)
	lock := f.job.cfg.WakeLock

	f.start(t)
	require.Equal(t, 1, lock.Holders())

	f.deliverTo(t)
	f.backend.emit(&wire.JobStatus{State: wire.JobStateDone, Result: wire.JobDoneOk})
	f.waitDone(t)

	assert.Zero(t, lock.Holders())
}
