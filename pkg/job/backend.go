package job

import (
	"net/url"

	"github.com/openbips/bips/pkg/discovery"
	"github.com/openbips/bips/pkg/wire"
)

// Document is the input handed to the delivery bridge: one or more
// rendered files sharing a MIME type, plus the total page count the
// range spec is resolved against.
type Document struct {
	Files     []string
	MIMEType  string
	PageCount int
}

// PrintJob is the host-side job handle the state machine drives. Start
// clears any block message; the other transitions are terminal on the
// host side.
type PrintJob interface {
	Start()
	Block(reason string)
	Cancel()
	Complete()
	Fail(reason string)
	IsBlocked() bool
}

// Backend bridges a prepared job to the print engine. Print returns
// after submission; progress and completion arrive through the status
// callback from the engine's worker context.
type Backend interface {
	Print(path *url.URL, doc *Document, params *wire.JobParameters,
		caps *wire.PrinterCapabilities, status func(*wire.JobStatus)) error

	// Cancel requests cooperative cancellation of the in-flight job.
	// Completion still arrives via the status callback.
	Cancel()

	// CloseDocument releases the engine's open document handle.
	CloseDocument()
}

// CapabilitiesCache resolves printer capabilities asynchronously. The
// callback receives nil when the printer cannot be queried.
type CapabilitiesCache interface {
	Request(p *discovery.DiscoveredPrinter, upgradeToSecure bool, fn func(*wire.PrinterCapabilities))
}

// CertificateChangeNotifier is told when a job needs a trust decision.
// A nil newCert asks for first-time trust of an unencrypted target; a
// non-nil newCert reports a certificate change.
type CertificateChangeNotifier interface {
	CertificateChanged(printerName, printerUUID string, oldCert, newCert []byte)
}
