package ipp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/openbips/bips/pkg/job"
	"github.com/openbips/bips/pkg/pages"
	"github.com/openbips/bips/pkg/wire"
)

const (
	jobPollInterval = 5 * time.Second
	maxPollErrors   = 3
)

// Backend delivers a prepared job over IPP and reports progress through
// the status callback. It implements job.Backend.
type Backend struct {
	mu     sync.Mutex
	client *Client
	jobID  int
	cancel context.CancelFunc
}

func NewBackend() *Backend {
	return &Backend{jobID: -1}
}

func (b *Backend) Print(path *url.URL, doc *job.Document, params *wire.JobParameters,
	caps *wire.PrinterCapabilities, status func(*wire.JobStatus)) error {

	codec := wire.NewCodec()

	// The trusted capability certificate rides into the job parameters
	// before anything is encoded.
	if err := codec.ApplyCertificate(params, caps); err != nil {
		return fmt.Errorf("failed to apply certificate: %w", err)
	}

	// Round the job through the engine record forms up front so a
	// malformed ticket fails before anything reaches the printer.
	if _, err := codec.JobParamsToNative(params); err != nil {
		return fmt.Errorf("failed to encode job parameters: %w", err)
	}
	if _, err := codec.CapabilitiesToNative(caps); err != nil {
		return fmt.Errorf("failed to encode capabilities: %w", err)
	}

	ticket := &Ticket{
		JobName:    params.JobName,
		UserName:   params.OriginatingUser,
		MIMEType:   doc.MIMEType,
		Copies:     params.Copies,
		Sides:      sidesKeyword(params.Duplex),
		ColorMode:  colorModeKeyword(params.ColorSpace),
		Media:      caps.MediaDefault,
		PageRanges: compressRanges(pages.Parse(params.PageRange, doc.PageCount)),
	}

	var cert []byte
	if path.Scheme == "ipps" {
		cert = fetchCertificate(path)
		if cert != nil && caps.Certificate != nil && !bytes.Equal(cert, caps.Certificate) {
			status(&wire.JobStatus{
				JobID:       -1,
				State:       wire.JobStateDone,
				Result:      wire.JobDoneBadCertificate,
				Certificate: cert,
			})
			return nil
		}
	}

	client := New(path.String())
	if path.Scheme == "ipps" {
		pinned := cert
		if pinned == nil {
			pinned = caps.Certificate
		}
		client = NewWithCertificate(path.String(), pinned)
	}
	ctx, cancel := context.WithCancel(context.Background())

	b.mu.Lock()
	b.client = client
	b.cancel = cancel
	b.mu.Unlock()

	jobID := -1
	for _, file := range doc.Files {
		id, err := client.PrintJobFile(ctx, ticket, file)
		if err != nil {
			cancel()
			return fmt.Errorf("failed to submit %q: %w", file, err)
		}
		jobID = id
	}

	b.mu.Lock()
	b.jobID = jobID
	b.mu.Unlock()

	status(&wire.JobStatus{JobID: jobID, State: wire.JobStateQueued, Certificate: cert})

	go b.watch(ctx, client, jobID, status)
	return nil
}

// Cancel asks the printer to cancel the submitted job. The watcher keeps
// polling until the printer reports the terminal state.
func (b *Backend) Cancel() {
	b.mu.Lock()
	client, jobID := b.client, b.jobID
	b.mu.Unlock()

	if client == nil || jobID < 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := client.CancelJob(ctx, jobID); err != nil {
			log.Printf("failed to cancel job %d: %v", jobID, err)
		}
	}()
}

func (b *Backend) CloseDocument() {
	b.mu.Lock()
	cancel := b.cancel
	b.client = nil
	b.jobID = -1
	b.cancel = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// watch polls the job until it reaches a terminal state, translating IPP
// job states and reasons into engine status callbacks.
func (b *Backend) watch(ctx context.Context, client *Client, jobID int, status func(*wire.JobStatus)) {
	errs := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(jobPollInterval):
		}

		attrs, err := client.JobAttributes(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			errs++
			if errs < maxPollErrors {
				continue
			}

			log.Printf("lost contact with job %d: %v", jobID, err)
			status(&wire.JobStatus{JobID: jobID, State: wire.JobStateDone, Result: wire.JobDoneOther})
			return
		}
		errs = 0

		if b.report(ctx, client, jobID, attrs, status) {
			return
		}
	}
}

// report emits one status callback for the polled attributes and reports
// whether the job is terminal.
func (b *Backend) report(ctx context.Context, client *Client, jobID int,
	attrs *JobAttributes, status func(*wire.JobStatus)) bool {

	s := &wire.JobStatus{JobID: jobID}

	switch attrs.State {
	case JobPending, JobPendingHeld:
		s.State = wire.JobStateQueued

	case JobProcessing:
		s.State = wire.JobStateRunning

	case JobProcessingStopped:
		s.State = wire.JobStateBlocked
		s.BlockedReasons = b.blockedReasons(ctx, client)

	case JobCanceled:
		s.State = wire.JobStateDone
		s.Result = wire.JobDoneCancelled

	case JobAborted:
		s.State = wire.JobStateDone
		s.Result = wire.JobDoneError
		mask := FailReasonMask(attrs.StateReasons)
		s.BlockedReasons = wire.DecodeFailReasons(mask, wire.CountReasons(mask, true))

	case JobCompleted:
		s.State = wire.JobStateDone
		s.Result = wire.JobDoneOk

	default:
		s.State = wire.JobStateOther
	}

	status(s)
	return s.State == wire.JobStateDone
}

// blockedReasons asks the printer why it stopped; job attributes rarely
// carry the condition.
func (b *Backend) blockedReasons(ctx context.Context, client *Client) []string {
	printer, err := client.PrinterAttributes(ctx)
	if err != nil {
		log.Printf("failed to read printer state: %v", err)
		return nil
	}

	mask := BlockedReasonMask(printer.StateReasons)
	return wire.DecodeBlockedReasons(mask, wire.CountReasons(mask, false))
}

// fetchCertificate captures the DER leaf certificate presented by an
// IPPS endpoint. Trust is decided by the job layer, so verification is
// disabled here.
func fetchCertificate(path *url.URL) []byte {
	host := path.Host
	if path.Port() == "" {
		host = net.JoinHostPort(path.Hostname(), "631")
	}

	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 10 * time.Second}, "tcp", host,
		&tls.Config{InsecureSkipVerify: true})
	if err != nil {
		log.Printf("failed to read certificate from %v: %v", host, err)
		return nil
	}

	defer func() {
		_ = conn.Close()
	}()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil
	}

	return bytes.Clone(certs[0].Raw)
}

// compressRanges folds an explicit page list into IPP page-ranges.
// Consecutive runs collapse; descending runs are normalized since IPP
// ranges are ascending.
func compressRanges(list []int) [][2]int {
	var ranges [][2]int

	for i := 0; i < len(list); {
		j := i + 1
		if j < len(list) && list[j] == list[i]+1 {
			for j < len(list) && list[j] == list[j-1]+1 {
				j++
			}
			ranges = append(ranges, [2]int{list[i], list[j-1]})
		} else if j < len(list) && list[j] == list[i]-1 {
			for j < len(list) && list[j] == list[j-1]-1 {
				j++
			}
			ranges = append(ranges, [2]int{list[j-1], list[i]})
		} else {
			ranges = append(ranges, [2]int{list[i], list[i]})
		}
		i = j
	}

	return ranges
}

func sidesKeyword(duplex int) string {
	switch duplex {
	case wire.DuplexLongEdge:
		return "two-sided-long-edge"
	case wire.DuplexShortEdge:
		return "two-sided-short-edge"
	default:
		return "one-sided"
	}
}

func colorModeKeyword(space int) string {
	switch space {
	case wire.ColorSpaceMono:
		return "monochrome"
	case wire.ColorSpaceColor:
		return "color"
	default:
		return ""
	}
}
