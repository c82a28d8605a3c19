package ipp

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenPrinting/goipp"
)

type Client struct {
	uri        string
	username   string
	charset    string
	language   string
	httpClient *http.Client
}

func New(uri string) *Client {
	return &Client{
		uri:        uri,
		username:   "IPP Library",
		charset:    "utf-8",
		language:   "en-US",
		httpClient: http.DefaultClient,
	}
}

// NewWithCertificate returns a client whose IPPS requests accept exactly
// the given DER leaf certificate instead of the system roots. Printers
// typically serve self-signed certificates, so trust is anchored on the
// pinned certificate rather than a CA chain. With a nil certificate the
// client accepts any leaf; the caller decides trust after capturing it.
func NewWithCertificate(uri string, cert []byte) *Client {
	c := New(uri)

	conf := &tls.Config{InsecureSkipVerify: true}
	if cert != nil {
		pinned := bytes.Clone(cert)
		conf.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if len(rawCerts) > 0 && bytes.Equal(rawCerts[0], pinned) {
				return nil
			}

			return errors.New("printer certificate does not match the pinned certificate")
		}
	}

	c.httpClient = &http.Client{
		Transport: &http.Transport{TLSClientConfig: conf},
	}

	return c
}

// Ticket carries per-job IPP attributes for a submission.
type Ticket struct {
	JobName    string
	UserName   string
	MIMEType   string
	Copies     int
	Sides      string
	Media      string
	ColorMode  string
	PageRanges [][2]int
}

func (c *Client) PrinterAttributes(ctx context.Context) (*PrinterAttributes, error) {
	in := goipp.NewRequest(goipp.DefaultVersion, goipp.OpGetPrinterAttributes, 1)
	in.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String(c.charset)))
	in.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String(c.language)))
	in.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(c.uri)))
	in.Operation.Add(goipp.MakeAttribute("requested-attributes", goipp.TagKeyword, goipp.String("all")))

	out, err := c.SendRequest(ctx, in, nil)
	if err != nil {
		return nil, err
	}

	attrs := &PrinterAttributes{}

	for _, attr := range out.Printer {
		if len(attr.Values) == 0 {
			continue
		}

		switch attr.Name {
		case "printer-name":
			attrs.Name = stringValue(attr.Values[0].V)
		case "printer-info":
			attrs.Info = stringValue(attr.Values[0].V)
		case "printer-location":
			attrs.Location = stringValue(attr.Values[0].V)
		case "printer-uuid":
			attrs.UUID = strings.TrimPrefix(stringValue(attr.Values[0].V), "urn:uuid:")
		case "printer-state":
			attrs.State = PrinterState(attr.Values[0].V.(goipp.Integer))
		case "printer-state-reasons":
			for _, v := range attr.Values {
				attrs.StateReasons = append(attrs.StateReasons, stringValue(v.V))
			}
		case "queued-job-count":
			attrs.QueuedJobCount = int(attr.Values[0].V.(goipp.Integer))
		case "color-supported":
			attrs.ColorSupported = bool(attr.Values[0].V.(goipp.Boolean))
		case "media-default":
			attrs.MediaDefault = stringValue(attr.Values[0].V)
		case "media-supported":
			for _, v := range attr.Values {
				attrs.MediaSupported = append(attrs.MediaSupported, stringValue(v.V))
			}
		case "media-type-supported":
			for _, v := range attr.Values {
				attrs.MediaTypeSupported = append(attrs.MediaTypeSupported, stringValue(v.V))
			}
		case "sides-supported":
			for _, v := range attr.Values {
				attrs.SidesSupported = append(attrs.SidesSupported, stringValue(v.V))
			}
		case "ipp-versions-supported":
			for _, v := range attr.Values {
				attrs.IPPVersionsSupported = append(attrs.IPPVersionsSupported, stringValue(v.V))
			}
		case "operations-supported":
			for _, v := range attr.Values {
				attrs.OperationsSupported = append(attrs.OperationsSupported, goipp.Op(v.V.(goipp.Integer)))
			}
		case "page-delivery-supported":
			for _, v := range attr.Values {
				attrs.PageDeliverySupported = append(attrs.PageDeliverySupported, stringValue(v.V))
			}
		}
	}

	return attrs, nil
}

func (c *Client) JobAttributes(ctx context.Context, job int) (*JobAttributes, error) {
	in := goipp.NewRequest(goipp.DefaultVersion, goipp.OpGetJobAttributes, 1)
	in.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String(c.charset)))
	in.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String(c.language)))
	in.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(c.uri)))
	in.Operation.Add(goipp.MakeAttribute("job-id", goipp.TagInteger, goipp.Integer(job)))

	out, err := c.SendRequest(ctx, in, nil)
	if err != nil {
		return nil, err
	}

	attrs := &JobAttributes{}

	for _, attr := range out.Job {
		if len(attr.Values) == 0 {
			continue
		}

		switch attr.Name {
		case "job-state":
			attrs.State = JobState(attr.Values[0].V.(goipp.Integer))
		case "job-state-reasons":
			for _, v := range attr.Values {
				attrs.StateReasons = append(attrs.StateReasons, stringValue(v.V))
			}
		}
	}

	return attrs, nil
}

func (c *Client) PrintJob(ctx context.Context, t *Ticket, reader io.Reader) (int, error) {
	user := t.UserName
	if user == "" {
		user = c.username
	}

	in := goipp.NewRequest(goipp.DefaultVersion, goipp.OpPrintJob, 1)
	in.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String(c.charset)))
	in.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String(c.language)))
	in.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(c.uri)))
	in.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName, goipp.String(user)))
	in.Operation.Add(goipp.MakeAttribute("job-name", goipp.TagName, goipp.String(t.JobName)))
	in.Operation.Add(goipp.MakeAttribute("document-format", goipp.TagMimeType, goipp.String(t.MIMEType)))

	if t.Copies > 1 {
		in.Job.Add(goipp.MakeAttribute("copies", goipp.TagInteger, goipp.Integer(t.Copies)))
	}
	if t.Sides != "" {
		in.Job.Add(goipp.MakeAttribute("sides", goipp.TagKeyword, goipp.String(t.Sides)))
	}
	if t.Media != "" {
		in.Job.Add(goipp.MakeAttribute("media", goipp.TagKeyword, goipp.String(t.Media)))
	}
	if t.ColorMode != "" {
		in.Job.Add(goipp.MakeAttribute("print-color-mode", goipp.TagKeyword, goipp.String(t.ColorMode)))
	}
	if len(t.PageRanges) > 0 {
		attr := goipp.Attribute{Name: "page-ranges"}
		for _, r := range t.PageRanges {
			attr.Values.Add(goipp.TagRange, goipp.Range{Lower: r[0], Upper: r[1]})
		}
		in.Job.Add(attr)
	}

	out, err := c.SendRequest(ctx, in, reader)
	if err != nil {
		return -1, err
	}

	for _, attr := range out.Job {
		if len(attr.Values) == 0 {
			continue
		}

		switch attr.Name {
		case "job-id":
			return int(attr.Values[0].V.(goipp.Integer)), nil
		}
	}

	return -1, errors.New("no job-id in response")
}

func (c *Client) PrintJobFile(ctx context.Context, t *Ticket, filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return -1, fmt.Errorf("open file: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	if t.JobName == "" {
		t.JobName = filepath.Base(filename)
	}

	return c.PrintJob(ctx, t, file)
}

func (c *Client) CancelJob(ctx context.Context, job int) error {
	in := goipp.NewRequest(goipp.DefaultVersion, goipp.OpCancelJob, 1)
	in.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String(c.charset)))
	in.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String(c.language)))
	in.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(c.uri)))
	in.Operation.Add(goipp.MakeAttribute("job-id", goipp.TagInteger, goipp.Integer(job)))
	in.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName, goipp.String(c.username)))

	_, err := c.SendRequest(ctx, in, nil)
	return err
}

func (c *Client) SendRequest(ctx context.Context, in *goipp.Message, payload io.Reader) (*goipp.Message, error) {
	message, err := in.EncodeBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	uri, err := url.Parse(c.uri)
	if err != nil {
		return nil, fmt.Errorf("invalid printer URI %q: %v", c.uri, err)
	}

	if uri.Scheme == "ipp" {
		uri.Scheme = "http"
	}

	if uri.Scheme == "ipps" {
		uri.Scheme = "https"
	}

	var body io.Reader = bytes.NewBuffer(message)
	if payload != nil {
		body = io.MultiReader(body, payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if uri.User != nil {
		pwd, _ := uri.User.Password()
		req.SetBasicAuth(uri.User.Username(), pwd)
	}

	req.Header.Set("Content-Type", goipp.ContentType)
	req.Header.Set("Accept", goipp.ContentType)
	req.Header.Set("Accept-Encoding", "gzip, deflate, identity")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("request failed: status code %v", resp.StatusCode)
	}

	out := goipp.Message{}
	if err := out.Decode(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if goipp.Status(out.Code) != goipp.StatusOk {
		return nil, errors.New(goipp.Status(out.Code).String())
	}

	return &out, nil
}

// stringValue unwraps string-like IPP values regardless of tag.
func stringValue(v goipp.Value) string {
	switch s := v.(type) {
	case goipp.String:
		return string(s)
	case goipp.TextWithLang:
		return s.Text
	}
	return ""
}
