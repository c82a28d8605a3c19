package wire

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a marshaling call is handed a nil
// structured object. The call fails whole; no partial mutation occurs.
var ErrInvalidArgument = errors.New("wire: invalid argument")

// Codec marshals job parameters and printer capabilities across the
// engine boundary. It carries no state of its own; a single instance is
// shared by every job.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

// renderFlags folds the orientation, scaling and alignment fields into
// the flag word. Orientation is first-true-wins: portrait over landscape
// over auto-rotate. Fill-page takes the full auto-scale group; otherwise
// fit-to-page takes the auto-fit group plus optional document scaling. A
// non-zero alignment replaces the centering bits wholesale, and a full
// center request drops the orientation-relative bit in favor of both
// axes.
func renderFlags(p *JobParameters) uint32 {
	flags := p.RenderFlags

	if p.PortraitMode {
		flags |= RenderPortraitMode
	} else if p.LandscapeMode {
		flags |= RenderLandscapeMode
	} else if p.AutoRotate {
		flags |= RenderAutoRotate
	}

	if p.FillPage {
		flags |= autoScaleFlags
	} else if p.FitToPage {
		flags |= autoFitFlags
		if p.DocumentScaling {
			flags |= RenderDocumentScaling
		}
	}

	if p.Alignment != 0 {
		flags &^= RenderCenterVertical | RenderCenterHorizontal | RenderCenterOnOrientation
		if p.Alignment&AlignCenterHorizontal != 0 {
			flags |= RenderCenterHorizontal
		}
		if p.Alignment&AlignCenterVertical != 0 {
			flags |= RenderCenterVertical
		}
		if p.Alignment&AlignCenterOnOrientation != 0 {
			flags |= RenderCenterOnOrientation
		}
		if p.Alignment&AlignCenter == AlignCenter {
			flags &^= RenderCenterOnOrientation
			flags |= RenderCenterVertical | RenderCenterHorizontal
		}
	}

	return flags
}

func boolInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// JobParamsToNative marshals p into an engine job-parameter record.
func (c *Codec) JobParamsToNative(p *JobParameters) ([]byte, error) {
	if p == nil {
		return nil, ErrInvalidArgument
	}

	rec := jobParamsRecord{
		MediaSize:        int32(p.MediaSize),
		MediaType:        int32(p.MediaType),
		MediaTray:        int32(p.MediaTray),
		ColorSpace:       int32(p.ColorSpace),
		Duplex:           int32(p.Duplex),
		Copies:           int32(p.Copies),
		Borderless:       boolInt32(p.Borderless),
		RenderFlags:      renderFlags(p),
		RenderResolution: int32(p.RenderResolution),
		PreserveScaling:  boolInt32(p.PreserveScaling),
		PixelUnits:       int32(p.PrintResolution),
		Width:            int32(p.PrintableWidth),
		Height:           int32(p.PrintableHeight),
		PageWidth:        p.PageWidth,
		PageHeight:       p.PageHeight,
		PageMarginTop:    p.PageMarginTop,
		PageMarginLeft:   p.PageMarginLeft,
		PageMarginRight:  p.PageMarginRight,
		PageMarginBottom: p.PageMarginBottom,
		JobMarginTop:     p.JobMarginTop,
		JobMarginLeft:    p.JobMarginLeft,
		JobMarginRight:   p.JobMarginRight,
		JobMarginBottom:  p.JobMarginBottom,
		SourceWidth:      p.SourceWidth,
		SourceHeight:     p.SourceHeight,
		CertificateLen:   int32(len(p.Certificate)),
	}

	putString(rec.DocumentCategory[:], p.DocumentCategory)
	putString(rec.JobName[:], p.JobName)
	putString(rec.OriginatingUser[:], p.OriginatingUser)
	putString(rec.PageRange[:], p.PageRange)

	return encodeRecord(&rec, p.Certificate)
}

// JobParamsFromNative applies an engine job-parameter record back onto p.
// Only the fields the engine resolves are written; the job's own strings
// and certificate stay untouched.
func (c *Codec) JobParamsFromNative(data []byte, p *JobParameters) error {
	if p == nil {
		return ErrInvalidArgument
	}

	var rec jobParamsRecord
	if _, err := decodeRecord(data, &rec, jobParamsRecordSize, func() int32 { return rec.CertificateLen }); err != nil {
		return fmt.Errorf("job params: %w", err)
	}

	p.MediaSize = int(rec.MediaSize)
	p.MediaType = int(rec.MediaType)
	p.MediaTray = int(rec.MediaTray)
	p.ColorSpace = int(rec.ColorSpace)
	p.Duplex = int(rec.Duplex)
	p.Copies = int(rec.Copies)
	p.Borderless = rec.Borderless != 0
	p.RenderFlags = rec.RenderFlags
	p.RenderResolution = int(rec.RenderResolution)
	p.PreserveScaling = rec.PreserveScaling != 0

	p.FitToPage = rec.RenderFlags&autoFitFlags == autoFitFlags
	p.FillPage = rec.RenderFlags&autoScaleFlags == autoScaleFlags
	p.AutoRotate = rec.RenderFlags&RenderAutoRotate != 0
	p.PortraitMode = rec.RenderFlags&RenderPortraitMode != 0
	p.LandscapeMode = rec.RenderFlags&RenderLandscapeMode != 0

	p.PrintResolution = int(rec.PixelUnits)
	p.PrintableWidth = int(rec.Width)
	p.PrintableHeight = int(rec.Height)

	p.PageWidth = rec.PageWidth
	p.PageHeight = rec.PageHeight
	p.PageMarginTop = rec.PageMarginTop
	p.PageMarginLeft = rec.PageMarginLeft
	p.PageMarginRight = rec.PageMarginRight
	p.PageMarginBottom = rec.PageMarginBottom

	p.JobMarginTop = rec.JobMarginTop
	p.JobMarginLeft = rec.JobMarginLeft
	p.JobMarginRight = rec.JobMarginRight
	p.JobMarginBottom = rec.JobMarginBottom

	p.SourceWidth = rec.SourceWidth
	p.SourceHeight = rec.SourceHeight

	return nil
}

// CapabilitiesToNative marshals caps into an engine capability record.
func (c *Codec) CapabilitiesToNative(caps *PrinterCapabilities) ([]byte, error) {
	if caps == nil {
		return nil, ErrInvalidArgument
	}

	rec := capsRecord{
		Duplex:          boolInt32(caps.Duplex),
		Borderless:      boolInt32(caps.Borderless),
		Color:           boolInt32(caps.Color),
		Supported:       boolInt32(caps.Supported),
		IPPVersionMajor: int32(caps.IPPVersionMajor),
		IPPVersionMinor: int32(caps.IPPVersionMinor),
		CertificateLen:  int32(len(caps.Certificate)),
	}

	putString(rec.Name[:], caps.Name)
	putString(rec.UUID[:], caps.UUID)
	putString(rec.Location[:], caps.Location)
	putString(rec.URI[:], caps.Path)
	putString(rec.MediaDefault[:], caps.MediaDefault)

	n := len(caps.SupportedMediaTypes)
	if n > maxMediaTypes {
		n = maxMediaTypes
	}
	rec.NumMediaTypes = int32(n)
	for i := 0; i < n; i++ {
		rec.MediaTypes[i] = int32(caps.SupportedMediaTypes[i])
	}

	n = len(caps.SupportedMediaSizes)
	if n > maxMediaSizes {
		n = maxMediaSizes
	}
	rec.NumMediaSizes = int32(n)
	for i := 0; i < n; i++ {
		rec.MediaSizes[i] = int32(caps.SupportedMediaSizes[i])
	}

	return encodeRecord(&rec, caps.Certificate)
}

// CapabilitiesFromNative unmarshals an engine capability record. The raw
// record is retained on the result alongside the decoded fields.
func (c *Codec) CapabilitiesFromNative(data []byte) (*PrinterCapabilities, error) {
	var rec capsRecord
	cert, err := decodeRecord(data, &rec, capsRecordSize, func() int32 { return rec.CertificateLen })
	if err != nil {
		return nil, fmt.Errorf("capabilities: %w", err)
	}

	caps := &PrinterCapabilities{
		Duplex:          rec.Duplex != 0,
		Borderless:      rec.Borderless != 0,
		Color:           rec.Color != 0,
		Supported:       rec.Supported != 0,
		IPPVersionMajor: int(rec.IPPVersionMajor),
		IPPVersionMinor: int(rec.IPPVersionMinor),
		Name:            getString(rec.Name[:]),
		UUID:            getString(rec.UUID[:]),
		Location:        getString(rec.Location[:]),
		Path:            getString(rec.URI[:]),
		MediaDefault:    getString(rec.MediaDefault[:]),
		Certificate:     cert,
	}

	for i := 0; i < int(rec.NumMediaTypes) && i < maxMediaTypes; i++ {
		caps.SupportedMediaTypes = append(caps.SupportedMediaTypes, int(rec.MediaTypes[i]))
	}
	for i := 0; i < int(rec.NumMediaSizes) && i < maxMediaSizes; i++ {
		caps.SupportedMediaSizes = append(caps.SupportedMediaSizes, int(rec.MediaSizes[i]))
	}

	caps.Native = make([]byte, len(data))
	copy(caps.Native, data)

	return caps, nil
}

// ApplyCertificate copies the capability certificate, when present, into
// the job parameters before job start.
func (c *Codec) ApplyCertificate(p *JobParameters, caps *PrinterCapabilities) error {
	if p == nil || caps == nil {
		return ErrInvalidArgument
	}
	p.Certificate = nil
	if caps.Certificate != nil {
		p.Certificate = make([]byte, len(caps.Certificate))
		copy(p.Certificate, caps.Certificate)
	}
	return nil
}
