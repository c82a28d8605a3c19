package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Fixed string field sizes in the native records. Strings are
// NUL-terminated within their field; longer values are truncated with the
// final byte left as the terminator.
const (
	docCategoryLen  = 16
	jobNameLen      = 128
	userNameLen     = 128
	pageRangeLen    = 256
	printerNameLen  = 256
	printerUUIDLen  = 64
	locationLen     = 256
	printerURILen   = 1024
	mediaDefaultLen = 64

	maxMediaTypes = 32
	maxMediaSizes = 32
)

// The engine is little-endian.
var byteOrder = binary.LittleEndian

// jobParamsRecord is the fixed-layout job ticket crossing the engine
// boundary. A variable-length certificate block of CertificateLen bytes
// follows the record.
type jobParamsRecord struct {
	MediaSize        int32
	MediaType        int32
	MediaTray        int32
	ColorSpace       int32
	Duplex           int32
	Copies           int32
	Borderless       int32
	RenderFlags      uint32
	RenderResolution int32
	PreserveScaling  int32

	PixelUnits int32
	Width      int32
	Height     int32

	PageWidth        float32
	PageHeight       float32
	PageMarginTop    float32
	PageMarginLeft   float32
	PageMarginRight  float32
	PageMarginBottom float32

	JobMarginTop    float32
	JobMarginLeft   float32
	JobMarginRight  float32
	JobMarginBottom float32

	SourceWidth  float32
	SourceHeight float32

	DocumentCategory [docCategoryLen]byte
	JobName          [jobNameLen]byte
	OriginatingUser  [userNameLen]byte
	PageRange        [pageRangeLen]byte

	CertificateLen int32
}

// capsRecord is the fixed-layout capability record, same framing rules as
// jobParamsRecord.
type capsRecord struct {
	Duplex     int32
	Borderless int32
	Color      int32
	Supported  int32

	IPPVersionMajor int32
	IPPVersionMinor int32

	Name         [printerNameLen]byte
	UUID         [printerUUIDLen]byte
	Location     [locationLen]byte
	URI          [printerURILen]byte
	MediaDefault [mediaDefaultLen]byte

	NumMediaTypes int32
	MediaTypes    [maxMediaTypes]int32
	NumMediaSizes int32
	MediaSizes    [maxMediaSizes]int32

	CertificateLen int32
}

var (
	jobParamsRecordSize = binary.Size(jobParamsRecord{})
	capsRecordSize      = binary.Size(capsRecord{})
)

// putString copies s into a fixed field, truncating if needed and always
// leaving a NUL terminator.
func putString(dst []byte, s string) {
	n := copy(dst[:len(dst)-1], s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// getString reads a NUL-terminated string out of a fixed field.
func getString(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		return string(src[:i])
	}
	return string(src)
}

// encodeRecord frames a fixed-layout record followed by a trailing
// certificate block.
func encodeRecord(rec interface{}, cert []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, byteOrder, rec); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	buf.Write(cert)
	return buf.Bytes(), nil
}

// decodeRecord parses a fixed-layout record and returns the trailing
// certificate block, or nil when the record declares none.
func decodeRecord(data []byte, rec interface{}, size int, certLen func() int32) ([]byte, error) {
	if len(data) < size {
		return nil, fmt.Errorf("decode record: %d bytes, want at least %d", len(data), size)
	}
	if err := binary.Read(bytes.NewReader(data[:size]), byteOrder, rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	n := int(certLen())
	if n <= 0 {
		return nil, nil
	}
	if len(data) < size+n {
		return nil, fmt.Errorf("decode record: certificate truncated, %d of %d bytes", len(data)-size, n)
	}
	cert := make([]byte, n)
	copy(cert, data[size:size+n])
	return cert, nil
}
