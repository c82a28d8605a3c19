package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFlagsOrientation(t *testing.T) {
	tests := []struct {
		name   string
		params JobParameters
		want   uint32
	}{
		{"portrait wins over landscape", JobParameters{PortraitMode: true, LandscapeMode: true}, RenderPortraitMode},
		{"landscape wins over auto-rotate", JobParameters{LandscapeMode: true, AutoRotate: true}, RenderLandscapeMode},
		{"auto-rotate alone", JobParameters{AutoRotate: true}, RenderAutoRotate},
		{"nothing requested", JobParameters{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderFlags(&tt.params))
		})
	}
}

func TestRenderFlagsScaling(t *testing.T) {
	// Fill-page takes the whole auto-scale group and shadows fit-to-page.
	p := &JobParameters{FillPage: true, FitToPage: true, DocumentScaling: true}
	assert.Equal(t, autoScaleFlags, renderFlags(p))

	p = &JobParameters{FitToPage: true}
	assert.Equal(t, autoFitFlags, renderFlags(p))

	p = &JobParameters{FitToPage: true, DocumentScaling: true}
	assert.Equal(t, autoFitFlags|RenderDocumentScaling, renderFlags(p))

	// Document scaling on its own does nothing.
	p = &JobParameters{DocumentScaling: true}
	assert.Equal(t, uint32(0), renderFlags(p))
}

func TestRenderFlagsAlignment(t *testing.T) {
	// An explicit alignment replaces the centering bits from the scaling
	// group.
	p := &JobParameters{FitToPage: true, Alignment: AlignCenterHorizontal}
	got := renderFlags(p)
	assert.NotZero(t, got&RenderCenterHorizontal)
	assert.Zero(t, got&RenderCenterVertical)
	assert.Zero(t, got&RenderCenterOnOrientation)

	// Requesting both axes drops the orientation-relative bit even when
	// it was asked for explicitly.
	p = &JobParameters{Alignment: AlignCenter | AlignCenterOnOrientation}
	got = renderFlags(p)
	assert.NotZero(t, got&RenderCenterHorizontal)
	assert.NotZero(t, got&RenderCenterVertical)
	assert.Zero(t, got&RenderCenterOnOrientation)

	p = &JobParameters{Alignment: AlignCenterOnOrientation}
	got = renderFlags(p)
	assert.Equal(t, RenderCenterOnOrientation, got)
}

func TestJobParamsRoundTrip(t *testing.T) {
	codec := NewCodec()

	in := &JobParameters{
		MediaSize:        26,
		MediaType:        1,
		ColorSpace:       ColorSpaceColor,
		Duplex:           DuplexLongEdge,
		Copies:           3,
		Borderless:       true,
		FitToPage:        true,
		DocumentScaling:  true,
		RenderResolution: 300,
		PrintResolution:  300,
		PrintableWidth:   2480,
		PrintableHeight:  3508,
		PageWidth:        8.27,
		PageHeight:       11.69,
		SourceWidth:      8.5,
		SourceHeight:     11,
		JobName:          "report.pdf",
		OriginatingUser:  "alice",
		PageRange:        "1-3",
		DocumentCategory: "Doc",
		Certificate:      []byte{0x30, 0x82, 0x01},
	}

	data, err := codec.JobParamsToNative(in)
	require.NoError(t, err)

	out := &JobParameters{}
	require.NoError(t, codec.JobParamsFromNative(data, out))

	assert.Equal(t, in.MediaSize, out.MediaSize)
	assert.Equal(t, in.ColorSpace, out.ColorSpace)
	assert.Equal(t, in.Duplex, out.Duplex)
	assert.Equal(t, in.Copies, out.Copies)
	assert.True(t, out.Borderless)
	assert.True(t, out.FitToPage)
	assert.False(t, out.FillPage)
	assert.Equal(t, in.PrintableWidth, out.PrintableWidth)
	assert.Equal(t, in.PageHeight, out.PageHeight)
	assert.Equal(t, in.SourceWidth, out.SourceWidth)

	// The engine does not resolve strings or the certificate; the
	// receiving side keeps its own.
	assert.Empty(t, out.JobName)
	assert.Nil(t, out.Certificate)
}

func TestJobParamsFromNativeTruncated(t *testing.T) {
	codec := NewCodec()

	data, err := codec.JobParamsToNative(&JobParameters{Certificate: []byte{1, 2, 3, 4}})
	require.NoError(t, err)

	p := JobParameters{Copies: 7}
	assert.Error(t, codec.JobParamsFromNative(data[:10], &p))
	assert.Error(t, codec.JobParamsFromNative(data[:len(data)-2], &p))
}

func TestCapabilitiesRoundTrip(t *testing.T) {
	codec := NewCodec()

	in := &PrinterCapabilities{
		Path:                "ipps://printer.local:631/ipp/print",
		Name:                "Office Printer",
		UUID:                "6a0e46d6-1dbe-4ea5-b41a-a9e121deee0c",
		Location:            "floor 2",
		Duplex:              true,
		Color:               true,
		Supported:           true,
		IPPVersionMajor:     2,
		IPPVersionMinor:     1,
		MediaDefault:        "iso_a4_210x297mm",
		SupportedMediaSizes: []int{2, 26},
		SupportedMediaTypes: []int{0, 2},
		Certificate:         []byte{0xde, 0xad, 0xbe, 0xef},
	}

	data, err := codec.CapabilitiesToNative(in)
	require.NoError(t, err)

	out, err := codec.CapabilitiesFromNative(data)
	require.NoError(t, err)

	assert.Equal(t, in.Path, out.Path)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.UUID, out.UUID)
	assert.Equal(t, in.IPPVersionMajor, out.IPPVersionMajor)
	assert.Equal(t, in.SupportedMediaSizes, out.SupportedMediaSizes)
	assert.Equal(t, in.SupportedMediaTypes, out.SupportedMediaTypes)
	assert.Equal(t, in.Certificate, out.Certificate)
	assert.Equal(t, data, out.Native)
}

func TestNilArguments(t *testing.T) {
	codec := NewCodec()

	_, err := codec.JobParamsToNative(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = codec.CapabilitiesToNative(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.ErrorIs(t, codec.JobParamsFromNative(nil, nil), ErrInvalidArgument)
	assert.ErrorIs(t, codec.ApplyCertificate(nil, &PrinterCapabilities{}), ErrInvalidArgument)
	assert.ErrorIs(t, codec.ApplyCertificate(&JobParameters{}, nil), ErrInvalidArgument)
}

func TestApplyCertificate(t *testing.T) {
	codec := NewCodec()
	caps := &PrinterCapabilities{Certificate: []byte{1, 2, 3}}

	p := &JobParameters{Certificate: []byte{9}}
	require.NoError(t, codec.ApplyCertificate(p, caps))
	assert.Equal(t, []byte{1, 2, 3}, p.Certificate)

	// The copy is independent of the capability buffer.
	p.Certificate[0] = 42
	assert.Equal(t, byte(1), caps.Certificate[0])

	// No certificate clears a stale one.
	require.NoError(t, codec.ApplyCertificate(p, &PrinterCapabilities{}))
	assert.Nil(t, p.Certificate)
}
