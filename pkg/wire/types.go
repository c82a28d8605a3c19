package wire

// JobParameters is the managed-side job ticket. The codec folds the
// orientation, scaling and alignment fields into RenderFlags when
// marshaling toward the engine, and splits them back out when updated
// parameters come back.
type JobParameters struct {
	MediaSize  int
	MediaType  int
	MediaTray  int
	ColorSpace int
	Duplex     int

	Copies     int
	Borderless bool

	RenderFlags      uint32
	RenderResolution int

	PortraitMode    bool
	LandscapeMode   bool
	AutoRotate      bool
	FillPage        bool
	FitToPage       bool
	DocumentScaling bool
	PreserveScaling bool
	Alignment       uint32

	JobMarginTop    float32
	JobMarginLeft   float32
	JobMarginRight  float32
	JobMarginBottom float32

	SourceWidth  float32
	SourceHeight float32

	// Engine-resolved geometry, populated by JobParamsFromNative.
	PrintResolution  int
	PrintableWidth   int
	PrintableHeight  int
	PageWidth        float32
	PageHeight       float32
	PageMarginTop    float32
	PageMarginLeft   float32
	PageMarginRight  float32
	PageMarginBottom float32

	PageRange        string
	DocumentCategory string
	JobName          string
	OriginatingUser  string

	Certificate []byte
}

// PrinterCapabilities is a printer's declared feature set. Path may be
// rewritten to the secure scheme by the capability resolver before a job
// is delivered. Supported == false disables the printer entirely.
type PrinterCapabilities struct {
	Path     string
	Name     string
	UUID     string
	Location string

	Duplex     bool
	Borderless bool
	Color      bool
	Supported  bool

	IPPVersionMajor int
	IPPVersionMinor int

	MediaDefault        string
	SupportedMediaTypes []int
	SupportedMediaSizes []int

	// Native holds the raw capability record as last exchanged with the
	// engine, kept alongside the decoded fields.
	Native []byte

	Certificate []byte
}
