package wire

// JobState is the engine-reported state of an in-flight print job.
type JobState int

const (
	JobStateQueued JobState = iota + 1
	JobStateRunning
	JobStateBlocked
	JobStateDone
	JobStateOther
)

func (s JobState) String() string {
	switch s {
	case JobStateQueued:
		return "queued"
	case JobStateRunning:
		return "running"
	case JobStateBlocked:
		return "blocked"
	case JobStateDone:
		return "done"
	default:
		return "other"
	}
}

// JobResult qualifies a JobStateDone callback.
type JobResult int

const (
	JobDoneOk JobResult = iota + 1
	JobDoneError
	JobDoneCancelled
	JobDoneCorrupt
	JobDoneBadCertificate
	JobDoneOther
)

func (r JobResult) String() string {
	switch r {
	case JobDoneOk:
		return "ok"
	case JobDoneError:
		return "error"
	case JobDoneCancelled:
		return "cancelled"
	case JobDoneCorrupt:
		return "corrupt"
	case JobDoneBadCertificate:
		return "bad-certificate"
	default:
		return "other"
	}
}

// Failed reports whether the result counts as a delivery failure for
// reason decoding purposes.
func (r JobResult) Failed() bool {
	return r == JobDoneError || r == JobDoneCorrupt
}

// Duplex modes understood by the engine.
const (
	DuplexNone int = iota
	DuplexLongEdge
	DuplexShortEdge
)

// Color spaces understood by the engine.
const (
	ColorSpaceMono int = iota
	ColorSpaceColor
)

// Render flags carried in the job-parameter record. Only one of the
// rotation flags may be set; the codec enforces portrait > landscape >
// auto-rotate priority.
const (
	RenderAutoRotate          uint32 = 0x0001
	RenderCenterHorizontal    uint32 = 0x0002
	RenderCenterVertical      uint32 = 0x0004
	RenderRotateBackPage      uint32 = 0x0008
	RenderBackPagePrerotated  uint32 = 0x0010
	RenderFitToPage           uint32 = 0x0020
	RenderPortraitMode        uint32 = 0x0040
	RenderLandscapeMode       uint32 = 0x0080
	RenderCenterOnOrientation uint32 = 0x0100
	RenderDocumentScaling     uint32 = 0x0200
)

// Flag groups applied as a unit when fill-page or fit-to-page is requested.
const (
	autoScaleFlags = RenderAutoRotate | RenderCenterHorizontal | RenderCenterVertical | RenderFitToPage
	autoFitFlags   = RenderAutoRotate | RenderCenterOnOrientation | RenderFitToPage
)

// Alignment bitmask values accepted in JobParams.Alignment.
const (
	AlignCenterHorizontal    uint32 = 0x01
	AlignCenterVertical      uint32 = 0x02
	AlignCenter              uint32 = AlignCenterHorizontal | AlignCenterVertical
	AlignCenterOnOrientation uint32 = 0x04
)
