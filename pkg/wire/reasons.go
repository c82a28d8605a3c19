package wire

// Blocked-reason bits, one per engine print status, in enumeration order.
// The decoder scans bit positions against printStatusMax.
const (
	BlockedUnableToConnect uint64 = 1 << iota
	BlockedBusy
	BlockedCancelled
	BlockedOutOfPaper
	BlockedOutOfInk
	BlockedOutOfToner
	BlockedJammed
	BlockedDoorOpen
	BlockedServiceRequest
	BlockedPaused
	BlockedStopped
	BlockedLowOnInk
	BlockedLowOnToner
	BlockedInputCannotFeedSizeSelected
	BlockedInterlockError
	BlockedOutputTrayMissing
	BlockedBanderError
	BlockedBinderError
	BlockedPowerError
	BlockedCleanerError
	BlockedInputTrayError
	BlockedInserterError
	BlockedInterpreterError
	BlockedMakeEnvelopeError
	BlockedMarkerError
	BlockedMediaError
	BlockedPerforaterError
	BlockedPuncherError
	BlockedSeparationCutterError
	BlockedSheetRotatorError
	BlockedSlitterError
	BlockedStackerError
	BlockedStaplerError
	BlockedStitcherError
	BlockedSubunitError
	BlockedTrimmerError
	BlockedWrapperError
	BlockedClientError
	BlockedServerError
	BlockedAlertRemovalOfBinaryChangeEntry
	BlockedConfigurationChanged
	BlockedConnectingToDevice
	BlockedDeveloperError
	BlockedHoldNewJobs
	BlockedOpcLifeOver
	BlockedSpoolAreaFull
	BlockedTimedOut
	BlockedShutdown
	BlockedPrinterManualReset
	BlockedPrinterNmsReset
)

const printStatusMax = 50

// Fail-reason bits, one per engine job-state reason, in enumeration order.
const (
	FailUnableToConnect uint64 = 1 << iota
	FailAbortedBySystem
	FailUnsupportedCompression
	FailCompressionError
	FailUnsupportedDocumentFormat
	FailDocumentFormatError
	FailServiceOffline
	FailDocumentPasswordError
	FailDocumentPermissionError
	FailDocumentSecurityError
	FailDocumentUnprintableError
	FailDocumentAccessError
	FailSubmissionInterrupted
	FailAuthorizationFailed
	FailAccountClosed
	FailAccountInfoNeeded
	FailAccountLimitReached
)

const jobStateReasonMax = 17

// Symbolic reason names surfaced to the job layer.
const (
	ReasonOffline                          = "offline"
	ReasonBusy                             = "busy"
	ReasonCancelled                        = "cancelled"
	ReasonOutOfPaper                       = "out-of-paper"
	ReasonOutOfInk                         = "out-of-ink"
	ReasonOutOfToner                       = "out-of-toner"
	ReasonJammed                           = "jammed"
	ReasonDoorOpen                         = "door-open"
	ReasonServiceRequest                   = "service-request"
	ReasonPaused                           = "paused"
	ReasonStopped                          = "stopped"
	ReasonLowOnInk                         = "low-on-ink"
	ReasonLowOnToner                       = "low-on-toner"
	ReasonInputCannotFeedSizeSelected      = "input-cannot-feed-size-selected"
	ReasonInterlockError                   = "interlock-error"
	ReasonOutputTrayMissing                = "output-tray-missing"
	ReasonBanderError                      = "bander-error"
	ReasonBinderError                      = "binder-error"
	ReasonPowerError                       = "power-error"
	ReasonCleanerError                     = "cleaner-error"
	ReasonInputTrayError                   = "input-tray-error"
	ReasonInserterError                    = "inserter-error"
	ReasonInterpreterError                 = "interpreter-error"
	ReasonMakeEnvelopeError                = "make-envelope-error"
	ReasonMarkerError                      = "marker-error"
	ReasonMediaError                       = "media-error"
	ReasonPerforaterError                  = "perforater-error"
	ReasonPuncherError                     = "puncher-error"
	ReasonSeparationCutterError            = "separation-cutter-error"
	ReasonSheetRotatorError                = "sheet-rotator-error"
	ReasonSlitterError                     = "slitter-error"
	ReasonStackerError                     = "stacker-error"
	ReasonStaplerError                     = "stapler-error"
	ReasonStitcherError                    = "stitcher-error"
	ReasonSubunitError                     = "subunit-error"
	ReasonTrimmerError                     = "trimmer-error"
	ReasonWrapperError                     = "wrapper-error"
	ReasonClientError                      = "client-error"
	ReasonServerError                      = "server-error"
	ReasonAlertRemovalOfBinaryChangeEntry  = "alert-removal-of-binary-change-entry"
	ReasonConfigurationChanged             = "configuration-changed"
	ReasonConnectingToDevice               = "connecting-to-device"
	ReasonDeveloperError                   = "developer-error"
	ReasonHoldNewJobs                      = "hold-new-jobs"
	ReasonOpcLifeOver                      = "opc-life-over"
	ReasonSpoolAreaFull                    = "spool-area-full"
	ReasonTimedOut                         = "timed-out"
	ReasonShutdown                         = "shutdown"
	ReasonPrinterManualReset               = "printer-manual-reset"
	ReasonPrinterNmsReset                  = "printer-nms-reset"
	ReasonAbortedBySystem                  = "aborted-by-system"
	ReasonUnsupportedCompression           = "unsupported-compression"
	ReasonCompressionError                 = "compression-error"
	ReasonUnsupportedDocumentFormat        = "unsupported-document-format"
	ReasonDocumentFormatError              = "document-format-error"
	ReasonServiceOffline                   = "service-offline"
	ReasonDocumentPasswordError            = "document-password-error"
	ReasonDocumentPermissionError          = "document-permission-error"
	ReasonDocumentSecurityError            = "document-security-error"
	ReasonDocumentUnprintableError         = "document-unprintable-error"
	ReasonDocumentAccessError              = "document-access-error"
	ReasonSubmissionInterrupted            = "submission-interrupted"
	ReasonAuthorizationFailed              = "authorization-failed"
	ReasonAccountClosed                    = "account-closed"
	ReasonAccountInfoNeeded                = "account-info-needed"
	ReasonAccountLimitReached              = "account-limit-reached"
)
