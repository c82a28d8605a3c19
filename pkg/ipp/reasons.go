package ipp

import (
	"strings"

	"github.com/openbips/bips/pkg/wire"
)

// printerReasonBits maps IPP printer-state-reasons keywords (with the
// severity suffix stripped) to blocked-reason bits.
var printerReasonBits = map[string]uint64{
	"media-jam":                        wire.BlockedJammed,
	"media-needed":                     wire.BlockedOutOfPaper,
	"media-empty":                      wire.BlockedOutOfPaper,
	"media-low":                        wire.BlockedOutOfPaper,
	"toner-empty":                      wire.BlockedOutOfToner,
	"toner-low":                        wire.BlockedLowOnToner,
	"marker-supply-empty":              wire.BlockedOutOfInk,
	"marker-supply-low":                wire.BlockedLowOnInk,
	"door-open":                        wire.BlockedDoorOpen,
	"cover-open":                       wire.BlockedDoorOpen,
	"interlock-open":                   wire.BlockedInterlockError,
	"paused":                           wire.BlockedPaused,
	"moving-to-paused":                 wire.BlockedPaused,
	"stopping":                         wire.BlockedStopped,
	"stopped-partly":                   wire.BlockedStopped,
	"shutdown":                         wire.BlockedShutdown,
	"connecting-to-device":             wire.BlockedConnectingToDevice,
	"timed-out":                        wire.BlockedTimedOut,
	"spool-area-full":                  wire.BlockedSpoolAreaFull,
	"output-tray-missing":              wire.BlockedOutputTrayMissing,
	"output-area-full":                 wire.BlockedOutputTrayMissing,
	"hold-new-jobs":                    wire.BlockedHoldNewJobs,
	"opc-life-over":                    wire.BlockedOpcLifeOver,
	"opc-near-eol":                     wire.BlockedOpcLifeOver,
	"developer-empty":                  wire.BlockedDeveloperError,
	"developer-low":                    wire.BlockedDeveloperError,
	"interpreter-resource-unavailable": wire.BlockedInterpreterError,
	"input-cannot-feed-size-selected":  wire.BlockedInputCannotFeedSizeSelected,
	"input-tray-missing":               wire.BlockedInputTrayError,
	"fuser-over-temp":                  wire.BlockedMarkerError,
	"fuser-under-temp":                 wire.BlockedMarkerError,
	"other":                            wire.BlockedServiceRequest,
}

// jobReasonBits maps IPP job-state-reasons keywords to fail-reason bits.
var jobReasonBits = map[string]uint64{
	"aborted-by-system":            wire.FailAbortedBySystem,
	"unsupported-compression":      wire.FailUnsupportedCompression,
	"compression-error":            wire.FailCompressionError,
	"unsupported-document-format":  wire.FailUnsupportedDocumentFormat,
	"document-format-error":        wire.FailDocumentFormatError,
	"service-off-line":             wire.FailServiceOffline,
	"document-password-error":      wire.FailDocumentPasswordError,
	"document-permission-error":    wire.FailDocumentPermissionError,
	"document-security-error":      wire.FailDocumentSecurityError,
	"document-unprintable-error":   wire.FailDocumentUnprintableError,
	"document-access-error":        wire.FailDocumentAccessError,
	"submission-interrupted":       wire.FailSubmissionInterrupted,
	"account-authorization-failed": wire.FailAuthorizationFailed,
	"account-closed":               wire.FailAccountClosed,
	"account-info-needed":          wire.FailAccountInfoNeeded,
	"account-limit-reached":        wire.FailAccountLimitReached,
}

// BlockedReasonMask folds printer-state-reasons into a blocked-reason
// bitmask. Severity suffixes are stripped before lookup, so
// "media-jam-warning" and "media-jam-error" land on the same bit.
func BlockedReasonMask(reasons []string) uint64 {
	var mask uint64
	for _, r := range reasons {
		if bit, ok := printerReasonBits[trimSeverity(r)]; ok {
			mask |= bit
		}
	}
	return mask
}

// FailReasonMask folds job-state-reasons into a fail-reason bitmask.
func FailReasonMask(reasons []string) uint64 {
	var mask uint64
	for _, r := range reasons {
		if bit, ok := jobReasonBits[trimSeverity(r)]; ok {
			mask |= bit
		}
	}
	return mask
}

func trimSeverity(reason string) string {
	for _, suffix := range []string{"-error", "-warning", "-report"} {
		if trimmed, ok := strings.CutSuffix(reason, suffix); ok {
			if _, direct := printerReasonBits[reason]; direct {
				return reason
			}
			if _, direct := jobReasonBits[reason]; direct {
				return reason
			}
			return trimmed
		}
	}
	return reason
}
