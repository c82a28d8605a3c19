package wire

// JobStatus is one engine callback: the job handle, its state, the done
// result when terminal, decoded blocked/fail reasons and an optional
// certificate snapshot captured during the TLS handshake.
type JobStatus struct {
	JobID          int
	State          JobState
	Result         JobResult
	BlockedReasons []string
	Certificate    []byte
}

// BlockedMessage returns the first decoded reason, or "" when the engine
// supplied none.
func (s *JobStatus) BlockedMessage() string {
	for _, r := range s.BlockedReasons {
		if r != "" {
			return r
		}
	}
	return ""
}

// CountReasons returns the number of set bits below the scan bound, which
// is the slice size the decode functions expect. The bound depends on
// whether the job failed (fail-reason enumeration) or not (print-status
// enumeration).
func CountReasons(mask uint64, failed bool) int {
	bound := printStatusMax
	if failed {
		bound = jobStateReasonMax
	}
	count := 0
	for i := 0; i < bound; i++ {
		if mask&(1<<uint(i)) != 0 {
			count++
		}
	}
	return count
}

// DecodeFailReasons translates a fail-reason bitmask into symbolic names.
// The output is pre-sized to count; unrecognized bits emit nothing.
//
// The branch chain deliberately tests the whole remaining mask, not the
// bit under scan, and must stay in fail-reason enumeration order. A
// still-set higher-priority bit therefore claims the symbol for every
// lower bit scanned before it is cleared; consumers depend on this
// decoding, so do not replace the chain with a bit-indexed table.
func DecodeFailReasons(mask uint64, count int) []string {
	reasons := make([]string, count)
	n := 0

	for i := 0; i < jobStateReasonMax; i++ {
		var sym string

		switch {
		case mask&(1<<uint(i)) == 0:
			// bit not set
		case mask&FailUnableToConnect != 0:
			sym = ReasonOffline
		case mask&FailAbortedBySystem != 0:
			sym = ReasonAbortedBySystem
		case mask&FailUnsupportedCompression != 0:
			sym = ReasonUnsupportedCompression
		case mask&FailCompressionError != 0:
			sym = ReasonCompressionError
		case mask&FailUnsupportedDocumentFormat != 0:
			sym = ReasonUnsupportedDocumentFormat
		case mask&FailDocumentFormatError != 0:
			sym = ReasonDocumentFormatError
		case mask&FailServiceOffline != 0:
			sym = ReasonServiceOffline
		case mask&FailDocumentPasswordError != 0:
			sym = ReasonDocumentPasswordError
		case mask&FailDocumentPermissionError != 0:
			sym = ReasonDocumentPermissionError
		case mask&FailDocumentSecurityError != 0:
			sym = ReasonDocumentSecurityError
		case mask&FailDocumentUnprintableError != 0:
			sym = ReasonDocumentUnprintableError
		case mask&FailDocumentAccessError != 0:
			sym = ReasonDocumentAccessError
		case mask&FailSubmissionInterrupted != 0:
			sym = ReasonSubmissionInterrupted
		case mask&FailAuthorizationFailed != 0:
			sym = ReasonAuthorizationFailed
		case mask&FailAccountClosed != 0:
			sym = ReasonAccountClosed
		case mask&FailAccountInfoNeeded != 0:
			sym = ReasonAccountInfoNeeded
		case mask&FailAccountLimitReached != 0:
			sym = ReasonAccountLimitReached
		}

		mask &^= 1 << uint(i)

		if sym != "" {
			reasons[n] = sym
			n++
		}
	}

	return reasons
}

// DecodeBlockedReasons translates a blocked-reason bitmask into symbolic
// names. Same chain semantics as DecodeFailReasons, in print-status
// enumeration order.
func DecodeBlockedReasons(mask uint64, count int) []string {
	reasons := make([]string, count)
	n := 0

	for i := 0; i < printStatusMax; i++ {
		var sym string

		switch {
		case mask&(1<<uint(i)) == 0:
			// bit not set
		case mask&BlockedUnableToConnect != 0:
			sym = ReasonOffline
		case mask&BlockedBusy != 0:
			sym = ReasonBusy
		case mask&BlockedCancelled != 0:
			sym = ReasonCancelled
		case mask&BlockedOutOfPaper != 0:
			sym = ReasonOutOfPaper
		case mask&BlockedOutOfInk != 0:
			sym = ReasonOutOfInk
		case mask&BlockedOutOfToner != 0:
			sym = ReasonOutOfToner
		case mask&BlockedJammed != 0:
			sym = ReasonJammed
		case mask&BlockedDoorOpen != 0:
			sym = ReasonDoorOpen
		case mask&BlockedServiceRequest != 0:
			sym = ReasonServiceRequest
		case mask&BlockedPaused != 0:
			sym = ReasonPaused
		case mask&BlockedStopped != 0:
			sym = ReasonStopped
		case mask&BlockedLowOnInk != 0:
			sym = ReasonLowOnInk
		case mask&BlockedLowOnToner != 0:
			sym = ReasonLowOnToner
		case mask&BlockedInputCannotFeedSizeSelected != 0:
			sym = ReasonInputCannotFeedSizeSelected
		case mask&BlockedInterlockError != 0:
			sym = ReasonInterlockError
		case mask&BlockedOutputTrayMissing != 0:
			sym = ReasonOutputTrayMissing
		case mask&BlockedBanderError != 0:
			sym = ReasonBanderError
		case mask&BlockedBinderError != 0:
			sym = ReasonBinderError
		case mask&BlockedPowerError != 0:
			sym = ReasonPowerError
		case mask&BlockedCleanerError != 0:
			sym = ReasonCleanerError
		case mask&BlockedInputTrayError != 0:
			sym = ReasonInputTrayError
		case mask&BlockedInserterError != 0:
			sym = ReasonInserterError
		case mask&BlockedInterpreterError != 0:
			sym = ReasonInterpreterError
		case mask&BlockedMakeEnvelopeError != 0:
			sym = ReasonMakeEnvelopeError
		case mask&BlockedMarkerError != 0:
			sym = ReasonMarkerError
		case mask&BlockedMediaError != 0:
			sym = ReasonMediaError
		case mask&BlockedPerforaterError != 0:
			sym = ReasonPerforaterError
		case mask&BlockedPuncherError != 0:
			sym = ReasonPuncherError
		case mask&BlockedSeparationCutterError != 0:
			sym = ReasonSeparationCutterError
		case mask&BlockedSheetRotatorError != 0:
			sym = ReasonSheetRotatorError
		case mask&BlockedSlitterError != 0:
			sym = ReasonSlitterError
		case mask&BlockedStackerError != 0:
			sym = ReasonStackerError
		case mask&BlockedStaplerError != 0:
			sym = ReasonStaplerError
		case mask&BlockedStitcherError != 0:
			sym = ReasonStitcherError
		case mask&BlockedSubunitError != 0:
			sym = ReasonSubunitError
		case mask&BlockedTrimmerError != 0:
			sym = ReasonTrimmerError
		case mask&BlockedWrapperError != 0:
			sym = ReasonWrapperError
		case mask&BlockedClientError != 0:
			sym = ReasonClientError
		case mask&BlockedServerError != 0:
			sym = ReasonServerError
		case mask&BlockedAlertRemovalOfBinaryChangeEntry != 0:
			sym = ReasonAlertRemovalOfBinaryChangeEntry
		case mask&BlockedConfigurationChanged != 0:
			sym = ReasonConfigurationChanged
		case mask&BlockedConnectingToDevice != 0:
			sym = ReasonConnectingToDevice
		case mask&BlockedDeveloperError != 0:
			sym = ReasonDeveloperError
		case mask&BlockedHoldNewJobs != 0:
			sym = ReasonHoldNewJobs
		case mask&BlockedOpcLifeOver != 0:
			sym = ReasonOpcLifeOver
		case mask&BlockedSpoolAreaFull != 0:
			sym = ReasonSpoolAreaFull
		case mask&BlockedTimedOut != 0:
			sym = ReasonTimedOut
		case mask&BlockedShutdown != 0:
			sym = ReasonShutdown
		case mask&BlockedPrinterManualReset != 0:
			sym = ReasonPrinterManualReset
		case mask&BlockedPrinterNmsReset != 0:
			sym = ReasonPrinterNmsReset
		}

		mask &^= 1 << uint(i)

		if sym != "" {
			reasons[n] = sym
			n++
		}
	}

	return reasons
}
