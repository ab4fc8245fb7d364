package check

// Result carries the non-diagnostic outputs of one verification pass.
// Diagnostics travel through the diag.Reporter handed to Verify.
type Result struct {
	// Events is the debug event stream, populated only when
	// Options.RecordEvents was set.
	Events []Event
}
