// Package pipeline defines the progress event vocabulary shared by the
// driver and the terminal UI.
package pipeline

import "time"

// Stage describes a high-level verification phase.
type Stage string

const (
	// StageLoad covers reading and decoding a unit file.
	StageLoad Stage = "load"
	// StageVerify covers scope building and the checking pass.
	StageVerify Stage = "verify"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the unit is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the unit is currently being processed.
	StatusWorking Status = "working"
	// StatusDone indicates the unit passed verification.
	StatusDone Status = "done"
	// StatusError indicates the unit failed to load or has violations.
	StatusError Status = "error"
)

// Event reports progress for a unit file (or for the whole run when File is
// empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel, dropping them when the channel
// is full rather than blocking the workers.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch == nil {
		return
	}
	select {
	case s.Ch <- ev:
	default:
	}
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) OnEvent(Event) {}
