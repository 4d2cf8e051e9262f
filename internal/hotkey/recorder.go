package hotkey

import "strings"

// State is the capture state.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// Recorder captures one hotkey from a stream of key-down events.
//
// While Recording it holds exactly one listener on its Bus and consumes
// every event; while Idle it holds none. Escape cancels, modifier keys
// accumulate, and the first terminal key (letter, digit, space) completes the
// capture. Other keys are swallowed without changing state.
//
// A Recorder is driven from a single UI goroutine and is not safe for
// concurrent use.
type Recorder struct {
	bus    *Bus
	detach func()
	mods   Modifier

	result   string
	captured bool
}

// NewRecorder returns an idle recorder that listens on bus when started.
func NewRecorder(bus *Bus) *Recorder {
	return &Recorder{bus: bus}
}

// State returns the current capture state.
func (r *Recorder) State() State {
	if r.detach != nil {
		return Recording
	}
	return Idle
}

// Start enters Recording. Calling Start while already recording is a no-op;
// the accumulated modifiers are kept and no second listener is attached.
func (r *Recorder) Start() {
	if r.detach != nil {
		return
	}
	r.mods = 0
	r.captured = false
	r.result = ""
	r.detach = r.bus.Attach(r.handle)
}

// Cancel leaves Recording without producing a hotkey.
func (r *Recorder) Cancel() {
	r.stop()
}

// Pending returns the modifiers pressed so far in canonical order.
func (r *Recorder) Pending() []string {
	return r.mods.Tokens()
}

// PendingString renders the partial capture for display, e.g. "Ctrl+Shift+…".
func (r *Recorder) PendingString() string {
	tokens := r.Pending()
	if len(tokens) == 0 {
		return "…"
	}
	return strings.Join(tokens, "+") + "+…"
}

// Captured returns the hotkey produced by the last completed capture and
// clears it. ok is false when nothing was captured since the last call,
// including after a cancellation.
func (r *Recorder) Captured() (hotkey string, ok bool) {
	if !r.captured {
		return "", false
	}
	hotkey = r.result
	r.captured = false
	r.result = ""
	return hotkey, true
}

func (r *Recorder) handle(ev Event) bool {
	c := Classify(ev.Key)
	switch c.Kind {
	case KindEscape:
		r.stop()
	case KindModifier:
		r.mods |= c.Modifier
	case KindTerminal:
		r.result = Combo{Mods: r.mods, Key: c.Token}.String()
		r.captured = true
		r.stop()
	}
	return true
}

func (r *Recorder) stop() {
	if r.detach != nil {
		r.detach()
		r.detach = nil
	}
	r.mods = 0
}
