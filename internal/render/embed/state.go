package embed

import "time"

// GraceDelay keeps the spinner up briefly after load to mask frame flicker.
const GraceDelay = 300 * time.Millisecond

// State is the visual state of one frame.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Event drives a State transition.
type Event int

const (
	// Visible fires when the container intersects the viewport margin.
	Visible Event = iota
	// FrameLoad fires once the frame reports load and the grace delay elapsed.
	FrameLoad
	// FrameError fires on load failure.
	FrameError
	// Retry fires when the user asks to reload a failed frame.
	Retry
)

// Initial returns the starting state: Idle for lazy frames, Loading otherwise.
func Initial(lazy bool) State {
	if lazy {
		return Idle
	}
	return Loading
}

// Next applies e to s. Events that do not apply leave s unchanged and
// report false.
func Next(s State, e Event) (State, bool) {
	switch {
	case s == Idle && e == Visible:
		return Loading, true
	case s == Loading && e == FrameLoad:
		return Loaded, true
	case s == Loading && e == FrameError:
		return Failed, true
	case s == Failed && e == Retry:
		return Loading, true
	}
	return s, false
}
