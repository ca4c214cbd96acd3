package pointer

import (
	"fmt"
	"math/rand"
)

// Mode selects training or evaluation behavior of a forward pass.
type Mode int

// Forward pass modes.
const (
	// Train applies dropout, forces gold starts in the SPN and uses beam size 1.
	Train Mode = iota
	// Eval disables dropout, uses the session beam size and the end-window heuristic.
	Eval
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Eval {
		return "eval"
	}
	return "train"
}

// MaxAnswerLengthHeuristic bounds the answer length during evaluation: an
// end pointer may lie at most this many tokens after its start.
const MaxAnswerLengthHeuristic = 10

// Session is the per-call inference context of a forward pass.
//
// Passing a Session to EncodeWith makes a pass independent of every other
// pass: concurrent callers each bring their own mode, beam size and dropout
// source.
type Session struct {
	Mode     Mode
	BeamSize int
	// Rand drives dropout in Train mode. Nil disables dropout.
	Rand *rand.Rand
}

// TrainSession returns a training session with its own seeded dropout source.
func TrainSession(seed int64) Session {
	return Session{
		Mode:     Train,
		BeamSize: 1,
		Rand:     newRand(seed),
	}
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed)) //nolint:gosec // dropout masks are not security-critical
}

// EvalSession returns an evaluation session with the given beam size.
func EvalSession(beamSize int) Session {
	return Session{Mode: Eval, BeamSize: beamSize}
}

// beamSize returns the effective beam size of the SPN.
func (s Session) beamSize() int {
	if s.Mode == Train {
		return 1
	}
	return s.BeamSize
}

func (s Session) validate() error {
	if s.Mode != Train && s.Mode != Eval {
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidSession, int(s.Mode))
	}
	if s.Mode == Eval && s.BeamSize < 1 {
		return fmt.Errorf("%w: beam size must be at least 1, got %d", ErrInvalidSession, s.BeamSize)
	}
	return nil
}
