package protocols

import (
	"errors"
	"fmt"

	"github.com/benmeehan/tracker-gateway/internal/models"
)

// Rejection reasons. The wire protocol stays silent about them; they exist so
// callers and tests can tell why a frame produced nothing.
var (
	ErrGrammarMismatch   = errors.New("sentence does not match grammar")
	ErrUnknownDevice     = errors.New("unknown device")
	ErrNotIdentified     = errors.New("session not identified")
	ErrMalformedField    = errors.New("malformed field")
	ErrUnrecognizedFrame = errors.New("unrecognized frame")
	ErrEmptyBatch        = errors.New("no position in batch decoded")
)

var rejections = []error{
	ErrGrammarMismatch,
	ErrUnknownDevice,
	ErrNotIdentified,
	ErrMalformedField,
	ErrUnrecognizedFrame,
	ErrEmptyBatch,
}

// Outcome classifies a Result.
type Outcome int

const (
	// OutcomeDecoded carries one or more positions.
	OutcomeDecoded Outcome = iota
	// OutcomeAcknowledged is a handled control frame with no position.
	OutcomeAcknowledged
	// OutcomeRejected carries the reason nothing was produced.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDecoded:
		return "decoded"
	case OutcomeAcknowledged:
		return "acknowledged"
	case OutcomeRejected:
		return "rejected"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is the outcome of decoding one frame.
type Result struct {
	Outcome   Outcome
	Positions []*models.Position
	Reason    error
}

// Decoded returns a result carrying positions.
func Decoded(positions ...*models.Position) Result {
	return Result{Outcome: OutcomeDecoded, Positions: positions}
}

// Acknowledged returns a result for a control frame.
func Acknowledged() Result {
	return Result{Outcome: OutcomeAcknowledged}
}

// Rejected returns a result that produced nothing.
func Rejected(reason error) Result {
	return Result{Outcome: OutcomeRejected, Reason: reason}
}

// OK reports whether the frame was accepted.
func (r Result) OK() bool {
	return r.Outcome != OutcomeRejected
}

// fieldError attributes a decode failure to a field unless it already is a rejection reason.
func fieldError(name string, err error) error {
	for _, reason := range rejections {
		if errors.Is(err, reason) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrMalformedField, name, err)
}
