package filter

import "net/http"

// Outcome is the result of one stage. A zero Status means continue.
type Outcome struct {
	Status int
	Reason string
	Err    error
}

// Continue lets the exchange proceed to the next stage.
func Continue() Outcome {
	return Outcome{}
}

// Reject ends the chain with status.
func Reject(status int, reason string) Outcome {
	return Outcome{Status: status, Reason: reason}
}

// Abort ends the chain because of err. The status is derived from the error.
func Abort(reason string, err error) Outcome {
	return Outcome{Status: statusForError(err), Reason: reason, Err: err}
}

// Rejected reports whether the outcome ends the chain.
func (o Outcome) Rejected() bool {
	return o.Status != 0
}

func (o Outcome) decision() string {
	switch {
	case !o.Rejected():
		return decisionContinue
	case o.Status >= http.StatusInternalServerError:
		return decisionError
	default:
		return decisionReject
	}
}
