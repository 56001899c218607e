// Package dkg implements the per-(group_index, epoch) DKG lifecycle state
// machine from spec.md §4.7, in the idiom of drand's core.DKGStatus: a small
// integer enum with a strict linear transition table and a sentinel error on
// any out-of-order attempt.
package dkg

import "github.com/randcast-network/randcast-node/errs"

// Status is the DKG lifecycle for one (group_index, epoch) pair.
type Status uint32

const (
	None Status = iota
	InPhase
	CommitSuccess
	WaitForPostProcess
	PostProcessSuccess
)

func (s Status) String() string {
	switch s {
	case None:
		return "none"
	case InPhase:
		return "in_phase"
	case CommitSuccess:
		return "commit_success"
	case WaitForPostProcess:
		return "wait_for_post_process"
	case PostProcessSuccess:
		return "post_process_success"
	default:
		return "unknown"
	}
}

// order is the strict linear progression; any transition not immediately
// following the current status in this table is rejected.
var order = []Status{None, InPhase, CommitSuccess, WaitForPostProcess, PostProcessSuccess}

func isValidTransition(from, to Status) bool {
	for i, s := range order {
		if s == from {
			return i+1 < len(order) && order[i+1] == to
		}
	}
	return false
}

// Transition validates and returns the next status. Setting the same status
// is a no-op that returns (from, false, nil) rather than an error, matching
// spec.md §4.7 ("setting the same status is a no-op returning false").
func Transition(from, to Status) (Status, bool, error) {
	if from == to {
		return from, false, nil
	}
	if !isValidTransition(from, to) {
		return from, false, &errs.ErrInvalidDKGTransition{From: from.String(), To: to.String()}
	}
	return to, true, nil
}
