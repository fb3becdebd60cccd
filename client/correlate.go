package client

import (
	"github.com/ValerySidorin/zkdispatch/internal/wire"
)

// correlationOutcome tells the read loop what to do after matching a
// decoded header against the pending queue.
type correlationOutcome int

const (
	// outcomeWatch means the reply is a notification (xid == -1); it
	// never dequeues an entry.
	outcomeWatch correlationOutcome = iota
	// outcomeMatched means an entry was dequeued and its xid verified.
	outcomeMatched
	// outcomeMismatch means the head's xid did not match the reply's
	// xid, or a ping reply arrived while the head of the queue was not
	// itself a ping record. Either is a fatal stream-desync condition.
	outcomeMismatch
	// outcomeEmptyQueue means a non-watch xid (a ping reply included)
	// arrived with nothing pending: also fatal.
	outcomeEmptyQueue
)

// correlate implements the correlator contract. It does not decode the
// body — callers decode after learning the matched entry's opcode, so a
// body-decode failure can be routed to the right slot.
//
// A xid mismatch fails the dispatcher rather than falling back to
// notification re-decode. See correlateTolerant for the alternative,
// rejected behavior, kept for documentation and tests.
func correlate(q *pendingQueue, xid int32) (pendingEntry, correlationOutcome) {
	switch xid {
	case wire.XidWatchEvent:
		return pendingEntry{}, outcomeWatch
	case wire.XidPing:
		e, ok := q.dequeue()
		if !ok {
			return pendingEntry{}, outcomeEmptyQueue
		}
		if e.record.opcode != wire.OpPing {
			return e, outcomeMismatch
		}
		return e, outcomeMatched
	default:
		e, ok := q.dequeue()
		if !ok {
			return pendingEntry{}, outcomeEmptyQueue
		}
		if e.record.kind != recordConnect && e.record.xid != xid {
			return e, outcomeMismatch
		}
		return e, outcomeMatched
	}
}

// correlateTolerant is the alternative, non-corrected behavior: on a
// xid mismatch it does not fail — it lets the caller retry the same
// buffer as a watch-event decode. Retained only so tests can document
// why it was rejected: a mismatch is evidence the stream itself is
// desynchronized, and continuing to read past it risks silently
// misinterpreting an unrelated reply as a notification.
func correlateTolerant(q *pendingQueue, xid int32) (pendingEntry, correlationOutcome) {
	e, outcome := correlate(q, xid)
	if outcome == outcomeMismatch {
		return e, outcomeWatch
	}
	return e, outcome
}
