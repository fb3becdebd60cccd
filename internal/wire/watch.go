package wire

import zk "github.com/Shopify/zk"

// WatchEvent is the decoded body of an unsolicited notification: the
// reply whose header carries xid == XidWatchEvent.
type WatchEvent struct {
	Type  zk.EventType
	State zk.State
	Path  string
}

// DecodeWatchEvent implements the Watch-Event Decoder (C4)'s pure
// decode half. Fan-out to the session manager and watch registry is the
// caller's job (client.Conn.dispatchWatchEvent).
func DecodeWatchEvent(buf []byte) (WatchEvent, error) {
	var ev WatchEvent
	if _, err := Decode(buf, &ev); err != nil {
		return WatchEvent{}, &DecodeError{Stage: "watch-event", Err: err}
	}
	return ev, nil
}
