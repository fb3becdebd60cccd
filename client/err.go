package client

import (
	"errors"
	"fmt"

	zk "github.com/Shopify/zk"
)

var (
	// ErrDispatcherFailed is returned by Submit once the dispatcher has
	// entered its terminal failed state.
	ErrDispatcherFailed = errors.New("dispatcher failed")
	// ErrConnClosed is returned by any operation on a closed Conn.
	ErrConnClosed = errors.New("connection closed")
	// ErrTimeout is returned by Submit (wrapping context.DeadlineExceeded)
	// when a caller-supplied context deadline elapses before a reply
	// arrives. There is no dispatcher-
	// level request timeout; this is purely a caller concern surfaced
	// through ctx.
	ErrTimeout = errors.New("timeout")
	// ErrXidMismatch means the head of the pending queue does not match
	// the xid on an incoming reply (including a ping reply arriving
	// over a non-ping head). Treated as unrecoverable stream desync
	// rather than tolerantly reinterpreted as a watch notification.
	ErrXidMismatch = errors.New("dispatch: xid mismatch, stream desynchronized")
	// ErrUnexpectedNotification means a reply arrived with an xid that
	// matches no pending request and is not a watch notification (-1):
	// a protocol violation.
	ErrUnexpectedNotification = errors.New("dispatch: reply xid does not match any pending request")
)

// errCodeTable maps a non-zero ResponseHeader.Err to one of the
// exported zk.Err* sentinels, the way
// github.com/Shopify/zk's own (unexported) toError does. zk keeps both
// its numeric codes and its code->error map unexported, so this table
// is keyed on ZooKeeper's own wire error codes (stable protocol
// constants, not a zk-package internal) and maps to zk's exported
// sentinel error values.
var errCodeTable = map[zk.ErrCode]error{
	-100: zk.ErrAPIError,
	-101: zk.ErrNoNode,
	-102: zk.ErrNoAuth,
	-103: zk.ErrBadVersion,
	-108: zk.ErrNoChildrenForEphemerals,
	-110: zk.ErrNodeExists,
	-111: zk.ErrNotEmpty,
	-112: zk.ErrSessionExpired,
	-113: zk.ErrInvalidCallback,
	-114: zk.ErrInvalidACL,
	-115: zk.ErrAuthFailed,
	-116: zk.ErrClosing,
	-117: zk.ErrNothing,
	-118: zk.ErrSessionMoved,
	-121: zk.ErrNoWatcher,
	-123: zk.ErrReconfigDisabled,
	-8:   zk.ErrBadArguments,
}

// zkError turns a non-zero ResponseHeader.Err into an error a caller can
// compare with errors.Is against the zk.Err* sentinels.
func zkError(code zk.ErrCode) error {
	if err, ok := errCodeTable[code]; ok {
		return err
	}
	return fmt.Errorf("zk: unknown error code %d", int32(code))
}
