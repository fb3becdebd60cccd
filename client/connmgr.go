package client

import "sync/atomic"

// ConnectionManager is the narrow interface the dispatcher uses to
// invalidate the connection on failure: is_valid flips to false the
// instant the dispatcher fails.
type ConnectionManager interface {
	Invalidate()
	IsValid() bool
}

type defaultConnManager struct {
	valid atomic.Bool
}

func newConnManager() *defaultConnManager {
	c := &defaultConnManager{}
	c.valid.Store(true)
	return c
}

func (c *defaultConnManager) Invalidate() {
	c.valid.Store(false)
}

func (c *defaultConnManager) IsValid() bool {
	return c.valid.Load()
}
