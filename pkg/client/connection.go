package client

import (
	"runtime"
	"time"
)

// Connection is a leased, opaque byte-stream bound to a Key. Dropped
// without an explicit Release or Close it returns only its admission slot
// to the pool (see spec.md §4.5's release discipline); explicit Release
// hands the stream itself back to the idle set, explicit Close tears it
// down.
type Connection struct {
	Key     Key
	Proto   Protocol
	created time.Time
	stream  streamConn
	pool    *Connector
	freed   bool
}

// Stream exposes the underlying byte-stream for reading/writing the
// request and response.
func (c *Connection) Stream() streamConn { return c.stream }

// Release returns the connection to its pool's idle set, subject to the
// pool's lifetime eviction on the next maintenance pass.
func (c *Connection) Release() {
	if c.freed {
		return
	}
	c.freed = true
	runtime.SetFinalizer(c, nil)
	if c.pool != nil {
		c.pool.releaseConn(c)
	}
}

// Close tears the connection down; it never returns to the idle set.
func (c *Connection) Close() error {
	if c.freed {
		return nil
	}
	c.freed = true
	runtime.SetFinalizer(c, nil)
	if c.pool != nil {
		c.pool.closeConn(c)
		return nil
	}
	return c.stream.Close()
}

// drop is installed as c's runtime finalizer (see wrapPooled/dialAndFinish
// in connector.go) so a Connection discarded by its owner without an
// explicit Release/Close still reclaims its admission slot at GC time,
// per spec.md §4.5 ("dropped without either releases only the slot").
// Release/Close clear the finalizer first, so it only ever fires for a
// connection that was truly dropped.
func (c *Connection) drop() {
	if c.freed {
		return
	}
	c.freed = true
	if c.pool != nil {
		c.pool.freeSlot(c.Key)
		_ = c.stream.Close()
	}
}
