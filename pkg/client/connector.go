package client

import (
	"context"
	"runtime"
	"time"

	"github.com/wrenfield/httpcore/pkg/httperr"
	"github.com/wrenfield/httpcore/pkg/httplog"
)

// Settings tunes one Connector instance. Defaults per spec.md §6: total 100,
// per-host 0 (unlimited), keep-alive 75s, lifetime 15s.
type Settings struct {
	TotalLimit   int
	PerHostLimit int
	KeepAlive    time.Duration
	Lifetime     time.Duration
	DialMode     DialMode
}

// DefaultSettings returns the spec.md §6 connector defaults.
func DefaultSettings() Settings {
	return Settings{
		TotalLimit:   100,
		PerHostLimit: 0,
		KeepAlive:    75 * time.Second,
		Lifetime:     15 * time.Second,
	}
}

type acquireKind int

const (
	resAcquired acquireKind = iota
	resAvailable
	resNotAvailable
)

type acquireResult struct {
	kind   acquireKind
	pooled *pooledConn
}

// connectReq is one Connect message processed by the actor loop.
type connectReq struct {
	key         Key
	proto       Protocol
	connTimeout time.Duration
	resultCh    chan connectOutcome
	waiter      *waiter // set once this req has been parked as a waiter
}

// Connector is the single-threaded actor serving Connect messages against
// a bounded, per-host-limited pool with a waiter queue, following
// original_source/src/client/connector.rs. All mutable pool state
// (idle sets, acquired counters, waiters) is owned exclusively by the
// goroutine running loop — the "task-owned mailbox" spec.md §9 asks for —
// and reached only through the cmds channel, so no locks are needed.
type Connector struct {
	settings Settings
	logger   httplog.Logger

	cmds chan func()
	stop chan struct{}
	done chan struct{}

	acquired        int
	acquiredPerHost map[Key]int
	idle            map[Key][]*pooledConn
	toClose         []*pooledConn
	waiters         map[Key][]*waiter
}

// New starts a Connector's actor goroutine.
func New(settings Settings, logger httplog.Logger) *Connector {
	if logger == nil {
		logger = httplog.NoOp()
	}
	c := &Connector{
		settings:        settings,
		logger:          logger,
		cmds:            make(chan func(), 64),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
		acquiredPerHost: make(map[Key]int),
		idle:            make(map[Key][]*pooledConn),
		waiters:         make(map[Key][]*waiter),
	}
	go c.loop()
	return c
}

// Shutdown stops the actor loop. Outstanding connections are unaffected;
// further Connect calls return httperr.Disconnected.
func (c *Connector) Shutdown() {
	close(c.stop)
	<-c.done
}

func (c *Connector) loop() {
	defer close(c.done)
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case f := <-c.cmds:
			f()
		case <-ticker.C:
			c.maintenance()
		}
	}
}

// Connect resolves uri to a Key, then admits or queues the request.
// waitTime bounds residency in the waiter queue; connTimeout bounds name
// resolution + dial + TLS handshake as one budget.
func (c *Connector) Connect(ctx context.Context, uri string, waitTime, connTimeout time.Duration) (*Connection, error) {
	key, proto, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return c.ConnectKey(ctx, key, proto, waitTime, connTimeout)
}

// ConnectKey is Connect for a caller that has already derived a Key (used
// by Connect and by tests).
func (c *Connector) ConnectKey(ctx context.Context, key Key, proto Protocol, waitTime, connTimeout time.Duration) (*Connection, error) {
	req := &connectReq{key: key, proto: proto, connTimeout: connTimeout, resultCh: make(chan connectOutcome, 1)}

	select {
	case <-c.stop:
		return nil, httperr.NewConnectError(httperr.Disconnected, nil)
	default:
	}

	select {
	case c.cmds <- func() { c.handleConnect(req, waitTime) }:
	case <-c.stop:
		return nil, httperr.NewConnectError(httperr.Disconnected, nil)
	}

	select {
	case out := <-req.resultCh:
		return out.conn, out.err
	case <-ctx.Done():
		c.cancelReq(req)
		return nil, httperr.NewConnectError(httperr.ConnectTimeout, ctx.Err())
	}
}

func (c *Connector) cancelReq(req *connectReq) {
	select {
	case c.cmds <- func() {
		if req.waiter != nil {
			req.waiter.cancelled = true
		}
	}:
	case <-c.stop:
	}
}

// handleConnect runs on the actor goroutine: admit synchronously, dial
// asynchronously on Available, or park as a waiter on NotAvailable.
func (c *Connector) handleConnect(req *connectReq, waitTime time.Duration) {
	result := c.acquireLocked(req.key)
	switch result.kind {
	case resAcquired:
		req.resultCh <- connectOutcome{conn: c.wrapPooled(result.pooled, req.key, req.proto)}
	case resAvailable:
		go c.dialAndFinish(req)
	case resNotAvailable:
		w := &waiter{
			key:         req.key,
			proto:       req.proto,
			resultCh:    req.resultCh,
			deadline:    time.Now().Add(waitTime),
			connTimeout: req.connTimeout,
		}
		req.waiter = w
		c.waiters[req.key] = append(c.waiters[req.key], w)
	}
}

// acquireLocked implements spec.md §4.5's admission algorithm. Must only
// run on the actor goroutine.
func (c *Connector) acquireLocked(key Key) acquireResult {
	if c.settings.TotalLimit > 0 && c.acquired >= c.settings.TotalLimit {
		return acquireResult{kind: resNotAvailable}
	}
	if c.settings.PerHostLimit > 0 && c.acquiredPerHost[key] >= c.settings.PerHostLimit {
		return acquireResult{kind: resNotAvailable}
	}

	c.acquired++
	c.acquiredPerHost[key]++

	now := time.Now()
	list := c.idle[key]
	for len(list) > 0 {
		pc := list[len(list)-1]
		list = list[:len(list)-1]

		if pc.stale(now, c.settings.KeepAlive, c.settings.Lifetime) {
			c.toClose = append(c.toClose, pc)
			continue
		}
		if !probeIdle(pc.nc) {
			c.toClose = append(c.toClose, pc)
			continue
		}
		c.idle[key] = list
		return acquireResult{kind: resAcquired, pooled: pc}
	}
	c.idle[key] = list
	return acquireResult{kind: resAvailable}
}

func (c *Connector) wrapPooled(pc *pooledConn, key Key, proto Protocol) *Connection {
	conn := &Connection{Key: key, Proto: proto, created: pc.created, stream: pc.nc, pool: c}
	runtime.SetFinalizer(conn, (*Connection).drop)
	return conn
}

// dialAndFinish dials off the actor goroutine (spec.md §5: "dialing is
// concurrent across messages") and rejoins the actor to finalize pool
// state before resolving the caller.
func (c *Connector) dialAndFinish(req *connectReq) {
	ctx, cancel := context.WithTimeout(context.Background(), req.connTimeout)
	defer cancel()
	stream, err := dial(ctx, req.key, req.connTimeout, c.settings.DialMode)

	c.cmds <- func() {
		if err != nil {
			c.acquired--
			c.acquiredPerHost[req.key]--
			req.resultCh <- connectOutcome{err: err}
			return
		}
		conn := &Connection{Key: req.key, Proto: req.proto, created: time.Now(), stream: stream, pool: c}
		runtime.SetFinalizer(conn, (*Connection).drop)
		req.resultCh <- connectOutcome{conn: conn}
	}
}

// releaseConn, closeConn, freeSlot are invoked by Connection's Release/
// Close/drop methods; they hop onto the actor goroutine via cmds.
func (c *Connector) releaseConn(conn *Connection) {
	c.cmds <- func() {
		c.acquired--
		c.acquiredPerHost[conn.Key]--
		now := time.Now()
		if now.Sub(conn.created) < c.settings.Lifetime {
			c.idle[conn.Key] = append(c.idle[conn.Key], &pooledConn{
				key: conn.Key, nc: conn.stream, created: conn.created, lastRelease: now,
			})
		} else {
			c.toClose = append(c.toClose, &pooledConn{key: conn.Key, nc: conn.stream, created: conn.created})
		}
	}
}

func (c *Connector) closeConn(conn *Connection) {
	c.cmds <- func() {
		c.acquired--
		c.acquiredPerHost[conn.Key]--
		_ = conn.stream.Close()
	}
}

func (c *Connector) freeSlot(key Key) {
	c.cmds <- func() {
		c.acquired--
		c.acquiredPerHost[key]--
	}
}

// maintenance runs once a second on the actor goroutine: it evicts stale
// idle connections, drains the close list, and retries waiters.
func (c *Connector) maintenance() {
	now := time.Now()

	for key, list := range c.idle {
		kept := list[:0]
		for _, pc := range list {
			if pc.stale(now, c.settings.KeepAlive, c.settings.Lifetime) {
				c.toClose = append(c.toClose, pc)
				continue
			}
			kept = append(kept, pc)
		}
		if len(kept) == 0 {
			delete(c.idle, key)
		} else {
			c.idle[key] = kept
		}
	}

	for _, pc := range c.toClose {
		if err := pc.nc.Close(); err != nil {
			c.logger.WithError(err).Warn("connector: error closing evicted connection")
		}
	}
	c.toClose = c.toClose[:0]

	for key, list := range c.waiters {
		remaining := c.serviceWaiters(key, list, now)
		if len(remaining) == 0 {
			delete(c.waiters, key)
		} else {
			c.waiters[key] = remaining
		}
	}
}

// serviceWaiters processes one key's FIFO in order, stopping as soon as a
// waiter finds NotAvailable (spec.md §4.5: "On NotAvailable, stops
// processing this key").
func (c *Connector) serviceWaiters(key Key, list []*waiter, now time.Time) []*waiter {
	i := 0
	for i < len(list) {
		w := list[i]
		if w.cancelled {
			i++
			continue
		}
		if w.expired(now) {
			w.resultCh <- connectOutcome{err: httperr.NewConnectError(httperr.ConnectTimeout, nil)}
			i++
			continue
		}

		result := c.acquireLocked(key)
		switch result.kind {
		case resAcquired:
			w.resultCh <- connectOutcome{conn: c.wrapPooled(result.pooled, key, w.proto)}
			i++
		case resAvailable:
			req := &connectReq{key: key, proto: w.proto, connTimeout: w.connTimeout, resultCh: w.resultCh}
			go c.dialAndFinish(req)
			i++
		case resNotAvailable:
			return list[i:]
		}
	}
	return nil
}

// Stats reports the pool accounting invariants from spec.md §8 for tests
// and diagnostics: acquired must always equal the sum of
// acquiredPerHost[_].
type Stats struct {
	Acquired        int
	AcquiredPerHost map[Key]int
}

// StatsSync fetches a consistent snapshot by round-tripping the actor
// goroutine.
func (c *Connector) StatsSync() Stats {
	done := make(chan Stats, 1)
	c.cmds <- func() {
		perHost := make(map[Key]int, len(c.acquiredPerHost))
		for k, v := range c.acquiredPerHost {
			perHost[k] = v
		}
		done <- Stats{Acquired: c.acquired, AcquiredPerHost: perHost}
	}
	return <-done
}
