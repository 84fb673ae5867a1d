package client

import "time"

// pooledConn is an idle connection sitting in the pool, tagged with its
// creation time and the time it was last released.
type pooledConn struct {
	key         Key
	nc          streamConn
	created     time.Time
	lastRelease time.Time
}

func (p *pooledConn) stale(now time.Time, keepAlive, lifetime time.Duration) bool {
	return now.Sub(p.lastRelease) > keepAlive || now.Sub(p.created) > lifetime
}
