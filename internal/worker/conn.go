package worker

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// maxHeaderCap bounds a connection's receive buffer before a body's
// Content-Length is known, so one slow client can't grow an unbounded
// buffer on an incomplete request, per spec.md §5's "bounded by
// client_max_body_size plus an implementation header cap."
const maxHeaderCap = 64 * 1024

// conn is one accepted connection's state: its fd, the address it
// connected from, when it last produced bytes, and the buffer its
// partial request accumulates into. A worker owns every conn exclusively
// through its connTable; there is no locking because only the worker's
// single goroutine ever touches one.
type conn struct {
	id         string
	fd         int
	peerAddr   string
	lastActive time.Time
	recvBuf    []byte
	maxBody    int64
}

// newConn assigns each accepted connection a random correlation ID
// (github.com/google/uuid) so its accept/service/close log lines can be
// tied together without reusing the fd number, which the kernel recycles
// as soon as a connection closes.
func newConn(fd int, peerAddr string, maxBody int64) *conn {
	return &conn{
		id:         uuid.NewString(),
		fd:         fd,
		peerAddr:   peerAddr,
		lastActive: time.Now(),
		maxBody:    maxBody,
	}
}

// bufCap returns the buffer size this connection is allowed to grow to:
// the header cap plus whatever body size the server's config permits.
// When maxBody is 0 (no configured body limit) the cap is the header cap
// alone, so a request whose buffered bytes exceed maxHeaderCap is
// answered 413 by the event loop.
func (c *conn) bufCap() int {
	if c.maxBody <= 0 {
		return maxHeaderCap
	}
	return maxHeaderCap + int(c.maxBody)
}

// drainRead appends up to len(scratch) freshly-read bytes from fd into
// recvBuf. Returns the number of bytes read, whether the peer closed the
// connection (n==0), and any error other than EAGAIN (which is not an
// error on a non-blocking fd with nothing more to read right now).
func (c *conn) drainRead(scratch []byte) (n int, closed bool, err error) {
	n, err = unix.Read(c.fd, scratch)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, false, nil
		}
		return 0, false, err
	}
	if n == 0 {
		return 0, true, nil
	}
	c.recvBuf = append(c.recvBuf, scratch[:n]...)
	c.lastActive = time.Now()
	return n, false, nil
}

// writeAll writes out in full to fd, looping on partial writes and
// EAGAIN, per spec.md §5's "short writes loop until complete or fail."
// The fd is expected to be blocking-tolerant for this single synchronous
// write (the response is composed entirely in memory and is typically
// small); EAGAIN is retried with a short sleep rather than re-entering
// the event loop, since a connection's own response write is not itself
// a suspension point the spec defines.
func writeAll(fd int, out []byte) error {
	for len(out) > 0 {
		n, err := unix.Write(fd, out)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				time.Sleep(time.Millisecond)
				continue
			}
			return err
		}
		out = out[n:]
	}
	return nil
}
