package worker

import "time"

// connTable maps fds to their connection record, bounded at capacity so
// the worker refuses to accept past it rather than grow unbounded — the
// Go equivalent of ClientManager's MAX_CLIENTS/isFull() guard in
// original_source/src/ClientManager.cpp.
type connTable struct {
	byFD     map[int]*conn
	capacity int
}

func newConnTable(capacity int) *connTable {
	return &connTable{
		byFD:     make(map[int]*conn, capacity),
		capacity: capacity,
	}
}

func (t *connTable) full() bool {
	return len(t.byFD) >= t.capacity
}

func (t *connTable) insert(c *conn) {
	t.byFD[c.fd] = c
}

func (t *connTable) get(fd int) (*conn, bool) {
	c, ok := t.byFD[fd]
	return c, ok
}

// remove deletes fd's record and closes the fd, its one side effect —
// every accepted fd is owned by exactly one connection record, and this
// is the single place that ownership ends, per spec.md §5.
func (t *connTable) remove(fd int) {
	if c, ok := t.byFD[fd]; ok {
		closeFD(c.fd)
		delete(t.byFD, fd)
	}
}

// expired returns the fds of every connection idle longer than timeout,
// mirroring ClientManager::checkTimeouts' linear scan.
func (t *connTable) expired(timeoutSeconds int) []int {
	if timeoutSeconds <= 0 {
		return nil
	}
	var out []int
	cutoff := time.Now().Unix() - int64(timeoutSeconds)
	for fd, c := range t.byFD {
		if c.lastActive.Unix() < cutoff {
			out = append(out, fd)
		}
	}
	return out
}
