// Package worker hosts the non-blocking, single-threaded, epoll-driven
// event loop: one listening socket and one connTable per configured
// server, per spec.md §5's "one worker process per configured server."
package worker

import (
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/webserv-go/webserv/internal/config"
	"github.com/webserv-go/webserv/internal/httpserver"
)

// maxEvents and pollTimeoutMS mirror original_source/src/Server.cpp's
// runWithEpoll: a 1024-slot event buffer and a 5-second wait so a timeout
// scan for idle connections always runs even with no traffic.
const (
	maxEvents     = 1024
	pollTimeoutMS = 5000
	readChunk     = 65536
)

// Loop is one worker's epoll-driven event loop over a single listening
// socket.
type Loop struct {
	cfg      *config.ServerConfig
	log      *slog.Logger
	engine   *httpserver.Engine
	listenFD int
	epollFD  int
	conns    *connTable
	running  bool
}

// NewLoop creates a non-blocking listening socket bound to cfg.Port on
// all interfaces (spec.md's REDESIGN FLAGS note that "listen PORT" names
// no interface, so INADDR_ANY is the correct bind target rather than the
// original's hardcoded 127.0.0.1) and registers it with a fresh epoll
// instance.
func NewLoop(cfg *config.ServerConfig, log *slog.Logger, engine *httpserver.Engine, capacity int) (*Loop, error) {
	listenFD, err := bindListener(cfg.Port)
	if err != nil {
		return nil, err
	}

	epollFD, err := unix.EpollCreate1(0)
	if err != nil {
		unix.Close(listenFD)
		return nil, err
	}

	if err := unix.EpollCtl(epollFD, unix.EPOLL_CTL_ADD, listenFD, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(listenFD),
	}); err != nil {
		unix.Close(epollFD)
		unix.Close(listenFD)
		return nil, err
	}

	return &Loop{
		cfg:      cfg,
		log:      log,
		engine:   engine,
		listenFD: listenFD,
		epollFD:  epollFD,
		conns:    newConnTable(capacity),
	}, nil
}

// bindListener creates a non-blocking TCP listening socket bound to
// INADDR_ANY:port with SO_REUSEADDR set and a 128-entry backlog,
// matching Server::init()'s socket/setsockopt/bind/listen sequence.
func bindListener(port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, err
	}
	addr := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, 128); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// closeFD closes fd, ignoring errors — the connection record is being
// discarded either way.
func closeFD(fd int) {
	unix.Close(fd)
}

// Run blocks, servicing connections until shouldStop reports true. A
// SIGINT/SIGTERM handler installed by the caller should flip that flag;
// in-flight handling always completes before this checks it again, per
// spec.md §5's shutdown model.
func (l *Loop) Run(shouldStop func() bool) {
	l.running = true
	events := make([]unix.EpollEvent, maxEvents)

	for l.running {
		if shouldStop() {
			return
		}

		n, err := unix.EpollWait(l.epollFD, events, pollTimeoutMS)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			l.log.Error("epoll_wait failed", "err", err)
			return
		}

		if n == 0 {
			l.reapTimeouts()
			continue
		}

		l.processEvents(events[:n])
		l.reapTimeouts()
	}
}

// processEvents mirrors Server::processEpollEvents: a ready listening fd
// accepts, a hangup/error removes the connection, and every other
// readable fd is serviced in turn.
func (l *Loop) processEvents(events []unix.EpollEvent) {
	for _, ev := range events {
		fd := int(ev.Fd)

		if fd == l.listenFD {
			if ev.Events&unix.EPOLLIN != 0 {
				l.acceptOne()
			}
			continue
		}

		if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			l.conns.remove(fd)
			continue
		}

		if ev.Events&unix.EPOLLIN != 0 {
			l.serviceConn(fd)
		}
	}
}

// acceptOne accepts a single pending connection, registers it with
// epoll, and adds it to the connection table — refusing (and closing)
// the connection when the table is at capacity, per spec.md §4.2.
func (l *Loop) acceptOne() {
	fd, sa, err := unix.Accept(l.listenFD)
	if err != nil {
		if err != unix.EAGAIN && err != unix.EWOULDBLOCK {
			l.log.Warn("accept failed", "err", err)
		}
		return
	}

	if l.conns.full() {
		l.log.Warn("connection table full, refusing new connection")
		closeFD(fd)
		return
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		closeFD(fd)
		return
	}

	if err := unix.EpollCtl(l.epollFD, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
	}); err != nil {
		l.log.Warn("epoll_ctl add failed", "err", err)
		closeFD(fd)
		return
	}

	c := newConn(fd, peerString(sa), l.cfg.ClientMaxBodySize)
	l.conns.insert(c)
	l.log.Debug("accepted connection", "conn_id", c.id, "peer", c.peerAddr)
}

// peerString renders a unix.Sockaddr as "ip:port" for logging.
func peerString(sa unix.Sockaddr) string {
	if v4, ok := sa.(*unix.SockaddrInet4); ok {
		ip := v4.Addr
		return ipv4String(ip) + ":" + itoa(v4.Port)
	}
	return "unknown"
}

func ipv4String(b [4]byte) string {
	return itoa(int(b[0])) + "." + itoa(int(b[1])) + "." + itoa(int(b[2])) + "." + itoa(int(b[3]))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// serviceConn reads whatever is available from fd, and once a complete
// request is buffered, hands it to the engine and writes the response,
// then closes the connection — every response forces Connection: close
// (spec.md §4.10), so there is never a second request on the same fd.
func (l *Loop) serviceConn(fd int) {
	c, ok := l.conns.get(fd)
	if !ok {
		return
	}

	scratch := make([]byte, readChunk)
	for {
		n, closed, err := c.drainRead(scratch)
		if closed {
			l.conns.remove(fd)
			return
		}
		if err != nil {
			l.conns.remove(fd)
			return
		}
		if n == 0 {
			break
		}
		if len(c.recvBuf) > c.bufCap() {
			l.respondAndClose(c, httpserverTooLarge())
			return
		}
		if n < readChunk {
			break
		}
	}

	if !httpserver.RequestComplete(c.recvBuf) {
		return
	}

	l.log.Debug("dispatching request", "conn_id", c.id, "peer", c.peerAddr)
	out := l.engine.Handle(c.recvBuf)
	l.respondAndClose(c, out)
}

// httpserverTooLarge renders a fixed 413 response for a request whose
// buffered size outgrew this connection's cap before framing completed.
func httpserverTooLarge() []byte {
	body := []byte("<!DOCTYPE html><html><head><title>413 Payload Too Large</title></head>" +
		"<body><h1>413 Payload Too Large</h1></body></html>")
	return append([]byte("HTTP/1.1 413 Payload Too Large\r\nContent-Length: "+itoa(len(body))+
		"\r\nConnection: close\r\n\r\n"), body...)
}

func (l *Loop) respondAndClose(c *conn, out []byte) {
	if err := writeAll(c.fd, out); err != nil {
		l.log.Warn("write failed", "conn_id", c.id, "peer", c.peerAddr, "err", err)
	}
	l.conns.remove(c.fd)
}

// reapTimeouts closes every connection idle beyond the configured
// client_timeout, per spec.md §5's cancellation model.
func (l *Loop) reapTimeouts() {
	for _, fd := range l.conns.expired(l.cfg.ClientTimeout) {
		l.conns.remove(fd)
	}
}

// Close releases the listening socket and epoll fd.
func (l *Loop) Close() {
	l.running = false
	closeFD(l.listenFD)
	closeFD(l.epollFD)
}
