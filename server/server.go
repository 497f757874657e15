package server

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/openfms/gps-relay/geo"
)

type Empty struct{}

// Backend is the outbound relay surface a session drives each cycle.
type Backend interface {
	PostPosition(ctx context.Context, lat, lon float64) error
	PollBuzz(ctx context.Context) (bool, error)
}

// Config carries session cadence and socket keepalive tuning. Validated
// at startup by the CLI layer.
type Config struct {
	ReadTimeout       time.Duration
	HeartbeatInterval time.Duration
	PollInterval      time.Duration
	KeepAliveIdle     time.Duration
	KeepAliveInterval time.Duration
	KeepAliveCount    int
	AngleFormat       geo.Format
}

// RelayServer owns the listening socket and hands each accepted
// connection to a fresh session. The device protocol supports exactly one
// tracker, so sessions run sequentially on the accept path: a second
// accept is not attempted until the current session closes.
type RelayServer struct {
	listenAddr string
	cfg        Config
	backend    Backend
	natsConn   *nats.Conn
	ln         net.Listener
	quitChan   chan Empty
	wg         sync.WaitGroup
	mu         sync.Mutex
	active     net.Conn
	log        *zap.Logger
}

type TCPServerInterface interface {
	Start()
	Stop()
}

var (
	_ TCPServerInterface = &RelayServer{}
)

// NewServer builds a relay server. natsConn may be nil to disable the
// corrected-fix publish.
func NewServer(listenAddr string, cfg Config, backend Backend, natsConn *nats.Conn, logger *zap.Logger) *RelayServer {
	return &RelayServer{
		listenAddr: listenAddr,
		cfg:        cfg,
		backend:    backend,
		natsConn:   natsConn,
		quitChan:   make(chan Empty),
		wg:         sync.WaitGroup{},
		log:        logger,
	}
}

func (rs *RelayServer) Start() {
	ln, err := net.Listen("tcp", rs.listenAddr)
	if err != nil {
		rs.log.Error("failed to listen", zap.Error(err))
		return
	}
	rs.ln = ln

	go rs.acceptConnections()
	rs.log.Info("server started",
		zap.String("ListenAddress", rs.listenAddr),
	)
	<-rs.quitChan
}

func (rs *RelayServer) acceptConnections() {
	for {
		conn, err := rs.ln.Accept()
		if err != nil {
			select {
			case <-rs.quitChan:
				return
			default:
			}
			rs.log.Error("accept connection error", zap.Error(err))
			continue
		}
		rs.log.Info("device connected", zap.String("Address", conn.RemoteAddr().String()))
		rs.tuneKeepAlive(conn)
		rs.setActive(conn)
		rs.wg.Add(1)
		rs.runSession(conn)
		rs.setActive(nil)
	}
}

func (rs *RelayServer) runSession(conn net.Conn) {
	defer rs.wg.Done()
	defer conn.Close()
	sess := newSession(conn, rs.cfg, rs.backend, rs.natsConn, rs.log)
	sess.run()
	rs.log.Info("device disconnected", zap.String("Address", conn.RemoteAddr().String()))
}

// tuneKeepAlive enables TCP-level probing so a vanished device eventually
// fails the read instead of holding the single slot forever.
func (rs *RelayServer) tuneKeepAlive(conn net.Conn) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	err := tcpConn.SetKeepAliveConfig(net.KeepAliveConfig{
		Enable:   true,
		Idle:     rs.cfg.KeepAliveIdle,
		Interval: rs.cfg.KeepAliveInterval,
		Count:    rs.cfg.KeepAliveCount,
	})
	if err != nil {
		rs.log.Warn("keepalive tuning failed", zap.Error(err))
	}
}

func (rs *RelayServer) setActive(conn net.Conn) {
	rs.mu.Lock()
	rs.active = conn
	rs.mu.Unlock()
}

// Stop closes the listener and the active connection, then waits for the
// session to finish. Safe to call once.
func (rs *RelayServer) Stop() {
	close(rs.quitChan)
	if rs.ln != nil {
		rs.ln.Close()
	}
	rs.mu.Lock()
	if rs.active != nil {
		rs.active.Close()
	}
	rs.mu.Unlock()
	rs.wg.Wait()
	rs.log.Info("stop server")
}
