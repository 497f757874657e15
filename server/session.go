package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/openfms/gps-relay/geo"
	"github.com/openfms/gps-relay/relay"
)

// Server-to-device tokens. Bare ASCII, no delimiters; firmware matches
// them by containment.
const (
	pulseToken = "pulse"
	buzzToken  = "buzz"
)

const readBufferSize = 1024

// Subject for the corrected-fix publish when NATS is configured.
const lastFixSubject = "device.lastfix"

type sessionState int

const (
	stateActive sessionState = iota
	stateClosed
)

// session owns one device connection from accept to close. Each loop
// iteration runs the heartbeat check, then the buzz poll, then one
// bounded read; per-fix and per-poll errors never end the session.
type session struct {
	conn     net.Conn
	cfg      Config
	backend  Backend
	natsConn *nats.Conn
	log      *zap.Logger

	state     sessionState
	lastPulse time.Time
	lastPoll  time.Time
	buzzing   bool
}

func newSession(conn net.Conn, cfg Config, backend Backend, natsConn *nats.Conn, logger *zap.Logger) *session {
	return &session{
		conn:     conn,
		cfg:      cfg,
		backend:  backend,
		natsConn: natsConn,
		log:      logger,
	}
}

func (s *session) run() {
	s.state = stateActive
	s.lastPulse = time.Now()
	ctx := context.Background()
	buf := make([]byte, readBufferSize)
	for s.state == stateActive {
		s.checkHeartbeat()
		s.checkBuzz(ctx)
		s.receive(ctx, buf)
	}
}

func (s *session) checkHeartbeat() {
	if time.Since(s.lastPulse) < s.cfg.HeartbeatInterval {
		return
	}
	if _, err := s.conn.Write([]byte(pulseToken)); err != nil {
		s.log.Warn("pulse send failed", zap.Error(err))
	}
	s.lastPulse = time.Now()
}

// checkBuzz is edge-triggered: the device hears buzz once per false→true
// transition of the backend flag, not once per poll.
func (s *session) checkBuzz(ctx context.Context) {
	if time.Since(s.lastPoll) < s.cfg.PollInterval {
		return
	}
	s.lastPoll = time.Now()
	active, err := s.backend.PollBuzz(ctx)
	if err != nil {
		// Fail-safe, not fail-alarm: a missed poll means no alert.
		s.log.Warn("buzz poll failed", zap.Error(err))
		return
	}
	if active && !s.buzzing {
		if _, err := s.conn.Write([]byte(buzzToken)); err != nil {
			s.log.Warn("buzz send failed", zap.Error(err))
		}
	}
	s.buzzing = active
}

func (s *session) receive(ctx context.Context, buf []byte) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
		s.log.Error("set read deadline failed", zap.Error(err))
		s.state = stateClosed
		return
	}
	n, err := s.conn.Read(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			// Idle cycle; heartbeat and buzz checks still ran.
			return
		}
		if !errors.Is(err, io.EOF) {
			s.log.Error("read failed", zap.Error(err))
		}
		s.state = stateClosed
		return
	}
	if n == 0 {
		s.state = stateClosed
		return
	}
	s.handlePayload(ctx, buf[:n])
}

func (s *session) handlePayload(ctx context.Context, data []byte) {
	latText, lonText, ok := ExtractPosition(data)
	if !ok {
		return
	}
	lat, err := geo.ParseAngle(latText, s.cfg.AngleFormat, geo.Latitude)
	if err != nil {
		s.log.Warn("discarding malformed fix",
			zap.String("latitude", latText),
			zap.Error(err),
		)
		return
	}
	lon, err := geo.ParseAngle(lonText, s.cfg.AngleFormat, geo.Longitude)
	if err != nil {
		s.log.Warn("discarding malformed fix",
			zap.String("longitude", lonText),
			zap.Error(err),
		)
		return
	}
	lat, lon = geo.Correct(lat, lon)
	if err := s.backend.PostPosition(ctx, lat, lon); err != nil {
		// Missed update; the next fix retries implicitly.
		s.log.Warn("position relay failed", zap.Error(err))
	}
	s.publishFix(lat, lon)
}

func (s *session) publishFix(lat, lon float64) {
	if s.natsConn == nil {
		return
	}
	payload, err := json.Marshal(relay.Position{Latitude: lat, Longitude: lon})
	if err != nil {
		s.log.Error("marshal fix failed", zap.Error(err))
		return
	}
	if e := s.natsConn.Publish(lastFixSubject, payload); e != nil {
		s.log.Error("publish fix failed", zap.Error(e))
	}
}
