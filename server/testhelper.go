package server

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	natstest "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"

	"github.com/openfms/gps-relay/geo"
)

func generateRandomHostPort() string {
	port := rand.Intn(65535-1024) + 1024
	return net.JoinHostPort("127.0.0.1", fmt.Sprintf("%d", port))
}

// RunNatsServerOnPort will run a nats server on the given port. Port -1
// picks a free one; use ClientURL on the result.
func RunNatsServerOnPort(port int) *natsserver.Server {
	opts := natstest.DefaultTestOptions
	opts.Port = port
	return natstest.RunServer(&opts)
}

func NewNatsConnection(t *testing.T, url string) *nats.Conn {
	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("Failed to create default connection: %v\n", err)
	}
	return nc
}

func testConfig() Config {
	return Config{
		ReadTimeout:       10 * time.Millisecond,
		HeartbeatInterval: time.Hour,
		PollInterval:      time.Hour,
		KeepAliveIdle:     30 * time.Second,
		KeepAliveInterval: 10 * time.Second,
		KeepAliveCount:    3,
		AngleFormat:       geo.DegreeMinute,
	}
}

// fakeBackend records posted fixes and replays a scripted buzz sequence,
// holding the last value once the script runs out.
type fakeBackend struct {
	mu      sync.Mutex
	posted  [][2]float64
	buzzSeq []bool
	buzzIdx int
	pollErr error
}

func (fb *fakeBackend) PostPosition(ctx context.Context, lat, lon float64) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.posted = append(fb.posted, [2]float64{lat, lon})
	return nil
}

func (fb *fakeBackend) PollBuzz(ctx context.Context) (bool, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.pollErr != nil {
		return false, fb.pollErr
	}
	if len(fb.buzzSeq) == 0 {
		return false, nil
	}
	value := fb.buzzSeq[fb.buzzIdx]
	if fb.buzzIdx < len(fb.buzzSeq)-1 {
		fb.buzzIdx++
	}
	return value, nil
}

func (fb *fakeBackend) postedFixes() [][2]float64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fixes := make([][2]float64, len(fb.posted))
	copy(fixes, fb.posted)
	return fixes
}

func waitForPosts(t *testing.T, backend *fakeBackend, want int) [][2]float64 {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		fixes := backend.postedFixes()
		if len(fixes) >= want {
			return fixes
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d posted fixes, got %d", want, len(backend.postedFixes()))
	return nil
}

func dialWithRetry(t *testing.T, addr string) net.Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			return conn
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out dialing %s", addr)
	return nil
}
