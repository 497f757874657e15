package server

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"
	"gotest.tools/v3/assert"

	"github.com/openfms/gps-relay/relay"
)

func TestServerAcceptsAgainAfterPeerClose(t *testing.T) {
	addr := generateRandomHostPort()
	backend := &fakeBackend{}
	srv := NewServer(addr, testConfig(), backend, nil, zap.NewNop())
	go srv.Start()
	defer srv.Stop()

	conn := dialWithRetry(t, addr)
	_, err := conn.Write([]byte("pos:3130.1234,12100.5678#"))
	assert.NilError(t, err)
	waitForPosts(t, backend, 1)

	// Peer close ends the session; the accept loop must take a new
	// connection afterwards.
	assert.NilError(t, conn.Close())

	conn2 := dialWithRetry(t, addr)
	_, err = conn2.Write([]byte("pos:3130.1234,12100.5678#"))
	assert.NilError(t, err)
	waitForPosts(t, backend, 2)
	assert.NilError(t, conn2.Close())
	// Let the session observe the close before Stop runs.
	time.Sleep(50 * time.Millisecond)
}

func TestServerPublishesCorrectedFix(t *testing.T) {
	natsSrv := RunNatsServerOnPort(-1)
	defer natsSrv.Shutdown()
	natsCon := NewNatsConnection(t, natsSrv.ClientURL())
	defer natsCon.Close()

	sub, err := natsCon.SubscribeSync(lastFixSubject)
	assert.NilError(t, err)

	addr := generateRandomHostPort()
	backend := &fakeBackend{}
	srv := NewServer(addr, testConfig(), backend, natsCon, zap.NewNop())
	go srv.Start()
	defer srv.Stop()

	conn := dialWithRetry(t, addr)
	defer conn.Close()
	_, err = conn.Write([]byte("pos:3130.1234,12100.5678#"))
	assert.NilError(t, err)

	msg, err := sub.NextMsg(2 * time.Second)
	assert.NilError(t, err)
	var fix relay.Position
	assert.NilError(t, json.Unmarshal(msg.Data, &fix))
	fixes := waitForPosts(t, backend, 1)
	assert.Equal(t, fix.Latitude, fixes[0][0])
	assert.Equal(t, fix.Longitude, fixes[0][1])
}
