package storage

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"gotest.tools/v3/assert"

	"github.com/openfms/gps-relay/relay"
)

func newTestServer(t *testing.T) *httptest.Server {
	store, err := NewFileStore(t.TempDir())
	assert.NilError(t, err)
	srv := httptest.NewServer(NewServer(store, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, doc any) *http.Response {
	t.Helper()
	body, err := json.Marshal(doc)
	assert.NilError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	assert.NilError(t, err)
	return resp
}

func TestPositionRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/position", relay.Position{Latitude: 31.5, Longitude: 121.0})
	assert.Equal(t, resp.StatusCode, http.StatusOK)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/position")
	assert.NilError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusOK)
	var got relay.Position
	assert.NilError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, got.Latitude, 31.5)
	assert.Equal(t, got.Longitude, 121.0)
}

func TestPositionMissing(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/position")
	assert.NilError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusNotFound)
}

func TestCallingRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/calling", Calling{Calling: 1})
	assert.Equal(t, resp.StatusCode, http.StatusOK)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/calling")
	assert.NilError(t, err)
	defer resp.Body.Close()
	var got Calling
	assert.NilError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, got.Calling, 1)
}

func TestBuzzFollowsCallingFlag(t *testing.T) {
	srv := newTestServer(t)

	readBuzz := func() int {
		resp, err := http.Get(srv.URL + "/buzz")
		assert.NilError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, resp.StatusCode, http.StatusOK)
		var buzz buzzDocument
		assert.NilError(t, json.NewDecoder(resp.Body).Decode(&buzz))
		return buzz.Data
	}

	// No calling document stored yet reads as no alert.
	assert.Equal(t, readBuzz(), 0)

	postJSON(t, srv.URL+"/calling", Calling{Calling: 1}).Body.Close()
	assert.Equal(t, readBuzz(), 1)

	postJSON(t, srv.URL+"/calling", Calling{Calling: 0}).Body.Close()
	assert.Equal(t, readBuzz(), 0)
}
