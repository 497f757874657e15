package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gotest.tools/v3/assert"
)

func TestPostPosition(t *testing.T) {
	var received Position
	var gotPath, gotMethod string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		assert.NilError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	client := NewClient(backend.URL)
	err := client.PostPosition(context.Background(), 31.502, 121.009)
	assert.NilError(t, err)
	assert.Equal(t, gotPath, "/position")
	assert.Equal(t, gotMethod, http.MethodPost)
	assert.Equal(t, received.Latitude, 31.502)
	assert.Equal(t, received.Longitude, 121.009)
}

func TestPostPositionErrorResponse(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer backend.Close()

	client := NewClient(backend.URL)
	err := client.PostPosition(context.Background(), 31.502, 121.009)
	assert.ErrorIs(t, err, ErrRelayUnavailable)
}

func TestPostPositionUnreachable(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close()

	client := NewClient(backend.URL)
	err := client.PostPosition(context.Background(), 31.502, 121.009)
	assert.ErrorIs(t, err, ErrRelayUnavailable)
}

func TestPollBuzz(t *testing.T) {
	tests := map[string]struct {
		body string
		want bool
	}{
		"set":   {body: `{"data":1}`, want: true},
		"clear": {body: `{"data":0}`, want: false},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, r.URL.Path, "/buzz")
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(test.body))
			}))
			defer backend.Close()

			client := NewClient(backend.URL)
			got, err := client.PollBuzz(context.Background())
			assert.NilError(t, err)
			assert.Equal(t, got, test.want)
		})
	}
}

func TestPollBuzzErrorResponse(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer backend.Close()

	client := NewClient(backend.URL)
	got, err := client.PollBuzz(context.Background())
	assert.ErrorIs(t, err, ErrRelayUnavailable)
	assert.Equal(t, got, false)
}
