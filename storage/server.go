package storage

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/openfms/gps-relay/relay"
)

type buzzDocument struct {
	Data int `json:"data"`
}

// Server exposes the file-backed position/calling documents over HTTP,
// including the GET /buzz surface the relay polls.
type Server struct {
	store *FileStore
	log   *zap.Logger
}

func NewServer(store *FileStore, logger *zap.Logger) *Server {
	return &Server{store: store, log: logger}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /position", s.getPosition)
	mux.HandleFunc("POST /position", s.postPosition)
	mux.HandleFunc("GET /calling", s.getCalling)
	mux.HandleFunc("POST /calling", s.postCalling)
	mux.HandleFunc("GET /buzz", s.getBuzz)
	return mux
}

func (s *Server) getPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := s.store.LoadPosition()
	if err != nil {
		s.notFoundOrError(w, err, "load position failed")
		return
	}
	s.writeJSON(w, pos)
}

func (s *Server) postPosition(w http.ResponseWriter, r *http.Request) {
	var pos relay.Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		http.Error(w, "invalid position document", http.StatusBadRequest)
		return
	}
	if err := s.store.SavePosition(pos); err != nil {
		s.log.Error("save position failed", zap.Error(err))
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]string{"status": "success"})
}

func (s *Server) getCalling(w http.ResponseWriter, r *http.Request) {
	calling, err := s.store.LoadCalling()
	if err != nil {
		s.notFoundOrError(w, err, "load calling failed")
		return
	}
	s.writeJSON(w, calling)
}

func (s *Server) postCalling(w http.ResponseWriter, r *http.Request) {
	var calling Calling
	if err := json.NewDecoder(r.Body).Decode(&calling); err != nil {
		http.Error(w, "invalid calling document", http.StatusBadRequest)
		return
	}
	if err := s.store.SaveCalling(calling); err != nil {
		s.log.Error("save calling failed", zap.Error(err))
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]string{"status": "success"})
}

// getBuzz derives the relay polling surface from the calling flag. A
// missing calling document reads as no alert.
func (s *Server) getBuzz(w http.ResponseWriter, r *http.Request) {
	calling, err := s.store.LoadCalling()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Error("load calling failed", zap.Error(err))
		http.Error(w, "load failed", http.StatusInternalServerError)
		return
	}
	flag := 0
	if calling.Calling == 1 {
		flag = 1
	}
	s.writeJSON(w, buzzDocument{Data: flag})
}

func (s *Server) notFoundOrError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, "no document stored", http.StatusNotFound)
		return
	}
	s.log.Error(msg, zap.Error(err))
	http.Error(w, "load failed", http.StatusInternalServerError)
}

func (s *Server) writeJSON(w http.ResponseWriter, doc any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		s.log.Error("write response failed", zap.Error(err))
	}
}
