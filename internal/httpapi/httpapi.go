// Package httpapi implements the HTTP front-end (§4.11): a net/http mux
// exposing GET /api/notes/{id}/content and a long-poll GET /api/updates,
// grounded on original_source/backend/src/router.rs's axum Router but with
// its WebSocket upgrade replaced by polling — WebSockets are explicitly out
// of scope, and a polling endpoint preserves the same message *ordering*
// (Building, then Initialize, then updates) scenario 6 requires. Interface
// only, per non-goals: no auth, no rate limiting, CORS left to a reverse
// proxy rather than reimplementing tower_http::cors.
package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/standardbeagle/notegraphd/internal/diag"
	"github.com/standardbeagle/notegraphd/internal/notes"
)

var logComponent = diag.Component("httpapi")

// wireMessage is the JSON rendering of notes.Message, matching the
// original's #[serde(tag = "tag", content = "content")] WebsocketMessage.
type wireMessage struct {
	Tag     string `json:"tag"`
	Content any    `json:"content,omitempty"`
}

func toWireMessage(m notes.Message) wireMessage {
	switch v := m.(type) {
	case notes.BuildingMessage:
		return wireMessage{Tag: "building"}
	case notes.InitializeMessage:
		return wireMessage{Tag: "initialize", Content: v.Snapshot}
	case notes.UpdateMessage:
		return wireMessage{Tag: "update", Content: v.Batch}
	case notes.RemoveMessage:
		return wireMessage{Tag: "remove", Content: v.IDs}
	default:
		return wireMessage{Tag: "unknown"}
	}
}

// Server holds the per-client subscriptions a polling front-end needs to
// reconstruct the Building -> Initialize -> updates ordering a single
// long-lived WebSocket stream gets for free: each client's first poll opens
// a notes.Service subscription and gets back an opaque cursor; subsequent
// polls with that cursor read the next message off the same channel.
type Server struct {
	service     *notes.Service
	defaultNote uuid.UUID

	mu   sync.Mutex
	subs map[string]<-chan notes.Message
}

// NewServer builds a Server bound to a single notes.Service. defaultNote is
// the config's default_note, surfaced so a front-end knows which note to
// open on first load without the backend having to pick one itself.
func NewServer(service *notes.Service, defaultNote uuid.UUID) *Server {
	return &Server{service: service, defaultNote: defaultNote, subs: make(map[string]<-chan notes.Message)}
}

// Handler builds the mux this front-end serves.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/notes/{id}/content", s.getNoteContent)
	mux.HandleFunc("GET /api/updates", s.getUpdates)
	mux.HandleFunc("GET /api/default-note", s.getDefaultNote)
	return mux
}

func (s *Server) getDefaultNote(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		ID uuid.UUID `json:"id"`
	}{ID: s.defaultNote})
}

func (s *Server) getNoteContent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid note id", http.StatusBadRequest)
		return
	}

	content, ok, err := s.service.GetNoteContent(id)
	if err != nil {
		logComponent.Logf("get note content %s: %v", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(content))
}

// getUpdates answers one message per request. A client's first poll (no
// ?cursor=) gets Building immediately if the initial build hasn't finished,
// or else opens a subscription, returns its Initialize snapshot, and hands
// back a cursor. Every later poll must carry that cursor and blocks until
// the subscription's next message (or the request's context is canceled),
// matching scenario 6's ordering for a client that polls in a loop.
func (s *Server) getUpdates(w http.ResponseWriter, r *http.Request) {
	ready := s.service.GetBuildFinished()
	cursor := r.URL.Query().Get("cursor")

	if cursor == "" {
		if !ready.HasFired() {
			writeMessage(w, "", notes.BuildingMessage{})
			return
		}

		snap, ch := s.service.Subscribe()
		cursor = uuid.NewString()
		s.mu.Lock()
		s.subs[cursor] = ch
		s.mu.Unlock()

		writeMessage(w, cursor, notes.InitializeMessage{Snapshot: snap})
		return
	}

	s.mu.Lock()
	ch, ok := s.subs[cursor]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "unknown cursor", http.StatusGone)
		return
	}

	select {
	case msg, ok := <-ch:
		if !ok {
			s.mu.Lock()
			delete(s.subs, cursor)
			s.mu.Unlock()
			http.Error(w, "subscription closed", http.StatusGone)
			return
		}
		writeMessage(w, cursor, msg)
	case <-r.Context().Done():
	}
}

type updatesResponse struct {
	Cursor  string `json:"cursor,omitempty"`
	Message wireMessage
}

func (u updatesResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Cursor  string `json:"cursor,omitempty"`
		Tag     string `json:"tag"`
		Content any    `json:"content,omitempty"`
	}{Cursor: u.Cursor, Tag: u.Message.Tag, Content: u.Message.Content})
}

func writeMessage(w http.ResponseWriter, cursor string, m notes.Message) {
	w.Header().Set("Content-Type", "application/json")
	resp := updatesResponse{Cursor: cursor, Message: toWireMessage(m)}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logComponent.Logf("encode update message: %v", err)
	}
}
