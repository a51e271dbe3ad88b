// Package editor implements the editor-control surface (§4.10): a tiny
// newline-delimited JSON TCP protocol, grounded on
// original_source/backend/src/editor_protocol.rs and editor_service.rs
// (Server<M>/EditorService, generalized here from tower's Service/MakeService
// plumbing to a plain net.Listener accept loop, the Go idiom the teacher's
// own internal/indexing and internal/mcp packages use for small
// request/response listeners). Interface only, per SPEC_FULL.md's
// non-goals: no retry, no auth, a single request/response per connection.
package editor

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/standardbeagle/notegraphd/internal/diag"
	"github.com/standardbeagle/notegraphd/internal/notes"
)

var logComponent = diag.Component("editor")

// noteItem is the wire shape of one notes.NoteItem: id, title, and the
// owning file's virtual path, matching the original's NoteItem { id, title,
// path }.
type noteItem struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Path  string    `json:"path"`
}

// request is the sealed tag union the original's #[serde(tag = "tag",
// content = "content")] Message<G> enum encodes; Go has no tagged-union
// sugar, so the tag is decoded first and the content re-decoded by hand.
type request struct {
	Tag     string          `json:"tag"`
	Content json.RawMessage `json:"content,omitempty"`
}

type getNotesResponse struct {
	Items []noteItem `json:"items"`
}

type focusNoteRequest struct {
	ID uuid.UUID `json:"id"`
}

type response struct {
	Tag     string `json:"tag"`
	Content any    `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Server accepts editor-control connections and answers get_notes/focus_note
// requests against a notes.Service.
type Server struct {
	listener net.Listener
	service  *notes.Service

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// Listen starts a Server bound to addr (e.g. "127.0.0.1:0").
func Listen(addr string, service *notes.Service) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{listener: ln, service: service, stopCh: make(chan struct{})}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops accepting connections and waits for in-flight ones to finish.
func (s *Server) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.listener.Close()
	})
	s.wg.Wait()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				logComponent.Logf("accept error: %v", err)
				return
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// handleConn reads exactly one newline-delimited request and writes exactly
// one newline-delimited response, matching the original's single
// read-then-write-then-close shape.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		logComponent.Logf("read error: %v", err)
		return
	}

	var req request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		s.reply(conn, response{Tag: "error", Error: "malformed request: " + err.Error()})
		return
	}

	resp := s.dispatch(req)
	s.reply(conn, resp)
}

func (s *Server) dispatch(req request) response {
	switch req.Tag {
	case "get_notes":
		items := s.service.GetNotes()
		out := make([]noteItem, 0, len(items))
		for _, it := range items {
			out = append(out, noteItem{ID: it.ID, Title: it.Title, Path: it.OwnerFile.String()})
		}
		return response{Tag: "get_notes", Content: getNotesResponse{Items: out}}
	case "focus_note":
		var fn focusNoteRequest
		if err := json.Unmarshal(req.Content, &fn); err != nil {
			return response{Tag: "error", Error: "malformed focus_note content: " + err.Error()}
		}
		s.service.FocusNote(fn.ID)
		return response{Tag: "focus_note"}
	default:
		return response{Tag: "error", Error: "unknown request tag: " + req.Tag}
	}
}

func (s *Server) reply(conn net.Conn, resp response) {
	buf, err := json.Marshal(resp)
	if err != nil {
		logComponent.Logf("marshal response: %v", err)
		return
	}
	buf = append(buf, '\n')
	if _, err := conn.Write(buf); err != nil {
		logComponent.Logf("write response: %v", err)
	}
}
