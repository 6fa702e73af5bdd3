package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vango-dev/livepatch/pkg/protocol"
	"github.com/vango-dev/livepatch/pkg/render"
	"github.com/vango-dev/livepatch/pkg/store"
)

// Texts pushed by the script execution demos.
const (
	AlertText      = "Hello from the server!"
	ConsoleLogText = "Hello from the server console!"
)

// writePage renders a full document. Pages are plain HTML, not patches.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, build func() (string, error)) {
	doc, err := build()
	if err != nil {
		s.logger.Error("render page failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprint(w, doc)
}

// readSignals answers 400 or 413 itself and returns ok=false when the
// request signals cannot be read.
func (s *Server) readSignals(w http.ResponseWriter, r *http.Request) (protocol.Signals, bool) {
	signals, err := ReadSignals(r, s.config.MaxBodyBytes)
	switch {
	case err == nil:
		return signals, true
	case errors.Is(err, ErrBodyTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
	s.logger.Debug("rejected signals", "path", r.URL.Path, "error", err)
	return nil, false
}

// sendResult answers a store operation. Validation failures become the
// error signal patch, unknown items become 404.
func (s *Server) sendResult(w http.ResponseWriter, r *http.Request, frames []protocol.Frame, err error) {
	var verr *store.ValidationError
	switch {
	case err == nil:
		s.sendFrames(w, r, frames)
	case errors.As(err, &verr):
		s.sendFrames(w, r, []protocol.Frame{verr.Frame()})
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		s.logger.Error("operation failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Pages

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, render.IndexDocument)
}

func (s *Server) handleTodosPage(w http.ResponseWriter, r *http.Request) {
	page := s.todos.PageData()
	s.writePage(w, r, func() (string, error) { return render.TodoDocument(page) })
}

func (s *Server) handleCounterPage(w http.ResponseWriter, r *http.Request) {
	page := s.counter.PageData()
	s.writePage(w, r, func() (string, error) { return render.CounterDocument(page) })
}

// Todos

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	signals, ok := s.readSignals(w, r)
	if !ok {
		return
	}
	text, _ := signals.String(store.NewTodoTextSignal)
	frames, err := s.todos.Create(text)
	s.sendResult(w, r, frames, err)
}

func (s *Server) handleToggleTodo(w http.ResponseWriter, r *http.Request) {
	frames, err := s.todos.Toggle(chi.URLParam(r, "id"))
	s.sendResult(w, r, frames, err)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	frames, removed := s.todos.Delete(id)
	if len(frames) == 0 {
		http.Error(w, store.ErrNotFound.Error(), http.StatusNotFound)
		return
	}
	if !removed {
		s.logger.Debug("delete of unknown todo", "id", id)
	}
	s.sendFrames(w, r, frames)
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	frames, err := s.todos.SetFilter(chi.URLParam(r, "filter"))
	s.sendResult(w, r, frames, err)
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	frames, n := s.todos.ClearCompleted()
	s.logger.Debug("cleared completed todos", "removed", n)
	s.sendFrames(w, r, frames)
}

// Counter

func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	s.sendFrames(w, r, s.counter.Increment())
}

func (s *Server) handleDecrement(w http.ResponseWriter, r *http.Request) {
	s.sendFrames(w, r, s.counter.Decrement())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.sendFrames(w, r, s.counter.Reset())
}

func (s *Server) handleUpdateMessage(w http.ResponseWriter, r *http.Request) {
	signals, ok := s.readSignals(w, r)
	if !ok {
		return
	}
	msg, _ := signals.String(store.MessageSignal)
	s.sendFrames(w, r, s.counter.UpdateMessage(msg))
}

func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	s.sendFrames(w, r, s.counter.Alert(AlertText))
}

func (s *Server) handleConsoleLog(w http.ResponseWriter, r *http.Request) {
	s.sendFrames(w, r, s.counter.ConsoleLog(ConsoleLogText))
}

// handleTimeStream pushes the server time until the tick budget is spent or
// the client goes away.
func (s *Server) handleTimeStream(w http.ResponseWriter, r *http.Request) {
	stream, err := s.openSSE(w)
	if err != nil {
		s.logger.Error("open stream failed", "path", r.URL.Path, "error", err)
		return
	}
	defer stream.Close()

	if s.metrics != nil {
		defer s.metrics.StreamOpened()()
	}

	err = s.runTimeStream(r.Context(), stream)
	switch {
	case err == nil:
	case r.Context().Err() != nil:
		s.logger.Debug("time stream client disconnected", "path", r.URL.Path)
	default:
		sent, _ := stream.Stats()
		s.logStreamError(r, &StreamError{Route: r.URL.Path, Frames: sent, Err: err})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}
