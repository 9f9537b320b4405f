package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RecordedRequest is one request received by an APIServer.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// APIServer stands in for a vendor chat endpoint. Every request gets the same
// canned JSON response; requests are recorded for later inspection.
type APIServer struct {
	*httptest.Server

	status   int
	response string

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewAPIServer starts a server answering with status and response. It is
// closed when the test ends.
func NewAPIServer(t *testing.T, status int, response string) *APIServer {
	t.Helper()
	s := &APIServer{status: status, response: response}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *APIServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.status)
	_, _ = w.Write([]byte(s.response))
}

// Requests returns a copy of the requests received so far.
func (s *APIServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request, failing the test if there was none.
func (s *APIServer) LastRequest(t *testing.T) RecordedRequest {
	t.Helper()
	reqs := s.Requests()
	if len(reqs) == 0 {
		t.Fatal("no request received")
	}
	return reqs[len(reqs)-1]
}

// DecodeLast unmarshals the body of the most recent request into v.
func (s *APIServer) DecodeLast(t *testing.T, v any) {
	t.Helper()
	req := s.LastRequest(t)
	if err := json.Unmarshal(req.Body, v); err != nil {
		t.Fatalf("failed to decode request body: %v\n%s", err, truncateForError(string(req.Body)))
	}
}
