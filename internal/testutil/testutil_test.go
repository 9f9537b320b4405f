package testutil

import (
	"net/http"
	"strings"
	"testing"
)

func TestStripANSI(t *testing.T) {
	got := StripANSI("\x1b[1;32mok\x1b[0m done")
	if got != "ok done" {
		t.Fatalf("StripANSI=%q", got)
	}
}

func TestAssertOrder(t *testing.T) {
	AssertOrder(t, "Du: a\nAssistent: b\n", "Du:", "a", "Assistent:", "b")
}

func TestAPIServerRecordsRequests(t *testing.T) {
	srv := NewAPIServer(t, http.StatusTeapot, `{"ok":true}`)

	resp, err := http.Post(srv.URL+"/v1/messages", "application/json", strings.NewReader(`{"model":"m"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	req := srv.LastRequest(t)
	if req.Method != http.MethodPost || req.Path != "/v1/messages" {
		t.Fatalf("request=%s %s", req.Method, req.Path)
	}
	var body struct {
		Model string `json:"model"`
	}
	srv.DecodeLast(t, &body)
	if body.Model != "m" {
		t.Fatalf("model=%q", body.Model)
	}
}
