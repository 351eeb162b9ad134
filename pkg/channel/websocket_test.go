package channel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"clipkind/pkg/clipboard"
	"clipkind/pkg/service"
)

func TestWebSocketHandler(t *testing.T) {
	m := clipboard.NewMemory()
	m.Texts[clipboard.FormatText] = "#00ff00"

	s := NewServer()
	Register(s, service.New(m, nil, service.Options{Timeout: time.Second}))

	ts := httptest.NewServer(s.WebSocketHandler(context.Background()))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	tests := []struct {
		name    string
		request string
		check   func(t *testing.T, r Response)
	}{
		{
			name:    "classify",
			request: `{"id":"a","method":"getClipboardType"}`,
			check: func(t *testing.T, r Response) {
				if r.ID != "a" || !strings.Contains(string(r.Result), `"subType":"color"`) {
					t.Errorf("response = %+v (%s)", r, r.Result)
				}
			},
		},
		{
			name:    "unknown method",
			request: `{"id":"b","method":"setClipboard"}`,
			check: func(t *testing.T, r Response) {
				if r.Error == nil || r.Error.Code != "NOT_IMPLEMENTED" {
					t.Errorf("response = %+v", r)
				}
			},
		},
		{
			name:    "malformed",
			request: `{"id":`,
			check: func(t *testing.T, r Response) {
				if r.Error == nil || r.Error.Code != "INVALID_ARGUMENT" {
					t.Errorf("response = %+v", r)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.request)); err != nil {
				t.Fatalf("WriteMessage() error = %v", err)
			}
			var r Response
			if err := conn.ReadJSON(&r); err != nil {
				t.Fatalf("ReadJSON() error = %v", err)
			}
			tt.check(t, r)
		})
	}
}

func TestWebSocketHandler_Origin(t *testing.T) {
	m := clipboard.NewMemory()
	m.Texts[clipboard.FormatText] = "hunter2-secret"

	s := NewServer()
	Register(s, service.New(m, nil, service.Options{Timeout: time.Second}))

	ts := httptest.NewServer(s.WebSocketHandler(context.Background(), "https://tools.example/"))
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{name: "no origin", origin: "", want: true},
		{name: "same origin", origin: ts.URL, want: true},
		{name: "allowed origin", origin: "https://tools.example", want: true},
		{name: "foreign origin", origin: "https://evil.example", want: false},
		{name: "foreign localhost port", origin: "http://127.0.0.1:1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if !tt.want {
				if err == nil {
					conn.Close()
					t.Fatalf("Dial() from %s succeeded, want rejection", tt.origin)
				}
				if resp == nil || resp.StatusCode != http.StatusForbidden {
					t.Errorf("Dial() response = %v, want 403", resp)
				}
				return
			}
			if err != nil {
				t.Fatalf("Dial() error = %v", err)
			}
			conn.Close()
		})
	}
}
