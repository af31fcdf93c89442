package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"htmleditor/internal/mutation"
)

func dial(t *testing.T, h *Hub, snapshot func() mutation.Snapshot) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, "s1", snapshot)
	}))
	t.Cleanup(srv.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func fixed(s mutation.Snapshot) func() mutation.Snapshot {
	return func() mutation.Snapshot { return s }
}

func TestInitThenUpdate(t *testing.T) {
	h := NewHub("*")
	conn := dial(t, h, fixed(mutation.Snapshot{Source: "<p>a</p>", Version: 3}))

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Op != "init" || msg.Update == nil || msg.Update.Source != "<p>a</p>" || msg.Update.Version != 3 {
		t.Fatalf("init = %+v", msg)
	}
	if h.Clients("s1") != 1 {
		t.Fatalf("clients = %d", h.Clients("s1"))
	}

	// No edits, so the client cannot patch and gets the whole source.
	h.View("s1").Publish(mutation.Update{Version: 4, Source: "<p>b</p>", Origin: mutation.OriginTextView})
	h.View("other").Publish(mutation.Update{Version: 9, Source: "x"})
	msg = Message{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Op != "update" || msg.Session != "s1" || msg.Update.Version != 4 || msg.Update.Origin != mutation.OriginTextView {
		t.Fatalf("update = %+v", msg)
	}
}

func TestPipelineDrivesHubWithPatches(t *testing.T) {
	h := NewHub("")
	p := mutation.NewPipeline("<p>a</p>")
	p.Register(h.View("s1"))
	conn := dial(t, h, p.Snapshot)

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	text := msg.Update.Source
	if _, err := p.Commit(mutation.ReplaceSource("<p>ab</p>"), mutation.OriginTextView); err != nil {
		t.Fatal(err)
	}
	msg = Message{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Op != "patch" || msg.Patch == nil || msg.Patch.Version != 2 {
		t.Fatalf("patch = %+v", msg)
	}
	got, err := mutation.ApplyEdits(text, msg.Patch.Edits)
	if err != nil || got != "<p>ab</p>" {
		t.Fatalf("edits produced %q (%v)", got, err)
	}
}

func TestInitTakenAfterRegistration(t *testing.T) {
	h := NewHub("*")
	p := mutation.NewPipeline("<p>a</p>")
	p.Register(h.View("s1"))
	conn := dial(t, h, func() mutation.Snapshot {
		// A commit landing while the client connects.
		if _, err := p.Commit(mutation.ReplaceSource("<p>b</p>"), mutation.OriginTextView); err != nil {
			t.Error(err)
		}
		return p.Snapshot()
	})

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Op != "init" || msg.Update.Source != "<p>b</p>" || msg.Update.Version != 2 {
		t.Fatalf("init = %+v", msg)
	}
	if _, err := p.Commit(mutation.ReplaceSource("<p>c</p>"), mutation.OriginTextView); err != nil {
		t.Fatal(err)
	}
	msg = Message{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Op != "patch" || msg.Patch.Version != 3 {
		t.Fatalf("expected the version 2 update to be skipped, got %+v", msg)
	}
}

func TestBroadcastDropsFullClient(t *testing.T) {
	h := NewHub("*")
	c := newClient(nil, 1)
	h.add("s1", c)

	done := make(chan struct{})
	go func() {
		for v := int64(1); v <= 3; v++ {
			h.Broadcast("s1", mutation.Update{Version: v})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a client that is not reading")
	}
	if h.Clients("s1") != 0 {
		t.Fatalf("clients = %d", h.Clients("s1"))
	}
}

func TestOriginCheck(t *testing.T) {
	h := NewHub("https://editor.example")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, "s1", fixed(mutation.Snapshot{}))
	}))
	defer srv.Close()
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("resp = %v", resp)
	}
}
