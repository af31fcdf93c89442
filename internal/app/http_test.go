package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"htmleditor/internal/config"
	"htmleditor/internal/export"
	"htmleditor/internal/live"
	"htmleditor/internal/mutation"
	"htmleditor/internal/session"
)

// pingStore lets a test fail the readiness check.
type pingStore struct {
	*session.MemoryStore
	pingFn func(context.Context) error
}

func (p *pingStore) Ping(ctx context.Context) error {
	if p.pingFn != nil {
		return p.pingFn(ctx)
	}
	return nil
}

func testConfig() config.Config {
	return config.Config{
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		HistoryLimit:  50,
		CORSOrigin:    "*",
		PandocPath:    "pandoc",
		ChromeTimeout: time.Second,
	}
}

func newTestService(store session.Store) *Service {
	return NewService(testConfig(), store, live.NewHub("*"), export.NewService(time.Second, "pandoc"))
}

func newTestServer(t *testing.T) (*HTTPServer, *Service) {
	t.Helper()
	svc := newTestService(session.NewMemoryStore(time.Hour))
	return NewHTTPServer(svc, "*"), svc
}

func do(t *testing.T, server *HTTPServer, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v body=%s", err, rr.Body.String())
	}
	return payload
}

func createSession(t *testing.T, server *HTTPServer, source string) SessionInfo {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"source": source})
	rr := do(t, server, http.MethodPost, "/api/sessions", "", string(body))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var info SessionInfo
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatalf("parse session: %v", err)
	}
	return info
}

func documentSource(t *testing.T, payload map[string]any) string {
	t.Helper()
	doc, ok := payload["document"].(map[string]any)
	if !ok {
		t.Fatalf("expected document in %v", payload)
	}
	source, _ := doc["source"].(string)
	return source
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	rr := do(t, server, http.MethodGet, "/api/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if ok := decode(t, rr)["ok"]; ok != true {
		t.Fatalf("expected ok=true, got %v", ok)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header")
	}
}

func TestReadyEndpoint(t *testing.T) {
	store := &pingStore{MemoryStore: session.NewMemoryStore(time.Hour)}
	server := NewHTTPServer(newTestService(store), "*")

	rr := do(t, server, http.MethodGet, "/api/ready", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	store.pingFn = func(context.Context) error { return errors.New("connection refused") }
	rr = do(t, server, http.MethodGet, "/api/ready", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	if status := decode(t, rr)["status"]; status != "not_ready" {
		t.Fatalf("expected not_ready, got %v", status)
	}
}

func TestCleanOptionsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	rr := do(t, server, http.MethodGet, "/api/clean/options", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	payload := decode(t, rr)
	options, _ := payload["options"].([]any)
	defaults, _ := payload["defaults"].(map[string]any)
	if len(options) == 0 || len(options) != len(defaults) {
		t.Fatalf("expected matching option list and defaults, got %d and %d", len(options), len(defaults))
	}
}

func TestCreateEditUndoRedo(t *testing.T) {
	server, _ := newTestServer(t)
	info := createSession(t, server, "<p>a</p>")
	if info.Token == "" || info.ViewToken == "" || info.ID == "" {
		t.Fatalf("expected id and tokens, got %+v", info)
	}
	if info.Document.Source != "<p>a</p>" {
		t.Fatalf("unexpected initial source %q", info.Document.Source)
	}
	base := "/api/sessions/" + info.ID

	rr := do(t, server, http.MethodPut, base+"/source", info.Token, `{"source":"<p>b</p>"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("edit: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decode(t, rr)
	if payload["changed"] != true || documentSource(t, payload) != "<p>b</p>" {
		t.Fatalf("unexpected edit result %v", payload)
	}

	rr = do(t, server, http.MethodPost, base+"/undo", info.Token, "")
	if got := documentSource(t, decode(t, rr)); got != "<p>a</p>" {
		t.Fatalf("undo: source = %q", got)
	}

	rr = do(t, server, http.MethodPost, base+"/redo", info.Token, "")
	if got := documentSource(t, decode(t, rr)); got != "<p>b</p>" {
		t.Fatalf("redo: source = %q", got)
	}

	rr = do(t, server, http.MethodPost, base+"/redo", info.Token, "")
	if rr.Code != http.StatusConflict || decode(t, rr)["code"] != "NOTHING_TO_REDO" {
		t.Fatalf("expected NOTHING_TO_REDO, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSessionRoutesRequireToken(t *testing.T) {
	server, _ := newTestServer(t)
	info := createSession(t, server, "<p>a</p>")
	base := "/api/sessions/" + info.ID

	rr := do(t, server, http.MethodGet, base, "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	rr = do(t, server, http.MethodGet, base, info.ViewToken, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected view token to read, got %d", rr.Code)
	}

	rr = do(t, server, http.MethodPut, base+"/source", info.ViewToken, `{"source":"<p>x</p>"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for write with view token, got %d", rr.Code)
	}

	other := createSession(t, server, "<p>b</p>")
	rr = do(t, server, http.MethodGet, base, other.Token, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another session's token, got %d", rr.Code)
	}
}

func TestTableRejectionMapsToConflict(t *testing.T) {
	server, _ := newTestServer(t)
	info := createSession(t, server, "<table><tr><td>a</td></tr></table>")
	base := "/api/sessions/" + info.ID

	rr := do(t, server, http.MethodPost, base+"/table/delete-row", info.Token, `{"target":{"path":"0/0/0/0"}}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decode(t, rr)["code"]; code != "last_row" {
		t.Fatalf("expected last_row, got %v", code)
	}

	rr = do(t, server, http.MethodPost, base+"/table/insert-row", info.Token, `{"target":{"path":"0/0/0/0"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("insert-row: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if got := documentSource(t, decode(t, rr)); strings.Count(got, "<tr>") != 2 {
		t.Fatalf("expected two rows, got %s", got)
	}

	rr = do(t, server, http.MethodPost, base+"/table/explode", info.Token, `{}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown op, got %d", rr.Code)
	}
}

func TestCellPropertiesRoundTrip(t *testing.T) {
	server, _ := newTestServer(t)
	info := createSession(t, server, "<table><tr><td>a</td></tr></table>")
	base := "/api/sessions/" + info.ID

	rr := do(t, server, http.MethodPost, base+"/properties/cell", info.Token,
		`{"target":{"path":"0/0/0/0"},"properties":{"backgroundColor":"#ff0000"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("apply: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if got := documentSource(t, decode(t, rr)); !strings.Contains(got, "background-color: #ff0000;") {
		t.Fatalf("expected background in %s", got)
	}

	rr = do(t, server, http.MethodGet, base+"/properties/cell?path=0/0/0/0", info.Token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("read: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	props, _ := decode(t, rr)["properties"].(map[string]any)
	if props["backgroundColor"] != "#ff0000" {
		t.Fatalf("unexpected properties %v", props)
	}

	rr = do(t, server, http.MethodGet, base+"/properties/cell?path=9", info.Token, "")
	if rr.Code != http.StatusNotFound || decode(t, rr)["code"] != "NODE_NOT_FOUND" {
		t.Fatalf("expected NODE_NOT_FOUND, got %d", rr.Code)
	}
}

func TestInsertAppendsToDocument(t *testing.T) {
	server, _ := newTestServer(t)
	info := createSession(t, server, "<p>a</p>")
	base := "/api/sessions/" + info.ID

	rr := do(t, server, http.MethodPost, base+"/insert/hr", info.Token, `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if got := documentSource(t, decode(t, rr)); got != "<p>a</p><hr>" {
		t.Fatalf("source = %q", got)
	}

	rr = do(t, server, http.MethodPost, base+"/insert/link", info.Token, `{}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for link without href, got %d", rr.Code)
	}
}

func TestCleanUnknownOption(t *testing.T) {
	server, _ := newTestServer(t)
	info := createSession(t, server, "<p>a</p>")

	rr := do(t, server, http.MethodPost, "/api/sessions/"+info.ID+"/clean", info.Token, `{"options":{"bogus":true}}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decode(t, rr)["code"]; code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", code)
	}
}

func TestCursorRequiresOffsetOrTarget(t *testing.T) {
	server, _ := newTestServer(t)
	info := createSession(t, server, "<p>a</p>")
	base := "/api/sessions/" + info.ID

	rr := do(t, server, http.MethodPost, base+"/cursor", info.Token, `{}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	rr = do(t, server, http.MethodPost, base+"/cursor", info.Token, `{"offset":4}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	highlight, _ := decode(t, rr)["highlight"].(map[string]any)
	if highlight["found"] != true {
		t.Fatalf("expected a highlight, got %v", highlight)
	}
}

func TestExportHTML(t *testing.T) {
	server, _ := newTestServer(t)
	info := createSession(t, server, "<p>a</p>")

	rr := do(t, server, http.MethodGet, "/api/sessions/"+info.ID+"/export?format=html&title=Notes", info.Token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "<p>a</p>" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="Notes.html"` {
		t.Fatalf("Content-Disposition = %q", got)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("Content-Type = %q", rr.Header().Get("Content-Type"))
	}

	rr = do(t, server, http.MethodGet, "/api/sessions/"+info.ID+"/export?format=rtf", info.Token, "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown format, got %d", rr.Code)
	}
}

func TestUnknownSession(t *testing.T) {
	server, svc := newTestServer(t)
	info := createSession(t, server, "<p>a</p>")

	rr := do(t, server, http.MethodDelete, "/api/sessions/"+info.ID, info.Token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("close: expected 200, got %d", rr.Code)
	}
	if _, err := svc.Status(context.Background(), info.ID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after close, got %v", err)
	}

	rr = do(t, server, http.MethodGet, "/api/sessions/"+info.ID, info.Token, "")
	if rr.Code != http.StatusNotFound || decode(t, rr)["code"] != "SESSION_NOT_FOUND" {
		t.Fatalf("expected SESSION_NOT_FOUND, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSessionSurvivesRestart(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	first := NewHTTPServer(newTestService(store), "*")
	info := createSession(t, first, "<p>a</p>")
	do(t, first, http.MethodPut, "/api/sessions/"+info.ID+"/source", info.Token, `{"source":"<p>b</p>"}`)

	second := NewHTTPServer(newTestService(store), "*")
	rr := do(t, second, http.MethodGet, "/api/sessions/"+info.ID, info.Token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	doc, _ := decode(t, rr)["document"].(map[string]any)
	if doc["source"] != "<p>b</p>" || doc["canUndo"] != true {
		t.Fatalf("expected restored document with history, got %v", doc)
	}

	rr = do(t, second, http.MethodPost, "/api/sessions/"+info.ID+"/undo", info.Token, "")
	if got := documentSource(t, decode(t, rr)); got != "<p>a</p>" {
		t.Fatalf("undo after restart: source = %q", got)
	}
}

func TestUnknownRoute(t *testing.T) {
	server, _ := newTestServer(t)
	rr := do(t, server, http.MethodGet, "/api/nothing", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestLiveReceivesUpdates(t *testing.T) {
	server, _ := newTestServer(t)
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()
	info := createSession(t, server, "<p>a</p>")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + info.ID + "/live?token=" + info.ViewToken
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg live.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read init: %v", err)
	}
	if msg.Op != "init" || msg.Update == nil || msg.Update.Source != "<p>a</p>" {
		t.Fatalf("unexpected init %+v", msg)
	}

	do(t, server, http.MethodPut, "/api/sessions/"+info.ID+"/source", info.Token, `{"source":"<p>b</p>"}`)
	msg = live.Message{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if msg.Op != "patch" || msg.Patch == nil {
		t.Fatalf("unexpected update %+v", msg)
	}
	got, err := mutation.ApplyEdits("<p>a</p>", msg.Patch.Edits)
	if err != nil || got != "<p>b</p>" {
		t.Fatalf("patch produced %q (%v)", got, err)
	}
}

func TestSweepEvictsIdleDocuments(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	svc := newTestService(store)
	server := NewHTTPServer(svc, "*")
	info := createSession(t, server, "<p>a</p>")

	if n := svc.Sweep(time.Now()); n != 0 {
		t.Fatalf("fresh document evicted: %d", n)
	}
	if n := svc.Sweep(time.Now().Add(2 * time.Hour)); n != 1 {
		t.Fatalf("Sweep = %d, want 1", n)
	}
	svc.mu.Lock()
	open := len(svc.docs)
	svc.mu.Unlock()
	if open != 0 {
		t.Fatalf("open documents = %d", open)
	}

	// The stored record is still live, so the next request reopens it.
	rr := do(t, server, http.MethodGet, "/api/sessions/"+info.ID, info.Token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 after eviction, got %d", rr.Code)
	}
}

func TestSelectionAnchorIsDefaultTarget(t *testing.T) {
	server, _ := newTestServer(t)
	info := createSession(t, server, "<table><tr><td>a</td></tr></table>")
	base := "/api/sessions/" + info.ID

	rr := do(t, server, http.MethodPost, base+"/selection", info.Token, `{"target":{"path":"0/0/0/0"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("select: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	selection, _ := decode(t, rr)["selection"].(map[string]any)
	if anchor, _ := selection["anchor"].(string); anchor == "" {
		t.Fatalf("expected an anchor, got %v", selection)
	}

	rr = do(t, server, http.MethodPost, base+"/table/insert-row", info.Token, `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("insert-row: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if got := documentSource(t, decode(t, rr)); strings.Count(got, "<tr>") != 2 {
		t.Fatalf("expected two rows, got %s", got)
	}

	rr = do(t, server, http.MethodGet, base+"/properties/table", info.Token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("read table: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestOutlineTracksEdits(t *testing.T) {
	server, _ := newTestServer(t)
	info := createSession(t, server, "<p>a</p>")
	base := "/api/sessions/" + info.ID

	rr := do(t, server, http.MethodPut, base+"/source", info.Token, `{"source":"<p>a</p><ul><li>b</li></ul>"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("edit: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = do(t, server, http.MethodGet, base+"/outline", info.Token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("outline: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	outline, _ := decode(t, rr)["outline"].(map[string]any)
	nodes, _ := outline["nodes"].([]any)
	if len(nodes) != 2 || outline["version"] != float64(2) {
		t.Fatalf("outline = %v", outline)
	}
	if list, _ := nodes[1].(map[string]any); list["kind"] != "list" || list["path"] != "1" {
		t.Fatalf("list node = %v", list)
	}
}
