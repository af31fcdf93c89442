package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	"htmleditor/internal/auth"
	"htmleditor/internal/clean"
	"htmleditor/internal/config"
	"htmleditor/internal/cursor"
	"htmleditor/internal/editor"
	"htmleditor/internal/export"
	"htmleditor/internal/grid"
	"htmleditor/internal/live"
	"htmleditor/internal/mutation"
	"htmleditor/internal/session"
	"htmleditor/internal/util"
)

var log = commonlog.GetLogger("htmleditor.app")

// SessionInfo is returned when a session is created.
type SessionInfo struct {
	ID        string        `json:"id"`
	Token     string        `json:"token"`
	ViewToken string        `json:"viewToken"`
	ExpiresAt int64         `json:"expiresAt"`
	Document  editor.Status `json:"document"`
}

// MutationResult is the response to every editing request.
type MutationResult struct {
	Document editor.Status `json:"document"`
	Changed  bool          `json:"changed"`
}

type CursorInput struct {
	Offset *int           `json:"offset,omitempty"`
	Target *editor.Target `json:"target,omitempty"`
}

type SelectionInput struct {
	Action string        `json:"action"`
	Target editor.Target `json:"target"`
}

type TableInput struct {
	Target    editor.Target `json:"target"`
	Direction string        `json:"direction"`
	Confirmed bool          `json:"confirmed"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	DX        int           `json:"dx"`
	DY        int           `json:"dy"`
}

type PropertiesInput struct {
	Target     editor.Target   `json:"target"`
	Properties json.RawMessage `json:"properties"`
}

type InsertInput struct {
	Placement editor.Placement `json:"placement"`
	Insertion editor.Insertion `json:"insertion"`
}

type openDocument struct {
	doc        *editor.Document
	created    time.Time
	touched    time.Time
	unregister func()
}

// sweeper is implemented by stores that expire records lazily.
type sweeper interface {
	Sweep() int
}

// Service owns the open documents. Documents are loaded from the store on
// first use and written back after every change.
type Service struct {
	cfg      config.Config
	store    session.Store
	hub      *live.Hub
	exporter *export.Service

	mu   sync.Mutex
	docs map[string]*openDocument
}

func NewService(cfg config.Config, store session.Store, hub *live.Hub, exporter *export.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		hub:      hub,
		exporter: exporter,
		docs:     make(map[string]*openDocument),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Create opens a new session on source, or on the configured initial
// source when source is empty.
func (s *Service) Create(ctx context.Context, source string) (SessionInfo, error) {
	if strings.TrimSpace(source) == "" {
		source = s.cfg.InitialSource
	}
	id := util.NewID("ses")
	open := s.open(id, editor.New(source, s.cfg.HistoryLimit), time.Now())
	if err := s.save(ctx, id, open); err != nil {
		s.forget(id)
		return SessionInfo{}, err
	}
	doc := open.doc

	secret := []byte(s.cfg.SessionSecret)
	token, claims, err := auth.IssueSessionToken(secret, id, auth.ScopeEdit, util.NewID(""), s.cfg.SessionTTL)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("issue token: %w", err)
	}
	viewToken, _, err := auth.IssueSessionToken(secret, id, auth.ScopeView, util.NewID(""), s.cfg.SessionTTL)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("issue token: %w", err)
	}
	log.Infof("created session %s", id)
	return SessionInfo{ID: id, Token: token, ViewToken: viewToken, ExpiresAt: claims.Exp, Document: doc.Status()}, nil
}

// Authorize checks a bearer token against a session.
func (s *Service) Authorize(token, id string, write bool) error {
	if token == "" {
		return auth.ErrInvalidToken
	}
	claims, err := auth.ParseToken([]byte(s.cfg.SessionSecret), token)
	if err != nil {
		return err
	}
	return claims.Authorize(id, write)
}

func (s *Service) open(id string, doc *editor.Document, created time.Time) *openDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.docs[id]; ok {
		return existing
	}
	open := &openDocument{doc: doc, created: created, touched: time.Now(), unregister: doc.Register(s.hub.View(id))}
	s.docs[id] = open
	return open
}

func (s *Service) lookup(ctx context.Context, id string) (*openDocument, error) {
	s.mu.Lock()
	open, ok := s.docs[id]
	if ok {
		open.touched = time.Now()
	}
	s.mu.Unlock()
	if ok {
		return open, nil
	}
	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.open(id, editor.Restore(rec.Source, rec.History, s.cfg.HistoryLimit), rec.CreatedAt), nil
}

func (s *Service) document(ctx context.Context, id string) (*editor.Document, error) {
	open, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return open.doc, nil
}

func (s *Service) save(ctx context.Context, id string, open *openDocument) error {
	snap := open.doc.Snapshot()
	rec := session.Record{
		ID:        id,
		Source:    snap.Source,
		History:   open.doc.History(),
		Version:   snap.Version,
		CreatedAt: open.created,
		UpdatedAt: time.Now(),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// mutate runs fn against a session's document and stores the result when
// it changed.
func (s *Service) mutate(ctx context.Context, id string, fn func(*editor.Document) (mutation.Result, error)) (MutationResult, error) {
	open, err := s.lookup(ctx, id)
	if err != nil {
		return MutationResult{}, err
	}
	res, err := fn(open.doc)
	if err != nil {
		return MutationResult{}, err
	}
	if res.Changed {
		if err := s.save(ctx, id, open); err != nil {
			return MutationResult{}, err
		}
	}
	return MutationResult{Document: open.doc.Status(), Changed: res.Changed}, nil
}

func (s *Service) Status(ctx context.Context, id string) (editor.Status, error) {
	doc, err := s.document(ctx, id)
	if err != nil {
		return editor.Status{}, err
	}
	return doc.Status(), nil
}

// Outline returns the element tree as the tree view holds it.
func (s *Service) Outline(ctx context.Context, id string) (editor.Outline, error) {
	doc, err := s.document(ctx, id)
	if err != nil {
		return editor.Outline{}, err
	}
	return doc.Outline(), nil
}

func (s *Service) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open, ok := s.docs[id]; ok {
		open.unregister()
		delete(s.docs, id)
	}
}

// Sweep closes documents idle for at least the session TTL; the store
// still holds them until it expires them. Stores that expire lazily are
// swept too.
func (s *Service) Sweep(now time.Time) int {
	evicted := 0
	if ttl := s.cfg.SessionTTL; ttl > 0 {
		s.mu.Lock()
		for id, open := range s.docs {
			if now.Sub(open.touched) >= ttl {
				open.unregister()
				delete(s.docs, id)
				evicted++
			}
		}
		s.mu.Unlock()
	}
	if sw, ok := s.store.(sweeper); ok {
		if n := sw.Sweep(); n > 0 {
			log.Debugf("store dropped %d expired sessions", n)
		}
	}
	if evicted > 0 {
		log.Infof("evicted %d idle documents", evicted)
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

func (s *Service) Close(ctx context.Context, id string) error {
	s.forget(id)
	s.hub.Close(id)
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	log.Infof("closed session %s", id)
	return nil
}

func (s *Service) EditSource(ctx context.Context, id, source string) (MutationResult, error) {
	return s.mutate(ctx, id, func(d *editor.Document) (mutation.Result, error) {
		return d.EditText(source)
	})
}

func (s *Service) Undo(ctx context.Context, id string) (MutationResult, error) {
	return s.mutate(ctx, id, (*editor.Document).Undo)
}

func (s *Service) Redo(ctx context.Context, id string) (MutationResult, error) {
	return s.mutate(ctx, id, (*editor.Document).Redo)
}

func (s *Service) Clear(ctx context.Context, id string) (MutationResult, error) {
	return s.mutate(ctx, id, (*editor.Document).Clear)
}

func (s *Service) Clean(ctx context.Context, id string, options map[string]bool) (MutationResult, error) {
	opts, err := clean.ParseOptions(options)
	if err != nil {
		return MutationResult{}, err
	}
	return s.mutate(ctx, id, func(d *editor.Document) (mutation.Result, error) {
		return d.Clean(opts)
	})
}

// Cursor syncs a caret from either view. An offset comes from the text
// view, a target from the tree view.
func (s *Service) Cursor(ctx context.Context, id string, input CursorInput) (cursor.Highlight, error) {
	doc, err := s.document(ctx, id)
	if err != nil {
		return cursor.Highlight{}, err
	}
	switch {
	case input.Offset != nil:
		return doc.TextCursor(*input.Offset), nil
	case input.Target != nil:
		return doc.TreeCursor(*input.Target)
	}
	return cursor.Highlight{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset or target is required", nil)
}

func (s *Service) Selection(ctx context.Context, id string, input SelectionInput) (editor.Selection, error) {
	doc, err := s.document(ctx, id)
	if err != nil {
		return editor.Selection{}, err
	}
	switch input.Action {
	case "", "select":
		return doc.Select(input.Target)
	case "extend":
		return doc.ExtendSelection(input.Target)
	case "clear":
		doc.ClearSelection()
		return doc.Selection(), nil
	}
	return editor.Selection{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown selection action", map[string]any{"action": input.Action})
}

// TableOp runs one table command.
func (s *Service) TableOp(ctx context.Context, id, op string, input TableInput) (MutationResult, error) {
	dir := grid.Down
	if input.Direction != "" {
		parsed, err := grid.ParseDirection(input.Direction)
		if err != nil {
			return MutationResult{}, err
		}
		dir = parsed
	}
	var fn func(*editor.Document) (mutation.Result, error)
	switch op {
	case "insert-row":
		fn = func(d *editor.Document) (mutation.Result, error) { return d.InsertRow(input.Target, dir) }
	case "insert-column":
		if input.Direction == "" {
			dir = grid.Right
		}
		fn = func(d *editor.Document) (mutation.Result, error) { return d.InsertColumn(input.Target, dir) }
	case "delete-row":
		fn = func(d *editor.Document) (mutation.Result, error) { return d.DeleteRow(input.Target) }
	case "delete-column":
		fn = func(d *editor.Document) (mutation.Result, error) { return d.DeleteColumn(input.Target) }
	case "delete-table":
		fn = func(d *editor.Document) (mutation.Result, error) { return d.DeleteTable(input.Target, input.Confirmed) }
	case "merge":
		fn = (*editor.Document).MergeSelection
	case "merge-directional":
		fn = func(d *editor.Document) (mutation.Result, error) { return d.MergeDirectional(input.Target, dir) }
	case "split":
		fn = func(d *editor.Document) (mutation.Result, error) { return d.SplitCell(input.Target) }
	case "split-directional":
		fn = func(d *editor.Document) (mutation.Result, error) { return d.SplitDirectional(input.Target, dir) }
	case "resize":
		fn = func(d *editor.Document) (mutation.Result, error) {
			return d.Resize(input.Target, input.Width, input.Height, input.DX, input.DY)
		}
	default:
		return MutationResult{}, domainError(http.StatusNotFound, "NOT_FOUND", "Unknown table operation", map[string]any{"op": op})
	}
	return s.mutate(ctx, id, fn)
}

// ReadProperties returns the property panel of kind for a target.
func (s *Service) ReadProperties(ctx context.Context, id, kind string, target editor.Target) (any, error) {
	doc, err := s.document(ctx, id)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "cell":
		return doc.CellProperties(target)
	case "row":
		return doc.RowProperties(target)
	case "table":
		return doc.TableProperties(target)
	case "button":
		return doc.ButtonProperties(target)
	}
	return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Unknown property panel", map[string]any{"kind": kind})
}

// ApplyProperties applies a property panel. Omitted fields start from the
// target's current values.
func (s *Service) ApplyProperties(ctx context.Context, id, kind string, input PropertiesInput) (MutationResult, error) {
	current, err := s.ReadProperties(ctx, id, kind, input.Target)
	if err != nil {
		return MutationResult{}, err
	}
	decode := func(v any) error {
		if len(input.Properties) == 0 {
			return nil
		}
		if err := json.Unmarshal(input.Properties, v); err != nil {
			return domainError(http.StatusBadRequest, "INVALID_BODY", "invalid properties", nil)
		}
		return nil
	}
	var fn func(*editor.Document) (mutation.Result, error)
	switch p := current.(type) {
	case editor.CellProperties:
		if err := decode(&p); err != nil {
			return MutationResult{}, err
		}
		fn = func(d *editor.Document) (mutation.Result, error) { return d.SetCellProperties(input.Target, p) }
	case editor.RowProperties:
		if err := decode(&p); err != nil {
			return MutationResult{}, err
		}
		fn = func(d *editor.Document) (mutation.Result, error) { return d.SetRowProperties(input.Target, p) }
	case editor.TableProperties:
		if err := decode(&p); err != nil {
			return MutationResult{}, err
		}
		fn = func(d *editor.Document) (mutation.Result, error) { return d.SetTableProperties(input.Target, p) }
	case editor.ButtonProperties:
		if err := decode(&p); err != nil {
			return MutationResult{}, err
		}
		fn = func(d *editor.Document) (mutation.Result, error) { return d.SetButtonProperties(input.Target, p) }
	}
	return s.mutate(ctx, id, fn)
}

func (s *Service) Insert(ctx context.Context, id string, input InsertInput) (MutationResult, error) {
	return s.mutate(ctx, id, func(d *editor.Document) (mutation.Result, error) {
		return d.Insert(input.Placement, input.Insertion)
	})
}

func (s *Service) Export(ctx context.Context, id string, format export.Format, title string) (*export.Result, error) {
	doc, err := s.document(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.exporter.Export(ctx, export.Request{Title: title, Source: doc.Source(), Format: format})
}

// ServeLive attaches a websocket client to a session.
func (s *Service) ServeLive(w http.ResponseWriter, r *http.Request, id string) error {
	doc, err := s.document(r.Context(), id)
	if err != nil {
		return err
	}
	s.hub.Serve(w, r, id, doc.Snapshot)
	return nil
}
