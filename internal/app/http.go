package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"htmleditor/internal/clean"
	"htmleditor/internal/editor"
	"htmleditor/internal/export"
	"htmleditor/internal/util"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"sessions": map[string]any{"status": "ok"},
		}
		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["sessions"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}
		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/clean/options" {
		writeJSON(w, http.StatusOK, map[string]any{
			"options":  clean.OptionList(),
			"defaults": clean.DefaultOptions().Map(),
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/sessions" {
		var body struct {
			Source string `json:"source"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		info, err := s.service.Create(r.Context(), body.Source)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, info)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "sessions" {
		s.handleSession(w, r, parts[2], parts[3:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request, id string, rest []string) {
	write := r.Method != http.MethodGet && r.Method != http.MethodHead
	if !s.requireSession(w, r, id, write) {
		return
	}
	ctx := r.Context()

	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			status, err := s.service.Status(ctx, id)
			if err != nil {
				s.fail(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"document": status})
		case http.MethodDelete:
			if err := s.service.Close(ctx, id); err != nil {
				s.fail(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	switch {
	case len(rest) == 1 && rest[0] == "source" && r.Method == http.MethodPut:
		var body struct {
			Source string `json:"source"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respond(w, func() (MutationResult, error) { return s.service.EditSource(ctx, id, body.Source) })

	case len(rest) == 1 && rest[0] == "cursor" && r.Method == http.MethodPost:
		var body CursorInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		highlight, err := s.service.Cursor(ctx, id, body)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"highlight": highlight})

	case len(rest) == 1 && rest[0] == "selection" && r.Method == http.MethodPost:
		var body SelectionInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		selection, err := s.service.Selection(ctx, id, body)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"selection": selection})

	case len(rest) == 2 && rest[0] == "table" && r.Method == http.MethodPost:
		var body TableInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respond(w, func() (MutationResult, error) { return s.service.TableOp(ctx, id, rest[1], body) })

	case len(rest) == 2 && rest[0] == "properties" && r.Method == http.MethodGet:
		target := editor.Target{ID: r.URL.Query().Get("id"), Path: r.URL.Query().Get("path")}
		props, err := s.service.ReadProperties(ctx, id, rest[1], target)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"properties": props})

	case len(rest) == 2 && rest[0] == "properties" && r.Method == http.MethodPost:
		var body PropertiesInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respond(w, func() (MutationResult, error) { return s.service.ApplyProperties(ctx, id, rest[1], body) })

	case len(rest) == 2 && rest[0] == "insert" && r.Method == http.MethodPost:
		var body InsertInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		body.Insertion.Kind = rest[1]
		s.respond(w, func() (MutationResult, error) { return s.service.Insert(ctx, id, body) })

	case len(rest) == 1 && rest[0] == "clean" && r.Method == http.MethodPost:
		var body struct {
			Options map[string]bool `json:"options"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respond(w, func() (MutationResult, error) { return s.service.Clean(ctx, id, body.Options) })

	case len(rest) == 1 && rest[0] == "undo" && r.Method == http.MethodPost:
		s.respond(w, func() (MutationResult, error) { return s.service.Undo(ctx, id) })

	case len(rest) == 1 && rest[0] == "redo" && r.Method == http.MethodPost:
		s.respond(w, func() (MutationResult, error) { return s.service.Redo(ctx, id) })

	case len(rest) == 1 && rest[0] == "clear" && r.Method == http.MethodPost:
		s.respond(w, func() (MutationResult, error) { return s.service.Clear(ctx, id) })

	case len(rest) == 1 && rest[0] == "outline" && r.Method == http.MethodGet:
		outline, err := s.service.Outline(ctx, id)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"outline": outline})

	case len(rest) == 1 && rest[0] == "export" && r.Method == http.MethodGet:
		format, err := export.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			s.fail(w, err)
			return
		}
		title := strings.TrimSpace(r.URL.Query().Get("title"))
		result, err := s.service.Export(ctx, id, format, title)
		if err != nil {
			s.fail(w, err)
			return
		}
		w.Header().Set("Content-Disposition", "attachment; filename=\""+result.Filename+"\"")
		w.Header().Set("Content-Type", result.MimeType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Data)

	case len(rest) == 1 && rest[0] == "live" && r.Method == http.MethodGet:
		if err := s.service.ServeLive(w, r, id); err != nil {
			s.fail(w, err)
		}

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// requireSession checks the bearer token, or the token query parameter
// for websocket clients that cannot set headers.
func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request, id string, write bool) bool {
	token := bearerToken(r)
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if err := s.service.Authorize(token, id, write); err != nil {
		s.fail(w, err)
		return false
	}
	return true
}

func (s *HTTPServer) respond(w http.ResponseWriter, fn func() (MutationResult, error)) {
	result, err := fn()
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) fail(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s: %s", code, err)
	} else {
		log.Debugf("%s: %s", code, err)
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = util.ShortID("")
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Infof(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack hands the connection to the websocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) || errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
