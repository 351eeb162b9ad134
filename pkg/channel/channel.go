// Package channel serves clipboard operations as newline-delimited JSON
// requests and responses, one call per line, answered in order.
package channel

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"

	"clipkind/pkg/errors"
	"clipkind/pkg/logger"
)

// Request is one method call.
type Request struct {
	ID        string          `json:"id"`
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Response carries either Result or Error. A successful call with no
// content has a literal null result.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody is the wire form of a typed failure.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Handler runs one method. args is the raw "arguments" value and may be nil.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

type Server struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewServer() *Server {
	return &Server{handlers: map[string]Handler{}}
}

func (s *Server) Register(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Methods lists registered method names, sorted.
func (s *Server) Methods() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.handlers))
	for m := range s.handlers {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Serve reads requests from r until EOF or ctx is cancelled and writes one
// response line per request to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := enc.Encode(s.handleLine(ctx, line)); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

func (s *Server) handleLine(ctx context.Context, line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{Error: toErrorBody(errors.NewWithError(errors.KindInvalidArgument, "Malformed request", err))}
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	return s.Call(ctx, req)
}

// Call dispatches a single request.
func (s *Server) Call(ctx context.Context, req Request) Response {
	log := logger.With(req.Method).With().Str("call_id", req.ID).Logger()

	s.mu.RLock()
	h, ok := s.handlers[req.Method]
	s.mu.RUnlock()
	if !ok {
		log.Debug().Msg("unknown method")
		return Response{ID: req.ID, Error: toErrorBody(errors.NotImplemented(req.Method))}
	}

	result, err := h(withCallID(ctx, req.ID), req.Arguments)
	if err != nil {
		log.Debug().Err(err).Msg("call failed")
		return Response{ID: req.ID, Error: toErrorBody(err)}
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return Response{ID: req.ID, Error: toErrorBody(errors.NewWithError(errors.KindGeneral, "Failed to encode result", err))}
	}
	return Response{ID: req.ID, Result: raw}
}

func toErrorBody(err error) *ErrorBody {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return &ErrorBody{Code: string(errors.KindGeneral), Message: err.Error()}
	}
	body := &ErrorBody{Code: string(e.Kind), Message: e.Message}
	if e.Underlying != nil {
		body.Details = e.Underlying.Error()
	}
	return body
}

// decodeArgs unmarshals optional arguments into v. Absent or null
// arguments leave v untouched.
func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return errors.NewWithError(errors.KindInvalidArgument, "Invalid arguments", err)
	}
	return nil
}
