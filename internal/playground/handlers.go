package playground

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/compiler/irgen"
	"github.com/wirec-lang/wirec/internal/tooling"
)

// defaultName is used in diagnostics when a request does not name its schema
const defaultName = "playground.wire"

// CompileRequest is the body of /api/compile and /api/ir, and a message on
// the live socket
type CompileRequest struct {
	Name   string `json:"name,omitempty"`
	Source string `json:"source"`
	// Shape limits /api/ir to codec shapes
	Shape bool `json:"shape,omitempty"`
}

// CompileResponse reports diagnostics and, for clean schemas, the outputs
type CompileResponse struct {
	OK          bool              `json:"ok"`
	Hash        string            `json:"hash"`
	Diagnostics errors.ErrorList  `json:"diagnostics"`
	Outputs     map[string]string `json:"outputs,omitempty"`
}

// IRResponse carries the codec listing of a clean schema
type IRResponse struct {
	OK          bool             `json:"ok"`
	Diagnostics errors.ErrorList `json:"diagnostics"`
	IR          *irgen.Listing   `json:"ir,omitempty"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		renderRequestError(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.compile(req)
	if err != nil {
		renderRequestError(w, r, http.StatusInternalServerError, err)
		return
	}
	renderJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIR(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		renderRequestError(w, r, http.StatusBadRequest, err)
		return
	}

	result := s.compiler.Compile(req.Name, req.Source)
	resp := &IRResponse{OK: result.OK(), Diagnostics: diagnostics(result)}
	if result.Program != nil {
		listing := result.Program.List(req.Shape)
		resp.IR = &listing
	}
	renderJSON(w, http.StatusOK, resp)
}

// compile runs the pipeline and emits outputs when the schema is clean
func (s *Server) compile(req *CompileRequest) (*CompileResponse, error) {
	result := s.compiler.Compile(req.Name, req.Source)
	resp := &CompileResponse{
		OK:          result.OK(),
		Hash:        result.Hash,
		Diagnostics: diagnostics(result),
	}
	if !resp.OK {
		return resp, nil
	}

	files, err := s.compiler.Emit(result)
	if err != nil {
		return nil, err
	}
	resp.Outputs = files
	return resp, nil
}

// diagnostics never returns nil so clients always see an array
func diagnostics(r *tooling.Result) errors.ErrorList {
	if r.Diagnostics == nil {
		return errors.ErrorList{}
	}
	return r.Diagnostics
}

func decodeRequest(r *http.Request) (*CompileRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if len(body) > MaxSourceBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", MaxSourceBytes)
	}
	return parseRequest(body)
}

// parseRequest accepts a JSON CompileRequest, or raw schema text for any
// body that does not look like JSON
func parseRequest(body []byte) (*CompileRequest, error) {
	req := &CompileRequest{}
	if strings.HasPrefix(strings.TrimSpace(string(body)), "{") {
		if err := json.Unmarshal(body, req); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
	} else {
		req.Source = string(body)
	}
	if req.Name == "" {
		req.Name = defaultName
	}
	return req, nil
}

func renderJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func renderError(w http.ResponseWriter, status int, err error) {
	renderJSON(w, status, &ErrorResponse{
		Error:   errorCodeFromStatus(status),
		Message: err.Error(),
	})
}

func renderRequestError(w http.ResponseWriter, r *http.Request, status int, err error) {
	renderJSON(w, status, &ErrorResponse{
		Error:     errorCodeFromStatus(status),
		Message:   err.Error(),
		RequestID: GetRequestID(r.Context()),
	})
}

func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "internal_server_error"
	}
}
