// Package rpc serves the contracts over JSON-RPC. Methods are named
// <module>_<method>, e.g. bridge_native_withdraw or feer_get_fee_tokens, and
// take the method arguments as the first parameter and an optional
// InvocationParams as the second. Outgoing calls are drained after every
// state-changing request; calls to other contracts stay pending until they
// are resolved with calls_resolve.
package rpc

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"bridgecore/core/async"
	"bridgecore/core/types"
	"bridgecore/observability"
	"bridgecore/observability/logging"
	"bridgecore/observability/metrics"
	telemetry "bridgecore/observability/otel"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError      = -32700
	codeInvalidRequest  = -32600
	codeMethodNotFound  = -32601
	codeInvalidParams   = -32602
	codeUnauthorized    = -32001
	codeForbiddenCaller = -32003
	codeServerError     = -32000
)

const moduleCalls = "calls"

// Contract is a contract instance the server dispatches to.
type Contract interface {
	Account() types.AccountID
	Load() error
	Invoke(ctx context.Context, inv types.Invocation, method string, params json.RawMessage) (any, error)
}

type ServerConfig struct {
	// AuthToken guards state-changing methods. Empty disables the check.
	AuthToken    string
	MaxBodyBytes int64
	Logger       *slog.Logger
}

type Server struct {
	queue     *async.Queue
	authToken string
	maxBody   int64
	logger    *slog.Logger

	// mu serialises contract execution; the contracts assume one operation
	// at a time.
	mu        sync.Mutex
	contracts map[string]Contract
}

func NewServer(cfg ServerConfig, queue *async.Queue) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = maxRequestBytes
	}
	return &Server{
		queue:     queue,
		authToken: strings.TrimSpace(cfg.AuthToken),
		maxBody:   maxBody,
		logger:    logger.With(slog.String("component", "rpc")),
		contracts: make(map[string]Contract),
	}
}

// Register exposes c under the module prefix.
func (s *Server) Register(module string, c Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[module] = c
}

// Handler returns the HTTP routes: JSON-RPC on POST /, plus /healthz and
// /metrics.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Method(http.MethodPost, "/", otelhttp.NewHandler(http.HandlerFunc(s.handle), "bridge.rpc"))
	return r
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for module, c := range s.contracts {
		if err := c.Load(); err != nil {
			http.Error(w, fmt.Sprintf("%s: %v", module, err), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, s.maxBody)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", s.maxBody)
			observability.ModuleMetrics().RecordRejection("body_too_large")
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	module, method, _ := strings.Cut(req.Method, "_")
	if !isReadOnly(module, method) {
		if authErr := s.requireAuth(r); authErr != nil {
			observability.ModuleMetrics().RecordRejection("unauthorized")
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
	}

	ctx, span := telemetry.Tracer().Start(r.Context(), "rpc."+req.Method)
	defer span.End()
	span.SetAttributes(attribute.String("rpc.method", req.Method))

	start := time.Now()
	result, rpcErr := s.dispatch(ctx, module, method, req)
	code := 0
	if rpcErr != nil {
		code = rpcErr.Code
		span.SetStatus(codes.Error, rpcErr.Message)
	}
	observability.ModuleMetrics().Observe(module, method, code, time.Since(start))

	if rpcErr != nil {
		status := http.StatusOK
		switch rpcErr.Code {
		case codeInvalidParams:
			status = http.StatusBadRequest
		case codeMethodNotFound:
			status = http.StatusNotFound
		case codeForbiddenCaller:
			status = http.StatusForbidden
		}
		s.logger.Warn("rpc request failed",
			slog.String("method", req.Method),
			slog.Int("code", rpcErr.Code),
			slog.String("error", rpcErr.Message))
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, result)
}

// isReadOnly reports whether a method only reads state and may skip auth.
func isReadOnly(module, method string) bool {
	if module == moduleCalls {
		return method == "pending" || method == "get"
	}
	return strings.HasPrefix(method, "get_") || strings.HasPrefix(method, "is_")
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		s.logger.Warn("rpc credentials rejected",
			slog.String("remote", r.RemoteAddr),
			logging.MaskField("token", token))
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

func (s *Server) dispatch(ctx context.Context, module, method string, req *RPCRequest) (any, *RPCError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if module == moduleCalls {
		return s.dispatchCalls(ctx, method, req)
	}
	c, ok := s.contracts[module]
	if !ok || method == "" {
		return nil, &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method %s", req.Method)}
	}

	var args json.RawMessage
	if len(req.Params) > 0 && !isNull(req.Params[0]) {
		args = req.Params[0]
	}
	var inv InvocationParams
	if len(req.Params) > 1 {
		if err := json.Unmarshal(req.Params[1], &inv); err != nil {
			return nil, &RPCError{Code: codeInvalidParams, Message: "invalid invocation parameter", Data: err.Error()}
		}
	}
	if s.servesAccount(inv.Caller) {
		return nil, &RPCError{Code: codeForbiddenCaller, Message: "caller is a contract served by this node", Data: inv.Caller.String()}
	}

	result, err := c.Invoke(ctx, inv.invocation(), method, args)
	if !isReadOnly(module, method) {
		s.drain(ctx)
	}
	if err != nil {
		return nil, contractError(err)
	}
	return result, nil
}

// servesAccount reports whether account belongs to a registered contract.
// Those only act through the call queue. Callers must hold s.mu.
func (s *Server) servesAccount(account types.AccountID) bool {
	if account.IsEmpty() {
		return false
	}
	for _, c := range s.contracts {
		if c.Account() == account {
			return true
		}
	}
	return false
}

func (s *Server) dispatchCalls(ctx context.Context, method string, req *RPCRequest) (any, *RPCError) {
	switch method {
	case "pending":
		return s.queue.Pending(), nil
	case "get":
		var params CallIDRequest
		if rpcErr := decodeFirst(req, &params); rpcErr != nil {
			return nil, rpcErr
		}
		call, ok := s.queue.Get(params.ID)
		if !ok {
			return nil, &RPCError{Code: codeServerError, Message: fmt.Sprintf("unknown call %s", params.ID)}
		}
		return call, nil
	case "resolve":
		var params ResolveRequest
		if rpcErr := decodeFirst(req, &params); rpcErr != nil {
			return nil, rpcErr
		}
		res := async.Success(nil)
		if params.Error != "" {
			res = async.Failure(errors.New(params.Error))
		} else if len(params.Value) > 0 && !isNull(params.Value) {
			res = async.Success(params.Value)
		}
		out := ResolveResult{Resolved: params.ID}
		if err := s.queue.Resolve(params.ID, res); err != nil {
			if errors.Is(err, async.ErrUnknownCall) {
				return nil, &RPCError{Code: codeServerError, Message: err.Error()}
			}
			out.CallbackError = err.Error()
		}
		out.Executed = s.drain(ctx)
		return out, nil
	default:
		return nil, &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method %s_%s", moduleCalls, method)}
	}
}

// drain runs every call the process can execute itself and refreshes the
// pending gauge. Callback failures are logged, the request that caused them
// already succeeded.
func (s *Server) drain(ctx context.Context) int {
	n, err := s.queue.Drain(ctx)
	if err != nil {
		s.logger.Warn("async callbacks failed", slog.Any("error", err))
	}
	metrics.Contracts().SetPendingCalls(len(s.queue.Pending()))
	return n
}

func decodeFirst(req *RPCRequest, out any) *RPCError {
	if len(req.Params) == 0 {
		return &RPCError{Code: codeInvalidParams, Message: "parameter required"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid parameter", Data: err.Error()}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func contractError(err error) *RPCError {
	switch {
	case errors.Is(err, async.ErrUnknownMethod):
		return &RPCError{Code: codeMethodNotFound, Message: err.Error()}
	case errors.Is(err, async.ErrInvalidArgs):
		return &RPCError{Code: codeInvalidParams, Message: err.Error()}
	default:
		return &RPCError{Code: codeServerError, Message: err.Error()}
	}
}
