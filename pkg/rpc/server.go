// Package rpc exposes the deployed platform over JSON-RPC 2.0, with a
// health probe and Prometheus metrics on the same listener.
package rpc

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/stable-net/stableweb/pkg/chainweb"
)

// JSON-RPC error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
	ErrCodeRejected       = -32000
	ErrCodeUnknownChain   = -32001
)

// Version information.
const (
	ClientVersion = "stableweb/v0.1.0"
)

// Request represents a JSON-RPC request.
type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response represents a JSON-RPC response.
type Response struct {
	Jsonrpc string       `json:"jsonrpc"`
	ID      interface{}  `json:"id"`
	Result  interface{}  `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
}

// ErrorObject represents a JSON-RPC error. Reason carries the
// machine-readable rejection tag when a policy gate turns a call away.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// Server serves the platform's JSON-RPC API.
type Server struct {
	web      *chainweb.Web
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *serverMetrics
}

type serverMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newServerMetrics(reg *prometheus.Registry) *serverMetrics {
	factory := promauto.With(reg)
	return &serverMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stableweb",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "RPC requests by method and outcome.",
		}, []string{"method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stableweb",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "RPC request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// NewServer creates an RPC server over a deployed web.
func NewServer(web *chainweb.Web, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	return &Server{
		web:      web,
		logger:   logger,
		registry: registry,
		metrics:  newServerMetrics(registry),
	}
}

// Router returns the HTTP routes: JSON-RPC on POST /, a liveness probe
// on GET /health and Prometheus metrics on GET /metrics.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/", s).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"chains": s.web.ChainIDs(),
	})
}

// ServeHTTP handles JSON-RPC requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, nil, &ErrorObject{Code: ErrCodeParseError, Message: "Failed to read request body"})
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, nil, &ErrorObject{Code: ErrCodeParseError, Message: "Parse error"})
		return
	}

	start := time.Now()
	result, rpcErr := s.handleMethod(req.Method, req.Params)
	elapsed := time.Since(start)

	// Unknown methods share one metric label so callers cannot blow up
	// the label cardinality.
	methodLabel := req.Method
	status := "ok"
	if rpcErr != nil {
		status = "error"
		if rpcErr.Code == ErrCodeMethodNotFound {
			methodLabel = "unknown"
		}
	}
	s.metrics.requests.WithLabelValues(methodLabel, status).Inc()
	s.metrics.duration.WithLabelValues(methodLabel).Observe(elapsed.Seconds())

	if rpcErr != nil {
		s.logger.Debug("rpc request failed",
			zap.String("method", req.Method),
			zap.Int("code", rpcErr.Code),
			zap.String("reason", rpcErr.Reason),
			zap.String("message", rpcErr.Message),
			zap.Duration("elapsed", elapsed),
		)
		s.writeError(w, req.ID, rpcErr)
		return
	}

	s.logger.Debug("rpc request",
		zap.String("method", req.Method),
		zap.Duration("elapsed", elapsed),
	)

	// Handle nil result specially to output "null" instead of omitting
	var resp interface{}
	if result == nil {
		resp = struct {
			Jsonrpc string      `json:"jsonrpc"`
			ID      interface{} `json:"id"`
			Result  interface{} `json:"result"`
		}{
			Jsonrpc: "2.0",
			ID:      req.ID,
			Result:  nil,
		}
	} else {
		resp = Response{
			Jsonrpc: "2.0",
			ID:      req.ID,
			Result:  result,
		}
	}

	json.NewEncoder(w).Encode(resp)
}

func (s *Server) writeError(w http.ResponseWriter, id interface{}, errObj *ErrorObject) {
	resp := Response{
		Jsonrpc: "2.0",
		ID:      id,
		Error:   errObj,
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleMethod(method string, params json.RawMessage) (interface{}, *ErrorObject) {
	switch method {
	// web_* methods
	case "web_clientVersion":
		return s.webClientVersion()
	case "web_chains":
		return s.webChains()
	case "web_accounts":
		return s.webAccounts()
	case "web_relay":
		return s.webRelay(params)

	// stable_* methods
	case "stable_name":
		return s.stableName(params)
	case "stable_symbol":
		return s.stableSymbol(params)
	case "stable_decimals":
		return s.stableDecimals(params)
	case "stable_address":
		return s.stableAddress(params)
	case "stable_domainSeparator":
		return s.stableDomainSeparator(params)
	case "stable_totalSupply":
		return s.stableTotalSupply(params)
	case "stable_balanceOf":
		return s.stableBalanceOf(params)
	case "stable_nonceOf":
		return s.stableNonceOf(params)
	case "stable_allowance":
		return s.stableAllowance(params)
	case "stable_isFrozen":
		return s.stableIsFrozen(params)
	case "stable_paused":
		return s.stablePaused(params)
	case "stable_isProcessed":
		return s.stableIsProcessed(params)
	case "stable_pendingRedeems":
		return s.stablePendingRedeems(params)
	case "stable_escrowed":
		return s.stableEscrowed(params)
	case "stable_outboundTransfer":
		return s.stableOutboundTransfer(params)
	case "stable_outboundCounter":
		return s.stableOutboundCounter(params)
	case "stable_transfer":
		return s.stableTransfer(params)
	case "stable_approve":
		return s.stableApprove(params)
	case "stable_transferFrom":
		return s.stableTransferFrom(params)
	case "stable_mintWithApproval":
		return s.stableMintWithApproval(params)
	case "stable_requestRedeem":
		return s.stableRequestRedeem(params)
	case "stable_finalizeRedeem":
		return s.stableFinalizeRedeem(params)
	case "stable_transferCrossChain":
		return s.stableTransferCrossChain(params)
	case "stable_resumeCrossChain":
		return s.stableResumeCrossChain(params)

	// admin_* methods
	case "admin_freeze":
		return s.adminFreeze(params)
	case "admin_unfreeze":
		return s.adminUnfreeze(params)
	case "admin_wipeFrozen":
		return s.adminWipeFrozen(params)
	case "admin_frozenAccounts":
		return s.adminFrozenAccounts(params)
	case "admin_pause":
		return s.adminPause(params)
	case "admin_unpause":
		return s.adminUnpause(params)
	case "admin_grantRole":
		return s.adminGrantRole(params)
	case "admin_revokeRole":
		return s.adminRevokeRole(params)
	case "admin_roleMembers":
		return s.adminRoleMembers(params)
	case "admin_setRelayer":
		return s.adminSetRelayer(params)
	case "admin_relayer":
		return s.adminRelayer(params)
	case "admin_cancelRedeem":
		return s.adminCancelRedeem(params)
	case "admin_setCap":
		return s.adminSetCap(params)
	case "admin_currentCap":
		return s.adminCurrentCap(params)
	case "admin_kycApprove":
		return s.adminKYCApprove(params)
	case "admin_kycRevoke":
		return s.adminKYCRevoke(params)
	case "admin_kycList":
		return s.adminKYCList(params)
	case "admin_isKYCApproved":
		return s.adminIsKYCApproved(params)

	// dev_* methods
	case "dev_operators":
		return s.devOperators()
	case "dev_signMintApproval":
		return s.devSignMintApproval(params)
	case "dev_signRedeemFinalize":
		return s.devSignRedeemFinalize(params)
	case "dev_newRequestId":
		return s.devNewRequestID()
	case "dev_timestamp":
		return s.devTimestamp(params)
	case "dev_increaseTime":
		return s.devIncreaseTime(params)
	case "dev_setTimestamp":
		return s.devSetTimestamp(params)
	case "dev_dumpLedger":
		return s.devDumpLedger(params)
	case "dev_loadLedger":
		return s.devLoadLedger(params)
	case "dev_snapshot":
		return s.devSnapshot(params)
	case "dev_revert":
		return s.devRevert(params)

	// events_* methods
	case "events_query":
		return s.eventsQuery(params)
	case "events_count":
		return s.eventsCount(params)
	case "events_latest":
		return s.eventsLatest(params)

	default:
		return nil, &ErrorObject{Code: ErrCodeMethodNotFound, Message: "Method not found"}
	}
}

// deployment resolves the leading chainId parameter every chain-scoped
// method starts with.
func (s *Server) deployment(raw json.RawMessage) (*chainweb.Deployment, *ErrorObject) {
	id, err := decodeUint64(raw)
	if err != nil {
		return nil, invalidParams("Invalid chain id")
	}
	dep, ok := s.web.Deployment(id)
	if !ok {
		return nil, &ErrorObject{
			Code:    ErrCodeUnknownChain,
			Message: fmt.Sprintf("chain %d not deployed", id),
			Reason:  "UnknownChain",
		}
	}
	return dep, nil
}

// chainInfo summarizes one deployment for web_chains.
type chainInfo struct {
	ChainID         hexutil.Uint64 `json:"chainId"`
	Token           string         `json:"token"`
	Name            string         `json:"name"`
	Symbol          string         `json:"symbol"`
	Decimals        uint8          `json:"decimals"`
	DomainSeparator string         `json:"domainSeparator"`
	Paused          bool           `json:"paused"`
	TotalSupply     *hexutil.Big   `json:"totalSupply"`
	Escrowed        *hexutil.Big   `json:"escrowed"`
	Cap             *hexutil.Big   `json:"cap"`
}

// web_clientVersion returns the client version.
func (s *Server) webClientVersion() (interface{}, *ErrorObject) {
	return ClientVersion, nil
}

// web_chains returns a summary of every deployed chain.
func (s *Server) webChains() (interface{}, *ErrorObject) {
	deps := s.web.Deployments()
	infos := make([]chainInfo, 0, len(deps))
	for _, dep := range deps {
		separator, err := dep.Token.DomainSeparator()
		if err != nil {
			return nil, internalError(err)
		}
		infos = append(infos, chainInfo{
			ChainID:         hexutil.Uint64(dep.Chain.ID()),
			Token:           dep.Token.Address().Hex(),
			Name:            dep.Token.Name(),
			Symbol:          dep.Token.Symbol(),
			Decimals:        dep.Token.Decimals(),
			DomainSeparator: separator.Hex(),
			Paused:          dep.Token.Paused(),
			TotalSupply:     (*hexutil.Big)(dep.Token.TotalSupply()),
			Escrowed:        (*hexutil.Big)(dep.Token.Escrowed()),
			Cap:             (*hexutil.Big)(dep.Reserve.CurrentCap()),
		})
	}
	return infos, nil
}

// web_accounts returns the derived dev account addresses.
func (s *Server) webAccounts() (interface{}, *ErrorObject) {
	accounts := s.web.Accounts()
	addrs := make([]string, len(accounts))
	for i, acc := range accounts {
		addrs[i] = acc.Address.Hex()
	}
	return addrs, nil
}

// web_relay moves an outbound transfer to its target chain under the
// platform's bridge identity.
func (s *Server) webRelay(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[sourceChainId, correlationId]")
	if errObj != nil {
		return nil, errObj
	}
	sourceChain, err := decodeUint64(args[0])
	if err != nil {
		return nil, invalidParams("Invalid chain id")
	}
	correlationID, err := decodeHash(args[1])
	if err != nil {
		return nil, invalidParams("Invalid correlation id")
	}

	if err := s.web.Relay(sourceChain, correlationID); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}
