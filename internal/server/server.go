package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"filevault/internal/config"
	"filevault/internal/hmacauth"
	"filevault/internal/idempotency"
	"filevault/internal/nft"

	"github.com/google/uuid"
)

// Server exposes the nft client over an authenticated HTTP API.
type Server struct {
	cfg         *config.AppConfig
	client      nft.Client
	store       idempotency.Store
	hmac        *hmacauth.Verifier
	httpServer  *http.Server
	metrics     *metricsRegistry
	dbHealthFn  func(context.Context) error
	rpcHealthFn func(context.Context) error
}

func NewServer(cfg *config.AppConfig, client nft.Client, store idempotency.Store) *Server {
	verifier := &hmacauth.Verifier{
		Secret:  cfg.Service.HMACSecret,
		MaxSkew: cfg.Service.HMACClockSkew,
	}

	s := &Server{
		cfg:     cfg,
		client:  client,
		store:   store,
		hmac:    verifier,
		metrics: newMetricsRegistry(),
	}

	if checker, ok := store.(interface{ Ping(context.Context) error }); ok {
		s.dbHealthFn = checker.Ping
	}
	if checker, ok := client.(nft.HealthChecker); ok {
		s.rpcHealthFn = checker.Ping
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/tokens", s.hmac.Middleware(http.HandlerFunc(s.handleMint)))
	mux.HandleFunc("GET /api/v1/tokens", s.handleTokensInRange)
	mux.HandleFunc("GET /api/v1/tokens/shared", s.handleSharedTokensInRange)
	mux.HandleFunc("GET /api/v1/tokens/{id}/shared-with", s.handleSharedWith)
	mux.Handle("POST /api/v1/tokens/{id}/transfer", s.hmac.Middleware(http.HandlerFunc(s.handleTransfer)))
	mux.Handle("POST /api/v1/tokens/{id}/share", s.hmac.Middleware(http.HandlerFunc(s.handleShare)))
	mux.Handle("POST /api/v1/tokens/{id}/burn", s.hmac.Middleware(http.HandlerFunc(s.handleBurn)))
	mux.Handle("POST /api/v1/tokens/{id}/reencrypt", s.hmac.Middleware(http.HandlerFunc(s.handleReencrypt)))
	mux.Handle("POST /api/v1/tokens/{id}/revoke", s.hmac.Middleware(http.HandlerFunc(s.handleRevoke)))
	mux.Handle("POST /api/v1/tokens/{id}/revoke-all", s.hmac.Middleware(http.HandlerFunc(s.handleRevokeAll)))
	mux.HandleFunc("GET /api/v1/supply", s.handleSupply)
	mux.HandleFunc("GET /api/v1/account", s.handleAccount)
	mux.Handle("GET /api/v1/metrics", s.metrics.handler())
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Service.HTTPPort),
		Handler:           requestIDMiddleware(mux),
		ReadHeaderTimeout: 15 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	log.Printf("API listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type mintRequest struct {
	CIDHash          string   `json:"cidHash"`
	EncryptedFileKey []string `json:"encryptedFileKey"` // hex-encoded chunks
}

type transferRequest struct {
	To string `json:"to"`
}

type shareRequest struct {
	To []string `json:"to"`
}

type burnRequest struct {
	LimitSharedWith uint64 `json:"limitSharedWith"`
}

type reencryptRequest struct {
	PublicKey string `json:"publicKey"` // hex-encoded
	Signature string `json:"signature"`
}

type revokeRequest struct {
	UserAddress string `json:"userAddress"`
}

type supplyResponse struct {
	Minted           uint64 `json:"minted"`
	SharedWith       uint64 `json:"sharedWith"`
	MaxUsersToRemove uint64 `json:"maxUsersToRemove"`
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := strings.TrimSpace(r.Header.Get("X-Idempotency-Key"))
	if key == "" {
		http.Error(w, "missing X-Idempotency-Key header", http.StatusBadRequest)
		return
	}

	if existing, _ := s.store.Get(ctx, key); existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.StatusCode)
		_, _ = w.Write(existing.Response)
		s.metrics.incMint("cached")
		return
	}

	var payload mintRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json payload", http.StatusBadRequest)
		return
	}
	keyMaterial, err := decodeKeyMaterial(payload.EncryptedFileKey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	details, err := s.client.MintToken(ctx, payload.CIDHash, keyMaterial)
	if err != nil {
		s.metrics.incMint("failed")
		s.writeClientError(w, "mintToken", err)
		return
	}
	s.metrics.observeTxLatency(time.Since(start))
	s.metrics.incMint("created")

	body, _ := json.Marshal(details)
	record := idempotency.Record{
		StatusCode: http.StatusCreated,
		Response:   body,
		CreatedAt:  time.Now(),
		ExpiresAt:  time.Now().Add(s.cfg.Service.IdempotencyWindow),
	}
	_ = s.store.Save(ctx, key, record)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (s *Server) handleTokensInRange(w http.ResponseWriter, r *http.Request) {
	s.rangeQuery(w, r, "getTokensInRange", s.client.GetTokensInRange)
}

func (s *Server) handleSharedTokensInRange(w http.ResponseWriter, r *http.Request) {
	s.rangeQuery(w, r, "getSharedTokensInRange", s.client.GetSharedTokensInRange)
}

func (s *Server) rangeQuery(w http.ResponseWriter, r *http.Request, op string,
	query func(context.Context, uint64, uint64) ([]nft.TokenDetails, error)) {

	start, err := queryUint(r, "start", 0)
	if err != nil {
		http.Error(w, "invalid start parameter", http.StatusBadRequest)
		return
	}
	count, err := queryUint(r, "count", 20)
	if err != nil {
		http.Error(w, "invalid count parameter", http.StatusBadRequest)
		return
	}

	tokens, err := query(r.Context(), start, count)
	if err != nil {
		s.metrics.incOp(op, "failed")
		s.writeClientError(w, op, err)
		return
	}
	s.metrics.incOp(op, "ok")
	writeJSON(w, http.StatusOK, tokens)
}

func (s *Server) handleSharedWith(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := pathTokenID(w, r)
	if !ok {
		return
	}

	addrs, err := s.client.GetSharedWithAddresses(r.Context(), tokenID)
	if err != nil {
		s.metrics.incOp("getSharedWithAddresses", "failed")
		s.writeClientError(w, "getSharedWithAddresses", err)
		return
	}
	s.metrics.incOp("getSharedWithAddresses", "ok")
	writeJSON(w, http.StatusOK, addrs)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := pathTokenID(w, r)
	if !ok {
		return
	}
	var payload transferRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json payload", http.StatusBadRequest)
		return
	}

	s.writeOp(w, r, "transferToken", func(ctx context.Context) error {
		return s.client.TransferToken(ctx, payload.To, tokenID)
	})
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := pathTokenID(w, r)
	if !ok {
		return
	}
	var payload shareRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json payload", http.StatusBadRequest)
		return
	}

	s.writeOp(w, r, "shareToken", func(ctx context.Context) error {
		return s.client.ShareToken(ctx, payload.To, tokenID)
	})
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := pathTokenID(w, r)
	if !ok {
		return
	}
	var payload burnRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json payload", http.StatusBadRequest)
		return
	}

	s.writeOp(w, r, "burnToken", func(ctx context.Context) error {
		return s.client.BurnToken(ctx, tokenID, payload.LimitSharedWith)
	})
}

func (s *Server) handleReencrypt(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := pathTokenID(w, r)
	if !ok {
		return
	}
	var payload reencryptRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json payload", http.StatusBadRequest)
		return
	}
	publicKey, err := decodeHexField(payload.PublicKey)
	if err != nil {
		http.Error(w, "invalid publicKey encoding", http.StatusBadRequest)
		return
	}

	ciphertexts, err := s.client.Reencrypt(r.Context(), tokenID, publicKey, payload.Signature)
	if err != nil {
		s.metrics.incOp("reencrypt", "failed")
		s.writeClientError(w, "reencrypt", err)
		return
	}
	s.metrics.incOp("reencrypt", "ok")
	writeJSON(w, http.StatusOK, ciphertexts)
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := pathTokenID(w, r)
	if !ok {
		return
	}
	var payload revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json payload", http.StatusBadRequest)
		return
	}

	s.writeOp(w, r, "revokeTokenAccess", func(ctx context.Context) error {
		return s.client.RevokeTokenAccess(ctx, tokenID, payload.UserAddress)
	})
}

func (s *Server) handleRevokeAll(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := pathTokenID(w, r)
	if !ok {
		return
	}
	var payload burnRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json payload", http.StatusBadRequest)
		return
	}

	s.writeOp(w, r, "revokeAllSharedAccess", func(ctx context.Context) error {
		return s.client.RevokeAllSharedAccess(ctx, tokenID, payload.LimitSharedWith)
	})
}

// writeOp runs a state-changing contract call and reports its outcome
// uniformly: 204 on confirmation, mapped error otherwise.
func (s *Server) writeOp(w http.ResponseWriter, r *http.Request, op string, call func(context.Context) error) {
	start := time.Now()
	if err := call(r.Context()); err != nil {
		s.metrics.incOp(op, "failed")
		s.writeClientError(w, op, err)
		return
	}
	s.metrics.observeTxLatency(time.Since(start))
	s.metrics.incOp(op, "ok")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSupply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	minted, err := s.client.GetSupply(ctx)
	if err != nil {
		s.writeClientError(w, "getSupply", err)
		return
	}
	shared, err := s.client.GetSharedWithSupply(ctx)
	if err != nil {
		s.writeClientError(w, "getSharedWithSupply", err)
		return
	}
	limit, err := s.client.MaxUsersToRemove(ctx)
	if err != nil {
		s.writeClientError(w, "MAX_USERS_TO_REMOVE", err)
		return
	}

	writeJSON(w, http.StatusOK, supplyResponse{
		Minted:           minted,
		SharedWith:       shared,
		MaxUsersToRemove: limit,
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"account": s.client.Account()})
}

// writeClientError maps the nft error taxonomy onto HTTP statuses: caller
// mistakes are 400, a missing connection is 503, a contract revert is 409,
// anything else reaching the chain is 502.
func (s *Server) writeClientError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s failed: %v", op, err)

	var vErr *nft.ValidationError
	var rErr *nft.RevertError
	switch {
	case errors.As(err, &vErr):
		http.Error(w, vErr.Error(), http.StatusBadRequest)
	case errors.Is(err, nft.ErrNotConnected):
		http.Error(w, "contract client unavailable", http.StatusServiceUnavailable)
	case errors.As(err, &rErr):
		http.Error(w, rErr.Error(), http.StatusConflict)
	default:
		http.Error(w, op+" failed: "+err.Error(), http.StatusBadGateway)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	overallHealthy := true

	rpcInfo := struct {
		Connected bool    `json:"connected"`
		LatencyMs float64 `json:"latency_ms"`
		Error     string  `json:"error,omitempty"`
	}{}

	if s.rpcHealthFn != nil {
		start := time.Now()
		rpcCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.rpcHealthFn(rpcCtx); err != nil {
			rpcInfo.Connected = false
			rpcInfo.Error = err.Error()
			overallHealthy = false
		} else {
			rpcInfo.Connected = true
			rpcInfo.LatencyMs = float64(time.Since(start).Microseconds()) / 1000.0
		}
	} else {
		rpcInfo.Connected = true
	}

	dbInfo := struct {
		Connected bool   `json:"connected"`
		Error     string `json:"error,omitempty"`
	}{Connected: true}

	if s.dbHealthFn != nil {
		dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.dbHealthFn(dbCtx); err != nil {
			dbInfo.Connected = false
			dbInfo.Error = err.Error()
			overallHealthy = false
		}
	}

	status := "healthy"
	code := http.StatusOK
	if !overallHealthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, struct {
		Status   string      `json:"status"`
		RPC      interface{} `json:"rpc"`
		Database interface{} `json:"database"`
	}{
		Status:   status,
		RPC:      rpcInfo,
		Database: dbInfo,
	})
}

func pathTokenID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid token id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func queryUint(r *http.Request, name string, fallback uint64) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

// decodeKeyMaterial turns the request's hex-encoded key chunks into the raw
// byte buffers the contract expects. The material stays opaque end to end.
func decodeKeyMaterial(chunks []string) ([][]byte, error) {
	material := make([][]byte, 0, len(chunks))
	for _, chunk := range chunks {
		raw, err := decodeHexField(chunk)
		if err != nil {
			return nil, errors.New("invalid encryptedFileKey encoding")
		}
		material = append(material, raw)
	}
	return material, nil
}

func decodeHexField(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-Id") == "" {
			r.Header.Set("X-Request-Id", uuid.NewString())
		}
		next.ServeHTTP(w, r)
	})
}
