package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"filevault/internal/config"
	"filevault/internal/hmacauth"
	"filevault/internal/idempotency"
	"filevault/internal/nft"
)

const testSecret = "test-secret"

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Service: config.ServiceConfig{
			HTTPPort:          0,
			HMACSecret:        testSecret,
			HMACClockSkew:     time.Minute,
			IdempotencyWindow: time.Minute,
		},
	}
}

func signedRequest(t *testing.T, method, target string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Request-Timestamp", ts)
	req.Header.Set("X-Request-Signature", hmacauth.Sign(testSecret, ts, body))
	return req
}

func TestMintIdempotency(t *testing.T) {
	srv := NewServer(testConfig(), nft.NewFakeClient(), idempotency.NewMemoryStore())

	body, _ := json.Marshal(mintRequest{
		CIDHash:          "Qm123",
		EncryptedFileKey: []string{"0xdeadbeef"},
	})

	req := signedRequest(t, http.MethodPost, "/api/v1/tokens", body)
	req.Header.Set("X-Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	first := rec.Body.Bytes()

	req2 := signedRequest(t, http.MethodPost, "/api/v1/tokens", body)
	req2.Header.Set("X-Idempotency-Key", "key-1")
	rec2 := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec2, req2)

	if rec2.Code != http.StatusCreated {
		t.Fatalf("expected cached 201 got %d", rec2.Code)
	}
	if !bytes.Equal(first, rec2.Body.Bytes()) {
		t.Fatalf("expected same response body on idempotent mint")
	}

	supply, _ := srv.client.GetSupply(context.Background())
	if supply != 1 {
		t.Fatalf("expected exactly one mint, got supply %d", supply)
	}
}

func TestMintReturnsAssignedTokenID(t *testing.T) {
	stub := &stubClient{Client: nft.NewFakeClient(), mintResult: &nft.TokenDetails{TokenID: 7, CIDHash: "Qm123"}}
	srv := NewServer(testConfig(), stub, idempotency.NewMemoryStore())

	body, _ := json.Marshal(mintRequest{CIDHash: "Qm123"})
	req := signedRequest(t, http.MethodPost, "/api/v1/tokens", body)
	req.Header.Set("X-Idempotency-Key", "key-7")
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	var details nft.TokenDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &details); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if details.TokenID != 7 || details.CIDHash != "Qm123" {
		t.Fatalf("unexpected details: %+v", details)
	}
}

func TestShareEmptyRecipientsRejected(t *testing.T) {
	fc := nft.NewFakeClient()
	srv := NewServer(testConfig(), fc, idempotency.NewMemoryStore())

	td, _ := fc.MintToken(context.Background(), "QmShare", nil)

	body, _ := json.Marshal(shareRequest{To: []string{}})
	req := signedRequest(t, http.MethodPost, "/api/v1/tokens/"+strconv.FormatUint(td.TokenID, 10)+"/share", body)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty recipient list, got %d", rec.Code)
	}

	addrs, _ := fc.GetSharedWithAddresses(context.Background(), td.TokenID)
	if len(addrs) != 0 {
		t.Fatalf("expected no share side effect, got %v", addrs)
	}
}

func TestNotConnectedMapsTo503(t *testing.T) {
	stub := &stubClient{Client: nft.NewFakeClient(), err: nft.ErrNotConnected}
	srv := NewServer(testConfig(), stub, idempotency.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/supply", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}

func TestRevertMapsTo409(t *testing.T) {
	srv := NewServer(testConfig(), nft.NewFakeClient(), idempotency.NewMemoryStore())

	body, _ := json.Marshal(burnRequest{LimitSharedWith: 10})
	req := signedRequest(t, http.MethodPost, "/api/v1/tokens/42/burn", body)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reverted burn, got %d", rec.Code)
	}
}

func TestTokensInRange(t *testing.T) {
	fc := nft.NewFakeClient()
	ctx := context.Background()
	for _, cid := range []string{"QmA", "QmB", "QmC"} {
		if _, err := fc.MintToken(ctx, cid, nil); err != nil {
			t.Fatalf("mint: %v", err)
		}
	}

	srv := NewServer(testConfig(), fc, idempotency.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tokens?start=1&count=2", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var tokens []nft.TokenDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &tokens); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tokens) != 2 || tokens[0].CIDHash != "QmB" || tokens[1].CIDHash != "QmC" {
		t.Fatalf("unexpected range: %+v", tokens)
	}
}

func TestHealthDegradedOnRPCFailure(t *testing.T) {
	stub := &stubClient{Client: nft.NewFakeClient(), pingErr: errors.New("rpc unreachable")}
	srv := NewServer(testConfig(), stub, idempotency.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("degraded")) {
		t.Fatalf("expected degraded status, got %s", rec.Body.String())
	}
}

func TestUnsignedWriteRejected(t *testing.T) {
	srv := NewServer(testConfig(), nft.NewFakeClient(), idempotency.NewMemoryStore())

	body, _ := json.Marshal(mintRequest{CIDHash: "Qm123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tokens", bytes.NewReader(body))
	req.Header.Set("X-Idempotency-Key", "key-x")
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unsigned mint, got %d", rec.Code)
	}
}

// stubClient overrides selected nft.Client behavior for error-path tests.
type stubClient struct {
	nft.Client
	mintResult *nft.TokenDetails
	err        error
	pingErr    error
}

func (s *stubClient) MintToken(ctx context.Context, cidHash string, key [][]byte) (nft.TokenDetails, error) {
	if s.err != nil {
		return nft.TokenDetails{}, s.err
	}
	if s.mintResult != nil {
		return *s.mintResult, nil
	}
	return s.Client.MintToken(ctx, cidHash, key)
}

func (s *stubClient) GetSupply(ctx context.Context) (uint64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.Client.GetSupply(ctx)
}

func (s *stubClient) Ping(ctx context.Context) error {
	return s.pingErr
}
