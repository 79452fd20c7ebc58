package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	marketplace "github.com/easonnong/nft-marketplace/contexts/trading/marketplace"
	markethttp "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/transport/http"
)

func newTestServer(t *testing.T) (*Server, marketplace.Module) {
	t.Helper()
	module := marketplace.NewInMemoryModule("marketplace", nil)
	return New(module, nil, ":0"), module
}

func doRequest(t *testing.T, s *Server, method, target, caller string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if caller != "" {
		req.Header.Set("X-User-Id", caller)
	}
	recorder := httptest.NewRecorder()
	s.mux.ServeHTTP(recorder, req)
	return recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) markethttp.ErrorResponse {
	t.Helper()
	var resp markethttp.ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", recorder.Body.String(), err)
	}
	return resp
}

func TestServerRequiresCallerHeader(t *testing.T) {
	server, _ := newTestServer(t)

	recorder := doRequest(t, server, http.MethodPost, "/market/listings", "", markethttp.CreateListingRequest{
		AssetContract: "0xabc", AssetID: 1, Price: 10,
	})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if resp := decodeError(t, recorder); resp.Code != "missing_user" {
		t.Fatalf("expected missing_user, got %q", resp.Code)
	}
}

func TestServerRejectsMalformedAssetID(t *testing.T) {
	server, _ := newTestServer(t)

	recorder := doRequest(t, server, http.MethodGet, "/market/listings/0xabc/not-a-number", "", nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if resp := decodeError(t, recorder); resp.Code != "invalid_asset_id" {
		t.Fatalf("expected invalid_asset_id, got %q", resp.Code)
	}
}

func TestServerListingLifecycleOverHTTP(t *testing.T) {
	server, module := newTestServer(t)
	module.Assets.Mint("0xabc", 1, "alice")
	module.Assets.Approve("0xabc", 1, "marketplace")
	module.Bank.Deposit("bob", 500)

	recorder := doRequest(t, server, http.MethodPost, "/market/listings", "alice", markethttp.CreateListingRequest{
		AssetContract: "0xabc", AssetID: 1, Price: 100,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create listing: expected 201, got %d body %s", recorder.Code, recorder.Body.String())
	}

	recorder = doRequest(t, server, http.MethodPost, "/market/listings", "alice", markethttp.CreateListingRequest{
		AssetContract: "0xabc", AssetID: 1, Price: 120,
	})
	if recorder.Code != http.StatusConflict {
		t.Fatalf("duplicate listing: expected 409, got %d", recorder.Code)
	}
	if resp := decodeError(t, recorder); resp.Code != "already_listed" {
		t.Fatalf("expected already_listed, got %q", resp.Code)
	}

	recorder = doRequest(t, server, http.MethodGet, "/market/listings/0xabc/1", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("get listing: expected 200, got %d", recorder.Code)
	}
	var getResp markethttp.GetListingResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &getResp); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if getResp.Item.Seller != "alice" || getResp.Item.Price != 100 {
		t.Fatalf("unexpected listing payload: %+v", getResp.Item)
	}

	recorder = doRequest(t, server, http.MethodPost, "/market/listings/0xabc/1/buy", "bob", markethttp.BuyListingRequest{PaymentAmount: 50})
	if recorder.Code != http.StatusConflict {
		t.Fatalf("underpaid buy: expected 409, got %d", recorder.Code)
	}
	if resp := decodeError(t, recorder); resp.Code != "price_not_met" {
		t.Fatalf("expected price_not_met, got %q", resp.Code)
	}

	recorder = doRequest(t, server, http.MethodPost, "/market/listings/0xabc/1/buy", "bob", markethttp.BuyListingRequest{PaymentAmount: 100})
	if recorder.Code != http.StatusOK {
		t.Fatalf("buy: expected 200, got %d body %s", recorder.Code, recorder.Body.String())
	}
	var buyResp markethttp.BuyListingResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &buyResp); err != nil {
		t.Fatalf("decode buy response: %v", err)
	}
	if buyResp.Buyer != "bob" || buyResp.Price != 100 {
		t.Fatalf("unexpected buy payload: %+v", buyResp)
	}

	recorder = doRequest(t, server, http.MethodGet, "/market/listings/0xabc/1", "", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("sold listing: expected 404, got %d", recorder.Code)
	}

	recorder = doRequest(t, server, http.MethodGet, "/market/proceeds", "alice", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("get proceeds: expected 200, got %d", recorder.Code)
	}
	var proceedsResp markethttp.GetProceedsResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &proceedsResp); err != nil {
		t.Fatalf("decode proceeds: %v", err)
	}
	if proceedsResp.Balance != 100 {
		t.Fatalf("expected 100 proceeds, got %d", proceedsResp.Balance)
	}

	recorder = doRequest(t, server, http.MethodPost, "/market/proceeds/withdraw", "alice", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("withdraw: expected 200, got %d", recorder.Code)
	}
	var withdrawResp markethttp.WithdrawProceedsResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &withdrawResp); err != nil {
		t.Fatalf("decode withdrawal: %v", err)
	}
	if withdrawResp.Amount != 100 {
		t.Fatalf("expected 100 withdrawn, got %d", withdrawResp.Amount)
	}

	recorder = doRequest(t, server, http.MethodPost, "/market/proceeds/withdraw", "alice", nil)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("empty withdraw: expected 409, got %d", recorder.Code)
	}
	if resp := decodeError(t, recorder); resp.Code != "no_proceeds" {
		t.Fatalf("expected no_proceeds, got %q", resp.Code)
	}
}

func TestServerCancelAndUpdateRoutes(t *testing.T) {
	server, module := newTestServer(t)
	module.Assets.Mint("0xabc", 2, "alice")
	module.Assets.Approve("0xabc", 2, "marketplace")

	recorder := doRequest(t, server, http.MethodPost, "/market/listings", "alice", markethttp.CreateListingRequest{
		AssetContract: "0xabc", AssetID: 2, Price: 40,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create listing: expected 201, got %d", recorder.Code)
	}

	recorder = doRequest(t, server, http.MethodPatch, "/market/listings/0xabc/2", "bob", markethttp.UpdateListingRequest{NewPrice: 80})
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("foreign update: expected 403, got %d", recorder.Code)
	}
	if resp := decodeError(t, recorder); resp.Code != "not_owner" {
		t.Fatalf("expected not_owner, got %q", resp.Code)
	}

	recorder = doRequest(t, server, http.MethodPatch, "/market/listings/0xabc/2", "alice", markethttp.UpdateListingRequest{NewPrice: 80})
	if recorder.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", recorder.Code)
	}

	recorder = doRequest(t, server, http.MethodDelete, "/market/listings/0xabc/2", "alice", nil)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("cancel: expected 204, got %d", recorder.Code)
	}

	recorder = doRequest(t, server, http.MethodDelete, "/market/listings/0xabc/2", "alice", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("double cancel: expected 404, got %d", recorder.Code)
	}
}
