package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"agentbounty-backend/core/bounty"
	"agentbounty-backend/middleware"
	"agentbounty-backend/services"
	storage "agentbounty-backend/storage/bounty"
)

func testPrincipal(b byte) bounty.Principal {
	var p bounty.Principal
	for i := range p {
		p[i] = b
	}
	return p
}

var (
	authority = testPrincipal(0xAA)
	creator   = testPrincipal(1)
	agent     = testPrincipal(2)
)

const reward = 100_000_000

func newTestHandler(t *testing.T) *BountyHandler {
	t.Helper()
	store := storage.NewMemoryStore()
	ctx := context.Background()
	if _, err := store.InitializeMarketplace(ctx, authority); err != nil {
		t.Fatalf("init marketplace: %v", err)
	}
	if err := store.Faucet(ctx, creator, reward*10); err != nil {
		t.Fatalf("faucet: %v", err)
	}
	return NewBountyHandler(services.NewMarketplaceService(store))
}

// do runs a request through the handler as the given principal and decodes
// the envelope.
func do(t *testing.T, handler http.HandlerFunc, method, path string, as bounty.Principal, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), as))
	w := httptest.NewRecorder()
	handler(w, req)

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w, resp
}

func createReq() map[string]interface{} {
	return map[string]interface{}{
		"title":        "index the docs site",
		"description":  "crawl and index docs.example.com",
		"requirements": "served over HTTP",
		"reward":       reward,
		"deadline":     time20300101,
	}
}

// A fixed future deadline so tests never race the wall clock.
const time20300101 = 1893456000

func TestHandleCreateAndGet(t *testing.T) {
	h := newTestHandler(t)

	w, resp := do(t, h.HandleBounties, http.MethodPost, "/api/bounties", creator, createReq())
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	data := resp["data"].(map[string]interface{})
	if data["status"] != "open" {
		t.Fatalf("status = %v, want open", data["status"])
	}

	w, resp = do(t, h.HandleBounty, http.MethodGet, "/api/bounties/0", creator, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	data = resp["data"].(map[string]interface{})
	if data["title"] != "index the docs site" {
		t.Fatalf("title = %v", data["title"])
	}

	w, _ = do(t, h.HandleBounty, http.MethodGet, "/api/bounties/99", creator, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing bounty status = %d, want 404", w.Code)
	}
}

func TestHandleCreateValidation(t *testing.T) {
	h := newTestHandler(t)

	req := createReq()
	req["reward"] = 0
	w, resp := do(t, h.HandleBounties, http.MethodPost, "/api/bounties", creator, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	errObj := resp["error"].(map[string]interface{})
	if errObj["error"] != "INVALID_REWARD" {
		t.Fatalf("error code = %v", errObj["error"])
	}
}

func TestHandleLifecycleFlow(t *testing.T) {
	h := newTestHandler(t)

	if w, _ := do(t, h.HandleBounties, http.MethodPost, "/api/bounties", creator, createReq()); w.Code != http.StatusOK {
		t.Fatalf("create: %d", w.Code)
	}

	w, _ := do(t, h.HandleBounty, http.MethodPost, "/api/bounties/0/claim", agent, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("claim: %d %s", w.Code, w.Body.String())
	}

	// Second claim conflicts.
	w, resp := do(t, h.HandleBounty, http.MethodPost, "/api/bounties/0/claim", testPrincipal(3), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("double claim status = %d, want 409", w.Code)
	}
	errObj := resp["error"].(map[string]interface{})
	if errObj["error"] != "BOUNTY_NOT_OPEN" {
		t.Fatalf("error code = %v", errObj["error"])
	}

	submit := map[string]interface{}{"completion_data": "done", "submission_url": "https://example.com/pr/1"}
	w, _ = do(t, h.HandleBounty, http.MethodPost, "/api/bounties/0/submit", agent, submit)
	if w.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}

	// Approval by a non-creator is forbidden.
	w, _ = do(t, h.HandleBounty, http.MethodPost, "/api/bounties/0/approve", agent, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("approve by agent status = %d, want 403", w.Code)
	}

	w, resp = do(t, h.HandleBounty, http.MethodPost, "/api/bounties/0/approve", creator, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", w.Code, w.Body.String())
	}
	data := resp["data"].(map[string]interface{})
	payout := data["payout"].(map[string]interface{})
	if payout["agent_payment"].(float64) != 95_000_000 || payout["platform_fee"].(float64) != 5_000_000 {
		t.Fatalf("payout = %+v", payout)
	}
}

func TestHandleReject(t *testing.T) {
	h := newTestHandler(t)

	do(t, h.HandleBounties, http.MethodPost, "/api/bounties", creator, createReq())
	do(t, h.HandleBounty, http.MethodPost, "/api/bounties/0/claim", agent, nil)
	do(t, h.HandleBounty, http.MethodPost, "/api/bounties/0/submit", agent,
		map[string]interface{}{"completion_data": "half", "submission_url": "https://example.com/pr/2"})

	w, resp := do(t, h.HandleBounty, http.MethodPost, "/api/bounties/0/reject", creator,
		map[string]interface{}{"reason": "incomplete"})
	if w.Code != http.StatusOK {
		t.Fatalf("reject: %d %s", w.Code, w.Body.String())
	}
	data := resp["data"].(map[string]interface{})
	if data["status"] != "open" || data["rejection_reason"] != "incomplete" {
		t.Fatalf("unexpected record after reject: %+v", data)
	}
}

func TestHandleListFilters(t *testing.T) {
	h := newTestHandler(t)

	for i := 0; i < 3; i++ {
		do(t, h.HandleBounties, http.MethodPost, "/api/bounties", creator, createReq())
	}
	do(t, h.HandleBounty, http.MethodPost, "/api/bounties/1/claim", agent, nil)

	w, resp := do(t, h.HandleBounties, http.MethodGet, "/api/bounties?status=open", creator, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	data := resp["data"].(map[string]interface{})
	if data["total"].(float64) != 2 {
		t.Fatalf("open total = %v, want 2", data["total"])
	}

	path := fmt.Sprintf("/api/bounties?agent=%s", agent.String())
	_, resp = do(t, h.HandleBounties, http.MethodGet, path, creator, nil)
	data = resp["data"].(map[string]interface{})
	if data["total"].(float64) != 1 {
		t.Fatalf("agent total = %v, want 1", data["total"])
	}

	w, _ = do(t, h.HandleBounties, http.MethodGet, "/api/bounties?status=bogus", creator, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad status filter = %d, want 400", w.Code)
	}
}

func TestHandleVault(t *testing.T) {
	h := newTestHandler(t)

	do(t, h.HandleBounties, http.MethodPost, "/api/bounties", creator, createReq())

	w, resp := do(t, h.HandleBounty, http.MethodGet, "/api/bounties/0/vault", creator, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("vault: %d", w.Code)
	}
	data := resp["data"].(map[string]interface{})
	if data["balance"].(float64) != reward {
		t.Fatalf("vault balance = %v, want %d", data["balance"], reward)
	}
	if data["address"] == "" {
		t.Fatal("vault address empty")
	}
}
