package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lumapos/backend/internal/cache"
	"lumapos/backend/internal/domain"
	"lumapos/backend/internal/service"
	"lumapos/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.New()
	svc := service.New(repo, cache.NoopReceiptCache{}, domain.ReceiptStore{
		Name:     "Luma Test Store",
		Currency: "EGP",
	}, 5*time.Minute)
	auth := NewAuthManager("test-secret-key", time.Hour, 24*time.Hour, repo)

	return New(svc, auth, "*")
}

var registerSeq int

// registerUser registers a fresh user through the API and returns its access
// token. Each call uses a distinct client address so the register rate
// limiter never trips inside a test.
func registerUser(t *testing.T, api *API, email string, role string) string {
	t.Helper()

	payload, _ := json.Marshal(domain.RegisterRequest{
		Email:    email,
		Password: "super-secret",
		FullName: "User " + email,
		Role:     role,
	})
	registerSeq++
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = fmt.Sprintf("10.0.%d.%d:4000", registerSeq/250, registerSeq%250)
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (body: %s)", email, rec.Code, rec.Body.String())
	}

	var resp domain.AuthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.Tokens.AccessToken
}

func doJSON(t *testing.T, api *API, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func createProduct(t *testing.T, api *API, ownerToken, code string, price float64, stock int) domain.Product {
	t.Helper()

	rec := doJSON(t, api, http.MethodPost, "/api/v1/products", ownerToken, map[string]any{
		"code":  code,
		"name":  "Product " + code,
		"price": price,
		"stock": stock,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Product domain.Product `json:"product"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	return resp.Product
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin(t *testing.T) {
	api := newTestAPI(t)
	registerUser(t, api, "owner@test.local", "OWNER")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{
		Email:    "owner@test.local",
		Password: "super-secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp domain.AuthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Tokens.AccessToken == "" {
		t.Fatalf("expected access token in response")
	}

	rec = doJSON(t, api, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{
		Email:    "owner@test.local",
		Password: "wrongpassword",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRefreshAndLogoutEndpoints(t *testing.T) {
	api := newTestAPI(t)
	registerUser(t, api, "owner@test.local", "OWNER")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{
		Email:    "owner@test.local",
		Password: "super-secret",
	})
	var login domain.AuthResponse
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	rec = doJSON(t, api, http.MethodPost, "/api/v1/auth/refresh", "", domain.RefreshRequest{
		RefreshToken: login.Tokens.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	// The consumed token is gone; a second refresh fails.
	rec = doJSON(t, api, http.MethodPost, "/api/v1/auth/refresh", "", domain.RefreshRequest{
		RefreshToken: login.Tokens.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh: expected 401, got %d", rec.Code)
	}

	// Logout never reveals whether the token existed.
	rec = doJSON(t, api, http.MethodPost, "/api/v1/auth/logout", "", domain.LogoutRequest{
		RefreshToken: "never-issued",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
}

func TestProductEndpointsRequireAuth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestProductCRUDOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	owner := registerUser(t, api, "owner@test.local", "OWNER")
	cashier := registerUser(t, api, "cashier@test.local", "CASHIER")

	p := createProduct(t, api, owner, "SKU1", 24.00, 10)

	// Cashiers may read but not mutate.
	rec := doJSON(t, api, http.MethodGet, "/api/v1/products/"+p.ID, cashier, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get product: expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, api, http.MethodPost, "/api/v1/products", cashier, map[string]any{
		"code": "SKU2", "name": "Nope", "price": 1.00, "stock": 1,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cashier create: expected 403, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, http.MethodGet, "/api/v1/products/code/SKU1", cashier, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get by code: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, api, http.MethodPatch, "/api/v1/products/"+p.ID, owner, map[string]any{
		"name": "Renamed",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	// Duplicate codes collide.
	rec = doJSON(t, api, http.MethodPost, "/api/v1/products", owner, map[string]any{
		"code": "SKU1", "name": "Clone", "price": 1.00, "stock": 1,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate code: expected 409, got %d", rec.Code)
	}

	rec = doJSON(t, api, http.MethodDelete, "/api/v1/products/"+p.ID, owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, api, http.MethodGet, "/api/v1/products/"+p.ID, owner, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", rec.Code)
	}
}

func TestSaleLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	owner := registerUser(t, api, "owner@test.local", "OWNER")
	cashier := registerUser(t, api, "cashier@test.local", "CASHIER")

	p := createProduct(t, api, owner, "SKU1", 12.50, 10)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/sales", cashier, map[string]any{
		"items":          []map[string]any{{"product_id": p.ID, "qty": 3}},
		"payment_method": "CASH",
		"paid_amount":    40.00,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sale: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var created struct {
		Sale    domain.Sale    `json:"sale"`
		Receipt domain.Receipt `json:"receipt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode sale: %v", err)
	}
	if created.Sale.Total.String() != "37.50" {
		t.Fatalf("total = %s, want 37.50", created.Sale.Total)
	}
	if created.Sale.ChangeAmount == nil || created.Sale.ChangeAmount.String() != "2.50" {
		t.Fatalf("change = %v, want 2.50", created.Sale.ChangeAmount)
	}
	if created.Receipt.ReceiptID != created.Sale.ID || created.Receipt.ReceiptNo != created.Sale.ReceiptNo {
		t.Fatalf("create response receipt = %s/%s, want one assembled for sale %s (%s)",
			created.Receipt.ReceiptID, created.Receipt.ReceiptNo, created.Sale.ID, created.Sale.ReceiptNo)
	}
	if created.Receipt.Total.String() != "37.50" {
		t.Fatalf("receipt total = %s, want 37.50", created.Receipt.Total)
	}

	rec = doJSON(t, api, http.MethodGet, "/api/v1/sales/"+created.Sale.ID, cashier, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get sale: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, api, http.MethodGet, "/api/v1/sales/"+created.Sale.ID+"/receipt", cashier, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get receipt: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var receiptResp struct {
		Receipt domain.Receipt `json:"receipt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&receiptResp); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receiptResp.Receipt.ReceiptNo != created.Sale.ReceiptNo {
		t.Fatalf("receipt no = %s, want %s", receiptResp.Receipt.ReceiptNo, created.Sale.ReceiptNo)
	}

	rec = doJSON(t, api, http.MethodGet, "/api/v1/sales/today", cashier, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sales today: expected 200, got %d", rec.Code)
	}

	// Deleting a sale is owner-only.
	rec = doJSON(t, api, http.MethodDelete, "/api/v1/sales/"+created.Sale.ID, cashier, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cashier delete sale: expected 403, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, api, http.MethodDelete, "/api/v1/sales/"+created.Sale.ID, owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner delete sale: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, api, http.MethodGet, "/api/v1/sales/"+created.Sale.ID, owner, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted sale: expected 404, got %d", rec.Code)
	}
}

func TestSaleByCodeOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	owner := registerUser(t, api, "owner@test.local", "OWNER")
	createProduct(t, api, owner, "SKU1", 8.00, 10)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/sales/by-code", owner, map[string]any{
		"code":           "SKU1",
		"qty":            2,
		"payment_method": "CARD",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("sale by code: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var created struct {
		Sale    domain.Sale    `json:"sale"`
		Receipt domain.Receipt `json:"receipt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode sale: %v", err)
	}
	if created.Sale.Total.String() != "16.00" {
		t.Fatalf("total = %s, want 16.00", created.Sale.Total)
	}
	if created.Receipt.ReceiptNo != created.Sale.ReceiptNo {
		t.Fatalf("receipt no = %s, want %s", created.Receipt.ReceiptNo, created.Sale.ReceiptNo)
	}

	rec = doJSON(t, api, http.MethodPost, "/api/v1/sales/by-code", owner, map[string]any{
		"code":           "NOPE",
		"qty":            1,
		"payment_method": "CARD",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown code: expected 404, got %d", rec.Code)
	}
}

func TestSaleErrorMapping(t *testing.T) {
	api := newTestAPI(t)
	owner := registerUser(t, api, "owner@test.local", "OWNER")
	p := createProduct(t, api, owner, "SKU1", 5.00, 2)

	// Insufficient stock.
	rec := doJSON(t, api, http.MethodPost, "/api/v1/sales", owner, map[string]any{
		"items":          []map[string]any{{"product_id": p.ID, "qty": 5}},
		"payment_method": "CASH",
		"paid_amount":    25.00,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("insufficient stock: expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	// Underpayment.
	rec = doJSON(t, api, http.MethodPost, "/api/v1/sales", owner, map[string]any{
		"items":          []map[string]any{{"product_id": p.ID, "qty": 1}},
		"payment_method": "CASH",
		"paid_amount":    1.00,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("underpayment: expected 400, got %d", rec.Code)
	}

	// Discount above subtotal.
	rec = doJSON(t, api, http.MethodPost, "/api/v1/sales", owner, map[string]any{
		"items":          []map[string]any{{"product_id": p.ID, "qty": 1}},
		"discount":       100.00,
		"payment_method": "CASH",
		"paid_amount":    5.00,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("excess discount: expected 400, got %d", rec.Code)
	}

	// Unknown fields are rejected.
	rec = doJSON(t, api, http.MethodPost, "/api/v1/sales", owner, map[string]any{
		"items":          []map[string]any{{"product_id": p.ID, "qty": 1}},
		"payment_method": "CASH",
		"paid_amount":    5.00,
		"surprise":       true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: expected 400, got %d", rec.Code)
	}
}

func TestReportsAreOwnerOnly(t *testing.T) {
	api := newTestAPI(t)
	owner := registerUser(t, api, "owner@test.local", "OWNER")
	cashier := registerUser(t, api, "cashier@test.local", "CASHIER")

	rec := doJSON(t, api, http.MethodGet, "/api/v1/reports/daily", cashier, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cashier daily report: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, api, http.MethodGet, "/api/v1/reports/daily", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner daily report: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, http.MethodGet, "/api/v1/reports/monthly?month=2026-13", owner, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad month: expected 400, got %d", rec.Code)
	}
}

func TestWorkHoursOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	cashier := registerUser(t, api, "cashier@test.local", "CASHIER")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/work-hours", cashier, map[string]any{
		"date":         "2026-03-14",
		"shift1_start": "09:00",
		"shift1_end":   "13:00",
		"shift2_start": "14:00",
		"shift2_end":   "18:00",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert work day: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var upserted struct {
		WorkDay domain.WorkDay `json:"work_day"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&upserted); err != nil {
		t.Fatalf("decode work day: %v", err)
	}
	if upserted.WorkDay.TotalMinutes != 480 {
		t.Fatalf("total minutes = %d, want 480", upserted.WorkDay.TotalMinutes)
	}

	rec = doJSON(t, api, http.MethodGet, "/api/v1/work-hours?date=2026-03-14", cashier, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get work day: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, http.MethodGet, "/api/v1/work-hours/monthly?month=2026-03", cashier, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("monthly summary: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var summary domain.WorkMonthSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalMinutes != 480 || summary.DaysWorked != 1 {
		t.Fatalf("summary = %+v, want 480 minutes over 1 day", summary)
	}
}
