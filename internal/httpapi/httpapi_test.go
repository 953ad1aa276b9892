package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dapurpos/backend/internal/domain"
	"dapurpos/backend/internal/service"
	"dapurpos/backend/internal/store/memory"
)

func newTestAPI(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-secret")
	t.Setenv("SEED_CASHIER_PASSWORD", "cashier-secret")

	repo := memory.NewSeeded()
	svc := service.New(repo, nil, nil)
	auth := NewAuthManager(repo, "test-secret", time.Hour)
	return New(svc, auth, "*").Handler()
}

func do(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()
	rec := do(t, handler, http.MethodPost, "/api/login", "", domain.LoginRequest{Username: username, Password: password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	handler := newTestAPI(t)

	rec := do(t, handler, http.MethodPost, "/api/login", "", domain.LoginRequest{Username: "admin", Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthAndRoles(t *testing.T) {
	handler := newTestAPI(t)

	if rec := do(t, handler, http.MethodGet, "/api/products", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	cashier := login(t, handler, "cashier", "cashier-secret")
	product := domain.ProductCreateRequest{
		Name: "Sate Ayam", Type: domain.ProductTypePrepared, CostCents: 800, PriceCents: 2000,
	}
	if rec := do(t, handler, http.MethodPost, "/api/products", cashier, product); rec.Code != http.StatusForbidden {
		t.Fatalf("cashier create product: status = %d, want 403", rec.Code)
	}

	admin := login(t, handler, "admin", "admin-secret")
	if rec := do(t, handler, http.MethodPost, "/api/products", admin, product); rec.Code != http.StatusCreated {
		t.Fatalf("admin create product: status = %d body %s", rec.Code, rec.Body.String())
	}
	// Cashiers can still read the catalog.
	if rec := do(t, handler, http.MethodGet, "/api/products", cashier, nil); rec.Code != http.StatusOK {
		t.Fatalf("cashier list products: status = %d", rec.Code)
	}
}

func TestOrderFlowOverHTTP(t *testing.T) {
	handler := newTestAPI(t)
	admin := login(t, handler, "admin", "admin-secret")

	rec := do(t, handler, http.MethodPost, "/api/products", admin, domain.ProductCreateRequest{
		Name: "Gado Gado", Type: domain.ProductTypePrepared, CostCents: 900, PriceCents: 2200,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: status = %d body %s", rec.Code, rec.Body.String())
	}
	var product domain.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &product); err != nil {
		t.Fatalf("decode product: %v", err)
	}

	rec = do(t, handler, http.MethodPost, "/api/orders", admin, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCash,
		Items:         []domain.OrderItemRequest{{ProductID: product.ID, Qty: 2}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: status = %d body %s", rec.Code, rec.Body.String())
	}
	var order domain.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.TotalCents != 4400 {
		t.Errorf("total = %d, want 4400", order.TotalCents)
	}

	// Illegal jump is a conflict.
	rec = do(t, handler, http.MethodPatch, "/api/orders/"+order.ID+"/status", admin,
		domain.OrderStatusUpdateRequest{Status: domain.OrderStatusCompleted})
	if rec.Code != http.StatusConflict {
		t.Fatalf("pending->completed: status = %d, want 409", rec.Code)
	}

	rec = do(t, handler, http.MethodPatch, "/api/orders/"+order.ID+"/status", admin,
		domain.OrderStatusUpdateRequest{Status: domain.OrderStatusPreparing})
	if rec.Code != http.StatusOK {
		t.Fatalf("pending->preparing: status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, handler, http.MethodGet, "/api/orders/"+order.ID+"/receipt?format=thermal", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("receipt: status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("receipt content type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), order.Number) {
		t.Error("receipt does not mention the order number")
	}
}

func TestLastAdminCannotBeDeactivated(t *testing.T) {
	handler := newTestAPI(t)
	admin := login(t, handler, "admin", "admin-secret")

	rec := do(t, handler, http.MethodPatch, "/api/users/admin/active", admin, map[string]bool{"active": false})
	if rec.Code != http.StatusConflict {
		t.Fatalf("deactivate last admin: status = %d, want 409", rec.Code)
	}

	// A cashier account can be deactivated freely.
	rec = do(t, handler, http.MethodPatch, "/api/users/cashier/active", admin, map[string]bool{"active": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate cashier: status = %d body %s", rec.Code, rec.Body.String())
	}
	rec = do(t, handler, http.MethodPost, "/api/login", "", domain.LoginRequest{Username: "cashier", Password: "cashier-secret"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("deactivated login: status = %d, want 401", rec.Code)
	}
}

func TestLoginAttemptLimiter(t *testing.T) {
	handler := newTestAPI(t)

	for i := 0; i < 5; i++ {
		rec := do(t, handler, http.MethodPost, "/api/login", "", domain.LoginRequest{Username: "admin", Password: "wrong"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i, rec.Code)
		}
	}
	rec := do(t, handler, http.MethodPost, "/api/login", "", domain.LoginRequest{Username: "admin", Password: "wrong"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("throttled attempt: status = %d, want 429", rec.Code)
	}
}

func TestBackupExportImportOverHTTP(t *testing.T) {
	handler := newTestAPI(t)
	admin := login(t, handler, "admin", "admin-secret")
	cashier := login(t, handler, "cashier", "cashier-secret")

	if rec := do(t, handler, http.MethodGet, "/api/backup/export", cashier, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("cashier export: status = %d, want 403", rec.Code)
	}

	rec := do(t, handler, http.MethodGet, "/api/backup/export", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status = %d body %s", rec.Code, rec.Body.String())
	}
	var doc domain.BackupDocument
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if doc.Version != domain.BackupVersion {
		t.Errorf("version = %d, want %d", doc.Version, domain.BackupVersion)
	}

	rec = do(t, handler, http.MethodPost, "/api/backup/import", admin, doc)
	if rec.Code != http.StatusOK {
		t.Fatalf("import: status = %d body %s", rec.Code, rec.Body.String())
	}

	doc.Version = 42
	rec = do(t, handler, http.MethodPost, "/api/backup/import", admin, doc)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("import v42: status = %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestAPI(t)
	if rec := do(t, handler, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: status = %d", rec.Code)
	}
}
