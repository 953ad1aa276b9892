// Package httpapi exposes the POS over HTTP. Handlers decode, call the
// service and encode; they hold no business logic of their own.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"dapurpos/backend/internal/domain"
	"dapurpos/backend/internal/receipt"
	"dapurpos/backend/internal/service"
	"dapurpos/backend/internal/store"
)

const maxBodyBytes = 1 << 20

type API struct {
	svc    *service.Service
	auth   *AuthManager
	origin string
	mux    *http.ServeMux
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string) *API {
	a := &API{
		svc:    svc,
		auth:   auth,
		origin: allowedOrigin,
		mux:    http.NewServeMux(),
	}
	a.routes()
	return a
}

func (a *API) routes() {
	mux := a.mux

	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.HandleFunc("POST /api/login", a.handleLogin)

	mux.Handle("GET /api/products", a.requireAuth(a.handleListProducts))
	mux.Handle("POST /api/products", a.requireAuth(a.handleCreateProduct, "admin"))
	mux.Handle("PATCH /api/products/{id}", a.requireAuth(a.handleUpdateProduct, "admin"))

	mux.Handle("GET /api/categories", a.requireAuth(a.handleListCategories))
	mux.Handle("POST /api/categories", a.requireAuth(a.handleCreateCategory, "admin"))

	mux.Handle("GET /api/tables", a.requireAuth(a.handleListTables))
	mux.Handle("POST /api/tables", a.requireAuth(a.handleCreateTable, "admin"))
	mux.Handle("PATCH /api/tables/{id}/status", a.requireAuth(a.handleSetTableStatus))

	mux.Handle("POST /api/orders", a.requireAuth(a.handleCreateOrder))
	mux.Handle("GET /api/orders", a.requireAuth(a.handleListOrders))
	mux.Handle("GET /api/orders/{id}", a.requireAuth(a.handleGetOrder))
	mux.Handle("PATCH /api/orders/{id}/status", a.requireAuth(a.handleUpdateOrderStatus))
	mux.Handle("GET /api/orders/{id}/receipt", a.requireAuth(a.handleOrderReceipt))

	mux.Handle("GET /api/notifications", a.requireAuth(a.handleListNotifications))
	mux.Handle("POST /api/notifications/read-all", a.requireAuth(a.handleMarkAllNotificationsRead))
	mux.Handle("POST /api/notifications/{id}/read", a.requireAuth(a.handleMarkNotificationRead))
	mux.Handle("DELETE /api/notifications/{id}", a.requireAuth(a.handleDeleteNotification))

	mux.Handle("GET /api/summaries", a.requireAuth(a.handleListSummaries))
	mux.Handle("GET /api/summaries/{date}", a.requireAuth(a.handleGetSummary))
	mux.Handle("GET /api/reports/daily/{date}", a.requireAuth(a.handleDailyReport))

	mux.Handle("POST /api/shifts/open", a.requireAuth(a.handleOpenShift))
	mux.Handle("POST /api/shifts/close", a.requireAuth(a.handleCloseShift))
	mux.Handle("GET /api/shifts/active", a.requireAuth(a.handleActiveShift))
	mux.Handle("GET /api/shifts", a.requireAuth(a.handleListShifts, "admin"))

	mux.Handle("POST /api/reservations", a.requireAuth(a.handleCreateReservation))
	mux.Handle("GET /api/reservations", a.requireAuth(a.handleListReservations))
	mux.Handle("PATCH /api/reservations/{id}/status", a.requireAuth(a.handleReservationStatus))

	mux.Handle("GET /api/offers", a.requireAuth(a.handleListOffers))
	mux.Handle("POST /api/offers", a.requireAuth(a.handleCreateOffer, "admin"))
	mux.Handle("PATCH /api/offers/{id}", a.requireAuth(a.handleToggleOffer, "admin"))

	mux.Handle("GET /api/goals", a.requireAuth(a.handleListGoals, "admin"))
	mux.Handle("PUT /api/goals", a.requireAuth(a.handleUpsertGoal, "admin"))
	mux.Handle("GET /api/goals/{month}/progress", a.requireAuth(a.handleGoalProgress, "admin"))

	mux.Handle("POST /api/expenses", a.requireAuth(a.handleCreateExpense))
	mux.Handle("GET /api/expenses", a.requireAuth(a.handleListExpenses, "admin"))

	mux.Handle("GET /api/raw-materials", a.requireAuth(a.handleListRawMaterials))
	mux.Handle("POST /api/raw-materials", a.requireAuth(a.handleCreateRawMaterial, "admin"))
	mux.Handle("PATCH /api/raw-materials/{id}", a.requireAuth(a.handleUpdateRawMaterial, "admin"))

	mux.Handle("GET /api/settings", a.requireAuth(a.handleGetSettings))
	mux.Handle("PUT /api/settings", a.requireAuth(a.handleSaveSettings, "admin"))

	mux.Handle("GET /api/activity", a.requireAuth(a.handleListActivity, "admin"))

	mux.Handle("GET /api/backup/export", a.requireAuth(a.handleExportBackup, "admin"))
	mux.Handle("POST /api/backup/import", a.requireAuth(a.handleImportBackup, "admin"))

	mux.Handle("GET /api/users", a.requireAuth(a.handleListUsers, "admin"))
	mux.Handle("POST /api/users", a.requireAuth(a.handleCreateCashier, "admin"))
	mux.Handle("PATCH /api/users/{username}/active", a.requireAuth(a.handleSetUserActive, "admin"))
	mux.Handle("POST /api/users/{username}/password", a.requireAuth(a.handleChangePassword))
}

// Handler wraps the mux with the shared middleware chain.
func (a *API) Handler() http.Handler {
	var handler http.Handler = a.mux
	handler = a.withCORS(handler)
	handler = withSecurityHeaders(handler)
	handler = withRequestLog(handler)
	handler = withBodyLimit(handler)
	return handler
}

func withBodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[http] %s %s %s", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}

func (a *API) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", a.origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth verifies the bearer token, attaches the actor to the context
// and optionally restricts the handler to the given roles.
func (a *API) requireAuth(handler http.HandlerFunc, roles ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		actor, err := a.auth.VerifyToken(header[len(prefix):])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if len(roles) > 0 {
			allowed := false
			for _, role := range roles {
				if actor.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
		}
		handler(w, r.WithContext(service.WithActor(r.Context(), actor)))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps domain errors to HTTP statuses. Anything unmapped
// is a 500 with the detail kept out of the response body.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, store.ErrInvalidRecord),
		errors.Is(err, service.ErrUnsupportedBackupVersion):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, service.ErrNoOpenShift):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, service.ErrTableOccupied),
		errors.Is(err, service.ErrShiftAlreadyOpen),
		errors.Is(err, ErrLastAdmin):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		log.Printf("[http] internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	// A second value means trailing garbage.
	if decoder.More() {
		return errors.New("invalid JSON body: unexpected trailing data")
	}
	return nil
}

func queryTimeRange(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, fmt.Errorf("from must be RFC3339")
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, fmt.Errorf("to must be RFC3339")
		}
		to = parsed
	}
	return from, to, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	products, err := a.svc.ListProducts(r.Context(), includeInactive)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	product, err := a.svc.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	product, err := a.svc.UpdateProduct(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.svc.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (a *API) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Note string `json:"note"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := a.svc.CreateCategory(r.Context(), req.Name, req.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (a *API) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := a.svc.ListTables(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (a *API) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req domain.TableCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	table, err := a.svc.CreateTable(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, table)
}

func (a *API) handleSetTableStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	table, err := a.svc.SetTableStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := a.svc.CreateOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	orders, err := a.svc.ListOrders(r.Context(), store.OrderFilter{
		From:   from,
		To:     to,
		Status: r.URL.Query().Get("status"),
		Type:   r.URL.Query().Get("type"),
		Limit:  queryInt(r, "limit", 100),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := a.svc.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderStatusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := a.svc.UpdateOrderStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) handleOrderReceipt(w http.ResponseWriter, r *http.Request) {
	order, err := a.svc.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	settings, err := a.svc.GetSettings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var html string
	switch format := r.URL.Query().Get("format"); format {
	case "", "thermal":
		html, err = receipt.RenderThermal(order, settings)
	case "invoice":
		html, err = receipt.RenderInvoiceA5(order, settings)
	case "kitchen":
		html, err = receipt.RenderKitchenTicket(order, settings)
	default:
		writeError(w, http.StatusBadRequest, "format must be thermal, invoice or kitchen")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, html)
}

func (a *API) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	notifications, err := a.svc.ListNotifications(r.Context(), unreadOnly, queryInt(r, "limit", 50))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (a *API) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.MarkNotificationRead(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	count, err := a.svc.MarkAllNotificationsRead(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": count})
}

func (a *API) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteNotification(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.svc.GetDailySummary(r.Context(), r.PathValue("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := a.svc.ListDailySummaries(r.Context(), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (a *API) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	summary, err := a.svc.GetDailySummary(r.Context(), r.PathValue("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	settings, err := a.svc.GetSettings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	html, err := receipt.RenderDailyReport(summary, settings)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, html)
}

func (a *API) handleOpenShift(w http.ResponseWriter, r *http.Request) {
	var req domain.ShiftOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	shift, err := a.svc.OpenShift(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, shift)
}

func (a *API) handleCloseShift(w http.ResponseWriter, r *http.Request) {
	var req domain.ShiftCloseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	shift, err := a.svc.CloseShift(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (a *API) handleActiveShift(w http.ResponseWriter, r *http.Request) {
	shift, err := a.svc.GetActiveShift(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (a *API) handleListShifts(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	shifts, err := a.svc.ListShifts(r.Context(), from, to, queryInt(r, "limit", 100))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shifts)
}

func (a *API) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req domain.ReservationCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reservation, err := a.svc.CreateReservation(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

func (a *API) handleListReservations(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reservations, err := a.svc.ListReservations(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservations)
}

func (a *API) handleReservationStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.ReservationStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reservation, err := a.svc.UpdateReservationStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (a *API) handleListOffers(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	offers, err := a.svc.ListOffers(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offers)
}

func (a *API) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var req domain.OfferCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offer, err := a.svc.CreateOffer(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, offer)
}

func (a *API) handleToggleOffer(w http.ResponseWriter, r *http.Request) {
	var req domain.OfferToggleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offer, err := a.svc.ToggleOffer(r.Context(), r.PathValue("id"), req.Active)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

func (a *API) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := a.svc.ListSalesGoals(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (a *API) handleUpsertGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month             string `json:"month"`
		TargetSalesCents  int64  `json:"target_sales_cents"`
		TargetProfitCents int64  `json:"target_profit_cents"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	goal, err := a.svc.UpsertSalesGoal(r.Context(), req.Month, req.TargetSalesCents, req.TargetProfitCents)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (a *API) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := a.svc.GetGoalProgress(r.Context(), r.PathValue("month"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (a *API) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req domain.ExpenseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	expense, err := a.svc.CreateExpense(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

func (a *API) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	expenses, err := a.svc.ListExpenses(r.Context(), from, to, queryInt(r, "limit", 200))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (a *API) handleListRawMaterials(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	materials, err := a.svc.ListRawMaterials(r.Context(), includeInactive)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func (a *API) handleCreateRawMaterial(w http.ResponseWriter, r *http.Request) {
	var req domain.RawMaterial
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	material, err := a.svc.CreateRawMaterial(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, material)
}

func (a *API) handleUpdateRawMaterial(w http.ResponseWriter, r *http.Request) {
	var req domain.RawMaterial
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ID = r.PathValue("id")
	material, err := a.svc.UpdateRawMaterial(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, material)
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.svc.GetSettings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *API) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.Settings
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	settings, err := a.svc.SaveSettings(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *API) handleListActivity(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logs, err := a.svc.ListActivityLogs(r.Context(), from, to, queryInt(r, "limit", 100))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (a *API) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := a.svc.ExportBackup(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=pos-backup-%s.json", doc.ExportDate.Format("20060102-150405")))
	writeJSON(w, http.StatusOK, doc)
}

func (a *API) handleImportBackup(w http.ResponseWriter, r *http.Request) {
	var doc domain.BackupDocument
	if err := decodeJSON(r, &doc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.ImportBackup(r.Context(), doc); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.auth.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) handleCreateCashier(w http.ResponseWriter, r *http.Request) {
	var req domain.CashierCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.auth.CreateCashier(r.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrInvalidRecord) {
			writeError(w, http.StatusConflict, "username already exists")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleSetUserActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.SetUserActive(r.Context(), r.PathValue("username"), req.Active); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	actor := service.ActorFromContext(r.Context())
	if actor.Role != "admin" && actor.Username != username {
		writeError(w, http.StatusForbidden, "can only change your own password")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.ChangePassword(r.Context(), username, req.Password); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeServiceError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
