// Package handler contains the HTTP handlers of the GFX order service API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/monkeystudio/gfx-order-system/internal/middleware"
	"github.com/monkeystudio/gfx-order-system/internal/model"
	"github.com/monkeystudio/gfx-order-system/internal/repository"
	"github.com/monkeystudio/gfx-order-system/internal/service"
)

// Service defines the business logic contract used by the HTTP handlers.
type Service interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (*model.Order, error)
	GetOrders(ctx context.Context) ([]model.Order, error)
	GetOrdersByEmail(ctx context.Context, email string) ([]model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*model.Order, error)
	UpdatePayment(ctx context.Context, id int64, payment string) (*model.Order, error)
	SelfReportPayment(ctx context.Context, id int64) (*model.Order, error)
	UpdatePrice(ctx context.Context, id int64, price string) (*model.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	Login(ctx context.Context, username, password string) (*model.Admin, error)
	CurrentAdmin(ctx context.Context, username string) (*model.Admin, error)
	GetAdmins(ctx context.Context) ([]model.Admin, error)
	CreateAdmin(ctx context.Context, in service.CreateAdminInput) (*model.Admin, error)
	GetMaintenanceMode(ctx context.Context) (bool, error)
	SetMaintenanceMode(ctx context.Context, enabled bool) error
}

// Handler implements the HTTP API of the GFX order service.
type Handler struct {
	service  Service
	logger   *zap.Logger
	sessions *middleware.SessionManager
	validate *validator.Validate
}

// NewHandler creates a new HTTP handler set.
func NewHandler(s Service, logger *zap.Logger, sessions *middleware.SessionManager) *Handler {
	return &Handler{
		service:  s,
		logger:   logger,
		sessions: sessions,
		validate: validator.New(),
	}
}

type orderResponse struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	DiscordUser   string `json:"discordUser"`
	RobloxUser    string `json:"robloxUser"`
	GfxType       string `json:"gfxType"`
	Details       string `json:"details,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	PriceRobux    string `json:"priceRobux"`
	CreatedAt     string `json:"createdAt"`
}

func newOrderResponse(o model.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		Email:         o.Email,
		DiscordUser:   o.DiscordUser,
		RobloxUser:    o.RobloxUser,
		GfxType:       o.GfxType,
		Details:       o.Details,
		ImageURL:      o.ImageURL,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PriceRobux:    o.PriceRobux,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}
}

// adminResponse never carries the password hash.
type adminResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"isAdmin"`
	CreatedAt string `json:"createdAt"`
}

func newAdminResponse(a model.Admin) adminResponse {
	return adminResponse{
		ID:        a.ID,
		Email:     a.Email,
		Username:  a.Username,
		IsAdmin:   a.IsAdmin,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, code int, message string) {
	h.writeJSON(w, code, map[string]string{"message": message})
}

// decode parses and validates a JSON request body, failing closed on
// unknown or missing required fields.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Invalid input")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Invalid input")
		return false
	}
	return true
}

func orderID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) handleOrderError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		h.writeMessage(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, service.ErrMissingField):
		h.writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		h.writeMessage(w, http.StatusBadRequest, "Invalid status")
	case errors.Is(err, service.ErrInvalidPayment):
		h.writeMessage(w, http.StatusBadRequest, "Invalid payment status")
	case errors.Is(err, service.ErrAdminRequired):
		h.writeMessage(w, http.StatusUnauthorized, "Unauthorized")
	default:
		h.logger.Error(op, zap.Error(err))
		h.writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

type createOrderRequest struct {
	Email       string `json:"email" validate:"required"`
	DiscordUser string `json:"discordUser" validate:"required"`
	RobloxUser  string `json:"robloxUser" validate:"required"`
	GfxType     string `json:"gfxType" validate:"required"`
	Details     string `json:"details"`
	ImageURL    string `json:"imageUrl"`
}

// CreateOrder handles a new commission request from any intake channel.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), service.CreateOrderInput{
		Email:       req.Email,
		DiscordUser: req.DiscordUser,
		RobloxUser:  req.RobloxUser,
		GfxType:     req.GfxType,
		Details:     req.Details,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.handleOrderError(w, "create order", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, newOrderResponse(*order))
}

// ListOrders returns every order, or only those matching the email filter.
// The email filter is exact and case sensitive; knowing a customer's email
// is the only credential for self-service tracking.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []model.Order
		err    error
	)

	if email := r.URL.Query().Get("email"); email != "" {
		orders, err = h.service.GetOrdersByEmail(r.Context(), email)
	} else {
		orders, err = h.service.GetOrders(r.Context())
	}
	if err != nil {
		h.handleOrderError(w, "list orders", err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetOrder returns a single order by id.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		h.writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.handleOrderError(w, "get order", err)
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderResponse(*order))
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus overwrites an order's status. Admin only.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		h.writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}

	var req updateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleOrderError(w, "update status", err)
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderResponse(*order))
}

type updatePaymentRequest struct {
	PaymentStatus string `json:"paymentStatus" validate:"required"`
}

// UpdatePayment overwrites an order's payment status. Admins may set any
// member of the enumeration; an anonymous customer may only self-report
// Unpaid to Pending Verif.
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		h.writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}

	var req updatePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	if !model.PaymentStatus(req.PaymentStatus).Valid() {
		h.writeMessage(w, http.StatusBadRequest, "Invalid payment status")
		return
	}

	var (
		order *model.Order
		err   error
	)

	if _, isAdmin := h.sessions.Resolve(r); isAdmin {
		order, err = h.service.UpdatePayment(r.Context(), id, req.PaymentStatus)
	} else if req.PaymentStatus == string(model.PaymentStatusPendingVerif) {
		order, err = h.service.SelfReportPayment(r.Context(), id)
	} else {
		h.writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err != nil {
		h.handleOrderError(w, "update payment", err)
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderResponse(*order))
}

type updatePriceRequest struct {
	PriceRobux string `json:"priceRobux" validate:"required"`
}

// UpdatePrice overwrites an order's price. Admin only; the value is an
// opaque string.
func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		h.writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}

	var req updatePriceRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.service.UpdatePrice(r.Context(), id, req.PriceRobux)
	if err != nil {
		h.handleOrderError(w, "update price", err)
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderResponse(*order))
}

// DeleteOrder permanently removes an order. Admin only.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		h.writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		h.handleOrderError(w, "delete order", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates an admin and establishes a session. The failure
// message is identical for every cause.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	admin, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("login", zap.Error(err))
		h.writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	if err := h.sessions.SetAdmin(w, r, admin.Username); err != nil {
		h.logger.Error("save session", zap.Error(err))
		h.writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	h.writeMessage(w, http.StatusOK, "Logged in")
}

// Logout clears the admin session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Error("clear session", zap.Error(err))
		h.writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	h.writeMessage(w, http.StatusOK, "Logged out")
}

// CurrentAdmin returns the account behind the request's session.
func (h *Handler) CurrentAdmin(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		h.writeMessage(w, http.StatusUnauthorized, "Not logged in")
		return
	}

	h.writeJSON(w, http.StatusOK, newAdminResponse(*admin))
}

// ListAdmins returns every staff account. Admin only.
func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.GetAdmins(r.Context())
	if err != nil {
		h.logger.Error("list admins", zap.Error(err))
		h.writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	resp := make([]adminResponse, 0, len(admins))
	for _, a := range admins {
		resp = append(resp, newAdminResponse(a))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type createAdminRequest struct {
	Email    string `json:"email" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateAdmin creates a new staff account. Admin only; the creator is
// trusted to vet the new account.
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if !h.decode(w, r, &req) {
		return
	}

	admin, err := h.service.CreateAdmin(r.Context(), service.CreateAdminInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAdminExists) {
			h.writeMessage(w, http.StatusBadRequest, "Failed to create admin")
			return
		}
		h.logger.Error("create admin", zap.Error(err))
		h.writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	h.writeJSON(w, http.StatusCreated, newAdminResponse(*admin))
}

type maintenanceResponse struct {
	Enabled bool `json:"enabled"`
}

// GetMaintenance reports the maintenance flag. Open to everyone: any caller
// needs to know whether the site is gated.
func (h *Handler) GetMaintenance(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.service.GetMaintenanceMode(r.Context())
	if err != nil {
		h.logger.Error("get maintenance", zap.Error(err))
		h.writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	h.writeJSON(w, http.StatusOK, maintenanceResponse{Enabled: enabled})
}

type setMaintenanceRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// SetMaintenance flips the maintenance flag. Admin only.
func (h *Handler) SetMaintenance(w http.ResponseWriter, r *http.Request) {
	var req setMaintenanceRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.SetMaintenanceMode(r.Context(), *req.Enabled); err != nil {
		h.logger.Error("set maintenance", zap.Error(err))
		h.writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	h.writeJSON(w, http.StatusOK, maintenanceResponse{Enabled: *req.Enabled})
}
