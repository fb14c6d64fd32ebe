// Package service implements the business logic of the GFX order service.
package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/monkeystudio/gfx-order-system/internal/model"
	"github.com/monkeystudio/gfx-order-system/internal/repository"
)

// ErrInvalidStatus is returned for a status value outside the enumeration.
var (
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrInvalidPayment is returned for a payment status value outside the enumeration.
	ErrInvalidPayment = errors.New("invalid payment status")
	// ErrInvalidCredentials is returned for every failed login, regardless of cause.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAdminRequired is returned when an operation needs admin privilege.
	ErrAdminRequired = errors.New("admin privilege required")
	// ErrMissingField is returned when a required order field is empty.
	ErrMissingField = errors.New("missing required field")
)

// Repository describes the data access contract used by the service.
type Repository interface {
	Close() error
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrders(ctx context.Context) ([]model.Order, error)
	GetOrdersByEmail(ctx context.Context, email string) ([]model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)
	UpdateOrderPayment(ctx context.Context, id int64, payment model.PaymentStatus) (*model.Order, error)
	UpdateOrderPrice(ctx context.Context, id int64, price string) (*model.Order, error)
	SelfReportOrderPayment(ctx context.Context, id int64) (*model.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	CreateAdmin(ctx context.Context, a *model.Admin) error
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	GetAdmins(ctx context.Context) ([]model.Admin, error)
	GetMaintenanceMode(ctx context.Context) (bool, error)
	SetMaintenanceMode(ctx context.Context, enabled bool) error
}

// Service contains the business logic of the GFX order service.
type Service struct {
	repo Repository
}

// NewService creates a service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Close releases the service's resources.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// CreateOrderInput carries the customer-supplied fields of a new order.
type CreateOrderInput struct {
	Email       string
	DiscordUser string
	RobloxUser  string
	GfxType     string
	Details     string
	ImageURL    string
}

// CreateOrder persists a new order with the default lifecycle state:
// status Pending, payment Unpaid, price "0".
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	required := map[string]string{
		"email":       in.Email,
		"discordUser": in.DiscordUser,
		"robloxUser":  in.RobloxUser,
		"gfxType":     in.GfxType,
	}
	for name, value := range required {
		if value == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}

	o := &model.Order{
		Email:         in.Email,
		DiscordUser:   in.DiscordUser,
		RobloxUser:    in.RobloxUser,
		GfxType:       in.GfxType,
		Details:       in.Details,
		ImageURL:      in.ImageURL,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
		PriceRobux:    "0",
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrders returns every order.
func (s *Service) GetOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.GetOrders(ctx)
}

// GetOrdersByEmail returns the orders matching the given email exactly.
func (s *Service) GetOrdersByEmail(ctx context.Context, email string) ([]model.Order, error) {
	return s.repo.GetOrdersByEmail(ctx, email)
}

// GetOrder returns a single order by id.
func (s *Service) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// UpdateStatus overwrites an order's status after checking enum membership.
// Any member may be written over any other member.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	st := model.OrderStatus(status)
	if !st.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.repo.UpdateOrderStatus(ctx, id, st)
}

// UpdatePayment overwrites an order's payment status. Admin-only; the
// customer self-report path is SelfReportPayment.
func (s *Service) UpdatePayment(ctx context.Context, id int64, payment string) (*model.Order, error) {
	p := model.PaymentStatus(payment)
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPayment, payment)
	}
	return s.repo.UpdateOrderPayment(ctx, id, p)
}

// SelfReportPayment handles the customer's "I have paid" report. The only
// transition a customer may make is Unpaid to Pending Verif; anything else
// needs an admin.
func (s *Service) SelfReportPayment(ctx context.Context, id int64) (*model.Order, error) {
	o, err := s.repo.SelfReportOrderPayment(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotUnpaid) {
			return nil, ErrAdminRequired
		}
		return nil, err
	}
	return o, nil
}

// UpdatePrice overwrites an order's price. The price is an opaque string.
func (s *Service) UpdatePrice(ctx context.Context, id int64, price string) (*model.Order, error) {
	return s.repo.UpdateOrderPrice(ctx, id, price)
}

// DeleteOrder permanently removes an order.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	return s.repo.DeleteOrder(ctx, id)
}

// Login verifies an admin's credentials. Every failure path collapses into
// ErrInvalidCredentials so usernames cannot be enumerated.
func (s *Service) Login(ctx context.Context, username, password string) (*model.Admin, error) {
	a, err := s.repo.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return a, nil
}

// CurrentAdmin re-resolves a session's username against the admins table.
// A deleted account makes the session's claim worthless immediately.
func (s *Service) CurrentAdmin(ctx context.Context, username string) (*model.Admin, error) {
	return s.repo.GetAdminByUsername(ctx, username)
}

// GetAdmins returns every admin account.
func (s *Service) GetAdmins(ctx context.Context) ([]model.Admin, error) {
	return s.repo.GetAdmins(ctx)
}

// CreateAdminInput carries the fields of a new admin account.
type CreateAdminInput struct {
	Email    string
	Username string
	Password string
}

// CreateAdmin creates a staff account with a bcrypt-hashed password.
func (s *Service) CreateAdmin(ctx context.Context, in CreateAdminInput) (*model.Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a := &model.Admin{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		IsAdmin:      true,
	}

	if err := s.repo.CreateAdmin(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// SeedAdmin creates the bootstrap admin account when it does not exist yet.
func (s *Service) SeedAdmin(ctx context.Context, username, email, password string) error {
	_, err := s.repo.GetAdminByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrAdminNotFound) {
		return err
	}

	_, err = s.CreateAdmin(ctx, CreateAdminInput{
		Email:    email,
		Username: username,
		Password: password,
	})
	return err
}

// GetMaintenanceMode reports whether the site is gated for non-admins.
func (s *Service) GetMaintenanceMode(ctx context.Context) (bool, error) {
	return s.repo.GetMaintenanceMode(ctx)
}

// SetMaintenanceMode flips the global maintenance gate.
func (s *Service) SetMaintenanceMode(ctx context.Context, enabled bool) error {
	return s.repo.SetMaintenanceMode(ctx, enabled)
}
