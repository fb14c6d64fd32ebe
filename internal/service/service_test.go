package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/monkeystudio/gfx-order-system/internal/model"
	"github.com/monkeystudio/gfx-order-system/internal/repository"
)

type stubRepo struct {
	createOrderErr error
	createdOrder   *model.Order

	statusCalled  bool
	paymentCalled bool

	selfReportOrder *model.Order
	selfReportErr   error

	admin    *model.Admin
	adminErr error

	createAdminErr error
	createdAdmin   *model.Admin

	maintenance bool
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateOrder(ctx context.Context, o *model.Order) error {
	if s.createOrderErr != nil {
		return s.createOrderErr
	}
	o.ID = 1
	s.createdOrder = o
	return nil
}

func (s *stubRepo) GetOrders(ctx context.Context) ([]model.Order, error) { return nil, nil }

func (s *stubRepo) GetOrdersByEmail(ctx context.Context, email string) ([]model.Order, error) {
	return nil, nil
}

func (s *stubRepo) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return nil, repository.ErrOrderNotFound
}

func (s *stubRepo) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	s.statusCalled = true
	return &model.Order{ID: id, Status: status}, nil
}

func (s *stubRepo) UpdateOrderPayment(ctx context.Context, id int64, payment model.PaymentStatus) (*model.Order, error) {
	s.paymentCalled = true
	return &model.Order{ID: id, PaymentStatus: payment}, nil
}

func (s *stubRepo) UpdateOrderPrice(ctx context.Context, id int64, price string) (*model.Order, error) {
	return &model.Order{ID: id, PriceRobux: price}, nil
}

func (s *stubRepo) SelfReportOrderPayment(ctx context.Context, id int64) (*model.Order, error) {
	return s.selfReportOrder, s.selfReportErr
}

func (s *stubRepo) DeleteOrder(ctx context.Context, id int64) error { return nil }

func (s *stubRepo) CreateAdmin(ctx context.Context, a *model.Admin) error {
	if s.createAdminErr != nil {
		return s.createAdminErr
	}
	a.ID = 1
	s.createdAdmin = a
	return nil
}

func (s *stubRepo) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	return s.admin, s.adminErr
}

func (s *stubRepo) GetAdmins(ctx context.Context) ([]model.Admin, error) { return nil, nil }

func (s *stubRepo) GetMaintenanceMode(ctx context.Context) (bool, error) {
	return s.maintenance, nil
}

func (s *stubRepo) SetMaintenanceMode(ctx context.Context, enabled bool) error {
	s.maintenance = enabled
	return nil
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		Email:       "a@b.com",
		DiscordUser: "a#1",
		RobloxUser:  "r1",
		GfxType:     "Thumbnail",
	}
}

func TestCreateOrder_Defaults(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	o, err := svc.CreateOrder(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	if o.Status != model.OrderStatusPending {
		t.Errorf("status = %q, want %q", o.Status, model.OrderStatusPending)
	}
	if o.PaymentStatus != model.PaymentStatusUnpaid {
		t.Errorf("payment = %q, want %q", o.PaymentStatus, model.PaymentStatusUnpaid)
	}
	if o.PriceRobux != "0" {
		t.Errorf("price = %q, want %q", o.PriceRobux, "0")
	}
	if o.ID == 0 {
		t.Errorf("id was not assigned")
	}
}

func TestCreateOrder_MissingRequiredField(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	fields := []func(*CreateOrderInput){
		func(in *CreateOrderInput) { in.Email = "" },
		func(in *CreateOrderInput) { in.DiscordUser = "" },
		func(in *CreateOrderInput) { in.RobloxUser = "" },
		func(in *CreateOrderInput) { in.GfxType = "" },
	}

	for _, clear := range fields {
		in := validInput()
		clear(&in)

		_, err := svc.CreateOrder(context.Background(), in)
		if !errors.Is(err, ErrMissingField) {
			t.Fatalf("expected ErrMissingField, got %v", err)
		}
		if repo.createdOrder != nil {
			t.Fatalf("order must not be persisted on validation failure")
		}
	}
}

func TestUpdateStatus_AnyMemberToAnyMember(t *testing.T) {
	statuses := []model.OrderStatus{
		model.OrderStatusPending, model.OrderStatusInProgress, model.OrderStatusMaking,
		model.OrderStatusReady, model.OrderStatusCompleted, model.OrderStatusCancelled,
	}

	svc := NewService(&stubRepo{})

	for _, to := range statuses {
		o, err := svc.UpdateStatus(context.Background(), 1, string(to))
		if err != nil {
			t.Fatalf("UpdateStatus(%q) error: %v", to, err)
		}
		if o.Status != to {
			t.Fatalf("status = %q, want %q", o.Status, to)
		}
	}
}

func TestUpdateStatus_RejectsUnknownValue(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, err := svc.UpdateStatus(context.Background(), 1, "Bogus")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if repo.statusCalled {
		t.Fatalf("repository must not be touched for an invalid status")
	}
}

func TestUpdatePayment_RejectsUnknownValue(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, err := svc.UpdatePayment(context.Background(), 1, "Verified")
	if !errors.Is(err, ErrInvalidPayment) {
		t.Fatalf("expected ErrInvalidPayment, got %v", err)
	}
	if repo.paymentCalled {
		t.Fatalf("repository must not be touched for an invalid payment status")
	}
}

func TestSelfReportPayment_OnlyFromUnpaid(t *testing.T) {
	repo := &stubRepo{selfReportErr: repository.ErrPaymentNotUnpaid}
	svc := NewService(repo)

	_, err := svc.SelfReportPayment(context.Background(), 1)
	if !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
}

func TestSelfReportPayment_NotFound(t *testing.T) {
	repo := &stubRepo{selfReportErr: repository.ErrOrderNotFound}
	svc := NewService(repo)

	_, err := svc.SelfReportPayment(context.Background(), 404)
	if !errors.Is(err, repository.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestLogin_GenericFailure(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	tests := []struct {
		name string
		repo *stubRepo
	}{
		{
			name: "unknown username",
			repo: &stubRepo{adminErr: repository.ErrAdminNotFound},
		},
		{
			name: "wrong password",
			repo: &stubRepo{admin: &model.Admin{ID: 1, Username: "admin", PasswordHash: hash}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.repo)

			_, err := svc.Login(context.Background(), "admin", "wrong")
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestLogin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	repo := &stubRepo{admin: &model.Admin{ID: 1, Username: "admin", PasswordHash: hash}}
	svc := NewService(repo)

	a, err := svc.Login(context.Background(), "admin", "correct")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if a.Username != "admin" {
		t.Fatalf("username = %q, want %q", a.Username, "admin")
	}
}

func TestCreateAdmin_HashesPassword(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	a, err := svc.CreateAdmin(context.Background(), CreateAdminInput{
		Email:    "staff@example.com",
		Username: "staff",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("CreateAdmin error: %v", err)
	}

	if string(a.PasswordHash) == "secret" {
		t.Fatalf("password must not be stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte("secret")); err != nil {
		t.Fatalf("stored hash does not verify the supplied password: %v", err)
	}
	if !a.IsAdmin {
		t.Fatalf("created account must carry the admin flag")
	}
}

func TestSeedAdmin_SkipsExisting(t *testing.T) {
	repo := &stubRepo{admin: &model.Admin{ID: 1, Username: "admin"}}
	svc := NewService(repo)

	if err := svc.SeedAdmin(context.Background(), "admin", "admin@example.com", "pw"); err != nil {
		t.Fatalf("SeedAdmin error: %v", err)
	}
	if repo.createdAdmin != nil {
		t.Fatalf("seeding must not create a second account for an existing username")
	}
}

func TestSeedAdmin_CreatesMissing(t *testing.T) {
	repo := &stubRepo{adminErr: repository.ErrAdminNotFound}
	svc := NewService(repo)

	if err := svc.SeedAdmin(context.Background(), "admin", "admin@example.com", "pw"); err != nil {
		t.Fatalf("SeedAdmin error: %v", err)
	}
	if repo.createdAdmin == nil {
		t.Fatalf("seeding must create the bootstrap account")
	}
	if repo.createdAdmin.Username != "admin" {
		t.Fatalf("username = %q, want %q", repo.createdAdmin.Username, "admin")
	}
}

func TestMaintenanceModeRoundTrip(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	enabled, err := svc.GetMaintenanceMode(context.Background())
	if err != nil || enabled {
		t.Fatalf("maintenance must default to off, got %v, err %v", enabled, err)
	}

	if err := svc.SetMaintenanceMode(context.Background(), true); err != nil {
		t.Fatalf("SetMaintenanceMode error: %v", err)
	}

	enabled, err = svc.GetMaintenanceMode(context.Background())
	if err != nil || !enabled {
		t.Fatalf("maintenance must read back as on, got %v, err %v", enabled, err)
	}
}
