package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mmeshcher/tiffin-storefront/internal/middleware"
	"github.com/mmeshcher/tiffin-storefront/internal/model"
	"github.com/mmeshcher/tiffin-storefront/internal/notifier"
	"github.com/mmeshcher/tiffin-storefront/internal/pricing"
	"github.com/mmeshcher/tiffin-storefront/internal/repository"
	"github.com/mmeshcher/tiffin-storefront/internal/service"
)

type stubService struct {
	menuResp []model.MenuItem
	menuErr  error

	bannersResp []model.Banner

	couponsResp []model.Coupon

	quoteResp pricing.Quote
	quoteErr  error

	checkoutResp *model.Order
	checkoutErr  error

	loginResp *model.UserProfile
	loginErr  error

	ordersResp []model.Order
	ordersErr  error

	updateStatusErr error
	updatedOrder    string
	updatedStatus   model.OrderStatus

	lastOrderResp []model.CartItem

	toggleResp bool

	pinOK  bool
	pinErr error

	deliveryFeeResp int64
	savedFee        *int64
	savedPin        *string

	backupResp []byte
	restoreErr error
}

func (s *stubService) Menu(_ context.Context) ([]model.MenuItem, error) {
	return s.menuResp, s.menuErr
}

func (s *stubService) SaveMenu(_ context.Context, menu []model.MenuItem) error {
	s.menuResp = menu
	return nil
}

func (s *stubService) Banners(_ context.Context) ([]model.Banner, error) {
	return s.bannersResp, nil
}

func (s *stubService) SaveBanners(_ context.Context, banners []model.Banner) error {
	s.bannersResp = banners
	return nil
}

func (s *stubService) Coupons(_ context.Context) ([]model.Coupon, error) {
	return s.couponsResp, nil
}

func (s *stubService) QuoteCart(_ context.Context, _ []model.CartItem, _ string) (pricing.Quote, error) {
	return s.quoteResp, s.quoteErr
}

func (s *stubService) Checkout(_ context.Context, _ []model.CartItem, _ model.UserDetails, _ string) (*model.Order, error) {
	return s.checkoutResp, s.checkoutErr
}

func (s *stubService) Login(_ context.Context, _ model.UserDetails) (*model.UserProfile, error) {
	return s.loginResp, s.loginErr
}

func (s *stubService) Logout(_ context.Context) error {
	return nil
}

func (s *stubService) Orders(_ context.Context) ([]model.Order, error) {
	return s.ordersResp, s.ordersErr
}

func (s *stubService) UpdateOrderStatus(_ context.Context, id string, status model.OrderStatus) error {
	s.updatedOrder = id
	s.updatedStatus = status
	return s.updateStatusErr
}

func (s *stubService) LastOrder(_ context.Context) ([]model.CartItem, error) {
	return s.lastOrderResp, nil
}

func (s *stubService) ToggleFavorite(_ context.Context, _ string) (bool, error) {
	return s.toggleResp, nil
}

func (s *stubService) Favorites(_ context.Context) ([]string, error) {
	return nil, nil
}

func (s *stubService) VerifyPin(_ context.Context, _ string) (bool, error) {
	return s.pinOK, s.pinErr
}

func (s *stubService) ChangePin(_ context.Context, pin string) error {
	s.savedPin = &pin
	return nil
}

func (s *stubService) DeliveryFee(_ context.Context) (int64, error) {
	return s.deliveryFeeResp, nil
}

func (s *stubService) SetDeliveryFee(_ context.Context, fee int64) error {
	s.savedFee = &fee
	return nil
}

func (s *stubService) CategoryImages(_ context.Context) (map[string]string, error) {
	return nil, nil
}

func (s *stubService) SaveCategoryImages(_ context.Context, _ map[string]string) error {
	return nil
}

func (s *stubService) CreateBackup(_ context.Context) ([]byte, error) {
	return s.backupResp, nil
}

func (s *stubService) RestoreBackup(_ context.Context, _ []byte) error {
	return s.restoreErr
}

type stubNotifications struct {
	state     notifier.State
	dismissed bool
	acked     bool
}

func (n *stubNotifications) Snapshot() notifier.State { return n.state }
func (n *stubNotifications) Dismiss()                 { n.dismissed = true }
func (n *stubNotifications) Acknowledge()             { n.acked = true }

func newTestHandler(t *testing.T, svc Service, n Notifications) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAdminAuth("test-secret")

	if n == nil {
		n = &stubNotifications{}
	}

	return NewHandler(svc, n, logger, auth)
}

func TestQuote_Success(t *testing.T) {
	svc := &stubService{
		quoteResp: pricing.Quote{
			ItemTotal:   190,
			PlatformFee: 5,
			DeliveryFee: 10,
			GST:         10,
			FinalTotal:  215,
		},
	}
	h := newTestHandler(t, svc, nil)

	body, _ := json.Marshal(quoteRequest{
		Items: []model.CartItem{{Quantity: 1}},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/storefront/quote", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Quote(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var got pricing.Quote
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode quote: %v", err)
	}
	if got.FinalTotal != 215 {
		t.Fatalf("finalTotal = %d, want 215", got.FinalTotal)
	}
}

func TestQuote_UnprocessableOnPricingError(t *testing.T) {
	svc := &stubService{
		quoteErr: pricing.ErrBelowMinOrder,
	}
	h := newTestHandler(t, svc, nil)

	body, _ := json.Marshal(quoteRequest{Coupon: "WELCOME50"})

	req := httptest.NewRequest(http.MethodPost, "/api/storefront/quote", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Quote(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnprocessableEntity)
	}

	var resp errorResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error == "" {
		t.Fatalf("expected machine-readable reason in body")
	}
}

func TestCheckout_Success(t *testing.T) {
	svc := &stubService{
		checkoutResp: &model.Order{
			ID:          "#ORD-7F3K",
			TotalAmount: 215,
			Status:      model.OrderStatusPending,
		},
	}
	h := newTestHandler(t, svc, nil)

	body, _ := json.Marshal(checkoutRequest{
		Items:       []model.CartItem{{Quantity: 1}},
		UserDetails: model.UserDetails{Name: "Asha", Phone: "9876500001"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/storefront/checkout", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Checkout(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var got model.Order
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if got.ID != "#ORD-7F3K" || got.Status != model.OrderStatusPending {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestCheckout_PaymentRequired(t *testing.T) {
	svc := &stubService{
		checkoutErr: service.ErrPaymentFailed,
	}
	h := newTestHandler(t, svc, nil)

	body, _ := json.Marshal(checkoutRequest{
		Items:       []model.CartItem{{Quantity: 1}},
		UserDetails: model.UserDetails{Name: "Asha", Phone: "9876500001"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/storefront/checkout", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Checkout(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusPaymentRequired)
	}
}

func TestCheckout_BadRequestWithoutContact(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc, nil)

	body, _ := json.Marshal(checkoutRequest{
		Items: []model.CartItem{{Quantity: 1}},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/storefront/checkout", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Checkout(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestAdminLogin_WrongPin(t *testing.T) {
	svc := &stubService{pinOK: false}
	h := newTestHandler(t, svc, nil)

	body, _ := json.Marshal(adminLoginRequest{Pin: "0000"})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.AdminLogin(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
	if len(res.Cookies()) != 0 {
		t.Fatalf("no session cookie expected on wrong pin")
	}
}

func TestAdminLogin_Success(t *testing.T) {
	svc := &stubService{pinOK: true}
	h := newTestHandler(t, svc, nil)

	body, _ := json.Marshal(adminLoginRequest{Pin: "2009"})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.AdminLogin(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if len(res.Cookies()) == 0 {
		t.Fatalf("session cookie not set")
	}
}

func TestUpdateOrderStatus_MissingOrderStillOK(t *testing.T) {
	svc := &stubService{
		updateStatusErr: repository.ErrOrderNotFound,
	}
	h := newTestHandler(t, svc, nil)

	body, _ := json.Marshal(statusRequest{Status: model.OrderStatusConfirmed})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/orders/%23ORD-XXXX/status", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.UpdateOrderStatus(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	svc := &stubService{
		updateStatusErr: service.ErrInvalidStatus,
	}
	h := newTestHandler(t, svc, nil)

	body, _ := json.Marshal(statusRequest{Status: "SHIPPED"})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/orders/%23ORD-XXXX/status", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.UpdateOrderStatus(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestGetHistory_BadDate(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/history?from=01-02-2024", nil)
	rec := httptest.NewRecorder()

	h.GetHistory(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestGetAdminOrders_FilterByStatus(t *testing.T) {
	svc := &stubService{
		ordersResp: []model.Order{
			{ID: "#ORD-AAAA", Status: model.OrderStatusPending},
			{ID: "#ORD-BBBB", Status: model.OrderStatusDelivered},
		},
	}
	h := newTestHandler(t, svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders?status=DELIVERED", nil)
	rec := httptest.NewRecorder()

	h.GetAdminOrders(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var got []model.Order
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode orders: %v", err)
	}
	if len(got) != 1 || got[0].ID != "#ORD-BBBB" {
		t.Fatalf("unexpected orders: %+v", got)
	}
}

func TestGetNotifications(t *testing.T) {
	n := &stubNotifications{
		state: notifier.State{Queued: 2, Unseen: 3},
	}
	h := newTestHandler(t, &stubService{}, n)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/notifications", nil)
	rec := httptest.NewRecorder()

	h.GetNotifications(rec, req)

	var got notifier.State
	if err := json.NewDecoder(rec.Result().Body).Decode(&got); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if got.Queued != 2 || got.Unseen != 3 {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestNotifications_DismissAndAck(t *testing.T) {
	n := &stubNotifications{}
	h := newTestHandler(t, &stubService{}, n)

	h.DismissNotification(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/admin/notifications/dismiss", nil))
	h.AcknowledgeNotifications(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/admin/notifications/ack", nil))

	if !n.dismissed || !n.acked {
		t.Fatalf("dismissed=%v acked=%v, want both true", n.dismissed, n.acked)
	}
}

func TestRestore_BadBackup(t *testing.T) {
	svc := &stubService{
		restoreErr: repository.ErrBadBackup,
	}
	h := newTestHandler(t, svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/restore", strings.NewReader("not json"))
	rec := httptest.NewRecorder()

	h.Restore(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestUpdateSettings_AppliesPresentFields(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc, nil)

	fee := int64(25)
	pin := "7777"
	body, _ := json.Marshal(settingsRequest{DeliveryFee: &fee, Pin: &pin})

	req := httptest.NewRequest(http.MethodPut, "/api/admin/settings", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.UpdateSettings(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if svc.savedFee == nil || *svc.savedFee != 25 {
		t.Fatalf("delivery fee not saved")
	}
	if svc.savedPin == nil || *svc.savedPin != "7777" {
		t.Fatalf("pin not saved")
	}
}

func TestRouter_AdminRoutesRequireSession(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc, nil)

	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestRouter_StorefrontMenuIsPublic(t *testing.T) {
	svc := &stubService{
		menuResp: []model.MenuItem{{ID: "1", Name: "Cholle Puri", Price: 80}},
	}
	h := newTestHandler(t, svc, nil)

	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/storefront/menu", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}
