// Package service реализует бизнес-логику витрины заказов: оформление
// корзины, машину статусов заказа и настройки оператора.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/mmeshcher/tiffin-storefront/internal/model"
	"github.com/mmeshcher/tiffin-storefront/internal/payment"
	"github.com/mmeshcher/tiffin-storefront/internal/pricing"
)

// ErrPaymentFailed возвращается, когда платёжная система отклонила
// оплату или не вернула платёжную ссылку. Корзина и заказы при этом не
// меняются — покупатель может повторить попытку.
var ErrPaymentFailed = errors.New("payment failed")

// ErrInvalidStatus возвращается при попытке перевести заказ в
// неизвестный статус.
var ErrInvalidStatus = errors.New("invalid order status")

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	Menu(ctx context.Context) ([]model.MenuItem, error)
	SaveMenu(ctx context.Context, menu []model.MenuItem) error
	Banners(ctx context.Context) ([]model.Banner, error)
	SaveBanners(ctx context.Context, banners []model.Banner) error
	Coupons(ctx context.Context) ([]model.Coupon, error)
	AdminPin(ctx context.Context) (string, error)
	SetAdminPin(ctx context.Context, pin string) error
	DeliveryFee(ctx context.Context) (int64, error)
	SetDeliveryFee(ctx context.Context, fee int64) error
	Orders(ctx context.Context) ([]model.Order, error)
	SaveOrder(ctx context.Context, order model.Order) error
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error
	LastOrder(ctx context.Context) ([]model.CartItem, error)
	SaveLastOrder(ctx context.Context, items []model.CartItem) error
	CurrentUser(ctx context.Context) (*model.UserProfile, error)
	SaveCurrentUser(ctx context.Context, profile model.UserProfile) error
	LogoutUser(ctx context.Context) error
	Favorites(ctx context.Context) ([]string, error)
	ToggleFavorite(ctx context.Context, itemID string) (bool, error)
	CategoryImages(ctx context.Context) (map[string]string, error)
	SaveCategoryImages(ctx context.Context, images map[string]string) error
	CreateBackup(ctx context.Context) ([]byte, error)
	RestoreBackup(ctx context.Context, raw []byte) error
}

// Payments описывает контракт платёжной системы, используемый при
// оформлении заказа.
type Payments interface {
	Collect(ctx context.Context, amount int64, phone string) (*payment.Result, error)
}

// Service содержит бизнес-логику витрины заказов.
type Service struct {
	repo     Repository
	payments Payments
}

// NewService создаёт новый сервис с указанным репозиторием и платёжным клиентом.
func NewService(repo Repository, payments Payments) *Service {
	return &Service{
		repo:     repo,
		payments: payments,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Menu возвращает каталог витрины.
func (s *Service) Menu(ctx context.Context) ([]model.MenuItem, error) {
	return s.repo.Menu(ctx)
}

// SaveMenu сохраняет каталог целиком.
func (s *Service) SaveMenu(ctx context.Context, menu []model.MenuItem) error {
	return s.repo.SaveMenu(ctx, menu)
}

// Banners возвращает баннеры витрины.
func (s *Service) Banners(ctx context.Context) ([]model.Banner, error) {
	return s.repo.Banners(ctx)
}

// SaveBanners сохраняет баннеры целиком.
func (s *Service) SaveBanners(ctx context.Context, banners []model.Banner) error {
	return s.repo.SaveBanners(ctx, banners)
}

// Coupons возвращает справочник купонов.
func (s *Service) Coupons(ctx context.Context) ([]model.Coupon, error) {
	return s.repo.Coupons(ctx)
}

// QuoteCart считает разбивку стоимости корзины с необязательным
// купоном. Тот же самый расчёт выполняется при оформлении, поэтому
// предпросмотр и списание никогда не расходятся.
func (s *Service) QuoteCart(ctx context.Context, cart []model.CartItem, couponCode string) (pricing.Quote, error) {
	coupons, err := s.repo.Coupons(ctx)
	if err != nil {
		return pricing.Quote{}, err
	}
	fee, err := s.repo.DeliveryFee(ctx)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Compute(cart, coupons, couponCode, fee)
}

// Checkout оформляет заказ: считает итог, проводит оплату и создаёт
// запись заказа. Любая ошибка до записи оставляет состояние нетронутым.
func (s *Service) Checkout(ctx context.Context, cart []model.CartItem, details model.UserDetails, couponCode string) (*model.Order, error) {
	quote, err := s.QuoteCart(ctx, cart, couponCode)
	if err != nil {
		return nil, err
	}

	if s.payments == nil {
		return nil, payment.ErrNotConfigured
	}
	result, err := s.payments.Collect(ctx, quote.FinalTotal, details.Phone)
	if err != nil {
		return nil, fmt.Errorf("collect payment: %w", err)
	}
	if !result.OK || result.PaymentReference == "" {
		if result.Reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, result.Reason)
		}
		return nil, ErrPaymentFailed
	}

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return nil, err
	}

	order := model.Order{
		ID:          s.newOrderID(orders),
		Items:       append([]model.CartItem(nil), cart...),
		TotalAmount: quote.FinalTotal,
		UserDetails: details,
		Status:      model.OrderStatusPending,
		Timestamp:   model.Now(),
		PaymentID:   result.PaymentReference,
	}

	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	if err := s.repo.SaveLastOrder(ctx, cart); err != nil {
		return nil, err
	}
	if err := s.updateProfile(ctx, details); err != nil {
		return nil, err
	}

	return &order, nil
}

// updateProfile обновляет профиль покупателя данными из оформленного
// заказа, сохраняя исходную дату регистрации.
func (s *Service) updateProfile(ctx context.Context, details model.UserDetails) error {
	profile, err := s.repo.CurrentUser(ctx)
	if err != nil {
		return err
	}

	updated := model.UserProfile{
		UserDetails: details,
		ID:          details.Phone,
		JoinedAt:    model.Now(),
	}
	if profile != nil && profile.ID == details.Phone {
		updated.JoinedAt = profile.JoinedAt
	}

	return s.repo.SaveCurrentUser(ctx, updated)
}

const orderIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newOrderID генерирует короткий код заказа вида #ORD-8X29, уникальный
// относительно текущей коллекции.
func (s *Service) newOrderID(existing []model.Order) string {
	taken := make(map[string]struct{}, len(existing))
	for _, o := range existing {
		taken[o.ID] = struct{}{}
	}

	for {
		suffix := make([]byte, 4)
		for i := range suffix {
			suffix[i] = orderIDAlphabet[rand.Intn(len(orderIDAlphabet))]
		}
		id := "#ORD-" + string(suffix)
		if _, ok := taken[id]; !ok {
			return id
		}
	}
}

// Login создаёт или обновляет профиль покупателя. Идентификатором
// служит номер телефона.
func (s *Service) Login(ctx context.Context, details model.UserDetails) (*model.UserProfile, error) {
	existing, err := s.repo.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	profile := model.UserProfile{
		UserDetails: details,
		ID:          details.Phone,
		JoinedAt:    model.Now(),
	}
	if existing != nil && existing.ID == details.Phone {
		profile.JoinedAt = existing.JoinedAt
	}

	if err := s.repo.SaveCurrentUser(ctx, profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Logout удаляет профиль текущего покупателя.
func (s *Service) Logout(ctx context.Context) error {
	return s.repo.LogoutUser(ctx)
}

// Orders возвращает коллекцию заказов, новые первыми.
func (s *Service) Orders(ctx context.Context) ([]model.Order, error) {
	return s.repo.Orders(ctx)
}

// UpdateOrderStatus переводит заказ в новый статус. Меняется только
// поле статуса; неизвестный идентификатор отдаётся вызывающей стороне
// как repository.ErrOrderNotFound.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	return s.repo.UpdateOrderStatus(ctx, id, status)
}

// LastOrder возвращает снимок корзины последнего заказа.
func (s *Service) LastOrder(ctx context.Context) ([]model.CartItem, error) {
	return s.repo.LastOrder(ctx)
}

// ToggleFavorite добавляет или убирает позицию меню из избранного.
func (s *Service) ToggleFavorite(ctx context.Context, itemID string) (bool, error) {
	return s.repo.ToggleFavorite(ctx, itemID)
}

// Favorites возвращает идентификаторы избранных позиций.
func (s *Service) Favorites(ctx context.Context) ([]string, error) {
	return s.repo.Favorites(ctx)
}

// VerifyPin сверяет PIN оператора.
func (s *Service) VerifyPin(ctx context.Context, pin string) (bool, error) {
	stored, err := s.repo.AdminPin(ctx)
	if err != nil {
		return false, err
	}
	return pin != "" && pin == stored, nil
}

// ChangePin сохраняет новый PIN оператора.
func (s *Service) ChangePin(ctx context.Context, pin string) error {
	return s.repo.SetAdminPin(ctx, pin)
}

// DeliveryFee возвращает стоимость доставки.
func (s *Service) DeliveryFee(ctx context.Context) (int64, error) {
	return s.repo.DeliveryFee(ctx)
}

// SetDeliveryFee сохраняет стоимость доставки.
func (s *Service) SetDeliveryFee(ctx context.Context, fee int64) error {
	return s.repo.SetDeliveryFee(ctx, fee)
}

// CategoryImages возвращает иконки категорий каталога.
func (s *Service) CategoryImages(ctx context.Context) (map[string]string, error) {
	return s.repo.CategoryImages(ctx)
}

// SaveCategoryImages сохраняет иконки категорий.
func (s *Service) SaveCategoryImages(ctx context.Context, images map[string]string) error {
	return s.repo.SaveCategoryImages(ctx, images)
}

// CreateBackup собирает резервную копию всех коллекций.
func (s *Service) CreateBackup(ctx context.Context) ([]byte, error) {
	return s.repo.CreateBackup(ctx)
}

// RestoreBackup применяет резервную копию.
func (s *Service) RestoreBackup(ctx context.Context, raw []byte) error {
	return s.repo.RestoreBackup(ctx, raw)
}
