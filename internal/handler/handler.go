// Package handler содержит HTTP-обработчики API витрины заказов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/tiffin-storefront/internal/history"
	"github.com/mmeshcher/tiffin-storefront/internal/middleware"
	"github.com/mmeshcher/tiffin-storefront/internal/model"
	"github.com/mmeshcher/tiffin-storefront/internal/notifier"
	"github.com/mmeshcher/tiffin-storefront/internal/payment"
	"github.com/mmeshcher/tiffin-storefront/internal/pricing"
	"github.com/mmeshcher/tiffin-storefront/internal/repository"
	"github.com/mmeshcher/tiffin-storefront/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Menu(ctx context.Context) ([]model.MenuItem, error)
	SaveMenu(ctx context.Context, menu []model.MenuItem) error
	Banners(ctx context.Context) ([]model.Banner, error)
	SaveBanners(ctx context.Context, banners []model.Banner) error
	Coupons(ctx context.Context) ([]model.Coupon, error)
	QuoteCart(ctx context.Context, cart []model.CartItem, couponCode string) (pricing.Quote, error)
	Checkout(ctx context.Context, cart []model.CartItem, details model.UserDetails, couponCode string) (*model.Order, error)
	Login(ctx context.Context, details model.UserDetails) (*model.UserProfile, error)
	Logout(ctx context.Context) error
	Orders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error
	LastOrder(ctx context.Context) ([]model.CartItem, error)
	ToggleFavorite(ctx context.Context, itemID string) (bool, error)
	Favorites(ctx context.Context) ([]string, error)
	VerifyPin(ctx context.Context, pin string) (bool, error)
	ChangePin(ctx context.Context, pin string) error
	DeliveryFee(ctx context.Context) (int64, error)
	SetDeliveryFee(ctx context.Context, fee int64) error
	CategoryImages(ctx context.Context) (map[string]string, error)
	SaveCategoryImages(ctx context.Context, images map[string]string) error
	CreateBackup(ctx context.Context) ([]byte, error)
	RestoreBackup(ctx context.Context, raw []byte) error
}

// Notifications определяет контракт очереди уведомлений для
// операторского интерфейса.
type Notifications interface {
	Snapshot() notifier.State
	Dismiss()
	Acknowledge()
}

// Handler реализует HTTP-обработчики API витрины заказов.
type Handler struct {
	service       Service
	notifications Notifications
	logger        *zap.Logger
	adminAuth     *middleware.AdminAuth
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, n Notifications, logger *zap.Logger, auth *middleware.AdminAuth) *Handler {
	return &Handler{
		service:       s,
		notifications: n,
		logger:        logger,
		adminAuth:     auth,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// Login создаёт или обновляет профиль покупателя по номеру телефона.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.UserDetails
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Phone == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	profile, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.logger.Error("login error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Logout удаляет сохранённый профиль покупателя.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		h.logger.Error("logout error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// GetMenu возвращает каталог витрины.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.service.Menu(r.Context())
	if err != nil {
		h.logger.Error("get menu error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, menu)
}

// GetBanners возвращает баннеры витрины.
func (h *Handler) GetBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.service.Banners(r.Context())
	if err != nil {
		h.logger.Error("get banners error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, banners)
}

// GetCoupons возвращает справочник купонов.
func (h *Handler) GetCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.Coupons(r.Context())
	if err != nil {
		h.logger.Error("get coupons error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, coupons)
}

type quoteRequest struct {
	Items  []model.CartItem `json:"items"`
	Coupon string           `json:"coupon"`
}

// Quote считает разбивку стоимости корзины без оформления заказа.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	quote, err := h.service.QuoteCart(r.Context(), req.Items, req.Coupon)
	if err != nil {
		if isPricingError(err) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("quote error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

type checkoutRequest struct {
	Items       []model.CartItem  `json:"items"`
	UserDetails model.UserDetails `json:"userDetails"`
	Coupon      string            `json:"coupon"`
}

// Checkout оформляет заказ: проводит оплату и фиксирует заказ в журнале.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.UserDetails.Name == "" || req.UserDetails.Phone == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, err := h.service.Checkout(r.Context(), req.Items, req.UserDetails, req.Coupon)
	if err != nil {
		switch {
		case isPricingError(err):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrPaymentFailed), errors.Is(err, payment.ErrNotConfigured):
			h.logger.Warn("checkout payment failed", zap.Error(err))
			writeJSON(w, http.StatusPaymentRequired, errorResponse{Error: "payment failed"})
		default:
			h.logger.Error("checkout error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// GetLastOrder возвращает снимок последней корзины для повторного заказа.
func (h *Handler) GetLastOrder(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LastOrder(r.Context())
	if err != nil {
		h.logger.Error("get last order error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(items) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

type favoriteResponse struct {
	ItemID   string `json:"itemId"`
	Favorite bool   `json:"favorite"`
}

// ToggleFavorite переключает позицию меню в избранном.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if itemID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	favorite, err := h.service.ToggleFavorite(r.Context(), itemID)
	if err != nil {
		h.logger.Error("toggle favorite error", zap.Error(err), zap.String("item", itemID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, favoriteResponse{ItemID: itemID, Favorite: favorite})
}

// GetFavorites возвращает список избранных позиций.
func (h *Handler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.service.Favorites(r.Context())
	if err != nil {
		h.logger.Error("get favorites error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, favorites)
}

type adminLoginRequest struct {
	Pin string `json:"pin"`
}

// AdminLogin проверяет PIN оператора и открывает сессию.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ok, err := h.service.VerifyPin(r.Context(), req.Pin)
	if err != nil {
		h.logger.Error("admin login error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	h.adminAuth.SetSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

// AdminLogout завершает операторскую сессию.
func (h *Handler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	h.adminAuth.ClearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

// GetAdminOrders возвращает живой список заказов с фильтром по
// подстроке идентификатора либо имени и по статусу.
func (h *Handler) GetAdminOrders(w http.ResponseWriter, r *http.Request) {
	status := model.OrderStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	orders, err := h.service.Orders(r.Context())
	if err != nil {
		h.logger.Error("get orders error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	orders = history.FilterLive(orders, r.URL.Query().Get("q"))
	if status != "" {
		filtered := make([]model.Order, 0, len(orders))
		for _, o := range orders {
			if o.Status == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}

	writeJSON(w, http.StatusOK, orders)
}

type statusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// UpdateOrderStatus переводит заказ в новый статус. Для неизвестного
// идентификатора операция не делает ничего: заказ мог быть вытеснен
// политикой хранения между чтением списка и нажатием кнопки.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err := h.service.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		case errors.Is(err, repository.ErrOrderNotFound):
			h.logger.Warn("status update for missing order", zap.String("order", id))
			w.WriteHeader(http.StatusOK)
		default:
			h.logger.Error("update status error", zap.Error(err), zap.String("order", id))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

// GetHistory возвращает журнал заказов с фильтром по тексту, диапазону
// дат и статусу. Даты принимаются в формате ГГГГ-ММ-ДД.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	q := history.Query{
		Text:   r.URL.Query().Get("q"),
		Status: model.OrderStatus(r.URL.Query().Get("status")),
	}
	if q.Status != "" && !q.Status.Valid() {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, time.Local)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		q.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, time.Local)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		q.To = t
	}

	orders, err := h.service.Orders(r.Context())
	if err != nil {
		h.logger.Error("get history error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, history.Filter(orders, q))
}

type customerOrdersResponse struct {
	Orders     []model.Order `json:"orders"`
	OrderCount int           `json:"orderCount"`
}

// GetCustomerOrders возвращает историю заказов одного покупателя по
// номеру телефона вместе со счётчиком повторных покупок.
func (h *Handler) GetCustomerOrders(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	if phone == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	orders, err := h.service.Orders(r.Context())
	if err != nil {
		h.logger.Error("get customer orders error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, customerOrdersResponse{
		Orders:     history.ByPhone(orders, phone),
		OrderCount: history.CustomerOrderCount(orders, phone),
	})
}

// GetNotifications возвращает состояние очереди уведомлений.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notifications.Snapshot())
}

// DismissNotification закрывает активное уведомление.
func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	h.notifications.Dismiss()
	w.WriteHeader(http.StatusOK)
}

// AcknowledgeNotifications сбрасывает счётчик непросмотренных заказов.
func (h *Handler) AcknowledgeNotifications(w http.ResponseWriter, r *http.Request) {
	h.notifications.Acknowledge()
	w.WriteHeader(http.StatusOK)
}

// GetBackup отдаёт резервную копию всех коллекций одним файлом.
func (h *Handler) GetBackup(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.CreateBackup(r.Context())
	if err != nil {
		h.logger.Error("create backup error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="storefront-backup.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Restore применяет резервную копию. Копия с неразбираемым содержимым
// отклоняется целиком, хранилище при этом не меняется.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.RestoreBackup(r.Context(), data); err != nil {
		if errors.Is(err, repository.ErrBadBackup) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		h.logger.Error("restore backup error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type settingsResponse struct {
	DeliveryFee    int64             `json:"deliveryFee"`
	CategoryImages map[string]string `json:"categoryImages"`
}

// GetSettings возвращает настройки оператора.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	fee, err := h.service.DeliveryFee(r.Context())
	if err != nil {
		h.logger.Error("get settings error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	images, err := h.service.CategoryImages(r.Context())
	if err != nil {
		h.logger.Error("get settings error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{DeliveryFee: fee, CategoryImages: images})
}

type settingsRequest struct {
	DeliveryFee    *int64            `json:"deliveryFee,omitempty"`
	Pin            *string           `json:"pin,omitempty"`
	CategoryImages map[string]string `json:"categoryImages,omitempty"`
}

// UpdateSettings применяет присутствующие в запросе настройки:
// стоимость доставки, новый PIN, иконки категорий.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.DeliveryFee != nil {
		if *req.DeliveryFee < 0 {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if err := h.service.SetDeliveryFee(r.Context(), *req.DeliveryFee); err != nil {
			h.logger.Error("set delivery fee error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	if req.Pin != nil {
		if *req.Pin == "" {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if err := h.service.ChangePin(r.Context(), *req.Pin); err != nil {
			h.logger.Error("change pin error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	if req.CategoryImages != nil {
		if err := h.service.SaveCategoryImages(r.Context(), req.CategoryImages); err != nil {
			h.logger.Error("save category images error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

// UpdateMenu заменяет каталог целиком.
func (h *Handler) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	var menu []model.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&menu); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.SaveMenu(r.Context(), menu); err != nil {
		h.logger.Error("save menu error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// UpdateBanners заменяет баннеры целиком.
func (h *Handler) UpdateBanners(w http.ResponseWriter, r *http.Request) {
	var banners []model.Banner
	if err := json.NewDecoder(r.Body).Decode(&banners); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.SaveBanners(r.Context(), banners); err != nil {
		h.logger.Error("save banners error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func isPricingError(err error) bool {
	return errors.Is(err, pricing.ErrEmptyCart) ||
		errors.Is(err, pricing.ErrUnknownCoupon) ||
		errors.Is(err, pricing.ErrBelowMinOrder)
}
