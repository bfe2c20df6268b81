// Package repository предоставляет типизированный доступ к коллекциям
// витрины поверх контракта хранилища ключ-значение: заказы с ленивой
// ретенцией, каталог, купоны, настройки и резервное копирование.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/tiffin-storefront/internal/model"
	"github.com/mmeshcher/tiffin-storefront/internal/storage"
)

// retentionPeriod — окно хранения заказов. Всё, что старше, вычищается
// при первом же чтении коллекции; восстановить такие заказы можно
// только из резервной копии.
const retentionPeriod = 60 * 24 * time.Hour

// defaultPin — PIN оператора по умолчанию, пока не задан свой.
const defaultPin = "2009"

// ErrOrderNotFound возвращается при обновлении статуса несуществующего заказа.
var ErrOrderNotFound = errors.New("order not found")

// ErrBadBackup возвращается, если резервная копия не разбирается как
// ожидаемая структура; хранилище при этом не меняется.
var ErrBadBackup = errors.New("malformed backup")

// Repository предоставляет типизированный доступ к данным витрины.
type Repository struct {
	store  storage.Store
	logger *zap.Logger
}

// New создаёт репозиторий поверх указанного хранилища.
func New(store storage.Store, logger *zap.Logger) *Repository {
	return &Repository{
		store:  store,
		logger: logger,
	}
}

// Close закрывает нижележащее хранилище.
func (r *Repository) Close() error {
	return r.store.Close()
}

// getJSON читает значение по ключу и разбирает его как JSON. Возвращает
// false, если значения нет или оно повреждено: в обоих случаях вызывающая
// сторона подставляет значение по умолчанию, поврежденный JSON не фатален.
func (r *Repository) getJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get %q: %w", key, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		r.logger.Warn("corrupt stored value, falling back to default",
			zap.String("key", key), zap.Error(err))
		return false, nil
	}

	return true, nil
}

func (r *Repository) saveJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	if err := r.store.Save(ctx, key, raw); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

// Menu возвращает каталог; при отсутствии — встроенное меню по умолчанию.
func (r *Repository) Menu(ctx context.Context) ([]model.MenuItem, error) {
	var menu []model.MenuItem
	ok, err := r.getJSON(ctx, storage.KeyMenu, &menu)
	if err != nil {
		return nil, err
	}
	if !ok {
		return DefaultMenu(), nil
	}
	return menu, nil
}

// SaveMenu сохраняет каталог целиком.
func (r *Repository) SaveMenu(ctx context.Context, menu []model.MenuItem) error {
	return r.saveJSON(ctx, storage.KeyMenu, menu)
}

// Banners возвращает список баннеров витрины.
func (r *Repository) Banners(ctx context.Context) ([]model.Banner, error) {
	var banners []model.Banner
	ok, err := r.getJSON(ctx, storage.KeyBanners, &banners)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.Banner{}, nil
	}
	return banners, nil
}

// SaveBanners сохраняет список баннеров целиком.
func (r *Repository) SaveBanners(ctx context.Context, banners []model.Banner) error {
	return r.saveJSON(ctx, storage.KeyBanners, banners)
}

// Coupons возвращает справочник купонов; при отсутствии — встроенный набор.
func (r *Repository) Coupons(ctx context.Context) ([]model.Coupon, error) {
	var coupons []model.Coupon
	ok, err := r.getJSON(ctx, storage.KeyCoupons, &coupons)
	if err != nil {
		return nil, err
	}
	if !ok {
		return DefaultCoupons(), nil
	}
	return coupons, nil
}

// AdminPin возвращает PIN оператора. Хранится как сырая строка —
// формат унаследован от прежних версий приложения.
func (r *Repository) AdminPin(ctx context.Context) (string, error) {
	raw, err := r.store.Get(ctx, storage.KeyPin)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return defaultPin, nil
		}
		return "", fmt.Errorf("get admin pin: %w", err)
	}
	if len(raw) == 0 {
		return defaultPin, nil
	}
	return string(raw), nil
}

// SetAdminPin сохраняет PIN оператора.
func (r *Repository) SetAdminPin(ctx context.Context, pin string) error {
	if err := r.store.Save(ctx, storage.KeyPin, []byte(pin)); err != nil {
		return fmt.Errorf("save admin pin: %w", err)
	}
	return nil
}

// DeliveryFee возвращает стоимость доставки; ноль, если не настроена.
func (r *Repository) DeliveryFee(ctx context.Context) (int64, error) {
	raw, err := r.store.Get(ctx, storage.KeyDeliveryFee)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get delivery fee: %w", err)
	}

	fee, parseErr := strconv.ParseInt(string(raw), 10, 64)
	if parseErr != nil {
		r.logger.Warn("corrupt delivery fee, falling back to zero",
			zap.String("value", string(raw)), zap.Error(parseErr))
		return 0, nil
	}
	return fee, nil
}

// SetDeliveryFee сохраняет стоимость доставки.
func (r *Repository) SetDeliveryFee(ctx context.Context, fee int64) error {
	if err := r.store.Save(ctx, storage.KeyDeliveryFee, []byte(strconv.FormatInt(fee, 10))); err != nil {
		return fmt.Errorf("save delivery fee: %w", err)
	}
	return nil
}

// Orders возвращает коллекцию заказов, новые первыми. На каждом чтении
// выполняется ретенция: заказы старше 60 дней отбрасываются, и если
// что-то было отброшено, урезанная коллекция немедленно записывается
// обратно. Повреждённое значение даёт пустую коллекцию.
func (r *Repository) Orders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	ok, err := r.getJSON(ctx, storage.KeyOrders, &orders)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.Order{}, nil
	}

	now := time.Now()
	recent := orders[:0]
	for _, o := range orders {
		if now.Sub(o.Timestamp.Time) < retentionPeriod {
			recent = append(recent, o)
		}
	}

	if len(recent) != len(orders) {
		if err := r.saveJSON(ctx, storage.KeyOrders, recent); err != nil {
			return nil, err
		}
	}
	orders = recent

	// Порядок вставки уже даёт новые первыми, но при конкурентных
	// писателях полагаться только на него нельзя.
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp.After(orders[j].Timestamp.Time)
	})

	return orders, nil
}

// SaveOrder добавляет заказ в начало коллекции.
func (r *Repository) SaveOrder(ctx context.Context, order model.Order) error {
	orders, err := r.Orders(ctx)
	if err != nil {
		return err
	}

	updated := append([]model.Order{order}, orders...)
	return r.saveJSON(ctx, storage.KeyOrders, updated)
}

// UpdateOrderStatus заменяет статус заказа, не трогая остальные поля.
// Для неизвестного идентификатора возвращается ErrOrderNotFound, а
// хранилище не меняется.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	orders, err := r.Orders(ctx)
	if err != nil {
		return err
	}

	for i := range orders {
		if orders[i].ID == id {
			orders[i].Status = status
			return r.saveJSON(ctx, storage.KeyOrders, orders)
		}
	}

	return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}

// LastOrder возвращает снимок корзины последнего оформленного заказа.
func (r *Repository) LastOrder(ctx context.Context) ([]model.CartItem, error) {
	var items []model.CartItem
	ok, err := r.getJSON(ctx, storage.KeyLastOrder, &items)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.CartItem{}, nil
	}
	return items, nil
}

// SaveLastOrder сохраняет снимок корзины для повторного заказа.
func (r *Repository) SaveLastOrder(ctx context.Context, items []model.CartItem) error {
	return r.saveJSON(ctx, storage.KeyLastOrder, items)
}

// CurrentUser возвращает профиль текущего покупателя или nil.
func (r *Repository) CurrentUser(ctx context.Context) (*model.UserProfile, error) {
	var profile model.UserProfile
	ok, err := r.getJSON(ctx, storage.KeyCurrentUser, &profile)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

// SaveCurrentUser сохраняет профиль текущего покупателя.
func (r *Repository) SaveCurrentUser(ctx context.Context, profile model.UserProfile) error {
	return r.saveJSON(ctx, storage.KeyCurrentUser, profile)
}

// LogoutUser удаляет профиль текущего покупателя.
func (r *Repository) LogoutUser(ctx context.Context) error {
	if err := r.store.Delete(ctx, storage.KeyCurrentUser); err != nil {
		return fmt.Errorf("delete current user: %w", err)
	}
	return nil
}

// Favorites возвращает идентификаторы избранных позиций меню.
func (r *Repository) Favorites(ctx context.Context) ([]string, error) {
	var ids []string
	ok, err := r.getJSON(ctx, storage.KeyFavorites, &ids)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	return ids, nil
}

// ToggleFavorite добавляет позицию в избранное или убирает её.
// Возвращает true, если позиция оказалась в избранном.
func (r *Repository) ToggleFavorite(ctx context.Context, itemID string) (bool, error) {
	ids, err := r.Favorites(ctx)
	if err != nil {
		return false, err
	}

	added := true
	updated := ids[:0]
	for _, id := range ids {
		if id == itemID {
			added = false
			continue
		}
		updated = append(updated, id)
	}
	if added {
		updated = append(updated, itemID)
	}

	if err := r.saveJSON(ctx, storage.KeyFavorites, updated); err != nil {
		return false, err
	}
	return added, nil
}

// CategoryImages возвращает картинки категорий: сохранённые значения
// поверх встроенных, чтобы новые категории получали умолчания.
func (r *Repository) CategoryImages(ctx context.Context) (map[string]string, error) {
	images := DefaultCategoryImages()

	var stored map[string]string
	ok, err := r.getJSON(ctx, storage.KeyCategoryImages, &stored)
	if err != nil {
		return nil, err
	}
	if ok {
		for category, url := range stored {
			images[category] = url
		}
	}
	return images, nil
}

// SaveCategoryImages сохраняет переопределённые картинки категорий.
func (r *Repository) SaveCategoryImages(ctx context.Context, images map[string]string) error {
	return r.saveJSON(ctx, storage.KeyCategoryImages, images)
}
