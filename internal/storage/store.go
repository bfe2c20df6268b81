// Package storage предоставляет контракт хранилища ключ-значение для
// витрины заказов и его реализации: PostgreSQL, встраиваемый SQLite и
// хранилище в памяти для тестов. Каждая коллекция (меню, заказы,
// настройки) адресуется собственным логическим ключом; операции над
// одним ключом атомарны — частично записанное значение никогда не
// видно читателям.
package storage

import (
	"context"
	"errors"
)

// Логические ключи хранилища. Имена унаследованы от формата резервных
// копий прежних версий приложения и менять их нельзя.
const (
	KeyMenu           = "st_menu"
	KeyOrders         = "st_orders"
	KeyPin            = "st_admin_pin"
	KeyDeliveryFee    = "st_delivery_fee"
	KeyLastOrder      = "st_last_order"
	KeyCurrentUser    = "st_current_user"
	KeyBanners        = "st_banners"
	KeyFavorites      = "st_favorites"
	KeyCategoryImages = "st_category_images"
	KeyCoupons        = "st_coupons"
)

// ErrNotFound возвращается, если значение по ключу отсутствует.
var ErrNotFound = errors.New("key not found")

// Store описывает контракт хранилища ключ-значение.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
