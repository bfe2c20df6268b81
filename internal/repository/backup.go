package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mmeshcher/tiffin-storefront/internal/model"
	"github.com/mmeshcher/tiffin-storefront/internal/storage"
)

// backup — сериализуемый снимок всех коллекций витрины. Поля-указатели
// позволяют отличить отсутствующее поле от пустого: частичная копия
// восстанавливает только то, что в ней есть. Имена полей зафиксированы
// форматом копий прежних версий приложения.
type backup struct {
	Menu           []model.MenuItem  `json:"menu,omitempty"`
	Orders         []model.Order     `json:"orders,omitempty"`
	Banners        []model.Banner    `json:"banners,omitempty"`
	Pin            string            `json:"pin,omitempty"`
	DeliveryFee    *int64            `json:"deliveryFee,omitempty"`
	CategoryImages map[string]string `json:"categoryImages,omitempty"`
	CreatedAt      model.Timestamp   `json:"timestamp"`
}

// CreateBackup собирает снимок {меню, заказы, баннеры, PIN, доставка,
// картинки категорий} и возвращает его в виде JSON.
func (r *Repository) CreateBackup(ctx context.Context) ([]byte, error) {
	menu, err := r.Menu(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := r.Orders(ctx)
	if err != nil {
		return nil, err
	}
	banners, err := r.Banners(ctx)
	if err != nil {
		return nil, err
	}
	pin, err := r.AdminPin(ctx)
	if err != nil {
		return nil, err
	}
	fee, err := r.DeliveryFee(ctx)
	if err != nil {
		return nil, err
	}
	images, err := r.CategoryImages(ctx)
	if err != nil {
		return nil, err
	}

	b := backup{
		Menu:           menu,
		Orders:         orders,
		Banners:        banners,
		Pin:            pin,
		DeliveryFee:    &fee,
		CategoryImages: images,
		CreatedAt:      model.Now(),
	}

	raw, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return raw, nil
}

// RestoreBackup применяет снимок: каждое присутствующее поле заменяет
// коллекцию целиком, отсутствующие поля не трогаются. Неразбираемый
// вход даёт ErrBadBackup, и хранилище остаётся без изменений.
func (r *Repository) RestoreBackup(ctx context.Context, raw []byte) error {
	var b backup
	if err := json.Unmarshal(raw, &b); err != nil {
		return fmt.Errorf("%w: %v", ErrBadBackup, err)
	}

	if b.Menu != nil {
		if err := r.SaveMenu(ctx, b.Menu); err != nil {
			return err
		}
	}
	if b.Orders != nil {
		// Восстановление пишет коллекцию как есть, минуя ретенцию:
		// она сработает при первом чтении.
		if err := r.saveJSON(ctx, storage.KeyOrders, b.Orders); err != nil {
			return err
		}
	}
	if b.Banners != nil {
		if err := r.SaveBanners(ctx, b.Banners); err != nil {
			return err
		}
	}
	if b.Pin != "" {
		if err := r.SetAdminPin(ctx, b.Pin); err != nil {
			return err
		}
	}
	if b.DeliveryFee != nil {
		if err := r.SetDeliveryFee(ctx, *b.DeliveryFee); err != nil {
			return err
		}
	}
	if b.CategoryImages != nil {
		if err := r.SaveCategoryImages(ctx, b.CategoryImages); err != nil {
			return err
		}
	}

	return nil
}
