// Package model содержит доменные сущности витрины заказов.
package model

import (
	"strconv"
	"time"
)

// Timestamp хранит момент времени и сериализуется в JSON как целое
// число миллисекунд Unix-эпохи. Формат зафиксирован хранилищем:
// резервные копии, созданные прежними версиями приложения, должны
// читаться без преобразований.
type Timestamp struct {
	time.Time
}

// Now возвращает текущий момент времени в виде Timestamp.
func Now() Timestamp {
	return Timestamp{Time: time.Now()}
}

// At оборачивает time.Time в Timestamp.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// MarshalJSON сериализует момент времени как число миллисекунд.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}

// UnmarshalJSON разбирает число миллисекунд Unix-эпохи.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	t.Time = time.UnixMilli(ms)
	return nil
}

// MenuItem описывает позицию меню. Каталог владеет этими записями,
// конвейер заказов читает их без изменений. Цена хранится в целых
// рупиях — минимальной единице валюты.
type MenuItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        int64    `json:"price"`
	Description  string   `json:"description,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Available    bool     `json:"available"`
	Category     string   `json:"category"`
	IsVeg        bool     `json:"isVeg"`
	Rating       *float64 `json:"rating,omitempty"`
	Votes        *int     `json:"votes,omitempty"`
	IsBestseller bool     `json:"isBestseller,omitempty"`
}

// Banner описывает рекламный баннер витрины.
type Banner struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl"`
	Active   bool   `json:"active"`
	Title    string `json:"title,omitempty"`
}

// CartItem представляет строку корзины: позицию меню и количество.
// Количество всегда не меньше единицы — строка с нулём удаляется.
type CartItem struct {
	MenuItem
	Quantity int `json:"quantity"`
}

// Coupon описывает правило скидки. Задаётся либо фиксированная сумма
// DiscountAmount, либо процент DiscountPercent с необязательным
// потолком MaxDiscount. MinOrder — минимальная сумма товаров,
// начиная с которой купон применим.
type Coupon struct {
	Code            string `json:"code"`
	Description     string `json:"description,omitempty"`
	DiscountAmount  int64  `json:"discountAmount,omitempty"`
	DiscountPercent int    `json:"discountPercent,omitempty"`
	MaxDiscount     int64  `json:"maxDiscount,omitempty"`
	MinOrder        int64  `json:"minOrder,omitempty"`
}

// Coordinates — географические координаты адреса доставки.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UserDetails содержит контактные данные покупателя, вложенные в заказ.
type UserDetails struct {
	Name                 string       `json:"name"`
	Phone                string       `json:"phone"`
	Address              string       `json:"address"`
	Email                string       `json:"email,omitempty"`
	DeliveryInstructions string       `json:"deliveryInstructions,omitempty"`
	Coordinates          *Coordinates `json:"coordinates,omitempty"`
}

// UserProfile — сохранённый профиль покупателя. Идентификатором служит
// номер телефона; жизненный цикл профиля независим от заказов.
type UserProfile struct {
	UserDetails
	ID       string    `json:"id"`
	JoinedAt Timestamp `json:"joinedAt"`
}

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Valid сообщает, является ли значение известным статусом заказа.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order описывает оплаченный заказ. Строки корзины зафиксированы на
// момент оформления: последующие правки меню не меняют ни цены, ни
// названия внутри заказа. TotalAmount равен итогу ценового движка на
// момент создания и задним числом не пересчитывается.
type Order struct {
	ID          string      `json:"id"`
	Items       []CartItem  `json:"items"`
	TotalAmount int64       `json:"totalAmount"`
	UserDetails UserDetails `json:"userDetails"`
	Status      OrderStatus `json:"status"`
	Timestamp   Timestamp   `json:"timestamp"`
	PaymentID   string      `json:"paymentId,omitempty"`
}
