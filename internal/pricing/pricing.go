// Package pricing реализует ценовой движок витрины: подсчёт корзины,
// сборы, налог и проверку купонов. Все функции чистые: один и тот же
// расчёт выполняется при предпросмотре корзины и при оформлении заказа,
// поэтому показанная и списанная суммы совпадают всегда.
package pricing

import (
	"errors"
	"strings"

	"github.com/mmeshcher/tiffin-storefront/internal/model"
)

// PlatformFee — фиксированный сбор площадки за заказ, не зависит от
// размера корзины.
const PlatformFee = 5

// Ошибки валидации корзины и купона. Ни одна из них не меняет
// состояние: вызывающая сторона показывает сообщение и даёт повторить.
var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrUnknownCoupon = errors.New("unknown coupon code")
	ErrBelowMinOrder = errors.New("order total below coupon minimum")
)

// Quote — разбивка стоимости заказа. FinalTotal — итоговая сумма к
// оплате, она же авторитетная сумма для платёжной системы.
type Quote struct {
	ItemTotal   int64 `json:"itemTotal"`
	PlatformFee int64 `json:"platformFee"`
	DeliveryFee int64 `json:"deliveryFee"`
	GST         int64 `json:"gst"`
	Discount    int64 `json:"discount"`
	FinalTotal  int64 `json:"finalTotal"`
}

// ItemTotal возвращает сумму по строкам корзины. Для пустой корзины
// значение корректно определено и равно нулю.
func ItemTotal(cart []model.CartItem) int64 {
	var total int64
	for _, item := range cart {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// FindCoupon ищет купон по коду без учёта регистра.
func FindCoupon(coupons []model.Coupon, code string) (*model.Coupon, bool) {
	for i := range coupons {
		if strings.EqualFold(coupons[i].Code, code) {
			return &coupons[i], true
		}
	}
	return nil, false
}

// CouponDiscount возвращает размер скидки по купону для указанной
// суммы товаров. Для процентного купона результат округляется к
// ближайшему целому (половина — вверх) и ограничивается потолком
// MaxDiscount, если тот задан.
func CouponDiscount(coupon model.Coupon, itemTotal int64) int64 {
	if coupon.DiscountAmount > 0 {
		return coupon.DiscountAmount
	}

	discount := (itemTotal*int64(coupon.DiscountPercent) + 50) / 100
	if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
		discount = coupon.MaxDiscount
	}
	return discount
}

// gst возвращает налог: 5% от суммы товаров, округление к ближайшему
// целому (половина — вверх). Детеминированно воспроизводится из одной
// только суммы товаров.
func gst(itemTotal int64) int64 {
	return (itemTotal + 10) / 20
}

// Compute собирает разбивку стоимости для корзины с необязательным
// купоном. Купон с неизвестным кодом или не достигнутым минимумом
// отклоняется явной ошибкой, скидка при этом не применяется. Скидка
// дополнительно ограничена так, что итог не опускается ниже нуля.
func Compute(cart []model.CartItem, coupons []model.Coupon, couponCode string, deliveryFee int64) (Quote, error) {
	if len(cart) == 0 {
		return Quote{}, ErrEmptyCart
	}

	itemTotal := ItemTotal(cart)

	q := Quote{
		ItemTotal:   itemTotal,
		PlatformFee: PlatformFee,
		DeliveryFee: deliveryFee,
		GST:         gst(itemTotal),
	}

	if couponCode != "" {
		coupon, ok := FindCoupon(coupons, couponCode)
		if !ok {
			return Quote{}, ErrUnknownCoupon
		}
		if itemTotal < coupon.MinOrder {
			return Quote{}, ErrBelowMinOrder
		}
		q.Discount = CouponDiscount(*coupon, itemTotal)
	}

	gross := q.ItemTotal + q.PlatformFee + q.DeliveryFee + q.GST
	if q.Discount > gross {
		q.Discount = gross
	}
	q.FinalTotal = gross - q.Discount

	return q, nil
}
