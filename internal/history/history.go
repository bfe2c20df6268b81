// Package history реализует фильтрацию журнала заказов: поиск по
// тексту, диапазон дат, статус и подсчёт повторных покупателей. Все
// функции — чистые чтения над коллекцией в памяти, хранилище они не
// меняют.
package history

import (
	"strings"
	"time"

	"github.com/mmeshcher/tiffin-storefront/internal/model"
)

// Query описывает фильтр журнала. Нулевые поля означают «без
// ограничения»: пустой текст, открытые границы дат, любой статус.
type Query struct {
	// Text сопоставляется как подстрока с именем или телефоном
	// покупателя, без учёта регистра.
	Text string
	// From и To — включительный диапазон по локальному календарному
	// дню заказа: From сравнивается с полуночи, To — до 23:59:59.999.
	From time.Time
	To   time.Time
	// Status — точное совпадение; пустое значение пропускает все.
	Status model.OrderStatus
}

// FilterLive отбирает заказы для живого списка: подстрока запроса в
// идентификаторе заказа или имени покупателя, без учёта регистра.
func FilterLive(orders []model.Order, query string) []model.Order {
	q := strings.ToLower(query)

	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if strings.Contains(strings.ToLower(o.ID), q) ||
			strings.Contains(strings.ToLower(o.UserDetails.Name), q) {
			out = append(out, o)
		}
	}
	return out
}

// Filter отбирает заказы журнала по тексту, диапазону дат и статусу.
func Filter(orders []model.Order, q Query) []model.Order {
	text := strings.ToLower(q.Text)

	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if !matchDate(o.Timestamp.Time, q.From, q.To) {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(o.UserDetails.Name), text) &&
			!strings.Contains(o.UserDetails.Phone, q.Text) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matchDate(ts time.Time, from, to time.Time) bool {
	if !from.IsZero() {
		start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
		if ts.Before(start) {
			return false
		}
	}
	if !to.IsZero() {
		end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999_000_000, to.Location())
		if ts.After(end) {
			return false
		}
	}
	return true
}

// CustomerOrderCount возвращает количество заказов с указанным
// телефоном: единица означает первого покупателя, больше — повторного.
func CustomerOrderCount(orders []model.Order, phone string) int {
	count := 0
	for _, o := range orders {
		if o.UserDetails.Phone == phone {
			count++
		}
	}
	return count
}

// ByPhone возвращает заказы одного покупателя — переход из карточки
// заказа в его персональную историю.
func ByPhone(orders []model.Order, phone string) []model.Order {
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if o.UserDetails.Phone == phone {
			out = append(out, o)
		}
	}
	return out
}
