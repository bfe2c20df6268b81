package storage

import (
	"context"
	"sync"
)

// Notify оборачивает Store и после каждой успешной записи рассылает
// подписчикам имя изменённого ключа. Это внутрипроцессный аналог
// события "storage" между вкладками браузера: детектор новых заказов
// подписывается на ключ заказов и опрашивает хранилище немедленно,
// не дожидаясь тика таймера.
type Notify struct {
	Store

	mu   sync.Mutex
	subs []chan string
}

// NewNotify оборачивает хранилище рассылкой уведомлений об изменениях.
func NewNotify(store Store) *Notify {
	return &Notify{Store: store}
}

// Save сохраняет значение и уведомляет подписчиков об изменении ключа.
func (n *Notify) Save(ctx context.Context, key string, value []byte) error {
	if err := n.Store.Save(ctx, key, value); err != nil {
		return err
	}
	n.broadcast(key)
	return nil
}

// Delete удаляет значение и уведомляет подписчиков об изменении ключа.
func (n *Notify) Delete(ctx context.Context, key string) error {
	if err := n.Store.Delete(ctx, key); err != nil {
		return err
	}
	n.broadcast(key)
	return nil
}

// Subscribe возвращает канал, в который приходят имена изменённых
// ключей. Канал буферизован; если подписчик не успевает читать,
// лишние сигналы отбрасываются — детектор всё равно опрашивает
// хранилище по таймеру.
func (n *Notify) Subscribe() <-chan string {
	ch := make(chan string, 16)

	n.mu.Lock()
	defer n.mu.Unlock()

	n.subs = append(n.subs, ch)
	return ch
}

func (n *Notify) broadcast(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- key:
		default:
		}
	}
}
