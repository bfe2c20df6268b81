// Package notifier реализует детектор новых заказов и очередь
// уведомлений оператора. Push-канала у витрины нет: детектор
// периодически перечитывает сохранённую коллекцию заказов, сравнивает
// её со снимком последнего чтения и выстраивает новые заказы в очередь
// последовательных, самозакрывающихся уведомлений — не больше одного
// видимого одновременно.
package notifier

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/tiffin-storefront/internal/model"
	"github.com/mmeshcher/tiffin-storefront/internal/storage"
)

const (
	// DefaultPollInterval — период опроса коллекции заказов.
	DefaultPollInterval = 30 * time.Second
	// DefaultDisplayDuration — время показа одного уведомления.
	DefaultDisplayDuration = 3500 * time.Millisecond
)

// OrderSource описывает источник коллекции заказов для детектора.
type OrderSource interface {
	Orders(ctx context.Context) ([]model.Order, error)
}

// SoundFunc вызывается в момент показа уведомления — звуковой сигнал
// оператору.
type SoundFunc func(order model.Order)

// State — снимок состояния детектора для операторского интерфейса.
type State struct {
	Active *model.Order `json:"active,omitempty"`
	Queued int          `json:"queued"`
	Unseen int          `json:"unseen"`
}

// Detector наблюдает за коллекцией заказов и владеет всем состоянием
// обнаружения: снимком последнего чтения, очередью и активным
// уведомлением. Состояние не разделяется между экземплярами — два
// детектора (например, в тестах) друг другу не мешают.
type Detector struct {
	// PollInterval и DisplayDuration настраиваются до запуска Run;
	// по умолчанию — 30 секунд и 3.5 секунды.
	PollInterval    time.Duration
	DisplayDuration time.Duration

	// Sound вызывается при показе каждого уведомления.
	Sound SoundFunc

	source OrderSource
	signal <-chan string
	logger *zap.Logger

	mu       sync.Mutex
	snapshot map[string]struct{}
	queue    []model.Order
	active   *model.Order
	timer    *time.Timer
	gen      uint64
	unseen   int
}

// New создаёт детектор поверх источника заказов. Канал signal может
// быть nil; если он задан, сигнал об изменении ключа заказов запускает
// внеочередной опрос.
func New(source OrderSource, signal <-chan string, logger *zap.Logger) *Detector {
	d := &Detector{
		PollInterval:    DefaultPollInterval,
		DisplayDuration: DefaultDisplayDuration,
		source:          source,
		signal:          signal,
		logger:          logger,
		snapshot:        make(map[string]struct{}),
	}
	d.Sound = func(order model.Order) {
		logger.Info("notification sound",
			zap.String("order", order.ID),
			zap.String("customer", order.UserDetails.Name))
	}
	return d
}

// Run запускает цикл обнаружения и блокируется до отмены контекста.
// Первое чтение лишь заполняет снимок: заказы, существовавшие до
// запуска, новыми не считаются. Опрос ведётся одним циклом — два тика
// никогда не перекрываются.
func (d *Detector) Run(ctx context.Context) {
	d.prime(ctx)

	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return
		case <-ticker.C:
			d.Poll(ctx)
		case key := <-d.signal:
			if key == storage.KeyOrders {
				d.Poll(ctx)
			}
		}
	}
}

// prime заполняет снимок без генерации событий.
func (d *Detector) prime(ctx context.Context) {
	orders, err := d.source.Orders(ctx)
	if err != nil {
		d.logger.Warn("prime read failed", zap.Error(err))
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.snapshot = make(map[string]struct{}, len(orders))
	for _, o := range orders {
		d.snapshot[o.ID] = struct{}{}
	}
}

// Poll перечитывает коллекцию и ставит в очередь заказы, которых не
// было в снимке, в порядке их появления в свежем чтении. Снимок
// замещается свежим чтением, поэтому каждый заказ обнаруживается не
// более одного раза; сжатие коллекции событий не порождает.
func (d *Detector) Poll(ctx context.Context) {
	orders, err := d.source.Orders(ctx)
	if err != nil {
		d.logger.Warn("poll failed", zap.Error(err))
		return
	}

	d.mu.Lock()

	var fresh []model.Order
	next := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		next[o.ID] = struct{}{}
		if _, seen := d.snapshot[o.ID]; !seen {
			fresh = append(fresh, o)
		}
	}
	d.snapshot = next

	if len(fresh) > 0 {
		// Недоставленные уведомления прошлых опросов не вытесняются
		d.queue = append(d.queue, fresh...)
		d.unseen += len(fresh)
		d.logger.Info("new orders detected", zap.Int("count", len(fresh)))
	}

	shown := d.advanceLocked()
	d.mu.Unlock()

	d.playSound(shown)
}

// advanceLocked продвигает голову очереди в пустой слот показа и
// взводит таймер автозакрытия. Возвращает показанный заказ или nil.
func (d *Detector) advanceLocked() *model.Order {
	if d.active != nil || len(d.queue) == 0 {
		return nil
	}

	head := d.queue[0]
	d.queue = d.queue[1:]
	d.active = &head

	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.DisplayDuration, func() {
		d.expire(gen)
	})

	return &head
}

// expire очищает слот по таймеру. Поколение защищает от запоздавшего
// срабатывания: закрытый вручную слот уже занят следующим уведомлением.
func (d *Detector) expire(gen uint64) {
	d.mu.Lock()
	if d.gen != gen || d.active == nil {
		d.mu.Unlock()
		return
	}

	d.active = nil
	d.timer = nil
	shown := d.advanceLocked()
	d.mu.Unlock()

	d.playSound(shown)
}

// Dismiss закрывает активное уведомление досрочно. Очередь не
// затрагивается: следующее уведомление показывается сразу.
func (d *Detector) Dismiss() {
	d.mu.Lock()
	if d.active == nil {
		d.mu.Unlock()
		return
	}

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.active = nil
	shown := d.advanceLocked()
	d.mu.Unlock()

	d.playSound(shown)
}

// Acknowledge сбрасывает счётчик непросмотренных заказов — оператор
// открыл список. Таймер показа счётчик не трогает.
func (d *Detector) Acknowledge() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.unseen = 0
}

// Snapshot возвращает текущее состояние детектора.
func (d *Detector) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := State{
		Queued: len(d.queue),
		Unseen: d.unseen,
	}
	if d.active != nil {
		active := *d.active
		st.Active = &active
	}
	return st
}

func (d *Detector) shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.active = nil
}

func (d *Detector) playSound(order *model.Order) {
	if order == nil || d.Sound == nil {
		return
	}
	d.Sound(*order)
}
