package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/furnicart/internal/domain"
	"github.com/vladislavdragonenkov/furnicart/internal/metrics"
)

const (
	opAdd    = "add"
	opRemove = "remove"
	opUpdate = "update_quantity"
	opClear  = "clear"
)

// Store: корзина одной сессии с внедрёнными хранилищем и рендерером.
type Store struct {
	mu    sync.Mutex
	items domain.Items
	// version растёт при каждой загрузке и изменении под mu.
	version uint64

	// renderMu упорядочивает вызовы рендерера; rendered: версия последнего
	// отрисованного снимка, более старые снимки отбрасываются.
	renderMu sync.Mutex
	rendered uint64

	storage  domain.RecordStorage
	key      string
	renderer domain.Renderer
	logger   *log.Entry
	metrics  *metrics.CartMetrics
}

// Option настраивает Store.
type Option func(*Store)

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics задаёт метрики корзины.
func WithMetrics(m *metrics.CartMetrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore конструирует пустую корзину. Для чтения сохранённой записи вызовите Load.
// Пустой key заменяется на domain.DefaultCartKey, nil renderer допустим.
func NewStore(storage domain.RecordStorage, key string, renderer domain.Renderer, opts ...Option) *Store {
	if key == "" {
		key = domain.DefaultCartKey
	}
	s := &Store{
		items:    domain.Items{},
		storage:  storage,
		key:      key,
		renderer: renderer,
		logger:   log.WithField("component", "cart-store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("cart_key", key)
	return s
}

// Open создаёт корзину, загружает сохранённую запись и выполняет первичную отрисовку.
func Open(ctx context.Context, storage domain.RecordStorage, key string, renderer domain.Renderer, opts ...Option) *Store {
	s := NewStore(storage, key, renderer, opts...)
	s.mu.Lock()
	s.items = s.readRecord(ctx)
	s.version++
	snapshot, version := s.items.Clone(), s.version
	s.mu.Unlock()

	s.render(ctx, snapshot, version)
	return s
}

// Key возвращает ключ сохранённой записи.
func (s *Store) Key() string {
	return s.key
}

// Load читает сохранённую запись и заменяет ею состояние в памяти.
// Отсутствие записи, повреждённые данные и ошибки хранилища дают пустую корзину.
func (s *Store) Load(ctx context.Context) domain.Items {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = s.readRecord(ctx)
	s.version++
	return s.items.Clone()
}

func (s *Store) readRecord(ctx context.Context) domain.Items {
	if s.storage == nil {
		return domain.Items{}
	}

	data, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			s.metrics.RecordLoadFallback("absent")
			s.logger.Debug("сохранённой корзины нет, начинаем с пустой")
		} else {
			s.metrics.RecordLoadFallback("storage_error")
			s.logger.WithError(err).Warn("не удалось прочитать корзину, начинаем с пустой")
		}
		return domain.Items{}
	}

	items, err := domain.DecodeRecord(data)
	if err != nil {
		s.metrics.RecordLoadFallback("corrupt")
		s.logger.WithError(err).Warn("сохранённая корзина повреждена, начинаем с пустой")
		return domain.Items{}
	}
	return items
}

// Save перезаписывает сохранённую запись текущим состоянием.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.persist(ctx)
}

// persist вызывается под блокировкой.
func (s *Store) persist(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}

	start := time.Now()
	payload, err := domain.EncodeRecord(s.items)
	if err == nil {
		err = s.storage.Put(ctx, s.key, payload)
	}
	s.metrics.RecordPersist(time.Since(start), err)
	if err != nil {
		s.logger.WithError(err).Error("не удалось сохранить корзину")
	}
	return err
}

// commit сохраняет состояние и отдаёт снимок с его версией; вызывается под mu.
func (s *Store) commit(ctx context.Context, op string) (domain.Items, uint64) {
	_ = s.persist(ctx)
	s.metrics.RecordMutation(op)
	s.version++
	return s.items.Clone(), s.version
}

// render вызывается после снятия mu, поэтому рендерер может читать Store, но не
// должен изменять его. Вызовы идут по одному; снимок старше уже отрисованного
// пропускается, так что последним рендерер видит актуальное состояние.
func (s *Store) render(ctx context.Context, snapshot domain.Items, version uint64) {
	if s.renderer == nil {
		return
	}

	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	if version <= s.rendered {
		return
	}
	s.rendered = version
	s.renderer.Render(ctx, snapshot)
}

// Add увеличивает количество позиции с таким именем на 1 или добавляет новую
// позицию с количеством 1 в конец списка.
func (s *Store) Add(ctx context.Context, name string, price decimal.Decimal, image string) {
	if price.IsNegative() {
		s.logger.WithField("name", name).Debug("отрицательная цена заменена нулём")
		price = decimal.Zero
	}

	s.mu.Lock()
	if idx := s.items.IndexOf(name); idx >= 0 {
		s.items[idx].Quantity++
	} else {
		s.items = append(s.items, domain.LineItem{
			Name:     name,
			Price:    price,
			Image:    image,
			Quantity: 1,
		})
	}
	snapshot, version := s.commit(ctx, opAdd)
	s.mu.Unlock()

	s.render(ctx, snapshot, version)
}

// Remove удаляет позицию по индексу текущего отрисованного списка.
func (s *Store) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.items) {
		s.mu.Unlock()
		return domain.ErrIndexOutOfRange
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	snapshot, version := s.commit(ctx, opRemove)
	s.mu.Unlock()

	s.render(ctx, snapshot, version)
	return nil
}

// UpdateQuantity прибавляет delta к количеству позиции. Результат <= 0
// удаляет позицию: строк с нулевым количеством не бывает.
func (s *Store) UpdateQuantity(ctx context.Context, index, delta int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.items) {
		s.mu.Unlock()
		return domain.ErrIndexOutOfRange
	}

	op := opUpdate
	if s.items[index].Quantity+delta <= 0 {
		s.items = append(s.items[:index], s.items[index+1:]...)
		op = opRemove
	} else {
		s.items[index].Quantity += delta
	}
	snapshot, version := s.commit(ctx, op)
	s.mu.Unlock()

	s.render(ctx, snapshot, version)
	return nil
}

// Clear очищает корзину и сохраняет пустую запись.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = domain.Items{}
	snapshot, version := s.commit(ctx, opClear)
	s.mu.Unlock()

	s.render(ctx, snapshot, version)
}

// ClearIf передаёт accept текущий снимок и очищает корзину, только если accept
// вернул true. Проверка и очистка идут под одной блокировкой: изменение, пришедшее
// во время проверки, применяется уже после очистки и не теряется.
// Возвращает проверенный снимок и признак очистки.
func (s *Store) ClearIf(ctx context.Context, accept func(domain.Items) bool) (domain.Items, bool) {
	s.mu.Lock()
	checked := s.items.Clone()
	if !accept(checked.Clone()) {
		s.mu.Unlock()
		return checked, false
	}
	s.items = domain.Items{}
	snapshot, version := s.commit(ctx, opClear)
	s.mu.Unlock()

	s.render(ctx, snapshot, version)
	return checked, true
}

// Items возвращает копию текущего списка позиций.
func (s *Store) Items() domain.Items {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone()
}

// Len возвращает число различных позиций.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Total возвращает сумму price × quantity.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Total()
}

// ItemCount возвращает суммарное количество единиц (значение бейджа).
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.ItemCount()
}

// CanCheckout сообщает, можно ли перейти к оформлению (корзина не пуста).
func (s *Store) CanCheckout() bool {
	return s.Len() > 0
}
