package domain

import "context"

// RecordStorage: key-value хранилище сохранённой записи корзины.
// Запись перезаписывается целиком (last-write-wins, без обнаружения конфликтов).
type RecordStorage interface {
	// Get возвращает запись по ключу или ErrRecordNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put перезаписывает запись целиком.
	Put(ctx context.Context, key string, value []byte) error
	// Delete удаляет запись; отсутствие записи не является ошибкой.
	Delete(ctx context.Context, key string) error
}

// Renderer: внешний получатель запросов на перерисовку UI.
// Вызывается после каждой мутации, когда состояние уже сохранено.
type Renderer interface {
	Render(ctx context.Context, snapshot Items)
}

// RenderFunc адаптирует функцию к интерфейсу Renderer.
type RenderFunc func(ctx context.Context, snapshot Items)

// Render вызывает f(ctx, snapshot).
func (f RenderFunc) Render(ctx context.Context, snapshot Items) {
	f(ctx, snapshot)
}

// Renderers объединяет несколько получателей; порядок вызова сохраняется.
type Renderers []Renderer

// Render передаёт снимок каждому получателю по очереди.
func (rs Renderers) Render(ctx context.Context, snapshot Items) {
	for _, r := range rs {
		if r != nil {
			r.Render(ctx, snapshot)
		}
	}
}

// EventPublisher публикует события корзины и оформления наружу.
type EventPublisher interface {
	PublishCartEvent(ctx context.Context, event CartEvent) error
}

// CartEventType определяет тип события корзины.
type CartEventType string

const (
	CartEventUpdated          CartEventType = "cart.updated"
	CartEventCleared          CartEventType = "cart.cleared"
	CartEventCheckoutRejected CartEventType = "checkout.rejected"
	CartEventCheckoutAccepted CartEventType = "checkout.accepted"
)

// CartEvent: снимок корзины, передаваемый во внешний рендерер/шину.
type CartEvent struct {
	Type      CartEventType
	CartKey   string
	Items     Items
	ItemCount int
	Total     string
	Missing   []string
}
