package kafka

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/furnicart/internal/domain"
)

// Renderer транслирует запросы на перерисовку в события cart.updated/cart.cleared,
// чтобы внешний UI мог отрисовать новое состояние.
type Renderer struct {
	publisher domain.EventPublisher
	cartKey   string
	onResult  func(error)
	logger    *log.Entry
}

// NewRenderer создаёт рендерер для корзины с ключом cartKey.
// onResult, если задан, получает результат каждой публикации (для метрик).
func NewRenderer(publisher domain.EventPublisher, cartKey string, onResult func(error)) *Renderer {
	return &Renderer{
		publisher: publisher,
		cartKey:   cartKey,
		onResult:  onResult,
		logger:    log.WithField("component", "kafka-renderer"),
	}
}

// Render публикует снимок корзины. Ошибки публикации не влияют на состояние корзины.
func (r *Renderer) Render(ctx context.Context, snapshot domain.Items) {
	eventType := domain.CartEventUpdated
	if len(snapshot) == 0 {
		eventType = domain.CartEventCleared
	}

	err := r.publisher.PublishCartEvent(ctx, domain.CartEvent{
		Type:      eventType,
		CartKey:   r.cartKey,
		Items:     snapshot,
		ItemCount: snapshot.ItemCount(),
		Total:     snapshot.Total().StringFixed(2),
	})
	if r.onResult != nil {
		r.onResult(err)
	}
	if err != nil {
		r.logger.WithError(err).WithField("cart_key", r.cartKey).Warn("failed to publish cart render event")
	}
}

var _ domain.Renderer = (*Renderer)(nil)
