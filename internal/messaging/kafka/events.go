package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/furnicart/internal/domain"
)

// Topics для Kafka
const (
	TopicCartEvents     = "furnicart.cart.events"
	TopicCheckoutEvents = "furnicart.checkout.events"
)

// LineItemPayload: позиция корзины в сообщении; совпадает с форматом сохранённой записи.
type LineItemPayload struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
}

// CartEventMessage: JSON-представление события корзины.
type CartEventMessage struct {
	EventType string            `json:"event_type"`
	CartKey   string            `json:"cart_key"`
	Items     []LineItemPayload `json:"items"`
	ItemCount int               `json:"item_count"`
	Total     string            `json:"total"`
	Missing   []string          `json:"missing,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewCartEventMessage создаёт сообщение из доменного события.
func NewCartEventMessage(event domain.CartEvent) *CartEventMessage {
	items := make([]LineItemPayload, 0, len(event.Items))
	for _, item := range event.Items {
		items = append(items, LineItemPayload{
			Name:     item.Name,
			Price:    item.Price.String(),
			Image:    item.Image,
			Quantity: item.Quantity,
		})
	}
	return &CartEventMessage{
		EventType: string(event.Type),
		CartKey:   event.CartKey,
		Items:     items,
		ItemCount: event.ItemCount,
		Total:     event.Total,
		Missing:   event.Missing,
		Timestamp: time.Now(),
	}
}

// topicFor выбирает топик по типу события.
func topicFor(eventType domain.CartEventType) string {
	switch eventType {
	case domain.CartEventCheckoutAccepted, domain.CartEventCheckoutRejected:
		return TopicCheckoutEvents
	default:
		return TopicCartEvents
	}
}
