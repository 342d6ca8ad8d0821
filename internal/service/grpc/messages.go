package grpcsvc

import (
	"github.com/vladislavdragonenkov/furnicart/internal/checkout"
	"github.com/vladislavdragonenkov/furnicart/internal/domain"
	"github.com/vladislavdragonenkov/furnicart/internal/view"
)

// SessionRequest адресует корзину сессии.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// AddItemRequest: добавление товара. Price допускает префикс "$".
type AddItemRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Image     string `json:"image"`
}

// RemoveItemRequest: удаление позиции по индексу отрисованного списка.
type RemoveItemRequest struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

// UpdateQuantityRequest: изменение количества на delta.
type UpdateQuantityRequest struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
	Delta     int    `json:"delta"`
}

// CheckoutRequest: значения формы, индексированные id элементов (c_fname, ...).
type CheckoutRequest struct {
	SessionID string            `json:"session_id"`
	Fields    map[string]string `json:"fields"`
}

// LineItemMessage: позиция корзины в ответе.
type LineItemMessage struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// SummaryRowMessage: строка таблицы заказа ("Chair x 2", "$99.98").
type SummaryRowMessage struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// OrderSummaryMessage: таблица заказа страницы оформления.
type OrderSummaryMessage struct {
	Heading  string              `json:"heading"`
	Rows     []SummaryRowMessage `json:"rows"`
	Subtotal string              `json:"subtotal"`
	Total    string              `json:"total"`
}

// CartReply: состояние корзины после операции.
type CartReply struct {
	SessionID    string            `json:"session_id"`
	Items        []LineItemMessage `json:"items"`
	Total        string            `json:"total"`
	ItemCount    int               `json:"item_count"`
	BadgeVisible bool              `json:"badge_visible"`
	Empty        bool              `json:"empty"`
	// CanCheckout разрешает кнопку "Proceed to checkout".
	CanCheckout bool `json:"can_checkout"`
	// PanelOpen и NotificationVisible: состояние выдвижной панели сессии.
	PanelOpen           bool                `json:"panel_open"`
	NotificationVisible bool                `json:"notification_visible"`
	Summary             OrderSummaryMessage `json:"summary"`
}

// CheckoutReply: итог попытки оформления.
type CheckoutReply struct {
	Accepted      bool      `json:"accepted"`
	EmptyCart     bool      `json:"empty_cart"`
	Missing       []string  `json:"missing,omitempty"`
	InvalidFields []string  `json:"invalid_fields,omitempty"`
	Message       string    `json:"message,omitempty"`
	RedirectTo    string    `json:"redirect_to,omitempty"`
	Cart          CartReply `json:"cart"`
}

// CloseSessionReply: подтверждение закрытия сессии.
type CloseSessionReply struct {
	SessionID string `json:"session_id"`
}

func newCartReply(sessionID string, items domain.Items) *CartReply {
	sidebar := view.Sidebar(items)
	badge := view.Badge(items)

	reply := &CartReply{
		SessionID:    sessionID,
		Items:        make([]LineItemMessage, 0, len(items)),
		Total:        sidebar.Total,
		ItemCount:    sidebar.Count,
		BadgeVisible: badge.Visible,
		Empty:        sidebar.Empty,
	}
	summary := view.OrderSummary(items)
	reply.Summary = OrderSummaryMessage{
		Heading:  summary.Heading,
		Rows:     make([]SummaryRowMessage, 0, len(summary.Rows)),
		Subtotal: summary.Subtotal,
		Total:    summary.Total,
	}
	for _, row := range summary.Rows {
		reply.Summary.Rows = append(reply.Summary.Rows, SummaryRowMessage{Label: row.Label, Amount: row.Amount})
	}
	for idx, line := range sidebar.Lines {
		reply.Items = append(reply.Items, LineItemMessage{
			Index:     line.Index,
			Name:      line.Name,
			Price:     items[idx].Price.String(),
			Image:     line.Image,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return reply
}

func newCheckoutReply(result checkout.Result, cart *CartReply) *CheckoutReply {
	reply := &CheckoutReply{
		Accepted:   result.OK(),
		EmptyCart:  result.EmptyCart,
		Missing:    result.MissingLabels(),
		Message:    result.Message(),
		RedirectTo: result.RedirectTo,
		Cart:       *cart,
	}
	for _, field := range result.Missing {
		reply.InvalidFields = append(reply.InvalidFields, field.ElementID())
	}
	return reply
}
