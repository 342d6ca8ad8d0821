package checkout

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/furnicart/internal/domain"
	"github.com/vladislavdragonenkov/furnicart/internal/metrics"
)

const (
	// RedirectShop: куда отправлять покупателя с пустой корзиной.
	RedirectShop = "shop.html"
	// RedirectThankYou: страница после успешного оформления.
	RedirectThankYou = "thankyou.html"

	emptyCartMessage = "Your cart is empty! Please add items before checkout."
	missingPrefix    = "Please fill in all required fields:\n\n"

	outcomeAccepted      = "accepted"
	outcomeEmptyCart     = "empty_cart"
	outcomeMissingFields = "missing_fields"
)

// Result: итог одной попытки оформления.
type Result struct {
	// EmptyCart: корзина пуста; ошибки полей в этом случае не проверяются.
	EmptyCart bool
	// Missing: незаполненные поля в порядке Fields.
	Missing []Field
	// Invalid отмечает поля, которые нужно подсветить; заполненные поля имеют false,
	// чтобы снять подсветку после исправления.
	Invalid map[Field]bool
	// RedirectTo: страница, на которую следует перейти, или "" если переход заблокирован.
	RedirectTo string
}

// OK сообщает, что оформление разрешено.
func (r Result) OK() bool {
	return !r.EmptyCart && len(r.Missing) == 0
}

// MissingLabels возвращает человекочитаемые имена незаполненных полей.
func (r Result) MissingLabels() []string {
	labels := make([]string, 0, len(r.Missing))
	for _, field := range r.Missing {
		labels = append(labels, field.Label())
	}
	return labels
}

// Message возвращает текст для показа покупателю или "" при успехе.
func (r Result) Message() string {
	switch {
	case r.EmptyCart:
		return emptyCartMessage
	case len(r.Missing) > 0:
		var b strings.Builder
		b.WriteString(missingPrefix)
		for _, label := range r.MissingLabels() {
			fmt.Fprintf(&b, "- %s\n", label)
		}
		return b.String()
	default:
		return ""
	}
}

// Err возвращает доменную ошибку, соответствующую результату.
func (r Result) Err() error {
	switch {
	case r.EmptyCart:
		return domain.ErrEmptyCart
	case len(r.Missing) > 0:
		return fmt.Errorf("%w: %s", domain.ErrCheckoutFieldsMissing, strings.Join(r.MissingLabels(), ", "))
	default:
		return nil
	}
}

// Validate, чистая проверка: пустая корзина блокирует сразу, иначе проверяются все поля.
func Validate(items domain.Items, form Form) Result {
	if len(items) == 0 {
		return Result{EmptyCart: true, RedirectTo: RedirectShop}
	}

	result := Result{Invalid: make(map[Field]bool, len(Fields))}
	for _, field := range Fields {
		filled := form.fieldFilled(field)
		result.Invalid[field] = !filled
		if !filled {
			result.Missing = append(result.Missing, field)
		}
	}
	if len(result.Missing) == 0 {
		result.RedirectTo = RedirectThankYou
	}
	return result
}

// Cart: то, что Validator требует от корзины. ClearIf проверяет снимок и очищает
// корзину под одной блокировкой, возвращая проверенный снимок.
type Cart interface {
	Key() string
	ClearIf(ctx context.Context, accept func(domain.Items) bool) (domain.Items, bool)
}

// Validator выполняет отправку формы оформления: проверка, очистка корзины, события.
type Validator struct {
	publisher domain.EventPublisher
	metrics   *metrics.CartMetrics
	logger    *log.Entry
}

// Option настраивает Validator.
type Option func(*Validator)

// WithPublisher задаёт публикатор событий оформления.
func WithPublisher(p domain.EventPublisher) Option {
	return func(v *Validator) { v.publisher = p }
}

// WithMetrics задаёт метрики.
func WithMetrics(m *metrics.CartMetrics) Option {
	return func(v *Validator) { v.metrics = m }
}

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewValidator создаёт Validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{logger: log.WithField("component", "checkout")}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Submit проверяет форму против текущего снимка корзины. При успехе корзина очищается
// и возвращается nil-ошибка; при отказе корзина не меняется, а ошибка оборачивает
// domain.ErrEmptyCart или domain.ErrCheckoutFieldsMissing. Событие описывает ровно
// тот снимок, который был проверен и очищен.
func (v *Validator) Submit(ctx context.Context, c Cart, form Form) (Result, error) {
	var result Result
	snapshot, _ := c.ClearIf(ctx, func(items domain.Items) bool {
		result = Validate(items, form)
		return result.OK()
	})

	logger := v.logger.WithField("cart_key", c.Key())
	event := domain.CartEvent{
		CartKey:   c.Key(),
		Items:     snapshot,
		ItemCount: snapshot.ItemCount(),
		Total:     snapshot.Total().StringFixed(2),
	}

	switch {
	case result.EmptyCart:
		v.metrics.RecordCheckout(outcomeEmptyCart, nil)
		logger.Info("оформление отклонено: корзина пуста")
		event.Type = domain.CartEventCheckoutRejected
	case len(result.Missing) > 0:
		missing := make([]string, 0, len(result.Missing))
		for _, f := range result.Missing {
			missing = append(missing, string(f))
		}
		v.metrics.RecordCheckout(outcomeMissingFields, missing)
		logger.WithField("missing", missing).Info("оформление отклонено: не заполнены поля")
		event.Type = domain.CartEventCheckoutRejected
		event.Missing = missing
	default:
		v.metrics.RecordCheckout(outcomeAccepted, nil)
		logger.WithField("total", event.Total).Info("оформление принято, корзина очищена")
		event.Type = domain.CartEventCheckoutAccepted
	}

	v.publish(ctx, event)
	return result, result.Err()
}

func (v *Validator) publish(ctx context.Context, event domain.CartEvent) {
	if v.publisher == nil {
		return
	}
	err := v.publisher.PublishCartEvent(ctx, event)
	v.metrics.RecordEvent(err)
	if err != nil {
		v.logger.WithError(err).WithField("event_type", event.Type).Warn("не удалось опубликовать событие оформления")
	}
}
