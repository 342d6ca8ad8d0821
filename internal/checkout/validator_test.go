package checkout_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/furnicart/internal/cart"
	"github.com/vladislavdragonenkov/furnicart/internal/checkout"
	"github.com/vladislavdragonenkov/furnicart/internal/domain"
	"github.com/vladislavdragonenkov/furnicart/internal/metrics"
	"github.com/vladislavdragonenkov/furnicart/internal/storage/memory"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

func completeForm() checkout.Form {
	return checkout.Form{
		checkout.FieldFirstName: "Ada",
		checkout.FieldLastName:  "Lovelace",
		checkout.FieldAddress:   "12 St James's Square",
		checkout.FieldState:     "London",
		checkout.FieldZip:       "SW1Y 4JH",
		checkout.FieldEmail:     "ada@example.com",
		checkout.FieldPhone:     "+44 20 7946 0000",
		checkout.FieldCountry:   "uk",
	}
}

func oneItem() domain.Items {
	return domain.Items{{Name: "Chair", Price: decimal.RequireFromString("49.99"), Quantity: 1}}
}

// recordingPublisher запоминает опубликованные события.
type recordingPublisher struct {
	events []domain.CartEvent
	err    error
}

func (p *recordingPublisher) PublishCartEvent(_ context.Context, event domain.CartEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func TestValidate_EmptyCartAlwaysFails(t *testing.T) {
	for _, form := range []checkout.Form{nil, {}, completeForm()} {
		result := checkout.Validate(nil, form)

		assert.True(t, result.EmptyCart)
		assert.False(t, result.OK())
		assert.Empty(t, result.Missing, "empty cart must not report field errors")
		assert.Equal(t, checkout.RedirectShop, result.RedirectTo)
		assert.ErrorIs(t, result.Err(), domain.ErrEmptyCart)
	}
}

func TestValidate_CompleteFormPasses(t *testing.T) {
	result := checkout.Validate(oneItem(), completeForm())

	assert.True(t, result.OK())
	assert.NoError(t, result.Err())
	assert.Empty(t, result.Message())
	assert.Equal(t, checkout.RedirectThankYou, result.RedirectTo)
	for _, field := range checkout.Fields {
		assert.False(t, result.Invalid[field], field)
	}
}

func TestValidate_MissingFieldsInEnumerationOrder(t *testing.T) {
	form := completeForm()
	form[checkout.FieldCountry] = checkout.CountryPlaceholder
	form[checkout.FieldEmail] = "   "
	delete(form, checkout.FieldFirstName)

	result := checkout.Validate(oneItem(), form)

	require.False(t, result.OK())
	assert.Equal(t, []checkout.Field{checkout.FieldFirstName, checkout.FieldEmail, checkout.FieldCountry}, result.Missing)
	assert.Equal(t, []string{"First Name", "Email Address", "Country"}, result.MissingLabels())
	assert.Equal(t,
		"Please fill in all required fields:\n\n- First Name\n- Email Address\n- Country\n",
		result.Message(),
	)
	assert.True(t, result.Invalid[checkout.FieldEmail])
	assert.False(t, result.Invalid[checkout.FieldLastName])
	assert.Empty(t, result.RedirectTo)
	assert.ErrorIs(t, result.Err(), domain.ErrCheckoutFieldsMissing)
}

func TestValidate_EachFieldRequired(t *testing.T) {
	for _, field := range checkout.Fields {
		t.Run(string(field), func(t *testing.T) {
			form := completeForm()
			form[field] = ""

			result := checkout.Validate(oneItem(), form)

			assert.Equal(t, []checkout.Field{field}, result.Missing)
		})
	}
}

func TestValidate_AllMissing(t *testing.T) {
	result := checkout.Validate(oneItem(), checkout.Form{})

	assert.Equal(t, checkout.Fields, result.Missing)
}

func TestFormFromElements(t *testing.T) {
	form := checkout.FormFromElements(map[string]string{
		"c_fname":         "Ada",
		"c_country":       "1",
		"c_companyname":   "ignored",
		"c_email_address": "ada@example.com",
	})

	assert.Equal(t, "Ada", form[checkout.FieldFirstName])
	assert.Equal(t, "ada@example.com", form[checkout.FieldEmail])
	assert.Len(t, form, 3)

	field, ok := checkout.FieldByElementID("c_postal_zip")
	assert.True(t, ok)
	assert.Equal(t, checkout.FieldZip, field)
	assert.Equal(t, "c_postal_zip", checkout.FieldZip.ElementID())
	assert.Equal(t, "Postal/Zip Code", checkout.FieldZip.Label())
}

func newCart(t *testing.T, storage domain.RecordStorage) *cart.Store {
	t.Helper()
	return cart.NewStore(storage, domain.DefaultCartKey, nil, cart.WithLogger(loggerForTests()))
}

func TestSubmit_SuccessClearsPersistedCart(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewRecordStorage()
	store := newCart(t, storage)
	store.Add(ctx, "Chair", decimal.RequireFromString("49.99"), "chair.png")
	publisher := &recordingPublisher{}

	validator := checkout.NewValidator(
		checkout.WithPublisher(publisher),
		checkout.WithMetrics(metrics.NewCartMetricsWithRegisterer(prometheus.NewRegistry())),
		checkout.WithLogger(loggerForTests()),
	)
	result, err := validator.Submit(ctx, store, completeForm())

	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Empty(t, store.Items())

	reloaded := newCart(t, storage)
	assert.Empty(t, reloaded.Load(ctx))

	require.Len(t, publisher.events, 1)
	assert.Equal(t, domain.CartEventCheckoutAccepted, publisher.events[0].Type)
	assert.Equal(t, "49.99", publisher.events[0].Total)
}

func TestSubmit_MissingFieldsLeavesCartUntouched(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewRecordStorage()
	store := newCart(t, storage)
	store.Add(ctx, "Chair", decimal.RequireFromString("49.99"), "chair.png")
	publisher := &recordingPublisher{err: errors.New("broker down")}

	form := completeForm()
	form[checkout.FieldPhone] = ""
	result, err := checkout.NewValidator(checkout.WithPublisher(publisher), checkout.WithLogger(loggerForTests())).
		Submit(ctx, store, form)

	require.ErrorIs(t, err, domain.ErrCheckoutFieldsMissing)
	assert.Equal(t, []checkout.Field{checkout.FieldPhone}, result.Missing)
	assert.Equal(t, 1, store.ItemCount())
	assert.Len(t, newCart(t, storage).Load(ctx), 1)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, domain.CartEventCheckoutRejected, publisher.events[0].Type)
	assert.Equal(t, []string{"phone"}, publisher.events[0].Missing)
}

func TestSubmit_EmptyCart(t *testing.T) {
	store := newCart(t, memory.NewRecordStorage())

	result, err := checkout.NewValidator(checkout.WithLogger(loggerForTests())).
		Submit(context.Background(), store, completeForm())

	require.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.True(t, result.EmptyCart)
	assert.Equal(t, checkout.RedirectShop, result.RedirectTo)
	assert.Equal(t, "Your cart is empty! Please add items before checkout.", result.Message())
}

// addDuringCheckCart запускает AddItem другого запроса, пока форма проверяется.
type addDuringCheckCart struct {
	*cart.Store
	added chan struct{}
}

func (c *addDuringCheckCart) ClearIf(ctx context.Context, accept func(domain.Items) bool) (domain.Items, bool) {
	return c.Store.ClearIf(ctx, func(items domain.Items) bool {
		ok := accept(items)
		started := make(chan struct{})
		go func() {
			close(started)
			c.Store.Add(ctx, "Lamp", decimal.RequireFromString("20"), "lamp.png")
			close(c.added)
		}()
		<-started
		return ok
	})
}

func TestSubmit_ConcurrentAddSurvivesCheckout(t *testing.T) {
	ctx := context.Background()
	store := newCart(t, memory.NewRecordStorage())
	store.Add(ctx, "Chair", decimal.RequireFromString("49.99"), "chair.png")
	publisher := &recordingPublisher{}
	c := &addDuringCheckCart{Store: store, added: make(chan struct{})}

	result, err := checkout.NewValidator(checkout.WithPublisher(publisher), checkout.WithLogger(loggerForTests())).
		Submit(ctx, c, completeForm())
	<-c.added

	require.NoError(t, err)
	assert.True(t, result.OK())

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Lamp", items[0].Name)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, domain.CartEventCheckoutAccepted, event.Type)
	assert.Equal(t, "49.99", event.Total)
	require.Len(t, event.Items, 1)
	assert.Equal(t, "Chair", event.Items[0].Name)
}
