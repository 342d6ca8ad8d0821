package grpcsvc

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/furnicart/internal/cart"
	"github.com/vladislavdragonenkov/furnicart/internal/checkout"
	"github.com/vladislavdragonenkov/furnicart/internal/domain"
	"github.com/vladislavdragonenkov/furnicart/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/furnicart/internal/metrics"
	"github.com/vladislavdragonenkov/furnicart/internal/view"
)

// DefaultSessionIdleTTL: сессия без обращений дольше этого выгружается из памяти.
const DefaultSessionIdleTTL = 30 * time.Minute

// session: корзина и панель одной сессии витрины.
type session struct {
	id       string
	store    *cart.Store
	panel    *view.Panel
	lastSeen time.Time
}

// CartService хранит корзины сессий и отдаёт их витрине по gRPC.
// Каждая сессия: отдельный cart.Store с ключом "<keyPrefix>:<session-id>".
// Сессию создаёт только OpenSession; остальные методы для неизвестной сессии
// возвращают NotFound. Простаивающие сессии выгружаются, сохранённая запись остаётся.
type CartService struct {
	storage   domain.RecordStorage
	keyPrefix string
	publisher domain.EventPublisher
	validator *checkout.Validator
	metrics   *metrics.CartMetrics
	logger    *log.Entry
	idleTTL   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// ServiceOption настраивает CartService.
type ServiceOption func(*CartService)

// WithPublisher включает публикацию событий корзины (перерисовка и оформление).
func WithPublisher(p domain.EventPublisher) ServiceOption {
	return func(s *CartService) { s.publisher = p }
}

// WithMetrics задаёт метрики.
func WithMetrics(m *metrics.CartMetrics) ServiceOption {
	return func(s *CartService) { s.metrics = m }
}

// WithKeyPrefix задаёт префикс ключей сохранённых записей.
func WithKeyPrefix(prefix string) ServiceOption {
	return func(s *CartService) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

// WithSessionIdleTTL задаёт время простоя, после которого сессия выгружается.
func WithSessionIdleTTL(ttl time.Duration) ServiceOption {
	return func(s *CartService) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

// NewCartService конструирует сервис с зависимостями.
func NewCartService(storage domain.RecordStorage, logger *log.Entry, opts ...ServiceOption) *CartService {
	if logger == nil {
		logger = log.New().WithField("component", "cart-service")
	}
	s := &CartService{
		storage:   storage,
		keyPrefix: domain.DefaultCartKey,
		logger:    logger,
		idleTTL:   DefaultSessionIdleTTL,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = checkout.NewValidator(
		checkout.WithPublisher(s.publisher),
		checkout.WithMetrics(s.metrics),
		checkout.WithLogger(logger.WithField("layer", "checkout")),
	)
	return s
}

func (s *CartService) cartKey(sessionID string) string {
	return s.keyPrefix + ":" + sessionID
}

// open возвращает сессию, создавая её и загружая сохранённую корзину при необходимости.
func (s *CartService) open(ctx context.Context, sessionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictIdleLocked(now)
	if sess, ok := s.sessions[sessionID]; ok {
		sess.lastSeen = now
		return sess
	}

	key := s.cartKey(sessionID)
	panel := view.NewPanel(0, 0)
	renderers := domain.Renderers{panel}
	if s.publisher != nil {
		renderers = append(renderers, kafka.NewRenderer(s.publisher, key, s.metrics.RecordEvent))
	}
	sess := &session{
		id:    sessionID,
		panel: panel,
		store: cart.NewStore(s.storage, key, renderers,
			cart.WithLogger(s.logger.WithField("layer", "cart")),
			cart.WithMetrics(s.metrics),
		),
		lastSeen: now,
	}
	// панель получает загруженную корзину напрямую: открытие сессии не публикует событий
	panel.Render(ctx, sess.store.Load(ctx))
	s.sessions[sessionID] = sess
	s.metrics.RecordSessionOpened()

	s.logger.WithFields(log.Fields{
		"session_id": sessionID,
		"items":      sess.store.Len(),
	}).Debug("сессия корзины открыта")
	return sess
}

// lookup находит открытую сессию и продлевает её.
func (s *CartService) lookup(rawID string) (*session, error) {
	sessionID := strings.TrimSpace(rawID)
	if sessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.sessions[sessionID]
	if !ok || s.idle(sess, now) {
		if ok {
			s.dropLocked(sess)
		}
		return nil, mapError(domain.ErrSessionNotFound)
	}
	sess.lastSeen = now
	return sess, nil
}

func (s *CartService) idle(sess *session, now time.Time) bool {
	return now.Sub(sess.lastSeen) > s.idleTTL
}

// evictIdleLocked выгружает простаивающие сессии; вызывается под s.mu.
func (s *CartService) evictIdleLocked(now time.Time) {
	for _, sess := range s.sessions {
		if s.idle(sess, now) {
			s.dropLocked(sess)
			s.logger.WithField("session_id", sess.id).Debug("сессия выгружена по простою")
		}
	}
}

func (s *CartService) dropLocked(sess *session) {
	delete(s.sessions, sess.id)
	sess.panel.Stop()
	s.metrics.RecordSessionClosed()
}

// reply собирает ответ по текущему состоянию сессии.
func (s *CartService) reply(sess *session) *CartReply {
	reply := newCartReply(sess.id, sess.store.Items())
	reply.CanCheckout = sess.store.CanCheckout()
	reply.PanelOpen = sess.panel.IsOpen()
	reply.NotificationVisible = sess.panel.NotificationVisible()
	return reply
}

// OpenSession открывает корзину; без session_id создаётся новая сессия.
func (s *CartService) OpenSession(ctx context.Context, req *SessionRequest) (*CartReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return s.reply(s.open(ctx, sessionID)), nil
}

// CloseSession выгружает корзину из памяти; сохранённая запись остаётся.
func (s *CartService) CloseSession(_ context.Context, req *SessionRequest) (*CloseSessionReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sess, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.sessions[sess.id] == sess {
		s.dropLocked(sess)
	}
	s.mu.Unlock()
	return &CloseSessionReply{SessionID: sess.id}, nil
}

// GetCart возвращает текущее состояние корзины.
func (s *CartService) GetCart(_ context.Context, req *SessionRequest) (*CartReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sess, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}
	return s.reply(sess), nil
}

// AddItem добавляет товар или увеличивает количество существующей позиции,
// затем открывает панель с уведомлением.
func (s *CartService) AddItem(ctx context.Context, req *AddItemRequest) (*CartReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "price %q is not a number", req.Price)
	}
	sess, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}

	sess.store.Add(ctx, req.Name, price, req.Image)
	sess.panel.ItemAdded()
	return s.reply(sess), nil
}

// RemoveItem удаляет позицию по индексу.
func (s *CartService) RemoveItem(ctx context.Context, req *RemoveItemRequest) (*CartReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sess, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.store.Remove(ctx, req.Index); err != nil {
		return nil, mapError(err)
	}
	return s.reply(sess), nil
}

// UpdateQuantity меняет количество позиции; до нуля означает удаление.
func (s *CartService) UpdateQuantity(ctx context.Context, req *UpdateQuantityRequest) (*CartReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sess, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.store.UpdateQuantity(ctx, req.Index, req.Delta); err != nil {
		return nil, mapError(err)
	}
	return s.reply(sess), nil
}

// ClearCart очищает корзину.
func (s *CartService) ClearCart(ctx context.Context, req *SessionRequest) (*CartReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sess, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}
	sess.store.Clear(ctx)
	return s.reply(sess), nil
}

// Checkout проверяет форму. Отказ: штатный результат (Accepted=false), а не ошибка gRPC.
func (s *CartService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sess, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}

	result, err := s.validator.Submit(ctx, sess.store, checkout.FormFromElements(req.Fields))
	if err != nil && !errors.Is(err, domain.ErrEmptyCart) && !errors.Is(err, domain.ErrCheckoutFieldsMissing) {
		return nil, mapError(err)
	}
	return newCheckoutReply(result, s.reply(sess)), nil
}

// parsePrice разбирает цену из текста карточки товара ("$49.99").
func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "$")
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// mapError переводит доменные ошибки в gRPC-статусы.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return status.Error(codes.OutOfRange, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrEmptyCart), errors.Is(err, domain.ErrCheckoutFieldsMissing):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
