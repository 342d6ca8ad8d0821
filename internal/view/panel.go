package view

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/furnicart/internal/domain"
)

const (
	// DefaultNotificationTTL: через сколько скрывается уведомление "Item added to cart!".
	DefaultNotificationTTL = 2500 * time.Millisecond
	// DefaultAutoCloseDelay: через сколько панель закрывается после добавления.
	DefaultAutoCloseDelay = 3 * time.Second
)

// Panel: состояние выдвижной панели корзины и уведомления.
// Повторное добавление перезапускает таймеры; Stop отменяет их при закрытии сессии.
type Panel struct {
	mu           sync.Mutex
	open         bool
	notification bool
	sidebar      SidebarView
	badge        BadgeView

	hideTimer  *time.Timer
	closeTimer *time.Timer

	notificationTTL time.Duration
	autoCloseDelay  time.Duration
}

// NewPanel создаёт закрытую панель; нулевые задержки заменяются значениями по умолчанию.
func NewPanel(notificationTTL, autoCloseDelay time.Duration) *Panel {
	if notificationTTL <= 0 {
		notificationTTL = DefaultNotificationTTL
	}
	if autoCloseDelay <= 0 {
		autoCloseDelay = DefaultAutoCloseDelay
	}
	return &Panel{
		notificationTTL: notificationTTL,
		autoCloseDelay:  autoCloseDelay,
		sidebar:         Sidebar(nil),
	}
}

// Render обновляет содержимое панели и бейдж; реализует domain.Renderer.
func (p *Panel) Render(_ context.Context, snapshot domain.Items) {
	sidebar := Sidebar(snapshot)
	badge := Badge(snapshot)

	p.mu.Lock()
	p.sidebar = sidebar
	p.badge = badge
	p.mu.Unlock()
}

// Open открывает панель.
func (p *Panel) Open() {
	p.setOpen(true)
}

// Close закрывает панель.
func (p *Panel) Close() {
	p.setOpen(false)
}

func (p *Panel) setOpen(open bool) {
	p.mu.Lock()
	p.open = open
	p.mu.Unlock()
}

// IsOpen сообщает, открыта ли панель.
func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// NotificationVisible сообщает, показано ли уведомление.
func (p *Panel) NotificationVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notification
}

// Snapshot возвращает последние отрисованные панель и бейдж.
func (p *Panel) Snapshot() (SidebarView, BadgeView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sidebar, p.badge
}

// ItemAdded, реакция на добавление: уведомление и открытая панель,
// которые скрываются сами по таймерам.
func (p *Panel) ItemAdded() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.notification = true
	p.open = true
	p.stopTimers()
	p.hideTimer = time.AfterFunc(p.notificationTTL, func() {
		p.mu.Lock()
		p.notification = false
		p.mu.Unlock()
	})
	p.closeTimer = time.AfterFunc(p.autoCloseDelay, p.Close)
}

// Stop отменяет отложенное скрытие уведомления и закрытие панели.
func (p *Panel) Stop() {
	p.mu.Lock()
	p.stopTimers()
	p.mu.Unlock()
}

func (p *Panel) stopTimers() {
	if p.hideTimer != nil {
		p.hideTimer.Stop()
		p.hideTimer = nil
	}
	if p.closeTimer != nil {
		p.closeTimer.Stop()
		p.closeTimer = nil
	}
}

var _ domain.Renderer = (*Panel)(nil)
