package view_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/furnicart/internal/domain"
	"github.com/vladislavdragonenkov/furnicart/internal/view"
)

func sampleItems() domain.Items {
	return domain.Items{
		{Name: "Chair", Price: decimal.RequireFromString("49.99"), Image: "chair.png", Quantity: 2},
		{Name: "Lamp", Price: decimal.RequireFromString("5"), Image: "lamp.png", Quantity: 1},
	}
}

func TestSidebar(t *testing.T) {
	v := view.Sidebar(sampleItems())

	assert.False(t, v.Empty)
	assert.Equal(t, "$104.98", v.Total)
	assert.Equal(t, 3, v.Count)
	require.Len(t, v.Lines, 2)
	assert.Equal(t, view.SidebarLine{Index: 1, Name: "Lamp", Image: "lamp.png", UnitPrice: "$5.00", Quantity: 1}, v.Lines[1])
}

func TestSidebar_Empty(t *testing.T) {
	v := view.Sidebar(nil)

	assert.True(t, v.Empty)
	assert.Equal(t, "$0.00", v.Total)
	assert.Zero(t, v.Count)
	assert.Empty(t, v.Lines)
}

func TestBadge(t *testing.T) {
	assert.Equal(t, view.BadgeView{Count: 3, Visible: true}, view.Badge(sampleItems()))
	assert.Equal(t, view.BadgeView{Count: 0, Visible: false}, view.Badge(nil))
}

func TestOrderSummary_MatchesCartTotal(t *testing.T) {
	items := sampleItems()
	s := view.OrderSummary(items)

	assert.Equal(t, "Your Items (2)", s.Heading)
	assert.Equal(t, []view.SummaryRow{
		{Label: "Chair x 2", Amount: "$99.98"},
		{Label: "Lamp x 1", Amount: "$5.00"},
	}, s.Rows)
	assert.Equal(t, view.Money(items.Total()), s.Subtotal)
	assert.Equal(t, s.Subtotal, s.Total)
	assert.False(t, s.Empty)
}

func TestPanel_RenderAndTimers(t *testing.T) {
	panel := view.NewPanel(20*time.Millisecond, 40*time.Millisecond)
	require.False(t, panel.IsOpen())

	panel.Render(context.Background(), sampleItems())
	sidebar, badge := panel.Snapshot()
	assert.Equal(t, "$104.98", sidebar.Total)
	assert.True(t, badge.Visible)

	panel.ItemAdded()
	assert.True(t, panel.IsOpen())
	assert.True(t, panel.NotificationVisible())

	require.Eventually(t, func() bool { return !panel.NotificationVisible() }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !panel.IsOpen() }, time.Second, 5*time.Millisecond)
}

func TestPanel_OpenClose(t *testing.T) {
	panel := view.NewPanel(0, 0)

	panel.Open()
	assert.True(t, panel.IsOpen())
	panel.Close()
	assert.False(t, panel.IsOpen())

	sidebar, _ := panel.Snapshot()
	assert.True(t, sidebar.Empty)
}

func TestPanel_StopCancelsTimers(t *testing.T) {
	panel := view.NewPanel(20*time.Millisecond, 20*time.Millisecond)

	panel.ItemAdded()
	panel.Stop()
	time.Sleep(60 * time.Millisecond)

	assert.True(t, panel.IsOpen())
	assert.True(t, panel.NotificationVisible())
}
