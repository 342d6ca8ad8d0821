// Package view строит модели отображения корзины из её снимка.
// Функции чистые и не зависят от среды отрисовки.
package view

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/furnicart/internal/domain"
)

// Money форматирует сумму как $0.00.
func Money(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// SidebarLine: строка позиции в боковой панели.
type SidebarLine struct {
	Index     int
	Name      string
	Image     string
	UnitPrice string
	Quantity  int
}

// SidebarView: содержимое боковой панели корзины.
type SidebarView struct {
	Lines []SidebarLine
	Total string
	Count int
	Empty bool
}

// Sidebar строит панель; Index совпадает с индексом для Remove/UpdateQuantity.
func Sidebar(items domain.Items) SidebarView {
	v := SidebarView{
		Lines: make([]SidebarLine, 0, len(items)),
		Total: Money(items.Total()),
		Count: items.ItemCount(),
		Empty: len(items) == 0,
	}
	for idx, item := range items {
		v.Lines = append(v.Lines, SidebarLine{
			Index:     idx,
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: Money(item.Price),
			Quantity:  item.Quantity,
		})
	}
	return v
}

// BadgeView: счётчик на иконке корзины.
type BadgeView struct {
	Count   int
	Visible bool
}

// Badge скрывается при нуле.
func Badge(items domain.Items) BadgeView {
	count := items.ItemCount()
	return BadgeView{Count: count, Visible: count > 0}
}

// SummaryRow: строка таблицы заказа на странице оформления.
type SummaryRow struct {
	Label  string
	Amount string
}

// Summary: таблица заказа и список позиций страницы оформления.
type Summary struct {
	Heading  string
	Rows     []SummaryRow
	Subtotal string
	Total    string
	Empty    bool
}

// OrderSummary строит таблицу заказа. Subtotal и Total совпадают с domain.Items.Total.
func OrderSummary(items domain.Items) Summary {
	s := Summary{
		Heading:  fmt.Sprintf("Your Items (%d)", len(items)),
		Rows:     make([]SummaryRow, 0, len(items)),
		Subtotal: Money(items.Total()),
		Total:    Money(items.Total()),
		Empty:    len(items) == 0,
	}
	for _, item := range items {
		s.Rows = append(s.Rows, SummaryRow{
			Label:  fmt.Sprintf("%s x %d", item.Name, item.Quantity),
			Amount: Money(item.Subtotal()),
		})
	}
	return s
}
