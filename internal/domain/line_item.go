package domain

import "github.com/shopspring/decimal"

// DefaultCartKey: ключ, под которым корзина хранится в key-value хранилище.
const DefaultCartKey = "furniCart"

// LineItem представляет одну позицию корзины.
type LineItem struct {
	// Name: уникальный ключ позиции внутри корзины.
	Name string
	// Price: цена за единицу товара, неотрицательная.
	Price decimal.Decimal
	// Image: URL изображения товара.
	Image string
	// Quantity: количество единиц, всегда >= 1.
	Quantity int
}

// Subtotal возвращает price × quantity для позиции.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Items: упорядоченная последовательность позиций корзины (порядок добавления).
type Items []LineItem

// Total возвращает сумму price × quantity по всем позициям.
func (items Items) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ItemCount возвращает суммарное количество единиц товара (для бейджа),
// а не число различных позиций.
func (items Items) ItemCount() int {
	var count int
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// IndexOf возвращает индекс позиции с указанным именем или -1.
func (items Items) IndexOf(name string) int {
	for idx, item := range items {
		if item.Name == name {
			return idx
		}
	}
	return -1
}

// Clone возвращает независимую копию последовательности.
func (items Items) Clone() Items {
	if items == nil {
		return Items{}
	}
	out := make(Items, len(items))
	copy(out, items)
	return out
}

// ValidateInvariants проверяет инварианты корзины и возвращает список замечаний.
func (items Items) ValidateInvariants() []error {
	var errs []error

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.Price.IsNegative() {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if _, dup := seen[item.Name]; dup {
			errs = append(errs, ErrDuplicateItem)
		}
		seen[item.Name] = struct{}{}
	}

	return errs
}
