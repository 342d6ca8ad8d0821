package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// record, формат одной позиции в сохранённой записи:
// JSON-массив объектов name/price/image/quantity, price: число.
type record struct {
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Image    string      `json:"image"`
	Quantity int         `json:"quantity"`
}

// EncodeRecord сериализует всю корзину целиком в сохраняемую запись.
func EncodeRecord(items Items) ([]byte, error) {
	out := make([]record, 0, len(items))
	for _, item := range items {
		out = append(out, record{
			Name:     item.Name,
			Price:    json.Number(item.Price.String()),
			Image:    item.Image,
			Quantity: item.Quantity,
		})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal cart record: %w", err)
	}
	return data, nil
}

// DecodeRecord разбирает сохранённую запись.
// Пустые данные и JSON null дают пустую корзину; позиции с quantity <= 0 отбрасываются,
// позиции с повторяющимся именем сливаются в первую, отрицательная цена становится нулём.
func DecodeRecord(data []byte) (Items, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Items{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []record
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}

	items := make(Items, 0, len(raw))
	for idx, r := range raw {
		price := decimal.Zero
		if r.Price != "" {
			p, err := decimal.NewFromString(r.Price.String())
			if err != nil {
				return nil, fmt.Errorf("%w: item[%d].price: %v", ErrRecordCorrupt, idx, err)
			}
			price = p
		}
		if price.IsNegative() {
			price = decimal.Zero
		}
		if r.Quantity <= 0 {
			continue
		}
		if existing := items.IndexOf(r.Name); existing >= 0 {
			items[existing].Quantity += r.Quantity
			continue
		}
		items = append(items, LineItem{
			Name:     r.Name,
			Price:    price,
			Image:    r.Image,
			Quantity: r.Quantity,
		})
	}

	return items, nil
}
