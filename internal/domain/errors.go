package domain

import "errors"

var (
	// ErrRecordNotFound возвращается хранилищем, если записи под ключом нет.
	ErrRecordNotFound = errors.New("cart record not found")
	// ErrRecordCorrupt: сохранённая запись не разбирается как корзина.
	ErrRecordCorrupt = errors.New("cart record is corrupt")
	// ErrIndexOutOfRange: индекс позиции не соответствует текущему списку.
	ErrIndexOutOfRange = errors.New("line item index out of range")
	// Ошибка при некорректном количестве товара (< 1).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка повторяющегося имени позиции.
	ErrDuplicateItem = errors.New("duplicate line item name")
	// ErrEmptyCart: оформление заказа с пустой корзиной.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCheckoutFieldsMissing: не заполнены обязательные поля формы оформления.
	ErrCheckoutFieldsMissing = errors.New("required checkout fields are missing")
	// ErrSessionNotFound: сессия корзины не открыта.
	ErrSessionNotFound = errors.New("cart session not found")
	// ErrEventPublish: ошибка при публикации события корзины.
	ErrEventPublish = errors.New("cart event publish failed")
)

// IsRecordMissing сообщает, что запись отсутствует или повреждена;
// оба случая трактуются как "сохранённой корзины нет".
func IsRecordMissing(err error) bool {
	return errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrRecordCorrupt)
}
