// Package cart содержит состояние корзины покупателя.
//
// Store держит упорядоченный список позиций в памяти и после каждой мутации
// целиком перезаписывает сохранённую запись в key-value хранилище, а затем
// передаёт снимок внешнему рендереру. Загрузка отсутствующей или повреждённой
// записи даёт пустую корзину и никогда не возвращает ошибку.
package cart
