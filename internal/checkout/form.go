package checkout

import "strings"

// Field: обязательное поле формы оформления заказа.
type Field string

const (
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldAddress   Field = "address"
	FieldState     Field = "state"
	FieldZip       Field = "zip"
	FieldEmail     Field = "email"
	FieldPhone     Field = "phone"
	FieldCountry   Field = "country"
)

// CountryPlaceholder: значение select'а страны, означающее "страна не выбрана".
const CountryPlaceholder = "1"

// Fields перечисляет обязательные поля в порядке проверки и вывода ошибок.
var Fields = []Field{
	FieldFirstName,
	FieldLastName,
	FieldAddress,
	FieldState,
	FieldZip,
	FieldEmail,
	FieldPhone,
	FieldCountry,
}

var fieldMeta = map[Field]struct {
	elementID string
	label     string
}{
	FieldFirstName: {"c_fname", "First Name"},
	FieldLastName:  {"c_lname", "Last Name"},
	FieldAddress:   {"c_address", "Address"},
	FieldState:     {"c_state_country", "State/Country"},
	FieldZip:       {"c_postal_zip", "Postal/Zip Code"},
	FieldEmail:     {"c_email_address", "Email Address"},
	FieldPhone:     {"c_phone", "Phone Number"},
	FieldCountry:   {"c_country", "Country"},
}

// Label возвращает человекочитаемое имя поля.
func (f Field) Label() string {
	if meta, ok := fieldMeta[f]; ok {
		return meta.label
	}
	return string(f)
}

// ElementID возвращает id элемента формы на странице оформления.
func (f Field) ElementID() string {
	return fieldMeta[f].elementID
}

// FieldByElementID находит поле по id элемента формы.
func FieldByElementID(id string) (Field, bool) {
	for field, meta := range fieldMeta {
		if meta.elementID == id {
			return field, true
		}
	}
	return "", false
}

// Form: значения полей формы. Отсутствующий ключ означает, что поля на странице нет.
type Form map[Field]string

// FormFromElements строит Form из значений, индексированных id элементов страницы.
// Неизвестные id игнорируются.
func FormFromElements(values map[string]string) Form {
	form := make(Form, len(Fields))
	for id, value := range values {
		if field, ok := FieldByElementID(id); ok {
			form[field] = value
		}
	}
	return form
}

// fieldFilled проверяет одно поле. Страна не тримится: сравнивается сырое значение select'а.
func (f Form) fieldFilled(field Field) bool {
	value, ok := f[field]
	if !ok {
		return false
	}
	if field == FieldCountry {
		return value != CountryPlaceholder && strings.TrimSpace(value) != ""
	}
	return strings.TrimSpace(value) != ""
}
