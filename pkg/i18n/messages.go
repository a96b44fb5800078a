package i18n

import goi18n "github.com/nicksnyder/go-i18n/v2/i18n"

const (
	MsgConstraintViolation = "stock.constraint_violation"
	MsgInvalidQuantity     = "stock.invalid_quantity"
	MsgNotFound            = "common.not_found"
	MsgEmptyQuery          = "search.empty_query"
	MsgForbidden           = "auth.forbidden"
	MsgInternal            = "common.internal"
)

var english = []*goi18n.Message{
	{ID: MsgConstraintViolation, Other: "{{.Product}} cannot be stocked in {{.Aisle}}. Allowed categories: {{.Allowed}}. Product categories: {{.Categories}}."},
	{ID: MsgInvalidQuantity, Other: "Invalid quantity {{.Requested}}: {{.Limit}}."},
	{ID: MsgNotFound, Other: "{{.Entity}} {{.ID}} was not found."},
	{ID: MsgEmptyQuery, Other: "Please enter something to search for."},
	{ID: MsgForbidden, Other: "You are not allowed to perform this action."},
	{ID: MsgInternal, Other: "Something went wrong, please try again later."},
}

var indonesian = []*goi18n.Message{
	{ID: MsgConstraintViolation, Other: "{{.Product}} tidak dapat ditempatkan di {{.Aisle}}. Kategori yang diizinkan: {{.Allowed}}. Kategori produk: {{.Categories}}."},
	{ID: MsgInvalidQuantity, Other: "Jumlah {{.Requested}} tidak valid: {{.Limit}}."},
	{ID: MsgNotFound, Other: "{{.Entity}} {{.ID}} tidak ditemukan."},
	{ID: MsgEmptyQuery, Other: "Silakan masukkan kata kunci pencarian."},
	{ID: MsgForbidden, Other: "Anda tidak diizinkan melakukan tindakan ini."},
	{ID: MsgInternal, Other: "Terjadi kesalahan, silakan coba lagi nanti."},
}
