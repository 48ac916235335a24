package models

// All lists every persistence model, in dependency order.
// Used by AutoMigrate on sqlite; postgres schemas come from the SQL migrations.
func All() []any {
	return []any{
		&UserModel{},
		&ClientModel{},
		&ProductModel{},
		&QuotationModel{},
		&QuotationItemModel{},
	}
}
