package models

// Schema возвращает DDL всех трех таблиц под выбранный драйвер
func Schema(driver string) string {
	if driver == "postgres" {
		return SchemaCaPostgres + SchemaCertsPostgres + SchemaCrlPostgres
	}
	return SchemaCaSqlite + SchemaCertsSqlite + SchemaCrlSqlite
}
