package models

// Выпущенный CRL. Номер строго возрастает в рамках одного УЦ,
// актуальным считается CRL с максимальным номером. Старые записи
// не удаляются. last_serial - серийный номер последнего отозванного
// сертификата, попавшего в список (водяной знак для инкрементальной сборки).
type CrlData struct {
	CaSerial   string `db:"ca_serial"`
	Number     int64  `db:"number"`
	IssueDate  string `db:"issue_date"`
	ExpireDate string `db:"expire_date"`
	LastSerial string `db:"last_serial"`
	Content    []byte `db:"content"`
}

var SchemaCrlSqlite = `
CREATE TABLE IF NOT EXISTS crl (
	ca_serial TEXT,
	number INTEGER,
	issue_date TEXT,
	expire_date TEXT,
	last_serial TEXT,
	content BLOB,
	UNIQUE(ca_serial, number)
);`

var SchemaCrlPostgres = `
CREATE TABLE IF NOT EXISTS crl (
	ca_serial TEXT,
	number BIGINT,
	issue_date TEXT,
	expire_date TEXT,
	last_serial TEXT,
	content BYTEA,
	UNIQUE(ca_serial, number)
);`
