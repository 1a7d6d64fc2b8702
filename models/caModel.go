package models

import "time"

// Запись УЦ в базе данных. Приватный ключ хранится вместе с сертификатом
// (PKCS#8 DER), УЦ подписывает им сертификаты и CRL весь свой срок жизни.
type CAData struct {
	Serial      string `db:"serial"`
	Thumbprint  string `db:"thumbprint"`
	CommonName  string `db:"common_name"`
	IssueDate   string `db:"issue_date"`
	Certificate []byte `db:"certificate"`
	PrivateKey  []byte `db:"private_key"`
	PublicUrl   string `db:"public_url"`
}

// StoredCA - публичная проекция УЦ, ключ и тело сертификата наружу не отдаются
type StoredCA struct {
	Serial     string    `json:"serial"`
	Thumbprint string    `json:"thumbprint"`
	CommonName string    `json:"commonName"`
	IssueDate  time.Time `json:"issueDate"`
	PublicUrl  string    `json:"publicUrl"`
}

var SchemaCaSqlite = `
CREATE TABLE IF NOT EXISTS ca (
	serial TEXT PRIMARY KEY,
	thumbprint TEXT,
	common_name TEXT,
	issue_date TEXT,
	certificate BLOB,
	private_key BLOB,
	public_url TEXT
);`

var SchemaCaPostgres = `
CREATE TABLE IF NOT EXISTS ca (
	serial TEXT PRIMARY KEY,
	thumbprint TEXT,
	common_name TEXT,
	issue_date TEXT,
	certificate BYTEA,
	private_key BYTEA,
	public_url TEXT
);`
