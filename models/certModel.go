package models

import (
	"database/sql"
	"time"
)

// Запись клиентского сертификата. Приватный ключ не хранится - он
// отдается единственный раз в PKCS#12 контейнере при выпуске.
// revoke_date NULL означает действующий сертификат, записи не удаляются.
type CertData struct {
	Serial     string         `db:"serial"`
	Thumbprint string         `db:"thumbprint"`
	CaSerial   string         `db:"ca_serial"`
	CommonName string         `db:"common_name"`
	IssueDate  string         `db:"issue_date"`
	RevokeDate sql.NullString `db:"revoke_date"`
}

// StoredCertificate - публичная проекция сертификата
type StoredCertificate struct {
	Serial     string     `json:"serial"`
	Thumbprint string     `json:"thumbprint"`
	CaSerial   string     `json:"caSerial"`
	CommonName string     `json:"commonName"`
	IssueDate  time.Time  `json:"issueDate"`
	RevokeDate *time.Time `json:"revokeDate,omitempty"`
}

// PKCS12Container - результат выпуска, контейнер с ключом отдается
// вызывающему один раз и нигде не сохраняется
type PKCS12Container struct {
	Container  []byte `json:"-"`
	Serial     string `json:"serial"`
	Thumbprint string `json:"thumbprint"`
	CommonName string `json:"commonName"`
}

var SchemaCertsSqlite = `
CREATE TABLE IF NOT EXISTS certificates (
	serial TEXT PRIMARY KEY,
	thumbprint TEXT,
	ca_serial TEXT,
	common_name TEXT,
	issue_date TEXT,
	revoke_date TEXT
);`

var SchemaCertsPostgres = `
CREATE TABLE IF NOT EXISTS certificates (
	serial TEXT PRIMARY KEY,
	thumbprint TEXT,
	ca_serial TEXT,
	common_name TEXT,
	issue_date TEXT,
	revoke_date TEXT
);`
