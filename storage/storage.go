// Package storage - транзакционный слой хранения поверх пула соединений.
// Каждая операция берет одно соединение, открывает транзакцию, выполняет
// ровно один запрос и коммитит. Сравнение серийных номеров везде
// регистронезависимое. Удалений нет, хранилище append-mostly ради аудита.
package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/alrdevelop/caserv/caerrors"
	"github.com/alrdevelop/caserv/models"
	"github.com/alrdevelop/caserv/pool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

type Storage struct {
	pool *pool.Pool
	bind int
}

func New(p *pool.Pool, driver string) *Storage {
	return &Storage{
		pool: p,
		bind: sqlx.BindType(driver),
	}
}

// withTx арендует соединение, открывает транзакцию и гарантирует возврат
// соединения в пул на любом пути выхода. При ошибке транзакция откатывается.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	conn, err := s.pool.Lease(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Release(conn)

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Storage) rebind(query string) string {
	return sqlx.Rebind(s.bind, query)
}

// isUniqueViolation распознает нарушение уникальности для обоих драйверов
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func (s *Storage) GetCertificate(ctx context.Context, serial string) (*models.CertData, error) {
	var cert models.CertData
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := s.rebind(`SELECT serial, thumbprint, ca_serial, common_name, issue_date, revoke_date
			FROM certificates WHERE UPPER(serial) = UPPER(?) LIMIT 1`)
		return tx.GetContext(ctx, &cert, query, serial)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, caerrors.NotFoundError("сертификат %s не найден", serial)
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (s *Storage) GetCertificates(ctx context.Context, caSerial string) ([]models.CertData, error) {
	var certs []models.CertData
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := s.rebind(`SELECT serial, thumbprint, ca_serial, common_name, issue_date, revoke_date
			FROM certificates WHERE UPPER(ca_serial) = UPPER(?)`)
		return tx.SelectContext(ctx, &certs, query, caSerial)
	})
	if err != nil {
		return nil, err
	}
	return certs, nil
}

func (s *Storage) GetAllCertificates(ctx context.Context) ([]models.CertData, error) {
	var certs []models.CertData
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `SELECT serial, thumbprint, ca_serial, common_name, issue_date, revoke_date
			FROM certificates`
		return tx.SelectContext(ctx, &certs, query)
	})
	if err != nil {
		return nil, err
	}
	return certs, nil
}

// GetRevokedList возвращает отозванные сертификаты УЦ, последний отозванный
// первым. Порядок несущий: первый элемент становится last_serial нового CRL.
func (s *Storage) GetRevokedList(ctx context.Context, caSerial string) ([]models.CertData, error) {
	var certs []models.CertData
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := s.rebind(`SELECT serial, thumbprint, ca_serial, common_name, issue_date, revoke_date
			FROM certificates
			WHERE revoke_date IS NOT NULL AND UPPER(ca_serial) = UPPER(?)
			ORDER BY revoke_date DESC`)
		return tx.SelectContext(ctx, &certs, query, caSerial)
	})
	if err != nil {
		return nil, err
	}
	return certs, nil
}

func (s *Storage) GetCa(ctx context.Context, serial string) (*models.CAData, error) {
	var ca models.CAData
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := s.rebind(`SELECT serial, thumbprint, common_name, issue_date, certificate, private_key, public_url
			FROM ca WHERE UPPER(serial) = UPPER(?) LIMIT 1`)
		return tx.GetContext(ctx, &ca, query, serial)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, caerrors.NotFoundError("УЦ %s не найден", serial)
	}
	if err != nil {
		return nil, err
	}
	return &ca, nil
}

func (s *Storage) GetAllCa(ctx context.Context) ([]models.CAData, error) {
	var cas []models.CAData
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `SELECT serial, thumbprint, common_name, issue_date, certificate, private_key, public_url FROM ca`
		return tx.SelectContext(ctx, &cas, query)
	})
	if err != nil {
		return nil, err
	}
	return cas, nil
}

func (s *Storage) GetCaCertificateData(ctx context.Context, serial string) ([]byte, error) {
	var content []byte
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := s.rebind(`SELECT certificate FROM ca WHERE UPPER(serial) = UPPER(?) LIMIT 1`)
		return tx.GetContext(ctx, &content, query, serial)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, caerrors.NotFoundError("УЦ %s не найден", serial)
	}
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (s *Storage) AddCertificate(ctx context.Context, cert *models.CertData) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := s.rebind(`INSERT INTO certificates(serial, thumbprint, ca_serial, common_name, issue_date, revoke_date)
			VALUES (?, ?, ?, ?, ?, NULL)`)
		_, err := tx.ExecContext(ctx, query, cert.Serial, cert.Thumbprint, cert.CaSerial, cert.CommonName, cert.IssueDate)
		return err
	})
	if isUniqueViolation(err) {
		return caerrors.ConflictError("сертификат с серийным номером %s уже существует", cert.Serial)
	}
	return err
}

func (s *Storage) AddCA(ctx context.Context, ca *models.CAData) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := s.rebind(`INSERT INTO ca(serial, thumbprint, common_name, issue_date, certificate, private_key, public_url)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		_, err := tx.ExecContext(ctx, query, ca.Serial, ca.Thumbprint, ca.CommonName, ca.IssueDate,
			ca.Certificate, ca.PrivateKey, ca.PublicUrl)
		return err
	})
	if isUniqueViolation(err) {
		return caerrors.ConflictError("УЦ с серийным номером %s уже существует", ca.Serial)
	}
	return err
}

// MakeCertificateRevoked проставляет дату отзыва только если сертификат
// еще действует - первый отзыв выигрывает, дата не перезаписывается.
// Возвращает true, если запись была изменена.
func (s *Storage) MakeCertificateRevoked(ctx context.Context, serial string, revokeDate string) (bool, error) {
	var affected int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := s.rebind(`UPDATE certificates SET revoke_date = ?
			WHERE UPPER(serial) = UPPER(?) AND revoke_date IS NULL`)
		res, err := tx.ExecContext(ctx, query, revokeDate, serial)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *Storage) AddCrl(ctx context.Context, crl *models.CrlData) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := s.rebind(`INSERT INTO crl(ca_serial, number, issue_date, expire_date, last_serial, content)
			VALUES (?, ?, ?, ?, ?, ?)`)
		_, err := tx.ExecContext(ctx, query, crl.CaSerial, crl.Number, crl.IssueDate, crl.ExpireDate,
			crl.LastSerial, crl.Content)
		return err
	})
	if isUniqueViolation(err) {
		return caerrors.ConflictError("CRL номер %d для УЦ %s уже выпущен", crl.Number, crl.CaSerial)
	}
	return err
}

// GetActualCrl возвращает CRL с максимальным номером или nil, если для
// данного УЦ еще не выпускалось ни одного списка
func (s *Storage) GetActualCrl(ctx context.Context, caSerial string) (*models.CrlData, error) {
	var crl models.CrlData
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := s.rebind(`SELECT ca_serial, number, issue_date, expire_date, last_serial, content
			FROM crl WHERE UPPER(ca_serial) = UPPER(?)
			ORDER BY number DESC LIMIT 1`)
		return tx.GetContext(ctx, &crl, query, caSerial)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &crl, nil
}
