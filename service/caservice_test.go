package service

import (
	"context"
	"crypto/x509"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alrdevelop/caserv/caerrors"
	"github.com/alrdevelop/caserv/crypts"
	"github.com/alrdevelop/caserv/models"
	"github.com/alrdevelop/caserv/pool"
	"github.com/alrdevelop/caserv/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"software.sslmate.com/src/go-pkcs12"
)

func newTestService(t *testing.T, crlValidity time.Duration) (*CaService, *storage.Storage, context.Context) {
	t.Helper()
	ctx := context.Background()

	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "service_test.db"))
	require.NoError(t, err)
	db.MustExec(models.Schema("sqlite3"))

	p, err := pool.New(ctx, db, 4, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		p.Close()
		db.Close()
	})

	store := storage.New(p, "sqlite3")
	return NewCaService(store, crypts.NewProvider(), crlValidity), store, ctx
}

func createCaRequest() *models.CreateCARequest {
	return &models.CreateCARequest{
		Algorithm:        models.AlgECDSA256,
		TTLDays:          365,
		CommonName:       "Test CA",
		Country:          "RU",
		LocalityName:     "Санкт-Петербург",
		StateOrProvince:  "78 г.Санкт-Петербург",
		StreetAddress:    "ул. Большая Морская",
		EmailAddress:     "test@testemail.ru",
		InnLe:            "1234567890",
		Ogrn:             "1234567890123",
		OrganizationName: "Test CA",
		OrganizationUnit: "PKI",
		PublicUrl:        "http://ca.test",
	}
}

func issueRequest() *models.IssueCertRequest {
	return &models.IssueCertRequest{
		SubjectType:      models.SubjectJuridicalPerson,
		Algorithm:        models.AlgECDSA256,
		TTLDays:          30,
		CommonName:       "ООО Рога и Копыта",
		Country:          "RU",
		LocalityName:     "Санкт-Петербург",
		StateOrProvince:  "78 г.Санкт-Петербург",
		StreetAddress:    "ул. Пушкина",
		EmailAddress:     "client@testemail.ru",
		InnLe:            "2234467890",
		Ogrn:             "2224567890123",
		OrganizationName: "ООО Рога и Копыта",
		OrganizationUnit: "Директорат",
		Pin:              "123456",
	}
}

func TestCreateCA(t *testing.T) {
	svc, _, ctx := newTestService(t, 24*time.Hour)

	ca, err := svc.CreateCA(ctx, createCaRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, ca.Serial)
	assert.NotEmpty(t, ca.Thumbprint)
	assert.Equal(t, "Test CA", ca.CommonName)
	assert.Equal(t, "http://ca.test", ca.PublicUrl)
	assert.WithinDuration(t, time.Now(), ca.IssueDate, time.Minute)

	// Регистронезависимый поиск возвращает ту же запись
	lower, err := svc.GetCa(ctx, strings.ToLower(ca.Serial))
	require.NoError(t, err)
	assert.Equal(t, ca.Serial, lower.Serial)

	all, err := svc.GetAllCa(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateCA_Validation(t *testing.T) {
	svc, _, ctx := newTestService(t, 24*time.Hour)

	req := createCaRequest()
	req.CommonName = ""
	_, err := svc.CreateCA(ctx, req)
	assert.True(t, caerrors.Is(err, caerrors.Validation))

	req = createCaRequest()
	req.TTLDays = 0
	_, err = svc.CreateCA(ctx, req)
	assert.True(t, caerrors.Is(err, caerrors.Validation))
}

func TestGetCaCertificateBytes(t *testing.T) {
	svc, _, ctx := newTestService(t, 24*time.Hour)

	ca, err := svc.CreateCA(ctx, createCaRequest())
	require.NoError(t, err)

	der, err := svc.GetCaCertificateBytes(ctx, ca.Serial)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	assert.Equal(t, "Test CA", cert.Subject.CommonName)
	assert.Equal(t, crypts.Thumbprint(der), ca.Thumbprint)
}

// Сценарий A: создать УЦ, выпустить сертификат, убедиться что под УЦ ровно
// одна действующая запись
func TestIssueCertificate(t *testing.T) {
	svc, _, ctx := newTestService(t, 24*time.Hour)

	ca, err := svc.CreateCA(ctx, createCaRequest())
	require.NoError(t, err)

	container, err := svc.IssueCertificate(ctx, ca.Serial, issueRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, container.Serial)
	assert.NotEmpty(t, container.Container)

	// Контейнер вскрывается паролем из запроса и содержит цепочку УЦ
	_, leafCert, chain, err := pkcs12.DecodeChain(container.Container, "123456")
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, "ООО Рога и Копыта", leafCert.Subject.CommonName)

	// Расширения выведены из publicUrl выпустившего УЦ
	assert.Equal(t, []string{"http://ca.test/" + ca.Serial + ".crl"}, leafCert.CRLDistributionPoints)
	assert.Equal(t, []string{"http://ca.test/ocsp/" + ca.Serial}, leafCert.OCSPServer)
	assert.Equal(t, []string{"http://ca.test/" + ca.Serial + ".crt"}, leafCert.IssuingCertificateURL)

	certs, err := svc.GetCertificates(ctx, ca.Serial)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, container.Serial, certs[0].Serial)
	assert.Equal(t, ca.Serial, certs[0].CaSerial)
	assert.Nil(t, certs[0].RevokeDate)
}

// Сценарий D: выпуск под несуществующий УЦ не оставляет записей
func TestIssueCertificate_CaNotFound(t *testing.T) {
	svc, _, ctx := newTestService(t, 24*time.Hour)

	_, err := svc.IssueCertificate(ctx, "DEADBEEF", issueRequest())
	require.Error(t, err)
	assert.True(t, caerrors.Is(err, caerrors.NotFound))

	all, err := svc.GetAllCertificates(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestIssueCertificate_NotImplementedSubjects(t *testing.T) {
	svc, _, ctx := newTestService(t, 24*time.Hour)

	ca, err := svc.CreateCA(ctx, createCaRequest())
	require.NoError(t, err)

	for _, subject := range []string{models.SubjectIndividualEntrepreneur, models.SubjectPhysicalPerson} {
		req := issueRequest()
		req.SubjectType = subject
		_, err := svc.IssueCertificate(ctx, ca.Serial, req)
		require.Error(t, err)
		assert.True(t, caerrors.Is(err, caerrors.NotImplemented), "субъект %s", subject)
	}

	req := issueRequest()
	req.SubjectType = "Alien"
	_, err = svc.IssueCertificate(ctx, ca.Serial, req)
	assert.True(t, caerrors.Is(err, caerrors.Validation))
}

func TestRevokeCertificate_FirstRevocationWins(t *testing.T) {
	svc, _, ctx := newTestService(t, 24*time.Hour)

	ca, err := svc.CreateCA(ctx, createCaRequest())
	require.NoError(t, err)
	container, err := svc.IssueCertificate(ctx, ca.Serial, issueRequest())
	require.NoError(t, err)

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RevokeCertificate(ctx, container.Serial, first))

	// Повторный отзыв с более поздней датой не меняет исходную
	require.NoError(t, svc.RevokeCertificate(ctx, container.Serial, first.AddDate(0, 0, 5)))

	cert, err := svc.GetCertificate(ctx, container.Serial)
	require.NoError(t, err)
	require.NotNil(t, cert.RevokeDate)
	assert.True(t, cert.RevokeDate.Equal(first))
}

func TestRevokeCertificate_NotFound(t *testing.T) {
	svc, _, ctx := newTestService(t, 24*time.Hour)

	err := svc.RevokeCertificate(ctx, "DEADBEEF", time.Now())
	require.Error(t, err)
	assert.True(t, caerrors.Is(err, caerrors.NotFound))
}

// Сценарий C: CRL выпускается и для УЦ без отзывов, с пустым списком и номером 1
func TestGetCrlBytes_EmptyRevocations(t *testing.T) {
	svc, _, ctx := newTestService(t, 24*time.Hour)

	ca, err := svc.CreateCA(ctx, createCaRequest())
	require.NoError(t, err)

	content, err := svc.GetCrlBytes(ctx, ca.Serial)
	require.NoError(t, err)

	crl, err := x509.ParseRevocationList(content)
	require.NoError(t, err)
	assert.Equal(t, int64(1), crl.Number.Int64())
	assert.Empty(t, crl.RevokedCertificateEntries)

	// Повторный запрос возвращает тот же действующий список
	again, err := svc.GetCrlBytes(ctx, ca.Serial)
	require.NoError(t, err)
	assert.Equal(t, content, again)
}

// Сценарий B: из двух сертификатов отозван один - в CRL ровно он,
// last_serial равен его серийному номеру
func TestGetCrlBytes_RevokedSet(t *testing.T) {
	svc, store, ctx := newTestService(t, 24*time.Hour)

	ca, err := svc.CreateCA(ctx, createCaRequest())
	require.NoError(t, err)

	first, err := svc.IssueCertificate(ctx, ca.Serial, issueRequest())
	require.NoError(t, err)
	_, err = svc.IssueCertificate(ctx, ca.Serial, issueRequest())
	require.NoError(t, err)

	require.NoError(t, svc.RevokeCertificate(ctx, first.Serial, time.Now()))

	content, err := svc.GetCrlBytes(ctx, ca.Serial)
	require.NoError(t, err)

	crl, err := x509.ParseRevocationList(content)
	require.NoError(t, err)
	require.Len(t, crl.RevokedCertificateEntries, 1)
	assert.Equal(t, first.Serial,
		crypts.StandardizeSerialNumber(crl.RevokedCertificateEntries[0].SerialNumber))

	actual, err := store.GetActualCrl(ctx, ca.Serial)
	require.NoError(t, err)
	require.NotNil(t, actual)
	assert.Equal(t, first.Serial, actual.LastSerial)
	assert.Equal(t, int64(1), actual.Number)
}

// Номера CRL строго возрастают: истекший список заменяется следующим номером
func TestGetCrlBytes_MonotonicNumbering(t *testing.T) {
	svc, _, ctx := newTestService(t, 50*time.Millisecond)

	ca, err := svc.CreateCA(ctx, createCaRequest())
	require.NoError(t, err)

	content1, err := svc.GetCrlBytes(ctx, ca.Serial)
	require.NoError(t, err)
	crl1, err := x509.ParseRevocationList(content1)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	content2, err := svc.GetCrlBytes(ctx, ca.Serial)
	require.NoError(t, err)
	crl2, err := x509.ParseRevocationList(content2)
	require.NoError(t, err)

	assert.Equal(t, crl1.Number.Int64()+1, crl2.Number.Int64())
}

// Полнота CRL: все сертификаты, отозванные до выпуска списка, в него входят
func TestGetCrlBytes_Completeness(t *testing.T) {
	svc, _, ctx := newTestService(t, 24*time.Hour)

	ca, err := svc.CreateCA(ctx, createCaRequest())
	require.NoError(t, err)

	revokedSerials := make(map[string]bool)
	for i := 0; i < 3; i++ {
		container, err := svc.IssueCertificate(ctx, ca.Serial, issueRequest())
		require.NoError(t, err)
		require.NoError(t, svc.RevokeCertificate(ctx, container.Serial, time.Now()))
		revokedSerials[container.Serial] = true
	}

	content, err := svc.GetCrlBytes(ctx, ca.Serial)
	require.NoError(t, err)

	crl, err := x509.ParseRevocationList(content)
	require.NoError(t, err)
	require.Len(t, crl.RevokedCertificateEntries, 3)
	for _, entry := range crl.RevokedCertificateEntries {
		serial := crypts.StandardizeSerialNumber(entry.SerialNumber)
		assert.True(t, revokedSerials[serial], "неожиданный серийный номер %s", serial)
	}
}

func TestGetCrlBytes_CaNotFound(t *testing.T) {
	svc, _, ctx := newTestService(t, 24*time.Hour)

	_, err := svc.GetCrlBytes(ctx, "DEADBEEF")
	require.Error(t, err)
	assert.True(t, caerrors.Is(err, caerrors.NotFound))
}

// Уникальность: серийные номера выпущенных сертификатов попарно различны
func TestIssuedSerialUniqueness(t *testing.T) {
	svc, _, ctx := newTestService(t, 24*time.Hour)

	ca, err := svc.CreateCA(ctx, createCaRequest())
	require.NoError(t, err)

	seen := map[string]bool{ca.Serial: true}
	for i := 0; i < 20; i++ {
		container, err := svc.IssueCertificate(ctx, ca.Serial, issueRequest())
		require.NoError(t, err)
		assert.False(t, seen[container.Serial])
		seen[container.Serial] = true
	}
}
