package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alrdevelop/caserv/crypts"
	"github.com/alrdevelop/caserv/models"
	"github.com/alrdevelop/caserv/pool"
	"github.com/alrdevelop/caserv/service"
	"github.com/alrdevelop/caserv/storage"
	"github.com/gofiber/fiber/v3"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testApiKey = "test-api-key"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()

	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "routes_test.db"))
	require.NoError(t, err)
	db.MustExec(models.Schema("sqlite3"))

	p, err := pool.New(ctx, db, 4, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		p.Close()
		db.Close()
	})

	store := storage.New(p, "sqlite3")
	svc := service.NewCaService(store, crypts.NewProvider(), 24*time.Hour)

	app := fiber.New()
	Setup(app, svc, testApiKey)
	return app
}

func jsonRequest(t *testing.T, method, url string, body any, apiKey string) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}
	return req
}

func createCaBody() *models.CreateCARequest {
	return &models.CreateCARequest{
		Algorithm:        models.AlgECDSA256,
		TTLDays:          365,
		CommonName:       "Test CA",
		Country:          "RU",
		LocalityName:     "Санкт-Петербург",
		OrganizationName: "Test CA",
		PublicUrl:        "http://ca.test",
	}
}

func createTestCa(t *testing.T, app *fiber.App) models.StoredCA {
	t.Helper()
	resp, err := app.Test(jsonRequest(t, "POST", "/api/v1/ca", createCaBody(), testApiKey),
		fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var ca models.StoredCA
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ca))
	require.NotEmpty(t, ca.Serial)
	return ca
}

func TestCreateCA_RequiresApiKey(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(jsonRequest(t, "POST", "/api/v1/ca", createCaBody(), ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, "POST", "/api/v1/ca", createCaBody(), "wrong"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCaLifecycleOverHttp(t *testing.T) {
	app := newTestApp(t)
	ca := createTestCa(t, app)

	// УЦ доступен по серийному номеру
	resp, err := app.Test(jsonRequest(t, "GET", "/api/v1/ca/"+ca.Serial, nil, ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Несуществующий УЦ дает 404
	resp, err = app.Test(jsonRequest(t, "GET", "/api/v1/ca/DEADBEEF", nil, ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// Выпуск сертификата возвращает PKCS#12 контейнер
	issueReq := &models.IssueCertRequest{
		SubjectType:      models.SubjectJuridicalPerson,
		Algorithm:        models.AlgECDSA256,
		TTLDays:          30,
		CommonName:       "ООО Рога и Копыта",
		Country:          "RU",
		OrganizationName: "ООО Рога и Копыта",
		Pin:              "123456",
	}
	resp, err = app.Test(jsonRequest(t, "POST", "/api/v1/ca/"+ca.Serial+"/issue", issueReq, testApiKey),
		fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-pkcs12", resp.Header.Get("Content-Type"))
	certSerial := resp.Header.Get("X-Certificate-Serial")
	assert.NotEmpty(t, certSerial)

	// Отзыв выпущенного сертификата
	resp, err = app.Test(jsonRequest(t, "POST", "/api/v1/certificate/"+certSerial+"/revoke",
		&models.RevokeRequest{}, testApiKey))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Публикация: DER сертификата УЦ и CRL
	resp, err = app.Test(jsonRequest(t, "GET", "/api/v1/ca/"+ca.Serial+"/crt", nil, ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pkix-cert", resp.Header.Get("Content-Type"))

	resp, err = app.Test(jsonRequest(t, "GET", "/api/v1/ca/"+ca.Serial+"/crl", nil, ""),
		fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pkix-crl", resp.Header.Get("Content-Type"))
}

func TestIssue_NotImplementedSubjectOverHttp(t *testing.T) {
	app := newTestApp(t)
	ca := createTestCa(t, app)

	issueReq := &models.IssueCertRequest{
		SubjectType: models.SubjectPhysicalPerson,
		Algorithm:   models.AlgECDSA256,
		TTLDays:     30,
		CommonName:  "Иванов Иван",
		Pin:         "123456",
	}
	resp, err := app.Test(jsonRequest(t, "POST", "/api/v1/ca/"+ca.Serial+"/issue", issueReq, testApiKey),
		fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotImplemented, resp.StatusCode)
}

func TestRevoke_NotFoundOverHttp(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(jsonRequest(t, "POST", "/api/v1/certificate/DEADBEEF/revoke",
		&models.RevokeRequest{}, testApiKey))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
