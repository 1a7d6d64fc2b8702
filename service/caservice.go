// Package service - оркестратор выпуска и отзыва сертификатов. Связывает
// криптопровайдер и слой хранения, отвечает за правила целостности:
// уникальность серийных номеров, валидацию запросов, нумерацию CRL.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alrdevelop/caserv/caerrors"
	"github.com/alrdevelop/caserv/crypts"
	"github.com/alrdevelop/caserv/models"
	"github.com/alrdevelop/caserv/storage"
)

type CaService struct {
	db          *storage.Storage
	crypto      *crypts.Provider
	crlValidity time.Duration
}

func NewCaService(db *storage.Storage, crypto *crypts.Provider, crlValidity time.Duration) *CaService {
	return &CaService{
		db:          db,
		crypto:      crypto,
		crlValidity: crlValidity,
	}
}

func parseStoredDate(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

func toStoredCA(ca *models.CAData) (*models.StoredCA, error) {
	issueDate, err := parseStoredDate(ca.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("некорректная дата выпуска УЦ %s: %w", ca.Serial, err)
	}
	return &models.StoredCA{
		Serial:     ca.Serial,
		Thumbprint: ca.Thumbprint,
		CommonName: ca.CommonName,
		IssueDate:  issueDate,
		PublicUrl:  ca.PublicUrl,
	}, nil
}

func toStoredCertificate(cert *models.CertData) (*models.StoredCertificate, error) {
	issueDate, err := parseStoredDate(cert.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("некорректная дата выпуска сертификата %s: %w", cert.Serial, err)
	}
	stored := &models.StoredCertificate{
		Serial:     cert.Serial,
		Thumbprint: cert.Thumbprint,
		CaSerial:   cert.CaSerial,
		CommonName: cert.CommonName,
		IssueDate:  issueDate,
	}
	if cert.RevokeDate.Valid {
		revokeDate, err := parseStoredDate(cert.RevokeDate.String)
		if err != nil {
			return nil, fmt.Errorf("некорректная дата отзыва сертификата %s: %w", cert.Serial, err)
		}
		stored.RevokeDate = &revokeDate
	}
	return stored, nil
}

// CreateCA генерирует самоподписанный УЦ и сохраняет его вместе с приватным
// ключом. Возвращается публичная проекция, перечитанная из хранилища.
func (s *CaService) CreateCA(ctx context.Context, req *models.CreateCARequest) (*models.StoredCA, error) {
	if req.CommonName == "" || req.PublicUrl == "" {
		return nil, caerrors.ValidationError("commonName и publicUrl обязательны")
	}
	if req.TTLDays <= 0 {
		return nil, caerrors.ValidationError("ttlInDays должен быть положительным")
	}

	generated, err := s.crypto.GenerateCA(req)
	if err != nil {
		return nil, err
	}

	ca := &models.CAData{
		Serial:      generated.Serial,
		Thumbprint:  generated.Thumbprint,
		CommonName:  req.CommonName,
		IssueDate:   time.Now().UTC().Format(time.RFC3339),
		Certificate: generated.Certificate,
		PrivateKey:  generated.PrivateKey,
		PublicUrl:   req.PublicUrl,
	}
	if err := s.db.AddCA(ctx, ca); err != nil {
		// Ключевой материал уже сгенерирован и компенсации нет -
		// потеря фиксируется в журнале
		slog.Error("УЦ не сохранен, сгенерированный ключевой материал потерян",
			"serial", generated.Serial, "error", err)
		return nil, err
	}

	return s.GetCa(ctx, generated.Serial)
}

// IssueCertificate выпускает клиентский сертификат, подписанный выбранным УЦ,
// и возвращает PKCS#12 контейнер с ключом. Реализован выпуск для юридического
// лица; ИП и физическое лицо распознаются, но пока не поддержаны.
func (s *CaService) IssueCertificate(ctx context.Context, caSerial string, req *models.IssueCertRequest) (*models.PKCS12Container, error) {
	switch req.SubjectType {
	case models.SubjectJuridicalPerson:
	case models.SubjectIndividualEntrepreneur, models.SubjectPhysicalPerson:
		return nil, caerrors.NotImplementedError("выпуск для субъекта %s еще не реализован", req.SubjectType)
	default:
		return nil, caerrors.ValidationError("неизвестный тип субъекта %q", req.SubjectType)
	}
	if req.CommonName == "" {
		return nil, caerrors.ValidationError("commonName обязателен")
	}
	if req.Pin == "" {
		return nil, caerrors.ValidationError("pin для контейнера обязателен")
	}
	if req.TTLDays <= 0 {
		return nil, caerrors.ValidationError("ttlInDays должен быть положительным")
	}

	ca, err := s.db.GetCa(ctx, caSerial)
	if err != nil {
		return nil, err
	}

	caInfo := buildCaInfo(ca)
	generated, err := s.crypto.GenerateClientCertificate(req, caInfo)
	if err != nil {
		return nil, err
	}

	cert := &models.CertData{
		Serial:     generated.Serial,
		Thumbprint: generated.Thumbprint,
		CaSerial:   ca.Serial,
		CommonName: req.CommonName,
		IssueDate:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.db.AddCertificate(ctx, cert); err != nil {
		slog.Error("сертификат не сохранен, сгенерированный ключевой материал потерян",
			"serial", generated.Serial, "caSerial", ca.Serial, "error", err)
		return nil, err
	}

	container, err := crypts.PackagePKCS12(generated.Certificate, generated.PrivateKey,
		[][]byte{ca.Certificate}, req.Pin)
	if err != nil {
		return nil, err
	}

	return &models.PKCS12Container{
		Container:  container,
		Serial:     generated.Serial,
		Thumbprint: generated.Thumbprint,
		CommonName: req.CommonName,
	}, nil
}

// buildCaInfo собирает контекст подписи из записи УЦ. Адреса CRL, OCSP и
// сертификата УЦ выводятся из publicUrl по фиксированному шаблону.
func buildCaInfo(ca *models.CAData) *models.CaInfo {
	return &models.CaInfo{
		CrlDistributionPoints: []string{fmt.Sprintf("%s/%s.crl", ca.PublicUrl, ca.Serial)},
		OcspEndPoints:         []string{fmt.Sprintf("%s/ocsp/%s", ca.PublicUrl, ca.Serial)},
		CaEndPoints:           []string{fmt.Sprintf("%s/%s.crt", ca.PublicUrl, ca.Serial)},
		PrivateKey:            ca.PrivateKey,
		Certificate:           ca.Certificate,
	}
}

// RevokeCertificate помечает сертификат отозванным. Повторный отзыв не
// перезаписывает исходную дату - выигрывает первый отзыв.
func (s *CaService) RevokeCertificate(ctx context.Context, serial string, revokeDate time.Time) error {
	changed, err := s.db.MakeCertificateRevoked(ctx, serial, revokeDate.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	if changed {
		return nil
	}
	// Ничего не изменилось: либо сертификата нет, либо он уже отозван
	if _, err := s.db.GetCertificate(ctx, serial); err != nil {
		return err
	}
	return nil
}

func (s *CaService) GetCertificate(ctx context.Context, serial string) (*models.StoredCertificate, error) {
	cert, err := s.db.GetCertificate(ctx, serial)
	if err != nil {
		return nil, err
	}
	return toStoredCertificate(cert)
}

func (s *CaService) GetCertificates(ctx context.Context, caSerial string) ([]*models.StoredCertificate, error) {
	certs, err := s.db.GetCertificates(ctx, caSerial)
	if err != nil {
		return nil, err
	}
	return toStoredCertificates(certs)
}

func (s *CaService) GetAllCertificates(ctx context.Context) ([]*models.StoredCertificate, error) {
	certs, err := s.db.GetAllCertificates(ctx)
	if err != nil {
		return nil, err
	}
	return toStoredCertificates(certs)
}

func toStoredCertificates(certs []models.CertData) ([]*models.StoredCertificate, error) {
	result := make([]*models.StoredCertificate, 0, len(certs))
	for i := range certs {
		stored, err := toStoredCertificate(&certs[i])
		if err != nil {
			return nil, err
		}
		result = append(result, stored)
	}
	return result, nil
}

func (s *CaService) GetCa(ctx context.Context, serial string) (*models.StoredCA, error) {
	ca, err := s.db.GetCa(ctx, serial)
	if err != nil {
		return nil, err
	}
	return toStoredCA(ca)
}

func (s *CaService) GetAllCa(ctx context.Context) ([]*models.StoredCA, error) {
	cas, err := s.db.GetAllCa(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*models.StoredCA, 0, len(cas))
	for i := range cas {
		stored, err := toStoredCA(&cas[i])
		if err != nil {
			return nil, err
		}
		result = append(result, stored)
	}
	return result, nil
}

// GetCaCertificateBytes возвращает DER сертификата УЦ для публикации
func (s *CaService) GetCaCertificateBytes(ctx context.Context, serial string) ([]byte, error) {
	return s.db.GetCaCertificateData(ctx, serial)
}

// GetCrlBytes возвращает действующий CRL для публикации. Если списка нет
// или он истек, собирается и сохраняется новый с номером previous+1.
// Истечение оценивается лениво при чтении, фонового процесса нет.
func (s *CaService) GetCrlBytes(ctx context.Context, caSerial string) ([]byte, error) {
	actual, err := s.db.GetActualCrl(ctx, caSerial)
	if err != nil {
		return nil, err
	}
	if actual != nil {
		expireDate, err := parseStoredDate(actual.ExpireDate)
		if err == nil && expireDate.After(time.Now()) {
			return actual.Content, nil
		}
	}

	ca, err := s.db.GetCa(ctx, caSerial)
	if err != nil {
		return nil, err
	}

	revoked, err := s.db.GetRevokedList(ctx, ca.Serial)
	if err != nil {
		return nil, err
	}

	var previousNumber int64
	if actual != nil {
		previousNumber = actual.Number
	}

	build, err := s.crypto.BuildCrl(ca.Certificate, ca.PrivateKey, revoked, previousNumber, s.crlValidity)
	if err != nil {
		return nil, err
	}

	crl := &models.CrlData{
		CaSerial:   ca.Serial,
		Number:     build.Number,
		IssueDate:  build.IssueDate.UTC().Format(time.RFC3339),
		ExpireDate: build.ExpireDate.UTC().Format(time.RFC3339),
		LastSerial: build.LastSerial,
		Content:    build.Content,
	}
	if err := s.db.AddCrl(ctx, crl); err != nil {
		// Параллельный запрос успел выпустить CRL с тем же номером -
		// возвращаем победивший список
		if caerrors.Is(err, caerrors.Conflict) {
			winner, readErr := s.db.GetActualCrl(ctx, caSerial)
			if readErr == nil && winner != nil {
				return winner.Content, nil
			}
		}
		return nil, err
	}

	return build.Content, nil
}
