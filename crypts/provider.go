// Package crypts - криптографический движок сервиса: генерация ключей,
// сборка и подпись X.509 структур (сертификаты УЦ, клиентские сертификаты,
// CRL), упаковка PKCS#12 контейнеров. Пакет не хранит состояния и не
// обращается к базе, его можно вызывать конкурентно без синхронизации.
package crypts

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"time"

	"github.com/alrdevelop/caserv/caerrors"
	"github.com/alrdevelop/caserv/models"
)

// OID атрибутов имени, используемых российскими УЦ
var (
	oidEmailAddress = []int{1, 2, 840, 113549, 1, 9, 1}
	oidOgrn         = []int{1, 2, 643, 100, 1}
	oidSnils        = []int{1, 2, 643, 100, 3}
	oidInnLe        = []int{1, 2, 643, 100, 4}
	oidOgrnip       = []int{1, 2, 643, 100, 5}
	oidInn          = []int{1, 2, 643, 3, 131, 1, 1}
	oidGivenName    = []int{2, 5, 4, 42}
	oidSurname      = []int{2, 5, 4, 4}
	oidTitle        = []int{2, 5, 4, 12}
)

type Provider struct{}

func NewProvider() *Provider {
	return &Provider{}
}

// Результат генерации сертификата: DER сертификата, PKCS#8 DER ключа,
// серийный номер и отпечаток
type GeneratedCert struct {
	Certificate []byte
	PrivateKey  []byte
	Serial      string
	Thumbprint  string
}

func appendExtraName(names []pkix.AttributeTypeAndValue, oid []int, value string) []pkix.AttributeTypeAndValue {
	if value == "" {
		return names
	}
	return append(names, pkix.AttributeTypeAndValue{Type: oid, Value: value})
}

// Незаполненные атрибуты в DN не включаются
func nameValue(value string) []string {
	if value == "" {
		return nil
	}
	return []string{value}
}

// Собирает DN юридического лица для самоподписанного сертификата УЦ
func caSubjectName(req *models.CreateCARequest) pkix.Name {
	extraNames := []pkix.AttributeTypeAndValue{}
	extraNames = appendExtraName(extraNames, oidEmailAddress, req.EmailAddress)
	extraNames = appendExtraName(extraNames, oidInnLe, req.InnLe)
	extraNames = appendExtraName(extraNames, oidOgrn, req.Ogrn)

	return pkix.Name{
		CommonName:         req.CommonName,
		Country:            nameValue(req.Country),
		Province:           nameValue(req.StateOrProvince),
		Locality:           nameValue(req.LocalityName),
		StreetAddress:      nameValue(req.StreetAddress),
		Organization:       nameValue(req.OrganizationName),
		OrganizationalUnit: nameValue(req.OrganizationUnit),
		ExtraNames:         extraNames,
	}
}

// Собирает DN клиентского сертификата. Атрибуты физического лица
// (ИНН, СНИЛС, имя, фамилия, должность) добавляются только если заполнены.
func clientSubjectName(req *models.IssueCertRequest) pkix.Name {
	extraNames := []pkix.AttributeTypeAndValue{}
	extraNames = appendExtraName(extraNames, oidEmailAddress, req.EmailAddress)
	extraNames = appendExtraName(extraNames, oidInn, req.Inn)
	extraNames = appendExtraName(extraNames, oidSnils, req.Snils)
	extraNames = appendExtraName(extraNames, oidGivenName, req.GivenName)
	extraNames = appendExtraName(extraNames, oidSurname, req.Surname)
	extraNames = appendExtraName(extraNames, oidInnLe, req.InnLe)
	extraNames = appendExtraName(extraNames, oidOgrn, req.Ogrn)
	extraNames = appendExtraName(extraNames, oidOgrnip, req.Ogrnip)
	extraNames = appendExtraName(extraNames, oidTitle, req.Title)

	return pkix.Name{
		CommonName:         req.CommonName,
		Country:            nameValue(req.Country),
		Province:           nameValue(req.StateOrProvince),
		Locality:           nameValue(req.LocalityName),
		StreetAddress:      nameValue(req.StreetAddress),
		Organization:       nameValue(req.OrganizationName),
		OrganizationalUnit: nameValue(req.OrganizationUnit),
		ExtraNames:         extraNames,
	}
}

// GenerateCA создает самоподписанный сертификат УЦ: ключевая пара
// запрошенного алгоритма, basicConstraints CA=true, keyUsage для подписи
// сертификатов и CRL, срок действия из запроса.
func (p *Provider) GenerateCA(req *models.CreateCARequest) (*GeneratedCert, error) {
	privateKey, err := newKeyPair(req.Algorithm)
	if err != nil {
		return nil, err
	}

	serialNumber, serialStr, err := GenerateSerialNumber()
	if err != nil {
		return nil, caerrors.CryptoError("%v", err)
	}

	ski, err := subjectKeyId(privateKey.Public())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               caSubjectName(req),
		NotBefore:             now,
		NotAfter:              now.AddDate(0, 0, req.TTLDays),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            1,
		SubjectKeyId:          ski,
	}

	certBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, privateKey.Public(), privateKey)
	if err != nil {
		return nil, caerrors.CryptoError("не удалось создать сертификат УЦ: %v", err)
	}

	keyBytes, err := marshalPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	return &GeneratedCert{
		Certificate: certBytes,
		PrivateKey:  keyBytes,
		Serial:      serialStr,
		Thumbprint:  Thumbprint(certBytes),
	}, nil
}

// GenerateClientCertificate выпускает клиентский сертификат, подписанный
// ключом УЦ из caInfo. В сертификат встраиваются точки распространения CRL,
// OCSP и адреса сертификата УЦ, взятые из caInfo. Вызывающий отвечает за
// валидность caInfo.
func (p *Provider) GenerateClientCertificate(req *models.IssueCertRequest, caInfo *models.CaInfo) (*GeneratedCert, error) {
	issuerCert, err := x509.ParseCertificate(caInfo.Certificate)
	if err != nil {
		return nil, caerrors.CryptoError("не удалось разобрать сертификат УЦ: %v", err)
	}
	issuerKey, err := parsePrivateKey(caInfo.PrivateKey)
	if err != nil {
		return nil, err
	}

	privateKey, err := newKeyPair(req.Algorithm)
	if err != nil {
		return nil, err
	}

	serialNumber, serialStr, err := GenerateSerialNumber()
	if err != nil {
		return nil, caerrors.CryptoError("%v", err)
	}

	ski, err := subjectKeyId(privateKey.Public())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               clientSubjectName(req),
		NotBefore:             now,
		NotAfter:              now.AddDate(0, 0, req.TTLDays),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  false,
		SubjectKeyId:          ski,
		AuthorityKeyId:        issuerCert.SubjectKeyId,
		CRLDistributionPoints: caInfo.CrlDistributionPoints,
		OCSPServer:            caInfo.OcspEndPoints,
		IssuingCertificateURL: caInfo.CaEndPoints,
	}

	certBytes, err := x509.CreateCertificate(rand.Reader, &template, issuerCert, privateKey.Public(), issuerKey)
	if err != nil {
		return nil, caerrors.CryptoError("не удалось подписать клиентский сертификат: %v", err)
	}

	keyBytes, err := marshalPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	return &GeneratedCert{
		Certificate: certBytes,
		PrivateKey:  keyBytes,
		Serial:      serialStr,
		Thumbprint:  Thumbprint(certBytes),
	}, nil
}
