package crypts

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"time"

	"github.com/alrdevelop/caserv/caerrors"
	"github.com/alrdevelop/caserv/models"
)

// Результат сборки CRL
type CrlBuild struct {
	Content    []byte
	Number     int64
	IssueDate  time.Time
	ExpireDate time.Time
	LastSerial string
}

// BuildCrl собирает и подписывает CRL ключом УЦ. Отозванные сертификаты
// записываются в переданном порядке - последний отозванный первым, его
// серийный номер становится last_serial. Номер нового списка всегда
// previousNumber+1, срок действия - фиксированное окно validity.
func (p *Provider) BuildCrl(issuerCertDer, issuerKeyDer []byte, revoked []models.CertData, previousNumber int64, validity time.Duration) (*CrlBuild, error) {
	issuerCert, err := x509.ParseCertificate(issuerCertDer)
	if err != nil {
		return nil, caerrors.CryptoError("не удалось разобрать сертификат УЦ: %v", err)
	}
	issuerKey, err := parsePrivateKey(issuerKeyDer)
	if err != nil {
		return nil, err
	}

	var revokedEntries []pkix.RevokedCertificate
	for _, cert := range revoked {
		serialNumber := new(big.Int)
		if _, ok := serialNumber.SetString(cert.Serial, 16); !ok {
			return nil, caerrors.CryptoError("некорректный серийный номер %s", cert.Serial)
		}

		revocationTime := time.Now()
		if cert.RevokeDate.Valid {
			parsed, err := time.Parse(time.RFC3339, cert.RevokeDate.String)
			if err == nil {
				revocationTime = parsed
			}
		}

		revokedEntries = append(revokedEntries, pkix.RevokedCertificate{
			SerialNumber:   serialNumber,
			RevocationTime: revocationTime,
		})
	}

	now := time.Now()
	template := &x509.RevocationList{
		RevokedCertificates: revokedEntries,
		Number:              big.NewInt(previousNumber + 1),
		ThisUpdate:          now,
		NextUpdate:          now.Add(validity),
	}

	crlBytes, err := x509.CreateRevocationList(rand.Reader, template, issuerCert, issuerKey)
	if err != nil {
		return nil, caerrors.CryptoError("не удалось создать CRL: %v", err)
	}

	lastSerial := ""
	if len(revoked) > 0 {
		lastSerial = revoked[0].Serial
	}

	return &CrlBuild{
		Content:    crlBytes,
		Number:     previousNumber + 1,
		IssueDate:  now,
		ExpireDate: now.Add(validity),
		LastSerial: lastSerial,
	}, nil
}
