package crypts

import (
	"crypto/x509"

	"github.com/alrdevelop/caserv/caerrors"
	"software.sslmate.com/src/go-pkcs12"
)

// PackagePKCS12 упаковывает клиентский сертификат, его приватный ключ и
// цепочку УЦ в контейнер, защищенный паролем. Чистое кодирование, ничего
// не сохраняет.
func PackagePKCS12(leafCertDer, leafKeyDer []byte, caChain [][]byte, password string) ([]byte, error) {
	leafCert, err := x509.ParseCertificate(leafCertDer)
	if err != nil {
		return nil, caerrors.CryptoError("не удалось разобрать сертификат: %v", err)
	}
	leafKey, err := parsePrivateKey(leafKeyDer)
	if err != nil {
		return nil, err
	}

	var caCerts []*x509.Certificate
	for _, der := range caChain {
		caCert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, caerrors.CryptoError("не удалось разобрать сертификат цепочки: %v", err)
		}
		caCerts = append(caCerts, caCert)
	}

	container, err := pkcs12.Modern.Encode(leafKey, leafCert, caCerts, password)
	if err != nil {
		return nil, caerrors.CryptoError("не удалось собрать PKCS#12 контейнер: %v", err)
	}
	return container, nil
}
