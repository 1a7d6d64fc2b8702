package crypts

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"

	"github.com/alrdevelop/caserv/caerrors"
	"github.com/alrdevelop/caserv/models"
)

// Генерирует ключевую пару запрошенного алгоритма. Идентификаторы ГОСТ
// распознаются, но криптопровайдер их не реализует.
func newKeyPair(algorithm string) (crypto.Signer, error) {
	switch algorithm {
	case models.AlgRSA2048:
		return rsa.GenerateKey(rand.Reader, 2048)
	case models.AlgRSA4096:
		return rsa.GenerateKey(rand.Reader, 4096)
	case models.AlgECDSA256:
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case models.AlgECDSA384:
		return ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	case models.AlgEd25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		return priv, err
	case models.AlgGOST256, models.AlgGOST512:
		return nil, caerrors.CryptoError("алгоритм %s не поддерживается криптопровайдером", algorithm)
	default:
		return nil, caerrors.CryptoError("неизвестный алгоритм %s", algorithm)
	}
}

func marshalPrivateKey(key crypto.Signer) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, caerrors.CryptoError("не удалось закодировать приватный ключ: %v", err)
	}
	return der, nil
}

func parsePrivateKey(der []byte) (crypto.Signer, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, caerrors.CryptoError("не удалось разобрать приватный ключ: %v", err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, caerrors.CryptoError("приватный ключ не поддерживает подпись")
	}
	return signer, nil
}

// subjectKeyId вычисляет идентификатор ключа субъекта как SHA-1 от
// DER-представления публичного ключа
func subjectKeyId(pub crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, caerrors.CryptoError("не удалось закодировать публичный ключ: %v", err)
	}
	sum := sha1.Sum(der)
	return sum[:], nil
}
