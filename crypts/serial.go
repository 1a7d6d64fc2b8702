package crypts

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Генерирует случайный 128-битный серийный номер
func GenerateSerialNumber() (*big.Int, string, error) {
	serialNumber, err := rand.Int(rand.Reader, big.NewInt(1).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, "", fmt.Errorf("не удалось сгенерировать серийный номер: %w", err)
	}
	return serialNumber, StandardizeSerialNumber(serialNumber), nil
}

// StandardizeSerialNumber возвращает серийный номер в стандартизированном
// формате: верхний регистр без ведущих нулей
func StandardizeSerialNumber(serialNumber *big.Int) string {
	hexStr := serialNumber.Text(16)
	return strings.ToUpper(hexStr)
}

// Thumbprint - SHA-1 отпечаток DER-представления сертификата
func Thumbprint(der []byte) string {
	sum := sha1.Sum(der)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
