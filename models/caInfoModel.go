package models

// CaInfo - контекст подписи, собирается движком на каждый выпуск из записи
// выбранного УЦ. Значение неизменяемое, живет в рамках одного вызова.
type CaInfo struct {
	CrlDistributionPoints []string
	OcspEndPoints         []string
	CaEndPoints           []string
	PrivateKey            []byte
	Certificate           []byte
}
