package models

// Поддерживаемые алгоритмы ключевой пары. Идентификаторы ГОСТ оставлены
// в перечислении для совместимости с клиентами, но криптопровайдер их
// не реализует и возвращает ошибку.
const (
	AlgRSA2048  = "RSA-2048"
	AlgRSA4096  = "RSA-4096"
	AlgECDSA256 = "ECDSA-P256"
	AlgECDSA384 = "ECDSA-P384"
	AlgEd25519  = "ED25519"
	AlgGOST256  = "GOST2012-256"
	AlgGOST512  = "GOST2012-512"
)

// Типы субъектов запроса на выпуск сертификата
const (
	SubjectJuridicalPerson        = "JuridicalPerson"
	SubjectIndividualEntrepreneur = "IndividualEntrepreneur"
	SubjectPhysicalPerson         = "PhysicalPerson"
)

// Запрос на создание УЦ (самоподписанный сертификат юридического лица)
type CreateCARequest struct {
	Algorithm        string `json:"algorithm"`
	TTLDays          int    `json:"ttlInDays"`
	CommonName       string `json:"commonName"`
	Country          string `json:"country"`
	LocalityName     string `json:"localityName"`
	StateOrProvince  string `json:"stateOrProvinceName"`
	StreetAddress    string `json:"streetAddress"`
	EmailAddress     string `json:"emailAddress"`
	InnLe            string `json:"innLe"`
	Ogrn             string `json:"ogrn"`
	OrganizationName string `json:"organizationName"`
	OrganizationUnit string `json:"organizationUnitName"`
	PublicUrl        string `json:"publicUrl"`
}

// Запрос на выпуск клиентского сертификата. Поле SubjectType - дискриминант:
// для юридического лица используются inn_le/ogrn/organization*, для ИП - ogrnip,
// для физического лица - inn/snils/givenName/surname.
type IssueCertRequest struct {
	SubjectType      string `json:"subjectType"`
	Algorithm        string `json:"algorithm"`
	TTLDays          int    `json:"ttlInDays"`
	CommonName       string `json:"commonName"`
	Country          string `json:"country"`
	LocalityName     string `json:"localityName"`
	StateOrProvince  string `json:"stateOrProvinceName"`
	StreetAddress    string `json:"streetAddress"`
	EmailAddress     string `json:"emailAddress"`
	Inn              string `json:"inn"`
	Snils            string `json:"snils"`
	GivenName        string `json:"givenName"`
	Surname          string `json:"surname"`
	Ogrnip           string `json:"ogrnip"`
	InnLe            string `json:"innLe"`
	Ogrn             string `json:"ogrn"`
	OrganizationName string `json:"organizationName"`
	OrganizationUnit string `json:"organizationUnitName"`
	Title            string `json:"title"`
	Pin              string `json:"pin"`
}

// Запрос на отзыв сертификата
type RevokeRequest struct {
	RevokeDate string `json:"revokeDate"`
}
