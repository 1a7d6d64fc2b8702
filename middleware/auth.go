package middleware

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/crypto/pbkdf2"
)

const (
	keySize    = 32    // размер производного ключа (байт)
	iterations = 10000 // количество итераций PBKDF2
)

// ApiKeyAuth проверяет заголовок X-Api-Key на мутирующих маршрутах.
// Сравниваются PBKDF2-производные ключи, чтобы сравнение было
// постоянным по времени.
func ApiKeyAuth(apiKey string) fiber.Handler {
	salt := make([]byte, 16)
	rand.Read(salt)
	expected := pbkdf2.Key([]byte(apiKey), salt, iterations, keySize, sha256.New)

	return func(c fiber.Ctx) error {
		presented := c.Get("X-Api-Key")
		if presented == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "X-Api-Key обязателен",
			})
		}
		derived := pbkdf2.Key([]byte(presented), salt, iterations, keySize, sha256.New)
		if subtle.ConstantTimeCompare(expected, derived) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "неверный API ключ",
			})
		}
		return c.Next()
	}
}
