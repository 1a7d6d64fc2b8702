package controllers

import (
	"log/slog"
	"time"

	"github.com/alrdevelop/caserv/models"
	"github.com/alrdevelop/caserv/service"
	"github.com/gofiber/fiber/v3"
)

type CertController struct {
	Service *service.CaService
}

// IssueCertificate выпускает клиентский сертификат и возвращает PKCS#12
// контейнер. Контейнер с приватным ключом отдается единственный раз.
func (ctl *CertController) IssueCertificate(c fiber.Ctx) error {
	req := new(models.IssueCertRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Cannot parse JSON!",
		})
	}

	container, err := ctl.Service.IssueCertificate(c.Context(), c.Params("serial"), req)
	if err != nil {
		return respondError(c, err)
	}

	slog.Info("выпущен сертификат", "serial", container.Serial, "caSerial", c.Params("serial"))
	c.Set(fiber.HeaderContentType, "application/x-pkcs12")
	c.Set("X-Certificate-Serial", container.Serial)
	c.Set("X-Certificate-Thumbprint", container.Thumbprint)
	return c.Send(container.Container)
}

func (ctl *CertController) GetCertificate(c fiber.Ctx) error {
	cert, err := ctl.Service.GetCertificate(c.Context(), c.Params("serial"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cert)
}

func (ctl *CertController) GetAllCertificates(c fiber.Ctx) error {
	certs, err := ctl.Service.GetAllCertificates(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(certs)
}

// RevokeCertificate отзывает сертификат. Дата отзыва берется из тела
// запроса, при ее отсутствии - текущее время. Повторный отзыв дату
// не меняет.
func (ctl *CertController) RevokeCertificate(c fiber.Ctx) error {
	req := new(models.RevokeRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Cannot parse JSON!",
		})
	}

	revokeDate := time.Now()
	if req.RevokeDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.RevokeDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  "error",
				"message": "revokeDate должен быть в формате RFC3339",
			})
		}
		revokeDate = parsed
	}

	serial := c.Params("serial")
	if err := ctl.Service.RevokeCertificate(c.Context(), serial, revokeDate); err != nil {
		return respondError(c, err)
	}

	slog.Info("сертификат отозван", "serial", serial)
	return c.JSON(fiber.Map{
		"status": "success",
		"serial": serial,
	})
}
