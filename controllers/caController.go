package controllers

import (
	"log/slog"

	"github.com/alrdevelop/caserv/models"
	"github.com/alrdevelop/caserv/service"
	"github.com/gofiber/fiber/v3"
)

type CaController struct {
	Service *service.CaService
}

// CreateCA обрабатывает запрос на создание нового УЦ
func (ctl *CaController) CreateCA(c fiber.Ctx) error {
	req := new(models.CreateCARequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Cannot parse JSON!",
		})
	}

	ca, err := ctl.Service.CreateCA(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	slog.Info("создан новый УЦ", "serial", ca.Serial, "commonName", ca.CommonName)
	return c.JSON(ca)
}

func (ctl *CaController) GetAllCa(c fiber.Ctx) error {
	cas, err := ctl.Service.GetAllCa(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cas)
}

func (ctl *CaController) GetCa(c fiber.Ctx) error {
	ca, err := ctl.Service.GetCa(c.Context(), c.Params("serial"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ca)
}

func (ctl *CaController) GetCaCertificates(c fiber.Ctx) error {
	certs, err := ctl.Service.GetCertificates(c.Context(), c.Params("serial"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(certs)
}

// GetCaCrt отдает DER сертификата УЦ для публикации
func (ctl *CaController) GetCaCrt(c fiber.Ctx) error {
	content, err := ctl.Service.GetCaCertificateBytes(c.Context(), c.Params("serial"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pkix-cert")
	return c.Send(content)
}

// GetCaCrl отдает действующий CRL, при необходимости собирая новый
func (ctl *CaController) GetCaCrl(c fiber.Ctx) error {
	content, err := ctl.Service.GetCrlBytes(c.Context(), c.Params("serial"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pkix-crl")
	return c.Send(content)
}
