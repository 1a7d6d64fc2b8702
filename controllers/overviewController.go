package controllers

import (
	"github.com/alrdevelop/caserv/service"
	"github.com/gofiber/fiber/v3"
)

type OverviewController struct {
	Service *service.CaService
}

// Overview отдает HTML страницу со списком УЦ и выпущенных сертификатов
func (ctl *OverviewController) Overview(c fiber.Ctx) error {
	cas, err := ctl.Service.GetAllCa(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	certs, err := ctl.Service.GetAllCertificates(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	active := 0
	revoked := 0
	for _, cert := range certs {
		if cert.RevokeDate == nil {
			active++
		} else {
			revoked++
		}
	}

	return c.Render("overview", fiber.Map{
		"Title":        "Обзор УЦ",
		"CaList":       cas,
		"CertList":     certs,
		"ActiveCount":  active,
		"RevokedCount": revoked,
	})
}
