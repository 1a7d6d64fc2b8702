package routes

import (
	"github.com/alrdevelop/caserv/controllers"
	"github.com/alrdevelop/caserv/middleware"
	"github.com/alrdevelop/caserv/service"
	"github.com/gofiber/fiber/v3"
)

func Setup(app *fiber.App, svc *service.CaService, apiKey string) {
	caCtl := &controllers.CaController{Service: svc}
	certCtl := &controllers.CertController{Service: svc}
	overviewCtl := &controllers.OverviewController{Service: svc}

	auth := middleware.ApiKeyAuth(apiKey)

	api := app.Group("/api/v1")

	// Чтение доступно без ключа, мутирующие операции защищены
	api.Get("/ca", caCtl.GetAllCa)
	api.Post("/ca", caCtl.CreateCA, auth)
	api.Get("/ca/:serial", caCtl.GetCa)
	api.Get("/ca/:serial/certificates", caCtl.GetCaCertificates)
	api.Post("/ca/:serial/issue", certCtl.IssueCertificate, auth)

	api.Get("/certificates", certCtl.GetAllCertificates)
	api.Get("/certificate/:serial", certCtl.GetCertificate)
	api.Post("/certificate/:serial/revoke", certCtl.RevokeCertificate, auth)

	// Точки публикации, на них ссылаются расширения выпускаемых сертификатов
	api.Get("/ca/:serial/crt", caCtl.GetCaCrt)
	api.Get("/ca/:serial/crl", caCtl.GetCaCrl)

	app.Get("/overview", overviewCtl.Overview)
}
