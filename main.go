package main

import (
	"context"
	"log"

	"github.com/alrdevelop/caserv/crypts"
	"github.com/alrdevelop/caserv/models"
	"github.com/alrdevelop/caserv/pool"
	"github.com/alrdevelop/caserv/routes"
	"github.com/alrdevelop/caserv/service"
	"github.com/alrdevelop/caserv/storage"
	"github.com/alrdevelop/caserv/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/viper"
)

func main() {

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("database.driver", "sqlite3")
	viper.SetDefault("database.poolSize", 10)
	viper.SetDefault("database.leaseTimeout", 5)
	viper.SetDefault("crl.validityHours", 24)

	err := viper.ReadInConfig()
	if err != nil {
		log.Fatalf("Error reading config file: %s", err)
	}

	logFile, err := utils.SetupLogger()
	if err != nil {
		log.Fatalf("Error setting up logger: %s", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	// Database inicialization
	driver := viper.GetString("database.driver")
	db, err := sqlx.Open(driver, viper.GetString("database.connectionString"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	db.MustExec(models.Schema(driver))

	connPool, err := pool.New(context.Background(), db,
		viper.GetInt("database.poolSize"),
		utils.SelectTime("seconds", viper.GetInt("database.leaseTimeout")))
	if err != nil {
		log.Fatal(err)
	}
	defer connPool.Close()

	store := storage.New(connPool, driver)
	svc := service.NewCaService(store, crypts.NewProvider(),
		utils.SelectTime("hours", viper.GetInt("crl.validityHours")))

	// Create a new engine Template
	engine := html.New("./template", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
	})

	routes.Setup(app, svc, viper.GetString("server.apiKey"))

	log.Fatal(app.Listen(viper.GetString("server.listen")))
}
