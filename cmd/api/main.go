package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"trainerdesk/internal/config"
	"trainerdesk/internal/database"
	"trainerdesk/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}
	policy, err := config.LoadPolicy()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(cfg, policy, db)
	defer srv.Close()

	log.Printf("listening addr=%s env=%s", cfg.HTTPAddr, cfg.AppEnv)
	if err := srv.Router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
