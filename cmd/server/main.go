package main

import (
	"log"

	"github.com/dexten32/accuscanner/app"
	"github.com/dexten32/accuscanner/app/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	app.MustInitDB()
	app.InitScanner()

	router, err := app.NewRouter()
	if err != nil {
		log.Fatalf("failed to initialize router: %v", err)
	}
	router.Run("0.0.0.0:" + cfg.Port)
}
