package main

import (
	"github.com/demaesdadas/aldeia/config"
	"github.com/demaesdadas/aldeia/models"
	"github.com/demaesdadas/aldeia/routes"
	"github.com/demaesdadas/aldeia/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Revision{},
		&models.Notification{},
	)

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
