package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/in-vento/ubox-pos/config"
	"github.com/in-vento/ubox-pos/models"
	"github.com/in-vento/ubox-pos/router"
	"github.com/in-vento/ubox-pos/services"
	"github.com/in-vento/ubox-pos/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	utils.InitLogger()
	cfg := config.Load()

	db, err := config.InitDB(cfg.DBPath)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to open device database: %v", err)
	}
	utils.InitDB(db)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	orderSvc := services.NewOrderService(db)
	productSvc := services.NewProductService(db)
	syncSvc := services.NewSyncService(db, cfg.CloudAPIURL, cfg.SyncTimeout)
	recoverySvc := services.NewRecoveryService(db, cfg.CloudAPIURL, cfg.SyncTimeout)

	scheduler := services.NewSyncScheduler(syncSvc, cfg.SyncInterval)
	scheduler.Start()
	defer scheduler.Stop()

	r := router.SetupRouter(router.Deps{
		DB:        db,
		Cfg:       cfg,
		Orders:    orderSvc,
		Products:  productSvc,
		Sync:      syncSvc,
		Scheduler: scheduler,
		Recovery:  recoverySvc,
	})

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Business{},
		&models.Staff{},
		&models.Product{},
		&models.ProductComponent{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.OrderCounter{},
		&models.SyncQueueEntry{},
		&models.SunatDocument{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
