package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/in-vento/ubox-pos/config"
	"github.com/in-vento/ubox-pos/controllers"
	"github.com/in-vento/ubox-pos/middlewares"
	"github.com/in-vento/ubox-pos/services"
)

// Deps carries the long-lived components the handlers need.
type Deps struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Orders    *services.OrderService
	Products  *services.ProductService
	Sync      *services.SyncService
	Scheduler *services.SyncScheduler
	Recovery  *services.RecoveryService
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())

	orderCtrl := controllers.NewOrderController(deps.Orders)
	productCtrl := controllers.NewProductController(deps.Products)
	syncCtrl := controllers.NewSyncController(deps.Sync, deps.Scheduler)
	businessCtrl := controllers.NewBusinessController(deps.DB, deps.Recovery, []byte(deps.Cfg.LinkTokenSecret))

	orders := r.Group("/orders")
	{
		orders.GET("", orderCtrl.GetAllOrders)
		orders.POST("", orderCtrl.CreateOrder)
		orders.GET("/:local_id", orderCtrl.GetOrderByID)
		orders.PATCH("/:local_id", orderCtrl.EditOrder)
		orders.POST("/:local_id/cancel", orderCtrl.CancelOrder)
	}

	products := r.Group("/products")
	{
		products.GET("", productCtrl.GetAllProducts)
		products.POST("", productCtrl.CreateProduct)
		products.GET("/:local_id", productCtrl.GetProductByID)
		products.PUT("/:local_id", productCtrl.UpdateProduct)
		products.DELETE("/:local_id", productCtrl.DeleteProduct)
	}

	sync := r.Group("/sync")
	{
		sync.GET("/status", syncCtrl.GetStatus)
		sync.POST("/now", syncCtrl.SyncNow)
		sync.POST("/online", syncCtrl.NotifyOnline)
	}

	business := r.Group("/business")
	{
		business.POST("/link", businessCtrl.LinkDevice)
		business.POST("/recover", businessCtrl.Recover)
	}

	return r
}
