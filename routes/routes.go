// Package routes mounts every handler on one httprouter under /api.
package routes

import (
	"context"
	"net/http"
	"time"

	"blackline/apperr"
	"blackline/auth"
	"blackline/cart"
	"blackline/catalog"
	"blackline/filemgr"
	"blackline/gallery"
	"blackline/metrics"
	"blackline/middleware"
	"blackline/orders"
	"blackline/ratelim"
	"blackline/store"
	"blackline/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// Deps is everything the router needs; main builds it once.
type Deps struct {
	Store   store.Stores
	Gate    *middleware.Gate
	Idem    *middleware.Idempotency
	Limiter *ratelim.RateLimiter
	Log     logrus.FieldLogger

	Auth    *auth.Handlers
	Catalog *catalog.Handlers
	Cart    *cart.Handlers
	Orders  *orders.Handlers
	Gallery *gallery.Handlers
	Uploads *filemgr.Manager
}

func New(d Deps) *httprouter.Router {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, d.Log, apperr.NotFound("Route not found"))
	})

	AddHealthRoutes(router, d)
	AddAuthRoutes(router, d)
	AddProductRoutes(router, d)
	AddCartRoutes(router, d)
	AddOrderRoutes(router, d)
	AddGalleryRoutes(router, d)
	AddUploadRoutes(router, d)
	return router
}

func AddHealthRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/health", Health(d.Store, d.Log))
	router.Handler(http.MethodGet, "/metrics", metrics.Handler())
}

func AddAuthRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/auth/register", d.Limiter.Limit(d.Auth.Register))
	router.POST("/api/auth/login", d.Limiter.Limit(d.Auth.Login))
	router.GET("/api/auth/profile", d.Gate.Authenticate(d.Auth.Profile))
}

func AddProductRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/products", d.Gate.OptionalAuth(d.Catalog.GetProducts))
	router.GET("/api/products/:id", d.Gate.OptionalAuth(d.Catalog.GetProduct))
	router.POST("/api/products", d.Gate.RequireAdmin(d.Catalog.CreateProduct))
	router.PUT("/api/products/:id", d.Gate.RequireAdmin(d.Catalog.UpdateProduct))
	router.DELETE("/api/products/:id", d.Gate.RequireAdmin(d.Catalog.DeleteProduct))
}

func AddCartRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/cart", d.Gate.OptionalAuth(d.Cart.GetCart))
	router.POST("/api/cart", d.Gate.OptionalAuth(d.Cart.AddToCart))
	router.PUT("/api/cart/:itemId", d.Gate.OptionalAuth(d.Cart.UpdateCartItem))
	router.DELETE("/api/cart/:itemId", d.Gate.OptionalAuth(d.Cart.RemoveFromCart))
	router.DELETE("/api/cart", d.Gate.OptionalAuth(d.Cart.ClearCart))
}

func AddOrderRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/orders", d.Limiter.Limit(d.Gate.OptionalAuth(d.Idem.Wrap(d.Orders.CreateOrder))))
	router.GET("/api/orders", d.Gate.Authenticate(d.Orders.GetOrders))
	router.GET("/api/orders/:id", d.Gate.Authenticate(d.Orders.GetOrder))
	router.GET("/api/orders/:id/receipt", d.Gate.Authenticate(d.Orders.GetReceipt))
	router.PUT("/api/orders/:id/status", d.Gate.RequireAdmin(d.Orders.UpdateOrderStatus))
}

func AddGalleryRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/gallery", d.Gallery.GetPhotos)
	// also answers /api/gallery/featured
	router.GET("/api/gallery/:id", d.Gallery.GetPhoto)
	router.POST("/api/gallery", d.Gate.RequireAdmin(d.Gallery.CreatePhoto))
	router.PUT("/api/gallery/:id", d.Gate.RequireAdmin(d.Gallery.UpdatePhoto))
	router.DELETE("/api/gallery/:id", d.Gate.RequireAdmin(d.Gallery.DeletePhoto))
}

func AddUploadRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/upload", d.Gate.RequireAdmin(d.Uploads.Upload))
	router.POST("/api/upload/single", d.Gate.RequireAdmin(d.Uploads.UploadSingle))
	router.ServeFiles("/uploads/*filepath", http.Dir(d.Uploads.Dir))
}

// Health reports process liveness plus database connectivity. The cause of
// a failed ping is logged, not returned.
func Health(st store.Stores, log logrus.FieldLogger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			log.WithError(err).Error("health check ping failed")
			utils.RespondWithJSON(w, http.StatusServiceUnavailable, utils.M{
				"status":  "ERROR",
				"message": "Database connection failed",
				"error":   "Database unavailable",
			})
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"status":  "OK",
			"message": "Server is running",
			"db":      "connected",
		})
	}
}
