package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/health"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/middleware"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/identity"
)

// RouterDeps bundles the collaborators the router needs.
type RouterDeps struct {
	Lists    *ListsHandler
	Uploads  *UploadHandler
	Session  *SessionHandler
	Verifier *identity.TokenVerifier
	Health   *health.Handler
	Logger   *slog.Logger

	UploadRPS   int
	UploadBurst int
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))

	// Health check endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(Auth(deps.Verifier))

		r.Route("/session", func(r chi.Router) {
			r.Get("/", deps.Session.Current)
			r.Post("/login", deps.Session.Login)
			r.Post("/logout", deps.Session.Logout)
		})

		r.Route("/terms", func(r chi.Router) {
			r.Get("/", deps.Session.TermsStatus)
			r.Post("/accept", deps.Session.AcceptTerms)
		})

		r.Route("/lists", func(r chi.Router) {
			r.Post("/wishlist/move-to-cart", deps.Lists.MoveAllToCart)
			r.Put("/cart/items/{productId}/quantity", deps.Lists.UpdateQuantity)

			r.Route("/{collection:(wishlist|cart)}", func(r chi.Router) {
				r.Get("/", deps.Lists.GetList)
				r.Get("/status", deps.Lists.GetStatus)
				r.Delete("/", deps.Lists.ClearList)
				r.Post("/items", deps.Lists.AddItem)
				r.Delete("/items/{productId}", deps.Lists.RemoveItem)
				r.Post("/toggle", deps.Lists.ToggleItem)
				r.Post("/check-prices", deps.Lists.CheckPrices)
			})
		})

		r.Route("/uploads", func(r chi.Router) {
			r.Use(middleware.RateLimit(deps.UploadRPS, deps.UploadBurst, deps.Logger))
			r.Use(RequireAuth)

			r.Post("/products", deps.Uploads.UploadProductImage)
			r.Post("/products/batch", deps.Uploads.UploadBatch)
		})

		r.Route("/assets", func(r chi.Router) {
			r.Get("/{folder:(logos|banners)}", deps.Uploads.ListSiteAssets)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(deps.UploadRPS, deps.UploadBurst, deps.Logger))
				r.Use(RequireAdmin)

				r.Post("/{folder:(logos|banners)}", deps.Uploads.UploadSiteAsset)
				r.Delete("/{id}", deps.Uploads.DeleteSiteAsset)
			})
		})
	})

	return r
}
