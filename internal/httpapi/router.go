package httpapi

import (
	"net/http"
	"time"

	"github.com/andeanmarket/storefront/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires all handlers under /api/v1 plus /health and /metrics.
func NewRouter(
	products *ProductHandler,
	carts *CartHandler,
	checkouts *CheckoutHandler,
	orders *OrdersHandler,
	admin *AdminHandler,
	requestTimeout time.Duration,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(IdentityMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.ListProducts)
			r.Get("/{product_id}", products.GetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.GetCart)
			r.Delete("/", carts.ClearCart)
			r.Post("/items", carts.AddItem)
			r.Put("/items/{product_id}", carts.UpdateQuantity)
			r.Delete("/items/{product_id}", carts.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkouts.Checkout)
			r.Get("/pending", checkouts.PendingOrder)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orders.ListMyOrders)
			r.Get("/{order_id}", orders.GetOrder)
			r.Post("/{order_id}/cancel", checkouts.CancelOrder)
			r.Post("/{order_id}/payment/card", checkouts.SubmitCardPayment)
			r.Post("/{order_id}/payment/pse", checkouts.SubmitBankPayment)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/orders", admin.ListOrders)
			r.Put("/orders/{order_id}/status", admin.UpdateOrderStatus)
			r.Post("/orders/{order_id}/cancel", admin.CancelOrder)
			r.Put("/products/{product_id}/stock", admin.SetProductStock)
			r.Put("/products/{product_id}/price", admin.SetProductPrice)
		})
	})

	return r
}
