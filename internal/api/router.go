package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/TwinkleMedia/EASC-new-sub000/internal/api/handlers"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/api/middleware"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/auth"
	cartservice "github.com/TwinkleMedia/EASC-new-sub000/internal/cart/service"
	checkoutservice "github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/service"
)

// NewRouter wires the HTTP surface. Everything under /api requires a signed-in
// session except the gateway callback endpoints, which arrive without one.
func NewRouter(
	carts *cartservice.CartService,
	checkout *checkoutservice.CheckoutService,
	authn auth.Authenticator,
) http.Handler {
	cartHandler := handlers.NewCartHandler(carts)
	checkoutHandler := handlers.NewCheckoutHandler(checkout)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(authn))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Post("/items", cartHandler.AddItem)
				r.Delete("/items/{itemID}", cartHandler.RemoveItem)
				r.Post("/coupon", cartHandler.ApplyCoupon)
			})

			r.Post("/checkout", checkoutHandler.Begin)
		})

		// The gateway calls back without our session token.
		r.Post("/checkout/callback", checkoutHandler.Callback)
		r.Post("/checkout/cancel", checkoutHandler.Cancel)
	})

	return r
}
