// internal/adapters/in/http/router.go
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"atelier/internal/adapters/in/http/handler"
	"atelier/internal/adapters/in/http/middleware"
)

// Deps is the storefront handler set plus the auth middleware.
type Deps struct {
	Auth *middleware.UserAuth

	Session    *handler.SessionHandler
	Cart       *handler.CartHandler
	Wishlist   *handler.WishlistHandler
	Likes      *handler.LikeHandler
	Checkout   *handler.CheckoutHandler
	Onboarding *handler.OnboardingHandler

	AllowedOrigins []string
}

// NewRouter builds the storefront API. Cart, wishlist, and like reads are
// open to guests (local-only for them); identity, checkout, and onboarding
// require a verified token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/store", func(r chi.Router) {
		// session: snapshot is public, everything else needs a token
		r.Get("/session", deps.Session.Get)
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Require)
			r.Post("/session", deps.Session.Attach)
			r.Delete("/session", deps.Session.SignOut)
			r.Post("/session/signup", deps.Session.SignUp)
			r.Post("/session/roles/switch", deps.Session.SwitchRole)
			r.Post("/session/roles", deps.Session.AddRole)
		})

		// cart and wishlist: guests allowed, identity attached when present
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Optional)

			r.Route("/me/cart", func(r chi.Router) {
				r.Get("/", deps.Cart.Get)
				r.Delete("/", deps.Cart.Clear)
				r.Post("/items", deps.Cart.AddItem)
				r.Put("/items/{key}", deps.Cart.SetQuantity)
				r.Patch("/items/{key}", deps.Cart.UpdateFields)
				r.Delete("/items/{key}", deps.Cart.RemoveItem)
			})

			r.Route("/me/wishlist", func(r chi.Router) {
				r.Get("/", deps.Wishlist.Get)
				r.Post("/items", deps.Wishlist.AddItem)
				r.Post("/toggle", deps.Wishlist.Toggle)
				r.Delete("/items/{productId}", deps.Wishlist.RemoveItem)
			})

			r.Get("/likes/{itemId}", deps.Likes.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Require)
			r.Post("/likes/{itemId}/toggle", deps.Likes.Toggle)
			r.Post("/me/checkout", deps.Checkout.Post)
			r.Post("/me/onboarding", deps.Onboarding.Submit)
		})
	})

	return r
}
