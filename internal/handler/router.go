package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/tiffin-storefront/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware витрины заказов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api/storefront", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Get("/menu", h.GetMenu)
		r.Get("/banners", h.GetBanners)
		r.Get("/coupons", h.GetCoupons)

		r.Post("/quote", h.Quote)
		r.Post("/checkout", h.Checkout)
		r.Get("/last-order", h.GetLastOrder)

		r.Get("/favorites", h.GetFavorites)
		r.Post("/favorites/{itemID}", h.ToggleFavorite)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", h.AdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.adminAuth.Middleware)

			r.Post("/logout", h.AdminLogout)

			r.Get("/orders", h.GetAdminOrders)
			r.Post("/orders/{id}/status", h.UpdateOrderStatus)

			r.Get("/history", h.GetHistory)
			r.Get("/customers/{phone}/orders", h.GetCustomerOrders)

			r.Get("/notifications", h.GetNotifications)
			r.Post("/notifications/dismiss", h.DismissNotification)
			r.Post("/notifications/ack", h.AcknowledgeNotifications)

			r.Get("/backup", h.GetBackup)
			r.Post("/restore", h.Restore)

			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.UpdateSettings)
			r.Put("/menu", h.UpdateMenu)
			r.Put("/banners", h.UpdateBanners)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
