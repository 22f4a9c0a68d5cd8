package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/flashdealz-backend/pkg/config"
	"github.com/angelmondragon/flashdealz-backend/pkg/logger"

	"github.com/angelmondragon/flashdealz-backend/api/controllers"
	adminctrl "github.com/angelmondragon/flashdealz-backend/api/controllers/admin"
	"github.com/angelmondragon/flashdealz-backend/api/controllers/items"
	"github.com/angelmondragon/flashdealz-backend/api/controllers/orders"
	"github.com/angelmondragon/flashdealz-backend/api/middleware"
	"github.com/angelmondragon/flashdealz-backend/internal/flashsale"
)

type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Service flashsale.Service
	Pingers map[string]controllers.Pinger
}

func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	logg := deps.Logger

	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))

	r.Get("/health/live", controllers.HealthLive())
	r.Get("/health/ready", controllers.HealthReady(logg, deps.Pingers))

	r.Route("/api/v1/flash-sale", func(r chi.Router) {
		r.Use(middleware.Actor(logg))

		r.Get("/items", items.List(deps.Service, logg))
		r.Get("/items/{itemID}", items.Get(deps.Service, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireActor(logg))

			r.Post("/items/{itemID}/purchase", items.Purchase(deps.Service, logg))
			r.Get("/orders", orders.List(deps.Service, logg))
			r.Post("/orders/{orderID}/pay", orders.Pay(deps.Service, logg))
			r.Post("/orders/{orderID}/cancel", orders.Cancel(deps.Service, logg))
		})
	})

	r.Route("/api/admin/v1/flash-sale", func(r chi.Router) {
		r.Use(middleware.AdminAuth(deps.Config.Admin, logg))

		r.Post("/items", adminctrl.CreateItem(deps.Service, logg))
		r.Patch("/items/{itemID}", adminctrl.UpdateItem(deps.Service, logg))
		r.Delete("/items/{itemID}", adminctrl.DeleteItem(deps.Service, logg))
		r.Post("/items/{itemID}/force-end", adminctrl.ForceEnd(deps.Service, logg))
	})

	return r
}
