package app

import (
	middle "routepulse/internals/middleware"
	"routepulse/internals/modules/baseline"
	"routepulse/internals/modules/quota"
	"routepulse/internals/modules/retention"
	"routepulse/internals/modules/route"
	"routepulse/internals/modules/tripletest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(c *Container) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middle.Logger(c.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(c.authMW.Handle)

		v1.Mount("/routes", route.Routes(c.routeHandler, c.pollHandler.ExecutePoll, c.baselineHandler.GetBaseline))
		v1.Mount("/baseline", baseline.Routes(c.baselineHandler))
		v1.Mount("/triple-tests", tripletest.Routes(c.tripleTestHandler))
		v1.Mount("/quota", quota.Routes(c.quotaHandler))
		v1.Get("/providers", c.pollHandler.ListProviders)
		v1.Get("/providers/usage", c.baselineHandler.GetProviderUsage)

		v1.With(middle.AllowAdmin).Mount("/admin", retention.Routes(c.retentionHandler))
	})

	return r
}
