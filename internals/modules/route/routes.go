package route

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes wires the route surface. ExecutePoll and GetBaseline live in
// their own modules but hang off a route, so their handlers are passed in.
func Routes(h *Handler, executePoll, getBaseline http.HandlerFunc) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateRoute)
	r.Get("/", h.ListRoutes)
	r.Patch("/{routeID}", h.UpdateRouteStatus)
	r.Post("/{routeID}/windows", h.StartWindow)
	r.Get("/{routeID}/windows", h.ListWindows)
	r.Patch("/{routeID}/windows/{windowID}", h.UpdateWindow)
	r.Post("/{routeID}/polls", executePoll)
	r.Get("/{routeID}/baseline", getBaseline)

	return r
}

/*
- POST: /routes -> create route
- GET: /routes?offset={}&limit={} -> list caller's routes
- PATCH: /routes/{routeID} -> pause/resume
- POST: /routes/{routeID}/windows -> start a monitoring window
- GET: /routes/{routeID}/windows -> list windows
- PATCH: /routes/{routeID}/windows/{windowID} -> activate/deactivate a window
- POST: /routes/{routeID}/polls -> execute one poll now
- GET: /routes/{routeID}/baseline?weekday={} -> weekday baseline
*/
