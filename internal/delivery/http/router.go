package http

import (
	"log/slog"
	"net/http"

	"eventcalendar/internal/delivery/http/controllers"
	"eventcalendar/internal/delivery/http/helpers"
	"eventcalendar/internal/delivery/http/middleware"
	"eventcalendar/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterDeps holds the controllers and collaborators the router wires together.
type RouterDeps struct {
	Logger               *slog.Logger
	Verifier             domain.TokenVerifier
	CORSAllowedOrigins   []string
	AuthController       *controllers.AuthController
	UserController       *controllers.UserController
	EventController      *controllers.EventController
	InvitationController *controllers.InvitationController
}

type route struct {
	method  string
	path    string
	handler http.HandlerFunc
	public  bool
}

func (d RouterDeps) routes() []route {
	return []route{
		// Auth
		{method: http.MethodPost, path: "/api/auth/register", handler: d.AuthController.Register, public: true},
		{method: http.MethodPost, path: "/api/auth/login", handler: d.AuthController.Login, public: true},
		{method: http.MethodGet, path: "/api/auth/me", handler: d.AuthController.Me},
		{method: http.MethodPut, path: "/api/auth/password", handler: d.AuthController.ChangePassword},
		{method: http.MethodPut, path: "/api/auth/timezone", handler: d.AuthController.UpdateTimezone},

		// Users
		{method: http.MethodGet, path: "/api/users", handler: d.UserController.ListUsers},

		// Events
		{method: http.MethodPost, path: "/api/events", handler: d.EventController.CreateEvent},
		{method: http.MethodGet, path: "/api/events", handler: d.EventController.ListEvents},
		{method: http.MethodGet, path: "/api/events/date-range", handler: d.EventController.ListEventsInRange},
		{method: http.MethodGet, path: "/api/events/priority/{priority}", handler: d.EventController.ListEventsByPriority},
		{method: http.MethodGet, path: "/api/events/tag/{tag}", handler: d.EventController.ListEventsByTag},
		{method: http.MethodGet, path: "/api/events/export.ics", handler: d.EventController.ExportCalendar},
		{method: http.MethodGet, path: "/api/events/{eventID}", handler: d.EventController.GetEvent},
		{method: http.MethodPut, path: "/api/events/{eventID}", handler: d.EventController.UpdateEvent},
		{method: http.MethodDelete, path: "/api/events/{eventID}", handler: d.EventController.DeleteEvent},
		{method: http.MethodPost, path: "/api/events/{eventID}/join", handler: d.EventController.JoinEvent},
		{method: http.MethodPost, path: "/api/events/{eventID}/leave", handler: d.EventController.LeaveEvent},

		// Invitations
		{method: http.MethodPost, path: "/api/events/{eventID}/invitations", handler: d.InvitationController.CreateInvitations},
		{method: http.MethodGet, path: "/api/invitations", handler: d.InvitationController.ListInvitations},
		{method: http.MethodPost, path: "/api/invitations/{invitationID}/accept", handler: d.InvitationController.AcceptInvitation},
		{method: http.MethodPost, path: "/api/invitations/{invitationID}/decline", handler: d.InvitationController.DeclineInvitation},

		// Health
		{method: http.MethodGet, path: "/healthz", handler: healthz, public: true},
	}
}

func healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewRouter registers every application route, plus the Swagger UI, and wraps
// the mux in CORS and request logging. The CORS allow list is derived from the
// methods the routes use.
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()
	authn := middleware.NewAuthenticator(d.Verifier, d.Logger)

	routes := d.routes()
	methods := make([]string, 0, len(routes))
	for _, rt := range routes {
		handler := rt.handler
		if !rt.public {
			handler = authn.Require(handler)
		}
		mux.HandleFunc(rt.method+" "+rt.path, handler)
		methods = append(methods, rt.method)
	}

	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	cors := middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: d.CORSAllowedOrigins,
		AllowedMethods: methods,
	}, mux)
	return middleware.Logging(d.Logger, cors)
}
