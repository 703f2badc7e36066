package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"org-task-backend/pkg/config"
	"org-task-backend/pkg/database"
	"org-task-backend/pkg/handlers"
	customMiddleware "org-task-backend/pkg/middleware"
	"org-task-backend/pkg/utils"
)

// New assembles the router: global middleware chain plus the full route
// table for auth, organizations, invitations and tasks.
func New(cfg *config.Config, db database.DatabaseInterface) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg)
	setupRoutes(router, cfg, db)

	return router
}

// setupMiddleware installs the global middleware chain
func setupMiddleware(router *chi.Mux, cfg *config.Config) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	// Normalize path and restore scheme/host before logging and routing
	router.Use(customMiddleware.Normalize())
	router.Use(customMiddleware.Logger(cfg))
	router.Use(customMiddleware.Recovery(cfg))

	router.Use(customMiddleware.CORS(cfg))

	router.Use(middleware.Timeout(25 * time.Second))
	router.Use(middleware.Compress(5))
	router.Use(customMiddleware.MaxBodySize(1 << 20))
	router.Use(customMiddleware.ContentTypeJSON)

	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// setupRoutes registers every endpoint. Routes map 1:1 to operations;
// protected routes sit in a group behind the auth middleware.
func setupRoutes(router *chi.Mux, cfg *config.Config, db database.DatabaseInterface) {
	authHandler := handlers.NewAuthHandler(cfg, db)
	orgsHandler := handlers.NewOrgsHandler(cfg, db)
	invitationsHandler := handlers.NewInvitationsHandler(cfg, db)
	tasksHandler := handlers.NewTasksHandler(cfg, db)

	// Health check
	router.Get("/", authHandler.HealthCheck)

	// Public routes
	router.Post("/signup", authHandler.Signup)
	router.Post("/signin", authHandler.Signin)
	router.Get("/users", authHandler.ListUsersByIDs)
	router.Get("/users/{userID}/invitations", invitationsHandler.UserInvitations)
	router.Get("/organization/{orgID}", orgsHandler.GetOrganization)
	router.Get("/organizations/{orgID}/invitations", invitationsHandler.OrganizationInvitations)
	router.Delete("/delete-pending-invitation", invitationsHandler.DeletePendingInvitation)
	router.Post("/move-employee-to-admin", orgsHandler.PromoteEmployee)
	router.Post("/move-admin-to-employee", orgsHandler.DemoteAdmin)
	router.Delete("/remove-employee", orgsHandler.RemoveEmployee)
	router.Delete("/remove-admin", orgsHandler.RemoveAdmin)
	router.Post("/organizations/{orgID}/tasks", tasksHandler.AddTask)
	router.Get("/organizations/{orgID}/tasks", tasksHandler.ListTasks)
	router.Put("/uncheck-task/{taskID}", tasksHandler.UncheckTask)
	router.Delete("/delete-task/{taskID}", tasksHandler.DeleteTask)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(customMiddleware.AuthMiddleware(cfg))

		r.Get("/user", authHandler.CurrentUser)
		r.Get("/user/organizations", orgsHandler.UserOrganizations)
		r.Post("/organizations", orgsHandler.CreateOrganization)
		r.Put("/organizations/{orgID}", orgsHandler.UpdateOrganization)
		r.Post("/organizations/{orgID}/invite", invitationsHandler.SendInvitation)
		r.Post("/organizations/{orgID}/accept-invitation", invitationsHandler.AcceptInvitation)
		r.Post("/organizations/{orgID}/decline-invitation", invitationsHandler.DeclineInvitation)
		r.Put("/complete-task/{taskID}", tasksHandler.CompleteTask)
	})

	// 404/405 as JSON
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponse(w, http.StatusNotFound,
			fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponse(w, http.StatusMethodNotAllowed,
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path))
	})
}
