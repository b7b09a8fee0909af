package routes

import (
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/handlers"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/middleware"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Participant  *handlers.ParticipantHandler
	Event        *handlers.EventHandler
	Registration *handlers.RegistrationHandler
	Team         *handlers.TeamHandler
	Merch        *handlers.MerchHandler
	Organizer    *handlers.OrganizerHandler
	Admin        *handlers.AdminHandler
}

func InitRoutes(h Handlers, jwtSecret string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Post("/auth/signup", h.Auth.SignUp)
	router.Post("/auth/signin", h.Auth.SignIn)

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/auth/change-password", h.Auth.ChangePassword)
	})

	router.Route("/events", func(r chi.Router) {
		r.Get("/", h.Event.Browse)
		r.Get("/trending", h.Event.Trending)
		r.Get("/{eventID}", h.Event.Get)

		// participant actions
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(models.RoleParticipant))

			r.Post("/{eventID}/register", h.Registration.Register)
			r.Delete("/{eventID}/register", h.Registration.Cancel)

			r.Post("/{eventID}/teams", h.Team.CreateTeam)
			r.Post("/{eventID}/teams/join", h.Team.JoinByCode)
			r.Post("/{eventID}/teams/reject", h.Team.RejectByCode)
			r.Get("/{eventID}/teams/mine", h.Team.GetMyTeam)

			r.Post("/{eventID}/orders", h.Merch.CreateOrder)
		})

		// organizer actions
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(models.RoleOrganizer))

			r.Post("/", h.Event.Create)
			r.Put("/{eventID}", h.Event.Update)
			r.Delete("/{eventID}", h.Event.Delete)
			r.Post("/{eventID}/publish", h.Event.Publish)
			r.Post("/{eventID}/cancel", h.Event.Cancel)
			r.Post("/{eventID}/registration-open", h.Event.SetRegistrationOpen)
			r.Post("/{eventID}/poster", h.Event.UploadPoster)
			r.Get("/{eventID}/analytics", h.Event.Analytics)
			r.Get("/{eventID}/registrations", h.Registration.ListByEvent)
			r.Get("/{eventID}/registrations/export", h.Event.ExportRegistrationsCSV)
			r.Post("/{eventID}/registrations/{registrationID}/attend", h.Registration.MarkAttended)
			r.Get("/{eventID}/teams", h.Team.ListByEvent)
			r.Get("/{eventID}/orders", h.Merch.ListEventOrders)
		})
	})

	router.Route("/me", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(models.RoleParticipant))

		r.Get("/", h.Participant.GetProfile)
		r.Put("/", h.Participant.UpdateProfile)
		r.Get("/dashboard", h.Participant.Dashboard)
		r.Get("/registrations", h.Registration.MyRegistrations)
		r.Get("/orders", h.Merch.MyOrders)
		r.Get("/following", h.Participant.FollowedOrganizers)
		r.Post("/following/{organizerID}", h.Participant.FollowOrganizer)
		r.Delete("/following/{organizerID}", h.Participant.UnfollowOrganizer)
	})

	router.Route("/organizers", func(r chi.Router) {
		r.Get("/", h.Organizer.List)
		r.Get("/{organizerID}", h.Organizer.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(models.RoleOrganizer))

			r.Put("/profile", h.Organizer.UpdateProfile)
			r.Get("/events/mine", h.Event.ListMine)
			r.Post("/password-reset", h.Organizer.RequestPasswordReset)
		})
	})

	router.Route("/orders", func(r chi.Router) {
		r.Use(authenticate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authorize(models.RoleParticipant))
			r.Post("/{orderID}/proof", h.Merch.SubmitProof)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authorize(models.RoleOrganizer))
			r.Post("/{orderID}/review", h.Merch.ReviewOrder)
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(models.RoleAdmin))

		r.Get("/dashboard", h.Admin.Dashboard)
		r.Post("/organizers", h.Organizer.Provision)
		r.Post("/organizers/{organizerID}/status", h.Organizer.SetStatus)
		r.Get("/password-resets", h.Organizer.ListResetRequests)
		r.Post("/password-resets/{requestID}/resolve", h.Organizer.ResolveResetRequest)
	})

	return router
}
