package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"courtside-live/handlers"
)

func SetupRoutes(
	router *chi.Mux,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	courtHandler *handlers.CourtHandler,
	streamHandler *handlers.StreamHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Post("/", tournamentHandler.CreateHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Post("/{tournamentID}/teams", tournamentHandler.AddTeamHandler)
		r.Post("/{tournamentID}/activate", tournamentHandler.ActivateHandler)
		r.Post("/{tournamentID}/logo", tournamentHandler.UploadLogoHandler)

		r.Get("/{tournamentID}/matches", tournamentHandler.ListMatchesHandler)
		r.Get("/{tournamentID}/bracket", tournamentHandler.GetBracketHandler)
		r.Get("/{tournamentID}/bracket/layout", tournamentHandler.GetLayoutHandler)
		r.Post("/{tournamentID}/bracket/regenerate", tournamentHandler.RegenerateBracketHandler)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Post("/{matchID}/start", matchHandler.StartHandler)
		r.Post("/{matchID}/result", matchHandler.SubmitResultHandler)
		r.Post("/{matchID}/cancel", matchHandler.CancelHandler)
	})

	router.Route("/courts", func(r chi.Router) {
		r.Get("/", courtHandler.ListHandler)
		r.Post("/", courtHandler.CreateHandler)
		r.Get("/{courtID}", courtHandler.GetByIDHandler)
	})

	router.Route("/ws", func(r chi.Router) {
		r.Get("/brackets/{tournamentID}", streamHandler.ServeBracketStream)
		r.Get("/courts/{courtID}", streamHandler.ServeCourtStream)
		r.Get("/tournaments/{tournamentID}", streamHandler.ServeTournamentStream)
	})
}
