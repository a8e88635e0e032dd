package routes

import (
	"github.com/Dosada05/cuereview/handlers"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	uploadHandler *handlers.UploadHandler,
	matchHandler *handlers.MatchHandler,
	playerHandler *handlers.PlayerHandler,
	statsHandler *handlers.StatsHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/matches", func(r chi.Router) {
		r.Get("/", matchHandler.ListMatchesHandler)
		r.Post("/upload", uploadHandler.UploadMatchHandler)
		r.Get("/{matchID}", matchHandler.GetMatchHandler)
	})

	router.Get("/frames/{frameID}", matchHandler.GetFrameHandler)
	router.Get("/breaks/{breakID}", matchHandler.GetBreakHandler)

	router.Route("/players", func(r chi.Router) {
		r.Get("/", playerHandler.ListPlayersHandler)
		r.Get("/{name}", playerHandler.GetPlayerStatsHandler)
		r.Get("/{name}/matches", playerHandler.ListPlayerMatchesHandler)
	})

	router.Get("/stats", statsHandler.BallStatsHandler)
	router.Get("/probability", playerHandler.ContestProbabilityHandler)

	router.Get("/ws/feed", webSocketHandler.ServeFeed)
}
