// handlers/tournament.go
package handlers

import (
	"strconv"

	"game-arena-system/middleware"
	"game-arena-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService, cfg *services.ArenaConfig) {
	// 🔓 Public routes
	app.Get("/tournaments", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "100"))
		tournaments, err := tournamentService.ListTournaments(limit)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(tournaments)
	})

	app.Get("/tournaments/:id", func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}
		tournament, err := tournamentService.GetTournament(id)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(tournament)
	})

	app.Get("/tournaments/:id/matches", func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}
		bracket, err := tournamentService.ListBracket(id)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(bracket)
	})

	// 🔐 Secured routes — middleware attached per route
	playerCtx := middleware.PlayerContextMiddleware()

	app.Post("/tournaments", playerCtx, func(c *fiber.Ctx) error {
		var req struct {
			Name       string `json:"name"`
			GameType   string `json:"game_type"`
			EntryFee   int64  `json:"entry_fee"`
			MaxPlayers int    `json:"max_players"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		tournament, err := tournamentService.CreateTournament(req.Name, req.GameType, req.EntryFee, req.MaxPlayers)
		if err != nil {
			return failJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(tournament)
	})

	app.Post("/tournaments/:id/register", playerCtx, func(c *fiber.Ctx) error {
		player := c.Locals("player_address").(string)
		id, ok := paramID(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}
		var req struct {
			Payment int64 `json:"payment"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		tournament, err := tournamentService.Register(id, player, req.Payment)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(tournament)
	})

	// ✅ Resolver routes
	resolverOnly := middleware.ResolverOnlyMiddleware(cfg.IsResolver)

	app.Post("/tournaments/:id/matches/:index/resolve", playerCtx, resolverOnly, func(c *fiber.Ctx) error {
		caller := c.Locals("player_address").(string)
		id, ok := paramID(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}
		matchIndex, err := strconv.Atoi(c.Params("index"))
		if err != nil {
			return badRequest(c, "invalid match index")
		}
		var req struct {
			Winner        string  `json:"winner"`
			EscrowMatchID *uint64 `json:"escrow_match_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		tournament, err := tournamentService.ResolveMatch(id, matchIndex, caller, req.Winner, req.EscrowMatchID)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(tournament)
	})

	app.Post("/tournaments/:id/cancel", playerCtx, resolverOnly, func(c *fiber.Ctx) error {
		caller := c.Locals("player_address").(string)
		id, ok := paramID(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}
		tournament, err := tournamentService.CancelTournament(id, caller)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(tournament)
	})
}
