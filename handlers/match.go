// handlers/match.go
package handlers

import (
	"encoding/hex"
	"errors"
	"strconv"

	"game-arena-system/middleware"
	"game-arena-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMatchRoutes(app *fiber.App, matchService *services.MatchService, ledgerService *services.LedgerService, cfg *services.ArenaConfig) {
	// 🔓 Public routes — no player context needed
	app.Get("/matches", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "100"))
		matches, err := matchService.ListMatches(c.Query("state"), limit)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(matches)
	})

	app.Get("/matches/:id", func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}
		match, err := matchService.GetMatch(id)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(match)
	})

	app.Get("/wallets/:address", func(c *fiber.Ctx) error {
		wallet, err := ledgerService.GetWallet(c.Params("address"))
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(wallet)
	})

	app.Get("/wallets/:address/entries", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "100"))
		entries, err := ledgerService.ListEntries(c.Params("address"), limit)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(entries)
	})

	// 🔐 Secured routes — require player context from the gateway.
	// Middleware is attached per route so public GETs registered elsewhere
	// stay open.
	playerCtx := middleware.PlayerContextMiddleware()

	app.Post("/matches", playerCtx, func(c *fiber.Ctx) error {
		player := c.Locals("player_address").(string)
		var req struct {
			GameType string `json:"game_type"`
			Wager    int64  `json:"wager"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		match, err := matchService.CreateMatch(player, req.GameType, req.Wager)
		if err != nil {
			return failJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(match)
	})

	app.Post("/matches/:id/join", playerCtx, func(c *fiber.Ctx) error {
		player := c.Locals("player_address").(string)
		id, ok := paramID(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}
		var req struct {
			Wager int64 `json:"wager"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		match, err := matchService.JoinMatch(id, player, req.Wager)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(match)
	})

	app.Post("/matches/:id/commit", playerCtx, func(c *fiber.Ctx) error {
		player := c.Locals("player_address").(string)
		id, ok := paramID(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}
		var req struct {
			Commitment string `json:"commitment"` // hex-encoded 32-byte digest
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		commitment, err := hex.DecodeString(req.Commitment)
		if err != nil {
			return badRequest(c, "commitment must be hex encoded")
		}
		match, err := matchService.CommitMove(id, player, commitment)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(match)
	})

	app.Post("/matches/:id/reveal", playerCtx, func(c *fiber.Ctx) error {
		player := c.Locals("player_address").(string)
		id, ok := paramID(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}
		var req struct {
			Move string `json:"move"`
			Salt string `json:"salt"` // hex encoded
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		salt, err := hex.DecodeString(req.Salt)
		if err != nil {
			return badRequest(c, "salt must be hex encoded")
		}
		match, err := matchService.RevealMove(id, player, []byte(req.Move), salt)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(match)
	})

	app.Post("/matches/:id/cancel", playerCtx, func(c *fiber.Ctx) error {
		player := c.Locals("player_address").(string)
		id, ok := paramID(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}
		match, err := matchService.CancelMatch(id, player)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(match)
	})

	app.Post("/matches/:id/claim-timeout", playerCtx, func(c *fiber.Ctx) error {
		player := c.Locals("player_address").(string)
		id, ok := paramID(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}
		match, err := matchService.ClaimTimeout(id, player)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(match)
	})

	// ✅ Resolver routes — operator actions and outcome declarations from
	// trusted game backends
	resolverOnly := middleware.ResolverOnlyMiddleware(cfg.IsResolver)

	app.Post("/wallets/:address/topup", playerCtx, resolverOnly, func(c *fiber.Ctx) error {
		var req struct {
			Amount int64 `json:"amount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		wallet, err := ledgerService.Topup(c.Params("address"), req.Amount)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(wallet)
	})

	app.Post("/matches/:id/resolve", playerCtx, resolverOnly, func(c *fiber.Ctx) error {
		caller := c.Locals("player_address").(string)
		id, ok := paramID(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}
		var req struct {
			Winner string `json:"winner"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		match, err := matchService.ResolveByResolver(id, caller, req.Winner)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(match)
	})
}

func paramID(c *fiber.Ctx, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	return id, err == nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// failJSON maps service errors onto HTTP statuses: missing records are 404,
// unauthorized resolvers 403, transfer failures 409, precondition
// violations 400 and everything else 500.
func failJSON(c *fiber.Ctx, err error) error {
	switch {
	case services.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotResolver):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInsufficientFunds):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case services.IsPrecondition(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
		"cause": err.Error(),
	})
}
