// handlers/stats.go
package handlers

import (
	"strconv"

	"game-arena-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupStatsRoutes(app *fiber.App, statsService *services.StatsService, matchService *services.MatchService) {
	app.Get("/players/:address/stats", func(c *fiber.Ctx) error {
		stats, err := statsService.GetPlayerStats(c.Params("address"))
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(stats)
	})

	app.Get("/players/:address/matches", func(c *fiber.Ctx) error {
		matches, err := matchService.ListPlayerMatches(c.Params("address"))
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(matches)
	})

	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		rows, err := statsService.GetLeaderboard(limit)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(rows)
	})
}
