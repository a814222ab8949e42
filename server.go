package accounts

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

// NewFiberServer builds a fiber-backed router server with the JSON auth
// routes mounted. Hosts that need more control should wire RegisterAuthRoutes
// onto their own router instead.
func NewFiberServer(opts ...AuthControllerOption) router.Server[*fiber.App] {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	RegisterAuthRoutes(srv.Router(), opts...)

	return srv
}
