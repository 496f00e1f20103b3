package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestObserver lo implementa metrics.LedgerMetrics.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// RequestMetrics mide cada petición con el patrón de ruta (/api/stock/transfers/:id), no la URL.
func RequestMetrics(obs RequestObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := responseStatus(c, err)
		obs.ObserveRequest(c.Method(), routePattern(c, status), status, time.Since(start))
		return err
	}
}

// responseStatus código final; un error sin manejar aún no se escribió en la respuesta.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

func routePattern(c *fiber.Ctx, status int) string {
	route := c.Route().Path
	if status == fiber.StatusNotFound && route == "/" {
		return "unmatched"
	}
	return route
}
