package reporting

import (
	"errors"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// Middleware gives each request its own hub on the user context, tagged with
// the request ID. Panics are captured and re-raised for the outer recover
// middleware. Returned errors that would become 5xx responses are captured too.
func (r *Reporter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		hub := r.Hub()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
				scope.SetTag("request_id", utils.CopyString(rid))
			}
			// The hub is read after the handler returns; copy everything
			// fasthttp hands out by reference.
			method := utils.CopyString(c.Method())
			scope.SetTag("http.method", method)
			scope.SetContext("request", sentry.Context{
				"method":     method,
				"url":        utils.CopyString(c.OriginalURL()),
				"user_agent": utils.CopyString(c.Get(fiber.HeaderUserAgent)),
				"ip":         utils.CopyString(c.IP()),
			})
		})

		ctx := sentry.SetHubOnContext(c.UserContext(), hub)
		c.SetUserContext(ctx)

		defer func() {
			if rec := recover(); rec != nil {
				r.Recover(ctx, rec)
				panic(rec)
			}
		}()

		err := c.Next()
		if err != nil {
			var fe *fiber.Error
			if !errors.As(err, &fe) || fe.Code >= fiber.StatusInternalServerError {
				r.Exception(ctx, err, func(scope *sentry.Scope) {
					scope.SetTag("route", c.Route().Path)
				})
			}
		}
		return err
	}
}
