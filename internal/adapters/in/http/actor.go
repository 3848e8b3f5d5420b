package http

import (
	"net/http"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	actorKey = "actor"
)

func actorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := kernel.UUIDFromString(c.Request().Header.Get(HeaderUserID))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, Error{
				Code:    http.StatusUnauthorized,
				Message: "missing or invalid " + HeaderUserID,
			})
		}

		role, err := kernel.ParseRole(c.Request().Header.Get(HeaderUserRole))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, Error{
				Code:    http.StatusUnauthorized,
				Message: "missing or invalid " + HeaderUserRole,
			})
		}

		c.Set(actorKey, kernel.Actor{UserID: userID, Role: role})
		return next(c)
	}
}

func actorOf(c echo.Context) kernel.Actor {
	actor, _ := c.Get(actorKey).(kernel.Actor)
	return actor
}

func pathID(c echo.Context) (kernel.UUID, error) {
	return parseID("id", c.Param("id"))
}

func parseID(param, raw string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(param, err)
	}
	return id, nil
}

func forbidden(c echo.Context, action string) error {
	return c.JSON(http.StatusForbidden, Error{
		Code:    http.StatusForbidden,
		Message: actorOf(c).Role.String() + " may not " + action,
	})
}
