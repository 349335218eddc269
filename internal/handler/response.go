package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// success writes a 200 {"success": true, ...} body.
func success(c echo.Context, fields echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	return c.JSON(http.StatusOK, body)
}

// fail writes {"error": msg}.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// internalError logs err with the route and answers 500 without exposing it.
func internalError(c echo.Context, err error, what string) error {
	log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg(what)
	return fail(c, http.StatusInternalServerError, "internal server error")
}

// bindValid binds the JSON body into dst and runs the registered validator.
// On failure it has already written the 400 response and returns false.
func bindValid(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "validation failed",
			"detail": validationDetail(err),
		})
	}
	return true, nil
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		p := fe.Field() + " " + fe.Tag()
		if fe.Param() != "" {
			p += "=" + fe.Param()
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ", ")
}
