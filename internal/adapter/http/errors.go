package http

import (
	"errors"
	"net/http"

	"credit-ledger/internal/domain/apperr"

	"github.com/labstack/echo/v4"
)

// HeaderPartyID carries the authenticated caller's account id.
const HeaderPartyID = "Ax-Party-Id"

// callerID reads and checks the caller header; ok=false means a 400 was already written.
func callerID(c echo.Context) (string, bool, error) {
	id := c.Request().Header.Get(HeaderPartyID)
	if !reHex32.MatchString(id) {
		return "", false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid " + HeaderPartyID})
	}
	return id, true, nil
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
}

func invalid(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}

// writeError maps usecase failures onto status codes.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: "_", Message: apperr.Message(err)}},
		})
	case errors.Is(err, apperr.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: apperr.Message(err)})
	case errors.Is(err, apperr.ErrConflict):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: apperr.Message(err)})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
