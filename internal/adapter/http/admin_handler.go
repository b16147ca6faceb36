package http

import (
	"context"
	"errors"
	"net/http"

	"credit-ledger/internal/infrastructure/cache"
	"credit-ledger/internal/usecase/payment"
	"credit-ledger/internal/usecase/proposal"

	"github.com/labstack/echo/v4"
)

// LockFunc takes a run lease and returns its release; cache.Guard builds one.
type LockFunc func(ctx context.Context) (release func(context.Context) error, err error)

// AdminHandler exposes the batch jobs that creditctl also runs.
type AdminHandler struct {
	payments  *payment.Usecase
	proposals *proposal.Usecase
	sweepLock LockFunc
}

func NewAdminHandler(payments *payment.Usecase, proposals *proposal.Usecase, sweepLock LockFunc) *AdminHandler {
	return &AdminHandler{payments: payments, proposals: proposals, sweepLock: sweepLock}
}

type reconcileReq struct {
	Handle    string `json:"handle" validate:"required,handle"`
	AccountID string `json:"account_id" validate:"hex32"`
}

func (h *AdminHandler) Sweep(c echo.Context) error {
	ctx := c.Request().Context()
	if h.sweepLock != nil {
		release, err := h.sweepLock(ctx)
		if errors.Is(err, cache.ErrLockHeld) {
			return c.JSON(http.StatusConflict, ErrorResponse{Error: "sweep already running"})
		}
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "sweep lock unavailable"})
		}
		defer func() { _ = release(context.WithoutCancel(ctx)) }()
	}
	rep, err := h.payments.Sweep(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *AdminHandler) Expire(c echo.Context) error {
	rep, err := h.proposals.ExpireStale(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *AdminHandler) Reconcile(c echo.Context) error {
	var req reconcileReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	n, err := h.proposals.ReconcileHandle(c.Request().Context(), req.Handle, req.AccountID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"reassigned": n})
}
