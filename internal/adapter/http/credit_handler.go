package http

import (
	"bytes"
	"net/http"

	"credit-ledger/internal/adapter/export"
	"credit-ledger/internal/domain/credit"
	"credit-ledger/internal/usecase/payment"
	"credit-ledger/pkg/clock"

	"github.com/labstack/echo/v4"
)

type CreditHandler struct {
	uc    *payment.Usecase
	clock clock.Clock
}

func NewCreditHandler(uc *payment.Usecase, clk clock.Clock) *CreditHandler {
	if clk == nil {
		clk = clock.System()
	}
	return &CreditHandler{uc: uc, clock: clk}
}

type creditIDReq struct {
	CreditID string `param:"credit_id" validate:"hex32"`
}

type markPaymentReq struct {
	CreditID string `param:"credit_id" validate:"hex32"`
	DueDate  string `param:"due_date" validate:"required,datetime=2006-01-02"`
	Status   string `json:"status" validate:"required,oneof=BORROWER_MARKED_AS_PAID PAID PAID_LATE"`
}

func (h *CreditHandler) List(c echo.Context) error {
	actor, ok, err := callerID(c)
	if !ok {
		return err
	}
	status := c.QueryParam("status")
	list, err := h.uc.ListCredits(c.Request().Context(), actor, credit.Status(status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CreditHandler) Get(c echo.Context) error {
	actor, ok, err := callerID(c)
	if !ok {
		return err
	}
	req := creditIDReq{CreditID: c.Param("credit_id")}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	dto, err := h.uc.GetCredit(c.Request().Context(), actor, req.CreditID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Statement streams the credit's repayment schedule as an xlsx workbook.
func (h *CreditHandler) Statement(c echo.Context) error {
	actor, ok, err := callerID(c)
	if !ok {
		return err
	}
	req := creditIDReq{CreditID: c.Param("credit_id")}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	cr, err := h.uc.Credit(c.Request().Context(), actor, req.CreditID)
	if err != nil {
		return writeError(c, err)
	}
	var buf bytes.Buffer
	if err := export.WriteStatement(&buf, cr, h.clock.Now()); err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.FileName(cr)+`"`)
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *CreditHandler) MarkPayment(c echo.Context) error {
	actor, ok, err := callerID(c)
	if !ok {
		return err
	}
	var req markPaymentReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	dto, err := h.uc.MarkPayment(c.Request().Context(), payment.MarkInput{
		ActorID:  actor,
		CreditID: req.CreditID,
		DueDate:  req.DueDate,
		Status:   credit.PaymentStatus(req.Status),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
