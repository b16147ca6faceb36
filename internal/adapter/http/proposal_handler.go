package http

import (
	"net/http"

	domain "credit-ledger/internal/domain/proposal"
	"credit-ledger/internal/usecase/proposal"

	"github.com/labstack/echo/v4"
)

type ProposalHandler struct{ uc *proposal.Usecase }

func NewProposalHandler(uc *proposal.Usecase) *ProposalHandler { return &ProposalHandler{uc: uc} }

type termsReq struct {
	Principal    float64 `json:"principal" validate:"gt=0,dec2"`
	LoanTerm     int     `json:"loan_term" validate:"gt=0,lte=36500"`
	TimeUnit     string  `json:"time_unit" validate:"required,oneof=DAYS MONTHS YEARS"`
	InterestRate float64 `json:"interest_rate" validate:"gte=0,lte=100,dec4"`
	PaymentType  string  `json:"payment_type" validate:"required,oneof=BULLET EMI"`
	EMIFrequency string  `json:"emi_frequency" validate:"omitempty,oneof=NONE DAILY WEEKLY MONTHLY QUARTERLY YEARLY"`
}

func (t termsReq) toDomain() domain.Terms {
	return domain.Terms{
		Principal:    t.Principal,
		LoanTerm:     t.LoanTerm,
		TimeUnit:     domain.TimeUnit(t.TimeUnit),
		InterestRate: t.InterestRate,
		PaymentType:  domain.PaymentType(t.PaymentType),
		EMIFrequency: domain.EMIFrequency(t.EMIFrequency),
	}
}

type createProposalReq struct {
	Kind               string            `json:"kind" validate:"required,oneof=OFFER REQUEST"`
	CounterpartyHandle string            `json:"counterparty_handle" validate:"required,handle"`
	Terms              termsReq          `json:"terms"`
	Metadata           map[string]string `json:"metadata"`
}

type negotiateReq struct {
	ProposalID string            `param:"proposal_id" validate:"hex32"`
	Terms      termsReq          `json:"terms"`
	Metadata   map[string]string `json:"metadata"`
}

type resolveReq struct {
	ProposalID string `param:"proposal_id" validate:"hex32"`
	Status     string `json:"status" validate:"required,oneof=ACCEPTED REJECTED EXPIRED"`
}

type proposalIDReq struct {
	ProposalID string `param:"proposal_id" validate:"hex32"`
}

func (h *ProposalHandler) Create(c echo.Context) error {
	actor, ok, err := callerID(c)
	if !ok {
		return err
	}
	var req createProposalReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	dto, err := h.uc.Create(c.Request().Context(), proposal.CreateInput{
		Kind:               domain.Kind(req.Kind),
		InitiatorID:        actor,
		CounterpartyHandle: req.CounterpartyHandle,
		Terms:              req.Terms.toDomain(),
		Metadata:           req.Metadata,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ProposalHandler) Negotiate(c echo.Context) error {
	actor, ok, err := callerID(c)
	if !ok {
		return err
	}
	var req negotiateReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	dto, err := h.uc.Negotiate(c.Request().Context(), proposal.NegotiateInput{
		ActorID:    actor,
		ProposalID: req.ProposalID,
		Terms:      req.Terms.toDomain(),
		Metadata:   req.Metadata,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ProposalHandler) Resolve(c echo.Context) error {
	actor, ok, err := callerID(c)
	if !ok {
		return err
	}
	var req resolveReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	dto, err := h.uc.Resolve(c.Request().Context(), proposal.ResolveInput{
		ActorID:    actor,
		ProposalID: req.ProposalID,
		Status:     domain.Status(req.Status),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ProposalHandler) Get(c echo.Context) error {
	actor, ok, err := callerID(c)
	if !ok {
		return err
	}
	req := proposalIDReq{ProposalID: c.Param("proposal_id")}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	dto, err := h.uc.Get(c.Request().Context(), actor, req.ProposalID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ProposalHandler) History(c echo.Context) error {
	actor, ok, err := callerID(c)
	if !ok {
		return err
	}
	req := proposalIDReq{ProposalID: c.Param("proposal_id")}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	list, err := h.uc.History(c.Request().Context(), actor, req.ProposalID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// List returns proposals the caller is party to; role narrows to one side.
func (h *ProposalHandler) List(c echo.Context) error {
	actor, ok, err := callerID(c)
	if !ok {
		return err
	}

	var (
		role, kind, status, paymentType  string
		minAmt, maxAmt, minRate, maxRate float64
		history                          bool
		limit                            int
	)
	b := echo.QueryParamsBinder(c).
		String("role", &role).
		String("kind", &kind).
		String("status", &status).
		String("payment_type", &paymentType).
		Float64("min_amount", &minAmt).
		Float64("max_amount", &maxAmt).
		Float64("min_rate", &minRate).
		Float64("max_rate", &maxRate).
		Bool("history", &history).
		Int("limit", &limit)
	if err := b.BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
	}

	f := domain.Filter{
		Kind:           domain.Kind(kind),
		Status:         domain.Status(status),
		PaymentType:    domain.PaymentType(paymentType),
		IncludeHistory: history,
		Limit:          limit,
	}
	switch role {
	case "", "any":
		f.PartyID = actor
	case "initiator":
		f.InitiatorID = actor
	case "counterparty":
		f.CounterpartyID = actor
	default:
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: "role", Message: "must be one of any initiator counterparty"}},
		})
	}
	q := c.QueryParams()
	if q.Has("min_amount") {
		f.MinAmount = &minAmt
	}
	if q.Has("max_amount") {
		f.MaxAmount = &maxAmt
	}
	if q.Has("min_rate") {
		f.MinRate = &minRate
	}
	if q.Has("max_rate") {
		f.MaxRate = &maxRate
	}

	list, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
