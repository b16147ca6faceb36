package http

import "github.com/labstack/echo/v4"

type Handlers struct {
	Health    *Handler
	Proposals *ProposalHandler
	Credits   *CreditHandler
	Admin     *AdminHandler
}

// Register mounts every route on e; idem wraps the caller-scoped mutating routes.
func Register(e *echo.Echo, h Handlers, idem echo.MiddlewareFunc) {
	if idem == nil {
		idem = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	e.GET("/health", h.Health.Health)

	p := e.Group("/proposals")
	p.GET("", h.Proposals.List)
	p.GET("/:proposal_id", h.Proposals.Get)
	p.GET("/:proposal_id/history", h.Proposals.History)
	p.POST("", h.Proposals.Create, idem)
	p.POST("/:proposal_id/negotiate", h.Proposals.Negotiate, idem)
	p.POST("/:proposal_id/resolve", h.Proposals.Resolve, idem)

	cr := e.Group("/credits")
	cr.GET("", h.Credits.List)
	cr.GET("/:credit_id", h.Credits.Get)
	cr.GET("/:credit_id/statement.xlsx", h.Credits.Statement)
	cr.PUT("/:credit_id/payments/:due_date", h.Credits.MarkPayment, idem)

	a := e.Group("/admin")
	a.POST("/sweep", h.Admin.Sweep)
	a.POST("/expire", h.Admin.Expire)
	a.POST("/reconcile", h.Admin.Reconcile)
}
