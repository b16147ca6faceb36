package http

import (
	"context"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	repo "credit-ledger/internal/adapter/repository/mysql"
	"credit-ledger/internal/domain/party"
	"credit-ledger/internal/testutil/sqlitedb"
	"credit-ledger/internal/usecase/activation"
	"credit-ledger/internal/usecase/payment"
	"credit-ledger/internal/usecase/proposal"
	"credit-ledger/pkg/clock"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	lenderID   = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	borrowerID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	strangerID = "cccccccccccccccccccccccccccccccc"

	borrowerPhone = "98765 43210"
)

type stack struct {
	db        *gorm.DB
	e         *echo.Echo
	now       time.Time
	proposals *ProposalHandler
	credits   *CreditHandler
	admin     *AdminHandler
}

// newStack wires real usecases over a private sqlite db; the clock starts at 2024-03-01 10:00 UTC.
func newStack(t *testing.T, lock LockFunc) *stack {
	t.Helper()
	s := &stack{
		db:  sqlitedb.Open(t),
		e:   newEchoWithValidator(),
		now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	clk := clock.Func(func() time.Time { return s.now })
	directory := party.ResolverFunc(func(ctx context.Context, handle string) (string, bool, error) {
		if handle == "+919876543210" {
			return borrowerID, true, nil
		}
		return "", false, nil
	})

	tx := repo.NewGormUoW(s.db)
	engine := activation.NewEngine(tx, clk)
	pu := proposal.NewUsecase(repo.NewProposalRepository(s.db), tx, engine, directory, clk, "")
	cu := payment.NewUsecase(repo.NewCreditRepository(s.db), clk)

	s.proposals = NewProposalHandler(pu)
	s.credits = NewCreditHandler(cu, clk)
	s.admin = NewAdminHandler(cu, pu, lock)
	return s
}

type call struct {
	method string
	target string
	body   any
	raw    string
	actor  string
	params map[string]string
}

func (s *stack) do(t *testing.T, h echo.HandlerFunc, in call) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	switch {
	case in.raw != "":
		body = stringsReader(in.raw)
	case in.body != nil:
		body = mustJSON(in.body)
	}
	req := httptest.NewRequest(in.method, in.target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if in.actor != "" {
		req.Header.Set(HeaderPartyID, in.actor)
	}
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	if len(in.params) > 0 {
		names := make([]string, 0, len(in.params))
		values := make([]string, 0, len(in.params))
		for k, v := range in.params {
			names = append(names, k)
			values = append(values, v)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if err := h(c); err != nil {
		t.Fatalf("%s %s handler error: %v", in.method, in.target, err)
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return out
}

func emiTerms() map[string]any {
	return map[string]any{
		"principal":     3000,
		"loan_term":     3,
		"time_unit":     "MONTHS",
		"interest_rate": 12,
		"payment_type":  "EMI",
		"emi_frequency": "MONTHLY",
	}
}

// createOffer has the lender offer credit to the registered borrower phone.
func (s *stack) createOffer(t *testing.T) proposal.ProposalDTO {
	t.Helper()
	rec := s.do(t, s.proposals.Create, call{
		method: stdhttp.MethodPost, target: "/proposals", actor: lenderID,
		body: map[string]any{
			"kind":                "OFFER",
			"counterparty_handle": borrowerPhone,
			"terms":               emiTerms(),
			"metadata":            map[string]string{"purpose": "inventory"},
		},
	})
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("create status = %d, body=%s", rec.Code, rec.Body.String())
	}
	return decode[proposal.ProposalDTO](t, rec)
}

// activate accepts a fresh offer as the borrower and returns the credit id.
func (s *stack) activate(t *testing.T) string {
	t.Helper()
	p := s.createOffer(t)
	rec := s.do(t, s.proposals.Resolve, call{
		method: stdhttp.MethodPost, target: "/proposals/" + p.ProposalID + "/resolve", actor: borrowerID,
		body:   map[string]string{"status": "ACCEPTED"},
		params: map[string]string{"proposal_id": p.ProposalID},
	})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("resolve status = %d, body=%s", rec.Code, rec.Body.String())
	}
	out := decode[proposal.ResolveDTO](t, rec)
	if out.CreditID == "" {
		t.Fatalf("expected a credit id, got %+v", out)
	}
	return out.CreditID
}

func (s *stack) credit(t *testing.T, creditID, actor string) payment.CreditDTO {
	t.Helper()
	rec := s.do(t, s.credits.Get, call{
		method: stdhttp.MethodGet, target: "/credits/" + creditID, actor: actor,
		params: map[string]string{"credit_id": creditID},
	})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("get credit status = %d, body=%s", rec.Code, rec.Body.String())
	}
	return decode[payment.CreditDTO](t, rec)
}
