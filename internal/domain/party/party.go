package party

import (
	"context"
	"strings"
	"unicode"

	"credit-ledger/internal/domain/apperr"
)

// Counterparty is either a resolved account or a contact handle that has not
// registered yet. Exactly one of the two fields is set.
type Counterparty struct {
	AccountID string `gorm:"column:account_id;size:32;index" json:"account_id,omitempty"`
	Handle    string `gorm:"column:handle;size:20;index" json:"handle,omitempty"`
}

func Resolved(accountID string) Counterparty { return Counterparty{AccountID: accountID} }
func Pending(handle string) Counterparty     { return Counterparty{Handle: handle} }

func (c Counterparty) IsResolved() bool { return c.AccountID != "" }

// Is reports whether accountID is this counterparty's resolved account.
func (c Counterparty) Is(accountID string) bool {
	return accountID != "" && c.AccountID == accountID
}

// Resolver looks up an account by contact handle. An unregistered handle is
// reported with found=false and a nil error.
type Resolver interface {
	ResolveAccountByHandle(ctx context.Context, handle string) (accountID string, found bool, err error)
}

type ResolverFunc func(ctx context.Context, handle string) (string, bool, error)

func (f ResolverFunc) ResolveAccountByHandle(ctx context.Context, handle string) (string, bool, error) {
	return f(ctx, handle)
}

const localDigits = 10

// NormalizeHandle keeps the last ten digits of raw and prefixes dialCode.
func NormalizeHandle(raw, dialCode string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < localDigits {
		return "", apperr.Validationf("contact handle %q must contain at least %d digits", raw, localDigits)
	}
	return dialCode + digits[len(digits)-localDigits:], nil
}

// Account is the slice of the identity directory this service reads (table: accounts).
type Account struct {
	ID          uint64 `gorm:"primaryKey;column:id;autoIncrement"`
	AccountID   string `gorm:"column:account_id;size:32;not null;uniqueIndex:ux_accounts_account_id"`
	PhoneNumber string `gorm:"column:phone_number;size:20;not null;uniqueIndex:ux_accounts_phone"`
}

func (Account) TableName() string { return "accounts" }
