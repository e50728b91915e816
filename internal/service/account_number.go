package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mxxikr/transfer-system/internal/bankday"
	"github.com/mxxikr/transfer-system/internal/repository"
)

const accountNumberPrefix = "001"

// AccountNumberGenerator issues account numbers of the form
// 001YYMMDD00001: a bank prefix, the issue date, and a 5-digit daily
// sequence advanced under an exclusive row lock.
type AccountNumberGenerator struct {
	loc *time.Location
	now func() time.Time
}

func NewAccountNumberGenerator(loc *time.Location) *AccountNumberGenerator {
	return &AccountNumberGenerator{loc: loc, now: time.Now}
}

// Generate must run inside the unit of work that inserts the account, so a
// failed creation does not leave the sequence committed ahead of the ledger.
func (g *AccountNumberGenerator) Generate(ctx context.Context, ledger repository.Ledger) (string, error) {
	today := g.now().In(g.loc)

	next, err := ledger.NextAccountNumber(ctx, bankday.DateKey(today, g.loc))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%05d", accountNumberPrefix, today.Format("060102"), next), nil
}
