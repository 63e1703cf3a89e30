package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/txengine/internal/domain"
)

type accountReportRow struct {
	ClientID  int32
	Available pgtype.Numeric
	Held      pgtype.Numeric
	Total     pgtype.Numeric
	Locked    bool
}

func (r accountReportRow) toDomain() domain.Account {
	return domain.Account{
		ID:        domain.ClientID(r.ClientID),
		Available: numericToDecimal(r.Available),
		Held:      numericToDecimal(r.Held),
		Total:     numericToDecimal(r.Total),
		Locked:    r.Locked,
	}
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   d.Coefficient(),
		Exp:   d.Exponent(),
		Valid: true,
	}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t,
		Valid: !t.IsZero(),
	}
}
