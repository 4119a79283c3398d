package odds

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidQuery = errors.New("invalid query")

// ValidateQuery is for layers that accept untrusted input. The engine itself
// never rejects a query.
func ValidateQuery(q Query) error {
	if errs := QueryProblems(q); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(errs, "; "))
	}
	return nil
}

// QueryProblems lists every reason q is outside the documented domain.
func QueryProblems(q Query) []string {
	var errs []string

	if q.Level < MinLevel || q.Level > MaxLevel {
		errs = append(errs, fmt.Sprintf("level must be in [%d,%d]", MinLevel, MaxLevel))
	}
	if q.Cost < MinCost || q.Cost > MaxCost {
		errs = append(errs, fmt.Sprintf("cost must be in [%d,%d]", MinCost, MaxCost))
	}
	if q.Rerolls < 0 {
		errs = append(errs, "rerolls must be >= 0")
	}
	if q.PurchasedTarget < 0 {
		errs = append(errs, "purchased_target must be >= 0")
	}
	if q.PurchasedOther < 0 {
		errs = append(errs, "purchased_other must be >= 0")
	}
	return errs
}
