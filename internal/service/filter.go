package service

import (
	"strings"
	"time"

	"retaildash/internal/dataset"
	"retaildash/internal/models"
)

// Operator names accepted in filter predicates.
const (
	OpEquals      = "equals"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpContains    = "contains"
)

// FilterService compiles predicate sets against a table and evaluates them
// as a conjunction.
type FilterService struct{}

func NewFilterService() *FilterService { return &FilterService{} }

// Apply evaluates the predicate set over every row of the table. The whole
// set is validated before any row is touched, so a bad predicate leaves no
// partial result. An empty set selects the full table. Rows where any
// referenced cell is null never match.
func (s *FilterService) Apply(tbl *dataset.Table, set models.FilterSet) (*dataset.View, error) {
	if tbl == nil {
		return nil, dataset.ErrNoDataset
	}
	if len(set.Predicates) == 0 {
		return tbl.FullView(), nil
	}

	compiled := make([]*compiledPredicate, 0, len(set.Predicates))
	for _, p := range set.Predicates {
		cp, err := compilePredicate(tbl, p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cp)
	}

	rows := make([]int, 0, tbl.NumRows())
	for row := 0; row < tbl.NumRows(); row++ {
		matched := true
		for _, cp := range compiled {
			if !cp.matches(row) {
				matched = false
				break
			}
		}
		if matched {
			rows = append(rows, row)
		}
	}
	return dataset.NewView(tbl, rows), nil
}

// compiledPredicate holds the resolved column and the comparison value
// pre-parsed for its kind.
type compiledPredicate struct {
	col  *dataset.Column
	op   string
	num  float64
	tm   time.Time
	b    bool
	text string
}

func compilePredicate(tbl *dataset.Table, p models.FilterPredicate) (*compiledPredicate, error) {
	col, ok := tbl.Column(p.Column)
	if !ok {
		return nil, &dataset.UnknownColumnError{Column: p.Column}
	}
	cp := &compiledPredicate{col: col, op: p.Operator}

	invalid := func(reason string) error {
		return &InvalidPredicateError{
			Column:   p.Column,
			Operator: p.Operator,
			Value:    p.Value,
			Reason:   reason,
		}
	}

	switch p.Operator {
	case OpEquals:
		switch col.Kind {
		case dataset.Numeric:
			if cp.num, ok = dataset.ParseFloat(p.Value); !ok {
				return nil, invalid("value is not numeric")
			}
		case dataset.Datetime:
			if cp.tm, ok = dataset.ParseTime(p.Value); !ok {
				return nil, invalid("value is not a recognized date")
			}
		case dataset.Boolean:
			if cp.b, ok = dataset.ParseBool(p.Value); !ok {
				return nil, invalid("value is not a boolean")
			}
		default:
			cp.text = strings.ToLower(p.Value)
		}
	case OpGreaterThan, OpLessThan:
		switch col.Kind {
		case dataset.Numeric:
			if cp.num, ok = dataset.ParseFloat(p.Value); !ok {
				return nil, invalid("value is not numeric")
			}
		case dataset.Datetime:
			if cp.tm, ok = dataset.ParseTime(p.Value); !ok {
				return nil, invalid("value is not a recognized date")
			}
		default:
			return nil, invalid("order comparison needs a numeric or datetime column")
		}
	case OpContains:
		if col.Kind != dataset.Categorical {
			return nil, invalid("substring match needs a text column")
		}
		cp.text = strings.ToLower(p.Value)
	default:
		return nil, invalid("unknown operator")
	}
	return cp, nil
}

func (p *compiledPredicate) matches(row int) bool {
	if p.col.IsNull(row) {
		return false
	}
	switch p.col.Kind {
	case dataset.Numeric:
		v, ok := p.col.Float(row)
		if !ok {
			return false
		}
		switch p.op {
		case OpEquals:
			return v == p.num
		case OpGreaterThan:
			return v > p.num
		case OpLessThan:
			return v < p.num
		}
	case dataset.Datetime:
		t, ok := p.col.Time(row)
		if !ok {
			return false
		}
		switch p.op {
		case OpEquals:
			return t.Equal(p.tm)
		case OpGreaterThan:
			return t.After(p.tm)
		case OpLessThan:
			return t.Before(p.tm)
		}
	case dataset.Boolean:
		b, ok := p.col.Bool(row)
		return ok && p.op == OpEquals && b == p.b
	default:
		s, ok := p.col.Str(row)
		if !ok {
			return false
		}
		s = strings.ToLower(s)
		switch p.op {
		case OpEquals:
			return s == p.text
		case OpContains:
			return strings.Contains(s, p.text)
		}
	}
	return false
}
