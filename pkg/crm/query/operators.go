package query

// Operator is a filter comparison code as understood by the API.
type Operator string

// Filter operators. OpEquals is never written into a filter string.
const (
	OpEquals         Operator = "eq"
	OpNotEquals      Operator = "ne"
	OpGreaterThan    Operator = "gt"
	OpLessThan       Operator = "lt"
	OpGreaterOrEqual Operator = "ge"
	OpLessOrEqual    Operator = "le"
	OpStartsWith     Operator = "ll"
	OpEndsWith       Operator = "rl"
	OpContains       Operator = "fl"

	opRaw Operator = "raw"
)

// operators maps every accepted operator name and alias to its code.
var operators = map[string]Operator{
	"eq":             OpEquals,
	"equals":         OpEquals,
	"ne":             OpNotEquals,
	"doesNotEqual":   OpNotEquals,
	"gt":             OpGreaterThan,
	"greaterThan":    OpGreaterThan,
	"lt":             OpLessThan,
	"lessThan":       OpLessThan,
	"ge":             OpGreaterOrEqual,
	"gte":            OpGreaterOrEqual,
	"greaterOrEqual": OpGreaterOrEqual,
	"le":             OpLessOrEqual,
	"lte":            OpLessOrEqual,
	"lessOrEqual":    OpLessOrEqual,
	"ll":             OpStartsWith,
	"startsWith":     OpStartsWith,
	"rl":             OpEndsWith,
	"endsWith":       OpEndsWith,
	"fl":             OpContains,
	"contains":       OpContains,
	"raw":            opRaw,
}

// LookupOperator resolves an operator name or alias.
func LookupOperator(name string) (Operator, bool) {
	op, ok := operators[name]
	if !ok || op == opRaw {
		return "", false
	}

	return op, true
}

// acceptsTime reports whether the operator may be given a timestamp value.
func (o Operator) acceptsTime() bool {
	switch o {
	case OpStartsWith, OpEndsWith, OpContains:
		return false
	default:
		return true
	}
}
