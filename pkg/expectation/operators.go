package expectation

// Data-assertion operators.
const (
	OpEquals             = "equals"
	OpNotEquals          = "notEquals"
	OpDeepEquals         = "deepEquals"
	OpContains           = "contains"
	OpNotContains        = "notContains"
	OpGreaterThan        = "greaterThan"
	OpGreaterThanOrEqual = "greaterThanOrEqual"
	OpLessThan           = "lessThan"
	OpLessThanOrEqual    = "lessThanOrEqual"
	OpMatches            = "matches"
	OpStartsWith         = "startsWith"
	OpEndsWith           = "endsWith"
	OpLengthEquals       = "lengthEquals"
	OpLengthGreaterThan  = "lengthGreaterThan"
	OpLengthLessThan     = "lengthLessThan"
	OpIsEmpty            = "isEmpty"
	OpIsNotEmpty         = "isNotEmpty"
	OpIsTrue             = "isTrue"
	OpIsFalse            = "isFalse"
)

// unary operators ignore right.
var operators = map[string]bool{
	OpEquals:             false,
	OpNotEquals:          false,
	OpDeepEquals:         false,
	OpContains:           false,
	OpNotContains:        false,
	OpGreaterThan:        false,
	OpGreaterThanOrEqual: false,
	OpLessThan:           false,
	OpLessThanOrEqual:    false,
	OpMatches:            false,
	OpStartsWith:         false,
	OpEndsWith:           false,
	OpLengthEquals:       false,
	OpLengthGreaterThan:  false,
	OpLengthLessThan:     false,
	OpIsEmpty:            true,
	OpIsNotEmpty:         true,
	OpIsTrue:             true,
	OpIsFalse:            true,
}

// IsOperator reports whether op is a known data-assertion operator.
func IsOperator(op string) bool {
	_, ok := operators[op]
	return ok
}

// IsUnary reports whether op takes only the left operand.
func IsUnary(op string) bool {
	return operators[op]
}
