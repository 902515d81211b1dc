package check

// TypeLocator marks an assertion whose subject is a locator selector.
const TypeLocator = "locator"

// Assertion is one check request as written in an expectation document.
//
// Fn names the subject: a selector such as `rows[all]`, or a screen method
// that is called with Params and whose result is checked. Expect names the
// check; Value is its expected value.
type Assertion struct {
	Type           string        `yaml:"type,omitempty" json:"type,omitempty"`
	Fn             string        `yaml:"fn" json:"fn"`
	Expect         string        `yaml:"expect" json:"expect"`
	Value          interface{}   `yaml:"value,omitempty" json:"value,omitempty"`
	Params         []interface{} `yaml:"params,omitempty" json:"params,omitempty"`
	Args           []interface{} `yaml:"args,omitempty" json:"args,omitempty"`
	StoreAs        string        `yaml:"storeAs,omitempty" json:"storeAs,omitempty"`
	PersistStoreAs string        `yaml:"persistStoreAs,omitempty" json:"persistStoreAs,omitempty"`
	CountOf        string        `yaml:"countOf,omitempty" json:"countOf,omitempty"`
	Message        string        `yaml:"message,omitempty" json:"message,omitempty"`
}

// Arguments returns params, falling back to args.
func (a Assertion) Arguments() []interface{} {
	if a.Params != nil {
		return a.Params
	}
	return a.Args
}

// HasStoreTarget reports whether the result is captured into a variable.
func (a Assertion) HasStoreTarget() bool {
	return a.StoreAs != "" || a.PersistStoreAs != ""
}

// IsLocator reports a direct-locator check.
func (a Assertion) IsLocator() bool {
	return a.Type == TypeLocator
}
