package policy

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// PIIPattern is one compiled sensitive-data matcher.
type PIIPattern struct {
	Name        string      `json:"name"`
	Expr        string      `json:"pattern"`
	Sensitivity Sensitivity `json:"sensitivity"`

	re *regexp2.Regexp
}

// CompilePattern compiles expr and returns the pattern. A nil pattern and
// an error are returned when expr does not compile.
func CompilePattern(name, expr string, sensitivity Sensitivity) (*PIIPattern, error) {
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("policy: compile pattern %q: %w", name, err)
	}

	return &PIIPattern{
		Name:        name,
		Expr:        expr,
		Sensitivity: sensitivity,
		re:          re,
	}, nil
}

// Matcher returns the compiled matcher.
func (p *PIIPattern) Matcher() *regexp2.Regexp {
	return p.re
}
