package preprocessing

import "github.com/YuminosukeSato/catenc/pkg/errors"

// Policy は未知カテゴリ・欠損値の扱いを表す
type Policy string

const (
	// PolicyError は該当する値があればエラーを返す
	PolicyError Policy = "error"
	// PolicyReturnNaN は該当する値をNaNに変換する
	PolicyReturnNaN Policy = "return_nan"
	// PolicyValue は該当する値を事前分布（目的変数の平均）などの既定値に変換する
	PolicyValue Policy = "value"
)

// ParsePolicy は文字列をPolicyに変換する
func ParsePolicy(s string) (Policy, error) {
	p := Policy(s)
	if err := p.validate("policy"); err != nil {
		return "", err
	}
	return p, nil
}

func (p Policy) validate(param string) error {
	switch p {
	case PolicyError, PolicyReturnNaN, PolicyValue:
		return nil
	default:
		return errors.NewValidationError(param, "must be one of error, return_nan, value", string(p))
	}
}

// lookupKind is the outcome of looking a category code up in a mapping.
type lookupKind int

const (
	known lookupKind = iota
	unseen
	missing
)

func (k lookupKind) String() string {
	switch k {
	case known:
		return "known"
	case unseen:
		return "unseen"
	default:
		return "missing"
	}
}

// lookup is Known(value), Unseen or Missing.
type lookup struct {
	kind  lookupKind
	value float64
}

// outcome is what a Policy turns an Unseen or Missing lookup into.
type outcome int

const (
	usePrior outcome = iota
	useNaN
	raise
)

var policyOutcome = map[Policy]outcome{
	PolicyValue:     usePrior,
	PolicyReturnNaN: useNaN,
	PolicyError:     raise,
}
