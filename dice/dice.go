// Package dice parses and rolls dice expressions such as "2d6+3-2": signed
// dice terms (count d faces) followed or preceded by signed integer modifiers.
package dice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MaxRolls bounds the dice count of one term
	MaxRolls = 50
	// MaxFaces bounds the faces of one die
	MaxFaces = 99999
	// MaxInputLength bounds an expression together with its target name
	MaxInputLength = 100
)

// ErrInvalidExpression is returned for input that is not a dice expression
// or exceeds the limits
var ErrInvalidExpression = errors.New("invalid dice expression")

var termPattern = regexp.MustCompile(`^([+-]?)(\d+)(?:[dD](\d+))?`)

// Term is Count dice of Faces faces, added (Sign 1) or subtracted (Sign -1)
type Term struct {
	Count int
	Faces int
	Sign  int
}

func (t Term) String() string {
	s := fmt.Sprintf("%dd%d", t.Count, t.Faces)
	if t.Sign < 0 {
		return "-" + s
	}
	return s
}

// Expression is a parsed dice expression
type Expression struct {
	Dice      []Term
	Modifiers []int
}

// Simple reports whether e is a single positive term without modifier
func (e Expression) Simple() bool {
	return len(e.Dice) == 1 && len(e.Modifiers) == 0 && e.Dice[0].Sign > 0
}

// String renders e in canonical form, e.g. "2d6-1d4+3"
func (e Expression) String() string {
	var sb strings.Builder
	for n, t := range e.Dice {
		if n > 0 && t.Sign > 0 {
			sb.WriteByte('+')
		}
		sb.WriteString(t.String())
	}
	for _, m := range e.Modifiers {
		fmt.Fprintf(&sb, "%+d", m)
	}
	return sb.String()
}

// Parse reads an expression made only of terms like "2d6", "-1d4", "+3".
// A bare number is accepted as a modifier only when it carries a sign, and
// at least one dice term is required.
func Parse(s string) (Expression, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Expression{}, fmt.Errorf("%w: empty", ErrInvalidExpression)
	}
	if len(s) > MaxInputLength {
		return Expression{}, fmt.Errorf("%w: longer than %d characters", ErrInvalidExpression, MaxInputLength)
	}

	var e Expression
	for rest := s; rest != ""; {
		m := termPattern.FindStringSubmatch(rest)
		if m == nil {
			return Expression{}, fmt.Errorf("%w: unexpected %q", ErrInvalidExpression, rest)
		}
		rest = rest[len(m[0]):]

		sign := 1
		if m[1] == "-" {
			sign = -1
		}

		if m[3] == "" {
			if m[1] == "" {
				return Expression{}, fmt.Errorf("%w: modifier %q needs a sign", ErrInvalidExpression, m[0])
			}
			n, err := strconv.Atoi(m[2])
			if err != nil {
				return Expression{}, fmt.Errorf("%w: modifier %q is too large", ErrInvalidExpression, m[0])
			}
			e.Modifiers = append(e.Modifiers, sign*n)
			continue
		}

		count, errCount := strconv.Atoi(m[2])
		faces, errFaces := strconv.Atoi(m[3])
		if errCount != nil || errFaces != nil || count < 1 || count > MaxRolls || faces < 1 || faces > MaxFaces {
			return Expression{}, fmt.Errorf("%w: %s outside 1-%d dice of 1-%d faces", ErrInvalidExpression, m[0], MaxRolls, MaxFaces)
		}
		e.Dice = append(e.Dice, Term{Count: count, Faces: faces, Sign: sign})
	}

	if len(e.Dice) == 0 {
		return Expression{}, fmt.Errorf("%w: %q rolls no dice", ErrInvalidExpression, s)
	}
	return e, nil
}

// SplitTarget separates "2d6+3 Goblin" into the expression and the target name
func SplitTarget(input string) (expr, target string) {
	expr, target, _ = strings.Cut(strings.TrimSpace(input), " ")
	return expr, strings.TrimSpace(target)
}

// TermResult holds the faces rolled for one term
type TermResult struct {
	Term    Term
	Results []int
}

// Sum is the signed contribution of the term
func (r TermResult) Sum() int {
	sum := 0
	for _, v := range r.Results {
		sum += v
	}
	return r.Term.Sign * sum
}

// Result is one throw of an expression
type Result struct {
	Expression Expression
	Terms      []TermResult
	Total      int
}

// Roll throws every die of e using intn, which returns a value in [0, n)
func (e Expression) Roll(intn func(n int) int) Result {
	r := Result{Expression: e, Terms: make([]TermResult, 0, len(e.Dice))}
	for _, t := range e.Dice {
		tr := TermResult{Term: t, Results: make([]int, t.Count)}
		for n := range tr.Results {
			tr.Results[n] = 1 + intn(t.Faces)
		}
		r.Terms = append(r.Terms, tr)
		r.Total += tr.Sum()
	}
	for _, m := range e.Modifiers {
		r.Total += m
	}
	return r
}

// Calculation spells the total out, e.g. "4 + 5 - 2 + 3"
func (r Result) Calculation() string {
	var parts []string
	for _, tr := range r.Terms {
		for _, v := range tr.Results {
			parts = append(parts, strconv.Itoa(tr.Term.Sign*v))
		}
	}
	for _, m := range r.Expression.Modifiers {
		parts = append(parts, strconv.Itoa(m))
	}
	return strings.ReplaceAll(strings.Join(parts, " + "), " + -", " - ")
}
