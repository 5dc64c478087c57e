package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ---------------------------------------------------------------------------
// Transform filters
//
// Filters are small boolean expressions evaluated against a transformed
// record to admit or reject it, e.g.
//
//	status == 'active' and balance/amount > 0
//	country == 'US' or country == 'CA'
//
// The language is deliberately tiny: comparisons (==, !=, <, <=, >, >=,
// contains), and/or, not, parentheses, "/"-delimited field paths and
// string/number/bool/null literals. Any parse or evaluation error makes
// the filter not match - filter evaluation must never abort a sync.
// ---------------------------------------------------------------------------

var errNotComparable = errors.New("mapping: values are not comparable")

// Filter is a parsed admit/reject expression
type Filter struct {
	raw  string
	expr filterNode
}

// ParseFilter parses the expression. Callers that need to report bad
// expressions up front use this; the sync path uses Matches which folds
// parse errors into "does not match".
func ParseFilter(expr string) (*Filter, error) {
	p := &filterParser{tokens: tokenizeFilter(expr)}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("mapping: unexpected token %q", p.peek().text)
	}
	return &Filter{raw: expr, expr: node}, nil
}

// String returns the original expression text
func (f *Filter) String() string { return f.raw }

// Matches evaluates the filter against the record. Evaluation errors
// (missing fields, incomparable types) yield false, never an error.
func (f *Filter) Matches(record map[string]any) bool {
	v, err := f.expr.eval(record)
	if err != nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// Matches parses and evaluates expr in one step; parse errors yield false
func Matches(expr string, record map[string]any) bool {
	f, err := ParseFilter(expr)
	if err != nil {
		return false
	}
	return f.Matches(record)
}

// ---------------------------------------------------------------------------
// Tokenizer
// ---------------------------------------------------------------------------

type filterTokenKind int

const (
	tokIdent filterTokenKind = iota
	tokString
	tokNumber
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type filterToken struct {
	kind filterTokenKind
	text string
}

func tokenizeFilter(expr string) []filterToken {
	var tokens []filterToken
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, filterToken{tokLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, filterToken{tokRParen, ")"})
			i++
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < len(expr) && expr[j] != quote {
				j++
			}
			if j >= len(expr) {
				// Unterminated string: emit what we have, parser will choke
				tokens = append(tokens, filterToken{tokString, expr[i+1:]})
				i = len(expr)
			} else {
				tokens = append(tokens, filterToken{tokString, expr[i+1 : j]})
				i = j + 1
			}
		case strings.HasPrefix(expr[i:], "=="), strings.HasPrefix(expr[i:], "!="),
			strings.HasPrefix(expr[i:], "<="), strings.HasPrefix(expr[i:], ">="):
			tokens = append(tokens, filterToken{tokOp, expr[i : i+2]})
			i += 2
		case c == '<' || c == '>':
			tokens = append(tokens, filterToken{tokOp, string(c)})
			i++
		case c == '-' || unicode.IsDigit(rune(c)):
			j := i + 1
			for j < len(expr) && (unicode.IsDigit(rune(expr[j])) || expr[j] == '.') {
				j++
			}
			tokens = append(tokens, filterToken{tokNumber, expr[i:j]})
			i = j
		default:
			j := i
			for j < len(expr) && isFilterIdentChar(expr[j]) {
				j++
			}
			if j == i {
				// Unknown character: emit as an operator token so parsing fails
				tokens = append(tokens, filterToken{tokOp, string(c)})
				i++
			} else {
				tokens = append(tokens, filterToken{tokIdent, expr[i:j]})
				i = j
			}
		}
	}
	tokens = append(tokens, filterToken{tokEOF, ""})
	return tokens
}

func isFilterIdentChar(c byte) bool {
	return c == '_' || c == '/' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

type filterParser struct {
	tokens []filterToken
	pos    int
}

func (p *filterParser) peek() filterToken { return p.tokens[p.pos] }

func (p *filterParser) next() filterToken {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *filterParser) atEnd() bool { return p.peek().kind == tokEOF }

func (p *filterParser) parseOr() (filterNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && strings.EqualFold(p.peek().text, "or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *filterParser) parseAnd() (filterNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && strings.EqualFold(p.peek().text, "and") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *filterParser) parseUnary() (filterNode, error) {
	if p.peek().kind == tokIdent && strings.EqualFold(p.peek().text, "not") {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notNode{inner: inner}, nil
	}
	return p.parseComparison()
}

func (p *filterParser) parseComparison() (filterNode, error) {
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, errors.New("mapping: missing closing parenthesis")
		}
		p.next()
		return inner, nil
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	isCmp := t.kind == tokOp ||
		(t.kind == tokIdent && strings.EqualFold(t.text, "contains"))
	if !isCmp {
		return left, nil
	}
	op := strings.ToLower(p.next().text)

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &binaryNode{op: op, left: left, right: right}, nil
}

func (p *filterParser) parseOperand() (filterNode, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return &literalNode{value: t.text}, nil
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("mapping: bad number %q", t.text)
		}
		return &literalNode{value: f}, nil
	case tokIdent:
		switch strings.ToLower(t.text) {
		case "true":
			return &literalNode{value: true}, nil
		case "false":
			return &literalNode{value: false}, nil
		case "null", "nil":
			return &literalNode{value: nil}, nil
		default:
			return &fieldNode{path: t.text}, nil
		}
	default:
		return nil, fmt.Errorf("mapping: unexpected token %q", t.text)
	}
}

// ---------------------------------------------------------------------------
// Evaluation
// ---------------------------------------------------------------------------

type filterNode interface {
	eval(record map[string]any) (any, error)
}

type literalNode struct {
	value any
}

func (n *literalNode) eval(map[string]any) (any, error) { return n.value, nil }

type fieldNode struct {
	path string
}

func (n *fieldNode) eval(record map[string]any) (any, error) {
	var cur any = record
	for _, seg := range strings.Split(n.path, "/") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("mapping: field %q not found", n.path)
		}
		cur, ok = m[seg]
		if !ok {
			return nil, fmt.Errorf("mapping: field %q not found", n.path)
		}
	}
	return cur, nil
}

type notNode struct {
	inner filterNode
}

func (n *notNode) eval(record map[string]any) (any, error) {
	v, err := n.inner.eval(record)
	if err != nil {
		return nil, err
	}
	b, ok := v.(bool)
	if !ok {
		return nil, errNotComparable
	}
	return !b, nil
}

type binaryNode struct {
	op    string
	left  filterNode
	right filterNode
}

func (n *binaryNode) eval(record map[string]any) (any, error) {
	switch n.op {
	case "and", "or":
		lv, err := n.left.eval(record)
		if err != nil {
			return nil, err
		}
		lb, ok := lv.(bool)
		if !ok {
			return nil, errNotComparable
		}
		if n.op == "and" && !lb {
			return false, nil
		}
		if n.op == "or" && lb {
			return true, nil
		}
		rv, err := n.right.eval(record)
		if err != nil {
			return nil, err
		}
		rb, ok := rv.(bool)
		if !ok {
			return nil, errNotComparable
		}
		return rb, nil
	}

	lv, err := n.left.eval(record)
	if err != nil {
		return nil, err
	}
	rv, err := n.right.eval(record)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		return looseEqual(lv, rv), nil
	case "!=":
		return !looseEqual(lv, rv), nil
	case "<", "<=", ">", ">=":
		return compareOrdered(n.op, lv, rv)
	case "contains":
		return evalContains(lv, rv)
	default:
		return nil, fmt.Errorf("mapping: unknown operator %q", n.op)
	}
}

// looseEqual compares with numeric widening so that a json.Number field
// equals a numeric literal
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}
	return a == b
}

func compareOrdered(op string, a, b any) (bool, error) {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		switch op {
		case "<":
			return fa < fb, nil
		case "<=":
			return fa <= fb, nil
		case ">":
			return fa > fb, nil
		case ">=":
			return fa >= fb, nil
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch op {
		case "<":
			return as < bs, nil
		case "<=":
			return as <= bs, nil
		case ">":
			return as > bs, nil
		case ">=":
			return as >= bs, nil
		}
	}
	return false, errNotComparable
}

func evalContains(haystack, needle any) (bool, error) {
	switch h := haystack.(type) {
	case string:
		s, ok := needle.(string)
		if !ok {
			s = fmt.Sprintf("%v", needle)
		}
		return strings.Contains(h, s), nil
	case []any:
		for _, item := range h {
			if looseEqual(item, needle) {
				return true, nil
			}
		}
		return false, nil
	case json.Number:
		return strings.Contains(h.String(), fmt.Sprintf("%v", needle)), nil
	default:
		return false, errNotComparable
	}
}
