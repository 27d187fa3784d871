// Package expr implements the sandboxed expression language used by custom
// command conditions and template if-blocks. The grammar is deliberately
// small: comparisons, and/or/not, basic arithmetic, string/number/bool
// literals and a read-only variable namespace supplied by the caller. There
// are no function calls, no attribute access and no way to reach host code;
// anything outside the grammar is a parse error and the caller treats a
// failed parse or evaluation as false.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Env supplies variable values during evaluation. Lookup returns the value
// for an identifier and whether it exists; supported value types are string,
// bool, int, int64 and float64.
type Env struct {
	Lookup func(name string) (any, bool)
}

// Program is a parsed expression, safe to evaluate concurrently.
type Program struct {
	root node
}

// Parse compiles src into a Program.
func Parse(src string) (*Program, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, fmt.Errorf("unexpected token %q", p.peek().text)
	}
	return &Program{root: root}, nil
}

// Eval runs the program and coerces the result to a boolean: booleans are
// taken as-is, numbers are true when non-zero, strings when non-empty.
func (p *Program) Eval(env Env) (bool, error) {
	v, err := p.root.eval(env)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// --- lexer ---

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp     // == != < <= > >= + - * /
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < len(src) && src[j] != quote {
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("unterminated string literal")
			}
			toks = append(toks, token{tokString, src[i+1 : j]})
			i = j + 1
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j]})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j]})
			i = j
		case strings.ContainsRune("=!<>+-*/", rune(c)):
			if i+1 < len(src) && src[i+1] == '=' && (c == '=' || c == '!' || c == '<' || c == '>') {
				toks = append(toks, token{tokOp, src[i : i+2]})
				i += 2
			} else if c == '=' {
				return nil, fmt.Errorf("single '=' is not a comparison")
			} else if c == '!' {
				return nil, fmt.Errorf("'!' is not an operator, use 'not'")
			} else {
				toks = append(toks, token{tokOp, string(c)})
				i++
			}
		default:
			// Dots, brackets, commas and everything else are outside the
			// grammar; attribute access and call syntax die here.
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// --- parser ---

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }
func (p *parser) next() token { t := p.toks[p.pos]; p.pos++; return t }
func (p *parser) eof() bool   { return p.peek().kind == tokEOF }

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && p.peek().text == "or" {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orNode{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && p.peek().text == "and" {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &andNode{left, right}
	}
	return left, nil
}

func (p *parser) parseNot() (node, error) {
	if p.peek().kind == tokIdent && p.peek().text == "not" {
		p.next()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notNode{inner}, nil
	}
	return p.parseCompare()
}

func (p *parser) parseCompare() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokOp {
		switch t.text {
		case "==", "!=", "<", "<=", ">", ">=":
			p.next()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return &compareNode{op: t.text, left: left, right: right}, nil
		}
	}
	return left, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "+" || p.peek().text == "-") {
		op := p.next().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &arithNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "*" || p.peek().text == "/") {
		op := p.next().text
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &arithNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", t.text)
		}
		return &literalNode{f}, nil
	case tokString:
		return &literalNode{t.text}, nil
	case tokIdent:
		switch t.text {
		case "true":
			return &literalNode{true}, nil
		case "false":
			return &literalNode{false}, nil
		case "and", "or", "not":
			return nil, fmt.Errorf("unexpected keyword %q", t.text)
		}
		// A parenthesis right after an identifier would be call syntax.
		if p.peek().kind == tokLParen {
			return nil, fmt.Errorf("function calls are not allowed")
		}
		return &varNode{name: t.text}, nil
	case tokOp:
		if t.text == "-" {
			inner, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			return &negNode{inner}, nil
		}
		return nil, fmt.Errorf("unexpected operator %q", t.text)
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.next()
		return inner, nil
	default:
		return nil, fmt.Errorf("unexpected end of expression")
	}
}

// --- AST ---

type node interface {
	eval(env Env) (any, error)
}

type literalNode struct{ value any }

func (n *literalNode) eval(Env) (any, error) { return n.value, nil }

type varNode struct{ name string }

func (n *varNode) eval(env Env) (any, error) {
	if env.Lookup == nil {
		return nil, fmt.Errorf("unknown variable %q", n.name)
	}
	v, ok := env.Lookup(n.name)
	if !ok {
		return nil, fmt.Errorf("unknown variable %q", n.name)
	}
	return normalize(v), nil
}

type andNode struct{ left, right node }

func (n *andNode) eval(env Env) (any, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return nil, err
	}
	if !truthy(l) {
		return false, nil
	}
	r, err := n.right.eval(env)
	if err != nil {
		return nil, err
	}
	return truthy(r), nil
}

type orNode struct{ left, right node }

func (n *orNode) eval(env Env) (any, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return nil, err
	}
	if truthy(l) {
		return true, nil
	}
	r, err := n.right.eval(env)
	if err != nil {
		return nil, err
	}
	return truthy(r), nil
}

type notNode struct{ inner node }

func (n *notNode) eval(env Env) (any, error) {
	v, err := n.inner.eval(env)
	if err != nil {
		return nil, err
	}
	return !truthy(v), nil
}

type negNode struct{ inner node }

func (n *negNode) eval(env Env) (any, error) {
	v, err := n.inner.eval(env)
	if err != nil {
		return nil, err
	}
	f, ok := toNumber(v)
	if !ok {
		return nil, fmt.Errorf("cannot negate %v", v)
	}
	return -f, nil
}

type compareNode struct {
	op          string
	left, right node
}

func (n *compareNode) eval(env Env) (any, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(env)
	if err != nil {
		return nil, err
	}

	// Numeric comparison when both sides are numbers or parse as numbers;
	// otherwise compare as strings. This lets a string-typed variable hold
	// "7" and still satisfy var_count > 5.
	lf, lok := toNumber(l)
	rf, rok := toNumber(r)
	if lok && rok {
		switch n.op {
		case "==":
			return lf == rf, nil
		case "!=":
			return lf != rf, nil
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		case ">":
			return lf > rf, nil
		case ">=":
			return lf >= rf, nil
		}
	}

	ls, rs := toString(l), toString(r)
	switch n.op {
	case "==":
		return ls == rs, nil
	case "!=":
		return ls != rs, nil
	case "<":
		return ls < rs, nil
	case "<=":
		return ls <= rs, nil
	case ">":
		return ls > rs, nil
	case ">=":
		return ls >= rs, nil
	}
	return nil, fmt.Errorf("unknown comparison %q", n.op)
}

type arithNode struct {
	op          string
	left, right node
}

func (n *arithNode) eval(env Env) (any, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(env)
	if err != nil {
		return nil, err
	}
	lf, lok := toNumber(l)
	rf, rok := toNumber(r)
	if !lok || !rok {
		return nil, fmt.Errorf("arithmetic on non-numeric value")
	}
	switch n.op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return lf / rf, nil
	}
	return nil, fmt.Errorf("unknown operator %q", n.op)
}

// --- value helpers ---

func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float64, string, bool:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return false
	}
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
