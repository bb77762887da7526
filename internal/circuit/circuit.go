// Package circuit parses the textual circuit description code used to
// define analytic models for simulation. Square brackets group elements in
// series, parentheses in parallel, and an element may carry a parameter
// block such as R{R=50} or Q{Y=1e-5,n=0.8f} where a trailing f marks the
// parameter as fixed. Numerical evaluation of the model is out of scope;
// the parser only validates and normalizes descriptions.
package circuit

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Parameter is one named element parameter from a parameter block.
type Parameter struct {
	Name  string
	Value float64
	Fixed bool
}

// Element is a single circuit element with optional explicit parameters.
type Element struct {
	Symbol     string
	Parameters []Parameter
}

// Group is a series or parallel connection of elements and nested groups.
type Group struct {
	Parallel bool
	Children []Node
}

// Node is either an *Element or a *Group.
type Node interface {
	cdc(sb *strings.Builder)
}

// validElements maps element symbols to their canonical parameter names.
var validElements = map[string][]string{
	"R": {"R"},
	"C": {"C"},
	"L": {"L"},
	"W": {"Y"},
	"Q": {"Y", "n"},
	"O": {"Y", "B"},
	"T": {"Y", "B"},
	"G": {"Y", "k"},
}

func (e *Element) cdc(sb *strings.Builder) {
	sb.WriteString(e.Symbol)
	if len(e.Parameters) == 0 {
		return
	}
	sb.WriteByte('{')
	for i, p := range e.Parameters {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		sb.WriteString(strconv.FormatFloat(p.Value, 'g', -1, 64))
		if p.Fixed {
			sb.WriteByte('f')
		}
	}
	sb.WriteByte('}')
}

func (g *Group) cdc(sb *strings.Builder) {
	opener, closer := byte('['), byte(']')
	if g.Parallel {
		opener, closer = '(', ')'
	}
	sb.WriteByte(opener)
	for _, child := range g.Children {
		child.cdc(sb)
	}
	sb.WriteByte(closer)
}

// CDC returns the normalized textual form of the circuit.
func (g *Group) CDC() string {
	var sb strings.Builder
	g.cdc(&sb)
	return sb.String()
}

type parser struct {
	input string
	pos   int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("circuit description, offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

// Parse validates a circuit description and returns the parsed tree. The
// top level is an implicit series group, so "R(RC)" and "[R(RC)]" are the
// same circuit.
func Parse(description string) (*Group, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, description)
	if cleaned == "" {
		return nil, fmt.Errorf("empty circuit description")
	}
	p := &parser{input: cleaned}
	explicit := cleaned[0] == '['
	if explicit {
		p.pos++
	}
	root := &Group{}
	if err := p.parseChildren(root, explicit); err != nil {
		return nil, err
	}
	if p.pos != len(p.input) {
		return nil, p.errorf("unexpected %q", p.input[p.pos])
	}
	if len(root.Children) == 0 {
		return nil, fmt.Errorf("circuit description contains no elements")
	}
	return root, nil
}

// parseChildren consumes nodes until the group terminator (or end of input
// for the implicit top-level series group).
func (p *parser) parseChildren(g *Group, explicit bool) error {
	terminator := byte(']')
	if g.Parallel {
		terminator = ')'
	}
	for {
		c, ok := p.peek()
		if !ok {
			if explicit || g.Parallel {
				return p.errorf("unterminated group, expected %q", terminator)
			}
			return nil
		}
		switch {
		case c == terminator:
			if !explicit && !g.Parallel {
				return p.errorf("unexpected %q", c)
			}
			p.pos++
			return nil
		case c == '(':
			p.pos++
			child := &Group{Parallel: true}
			if err := p.parseChildren(child, true); err != nil {
				return err
			}
			if len(child.Children) < 2 {
				return p.errorf("parallel group needs at least two branches")
			}
			g.Children = append(g.Children, child)
		case c == '[':
			p.pos++
			child := &Group{}
			if err := p.parseChildren(child, true); err != nil {
				return err
			}
			if len(child.Children) == 0 {
				return p.errorf("empty series group")
			}
			g.Children = append(g.Children, child)
		case c == ')' || c == ']':
			return p.errorf("unexpected %q", c)
		default:
			element, err := p.parseElement()
			if err != nil {
				return err
			}
			g.Children = append(g.Children, element)
		}
	}
}

func (p *parser) parseElement() (*Element, error) {
	c, _ := p.peek()
	symbol := string(c)
	canonical, ok := validElements[symbol]
	if !ok {
		return nil, p.errorf("unknown element %q", symbol)
	}
	p.pos++
	e := &Element{Symbol: symbol}
	if next, ok := p.peek(); !ok || next != '{' {
		return e, nil
	}
	p.pos++ // consume '{'
	end := strings.IndexByte(p.input[p.pos:], '}')
	if end < 0 {
		return nil, p.errorf("unterminated parameter block for %s", symbol)
	}
	block := p.input[p.pos : p.pos+end]
	p.pos += end + 1
	if block == "" {
		return e, nil
	}
	seen := map[string]bool{}
	for _, pair := range strings.Split(block, ",") {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, p.errorf("parameter %q is not name=value", pair)
		}
		if !allowedParameter(canonical, name) {
			return nil, p.errorf("element %s has no parameter %q", symbol, name)
		}
		if seen[name] {
			return nil, p.errorf("duplicate parameter %q", name)
		}
		seen[name] = true
		fixed := strings.HasSuffix(value, "f")
		if fixed {
			value = strings.TrimSuffix(value, "f")
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, p.errorf("parameter %s: %v", name, err)
		}
		e.Parameters = append(e.Parameters, Parameter{Name: name, Value: v, Fixed: fixed})
	}
	sort.Slice(e.Parameters, func(i, j int) bool { return e.Parameters[i].Name < e.Parameters[j].Name })
	return e, nil
}

func allowedParameter(canonical []string, name string) bool {
	for _, c := range canonical {
		if c == name {
			return true
		}
	}
	return false
}

// Normalize parses a description and returns its canonical textual form.
func Normalize(description string) (string, error) {
	g, err := Parse(description)
	if err != nil {
		return "", err
	}
	return g.CDC(), nil
}
