// Package parser assembles a token stream into a root S-expression of
// value.Value cells (spec.md §4.4). Reserved type names, numeric
// literals, and the k:v splice all resolve here; the lexer only cuts
// source text into lexemes.
package parser

import (
	"strconv"
	"strings"

	"benzl/internal/errors"
	"benzl/internal/lexer"
	"benzl/internal/value"
)

// reservedTypeNames maps the exact reserved identifiers to their
// primitive Tag, in the order spec.md §4.4 lists them.
var reservedTypeNames = map[string]value.Tag{
	"Integer":            value.TagInt,
	"Float":              value.TagFloat,
	"Byte":               value.TagByte,
	"Symbol":             value.TagSymbol,
	"String":             value.TagString,
	"Buffer":             value.TagBuffer,
	"Dictionary":         value.TagDict,
	"Function":           value.TagFunction,
	"S-Expression":       value.TagSExpr,
	"List":               value.TagQExpr,
	"UnhandledError":     value.TagUnhandledError,
	"Error":              value.TagError,
	"Type":               value.TagTypeRef,
	"CustomTypeInstance": value.TagRecordInstance,
	"KeyValuePair":       value.TagKVPair,
}

// Parser turns a Token slice into a tree of value.Value cells.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// Parse lexes and parses src in one call, returning the root SExpr of
// top-level forms or the first syntax error encountered.
func Parse(src, source string) (*value.Value, *errors.Error) {
	sc := lexer.NewScanner(src, source)
	tokens := sc.ScanTokens()
	if len(sc.Errors) > 0 {
		return nil, sc.Errors[0]
	}
	p := &Parser{tokens: tokens}
	rootPos := errors.Position{Row: 1, Col: 1, Source: source}
	if len(tokens) > 0 {
		rootPos = tokens[0].Pos
	}
	items, err := p.parseUntil(lexer.TokenEOF)
	if err != nil {
		return nil, err
	}
	root := value.NewSExpr(items)
	root.Pos = rootPos
	return root, nil
}

func (p *Parser) peek() lexer.Token { return p.tokens[p.pos] }

func (p *Parser) advance() lexer.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

// parseUntil reads forms until a token of type end is the next token
// (end is not consumed) or TokenEOF is reached without finding it.
func (p *Parser) parseUntil(end lexer.TokenType) ([]*value.Value, *errors.Error) {
	var items []*value.Value
	for {
		tok := p.peek()
		if tok.Type == end {
			return items, nil
		}
		if tok.Type == lexer.TokenEOF {
			if end == lexer.TokenEOF {
				return items, nil
			}
			return nil, errors.New(errors.SyntaxError, tok.Pos, "missing closing %q", end.String())
		}
		v, err := p.parseOne()
		if err != nil {
			return nil, err
		}
		// A ':' immediately following a just-parsed Symbol groups the
		// single next value into a KVPair (spec.md §4.4); any other
		// appearance of ':' reaches parseOne, which rejects it as a
		// syntax error.
		if v.Tag == value.TagSymbol && p.peek().Type == lexer.TokenColon {
			colonPos := p.peek().Pos
			p.advance()
			if p.peek().Type == lexer.TokenEOF || p.peek().Type == end {
				return nil, errors.New(errors.SyntaxError, colonPos, "expected a value after ':'")
			}
			val, err := p.parseOne()
			if err != nil {
				return nil, err
			}
			kv := value.NewKVPair(&value.KVPair{Key: v.Sym, Val: val})
			kv.Pos = v.Pos
			items = append(items, kv)
			continue
		}
		items = append(items, v)
	}
}

func (p *Parser) parseOne() (*value.Value, *errors.Error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenLParen:
		p.advance()
		children, err := p.parseUntil(lexer.TokenRParen)
		if err != nil {
			return nil, err
		}
		if p.peek().Type != lexer.TokenRParen {
			return nil, errors.New(errors.SyntaxError, tok.Pos, "missing closing ')'")
		}
		p.advance()
		v := value.NewSExpr(children)
		v.Pos = tok.Pos
		return v, nil
	case lexer.TokenLBrace:
		p.advance()
		children, err := p.parseUntil(lexer.TokenRBrace)
		if err != nil {
			return nil, err
		}
		if p.peek().Type != lexer.TokenRBrace {
			return nil, errors.New(errors.SyntaxError, tok.Pos, "missing closing '}'")
		}
		p.advance()
		v := value.NewQExpr(children)
		v.Pos = tok.Pos
		return v, nil
	case lexer.TokenRParen, lexer.TokenRBrace:
		return nil, errors.New(errors.SyntaxError, tok.Pos, "unexpected %q", tok.Lexeme)
	case lexer.TokenColon:
		return nil, errors.New(errors.SyntaxError, tok.Pos, "':' must follow a symbol")
	case lexer.TokenString:
		p.advance()
		v := value.NewString(tok.Lexeme)
		v.Pos = tok.Pos
		return v, nil
	case lexer.TokenSymbol:
		p.advance()
		return p.resolveSymbolLike(tok), nil
	}
	return nil, errors.New(errors.SyntaxError, tok.Pos, "unexpected end of input")
}

// resolveSymbolLike interprets a bare symbol-charset lexeme as a hex
// literal, a signed decimal integer, a decimal float, a reserved type
// name, or (falling through all of those) a plain Symbol, in that
// priority order (spec.md §4.4).
func (p *Parser) resolveSymbolLike(tok lexer.Token) *value.Value {
	text := tok.Lexeme

	if v, ok := parseHex(text); ok {
		v.Pos = tok.Pos
		return v
	}
	if i, ok := parseDecimalInt(text); ok {
		v := value.NewInt(i)
		v.Pos = tok.Pos
		return v
	}
	if strings.Contains(text, ".") {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			v := value.NewFloat(f)
			v.Pos = tok.Pos
			return v
		}
	}
	if tag, ok := reservedTypeNames[text]; ok {
		v := value.PrimitiveTypeRef(tag)
		v.Pos = tok.Pos
		return v
	}
	v := value.NewSymbolValue(text)
	v.Pos = tok.Pos
	return v
}

func parseHex(text string) (*value.Value, bool) {
	if len(text) < 3 || text[0] != '0' || (text[1] != 'x' && text[1] != 'X') {
		return nil, false
	}
	digits := text[2:]
	if digits == "" {
		return nil, false
	}
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return nil, false
		}
	}
	n, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return nil, false
	}
	if n < 256 {
		return value.NewByte(byte(n)), true
	}
	return value.NewInt(int64(n)), true
}

func parseDecimalInt(text string) (int64, bool) {
	s := text
	if s == "" {
		return 0, false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i = 1
	}
	if i == len(s) {
		return 0, false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
