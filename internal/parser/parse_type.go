package parser

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/lexer"
	"github.com/adeptlang/go-adept/pkg/token"
)

// parseType parses an element-sequence type:
//
//	*Type, [N] Type, 10 Type, <T...> Name, $T, $#N Type, func(...) Ret, Name
func (p *Parser) parseType() (ast.Type, bool) {
	source := p.cur().Source

	var elements []ast.Elem

	for {
		switch p.cur().Kind {
		case token.MULTIPLY:
			p.next()
			elements = append(elements, &ast.PointerElem{})
			continue

		case token.GENERIC_INT:
			length := p.next()
			value, err := lexer.ParseIntLiteral(length.Literal)
			if err != nil || value < 0 {
				p.errorf(length.Source, "Invalid fixed array length '%s'", length.Literal)
				return ast.Type{}, false
			}
			elements = append(elements, &ast.FixedArrayElem{Length: uint64(value)})
			continue

		case token.OPEN_BRACKET:
			p.next()
			if p.accept(token.CLOSE_BRACKET) {
				elements = append(elements, &ast.ArrayElem{})
				continue
			}
			length, ok := p.parseExpr()
			if !ok {
				return ast.Type{}, false
			}
			if _, closeOK := p.expect(token.CLOSE_BRACKET); !closeOK {
				return ast.Type{}, false
			}
			if lit, isLit := length.(*ast.IntegerLit); isLit && lit.Value >= 0 {
				elements = append(elements, &ast.FixedArrayElem{Length: uint64(lit.Value)})
			} else {
				elements = append(elements, &ast.VarFixedArrayElem{Length: length})
			}
			continue

		case token.POLYCOUNT:
			name := p.next()
			elements = append(elements, &ast.PolyCountElem{Name: name.Literal})
			continue

		case token.POLYMORPH:
			name := p.next()
			// "$T~Similarity" carries a prerequisite
			if p.curIs(token.BIT_COMPLEMENT) {
				p.next()
				similarity, ok := p.expect(token.IDENT)
				if !ok {
					return ast.Type{}, false
				}
				prereq := &ast.PolymorphPrereqElem{Name: name.Literal, Similarity: similarity.Literal}
				if p.accept(token.EXTENDS) {
					extends, extendsOK := p.parseType()
					if !extendsOK {
						return ast.Type{}, false
					}
					prereq.Extends = extends
				}
				elements = append(elements, prereq)
			} else {
				elements = append(elements, &ast.PolymorphElem{Name: name.Literal})
			}
			return ast.Type{Elements: elements, Source: source}, true

		case token.LESS_THAN:
			generic, ok := p.parseGenericBase()
			if !ok {
				return ast.Type{}, false
			}
			elements = append(elements, generic)
			return ast.Type{Elements: elements, Source: source}, true

		case token.FUNC:
			funcElem, ok := p.parseFuncElem()
			if !ok {
				return ast.Type{}, false
			}
			elements = append(elements, funcElem)
			return ast.Type{Elements: elements, Source: source}, true

		case token.IDENT:
			name := p.next()
			elements = append(elements, &ast.BaseElem{Name: name.Literal})
			return ast.Type{Elements: elements, Source: source}, true
		}

		p.errorf(p.cur().Source, "Expected type, got '%s'", p.cur().Kind)
		return ast.Type{}, false
	}
}

// parseGenericBase parses "<T1, T2> Name".
func (p *Parser) parseGenericBase() (*ast.GenericBaseElem, bool) {
	p.next() // '<'

	var generics []ast.Type
	for {
		generic, ok := p.parseType()
		if !ok {
			return nil, false
		}
		generics = append(generics, generic)
		if !p.accept(token.COMMA) {
			break
		}
	}

	if _, ok := p.expect(token.GREATER_THAN); !ok {
		return nil, false
	}

	name, ok := p.expect(token.IDENT)
	if !ok {
		return nil, false
	}

	return &ast.GenericBaseElem{Name: name.Literal, Generics: generics}, true
}

// parseFuncElem parses "func(arg types) ReturnType".
func (p *Parser) parseFuncElem() (*ast.FuncElem, bool) {
	p.next() // func

	if _, ok := p.expect(token.OPEN_PAREN); !ok {
		return nil, false
	}

	elem := &ast.FuncElem{}

	for !p.curIs(token.CLOSE_PAREN) && !p.curIs(token.EOF) {
		if p.accept(token.ELLIPSIS) {
			elem.Traits |= ast.FuncElemVararg
			break
		}

		argType, ok := p.parseType()
		if !ok {
			return nil, false
		}
		elem.ArgTypes = append(elem.ArgTypes, argType)

		if !p.accept(token.COMMA) {
			break
		}
	}

	if _, ok := p.expect(token.CLOSE_PAREN); !ok {
		return nil, false
	}

	returnType, ok := p.parseType()
	if !ok {
		return nil, false
	}
	elem.ReturnType = returnType

	return elem, true
}

// typeStartsHere reports whether the current token can begin a type.
func (p *Parser) typeStartsHere() bool {
	switch p.cur().Kind {
	case token.IDENT, token.MULTIPLY, token.POLYMORPH, token.POLYCOUNT,
		token.LESS_THAN, token.OPEN_BRACKET, token.FUNC, token.GENERIC_INT:
		return true
	}
	return false
}
