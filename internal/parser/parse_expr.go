package parser

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/lexer"
	"github.com/adeptlang/go-adept/pkg/token"
)

// Precedence levels, lowest binds loosest.
const (
	precLowest = iota
	precTernary
	precOr
	precAnd
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdditive
	precMultiplicative
)

var binaryPrecedence = map[token.Kind]int{
	token.UBEROR:          precOr,
	token.OR:              precOr,
	token.UBERAND:         precAnd,
	token.AND:             precAnd,
	token.EQUALS:          precCompare,
	token.NOT_EQUALS:      precCompare,
	token.LESS_THAN:       precCompare,
	token.GREATER_THAN:    precCompare,
	token.LESS_THAN_EQ:    precCompare,
	token.GREATER_THAN_EQ: precCompare,
	token.BIT_OR:          precBitOr,
	token.BIT_XOR:         precBitXor,
	token.ADDRESS:         precBitAnd,
	token.BIT_LSHIFT:      precShift,
	token.BIT_RSHIFT:      precShift,
	token.ADD:             precAdditive,
	token.SUBTRACT:        precAdditive,
	token.MULTIPLY:        precMultiplicative,
	token.DIVIDE:          precMultiplicative,
	token.MODULUS:         precMultiplicative,
}

var binaryOperators = map[token.Kind]ast.BinaryOp{
	token.UBEROR:          ast.BinaryOr,
	token.OR:              ast.BinaryOr,
	token.UBERAND:         ast.BinaryAnd,
	token.AND:             ast.BinaryAnd,
	token.EQUALS:          ast.BinaryEquals,
	token.NOT_EQUALS:      ast.BinaryNotEquals,
	token.LESS_THAN:       ast.BinaryLessThan,
	token.GREATER_THAN:    ast.BinaryGreaterThan,
	token.LESS_THAN_EQ:    ast.BinaryLessThanEq,
	token.GREATER_THAN_EQ: ast.BinaryGreaterThanEq,
	token.BIT_OR:          ast.BinaryBitOr,
	token.BIT_XOR:         ast.BinaryBitXor,
	token.ADDRESS:         ast.BinaryBitAnd,
	token.BIT_LSHIFT:      ast.BinaryLShift,
	token.BIT_RSHIFT:      ast.BinaryRShift,
	token.ADD:             ast.BinaryAdd,
	token.SUBTRACT:        ast.BinarySubtract,
	token.MULTIPLY:        ast.BinaryMultiply,
	token.DIVIDE:          ast.BinaryDivide,
	token.MODULUS:         ast.BinaryModulus,
}

// exprStartsHere reports whether the current token can begin an expression.
func (p *Parser) exprStartsHere() bool {
	switch p.cur().Kind {
	case token.GENERIC_INT, token.GENERIC_FLOAT, token.BYTE, token.UBYTE,
		token.SHORT, token.USHORT, token.INT, token.UINT, token.LONG,
		token.ULONG, token.USIZE, token.FLOAT, token.DOUBLE,
		token.STRING, token.CSTRING, token.TRUE, token.FALSE, token.NULL,
		token.IDENT, token.OPEN_PAREN, token.SUBTRACT, token.NOT,
		token.BIT_COMPLEMENT, token.MULTIPLY, token.ADDRESS, token.NEW,
		token.CAST, token.SIZEOF, token.ALIGNOF, token.TYPEINFO,
		token.TYPENAMEOF, token.VA_ARG, token.FUNC, token.NAMESPACE_OP,
		token.POLYCOUNT, token.OPEN_BRACE, token.EMBED:
		return true
	}
	return false
}

func (p *Parser) parseExpr() (ast.Expr, bool) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (ast.Expr, bool) {
	condition, ok := p.parseBinary(precLowest)
	if !ok {
		return nil, false
	}

	if !p.curIs(token.TERNARY) {
		return condition, true
	}

	source := p.next().Source

	ifTrue, ok := p.parseExpr()
	if !ok {
		return nil, false
	}

	if _, colonOK := p.expect(token.COLON); !colonOK {
		return nil, false
	}

	ifFalse, ok := p.parseExpr()
	if !ok {
		return nil, false
	}

	return &ast.TernaryExpr{Condition: condition, IfTrue: ifTrue, IfFalse: ifFalse, Source: source}, true
}

func (p *Parser) parseBinary(minPrecedence int) (ast.Expr, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return nil, false
	}

	for {
		precedence, isBinary := binaryPrecedence[p.cur().Kind]
		if !isBinary || precedence <= minPrecedence {
			return left, true
		}

		operator := binaryOperators[p.cur().Kind]
		source := p.next().Source

		right, rightOK := p.parseBinary(precedence)
		if !rightOK {
			return nil, false
		}

		left = &ast.BinaryExpr{Op: operator, Left: left, Right: right, Source: source}
	}
}

func (p *Parser) parseUnary() (ast.Expr, bool) {
	source := p.cur().Source

	switch p.cur().Kind {
	case token.SUBTRACT:
		p.next()
		value, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		// Fold negation into numeric literals
		switch lit := value.(type) {
		case *ast.IntegerLit:
			lit.Value = -lit.Value
			return lit, true
		case *ast.FloatLit:
			lit.Value = -lit.Value
			return lit, true
		}
		return &ast.UnaryExpr{Op: ast.UnaryNegate, Value: value, Source: source}, true

	case token.NOT:
		p.next()
		value, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &ast.UnaryExpr{Op: ast.UnaryNot, Value: value, Source: source}, true

	case token.BIT_COMPLEMENT:
		p.next()
		value, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &ast.UnaryExpr{Op: ast.UnaryBitComplement, Value: value, Source: source}, true

	case token.MULTIPLY:
		p.next()
		value, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &ast.UnaryExpr{Op: ast.UnaryDereference, Value: value, Source: source}, true

	case token.ADDRESS:
		p.next()
		value, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &ast.UnaryExpr{Op: ast.UnaryAddressOf, Value: value, Source: source}, true

	case token.NEW:
		return p.parseNew()

	case token.CAST:
		p.next()
		to, ok := p.parseType()
		if !ok {
			return nil, false
		}
		from, fromOK := p.parseUnary()
		if !fromOK {
			return nil, false
		}
		return &ast.CastExpr{To: to, From: from, Source: source}, true

	case token.SIZEOF:
		p.next()
		t, ok := p.parseType()
		if !ok {
			return nil, false
		}
		return &ast.SizeofExpr{Type: t, Source: source}, true

	case token.ALIGNOF:
		p.next()
		t, ok := p.parseType()
		if !ok {
			return nil, false
		}
		return &ast.AlignofExpr{Type: t, Source: source}, true

	case token.TYPEINFO:
		p.next()
		t, ok := p.parseType()
		if !ok {
			return nil, false
		}
		return &ast.TypeinfoExpr{Type: t, Source: source}, true

	case token.TYPENAMEOF:
		p.next()
		t, ok := p.parseType()
		if !ok {
			return nil, false
		}
		return &ast.TypenameofExpr{Type: t, Source: source}, true

	case token.VA_ARG:
		p.next()
		if _, ok := p.expect(token.OPEN_PAREN); !ok {
			return nil, false
		}
		list, listOK := p.parseExpr()
		if !listOK {
			return nil, false
		}
		if _, ok := p.expect(token.COMMA); !ok {
			return nil, false
		}
		t, typeOK := p.parseType()
		if !typeOK {
			return nil, false
		}
		if _, ok := p.expect(token.CLOSE_PAREN); !ok {
			return nil, false
		}
		return &ast.VaArgExpr{List: list, Type: t, Source: source}, true

	case token.FUNC:
		// "func &name" takes a function address
		p.next()
		if _, ok := p.expect(token.ADDRESS); !ok {
			return nil, false
		}
		name, nameOK := p.expect(token.IDENT)
		if !nameOK {
			return nil, false
		}
		return &ast.FuncAddrExpr{Name: name.Literal, Source: source}, true
	}

	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, bool) {
	expr, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}

	for {
		switch p.cur().Kind {
		case token.DOT:
			p.next()
			member, memberOK := p.expect(token.IDENT)
			if !memberOK {
				return nil, false
			}

			if p.curIs(token.OPEN_PAREN) {
				args, argsOK := p.parseCallArgs()
				if !argsOK {
					return nil, false
				}
				expr = &ast.MethodCallExpr{
					Subject: expr,
					Name:    member.Literal,
					Args:    args,
					Source:  member.Source,
				}
			} else {
				expr = &ast.MemberExpr{Subject: expr, Member: member.Literal, Source: member.Source}
			}

		case token.OPEN_BRACKET:
			source := p.next().Source
			index, indexOK := p.parseExpr()
			if !indexOK {
				return nil, false
			}
			if _, closeOK := p.expect(token.CLOSE_BRACKET); !closeOK {
				return nil, false
			}
			expr = &ast.ArrayAccessExpr{Subject: expr, Index: index, Source: source}

		default:
			return expr, true
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, bool) {
	t := p.cur()

	switch t.Kind {
	case token.GENERIC_INT:
		p.next()
		value, err := lexer.ParseIntLiteral(t.Literal)
		if err != nil {
			p.errorf(t.Source, "Invalid integer literal '%s'", t.Literal)
			return nil, false
		}
		return &ast.IntegerLit{Value: value, Source: t.Source}, true

	case token.GENERIC_FLOAT:
		p.next()
		value, err := lexer.ParseFloatLiteral(t.Literal)
		if err != nil {
			p.errorf(t.Source, "Invalid float literal '%s'", t.Literal)
			return nil, false
		}
		return &ast.FloatLit{Value: value, Source: t.Source}, true

	case token.BYTE, token.UBYTE, token.SHORT, token.USHORT, token.INT,
		token.UINT, token.LONG, token.ULONG, token.USIZE:
		p.next()
		value, err := lexer.ParseIntLiteral(t.Literal)
		if err != nil {
			p.errorf(t.Source, "Invalid integer literal '%s'", t.Literal)
			return nil, false
		}
		return &ast.TypedIntegerLit{TypeName: typedLiteralName(t.Kind), Value: value, Source: t.Source}, true

	case token.FLOAT, token.DOUBLE:
		p.next()
		value, err := lexer.ParseFloatLiteral(t.Literal)
		if err != nil {
			p.errorf(t.Source, "Invalid float literal '%s'", t.Literal)
			return nil, false
		}
		return &ast.TypedFloatLit{TypeName: typedLiteralName(t.Kind), Value: value, Source: t.Source}, true

	case token.STRING:
		p.next()
		return &ast.StringLit{Value: t.Literal, Source: t.Source}, true

	case token.CSTRING:
		p.next()
		return &ast.CStringLit{Value: t.Literal, Source: t.Source}, true

	case token.TRUE:
		p.next()
		return &ast.BoolLit{Value: true, Source: t.Source}, true

	case token.FALSE:
		p.next()
		return &ast.BoolLit{Value: false, Source: t.Source}, true

	case token.NULL:
		p.next()
		return &ast.NullLit{Source: t.Source}, true

	case token.POLYCOUNT:
		p.next()
		return &ast.PolyCountExpr{Name: t.Literal, Source: t.Source}, true

	case token.NAMESPACE_OP:
		// "::VALUE" with the enum kind inferred later
		p.next()
		member, ok := p.expect(token.IDENT)
		if !ok {
			return nil, false
		}
		return &ast.EnumValueExpr{Value: member.Literal, Source: t.Source}, true

	case token.EMBED:
		p.next()
		filename, ok := p.expectStringish()
		if !ok {
			return nil, false
		}
		return &ast.EmbedExpr{Filename: filename, Source: t.Source}, true

	case token.OPEN_PAREN:
		p.next()
		inner, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if _, closeOK := p.expect(token.CLOSE_PAREN); !closeOK {
			return nil, false
		}
		return inner, true

	case token.OPEN_BRACE:
		// Initializer list
		p.next()
		var values []ast.Expr
		for !p.curIs(token.CLOSE_BRACE) && !p.curIs(token.EOF) {
			value, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			values = append(values, value)
			if !p.accept(token.COMMA) {
				break
			}
		}
		if _, closeOK := p.expect(token.CLOSE_BRACE); !closeOK {
			return nil, false
		}
		return &ast.InitializerListExpr{Values: values, Source: t.Source}, true

	case token.IDENT:
		// A call's '(' must follow the name on the same line; peek sees
		// the raw next token, newline included
		isCall := p.peek().Kind == token.OPEN_PAREN
		p.next()

		// "Enum::MEMBER"
		if p.curIs(token.NAMESPACE_OP) {
			p.next()
			member, ok := p.expect(token.IDENT)
			if !ok {
				return nil, false
			}
			return &ast.EnumValueExpr{EnumName: t.Literal, Value: member.Literal, Source: t.Source}, true
		}

		if isCall {
			args, ok := p.parseCallArgs()
			if !ok {
				return nil, false
			}
			return &ast.CallExpr{Name: t.Literal, Args: args, Source: t.Source}, true
		}

		return &ast.VariableExpr{Name: t.Literal, Source: t.Source}, true
	}

	p.errorf(t.Source, "Expected expression, got '%s'", t.Kind)
	return nil, false
}

func (p *Parser) parseCallArgs() ([]ast.Expr, bool) {
	if _, ok := p.expect(token.OPEN_PAREN); !ok {
		return nil, false
	}

	var args []ast.Expr
	for !p.curIs(token.CLOSE_PAREN) && !p.curIs(token.EOF) {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		if !p.accept(token.COMMA) {
			break
		}
	}

	if _, ok := p.expect(token.CLOSE_PAREN); !ok {
		return nil, false
	}

	return args, true
}

func (p *Parser) parseNew() (ast.Expr, bool) {
	source := p.next().Source // new

	if p.curIs(token.CSTRING) {
		value := p.next()
		return &ast.NewCstringExpr{Value: value.Literal, Source: source}, true
	}

	isUndef := false
	if p.curIs(token.IDENT) && p.cur().Literal == "undef" {
		p.next()
		isUndef = true
	}

	t, ok := p.parseType()
	if !ok {
		return nil, false
	}

	expr := &ast.NewExpr{Type: t, IsUndef: isUndef, Source: source}

	if p.accept(token.MULTIPLY) {
		count, countOK := p.parseUnary()
		if !countOK {
			return nil, false
		}
		expr.Count = count
	}

	return expr, true
}

func typedLiteralName(kind token.Kind) string {
	switch kind {
	case token.BYTE:
		return "byte"
	case token.UBYTE:
		return "ubyte"
	case token.SHORT:
		return "short"
	case token.USHORT:
		return "ushort"
	case token.INT:
		return "int"
	case token.UINT:
		return "uint"
	case token.LONG:
		return "long"
	case token.ULONG:
		return "ulong"
	case token.USIZE:
		return "usize"
	case token.FLOAT:
		return "float"
	case token.DOUBLE:
		return "double"
	}
	return ""
}
