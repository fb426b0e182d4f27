package parser

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/pkg/token"
)

// parseBlock parses "{ statements }".
func (p *Parser) parseBlock() ([]ast.Stmt, bool) {
	if _, ok := p.expect(token.OPEN_BRACE); !ok {
		return nil, false
	}

	var stmts []ast.Stmt
	for !p.curIs(token.CLOSE_BRACE) && !p.curIs(token.EOF) {
		stmt, ok := p.parseStmt()
		if !ok {
			return nil, false
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	if _, ok := p.expect(token.CLOSE_BRACE); !ok {
		return nil, false
	}

	return stmts, true
}

func (p *Parser) parseStmt() (ast.Stmt, bool) {
	source := p.cur().Source

	switch p.cur().Kind {
	case token.IF, token.UNLESS:
		return p.parseConditional()

	case token.WHILE, token.UNTIL:
		return p.parseWhile()

	case token.REPEAT:
		p.next()
		times, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		body, bodyOK := p.parseBlock()
		if !bodyOK {
			return nil, false
		}
		return &ast.RepeatStmt{Times: times, Body: body, Source: source}, true

	case token.EACH:
		return p.parseEachIn()

	case token.FOR:
		p.next()
		body, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		return &ast.ForStmt{Body: body, Source: source}, true

	case token.SWITCH:
		return p.parseSwitch()

	case token.BREAK:
		p.next()
		label := ""
		if p.curIs(token.IDENT) {
			label = p.next().Literal
		}
		return &ast.BreakStmt{Label: label, Source: source}, true

	case token.CONTINUE:
		p.next()
		label := ""
		if p.curIs(token.IDENT) {
			label = p.next().Literal
		}
		return &ast.ContinueStmt{Label: label, Source: source}, true

	case token.FALLTHROUGH:
		p.next()
		return &ast.FallthroughStmt{Source: source}, true

	case token.RETURN:
		p.next()
		var value ast.Expr
		if p.exprStartsHere() {
			returned, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			value = returned
		}
		return &ast.ReturnStmt{Value: value, Source: source}, true

	case token.DELETE:
		p.next()
		value, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		return &ast.DeleteStmt{Value: value, Source: source}, true

	case token.DEFER:
		p.next()
		deferred, ok := p.parseStmt()
		if !ok {
			return nil, false
		}
		return &ast.DeferStmt{Deferred: deferred, Source: source}, true

	case token.VA_START:
		p.next()
		list, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		return &ast.VaStartStmt{List: list, Source: source}, true

	case token.VA_END:
		p.next()
		list, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		return &ast.VaEndStmt{List: list, Source: source}, true

	case token.VA_COPY:
		p.next()
		destination, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if _, commaOK := p.expect(token.COMMA); !commaOK {
			return nil, false
		}
		src, srcOK := p.parseExpr()
		if !srcOK {
			return nil, false
		}
		return &ast.VaCopyStmt{Destination: destination, Src_: src, Source: source}, true

	case token.OPEN_BRACE:
		body, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		return &ast.BlockStmt{Body: body, Source: source}, true

	case token.STATIC:
		p.next()
		return p.parseDeclaration(ast.DeclStatic)

	case token.IDENT:
		// A name followed by a type starts a declaration; anything else
		// is an expression statement or assignment
		if p.declarationStartsHere() {
			return p.parseDeclaration(0)
		}
		return p.parseExprStmt()

	default:
		if p.exprStartsHere() {
			return p.parseExprStmt()
		}
	}

	p.errorf(source, "Unexpected token '%s' in statement position", p.cur().Kind)
	p.next()
	return nil, false
}

// declarationStartsHere distinguishes "name Type ..." declarations from
// expression statements beginning with an identifier.
func (p *Parser) declarationStartsHere() bool {
	if !p.curIs(token.IDENT) {
		return false
	}

	switch p.peek().Kind {
	case token.IDENT, token.MULTIPLY, token.POLYMORPH, token.POLYCOUNT,
		token.LESS_THAN, token.FUNC, token.GENERIC_INT, token.POD:
		return true
	}
	return false
}

// parseDeclaration parses "name [POD] Type [= expr]".
func (p *Parser) parseDeclaration(traits ast.DeclTraits) (ast.Stmt, bool) {
	name := p.next()

	if p.accept(token.POD) {
		traits |= ast.DeclPOD
	}

	declType, ok := p.parseType()
	if !ok {
		return nil, false
	}

	stmt := &ast.DeclareStmt{
		Name:   name.Literal,
		Type:   declType,
		Traits: traits,
		Source: name.Source,
	}

	if p.accept(token.ASSIGN) {
		if p.curIs(token.IDENT) && p.cur().Literal == "undef" {
			p.next()
			stmt.Traits |= ast.DeclUndef
			return stmt, true
		}

		value, valueOK := p.parseExpr()
		if !valueOK {
			return nil, false
		}
		stmt.Value = value
	}

	return stmt, true
}

// assignOperators maps compound-assignment tokens to their operators.
var assignOperators = map[token.Kind]ast.BinaryOp{
	token.ADD_ASSIGN:      ast.BinaryAdd,
	token.SUBTRACT_ASSIGN: ast.BinarySubtract,
	token.MULTIPLY_ASSIGN: ast.BinaryMultiply,
	token.DIVIDE_ASSIGN:   ast.BinaryDivide,
	token.MODULUS_ASSIGN:  ast.BinaryModulus,
	token.AND_ASSIGN:      ast.BinaryBitAnd,
	token.OR_ASSIGN:       ast.BinaryBitOr,
	token.XOR_ASSIGN:      ast.BinaryBitXor,
	token.LSHIFT_ASSIGN:   ast.BinaryLShift,
	token.RSHIFT_ASSIGN:   ast.BinaryRShift,
}

// parseExprStmt parses an expression statement or an assignment rooted at
// an lvalue expression.
func (p *Parser) parseExprStmt() (ast.Stmt, bool) {
	source := p.cur().Source

	expr, ok := p.parseExpr()
	if !ok {
		return nil, false
	}

	if p.accept(token.ASSIGN) {
		value, valueOK := p.parseExpr()
		if !valueOK {
			return nil, false
		}
		return &ast.AssignStmt{Destination: expr, Value: value, IsPlain: true, Source: source}, true
	}

	if op, isCompound := assignOperators[p.cur().Kind]; isCompound {
		p.next()
		value, valueOK := p.parseExpr()
		if !valueOK {
			return nil, false
		}
		return &ast.AssignStmt{Destination: expr, Value: value, Op: op, Source: source}, true
	}

	return &ast.ExprStmt{Expr: expr, Source: source}, true
}

func (p *Parser) parseConditional() (ast.Stmt, bool) {
	source := p.cur().Source
	isUnless := p.cur().Kind == token.UNLESS
	p.next()

	condition, ok := p.parseExpr()
	if !ok {
		return nil, false
	}

	then, thenOK := p.parseBlock()
	if !thenOK {
		return nil, false
	}

	stmt := &ast.ConditionalStmt{
		Condition: condition,
		IsUnless:  isUnless,
		Then:      then,
		Source:    source,
	}

	if p.accept(token.ELSE) {
		if p.curIs(token.IF) || p.curIs(token.UNLESS) {
			nested, nestedOK := p.parseConditional()
			if !nestedOK {
				return nil, false
			}
			stmt.Else = []ast.Stmt{nested}
		} else {
			elseBody, elseOK := p.parseBlock()
			if !elseOK {
				return nil, false
			}
			stmt.Else = elseBody
		}
	}

	return stmt, true
}

func (p *Parser) parseWhile() (ast.Stmt, bool) {
	source := p.cur().Source
	isUntil := p.cur().Kind == token.UNTIL
	p.next()

	label := ""
	if p.curIs(token.IDENT) && p.peek().Kind == token.COLON {
		label = p.next().Literal
		p.next() // ':'
	}

	condition, ok := p.parseExpr()
	if !ok {
		return nil, false
	}

	body, bodyOK := p.parseBlock()
	if !bodyOK {
		return nil, false
	}

	return &ast.WhileStmt{
		Label:     label,
		Condition: condition,
		IsUntil:   isUntil,
		Body:      body,
		Source:    source,
	}, true
}

// parseEachIn parses "each [name] Type in array, length { body }".
func (p *Parser) parseEachIn() (ast.Stmt, bool) {
	source := p.cur().Source
	p.next() // each

	itName := ""
	if p.curIs(token.IDENT) && p.peek().Kind != token.IN && p.typeStartsAfterIdent() {
		itName = p.next().Literal
	}

	itType, ok := p.parseType()
	if !ok {
		return nil, false
	}

	if _, inOK := p.expect(token.IN); !inOK {
		return nil, false
	}

	array, arrayOK := p.parseExpr()
	if !arrayOK {
		return nil, false
	}

	var length ast.Expr
	if p.accept(token.COMMA) {
		lengthExpr, lengthOK := p.parseExpr()
		if !lengthOK {
			return nil, false
		}
		length = lengthExpr
	}

	body, bodyOK := p.parseBlock()
	if !bodyOK {
		return nil, false
	}

	return &ast.EachInStmt{
		ItName: itName,
		ItType: itType,
		Array:  array,
		Length: length,
		Body:   body,
		Source: source,
	}, true
}

// typeStartsAfterIdent reports whether the token after the current
// identifier begins a type, meaning the identifier names the element.
func (p *Parser) typeStartsAfterIdent() bool {
	switch p.peek().Kind {
	case token.IDENT, token.MULTIPLY, token.POLYMORPH, token.POLYCOUNT,
		token.LESS_THAN, token.FUNC, token.GENERIC_INT:
		return true
	}
	return false
}

func (p *Parser) parseSwitch() (ast.Stmt, bool) {
	source := p.cur().Source
	p.next() // switch

	value, ok := p.parseExpr()
	if !ok {
		return nil, false
	}

	if _, braceOK := p.expect(token.OPEN_BRACE); !braceOK {
		return nil, false
	}

	stmt := &ast.SwitchStmt{Value: value, Source: source}

	for !p.curIs(token.CLOSE_BRACE) && !p.curIs(token.EOF) {
		switch p.cur().Kind {
		case token.CASE:
			caseSource := p.cur().Source
			p.next()
			caseValue, caseOK := p.parseExpr()
			if !caseOK {
				return nil, false
			}
			body, bodyOK := p.parseCaseBody()
			if !bodyOK {
				return nil, false
			}
			stmt.Cases = append(stmt.Cases, ast.SwitchCase{Value: caseValue, Body: body, Source: caseSource})

		case token.DEFAULT:
			p.next()
			body, bodyOK := p.parseCaseBody()
			if !bodyOK {
				return nil, false
			}
			stmt.Default = body

		default:
			p.errorf(p.cur().Source, "Expected case or default in switch body, got '%s'", p.cur().Kind)
			return nil, false
		}
	}

	if _, braceOK := p.expect(token.CLOSE_BRACE); !braceOK {
		return nil, false
	}

	return stmt, true
}

// parseCaseBody parses statements until the next case, default, or the
// end of the switch.
func (p *Parser) parseCaseBody() ([]ast.Stmt, bool) {
	var stmts []ast.Stmt

	for {
		switch p.cur().Kind {
		case token.CASE, token.DEFAULT, token.CLOSE_BRACE, token.EOF:
			return stmts, true
		}

		stmt, ok := p.parseStmt()
		if !ok {
			return nil, false
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
}
