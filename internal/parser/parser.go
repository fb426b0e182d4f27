// Package parser turns the token stream into the AST the middle end
// consumes. It also folds pragma directives into the compiler
// configuration as it encounters them.
package parser

import (
	"fmt"

	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/lexer"
	"github.com/adeptlang/go-adept/pkg/token"
)

// Parser consumes tokens for one object file.
type Parser struct {
	tokens   []token.Token
	pos      int
	tree     *ast.Ast
	compiler *compiler.Compiler
	errors   []string
}

// Parse lexes and parses source text into an existing AST, appending
// declarations. The object index names the file for source locations.
func Parse(c *compiler.Compiler, tree *ast.Ast, source, filename string) error {
	object := len(tree.Filenames)
	tree.Filenames = append(tree.Filenames, filename)
	tree.Sources = append(tree.Sources, source)

	p := &Parser{
		tokens:   lexer.Tokenize(source, object),
		tree:     tree,
		compiler: c,
	}

	p.parseTopLevel()

	if len(p.errors) != 0 {
		return fmt.Errorf("%s", p.errors[0])
	}
	return nil
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() token.Token {
	if p.pos+1 >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) next() token.Token {
	t := p.cur()
	p.pos++
	p.skipNewlinesIfInsignificant()
	return t
}

// skipNewlinesIfInsignificant drops newline tokens; statement boundaries
// in this grammar are self-delimiting, except that parsePrimary reads a
// name as a call only when its '(' is on the same line.
func (p *Parser) skipNewlinesIfInsignificant() {
	for p.pos < len(p.tokens) && p.tokens[p.pos].Kind == token.NEWLINE {
		p.pos++
	}
}

func (p *Parser) skipNewlines() {
	p.skipNewlinesIfInsignificant()
}

func (p *Parser) curIs(kind token.Kind) bool {
	return p.cur().Kind == kind
}

func (p *Parser) accept(kind token.Kind) bool {
	if p.curIs(kind) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	if p.curIs(kind) {
		return p.next(), true
	}
	p.errorf(p.cur().Source, "Expected %s, got %s", kind, p.cur().Kind)
	return token.Token{}, false
}

func (p *Parser) errorf(source token.Source, format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
	if p.compiler != nil {
		p.compiler.Panicf(source, format, args...)
	}
}

// synchronize skips tokens until a plausible declaration start.
func (p *Parser) synchronize() {
	for !p.curIs(token.EOF) {
		switch p.cur().Kind {
		case token.FUNC, token.STRUCT, token.CLASS, token.ENUM, token.ALIAS,
			token.FOREIGN, token.IMPORT, token.PRAGMA, token.CONST:
			return
		}
		p.pos++
	}
}

// ---------------------------------------------------------------------------
// Top level
// ---------------------------------------------------------------------------

func (p *Parser) parseTopLevel() {
	p.skipNewlines()

	for !p.curIs(token.EOF) {
		before := p.pos

		switch p.cur().Kind {
		case token.IMPORT:
			p.parseImport()
		case token.PRAGMA:
			p.parsePragma()
		case token.FUNC:
			p.parseFunc("", ast.Type{}, nil)
		case token.FOREIGN:
			p.parseForeign()
		case token.STRUCT:
			p.parseComposite(false)
		case token.CLASS:
			p.parseComposite(true)
		case token.ENUM:
			p.parseEnum()
		case token.ALIAS:
			p.parseAlias()
		case token.CONST:
			p.parseConstant()
		case token.IDENT:
			p.parseGlobal()
		default:
			p.errorf(p.cur().Source, "Unexpected token '%s' at top level", p.cur().Kind)
			p.next()
			p.synchronize()
		}

		if p.pos == before {
			// Guarantee forward progress on malformed input
			p.next()
		}

		p.skipNewlines()
	}
}

// parseImport consumes an import directive. Module resolution happens in
// the driver; the parser only validates the shape.
func (p *Parser) parseImport() {
	p.next() // import
	switch p.cur().Kind {
	case token.IDENT, token.STRING, token.CSTRING:
		p.next()
	default:
		p.errorf(p.cur().Source, "Expected import name")
	}
}

// parsePragma folds a pragma directive into the compiler configuration.
func (p *Parser) parsePragma() {
	source := p.cur().Source
	p.next() // pragma

	name, ok := p.expect(token.IDENT)
	if !ok {
		return
	}

	switch name.Literal {
	case "compiler_version":
		if value, valueOK := p.expectStringish(); valueOK {
			p.compiler.Version = value
		}
	case "project_name":
		if value, valueOK := p.expectStringish(); valueOK {
			p.compiler.ProjectName = value
		}
	case "optimization":
		level, levelOK := p.expect(token.IDENT)
		if !levelOK {
			return
		}
		switch level.Literal {
		case "none":
			p.compiler.Optimization = 0
		case "less":
			p.compiler.Optimization = 1
		case "normal":
			p.compiler.Optimization = 2
		case "aggressive":
			p.compiler.Optimization = 3
		default:
			p.errorf(level.Source, "Unknown optimization level '%s'", level.Literal)
		}
	case "deprecated":
		message := ""
		if p.curIs(token.STRING) || p.curIs(token.CSTRING) {
			message, _ = p.expectStringish()
		}
		if message != "" {
			p.compiler.Warnf(compiler.WarnDeprecation, source, "This file is deprecated: %s", message)
		} else {
			p.compiler.Warnf(compiler.WarnDeprecation, source, "This file is deprecated")
		}
	case "unsupported":
		message := ""
		if p.curIs(token.STRING) || p.curIs(token.CSTRING) {
			message, _ = p.expectStringish()
		}
		if message != "" {
			p.errorf(source, "This file is no longer supported: %s", message)
		} else {
			p.errorf(source, "This file is no longer supported")
		}
	case "windows_only":
		if p.compiler.Target != compiler.TargetWindows && p.compiler.Target != compiler.TargetNone {
			p.errorf(source, "This file only supports Windows")
		}
	case "options", "help":
		// Consumed by the CLI driver before parsing; ignore here
		for !p.curIs(token.NEWLINE) && !p.curIs(token.EOF) {
			p.pos++
		}
	default:
		p.compiler.Warnf(compiler.WarnAll, source, "Unrecognized pragma directive '%s'", name.Literal)
	}
}

func (p *Parser) expectStringish() (string, bool) {
	if p.curIs(token.STRING) || p.curIs(token.CSTRING) {
		return p.next().Literal, true
	}
	p.errorf(p.cur().Source, "Expected string")
	return "", false
}

// parseForeign handles "foreign name(types...) ReturnType".
func (p *Parser) parseForeign() {
	p.next() // foreign

	name, ok := p.expect(token.IDENT)
	if !ok {
		return
	}

	f := &ast.Func{
		Name:   name.Literal,
		Traits: ast.FuncForeign,
		Source: name.Source,
	}

	if _, parenOK := p.expect(token.OPEN_PAREN); !parenOK {
		return
	}

	for !p.curIs(token.CLOSE_PAREN) && !p.curIs(token.EOF) {
		if p.accept(token.ELLIPSIS) {
			f.Traits |= ast.FuncVararg
			break
		}

		argType, typeOK := p.parseType()
		if !typeOK {
			return
		}

		f.ArgNames = append(f.ArgNames, "")
		f.ArgTypes = append(f.ArgTypes, argType)
		f.ArgSources = append(f.ArgSources, argType.Source)
		f.ArgFlows = append(f.ArgFlows, ast.FlowIn)
		f.ArgTypeTraits = append(f.ArgTypeTraits, ast.ArgTypeRegular)

		if !p.accept(token.COMMA) {
			break
		}
	}

	if _, parenOK := p.expect(token.CLOSE_PAREN); !parenOK {
		return
	}

	returnType, typeOK := p.parseType()
	if !typeOK {
		return
	}
	f.ReturnType = returnType

	p.tree.AddFunc(f)
}

// funcQualifiers maps qualifier words appearing after "func" to traits.
var funcQualifiers = map[string]ast.FuncTraits{
	"stdcall":    ast.FuncStdcall,
	"no_discard": ast.FuncNoDiscard,
	"disallow":   ast.FuncDisallow,
	"implicit":   ast.FuncImplicit,
}

// parseFunc handles "func [qualifiers] NAME(params) ReturnType { body }".
// When subject is non-empty, the function is a method of that composite
// and receives an implicit "this" parameter.
func (p *Parser) parseFunc(subject string, subjectType ast.Type, extraTraits *ast.FuncTraits) {
	p.next() // func

	var traits ast.FuncTraits
	if extraTraits != nil {
		traits = *extraTraits
	}

	// Qualifiers: virtual/override keywords plus identifier qualifiers
	for {
		if p.curIs(token.IDENT) {
			if qualifier, ok := funcQualifiers[p.cur().Literal]; ok && p.peek().Kind == token.IDENT {
				traits |= qualifier
				p.next()
				continue
			}
			if p.cur().Literal == "virtual" && p.peek().Kind == token.IDENT {
				traits |= ast.FuncVirtual
				p.next()
				continue
			}
			if p.cur().Literal == "override" && p.peek().Kind == token.IDENT {
				traits |= ast.FuncOverride
				p.next()
				continue
			}
		}
		break
	}

	name, ok := p.expect(token.IDENT)
	if !ok {
		return
	}

	f := &ast.Func{
		Name:   name.Literal,
		Traits: traits,
		Source: name.Source,
	}

	if f.Name == "main" {
		f.Traits |= ast.FuncMain
	}

	if subject != "" {
		f.ArgNames = append(f.ArgNames, "this")
		f.ArgTypes = append(f.ArgTypes, ast.TypePointerTo(subjectType))
		f.ArgSources = append(f.ArgSources, name.Source)
		f.ArgFlows = append(f.ArgFlows, ast.FlowIn)
		f.ArgTypeTraits = append(f.ArgTypeTraits, ast.ArgTypeRegular)
	}

	if p.accept(token.OPEN_PAREN) {
		if !p.parseParams(f) {
			return
		}
	}

	// Optional return type; "{" means void
	if !p.curIs(token.OPEN_BRACE) {
		returnType, typeOK := p.parseType()
		if !typeOK {
			return
		}
		f.ReturnType = returnType
	} else {
		f.ReturnType = ast.TypeBase("void")
	}

	for _, argType := range f.ArgTypes {
		if argType.HasPolymorph() {
			f.Traits |= ast.FuncPolymorphic
		}
	}
	if f.ReturnType.HasPolymorph() {
		f.Traits |= ast.FuncPolymorphic
	}

	body, bodyOK := p.parseBlock()
	if !bodyOK {
		return
	}
	f.Statements = body

	p.tree.AddFunc(f)
}

func (p *Parser) parseParams(f *ast.Func) bool {
	for !p.curIs(token.CLOSE_PAREN) && !p.curIs(token.EOF) {
		if p.accept(token.ELLIPSIS) {
			f.Traits |= ast.FuncVariadic
			break
		}

		isPOD := p.accept(token.POD)

		name, ok := p.expect(token.IDENT)
		if !ok {
			return false
		}

		argType, typeOK := p.parseType()
		if !typeOK {
			return false
		}

		trait := ast.ArgTypeRegular
		if isPOD {
			trait = ast.ArgTypePOD
		}

		f.ArgNames = append(f.ArgNames, name.Literal)
		f.ArgTypes = append(f.ArgTypes, argType)
		f.ArgSources = append(f.ArgSources, name.Source)
		f.ArgFlows = append(f.ArgFlows, ast.FlowIn)
		f.ArgTypeTraits = append(f.ArgTypeTraits, trait)

		// Optional default value
		if p.accept(token.ASSIGN) {
			def, defOK := p.parseExpr()
			if !defOK {
				return false
			}
			if f.ArgDefaults == nil {
				f.ArgDefaults = make([]ast.Expr, len(f.ArgTypes)-1)
			}
			f.ArgDefaults = append(f.ArgDefaults, def)
		} else if f.ArgDefaults != nil {
			f.ArgDefaults = append(f.ArgDefaults, nil)
		}

		if !p.accept(token.COMMA) {
			break
		}
	}

	if f.ArgDefaults != nil {
		for len(f.ArgDefaults) < len(f.ArgTypes) {
			f.ArgDefaults = append(f.ArgDefaults, nil)
		}
	}

	_, ok := p.expect(token.CLOSE_PAREN)
	return ok
}

// parseComposite handles struct and class declarations:
//
//	struct Name (field Type, ...)
//	struct <$T> Name (field Type, ...)
//	class Name [extends Parent] { fields and methods }
func (p *Parser) parseComposite(isClass bool) {
	p.next() // struct / class

	var generics []string
	if p.accept(token.LESS_THAN) {
		for {
			generic, ok := p.expect(token.POLYMORPH)
			if !ok {
				return
			}
			generics = append(generics, generic.Literal)
			if !p.accept(token.COMMA) {
				break
			}
		}
		if _, ok := p.expect(token.GREATER_THAN); !ok {
			return
		}
	}

	name, ok := p.expect(token.IDENT)
	if !ok {
		return
	}

	composite := &ast.Composite{
		Name:          name.Literal,
		IsClass:       isClass,
		IsPolymorphic: len(generics) != 0,
		Generics:      generics,
		Source:        name.Source,
	}

	if isClass && p.accept(token.EXTENDS) {
		parent, parentOK := p.parseType()
		if !parentOK {
			return
		}
		composite.Parent = parent
	}

	p.tree.Composites = append(p.tree.Composites, composite)

	subjectType := ast.TypeBase(composite.Name)
	if composite.IsPolymorphic {
		genericArgs := make([]ast.Type, len(generics))
		for i, generic := range generics {
			genericArgs[i] = ast.TypePolymorph(generic)
		}
		subjectType = ast.TypeGenericBase(composite.Name, genericArgs)
	}

	if p.accept(token.OPEN_PAREN) {
		// Field list form
		for !p.curIs(token.CLOSE_PAREN) && !p.curIs(token.EOF) {
			fieldName, fieldOK := p.expect(token.IDENT)
			if !fieldOK {
				return
			}
			fieldType, typeOK := p.parseType()
			if !typeOK {
				return
			}
			composite.FieldNames = append(composite.FieldNames, fieldName.Literal)
			composite.FieldTypes = append(composite.FieldTypes, fieldType)
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.CLOSE_PAREN)
		return
	}

	if !p.accept(token.OPEN_BRACE) {
		return
	}

	// Body form: fields and methods
	for !p.curIs(token.CLOSE_BRACE) && !p.curIs(token.EOF) {
		switch p.cur().Kind {
		case token.FUNC:
			p.parseFunc(composite.Name, subjectType, nil)
		case token.IDENT:
			fieldName := p.next()
			fieldType, typeOK := p.parseType()
			if !typeOK {
				return
			}
			composite.FieldNames = append(composite.FieldNames, fieldName.Literal)
			composite.FieldTypes = append(composite.FieldTypes, fieldType)
		default:
			p.errorf(p.cur().Source, "Unexpected token '%s' in composite body", p.cur().Kind)
			p.next()
		}
	}

	p.expect(token.CLOSE_BRACE)
}

func (p *Parser) parseEnum() {
	p.next() // enum

	name, ok := p.expect(token.IDENT)
	if !ok {
		return
	}

	enum := &ast.Enum{Name: name.Literal, Source: name.Source}

	if _, parenOK := p.expect(token.OPEN_PAREN); !parenOK {
		return
	}

	for !p.curIs(token.CLOSE_PAREN) && !p.curIs(token.EOF) {
		member, memberOK := p.expect(token.IDENT)
		if !memberOK {
			return
		}
		enum.Members = append(enum.Members, member.Literal)
		if !p.accept(token.COMMA) {
			break
		}
	}

	p.expect(token.CLOSE_PAREN)
	p.tree.Enums = append(p.tree.Enums, enum)
}

func (p *Parser) parseAlias() {
	p.next() // alias

	name, ok := p.expect(token.IDENT)
	if !ok {
		return
	}

	if _, assignOK := p.expect(token.ASSIGN); !assignOK {
		return
	}

	aliased, typeOK := p.parseType()
	if !typeOK {
		return
	}

	p.tree.Aliases = append(p.tree.Aliases, &ast.Alias{
		Name:   name.Literal,
		Type:   aliased,
		Source: name.Source,
	})
}

func (p *Parser) parseConstant() {
	p.next() // const

	name, ok := p.expect(token.IDENT)
	if !ok {
		return
	}

	if _, assignOK := p.expect(token.ASSIGN); !assignOK {
		return
	}

	value, valueOK := p.parseExpr()
	if !valueOK {
		return
	}

	p.tree.Constants = append(p.tree.Constants, &ast.Constant{
		Name:   name.Literal,
		Value:  value,
		Source: name.Source,
	})
}

// parseGlobal handles "NAME Type [= expr]" at top level.
func (p *Parser) parseGlobal() {
	name := p.next()

	globalType, typeOK := p.parseType()
	if !typeOK {
		return
	}

	global := &ast.Global{
		Name:   name.Literal,
		Type:   globalType,
		Source: name.Source,
	}

	if p.accept(token.ASSIGN) {
		initial, initialOK := p.parseExpr()
		if !initialOK {
			return
		}
		global.Initial = initial
	}

	p.tree.Globals = append(p.tree.Globals, global)
}
