// Package parser builds an ast.File from a token.Token stream: a
// recursive-descent parser over a fixed statement/expression grammar,
// following the teacher's own Parser shape (token cursor, match/consume
// helpers, panic-free error accumulation with synchronization).
package parser

import (
	"fmt"

	"github.com/aoki-yuta/javac8/internal/ast"
	"github.com/aoki-yuta/javac8/internal/lexer"
	"github.com/aoki-yuta/javac8/internal/token"
)

type Error struct {
	Pos     token.Position
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Message) }

type Parser struct {
	arena  *ast.Arena
	tokens []token.Token
	pos    int
	errors []Error
}

func New(source, filename string) *Parser {
	toks := lexer.New(source, filename).ScanTokens()
	return &Parser{arena: ast.NewArena(0), tokens: toks}
}

func (p *Parser) Errors() []Error { return p.errors }
func (p *Parser) HasErrors() bool { return len(p.errors) > 0 }

// --- token cursor ---

func (p *Parser) peek() token.Token { return p.tokens[p.pos] }

func (p *Parser) peekAt(offset int) token.Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) isAtEnd() bool { return p.peek().Type == token.EOF }

func (p *Parser) advance() token.Token {
	tok := p.tokens[p.pos]
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) check(t token.TokenType) bool { return p.peek().Type == t }

func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(t token.TokenType, msg string) token.Token {
	if p.check(t) {
		return p.advance()
	}
	p.errorf("%s (got %s)", msg, p.peek().Type)
	return p.peek()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, Error{Pos: p.peek().Pos, Message: fmt.Sprintf(format, args...)})
}

// synchronize discards tokens until a plausible declaration/statement
// boundary, so one malformed construct doesn't cascade into spurious
// errors for the rest of the file.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.pos > 0 && p.tokens[p.pos-1].Type == token.SEMICOLON {
			return
		}
		switch p.peek().Type {
		case token.CLASS, token.INTERFACE, token.ENUM, token.PUBLIC, token.PRIVATE,
			token.PROTECTED, token.STATIC, token.IF, token.FOR, token.WHILE, token.RETURN:
			return
		}
		p.advance()
	}
}

// --- compilation unit ---

func (p *Parser) Parse() *ast.File {
	pkgTok := p.peek()
	pkgName := ""
	if p.match(token.PACKAGE) {
		pkgName = p.parseQualifiedName()
		p.consume(token.SEMICOLON, "expected ';' after package declaration")
	}

	var imports []*ast.ImportDecl
	for p.check(token.IMPORT) {
		imports = append(imports, p.parseImport())
	}

	var decls []ast.Declaration
	for !p.isAtEnd() {
		d := p.parseTypeDecl()
		if d != nil {
			decls = append(decls, d)
		}
	}
	return p.arena.NewFile(pkgTok, pkgName, imports, decls, p.peek().Pos)
}

func (p *Parser) parseQualifiedName() string {
	name := p.consume(token.IDENT, "expected identifier").Literal
	for p.match(token.DOT) {
		if p.match(token.STAR) {
			return name + ".*"
		}
		name += "." + p.consume(token.IDENT, "expected identifier after '.'").Literal
	}
	return name
}

func (p *Parser) parseImport() *ast.ImportDecl {
	tok := p.advance() // 'import'
	static := p.match(token.STATIC)
	path := p.parseQualifiedName()
	wildcard := false
	if len(path) >= 2 && path[len(path)-2:] == ".*" {
		wildcard = true
		path = path[:len(path)-2]
	}
	p.consume(token.SEMICOLON, "expected ';' after import")
	return p.arena.NewImportDecl(tok, path, wildcard, static)
}

// --- modifiers ---

func (p *Parser) parseModifiers() ast.Modifier {
	var mods ast.Modifier
	for {
		switch p.peek().Type {
		case token.PUBLIC:
			mods |= ast.ModPublic
		case token.PRIVATE:
			mods |= ast.ModPrivate
		case token.PROTECTED:
			mods |= ast.ModProtected
		case token.STATIC:
			mods |= ast.ModStatic
		case token.FINAL:
			mods |= ast.ModFinal
		case token.ABSTRACT:
			mods |= ast.ModAbstract
		case token.SYNCHRONIZED:
			mods |= ast.ModSynchronized
		case token.DEFAULT:
			// interface default method; its body alone marks it non-abstract
		default:
			return mods
		}
		p.advance()
	}
}

// parseAnnotations consumes a leading run of "@Name(...)" markers, the
// position Java source overwhelmingly places them in ("@Override public
// void foo()", "@Entity class Widget"). Annotations interspersed after
// other modifiers ("public @Deprecated void foo()") are not accepted; a
// documented simplification against the full JLS modifier grammar.
func (p *Parser) parseAnnotations() []*ast.Annotation {
	var annots []*ast.Annotation
	for p.check(token.AT) {
		annots = append(annots, p.parseAnnotation())
	}
	return annots
}

func (p *Parser) parseAnnotation() *ast.Annotation {
	at := p.advance() // '@'
	name := p.parseQualifiedName()
	a := &ast.Annotation{AtToken: at, Name: name}
	if !p.match(token.LPAREN) {
		return a
	}
	for !p.check(token.RPAREN) && !p.isAtEnd() {
		if p.check(token.IDENT) && p.peekAt(1).Type == token.ASSIGN {
			key := p.advance().Literal
			p.advance() // '='
			a.Values = append(a.Values, ast.AnnotationValue{Name: key, Value: p.parseExpression()})
		} else {
			a.Values = append(a.Values, ast.AnnotationValue{Value: p.parseExpression()})
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.RPAREN, "expected ')' after annotation arguments")
	return a
}

// --- type declarations ---

func (p *Parser) parseTypeDecl() ast.Declaration {
	annots := p.parseAnnotations()
	mods := p.parseModifiers()
	switch p.peek().Type {
	case token.CLASS:
		d := p.parseClassDecl(mods)
		d.Annotations = annots
		return d
	case token.INTERFACE:
		d := p.parseInterfaceDecl(mods)
		d.Annotations = annots
		return d
	case token.ENUM:
		d := p.parseEnumDecl(mods)
		d.Annotations = annots
		return d
	case token.SEMICOLON:
		p.advance()
		return nil
	default:
		p.errorf("expected a type declaration, got %s", p.peek().Type)
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseClassDecl(mods ast.Modifier) *ast.ClassDecl {
	tok := p.advance() // 'class'
	name := p.consume(token.IDENT, "expected class name").Literal
	decl := p.arena.NewClassDecl(tok, mods, name)
	decl.TypeParams = p.parseOptionalTypeParams()
	if p.match(token.EXTENDS) {
		decl.Extends = p.parseType()
	}
	if p.match(token.IMPLEMENTS) {
		decl.Implements = p.parseTypeList()
	}
	p.parseClassBody(decl)
	return decl
}

func (p *Parser) parseInterfaceDecl(mods ast.Modifier) *ast.InterfaceDecl {
	tok := p.advance() // 'interface'
	name := p.consume(token.IDENT, "expected interface name").Literal
	decl := p.arena.NewInterfaceDecl(tok, mods, name)
	decl.TypeParams = p.parseOptionalTypeParams()
	if p.match(token.EXTENDS) {
		decl.Extends = p.parseTypeList()
	}
	p.consume(token.LBRACE, "expected '{'")
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		memberAnnots := p.parseAnnotations()
		memberMods := p.parseModifiers()
		switch p.peek().Type {
		case token.CLASS:
			d := p.parseClassDecl(memberMods)
			d.Annotations = memberAnnots
			decl.Nested = append(decl.Nested, d)
			continue
		case token.INTERFACE:
			d := p.parseInterfaceDecl(memberMods)
			d.Annotations = memberAnnots
			decl.Nested = append(decl.Nested, d)
			continue
		case token.ENUM:
			d := p.parseEnumDecl(memberMods)
			d.Annotations = memberAnnots
			decl.Nested = append(decl.Nested, d)
			continue
		}
		typ := p.parseReturnType()
		name := p.consume(token.IDENT, "expected member name").Literal
		if p.check(token.LPAREN) {
			m := p.parseMethodRest(memberMods, name, typ)
			m.Annotations = memberAnnots
			decl.Methods = append(decl.Methods, m)
		} else {
			f := p.parseFieldRest(memberMods, name, typ)
			f.Annotations = memberAnnots
			decl.Fields = append(decl.Fields, f)
		}
	}
	decl.RBrace = p.consume(token.RBRACE, "expected '}'")
	return decl
}

func (p *Parser) parseEnumDecl(mods ast.Modifier) *ast.EnumDecl {
	tok := p.advance() // 'enum'
	name := p.consume(token.IDENT, "expected enum name").Literal
	decl := p.arena.NewEnumDecl(tok, mods, name)
	if p.match(token.IMPLEMENTS) {
		decl.Implements = p.parseTypeList()
	}
	p.consume(token.LBRACE, "expected '{'")
	for p.check(token.IDENT) {
		c := ast.EnumConstant{NameToken: p.peek(), Name: p.advance().Literal}
		if p.match(token.LPAREN) {
			c.Args = p.parseArgs()
			p.consume(token.RPAREN, "expected ')'")
		}
		if p.check(token.LBRACE) {
			c.Body = p.parseClassBodyMembers()
		}
		decl.Constants = append(decl.Constants, c)
		if !p.match(token.COMMA) {
			break
		}
	}
	if p.match(token.SEMICOLON) {
		for !p.check(token.RBRACE) && !p.isAtEnd() {
			p.parseClassMemberInto(&decl.Fields, &decl.Methods, &decl.Constructors, &decl.Nested, name)
		}
	}
	decl.RBrace = p.consume(token.RBRACE, "expected '}'")
	return decl
}

func (p *Parser) parseOptionalTypeParams() []string {
	if !p.match(token.LT) {
		return nil
	}
	var params []string
	for {
		params = append(params, p.consume(token.IDENT, "expected type parameter").Literal)
		if p.match(token.EXTENDS) {
			p.parseType() // bound, erased
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.GT, "expected '>'")
	return params
}

func (p *Parser) parseTypeList() []ast.TypeNode {
	var types []ast.TypeNode
	types = append(types, p.parseType())
	for p.match(token.COMMA) {
		types = append(types, p.parseType())
	}
	return types
}

func (p *Parser) parseClassBody(decl *ast.ClassDecl) {
	p.consume(token.LBRACE, "expected '{'")
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		p.parseClassMemberInto(&decl.Fields, &decl.Methods, &decl.Constructors, &decl.Nested, decl.Name)
	}
	decl.RBrace = p.consume(token.RBRACE, "expected '}'")
}

// parseClassBodyMembers parses a "{ ... }" block of class members used by
// anonymous class and enum-constant bodies, returning them as a flat
// declaration list rather than a named ClassDecl.
func (p *Parser) parseClassBodyMembers() []ast.Declaration {
	p.consume(token.LBRACE, "expected '{'")
	var fields []*ast.FieldDecl
	var methods []*ast.MethodDecl
	var ctors []*ast.MethodDecl
	var nested []ast.Declaration
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		p.parseClassMemberInto(&fields, &methods, &ctors, &nested, "")
	}
	p.consume(token.RBRACE, "expected '}'")
	var decls []ast.Declaration
	for _, f := range fields {
		decls = append(decls, f)
	}
	for _, m := range methods {
		decls = append(decls, m)
	}
	decls = append(decls, nested...)
	return decls
}

func (p *Parser) parseClassMemberInto(fields *[]*ast.FieldDecl, methods *[]*ast.MethodDecl, ctors *[]*ast.MethodDecl, nested *[]ast.Declaration, ownerName string) {
	annots := p.parseAnnotations()
	mods := p.parseModifiers()
	switch p.peek().Type {
	case token.CLASS:
		c := p.parseClassDecl(mods)
		c.OuterName = ownerName
		c.Annotations = annots
		*nested = append(*nested, c)
		return
	case token.INTERFACE:
		d := p.parseInterfaceDecl(mods)
		d.Annotations = annots
		*nested = append(*nested, d)
		return
	case token.ENUM:
		d := p.parseEnumDecl(mods)
		d.Annotations = annots
		*nested = append(*nested, d)
		return
	case token.LBRACE:
		// instance/static initializer block; folded into a synthetic method
		// that codegen runs from the constructor or <clinit>.
		tok := p.peek()
		body := p.parseBlock()
		init := p.arena.NewMethodDecl(tok, mods, "<clinit-block>", nil, nil)
		init.Body = body
		*methods = append(*methods, init)
		return
	}

	if ownerName != "" && p.check(token.IDENT) && p.peek().Literal == ownerName && p.peekAt(1).Type == token.LPAREN {
		tok := p.advance()
		ctor := p.arena.NewMethodDecl(tok, mods, "<init>", nil, nil)
		ctor.IsConstructor = true
		ctor.Annotations = annots
		ctor.Params = p.parseParams()
		p.parseOptionalThrows(ctor)
		ctor.Body = p.parseBlock()
		*ctors = append(*ctors, ctor)
		return
	}

	p.parseOptionalTypeParams() // generic method type params, erased
	typ := p.parseReturnType()
	name := p.consume(token.IDENT, "expected member name").Literal
	if p.check(token.LPAREN) {
		m := p.parseMethodRest(mods, name, typ)
		m.Annotations = annots
		*methods = append(*methods, m)
		return
	}
	f := p.parseFieldRest(mods, name, typ)
	f.Annotations = annots
	*fields = append(*fields, f)
}

func (p *Parser) parseReturnType() ast.TypeNode {
	if p.check(token.VOID) {
		tok := p.advance()
		return p.arena.NewPrimitiveType(tok, "void")
	}
	return p.parseType()
}

func (p *Parser) parseMethodRest(mods ast.Modifier, name string, ret ast.TypeNode) *ast.MethodDecl {
	tok := p.peek()
	m := p.arena.NewMethodDecl(tok, mods, name, nil, ret)
	m.Params = p.parseParams()
	p.parseOptionalThrows(m)
	if p.check(token.LBRACE) {
		m.Body = p.parseBlock()
	} else {
		p.consume(token.SEMICOLON, "expected ';' after abstract method declaration")
	}
	return m
}

func (p *Parser) parseFieldRest(mods ast.Modifier, name string, typ ast.TypeNode) *ast.FieldDecl {
	var init ast.Expression
	if p.match(token.ASSIGN) {
		if p.check(token.LBRACE) {
			init = p.parseArrayInitializer(typ)
		} else {
			init = p.parseExpression()
		}
	}
	p.consume(token.SEMICOLON, "expected ';' after field declaration")
	return p.arena.NewFieldDecl(p.peek(), mods, name, typ, init)
}

func (p *Parser) parseOptionalThrows(m *ast.MethodDecl) {
	if p.match(token.THROWS) {
		m.Throws = p.parseTypeList()
	}
}

func (p *Parser) parseParams() []ast.Param {
	p.consume(token.LPAREN, "expected '('")
	var params []ast.Param
	for !p.check(token.RPAREN) {
		annots := p.parseAnnotations()
		p.parseModifiers() // "final" on a parameter, erased
		typ := p.parseType()
		varargs := p.match(token.ELLIPSIS)
		nameTok := p.consume(token.IDENT, "expected parameter name")
		params = append(params, ast.Param{NameToken: nameTok, Name: nameTok.Literal, Type: typ, Varargs: varargs, Annotations: annots})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.RPAREN, "expected ')'")
	return params
}

// --- types ---

var primitiveNames = map[token.TokenType]string{
	token.BOOLEAN: "boolean", token.BYTE: "byte", token.SHORT: "short",
	token.CHAR: "char", token.INT: "int", token.LONG: "long",
	token.FLOAT: "float", token.DOUBLE: "double",
}

func (p *Parser) parseType() ast.TypeNode {
	var base ast.TypeNode
	if name, ok := primitiveNames[p.peek().Type]; ok {
		base = p.arena.NewPrimitiveType(p.advance(), name)
	} else {
		tok := p.peek()
		name := p.parseQualifiedTypeName()
		var typeArgs []ast.TypeNode
		if p.match(token.LT) {
			if !p.check(token.GT) {
				typeArgs = append(typeArgs, p.parseType())
				for p.match(token.COMMA) {
					typeArgs = append(typeArgs, p.parseType())
				}
			}
			p.consume(token.GT, "expected '>'")
		}
		base = p.arena.NewClassType(tok, name, typeArgs)
	}
	dims := 0
	for p.check(token.LBRACKET) && p.peekAt(1).Type == token.RBRACKET {
		p.advance()
		p.advance()
		dims++
	}
	if dims > 0 {
		return p.arena.NewArrayType(base, dims)
	}
	return base
}

func (p *Parser) parseQualifiedTypeName() string {
	name := p.consume(token.IDENT, "expected type name").Literal
	for p.check(token.DOT) && p.peekAt(1).Type == token.IDENT {
		p.advance()
		name += "." + p.advance().Literal
	}
	return name
}

// --- statements ---

func (p *Parser) parseBlock() *ast.BlockStmt {
	lbrace := p.consume(token.LBRACE, "expected '{'")
	var stmts []ast.Statement
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		s := p.parseStatement()
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	rbrace := p.consume(token.RBRACE, "expected '}'")
	return p.arena.NewBlockStmt(lbrace, stmts, rbrace)
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.peek().Type {
	case token.LBRACE:
		return p.parseBlock()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.DO:
		return p.parseDoWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.BREAK:
		return p.parseBreakStmt()
	case token.CONTINUE:
		return p.parseContinueStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.THROW:
		return p.parseThrowStmt()
	case token.TRY:
		return p.parseTryStmt()
	case token.SWITCH:
		return p.parseSwitchStmt()
	case token.SEMICOLON:
		tok := p.advance()
		return p.arena.NewEmptyStmt(tok)
	case token.IDENT:
		if p.peekAt(1).Type == token.COLON {
			label := p.advance().Literal
			p.advance() // ':'
			return p.arena.NewLabeledStmt(label, p.parseStatement())
		}
	}
	if p.startsLocalVarDecl() {
		return p.parseLocalVarDecl()
	}
	expr := p.parseExpression()
	p.consume(token.SEMICOLON, "expected ';' after expression statement")
	return p.arena.NewExprStmt(expr)
}

func (p *Parser) startsLocalVarDecl() bool {
	switch p.peek().Type {
	case token.FINAL:
		return true
	case token.BOOLEAN, token.BYTE, token.SHORT, token.CHAR, token.INT, token.LONG, token.FLOAT, token.DOUBLE:
		return true
	case token.IDENT:
		// "Foo x = ..." / "Foo x;" / "Foo[] x" -- a type name followed by
		// an identifier, not a '(' or '.' which would make it an expression.
		save := p.pos
		defer func() { p.pos = save }()
		p.parseType()
		return p.check(token.IDENT)
	}
	return false
}

func (p *Parser) parseLocalVarDecl() ast.Statement {
	p.match(token.FINAL)
	tok := p.peek()
	typ := p.parseType()
	name := p.consume(token.IDENT, "expected variable name").Literal
	var init ast.Expression
	if p.match(token.ASSIGN) {
		if p.check(token.LBRACE) {
			init = p.parseArrayInitializer(typ)
		} else {
			init = p.parseExpression()
		}
	}
	p.consume(token.SEMICOLON, "expected ';' after local variable declaration")
	return p.arena.NewLocalVarDecl(tok, name, typ, init)
}

func (p *Parser) parseArrayInitializer(elemType ast.TypeNode) ast.Expression {
	tok := p.consume(token.LBRACE, "expected '{'")
	var elems []ast.Expression
	for !p.check(token.RBRACE) {
		if p.check(token.LBRACE) {
			elems = append(elems, p.parseArrayInitializer(elemType))
		} else {
			elems = append(elems, p.parseExpression())
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.RBRACE, "expected '}'")
	return p.arena.NewNewArrayExpr(tok, elemType, nil, elems)
}

func (p *Parser) parseIfStmt() ast.Statement {
	tok := p.advance()
	p.consume(token.LPAREN, "expected '('")
	cond := p.parseExpression()
	p.consume(token.RPAREN, "expected ')'")
	then := p.parseStatement()
	var els ast.Statement
	if p.match(token.ELSE) {
		els = p.parseStatement()
	}
	return p.arena.NewIfStmt(tok, cond, then, els)
}

func (p *Parser) parseWhileStmt() ast.Statement {
	tok := p.advance()
	p.consume(token.LPAREN, "expected '('")
	cond := p.parseExpression()
	p.consume(token.RPAREN, "expected ')'")
	body := p.parseStatement()
	return p.arena.NewWhileStmt(tok, cond, body)
}

func (p *Parser) parseDoWhileStmt() ast.Statement {
	tok := p.advance()
	body := p.parseStatement()
	p.consume(token.WHILE, "expected 'while'")
	p.consume(token.LPAREN, "expected '('")
	cond := p.parseExpression()
	p.consume(token.RPAREN, "expected ')'")
	p.consume(token.SEMICOLON, "expected ';' after do-while")
	return p.arena.NewDoWhileStmt(tok, body, cond)
}

func (p *Parser) parseForStmt() ast.Statement {
	tok := p.advance()
	p.consume(token.LPAREN, "expected '('")

	// Disambiguate "for (T x : iterable)" from a classic for loop by
	// attempting the enhanced-for header first.
	save := p.pos
	if p.startsLocalVarDecl() || p.check(token.IDENT) {
		p.match(token.FINAL)
		varType := p.parseType()
		if p.check(token.IDENT) && p.peekAt(1).Type == token.COLON {
			name := p.advance().Literal
			p.advance() // ':'
			iterable := p.parseExpression()
			p.consume(token.RPAREN, "expected ')'")
			body := p.parseStatement()
			return p.arena.NewEnhancedForStmt(tok, name, varType, iterable, body)
		}
	}
	p.pos = save

	var init []ast.Statement
	if !p.check(token.SEMICOLON) {
		init = p.parseForInit()
	} else {
		p.advance()
	}
	var cond ast.Expression
	if !p.check(token.SEMICOLON) {
		cond = p.parseExpression()
	}
	p.consume(token.SEMICOLON, "expected ';'")
	var post []ast.Statement
	for !p.check(token.RPAREN) {
		post = append(post, p.arena.NewExprStmt(p.parseExpression()))
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.RPAREN, "expected ')'")
	body := p.parseStatement()
	return p.arena.NewForStmt(tok, init, cond, post, body)
}

func (p *Parser) parseForInit() []ast.Statement {
	if p.startsLocalVarDecl() {
		s := p.parseLocalVarDecl() // already consumes ';'
		return []ast.Statement{s}
	}
	var stmts []ast.Statement
	for {
		stmts = append(stmts, p.arena.NewExprStmt(p.parseExpression()))
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.SEMICOLON, "expected ';'")
	return stmts
}

func (p *Parser) parseBreakStmt() ast.Statement {
	tok := p.advance()
	label := ""
	if p.check(token.IDENT) {
		label = p.advance().Literal
	}
	p.consume(token.SEMICOLON, "expected ';' after break")
	return p.arena.NewBreakStmt(tok, label)
}

func (p *Parser) parseContinueStmt() ast.Statement {
	tok := p.advance()
	label := ""
	if p.check(token.IDENT) {
		label = p.advance().Literal
	}
	p.consume(token.SEMICOLON, "expected ';' after continue")
	return p.arena.NewContinueStmt(tok, label)
}

func (p *Parser) parseReturnStmt() ast.Statement {
	tok := p.advance()
	var value ast.Expression
	if !p.check(token.SEMICOLON) {
		value = p.parseExpression()
	}
	p.consume(token.SEMICOLON, "expected ';' after return")
	return p.arena.NewReturnStmt(tok, value)
}

func (p *Parser) parseThrowStmt() ast.Statement {
	tok := p.advance()
	x := p.parseExpression()
	p.consume(token.SEMICOLON, "expected ';' after throw")
	return p.arena.NewThrowStmt(tok, x)
}

func (p *Parser) parseTryStmt() ast.Statement {
	tok := p.advance()
	var resources []*ast.LocalVarDecl
	if p.match(token.LPAREN) {
		for !p.check(token.RPAREN) {
			p.match(token.FINAL)
			rtok := p.peek()
			typ := p.parseType()
			name := p.consume(token.IDENT, "expected resource name").Literal
			p.consume(token.ASSIGN, "expected '=' in resource declaration")
			init := p.parseExpression()
			resources = append(resources, p.arena.NewLocalVarDecl(rtok, name, typ, init))
			if !p.match(token.SEMICOLON) {
				break
			}
		}
		p.consume(token.RPAREN, "expected ')'")
	}
	body := p.parseBlock()
	var catches []ast.CatchClause
	for p.match(token.CATCH) {
		p.consume(token.LPAREN, "expected '('")
		p.match(token.FINAL)
		types := []ast.TypeNode{p.parseType()}
		for p.match(token.BIT_OR) {
			types = append(types, p.parseType())
		}
		varName := p.consume(token.IDENT, "expected exception variable name").Literal
		p.consume(token.RPAREN, "expected ')'")
		catchBody := p.parseBlock()
		catches = append(catches, ast.CatchClause{ExceptionTypes: types, VarName: varName, Body: catchBody})
	}
	var fin *ast.BlockStmt
	if p.match(token.FINALLY) {
		fin = p.parseBlock()
	}
	return p.arena.NewTryStmt(tok, resources, body, catches, fin)
}

func (p *Parser) parseSwitchStmt() ast.Statement {
	tok := p.advance()
	p.consume(token.LPAREN, "expected '('")
	tag := p.parseExpression()
	p.consume(token.RPAREN, "expected ')'")
	p.consume(token.LBRACE, "expected '{'")
	var cases []ast.SwitchCase
	for p.check(token.CASE) || p.check(token.DEFAULT) {
		var values []ast.Expression
		for p.check(token.CASE) {
			p.advance()
			values = append(values, p.parseExpression())
			p.consume(token.COLON, "expected ':' after case label")
		}
		if p.match(token.DEFAULT) {
			p.consume(token.COLON, "expected ':' after default label")
		}
		var stmts []ast.Statement
		for !p.check(token.CASE) && !p.check(token.DEFAULT) && !p.check(token.RBRACE) {
			stmts = append(stmts, p.parseStatement())
		}
		cases = append(cases, ast.SwitchCase{Values: values, Stmts: stmts})
	}
	rbrace := p.consume(token.RBRACE, "expected '}'")
	return p.arena.NewSwitchStmt(tok, tag, cases, rbrace)
}

// --- expressions ---

func (p *Parser) parseExpression() ast.Expression { return p.parseAssignment() }

var assignOps = map[token.TokenType]string{
	token.ASSIGN: "=", token.PLUS_ASSIGN: "+=", token.MINUS_ASSIGN: "-=",
	token.STAR_ASSIGN: "*=", token.SLASH_ASSIGN: "/=", token.PERCENT_ASSIGN: "%=",
	token.AND_ASSIGN: "&=", token.OR_ASSIGN: "|=", token.XOR_ASSIGN: "^=",
	token.SHL_ASSIGN: "<<=", token.SHR_ASSIGN: ">>=", token.USHR_ASSIGN: ">>>=",
}

func (p *Parser) parseAssignment() ast.Expression {
	left := p.parseLambdaOrTernary()
	if op, ok := assignOps[p.peek().Type]; ok {
		tok := p.advance()
		right := p.parseAssignment()
		return p.arena.NewAssignExpr(tok, op, left, right)
	}
	return left
}

// parseLambdaOrTernary disambiguates "(params) -> body" from a
// parenthesized ternary-level expression by a short commit-point lookahead:
// a lambda's parameter list is always followed directly by "->".
func (p *Parser) parseLambdaOrTernary() ast.Expression {
	if lambda := p.tryParseLambda(); lambda != nil {
		return lambda
	}
	return p.parseTernary()
}

func (p *Parser) tryParseLambda() ast.Expression {
	save := p.pos
	var params []ast.Param
	switch {
	case p.check(token.IDENT) && p.peekAt(1).Type == token.ARROW:
		nameTok := p.advance()
		params = []ast.Param{{NameToken: nameTok, Name: nameTok.Literal}}
	case p.check(token.LPAREN):
		p.advance()
		ok := true
		for !p.check(token.RPAREN) {
			nameTok, typ := p.tryLambdaParam()
			if nameTok.Type != token.IDENT {
				ok = false
				break
			}
			params = append(params, ast.Param{NameToken: nameTok, Name: nameTok.Literal, Type: typ})
			if !p.match(token.COMMA) {
				break
			}
		}
		if !ok || !p.match(token.RPAREN) {
			p.pos = save
			return nil
		}
	default:
		return nil
	}
	if !p.check(token.ARROW) {
		p.pos = save
		return nil
	}
	arrow := p.advance()
	if p.check(token.LBRACE) {
		return p.arena.NewLambdaExpr(arrow, params, nil, p.parseBlock())
	}
	return p.arena.NewLambdaExpr(arrow, params, p.parseAssignment(), nil)
}

// tryLambdaParam consumes either a bare name or a "Type name" pair,
// returning the name token and its declared type (nil for bare names).
func (p *Parser) tryLambdaParam() (token.Token, ast.TypeNode) {
	if p.check(token.IDENT) && (p.peekAt(1).Type == token.COMMA || p.peekAt(1).Type == token.RPAREN) {
		return p.advance(), nil
	}
	if !p.check(token.IDENT) && !isPrimitiveStart(p.peek().Type) {
		return token.Token{}, nil
	}
	typ := p.parseType()
	if !p.check(token.IDENT) {
		return token.Token{}, nil
	}
	return p.advance(), typ
}

func isPrimitiveStart(t token.TokenType) bool {
	_, ok := primitiveNames[t]
	return ok
}

func (p *Parser) parseTernary() ast.Expression {
	cond := p.parseLogicalOr()
	if p.check(token.QUESTION) {
		q := p.advance()
		then := p.parseAssignment()
		p.consume(token.COLON, "expected ':' in conditional expression")
		els := p.parseAssignment()
		return p.arena.NewTernaryExpr(q, cond, then, els)
	}
	return cond
}

func (p *Parser) parseLogicalOr() ast.Expression {
	left := p.parseLogicalAnd()
	for p.check(token.LOGICAL_OR) {
		tok := p.advance()
		left = p.arena.NewBinaryExpr(tok, "||", left, p.parseLogicalAnd())
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expression {
	left := p.parseBitOr()
	for p.check(token.LOGICAL_AND) {
		tok := p.advance()
		left = p.arena.NewBinaryExpr(tok, "&&", left, p.parseBitOr())
	}
	return left
}

func (p *Parser) parseBitOr() ast.Expression {
	left := p.parseBitXor()
	for p.check(token.BIT_OR) {
		tok := p.advance()
		left = p.arena.NewBinaryExpr(tok, "|", left, p.parseBitXor())
	}
	return left
}

func (p *Parser) parseBitXor() ast.Expression {
	left := p.parseBitAnd()
	for p.check(token.BIT_XOR) {
		tok := p.advance()
		left = p.arena.NewBinaryExpr(tok, "^", left, p.parseBitAnd())
	}
	return left
}

func (p *Parser) parseBitAnd() ast.Expression {
	left := p.parseEquality()
	for p.check(token.BIT_AND) {
		tok := p.advance()
		left = p.arena.NewBinaryExpr(tok, "&", left, p.parseEquality())
	}
	return left
}

func (p *Parser) parseEquality() ast.Expression {
	left := p.parseRelational()
	for p.check(token.EQ) || p.check(token.NE) {
		tok := p.advance()
		op := "=="
		if tok.Type == token.NE {
			op = "!="
		}
		left = p.arena.NewBinaryExpr(tok, op, left, p.parseRelational())
	}
	return left
}

func (p *Parser) parseRelational() ast.Expression {
	left := p.parseShift()
	for {
		switch p.peek().Type {
		case token.LT, token.LE, token.GT, token.GE:
			tok := p.advance()
			left = p.arena.NewBinaryExpr(tok, tok.Literal, left, p.parseShift())
		case token.INSTANCEOF:
			p.advance()
			left = p.arena.NewInstanceOfExpr(left, p.parseType())
		default:
			return left
		}
	}
}

func (p *Parser) parseShift() ast.Expression {
	left := p.parseAdditive()
	for p.check(token.SHL) || p.check(token.SHR) || p.check(token.USHR) {
		tok := p.advance()
		left = p.arena.NewBinaryExpr(tok, tok.Literal, left, p.parseAdditive())
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		tok := p.advance()
		left = p.arena.NewBinaryExpr(tok, tok.Literal, left, p.parseMultiplicative())
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	for p.check(token.STAR) || p.check(token.SLASH) || p.check(token.PERCENT) {
		tok := p.advance()
		left = p.arena.NewBinaryExpr(tok, tok.Literal, left, p.parseUnary())
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.peek().Type {
	case token.MINUS, token.PLUS, token.NOT, token.BIT_NOT:
		tok := p.advance()
		return p.arena.NewUnaryExpr(tok, tok.Literal, p.parseUnary())
	case token.INCREMENT, token.DECREMENT:
		tok := p.advance()
		op := "++pre"
		if tok.Type == token.DECREMENT {
			op = "--pre"
		}
		return p.arena.NewUnaryExpr(tok, op, p.parseUnary())
	case token.LPAREN:
		if cast := p.tryParseCast(); cast != nil {
			return cast
		}
	}
	return p.parsePostfix()
}

// tryParseCast speculatively parses "(Type) expr". Java requires this
// lookahead because '(' also opens a grouped expression; primitive type
// keywords make the cast unambiguous, reference types don't.
func (p *Parser) tryParseCast() ast.Expression {
	save := p.pos
	lparen := p.advance()
	if !isPrimitiveStart(p.peek().Type) && !p.check(token.IDENT) {
		p.pos = save
		return nil
	}
	typ := p.parseType()
	if !p.match(token.RPAREN) {
		p.pos = save
		return nil
	}
	if !p.castFollowsOperand() {
		p.pos = save
		return nil
	}
	return p.arena.NewCastExpr(lparen, typ, p.parseUnary())
}

func (p *Parser) castFollowsOperand() bool {
	switch p.peek().Type {
	case token.IDENT, token.INT_LIT, token.LONG_LIT, token.FLOAT_LIT, token.DOUBLE_LIT,
		token.CHAR_LIT, token.STRING_LIT, token.TRUE, token.FALSE, token.NULL,
		token.THIS, token.SUPER, token.NEW, token.LPAREN, token.NOT, token.BIT_NOT:
		return true
	default:
		return false
	}
}

func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	for {
		switch p.peek().Type {
		case token.DOT:
			p.advance()
			if p.check(token.LT) { // explicit type witness on a call, e.g. this.<T>foo()
				p.advance()
				for !p.check(token.GT) {
					p.parseType()
					if !p.match(token.COMMA) {
						break
					}
				}
				p.consume(token.GT, "expected '>'")
			}
			name := p.consume(token.IDENT, "expected member name after '.'").Literal
			if p.check(token.LPAREN) {
				lparen := p.advance()
				args := p.parseArgs()
				p.consume(token.RPAREN, "expected ')'")
				expr = p.arena.NewCallExpr(lparen, expr, name, args)
			} else {
				expr = p.arena.NewFieldAccessExpr(p.peek(), expr, name)
			}
		case token.LBRACKET:
			lbracket := p.advance()
			idx := p.parseExpression()
			p.consume(token.RBRACKET, "expected ']'")
			expr = p.arena.NewIndexExpr(lbracket, expr, idx)
		case token.DOUBLE_COLON:
			tok := p.advance()
			method := "new"
			if !p.check(token.NEW) {
				method = p.consume(token.IDENT, "expected method name after '::'").Literal
			} else {
				p.advance()
			}
			expr = p.arena.NewMethodRefExpr(tok, expr, nil, method)
		case token.INCREMENT, token.DECREMENT:
			tok := p.advance()
			op := "++post"
			if tok.Type == token.DECREMENT {
				op = "--post"
			}
			expr = p.arena.NewUnaryExpr(tok, op, expr)
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgs() []ast.Expression {
	var args []ast.Expression
	for !p.check(token.RPAREN) {
		args = append(args, p.parseExpression())
		if !p.match(token.COMMA) {
			break
		}
	}
	return args
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.peek()
	switch tok.Type {
	case token.INT_LIT:
		p.advance()
		return p.arena.NewIntLiteral(tok, tok.Value.(int32))
	case token.LONG_LIT:
		p.advance()
		return p.arena.NewLongLiteral(tok, tok.Value.(int64))
	case token.FLOAT_LIT:
		p.advance()
		return p.arena.NewFloatLiteral(tok, tok.Value.(float32))
	case token.DOUBLE_LIT:
		p.advance()
		return p.arena.NewDoubleLiteral(tok, tok.Value.(float64))
	case token.CHAR_LIT:
		p.advance()
		return p.arena.NewCharLiteral(tok, tok.Value.(uint16))
	case token.STRING_LIT:
		p.advance()
		return p.arena.NewStringLiteral(tok, tok.Value.(string))
	case token.TRUE:
		p.advance()
		return p.arena.NewBoolLiteral(tok, true)
	case token.FALSE:
		p.advance()
		return p.arena.NewBoolLiteral(tok, false)
	case token.NULL:
		p.advance()
		return p.arena.NewNullLiteral(tok)
	case token.THIS:
		p.advance()
		if p.check(token.LPAREN) {
			lparen := p.advance()
			args := p.parseArgs()
			p.consume(token.RPAREN, "expected ')'")
			return p.arena.NewCallExpr(lparen, nil, "<init>", args)
		}
		return p.arena.NewThisExpr(tok)
	case token.SUPER:
		p.advance()
		if p.check(token.LPAREN) {
			lparen := p.advance()
			args := p.parseArgs()
			p.consume(token.RPAREN, "expected ')'")
			return p.arena.NewCallExpr(lparen, p.arena.NewSuperExpr(tok), "<init>", args)
		}
		return p.arena.NewSuperExpr(tok)
	case token.NEW:
		return p.parseNew()
	case token.LPAREN:
		p.advance()
		expr := p.parseExpression()
		p.consume(token.RPAREN, "expected ')'")
		return expr
	case token.IDENT:
		p.advance()
		if p.check(token.LPAREN) {
			lparen := p.advance()
			args := p.parseArgs()
			p.consume(token.RPAREN, "expected ')'")
			return p.arena.NewCallExpr(lparen, nil, tok.Literal, args)
		}
		return p.arena.NewIdentifier(tok, tok.Literal)
	default:
		p.errorf("unexpected token %s in expression", tok.Type)
		p.advance()
		return p.arena.NewNullLiteral(tok)
	}
}

func (p *Parser) parseNew() ast.Expression {
	tok := p.advance() // 'new'
	var base ast.TypeNode
	if name, ok := primitiveNames[p.peek().Type]; ok {
		base = p.arena.NewPrimitiveType(p.advance(), name)
	} else {
		nameTok := p.peek()
		name := p.parseQualifiedTypeName()
		var typeArgs []ast.TypeNode
		if p.match(token.LT) {
			if !p.check(token.GT) {
				typeArgs = append(typeArgs, p.parseType())
				for p.match(token.COMMA) {
					typeArgs = append(typeArgs, p.parseType())
				}
			}
			p.consume(token.GT, "expected '>'")
		}
		base = p.arena.NewClassType(nameTok, name, typeArgs)
	}

	if p.check(token.LBRACKET) {
		var dims []ast.Expression
		for p.match(token.LBRACKET) {
			if p.check(token.RBRACKET) {
				dims = append(dims, nil)
			} else {
				dims = append(dims, p.parseExpression())
			}
			p.consume(token.RBRACKET, "expected ']'")
		}
		var init []ast.Expression
		if p.check(token.LBRACE) {
			arr := p.parseArrayInitializer(base)
			init = arr.(*ast.NewArrayExpr).Init
		}
		return p.arena.NewNewArrayExpr(tok, base, dims, init)
	}

	p.consume(token.LPAREN, "expected '('")
	args := p.parseArgs()
	p.consume(token.RPAREN, "expected ')'")
	var body []ast.Declaration
	if p.check(token.LBRACE) {
		body = p.parseClassBodyMembers()
	}
	return p.arena.NewNewExpr(tok, base, args, body)
}
