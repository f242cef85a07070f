package ast

import (
	"github.com/aoki-yuta/javac8/internal/token"
)

// Factory functions allocate AST nodes from an Arena rather than the
// garbage-collected heap: a parse produces thousands of small, short-
// lived nodes, and the arena lets the parser free them as one block
// instead of individually.

// --- type nodes ---

func (a *Arena) NewPrimitiveType(tok token.Token, name string) *PrimitiveType {
	n := AllocType[PrimitiveType](a)
	n.Token = tok
	n.Name = name
	return n
}

func (a *Arena) NewClassType(tok token.Token, name string, typeArgs []TypeNode) *ClassType {
	n := AllocType[ClassType](a)
	n.NameToken = tok
	n.Name = name
	n.TypeArgs = typeArgs
	return n
}

func (a *Arena) NewArrayType(elem TypeNode, dims int) *ArrayType {
	n := AllocType[ArrayType](a)
	n.Elem = elem
	n.Dims = dims
	return n
}

// --- compilation unit ---

func (a *Arena) NewImportDecl(tok token.Token, path string, wildcard, static bool) *ImportDecl {
	n := AllocType[ImportDecl](a)
	n.ImportToken = tok
	n.Path = path
	n.Wildcard = wildcard
	n.Static = static
	return n
}

func (a *Arena) NewFile(pkgTok token.Token, pkg string, imports []*ImportDecl, decls []Declaration, end token.Position) *File {
	n := AllocType[File](a)
	n.PackageToken = pkgTok
	n.Package = pkg
	n.Imports = imports
	n.Decls = decls
	n.EndPos = end
	return n
}

// --- declarations ---

func (a *Arena) NewClassDecl(tok token.Token, mods Modifier, name string) *ClassDecl {
	n := AllocType[ClassDecl](a)
	n.ClassToken = tok
	n.Modifiers = mods
	n.Name = name
	return n
}

func (a *Arena) NewInterfaceDecl(tok token.Token, mods Modifier, name string) *InterfaceDecl {
	n := AllocType[InterfaceDecl](a)
	n.InterfaceToken = tok
	n.Modifiers = mods
	n.Name = name
	return n
}

func (a *Arena) NewEnumDecl(tok token.Token, mods Modifier, name string) *EnumDecl {
	n := AllocType[EnumDecl](a)
	n.EnumToken = tok
	n.Modifiers = mods
	n.Name = name
	return n
}

func (a *Arena) NewFieldDecl(tok token.Token, mods Modifier, name string, typ TypeNode, init Expression) *FieldDecl {
	n := AllocType[FieldDecl](a)
	n.StartToken = tok
	n.Modifiers = mods
	n.Name = name
	n.Type = typ
	n.Init = init
	return n
}

func (a *Arena) NewMethodDecl(tok token.Token, mods Modifier, name string, params []Param, ret TypeNode) *MethodDecl {
	n := AllocType[MethodDecl](a)
	n.StartToken = tok
	n.Modifiers = mods
	n.Name = name
	n.Params = params
	n.ReturnType = ret
	return n
}

// --- statements ---

func (a *Arena) NewBlockStmt(lbrace token.Token, stmts []Statement, rbrace token.Token) *BlockStmt {
	n := AllocType[BlockStmt](a)
	n.LBraceToken = lbrace
	n.Stmts = stmts
	n.RBraceToken = rbrace
	return n
}

func (a *Arena) NewLocalVarDecl(tok token.Token, name string, typ TypeNode, init Expression) *LocalVarDecl {
	n := AllocType[LocalVarDecl](a)
	n.StartToken = tok
	n.Name = name
	n.Type = typ
	n.Init = init
	return n
}

func (a *Arena) NewExprStmt(x Expression) *ExprStmt {
	n := AllocType[ExprStmt](a)
	n.X = x
	return n
}

func (a *Arena) NewIfStmt(tok token.Token, cond Expression, then, els Statement) *IfStmt {
	n := AllocType[IfStmt](a)
	n.IfToken = tok
	n.Cond = cond
	n.Then = then
	n.Else = els
	return n
}

func (a *Arena) NewWhileStmt(tok token.Token, cond Expression, body Statement) *WhileStmt {
	n := AllocType[WhileStmt](a)
	n.WhileToken = tok
	n.Cond = cond
	n.Body = body
	return n
}

func (a *Arena) NewDoWhileStmt(tok token.Token, body Statement, cond Expression) *DoWhileStmt {
	n := AllocType[DoWhileStmt](a)
	n.DoToken = tok
	n.Body = body
	n.Cond = cond
	return n
}

func (a *Arena) NewForStmt(tok token.Token, init []Statement, cond Expression, post []Statement, body Statement) *ForStmt {
	n := AllocType[ForStmt](a)
	n.ForToken = tok
	n.Init = init
	n.Cond = cond
	n.Post = post
	n.Body = body
	return n
}

func (a *Arena) NewEnhancedForStmt(tok token.Token, varName string, varType TypeNode, iterable Expression, body Statement) *EnhancedForStmt {
	n := AllocType[EnhancedForStmt](a)
	n.ForToken = tok
	n.VarName = varName
	n.VarType = varType
	n.Iterable = iterable
	n.Body = body
	return n
}

func (a *Arena) NewBreakStmt(tok token.Token, label string) *BreakStmt {
	n := AllocType[BreakStmt](a)
	n.BreakToken = tok
	n.Label = label
	return n
}

func (a *Arena) NewContinueStmt(tok token.Token, label string) *ContinueStmt {
	n := AllocType[ContinueStmt](a)
	n.ContinueToken = tok
	n.Label = label
	return n
}

func (a *Arena) NewReturnStmt(tok token.Token, value Expression) *ReturnStmt {
	n := AllocType[ReturnStmt](a)
	n.ReturnToken = tok
	n.Value = value
	return n
}

func (a *Arena) NewThrowStmt(tok token.Token, x Expression) *ThrowStmt {
	n := AllocType[ThrowStmt](a)
	n.ThrowToken = tok
	n.X = x
	return n
}

func (a *Arena) NewTryStmt(tok token.Token, resources []*LocalVarDecl, body *BlockStmt, catches []CatchClause, fin *BlockStmt) *TryStmt {
	n := AllocType[TryStmt](a)
	n.TryToken = tok
	n.Resources = resources
	n.Body = body
	n.Catches = catches
	n.Finally = fin
	return n
}

func (a *Arena) NewSwitchStmt(tok token.Token, tag Expression, cases []SwitchCase, rbrace token.Token) *SwitchStmt {
	n := AllocType[SwitchStmt](a)
	n.SwitchToken = tok
	n.Tag = tag
	n.Cases = cases
	n.RBrace = rbrace
	return n
}

func (a *Arena) NewLabeledStmt(label string, stmt Statement) *LabeledStmt {
	n := AllocType[LabeledStmt](a)
	n.Label = label
	n.Stmt = stmt
	return n
}

func (a *Arena) NewEmptyStmt(tok token.Token) *EmptyStmt {
	n := AllocType[EmptyStmt](a)
	n.SemiToken = tok
	return n
}

// --- expressions ---

func (a *Arena) NewIdentifier(tok token.Token, name string) *Identifier {
	n := AllocType[Identifier](a)
	n.Token = tok
	n.Name = name
	return n
}

func (a *Arena) NewIntLiteral(tok token.Token, v int32) *IntLiteral {
	n := AllocType[IntLiteral](a)
	n.Token = tok
	n.Value = v
	return n
}

func (a *Arena) NewLongLiteral(tok token.Token, v int64) *LongLiteral {
	n := AllocType[LongLiteral](a)
	n.Token = tok
	n.Value = v
	return n
}

func (a *Arena) NewFloatLiteral(tok token.Token, v float32) *FloatLiteral {
	n := AllocType[FloatLiteral](a)
	n.Token = tok
	n.Value = v
	return n
}

func (a *Arena) NewDoubleLiteral(tok token.Token, v float64) *DoubleLiteral {
	n := AllocType[DoubleLiteral](a)
	n.Token = tok
	n.Value = v
	return n
}

func (a *Arena) NewBoolLiteral(tok token.Token, v bool) *BoolLiteral {
	n := AllocType[BoolLiteral](a)
	n.Token = tok
	n.Value = v
	return n
}

func (a *Arena) NewCharLiteral(tok token.Token, v uint16) *CharLiteral {
	n := AllocType[CharLiteral](a)
	n.Token = tok
	n.Value = v
	return n
}

func (a *Arena) NewStringLiteral(tok token.Token, v string) *StringLiteral {
	n := AllocType[StringLiteral](a)
	n.Token = tok
	n.Value = v
	return n
}

func (a *Arena) NewNullLiteral(tok token.Token) *NullLiteral {
	n := AllocType[NullLiteral](a)
	n.Token = tok
	return n
}

func (a *Arena) NewThisExpr(tok token.Token) *ThisExpr {
	n := AllocType[ThisExpr](a)
	n.Token = tok
	return n
}

func (a *Arena) NewSuperExpr(tok token.Token) *SuperExpr {
	n := AllocType[SuperExpr](a)
	n.Token = tok
	return n
}

func (a *Arena) NewBinaryExpr(opTok token.Token, op string, x, y Expression) *BinaryExpr {
	n := AllocType[BinaryExpr](a)
	n.OpToken = opTok
	n.Op = op
	n.X = x
	n.Y = y
	return n
}

func (a *Arena) NewUnaryExpr(opTok token.Token, op string, x Expression) *UnaryExpr {
	n := AllocType[UnaryExpr](a)
	n.OpToken = opTok
	n.Op = op
	n.X = x
	return n
}

func (a *Arena) NewAssignExpr(opTok token.Token, op string, target, value Expression) *AssignExpr {
	n := AllocType[AssignExpr](a)
	n.OpToken = opTok
	n.Op = op
	n.Target = target
	n.Value = value
	return n
}

func (a *Arena) NewTernaryExpr(q token.Token, cond, then, els Expression) *TernaryExpr {
	n := AllocType[TernaryExpr](a)
	n.QuestionToken = q
	n.Cond = cond
	n.Then = then
	n.Else = els
	return n
}

func (a *Arena) NewCastExpr(lparen token.Token, typ TypeNode, x Expression) *CastExpr {
	n := AllocType[CastExpr](a)
	n.LParenToken = lparen
	n.Type = typ
	n.X = x
	return n
}

func (a *Arena) NewInstanceOfExpr(x Expression, typ TypeNode) *InstanceOfExpr {
	n := AllocType[InstanceOfExpr](a)
	n.X = x
	n.Type = typ
	return n
}

func (a *Arena) NewFieldAccessExpr(dot token.Token, x Expression, name string) *FieldAccessExpr {
	n := AllocType[FieldAccessExpr](a)
	n.DotToken = dot
	n.X = x
	n.Name = name
	return n
}

func (a *Arena) NewIndexExpr(lbracket token.Token, x, index Expression) *IndexExpr {
	n := AllocType[IndexExpr](a)
	n.LBracketToken = lbracket
	n.X = x
	n.Index = index
	return n
}

func (a *Arena) NewCallExpr(lparen token.Token, recv Expression, method string, args []Expression) *CallExpr {
	n := AllocType[CallExpr](a)
	n.LParenToken = lparen
	n.Recv = recv
	n.Method = method
	n.Args = args
	return n
}

func (a *Arena) NewNewExpr(tok token.Token, typ TypeNode, args []Expression, body []Declaration) *NewExpr {
	n := AllocType[NewExpr](a)
	n.NewToken = tok
	n.Type = typ
	n.Args = args
	n.Body = body
	return n
}

func (a *Arena) NewNewArrayExpr(tok token.Token, elem TypeNode, dims, init []Expression) *NewArrayExpr {
	n := AllocType[NewArrayExpr](a)
	n.NewToken = tok
	n.ElemType = elem
	n.Dims = dims
	n.Init = init
	return n
}

func (a *Arena) NewLambdaExpr(arrow token.Token, params []Param, exprBody Expression, blockBody *BlockStmt) *LambdaExpr {
	n := AllocType[LambdaExpr](a)
	n.ArrowToken = arrow
	n.Params = params
	n.ExprBody = exprBody
	n.BlockBody = blockBody
	return n
}

func (a *Arena) NewMethodRefExpr(tok token.Token, recv Expression, class TypeNode, method string) *MethodRefExpr {
	n := AllocType[MethodRefExpr](a)
	n.ColonColonToken = tok
	n.Recv = recv
	n.Class = class
	n.Method = method
	return n
}
