package ast

import (
	"testing"

	"github.com/aoki-yuta/javac8/internal/token"
)

func TestArenaBuildsMethodSignature(t *testing.T) {
	arena := NewArena(0)
	nameTok := token.New(token.IDENT, "add", token.Position{Line: 1, Column: 1})
	intType := arena.NewPrimitiveType(token.New(token.INT, "int", nameTok.Pos), "int")
	m := arena.NewMethodDecl(nameTok, ModPublic, "add", []Param{
		{Name: "a", Type: intType},
		{Name: "b", Type: intType},
	}, intType)
	if m.String() != "add(int a, int b)" {
		t.Errorf("String() = %q", m.String())
	}
	if m.IsVarargs() {
		t.Error("add(int,int) should not be varargs")
	}
}

func TestArrayTypeString(t *testing.T) {
	pos := token.Position{Line: 1, Column: 1}
	elem := &ClassType{NameToken: token.New(token.IDENT, "String", pos), Name: "String"}
	arr := &ArrayType{Elem: elem, Dims: 2}
	if arr.String() != "String[][]" {
		t.Errorf("String() = %q", arr.String())
	}
}

func TestWalkVisitsBlockStatements(t *testing.T) {
	pos := token.Position{Line: 1, Column: 1}
	lit := &IntLiteral{Token: token.New(token.INT_LIT, "1", pos), Value: 1}
	ret := &ReturnStmt{ReturnToken: token.New(token.RETURN, "return", pos), Value: lit}
	block := &BlockStmt{Stmts: []Statement{ret}}
	var visited int
	Walk(block, func(n Node) bool {
		visited++
		return true
	})
	if visited != 3 { // block, return, literal
		t.Errorf("visited = %d, want 3", visited)
	}
}

func TestMethodDeclVarargs(t *testing.T) {
	pos := token.Position{Line: 1, Column: 1}
	intType := &PrimitiveType{Name: "int"}
	m := &MethodDecl{
		Params: []Param{
			{Name: "first", Type: intType},
			{Name: "rest", Type: intType, Varargs: true},
		},
		StartToken: token.New(token.IDENT, "f", pos),
	}
	if !m.IsVarargs() {
		t.Error("expected IsVarargs() true")
	}
}
