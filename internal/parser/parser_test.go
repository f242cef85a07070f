package parser

import (
	"testing"

	"github.com/aoki-yuta/javac8/internal/ast"
)

func parseFile(t *testing.T, src string) *ast.File {
	t.Helper()
	p := New(src, "test.java")
	file := p.Parse()
	if p.HasErrors() {
		for _, err := range p.Errors() {
			t.Errorf("parser error: %v", err)
		}
		t.FailNow()
	}
	return file
}

func TestParsePackageAndImports(t *testing.T) {
	file := parseFile(t, `package com.example;
import java.util.List;
import static java.lang.Math.*;
class Empty {}`)

	if file.Package != "com.example" {
		t.Errorf("Package = %q", file.Package)
	}
	if len(file.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(file.Imports))
	}
	if file.Imports[0].Path != "java.util.List" {
		t.Errorf("import 0 = %q", file.Imports[0].Path)
	}
	if !file.Imports[1].Static || !file.Imports[1].Wildcard {
		t.Errorf("import 1 should be static wildcard, got %+v", file.Imports[1])
	}
}

func TestParseSimpleClass(t *testing.T) {
	file := parseFile(t, `
		public class Counter {
			private int value;

			public Counter(int start) {
				this.value = start;
			}

			public int add(int a, int b) {
				return a + b;
			}
		}`)

	if len(file.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(file.Decls))
	}
	class, ok := file.Decls[0].(*ast.ClassDecl)
	if !ok {
		t.Fatalf("expected ClassDecl, got %T", file.Decls[0])
	}
	if class.Name != "Counter" {
		t.Errorf("Name = %q", class.Name)
	}
	if !class.Modifiers.Has(ast.ModPublic) {
		t.Error("expected public modifier")
	}
	if len(class.Fields) != 1 || class.Fields[0].Name != "value" {
		t.Errorf("fields = %+v", class.Fields)
	}
	if len(class.Constructors) != 1 {
		t.Fatalf("expected 1 constructor, got %d", len(class.Constructors))
	}
	if len(class.Methods) != 1 || class.Methods[0].Name != "add" {
		t.Errorf("methods = %+v", class.Methods)
	}
	if class.Methods[0].IsVarargs() {
		t.Error("add(int,int) should not be varargs")
	}
}

func TestParseExtendsImplements(t *testing.T) {
	file := parseFile(t, `class Dog extends Animal implements Runnable, Comparable<Dog> {}`)
	class := file.Decls[0].(*ast.ClassDecl)
	if class.Extends == nil || class.Extends.String() != "Animal" {
		t.Errorf("Extends = %v", class.Extends)
	}
	if len(class.Implements) != 2 {
		t.Fatalf("expected 2 implemented interfaces, got %d", len(class.Implements))
	}
	if class.Implements[1].String() != "Comparable<Dog>" {
		t.Errorf("Implements[1] = %q", class.Implements[1].String())
	}
}

func TestParseInterfaceWithDefaultMethod(t *testing.T) {
	file := parseFile(t, `interface Greeter {
		String name();
		default String greet() { return "hi"; }
	}`)
	iface := file.Decls[0].(*ast.InterfaceDecl)
	if len(iface.Methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(iface.Methods))
	}
	if iface.Methods[0].Body != nil {
		t.Error("abstract method should have nil Body")
	}
}

func TestParseEnumWithConstantArgsAndBody(t *testing.T) {
	file := parseFile(t, `enum Op {
		ADD { int apply(int a, int b) { return a + b; } },
		SUB;

		abstract int apply(int a, int b);
	}`)
	e := file.Decls[0].(*ast.EnumDecl)
	if len(e.Constants) != 2 {
		t.Fatalf("expected 2 constants, got %d", len(e.Constants))
	}
	if e.Constants[0].Name != "ADD" || len(e.Constants[0].Body) == 0 {
		t.Errorf("ADD constant = %+v", e.Constants[0])
	}
	if len(e.Methods) != 1 {
		t.Errorf("expected 1 abstract method, got %d", len(e.Methods))
	}
}

func TestParseControlFlowStatements(t *testing.T) {
	file := parseFile(t, `class C {
		void run() {
			int total = 0;
			for (int i = 0; i < 10; i++) {
				if (i % 2 == 0) {
					total += i;
				} else {
					continue;
				}
			}
			for (int x : values()) {
				total += x;
			}
			int i = 0;
			while (i < 5) { i++; }
			do { i--; } while (i > 0);
			switch (total) {
			case 0:
				break;
			default:
				break;
			}
		}
	}`)
	method := file.Decls[0].(*ast.ClassDecl).Methods[0]
	if method.Body == nil {
		t.Fatal("expected method body")
	}
}

func TestParseTryWithResourcesAndMultiCatch(t *testing.T) {
	file := parseFile(t, `class C {
		void run() throws Exception {
			try (AutoCloseable r = open()) {
				use(r);
			} catch (IOException | RuntimeException e) {
				log(e);
			} finally {
				cleanup();
			}
		}
	}`)
	m := file.Decls[0].(*ast.ClassDecl).Methods[0]
	try := m.Body.Stmts[0].(*ast.TryStmt)
	if len(try.Resources) != 1 {
		t.Fatalf("expected 1 resource, got %d", len(try.Resources))
	}
	if len(try.Catches) != 1 || len(try.Catches[0].ExceptionTypes) != 2 {
		t.Fatalf("expected 1 multi-catch clause with 2 types, got %+v", try.Catches)
	}
	if try.Finally == nil {
		t.Error("expected finally block")
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	file := parseFile(t, `class C {
		int f() {
			return 1 + 2 * 3 == 7 ? a : b;
		}
	}`)
	ret := file.Decls[0].(*ast.ClassDecl).Methods[0].Body.Stmts[0].(*ast.ReturnStmt)
	ternary, ok := ret.Value.(*ast.TernaryExpr)
	if !ok {
		t.Fatalf("expected TernaryExpr, got %T", ret.Value)
	}
	eq, ok := ternary.Cond.(*ast.BinaryExpr)
	if !ok || eq.Op != "==" {
		t.Fatalf("expected == at top of condition, got %+v", ternary.Cond)
	}
	add, ok := eq.X.(*ast.BinaryExpr)
	if !ok || add.Op != "+" {
		t.Fatalf("expected + on the left of ==, got %+v", eq.X)
	}
	if _, ok := add.Y.(*ast.BinaryExpr); !ok {
		t.Errorf("expected 2*3 to bind tighter than +, got %+v", add.Y)
	}
}

func TestParseCastVsParenthesizedExpression(t *testing.T) {
	file := parseFile(t, `class C {
		Object f(Object o) {
			int x = (int) o;
			int y = (x + 1);
			return x > y ? null : o;
		}
	}`)
	body := file.Decls[0].(*ast.ClassDecl).Methods[0].Body
	first := body.Stmts[0].(*ast.LocalVarDecl)
	if _, ok := first.Init.(*ast.CastExpr); !ok {
		t.Errorf("expected CastExpr, got %T", first.Init)
	}
	second := body.Stmts[1].(*ast.LocalVarDecl)
	if _, ok := second.Init.(*ast.BinaryExpr); !ok {
		t.Errorf("expected parenthesized BinaryExpr, got %T", second.Init)
	}
}

func TestParseLambdaAndMethodReference(t *testing.T) {
	file := parseFile(t, `class C {
		void f() {
			Runnable r1 = () -> doWork();
			Comparator<String> c = (a, b) -> a.compareTo(b);
			Function<String, Integer> len = String::length;
		}
	}`)
	body := file.Decls[0].(*ast.ClassDecl).Methods[0].Body
	first := body.Stmts[0].(*ast.LocalVarDecl)
	lambda, ok := first.Init.(*ast.LambdaExpr)
	if !ok {
		t.Fatalf("expected LambdaExpr, got %T", first.Init)
	}
	if len(lambda.Params) != 0 || lambda.ExprBody == nil {
		t.Errorf("lambda = %+v", lambda)
	}
	second := body.Stmts[1].(*ast.LocalVarDecl)
	lambda2 := second.Init.(*ast.LambdaExpr)
	if len(lambda2.Params) != 2 {
		t.Errorf("expected 2 params, got %d", len(lambda2.Params))
	}
	third := body.Stmts[2].(*ast.LocalVarDecl)
	if _, ok := third.Init.(*ast.MethodRefExpr); !ok {
		t.Errorf("expected MethodRefExpr, got %T", third.Init)
	}
}

func TestParseAnonymousClassBody(t *testing.T) {
	file := parseFile(t, `class C {
		Runnable f() {
			return new Runnable() {
				public void run() {}
			};
		}
	}`)
	ret := file.Decls[0].(*ast.ClassDecl).Methods[0].Body.Stmts[0].(*ast.ReturnStmt)
	ne, ok := ret.Value.(*ast.NewExpr)
	if !ok {
		t.Fatalf("expected NewExpr, got %T", ret.Value)
	}
	if len(ne.Body) != 1 {
		t.Errorf("expected anonymous class body with 1 member, got %d", len(ne.Body))
	}
}

func TestParseArrayCreationAndInitializer(t *testing.T) {
	file := parseFile(t, `class C {
		void f() {
			int[] a = new int[10];
			int[] b = {1, 2, 3};
			int[][] c = new int[2][3];
		}
	}`)
	body := file.Decls[0].(*ast.ClassDecl).Methods[0].Body
	first := body.Stmts[0].(*ast.LocalVarDecl).Init.(*ast.NewArrayExpr)
	if len(first.Dims) != 1 {
		t.Errorf("expected 1 dimension, got %d", len(first.Dims))
	}
	second := body.Stmts[1].(*ast.LocalVarDecl).Init.(*ast.NewArrayExpr)
	if len(second.Init) != 3 {
		t.Errorf("expected 3 initializer elements, got %d", len(second.Init))
	}
	third := body.Stmts[2].(*ast.LocalVarDecl).Init.(*ast.NewArrayExpr)
	if len(third.Dims) != 2 {
		t.Errorf("expected 2 dimensions, got %d", len(third.Dims))
	}
}

func TestParseAnnotations(t *testing.T) {
	file := parseFile(t, `
		@Deprecated
		class Widget {
			@SuppressWarnings("unchecked")
			void run(@Deprecated int x, int y) {}
		}`)

	class := file.Decls[0].(*ast.ClassDecl)
	if len(class.Annotations) != 1 || class.Annotations[0].Name != "Deprecated" {
		t.Fatalf("class annotations = %+v", class.Annotations)
	}

	method := class.Methods[0]
	if len(method.Annotations) != 1 || method.Annotations[0].Name != "SuppressWarnings" {
		t.Fatalf("method annotations = %+v", method.Annotations)
	}
	val := method.Annotations[0].Values
	if len(val) != 1 || val[0].Name != "" {
		t.Fatalf("expected single unnamed element value, got %+v", val)
	}
	str, ok := val[0].Value.(*ast.StringLiteral)
	if !ok || str.Value != "unchecked" {
		t.Errorf("element value = %+v", val[0].Value)
	}

	if len(method.Params[0].Annotations) != 1 || method.Params[0].Annotations[0].Name != "Deprecated" {
		t.Errorf("param 0 annotations = %+v", method.Params[0].Annotations)
	}
	if len(method.Params[1].Annotations) != 0 {
		t.Errorf("param 1 should carry no annotations, got %+v", method.Params[1].Annotations)
	}
}
