package codegen

import (
	"fmt"
	"strings"

	"github.com/aoki-yuta/javac8/internal/ast"
	"github.com/aoki-yuta/javac8/internal/bctypes"
	"github.com/aoki-yuta/javac8/internal/classfile"
)

// assignTarget names an assignable location. Any prefix bytecode the
// location needs (a receiver for an instance field, an arrayref+index pair
// for an array element) is already emitted by the time resolveTarget
// returns one, since an arbitrary receiver expression can only safely be
// evaluated once.
type assignTarget struct {
	isLocal  bool
	local    localVar
	isStatic bool
	isArray  bool
	owner    string // field/array owner's internal name, when relevant
	name     string
	typ      bctypes.Type
	elemType bctypes.Type
}

// baseWidth is how many stack words of context (receiver, or
// arrayref+index) sit beneath this target's value on the stack. Locals and
// static fields need none; an instance field needs one word (the
// receiver); an array element needs two (arrayref, index).
func (t assignTarget) baseWidth() int {
	switch {
	case t.isLocal, t.isStatic:
		return 0
	case t.isArray:
		return 2
	default:
		return 1
	}
}

func (mc *methodCtx) resolveTarget(e ast.Expression) assignTarget {
	switch x := e.(type) {
	case *ast.Identifier:
		return mc.resolveNameTarget(x.Name)
	case *ast.FieldAccessExpr:
		if x.X == nil {
			return mc.resolveNameTarget(x.Name)
		}
		if className, ok := mc.classNameOfExpr(x.X); ok {
			return mc.resolveFieldTarget(className, x.Name)
		}
		recvType := mc.compileExpr(x.X)
		f, owner, err := mc.resolver.FindField(recvType.ClassName(), x.Name)
		if err != nil || f == nil {
			mc.addErr(fmt.Errorf("cannot resolve field %q on %s", x.Name, recvType.ClassName()))
			return assignTarget{typ: bctypes.ObjectType}
		}
		return assignTarget{owner: owner, name: f.Name, typ: f.Type}
	case *ast.IndexExpr:
		arrType := mc.compileExpr(x.X)
		mc.compileExpr(x.Index)
		return assignTarget{isArray: true, elemType: arrType.ComponentType()}
	default:
		mc.addErr(fmt.Errorf("codegen: expression %T is not assignable", e))
		return assignTarget{typ: bctypes.ObjectType}
	}
}

func (mc *methodCtx) resolveNameTarget(name string) assignTarget {
	if lv, ok := mc.lookupLocal(name); ok {
		return assignTarget{isLocal: true, local: lv, typ: lv.typ}
	}
	return mc.resolveFieldTarget(mc.class.internalName, name)
}

// resolveFieldTarget resolves name as a field of class, pushing an "this"
// receiver now if it turns out to be an instance field looked up against
// the current class itself (the only case where the receiver isn't
// already sitting on the stack from evaluating some other expression).
func (mc *methodCtx) resolveFieldTarget(class, name string) assignTarget {
	f, owner, err := mc.resolver.FindField(class, name)
	if err != nil || f == nil {
		mc.addErr(fmt.Errorf("cannot resolve field %q on %s", name, class))
		return assignTarget{typ: bctypes.ObjectType}
	}
	if f.AccessFlags&classfile.AccStatic != 0 {
		return assignTarget{isStatic: true, owner: owner, name: f.Name, typ: f.Type}
	}
	if class == mc.class.internalName {
		if mc.isStatic {
			mc.addErr(fmt.Errorf("cannot access instance field %q from a static context", name))
		} else {
			mc.b.Load(0, mc.thisType)
		}
	}
	return assignTarget{owner: owner, name: f.Name, typ: f.Type}
}

// loadCurrent pushes the target's current value, preserving whatever base
// (receiver, or arrayref+index) the target needs by duplicating it first.
func (mc *methodCtx) loadCurrent(t assignTarget) bctypes.Type {
	switch {
	case t.isLocal:
		mc.b.Load(t.local.slot, t.typ)
		return t.typ
	case t.isStatic:
		mc.b.GetStatic(t.owner, t.name, t.typ)
		return t.typ
	case t.isArray:
		mc.b.Op(OpDup2)
		mc.b.ArrayLoad(t.elemType)
		return t.elemType
	default:
		mc.b.Op(OpDup)
		mc.b.GetField(t.owner, t.name, t.typ)
		return t.typ
	}
}

// storeNew stores the value now on top of the stack (of stack category
// valueCat) into the target. When leaveAsResult is set, the value is
// duplicated first so it remains as the assignment expression's result
// after the store consumes the original.
func (mc *methodCtx) storeNew(t assignTarget, leaveAsResult bool, valueCat int) {
	if leaveAsResult {
		bw := t.baseWidth()
		if bw == 0 {
			mc.dupCat(valueCat)
		} else {
			mc.dupInsertBelow(valueCat, bw)
		}
	}
	switch {
	case t.isLocal:
		mc.b.Store(t.local.slot, t.typ)
	case t.isStatic:
		mc.b.PutStatic(t.owner, t.name, t.typ)
	case t.isArray:
		mc.b.ArrayStore(t.elemType)
	default:
		mc.b.PutField(t.owner, t.name, t.typ)
	}
}

func (mc *methodCtx) dupCat(cat int) {
	if cat == 2 {
		mc.b.Op(OpDup2)
	} else {
		mc.b.Op(OpDup)
	}
}

// dupInsertBelow duplicates the top value (valueCat stack words) and
// inserts the duplicate baseWidth words down, the general form of the
// dup_x1/dup2_x1/dup_x2/dup2_x2 family javac itself relies on for
// increment and compound-assignment expressions whose result must survive
// a store that consumes the receiver or array index beneath it.
func (mc *methodCtx) dupInsertBelow(valueCat, baseWidth int) {
	switch {
	case valueCat == 1 && baseWidth == 1:
		mc.b.Op(OpDupX1)
	case valueCat == 2 && baseWidth == 1:
		mc.b.Op(OpDup2X1)
	case valueCat == 1 && baseWidth == 2:
		mc.b.Op(OpDupX2)
	case valueCat == 2 && baseWidth == 2:
		mc.b.Op(OpDup2X2)
	}
}

// classNameOfExpr tries to read e as a (possibly qualified) class name
// rather than a value-producing expression, resolving the "Foo.bar"
// ambiguity between a static member access and an instance member access
// through a local or field named Foo.
func (mc *methodCtx) classNameOfExpr(e ast.Expression) (string, bool) {
	switch x := e.(type) {
	case *ast.Identifier:
		if _, ok := mc.lookupLocal(x.Name); ok {
			return "", false
		}
		if f, _, err := mc.resolver.FindField(mc.class.internalName, x.Name); err == nil && f != nil {
			return "", false
		}
		if internal, ok, err := mc.resolver.ResolveClassName(x.Name); err == nil && ok {
			return internal, true
		}
		return "", false
	case *ast.FieldAccessExpr:
		if x.X == nil {
			return mc.classNameOfExpr(&ast.Identifier{Name: x.Name})
		}
		base, ok := mc.classNameOfExpr(x.X)
		if !ok {
			return "", false
		}
		joined := strings.ReplaceAll(base, "/", ".") + "." + x.Name
		if internal, ok, err := mc.resolver.ResolveClassName(joined); err == nil && ok {
			return internal, true
		}
		return "", false
	default:
		return "", false
	}
}
