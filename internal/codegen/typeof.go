package codegen

import (
	"github.com/aoki-yuta/javac8/internal/ast"
	"github.com/aoki-yuta/javac8/internal/bctypes"
)

// typeOfExpr infers e's static type without emitting any bytecode. Binary
// numeric promotion and overload resolution both need an operand's type
// known ahead of compiling it, since the promotion/conversion opcode has
// to be chosen and emitted before the operand's own bytecode if it needs
// widening first, and because picking an overload has to happen before any
// argument bytecode is emitted.
func (mc *methodCtx) typeOfExpr(e ast.Expression) bctypes.Type {
	switch x := e.(type) {
	case *ast.IntLiteral:
		return bctypes.IntType
	case *ast.LongLiteral:
		return bctypes.LongType
	case *ast.FloatLiteral:
		return bctypes.FloatType
	case *ast.DoubleLiteral:
		return bctypes.DoubleType
	case *ast.BoolLiteral:
		return bctypes.BooleanType
	case *ast.CharLiteral:
		return bctypes.CharType
	case *ast.StringLiteral:
		return bctypes.StringType
	case *ast.NullLiteral:
		return bctypes.NullType
	case *ast.ThisExpr:
		return mc.thisType
	case *ast.SuperExpr:
		return mc.superType()
	case *ast.Identifier:
		if lv, ok := mc.lookupLocal(x.Name); ok {
			return lv.typ
		}
		if f, _, err := mc.resolver.FindField(mc.class.internalName, x.Name); err == nil && f != nil {
			return f.Type
		}
		return bctypes.ObjectType
	case *ast.FieldAccessExpr:
		if x.X == nil {
			return mc.typeOfExpr(&ast.Identifier{Name: x.Name})
		}
		if className, ok := mc.classNameOfExpr(x.X); ok {
			if f, _, err := mc.resolver.FindField(className, x.Name); err == nil && f != nil {
				return f.Type
			}
			return bctypes.ObjectType
		}
		recvType := mc.typeOfExpr(x.X)
		if f, _, err := mc.resolver.FindField(recvType.ClassName(), x.Name); err == nil && f != nil {
			return f.Type
		}
		return bctypes.ObjectType
	case *ast.IndexExpr:
		return mc.typeOfExpr(x.X).ComponentType()
	case *ast.BinaryExpr:
		switch x.Op {
		case "&&", "||", "==", "!=", "<", "<=", ">", ">=":
			return bctypes.BooleanType
		case "+":
			if mc.typeOfExpr(x.X).Equal(bctypes.StringType) || mc.typeOfExpr(x.Y).Equal(bctypes.StringType) {
				return bctypes.StringType
			}
		}
		tx, ty := mc.typeOfExpr(x.X), mc.typeOfExpr(x.Y)
		switch x.Op {
		case "&", "|", "^":
			if tx.Equal(bctypes.BooleanType) && ty.Equal(bctypes.BooleanType) {
				return bctypes.BooleanType
			}
		case "<<", ">>", ">>>":
			if categoryOf(tx) == catLong {
				return bctypes.LongType
			}
			return bctypes.IntType
		}
		return categoryType(widerCategory(categoryOf(tx), categoryOf(ty)))
	case *ast.UnaryExpr:
		switch x.Op {
		case "!":
			return bctypes.BooleanType
		default:
			return mc.typeOfExpr(x.X)
		}
	case *ast.AssignExpr:
		return mc.typeOfExpr(x.Target)
	case *ast.TernaryExpr:
		thenType := mc.typeOfExpr(x.Then)
		if thenType.IsPrimitive() {
			return thenType
		}
		return mc.typeOfExpr(x.Else)
	case *ast.CastExpr:
		return mc.resolveType(x.Type)
	case *ast.InstanceOfExpr:
		return bctypes.BooleanType
	case *ast.NewExpr:
		return mc.resolveType(x.Type)
	case *ast.NewArrayExpr:
		elem := mc.resolveType(x.ElemType)
		dims := len(x.Dims)
		if dims == 0 {
			dims = 1
		}
		return bctypes.Array(elem, dims)
	case *ast.CallExpr:
		return mc.typeOfCall(x)
	case *ast.MethodRefExpr, *ast.LambdaExpr:
		return bctypes.ObjectType
	default:
		return bctypes.ObjectType
	}
}

func (mc *methodCtx) typeOfCall(x *ast.CallExpr) bctypes.Type {
	argTypes := make([]bctypes.Type, len(x.Args))
	for i, a := range x.Args {
		argTypes[i] = mc.typeOfExpr(a)
	}
	var recvClass string
	switch {
	case x.Recv == nil:
		recvClass = mc.class.internalName
	default:
		if className, ok := mc.classNameOfExpr(x.Recv); ok {
			recvClass = className
		} else {
			recvClass = mc.typeOfExpr(x.Recv).ClassName()
		}
	}
	cand, err := mc.resolver.FindMethod(recvClass, x.Method, argTypes)
	if err != nil || cand == nil {
		return bctypes.ObjectType
	}
	return cand.Method.Return
}
