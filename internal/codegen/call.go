package codegen

import (
	"fmt"

	"github.com/aoki-yuta/javac8/internal/ast"
	"github.com/aoki-yuta/javac8/internal/bctypes"
	"github.com/aoki-yuta/javac8/internal/classfile"
)

// compileCall handles an ordinary method call. Explicit constructor
// delegation ("this(...)"/"super(...)" as a constructor's first
// statement) is recognized and compiled separately by the constructor
// body compiler, not through this path.
func (mc *methodCtx) compileCall(x *ast.CallExpr) bctypes.Type {
	var recvClass string
	pushedReceiver := false
	isSuperCall := false

	switch {
	case x.Recv == nil:
		recvClass = mc.class.internalName
	default:
		if _, ok := x.Recv.(*ast.SuperExpr); ok {
			mc.b.Load(0, mc.thisType)
			recvClass = mc.superType().ClassName()
			pushedReceiver = true
			isSuperCall = true
		} else if className, ok := mc.classNameOfExpr(x.Recv); ok {
			recvClass = className
		} else {
			recvType := mc.compileExpr(x.Recv)
			recvClass = recvType.ClassName()
			pushedReceiver = true
		}
	}

	argTypes := make([]bctypes.Type, len(x.Args))
	for i, a := range x.Args {
		argTypes[i] = mc.typeOfExpr(a)
	}

	cand, err := mc.resolver.FindMethod(recvClass, x.Method, argTypes)
	if err != nil || cand == nil {
		mc.addErr(fmt.Errorf("cannot resolve method %s.%s: %v", recvClass, x.Method, err))
		return bctypes.ObjectType
	}

	isStaticMethod := cand.Method.AccessFlags&classfile.AccStatic != 0
	if !isStaticMethod && !pushedReceiver {
		if mc.isStatic {
			mc.addErr(fmt.Errorf("cannot call instance method %q from a static context", x.Method))
		} else {
			mc.b.Load(0, mc.thisType)
		}
	}

	params := cand.Method.Params
	mc.emitCallArgs(x.Args, params)

	desc := bctypes.MethodDescriptor(params, cand.Method.Return)
	switch {
	case isStaticMethod:
		mc.b.InvokeStatic(cand.Owner, x.Method, desc, params, cand.Method.Return)
	case isSuperCall, cand.Method.AccessFlags&classfile.AccPrivate != 0:
		mc.b.InvokeSpecial(cand.Owner, x.Method, desc, params, cand.Method.Return)
	default:
		if mc.ownerIsInterface(cand.Owner) {
			mc.b.InvokeInterface(cand.Owner, x.Method, desc, params, cand.Method.Return)
		} else {
			mc.b.InvokeVirtual(cand.Owner, x.Method, desc, params, cand.Method.Return)
		}
	}
	return cand.Method.Return
}

// emitCallArgs emits each argument's bytecode, adapting it to the matched
// overload's declared parameter type. When the argument count exceeds the
// parameter count and the last parameter is an array, the trailing
// arguments are packed into a freshly allocated array, the same calling
// convention javac itself generates for a varargs call site.
func (mc *methodCtx) emitCallArgs(args []ast.Expression, params []bctypes.Type) {
	fixed := len(params)
	varargs := false
	var elemType bctypes.Type
	if fixed > 0 && len(args) != fixed && params[fixed-1].IsArray() {
		varargs = true
		elemType = params[fixed-1].ComponentType()
		fixed--
	}
	for i := 0; i < fixed; i++ {
		vt := mc.compileExpr(args[i])
		mc.adaptTo(vt, params[i])
	}
	if !varargs {
		return
	}
	trailing := args[fixed:]
	mc.b.Iconst(int32(len(trailing)))
	mc.allocArray(elemType, 1)
	for i, a := range trailing {
		mc.b.Op(OpDup)
		mc.b.Iconst(int32(i))
		vt := mc.compileExpr(a)
		mc.adaptTo(vt, elemType)
		mc.b.ArrayStore(elemType)
	}
}

func (mc *methodCtx) ownerIsInterface(owner string) bool {
	rc, ok, err := mc.unit.gen.cp.Find(owner)
	if err != nil || !ok {
		return false
	}
	return rc.IsInterface()
}

// compileNew allocates and initializes a new instance. An anonymous class
// body (x.Body != nil) is reported as an unsupported-construct error; its
// member declarations are not compiled, and the code emitted still
// allocates the named type and invokes its own matching constructor.
func (mc *methodCtx) compileNew(x *ast.NewExpr) bctypes.Type {
	if x.Body != nil {
		mc.addErr(fmt.Errorf("codegen: anonymous class bodies are not yet supported"))
	}

	target := mc.resolveType(x.Type)
	argTypes := make([]bctypes.Type, len(x.Args))
	for i, a := range x.Args {
		argTypes[i] = mc.typeOfExpr(a)
	}
	cand, err := mc.resolver.FindConstructor(target.ClassName(), argTypes)
	if err != nil || cand == nil {
		mc.addErr(fmt.Errorf("cannot resolve constructor for %s: %v", target.ClassName(), err))
		return target
	}

	mc.b.New(target.ClassName())
	mc.b.Op(OpDup)
	params := cand.Method.Params
	mc.emitCallArgs(x.Args, params)
	desc := bctypes.MethodDescriptor(params, bctypes.Void)
	mc.b.InvokeSpecial(target.ClassName(), "<init>", desc, params, bctypes.Void)
	return target
}
