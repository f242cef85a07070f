package codegen

import (
	"fmt"

	"github.com/aoki-yuta/javac8/internal/ast"
	"github.com/aoki-yuta/javac8/internal/bctypes"
	"github.com/aoki-yuta/javac8/internal/classfile"
)

// samInfo describes one of the handful of java.util.function interfaces
// this compiler targets when it has to guess a lambda's or method
// reference's functional-interface type. Real target-type inference would
// read the assignment/parameter context the lambda appears in; lacking
// that machinery, arity and void-ness are used as a stand-in, the same
// shape of simplification this compiler already makes for try-with-resources.
type samInfo struct {
	owner  string
	method string
	desc   string // erased SAM descriptor, all reference types as Object
}

func inferSAM(arity int, isVoid bool) (samInfo, error) {
	switch {
	case arity == 0 && isVoid:
		return samInfo{"java/lang/Runnable", "run", "()V"}, nil
	case arity == 0 && !isVoid:
		return samInfo{"java/util/function/Supplier", "get", "()Ljava/lang/Object;"}, nil
	case arity == 1 && isVoid:
		return samInfo{"java/util/function/Consumer", "accept", "(Ljava/lang/Object;)V"}, nil
	case arity == 1 && !isVoid:
		return samInfo{"java/util/function/Function", "apply", "(Ljava/lang/Object;)Ljava/lang/Object;"}, nil
	case arity == 2 && isVoid:
		return samInfo{"java/util/function/BiConsumer", "accept", "(Ljava/lang/Object;Ljava/lang/Object;)V"}, nil
	case arity == 2 && !isVoid:
		return samInfo{"java/util/function/BiFunction", "apply", "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;"}, nil
	default:
		return samInfo{}, fmt.Errorf("codegen: cannot infer a functional interface for arity %d", arity)
	}
}

const (
	refInvokeStatic    uint8 = 6
	refInvokeVirtual    uint8 = 5
	refInvokeSpecial    uint8 = 7
	refNewInvokeSpecial uint8 = 8
)

// emitInvokeDynamic wires a BootstrapMethods entry for LambdaMetafactory
// and emits the invokedynamic instruction itself. Any captured values the
// call site needs (a bound method reference's receiver) must already be
// pushed on the stack by the caller, in order, with their types given in
// capturedTypes.
func (mc *methodCtx) emitInvokeDynamic(sam samInfo, capturedTypes []bctypes.Type, implKind uint8, implOwner, implName, implDesc string) bctypes.Type {
	pool := mc.b.Pool()
	const lambdaMetafactory = "java/lang/invoke/LambdaMetafactory"
	const metafactoryDesc = "(Ljava/lang/invoke/MethodHandles$Lookup;Ljava/lang/String;Ljava/lang/invoke/MethodType;" +
		"Ljava/lang/invoke/MethodType;Ljava/lang/invoke/MethodHandle;Ljava/lang/invoke/MethodType;)Ljava/lang/invoke/CallSite;"

	bootstrapHandle := pool.MethodHandle(refInvokeStatic, pool.Methodref(lambdaMetafactory, "metafactory", metafactoryDesc))
	samMethodType := pool.MethodType(sam.desc)
	implHandle := pool.MethodHandle(implKind, pool.Methodref(implOwner, implName, implDesc))
	instantiatedMethodType := pool.MethodType(sam.desc)

	bm := classfile.BootstrapMethod{
		MethodRefIdx: bootstrapHandle,
		Arguments:    []uint16{samMethodType, implHandle, instantiatedMethodType},
	}
	bmIdx := mc.class.addBootstrapMethod(bm)

	indyDesc := bctypes.MethodDescriptor(capturedTypes, bctypes.Reference(sam.owner))
	mc.b.InvokeDynamic(bmIdx, sam.method, indyDesc, capturedTypes, bctypes.Reference(sam.owner))
	return bctypes.Reference(sam.owner)
}

// compileLambda synthesizes a private static method holding the lambda's
// body and binds it to a heuristically inferred functional interface via
// invokedynamic. Captured locals are not supported: the synthesized
// method only ever sees its own declared parameters.
func (mc *methodCtx) compileLambda(x *ast.LambdaExpr) bctypes.Type {
	isVoid := true
	var bodyType bctypes.Type
	if x.ExprBody != nil {
		isVoid = false
		bodyType = mc.typeOfExprInNewScope(x)
	} else if x.BlockBody != nil {
		isVoid = !blockReturnsValue(x.BlockBody)
	}

	sam, err := inferSAM(len(x.Params), isVoid)
	if err != nil {
		mc.addErr(err)
		return bctypes.ObjectType
	}

	implParams := make([]bctypes.Type, len(x.Params))
	for i, p := range x.Params {
		if p.Type != nil {
			implParams[i] = mc.resolveType(p.Type)
		} else {
			implParams[i] = bctypes.ObjectType
		}
	}
	implReturn := bctypes.Void
	if !isVoid {
		implReturn = bodyType
	}

	implName := mc.nextLambdaName()
	lambdaCtx := newMethodCtx(mc.class, true, implReturn)
	for i, p := range x.Params {
		lambdaCtx.declareParam(p.Name, implParams[i])
	}

	switch {
	case x.ExprBody != nil:
		vt := lambdaCtx.compileExpr(x.ExprBody)
		adapted := lambdaCtx.adaptTo(vt, implReturn)
		lambdaCtx.b.Return(adapted)
	case x.BlockBody != nil:
		lambdaCtx.addErr(fmt.Errorf("codegen: block-bodied lambdas are not yet supported"))
		lambdaCtx.b.Return(implReturn)
	default:
		lambdaCtx.b.Return(implReturn)
	}

	code := lambdaCtx.b.Finish()
	implDesc := bctypes.MethodDescriptor(implParams, implReturn)
	pool := mc.class.class.Pool
	method := &classfile.Method{
		AccessFlags: classfile.AccPrivate | classfile.AccStatic | classfile.AccSynthetic,
		NameIdx:     pool.Utf8(implName),
		DescIdx:     pool.Utf8(implDesc),
		Attributes:  []classfile.Attribute{code},
	}
	mc.class.class.Methods = append(mc.class.class.Methods, method)

	return mc.emitInvokeDynamic(sam, nil, refInvokeStatic, mc.class.internalName, implName, implDesc)
}

// typeOfExprInNewScope infers an expression-bodied lambda's return type
// using the enclosing method's own resolver and field/class context; the
// lambda's own parameters aren't locals of the enclosing method, but since
// this compiler only supports captureless lambdas their declared types
// (or Object, if elided) are all typeOfExpr needs to know about names that
// happen to shadow an enclosing local.
func (mc *methodCtx) typeOfExprInNewScope(x *ast.LambdaExpr) bctypes.Type {
	tmp := &methodCtx{
		unit: mc.unit, class: mc.class, b: mc.b, resolver: mc.resolver,
		locals: map[string]localVar{}, isStatic: true, errs: mc.errs,
	}
	for i, p := range x.Params {
		t := bctypes.ObjectType
		if p.Type != nil {
			t = mc.resolveType(p.Type)
		}
		tmp.locals[p.Name] = localVar{slot: i, typ: t}
	}
	return tmp.typeOfExpr(x.ExprBody)
}

func blockReturnsValue(b *ast.BlockStmt) bool {
	for _, s := range b.Stmts {
		if rs, ok := s.(*ast.ReturnStmt); ok && rs.Value != nil {
			return true
		}
	}
	return false
}

// compileMethodRef lowers Class::method / expr::method / Class::new into
// an invokedynamic call site, the same way compileLambda does for an
// explicit lambda body; the method reference's target is simply used as
// the synthetic implementation method instead of a freshly generated one.
func (mc *methodCtx) compileMethodRef(x *ast.MethodRefExpr) bctypes.Type {
	if x.Method == "new" {
		return mc.compileCtorRef(x)
	}
	if x.Recv != nil {
		return mc.compileBoundMethodRef(x)
	}
	return mc.compileUnboundMethodRef(x)
}

func (mc *methodCtx) compileCtorRef(x *ast.MethodRefExpr) bctypes.Type {
	target := mc.resolveType(x.Class)
	cand, err := mc.resolver.FindConstructor(target.ClassName(), nil)
	if err != nil || cand == nil {
		mc.addErr(fmt.Errorf("cannot resolve a no-arg constructor reference for %s: %v", target.ClassName(), err))
		return bctypes.ObjectType
	}
	sam, err := inferSAM(len(cand.Method.Params), false)
	if err != nil {
		mc.addErr(err)
		return bctypes.ObjectType
	}
	implDesc := bctypes.MethodDescriptor(cand.Method.Params, bctypes.Void)
	return mc.emitInvokeDynamic(sam, nil, refNewInvokeSpecial, target.ClassName(), "<init>", implDesc)
}

// compileBoundMethodRef lowers "expr::method", capturing expr's value as
// the invokedynamic call site's single bound argument.
func (mc *methodCtx) compileBoundMethodRef(x *ast.MethodRefExpr) bctypes.Type {
	recvType := mc.compileExpr(x.Recv)
	cand, err := mc.resolver.FindMethod(recvType.ClassName(), x.Method, nil)
	if err != nil || cand == nil {
		mc.addErr(fmt.Errorf("cannot resolve method reference %s::%s: %v", recvType.ClassName(), x.Method, err))
		return bctypes.ObjectType
	}
	sam, err := inferSAM(len(cand.Method.Params), cand.Method.Return.IsVoid())
	if err != nil {
		mc.addErr(err)
		return bctypes.ObjectType
	}
	implDesc := bctypes.MethodDescriptor(cand.Method.Params, cand.Method.Return)
	kind := refInvokeVirtual
	if cand.Method.AccessFlags&classfile.AccPrivate != 0 {
		kind = refInvokeSpecial
	}
	return mc.emitInvokeDynamic(sam, []bctypes.Type{recvType}, kind, cand.Owner, x.Method, implDesc)
}

// compileUnboundMethodRef lowers "Type::method" where method is an
// instance method: the SAM's first parameter supplies the receiver, so
// the inferred SAM's arity is one more than the target method's own.
func (mc *methodCtx) compileUnboundMethodRef(x *ast.MethodRefExpr) bctypes.Type {
	target := mc.resolveType(x.Class)
	cand, err := mc.resolver.FindMethod(target.ClassName(), x.Method, nil)
	if err != nil || cand == nil {
		mc.addErr(fmt.Errorf("cannot resolve method reference %s::%s: %v", target.ClassName(), x.Method, err))
		return bctypes.ObjectType
	}
	if cand.Method.AccessFlags&classfile.AccStatic != 0 {
		sam, err := inferSAM(len(cand.Method.Params), cand.Method.Return.IsVoid())
		if err != nil {
			mc.addErr(err)
			return bctypes.ObjectType
		}
		implDesc := bctypes.MethodDescriptor(cand.Method.Params, cand.Method.Return)
		return mc.emitInvokeDynamic(sam, nil, refInvokeStatic, cand.Owner, x.Method, implDesc)
	}
	sam, err := inferSAM(len(cand.Method.Params)+1, cand.Method.Return.IsVoid())
	if err != nil {
		mc.addErr(err)
		return bctypes.ObjectType
	}
	implDesc := bctypes.MethodDescriptor(cand.Method.Params, cand.Method.Return)
	return mc.emitInvokeDynamic(sam, nil, refInvokeVirtual, cand.Owner, x.Method, implDesc)
}
