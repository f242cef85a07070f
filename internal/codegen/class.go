// Body compilation for a declared class, interface, or enum: constructor
// delegation and field initializers, instance and default method bodies,
// and the static initializer a class's static field initializers (or an
// enum's constant table) compile into.
package codegen

import (
	"fmt"

	"github.com/aoki-yuta/javac8/internal/ast"
	"github.com/aoki-yuta/javac8/internal/bctypes"
)

// splitFieldInits partitions a declaration's fields into those with a
// static initializer (destined for <clinit>) and those with an instance
// initializer (destined for every constructor, after the super/this
// delegation call). Fields with no initializer are dropped.
func splitFieldInits(fields []*ast.FieldDecl) (staticInits, instanceInits []*ast.FieldDecl) {
	for _, f := range fields {
		if f.Init == nil {
			continue
		}
		if f.Modifiers.Has(ast.ModStatic) {
			staticInits = append(staticInits, f)
		} else {
			instanceInits = append(instanceInits, f)
		}
	}
	return
}

func (mc *methodCtx) declareParams(params []ast.Param) {
	for _, p := range params {
		mc.declareParam(p.Name, mc.resolveType(p.Type))
	}
}

// compileInstanceInits runs each instance field's initializer against the
// already-loaded `this`, in declaration order, the way javac splices field
// initializers into every constructor right after the super/this call.
func (mc *methodCtx) compileInstanceInits(fields []*ast.FieldDecl) {
	for _, f := range fields {
		rf, owner, err := mc.resolver.FindField(mc.class.internalName, f.Name)
		if err != nil || rf == nil {
			mc.addErr(fmt.Errorf("cannot resolve field %q for initializer", f.Name))
			continue
		}
		mc.b.Load(0, mc.thisType)
		vt := mc.compileExpr(f.Init)
		mc.adaptTo(vt, rf.Type)
		mc.b.PutField(owner, rf.Name, rf.Type)
	}
}

// compileStaticInits runs each static field's initializer in declaration
// order, writing through PutStatic. Used directly by <clinit> bodies.
func (mc *methodCtx) compileStaticInits(fields []*ast.FieldDecl) {
	for _, f := range fields {
		rf, owner, err := mc.resolver.FindField(mc.class.internalName, f.Name)
		if err != nil || rf == nil {
			mc.addErr(fmt.Errorf("cannot resolve field %q for initializer", f.Name))
			continue
		}
		vt := mc.compileExpr(f.Init)
		mc.adaptTo(vt, rf.Type)
		mc.b.PutStatic(owner, rf.Name, rf.Type)
	}
}

// leadingDelegationCall reports whether stmts opens with an explicit
// this(...) or super(...) constructor delegation, as parsed: both forms are
// an *ast.ExprStmt wrapping an *ast.CallExpr{Method: "<init>"}, this(...)
// with a nil receiver and super(...) with an *ast.SuperExpr receiver.
func leadingDelegationCall(stmts []ast.Statement) (call *ast.CallExpr, isThis bool, ok bool) {
	if len(stmts) == 0 {
		return nil, false, false
	}
	es, isExpr := stmts[0].(*ast.ExprStmt)
	if !isExpr {
		return nil, false, false
	}
	c, isCall := es.X.(*ast.CallExpr)
	if !isCall || c.Method != "<init>" {
		return nil, false, false
	}
	_, isSuper := c.Recv.(*ast.SuperExpr)
	return c, !isSuper, true
}

// compileDelegationCall emits an explicit this(...)/super(...) call: load
// this, evaluate and adapt the arguments against the resolved overload,
// invokespecial the target constructor.
func (mc *methodCtx) compileDelegationCall(call *ast.CallExpr, isThis bool) {
	target := mc.class.internalName
	if !isThis {
		target = mc.superType().ClassName()
	}
	argTypes := make([]bctypes.Type, len(call.Args))
	for i, a := range call.Args {
		argTypes[i] = mc.typeOfExpr(a)
	}
	cand, err := mc.resolver.FindConstructor(target, argTypes)
	if err != nil || cand == nil {
		mc.addErr(fmt.Errorf("cannot resolve constructor %s(...): %v", target, err))
		return
	}
	mc.b.Load(0, mc.thisType)
	params := cand.Method.Params
	mc.emitCallArgs(call.Args, params)
	desc := bctypes.MethodDescriptor(params, bctypes.Void)
	mc.b.InvokeSpecial(cand.Owner, "<init>", desc, params, bctypes.Void)
}

// compileImplicitSuperCall emits the no-arg super() call javac inserts
// when a constructor opens with neither this(...) nor super(...).
func (mc *methodCtx) compileImplicitSuperCall() {
	superName := mc.superType().ClassName()
	cand, err := mc.resolver.FindConstructor(superName, nil)
	if err != nil || cand == nil {
		mc.addErr(fmt.Errorf("cannot resolve no-arg constructor on %s: %v", superName, err))
		return
	}
	mc.b.Load(0, mc.thisType)
	mc.b.InvokeSpecial(cand.Owner, "<init>", "()V", nil, bctypes.Void)
}

// compileConstructor compiles one user-written constructor: the explicit
// or implicit super/this delegation, then (unless delegating to this(...),
// which already ran them once) the instance field initializers, then the
// rest of the written body.
func (u *Unit) compileConstructor(pc *pendingClass, ctor *ast.MethodDecl, instanceInits []*ast.FieldDecl) {
	method := pc.methodByDecl[ctor]
	if method == nil {
		u.addErr(fmt.Errorf("codegen: no declared method slot for %s.<init>", pc.internalName))
		return
	}
	mc := newMethodCtx(pc, false, bctypes.Void)
	mc.declareParams(ctor.Params)

	stmts := ctor.Body.Stmts
	if call, isThis, ok := leadingDelegationCall(stmts); ok {
		mc.compileDelegationCall(call, isThis)
		stmts = stmts[1:]
		if !isThis {
			mc.compileInstanceInits(instanceInits)
		}
	} else {
		mc.compileImplicitSuperCall()
		mc.compileInstanceInits(instanceInits)
	}

	for _, s := range stmts {
		mc.compileStmt(s)
	}
	mc.b.Return(bctypes.Void)
	method.Attributes = append(method.Attributes, mc.b.Finish())
}

// compileImplicitConstructor compiles the no-arg constructor javac
// synthesizes for a class that declares none: super(), then the instance
// field initializers, then nothing else.
func (u *Unit) compileImplicitConstructor(pc *pendingClass, instanceInits []*ast.FieldDecl) {
	method := pc.implicitCtor
	mc := newMethodCtx(pc, false, bctypes.Void)
	mc.compileImplicitSuperCall()
	mc.compileInstanceInits(instanceInits)
	mc.b.Return(bctypes.Void)
	method.Attributes = append(method.Attributes, mc.b.Finish())
}

// compileMethodBody compiles one ordinary instance, static, or interface
// default method body.
func (u *Unit) compileMethodBody(pc *pendingClass, m *ast.MethodDecl) {
	method := pc.methodByDecl[m]
	if method == nil {
		u.addErr(fmt.Errorf("codegen: no declared method slot for %s.%s", pc.internalName, m.Name))
		return
	}
	isStatic := m.Modifiers.Has(ast.ModStatic)
	returnType := bctypes.Void
	if m.ReturnType != nil {
		t, err := u.resolveType(m.ReturnType)
		if err != nil {
			u.addErr(err)
		} else {
			returnType = t
		}
	}
	mc := newMethodCtx(pc, isStatic, returnType)
	mc.declareParams(m.Params)
	mc.compileBlock(m.Body)
	if returnType.IsVoid() {
		mc.b.Return(bctypes.Void)
	}
	method.Attributes = append(method.Attributes, mc.b.Finish())
}

// compileStaticInitializer compiles a plain class or interface's <clinit>,
// creating the method slot on demand since only an enum pre-declares one.
func (u *Unit) compileStaticInitializer(pc *pendingClass, staticInits []*ast.FieldDecl) {
	method := pc.getOrCreateClinit()
	mc := newMethodCtx(pc, true, bctypes.Void)
	mc.compileStaticInits(staticInits)
	mc.b.Return(bctypes.Void)
	method.Attributes = append(method.Attributes, mc.b.Finish())
}

// compileClassBody compiles every constructor (explicit, or the single
// implicit one), every method with a body, and a <clinit> when the class
// has static field initializers.
func (u *Unit) compileClassBody(pc *pendingClass, d *ast.ClassDecl) {
	staticInits, instanceInits := splitFieldInits(d.Fields)

	if len(d.Constructors) == 0 {
		u.compileImplicitConstructor(pc, instanceInits)
	} else {
		for _, ctor := range d.Constructors {
			u.compileConstructor(pc, ctor, instanceInits)
		}
	}

	for _, m := range d.Methods {
		if m.Body != nil {
			u.compileMethodBody(pc, m)
		}
	}

	if len(staticInits) > 0 {
		u.compileStaticInitializer(pc, staticInits)
	}

	pc.attachBootstrapMethods()
}

// compileInterfaceBody compiles every default method body and, when any of
// the interface's implicitly public-static-final fields carry an
// initializer, a <clinit> for them.
func (u *Unit) compileInterfaceBody(pc *pendingClass, d *ast.InterfaceDecl) {
	staticInits, _ := splitFieldInits(d.Fields)

	for _, m := range d.Methods {
		if m.Body != nil {
			u.compileMethodBody(pc, m)
		}
	}

	if len(staticInits) > 0 {
		u.compileStaticInitializer(pc, staticInits)
	}

	pc.attachBootstrapMethods()
}

// compileEnumConstructor compiles the synthetic (String,int[,explicit])V
// constructor: an invokespecial to java/lang/Enum's own (String,int)V
// constructor, the enum's instance field initializers, then the body of
// the source constructor the user wrote (if any) under its own declared
// parameter names, shifted two slots past the synthetic name/ordinal pair.
func (u *Unit) compileEnumConstructor(pc *pendingClass, d *ast.EnumDecl) {
	method := pc.implicitCtor
	mc := newMethodCtx(pc, false, bctypes.Void)
	mc.declareParam("$name", bctypes.StringType)
	mc.declareParam("$ordinal", bctypes.IntType)

	var userCtor *ast.MethodDecl
	if len(d.Constructors) > 0 {
		userCtor = d.Constructors[0]
		for _, p := range userCtor.Params {
			mc.declareParam(p.Name, mc.resolveType(p.Type))
		}
	}

	mc.b.Load(0, mc.thisType)
	mc.b.Load(1, bctypes.StringType)
	mc.b.Load(2, bctypes.IntType)
	mc.b.InvokeSpecial("java/lang/Enum", "<init>", "(Ljava/lang/String;I)V",
		[]bctypes.Type{bctypes.StringType, bctypes.IntType}, bctypes.Void)

	_, instanceInits := splitFieldInits(d.Fields)
	mc.compileInstanceInits(instanceInits)

	if userCtor != nil && userCtor.Body != nil {
		for _, s := range userCtor.Body.Stmts {
			mc.compileStmt(s)
		}
	}

	mc.b.Return(bctypes.Void)
	method.Attributes = append(method.Attributes, mc.b.Finish())
}

// compileEnumClinit builds the enum's <clinit>: one `new` plus constructor
// call per constant (against its constant-specific subclass when it has a
// body, the enum class itself otherwise), the $VALUES array those
// instances are collected into, then any other static field initializers
// in declaration order.
func (u *Unit) compileEnumClinit(pc *pendingClass, d *ast.EnumDecl, enumType, arrayType bctypes.Type) {
	method := pc.getOrCreateClinit()
	mc := newMethodCtx(pc, true, bctypes.Void)

	explicitParamTypes := enumExplicitCtorParams(u, d)
	ctorParams := append([]bctypes.Type{bctypes.StringType, bctypes.IntType}, explicitParamTypes...)
	ctorDesc := bctypes.MethodDescriptor(ctorParams, bctypes.Void)

	for i := range d.Constants {
		c := &d.Constants[i]
		ownerClass := pc.internalName
		if sub, ok := u.enumConstantType[c]; ok {
			ownerClass = sub
		}
		mc.b.New(ownerClass)
		mc.b.Op(OpDup)
		mc.b.Ldc(mc.b.Pool().String(c.Name))
		mc.b.Iconst(int32(i))
		for j, a := range c.Args {
			vt := mc.compileExpr(a)
			if j < len(explicitParamTypes) {
				mc.adaptTo(vt, explicitParamTypes[j])
			}
		}
		mc.b.InvokeSpecial(ownerClass, "<init>", ctorDesc, ctorParams, bctypes.Void)
		mc.b.PutStatic(pc.internalName, c.Name, enumType)
	}

	mc.b.Iconst(int32(len(d.Constants)))
	mc.allocArray(enumType, 1)
	for i := range d.Constants {
		c := &d.Constants[i]
		mc.b.Op(OpDup)
		mc.b.Iconst(int32(i))
		mc.b.GetStatic(pc.internalName, c.Name, enumType)
		mc.b.ArrayStore(enumType)
	}
	mc.b.PutStatic(pc.internalName, "$VALUES", arrayType)

	staticInits, _ := splitFieldInits(d.Fields)
	mc.compileStaticInits(staticInits)

	mc.b.Return(bctypes.Void)
	method.Attributes = append(method.Attributes, mc.b.Finish())
}

// compileEnumValues compiles values(): return (T[]) $VALUES.clone().
func (u *Unit) compileEnumValues(pc *pendingClass, arrayType bctypes.Type) {
	method := findMethodByName(pc, "values")
	if method == nil {
		u.addErr(fmt.Errorf("codegen: %s: missing values() method slot", pc.internalName))
		return
	}
	mc := newMethodCtx(pc, true, arrayType)
	mc.b.GetStatic(pc.internalName, "$VALUES", arrayType)
	mc.b.InvokeVirtual(arrayType.Descriptor(), "clone", "()Ljava/lang/Object;", nil, bctypes.ObjectType)
	mc.b.Checkcast(arrayType.Descriptor())
	mc.b.Return(arrayType)
	method.Attributes = append(method.Attributes, mc.b.Finish())
}

// compileEnumValueOf compiles valueOf(String): return (T) Enum.valueOf(T.class, name).
func (u *Unit) compileEnumValueOf(pc *pendingClass, enumType bctypes.Type) {
	method := findMethodByName(pc, "valueOf")
	if method == nil {
		u.addErr(fmt.Errorf("codegen: %s: missing valueOf(String) method slot", pc.internalName))
		return
	}
	mc := newMethodCtx(pc, true, enumType)
	mc.declareParam("name", bctypes.StringType)
	mc.b.Ldc(mc.b.Pool().Class(pc.internalName))
	mc.b.Load(0, bctypes.StringType)
	mc.b.InvokeStatic("java/lang/Enum", "valueOf", "(Ljava/lang/Class;Ljava/lang/String;)Ljava/lang/Enum;",
		[]bctypes.Type{bctypes.Reference("java/lang/Class"), bctypes.StringType}, bctypes.Reference("java/lang/Enum"))
	mc.b.Checkcast(pc.internalName)
	mc.b.Return(enumType)
	method.Attributes = append(method.Attributes, mc.b.Finish())
}

// compileEnumBody compiles an enum's synthetic constructor, <clinit>,
// values()/valueOf(String), and every user-declared method with a body.
func (u *Unit) compileEnumBody(pc *pendingClass, d *ast.EnumDecl) {
	enumType := bctypes.Reference(pc.internalName)
	arrayType := bctypes.Array(enumType, 1)

	u.compileEnumConstructor(pc, d)
	u.compileEnumClinit(pc, d, enumType, arrayType)
	u.compileEnumValues(pc, arrayType)
	u.compileEnumValueOf(pc, enumType)

	for _, m := range d.Methods {
		if m.Body != nil {
			u.compileMethodBody(pc, m)
		}
	}

	pc.attachBootstrapMethods()
}

// compileEnumConstantBody compiles the synthetic final subclass generated
// for an enum constant with a constant-specific body: its constructor just
// forwards name/ordinal up to the enum superclass, and its overriding
// methods compile like any other instance method.
func (u *Unit) compileEnumConstantBody(pc *pendingClass) {
	c := pc.constantBody
	method := pc.implicitCtor
	mc := newMethodCtx(pc, false, bctypes.Void)
	mc.declareParam("$name", bctypes.StringType)
	mc.declareParam("$ordinal", bctypes.IntType)
	mc.b.Load(0, mc.thisType)
	mc.b.Load(1, bctypes.StringType)
	mc.b.Load(2, bctypes.IntType)
	mc.b.InvokeSpecial(pc.outerName, "<init>", "(Ljava/lang/String;I)V",
		[]bctypes.Type{bctypes.StringType, bctypes.IntType}, bctypes.Void)
	mc.b.Return(bctypes.Void)
	method.Attributes = append(method.Attributes, mc.b.Finish())

	for _, decl := range c.Body {
		m, ok := decl.(*ast.MethodDecl)
		if !ok || m.Body == nil {
			continue
		}
		u.compileMethodBody(pc, m)
	}
	pc.attachBootstrapMethods()
}
