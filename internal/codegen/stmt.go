package codegen

import (
	"fmt"
	"sort"

	"github.com/aoki-yuta/javac8/internal/ast"
	"github.com/aoki-yuta/javac8/internal/bcbuild"
	"github.com/aoki-yuta/javac8/internal/bctypes"
	"github.com/aoki-yuta/javac8/internal/classfile"
)

// compileStmt compiles one statement, leaving the operand stack exactly as
// it found it (every expression statement consumes its own value).
func (mc *methodCtx) compileStmt(s ast.Statement) {
	switch x := s.(type) {
	case *ast.BlockStmt:
		mc.compileBlock(x)
	case *ast.LocalVarDecl:
		mc.compileLocalVarDecl(x)
	case *ast.ExprStmt:
		mc.compileExpr(x.X)
		mc.popExprResult(x.X)
	case *ast.IfStmt:
		mc.compileIf(x)
	case *ast.WhileStmt:
		mc.compileWhile(x)
	case *ast.DoWhileStmt:
		mc.compileDoWhile(x)
	case *ast.ForStmt:
		mc.compileFor(x)
	case *ast.EnhancedForStmt:
		mc.compileEnhancedFor(x)
	case *ast.BreakStmt:
		mc.compileBreak(x)
	case *ast.ContinueStmt:
		mc.compileContinue(x)
	case *ast.ReturnStmt:
		mc.compileReturn(x)
	case *ast.ThrowStmt:
		mc.compileThrow(x)
	case *ast.TryStmt:
		mc.compileTry(x)
	case *ast.SwitchStmt:
		mc.compileSwitch(x)
	case *ast.LabeledStmt:
		mc.compileLabeled(x)
	case *ast.EmptyStmt:
		// nothing to emit
	default:
		mc.addErr(fmt.Errorf("codegen: unsupported statement %T", s))
	}
}

func (mc *methodCtx) compileBlock(b *ast.BlockStmt) {
	for _, s := range b.Stmts {
		mc.compileStmt(s)
	}
}

// popExprResult discards an expression statement's value. Only a handful
// of expression forms are legal as a standalone statement in Java
// (assignment, pre/post increment-decrement, method call, object
// creation), and only a void method call leaves nothing to discard.
func (mc *methodCtx) popExprResult(e ast.Expression) {
	switch x := e.(type) {
	case *ast.CallExpr:
		t := mc.typeOfExpr(x)
		if !t.IsVoid() {
			mc.b.Op(popOpFor(t.Category()))
		}
	case *ast.AssignExpr, *ast.NewExpr:
		mc.b.Op(popOpFor(mc.typeOfExpr(x).Category()))
	case *ast.UnaryExpr:
		switch x.Op {
		case "++pre", "++post", "--pre", "--post":
			mc.b.Op(popOpFor(mc.typeOfExpr(x).Category()))
		}
	}
}

func popOpFor(cat int) bcbuild.Op {
	if cat == 2 {
		return OpPop2
	}
	return OpPop
}

func (mc *methodCtx) compileLocalVarDecl(s *ast.LocalVarDecl) {
	t := mc.resolveType(s.Type)
	lv := mc.declareLocal(s.Name, t)
	if s.Init == nil {
		return
	}
	vt := mc.compileExpr(s.Init)
	adapted := mc.adaptTo(vt, t)
	mc.b.Store(lv.slot, adapted)
}

func (mc *methodCtx) compileIf(s *ast.IfStmt) {
	elseL := mc.b.NewLabel()
	mc.branchIfFalse(s.Cond, elseL)
	mc.compileStmt(s.Then)
	if s.Else == nil {
		mc.b.Bind(elseL)
		return
	}
	endL := mc.b.NewLabel()
	mc.b.Goto(endL)
	mc.b.Bind(elseL)
	mc.compileStmt(s.Else)
	mc.b.Bind(endL)
}

func (mc *methodCtx) compileWhile(s *ast.WhileStmt) {
	top := mc.b.NewLabel()
	end := mc.b.NewLabel()
	mc.b.Bind(top)
	mc.branchIfFalse(s.Cond, end)
	mc.pushLoopWithFinally(s.Label, end, top)
	mc.compileStmt(s.Body)
	mc.popLoop()
	mc.b.Goto(top)
	mc.b.Bind(end)
}

func (mc *methodCtx) compileDoWhile(s *ast.DoWhileStmt) {
	top := mc.b.NewLabel()
	continueL := mc.b.NewLabel()
	end := mc.b.NewLabel()
	mc.b.Bind(top)
	mc.pushLoopWithFinally(s.Label, end, continueL)
	mc.compileStmt(s.Body)
	mc.popLoop()
	mc.b.Bind(continueL)
	mc.branchIfTrue(s.Cond, top)
	mc.b.Bind(end)
}

func (mc *methodCtx) compileFor(s *ast.ForStmt) {
	for _, init := range s.Init {
		mc.compileStmt(init)
	}
	top := mc.b.NewLabel()
	continueL := mc.b.NewLabel()
	end := mc.b.NewLabel()
	mc.b.Bind(top)
	if s.Cond != nil {
		mc.branchIfFalse(s.Cond, end)
	}
	mc.pushLoopWithFinally(s.Label, end, continueL)
	mc.compileStmt(s.Body)
	mc.popLoop()
	mc.b.Bind(continueL)
	for _, post := range s.Post {
		mc.compileStmt(post)
	}
	mc.b.Goto(top)
	mc.b.Bind(end)
}

// compileEnhancedFor desugars "for (T x : expr) body" into an indexed loop
// over expr when it's an array, or an Iterator-driven loop when it's an
// Iterable, the same two forms javac itself lowers a for-each into.
func (mc *methodCtx) compileEnhancedFor(s *ast.EnhancedForStmt) {
	iterType := mc.typeOfExpr(s.Iterable)
	if iterType.IsArray() {
		mc.compileArrayForEach(s, iterType)
		return
	}
	mc.compileIteratorForEach(s)
}

func (mc *methodCtx) compileArrayForEach(s *ast.EnhancedForStmt, arrType bctypes.Type) {
	elemType := arrType.ComponentType()
	arrLocal := mc.freshTemp(arrType)
	vt := mc.compileExpr(s.Iterable)
	mc.b.Store(arrLocal.slot, vt)

	lenLocal := mc.freshTemp(bctypes.IntType)
	mc.b.Load(arrLocal.slot, arrType)
	mc.b.Op(OpArraylength)
	mc.b.Store(lenLocal.slot, bctypes.IntType)

	idxLocal := mc.freshTemp(bctypes.IntType)
	mc.b.Iconst(0)
	mc.b.Store(idxLocal.slot, bctypes.IntType)

	varType := elemType
	if s.VarType != nil {
		varType = mc.resolveType(s.VarType)
	}
	elemLocal := mc.declareLocal(s.VarName, varType)

	top := mc.b.NewLabel()
	continueL := mc.b.NewLabel()
	end := mc.b.NewLabel()
	mc.b.Bind(top)
	mc.b.Load(idxLocal.slot, bctypes.IntType)
	mc.b.Load(lenLocal.slot, bctypes.IntType)
	mc.b.IfICmpGe(end)

	mc.b.Load(arrLocal.slot, arrType)
	mc.b.Load(idxLocal.slot, bctypes.IntType)
	mc.b.ArrayLoad(elemType)
	mc.b.Store(elemLocal.slot, mc.adaptTo(elemType, varType))

	mc.pushLoopWithFinally(s.Label, end, continueL)
	mc.compileStmt(s.Body)
	mc.popLoop()
	mc.b.Bind(continueL)
	mc.b.Iinc(idxLocal.slot, 1)
	mc.b.Goto(top)
	mc.b.Bind(end)
}

func (mc *methodCtx) compileIteratorForEach(s *ast.EnhancedForStmt) {
	const iterableIface = "java/lang/Iterable"
	const iteratorIface = "java/util/Iterator"

	mc.compileExpr(s.Iterable)
	iterLocal := mc.freshTemp(bctypes.Reference(iteratorIface))
	mc.b.InvokeInterface(iterableIface, "iterator", "()Ljava/util/Iterator;", nil, bctypes.Reference(iteratorIface))
	mc.b.Store(iterLocal.slot, iterLocal.typ)

	varType := bctypes.ObjectType
	if s.VarType != nil {
		varType = mc.resolveType(s.VarType)
	}
	elemLocal := mc.declareLocal(s.VarName, varType)

	top := mc.b.NewLabel()
	continueL := mc.b.NewLabel()
	end := mc.b.NewLabel()
	mc.b.Bind(top)
	mc.b.Bind(continueL)
	mc.b.Load(iterLocal.slot, iterLocal.typ)
	mc.b.InvokeInterface(iteratorIface, "hasNext", "()Z", nil, bctypes.BooleanType)
	mc.b.IfEq(end)

	mc.b.Load(iterLocal.slot, iterLocal.typ)
	mc.b.InvokeInterface(iteratorIface, "next", "()Ljava/lang/Object;", nil, bctypes.ObjectType)
	adapted := mc.adaptTo(bctypes.ObjectType, varType)
	if adapted.IsReference() && !adapted.Equal(bctypes.ObjectType) {
		mc.castReference(adapted)
	}
	mc.b.Store(elemLocal.slot, adapted)

	mc.pushLoopWithFinally(s.Label, end, continueL)
	mc.compileStmt(s.Body)
	mc.popLoop()
	mc.b.Goto(top)
	mc.b.Bind(end)
}

func (mc *methodCtx) compileBreak(s *ast.BreakStmt) {
	target, frame, ok := mc.breakTargetFrame(s.Label)
	if !ok {
		mc.addErr(fmt.Errorf("codegen: break is not inside a loop or labeled statement"))
		return
	}
	mc.runFinallyDownTo(frame.finallyDepth)
	mc.b.Goto(target)
}

func (mc *methodCtx) compileContinue(s *ast.ContinueStmt) {
	target, frame, ok := mc.continueTargetFrame(s.Label)
	if !ok {
		mc.addErr(fmt.Errorf("codegen: continue is not inside a loop"))
		return
	}
	mc.runFinallyDownTo(frame.finallyDepth)
	mc.b.Goto(target)
}

func (mc *methodCtx) compileReturn(s *ast.ReturnStmt) {
	if s.Value == nil {
		mc.runFinallyDownTo(0)
		mc.b.Return(bctypes.Void)
		return
	}
	vt := mc.compileExpr(s.Value)
	adapted := mc.adaptTo(vt, mc.returnType)
	if len(mc.pendingFinally) == 0 {
		mc.b.Return(adapted)
		return
	}
	tmp := mc.freshTemp(adapted)
	mc.b.Store(tmp.slot, adapted)
	mc.runFinallyDownTo(0)
	mc.b.Load(tmp.slot, adapted)
	mc.b.Return(adapted)
}

func (mc *methodCtx) compileThrow(s *ast.ThrowStmt) {
	mc.compileExpr(s.X)
	mc.b.Athrow()
}

func (mc *methodCtx) compileLabeled(s *ast.LabeledStmt) {
	switch s.Stmt.(type) {
	case *ast.WhileStmt, *ast.DoWhileStmt, *ast.ForStmt, *ast.EnhancedForStmt:
		// these statements carry their own Label field and push their own
		// loop frame, so labeling them is a no-op here.
		mc.compileStmt(s.Stmt)
	default:
		end := mc.b.NewLabel()
		mc.pushBreakOnlyWithFinally(s.Label, end)
		mc.compileStmt(s.Stmt)
		mc.popLoop()
		mc.b.Bind(end)
	}
}

// compileTry compiles try/catch/finally, inlining the finally block at
// every normal exit (fallthrough from the body, fallthrough from a catch,
// and any break/continue/return reached while the finally is pending) and
// covering the protected region with a catch-all exception handler that
// runs the finally once more before rethrowing, javac's own strategy since
// class files stopped using jsr/ret.
func (mc *methodCtx) compileTry(s *ast.TryStmt) {
	effectiveFinally := s.Finally
	var resourceNames []string
	for _, res := range s.Resources {
		mc.compileLocalVarDecl(res)
		resourceNames = append(resourceNames, res.Name)
	}
	if len(resourceNames) > 0 {
		closeBlock := &ast.BlockStmt{}
		for i := len(resourceNames) - 1; i >= 0; i-- {
			name := resourceNames[i]
			closeBlock.Stmts = append(closeBlock.Stmts, &ast.ExprStmt{
				X: &ast.CallExpr{Recv: &ast.Identifier{Name: name}, Method: "close"},
			})
		}
		if effectiveFinally != nil {
			closeBlock.Stmts = append(closeBlock.Stmts, effectiveFinally.Stmts...)
		}
		effectiveFinally = closeBlock
	}

	hasFinally := effectiveFinally != nil
	if hasFinally {
		mc.pendingFinally = append(mc.pendingFinally, effectiveFinally)
	}

	endLabel := mc.b.NewLabel()
	tryStart := mc.b.Offset()
	mc.compileBlock(s.Body)
	if hasFinally {
		mc.compileFinallyInline(effectiveFinally)
	}
	mc.b.Goto(endLabel)
	tryEnd := mc.b.Offset()

	type handlerEntry struct {
		start int
		types []string
	}
	var handlers []handlerEntry
	for _, c := range s.Catches {
		handlerStart := mc.b.Offset()
		excType := mc.resolveType(c.ExceptionTypes[0])
		lv := mc.declareLocal(c.VarName, excType)
		mc.b.Store(lv.slot, lv.typ)
		mc.compileBlock(c.Body)
		if hasFinally {
			mc.compileFinallyInline(effectiveFinally)
		}
		mc.b.Goto(endLabel)

		var names []string
		for _, tn := range c.ExceptionTypes {
			names = append(names, mc.resolveType(tn).ClassName())
		}
		handlers = append(handlers, handlerEntry{start: handlerStart, types: names})
	}
	protectedEnd := mc.b.Offset()

	for _, h := range handlers {
		for _, cn := range h.types {
			mc.b.AddExceptionHandler(tryStart, tryEnd, h.start, mc.b.Pool().Class(cn))
		}
	}
	// catches registered against the try body's own range also have to
	// protect the bytecode of catch handlers emitted earlier than them so
	// that an exception thrown partway through one catch block can still
	// be caught by a later, broader one; javac achieves the same effect by
	// emitting one handler entry per (catch, covered-subrange) pair. This
	// compiler instead only protects the try body itself with each catch,
	// which is correct for the (overwhelmingly common) case of catch
	// clauses whose bodies don't themselves need catching by a sibling
	// catch, and is a documented simplification otherwise.

	if hasFinally {
		finallyHandlerStart := mc.b.Offset()
		excSlot := mc.freshTemp(bctypes.Reference("java/lang/Throwable"))
		mc.b.Store(excSlot.slot, excSlot.typ)
		mc.compileFinallyInline(effectiveFinally)
		mc.b.Load(excSlot.slot, excSlot.typ)
		mc.b.Athrow()
		mc.b.AddExceptionHandler(tryStart, protectedEnd, finallyHandlerStart, 0)
		mc.pendingFinally = mc.pendingFinally[:len(mc.pendingFinally)-1]
	}

	mc.b.Bind(endLabel)
}

func (mc *methodCtx) compileFinallyInline(b *ast.BlockStmt) {
	mc.compileBlock(b)
}

func (mc *methodCtx) runFinallyDownTo(depth int) {
	for i := len(mc.pendingFinally) - 1; i >= depth; i-- {
		mc.compileFinallyInline(mc.pendingFinally[i])
	}
}

// compileSwitch dispatches an int/char/byte/short switch via tableswitch
// or lookupswitch (by key density), an enum switch via the tag's ordinal,
// and a String switch via a sequential chain of equals() calls; javac
// itself hashes String switches through a two-level hashCode dispatch, a
// refinement this compiler skips in favor of the simpler chain.
func (mc *methodCtx) compileSwitch(s *ast.SwitchStmt) {
	tagType := mc.typeOfExpr(s.Tag)
	if tagType.Equal(bctypes.StringType) {
		mc.compileStringSwitch(s)
		return
	}

	bodyLabels := make([]bcbuild.Label, len(s.Cases))
	for i := range s.Cases {
		bodyLabels[i] = mc.b.NewLabel()
	}
	endLabel := mc.b.NewLabel()
	defaultLabel := endLabel
	for i, c := range s.Cases {
		if len(c.Values) == 0 {
			defaultLabel = bodyLabels[i]
		}
	}

	isEnum := tagType.IsReference() && mc.isEnumType(tagType.ClassName())
	type key struct {
		val   int32
		label bcbuild.Label
	}
	var keys []key
	for i, c := range s.Cases {
		for _, v := range c.Values {
			var k int32
			var ok bool
			if isEnum {
				ident, isIdent := v.(*ast.Identifier)
				if !isIdent {
					mc.addErr(fmt.Errorf("codegen: enum switch case must name a constant"))
					continue
				}
				k, ok = mc.enumOrdinal(tagType.ClassName(), ident.Name)
			} else {
				k, ok = constIntValue(v)
			}
			if !ok {
				mc.addErr(fmt.Errorf("codegen: switch case label must be a constant"))
				continue
			}
			keys = append(keys, key{val: k, label: bodyLabels[i]})
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].val < keys[j].val })

	mc.compileExpr(s.Tag)
	if isEnum {
		mc.b.InvokeVirtual(tagType.ClassName(), "ordinal", "()I", nil, bctypes.IntType)
	}

	if len(keys) == 0 {
		mc.b.Op(OpPop)
		mc.b.Goto(defaultLabel)
	} else {
		low, high := keys[0].val, keys[len(keys)-1].val
		span := int64(high) - int64(low) + 1
		if span <= int64(len(keys))*3 {
			targets := make([]bcbuild.Label, span)
			for i := range targets {
				targets[i] = defaultLabel
			}
			for _, k := range keys {
				targets[int64(k.val-low)] = k.label
			}
			mc.b.Tableswitch(low, high, targets, defaultLabel)
		} else {
			ks := make([]int32, len(keys))
			ts := make([]bcbuild.Label, len(keys))
			for i, k := range keys {
				ks[i] = k.val
				ts[i] = k.label
			}
			mc.b.Lookupswitch(ks, ts, defaultLabel)
		}
	}

	mc.pushBreakOnlyWithFinally("", endLabel)
	for i, c := range s.Cases {
		mc.b.Bind(bodyLabels[i])
		for _, stmt := range c.Stmts {
			mc.compileStmt(stmt)
		}
	}
	mc.popLoop()
	mc.b.Bind(endLabel)
}

func (mc *methodCtx) compileStringSwitch(s *ast.SwitchStmt) {
	tagLocal := mc.freshTemp(bctypes.StringType)
	mc.compileExpr(s.Tag)
	mc.b.Store(tagLocal.slot, tagLocal.typ)

	bodyLabels := make([]bcbuild.Label, len(s.Cases))
	for i := range s.Cases {
		bodyLabels[i] = mc.b.NewLabel()
	}
	endLabel := mc.b.NewLabel()
	defaultLabel := endLabel
	for i, c := range s.Cases {
		if len(c.Values) == 0 {
			defaultLabel = bodyLabels[i]
		}
	}

	for i, c := range s.Cases {
		for _, v := range c.Values {
			lit, ok := v.(*ast.StringLiteral)
			if !ok {
				mc.addErr(fmt.Errorf("codegen: String switch case label must be a string literal"))
				continue
			}
			mc.b.Load(tagLocal.slot, tagLocal.typ)
			mc.b.Ldc(mc.b.Pool().String(lit.Value))
			mc.b.InvokeVirtual("java/lang/String", "equals", "(Ljava/lang/Object;)Z", []bctypes.Type{bctypes.ObjectType}, bctypes.BooleanType)
			mc.b.IfNe(bodyLabels[i])
		}
	}
	mc.b.Goto(defaultLabel)

	mc.pushBreakOnlyWithFinally("", endLabel)
	for i, c := range s.Cases {
		mc.b.Bind(bodyLabels[i])
		for _, stmt := range c.Stmts {
			mc.compileStmt(stmt)
		}
	}
	mc.popLoop()
	mc.b.Bind(endLabel)
}

func (mc *methodCtx) isEnumType(className string) bool {
	rc, ok, err := mc.unit.gen.cp.Find(className)
	if err != nil || !ok {
		return false
	}
	return rc.AccessFlags&classfile.AccEnum != 0
}

func (mc *methodCtx) enumOrdinal(className, constName string) (int32, bool) {
	rc, ok, err := mc.unit.gen.cp.Find(className)
	if err != nil || !ok {
		return 0, false
	}
	var ordinal int32
	for _, f := range rc.Fields {
		if f.AccessFlags&classfile.AccEnum == 0 {
			continue
		}
		if f.Name == constName {
			return ordinal, true
		}
		ordinal++
	}
	return 0, false
}

func constIntValue(e ast.Expression) (int32, bool) {
	switch x := e.(type) {
	case *ast.IntLiteral:
		return x.Value, true
	case *ast.CharLiteral:
		return int32(x.Value), true
	case *ast.UnaryExpr:
		if x.Op == "-" {
			if v, ok := constIntValue(x.X); ok {
				return -v, true
			}
		}
	}
	return 0, false
}
