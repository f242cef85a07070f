package codegen

import (
	"fmt"
	"strings"

	"github.com/aoki-yuta/javac8/internal/ast"
	"github.com/aoki-yuta/javac8/internal/bcbuild"
	"github.com/aoki-yuta/javac8/internal/bctypes"
	"github.com/aoki-yuta/javac8/internal/classfile"
)

// compileExpr emits the bytecode for e, leaving its value on top of the
// operand stack, and returns e's static type.
func (mc *methodCtx) compileExpr(e ast.Expression) bctypes.Type {
	switch x := e.(type) {
	case *ast.IntLiteral:
		mc.b.Iconst(x.Value)
		return bctypes.IntType
	case *ast.LongLiteral:
		mc.b.Lconst(x.Value)
		return bctypes.LongType
	case *ast.FloatLiteral:
		mc.b.Fconst(x.Value)
		return bctypes.FloatType
	case *ast.DoubleLiteral:
		mc.b.Dconst(x.Value)
		return bctypes.DoubleType
	case *ast.BoolLiteral:
		if x.Value {
			mc.b.Iconst(1)
		} else {
			mc.b.Iconst(0)
		}
		return bctypes.BooleanType
	case *ast.CharLiteral:
		mc.b.Iconst(int32(x.Value))
		return bctypes.CharType
	case *ast.StringLiteral:
		mc.b.Ldc(mc.b.Pool().String(x.Value))
		return bctypes.StringType
	case *ast.NullLiteral:
		mc.b.AconstNull()
		return bctypes.NullType
	case *ast.ThisExpr:
		mc.b.Load(0, mc.thisType)
		return mc.thisType
	case *ast.SuperExpr:
		mc.b.Load(0, mc.thisType)
		return mc.superType()
	case *ast.Identifier:
		return mc.compileBareName(x.Name)
	case *ast.FieldAccessExpr:
		return mc.compileFieldAccess(x)
	case *ast.IndexExpr:
		return mc.compileIndexLoad(x)
	case *ast.BinaryExpr:
		return mc.compileBinary(x)
	case *ast.UnaryExpr:
		return mc.compileUnary(x)
	case *ast.AssignExpr:
		return mc.compileAssign(x)
	case *ast.TernaryExpr:
		return mc.compileTernary(x)
	case *ast.CastExpr:
		return mc.compileCast(x)
	case *ast.InstanceOfExpr:
		return mc.compileInstanceOf(x)
	case *ast.CallExpr:
		return mc.compileCall(x)
	case *ast.NewExpr:
		return mc.compileNew(x)
	case *ast.NewArrayExpr:
		return mc.compileNewArray(x)
	case *ast.LambdaExpr:
		return mc.compileLambda(x)
	case *ast.MethodRefExpr:
		return mc.compileMethodRef(x)
	default:
		mc.addErr(fmt.Errorf("codegen: unsupported expression %T", e))
		return bctypes.ObjectType
	}
}

func (mc *methodCtx) superType() bctypes.Type {
	rc, ok, err := mc.unit.gen.cp.Find(mc.class.internalName)
	if err != nil || !ok {
		return bctypes.ObjectType
	}
	return bctypes.Reference(rc.SuperName)
}

// compileBareName resolves a simple name against locals, then the current
// class's own fields and those it inherits, matching Java's lookup order.
func (mc *methodCtx) compileBareName(name string) bctypes.Type {
	if lv, ok := mc.lookupLocal(name); ok {
		mc.b.Load(lv.slot, lv.typ)
		return lv.typ
	}
	f, owner, err := mc.resolver.FindField(mc.class.internalName, name)
	if err != nil {
		mc.addErr(err)
		return bctypes.ObjectType
	}
	if f == nil {
		mc.addErr(fmt.Errorf("cannot resolve symbol %q", name))
		return bctypes.ObjectType
	}
	if f.AccessFlags&classfile.AccStatic != 0 {
		mc.b.GetStatic(owner, f.Name, f.Type)
		return f.Type
	}
	if mc.isStatic {
		mc.addErr(fmt.Errorf("cannot access instance field %q from a static context", name))
		return f.Type
	}
	mc.b.Load(0, mc.thisType)
	mc.b.GetField(owner, f.Name, f.Type)
	return f.Type
}

func (mc *methodCtx) compileFieldAccess(x *ast.FieldAccessExpr) bctypes.Type {
	if x.X == nil {
		return mc.compileBareName(x.Name)
	}
	if className, ok := mc.classNameOfExpr(x.X); ok {
		f, owner, err := mc.resolver.FindField(className, x.Name)
		if err != nil {
			mc.addErr(err)
			return bctypes.ObjectType
		}
		if f == nil {
			mc.addErr(fmt.Errorf("cannot resolve static field %s.%s", className, x.Name))
			return bctypes.ObjectType
		}
		mc.b.GetStatic(owner, f.Name, f.Type)
		return f.Type
	}
	recvType := mc.compileExpr(x.X)
	if !recvType.IsReference() && !recvType.IsArray() {
		mc.addErr(fmt.Errorf("codegen: field access %q on non-reference type", x.Name))
		return bctypes.ObjectType
	}
	f, owner, err := mc.resolver.FindField(recvType.ClassName(), x.Name)
	if err != nil {
		mc.addErr(err)
		return bctypes.ObjectType
	}
	if f == nil {
		mc.addErr(fmt.Errorf("cannot resolve field %q on %s", x.Name, recvType.ClassName()))
		return bctypes.ObjectType
	}
	mc.b.GetField(owner, f.Name, f.Type)
	return f.Type
}

func (mc *methodCtx) compileIndexLoad(x *ast.IndexExpr) bctypes.Type {
	arrType := mc.compileExpr(x.X)
	mc.compileExpr(x.Index)
	elem := arrType.ComponentType()
	mc.b.ArrayLoad(elem)
	return elem
}

func (mc *methodCtx) compileBinary(x *ast.BinaryExpr) bctypes.Type {
	switch x.Op {
	case "&&", "||":
		return mc.materializeBool(x)
	case "==", "!=", "<", "<=", ">", ">=":
		return mc.materializeBool(x)
	case "+":
		if mc.isStringOperand(x.X) || mc.isStringOperand(x.Y) {
			return mc.compileStringConcat(x)
		}
	}
	switch x.Op {
	case "&", "|", "^":
		return mc.compileBitwise(x)
	case "<<", ">>", ">>>":
		return mc.compileShift(x)
	}
	tx := mc.typeOfExpr(x.X)
	ty := mc.typeOfExpr(x.Y)
	promoted := widerCategory(categoryOf(tx), categoryOf(ty))
	actualTx := mc.compileExpr(x.X)
	mc.convertCategory(categoryOf(actualTx), promoted)
	actualTy := mc.compileExpr(x.Y)
	mc.convertCategory(categoryOf(actualTy), promoted)
	mc.emitArith(x.Op, promoted)
	return categoryType(promoted)
}

func (mc *methodCtx) emitArith(op string, cat numCategory) {
	b := mc.b
	switch cat {
	case catInt:
		switch op {
		case "+":
			b.Op(OpIadd)
		case "-":
			b.Op(OpIsub)
		case "*":
			b.Op(OpImul)
		case "/":
			b.Op(OpIdiv)
		case "%":
			b.Op(OpIrem)
		}
	case catLong:
		switch op {
		case "+":
			b.Op(OpLadd)
		case "-":
			b.Op(OpLsub)
		case "*":
			b.Op(OpLmul)
		case "/":
			b.Op(OpLdiv)
		case "%":
			b.Op(OpLrem)
		}
	case catFloat:
		switch op {
		case "+":
			b.Op(OpFadd)
		case "-":
			b.Op(OpFsub)
		case "*":
			b.Op(OpFmul)
		case "/":
			b.Op(OpFdiv)
		case "%":
			b.Op(OpFrem)
		}
	case catDouble:
		switch op {
		case "+":
			b.Op(OpDadd)
		case "-":
			b.Op(OpDsub)
		case "*":
			b.Op(OpDmul)
		case "/":
			b.Op(OpDdiv)
		case "%":
			b.Op(OpDrem)
		}
	}
}

func (mc *methodCtx) compileBitwise(x *ast.BinaryExpr) bctypes.Type {
	tx := mc.typeOfExpr(x.X)
	ty := mc.typeOfExpr(x.Y)
	if tx.Equal(bctypes.BooleanType) && ty.Equal(bctypes.BooleanType) {
		mc.compileExpr(x.X)
		mc.compileExpr(x.Y)
		switch x.Op {
		case "&":
			mc.b.Op(OpIand)
		case "|":
			mc.b.Op(OpIor)
		case "^":
			mc.b.Op(OpIxor)
		}
		return bctypes.BooleanType
	}
	promoted := widerCategory(categoryOf(tx), categoryOf(ty))
	if promoted != catLong {
		promoted = catInt
	}
	actualTx := mc.compileExpr(x.X)
	mc.convertCategory(categoryOf(actualTx), promoted)
	actualTy := mc.compileExpr(x.Y)
	mc.convertCategory(categoryOf(actualTy), promoted)
	b := mc.b
	if promoted == catLong {
		switch x.Op {
		case "&":
			b.Op(OpLand)
		case "|":
			b.Op(OpLor)
		case "^":
			b.Op(OpLxor)
		}
		return bctypes.LongType
	}
	switch x.Op {
	case "&":
		b.Op(OpIand)
	case "|":
		b.Op(OpIor)
	case "^":
		b.Op(OpIxor)
	}
	return bctypes.IntType
}

func (mc *methodCtx) compileShift(x *ast.BinaryExpr) bctypes.Type {
	tx := mc.typeOfExpr(x.X)
	cat := categoryOf(tx)
	if cat != catLong {
		cat = catInt
	}
	actualTx := mc.compileExpr(x.X)
	mc.convertCategory(categoryOf(actualTx), cat)
	actualTy := mc.compileExpr(x.Y)
	mc.convertCategory(categoryOf(actualTy), catInt) // shift distance is always int
	b := mc.b
	if cat == catLong {
		switch x.Op {
		case "<<":
			b.Op(OpLshl)
		case ">>":
			b.Op(OpLshr)
		case ">>>":
			b.Op(OpLushr)
		}
		return bctypes.LongType
	}
	switch x.Op {
	case "<<":
		b.Op(OpIshl)
	case ">>":
		b.Op(OpIshr)
	case ">>>":
		b.Op(OpIushr)
	}
	return bctypes.IntType
}

func (mc *methodCtx) isStringOperand(e ast.Expression) bool {
	return mc.typeOfExpr(e).Equal(bctypes.StringType)
}

// compileStringConcat desugars "a" + b + c into a StringBuilder chain,
// the way javac itself lowers string concatenation.
func (mc *methodCtx) compileStringConcat(x *ast.BinaryExpr) bctypes.Type {
	mc.b.New(sb)
	mc.b.Op(OpDup)
	mc.b.InvokeSpecial(sb, "<init>", "()V", nil, bctypes.Void)
	mc.appendConcatOperand(x.X)
	mc.appendConcatOperand(x.Y)
	mc.b.InvokeVirtual(sb, "toString", "()Ljava/lang/String;", nil, bctypes.StringType)
	return bctypes.StringType
}

func (mc *methodCtx) appendConcatOperand(e ast.Expression) {
	if be, ok := e.(*ast.BinaryExpr); ok && be.Op == "+" && (mc.isStringOperand(be.X) || mc.isStringOperand(be.Y)) {
		mc.appendConcatOperand(be.X)
		mc.appendConcatOperand(be.Y)
		return
	}
	t := mc.compileExpr(e)
	mc.appendToBuilder(t)
}

func (mc *methodCtx) appendToBuilder(t bctypes.Type) {
	var desc string
	switch {
	case t.Equal(bctypes.BooleanType):
		desc = "(Z)Ljava/lang/StringBuilder;"
	case t.Equal(bctypes.CharType):
		desc = "(C)Ljava/lang/StringBuilder;"
	case t.Equal(bctypes.IntType), t.Equal(bctypes.ByteType), t.Equal(bctypes.ShortType):
		desc = "(I)Ljava/lang/StringBuilder;"
	case t.Equal(bctypes.LongType):
		desc = "(J)Ljava/lang/StringBuilder;"
	case t.Equal(bctypes.FloatType):
		desc = "(F)Ljava/lang/StringBuilder;"
	case t.Equal(bctypes.DoubleType):
		desc = "(D)Ljava/lang/StringBuilder;"
	case t.Equal(bctypes.StringType):
		desc = "(Ljava/lang/String;)Ljava/lang/StringBuilder;"
	default:
		desc = "(Ljava/lang/Object;)Ljava/lang/StringBuilder;"
	}
	mc.b.InvokeVirtual(sb, "append", desc, []bctypes.Type{t}, bctypes.Reference(sb))
}

const sb = "java/lang/StringBuilder"

func (mc *methodCtx) compileUnary(x *ast.UnaryExpr) bctypes.Type {
	switch x.Op {
	case "!":
		return mc.materializeBool(x)
	case "-":
		t := mc.compileExpr(x.X)
		switch categoryOf(t) {
		case catLong:
			mc.b.Op(OpLneg)
		case catFloat:
			mc.b.Op(OpFneg)
		case catDouble:
			mc.b.Op(OpDneg)
		default:
			mc.b.Op(OpIneg)
		}
		return t
	case "+":
		return mc.compileExpr(x.X)
	case "~":
		t := mc.compileExpr(x.X)
		if categoryOf(t) == catLong {
			mc.b.Lconst(-1)
			mc.b.Op(OpLxor)
		} else {
			mc.b.Iconst(-1)
			mc.b.Op(OpIxor)
		}
		return t
	case "++pre", "--pre", "++post", "--post":
		return mc.compileIncDec(x)
	default:
		mc.addErr(fmt.Errorf("codegen: unsupported unary operator %q", x.Op))
		return bctypes.IntType
	}
}

// compileIncDec handles ++/-- on a local, field, or array element. A plain
// int local uses the single iinc fast path; everything else goes through
// resolveTarget/loadCurrent, which take care of preserving whatever
// receiver or arrayref+index the target needs beneath the pre- or
// post-increment result.
func (mc *methodCtx) compileIncDec(x *ast.UnaryExpr) bctypes.Type {
	delta := int8(1)
	if x.Op == "--pre" || x.Op == "--post" {
		delta = -1
	}
	isPost := x.Op == "++post" || x.Op == "--post"

	t := mc.resolveTarget(x.X)
	if t.isLocal && t.typ.Equal(bctypes.IntType) {
		if isPost {
			mc.b.Load(t.local.slot, t.typ)
		}
		mc.b.Iinc(t.local.slot, delta)
		if !isPost {
			mc.b.Load(t.local.slot, t.typ)
		}
		return t.typ
	}

	curType := mc.loadCurrent(t)
	if isPost {
		bw := t.baseWidth()
		if bw == 0 {
			mc.dupCat(curType.Category())
		} else {
			mc.dupInsertBelow(curType.Category(), bw)
		}
	}
	mc.emitDeltaConst(categoryOf(curType), delta)
	mc.emitArith("+", categoryOf(curType))
	mc.narrowToPrimitive(curType.PrimitiveKindOrZero())
	mc.storeNew(t, !isPost, curType.Category())
	return curType
}

func (mc *methodCtx) emitDeltaConst(cat numCategory, delta int8) {
	switch cat {
	case catLong:
		mc.b.Lconst(int64(delta))
	case catFloat:
		mc.b.Fconst(float32(delta))
	case catDouble:
		mc.b.Dconst(float64(delta))
	default:
		mc.b.Iconst(int32(delta))
	}
}

// compileAssign handles both plain "=" and the compound forms. A String
// "+=" is lowered into an equivalent "target = target + value" binary
// expression so it reuses compileStringConcat; this does mean a qualified
// or indexed target's receiver is evaluated twice in that one case.
func (mc *methodCtx) compileAssign(x *ast.AssignExpr) bctypes.Type {
	if x.Op != "=" {
		if op := strings.TrimSuffix(x.Op, "="); op == "+" {
			if mc.typeOfExpr(x.Target).Equal(bctypes.StringType) || mc.typeOfExpr(x.Value).Equal(bctypes.StringType) {
				synthetic := &ast.BinaryExpr{OpToken: x.OpToken, Op: "+", X: x.Target, Y: x.Value}
				return mc.compileAssign(&ast.AssignExpr{OpToken: x.OpToken, Op: "=", Target: x.Target, Value: synthetic})
			}
		}
	}

	t := mc.resolveTarget(x.Target)
	if x.Op == "=" {
		valType := mc.compileExpr(x.Value)
		adapted := mc.adaptTo(valType, t.typ)
		mc.storeNew(t, true, adapted.Category())
		return t.typ
	}

	curType := mc.loadCurrent(t)
	op := strings.TrimSuffix(x.Op, "=")
	switch op {
	case "<<", ">>", ">>>":
		cat := catInt
		if categoryOf(curType) == catLong {
			cat = catLong
		}
		mc.convertCategory(categoryOf(curType), cat)
		rhsType := mc.compileExpr(x.Value)
		mc.convertCategory(categoryOf(rhsType), catInt)
		mc.emitBinOp(op, cat)
		mc.convertCategory(cat, categoryOf(t.typ))
	case "&", "|", "^":
		promoted := widerCategory(categoryOf(curType), categoryOf(mc.typeOfExpr(x.Value)))
		if promoted != catLong {
			promoted = catInt
		}
		mc.convertCategory(categoryOf(curType), promoted)
		rhsType := mc.compileExpr(x.Value)
		mc.convertCategory(categoryOf(rhsType), promoted)
		mc.emitBinOp(op, promoted)
		mc.convertCategory(promoted, categoryOf(t.typ))
	default:
		promoted := widerCategory(categoryOf(curType), categoryOf(mc.typeOfExpr(x.Value)))
		mc.convertCategory(categoryOf(curType), promoted)
		rhsType := mc.compileExpr(x.Value)
		mc.convertCategory(categoryOf(rhsType), promoted)
		mc.emitBinOp(op, promoted)
		mc.convertCategory(promoted, categoryOf(t.typ))
	}
	mc.narrowToPrimitive(t.typ.PrimitiveKindOrZero())
	mc.storeNew(t, true, t.typ.Category())
	return t.typ
}

// emitBinOp emits the opcode for op at category cat against two operands
// already sitting promoted on top of the stack; compileBinary,
// compileBitwise and compileShift cover the standalone-expression forms of
// the same operators, compileAssign reuses this for their compound-assign
// forms.
func (mc *methodCtx) emitBinOp(op string, cat numCategory) {
	b := mc.b
	switch op {
	case "+", "-", "*", "/", "%":
		mc.emitArith(op, cat)
	case "&":
		if cat == catLong {
			b.Op(OpLand)
		} else {
			b.Op(OpIand)
		}
	case "|":
		if cat == catLong {
			b.Op(OpLor)
		} else {
			b.Op(OpIor)
		}
	case "^":
		if cat == catLong {
			b.Op(OpLxor)
		} else {
			b.Op(OpIxor)
		}
	case "<<":
		if cat == catLong {
			b.Op(OpLshl)
		} else {
			b.Op(OpIshl)
		}
	case ">>":
		if cat == catLong {
			b.Op(OpLshr)
		} else {
			b.Op(OpIshr)
		}
	case ">>>":
		if cat == catLong {
			b.Op(OpLushr)
		} else {
			b.Op(OpIushr)
		}
	}
}

func (mc *methodCtx) materializeBool(e ast.Expression) bctypes.Type {
	trueL := mc.b.NewLabel()
	endL := mc.b.NewLabel()
	mc.branchIfTrue(e, trueL)
	mc.b.Iconst(0)
	mc.b.Goto(endL)
	mc.b.Bind(trueL)
	mc.b.Iconst(1)
	mc.b.Bind(endL)
	return bctypes.BooleanType
}

// branchIfTrue emits code that transfers control to target when e
// evaluates true, falling through otherwise.
func (mc *methodCtx) branchIfTrue(e ast.Expression, target bcbuild.Label) {
	switch x := e.(type) {
	case *ast.BinaryExpr:
		switch x.Op {
		case "&&":
			skip := mc.b.NewLabel()
			mc.branchIfFalse(x.X, skip)
			mc.branchIfTrue(x.Y, target)
			mc.b.Bind(skip)
			return
		case "||":
			mc.branchIfTrue(x.X, target)
			mc.branchIfTrue(x.Y, target)
			return
		case "==", "!=", "<", "<=", ">", ">=":
			mc.compileComparisonBranch(x, target, true)
			return
		}
	case *ast.UnaryExpr:
		if x.Op == "!" {
			mc.branchIfFalse(x.X, target)
			return
		}
	}
	t := mc.compileExpr(e)
	if t.IsReference() {
		mc.b.IfNonNull(target)
		return
	}
	mc.b.IfNe(target)
}

// branchIfFalse is branchIfTrue's mirror.
func (mc *methodCtx) branchIfFalse(e ast.Expression, target bcbuild.Label) {
	switch x := e.(type) {
	case *ast.BinaryExpr:
		switch x.Op {
		case "&&":
			mc.branchIfFalse(x.X, target)
			mc.branchIfFalse(x.Y, target)
			return
		case "||":
			skip := mc.b.NewLabel()
			mc.branchIfTrue(x.X, skip)
			mc.branchIfFalse(x.Y, target)
			mc.b.Bind(skip)
			return
		case "==", "!=", "<", "<=", ">", ">=":
			mc.compileComparisonBranch(x, target, false)
			return
		}
	case *ast.UnaryExpr:
		if x.Op == "!" {
			mc.branchIfTrue(x.X, target)
			return
		}
	}
	t := mc.compileExpr(e)
	if t.IsReference() {
		mc.b.IfNull(target)
		return
	}
	mc.b.IfEq(target)
}

// compileComparisonBranch emits a direct comparison branch to target.
// wantTrue selects the comparison itself vs. its logical inverse, so
// branchIfFalse can reuse the same table.
func (mc *methodCtx) compileComparisonBranch(x *ast.BinaryExpr, target bcbuild.Label, wantTrue bool) {
	op := x.Op
	if !wantTrue {
		op = invertComparison(op)
	}
	tx := mc.typeOfExpr(x.X)
	ty := mc.typeOfExpr(x.Y)

	if tx.IsReference() || ty.IsReference() || tx.Equal(bctypes.NullType) || ty.Equal(bctypes.NullType) {
		mc.compileExpr(x.X)
		mc.compileExpr(x.Y)
		switch op {
		case "==":
			mc.b.IfACmpEq(target)
		case "!=":
			mc.b.IfACmpNe(target)
		}
		return
	}

	promoted := widerCategory(categoryOf(tx), categoryOf(ty))
	actualTx := mc.compileExpr(x.X)
	mc.convertCategory(categoryOf(actualTx), promoted)
	actualTy := mc.compileExpr(x.Y)
	mc.convertCategory(categoryOf(actualTy), promoted)

	switch promoted {
	case catInt:
		switch op {
		case "==":
			mc.b.IfICmpEq(target)
		case "!=":
			mc.b.IfICmpNe(target)
		case "<":
			mc.b.IfICmpLt(target)
		case "<=":
			mc.b.IfICmpLe(target)
		case ">":
			mc.b.IfICmpGt(target)
		case ">=":
			mc.b.IfICmpGe(target)
		}
	case catLong:
		mc.b.Lcmp()
		mc.branchOnZero(op, target)
	case catFloat:
		mc.b.Fcmpg()
		mc.branchOnZero(op, target)
	case catDouble:
		mc.b.Dcmpg()
		mc.branchOnZero(op, target)
	}
}

func (mc *methodCtx) branchOnZero(op string, target bcbuild.Label) {
	switch op {
	case "==":
		mc.b.IfEq(target)
	case "!=":
		mc.b.IfNe(target)
	case "<":
		mc.b.IfLt(target)
	case "<=":
		mc.b.IfLe(target)
	case ">":
		mc.b.IfGt(target)
	case ">=":
		mc.b.IfGe(target)
	}
}

func invertComparison(op string) string {
	switch op {
	case "==":
		return "!="
	case "!=":
		return "=="
	case "<":
		return ">="
	case "<=":
		return ">"
	case ">":
		return "<="
	case ">=":
		return "<"
	default:
		return op
	}
}

func (mc *methodCtx) compileTernary(x *ast.TernaryExpr) bctypes.Type {
	elseL := mc.b.NewLabel()
	endL := mc.b.NewLabel()
	mc.branchIfFalse(x.Cond, elseL)
	depth := mc.b.CurrentStackDepth()
	thenType := mc.compileExpr(x.Then)
	mc.b.Goto(endL)
	mc.b.SetStackDepth(depth)
	mc.b.Bind(elseL)
	mc.compileExpr(x.Else)
	mc.b.Bind(endL)
	return thenType
}

func (mc *methodCtx) compileCast(x *ast.CastExpr) bctypes.Type {
	target := mc.resolveType(x.Type)
	srcType := mc.compileExpr(x.X)
	switch {
	case target.IsReference() || target.IsArray():
		if !target.Equal(bctypes.ObjectType) {
			mc.castReference(target)
		}
		return target
	case srcType.IsPrimitive():
		mc.convertCategory(categoryOf(srcType), categoryOf(target))
		mc.narrowToPrimitive(target.PrimitiveKindOrZero())
		return target
	default:
		return target
	}
}

func (mc *methodCtx) castReference(target bctypes.Type) {
	if target.IsArray() {
		mc.b.Checkcast(target.Descriptor())
		return
	}
	mc.b.Checkcast(target.ClassName())
}

func (mc *methodCtx) compileInstanceOf(x *ast.InstanceOfExpr) bctypes.Type {
	target := mc.resolveType(x.Type)
	mc.compileExpr(x.X)
	if target.IsArray() {
		mc.b.Instanceof(target.Descriptor())
	} else {
		mc.b.Instanceof(target.ClassName())
	}
	return bctypes.BooleanType
}

func (mc *methodCtx) compileNewArray(x *ast.NewArrayExpr) bctypes.Type {
	elem := mc.resolveType(x.ElemType)
	if len(x.Init) > 0 {
		arrType := bctypes.Array(elem, 1)
		mc.b.Iconst(int32(len(x.Init)))
		mc.allocArray(elem, 1)
		for i, e := range x.Init {
			mc.b.Op(OpDup)
			mc.b.Iconst(int32(i))
			et := mc.compileExpr(e)
			mc.adaptTo(et, elem)
			mc.b.ArrayStore(elem)
		}
		return arrType
	}

	dims := 0
	for _, d := range x.Dims {
		if d == nil {
			break
		}
		mc.compileExpr(d)
		dims++
	}
	totalDims := len(x.Dims)
	if totalDims <= 1 {
		mc.allocArray(elem, 1)
		return bctypes.Array(elem, 1)
	}
	arrType := bctypes.Array(elem, totalDims)
	if dims == totalDims {
		mc.b.Multianewarray(arrType.Descriptor(), dims)
		return arrType
	}
	// Only the leading dims were given explicit sizes; allocate that many
	// levels and leave the rest null, same as javac for "new int[n][]"
	mc.b.Multianewarray(arrType.Descriptor(), dims)
	return arrType
}

func (mc *methodCtx) allocArray(elem bctypes.Type, dims int) {
	if elem.IsPrimitive() {
		mc.b.Newarray(elem.PrimitiveKindOrZero())
		return
	}
	if elem.IsArray() {
		mc.b.Anewarray(elem.Descriptor())
		return
	}
	mc.b.Anewarray(elem.ClassName())
}
