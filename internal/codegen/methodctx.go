package codegen

import (
	"fmt"

	"github.com/aoki-yuta/javac8/internal/ast"
	"github.com/aoki-yuta/javac8/internal/bcbuild"
	"github.com/aoki-yuta/javac8/internal/bctypes"
	"github.com/aoki-yuta/javac8/internal/resolve"
)

// localVar is one declared local variable's slot and static type.
type localVar struct {
	slot int
	typ  bctypes.Type
}

// loopFrame records the break/continue targets for one enclosing loop (or,
// for a break-only labeled statement, just the break target), plus how
// many try-finally blocks were already pending when the loop was entered
// — a break/continue targeting this frame must inline every finally
// pushed since, and none from further out.
type loopFrame struct {
	label        string
	breakL       bcbuild.Label
	continueL    bcbuild.Label
	isLoop       bool
	finallyDepth int
}

// methodCtx is the per-method compilation context: the bytecode builder,
// local variable table, and the break/continue label stack statements
// push and pop as they're entered and left.
type methodCtx struct {
	unit           *Unit
	class          *pendingClass
	b              *bcbuild.Builder
	resolver       *resolve.Resolver
	locals         map[string]localVar
	nextSlot       int
	isStatic       bool
	thisType       bctypes.Type
	returnType     bctypes.Type
	loops          []loopFrame
	switchBreak    *bcbuild.Label
	pendingFinally []*ast.BlockStmt
	errs           *[]error
}

func newMethodCtx(pc *pendingClass, isStatic bool, returnType bctypes.Type) *methodCtx {
	class := pc.class
	mc := &methodCtx{
		unit:       pc.unit,
		class:      pc,
		b:          bcbuild.New(class.Pool),
		resolver:   pc.unit.resolver,
		locals:     make(map[string]localVar),
		isStatic:   isStatic,
		returnType: returnType,
		errs:       &pc.unit.errs,
	}
	if !isStatic {
		mc.thisType = bctypes.Reference(pc.internalName)
		mc.nextSlot = 1 // slot 0 is `this`
	}
	return mc
}

func (mc *methodCtx) addErr(err error) {
	if err != nil {
		*mc.errs = append(*mc.errs, err)
	}
}

// declareLocal allocates a fresh slot for name with type t, reserving two
// words for long/double.
func (mc *methodCtx) declareLocal(name string, t bctypes.Type) localVar {
	slot := mc.nextSlot
	width := t.Category()
	mc.nextSlot += width
	mc.b.ReserveLocal(slot, width)
	lv := localVar{slot: slot, typ: t}
	mc.locals[name] = lv
	return lv
}

// declareParam declares a parameter exactly as declareLocal declares a
// local; parameters are declared in order, slot 0 reserved for `this` on
// instance methods.
func (mc *methodCtx) declareParam(name string, t bctypes.Type) localVar {
	return mc.declareLocal(name, t)
}

// freshTemp allocates an unnamed local slot for a synthetic temporary
// (loop index, switch selector, exception holder during finally inlining).
func (mc *methodCtx) freshTemp(t bctypes.Type) localVar {
	slot := mc.nextSlot
	width := t.Category()
	mc.nextSlot += width
	mc.b.ReserveLocal(slot, width)
	return localVar{slot: slot, typ: t}
}

func (mc *methodCtx) lookupLocal(name string) (localVar, bool) {
	lv, ok := mc.locals[name]
	return lv, ok
}

func (mc *methodCtx) pushLoop(label string, breakL, continueL bcbuild.Label) {
	mc.loops = append(mc.loops, loopFrame{label: label, breakL: breakL, continueL: continueL, isLoop: true, finallyDepth: len(mc.pendingFinally)})
}

func (mc *methodCtx) pushBreakOnly(label string, breakL bcbuild.Label) {
	mc.loops = append(mc.loops, loopFrame{label: label, breakL: breakL, isLoop: false, finallyDepth: len(mc.pendingFinally)})
}

// pushLoopWithFinally is pushLoop under the name the statement compiler
// actually calls; kept distinct so a reader can tell at the call site that
// the frame's finallyDepth matters here.
func (mc *methodCtx) pushLoopWithFinally(label string, breakL, continueL bcbuild.Label) {
	mc.pushLoop(label, breakL, continueL)
}

func (mc *methodCtx) pushBreakOnlyWithFinally(label string, breakL bcbuild.Label) {
	mc.pushBreakOnly(label, breakL)
}

func (mc *methodCtx) popLoop() {
	mc.loops = mc.loops[:len(mc.loops)-1]
}

// breakTarget resolves the label a break (with optional name) should jump
// to: the nearest enclosing frame if label is "", else the named frame.
func (mc *methodCtx) breakTarget(label string) (bcbuild.Label, bool) {
	l, _, ok := mc.breakTargetFrame(label)
	return l, ok
}

// breakTargetFrame is breakTarget plus the matched frame itself, so the
// caller can read how many pending finally blocks to inline first.
func (mc *methodCtx) breakTargetFrame(label string) (bcbuild.Label, loopFrame, bool) {
	if label == "" {
		if len(mc.loops) == 0 {
			return bcbuild.Label{}, loopFrame{}, false
		}
		f := mc.loops[len(mc.loops)-1]
		return f.breakL, f, true
	}
	for i := len(mc.loops) - 1; i >= 0; i-- {
		if mc.loops[i].label == label {
			return mc.loops[i].breakL, mc.loops[i], true
		}
	}
	return bcbuild.Label{}, loopFrame{}, false
}

// continueTarget resolves the label a continue (with optional name)
// should jump to. Only loop frames carry a continue target.
func (mc *methodCtx) continueTarget(label string) (bcbuild.Label, bool) {
	l, _, ok := mc.continueTargetFrame(label)
	return l, ok
}

func (mc *methodCtx) continueTargetFrame(label string) (bcbuild.Label, loopFrame, bool) {
	if label == "" {
		for i := len(mc.loops) - 1; i >= 0; i-- {
			if mc.loops[i].isLoop {
				return mc.loops[i].continueL, mc.loops[i], true
			}
		}
		return bcbuild.Label{}, loopFrame{}, false
	}
	for i := len(mc.loops) - 1; i >= 0; i-- {
		if mc.loops[i].label == label && mc.loops[i].isLoop {
			return mc.loops[i].continueL, mc.loops[i], true
		}
	}
	return bcbuild.Label{}, loopFrame{}, false
}

func (mc *methodCtx) resolveType(tn ast.TypeNode) bctypes.Type {
	t, err := mc.unit.resolveType(tn)
	if err != nil {
		mc.addErr(err)
		return bctypes.ObjectType
	}
	return t
}

func (mc *methodCtx) nextLambdaName() string {
	mc.unit.lambdaSeq++
	return fmt.Sprintf("lambda$%d", mc.unit.lambdaSeq)
}
