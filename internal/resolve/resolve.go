// Package resolve implements class, field, method, and constructor
// resolution: qualified-name lookup, hierarchy walks, and Java-8 overload
// resolution (applicability via identity, primitive widening and reference
// subtyping, most-specific selection, fixed-arity candidates preferred over
// varargs ones). Applicability does not include boxing or unboxing: a
// primitive argument never matches a wrapper or Object parameter.
package resolve

import (
	"fmt"

	"github.com/aoki-yuta/javac8/internal/bctypes"
	"github.com/aoki-yuta/javac8/internal/classfile"
	"github.com/aoki-yuta/javac8/internal/classpath"
	"github.com/aoki-yuta/javac8/internal/errors"
	"github.com/aoki-yuta/javac8/internal/token"
)

// Resolver answers name and overload queries against a classpath plus the
// current compilation unit's declared package and imports.
type Resolver struct {
	cp          *classpath.Classpath
	pkg         string   // current compilation unit's package, "" for default package
	imports     []string // explicit single-type imports, internal names
	wildcards   []string // explicit on-demand imports, internal package names
}

func New(cp *classpath.Classpath, pkg string, imports, wildcards []string) *Resolver {
	return &Resolver{cp: cp, pkg: pkg, imports: imports, wildcards: wildcards}
}

// widening order for primitive numeric promotion, narrow to wide.
var wideningOrder = []bctypes.PrimitiveKind{
	bctypes.Byte, bctypes.Short, bctypes.Char, bctypes.Int, bctypes.Long, bctypes.Float, bctypes.Double,
}

func wideningRank(k bctypes.PrimitiveKind) int {
	for i, w := range wideningOrder {
		if w == k {
			return i
		}
	}
	return -1
}

// ResolveClassName resolves a simple or qualified name to an internal
// class name, trying, in order: already-qualified (contains '/', or a
// dotted name looked up with its dots turned into '/'), an explicit
// single-type import, the current package, each wildcard import, and
// finally java.lang. This mirrors pyjopa's _resolve_class_name fallback chain.
func (r *Resolver) ResolveClassName(name string) (string, bool, error) {
	qualified := []byte(name)
	for i, c := range qualified {
		if c == '.' {
			qualified[i] = '/'
		}
	}
	if q := string(qualified); containsSlash(q) {
		if _, ok, err := r.cp.Find(q); err != nil {
			return "", false, err
		} else if ok {
			return q, true, nil
		}
	}
	for _, imp := range r.imports {
		if classSimpleName(imp) == name {
			if _, ok, err := r.cp.Find(imp); err != nil {
				return "", false, err
			} else if ok {
				return imp, true, nil
			}
		}
	}
	if r.pkg != "" {
		candidate := r.pkg + "/" + name
		if _, ok, err := r.cp.Find(candidate); err != nil {
			return "", false, err
		} else if ok {
			return candidate, true, nil
		}
	} else {
		if _, ok, err := r.cp.Find(name); err != nil {
			return "", false, err
		} else if ok {
			return name, true, nil
		}
	}
	for _, w := range r.wildcards {
		candidate := w + "/" + name
		if _, ok, err := r.cp.Find(candidate); err != nil {
			return "", false, err
		} else if ok {
			return candidate, true, nil
		}
	}
	candidate := "java/lang/" + name
	if _, ok, err := r.cp.Find(candidate); err != nil {
		return "", false, err
	} else if ok {
		return candidate, true, nil
	}
	return "", false, nil
}

func containsSlash(s string) bool {
	for _, c := range s {
		if c == '/' {
			return true
		}
	}
	return false
}

func classSimpleName(internalName string) string {
	i := len(internalName) - 1
	for i >= 0 && internalName[i] != '/' {
		i--
	}
	return internalName[i+1:]
}

// IsSubclass reports whether sub is class-identical to, or a transitive
// subclass of, super (along the superclass chain only — see
// ImplementsInterface for interface conformance).
func (r *Resolver) IsSubclass(sub, super string) (bool, error) {
	if sub == super {
		return true, nil
	}
	visited := map[string]bool{}
	cur := sub
	for cur != "" && !visited[cur] {
		visited[cur] = true
		rc, ok, err := r.cp.Find(cur)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if rc.SuperName == super {
			return true, nil
		}
		cur = rc.SuperName
	}
	return false, nil
}

// ImplementsInterface reports whether class (or any of its superclasses)
// declares iface among its implemented interfaces, or iface itself
// extends another matching interface.
func (r *Resolver) ImplementsInterface(class, iface string) (bool, error) {
	visited := map[string]bool{}
	var walk func(string) (bool, error)
	walk = func(cur string) (bool, error) {
		if cur == "" || visited[cur] {
			return false, nil
		}
		visited[cur] = true
		rc, ok, err := r.cp.Find(cur)
		if err != nil || !ok {
			return false, err
		}
		for _, i := range rc.Interfaces {
			if i == iface {
				return true, nil
			}
			if ok, err := walk(i); err != nil || ok {
				return ok, err
			}
		}
		return walk(rc.SuperName)
	}
	return walk(class)
}

// IsAssignable reports whether a value of type from can be used where a
// value of type to is expected: identity, primitive widening, or
// reference subtyping/interface conformance. It does not perform boxing
// or unboxing; filterApplicable uses this same check for call-site
// applicability, so overload resolution does not box or unbox either.
func (r *Resolver) IsAssignable(from, to bctypes.Type) (bool, error) {
	if from.Equal(to) {
		return true, nil
	}
	if to.Equal(bctypes.ObjectType) && from.IsReference() {
		return true, nil
	}
	if from.IsPrimitive() && to.IsPrimitive() {
		fr, tr := wideningRank(from.PrimitiveKindOrZero()), wideningRank(to.PrimitiveKindOrZero())
		if fr >= 0 && tr >= 0 {
			// byte/short/char all widen to int and up; char does not widen
			// from byte/short, matching Java's actual promotion rules.
			if from.PrimitiveKindOrZero() == bctypes.Char {
				return tr >= wideningRank(bctypes.Char), nil
			}
			return fr <= tr, nil
		}
		return false, nil
	}
	if from.Equal(bctypes.NullType) && to.IsReference() {
		return true, nil
	}
	if from.IsArray() && to.IsArray() {
		return r.IsAssignable(from.ComponentType(), to.ComponentType())
	}
	if from.Kind() == bctypes.KindReference && to.Kind() == bctypes.KindReference {
		if ok, err := r.IsSubclass(from.ClassName(), to.ClassName()); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}
		return r.ImplementsInterface(from.ClassName(), to.ClassName())
	}
	return false, nil
}

// FindField walks class, then its superclass chain, then its interfaces
// (for inherited static finals), looking for a field named name.
func (r *Resolver) FindField(class, name string) (*classpath.ResolvedField, string, error) {
	visited := map[string]bool{}
	var walk func(string) (*classpath.ResolvedField, string, error)
	walk = func(cur string) (*classpath.ResolvedField, string, error) {
		if cur == "" || visited[cur] {
			return nil, "", nil
		}
		visited[cur] = true
		rc, ok, err := r.cp.Find(cur)
		if err != nil || !ok {
			return nil, "", err
		}
		for i := range rc.Fields {
			if rc.Fields[i].Name == name {
				return &rc.Fields[i], cur, nil
			}
		}
		if f, owner, err := walk(rc.SuperName); err != nil || f != nil {
			return f, owner, err
		}
		for _, iface := range rc.Interfaces {
			if f, owner, err := walk(iface); err != nil || f != nil {
				return f, owner, err
			}
		}
		return nil, "", nil
	}
	return walk(class)
}

// MethodCandidate is one overload considered during resolution, tagged
// with the class that declares it.
type MethodCandidate struct {
	Owner  string
	Method classpath.ResolvedMethod
}

// FindMethod resolves name against argTypes starting at class, walking
// the superclass chain (and, if nothing is found there, interface default
// methods), applying Java-8 applicability and most-specific-method
// selection. This is a direct generalization of pyjopa's _find_method.
func (r *Resolver) FindMethod(class, name string, argTypes []bctypes.Type) (*MethodCandidate, error) {
	candidates, err := r.collectCandidates(class, name)
	if err != nil {
		return nil, err
	}
	applicable, err := r.filterApplicable(candidates, argTypes)
	if err != nil {
		return nil, err
	}
	if len(applicable) == 0 {
		return nil, fmt.Errorf("resolve: no applicable method %s(%d args) found starting from %s", name, len(argTypes), class)
	}
	return r.mostSpecific(applicable)
}

// FindConstructor is FindMethod specialized to "<init>", which by JVM
// convention is never inherited, so only class's own declarations are
// considered.
func (r *Resolver) FindConstructor(class string, argTypes []bctypes.Type) (*MethodCandidate, error) {
	rc, ok, err := r.cp.Find(class)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("resolve: unknown class %s", class)
	}
	var candidates []MethodCandidate
	for _, m := range rc.Methods {
		if m.Name == "<init>" {
			candidates = append(candidates, MethodCandidate{Owner: class, Method: m})
		}
	}
	applicable, err := r.filterApplicable(candidates, argTypes)
	if err != nil {
		return nil, err
	}
	if len(applicable) == 0 {
		return nil, fmt.Errorf("resolve: no applicable constructor for %s(%d args)", class, len(argTypes))
	}
	return r.mostSpecific(applicable)
}

func (r *Resolver) collectCandidates(class, name string) ([]MethodCandidate, error) {
	visited := map[string]bool{}
	var out []MethodCandidate
	var walk func(string) error
	walk = func(cur string) error {
		if cur == "" || visited[cur] {
			return nil
		}
		visited[cur] = true
		rc, ok, err := r.cp.Find(cur)
		if err != nil || !ok {
			return err
		}
		for _, m := range rc.Methods {
			if m.Name == name {
				out = append(out, MethodCandidate{Owner: cur, Method: m})
			}
		}
		if len(out) > 0 {
			return nil // own declarations shadow inherited ones, as in javac
		}
		if err := walk(rc.SuperName); err != nil {
			return err
		}
		for _, iface := range rc.Interfaces {
			if err := walk(iface); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(class); err != nil {
		return nil, err
	}
	return out, nil
}

// filterApplicable keeps candidates callable with argTypes, either by
// exact arity or, for a trailing array parameter, by varargs packing.
// Candidates applicable by exact arity win over those that need varargs
// packing: the packed ones are returned only when no other applies.
func (r *Resolver) filterApplicable(candidates []MethodCandidate, argTypes []bctypes.Type) ([]MethodCandidate, error) {
	var out, packed []MethodCandidate
	for _, c := range candidates {
		params := c.Method.Params
		if len(params) == len(argTypes) {
			ok, err := r.argsCompatible(params, argTypes)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, c)
				continue
			}
		}
		if c.Method.AccessFlags&classfile.AccVarargs != 0 && len(params) > 0 && len(argTypes) >= len(params)-1 {
			// Varargs: last formal is an array type; pack the trailing
			// actual arguments into it and check compatibility.
			fixed := params[:len(params)-1]
			elem := params[len(params)-1].ComponentType()
			if len(argTypes) >= len(fixed) {
				ok, err := r.argsCompatible(fixed, argTypes[:len(fixed)])
				if err != nil {
					return nil, err
				}
				if ok {
					allMatch := true
					for _, extra := range argTypes[len(fixed):] {
						assignable, err := r.IsAssignable(extra, elem)
						if err != nil {
							return nil, err
						}
						if !assignable {
							allMatch = false
							break
						}
					}
					if allMatch {
						packed = append(packed, c)
					}
				}
			}
		}
	}
	if len(out) > 0 {
		return out, nil
	}
	return packed, nil
}

func (r *Resolver) argsCompatible(params, args []bctypes.Type) (bool, error) {
	for i := range params {
		ok, err := r.IsAssignable(args[i], params[i])
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// mostSpecific picks the single candidate whose formal parameters are
// strictly more specific than every other applicable candidate's, per
// pyjopa's _most_specific_method: prefer primitive/non-Object over
// Object, narrower primitive over wider primitive. If no candidate beats
// every other one this way, the call is ambiguous and rejected as a
// TypeError rather than silently picking one, per Java's own overload
// resolution rule.
func (r *Resolver) mostSpecific(candidates []MethodCandidate) (*MethodCandidate, error) {
	for i, c := range candidates {
		winner := true
		for j, other := range candidates {
			if i == j {
				continue
			}
			beats, err := r.moreSpecific(c, other)
			if err != nil {
				return nil, err
			}
			if !beats {
				winner = false
				break
			}
		}
		if winner {
			best := c
			return &best, nil
		}
	}
	return nil, errors.New(errors.TypeError, token.Position{}, fmt.Sprintf(
		"ambiguous method invocation: no candidate among %d applicable overloads is more specific than all others", len(candidates)))
}

func (r *Resolver) moreSpecific(a, b MethodCandidate) (bool, error) {
	for i := range a.Method.Params {
		if i >= len(b.Method.Params) {
			break
		}
		pa, pb := a.Method.Params[i], b.Method.Params[i]
		if pa.Equal(pb) {
			continue
		}
		if pa.IsPrimitive() && pb.IsPrimitive() {
			if wideningRank(pa.PrimitiveKindOrZero()) < wideningRank(pb.PrimitiveKindOrZero()) {
				return true, nil
			}
			return false, nil
		}
		if pa.IsReference() && pb.Equal(bctypes.ObjectType) {
			return true, nil
		}
	}
	return false, nil
}
