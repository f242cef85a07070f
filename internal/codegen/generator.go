// Package codegen lowers a parsed Java 8 source file into one or more
// JVM class files. It runs in two phases per compilation: DeclareSignatures
// registers every declared class's fields and methods so the resolver can
// see them (including classes from other files compiled in the same
// invocation), then CompileBodies walks each method body and emits
// bytecode against the now-complete classpath view.
//
// Grounded on _examples/original_source/pyjopa/codegen's generator/
// statements/expressions/lambdas modules, ported into this compiler's
// class-file and bytecode-builder types.
package codegen

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aoki-yuta/javac8/internal/ast"
	"github.com/aoki-yuta/javac8/internal/bctypes"
	"github.com/aoki-yuta/javac8/internal/classfile"
	"github.com/aoki-yuta/javac8/internal/classpath"
	"github.com/aoki-yuta/javac8/internal/resolve"
)

// Generator holds the classpath every Unit resolves names against.
type Generator struct {
	cp *classpath.Classpath
}

// NewGenerator returns a Generator that resolves class names against cp.
func NewGenerator(cp *classpath.Classpath) *Generator {
	return &Generator{cp: cp}
}

// CompiledClass is one finished class file, ready to be written out under
// its binary name.
type CompiledClass struct {
	InternalName string // e.g. "com/example/Counter" or "com/example/Counter$1Adder"
	Bytes        []byte
}

// Unit is one source file's worth of compilation state, shared between
// the two phases.
type Unit struct {
	gen       *Generator
	file      *ast.File
	pkgPath   string // internal-name package prefix, "" for the default package
	resolver  *resolve.Resolver
	classes          []*pendingClass
	lambdaSeq        int
	enumConstantType map[*ast.EnumConstant]string // constant -> its runtime class, when it has a body
	errs             []error
}

// pendingClass is one class/interface/enum being built, from signature
// declaration through body compilation to final bytes.
type pendingClass struct {
	unit         *Unit
	decl         ast.Declaration
	internalName string
	outerName    string // "" for a top-level class
	isInterface  bool
	isEnum       bool
	class        *classfile.Class

	methodByDecl map[*ast.MethodDecl]*classfile.Method
	fieldByDecl  map[*ast.FieldDecl]*classfile.Field
	implicitCtor *classfile.Method
	clinitMethod *classfile.Method

	// constantBody and enumDecl are set only on the synthetic final
	// subclass generated for an enum constant with a constant-specific
	// body; decl on such a pendingClass is the owning *ast.EnumDecl
	// itself, so CompileBodies must check constantBody first instead of
	// switching on decl's type.
	constantBody *ast.EnumConstant
	enumDecl     *ast.EnumDecl

	bootstrapMethods []classfile.BootstrapMethod
}

// getOrCreateClinit returns pc's <clinit> method, creating and registering
// one if none was declared yet (the common case for a plain class or
// interface with static field initializers; an enum already has one from
// declareEnum).
func (pc *pendingClass) getOrCreateClinit() *classfile.Method {
	if pc.clinitMethod != nil {
		return pc.clinitMethod
	}
	pool := pc.class.Pool
	for _, m := range pc.class.Methods {
		if pool.Utf8At(m.NameIdx) == "<clinit>" {
			pc.clinitMethod = m
			return m
		}
	}
	method := &classfile.Method{
		AccessFlags: classfile.AccStatic,
		NameIdx:     pool.Utf8("<clinit>"),
		DescIdx:     pool.Utf8("()V"),
	}
	pc.class.Methods = append(pc.class.Methods, method)
	pc.clinitMethod = method
	return method
}

// findMethodByName returns pc's declared method named name, for the
// synthetic enum methods (values, valueOf, <clinit>) that have no source
// ast.MethodDecl to key a map by. Not safe for user-declared overloaded
// names; only ever used for names javac itself reserves.
func findMethodByName(pc *pendingClass, name string) *classfile.Method {
	pool := pc.class.Pool
	for _, m := range pc.class.Methods {
		if pool.Utf8At(m.NameIdx) == name {
			return m
		}
	}
	return nil
}

// addBootstrapMethod registers a BootstrapMethods entry (shared by every
// invokedynamic instruction in the class, one entry per distinct lambda or
// method reference call site) and returns its index.
func (pc *pendingClass) addBootstrapMethod(bm classfile.BootstrapMethod) uint16 {
	idx := uint16(len(pc.bootstrapMethods))
	pc.bootstrapMethods = append(pc.bootstrapMethods, bm)
	return idx
}

// attachBootstrapMethods finalizes the class's BootstrapMethods attribute,
// once every method body (and so every invokedynamic site) has been
// compiled. A no-op when the class has no lambdas or method references.
func (pc *pendingClass) attachBootstrapMethods() {
	if len(pc.bootstrapMethods) == 0 {
		return
	}
	pc.class.Attributes = append(pc.class.Attributes, classfile.BootstrapMethodsAttribute{Methods: pc.bootstrapMethods})
}

func newPendingClass(unit *Unit, decl ast.Declaration, internalName, outerName string, class *classfile.Class) *pendingClass {
	return &pendingClass{
		unit:         unit,
		decl:         decl,
		internalName: internalName,
		outerName:    outerName,
		class:        class,
		methodByDecl: make(map[*ast.MethodDecl]*classfile.Method),
		fieldByDecl:  make(map[*ast.FieldDecl]*classfile.Field),
	}
}

// NewUnit starts a compilation unit for one parsed source file.
func (g *Generator) NewUnit(file *ast.File) *Unit {
	pkgPath := strings.ReplaceAll(file.Package, ".", "/")

	var imports, wildcards []string
	for _, imp := range file.Imports {
		if imp.Static {
			continue
		}
		internal := strings.ReplaceAll(imp.Path, ".", "/")
		if imp.Wildcard {
			wildcards = append(wildcards, internal)
		} else {
			imports = append(imports, internal)
		}
	}

	u := &Unit{
		gen:     g,
		file:    file,
		pkgPath: pkgPath,
	}
	u.resolver = resolve.New(g.cp, pkgPath, imports, wildcards)
	return u
}

func (u *Unit) addErr(err error) {
	if err != nil {
		u.errs = append(u.errs, err)
	}
}

func (u *Unit) qualify(simpleName string) string {
	if u.pkgPath == "" {
		return simpleName
	}
	return u.pkgPath + "/" + simpleName
}

// DeclareSignatures registers every class, interface and enum in the
// unit's field/method signatures into the classpath, so that resolution
// during CompileBodies (in this unit or any other compiled alongside it)
// can see them without a class-file round trip.
func (u *Unit) DeclareSignatures() []error {
	for _, decl := range u.file.Decls {
		u.declareTopLevel(decl, "")
	}
	return u.errs
}

func (u *Unit) declareTopLevel(decl ast.Declaration, outerName string) *pendingClass {
	switch d := decl.(type) {
	case *ast.ClassDecl:
		return u.declareClass(d, outerName)
	case *ast.InterfaceDecl:
		return u.declareInterface(d, outerName)
	case *ast.EnumDecl:
		return u.declareEnum(d, outerName)
	default:
		u.addErr(fmt.Errorf("codegen: unsupported top-level declaration %T", decl))
		return nil
	}
}

func (u *Unit) internalNameFor(simpleName, outerName string) string {
	if outerName == "" {
		return u.qualify(simpleName)
	}
	return outerName + "$" + simpleName
}

func modifiersToAccess(m ast.Modifier) uint16 {
	var flags uint16
	if m.Has(ast.ModPublic) {
		flags |= classfile.AccPublic
	}
	if m.Has(ast.ModPrivate) {
		flags |= classfile.AccPrivate
	}
	if m.Has(ast.ModProtected) {
		flags |= classfile.AccProtected
	}
	if m.Has(ast.ModStatic) {
		flags |= classfile.AccStatic
	}
	if m.Has(ast.ModFinal) {
		flags |= classfile.AccFinal
	}
	if m.Has(ast.ModAbstract) {
		flags |= classfile.AccAbstract
	}
	if m.Has(ast.ModSynchronized) {
		flags |= classfile.AccSynchronized
	}
	return flags
}

func (u *Unit) declareClass(d *ast.ClassDecl, outerName string) *pendingClass {
	internalName := u.internalNameFor(d.Name, outerName)
	class := classfile.NewClass()
	pool := class.Pool

	access := modifiersToAccess(d.Modifiers) | classfile.AccSuper
	class.AccessFlags = access
	class.ThisClass = pool.Class(internalName)

	superName := "java/lang/Object"
	if d.Extends != nil {
		if ct, ok := d.Extends.(*ast.ClassType); ok {
			if name, err := u.resolveClassName(ct.Name); err == nil {
				superName = name
			} else {
				u.addErr(err)
			}
		}
	}
	class.SuperClass = pool.Class(superName)

	for _, it := range d.Implements {
		if ct, ok := it.(*ast.ClassType); ok {
			if name, err := u.resolveClassName(ct.Name); err == nil {
				class.Interfaces = append(class.Interfaces, pool.Class(name))
			} else {
				u.addErr(err)
			}
		}
	}

	pc := newPendingClass(u, d, internalName, outerName, class)
	u.classes = append(u.classes, pc)

	for _, f := range d.Fields {
		u.declareField(pc, f)
	}
	for _, ctor := range d.Constructors {
		u.declareMethod(pc, ctor)
	}
	if len(d.Constructors) == 0 {
		u.declareImplicitConstructor(pc)
	}
	for _, m := range d.Methods {
		u.declareMethod(pc, m)
	}

	u.gen.cp.RegisterInProcess(internalName, class)

	if outerName != "" || len(d.Nested) > 0 {
		class.Attributes = append(class.Attributes, innerClassesAttribute(pc, d.Nested))
	}
	if attr := u.annotationsAttribute(pool, d.Annotations); attr != nil {
		class.Attributes = append(class.Attributes, attr)
	}
	u.attachSourceFile(class)

	for _, n := range d.Nested {
		u.declareTopLevel(n, internalName)
	}

	return pc
}

func (u *Unit) declareInterface(d *ast.InterfaceDecl, outerName string) *pendingClass {
	internalName := u.internalNameFor(d.Name, outerName)
	class := classfile.NewClass()
	pool := class.Pool

	class.AccessFlags = modifiersToAccess(d.Modifiers) | classfile.AccInterface | classfile.AccAbstract
	class.ThisClass = pool.Class(internalName)
	class.SuperClass = pool.Class("java/lang/Object")

	for _, it := range d.Extends {
		if ct, ok := it.(*ast.ClassType); ok {
			if name, err := u.resolveClassName(ct.Name); err == nil {
				class.Interfaces = append(class.Interfaces, pool.Class(name))
			} else {
				u.addErr(err)
			}
		}
	}

	pc := newPendingClass(u, d, internalName, outerName, class)
	pc.isInterface = true
	u.classes = append(u.classes, pc)

	for _, f := range d.Fields {
		u.declareField(pc, f)
		// Interface fields are implicitly public static final even when
		// the source leaves the modifiers off.
		if field := pc.fieldByDecl[f]; field != nil {
			field.AccessFlags |= classfile.AccPublic | classfile.AccStatic | classfile.AccFinal
		}
	}
	for _, m := range d.Methods {
		u.declareMethod(pc, m)
		// Interface methods are implicitly public unless private.
		if method := pc.methodByDecl[m]; method != nil && method.AccessFlags&classfile.AccPrivate == 0 {
			method.AccessFlags |= classfile.AccPublic
		}
	}

	u.gen.cp.RegisterInProcess(internalName, class)

	if outerName != "" || len(d.Nested) > 0 {
		class.Attributes = append(class.Attributes, innerClassesAttribute(pc, d.Nested))
	}
	if attr := u.annotationsAttribute(pool, d.Annotations); attr != nil {
		class.Attributes = append(class.Attributes, attr)
	}
	u.attachSourceFile(class)
	for _, n := range d.Nested {
		u.declareTopLevel(n, internalName)
	}
	return pc
}

// declareEnum registers the enum class itself, its implicit machinery
// (one public static final field per constant, $VALUES, values(),
// valueOf(String), and a synthetic (String,int,...)V constructor), and,
// for constants with a constant-specific body, a synthetic final
// subclass overriding the enum's abstract methods.
func (u *Unit) declareEnum(d *ast.EnumDecl, outerName string) *pendingClass {
	internalName := u.internalNameFor(d.Name, outerName)
	class := classfile.NewClass()
	pool := class.Pool

	class.AccessFlags = modifiersToAccess(d.Modifiers) | classfile.AccSuper | classfile.AccEnum | classfile.AccFinal
	class.ThisClass = pool.Class(internalName)
	class.SuperClass = pool.Class("java/lang/Enum")

	for _, it := range d.Implements {
		if ct, ok := it.(*ast.ClassType); ok {
			if name, err := u.resolveClassName(ct.Name); err == nil {
				class.Interfaces = append(class.Interfaces, pool.Class(name))
			} else {
				u.addErr(err)
			}
		}
	}

	pc := newPendingClass(u, d, internalName, outerName, class)
	pc.isEnum = true
	u.classes = append(u.classes, pc)

	enumType := bctypes.Reference(internalName)
	arrayType := bctypes.Array(enumType, 1)

	for _, c := range d.Constants {
		field := &classfile.Field{
			AccessFlags: classfile.AccPublic | classfile.AccStatic | classfile.AccFinal | classfile.AccEnum,
			NameIdx:     pool.Utf8(c.Name),
			DescIdx:     pool.Utf8(enumType.Descriptor()),
		}
		class.Fields = append(class.Fields, field)
	}
	valuesField := &classfile.Field{
		AccessFlags: classfile.AccPrivate | classfile.AccStatic | classfile.AccFinal | classfile.AccSynthetic,
		NameIdx:     pool.Utf8("$VALUES"),
		DescIdx:     pool.Utf8(arrayType.Descriptor()),
	}
	class.Fields = append(class.Fields, valuesField)

	for _, f := range d.Fields {
		u.declareField(pc, f)
	}

	// Synthetic (String,int[,explicit params])V constructor.
	explicitParams := enumExplicitCtorParams(u, d)
	ctorParams := append([]bctypes.Type{bctypes.StringType, bctypes.IntType}, explicitParams...)
	ctorMethod := &classfile.Method{
		AccessFlags: classfile.AccPrivate,
		NameIdx:     pool.Utf8("<init>"),
		DescIdx:     pool.Utf8(bctypes.MethodDescriptor(ctorParams, bctypes.Void)),
	}
	class.Methods = append(class.Methods, ctorMethod)
	pc.implicitCtor = ctorMethod // reused as "the" synthetic constructor slot

	valuesMethod := &classfile.Method{
		AccessFlags: classfile.AccPublic | classfile.AccStatic,
		NameIdx:     pool.Utf8("values"),
		DescIdx:     pool.Utf8(bctypes.MethodDescriptor(nil, arrayType)),
	}
	class.Methods = append(class.Methods, valuesMethod)

	valueOfMethod := &classfile.Method{
		AccessFlags: classfile.AccPublic | classfile.AccStatic,
		NameIdx:     pool.Utf8("valueOf"),
		DescIdx:     pool.Utf8(bctypes.MethodDescriptor([]bctypes.Type{bctypes.StringType}, enumType)),
	}
	class.Methods = append(class.Methods, valueOfMethod)

	clinitMethod := &classfile.Method{
		AccessFlags: classfile.AccStatic,
		NameIdx:     pool.Utf8("<clinit>"),
		DescIdx:     pool.Utf8("()V"),
	}
	class.Methods = append(class.Methods, clinitMethod)
	pc.clinitMethod = clinitMethod

	for _, m := range d.Methods {
		u.declareMethod(pc, m)
	}

	u.gen.cp.RegisterInProcess(internalName, class)
	if outerName != "" || len(d.Nested) > 0 {
		class.Attributes = append(class.Attributes, innerClassesAttribute(pc, d.Nested))
	}
	if attr := u.annotationsAttribute(pool, d.Annotations); attr != nil {
		class.Attributes = append(class.Attributes, attr)
	}
	u.attachSourceFile(class)

	for i := range d.Constants {
		c := &d.Constants[i]
		if len(c.Body) > 0 {
			sub := u.declareEnumConstantBody(pc, d, c, i+1)
			if sub != nil {
				if u.enumConstantType == nil {
					u.enumConstantType = make(map[*ast.EnumConstant]string)
				}
				u.enumConstantType[c] = sub.internalName
			}
		}
	}
	for _, n := range d.Nested {
		u.declareTopLevel(n, internalName)
	}
	return pc
}

// enumExplicitCtorParams returns the parameter types of the enum's first
// declared constructor, or nil if it declares none (the common case).
func enumExplicitCtorParams(u *Unit, d *ast.EnumDecl) []bctypes.Type {
	if len(d.Constructors) == 0 {
		return nil
	}
	ctor := d.Constructors[0]
	params := make([]bctypes.Type, len(ctor.Params))
	for i, p := range ctor.Params {
		t, err := u.resolveType(p.Type)
		if err != nil {
			u.addErr(err)
			t = bctypes.ObjectType
		}
		params[i] = t
	}
	return params
}

// declareEnumConstantBody registers a synthetic final subclass for an
// enum constant declared with a constant-specific body, supported only
// when the enum constructor takes no explicit arguments — the common
// case for the abstract-method-per-constant idiom.
func (u *Unit) declareEnumConstantBody(enumPc *pendingClass, d *ast.EnumDecl, c *ast.EnumConstant, seq int) *pendingClass {
	if len(d.Constructors) > 0 {
		u.addErr(fmt.Errorf("codegen: enum constant %s.%s: constant bodies with constructor arguments are not supported", d.Name, c.Name))
		return nil
	}
	internalName := fmt.Sprintf("%s$%d", enumPc.internalName, seq)
	class := classfile.NewClass()
	pool := class.Pool
	class.AccessFlags = classfile.AccSuper | classfile.AccFinal
	class.ThisClass = pool.Class(internalName)
	class.SuperClass = pool.Class(enumPc.internalName)

	pc := newPendingClass(u, d, internalName, enumPc.internalName, class)
	pc.constantBody = c
	pc.enumDecl = d
	u.classes = append(u.classes, pc)

	ctorMethod := &classfile.Method{
		AccessFlags: classfile.AccPrivate,
		NameIdx:     pool.Utf8("<init>"),
		DescIdx:     pool.Utf8(bctypes.MethodDescriptor([]bctypes.Type{bctypes.StringType, bctypes.IntType}, bctypes.Void)),
	}
	class.Methods = append(class.Methods, ctorMethod)
	pc.implicitCtor = ctorMethod

	for _, decl := range c.Body {
		if m, ok := decl.(*ast.MethodDecl); ok {
			u.declareMethod(pc, m)
		}
	}

	u.gen.cp.RegisterInProcess(internalName, class)
	class.Attributes = append(class.Attributes, innerClassesAttribute(pc, nil))
	u.attachSourceFile(class)
	return pc
}

func (u *Unit) declareField(pc *pendingClass, f *ast.FieldDecl) {
	typ, err := u.resolveType(f.Type)
	if err != nil {
		u.addErr(err)
		typ = bctypes.ObjectType
	}
	pool := pc.class.Pool
	field := &classfile.Field{
		AccessFlags: modifiersToAccess(f.Modifiers),
		NameIdx:     pool.Utf8(f.Name),
		DescIdx:     pool.Utf8(typ.Descriptor()),
	}
	if attr := u.annotationsAttribute(pool, f.Annotations); attr != nil {
		field.Attributes = append(field.Attributes, attr)
	}
	pc.class.Fields = append(pc.class.Fields, field)
	pc.fieldByDecl[f] = field
}

func (u *Unit) declareMethod(pc *pendingClass, m *ast.MethodDecl) {
	params := make([]bctypes.Type, len(m.Params))
	for i, p := range m.Params {
		t, err := u.resolveType(p.Type)
		if err != nil {
			u.addErr(err)
			t = bctypes.ObjectType
		}
		if p.Varargs {
			t = bctypes.Array(t, 1)
		}
		params[i] = t
	}
	ret := bctypes.Void
	if m.ReturnType != nil {
		t, err := u.resolveType(m.ReturnType)
		if err != nil {
			u.addErr(err)
		} else {
			ret = t
		}
	}

	name := m.Name
	if m.IsConstructor {
		name = "<init>"
		ret = bctypes.Void
	}

	desc := bctypes.MethodDescriptor(params, ret)
	pool := pc.class.Pool
	access := modifiersToAccess(m.Modifiers)
	if m.IsVarargs() {
		access |= classfile.AccVarargs
	}
	if pc.isInterface && m.Body == nil {
		access |= classfile.AccAbstract
	}
	method := &classfile.Method{
		AccessFlags: access,
		NameIdx:     pool.Utf8(name),
		DescIdx:     pool.Utf8(desc),
	}
	if attr := u.annotationsAttribute(pool, m.Annotations); attr != nil {
		method.Attributes = append(method.Attributes, attr)
	}
	if attr := u.parameterAnnotationsAttribute(pool, m.Params); attr != nil {
		method.Attributes = append(method.Attributes, attr)
	}
	pc.class.Methods = append(pc.class.Methods, method)
	pc.methodByDecl[m] = method
}

// declareImplicitConstructor registers the default no-arg constructor
// javac synthesizes for a class with none written.
func (u *Unit) declareImplicitConstructor(pc *pendingClass) {
	pool := pc.class.Pool
	method := &classfile.Method{
		AccessFlags: classfile.AccPublic,
		NameIdx:     pool.Utf8("<init>"),
		DescIdx:     pool.Utf8("()V"),
	}
	pc.class.Methods = append(pc.class.Methods, method)
	pc.implicitCtor = method
}

// innerClassesAttribute builds the InnerClasses attribute for pc: an entry
// describing pc itself when it is nested inside another class, plus one
// entry per member class/interface/enum pc directly declares.
func innerClassesAttribute(pc *pendingClass, nested []ast.Declaration) *classfile.InnerClassesAttribute {
	pool := pc.class.Pool
	var entries []classfile.InnerClassEntry
	if pc.outerName != "" {
		entries = append(entries, selfInnerClassEntry(pc))
	}
	entries = append(entries, nestedInnerClassEntries(pool, pc.internalName, nested)...)
	return &classfile.InnerClassesAttribute{Classes: entries}
}

func selfInnerClassEntry(pc *pendingClass) classfile.InnerClassEntry {
	pool := pc.class.Pool
	simple := pc.internalName
	if i := strings.LastIndexByte(simple, '$'); i >= 0 {
		simple = simple[i+1:]
	} else if i := strings.LastIndexByte(simple, '/'); i >= 0 {
		simple = simple[i+1:]
	}
	var outerIdx uint16
	if pc.outerName != "" {
		outerIdx = pool.Class(pc.outerName)
	}
	return classfile.InnerClassEntry{
		InnerClassInfoIdx:     pool.Class(pc.internalName),
		OuterClassInfoIdx:     outerIdx,
		InnerNameIdx:          pool.Utf8(simple),
		InnerClassAccessFlags: pc.class.AccessFlags | classfile.AccStatic,
	}
}

// nestedInnerClassEntries builds one entry per member declaration nested
// directly inside outerInternal. Their access flags come straight from the
// source modifiers since the member's own pendingClass, which carries the
// merged flags used for its own class file, has not been built yet at the
// point the enclosing class's signature is declared.
func nestedInnerClassEntries(pool *classfile.ConstantPool, outerInternal string, nested []ast.Declaration) []classfile.InnerClassEntry {
	var entries []classfile.InnerClassEntry
	for _, n := range nested {
		var simpleName string
		var mods ast.Modifier
		switch d := n.(type) {
		case *ast.ClassDecl:
			simpleName, mods = d.Name, d.Modifiers
		case *ast.InterfaceDecl:
			simpleName, mods = d.Name, d.Modifiers
		case *ast.EnumDecl:
			simpleName, mods = d.Name, d.Modifiers
		default:
			continue
		}
		inner := outerInternal + "$" + simpleName
		entries = append(entries, classfile.InnerClassEntry{
			InnerClassInfoIdx:     pool.Class(inner),
			OuterClassInfoIdx:     pool.Class(outerInternal),
			InnerNameIdx:          pool.Utf8(simpleName),
			InnerClassAccessFlags: modifiersToAccess(mods) | classfile.AccStatic,
		})
	}
	return entries
}

// attachSourceFile records the originating source file's base name on
// class, so stack traces and javap -l output can name it. Skipped when the
// unit has no associated filename, e.g. source read from stdin.
func (u *Unit) attachSourceFile(class *classfile.Class) {
	name := u.file.Pos().Filename
	if name == "" {
		return
	}
	class.Attributes = append(class.Attributes, classfile.SourceFileAttribute{
		SourceFileIdx: class.Pool.Utf8(filepath.Base(name)),
	})
}

// annotationsAttribute builds a RuntimeVisibleAnnotations attribute from a
// declaration's parsed @Name(...) markers, or nil if it carries none.
func (u *Unit) annotationsAttribute(pool *classfile.ConstantPool, annots []*ast.Annotation) *classfile.RuntimeVisibleAnnotationsAttribute {
	if len(annots) == 0 {
		return nil
	}
	entries := make([]classfile.AnnotationEntry, len(annots))
	for i, a := range annots {
		entries[i] = u.buildAnnotationEntry(pool, a)
	}
	return &classfile.RuntimeVisibleAnnotationsAttribute{Annotations: entries}
}

// parameterAnnotationsAttribute builds a RuntimeVisibleParameterAnnotations
// attribute for a method's formal parameters, or nil if none of them carry
// an annotation — the attribute is all-or-nothing per the JVM spec, so a
// method with even one annotated parameter gets one entry per parameter,
// empty slices standing in for the unannotated ones.
func (u *Unit) parameterAnnotationsAttribute(pool *classfile.ConstantPool, params []ast.Param) *classfile.RuntimeVisibleParameterAnnotationsAttribute {
	any := false
	for _, p := range params {
		if len(p.Annotations) > 0 {
			any = true
			break
		}
	}
	if !any {
		return nil
	}
	perParam := make([][]classfile.AnnotationEntry, len(params))
	for i, p := range params {
		entries := make([]classfile.AnnotationEntry, len(p.Annotations))
		for j, a := range p.Annotations {
			entries[j] = u.buildAnnotationEntry(pool, a)
		}
		perParam[i] = entries
	}
	return &classfile.RuntimeVisibleParameterAnnotationsAttribute{ParameterAnnotations: perParam}
}

// buildAnnotationEntry resolves an annotation's type name to a class
// descriptor and converts each element value, following the same
// literal-to-constant-pool-index mapping ConstantValue attributes use for
// static final field initializers.
func (u *Unit) buildAnnotationEntry(pool *classfile.ConstantPool, a *ast.Annotation) classfile.AnnotationEntry {
	typeName := a.Name
	if resolved, err := u.resolveClassName(a.Name); err == nil {
		typeName = resolved
	}
	descriptor := "L" + typeName + ";"
	entry := classfile.AnnotationEntry{TypeIdx: pool.Utf8(descriptor)}
	for _, v := range a.Values {
		name := v.Name
		if name == "" {
			name = "value"
		}
		tag, valIdx, ok := u.annotationElementValue(pool, v.Value)
		if !ok {
			u.addErr(fmt.Errorf("codegen: annotation %s: unsupported element value for %q", a.Name, name))
			continue
		}
		entry.Values = append(entry.Values, classfile.ElementValuePair{
			NameIdx: pool.Utf8(name),
			Tag:     tag,
			ValIdx:  valIdx,
		})
	}
	return entry
}

// annotationElementValue maps a parsed element value expression to its
// element_value tag byte and constant pool index. Only literal constants
// are supported; this compiler's annotation values never carry nested
// annotations, arrays, or enum constants.
func (u *Unit) annotationElementValue(pool *classfile.ConstantPool, expr ast.Expression) (tag byte, idx uint16, ok bool) {
	switch e := expr.(type) {
	case *ast.StringLiteral:
		return 's', pool.Utf8(e.Value), true
	case *ast.BoolLiteral:
		v := int32(0)
		if e.Value {
			v = 1
		}
		return 'Z', pool.Integer(v), true
	case *ast.CharLiteral:
		return 'C', pool.Integer(int32(e.Value)), true
	case *ast.IntLiteral:
		return 'I', pool.Integer(e.Value), true
	case *ast.LongLiteral:
		return 'J', pool.Long(e.Value), true
	case *ast.FloatLiteral:
		return 'F', pool.Float(e.Value), true
	case *ast.DoubleLiteral:
		return 'D', pool.Double(e.Value), true
	}
	return 0, 0, false
}

func (u *Unit) resolveClassName(name string) (string, error) {
	internal := strings.ReplaceAll(name, ".", "/")
	resolved, ok, err := u.resolver.ResolveClassName(internal)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("cannot resolve class %q", name)
	}
	return resolved, nil
}

// resolveType converts a type node from the AST into the bytecode
// builder's Type representation, resolving any class name through the
// unit's resolver.
func (u *Unit) resolveType(tn ast.TypeNode) (bctypes.Type, error) {
	switch t := tn.(type) {
	case *ast.PrimitiveType:
		return primitiveTypeByName(t.Name)
	case *ast.ClassType:
		internal, err := u.resolveClassName(t.Name)
		if err != nil {
			return bctypes.Type{}, err
		}
		if internal == "java/lang/String" {
			return bctypes.StringType, nil
		}
		return bctypes.Reference(internal), nil
	case *ast.ArrayType:
		elem, err := u.resolveType(t.Elem)
		if err != nil {
			return bctypes.Type{}, err
		}
		return bctypes.Array(elem, t.Dims), nil
	default:
		return bctypes.Type{}, fmt.Errorf("codegen: unsupported type node %T", tn)
	}
}

func primitiveTypeByName(name string) (bctypes.Type, error) {
	switch name {
	case "boolean":
		return bctypes.BooleanType, nil
	case "byte":
		return bctypes.ByteType, nil
	case "short":
		return bctypes.ShortType, nil
	case "char":
		return bctypes.CharType, nil
	case "int":
		return bctypes.IntType, nil
	case "long":
		return bctypes.LongType, nil
	case "float":
		return bctypes.FloatType, nil
	case "double":
		return bctypes.DoubleType, nil
	case "void":
		return bctypes.Void, nil
	default:
		return bctypes.Type{}, fmt.Errorf("codegen: unknown primitive type %q", name)
	}
}

// CompileBodies compiles every declared method and constructor body in
// this unit, now that DeclareSignatures has run for every unit in the
// invocation. Returns one CompiledClass per class, interface, or enum
// declared, plus the synthetic subclass of each enum constant that has a
// body; lambda bodies compile into private static methods of their
// enclosing class, not into classes of their own.
func (u *Unit) CompileBodies() ([]CompiledClass, []error) {
	var out []CompiledClass
	for _, pc := range u.classes {
		if pc.constantBody != nil {
			u.compileEnumConstantBody(pc)
			continue
		}
		switch d := pc.decl.(type) {
		case *ast.ClassDecl:
			u.compileClassBody(pc, d)
		case *ast.InterfaceDecl:
			u.compileInterfaceBody(pc, d)
		case *ast.EnumDecl:
			u.compileEnumBody(pc, d)
		}
	}
	for _, pc := range u.classes {
		bytes, err := pc.class.ToBytes()
		if err != nil {
			u.addErr(fmt.Errorf("%s: %w", pc.internalName, err))
			continue
		}
		out = append(out, CompiledClass{InternalName: pc.internalName, Bytes: bytes})
	}
	return out, u.errs
}

// CompileFile runs both phases for a single file in isolation. Driver
// code compiling several files together should instead call
// NewUnit/DeclareSignatures for each file first, then CompileBodies for
// each, so cross-file references resolve correctly.
func (g *Generator) CompileFile(file *ast.File) ([]CompiledClass, []error) {
	u := g.NewUnit(file)
	if errs := u.DeclareSignatures(); len(errs) > 0 {
		return nil, errs
	}
	return u.CompileBodies()
}
