package ir

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/rtti"
	"github.com/adeptlang/go-adept/pkg/token"
)

// MethodKey identifies a method endpoint list by subject and method name.
type MethodKey struct {
	StructName string
	MethodName string
}

// SharedCommon caches the IR types every function needs.
type SharedCommon struct {
	Usize *Type
	Bool  *Type
	I8    *Type
	Ptr   *Type // *u8
	Void  *Type
}

// Global is a module-level variable slot.
type Global struct {
	Name       string
	Type       *Type
	AstType    ast.Type
	Initial    *Value // nil means zero-initialize in module init
	IsExternal bool
	Source     token.Source
}

// AnonGlobal is an anonymous module-scoped global holding an addressable
// constant. IsConstant gates read-only placement by the backend.
type AnonGlobal struct {
	ID          int
	Type        *Type
	Initializer *Value
	IsConstant  bool
}

// StaticVariable is a function-local variable with static storage.
type StaticVariable struct {
	ID      int
	Type    *Type
	Initial *Value
}

// RTTIRelocation defers the resolution of a type's __types__ index.
// Placeholder is a usize literal patched in place during finalization.
type RTTIRelocation struct {
	HumanNotation   string
	Placeholder     *Value
	SourceOnFailure token.Source
}

// VtableInit links a class to the anonymous global holding its finalized
// dispatch table.
type VtableInit struct {
	ClassName    string
	Signature    string
	TableGlobal  int // anonymous global id
	TableType    *Type
	GlobalOffset int // field index of the vtable pointer within the class
}

// VtableDispatch records a generated dispatcher and the slot it calls
// through, for backend diagnostics.
type VtableDispatch struct {
	DispatcherID FuncID
	Slot         int
}

// Module is an intermediate representation module: the sole hand-off from
// the middle end to a backend. On success the job list is empty and every
// RTTI relocation has been resolved.
type Module struct {
	Common SharedCommon

	TypeMap *TypeMap

	Funcs     []*Func
	FuncMap   map[string]*EndpointList
	MethodMap map[MethodKey]*EndpointList

	Globals         []*Global
	AnonGlobals     []*AnonGlobal
	StaticVariables []*StaticVariable

	JobList []Endpoint

	RTTIRelocations []*RTTIRelocation
	Collector       *rtti.Collector

	VtableInits      []VtableInit
	VtableDispatches []VtableDispatch

	InitFuncID   FuncID
	DeinitFuncID FuncID
}

// NewModule makes an empty module with its shared common types.
func NewModule() *Module {
	usize := &Type{Kind: TypeU64}
	i8 := &Type{Kind: TypeS8}

	return &Module{
		Common: SharedCommon{
			Usize: usize,
			Bool:  &Type{Kind: TypeBoolean},
			I8:    i8,
			Ptr:   PointerTo(&Type{Kind: TypeU8}),
			Void:  &Type{Kind: TypeVoid},
		},
		TypeMap:      NewTypeMap(),
		FuncMap:      make(map[string]*EndpointList),
		MethodMap:    make(map[MethodKey]*EndpointList),
		Collector:    rtti.NewCollector(),
		InitFuncID:   InvalidFuncID,
		DeinitFuncID: InvalidFuncID,
	}
}

// AddFunc appends an IR function skeleton and returns it.
func (m *Module) AddFunc(f *Func) *Func {
	f.ID = FuncID(len(m.Funcs))
	m.Funcs = append(m.Funcs, f)
	return f
}

// Func returns the function with the given id.
func (m *Module) Func(id FuncID) *Func {
	return m.Funcs[id]
}

// CreateFuncMapping inserts an endpoint under a function name, optionally
// queueing it for body generation.
func (m *Module) CreateFuncMapping(name string, endpoint Endpoint, addToJobList bool) {
	list := m.FuncMap[name]
	if list == nil {
		list = &EndpointList{}
		m.FuncMap[name] = list
	}
	list.Insert(endpoint)

	if addToJobList {
		m.JobList = append(m.JobList, endpoint)
	}
}

// CreateMethodMapping inserts an endpoint under a (subject, method) key.
func (m *Module) CreateMethodMapping(structName, methodName string, endpoint Endpoint) {
	key := MethodKey{StructName: structName, MethodName: methodName}
	list := m.MethodMap[key]
	if list == nil {
		list = &EndpointList{}
		m.MethodMap[key] = list
	}
	list.Insert(endpoint)
}

// FindFuncEndpoints returns the endpoint list for a function name, or nil.
func (m *Module) FindFuncEndpoints(name string) *EndpointList {
	return m.FuncMap[name]
}

// FindMethodEndpoints returns the endpoint list for a method, or nil.
func (m *Module) FindMethodEndpoints(structName, methodName string) *EndpointList {
	return m.MethodMap[MethodKey{StructName: structName, MethodName: methodName}]
}

// PopJob removes and returns the next queued endpoint.
func (m *Module) PopJob() (Endpoint, bool) {
	if len(m.JobList) == 0 {
		return Endpoint{}, false
	}
	job := m.JobList[0]
	m.JobList = m.JobList[1:]
	return job, true
}

// AddAnonGlobal appends an anonymous global and returns its slot.
func (m *Module) AddAnonGlobal(t *Type, initializer *Value, isConstant bool) *AnonGlobal {
	anon := &AnonGlobal{
		ID:          len(m.AnonGlobals),
		Type:        t,
		Initializer: initializer,
		IsConstant:  isConstant,
	}
	m.AnonGlobals = append(m.AnonGlobals, anon)
	return anon
}

// AddStaticVariable appends a static variable slot and returns its id.
func (m *Module) AddStaticVariable(t *Type, initial *Value) int {
	id := len(m.StaticVariables)
	m.StaticVariables = append(m.StaticVariables, &StaticVariable{ID: id, Type: t, Initial: initial})
	return id
}

// AddRTTIRelocation queues a deferred __types__ index patch.
func (m *Module) AddRTTIRelocation(humanNotation string, placeholder *Value, sourceOnFailure token.Source) {
	m.RTTIRelocations = append(m.RTTIRelocations, &RTTIRelocation{
		HumanNotation:   humanNotation,
		Placeholder:     placeholder,
		SourceOnFailure: sourceOnFailure,
	})
}

// FindGlobal returns the index of the named global, or -1.
func (m *Module) FindGlobal(name string) int {
	for i, global := range m.Globals {
		if global.Name == name {
			return i
		}
	}
	return -1
}
