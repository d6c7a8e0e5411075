package value

import "benzl/internal/symtable"

// EvalFunc lets a builtin (def, try, load, eval-string, lambda application)
// re-enter the evaluator without the value package importing it; the
// evaluator installs this on the root Environment's Shared state.
type EvalFunc func(env *Environment, v *Value) *Value

// ApplyFunc invokes a Function value (builtin or lambda) with already
// evaluated arguments, used by builtins like buffer-map that call back
// into a user-supplied function.
type ApplyFunc func(env *Environment, fn *Value, args []*Value) *Value

// Shared is the state common to every link of an Environment chain: the
// evaluator callbacks, the current script directory used to resolve
// relative loads, the set of absolute paths already loaded, and builtin
// call counters backing the stats introspection builtin.
type Shared struct {
	Eval          EvalFunc
	Apply         ApplyFunc
	ScriptPath    string
	LoadedModules map[string]bool
	Stats         map[string]int64
}

// Environment is a single link in the chain of SymbolTables searched
// innermost-first (spec.md §4.3).
type Environment struct {
	scope  *symtable.Table[*Value]
	parent *Environment
	shared *Shared
}

// NewRootEnvironment creates the outermost Environment with its own
// Shared state. The evaluator must set Shared.Eval/Shared.Apply before
// any built-in that needs to re-enter evaluation is called.
func NewRootEnvironment() *Environment {
	return &Environment{
		scope: symtable.New[*Value](),
		shared: &Shared{
			LoadedModules: make(map[string]bool),
			Stats:         make(map[string]int64),
		},
	}
}

// Child creates a new innermost scope linked to e, sharing e's Shared
// state (used for lambda application and try/catch's synthesized
// binding; record/dict property lookup uses ChildWithScope instead).
func (e *Environment) Child() *Environment {
	return &Environment{scope: symtable.New[*Value](), parent: e, shared: e.shared}
}

// ChildWithScope creates a new environment whose own table is borrowed
// directly from an existing table (used to splice a Dict's or a
// RecordInstance's properties into the chain for (p x) lookups, per
// spec.md §4.5 rule 1 and §9's splice design note).
func ChildWithScope(parent *Environment, scope *symtable.Table[*Value]) *Environment {
	return &Environment{scope: scope, parent: parent, shared: parent.shared}
}

func (e *Environment) Shared() *Shared { return e.shared }

// Root walks to the outermost Environment in the chain, used by load
// to evaluate a file's top-level forms at the same scope every caller
// sees regardless of where load itself was invoked from (spec.md §4.6).
func (e *Environment) Root() *Environment {
	env := e
	for env.parent != nil {
		env = env.parent
	}
	return env
}

func (e *Environment) Eval(v *Value) *Value {
	return e.shared.Eval(e, v)
}

func (e *Environment) Apply(fn *Value, args []*Value) *Value {
	return e.shared.Apply(e, fn, args)
}

// Get walks the chain innermost-first, stamping BoundName on the found
// Value (a debugging annotation only; spec.md §9).
func (e *Environment) Get(name string) (*Value, bool) {
	hash := HashName(name)
	for env := e; env != nil; env = env.parent {
		if entry, ok := env.scope.Get(hash, name); ok {
			entry.Value.BoundName = name
			return entry.Value, true
		}
	}
	return nil, false
}

// Def binds name in the innermost scope only if absent, per spec.md §4.3.
func (e *Environment) Def(name string, val *Value) bool {
	hash := HashName(name)
	if e.scope.Has(hash, name) {
		return false
	}
	e.scope.Insert(hash, name, val)
	return true
}

// DefTyped is Def with an attached declared type.
func (e *Environment) DefTyped(name string, val, typ *Value) bool {
	hash := HashName(name)
	if e.scope.Has(hash, name) {
		return false
	}
	e.scope.InsertTyped(hash, name, val, typ)
	return true
}

// SetResult reports the outcome of Environment.Set.
type SetResult int

const (
	SetOK SetResult = iota
	SetUnbound
	SetTypeMismatch
)

// Set finds the nearest scope containing name and replaces its value,
// applying the declared type's cast-if-possible rule (spec.md §4.3).
func (e *Environment) Set(name string, val *Value) (*Value, SetResult) {
	hash := HashName(name)
	for env := e; env != nil; env = env.parent {
		if entry, ok := env.scope.Get(hash, name); ok {
			if entry.HasType {
				cast, ok2 := MatchType(val, entry.Type)
				if !ok2 {
					return nil, SetTypeMismatch
				}
				val = cast
			}
			env.scope.Insert(hash, name, val)
			return val, SetOK
		}
	}
	return nil, SetUnbound
}

// DefOrSet always writes to the innermost scope, used internally by the
// evaluator to bind lambda parameters.
func (e *Environment) DefOrSet(name string, val *Value) {
	e.scope.Insert(HashName(name), name, val)
}

// DefOrSetTyped is DefOrSet carrying a declared parameter type.
func (e *Environment) DefOrSetTyped(name string, val, typ *Value) {
	e.scope.InsertTyped(HashName(name), name, val, typ)
}

// Scope exposes the innermost table directly.
func (e *Environment) Scope() *symtable.Table[*Value] { return e.scope }

func (e *Environment) ScriptPath() string { return e.shared.ScriptPath }

func (e *Environment) SetScriptPath(path string) { e.shared.ScriptPath = path }

// MarkLoaded records path as loaded, returning false if it already was
// (spec.md §4.6 load / §5 re-entrant-load guarantee).
func (e *Environment) MarkLoaded(path string) bool {
	if e.shared.LoadedModules[path] {
		return false
	}
	e.shared.LoadedModules[path] = true
	return true
}

func (e *Environment) IsLoaded(path string) bool { return e.shared.LoadedModules[path] }

// Tick increments a builtin's invocation counter, backing the stats
// introspection builtin restored from original_source's call-count
// debugging support (spec.md SPEC_FULL.md §4).
func (e *Environment) Tick(name string) {
	e.shared.Stats[name]++
}

func (e *Environment) StatsSnapshot() map[string]int64 {
	out := make(map[string]int64, len(e.shared.Stats))
	for k, v := range e.shared.Stats {
		out[k] = v
	}
	return out
}
