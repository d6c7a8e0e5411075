// Package builtin implements every native operation benzl programs can
// call: arithmetic, comparison, sequence, buffer, formatting, type,
// control-flow, I/O, database and websocket builtins, plus the
// introspection pair (stats, uuid) restored from original_source's
// call-count debugging support.
package builtin

import (
	"benzl/internal/arena"
	"benzl/internal/database"
	"benzl/internal/errors"
	"benzl/internal/symtable"
	"benzl/internal/value"
	"benzl/internal/wsconn"

	"github.com/google/uuid"
)

// pooledArena is the allocator installed by Register, read back by the
// stats builtin; nil until Register runs.
var pooledArena *arena.Arena

// Register installs every builtin in env, allocating one database
// Manager and one websocket Manager for the lifetime of the running
// program, and installs a fresh arena as the process-wide Value
// allocator, so Value cells are carved from fixed-size blocks rather
// than heap-allocated one at a time.
func Register(env *value.Environment) {
	pooledArena = arena.New()
	pooledArena.Install()

	registerArith(env)
	registerCompare(env)
	registerSeq(env)
	registerBuffer(env)
	registerFormat(env)
	registerTypes(env)
	registerControl(env)
	registerIO(env)
	registerDB(env, database.NewManager())
	registerNet(env, wsconn.NewManager())
	registerIntrospect(env)
}

func registerIntrospect(env *value.Environment) {
	register(env, "stats", biStats)
	register(env, "uuid", biUUID)
}

// biStats returns a Dict of every builtin's invocation count so far,
// grounded in original_source's benzl-call-count-debug.c instrumentation
// and backed by Environment.Tick/StatsSnapshot, plus the pooled arena's
// own allocated/reused cell counters.
func biStats(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "stats", args, 0); err != nil {
		return err
	}
	snapshot := env.StatsSnapshot()
	table := symtable.New[*value.Value]()
	for name, count := range snapshot {
		table.Insert(value.HashName(name), name, value.NewInt(count))
	}
	if pooledArena != nil {
		allocated, reused := pooledArena.Stats()
		table.Insert(value.HashName("arena-allocated"), "arena-allocated", value.NewInt(allocated))
		table.Insert(value.HashName("arena-reused"), "arena-reused", value.NewInt(reused))
	}
	return withPos(value.NewDict(table), pos)
}

func biUUID(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "uuid", args, 0); err != nil {
		return err
	}
	return withPos(value.NewString(uuid.NewString()), pos)
}
