// Package mm implements the optional memory-management instruction pass
// (spec.md §4.H): given an already lowered and type-checked Ir, it
// inserts reference-count adjustments into every block under the
// `own-rc` policy. Under `none` the pass is the identity — spec.md §4.H
// says so plainly, and P6 requires that running it with `gc = none`
// return an IR structurally equal to its input, so `none` never walks
// the program at all.
package mm

import (
	"github.com/hassan/compiler/internal/ir"
	"github.com/hassan/compiler/internal/types"
)

// Policy selects how heap-aggregate ownership is tracked.
type Policy int

const (
	// None is the identity transform (spec.md §4.H, P6): Run returns
	// prog unmodified.
	None Policy = iota
	// OwnRc maintains, per block, a live set of local -> (type,
	// ref-count) pairs seeded at 1 the moment a heap aggregate is
	// constructed (SPEC_FULL §9 resolves the seed-at-0-vs-1 ambiguity
	// in favour of 1, so P7's "ends in a free" holds even for a local
	// that is never aliased). Every further read of a tracked local
	// as an operand of a let-bound expression — a variable or field
	// read, a unary or binary operand, a call argument, a variant body,
	// a record field, or an array element — retains it: increments the
	// count and emits an incrementRc. Reads by println, by a socket
	// primitive, or as a match source do not retain. A `return`
	// releases every live local except the one being returned: its
	// count is decremented, and the pass emits `decrementRc` if the
	// count is still positive or `free` once it has reached zero
	// (spec.md §4.H, P7). A `match` releases nothing itself; each arm
	// recurses with its own copy of the live set, so one arm's retains
	// cannot be observed by a sibling arm.
	OwnRc
)

// Run instruments prog in place according to policy and returns it.
func Run(sess *types.Session, prog *ir.Ir, policy Policy) *ir.Ir {
	if policy == None {
		return prog
	}
	prog.Defs.Iter(func(_ ir.DefIdx, def *ir.Def) {
		if def == nil || def.Entry.Body == nil {
			return
		}
		instrumentBlock(sess, def.Entry.Body, make(map[int]*liveAggregate))
	})
	return prog
}

// liveAggregate records a heap-aggregate local tracked as live within the
// block currently being instrumented, along with its current reference
// count.
type liveAggregate struct {
	ty    types.Ty
	count int
}

// instrumentBlock rewrites one block's instructions in place and then
// recurses into its terminator. live is the set inherited from the
// parent scope; match arms each receive an independent copy so their
// retains cannot leak into a sibling arm or the parent.
func instrumentBlock(sess *types.Session, block *ir.Block, live map[int]*liveAggregate) {
	var out []ir.Instruction
	for _, instr := range block.Instructions {
		for _, read := range operandsOf(instr) {
			if entry, tracked := live[read.Index()]; tracked {
				entry.count++
				out = append(out, &ir.IncRcInstr{SpanVal: read.Span(), Local: read, Ty: entry.ty})
			}
		}
		out = append(out, instr)

		if let, ok := instr.(*ir.LetInstr); ok {
			if ty, isHeap := heapResultTy(sess, let); isHeap {
				live[let.Binding.Index()] = &liveAggregate{ty: ty, count: 1}
			}
		}
	}
	block.Instructions = out

	switch term := block.Terminator.(type) {
	case *ir.ReturnTerm:
		releaseAll(block, live, term.Local.Index())
	case *ir.MatchTerm:
		for i := range term.Arms {
			if term.Arms[i].Target != nil {
				instrumentBlock(sess, term.Arms[i].Target, cloneLive(live))
			}
		}
	}
}

// releaseAll emits the release instruction for every live heap aggregate
// in this block except the one local the terminator hands ownership off
// to (the returned value, which is never released here).
func releaseAll(block *ir.Block, live map[int]*liveAggregate, except int) {
	keys := make([]int, 0, len(live))
	for k := range live {
		keys = append(keys, k)
	}
	sortInts(keys)

	for _, k := range keys {
		if k == except {
			continue
		}
		entry := live[k]
		entry.count--
		local := ir.NewLocalIdx(k)
		if entry.count > 0 {
			block.Instructions = append(block.Instructions, &ir.DecRcInstr{SpanVal: local.Span(), Local: local, Ty: entry.ty})
			continue
		}
		block.Instructions = append(block.Instructions, &ir.FreeInstr{SpanVal: local.Span(), Local: local, Ty: entry.ty})
	}
}

// cloneLive makes an independent copy of live so that one match arm's
// retains cannot be observed by a sibling arm or the parent scope.
func cloneLive(live map[int]*liveAggregate) map[int]*liveAggregate {
	out := make(map[int]*liveAggregate, len(live))
	for k, v := range live {
		out[k] = &liveAggregate{ty: v.ty, count: v.count}
	}
	return out
}

// sortInts is a small insertion sort over the handful of locals typically
// live in one block, used so release order never depends on Go's
// unspecified map iteration order.
func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// heapResultTy reports the type of a Let instruction's bound expression
// when that type is a heap aggregate, the only kind this pass tracks
// (spec.md §4.G/§4.H — primitives are never retain/release targets).
func heapResultTy(sess *types.Session, let *ir.LetInstr) (types.Ty, bool) {
	var ty types.Ty
	switch e := let.Expr.(type) {
	case *ir.Record:
		ty = e.Ty
	case *ir.Variant:
		ty = e.Ty
	default:
		return types.Ty{}, false
	}
	if !sess.IsHeapAggregate(ty) {
		return types.Ty{}, false
	}
	return ty, true
}

// operandsOf lists every LocalIdx an instruction reads, in the order they
// are read, used to detect when a tracked heap aggregate gains a second
// owner.
func operandsOf(instr ir.Instruction) []ir.LocalIdx {
	let, ok := instr.(*ir.LetInstr)
	if !ok {
		return nil
	}
	switch e := let.Expr.(type) {
	case *ir.Var:
		return []ir.LocalIdx{e.Local}
	case *ir.Unop:
		return []ir.LocalIdx{e.Operand}
	case *ir.Binop:
		return []ir.LocalIdx{e.Left, e.Right}
	case *ir.Call:
		return e.Args.Values()
	case *ir.Variant:
		return []ir.LocalIdx{e.Body}
	case *ir.Record:
		return e.Fields.Values()
	case *ir.ArrayLiteral:
		return e.Elements
	default:
		return nil
	}
}
