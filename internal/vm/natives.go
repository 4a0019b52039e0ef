package vm

import (
	"time"

	"github.com/7amdev/kriolu-go/internal/heap"
)

// defineNatives installs the small set of host-provided globals every guest
// program can call without a klasi/funson declaration of its own. Grounded
// on the teacher's interpreter exposing a "clock" native for benchmarking
// (pkg/vm native registration) -- Kriolu needs the same hook since spec.md's
// GC-stress testing scenarios time loops.
func (vm *VM) defineNatives() {
	vm.defineNative("reloju", 0, func(args []heap.Value) (heap.Value, error) {
		return heap.Number(float64(time.Now().UnixNano()) / 1e9), nil
	})
	vm.defineNative("tipo", 1, func(args []heap.Value) (heap.Value, error) {
		return heap.FromObject(vm.heap.NewString(args[0].TypeName())), nil
	})
}

func (vm *VM) defineNative(name string, arity int, fn func(args []heap.Value) (heap.Value, error)) {
	native := vm.heap.NewNativeFunction(name, arity, fn)
	key := vm.heap.NewString(name)
	vm.globals.Set(key, heap.FromObject(native))
}
