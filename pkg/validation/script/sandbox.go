package script

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// harden removes host escape hatches and freezes the builtins so a rule
// cannot affect later runs.
func harden(vm *goja.Runtime) error {
	for _, name := range []string{"require", "module", "exports", "process", "global", "globalThis"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	if err := vm.Set("eval", func(goja.FunctionCall) goja.Value {
		panic(vm.NewGoError(errors.New("eval is not allowed")))
	}); err != nil {
		return fmt.Errorf("restrict eval: %w", err)
	}

	freeze, err := vm.RunString(`(function (obj) {
  if (obj) {
    Object.freeze(obj);
    if (obj.prototype) { Object.freeze(obj.prototype); }
  }
})`)
	if err != nil {
		return fmt.Errorf("create freeze function: %w", err)
	}
	freezeFn, ok := goja.AssertFunction(freeze)
	if !ok {
		return errors.New("freeze function is not a function")
	}
	for _, name := range []string{"Object", "Array", "Function", "String", "Number", "Boolean", "Date", "RegExp", "Error", "Math", "JSON"} {
		obj := vm.Get(name)
		if obj == nil || goja.IsUndefined(obj) {
			continue
		}
		if _, err := freezeFn(goja.Undefined(), obj); err != nil {
			return fmt.Errorf("freeze %s: %w", name, err)
		}
	}
	return nil
}
