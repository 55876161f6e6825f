package witgo

import (
	"context"
	"fmt"
	"reflect"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	moduleType  = reflect.TypeFor[api.Module]()
)

// Exporter provides a convenient, chainable API for exporting Go functions to a guest.
//
// Exported functions use the flat core-wasm signature directly: an optional
// context.Context, an api.Module (the calling guest), then i32/i64/f32/f64 values.
// Strings and lists travel as (ptr, len) pairs handled with Guest.
type Exporter struct {
	wazero.HostModuleBuilder
}

// NewExporter creates a new Exporter that wraps a wazero.HostModuleBuilder.
func NewExporter(builder wazero.HostModuleBuilder) *Exporter {
	return &Exporter{HostModuleBuilder: builder}
}

// MustExport is a convenience wrapper around Export that panics on error.
func (e *Exporter) MustExport(funcName string, goFunc any) *Exporter {
	if err := e.Export(funcName, goFunc); err != nil {
		panic(err)
	}
	return e
}

// Export registers a Go function as a host import for the guest module.
func (e *Exporter) Export(funcName string, goFunc any) error {
	funcType := reflect.TypeOf(goFunc)
	if funcType == nil || funcType.Kind() != reflect.Func {
		return fmt.Errorf("`goFunc` for %s must be a function, but got %T", funcName, goFunc)
	}
	if err := checkSignature(funcType); err != nil {
		return fmt.Errorf("invalid signature for %s: %w", funcName, err)
	}

	e.NewFunctionBuilder().WithFunc(goFunc).Export(funcName)
	return nil
}

// checkSignature rejects signatures that WithFunc would only catch at Instantiate time.
func checkSignature(funcType reflect.Type) error {
	i := 0
	if i < funcType.NumIn() && funcType.In(i) == contextType {
		i++
	}
	if i < funcType.NumIn() && funcType.In(i) == moduleType {
		i++
	}
	for ; i < funcType.NumIn(); i++ {
		if !isFlatKind(funcType.In(i).Kind()) {
			return fmt.Errorf("param %d has non-flat type %v", i, funcType.In(i))
		}
	}
	for j := 0; j < funcType.NumOut(); j++ {
		if !isFlatKind(funcType.Out(j).Kind()) {
			return fmt.Errorf("result %d has non-flat type %v", j, funcType.Out(j))
		}
	}
	return nil
}

func isFlatKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint32, reflect.Int32, reflect.Uint64, reflect.Int64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
