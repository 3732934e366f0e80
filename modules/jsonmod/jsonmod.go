// Package jsonmod provides Covenant's "json" host module: Value<->JSON
// marshaling, grounded on rugo's modules/json ({json.go,runtime.go})
// method set (parse/encode/pretty), adapted from interface{}-based
// conversion to direct vm.Value conversion.
package jsonmod

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/covenant-lang/covenant/modules"
	"github.com/covenant-lang/covenant/vm"
)

type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Call(_ context.Context, method string, args []vm.Value, _ map[string]vm.Value) (vm.Value, error) {
	switch method {
	case "parse":
		if err := modules.RequireArgs(method, args, 1); err != nil {
			return vm.Value{}, err
		}
		s, err := modules.StringArg(args[0])
		if err != nil {
			return vm.Value{}, err
		}
		var raw interface{}
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return vm.Value{}, fmt.Errorf("json.parse: invalid JSON: %w", err)
		}
		return fromJSON(raw), nil
	case "encode":
		if err := modules.RequireArgs(method, args, 1); err != nil {
			return vm.Value{}, err
		}
		b, err := json.Marshal(toJSON(args[0]))
		if err != nil {
			return vm.Value{}, fmt.Errorf("json.encode: %w", err)
		}
		return vm.Str(string(b)), nil
	case "pretty":
		if err := modules.RequireArgs(method, args, 1); err != nil {
			return vm.Value{}, err
		}
		b, err := json.MarshalIndent(toJSON(args[0]), "", "  ")
		if err != nil {
			return vm.Value{}, fmt.Errorf("json.pretty: %w", err)
		}
		return vm.Str(string(b)), nil
	default:
		return vm.Value{}, fmt.Errorf("json: unknown method %q", method)
	}
}

// toJSON converts a Value into the plain Go types encoding/json expects.
func toJSON(v vm.Value) interface{} {
	switch v.Kind {
	case vm.KindInt:
		return v.I
	case vm.KindFloat:
		return v.F
	case vm.KindString:
		return v.S
	case vm.KindBool:
		return v.B
	case vm.KindNull:
		return nil
	case vm.KindList:
		out := make([]interface{}, len(v.List))
		for i, el := range v.List {
			out[i] = toJSON(el)
		}
		return out
	case vm.KindObject:
		out := make(map[string]interface{}, len(v.Object))
		for k, val := range v.Object {
			out[k] = toJSON(val)
		}
		return out
	default:
		return nil
	}
}

// fromJSON converts encoding/json's decoded interface{} tree into Values.
// Whole-number float64s become Int (spec.md's Int/Float split has no JSON
// counterpart, so a JSON number round-trips as Int when it has no
// fractional part, matching rugo's convertJSON behavior).
func fromJSON(v interface{}) vm.Value {
	switch val := v.(type) {
	case map[string]interface{}:
		fields := make(map[string]vm.Value, len(val))
		for k, child := range val {
			fields[k] = fromJSON(child)
		}
		return vm.Object("", fields)
	case []interface{}:
		out := make([]vm.Value, len(val))
		for i, child := range val {
			out[i] = fromJSON(child)
		}
		return vm.List(out)
	case string:
		return vm.Str(val)
	case bool:
		return vm.Bool(val)
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) && !math.IsNaN(val) {
			return vm.Int(int64(val))
		}
		return vm.Float(val)
	case nil:
		return vm.Null()
	default:
		return vm.Null()
	}
}
