// Package timemod provides Covenant's "time" host module: timestamps,
// sleeping (capped at 60s per spec.md §4.9/§7), formatting, and parsing.
// Grounded on rugo's modules/time ({time.go,runtime.go}) method set,
// adapted to direct vm.HostModule dispatch.
package timemod

import (
	"context"
	"fmt"
	"time"

	"github.com/covenant-lang/covenant/modules"
	"github.com/covenant-lang/covenant/vm"
)

// maxSleep is spec.md §4.9's "sleep caps at 60,000 ms" resource limit.
const maxSleep = 60 * time.Second

type Time struct{}

func (Time) Name() string { return "time" }

func (Time) Call(ctx context.Context, method string, args []vm.Value, _ map[string]vm.Value) (vm.Value, error) {
	switch method {
	case "now":
		if err := modules.RequireArgs(method, args, 0); err != nil {
			return vm.Value{}, err
		}
		return vm.Float(float64(time.Now().UnixNano()) / 1e9), nil
	case "millis":
		if err := modules.RequireArgs(method, args, 0); err != nil {
			return vm.Value{}, err
		}
		return vm.Int(time.Now().UnixMilli()), nil
	case "sleep":
		if err := modules.RequireArgs(method, args, 1); err != nil {
			return vm.Value{}, err
		}
		secs, err := modules.Float64Arg(args[0])
		if err != nil {
			return vm.Value{}, err
		}
		d := time.Duration(secs * float64(time.Second))
		if d > maxSleep {
			return vm.Value{}, fmt.Errorf("time.sleep: %s exceeds the %s limit", d, maxSleep)
		}
		if d < 0 {
			d = 0
		}
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return vm.Value{}, ctx.Err()
		}
		return vm.Null(), nil
	case "format":
		if err := modules.RequireArgs(method, args, 2); err != nil {
			return vm.Value{}, err
		}
		ts, err := modules.Float64Arg(args[0])
		if err != nil {
			return vm.Value{}, err
		}
		layout, err := modules.StringArg(args[1])
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Str(unixToTime(ts).Format(layout)), nil
	case "parse":
		if err := modules.RequireArgs(method, args, 2); err != nil {
			return vm.Value{}, err
		}
		s, err := modules.StringArg(args[0])
		if err != nil {
			return vm.Value{}, err
		}
		layout, err := modules.StringArg(args[1])
		if err != nil {
			return vm.Value{}, err
		}
		t, err := time.Parse(layout, s)
		if err != nil {
			return vm.Value{}, fmt.Errorf("time.parse: %w", err)
		}
		return vm.Float(float64(t.Unix()) + float64(t.Nanosecond())/1e9), nil
	case "since":
		if err := modules.RequireArgs(method, args, 1); err != nil {
			return vm.Value{}, err
		}
		ts, err := modules.Float64Arg(args[0])
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Float(float64(time.Now().UnixNano())/1e9 - ts), nil
	default:
		return vm.Value{}, fmt.Errorf("time: unknown method %q", method)
	}
}

// unixToTime converts a Unix timestamp to UTC so time.format is
// deterministic regardless of the host's local timezone.
func unixToTime(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
