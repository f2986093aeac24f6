package vm

import (
	"math"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/types"
)

// builtinArity gives the argument count of each engine value function.
var builtinArity = map[string]int{
	"CountOf":       1,
	"AbsoluteValue": 1,
	"Min":           2,
	"Max":           2,
	"Round":         1,
	"Floor":         1,
	"Ceil":          1,
	"SquareRoot":    1,
	"String":        1,
	"Append":        2,
	"Matches":       2,
}

// call evaluates an engine value function.
func (vm *VM) call(f *frame, name string, args []types.Value) (types.Value, error) {
	arity, ok := builtinArity[name]
	if !ok {
		return types.Null(), vm.errorf(f, "unknown function %s", name)
	}
	if len(args) != arity {
		return types.Null(), vm.errorf(f, "%s takes %d arguments, got %d", name, arity, len(args))
	}

	switch name {
	case "CountOf":
		return types.Num(float64(args[0].Len())), nil
	case "AbsoluteValue":
		return types.Num(math.Abs(args[0].AsNum())), nil
	case "Min":
		return types.Num(math.Min(args[0].AsNum(), args[1].AsNum())), nil
	case "Max":
		return types.Num(math.Max(args[0].AsNum(), args[1].AsNum())), nil
	case "Round":
		return types.Num(math.Round(args[0].AsNum())), nil
	case "Floor":
		return types.Num(math.Floor(args[0].AsNum())), nil
	case "Ceil":
		return types.Num(math.Ceil(args[0].AsNum())), nil
	case "SquareRoot":
		n := args[0].AsNum()
		if n < 0 {
			return types.Num(0), nil
		}
		return types.Num(math.Sqrt(n)), nil
	case "String":
		return types.Str(args[0].AsStr()), nil
	case "Append":
		return args[0].Append(args[1]), nil
	case "Matches":
		re, err := vm.regexCache.Get(args[1].AsStr())
		if err != nil {
			return types.Null(), vm.errorf(f, "Matches: %v", err)
		}
		return types.Bool(re.MatchString(args[0].AsStr())), nil
	}
	return types.Null(), vm.errorf(f, "unknown function %s", name)
}
