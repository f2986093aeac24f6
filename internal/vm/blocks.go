package vm

import "github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"

// blocks records the static nesting of native While blocks. The engine
// pairs While with End by position, not with a runtime stack, so a
// restart or skip that lands inside a block behaves as if control had
// entered it normally.
type blocks struct {
	end   map[int]int // While position -> matching End
	start map[int]int // End position -> matching While
	owner map[int]int // Break/Continue position -> innermost While
}

type blockError struct {
	pos int
	msg string
}

func matchBlocks(code []isa.Instruction) (*blocks, *blockError) {
	b := &blocks{
		end:   make(map[int]int),
		start: make(map[int]int),
		owner: make(map[int]int),
	}
	var open []int
	for pc, in := range code {
		switch in.Op {
		case isa.While:
			open = append(open, pc)
		case isa.End:
			if len(open) == 0 {
				return nil, &blockError{pos: pc, msg: "End without While"}
			}
			w := open[len(open)-1]
			open = open[:len(open)-1]
			b.end[w] = pc
			b.start[pc] = w
		case isa.Break, isa.Continue:
			if len(open) == 0 {
				return nil, &blockError{pos: pc, msg: in.Op.String() + " outside While"}
			}
			b.owner[pc] = open[len(open)-1]
		}
	}
	if len(open) > 0 {
		return nil, &blockError{pos: open[len(open)-1], msg: "While without End"}
	}
	return b, nil
}
