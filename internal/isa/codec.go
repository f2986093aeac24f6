package isa

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/storage"
)

// Format selects a serialization for compiled programs.
type Format string

const (
	FormatCBOR Format = "cbor"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case FormatCBOR, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("isa: unknown format %q", name)
}

// WireProgram is the serializable form of a compiled program.
type WireProgram struct {
	Globals []string   `cbor:"1,keyasint" yaml:"globals,omitempty"`
	Rules   []WireRule `cbor:"2,keyasint" yaml:"rules"`
}

// WireRule is one serialized rule.
type WireRule struct {
	Name         string            `cbor:"1,keyasint" yaml:"name"`
	Cells        []string          `cbor:"2,keyasint,omitempty" yaml:"cells,omitempty"`
	Instructions []WireInstruction `cbor:"3,keyasint" yaml:"instructions"`
}

// WireInstruction is one serialized instruction.
type WireInstruction struct {
	Op       string               `cbor:"1,keyasint" yaml:"op"`
	Operands map[string]WireValue `cbor:"2,keyasint,omitempty" yaml:"operands,omitempty"`
	Comment  string               `cbor:"3,keyasint,omitempty" yaml:"comment,omitempty"`
}

// WireValue is a tagged value tree.
type WireValue struct {
	Kind string      `cbor:"1,keyasint" yaml:"kind"`
	Num  float64     `cbor:"2,keyasint,omitempty" yaml:"num,omitempty"`
	Text string      `cbor:"3,keyasint,omitempty" yaml:"text,omitempty"`
	Flag bool        `cbor:"4,keyasint,omitempty" yaml:"flag,omitempty"`
	Cell *WireCell   `cbor:"5,keyasint,omitempty" yaml:"cell,omitempty"`
	Args []WireValue `cbor:"6,keyasint,omitempty" yaml:"args,omitempty"`
}

// WireCell is a serialized storage handle.
type WireCell struct {
	Index    int    `cbor:"1,keyasint" yaml:"index"`
	Name     string `cbor:"2,keyasint" yaml:"name"`
	Global   bool   `cbor:"3,keyasint,omitempty" yaml:"global,omitempty"`
	Internal bool   `cbor:"4,keyasint,omitempty" yaml:"internal,omitempty"`
}

// ToWire converts a finalized instruction. Placeholders cannot be
// serialized and are reported as errors.
func ToWire(in Instruction) (WireInstruction, error) {
	w := WireInstruction{Op: in.Op.String(), Comment: in.Comment}
	if len(in.Operands) > 0 {
		w.Operands = make(map[string]WireValue, len(in.Operands))
	}
	for name, v := range in.Operands {
		wv, err := valueToWire(v)
		if err != nil {
			return WireInstruction{}, fmt.Errorf("isa: %s operand %s: %w", in.Op, name, err)
		}
		w.Operands[name] = wv
	}
	return w, nil
}

// FromWire converts a serialized instruction back.
func FromWire(w WireInstruction) (Instruction, error) {
	op, ok := ParseOpcode(w.Op)
	if !ok {
		return Instruction{}, fmt.Errorf("isa: unknown opcode %q", w.Op)
	}
	in := Instruction{Op: op, Comment: w.Comment}
	if len(w.Operands) > 0 {
		in.Operands = make(map[string]Value, len(w.Operands))
	}
	for name, wv := range w.Operands {
		v, err := valueFromWire(wv)
		if err != nil {
			return Instruction{}, fmt.Errorf("isa: %s operand %s: %w", op, name, err)
		}
		in.Operands[name] = v
	}
	return in, nil
}

func valueToWire(v Value) (WireValue, error) {
	switch x := v.(type) {
	case Number:
		return WireValue{Kind: "number", Num: float64(x)}, nil
	case String:
		return WireValue{Kind: "string", Text: string(x)}, nil
	case Bool:
		return WireValue{Kind: "bool", Flag: bool(x)}, nil
	case Null:
		return WireValue{Kind: "null"}, nil
	case Var:
		h := x.Cell
		return WireValue{Kind: "var", Cell: &WireCell{
			Index:    h.Index,
			Name:     h.Name,
			Global:   h.Global,
			Internal: h.Internal,
		}}, nil
	case Binary:
		return wireNode("binary", string(x.Op), x.Left, x.Right)
	case Compare:
		return wireNode("compare", string(x.Op), x.Left, x.Right)
	case Not:
		return wireNode("not", "", x.X)
	case IndexOf:
		return wireNode("index", "", x.Array, x.Index)
	case Array:
		return wireNode("array", "", x.Elems...)
	case Call:
		return wireNode("call", x.Name, x.Args...)
	case *Placeholder:
		return WireValue{}, fmt.Errorf("unresolved placeholder %s", x)
	default:
		return WireValue{}, fmt.Errorf("unsupported value %T", v)
	}
}

func wireNode(kind, text string, children ...Value) (WireValue, error) {
	w := WireValue{Kind: kind, Text: text}
	for _, c := range children {
		wc, err := valueToWire(c)
		if err != nil {
			return WireValue{}, err
		}
		w.Args = append(w.Args, wc)
	}
	return w, nil
}

func valueFromWire(w WireValue) (Value, error) {
	args := make([]Value, len(w.Args))
	for i, a := range w.Args {
		v, err := valueFromWire(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	arity := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s value has %d children, want %d", w.Kind, len(args), n)
		}
		return nil
	}

	switch w.Kind {
	case "number":
		return Number(w.Num), nil
	case "string":
		return String(w.Text), nil
	case "bool":
		return Bool(w.Flag), nil
	case "null":
		return Null{}, nil
	case "var":
		if w.Cell == nil {
			return nil, fmt.Errorf("var value without cell")
		}
		return Var{Cell: storage.Handle{
			Index:    w.Cell.Index,
			Name:     w.Cell.Name,
			Global:   w.Cell.Global,
			Internal: w.Cell.Internal,
		}}, nil
	case "binary":
		if err := arity(2); err != nil {
			return nil, err
		}
		return Binary{Op: BinOp(w.Text), Left: args[0], Right: args[1]}, nil
	case "compare":
		if err := arity(2); err != nil {
			return nil, err
		}
		return Compare{Op: CmpOp(w.Text), Left: args[0], Right: args[1]}, nil
	case "not":
		if err := arity(1); err != nil {
			return nil, err
		}
		return Not{X: args[0]}, nil
	case "index":
		if err := arity(2); err != nil {
			return nil, err
		}
		return IndexOf{Array: args[0], Index: args[1]}, nil
	case "array":
		return Array{Elems: args}, nil
	case "call":
		return Call{Name: w.Text, Args: args}, nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", w.Kind)
	}
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("isa: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Encode writes p to w in the given format.
func Encode(w io.Writer, format Format, p *WireProgram) error {
	switch format {
	case FormatCBOR:
		return cborEncMode.NewEncoder(w).Encode(p)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("isa: unknown format %q", format)
	}
}

// Decode reads a program written by Encode.
func Decode(r io.Reader, format Format) (*WireProgram, error) {
	var p WireProgram
	var err error
	switch format {
	case FormatCBOR:
		err = cbor.NewDecoder(r).Decode(&p)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&p)
	default:
		return nil, fmt.Errorf("isa: unknown format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("isa: decode %s: %w", format, err)
	}
	return &p, nil
}
