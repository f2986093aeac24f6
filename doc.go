// Package ostw compiles structured rule scripts to the flat
// instruction lists of a workshop-style game engine.
//
// The target engine has no jumps. Its rules run top to bottom, can
// skip a computed number of instructions forward, and can restart
// from the top. ostw lowers if/else, while, foreach, break, continue,
// return and inlined function calls onto those primitives, using
// native While/End blocks where the engine supports them.
//
// # Quick Start
//
//	prog, err := ostw.Compile(src, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(prog.Disassemble())
//
// Compiled programs can be executed by the bundled engine simulator:
//
//	output, err := ostw.Run(src, nil)
//
// # Configuration
//
// The [Config] type selects engine capabilities, the restart wait,
// the number of rules lowered in parallel, and which rules to
// compile. [LoadConfig] reads it from a TOML file.
//
// # Error Handling
//
// Errors are returned as specific types:
//   - [ParseError]: syntax errors in the source
//   - [CompileError]: semantic diagnostics; the program is still
//     returned with each offending construct lowered as a no-op
//   - [RuntimeError]: errors raised by the engine simulator
//
// # Serialization
//
// [Program.Encode] writes a listing, CBOR, or YAML; [Decode] reads
// the binary forms back.
package ostw
