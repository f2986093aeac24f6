package compiler_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/compiler"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/parser"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/semantic"
)

// compileSource parses, analyzes and lowers src.
func compileSource(t *testing.T, src string, opts compiler.Options) *compiler.Program {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res, err := semantic.Analyze(prog)
	if err != nil {
		t.Fatalf("semantic error: %v", err)
	}
	p, err := compiler.Compile(prog, res, opts)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return p
}

func listing(r *compiler.Rule) []string {
	lines := make([]string, len(r.Instructions))
	for i, in := range r.Instructions {
		lines[i] = in.String()
	}
	return lines
}

var header = []string{
	"Wait(0.016); // restart: minimum wait",
	"Skip If(skipCounter == 0, 3); // restart: not resuming",
	"Set Variable(skipCounterTemp, skipCounter);",
	"Set Variable(skipCounter, 0);",
	"Skip(skipCounterTemp); // restart: resume",
}

func withHeader(lines ...string) []string {
	return append(append([]string(nil), header...), lines...)
}

func TestCompileListings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "empty rule",
			src:  `rule "r" { }`,
			want: []string{},
		},
		{
			name: "assignments",
			src: `globalvar g;
rule "r" {
	define a = 1;
	a += 2;
	a++;
	g = a * 2;
	g--;
	g = -a;
	g = -3;
}`,
			want: []string{
				"Set Variable(a, 1);",
				"Modify Variable(a, Add, 2);",
				"Modify Variable(a, Add, 1);",
				"Set Variable(global.g, a * 2);",
				"Modify Variable(global.g, Subtract, 1);",
				"Set Variable(global.g, 0 - a);",
				"Set Variable(global.g, -3);",
				"Set Variable(a, null);",
			},
		},
		{
			name: "array elements",
			src: `globalvar xs;
rule "r" {
	xs = [1, 2];
	xs[0] = 5;
	xs[1] *= 3;
}`,
			want: []string{
				"Set Variable(global.xs, [1, 2]);",
				"Set Variable At Index(global.xs, 0, 5);",
				"Set Variable At Index(global.xs, 1, global.xs[1] * 3);",
			},
		},
		{
			name: "builtins and actions",
			src: `globalvar xs;
rule "r" {
	wait(1);
	log("n", count(xs), abs(-2), min(1, 2), matches("ab", "a+"));
}`,
			want: []string{
				"Wait(1);",
				`Log("n", CountOf(global.xs), AbsoluteValue(-2), Min(1, 2), Matches("ab", "a+"));`,
			},
		},
		{
			name: "conditions",
			src: `globalvar a; globalvar b;
rule "r" {
	if (a == 1 && !b) log(1);
	if (!(a < 2)) log(2);
}`,
			want: []string{
				"Skip If(!((global.a == 1) && !global.b), 1); // if",
				"Log(1);",
				"Skip If(global.a < 2, 1); // if",
				"Log(2);",
			},
		},
		{
			name: "if else chain",
			src: `globalvar a;
rule "r" {
	if (a == 1) {
		log(1);
	} else if (a == 2) {
		log(2);
	} else {
		log(3);
	}
}`,
			want: []string{
				"Skip If(global.a != 1, 2); // if",
				"Log(1);",
				"Skip(4); // else",
				"Skip If(global.a != 2, 2); // if",
				"Log(2);",
				"Skip(1); // else",
				"Log(3);",
			},
		},
		{
			name: "teardown at block exit",
			src: `rule "r" {
	define a = 1;
	{
		define b = 2;
		log(b);
	}
	log(a);
}`,
			want: []string{
				"Set Variable(a, 1);",
				"Set Variable(b, 2);",
				"Log(b);",
				"Set Variable(b, null);",
				"Log(a);",
				"Set Variable(a, null);",
			},
		},
		{
			name: "define without value",
			src: `rule "r" {
	define a;
	log(a);
}`,
			want: []string{
				"Set Variable(a, null);",
				"Log(a);",
				"Set Variable(a, null);",
			},
		},
		{
			name: "rule return",
			src: `rule "r" {
	log(1);
	return;
	log(2);
}`,
			want: []string{
				"Log(1);",
				"Abort;",
				"Log(2);",
			},
		},
		{
			name: "while",
			src: `globalvar cond;
rule "r" {
	while (cond) log(1);
}`,
			want: withHeader(
				"Skip If(!global.cond, 4); // while: exit",
				"Log(1);",
				"Set Variable(skipCounter, 0); // restart: resume distance",
				"Loop; // while: repeat",
				"Set Variable(skipCounter, 0);",
			),
		},
		{
			name: "code before loop is not repeated",
			src: `globalvar cond;
rule "r" {
	log("once");
	while (cond) log("again");
}`,
			want: withHeader(
				`Log("once");`,
				"Skip If(!global.cond, 4); // while: exit",
				`Log("again");`,
				"Set Variable(skipCounter, 1); // restart: resume distance",
				"Loop; // while: repeat",
				"Set Variable(skipCounter, 0);",
			),
		},
		{
			name: "foreach",
			src: `globalvar list;
rule "r" {
	foreach (define p in list) {
		log(p);
	}
}`,
			want: withHeader(
				"Set Variable(foreachIndex, 0); // foreach",
				"Skip If(foreachIndex >= CountOf(global.list), 5); // while: exit",
				"Log(global.list[foreachIndex]);",
				"Modify Variable(foreachIndex, Add, 1);",
				"Set Variable(skipCounter, 1); // restart: resume distance",
				"Loop; // while: repeat",
				"Set Variable(skipCounter, 0);",
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := compileSource(t, tt.src, compiler.DefaultOptions())
			if len(p.Rules) != 1 {
				t.Fatalf("got %d rules, want 1", len(p.Rules))
			}
			if diff := cmp.Diff(tt.want, listing(p.Rules[0]), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("listing mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestEndToEndContinue lowers while (cond) { if (x) continue; y(); }.
func TestEndToEndContinue(t *testing.T) {
	src := `globalvar cond; globalvar x;
rule "scenario" {
	while (cond) {
		if (x) continue;
		log("y");
	}
}`
	p := compileSource(t, src, compiler.DefaultOptions())

	want := withHeader(
		"Skip If(!global.cond, 6); // while: exit",
		"Skip If(!global.x, 1); // if",
		"Skip(1); // continue",
		`Log("y");`,
		"Set Variable(skipCounter, 0); // restart: resume distance",
		"Loop; // while: repeat",
		"Set Variable(skipCounter, 0);",
	)
	if diff := cmp.Diff(want, listing(p.Rules[0])); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestDualContinueStrategy(t *testing.T) {
	src := `globalvar cond; globalvar x;
rule "r" {
	while (cond) {
		if (x) continue;
		log("y");
	}
}`

	tests := []struct {
		name string
		caps compiler.Capabilities
		want []string
	}{
		{
			name: "workaround",
			caps: compiler.Capabilities{NativeLoops: true, NativeContinue: true, NativeBreak: true, ContinueWorkaround: true},
			want: []string{
				"While(global.cond); // while",
				"Skip If(!global.x, 1); // if",
				"Skip(1); // continue",
				`Log("y");`,
				"End;",
			},
		},
		{
			name: "native",
			caps: compiler.Capabilities{NativeLoops: true, NativeContinue: true, NativeBreak: true},
			want: []string{
				"While(global.cond); // while",
				"Skip If(!global.x, 1); // if",
				"Continue; // continue",
				`Log("y");`,
				"End;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := compiler.DefaultOptions()
			opts.Capabilities = tt.caps
			p := compileSource(t, src, opts)
			got := listing(p.Rules[0])
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("listing mismatch (-want +got):\n%s", diff)
			}
			native := false
			for _, line := range got {
				if strings.HasPrefix(line, "Continue;") {
					native = true
				}
			}
			if native == tt.caps.ContinueWorkaround {
				t.Errorf("native continue emitted = %t with workaround = %t", native, tt.caps.ContinueWorkaround)
			}
		})
	}
}

func TestNestedBreak(t *testing.T) {
	src := `globalvar a; globalvar b;
rule "nested" {
	while (a) {
		while (b) {
			break;
		}
		log("after inner");
	}
}`
	p := compileSource(t, src, compiler.DefaultOptions())

	want := withHeader(
		"Skip If(!global.a, 9); // while: exit",
		"Skip If(!global.b, 4); // while: exit",
		"Skip(3); // break",
		"Set Variable(skipCounter, 1); // restart: resume distance",
		"Loop; // while: repeat",
		"Set Variable(skipCounter, 0);",
		`Log("after inner");`,
		"Set Variable(skipCounter, 0); // restart: resume distance",
		"Loop; // while: repeat",
		"Set Variable(skipCounter, 0);",
	)
	got := listing(p.Rules[0])
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}

	// The break at 7 lands right after the inner loop, not after the outer one.
	if landing := 7 + 1 + 3; got[landing] != `Log("after inner");` {
		t.Errorf("break lands on %q", got[landing])
	}
}

func TestReturnSkipsBlockTeardown(t *testing.T) {
	src := `rule "r" {
	define a = 1;
	{
		define b = 2;
		return;
	}
}`
	p := compileSource(t, src, compiler.DefaultOptions())

	want := []string{
		"Set Variable(a, 1);",
		"Set Variable(b, 2);",
		"Set Variable(b, null);",
		"Set Variable(a, null);",
		"Abort;",
		"Set Variable(a, null);",
	}
	got := listing(p.Rules[0])
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
	n := 0
	for _, line := range got {
		if line == "Set Variable(b, null);" {
			n++
		}
	}
	if n != 1 {
		t.Errorf("b torn down %d times, want once by the return", n)
	}
}

func TestInlineFunction(t *testing.T) {
	src := `globalvar out;
function clamp(v, lo, hi) {
	if (v < lo) return lo;
	if (v > hi) return hi;
	return v;
}
rule "r" {
	out = clamp(15, 0, 10);
}`
	p := compileSource(t, src, compiler.DefaultOptions())

	teardown := []string{
		"Set Variable(hi, null);",
		"Set Variable(lo, null);",
		"Set Variable(v, null);",
	}
	var want []string
	want = append(want,
		"Set Variable(clampResult, null);",
		"Set Variable(v, 15); // clamp: v",
		"Set Variable(lo, 0); // clamp: lo",
		"Set Variable(hi, 10); // clamp: hi",
		"Skip If(v >= lo, 5); // if",
		"Set Variable(clampResult, lo); // return clamp",
	)
	want = append(want, teardown...)
	want = append(want,
		"Skip(11); // return clamp",
		"Skip If(v <= hi, 5); // if",
		"Set Variable(clampResult, hi); // return clamp",
	)
	want = append(want, teardown...)
	want = append(want,
		"Skip(5); // return clamp",
		"Set Variable(clampResult, v); // return clamp",
	)
	want = append(want, teardown...)
	want = append(want,
		"Skip(0); // return clamp",
		"Set Variable(global.out, clampResult);",
	)

	if diff := cmp.Diff(want, listing(p.Rules[0])); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"clampResult", "v", "lo", "hi"}, p.Rules[0].Cells); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestInlineProcedure(t *testing.T) {
	src := `function greet(name) {
	log("hi", name);
}
rule "r" {
	greet("a");
	greet("b");
}`
	p := compileSource(t, src, compiler.DefaultOptions())

	want := []string{
		`Set Variable(name, "a"); // greet: name`,
		`Log("hi", name);`,
		"Set Variable(name, null);",
		`Set Variable(name_1, "b"); // greet: name`,
		`Log("hi", name_1);`,
		"Set Variable(name_1, null);",
	}
	if diff := cmp.Diff(want, listing(p.Rules[0])); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
	// The second call reuses the released parameter cell.
	if diff := cmp.Diff([]string{"name_1"}, p.Rules[0].Cells); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidConstructsAreNoOps(t *testing.T) {
	src := `rule "r" {
	break;
	log("still here");
	if () log("no");
	continue;
	undefinedFunc();
}`
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res, err := semantic.Analyze(prog)
	if err == nil {
		t.Fatal("expected semantic errors")
	}
	if got := len(res.Diagnostics.Errors()); got != 4 {
		t.Errorf("got %d errors, want 4: %v", got, res.Diagnostics)
	}

	p, err := compiler.Compile(prog, res, compiler.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	want := []string{`Log("still here");`}
	if diff := cmp.Diff(want, listing(p.Rules[0])); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestForwardOnly(t *testing.T) {
	src := `globalvar a; globalvar list;
function pick(v) {
	while (v > 0) {
		if (v == 3) return v;
		v--;
	}
	return 0;
}
rule "mixed" {
	define total = 0;
	foreach (define p in list) {
		if (p < 0) continue;
		if (p > 100) break;
		total += pick(p);
		while (a) {
			if (total > 10) break;
			a--;
		}
	}
	log(total);
}`
	for _, caps := range []compiler.Capabilities{
		compiler.DefaultCapabilities(),
		{NativeLoops: true, NativeContinue: true, NativeBreak: true},
	} {
		t.Run(fmt.Sprintf("native=%t", caps.NativeLoops), func(t *testing.T) {
			opts := compiler.DefaultOptions()
			opts.Capabilities = caps
			p := compileSource(t, src, opts)
			instrs := p.Rules[0].Instructions
			for i, in := range instrs {
				if in.Op != isa.Skip && in.Op != isa.SkipIf {
					continue
				}
				n, ok := in.Operand(isa.Count).(isa.Number)
				if !ok {
					continue // header skip by a cell value
				}
				if n < 0 || i+1+int(n) > len(instrs) {
					t.Errorf("instruction %d (%s) jumps outside the rule", i, in)
				}
			}
		})
	}
}

func TestRuleOrderUnderParallelLowering(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "rule \"r%d\" { define i = %d; while (i > 0) { log(i); i--; } }\n", i%7, i)
	}

	opts := compiler.DefaultOptions()
	opts.Workers = 8
	p := compileSource(t, sb.String(), opts)

	if len(p.Rules) != 40 {
		t.Fatalf("got %d rules, want 40", len(p.Rules))
	}
	for i, r := range p.Rules {
		if want := fmt.Sprintf("r%d", i%7); r.Name != want {
			t.Errorf("rule %d = %q, want %q", i, r.Name, want)
		}
		first := r.Instructions[5].String()
		if want := fmt.Sprintf("Set Variable(i, %d);", i); first != want {
			t.Errorf("rule %d starts with %q, want %q", i, first, want)
		}
	}

	serial := opts
	serial.Workers = 1
	q := compileSource(t, sb.String(), serial)
	if diff := cmp.Diff(q.Disassemble(), p.Disassemble()); diff != "" {
		t.Errorf("parallel lowering differs from serial (-serial +parallel):\n%s", diff)
	}
}

func TestFilter(t *testing.T) {
	src := `rule "keep one" { log(1); } rule "drop" { log(2); } rule "keep two" { log(3); }`
	opts := compiler.DefaultOptions()
	opts.Filter = func(name string) bool { return strings.HasPrefix(name, "keep") }
	p := compileSource(t, src, opts)

	var names []string
	for _, r := range p.Rules {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"keep one", "keep two"}, names); diff != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", diff)
	}
	if _, ok := p.Rule("drop"); ok {
		t.Error("filtered rule was compiled")
	}
}

func TestDisassemble(t *testing.T) {
	src := `globalvar g;
rule "a" { g = 1; }
rule "b" { return; }`
	p := compileSource(t, src, compiler.DefaultOptions())

	want := `=== Globals ===
  [0] g

=== Rule "a" ===
  0000: Set Variable(global.g, 1);

=== Rule "b" ===
  0000: Abort;
`
	if diff := cmp.Diff(want, p.Disassemble()); diff != "" {
		t.Errorf("Disassemble() mismatch (-want +got):\n%s", diff)
	}
}

func TestWireRoundTrip(t *testing.T) {
	src := `globalvar list; globalvar best;
rule "max" {
	best = null;
	foreach (define v in list) {
		if (best == null || v > best) best = v;
	}
	log("best", str(best));
}`
	p := compileSource(t, src, compiler.DefaultOptions())

	w, err := p.Wire()
	if err != nil {
		t.Fatalf("Wire() error = %v", err)
	}
	back, err := compiler.FromWire(w)
	if err != nil {
		t.Fatalf("FromWire() error = %v", err)
	}
	if diff := cmp.Diff(p, back, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestInternalErrorType(t *testing.T) {
	var err error = &compiler.InternalError{Construct: "while", Message: "boom"}
	var ie *compiler.InternalError
	if !errors.As(err, &ie) || ie.Construct != "while" {
		t.Fatalf("errors.As failed for %v", err)
	}
	if got, want := err.Error(), "internal compiler error: while: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
