package vm

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/compiler"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/parser"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/semantic"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/types"
)

func compileSource(src string, caps compiler.Capabilities) *compiler.Program {
	prog, err := parser.Parse(src)
	Expect(err).NotTo(HaveOccurred())
	res, err := semantic.Analyze(prog)
	Expect(err).NotTo(HaveOccurred())

	opts := compiler.DefaultOptions()
	opts.Capabilities = caps
	p, err := compiler.Compile(prog, res, opts)
	Expect(err).NotTo(HaveOccurred())
	return p
}

func nativeCaps(workaround bool) compiler.Capabilities {
	caps := compiler.DefaultCapabilities()
	caps.NativeLoops = true
	caps.ContinueWorkaround = workaround
	return caps
}

var _ = Describe("VM", func() {
	var (
		out bytes.Buffer
		cfg Config
	)

	BeforeEach(func() {
		out.Reset()
		cfg = Config{Output: &out}
	})

	global := func(m *VM, name string) types.Value {
		v, ok := m.Global(name)
		Expect(ok).To(BeTrue(), "global %s", name)
		return v
	}

	Context("restart emulated loops", func() {
		const src = `globalvar n;
rule "count" {
	log("start");
	n = 0;
	while (n < 3) {
		n += 1;
		log(n);
	}
	log("done");
}`

		It("resumes at the loop start without repeating earlier code", func() {
			m := New(compileSource(src, compiler.DefaultCapabilities()), cfg)
			Expect(m.Run()).To(Succeed())
			Expect(out.String()).To(Equal("start\n1\n2\n3\ndone\n"))
		})

		It("waits once per pass", func() {
			loops := 0
			cfg.Trace = func(e Event) {
				if e.Instr.Op == isa.Loop {
					loops++
				}
			}
			m := New(compileSource(src, compiler.DefaultCapabilities()), cfg)
			Expect(m.Run()).To(Succeed())
			Expect(loops).To(Equal(3))
			Expect(m.Clock()).To(BeNumerically("~", 4*compiler.DefaultMinWait, 1e-9))
		})

		It("runs native loops without restarting", func() {
			m := New(compileSource(src, nativeCaps(true)), cfg)
			Expect(m.Run()).To(Succeed())
			Expect(out.String()).To(Equal("start\n1\n2\n3\ndone\n"))
			Expect(m.Clock()).To(BeZero())
		})
	})

	DescribeTable("continue and break",
		func(caps compiler.Capabilities) {
			src := `globalvar i; globalvar sum;
rule "r" {
	i = 0;
	sum = 0;
	while (i < 10) {
		i += 1;
		if (i % 2 == 0) continue;
		if (i > 7) break;
		sum += i;
	}
}`
			m := New(compileSource(src, caps), cfg)
			Expect(m.Run()).To(Succeed())
			Expect(global(m, "sum").AsNum()).To(Equal(16.0))
			Expect(global(m, "i").AsNum()).To(Equal(9.0))
		},
		Entry("emulated", compiler.DefaultCapabilities()),
		Entry("native loop, emulated continue", nativeCaps(true)),
		Entry("native loop, native continue", nativeCaps(false)),
	)

	DescribeTable("foreach",
		func(caps compiler.Capabilities) {
			src := `globalvar list; globalvar total;
rule "r" {
	list = [1, 2, 3, 4];
	total = 0;
	foreach (define x in list) {
		if (x == 2) continue;
		total += x;
	}
}`
			m := New(compileSource(src, caps), cfg)
			Expect(m.Run()).To(Succeed())
			Expect(global(m, "total").AsNum()).To(Equal(8.0))
		},
		Entry("emulated", compiler.DefaultCapabilities()),
		Entry("native", nativeCaps(false)),
	)

	It("breaks only the innermost loop", func() {
		src := `globalvar a; globalvar b; globalvar hits;
rule "r" {
	a = 0;
	hits = 0;
	while (a < 3) {
		a += 1;
		b = 0;
		while (b < 5) {
			b += 1;
			if (b == 2) break;
			hits += 1;
		}
		log("after inner");
	}
}`
		m := New(compileSource(src, compiler.DefaultCapabilities()), cfg)
		Expect(m.Run()).To(Succeed())
		Expect(global(m, "hits").AsNum()).To(Equal(3.0))
		Expect(out.String()).To(Equal("after inner\nafter inner\nafter inner\n"))
	})

	It("evaluates inlined functions", func() {
		src := `globalvar out;
function clamp(v, lo, hi) {
	if (v < lo) return lo;
	if (v > hi) return hi;
	return v;
}
rule "r" {
	out = clamp(42, 0, 10);
	log(clamp(-5, 0, 10), clamp(7, 0, 10));
}`
		m := New(compileSource(src, compiler.DefaultCapabilities()), cfg)
		Expect(m.Run()).To(Succeed())
		Expect(global(m, "out").AsNum()).To(Equal(10.0))
		Expect(out.String()).To(Equal("0 7\n"))
	})

	It("stops a rule at return", func() {
		src := `rule "r" {
	log("a");
	return;
	log("b");
}`
		m := New(compileSource(src, compiler.DefaultCapabilities()), cfg)
		Expect(m.Run()).To(Succeed())
		Expect(out.String()).To(Equal("a\n"))
	})

	It("shares globals between rules", func() {
		src := `globalvar g;
rule "set" { g = 41; }
rule "read" { g += 1; log(g); }`
		m := New(compileSource(src, compiler.DefaultCapabilities()), cfg)
		Expect(m.Run()).To(Succeed())
		Expect(out.String()).To(Equal("42\n"))
	})

	It("evaluates arrays and engine functions", func() {
		src := `globalvar xs;
rule "r" {
	xs = [1, 2];
	xs[0] += 5;
	xs = append(xs, 3);
	log(xs[0], count(xs), max(2, 9), sqrt(16), str(4) + "!");
	log(matches("abc", "b+"), matches("abc", "^z"));
}`
		m := New(compileSource(src, compiler.DefaultCapabilities()), cfg)
		Expect(m.Run()).To(Succeed())
		Expect(out.String()).To(Equal("6 3 9 4 4!\n1 0\n"))
	})

	Context("runtime errors", func() {
		rule := func(code ...isa.Instruction) *compiler.Program {
			return &compiler.Program{Rules: []*compiler.Rule{{Name: "r", Instructions: code}}}
		}

		It("rejects a Loop without a Wait", func() {
			err := New(rule(isa.NewLoop()), cfg).Run()
			Expect(err).To(BeAssignableToTypeOf(&RuntimeError{}))
			Expect(err.Error()).To(ContainSubstring("Loop without a Wait"))
		})

		It("rejects unbalanced blocks", func() {
			err := New(rule(isa.NewEnd()), cfg).Run()
			Expect(err).To(MatchError(ContainSubstring("End without While")))

			err = New(rule(isa.NewWhile(isa.Bool(true))), cfg).Run()
			Expect(err).To(MatchError(ContainSubstring("While without End")))
		})

		It("rejects negative skips", func() {
			err := New(rule(isa.NewSkip(isa.Number(-1))), cfg).Run()
			Expect(err).To(MatchError(ContainSubstring("invalid skip count -1")))
		})

		It("rejects unresolved placeholders", func() {
			p := &isa.Placeholder{Label: "skip count"}
			err := New(rule(isa.NewSkip(p)), cfg).Run()
			Expect(err).To(MatchError(ContainSubstring("unresolved placeholder")))
		})

		It("enforces the step limit", func() {
			cfg.MaxSteps = 1000
			p := compileSource(`rule "spin" { while (true) { } }`, compiler.DefaultCapabilities())
			err := New(p, cfg).Run()
			Expect(err).To(MatchError(ContainSubstring("step limit of 1000 exceeded")))
		})
	})

	It("ends a rule when a skip runs past its end", func() {
		p := &compiler.Program{Rules: []*compiler.Rule{{Name: "r", Instructions: []isa.Instruction{
			isa.NewSkip(isa.Number(5)),
			isa.NewAction("Log", isa.String("unreachable")),
		}}}}
		Expect(New(p, cfg).Run()).To(Succeed())
		Expect(out.String()).To(BeEmpty())
	})

	It("starts every run with fresh rule cells", func() {
		src := `globalvar seen;
rule "r" {
	define local;
	if (local == null) seen += 1;
	local = 1;
}`
		p := compileSource(src, compiler.DefaultCapabilities())
		m := New(p, cfg)
		Expect(m.Run()).To(Succeed())
		Expect(m.Run()).To(Succeed())
		Expect(global(m, "seen").AsNum()).To(Equal(2.0))
	})
})
