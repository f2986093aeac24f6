package parser_test

import (
	"testing"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/parser"
)

// FuzzParser tests the parser with random inputs to find crashes.
func FuzzParser(f *testing.F) {
	seeds := []string{
		"",
		`rule "empty" {}`,
		`globalvar score;`,
		`function f() {}`,
		`function clamp(v, lo, hi) { if (v < lo) return lo; if (v > hi) return hi; return v; }`,
		`rule "r" { define x = 1 + 2 * 3 ^ 2; log(x); }`,
		`rule "r" { define list = [1, [2, 3], "s"]; log(list[1][0]); }`,
		`rule "r" { x += 1; x -= 1; x *= 2; x /= 2; x %= 2; x++; x--; }`,
		`rule "r" { if (a) log(1); else if (b) log(2); else { log(3); } }`,
		`rule "r" { while (i < 10) { i++; if (i == 5) continue; if (i == 8) break; } }`,
		`rule "r" { foreach (define p in list) { wait(0.1); log(p); } }`,
		`rule "r" { if (matches(name, "^a.*")) return; }`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	invalid := []string{
		"{",
		`rule "r" {`,
		`rule "r" { log( }`,
		`rule "r" { if () log(1); }`,
		`rule "r" { break; }`,
		`rule r {}`,
		`function f(a, a) {}`,
		`rule "r" { foreach (p in list) {} }`,
	}
	for _, s := range invalid {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, src string) {
		if len(src) > 10000 {
			return
		}
		_, _ = parser.Parse(src)
		_, _ = parser.ParseExpr(src)
	})
}
