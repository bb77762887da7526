package circuit

import "testing"

func TestNormalizeCanonicalForms(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"R", "[R]"},
		{"[R]", "[R]"},
		{"RC", "[RC]"},
		{"R(RC)", "[R(RC)]"},
		{" R ( R C ) ", "[R(RC)]"},
		{"R{R=50}", "[R{R=50}]"},
		{"Q{n=0.8,Y=1e-05}", "[Q{Y=1e-05,n=0.8}]"},
		{"Q{Y=1e-05,n=0.8f}", "[Q{Y=1e-05,n=0.8f}]"},
		{"R([RC]W)", "[R([RC]W)]"},
		{"R{}", "[R]"},
	}
	for _, c := range cases {
		got, err := Normalize(c.in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseRejectsInvalidDescriptions(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"X",
		"(R)",
		"()",
		"[",
		"R)",
		"[]",
		"R{R=fifty}",
		"R{C=50}",
		"R{R=50",
		"R{R=1,R=2}",
		"Q{Y}",
	}
	for _, in := range cases {
		if _, err := Parse(in); err == nil {
			t.Fatalf("Parse(%q) accepted an invalid description", in)
		}
	}
}

func TestParseTreeShape(t *testing.T) {
	g, err := Parse("R(RC)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if g.Parallel || len(g.Children) != 2 {
		t.Fatalf("expected a two-child series root, got %#v", g)
	}
	inner, ok := g.Children[1].(*Group)
	if !ok || !inner.Parallel || len(inner.Children) != 2 {
		t.Fatalf("expected a parallel pair, got %#v", g.Children[1])
	}
}

func TestFixedParameterSuffix(t *testing.T) {
	g, err := Parse("R{R=100f}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := g.Children[0].(*Element)
	if len(e.Parameters) != 1 || !e.Parameters[0].Fixed || e.Parameters[0].Value != 100 {
		t.Fatalf("fixed parameter not recognized: %#v", e.Parameters)
	}
}
