package annotation

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
)

func TestFromTag(t *testing.T) {
	start := hcl.Pos{Line: 5, Column: 20, Byte: 100}

	tests := []struct {
		name     string
		literal  string
		wantText string
		wantOK   bool
		wantCol  int
	}{
		{
			name:     "raw tag",
			literal:  "`json:\"args\" builder:\"each=Arg\"`",
			wantText: "each=Arg",
			wantOK:   true,
			wantCol:  42,
		},
		{
			name:     "escaped quotes",
			literal:  "`builder:\"each=\\\"Arg\\\"\"`",
			wantText: `each="Arg"`,
			wantOK:   true,
			wantCol:  30,
		},
		{
			name:     "interpreted literal",
			literal:  `"builder:\"default\""`,
			wantText: "default",
			wantOK:   true,
			wantCol:  31,
		},
		{
			name:    "other keys only",
			literal: "`json:\"args\"`",
		},
		{
			name:    "malformed",
			literal: "`builder`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, ok := FromTag("command.go", start, tt.literal, "builder")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if block.Text != tt.wantText {
				t.Fatalf("text = %q, want %q", block.Text, tt.wantText)
			}
			if block.Origin != OriginTag {
				t.Fatalf("origin = %v", block.Origin)
			}
			if block.Range.Start.Column != tt.wantCol {
				t.Fatalf("start column = %d, want %d", block.Range.Start.Column, tt.wantCol)
			}
		})
	}
}

func TestFromComment(t *testing.T) {
	start := hcl.Pos{Line: 7, Column: 2, Byte: 80}

	block, ok := FromComment("command.go", start, `//builder:validate=ValidateCommand`, "builder")
	if !ok {
		t.Fatalf("expected directive")
	}
	if block.Text != "validate=ValidateCommand" {
		t.Fatalf("text = %q", block.Text)
	}
	if got := block.Range.Start; got.Column != 12 || got.Byte != 90 || got.Line != 7 {
		t.Fatalf("unexpected start %+v", got)
	}

	for _, comment := range []string{"// builder:validate=X", "//go:generate buildergen", "/*builder:default*/"} {
		if _, ok := FromComment("command.go", start, comment, "builder"); ok {
			t.Fatalf("%q should not be a directive", comment)
		}
	}
}
