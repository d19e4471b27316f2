package analysis

import (
	"go/token"

	"github.com/hashicorp/hcl/v2"
)

func (a *analyzer) pos(p token.Pos) hcl.Pos {
	if a.pkg.Fset == nil || !p.IsValid() {
		return hcl.Pos{Line: 1, Column: 1}
	}
	position := a.pkg.Fset.Position(p)
	return hcl.Pos{Line: position.Line, Column: position.Column, Byte: position.Offset}
}

func (a *analyzer) filename(p token.Pos) string {
	if a.pkg.Fset == nil || !p.IsValid() {
		return ""
	}
	return a.pkg.Fset.Position(p).Filename
}

func (a *analyzer) rangeOf(start, end token.Pos) hcl.Range {
	return hcl.Range{Filename: a.filename(start), Start: a.pos(start), End: a.pos(end)}
}
