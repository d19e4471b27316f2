package annotation

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
)

// Origin records where a block was read from.
type Origin int

const (
	OriginTag Origin = iota + 1
	OriginComment
)

func (o Origin) String() string {
	switch o {
	case OriginTag:
		return "tag"
	case OriginComment:
		return "comment"
	default:
		return "block"
	}
}

// Block is one raw annotation body together with enough position data to
// locate any byte of Text in the original file.
type Block struct {
	Origin Origin
	Text   string
	Range  hcl.Range

	filename string
	origin   hcl.Pos
	literal  string
	offsets  []int
}

// NewBlock wraps text that appears verbatim at start in filename.
func NewBlock(filename string, start hcl.Pos, text string) Block {
	offsets := make([]int, len(text)+1)
	for i := range offsets {
		offsets[i] = i
	}
	return newBlock(OriginComment, filename, start, text, text, offsets)
}

// FromComment extracts the body of a `//<key>:` directive. Comments that use
// another marker, block comments and `// key:` with a space are not
// directives and report false.
func FromComment(filename string, start hcl.Pos, comment, key string) (Block, bool) {
	marker := "//" + key + ":"
	if !strings.HasPrefix(comment, marker) {
		return Block{}, false
	}
	text := comment[len(marker):]
	offsets := make([]int, len(text)+1)
	for i := range offsets {
		offsets[i] = len(marker) + i
	}
	return newBlock(OriginComment, filename, start, comment, text, offsets), true
}

// FromTag extracts the value stored under key in a struct tag literal as it
// appears in source, quotes included. A tag without the key reports false.
func FromTag(filename string, start hcl.Pos, literal, key string) (Block, bool) {
	tag, tagOffsets, ok := unquoteLiteral(literal)
	if !ok {
		return Block{}, false
	}
	quoted, at, ok := lookupTag(tag, key)
	if !ok {
		return Block{}, false
	}
	value, valueOffsets, ok := unquoteMapped(quoted)
	if !ok {
		return Block{}, false
	}

	offsets := make([]int, len(valueOffsets))
	for i, off := range valueOffsets {
		offsets[i] = tagOffsets[at+off]
	}
	return newBlock(OriginTag, filename, start, literal, value, offsets), true
}

func newBlock(origin Origin, filename string, start hcl.Pos, literal, text string, offsets []int) Block {
	b := Block{
		Origin:   origin,
		Text:     text,
		filename: filename,
		origin:   start,
		literal:  literal,
		offsets:  offsets,
	}
	b.Range = b.rangeOf(0, len(text))
	return b
}

// pos returns the file position of Text[i].
func (b Block) pos(i int) hcl.Pos {
	if i < 0 {
		i = 0
	}
	if i >= len(b.offsets) {
		i = len(b.offsets) - 1
	}
	return advance(b.origin, b.literal[:b.offsets[i]])
}

func (b Block) rangeOf(start, end int) hcl.Range {
	return hcl.Range{Filename: b.filename, Start: b.pos(start), End: b.pos(end)}
}

func advance(pos hcl.Pos, s string) hcl.Pos {
	for i := 0; i < len(s); i++ {
		pos.Byte++
		switch {
		case s[i] == '\n':
			pos.Line++
			pos.Column = 1
		case utf8.RuneStart(s[i]):
			pos.Column++
		}
	}
	return pos
}

// unquoteLiteral strips a raw or interpreted Go string literal and maps every
// byte of the result back to its offset in literal.
func unquoteLiteral(literal string) (string, []int, bool) {
	if len(literal) < 2 {
		return "", nil, false
	}
	if literal[0] == '`' && literal[len(literal)-1] == '`' {
		text := literal[1 : len(literal)-1]
		offsets := make([]int, len(text)+1)
		for i := range offsets {
			offsets[i] = i + 1
		}
		return text, offsets, true
	}
	return unquoteMapped(literal)
}

// unquoteMapped unquotes a double quoted string, tracking source offsets for
// the common escapes. Rarer escapes fall back to strconv with every byte
// mapped to the opening quote.
func unquoteMapped(quoted string) (string, []int, bool) {
	if len(quoted) < 2 || quoted[0] != '"' || quoted[len(quoted)-1] != '"' {
		return "", nil, false
	}

	var (
		out     []byte
		offsets []int
	)
	for i := 1; i < len(quoted)-1; i++ {
		c := quoted[i]
		if c != '\\' {
			out = append(out, c)
			offsets = append(offsets, i)
			continue
		}
		if i+1 >= len(quoted)-1 {
			return "", nil, false
		}
		var decoded byte
		switch quoted[i+1] {
		case '"', '\\', '\'':
			decoded = quoted[i+1]
		case 'n':
			decoded = '\n'
		case 't':
			decoded = '\t'
		default:
			text, err := strconv.Unquote(quoted)
			if err != nil {
				return "", nil, false
			}
			return text, make([]int, len(text)+1), true
		}
		out = append(out, decoded)
		offsets = append(offsets, i)
		i++
	}
	offsets = append(offsets, len(quoted)-1)
	return string(out), offsets, true
}

// lookupTag follows the reflect.StructTag convention and returns the still
// quoted value for key together with its offset inside tag.
func lookupTag(tag, key string) (string, int, bool) {
	pos := 0
	for pos < len(tag) {
		for pos < len(tag) && tag[pos] == ' ' {
			pos++
		}
		if pos >= len(tag) {
			break
		}

		nameStart := pos
		for pos < len(tag) && tag[pos] > ' ' && tag[pos] != ':' && tag[pos] != '"' && tag[pos] != 0x7f {
			pos++
		}
		if pos == nameStart || pos+1 >= len(tag) || tag[pos] != ':' || tag[pos+1] != '"' {
			break
		}
		name := tag[nameStart:pos]
		pos++

		valueStart := pos
		pos++
		for pos < len(tag) && tag[pos] != '"' {
			if tag[pos] == '\\' {
				pos++
			}
			pos++
		}
		if pos >= len(tag) {
			break
		}
		pos++

		if name == key {
			return tag[valueStart:pos], valueStart, true
		}
	}
	return "", 0, false
}
