package engine

import "strings"

// preprocessSource rewrites scene source into something zygomys reads:
//
//   - :keyword becomes the string "__kw_keyword", so keywords need no
//     global symbols that could clash with user definitions.
//   - opening-row becomes opening_row; zygomys reads a hyphen inside a
//     symbol as subtraction.
//   - ; comments become // comments.
//
// String literals and comment text pass through untouched.
func preprocessSource(source string) string {
	r := rewriter{src: source}
	r.out.Grow(len(source) + len(source)/4)
	for !r.done() {
		switch r.peek(0) {
		case '"':
			r.quoted('"', true)
		case '`':
			r.quoted('`', false)
		case ';':
			r.comment()
		case ':':
			r.keyword()
		case '-':
			r.hyphen()
		default:
			r.copy(1)
		}
	}
	return r.out.String()
}

// rewriter walks the source once, copying or replacing as it goes.
type rewriter struct {
	src string
	pos int
	out strings.Builder
}

func (r *rewriter) done() bool { return r.pos >= len(r.src) }

// peek returns the byte off positions ahead, or 0 past the end.
func (r *rewriter) peek(off int) byte {
	if i := r.pos + off; i >= 0 && i < len(r.src) {
		return r.src[i]
	}
	return 0
}

func (r *rewriter) copy(n int) {
	end := min(r.pos+n, len(r.src))
	r.out.WriteString(r.src[r.pos:end])
	r.pos = end
}

// quoted copies a literal delimited by quote. An unterminated literal runs
// to the end of the source.
func (r *rewriter) quoted(quote byte, escapes bool) {
	r.copy(1)
	for !r.done() {
		switch c := r.peek(0); {
		case escapes && c == '\\':
			r.copy(2)
		case c == quote:
			r.copy(1)
			return
		default:
			r.copy(1)
		}
	}
}

// comment turns a run of semicolons into // and copies the rest of the line.
func (r *rewriter) comment() {
	for r.peek(0) == ';' {
		r.pos++
	}
	r.out.WriteString("//")
	end := strings.IndexByte(r.src[r.pos:], '\n')
	if end < 0 {
		end = len(r.src) - r.pos
	}
	r.copy(end)
}

// keyword replaces :name with its string form. A colon not followed by a
// letter, including the := operator, is copied as is.
func (r *rewriter) keyword() {
	if r.peek(1) == '=' {
		r.copy(2)
		return
	}
	if !isLetter(r.peek(1)) {
		r.copy(1)
		return
	}
	end := r.pos + 1
	for end < len(r.src) && isKWChar(r.src[end]) {
		end++
	}
	r.out.WriteByte('"')
	r.out.WriteString(kwPrefix)
	r.out.WriteString(r.src[r.pos+1 : end])
	r.out.WriteByte('"')
	r.pos = end
}

// hyphen joins the two halves of a kebab-case symbol with an underscore.
// Anywhere else (minus, negative literals) the hyphen stays.
func (r *rewriter) hyphen() {
	if isIdentChar(r.peek(-1)) && isLetter(r.peek(1)) {
		r.out.WriteByte('_')
		r.pos++
		return
	}
	r.copy(1)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isKWChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
