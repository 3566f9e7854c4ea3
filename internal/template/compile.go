// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package template

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultPlaceholder is the placeholder token used when none is configured.
const DefaultPlaceholder = "{}"

var (
	// ErrEmptyPlaceholder is returned when the placeholder token is empty.
	ErrEmptyPlaceholder = errors.New("placeholder must not be empty")
	// ErrUnterminatedExpression is returned when an opened expression has no closing delimiter.
	ErrUnterminatedExpression = errors.New("unterminated placeholder expression")
	// ErrMalformedNumber is returned for a zero or non-numeric field index and
	// for a capture group index outside 0..9. An expression starting with '-'
	// is not a field form and fails with ErrUnknownExpression instead.
	ErrMalformedNumber = errors.New("field index must be a positive integer")
	// ErrUnknownExpression is returned when the inner text matches no expression form.
	ErrUnknownExpression = errors.New("unknown expression form")
	// ErrInvalidRegex is returned when a substitution or capture pattern does not compile.
	ErrInvalidRegex = errors.New("invalid regular expression")
	// ErrMissingSeparators is returned when an s expression has fewer than three separator occurrences.
	ErrMissingSeparators = errors.New("substitution requires three separator occurrences")
	// ErrUnknownFlag is returned for a substitution flag outside {g, i}.
	ErrUnknownFlag = errors.New("unknown substitution flag")
	// ErrGroupOutOfRange is returned when a capture group index is not present in the pattern.
	ErrGroupOutOfRange = errors.New("capture group not present in pattern")
)

// CompileError reports a template compile failure with the offending span.
type CompileError struct {
	Offset int    // byte offset of the offending span within the template
	Expr   string // the offending expression or delimiter text
	Err    error
}

// Error implements the error interface for CompileError.
func (e *CompileError) Error() string {
	return fmt.Sprintf("template: offset %d: %v: %q", e.Offset, e.Err, e.Expr)
}

// Unwrap returns the underlying sentinel error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

func compileErr(offset int, expr string, err error) *CompileError {
	return &CompileError{Offset: offset, Expr: expr, Err: err}
}

// Compile parses a template string with the given placeholder token and
// produces an immutable Template. All regexes in the template are compiled
// here, once, never per record.
//
// When the placeholder is exactly "{}", the two characters act as an open
// and close bracket pair and nested braces are matched. Any other
// placeholder is a symmetric sentinel: the expression is the text between
// consecutive occurrences of the full token.
func Compile(text, placeholder string) (*Template, error) {
	if placeholder == "" {
		return nil, compileErr(0, "", ErrEmptyPlaceholder)
	}

	if placeholder == DefaultPlaceholder {
		return compileBrackets(text)
	}

	return compileSentinel(text, placeholder)
}

func compileBrackets(text string) (*Template, error) {
	t := &Template{}

	var lit strings.Builder

	for i := 0; i < len(text); {
		if text[i] != '{' {
			lit.WriteByte(text[i])
			i++

			continue
		}

		// Find the paired closing brace.
		depth := 1
		j := i + 1

		for ; j < len(text) && depth > 0; j++ {
			switch text[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
		}

		if depth != 0 {
			return nil, compileErr(i, text[i:], ErrUnterminatedExpression)
		}

		t.flushLiteral(&lit)

		seg, err := parseExpr(text[i+1:j-1], i)
		if err != nil {
			return nil, err
		}

		t.segments = append(t.segments, seg)
		i = j
	}

	t.flushLiteral(&lit)

	return t, nil
}

func compileSentinel(text, placeholder string) (*Template, error) {
	t := &Template{}

	var lit strings.Builder

	for pos := 0; pos < len(text); {
		open := strings.Index(text[pos:], placeholder)
		if open < 0 {
			lit.WriteString(text[pos:])

			break
		}

		open += pos
		lit.WriteString(text[pos:open])

		inner := open + len(placeholder)

		closing := strings.Index(text[inner:], placeholder)
		if closing < 0 {
			return nil, compileErr(open, text[open:], ErrUnterminatedExpression)
		}

		t.flushLiteral(&lit)

		seg, err := parseExpr(text[inner:inner+closing], open)
		if err != nil {
			return nil, err
		}

		t.segments = append(t.segments, seg)
		pos = inner + closing + len(placeholder)
	}

	t.flushLiteral(&lit)

	return t, nil
}

func (t *Template) flushLiteral(lit *strings.Builder) {
	if lit.Len() == 0 {
		return
	}

	t.segments = append(t.segments, Literal{Text: lit.String()})
	lit.Reset()
}

// parseExpr parses the inner text of a placeholder expression. The offset is
// the position of the expression within the template, used for error spans.
func parseExpr(inner string, offset int) (Segment, error) {
	switch {
	case inner == "":
		return Whole{}, nil
	case inner[0] >= '0' && inner[0] <= '9':
		return parseFieldExpr(inner, offset)
	case inner[0] == 's':
		return parseSubstExpr(inner, offset)
	case inner[0] == '/':
		return parseCaptureExpr(inner, offset)
	default:
		return nil, compileErr(offset, inner, ErrUnknownExpression)
	}
}

func parseFieldExpr(inner string, offset int) (Segment, error) {
	digits := inner
	suffix := ""

	if last := inner[len(inner)-1]; last == '+' || last == '-' {
		digits = inner[:len(inner)-1]
		suffix = string(last)
	}

	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return nil, compileErr(offset, inner, ErrMalformedNumber)
	}

	switch suffix {
	case "+":
		return FieldFrom{N: n}, nil
	case "-":
		return FieldTo{N: n}, nil
	default:
		return Field{N: n}, nil
	}
}

func parseSubstExpr(inner string, offset int) (Segment, error) {
	if len(inner) < 2 {
		return nil, compileErr(offset, inner, ErrMissingSeparators)
	}

	sep := inner[1]
	rest := inner[2:]

	first := strings.IndexByte(rest, sep)
	if first < 0 {
		return nil, compileErr(offset, inner, ErrMissingSeparators)
	}

	second := strings.IndexByte(rest[first+1:], sep)
	if second < 0 {
		return nil, compileErr(offset, inner, ErrMissingSeparators)
	}

	second += first + 1

	pat := rest[:first]
	rep := rest[first+1 : second]
	flags := rest[second+1:]

	global := false
	insensitive := false

	for i := 0; i < len(flags); i++ {
		switch flags[i] {
		case 'g':
			global = true
		case 'i':
			insensitive = true
		default:
			return nil, compileErr(offset, inner, ErrUnknownFlag)
		}
	}

	if insensitive {
		pat = "(?i)" + pat
	}

	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, compileErr(offset, inner, errors.Join(ErrInvalidRegex, err))
	}

	if maxBackref(rep) > re.NumSubexp() {
		return nil, compileErr(offset, inner, ErrGroupOutOfRange)
	}

	return Subst{
		re:          re,
		replacement: toExpandSyntax(rep),
		global:      global,
	}, nil
}

func parseCaptureExpr(inner string, offset int) (Segment, error) {
	last := strings.LastIndexByte(inner, '/')
	if last < 1 {
		return nil, compileErr(offset, inner, ErrUnknownExpression)
	}

	pat := inner[1:last]
	digits := inner[last+1:]

	if pat == "" || digits == "" {
		return nil, compileErr(offset, inner, ErrUnknownExpression)
	}

	group, err := strconv.Atoi(digits)
	if err != nil || group < 0 || group > 9 {
		return nil, compileErr(offset, inner, ErrMalformedNumber)
	}

	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, compileErr(offset, inner, errors.Join(ErrInvalidRegex, err))
	}

	if group > re.NumSubexp() {
		return nil, compileErr(offset, inner, ErrGroupOutOfRange)
	}

	return Capture{re: re, group: group}, nil
}

// maxBackref returns the highest \1..\9 backreference in a replacement.
func maxBackref(rep string) int {
	maxRef := 0

	for i := 0; i+1 < len(rep); i++ {
		if rep[i] != '\\' {
			continue
		}

		n := rep[i+1]
		if n >= '1' && n <= '9' {
			if ref := int(n - '0'); ref > maxRef {
				maxRef = ref
			}
		}

		i++ // skip the escaped byte either way
	}

	return maxRef
}

// toExpandSyntax rewrites a sed-style replacement into the syntax understood
// by regexp.Expand: \N becomes ${N}, a literal $ becomes $$, and \\ becomes
// a single backslash.
func toExpandSyntax(rep string) string {
	var b strings.Builder

	b.Grow(len(rep))

	for i := 0; i < len(rep); i++ {
		switch c := rep[i]; c {
		case '$':
			b.WriteString("$$")
		case '\\':
			if i+1 < len(rep) {
				switch n := rep[i+1]; {
				case n >= '1' && n <= '9':
					b.WriteString("${")
					b.WriteByte(n)
					b.WriteString("}")
					i++

					continue
				case n == '\\':
					b.WriteByte('\\')
					i++

					continue
				}
			}

			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}
