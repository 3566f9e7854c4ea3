// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package template implements the command template language: a placeholder
// grammar compiled once at startup and expanded per input record into an
// argument vector.
//
// A template is a string containing placeholder expressions delimited by a
// user-chosen token. The default token "{}" is treated as a bracket pair;
// any other token acts as a symmetric sentinel on both sides of the
// expression. The expression forms are the whole record, numeric field
// selection with open-ended ranges, sed-style substitution, and regex
// capture extraction.
package template

import (
	"regexp"
	"strings"
)

// Segment is one compiled element of a template.
type Segment interface {
	expand(st *expandState)
}

// Literal is raw template text reproduced verbatim, subject to token
// splitting on unescaped spaces and tabs.
type Literal struct {
	Text string
}

// Whole substitutes the full input record.
type Whole struct{}

// Field substitutes the 1-indexed field N, or the empty string if the record
// has fewer than N fields.
type Field struct {
	N int
}

// FieldFrom substitutes fields N..end joined by the configured separator.
type FieldFrom struct {
	N int
}

// FieldTo substitutes fields 1..N joined by the configured separator.
type FieldTo struct {
	N int
}

// Subst applies a sed-style substitution to the whole record.
type Subst struct {
	re          *regexp.Regexp
	replacement string
	global      bool
}

// Capture applies a regex to the whole record and substitutes the indicated
// capture group. Group 0 is the full match. A non-match yields empty.
type Capture struct {
	re    *regexp.Regexp
	group int
}

// Template is a compiled template: an ordered sequence of segments sharing
// the precompiled regexes of its Subst and Capture expressions. It is
// immutable after compilation and safe for concurrent use.
type Template struct {
	segments []Segment
}

// Segments returns the compiled segment list.
func (t *Template) Segments() []Segment {
	return t.segments
}

// expandState accumulates argv tokens during a single expansion.
type expandState struct {
	record   string
	splitter *Splitter
	fields   []string
	split    bool

	argv []string
	cur  strings.Builder
}

func (st *expandState) fieldList() []string {
	if !st.split {
		st.fields = st.splitter.Split(st.record)
		st.split = true
	}

	return st.fields
}

// appendValue appends an expanded value to the current token verbatim.
// Expanded values never undergo re-splitting.
func (st *expandState) appendValue(v string) {
	st.cur.WriteString(v)
}

func (st *expandState) flush() {
	if st.cur.Len() == 0 {
		return
	}

	st.argv = append(st.argv, st.cur.String())
	st.cur.Reset()
}

// Expand applies the template to a record, producing the argument vector.
// The first element is the program to execute. Expansion cannot fail:
// regex non-matches and out-of-range fields yield empty strings.
func (t *Template) Expand(record string, splitter *Splitter) []string {
	st := &expandState{
		record:   record,
		splitter: splitter,
	}

	for _, seg := range t.segments {
		seg.expand(st)
	}

	st.flush()

	return st.argv
}

func (l Literal) expand(st *expandState) {
	text := l.Text
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case ' ', '\t':
			st.flush()
		case '\\':
			// A backslash escapes a following space, tab or backslash so it
			// lands inside the token. Any other backslash is kept verbatim.
			if i+1 < len(text) {
				switch text[i+1] {
				case ' ', '\t', '\\':
					st.cur.WriteByte(text[i+1])
					i++

					continue
				}
			}

			st.cur.WriteByte(c)
		default:
			st.cur.WriteByte(c)
		}
	}
}

func (Whole) expand(st *expandState) {
	st.appendValue(st.record)
}

func (f Field) expand(st *expandState) {
	fields := st.fieldList()
	if f.N > len(fields) {
		return
	}

	st.appendValue(fields[f.N-1])
}

func (f FieldFrom) expand(st *expandState) {
	fields := st.fieldList()
	if f.N > len(fields) {
		return
	}

	st.appendValue(st.splitter.Join(fields[f.N-1:]))
}

func (f FieldTo) expand(st *expandState) {
	fields := st.fieldList()
	n := min(f.N, len(fields))
	if n == 0 {
		return
	}

	st.appendValue(st.splitter.Join(fields[:n]))
}

func (s Subst) expand(st *expandState) {
	st.appendValue(s.apply(st.record))
}

func (s Subst) apply(record string) string {
	if s.global {
		return s.re.ReplaceAllString(record, s.replacement)
	}

	loc := s.re.FindStringSubmatchIndex(record)
	if loc == nil {
		return record
	}

	b := make([]byte, 0, len(record))
	b = append(b, record[:loc[0]]...)
	b = s.re.ExpandString(b, s.replacement, record, loc)
	b = append(b, record[loc[1]:]...)

	return string(b)
}

func (c Capture) expand(st *expandState) {
	m := c.re.FindStringSubmatch(st.record)
	if m == nil {
		return
	}

	st.appendValue(m[c.group])
}
