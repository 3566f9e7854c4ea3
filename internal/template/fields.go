// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package template

import "strings"

// Splitter turns a record into its 1-indexed field list.
//
// With no explicit separator, fields are runs of non-whitespace: leading and
// trailing whitespace is trimmed and interior runs collapse. With an explicit
// separator the split is exact, so adjacent separators yield empty fields and
// nothing is trimmed.
type Splitter struct {
	sep string
}

// NewSplitter creates a Splitter. An empty sep selects whitespace-run mode.
func NewSplitter(sep string) *Splitter {
	return &Splitter{sep: sep}
}

// Split returns the fields of record.
func (s *Splitter) Split(record string) []string {
	if s.sep == "" {
		return strings.Fields(record)
	}

	return strings.Split(record, s.sep)
}

// Join joins fields with the configured separator. Whitespace-run mode joins
// with a single space, which is the normalized form of the record.
func (s *Splitter) Join(fields []string) string {
	if s.sep == "" {
		return strings.Join(fields, " ")
	}

	return strings.Join(fields, s.sep)
}
