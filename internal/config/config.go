// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config holds the run configuration and the optional YAML defaults
// file. Values resolve in order: built-in defaults, then the defaults file,
// then command-line flags.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

// DefaultFileName is the defaults file looked up in the working directory
// when --config is not given.
const DefaultFileName = ".kyanite.yaml"

var (
	// ErrReadFile is returned when the defaults file cannot be read.
	ErrReadFile = errors.New("failed to read defaults file")
	// ErrParseFile is returned when the defaults file is not valid YAML.
	ErrParseFile = errors.New("failed to parse defaults file")
	// ErrJobsTooLow is returned when the worker count is below one.
	ErrJobsTooLow = errors.New("jobs must be at least 1")
	// ErrMaxJobsNegative is returned when the job cap is negative.
	ErrMaxJobsNegative = errors.New("max-jobs must not be negative")
	// ErrEmptyPlaceholder is returned when the placeholder token is empty.
	ErrEmptyPlaceholder = errors.New("placeholder must not be empty")
	// ErrNoTemplate is returned when the template argument is missing.
	ErrNoTemplate = errors.New("a command template is required")
)

// FsFactory returns the filesystem used to read the defaults file.
// It is a variable so tests can substitute a memory filesystem.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// Run is the resolved configuration for one invocation.
type Run struct {
	Jobs           int    // worker count, >= 1
	KeepOrder      bool   // emit completions in input order
	DryRun         bool   // print resolved argv instead of spawning
	Verbose        bool   // lifecycle diagnostics on stderr
	MaxJobs        int    // total record cap, 0 = unlimited
	Placeholder    string // template placeholder token
	FieldSeparator string // field separator, empty = whitespace runs
	Template       string // the command template
}

// Default returns the built-in configuration.
func Default() Run {
	return Run{
		Jobs:        runtime.NumCPU(),
		Placeholder: "{}",
	}
}

// File mirrors the YAML defaults file. Pointer fields distinguish an absent
// key from an explicit zero value.
type File struct {
	Jobs           *int    `yaml:"jobs"`
	KeepOrder      *bool   `yaml:"keep-order"`
	DryRun         *bool   `yaml:"dry-run"`
	Verbose        *bool   `yaml:"verbose"`
	MaxJobs        *int    `yaml:"max-jobs"`
	Placeholder    *string `yaml:"input"`
	FieldSeparator *string `yaml:"field-separator"`
}

// LoadFile reads the defaults file at path. When explicit is false the path
// is the conventional location and a missing file yields (nil, nil); an
// explicitly named file must exist.
func LoadFile(path string, explicit bool) (*File, error) {
	fs := FsFactory()

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, errors.Join(ErrReadFile, err)
	}

	if !exists {
		if explicit {
			return nil, fmt.Errorf("%w: %s", ErrReadFile, path)
		}

		return nil, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Join(ErrReadFile, err)
	}

	f := new(File)
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errors.Join(ErrParseFile, err)
	}

	return f, nil
}

// ApplyTo overlays the file's values onto r. Keys absent from the file leave
// r untouched.
func (f *File) ApplyTo(r *Run) {
	if f == nil {
		return
	}

	if f.Jobs != nil {
		r.Jobs = *f.Jobs
	}

	if f.KeepOrder != nil {
		r.KeepOrder = *f.KeepOrder
	}

	if f.DryRun != nil {
		r.DryRun = *f.DryRun
	}

	if f.Verbose != nil {
		r.Verbose = *f.Verbose
	}

	if f.MaxJobs != nil {
		r.MaxJobs = *f.MaxJobs
	}

	if f.Placeholder != nil {
		r.Placeholder = *f.Placeholder
	}

	if f.FieldSeparator != nil {
		r.FieldSeparator = *f.FieldSeparator
	}
}

// Validate checks the resolved configuration for argument errors.
func (r *Run) Validate() error {
	if r.Jobs < 1 {
		return fmt.Errorf("%w: got %d", ErrJobsTooLow, r.Jobs)
	}

	if r.MaxJobs < 0 {
		return fmt.Errorf("%w: got %d", ErrMaxJobsNegative, r.MaxJobs)
	}

	if r.Placeholder == "" {
		return ErrEmptyPlaceholder
	}

	if r.Template == "" {
		return ErrNoTemplate
	}

	return nil
}
