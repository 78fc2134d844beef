// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"path/filepath"
	"strings"

	"github.com/gomlx/tutorials/pkg/history"
)

// RunNames returns short names that tell the runs apart: the path components left after removing
// the leading and trailing components common to all paths. E.g. "/tmp/a/cnn" and "/tmp/b/cnn" are
// named "a" and "b". A trailing history file name is ignored.
func RunNames(paths ...string) []string {
	parts := make([][]string, len(paths))
	for ii, path := range paths {
		path = filepath.Clean(path)
		if filepath.Base(path) == history.CSVFileName {
			path = filepath.Dir(path)
		}
		parts[ii] = strings.Split(path, string(filepath.Separator))
	}
	if len(paths) == 1 {
		return []string{parts[0][len(parts[0])-1]}
	}

	minLen := len(parts[0])
	for _, p := range parts[1:] {
		minLen = min(minLen, len(p))
	}
	var prefix, suffix int
	for prefix < minLen-1 && allEqual(parts, func(p []string) string { return p[prefix] }) {
		prefix++
	}
	for suffix < minLen-1-prefix && allEqual(parts, func(p []string) string { return p[len(p)-1-suffix] }) {
		suffix++
	}

	names := make([]string, len(paths))
	for ii, p := range parts {
		names[ii] = filepath.Join(p[prefix : len(p)-suffix]...)
		if names[ii] == "" {
			names[ii] = p[len(p)-1]
		}
	}
	return names
}

func allEqual(parts [][]string, fn func([]string) string) bool {
	v := fn(parts[0])
	for _, p := range parts[1:] {
		if fn(p) != v {
			return false
		}
	}
	return true
}
