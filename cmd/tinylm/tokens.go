package main

import (
	"fmt"
	"strconv"
	"strings"
)

// demoTokens is the sequence used when no ids are given.
var demoTokens = []int{10, 25, 5, 99, 30, 72}

// parseTokens reads ids from the --tokens value and positional arguments.
// Each source may separate ids with commas or whitespace.  With neither set
// the demo sequence is returned.
func parseTokens(flag string, args []string) ([]int, error) {
	fields := splitTokens(flag)
	for _, a := range args {
		fields = append(fields, splitTokens(a)...)
	}
	if len(fields) == 0 {
		return append([]int(nil), demoTokens...), nil
	}

	ids := make([]int, len(fields))
	for i, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("token %d: %q is not an integer", i, f)
		}
		ids[i] = id
	}
	return ids, nil
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '[' || r == ']'
	})
}

// sequentialTokens returns n ids cycling through the vocabulary.
func sequentialTokens(n, vocab int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = (i*7 + 1) % vocab
	}
	return ids
}
