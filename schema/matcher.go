package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParseRanges parses a bracketed range expression against an array of the
// given length and returns the matched index ranges as inclusive
// [start, end] pairs.
//
// The grammar accepts comma-joined terms, where each term is a single index,
// a `start-end` range, the wildcard `*` (everything), or `e` (the last
// index). Overlapping and adjacent ranges are merged, so the result is
// sorted, deduplicated, and minimal.
func ParseRanges(expr string, length int) ([][2]int, error) {
	for _, c := range []byte(expr) {
		if c >= '0' && c <= '9' || c == ',' || c == '-' || c == 'e' || c == '*' {
			continue
		}
		return nil, fmt.Errorf("invalid character %q in matcher", c)
	}

	var ranges [][2]int
	for _, term := range strings.Split(expr, ",") {
		if term == "" {
			return nil, fmt.Errorf("empty range")
		}
		if strings.HasPrefix(term, "-") || strings.HasSuffix(term, "-") {
			return nil, fmt.Errorf("range cannot start or end with `-`")
		}

		if term == "*" {
			// Everything; nothing to match in an empty array, but not an
			// error either.
			if length == 0 {
				continue
			}
			ranges = append(ranges, [2]int{0, length - 1})
			continue
		}

		if length == 0 {
			return nil, fmt.Errorf("out of bounds")
		}

		parseNumber := func(s string) (int, error) {
			if strings.Contains(s, "e") {
				if s == "e" {
					return length - 1, nil
				}
				return 0, fmt.Errorf("cannot use exponents")
			}
			n, err := strconv.Atoi(s)
			if err != nil {
				return 0, fmt.Errorf("cannot parse number")
			}
			return n, nil
		}

		parts := strings.Split(term, "-")
		if len(parts) > 2 {
			return nil, fmt.Errorf("only one `-` allowed per range")
		}
		first, err := parseNumber(parts[0])
		if err != nil {
			return nil, err
		}
		end := first
		if len(parts) == 2 {
			if end, err = parseNumber(parts[1]); err != nil {
				return nil, err
			}
		}

		if first > end {
			return nil, fmt.Errorf("start of range must be before the end")
		}
		if end >= length {
			return nil, fmt.Errorf("out of bounds")
		}
		ranges = append(ranges, [2]int{first, end})
	}

	// Union-merge: sort by start, then engulf overlapping or adjacent ranges.
	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })
	merged := ranges[:0]
	for _, r := range ranges {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			if r[0] <= last[1]+1 {
				if r[1] > last[1] {
					last[1] = r[1]
				}
				continue
			}
		}
		merged = append(merged, r)
	}
	return merged, nil
}

// AccessCallback receives matched values during traversal. Returning false
// halts the traversal. An invalid matcher is surfaced as a non-nil err on a
// single callback invocation with a nil value.
type AccessCallback func(value any, err error) bool

// Access traverses the struct with a matcher string and invokes fn for every
// match.
//
// A matcher descends fields with `.name` and subscripts arrays and reflexives
// with `[ranges]`; the empty matcher matches the struct itself. For example,
// `.permutations[0,2-4,e].gain` visits the gain field of the selected
// permutation elements.
func (s *Struct) Access(matcher string, fn AccessCallback) {
	accessValue(s, matcher, fn)
}

// accessValue returns false once the callback has asked to halt.
func accessValue(value any, matcher string, fn AccessCallback) bool {
	if matcher == "" {
		return fn(value, nil)
	}

	switch v := value.(type) {
	case *Struct:
		if !strings.HasPrefix(matcher, ".") {
			return fn(nil, fmt.Errorf("invalid matcher %q: expected a field", matcher))
		}
		rest := matcher[1:]
		nameEnd := len(rest)
		for i, c := range rest {
			if c == '.' || c == '[' {
				nameEnd = i
				break
			}
		}
		name := rest[:nameEnd]
		field, ok := v.Get(name)
		if !ok {
			return fn(nil, fmt.Errorf("invalid matcher %q: no field %q in %s", matcher, name, v.def.Name))
		}
		return accessValue(field, rest[nameEnd:], fn)

	case *Reflexive:
		if matcher == ".length" {
			return fn(v.Len(), nil)
		}
		return accessIndexed(v.Len(), func(i int) any { return v.items[i] }, matcher, fn)

	case []any:
		return accessIndexed(len(v), func(i int) any { return v[i] }, matcher, fn)

	default:
		return fn(nil, fmt.Errorf("invalid matcher %q: cannot descend into a %T", matcher, value))
	}
}

func accessIndexed(length int, at func(int) any, matcher string, fn AccessCallback) bool {
	if !strings.HasPrefix(matcher, "[") {
		return fn(nil, fmt.Errorf("invalid matcher %q: expected `[`", matcher))
	}
	closer := strings.IndexByte(matcher, ']')
	if closer < 0 {
		return fn(nil, fmt.Errorf("invalid matcher %q: unclosed `[`", matcher))
	}

	ranges, err := ParseRanges(matcher[1:closer], length)
	if err != nil {
		return fn(nil, fmt.Errorf("invalid matcher %q: %v", matcher, err))
	}

	rest := matcher[closer+1:]
	for _, r := range ranges {
		for i := r[0]; i <= r[1]; i++ {
			if !accessValue(at(i), rest, fn) {
				return false
			}
		}
	}
	return true
}
