package state

import (
	"github.com/structivejs/structive/internal/errors"
	"github.com/structivejs/structive/pkg/statepath"
)

// walk resolves info against the raw state root, substituting
// positions for wildcard segments. Absent leaf properties read as nil;
// an intermediate value of the wrong shape is an error.
func (s *Store) walk(info *statepath.Info, positions []int) (any, error) {
	var cur any = s.root
	level := 0
	for _, seg := range info.Segments {
		if seg == "*" {
			list, ok := cur.([]any)
			if !ok {
				return nil, errors.New("consumer-contract-violation").
					WithContext("path", info.Pattern).
					WithDetail("wildcard segment reached a non-array value")
			}
			pos := positions[level]
			level++
			if pos < 0 || pos >= len(list) {
				return nil, errors.Newf(errors.CategoryState,
					"index %d out of range for %q (len %d)", pos, info.Pattern, len(list))
			}
			cur = list[pos]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, errors.Newf(errors.CategoryState,
				"segment %q of %q reached a non-object value", seg, info.Pattern)
		}
		cur = m[seg]
	}
	return cur, nil
}

// walkSet writes value at info's slot. Intermediate containers must
// already exist; the write layer never invents structure.
func (s *Store) walkSet(info *statepath.Info, positions []int, value any) error {
	var cur any = s.root
	level := 0
	last := len(info.Segments) - 1

	for i, seg := range info.Segments {
		if i == last {
			break
		}
		if seg == "*" {
			list, ok := cur.([]any)
			if !ok {
				return errors.Newf(errors.CategoryState,
					"wildcard segment of %q reached a non-array value", info.Pattern)
			}
			pos := positions[level]
			level++
			if pos < 0 || pos >= len(list) {
				return errors.Newf(errors.CategoryState,
					"index %d out of range for %q (len %d)", pos, info.Pattern, len(list))
			}
			cur = list[pos]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return errors.Newf(errors.CategoryState,
				"segment %q of %q reached a non-object value", seg, info.Pattern)
		}
		next, exists := m[seg]
		if !exists {
			return errors.Newf(errors.CategoryState,
				"cannot write %q: missing container %q", info.Pattern, seg)
		}
		cur = next
	}

	lastSeg := info.Segments[last]
	if lastSeg == "*" {
		list, ok := cur.([]any)
		if !ok {
			return errors.Newf(errors.CategoryState,
				"wildcard segment of %q reached a non-array value", info.Pattern)
		}
		pos := positions[level]
		if pos < 0 || pos >= len(list) {
			return errors.Newf(errors.CategoryState,
				"index %d out of range for %q (len %d)", pos, info.Pattern, len(list))
		}
		list[pos] = value
		return nil
	}
	m, ok := cur.(map[string]any)
	if !ok {
		return errors.Newf(errors.CategoryState,
			"segment %q of %q reached a non-object value", lastSeg, info.Pattern)
	}
	m[lastSeg] = value
	return nil
}
