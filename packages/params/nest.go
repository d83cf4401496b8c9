package params

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxDepth limits bracket nesting when decoding
const MaxDepth = 32

var (
	// ErrTooDeep is returned when a decoded key nests deeper than MaxDepth
	ErrTooDeep = errors.New("parameter nesting too deep")
	// ErrTypeConflict is returned when a key is used both as a list and a map
	ErrTypeConflict = errors.New("conflicting parameter types")
)

var (
	namePattern      = regexp.MustCompile(`^[\[\]]*([^\[\]]+)\]*`)
	listChildPattern = regexp.MustCompile(`^\[\]\[([^\[\]]+)\]$`)
	keySplitPattern  = regexp.MustCompile(`[\[\]]+`)
)

// normalize stores v in params under the bracketed name, creating
// intermediate maps and lists as needed.
func normalize(params *Map, name string, v Value, depth int) error {
	if depth > MaxDepth {
		return ErrTooDeep
	}

	loc := namePattern.FindStringSubmatchIndex(name)
	if loc == nil {
		return nil
	}
	k := name[loc[2]:loc[3]]
	after := name[loc[1]:]

	switch {
	case after == "":
		params.Set(k, v)
	case after == "[":
		params.Set(name, v)
	case after == "[]":
		list, err := listAt(params, k)
		if err != nil {
			return err
		}
		params.Set(k, append(list, v))
	case strings.HasPrefix(after, "[]"):
		childKey := after[2:]
		if m := listChildPattern.FindStringSubmatch(after); m != nil {
			childKey = m[1]
		}
		list, err := listAt(params, k)
		if err != nil {
			return err
		}
		if last, ok := lastMap(list); ok && !hasKey(last, childKey) {
			if err := normalize(last, childKey, v, depth+1); err != nil {
				return err
			}
		} else {
			child := NewMap()
			if err := normalize(child, childKey, v, depth+1); err != nil {
				return err
			}
			list = append(list, child)
		}
		params.Set(k, list)
	default:
		child, err := mapAt(params, k)
		if err != nil {
			return err
		}
		if err := normalize(child, after, v, depth+1); err != nil {
			return err
		}
		params.Set(k, child)
	}
	return nil
}

func listAt(params *Map, key string) (List, error) {
	existing, ok := params.Get(key)
	if !ok {
		return List{}, nil
	}
	list, ok := existing.(List)
	if !ok {
		return nil, fmt.Errorf("%w: expected list for %q", ErrTypeConflict, key)
	}
	return list, nil
}

func mapAt(params *Map, key string) (*Map, error) {
	existing, ok := params.Get(key)
	if !ok {
		return NewMap(), nil
	}
	m, ok := existing.(*Map)
	if !ok {
		return nil, fmt.Errorf("%w: expected map for %q", ErrTypeConflict, key)
	}
	return m, nil
}

func lastMap(list List) (*Map, bool) {
	if len(list) == 0 {
		return nil, false
	}
	m, ok := list[len(list)-1].(*Map)
	return m, ok
}

// hasKey walks a bracketed key path through nested maps. Paths naming a
// list never count as present so list items keep accumulating.
func hasKey(m *Map, key string) bool {
	if strings.Contains(key, "[]") {
		return false
	}

	current := m
	segments := keySplitPattern.Split(key, -1)
	walked := 0
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		if current == nil {
			return false
		}
		v, ok := current.Get(segment)
		if !ok {
			return false
		}
		walked++
		current, _ = v.(*Map)
	}
	return walked > 0
}
