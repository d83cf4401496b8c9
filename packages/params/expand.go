package params

import "github.com/hashicorp/go-multierror"

// Expand rewrites every String in v with fn. Maps and lists are updated in
// place and the (possibly new) root is returned. Strings for which fn fails
// keep their value and the errors are returned together.
func Expand(v Value, fn func(string) (string, error)) (Value, error) {
	var result *multierror.Error
	out := expand(v, fn, &result)
	return out, result.ErrorOrNil()
}

func expand(v Value, fn func(string) (string, error), result **multierror.Error) Value {
	switch val := v.(type) {
	case String:
		s, err := fn(string(val))
		if err != nil {
			*result = multierror.Append(*result, err)
			return val
		}
		return String(s)
	case List:
		for i, item := range val {
			val[i] = expand(item, fn, result)
		}
		return val
	case *Map:
		for _, k := range val.keys {
			val.values[k] = expand(val.values[k], fn, result)
		}
		return val
	}
	return v
}
