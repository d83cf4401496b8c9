package params

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	tree := NewMap().
		Set("name", String("{{user}}")).
		Set("tags", List{String("a"), String("{{user}}"), Null{}}).
		Set("nested", NewMap().Set("x", String("{{user}}-1")))

	upper := func(s string) (string, error) {
		return strings.ReplaceAll(s, "{{user}}", "larry"), nil
	}
	out, err := Expand(tree, upper)
	require.NoError(t, err)
	assert.Same(t, tree, out)
	assert.Equal(t, "name=larry&tags[]=a&tags[]=larry&tags[]&nested[x]=larry-1", BuildNestedQuery(out, ""))
}

func TestExpand_ScalarRoot(t *testing.T) {
	out, err := Expand(String("a"), func(s string) (string, error) { return s + "b", nil })
	require.NoError(t, err)
	assert.Equal(t, String("ab"), out)
}

func TestExpand_CollectsErrors(t *testing.T) {
	tree := NewMap().Set("a", String("bad")).Set("b", String("ok")).Set("c", String("bad"))

	out, err := Expand(tree, func(s string) (string, error) {
		if s == "bad" {
			return "", errors.New("unresolved")
		}
		return strings.ToUpper(s), nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")
	assert.Equal(t, "a=bad&b=OK&c=bad", BuildNestedQuery(out, ""))
}
