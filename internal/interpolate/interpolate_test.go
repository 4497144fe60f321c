package interpolate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_NoPlaceholders_ReturnedUnchanged(t *testing.T) {
	in := "plain text with no braces at all"
	out, err := Execute(Compile(in), map[string]string{"unused": "x"})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestExecute_Substitution(t *testing.T) {
	vars := map[string]string{"user_id": "42", "token": "xyz"}
	out, err := Execute(Compile("/users/{{user_id}}/profile"), vars)
	require.NoError(t, err)
	assert.Equal(t, "/users/42/profile", out)

	out, err = Execute(Compile("Bearer {{ token }}"), vars)
	require.NoError(t, err)
	assert.Equal(t, "Bearer xyz", out)
}

func TestExecute_UnresolvedIsTemplateError(t *testing.T) {
	_, err := Execute(Compile("{{missing}}"), map[string]string{})
	require.Error(t, err)
	var tErr *TemplateError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "missing", tErr.Placeholder)
}

func TestExecute_MalformedBracesAreLiteral(t *testing.T) {
	out, err := Execute(Compile("{{{not a var}}"), map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "{{{not a var}}", out)
}

func TestExecute_NoRecursiveSubstitution(t *testing.T) {
	vars := map[string]string{"a": "{{b}}", "b": "final"}
	out, err := Execute(Compile("{{a}}"), vars)
	require.NoError(t, err)
	assert.Equal(t, "{{b}}", out)
}

func TestExecute_RoundTripProperty(t *testing.T) {
	vars := map[string]string{"x": "1", "y": "two", "z": "3"}
	template := "start-{{x}}-mid-{{y}}-end-{{z}}"
	want := "start-1-mid-two-end-3"
	out, err := Execute(Compile(template), vars)
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestExecute_Builtins(t *testing.T) {
	out, err := Execute(Compile("{{uuid}}"), map[string]string{})
	require.NoError(t, err)
	assert.Len(t, out, 36)
}
