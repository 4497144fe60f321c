package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanguard-load/vanguard/pkg/model"
)

func TestCheck_Contains(t *testing.T) {
	s, err := Compile([]model.Assertion{{Type: model.AssertContains, Value: "ok"}})
	require.NoError(t, err)
	assert.Nil(t, s.Check([]byte("status: ok")))
	assert.NotNil(t, s.Check([]byte("status: fail")))
}

func TestCompile_InvalidRegex(t *testing.T) {
	_, err := Compile([]model.Assertion{{Type: model.AssertRegex, Value: "("}})
	assert.Error(t, err)
}

func TestCheck_Regex(t *testing.T) {
	s, err := Compile([]model.Assertion{{Type: model.AssertRegex, Value: `^\{.*\}$`}})
	require.NoError(t, err)
	assert.Nil(t, s.Check([]byte(`{"a":1}`)))
	assert.NotNil(t, s.Check([]byte(`not json`)))
}

func TestCheck_JSONPathExistence(t *testing.T) {
	s, err := Compile([]model.Assertion{{Type: model.AssertJSONPath, Path: "data.id"}})
	require.NoError(t, err)
	assert.Nil(t, s.Check([]byte(`{"data":{"id":42}}`)))
	f := s.Check([]byte(`{"data":{}}`))
	require.NotNil(t, f)
	assert.Equal(t, "data.id", f.Path)
}

func TestCheck_JSONPathValueMatch(t *testing.T) {
	s, err := Compile([]model.Assertion{{Type: model.AssertJSONPath, Path: "status", Value: "active"}})
	require.NoError(t, err)
	assert.Nil(t, s.Check([]byte(`{"status":"active"}`)))
	assert.NotNil(t, s.Check([]byte(`{"status":"inactive"}`)))
}

func TestCheck_FirstFailureWins(t *testing.T) {
	s, err := Compile([]model.Assertion{
		{Type: model.AssertContains, Value: "missing", Message: "first"},
		{Type: model.AssertContains, Value: "also-missing", Message: "second"},
	})
	require.NoError(t, err)
	f := s.Check([]byte("nothing here"))
	require.NotNil(t, f)
	assert.Equal(t, "first", f.Message)
}
