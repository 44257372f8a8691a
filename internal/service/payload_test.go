package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload(nil)
	require.NoError(t, err)
	assert.Empty(t, p)

	for _, bad := range []string{`[1,2]`, `"text"`, `{broken`, `null`} {
		_, err := ParsePayload([]byte(bad))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, bad)
		assert.Equal(t, []string{MsgNotAnObject}, verr.Fields["non_field_errors"])
	}
}

func TestPayloadPK(t *testing.T) {
	p, err := ParsePayload([]byte(`{"a": 5, "b": "7", "c": 1.5, "d": true, "e": null, "f": 0}`))
	require.NoError(t, err)

	verr := &ValidationError{}
	assert.Equal(t, uint(5), *p.PK("a", true, verr))
	assert.Equal(t, uint(7), *p.PK("b", true, verr))
	assert.Nil(t, p.PK("c", true, verr))
	assert.Nil(t, p.PK("d", true, verr))
	assert.Nil(t, p.PK("e", true, verr))
	assert.Nil(t, p.PK("f", true, verr))
	assert.Nil(t, p.PK("missing", false, verr))

	assert.Equal(t, []string{"Incorrect type. Expected pk value, received float."}, verr.Fields["c"])
	assert.Equal(t, []string{"Incorrect type. Expected pk value, received bool."}, verr.Fields["d"])
	assert.Equal(t, []string{MsgRequired}, verr.Fields["e"])
	assert.NotContains(t, verr.Fields, "missing")
}

func TestPayloadScalars(t *testing.T) {
	p, err := ParsePayload([]byte(`{"n": 3, "s": "4.5", "t": "yes", "f": 0, "txt": "hi", "bad": 12, "opts": ["x"]}`))
	require.NoError(t, err)
	verr := &ValidationError{}

	assert.Equal(t, 3.0, *p.Float("n", verr))
	assert.Equal(t, 4.5, *p.Float("s", verr))
	assert.True(t, *p.Bool("t", verr))
	assert.False(t, *p.Bool("f", verr))
	assert.Equal(t, "hi", *p.String("txt", verr))
	assert.Nil(t, p.String("bad", verr))
	assert.Nil(t, p.Float("absent", verr))
	assert.JSONEq(t, `["x"]`, string(*p.JSON("opts")))
	assert.Nil(t, p.JSON("absent"))

	assert.Equal(t, map[string][]string{"bad": {MsgNotAString}}, verr.Fields)
}

func TestValidationErrorOrNil(t *testing.T) {
	var v *ValidationError
	assert.NoError(t, v.OrNil())
	assert.NoError(t, (&ValidationError{}).OrNil())

	v = NewValidationError("b", "second")
	v.Add("a", "first")
	assert.Error(t, v.OrNil())
	assert.Equal(t, "validation failed: a: first; b: second", v.Error())
}
