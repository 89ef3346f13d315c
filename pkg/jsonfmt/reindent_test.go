package jsonfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReindent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "object with array",
			input: `{"a":1,"b":[2,3]}`,
			want:  "{\n    \"a\":1,\n    \"b\":[\n        2,\n        3\n    ]\n}",
		},
		{
			name:  "empty object",
			input: `{}`,
			want:  "{\n    \n}",
		},
		{
			name:  "comma inside string is kept inline",
			input: `{"k":"a,b"}`,
			want:  "{\n    \"k\":\"a,b\"\n}",
		},
		{
			// The escaped quote is counted, so the comma after it is treated
			// as being outside a string.
			name:  "escaped quote miscounted",
			input: `{"a":"x\"y,z"}`,
			want:  "{\n    \"a\":\"x\\\"y,\n    z\"\n}",
		},
		{
			// Brackets inside strings still change the depth.
			name:  "bracket inside string",
			input: `{"a":"[x"}`,
			want:  "{\n    \"a\":\"[\n        x\"\n    }",
		},
		{
			name:  "multibyte text passes through",
			input: `["é","日本"]`,
			want:  "[\n    \"é\",\n    \"日本\"\n]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reindent(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReindentNoOp(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		`"key":1`,
		"true",
		"12.5e3",
	}

	for _, in := range inputs {
		got, err := Reindent(in)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}

func TestReindentUnbalanced(t *testing.T) {
	for _, in := range []string{"}", `{"a":1}}`, "]["} {
		got, err := Reindent(in)
		assert.ErrorIs(t, err, ErrUnbalanced, "input %q", in)
		assert.Empty(t, got)
	}
}

func TestReindentOrKeep(t *testing.T) {
	got, err := ReindentOrKeep(`{"a":1}}`)
	assert.ErrorIs(t, err, ErrUnbalanced)
	assert.Equal(t, `{"a":1}}`, got)

	got, err = ReindentOrKeep(`[1]`)
	require.NoError(t, err)
	assert.Equal(t, "[\n    1\n]", got)
}
