package aggregation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  Level
	}{
		{name: "bool true", input: true, want: LevelOn},
		{name: "bool false", input: false, want: LevelOff},
		{name: "json one", input: float64(1), want: LevelOn},
		{name: "json zero", input: float64(0), want: LevelOff},
		{name: "int one", input: 1, want: LevelOn},
		{name: "string one", input: "1", want: LevelOn},
		{name: "string zero", input: "0", want: LevelOff},
		{name: "true", input: "true", want: LevelOn},
		{name: "false", input: "false", want: LevelOff},
		{name: "on", input: "on", want: LevelOn},
		{name: "ON", input: "ON", want: LevelOn},
		{name: "off", input: "off", want: LevelOff},
		{name: "OFF", input: "OFF", want: LevelOff},
		{name: "standby", input: "standby", want: LevelOff},
		{name: "mixed case is neither", input: "On", want: LevelNone},
		{name: "two is neither", input: float64(2), want: LevelNone},
		{name: "yes is neither", input: "yes", want: LevelNone},
		{name: "empty string is neither", input: "", want: LevelNone},
		{name: "nil is neither", input: nil, want: LevelNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Coerce(tc.input))
			require.Equal(t, tc.want == LevelOn, IsTrueLike(tc.input))
			require.Equal(t, tc.want == LevelOff, IsFalseLike(tc.input))
		})
	}
}
