package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCensor(t *testing.T) {
	censor, err := NewCensor([]string{"darn", " heck "}, '#')
	require.NoError(t, err)

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"clean", "quarterly review at noon", "quarterly review at noon"},
		{"plain word", "well darn it", "well #### it"},
		{"case", "DARN", "####"},
		{"leet", "what the h3ck", "what the ####"},
		{"punctuation inside", "d.a.r.n", "#######"},
		{"unicode kept", "héllo darn", "héllo ####"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, censor.Censor(tc.in))
		})
	}
}

func TestCensor_NoWordsPassesThrough(t *testing.T) {
	censor, err := NewCensor([]string{"", "  "}, 0)
	require.NoError(t, err)

	require.Equal(t, "anything goes", censor.Censor("anything goes"))
}
