package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomCode(t *testing.T) {
	req := require.New(t)
	v := RoomCode()

	req.NoError(v("ABCDE"))
	req.NoError(v("x7-Q"))

	err := v("")
	req.Error(err)
	req.Contains(err.Error(), "roomCode")

	req.Error(v("AB CD"))
	req.Error(v(strings.Repeat("A", 65)))
}

func TestDisplayName(t *testing.T) {
	req := require.New(t)
	v := DisplayName()

	req.NoError(v("Alice"))
	req.NoError(v("Jean Dupont"))
	req.NoError(v("Łukasz"))

	req.Error(v("   "))
	req.Error(v("bad\nname"))
	req.Error(v(strings.Repeat("é", 65)))
}

func TestCompose_FirstErrorWins(t *testing.T) {
	req := require.New(t)

	v := Compose(Required(), MaxLength(2))
	err := v("")
	req.EqualError(err, "this field is required")

	err = v("abc")
	req.EqualError(err, "must be no more than 2 characters")
}
