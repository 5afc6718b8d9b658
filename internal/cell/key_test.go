package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyIntIsStrict(t *testing.T) {
	for _, in := range []string{"12abc", "", " 1", "+3", "1.0", "99999999999"} {
		_, err := ParseKey(TypeInt, in)
		assert.ErrorIs(t, err, ErrKeyParse, "input %q", in)
	}

	k, err := ParseKey(TypeInt, "-15")
	require.NoError(t, err)
	assert.Equal(t, IntKey(-15), k)
	assert.Equal(t, "-15", k.String())
}

func TestParseKeyOtherTypes(t *testing.T) {
	k, err := ParseKey(TypeBool, "TRUE")
	require.NoError(t, err)
	assert.Equal(t, "true", k.String())

	k, err = ParseKey(TypeBool, "0")
	require.NoError(t, err)
	assert.Equal(t, "false", k.String())

	_, err = ParseKey(TypeBool, "yes")
	require.ErrorIs(t, err, ErrKeyParse)

	k, err = ParseKey(TypeFloat, "2.5")
	require.NoError(t, err)
	assert.Equal(t, "2.5", k.String())

	k, err = ParseKey(TypeVector3, "1, 2 ,3")
	require.NoError(t, err)
	v, err := k.Cell().AsVector3()
	require.NoError(t, err)
	assert.Equal(t, Vector3{1, 2, 3}, v)

	_, err = ParseKey(TypeVector3, "1 2")
	require.ErrorIs(t, err, ErrKeyParse)
}

func TestStringKeyHasNoTerminator(t *testing.T) {
	k, err := ParseKey(TypeString, "sword")
	require.NoError(t, err)
	assert.Equal(t, "sword", k.Data)

	other, err := KeyOf(String("sword"))
	require.NoError(t, err)
	assert.Equal(t, k, other)
}

func TestKeysAreStructural(t *testing.T) {
	m := map[PrimaryKey]int{IntKey(5): 1}
	k, err := ParseKey(TypeInt, "5")
	require.NoError(t, err)
	assert.Equal(t, 1, m[k])

	// same bytes, different type
	f, err := KeyOf(Float(0))
	require.NoError(t, err)
	assert.NotEqual(t, IntKey(0), f)

	_, err = KeyOf(Null(TypeInt))
	require.ErrorIs(t, err, ErrNullAccess)
}
