package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GouruRK/compilation/internal/types"
)

func TestSetTypeComposesBits(t *testing.T) {
	arrInt := types.SetArray(types.Int)
	assert.True(t, types.IsArray(arrInt))
	assert.True(t, types.IsInt(arrInt))
	assert.False(t, types.IsChar(arrInt))
}

func TestIsScalarRejectsArrayAndFunction(t *testing.T) {
	assert.True(t, types.IsScalar(types.Int))
	assert.True(t, types.IsScalar(types.Char))
	assert.True(t, types.IsScalar(types.Void))
	assert.False(t, types.IsScalar(types.SetArray(types.Int)))
	assert.False(t, types.IsScalar(types.SetFunction(types.Int)))
}

func TestElemStripsArrayBit(t *testing.T) {
	assert.Equal(t, types.Int, types.Elem(types.SetArray(types.Int)))
	assert.Equal(t, types.Char, types.Elem(types.SetArray(types.Char)))
}

func TestEqualIgnoresFunctionBit(t *testing.T) {
	assert.True(t, types.Equal(types.Int, types.SetFunction(types.Int)))
	assert.False(t, types.Equal(types.Int, types.Char))
}

func TestStringRendersArrayPrefix(t *testing.T) {
	assert.Equal(t, "int", types.Int.String())
	assert.Equal(t, "array of char", types.SetArray(types.Char).String())
	assert.Equal(t, "none", types.None.String())
}
