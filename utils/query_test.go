package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "shoes", NormalizeQuery("  shoes\t"))
	assert.Equal(t, "red shoes", NormalizeQuery("red shoes "))
	assert.Equal(t, "", NormalizeQuery(" \n "))

	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("   "))
	assert.False(t, IsBlank(" a "))
}
