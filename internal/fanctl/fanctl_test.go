package fanctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_EmptyPinNameReturnsNoop(t *testing.T) {
	fan, err := New("")
	assert.NoError(t, err)
	assert.NoError(t, fan.Set(true))
	assert.NoError(t, fan.Set(false))
}

func TestNew_UnknownPinNameFails(t *testing.T) {
	_, err := New("does-not-exist")
	assert.Error(t, err)
}
