package appstate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTempToColor(t *testing.T) {
	assert.Equal(t, "rgb(255, 0, 0)", TempToColor(100))

	warm := TempToColor(1500)
	assert.True(t, strings.HasPrefix(warm, "rgb(255, "), warm)
	assert.True(t, strings.HasSuffix(warm, ", 0)"), warm)

	cool := TempToColor(10000)
	assert.True(t, strings.HasSuffix(cool, ", 255)"), cool)
	assert.False(t, strings.HasPrefix(cool, "rgb(255,"), cool)
}
