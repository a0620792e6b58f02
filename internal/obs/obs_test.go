package obs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracerAndMeterNeverNil(t *testing.T) {
	tr := Tracer("test")
	assert.NotNil(t, tr)
	m := Meter("test")
	assert.NotNil(t, m)
}
