package txlistener

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTxListener_Defaults(t *testing.T) {
	tl := NewTxListener(nil)
	assert.Equal(t, 2*time.Second, tl.pollInterval)
	assert.Equal(t, 2*time.Minute, tl.timeout)
}

func TestNewTxListener_OptionsOverrideDefaults(t *testing.T) {
	tl := NewTxListener(nil, WithPollInterval(50*time.Millisecond), WithTimeout(200*time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, tl.pollInterval)
	assert.Equal(t, 200*time.Millisecond, tl.timeout)
}
