package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutSettingsDefaults(t *testing.T) {
	t.Parallel()

	ts := NewTimeoutSettings(nil)
	assert.Equal(t, DefaultTimeout, ts.Timeout())
	assert.Equal(t, DefaultTimeout, ts.NavigationTimeout())
}

func TestTimeoutSettingsChainToParent(t *testing.T) {
	t.Parallel()

	parent := NewTimeoutSettings(nil)
	child := NewTimeoutSettings(parent)

	parent.SetDefaultTimeout(10 * time.Second)
	assert.Equal(t, 10*time.Second, child.Timeout())

	child.SetDefaultTimeout(3 * time.Second)
	assert.Equal(t, 3*time.Second, child.Timeout())
	assert.Equal(t, 10*time.Second, parent.Timeout())
}

func TestNavigationTimeoutFallsBackToDefault(t *testing.T) {
	t.Parallel()

	ts := NewTimeoutSettings(nil)
	ts.SetDefaultTimeout(7 * time.Second)
	assert.Equal(t, 7*time.Second, ts.NavigationTimeout())

	ts.SetDefaultNavigationTimeout(20 * time.Second)
	assert.Equal(t, 20*time.Second, ts.NavigationTimeout())
	assert.Equal(t, 7*time.Second, ts.Timeout())
}
