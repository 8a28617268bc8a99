package proctitle

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	orig := os.Args[0]
	t.Cleanup(func() { os.Args[0] = orig })

	require.NoError(t, Set("presenton-core-test"))
	assert.Equal(t, "presenton-core-test", os.Args[0])

	assert.Error(t, Set("   "))
}
