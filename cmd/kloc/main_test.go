package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextFlagsReachQueryOptions(t *testing.T) {
	flags := contextCmd.Flags()
	require.NoError(t, flags.Set("impl", "true"))
	require.NoError(t, flags.Set("direct", "true"))
	require.NoError(t, flags.Set("imports", "true"))
	t.Cleanup(func() {
		includeImpl = false
		directOnly = false
		withImports = false
	})

	opts := queryOpts()
	assert.True(t, opts.IncludeImpl)
	assert.True(t, opts.DirectOnly)
	assert.True(t, opts.WithImports)
}
