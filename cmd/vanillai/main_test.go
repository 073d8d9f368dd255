package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePort(t *testing.T) {
	assert.NoError(t, validatePort(0))
	assert.NoError(t, validatePort(8080))
	assert.Error(t, validatePort(-1))
	assert.Error(t, validatePort(65536))
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "seed", "init"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	initCmd, _, err := root.Find([]string{"init"})
	require.NoError(t, err)
	assert.NotNil(t, initCmd.Flags().Lookup("admin-email"))
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}
