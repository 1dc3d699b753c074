package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()

	assert.Equal(t, "flowleek", cmd.Use)
	assert.NotNil(t, cmd.PersistentPreRun)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))

	names := []string{}
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "sanitize")
	assert.Contains(t, names, "rules")
}
