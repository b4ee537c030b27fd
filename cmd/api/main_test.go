package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Setenv("STORAGE", "memory")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return strings.TrimSpace(out.String()), err
}

func TestRootCommands(t *testing.T) {
	cmd := newRootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}

	assert.Subset(t, names, []string{"serve", "migrate", "user"})
}

func TestUserAdd(t *testing.T) {
	out, err := execute(t, "user", "add", "--email", "root@example.com", "--superuser")
	require.NoError(t, err)
	assert.Equal(t, "1", out)

	_, err = execute(t, "user", "add", "--email", "not-an-email")
	assert.Error(t, err)

	_, err = execute(t, "user", "add")
	assert.Error(t, err)
}

func TestUserTokenFailUnknownUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	_, err := execute(t, "user", "token", "--id", "42")
	assert.Error(t, err)
}

func TestServeFailWithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "serve")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestMigrateDownFailSteps(t *testing.T) {
	_, err := execute(t, "migrate", "down", "--steps", "0")
	assert.ErrorContains(t, err, "steps must be positive")
}
