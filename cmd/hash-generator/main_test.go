package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phrazzld/taskflow/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Parallel()

	hasher := auth.NewBcryptHasher(4)

	t.Run("arguments", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		require.NoError(t, run(hasher, []string{"testpassword123", "тест12345"}, strings.NewReader(""), &out))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		assert.NoError(t, hasher.Compare(lines[0], "testpassword123"))
		assert.NoError(t, hasher.Compare(lines[1], "тест12345"))
	})

	t.Run("stdin skips blank lines", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		require.NoError(t, run(hasher, nil, strings.NewReader("first-password\n\nsecond-password\n"), &out))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		assert.NoError(t, hasher.Compare(lines[1], "second-password"))
	})

	t.Run("hash failure", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		err := run(hasher, []string{strings.Repeat("x", 100)}, strings.NewReader(""), &out)
		assert.Error(t, err)
	})
}
