package explore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaustill/c-next-sub006/driver"
)

func buildFixture(t *testing.T) *driver.Result {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.cnx")
	src := `const u8 LEVELS <- 4;
scope Motor {
    u8 speed <- 0;
    void setSpeed(u8 target) {
        speed <- target;
    }
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))
	res := driver.Build(context.Background(), []string{path}, nil)
	require.Empty(t, res.Errors)
	return res
}

func runExploreWithString(t *testing.T, input string) string {
	t.Helper()
	res := buildFixture(t)
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	go func() {
		defer inW.Close() //nolint:errcheck // test cleanup
		_, _ = io.WriteString(inW, input)
	}()

	go func() {
		Run(res, "cnext> ", WithStdin(inR), WithOutput(outW))
		inR.Close()  //nolint:errcheck,gosec // test cleanup
		outW.Close() //nolint:errcheck,gosec // test cleanup
	}()

	var output bytes.Buffer
	_, _ = io.Copy(&output, outR)
	outR.Close() //nolint:errcheck,gosec // test cleanup

	return output.String()
}

func TestRun(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Show Variable",
			input:    "Motor.speed\n",
			expected: "u8",
		},
		{
			name:     "Show Function By Mangled Name",
			input:    "Motor_setSpeed\n",
			expected: "by-value",
		},
		{
			name:     "Consts",
			input:    "consts\n",
			expected: "LEVELS 4",
		},
		{
			name:     "Scopes",
			input:    "scopes\n",
			expected: "Motor",
		},
		{
			name:     "Unknown Symbol",
			input:    "bogus\n",
			expected: "unknown symbol",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := runExploreWithString(t, tc.input)
			require.Contains(t, got, tc.expected)
		})
	}
}

func TestEnsureHistoryFilePermissions_CreatesWithRestrictedMode(t *testing.T) {
	dir := t.TempDir()
	histFile := filepath.Join(dir, ".cnext_history")

	// File does not exist yet.
	ensureHistoryFilePermissions(histFile)

	info, err := os.Stat(histFile)
	require.NoError(t, err, "history file should be created")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "new history file should have mode 0600")
}

func TestEnsureHistoryFilePermissions_RestrictsExistingFile(t *testing.T) {
	dir := t.TempDir()
	histFile := filepath.Join(dir, ".cnext_history")

	// Create the file with overly permissive mode.
	err := os.WriteFile(histFile, []byte("some history"), 0644)
	require.NoError(t, err)

	ensureHistoryFilePermissions(histFile)

	info, err := os.Stat(histFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "existing history file should be restricted to 0600")

	// Verify contents are preserved.
	data, err := os.ReadFile(histFile)
	require.NoError(t, err)
	assert.Equal(t, "some history", string(data))
}

func TestEnsureHistoryFilePermissions_EmptyPathNoOp(t *testing.T) {
	// Should not panic or error with empty path.
	ensureHistoryFilePermissions("")
}
