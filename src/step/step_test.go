package step

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPassesNil(t *testing.T) {
	assert.NoError(t, Check(PackagingFailed, "package", nil, ""))
}

func TestCheckClassifies(t *testing.T) {
	err := Check(DependencyInstallFailed, "dependencies", &ExitError{Command: "python", Code: 2}, "rerun with -v")
	require.Error(t, err)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "dependencies", se.Step)
	assert.Equal(t, DependencyInstallFailed, se.Kind)
	assert.Contains(t, err.Error(), "python exited with status 2")
	assert.Contains(t, err.Error(), "hint: rerun with -v")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestCheckKeepsExistingKind(t *testing.T) {
	inner := &Error{Step: "environment", Kind: EnvironmentMissing}
	wrapped := fmt.Errorf("activating: %w", inner)

	err := Check(PackagingFailed, "package", wrapped, "")
	assert.True(t, Is(err, EnvironmentMissing))
	assert.False(t, Is(err, PackagingFailed))
}

func TestKindOfUnclassified(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestFatal(t *testing.T) {
	assert.False(t, CleanupSkipped.Fatal())
	for _, k := range []Kind{EnvironmentMissing, DependencyInstallFailed, PackagingFailed, CleanupFailed, ResourceMissing} {
		assert.True(t, k.Fatal(), k)
	}
}

func TestCommandString(t *testing.T) {
	c := Command{Name: "python", Args: []string{"-m", "PyInstaller", "--name", "Multi Deck", ""}}
	assert.Equal(t, `python -m PyInstaller --name "Multi Deck" ""`, c.String())
}

func TestExecReportsExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	var out bytes.Buffer
	x := NewExec(false, nil)
	x.Stdout = &out
	x.Stderr = &out

	require.NoError(t, x.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo ok"}}))
	assert.Equal(t, "ok\n", out.String())

	err := x.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "sh", exitErr.Command)
}

func TestExecMissingBinary(t *testing.T) {
	x := NewExec(false, nil)
	err := x.Run(context.Background(), Command{Name: "mdpack-definitely-not-installed"})
	require.Error(t, err)

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
}
