package sourcetree

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/belzebub40k/builder-mwu/internal/service/common"
)

// fakeRunner records commands and replays a canned result.
type fakeRunner struct {
	commands []common.Command
	output   string
	exitCode int
	err      error
}

func (f *fakeRunner) Run(_ context.Context, cmd common.Command, output io.Writer) (common.Result, error) {
	f.commands = append(f.commands, cmd)

	if f.output != "" {
		_, _ = io.WriteString(output, f.output)
	}

	return common.Result{ExitCode: f.exitCode}, f.err
}

// TestExactTag verifies the describe invocation and tag trimming.
func TestExactTag(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: "v2020.1\n"}

	var streamed bytes.Buffer

	repo := NewGitRepository("gluon", runner, &streamed)

	tag, err := repo.ExactTag(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v2020.1", tag)

	require.Len(t, runner.commands, 1)
	require.Equal(t, "git", runner.commands[0].Name)
	require.Equal(t, []string{"describe", "--exact-match", "HEAD"}, runner.commands[0].Args)
	require.Equal(t, "gluon", runner.commands[0].Dir)

	// Output of the invocation is streamed as well as captured.
	require.Contains(t, streamed.String(), "v2020.1")
}

// TestExactTagMissing verifies the sentinel error when HEAD is not on a tag.
func TestExactTagMissing(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: "fatal: no tag exactly matches\n", exitCode: 128}
	repo := NewGitRepository("gluon", runner, nil)

	_, err := repo.ExactTag(context.Background())
	require.ErrorIs(t, err, ErrNoExactTag)

	// Empty describe output counts as missing too.
	runner = &fakeRunner{}
	repo = NewGitRepository("gluon", runner, nil)

	_, err = repo.ExactTag(context.Background())
	require.ErrorIs(t, err, ErrNoExactTag)
}

// TestUpdateFromUpstream verifies the submodule update invocation.
func TestUpdateFromUpstream(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	repo := NewGitRepository("gluon", runner, nil)

	require.NoError(t, repo.UpdateFromUpstream(context.Background()))

	require.Len(t, runner.commands, 1)
	require.Equal(t, "git", runner.commands[0].Name)
	require.Equal(t, []string{"submodule", "update", "--init", "--remote", "gluon"}, runner.commands[0].Args)

	// The update runs from the site repository root, not the submodule.
	require.Empty(t, runner.commands[0].Dir)

	runner = &fakeRunner{exitCode: 1}
	repo = NewGitRepository("gluon", runner, nil)

	require.Error(t, repo.UpdateFromUpstream(context.Background()))
}
