package sourcetree

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/belzebub40k/builder-mwu/internal/service/common"
)

// Repository defines version-control operations on the firmware builder
// checkout.
type Repository interface {
	// ExactTag returns the tag the checkout sits on exactly.
	ExactTag(ctx context.Context) (string, error)
	// UpdateFromUpstream moves the checkout to the latest upstream revision.
	UpdateFromUpstream(ctx context.Context) error
}

// ErrNoExactTag is returned when the checkout does not sit exactly on a
// release tag.
var ErrNoExactTag = errors.New("checkout is not at an exact tag")

// GitRepository inspects and updates the builder checkout through the git
// command line tool. The checkout is a submodule of the surrounding site
// repository.
type GitRepository struct {
	// dir is the path of the builder checkout relative to the site
	// repository root.
	dir string
	// runner executes the git commands.
	runner common.Runner
	// output receives the combined output of every git invocation.
	output io.Writer
}

// NewGitRepository creates a repository operating on the checkout at dir.
// Output of the underlying git commands is streamed to the provided writer.
func NewGitRepository(dir string, runner common.Runner, output io.Writer) *GitRepository {
	if output == nil {
		output = io.Discard
	}

	return &GitRepository{
		dir:    filepath.Clean(dir),
		runner: runner,
		output: output,
	}
}

// ExactTag asks git to describe HEAD as an exact tag match. git exits
// non-zero when HEAD is not directly on a tag, which maps to ErrNoExactTag.
func (r *GitRepository) ExactTag(ctx context.Context) (string, error) {
	var captured bytes.Buffer

	result, err := r.runner.Run(ctx, common.Command{
		Name: "git",
		Args: []string{"describe", "--exact-match", "HEAD"},
		Dir:  r.dir,
	}, io.MultiWriter(&captured, r.output))
	if err != nil {
		return "", fmt.Errorf("describe checkout: %w", err)
	}

	if result.ExitCode != 0 {
		return "", fmt.Errorf("%w: %s", ErrNoExactTag, r.dir)
	}

	tag := strings.TrimSpace(captured.String())
	if tag == "" {
		return "", fmt.Errorf("%w: %s", ErrNoExactTag, r.dir)
	}

	return tag, nil
}

// UpdateFromUpstream pulls the submodule forward to the newest revision on
// its tracked upstream branch. It runs from the site repository root, where
// the submodule is registered.
func (r *GitRepository) UpdateFromUpstream(ctx context.Context) error {
	result, err := r.runner.Run(ctx, common.Command{
		Name: "git",
		Args: []string{"submodule", "update", "--init", "--remote", r.dir},
	}, r.output)
	if err != nil {
		return fmt.Errorf("update checkout: %w", err)
	}

	if result.ExitCode != 0 {
		return fmt.Errorf("update checkout %s: git exited with code %d", r.dir, result.ExitCode)
	}

	return nil
}
