package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRequestArgs verifies the argument vector handed to the build tool.
func TestRequestArgs(t *testing.T) {
	t.Parallel()

	id := FromTag("v2020.1", 1)

	request := &Request{
		Site:    "ffmz",
		Release: id,
		Branch:  BranchStable,
		Phase:   PhaseBuild,
		Debug:   false,
	}

	require.Equal(t,
		[]string{"build", "-v", "2020.1+mwu1", "-s", "ffmz"},
		request.Args())

	// Sign and deploy carry the channel; debug and pass-through flags
	// come last.
	request = &Request{
		Site:    "ffwi",
		Release: id,
		Branch:  BranchTesting,
		Phase:   PhaseDeploy,
		Debug:   true,
		Extra:   []string{"-j", "4"},
	}

	require.Equal(t,
		[]string{"deploy", "-v", "2020.1+mwu1", "-s", "ffwi", "-b", "testing", "-d", "-j", "4"},
		request.Args())
}

// TestRequestClone verifies that Clone detaches the pass-through slice and
// handles nil safely.
func TestRequestClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Request)(nil).Clone())

	request := &Request{
		Site:  "ffmz",
		Phase: PhaseClean,
		Extra: []string{"-j", "4"},
	}

	cloned := request.Clone()
	require.Equal(t, request, cloned)
	require.NotSame(t, request, cloned)

	cloned.Extra[0] = "-k"
	require.Equal(t, "-j", request.Extra[0])
}
