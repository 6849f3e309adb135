package release

// Request describes a single invocation of the external build tool for one
// site and phase. The orchestrator synthesizes one request per (site, phase)
// pair and never mutates it afterwards.
type Request struct {
	// Site is the site code whose firmware is being processed.
	Site string
	// Release is the version string stamped into the output.
	Release Identifier
	// Branch is the release channel, forwarded only for phases that need it.
	Branch Branch
	// Phase is the lifecycle step to execute.
	Phase Phase
	// Debug enables verbose tracing in the build tool.
	Debug bool
	// Extra holds operator-supplied arguments forwarded verbatim.
	Extra []string
}

// Args renders the build tool's argument vector for this request.
func (r *Request) Args() []string {
	args := []string{r.Phase.String(), "-v", r.Release.String(), "-s", r.Site}

	if r.Phase.NeedsBranch() {
		args = append(args, "-b", r.Branch.String())
	}

	if r.Debug {
		args = append(args, "-d")
	}

	return append(args, r.Extra...)
}

// Clone returns a copy of the request to avoid leaking the shared
// pass-through argument slice.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}

	cloned := *r
	cloned.Extra = append([]string(nil), r.Extra...)

	return &cloned
}
