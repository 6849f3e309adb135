package release

// Phase is one discrete step of the build lifecycle, executed as a single
// invocation of the external build tool.
type Phase string

// Lifecycle phases in execution order.
const (
	// PhaseDirclean wipes the shared build tree. It runs at most once per
	// run because the state it resets is shared by every site.
	PhaseDirclean Phase = "dirclean"
	// PhaseUpdate refreshes the builder's package feeds.
	PhaseUpdate Phase = "update"
	// PhaseClean removes the previous per-site build output.
	PhaseClean Phase = "clean"
	// PhaseBuild compiles the firmware images for one site.
	PhaseBuild Phase = "build"
	// PhaseSign signs the generated upgrade manifest.
	PhaseSign Phase = "sign"
	// PhaseDeploy publishes images and manifest to the download server.
	PhaseDeploy Phase = "deploy"
)

// Phases returns the lifecycle phases in execution order.
func Phases() []Phase {
	return []Phase{PhaseDirclean, PhaseUpdate, PhaseClean, PhaseBuild, PhaseSign, PhaseDeploy}
}

// String returns the phase name as forwarded to the build tool.
func (p Phase) String() string {
	return string(p)
}

// NeedsBranch reports whether the build tool must be told the release
// channel for this phase. Signing keys and deployment targets differ per
// channel; the earlier phases do not care.
func (p Phase) NeedsBranch() bool {
	return p == PhaseSign || p == PhaseDeploy
}
