// SPDX-License-Identifier: MPL-2.0

package deploy

const (
	// StateIdle indicates no run has started yet.
	StateIdle State = iota
	// StateStaged indicates the project was copied into the staging tree.
	StateStaged
	// StatePackagesCollected indicates the local packages were relocated.
	StatePackagesCollected
	// StateManifestGenerated indicates the staged manifest was written.
	StateManifestGenerated
	// StateExternalBuildInvoked indicates the staged project was handed to the
	// build context.
	StateExternalBuildInvoked
	// StateNamespaceRewritten indicates imports were rewritten under the top
	// namespace.
	StateNamespaceRewritten
	// StateArtifactsCopied indicates the files were copied to the output.
	StateArtifactsCopied
	// StateCleaned indicates a successful run whose staging tree was removed
	// (terminal state).
	StateCleaned
	// StateFailedCleaned indicates a failed run whose staging tree was removed
	// (terminal state).
	StateFailedCleaned
	// StateFailedDirty indicates a run that left its staging tree behind
	// (terminal state).
	StateFailedDirty
)

// State is a step of the deploy pipeline.
type State int32

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStaged:
		return "staged"
	case StatePackagesCollected:
		return "packages-collected"
	case StateManifestGenerated:
		return "manifest-generated"
	case StateExternalBuildInvoked:
		return "external-build-invoked"
	case StateNamespaceRewritten:
		return "namespace-rewritten"
	case StateArtifactsCopied:
		return "artifacts-copied"
	case StateCleaned:
		return "cleaned"
	case StateFailedCleaned:
		return "failed-cleaned"
	case StateFailedDirty:
		return "failed-dirty"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state ends a run.
func (s State) IsTerminal() bool {
	return s == StateCleaned || s == StateFailedCleaned || s == StateFailedDirty
}
