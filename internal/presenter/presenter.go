// Package presenter defines the push-only contract between the orchestration
// core and whatever renders state to the user, plus a terminal implementation.
// The core only pushes notifications; it never queries presentation state.
package presenter

// Identity is the presentational view of the signed-in user.
type Identity struct {
	// DisplayName is the user's human-readable name.
	DisplayName string

	// AvatarURL is the user's profile picture URL.
	AvatarURL string
}

// Presenter receives state-change notifications from the credential manager
// and the job orchestrator. Implementations must be safe for concurrent use.
type Presenter interface {
	// ShowSignIn tells the view to present the sign-in surface.
	ShowSignIn()

	// ShowAuthenticated tells the view the user is signed in.
	ShowAuthenticated(identity Identity)

	// ShowValidationError surfaces a recoverable input problem inline.
	ShowValidationError(message string)

	// ShowProgress updates the current processing step and percentage.
	ShowProgress(stepText string, percent int)

	// ShowResult renders a completed summary.
	ShowResult(title, summaryText, videoID string)

	// ShowFatalError surfaces a terminal failure for the current operation.
	ShowFatalError(message string)
}
