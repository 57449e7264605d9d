package config

const (
	// Database errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"
	ErrOpenStoreFmt          = "Failed to open %s document store: %w"

	// Auth errors
	ErrCreateProviderFmt      = "Failed to create provider: %v"
	ErrAuthHeaderRequired     = "Authorization header required"
	ErrInvalidSignatureFormat = "Invalid signature format"
	ErrInvalidSignature       = "Invalid signature"
	ErrInternalServerError    = "Internal server error"
	ErrNotSignedIn            = "Sign in to save your post"

	// Save errors
	ErrSaveFailed   = "Saving failed, your post is still here"
	ErrSaveInFlight = "A save is already in progress"

	// Challenge errors
	ErrRefreshChallengeFmt = "Failed to refresh challenge"
)
