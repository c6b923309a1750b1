package model

// FetchMode selects how a target's pages are acquired.
type FetchMode string

const (
	ModeStatic  FetchMode = "static"
	ModeDynamic FetchMode = "dynamic"
)

// Target is one external directory page to watch. Supplied by the config
// store; the core never mutates it except to write back run status.
type Target struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	URL         string    `json:"url"`
	Mode        FetchMode `json:"mode"`
	Enabled     bool      `json:"enabled"`

	// StrategyKey selects a custom extractor from the registry.
	// Empty means the built-in strategy pool.
	StrategyKey string `json:"strategy_key,omitempty"`

	// NotifyEmail receives new-contact alerts for this target.
	NotifyEmail string `json:"notify_email,omitempty"`
}
