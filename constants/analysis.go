package constants

// RunStatus is the canonical status for an analysis run.
type RunStatus string

// Stable values (logged and stored as these exact strings).
const (
	RunStatusQueued  RunStatus = "QUEUED"  // accepted, waiting for a worker
	RunStatusRunning RunStatus = "RUNNING" // in progress
	RunStatusDone    RunStatus = "DONE"    // completed (including the no-receipts no-op)
	RunStatusFailed  RunStatus = "FAILED"  // terminal failure, left to trigger redelivery
)

const (
	// UnknownStore is the bucket for store names that normalize to nothing.
	UnknownStore = "Unknown Store"

	// StoreSimilarityThreshold is the minimum Levenshtein-derived similarity
	// for two store names to be folded into one list key. Tunable, not derived.
	StoreSimilarityThreshold = 0.80

	// EventShoppingListUpdate is the notification payload event type.
	EventShoppingListUpdate = "shopping_list_update"

	// MaxPromptChars caps the receipt text sent to the model per run.
	MaxPromptChars = 12000
)
