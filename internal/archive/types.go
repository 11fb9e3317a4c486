package archive

import "time"

// ManifestEntry is one JSONL line in the monthly manifest file.
type ManifestEntry struct {
	SessionHash  string `json:"session_hash"`
	S3Key        string `json:"s3_key"`
	Judgment     string `json:"judgment"`
	SelectedSlot int    `json:"selected_slot"`
	Persona      string `json:"persona"`
	Adaptations  int    `json:"adaptations"`
	TurnCount    int    `json:"turn_count"`
	ArchivedAt   string `json:"archived_at"`
}

// Notice is the completion message published when a package is stored.
type Notice struct {
	SessionID    string    `json:"session_id"`
	FinalizedAt  time.Time `json:"finalized_at"`
	Judgment     string    `json:"judgment"`
	SelectedSlot int       `json:"selected_slot"`
	Adaptations  int       `json:"adaptations"`
}
