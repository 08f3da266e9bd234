package output

// ArtifactStore persists files produced by bots and runs. Paths are keyed by run id and bot
// name so concurrent writers never collide.
type ArtifactStore interface {
	WriteFile(runID, bot, name string, data []byte) (string, error)
	WriteJSON(runID, bot, name string, v any) (string, error)
}
