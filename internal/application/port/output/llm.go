package output

import "context"

// UniversityClassifier maps free-form notification text onto one of the known bot names.
// It returns "" when nothing matches.
type UniversityClassifier interface {
	Classify(ctx context.Context, text string, bots []string) (string, error)
}
