package prompts

import (
	_ "embed"
)

//go:embed classifier.txt
var ClassifierPrompt string
