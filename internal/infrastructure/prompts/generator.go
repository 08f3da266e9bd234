package prompts

import (
	"bytes"
	"sort"
	"text/template"
)

type BotInfo struct {
	Name string
}

type ClassifierPromptData struct {
	Bots []BotInfo
}

// GenerateClassifierPrompt renders baseTemplate with the bot names in sorted order.
func GenerateClassifierPrompt(baseTemplate string, bots []string) (string, error) {
	infos := make([]BotInfo, 0, len(bots))
	for _, b := range bots {
		infos = append(infos, BotInfo{Name: b})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	tmpl, err := template.New("classifier").Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ClassifierPromptData{Bots: infos}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
