package execute

import (
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/sirupsen/logrus"
)

var confirmSuggestions = []prompt.Suggest{
	{Text: "yes", Description: "Apply the changes"},
	{Text: "no", Description: "Stop without changing anything"},
}

// Confirm asks a yes/no question on the terminal. It returns true without asking if
// skip is set.
func Confirm(question string, skip bool) bool {
	if skip {
		logrus.Infof("Automatically answering yes because skip is set to true")
		return true
	}

	response := prompt.Input(
		question+" (yes/no) ",
		func(doc prompt.Document) []prompt.Suggest {
			return prompt.FilterHasPrefix(confirmSuggestions, doc.GetWordBeforeCursor(), true)
		},
	)
	return confirmed(response)
}

func confirmed(response string) bool {
	if strings.TrimSpace(strings.ToLower(response)) != "yes" {
		logrus.Infof("Not continuing")
		return false
	}
	return true
}
