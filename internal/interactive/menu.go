// Package interactive drives the menu-based terminal session.
package interactive

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// ErrExit signals that the user ended the session.
var ErrExit = errors.New("exit")

// MenuOption pairs a menu entry with the action it triggers.
type MenuOption struct {
	Name        string
	Description string
	Action      func() error
}

// ShowMainMenu prompts for one action and runs it. Choosing the Exit
// entry, or cancelling the prompt, returns ErrExit.
func ShowMainMenu(options []MenuOption) error {
	labels := make([]string, 0, len(options)+1)
	for _, opt := range options {
		labels = append(labels, fmt.Sprintf("%s - %s", opt.Name, opt.Description))
	}
	labels = append(labels, "Exit")

	var selected int
	prompt := &survey.Select{
		Message:  "Select an action:",
		Options:  labels,
		PageSize: len(labels),
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return ErrExit
	}

	if selected >= len(options) {
		return ErrExit
	}

	return options[selected].Action()
}

// PauseForEnter blocks until the user presses Enter.
func PauseForEnter() {
	fmt.Print("\nPress Enter to continue...")
	_, _ = fmt.Scanln()
}

// Confirm asks a yes/no question, defaulting to no. A cancelled prompt
// counts as no.
func Confirm(message string) bool {
	var confirmed bool
	prompt := &survey.Confirm{Message: message}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false
	}

	return confirmed
}
