package cmd

import (
	"bufio"
	"io"
	"strings"

	"github.com/fatih/color"
)

const (
	responseYes = "yes"
	responseY   = "y"
)

// IsAssumeYes returns true if we should skip confirmation prompts
func IsAssumeYes() bool {
	return assumeYesFlag
}

// ConfirmPrompt asks the user for confirmation on out and reads the answer
// from in. Anything but y/yes, including EOF, declines.
func ConfirmPrompt(in io.Reader, out io.Writer, message string) (bool, error) {
	if IsAssumeYes() {
		return true, nil
	}

	yellow := color.New(color.FgYellow)
	_, _ = yellow.Fprintf(out, "%s [y/N]: ", message)

	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == responseY || response == responseYes, nil
}
