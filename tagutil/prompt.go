/*
Copyright © 2021 the TagTools authors.
This file is part of TagTools.

TagTools is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

TagTools is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with TagTools.  If not, see <http://www.gnu.org/licenses/>.
*/

package tagutil

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// Stdin is where answers to interactive questions are read from.
var Stdin io.Reader = os.Stdin

// prompter asks the user questions on the command's output.
type prompter struct {
	cmd *cobra.Command
	in  *bufio.Reader
	yes bool
}

func newPrompter(cmd *cobra.Command, yes bool) *prompter {
	return &prompter{cmd: cmd, in: bufio.NewReader(Stdin), yes: yes}
}

func (p *prompter) readLine() string {
	s, _ := p.in.ReadString('\n')
	return strings.TrimSpace(s)
}

// confirm asks a yes or no question, defaulting to no.
func (p *prompter) confirm(prompt string) bool {
	if p.yes {
		return true
	}
	p.cmd.Printf("%s? [y/N] ", prompt)
	switch strings.ToLower(p.readLine()) {
	case "y", "yes":
		return true
	}
	return false
}

// choose asks the user to pick one of the options by number. An
// invalid answer selects nothing.
func (p *prompter) choose(prompt string, opts []string) (int, error) {
	p.cmd.Printf("%s:\n", prompt)
	for i, o := range opts {
		p.cmd.Printf(" %d %s\n", i, o)
	}
	p.cmd.Print("Enter number for the correct entry... ")
	n, err := strconv.Atoi(p.readLine())
	if err != nil || n < 0 || n >= len(opts) {
		return -1, nil
	}
	return n, nil
}
