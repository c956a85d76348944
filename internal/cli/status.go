// Copyright 2024 H2O.ai
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
)

var spinnerFrames = []string{
	"⠈⠁", "⠈⠑", "⠈⠱", "⠈⡱", "⢀⡱", "⢄⡱", "⢄⡱", "⢆⡱",
	"⢎⡱", "⢎⡰", "⢎⡠", "⢎⡀", "⢎⠁", "⠎⠁", "⠊⠁",
}

const defaultSpinnerDelay = 100 * time.Millisecond

// Status reports progress of a long-running h2octl operation (currently
// `cluster create --wait` waiting for Ready) as an animated spinner.
type Status struct {
	spinner *spinner.Spinner
}

// NewStatus builds a Status ready to Start.
func NewStatus() (*Status, error) {
	s := spinner.New(spinnerFrames, defaultSpinnerDelay)
	if err := s.Color("fgHiWhite", "bold"); err != nil {
		return nil, err
	}
	return &Status{spinner: s}, nil
}

// Start begins animating with the given status line.
func (s *Status) Start(status string) {
	s.spinner.Start()
	s.spinner.Suffix = fmt.Sprintf(" %s", status)
}

// Stop ends the animation, leaving a final success or failure line.
func (s *Status) Stop(success bool, status string) {
	if success {
		s.spinner.FinalMSG = fmt.Sprintf(" \x1b[32m✓\x1b[0m %s\n", status)
	} else {
		s.spinner.FinalMSG = fmt.Sprintf(" \x1b[31m✗\x1b[0m %s\n", status)
	}
	s.spinner.Stop()
}
