// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package cmd

import (
	"io"
	"time"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"
	"github.com/wearable-lab/wdk/usecase/epochs"
)

// ValidateMain is wrapped by NewValidateCommand and only exported for testing
// purposes.
var ValidateMain *epochs.Main

// NewValidateCommand wraps epochs.Main with cobra.Command for use from a CLI.
func NewValidateCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	ValidateMain = epochs.NewMain()
	ValidateMain.Stdout, ValidateMain.Stderr = stdout, stderr
	validateCommand := &cobra.Command{
		Use:   "validate",
		Short: "Flag invalid epochs and days, report and optionally prune them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err = ValidateMain.Run()
			if err != nil {
				return err
			}
			if ValidateMain.Out != "" {
				cmd.Printf("Done: %v\n", time.Since(start))
			}
			return nil
		},
	}
	flags := validateCommand.Flags()
	err = commandeer.Flags(flags, ValidateMain)
	if err != nil {
		panic(err)
	}
	return validateCommand
}

func init() {
	subcommandFns["validate"] = NewValidateCommand
}
