// Copyright the patconv authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/htol-tools/patconv/pkg/chanmap"
	"github.com/htol-tools/patconv/pkg/conv"
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] stil_file",
	Short: "translate a STIL file into a VCT or GASC pattern file.",
	Long: `Translate a given STIL test vector file into a VCT or GASC pattern file,
	 applying a signal-to-channel map when the target format needs one.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		target, ok := conv.ParseTarget(GetString(cmd, "target"))
		if !ok {
			fmt.Printf("unknown target format %q\n", GetString(cmd, "target"))
			os.Exit(2)
		}
		//
		input := args[0]
		//
		output := GetString(cmd, "output")
		if output == "" {
			output = strings.TrimSuffix(input, ".stil") + "." + target.String()
		}
		//
		var mapped *chanmap.Map
		//
		if mapPath := GetString(cmd, "map"); mapPath != "" {
			var err error
			if mapped, err = chanmap.ReadFile(mapPath); err != nil {
				fmt.Println(err)
				os.Exit(2)
			}
		}
		//
		sink := newConsoleSink()
		//
		result, err := conv.Convert(conv.Config{
			SourcePath: input,
			OutputPath: output,
			Target:     target,
			ChannelMap: mapped,
			DenyList:   GetStringArray(cmd, "deny"),
			Sink:       sink,
		})
		//
		sink.clear()
		//
		if err != nil {
			reportError(input, err)
			os.Exit(1)
		}
		//
		fmt.Printf("wrote %d vectors to %s (%d warnings)\n", result.Vectors, output, result.Warnings)
	},
}

// consoleSink renders conversion events onto the terminal, keeping at most
// one transient progress line on screen.
type consoleSink struct {
	// Terminal width, for padding the progress line.
	width int
	// Set while a progress line is on screen.
	progressing bool
}

func newConsoleSink() *consoleSink {
	width := 80
	//
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	//
	return &consoleSink{width: width}
}

// Notify implements the conv.Sink interface.
func (s *consoleSink) Notify(event conv.Event) {
	switch e := event.(type) {
	case conv.Progress:
		line := fmt.Sprintf("converting ... %3d%%", e.Percent)
		//
		if len(line) < s.width-1 {
			line += strings.Repeat(" ", s.width-1-len(line))
		}
		//
		fmt.Printf("\r%s", line)
		s.progressing = true
	case conv.Log:
		s.clear()
		log.StandardLogger().Log(e.Level, e.Message)
	case conv.Warning:
		s.clear()
		//
		if e.Offset >= 0 {
			fmt.Printf("warning (offset %d): %s\n", e.Offset, e.Message)
		} else {
			fmt.Printf("warning: %s\n", e.Message)
		}
	case conv.Cancelled:
		s.clear()
		fmt.Printf("cancelled after address 0x%06X\n", e.LastAddress)
	}
}

// clear removes the transient progress line, if one is on screen.
func (s *consoleSink) clear() {
	if s.progressing {
		fmt.Printf("\r%s\r", strings.Repeat(" ", s.width-1))
		s.progressing = false
	}
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringP("target", "t", "vct", "specify target format (vct or gasc).")
	convertCmd.Flags().StringP("output", "o", "", "specify output file.")
	convertCmd.Flags().StringP("map", "m", "", "specify signal-to-channel map file (csv or json).")
	convertCmd.Flags().StringArrayP("deny", "D", []string{}, "skip a named statement with a warning.")
}
