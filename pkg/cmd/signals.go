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

	"github.com/htol-tools/patconv/pkg/chanmap"
	"github.com/htol-tools/patconv/pkg/conv"
	"github.com/htol-tools/patconv/pkg/stil"
)

var signalsCmd = &cobra.Command{
	Use:   "signals [flags] stil_file",
	Short: "list the signals and signal groups a STIL file declares.",
	Long: `List the signals and signal groups a STIL file declares, for seeding a
	 signal-to-channel map.  With --template, an unassigned channel map is
	 written instead.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		symtab, err := conv.ReadSymbols(args[0], conv.SinkFunc(func(event conv.Event) {
			if w, ok := event.(conv.Warning); ok {
				fmt.Printf("warning: %s\n", w.Message)
			}
		}))
		//
		if err != nil {
			reportError(args[0], err)
			os.Exit(1)
		}
		//
		if template := GetString(cmd, "template"); template != "" {
			writeTemplate(template, symtab.Signals())
			return
		}
		//
		fmt.Printf("signals (%d):\n", len(symtab.Signals()))
		//
		for _, sig := range symtab.Signals() {
			fmt.Printf("  %s %s\n", sig.Name, sig.Dir)
		}
		//
		if groups := symtab.Groups(); len(groups) > 0 {
			fmt.Printf("signal groups (%d):\n", len(groups))
			//
			for _, group := range groups {
				flat, gerr := symtab.ResolveGroup(group)
				if gerr != nil {
					fmt.Println(gerr)
					os.Exit(1)
				}
				//
				fmt.Printf("  %s = %s\n", group, strings.Join(flat, " + "))
			}
		}
		//
		if tables := symtab.WaveformTables(); len(tables) > 0 {
			fmt.Printf("waveform tables (%d): %s\n", len(tables), strings.Join(tables, ", "))
		}
	},
}

// writeTemplate writes a channel map assigning the declared signals to
// channels 0..n-1, as a starting point for hand editing.
func writeTemplate(path string, signals []stil.Signal) {
	mapped := chanmap.New()
	//
	for i, sig := range signals {
		if i >= chanmap.NumChannels {
			fmt.Printf("warning: %d signals exceed %d channels, truncating template\n",
				len(signals), chanmap.NumChannels)
			break
		}
		//
		if err := mapped.Bind(sig.Name, i); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}
	//
	f, err := os.Create(path)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	//
	defer f.Close()
	//
	if strings.HasSuffix(path, ".json") {
		if werr := mapped.WriteJSON(f); werr != nil {
			fmt.Println(werr)
			os.Exit(1)
		}
	} else if werr := mapped.WriteCSV(f); werr != nil {
		fmt.Println(werr)
		os.Exit(1)
	}
	//
	fmt.Printf("wrote channel map template %s\n", path)
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(signalsCmd)
	signalsCmd.Flags().String("template", "", "write a channel map template to the given file.")
}
