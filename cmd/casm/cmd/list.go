/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"os"

	"github.com/apex/log"
	"github.com/blacktop/casm/internal/cargo"
	"github.com/blacktop/casm/internal/colors"
	"github.com/blacktop/casm/internal/commands/view"
	"github.com/blacktop/casm/pkg/symtab"
	"github.com/caarlos0/ctrlc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Bool("llvm", false, "List functions in the LLVM-IR instead of assembly")
	listCmd.Flags().Bool("mir", false, "List functions in the MIR instead of assembly")
	listCmd.Flags().Bool("sort", false, "Sort function names alphabetically")
	listCmd.Flags().Bool("full-name", false, "Include generic arguments and hashes in names")
	viper.BindPFlag("casm.list.llvm", listCmd.Flags().Lookup("llvm"))
	viper.BindPFlag("casm.list.mir", listCmd.Flags().Lookup("mir"))
	viper.BindPFlag("casm.list.sort", listCmd.Flags().Lookup("sort"))
	viper.BindPFlag("casm.list.full-name", listCmd.Flags().Lookup("full-name"))

	addCargoFlags(listCmd, "list")
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:           "list",
	Aliases:       []string{"ls", "funcs"},
	Short:         "List every function the artifact defines",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}
		if cmd.Flags().Changed("color") || viper.IsSet("color") {
			colorOn := viper.GetBool("color")
			colors.Init(&colorOn)
		} else {
			colors.Init(nil)
		}

		kind := symtab.AsmIntel
		switch {
		case viper.GetBool("casm.list.llvm"):
			kind = symtab.LLVMIR
		case viper.GetBool("casm.list.mir"):
			kind = symtab.MIR
		}

		ctx := context.Background()

		var artifact *cargo.Artifact
		if err := ctrlc.Default.Run(ctx, func() error {
			log.Info("Compiling...")
			var err error
			artifact, err = cargo.Build(ctx, cargoConfig("list", kind))
			return err
		}); err != nil {
			if errors.As(err, &ctrlc.ErrorCtrlC{}) {
				log.Warn("Exiting...")
				return nil
			}
			return err
		}

		return view.List(os.Stdout, artifact.Text, kind, &view.Config{
			FullName: viper.GetBool("casm.list.full-name"),
			Color:    viper.GetBool("color"),
		}, viper.GetBool("casm.list.sort"))
	},
}
