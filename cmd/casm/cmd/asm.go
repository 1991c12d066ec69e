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
	"github.com/blacktop/casm/pkg/symtab"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(asmCmd)

	asmCmd.Flags().Bool("intel", true, "Use Intel assembly syntax (x86 only)")
	asmCmd.Flags().Bool("att", false, "Use AT&T assembly syntax")
	viper.BindPFlag("casm.asm.intel", asmCmd.Flags().Lookup("intel"))
	viper.BindPFlag("casm.asm.att", asmCmd.Flags().Lookup("att"))

	addCargoFlags(asmCmd, "asm")
	addViewFlags(asmCmd, "asm")
}

// asmCmd represents the asm command
var asmCmd = &cobra.Command{
	Use:           "asm [FUNCTION]",
	Aliases:       []string{"a"},
	Short:         "Show the assembly a function compiles to",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := symtab.AsmIntel
		if viper.GetBool("casm.asm.att") {
			kind = symtab.AsmATT
		}
		return runView(cmd, args, "asm", kind)
	},
}
