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
	rootCmd.AddCommand(llvmCmd)

	llvmCmd.Flags().Bool("bc", false, "Disassemble LLVM bitcode instead of reading textual IR")
	viper.BindPFlag("casm.llvm.bc", llvmCmd.Flags().Lookup("bc"))

	addCargoFlags(llvmCmd, "llvm")
	addViewFlags(llvmCmd, "llvm")
}

// llvmCmd represents the llvm command
var llvmCmd = &cobra.Command{
	Use:           "llvm [FUNCTION]",
	Aliases:       []string{"ir", "l"},
	Short:         "Show the LLVM-IR a function compiles to",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := symtab.LLVMIR
		if viper.GetBool("casm.llvm.bc") {
			kind = symtab.LLVMBitcode
		}
		return runView(cmd, args, "llvm", kind)
	},
}
