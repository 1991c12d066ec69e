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
	"fmt"
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

// addCargoFlags registers the cargo build knobs every artifact command
// shares, binding each under the given viper key prefix.
func addCargoFlags(c *cobra.Command, key string) {
	c.Flags().String("manifest-path", "", "Path to Cargo.toml")
	c.Flags().StringP("package", "p", "", "Package to build (see `cargo help pkgid`)")
	c.Flags().Bool("lib", false, "Build only this package's library")
	c.Flags().String("bin", "", "Build only the specified binary")
	c.Flags().String("example", "", "Build only the specified example")
	c.Flags().String("test", "", "Build only the specified test target")
	c.Flags().String("bench", "", "Build only the specified bench target")
	c.Flags().String("target", "", "Build for the target triple")
	c.Flags().String("target-cpu", "", "Override the -Ctarget-cpu flag")
	c.Flags().Bool("native", false, "Shorthand for --target-cpu=native")
	c.Flags().StringSlice("features", nil, "Space or comma separated list of features to activate")
	c.Flags().Bool("all-features", false, "Activate all available features")
	c.Flags().Bool("no-default-features", false, "Do not activate the `default` feature")
	c.Flags().Bool("dev", false, "Build the dev profile instead of release")
	c.Flags().Bool("v0", false, "Request v0 symbol mangling from rustc")

	for _, name := range []string{
		"manifest-path", "package", "lib", "bin", "example", "test", "bench",
		"target", "target-cpu", "native", "features", "all-features",
		"no-default-features", "dev", "v0",
	} {
		viper.BindPFlag(fmt.Sprintf("casm.%s.%s", key, name), c.Flags().Lookup(name))
	}
}

// addViewFlags registers the presentation knobs shared by artifact commands.
func addViewFlags(c *cobra.Command, key string) {
	c.Flags().Bool("rust", false, "Interleave Rust source lines")
	c.Flags().BoolP("simplify", "s", false, "Prune assembler metadata directives")
	c.Flags().Bool("full-name", false, "Include generic arguments and hashes in names")
	c.Flags().IntP("index", "i", -1, "Pick Nth instantiation when a selector is ambiguous")
	c.Flags().String("theme", "", "Chroma syntax highlight theme (e.g. nord)")
	c.Flags().Bool("interactive", false, "Prompt to pick a function when ambiguous")

	for _, name := range []string{
		"rust", "simplify", "full-name", "index", "theme", "interactive",
	} {
		viper.BindPFlag(fmt.Sprintf("casm.%s.%s", key, name), c.Flags().Lookup(name))
	}
}

func cargoConfig(key string, kind symtab.Kind) *cargo.Config {
	get := func(name string) string { return viper.GetString(fmt.Sprintf("casm.%s.%s", key, name)) }
	getB := func(name string) bool { return viper.GetBool(fmt.Sprintf("casm.%s.%s", key, name)) }

	cpu := get("target-cpu")
	if getB("native") {
		cpu = "native"
	}

	return &cargo.Config{
		Manifest:          get("manifest-path"),
		Package:           get("package"),
		Lib:               getB("lib"),
		Bin:               get("bin"),
		Example:           get("example"),
		Test:              get("test"),
		Bench:             get("bench"),
		Kind:              kind,
		Target:            get("target"),
		TargetCPU:         cpu,
		Features:          viper.GetStringSlice(fmt.Sprintf("casm.%s.features", key)),
		AllFeatures:       getB("all-features"),
		NoDefaultFeatures: getB("no-default-features"),
		Dev:               getB("dev"),
		V0Mangling:        getB("v0"),
		Verbose:           viper.GetBool("verbose"),
	}
}

func viewConfig(key, selector string) *view.Config {
	get := func(name string) string { return viper.GetString(fmt.Sprintf("casm.%s.%s", key, name)) }
	getB := func(name string) bool { return viper.GetBool(fmt.Sprintf("casm.%s.%s", key, name)) }

	return &view.Config{
		Selector:    selector,
		Index:       viper.GetInt(fmt.Sprintf("casm.%s.index", key)),
		FullName:    getB("full-name"),
		Rust:        getB("rust"),
		Simplify:    getB("simplify"),
		Color:       viper.GetBool("color"),
		Theme:       get("theme"),
		Interactive: getB("interactive"),
	}
}

// runView is the shared driver behind the artifact commands: build the
// requested compiler output, then display the selected function.
func runView(c *cobra.Command, args []string, key string, kind symtab.Kind) error {
	if viper.GetBool("verbose") {
		log.SetLevel(log.DebugLevel)
	}
	if c.Flags().Changed("color") || viper.IsSet("color") {
		colorOn := viper.GetBool("color")
		colors.Init(&colorOn)
	} else {
		colors.Init(nil)
	}

	selector := ""
	if len(args) > 0 {
		selector = args[0]
	}

	bconf := cargoConfig(key, kind)
	vconf := viewConfig(key, selector)

	ctx := context.Background()

	var artifact *cargo.Artifact
	if err := ctrlc.Default.Run(ctx, func() error {
		log.Info("Compiling...")
		var err error
		artifact, err = cargo.Build(ctx, bconf)
		return err
	}); err != nil {
		if errors.As(err, &ctrlc.ErrorCtrlC{}) {
			log.Warn("Exiting...")
			return nil
		}
		return err
	}

	return view.Run(os.Stdout, artifact.Text, kind, vconf)
}
