// Package cargo drives `cargo rustc` to produce the compiler artifact a
// viewing session works on: an assembly listing, LLVM-IR, LLVM bitcode or
// MIR dump for a single crate target.
package cargo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/casm/internal/utils"
	"github.com/blacktop/casm/pkg/symtab"
	"github.com/hashicorp/go-version"
	"github.com/pkg/errors"
)

// v0 symbol mangling can be requested on stable rustc since 1.59.0
var minV0Rustc = version.Must(version.NewVersion("1.59.0"))

// Config describes a single cargo build producing one artifact.
type Config struct {
	Manifest string // path to Cargo.toml ("" means cwd)
	Package  string // -p flag; "" lets cargo pick the default package

	// target selection, at most one of these is set
	Lib     bool
	Bin     string
	Example string
	Test    string
	Bench   string

	Kind symtab.Kind

	Target            string // target triple
	TargetCPU         string // -Ctarget-cpu value ("native" is common)
	Features          []string
	AllFeatures       bool
	NoDefaultFeatures bool
	Dev               bool // build the dev profile instead of release
	V0Mangling        bool // -Csymbol-mangling-version=v0

	Verbose bool
}

// Artifact is the emitted compiler output, read into memory.
type Artifact struct {
	Path string
	Text string
	Kind symtab.Kind
}

// BuildError reports a cargo invocation that exited non-zero, carrying
// whatever diagnostics rustc wrote to stderr.
type BuildError struct {
	ExitCode    int
	Diagnostics string
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("cargo build failed (exit %d)", e.ExitCode)
	if len(e.Diagnostics) > 0 {
		msg += ":\n" + e.Diagnostics
	}
	return msg
}

func emitFlag(kind symtab.Kind) string {
	switch kind {
	case symtab.LLVMIR:
		return "--emit=llvm-ir"
	case symtab.LLVMBitcode:
		return "--emit=llvm-bc"
	case symtab.MIR:
		return "--emit=mir"
	default:
		return "--emit=asm"
	}
}

func artifactExt(kind symtab.Kind) string {
	switch kind {
	case symtab.LLVMIR:
		return ".ll"
	case symtab.LLVMBitcode:
		return ".bc"
	case symtab.MIR:
		return ".mir"
	default:
		return ".s"
	}
}

// buildArgs assembles the full `cargo rustc` argument list. Kept separate
// from the exec plumbing so the flag translation is testable.
func (c *Config) buildArgs() []string {
	args := []string{"rustc"}

	if c.Manifest != "" {
		args = append(args, "--manifest-path", c.Manifest)
	}
	if c.Package != "" {
		args = append(args, "-p", c.Package)
	}
	switch {
	case c.Lib:
		args = append(args, "--lib")
	case c.Bin != "":
		args = append(args, "--bin", c.Bin)
	case c.Example != "":
		args = append(args, "--example", c.Example)
	case c.Test != "":
		args = append(args, "--test", c.Test)
	case c.Bench != "":
		args = append(args, "--bench", c.Bench)
	}
	if !c.Dev {
		args = append(args, "--release")
	}
	if c.Target != "" {
		args = append(args, "--target", c.Target)
	}
	if c.AllFeatures {
		args = append(args, "--all-features")
	}
	if c.NoDefaultFeatures {
		args = append(args, "--no-default-features")
	}
	if len(c.Features) > 0 {
		args = append(args, "--features", strings.Join(c.Features, ","))
	}

	args = append(args, "--", emitFlag(c.Kind), "-Cdebuginfo=2")
	if c.Kind == symtab.AsmIntel {
		args = append(args, "-Cllvm-args=-x86-asm-syntax=intel")
	}
	if c.TargetCPU != "" {
		args = append(args, fmt.Sprintf("-Ctarget-cpu=%s", c.TargetCPU))
	}
	if c.V0Mangling {
		args = append(args, "-Csymbol-mangling-version=v0")
	}

	return args
}

// Build runs cargo and returns the freshest artifact it produced.
func Build(ctx context.Context, conf *Config) (*Artifact, error) {
	cargoBin, err := exec.LookPath("cargo")
	if err != nil {
		return nil, errors.Wrap(err, "cargo not found on PATH")
	}

	if conf.V0Mangling {
		if err := checkV0Support(ctx); err != nil {
			return nil, err
		}
	}

	args := conf.buildArgs()
	cmd := exec.CommandContext(ctx, cargoBin, args...)
	cmd.Env = os.Environ()

	var stderr strings.Builder
	if conf.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stderr = &stderr
	}

	utils.Indent(log.Debug, 2)(cmd.String())

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, &BuildError{
				ExitCode:    exitErr.ExitCode(),
				Diagnostics: strings.TrimSpace(stderr.String()),
			}
		}
		return nil, fmt.Errorf("failed to run cargo: %v", err)
	}

	path, err := findArtifact(conf)
	if err != nil {
		return nil, err
	}

	utils.Indent(log.Debug, 2)("artifact: " + path)

	if conf.Kind == symtab.LLVMBitcode {
		text, err := disassembleBitcode(ctx, path)
		if err != nil {
			return nil, err
		}
		return &Artifact{Path: path, Text: text, Kind: conf.Kind}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %v", path, err)
	}

	return &Artifact{Path: path, Text: string(data), Kind: conf.Kind}, nil
}

// findArtifact locates the newest emitted file for the configured kind
// under cargo's target directory.
func findArtifact(conf *Config) (string, error) {
	deps := depsDir(conf)

	pattern := filepath.Join(deps, "*"+artifactExt(conf.Kind))
	if conf.Package != "" {
		// crate names use underscores in file stems
		crate := strings.ReplaceAll(conf.Package, "-", "_")
		pattern = filepath.Join(deps, crate+"-*"+artifactExt(conf.Kind))
	}

	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("no %s artifact found under %s (did the build emit anything?)", artifactExt(conf.Kind), deps)
	}

	newest := matches[0]
	var newestMod int64
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			continue
		}
		if mod := fi.ModTime().UnixNano(); mod > newestMod {
			newest, newestMod = m, mod
		}
	}

	return newest, nil
}

func depsDir(conf *Config) string {
	target := os.Getenv("CARGO_TARGET_DIR")
	if target == "" {
		root := "."
		if conf.Manifest != "" {
			root = filepath.Dir(conf.Manifest)
		}
		target = filepath.Join(root, "target")
	}

	profile := "release"
	if conf.Dev {
		profile = "debug"
	}

	if conf.Target != "" {
		return filepath.Join(target, conf.Target, profile, "deps")
	}
	return filepath.Join(target, profile, "deps")
}

// disassembleBitcode shells out to llvm-dis so bitcode can be displayed
// as textual IR.
func disassembleBitcode(ctx context.Context, path string) (string, error) {
	dis, err := findLLVMDis()
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, dis, "-o", "-", path)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	utils.Indent(log.Debug, 2)(cmd.String())

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run llvm-dis: %v: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

func findLLVMDis() (string, error) {
	if path, err := exec.LookPath("llvm-dis"); err == nil {
		return path, nil
	}
	if xcrunPath, err := exec.LookPath("xcrun"); err == nil {
		cmd := exec.Command(xcrunPath, "--find", "llvm-dis")
		if out, err := cmd.Output(); err == nil {
			if resolved := strings.TrimSpace(string(out)); resolved != "" {
				return resolved, nil
			}
		}
	}
	return "", errors.New("llvm-dis not found; install LLVM (e.g. `brew install llvm`) or ensure llvm-dis is on PATH")
}

// checkV0Support verifies the installed rustc accepts stable v0 mangling.
func checkV0Support(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, "rustc", "--version").Output()
	if err != nil {
		return fmt.Errorf("failed to run rustc --version: %v", err)
	}

	v, err := parseRustcVersion(string(out))
	if err != nil {
		return err
	}
	if v.LessThan(minV0Rustc) {
		return fmt.Errorf("rustc %s is too old for v0 symbol mangling (need %s or newer)", v, minV0Rustc)
	}

	return nil
}

func parseRustcVersion(out string) (*version.Version, error) {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) < 2 || fields[0] != "rustc" {
		return nil, fmt.Errorf("unexpected rustc version output: %q", strings.TrimSpace(out))
	}
	// nightly builds report e.g. "1.81.0-nightly"
	raw := strings.SplitN(fields[1], "-", 2)[0]
	v, err := version.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rustc version %q: %v", fields[1], err)
	}
	return v, nil
}
