// Package cli implements the probelink command. A single root command
// selects its operation with --op; every flag has a config-file
// counterpart, with the flag winning.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/embedkit/probelink/internal/config"
	"github.com/embedkit/probelink/internal/dll"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// styled applies st only when stdout is an interactive terminal.
func styled(st lipgloss.Style, s string) string {
	if term.IsTerminal(os.Stdout.Fd()) {
		return st.Render(s)
	}
	return s
}

var (
	flagConfig   string
	flagDLL      string
	flagChip     string
	flagProbe    string
	flagFile     string
	flagProtocol string
	flagSpeed    uint32
	flagOp       string
	flagBase     string
	flagSkip     uint32
	flagProgType string
)

var rootCmd = &cobra.Command{
	Use:           "probelink",
	Short:         "List debug probes, check targets and flash firmware through the probelink library",
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagConfig, "config", "", "config file (default ~/.config/probelink/config.yaml)")
	f.StringVar(&flagDLL, "dll", "", "path to the boundary shared library")
	f.StringVar(&flagChip, "chip", "", "target chip name")
	f.StringVar(&flagProbe, "probe", "", "probe selector VID:PID[:SERIAL]")
	f.StringVar(&flagFile, "file", "", "firmware image to flash")
	f.StringVar(&flagProtocol, "protocol", "", "wire protocol: swd or jtag")
	f.Uint32Var(&flagSpeed, "speed", 0, "wire speed in kHz")
	f.StringVar(&flagOp, "op", "", "operation: list, check, flash or erase")
	f.StringVar(&flagBase, "base", "", "base address for raw binary images (0x.., 0b.., 0o.. or decimal)")
	f.Uint32Var(&flagSkip, "skip", 0, "bytes to skip at the start of a raw binary image")
	f.StringVar(&flagProgType, "programmer-type", "", "driver family, e.g. cmsis-dap or stlink")
	f.Bool("verify", false, "verify after programming")
	f.Bool("no-verify", false, "disable verification")
	f.Bool("preverify", false, "skip sectors that already match")
	f.Bool("no-preverify", false, "disable preverification")
	f.Bool("chip-erase", false, "mass-erase before programming")
	f.Bool("no-chip-erase", false, "disable mass erase")
}

// exitError carries an explicit process exit code out of RunE.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// Execute runs the root command. Usage errors exit 1, a missing or
// unloadable library and missing required chip/file arguments exit 2,
// a session that fails to open exits 3, and failing operations pass
// the library's return code through.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, styled(errStyle, ee.msg))
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, styled(errStyle, err.Error()))
		os.Exit(1)
	}
}

// resolveBool settles an on/off flag pair over a config default. The
// most recently meaningful source wins: an explicit flag beats the
// config file, which beats the built-in false.
func resolveBool(fs *pflag.FlagSet, on, off string, cfg *bool) bool {
	v := cfg != nil && *cfg
	if fs.Changed(on) {
		v = true
	}
	if fs.Changed(off) {
		v = false
	}
	return v
}

func pick(flag, cfg string) string {
	if flag != "" {
		return flag
	}
	return cfg
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return &exitError{code: 1, msg: err.Error()}
	}

	chip := pick(flagChip, cfg.Chip)
	selector := pick(flagProbe, cfg.Probe)
	progType := pick(flagProgType, cfg.ProgrammerType)
	speed := flagSpeed
	if speed == 0 {
		speed = cfg.SpeedKHz
	}
	protocol, err := parseProtocol(pick(flagProtocol, cfg.Protocol))
	if err != nil {
		return &exitError{code: 1, msg: err.Error()}
	}

	op := flagOp
	if op == "" {
		if flagFile != "" {
			op = "flash"
		} else {
			op = "check"
		}
	}

	libPath, err := dll.Locate(flagDLL, cfg.Library)
	if err != nil {
		return &exitError{code: 2, msg: err.Error()}
	}
	lib, err := dll.Open(libPath)
	if err != nil {
		return &exitError{code: 2, msg: err.Error()}
	}
	defer lib.Close()

	if op != "list" {
		if progType == "" {
			return &exitError{code: 1, msg: "a programmer type is required (--programmer-type)"}
		}
		code, ok := lib.ProgrammerTypeFromString(progType)
		if !ok {
			return &exitError{code: 1, msg: fmt.Sprintf("unknown programmer type %q", progType)}
		}
		if err := lib.SetProgrammerTypeCode(code); err != nil {
			return &exitError{code: 1, msg: err.Error()}
		}
	}

	switch op {
	case "list":
		return runList(cmd, lib)
	case "check":
		return runCheck(cmd, lib, chip, selector, speed, protocol)
	case "flash":
		fs := cmd.Flags()
		opts := dll.FlashOptions{
			Verify:    resolveBool(fs, "verify", "no-verify", cfg.Verify),
			Preverify: resolveBool(fs, "preverify", "no-preverify", cfg.Preverify),
			ChipErase: resolveBool(fs, "chip-erase", "no-chip-erase", cfg.ChipErase),
			SpeedKHz:  speed,
			Protocol:  protocol,
		}
		return runFlash(cmd, lib, chip, opts)
	case "erase":
		return runErase(cmd, lib, chip, speed, protocol)
	}
	return &exitError{code: 1, msg: fmt.Sprintf("unknown operation %q", op)}
}
