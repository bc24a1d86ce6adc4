package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/embedkit/probelink/internal/dll"
)

func runList(cmd *cobra.Command, lib *dll.Library) error {
	cmd.Printf("%s %s\n", styled(headerStyle, "probelink library"), lib.Version())
	n := lib.ProbeCount()
	if n == 0 {
		cmd.Println(styled(dimStyle, "no probes found"))
		return nil
	}
	for i := uint32(0); i < n; i++ {
		info, err := lib.ProbeInfo(i)
		if err != nil {
			return &exitError{code: 1, msg: err.Error()}
		}
		cmd.Printf("[%d] %s %04x:%04x", i, info.Identifier, info.VendorID, info.ProductID)
		if info.Serial != "" {
			cmd.Printf(" %s", styled(dimStyle, info.Serial))
		}
		switch lib.CheckTarget(i) {
		case 1:
			cmd.Printf(" %s", styled(okStyle, "target connected"))
		case 0:
			cmd.Printf(" %s", styled(dimStyle, "no target"))
		default:
			cmd.Printf(" %s", styled(errStyle, lib.LastError()))
		}
		cmd.Println()
	}
	return nil
}

// runCheck proves the whole chain works by opening a real session
// against the chip and closing it again.
func runCheck(cmd *cobra.Command, lib *dll.Library, chip, selector string, speed uint32, protocol int32) error {
	if chip == "" {
		return &exitError{code: 2, msg: "a target chip is required (--chip)"}
	}

	var h uint64
	if selector != "" {
		h = lib.SessionOpenWithProbe(selector, chip, speed, protocol)
	} else {
		h = lib.SessionOpenAuto(chip, speed, protocol)
	}
	if h == 0 {
		return &exitError{code: 3, msg: lib.LastError()}
	}
	lib.SessionClose(h)
	cmd.Printf("%s %s\n", styled(okStyle, "attached"), chip)
	return nil
}

// progressPrinter renders throttled flash progress. On a terminal the
// current operation's line is rewritten in place; otherwise each
// notification becomes its own line.
func progressPrinter() dll.ProgressFunc {
	interactive := term.IsTerminal(os.Stdout.Fd())
	return func(op int32, percent float32, status string, etaMS int32) {
		line := fmt.Sprintf("%s %6.2f%%", status, percent)
		if etaMS >= 0 {
			line += fmt.Sprintf(" ETA %ds", (etaMS+999)/1000)
		}
		if !interactive {
			fmt.Println(line)
			return
		}
		fmt.Printf("\r\033[K%s", line)
		if percent >= 100 {
			fmt.Println()
		}
	}
}

func runFlash(cmd *cobra.Command, lib *dll.Library, chip string, opts dll.FlashOptions) error {
	if chip == "" {
		return &exitError{code: 2, msg: "a target chip is required (--chip)"}
	}
	if flagFile == "" {
		return &exitError{code: 2, msg: "a firmware image is required (--file)"}
	}

	if flagBase != "" {
		v, err := ParseBase(flagBase)
		if err != nil {
			return &exitError{code: 1, msg: err.Error()}
		}
		opts.BaseAddress = v
	}
	opts.Skip = flagSkip

	lib.SetProgressCallback(progressPrinter())
	defer lib.ClearProgressCallback()

	if rc := lib.FlashAuto(chip, flagFile, opts); rc != 0 {
		return &exitError{code: int(rc), msg: lib.LastError()}
	}
	cmd.Printf("%s %s -> %s\n", styled(okStyle, "flashed"), flagFile, chip)
	return nil
}

func runErase(cmd *cobra.Command, lib *dll.Library, chip string, speed uint32, protocol int32) error {
	if chip == "" {
		return &exitError{code: 2, msg: "a target chip is required (--chip)"}
	}
	if rc := lib.ChipErase(chip, speed, protocol); rc != 0 {
		return &exitError{code: 1, msg: lib.LastError()}
	}
	cmd.Printf("%s %s\n", styled(okStyle, "erased"), chip)
	return nil
}
