package cli

import (
	"errors"
	"testing"

	"github.com/spf13/pflag"

	"github.com/embedkit/probelink/internal/dll"
)

func boolPair(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("verify", false, "")
	fs.Bool("no-verify", false, "")
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return fs
}

func TestResolveBoolPrecedence(t *testing.T) {
	yes, no := true, false

	cases := []struct {
		name string
		args []string
		cfg  *bool
		want bool
	}{
		{"default off", nil, nil, false},
		{"config on", nil, &yes, true},
		{"config off", nil, &no, false},
		{"flag beats config", []string{"--verify"}, &no, true},
		{"negative flag beats config", []string{"--no-verify"}, &yes, false},
		{"negative flag wins the pair", []string{"--verify", "--no-verify"}, nil, false},
	}
	for _, c := range cases {
		fs := boolPair(t, c.args...)
		if got := resolveBool(fs, "verify", "no-verify", c.cfg); got != c.want {
			t.Errorf("%s: resolveBool = %v, want %v", c.name, got, c.want)
		}
	}
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want exitError", err)
	}
	return ee.code
}

// Missing required arguments exit 2, same as a missing library, and
// are rejected before the library is touched.
func TestMissingArgumentsExitTwo(t *testing.T) {
	if got := exitCode(t, runCheck(rootCmd, nil, "", "", 0, 0)); got != 2 {
		t.Errorf("check without chip exits %d, want 2", got)
	}
	if got := exitCode(t, runFlash(rootCmd, nil, "", dll.FlashOptions{})); got != 2 {
		t.Errorf("flash without chip exits %d, want 2", got)
	}
	flagFile = ""
	if got := exitCode(t, runFlash(rootCmd, nil, "STM32F407VGTx", dll.FlashOptions{})); got != 2 {
		t.Errorf("flash without file exits %d, want 2", got)
	}
	if got := exitCode(t, runErase(rootCmd, nil, "", 0, 0)); got != 2 {
		t.Errorf("erase without chip exits %d, want 2", got)
	}
}
