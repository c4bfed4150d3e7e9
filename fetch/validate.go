package fetch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/shlex"
)

// ValidateURL reports whether s parses as an absolute http(s) URL with a
// host. Pure and total: malformed input yields false, never a panic.
func ValidateURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Flags that would let operator-supplied extra args redirect output or run
// arbitrary commands.
var forbiddenExtraArgs = map[string]bool{
	"-o":           true,
	"--output":     true,
	"--paths":      true,
	"-P":           true,
	"--exec":       true,
	"--batch-file": true,
	"-a":           true,
}

// SplitExtraArgs securely splits the configured extra argument string without
// involving a shell.
func SplitExtraArgs(extra string) ([]string, error) {
	if strings.TrimSpace(extra) == "" {
		return nil, nil
	}
	args, err := shlex.Split(extra)
	if err != nil {
		return nil, fmt.Errorf("invalid extra args syntax: %w", err)
	}
	if err := screenExtraArgs(args); err != nil {
		return nil, err
	}
	return args, nil
}

// screenExtraArgs rejects flags that redirect output or execute commands,
// and arguments carrying shell metacharacters.
func screenExtraArgs(args []string) error {
	for _, arg := range args {
		if forbiddenExtraArgs[arg] {
			return fmt.Errorf("extra arg %q is not allowed", arg)
		}
		if strings.ContainsAny(arg, "|&;`$()<>") {
			return fmt.Errorf("disallowed character found in argument: %s", arg)
		}
	}
	return nil
}
