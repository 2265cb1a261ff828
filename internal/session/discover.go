package session

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

const (
	portFlag  = "--app-port="
	tokenFlag = "--remoting-auth-token="
)

// ProcessFinder returns the launch arguments of the first running process
// whose name is one of names, or ErrServiceNotFound.
type ProcessFinder interface {
	Cmdline(ctx context.Context, names []string) ([]string, error)
}

// ProcessTable reads the host process table.
type ProcessTable struct{}

var _ ProcessFinder = ProcessTable{}

func (ProcessTable) Cmdline(ctx context.Context, names []string) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if !slices.ContainsFunc(names, func(n string) bool { return strings.EqualFold(n, name) }) {
			continue
		}
		args, err := p.CmdlineSliceWithContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s command line: %v", ErrCredentialMissing, name, err)
		}
		return args, nil
	}
	return nil, ErrServiceNotFound
}

// ParseLaunchArgs extracts the listening port and the auth token.
func ParseLaunchArgs(args []string) (int, string, error) {
	var (
		port  int
		token string
	)
	for _, arg := range args {
		for _, field := range strings.Fields(arg) {
			field = strings.Trim(field, `"'`)
			if v, ok := strings.CutPrefix(field, portFlag); ok {
				p, err := strconv.Atoi(v)
				if err != nil || p <= 0 || p > 65535 {
					return 0, "", fmt.Errorf("%w: bad port %q", ErrCredentialMissing, v)
				}
				port = p
			}
			if v, ok := strings.CutPrefix(field, tokenFlag); ok {
				token = v
			}
		}
	}
	if port == 0 || token == "" {
		return 0, "", ErrCredentialMissing
	}
	return port, token, nil
}
