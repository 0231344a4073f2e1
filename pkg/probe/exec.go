package probe

import (
	"context"
	"os/exec"

	pkgerrors "github.com/pkg/errors"
)

// runCommand executes a CLI facility under the probe context and returns
// its stdout. A missing binary classifies as Unavailable, a kill due to
// the context deadline as Timeout; both via failureFor at the caller.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, err
	}

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, context.DeadlineExceeded
		}
		return nil, pkgerrors.Wrapf(err, "running %s", name)
	}

	return out, nil
}
