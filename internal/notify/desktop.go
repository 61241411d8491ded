package notify

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Desktop shows a short-lived notification through notify-send.
func Desktop(ctx context.Context, summary string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "notify-send", "-a", "vassist", "-t", "2000", summary)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify-send: %w: %s", err, out)
	}
	return nil
}
