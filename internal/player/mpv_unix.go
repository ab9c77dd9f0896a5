//go:build !windows

package player

import (
	"context"
	"fmt"
	"github.com/PizzaHomicide/embedplayer/internal/log"
	"net"
	"os/exec"
	"syscall"
)

// setupPlayerProcess puts the player in its own process group so terminal signals aimed at the dashboard do not
// reach it
func setupPlayerProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// Connect establishes a connection with MPV for Unix systems
func (c *MPVIPCClient) Connect(ctx context.Context) error {
	log.Trace("Connecting to Unix socket", "path", c.socketPath)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to MPV socket: %w", err)
	}

	c.conn = conn
	go c.readEvents()
	return nil
}
