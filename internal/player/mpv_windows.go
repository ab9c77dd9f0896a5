//go:build windows

package player

import (
	"context"
	"fmt"
	"github.com/PizzaHomicide/embedplayer/internal/log"
	"gopkg.in/natefinch/npipe.v2"
	"os/exec"
	"syscall"
)

// setupPlayerProcess starts the player in a new process group
func setupPlayerProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// Connect establishes a connection with MPV for Windows
func (c *MPVIPCClient) Connect(ctx context.Context) error {
	log.Trace("Connecting to Windows named pipe", "path", c.socketPath)

	conn, err := npipe.Dial(c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to MPV pipe: %w", err)
	}

	c.conn = conn
	go c.readEvents()
	return nil
}
