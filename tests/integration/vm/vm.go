//go:build integration

package vm

import (
	"context"
	"time"
)

// VM is a guest machine the rootserial binary is exercised on
type VM interface {
	Run(cmd string) (string, error)
	RunWithTimeout(ctx context.Context, cmd string, timeout time.Duration) (string, error)
	CopyFile(localPath, remotePath string) error
	Stop()
	IsRunning() bool
	WaitForSSH(ctx context.Context) error
	// DiskSerial is the serial number assigned to the boot disk
	DiskSerial() string
}
