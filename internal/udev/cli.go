package udev

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kriansa/rootserial/internal/log"
)

// CLIEnumerator implements Enumerator using the udevadm CLI
type CLIEnumerator struct {
	run func(args ...string) ([]byte, error)
}

// NewCLIEnumerator creates a new udevadm based enumerator
func NewCLIEnumerator() *CLIEnumerator {
	return &CLIEnumerator{run: udevadm}
}

// udevadm runs a udevadm command and returns its standard output
func udevadm(args ...string) ([]byte, error) {
	cmd := exec.Command("udevadm", args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("udevadm %s: %w (stderr: %q)", strings.Join(args, " "), err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("udevadm %s: %w", strings.Join(args, " "), err)
	}
	return output, nil
}

// Enumerate exports the whole udev database once and keeps the devices of
// the requested subsystem
func (e *CLIEnumerator) Enumerate(subsystem string) ([]Device, error) {
	log.Debug("exporting udev database", "subsystem", subsystem)

	output, err := e.run("info", "--export-db")
	if err != nil {
		return nil, fmt.Errorf("export udev database: %w", err)
	}

	var devices []Device
	for _, dev := range parseExportDB(output) {
		if dev.Subsystem == subsystem {
			devices = append(devices, dev)
		}
	}

	sortDevices(devices)
	return devices, nil
}

// parseExportDB parses `udevadm info --export-db` output
// Records are separated by blank lines. Example record:
//
//	P: /devices/pci0000:00/0000:00:1f.2/ata1/host0/target0:0:0/0:0:0:0/block/sda
//	M: sda
//	U: block
//	N: sda
//	E: DEVNAME=/dev/sda
//	E: ID_SERIAL=Samsung_SSD_860_EVO_500GB_S3Z1NB0K123456A
//	E: ID_SERIAL_SHORT=S3Z1NB0K123456A
func parseExportDB(output []byte) []Device {
	var devices []Device
	var devPath, sysname string
	props := map[string]string{}

	flush := func() {
		if devPath != "" || len(props) > 0 {
			if sysname == "" {
				sysname = sysnameFromPath(devPath)
			}
			devices = append(devices, Device{
				Sysname:    sysname,
				Subsystem:  props["SUBSYSTEM"],
				Properties: props,
			})
		}
		devPath, sysname = "", ""
		props = map[string]string{}
	}

	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		tag, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}

		switch tag {
		case "P":
			devPath = value
		case "M":
			sysname = value
		case "U":
			if _, set := props["SUBSYSTEM"]; !set {
				props["SUBSYSTEM"] = value
			}
		case "E":
			if key, v, ok := strings.Cut(value, "="); ok && key != "" {
				props[key] = v
			}
		}
	}
	flush()

	return devices
}
