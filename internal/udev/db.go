package udev

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/kriansa/rootserial/internal/log"
)

// DatabaseEnumerator implements Enumerator by reading sysfs and the udev
// database files directly, without spawning udevadm
type DatabaseEnumerator struct {
	fs        afero.Fs
	sysfsPath string
	dataPath  string
}

// NewDatabaseEnumerator creates an enumerator over the udev database at dataPath
func NewDatabaseEnumerator(fs afero.Fs, sysfsPath, dataPath string) *DatabaseEnumerator {
	return &DatabaseEnumerator{
		fs:        fs,
		sysfsPath: sysfsPath,
		dataPath:  dataPath,
	}
}

// Enumerate lists /sys/class/<subsystem> and loads every device's uevent and
// udev database record. Properties from the database override uevent ones.
func (e *DatabaseEnumerator) Enumerate(subsystem string) ([]Device, error) {
	classDir := filepath.Join(e.sysfsPath, "class", subsystem)
	entries, err := afero.ReadDir(e.fs, classDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", classDir, err)
	}

	devices := make([]Device, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		devDir := filepath.Join(classDir, name)

		props := map[string]string{"SUBSYSTEM": subsystem}
		if data, err := afero.ReadFile(e.fs, filepath.Join(devDir, "uevent")); err == nil {
			parseKeyValues(data, "", props)
		}

		dbFile := filepath.Join(e.dataPath, e.databaseID(subsystem, name, devDir))
		data, err := afero.ReadFile(e.fs, dbFile)
		switch {
		case err == nil:
			parseKeyValues(data, "E:", props)
		case os.IsNotExist(err):
			log.Debug("device has no udev database record", "device", name, "path", dbFile)
		default:
			return nil, fmt.Errorf("read %s: %w", dbFile, err)
		}

		devices = append(devices, Device{
			Sysname:    name,
			Subsystem:  subsystem,
			Properties: props,
		})
	}

	sortDevices(devices)
	return devices, nil
}

// databaseID returns the udev database file name of a device:
// b<maj:min> for block devices, c<maj:min> for other device nodes and
// +<subsystem>:<sysname> for devices without a node
func (e *DatabaseEnumerator) databaseID(subsystem, name, devDir string) string {
	data, err := afero.ReadFile(e.fs, filepath.Join(devDir, "dev"))
	if err != nil {
		return "+" + subsystem + ":" + name
	}
	majMin := strings.TrimSpace(string(data))
	if subsystem == "block" {
		return "b" + majMin
	}
	return "c" + majMin
}

// parseKeyValues reads KEY=VALUE lines carrying the given prefix into props
func parseKeyValues(data []byte, prefix string, props map[string]string) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, prefix) {
			continue
		}

		key, value, ok := strings.Cut(strings.TrimPrefix(line, prefix), "=")
		if !ok || key == "" {
			continue
		}
		props[key] = value
	}
}
