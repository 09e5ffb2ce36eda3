package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/kriansa/rootserial/internal/config"
	"github.com/kriansa/rootserial/internal/log"
	"github.com/kriansa/rootserial/internal/rootserial"
	"github.com/kriansa/rootserial/internal/udev"
	"github.com/kriansa/rootserial/internal/validation"
	"github.com/kriansa/rootserial/internal/version"
)

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "rootserial",
		Usage:     "Print the hardware serial of the disk backing the root filesystem",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file path",
				Value:   config.DefaultConfigPath,
			},
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "Device manager backend: udevdb, udevadm or udisks",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Print only the serial",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "version",
				Aliases: []string{"V"},
				Usage:   "Print version information",
			},
		},
		Action: runSerial,
		Commands: []*cli.Command{
			{
				Name:   "root",
				Usage:  "Show how the root filesystem was traced to its physical disk",
				Action: runRoot,
			},
			{
				Name:      "properties",
				Usage:     "Dump the device manager properties of a block device",
				ArgsUsage: "<device>",
				Action:    runProperties,
			},
		},
	}
}

// app is everything a command needs, built from flags and the config file
type app struct {
	resolver *rootserial.Resolver
	devices  udev.Enumerator
}

func (a *app) Close() {
	if closer, ok := a.devices.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Warn("failed to close device manager connection", "error", err)
		}
	}
}

func setup(cmd *cli.Command) (*app, error) {
	// Setup logging
	log.Setup(cmd.Bool("verbose"))

	// Load config file
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Merge CLI flags (CLI takes precedence)
	cfg.Merge(cmd.String("backend"))

	// Apply defaults
	cfg.ApplyDefaults()

	// Validate config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log.Debug("resolving root device serial",
		"backend", cfg.Backend,
		"sysfs", cfg.SysfsPath,
		"mountinfo", cfg.MountInfoPath,
		"mounts", cfg.MountsPath,
		"overlay_fs_types", cfg.OverlayFSTypes,
	)

	fs := afero.NewOsFs()

	devices, err := udev.NewEnumerator(cfg.Backend, udev.Options{
		Fs:        fs,
		SysfsPath: cfg.SysfsPath,
		DataPath:  cfg.UdevDataPath,
	})
	if err != nil {
		return nil, fmt.Errorf("create device manager: %w", err)
	}

	resolver := rootserial.NewResolver(rootserial.Config{
		Fs:             fs,
		SysfsPath:      cfg.SysfsPath,
		MountInfoPath:  cfg.MountInfoPath,
		MountsPath:     cfg.MountsPath,
		OverlayFSTypes: cfg.OverlayFSTypes,
	}, devices)

	return &app{resolver: resolver, devices: devices}, nil
}

func runSerial(_ context.Context, cmd *cli.Command) error {
	// Handle version flag
	if cmd.Bool("version") {
		_, err := fmt.Fprintln(cmd.Root().Writer, version.String())
		return err
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	serial, err := a.resolver.GetDeviceSerial()
	if err != nil {
		return err
	}

	if cmd.Bool("quiet") {
		_, err = fmt.Fprintln(cmd.Root().Writer, serial)
		return err
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "Serial: %s\n", serial)
	return err
}

func runRoot(_ context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.resolver.Resolve()
	if err != nil {
		return err
	}

	return printResult(cmd.Root().Writer, res)
}

func runProperties(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if err := validation.ValidateDeviceName(name); err != nil {
		return err
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	dev, err := a.resolver.LookupDevice(name)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	for _, key := range dev.PropertyKeys() {
		if _, err := fmt.Fprintf(out, "%s=%s\n", key, dev.Properties[key]); err != nil {
			return err
		}
	}
	return nil
}

func printResult(out io.Writer, res *rootserial.Result) error {
	lines := [][2]string{
		{"Mount point", res.Mount.MountPoint},
		{"Filesystem", res.Mount.FSType},
		{"Source", res.Mount.Source},
		{"Device number", res.Mount.Device.String()},
	}

	switch disk := res.Disk.(type) {
	case rootserial.RegularDisk:
		lines = append(lines, [2]string{"Disk", "block device"})
	case rootserial.LVMDisk:
		lines = append(lines,
			[2]string{"Disk", "LVM logical volume " + disk.Name},
			[2]string{"Slaves", disk.SlavesDir},
		)
	}

	lines = append(lines,
		[2]string{"Physical device", res.Device},
		[2]string{"Serial", res.Serial},
	)

	for _, line := range lines {
		if _, err := fmt.Fprintf(out, "%-16s %s\n", line[0]+":", line[1]); err != nil {
			return err
		}
	}
	return nil
}
