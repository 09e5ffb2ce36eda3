package udev

import (
	"errors"
	"fmt"
	"slices"

	"github.com/godbus/dbus/v5"
)

// ErrUDisksUnavailable is returned when udisksd neither runs nor can be
// activated on the system bus
var ErrUDisksUnavailable = errors.New("udisks2 service is not available")

// UDisksConnection is a system bus connection scoped to the UDisks2 service
type UDisksConnection interface {
	// ObjectManager returns the UDisks2 root object
	ObjectManager() dbus.BusObject
	// Close closes the connection
	Close() error
}

type systemBusConnection struct {
	conn *dbus.Conn
}

func (c *systemBusConnection) ObjectManager() dbus.BusObject {
	return c.conn.Object(dbusService, dbus.ObjectPath(dbusRootPath))
}

func (c *systemBusConnection) Close() error {
	return c.conn.Close()
}

// ConnectUDisks connects to the system bus and checks that UDisks2 answers on it
func ConnectUDisks() (UDisksConnection, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}

	if err := checkUDisksAvailable(conn.BusObject()); err != nil {
		conn.Close()
		return nil, err
	}

	return &systemBusConnection{conn: conn}, nil
}

// checkUDisksAvailable asks the bus daemon whether the UDisks2 name is owned
// or can be started on demand
func checkUDisksAvailable(bus dbus.BusObject) error {
	var owned bool
	if err := bus.Call("org.freedesktop.DBus.NameHasOwner", 0, dbusService).Store(&owned); err != nil {
		return fmt.Errorf("NameHasOwner: %w", err)
	}
	if owned {
		return nil
	}

	var activatable []string
	if err := bus.Call("org.freedesktop.DBus.ListActivatableNames", 0).Store(&activatable); err != nil {
		return fmt.Errorf("ListActivatableNames: %w", err)
	}
	if !slices.Contains(activatable, dbusService) {
		return ErrUDisksUnavailable
	}
	return nil
}
