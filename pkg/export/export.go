// Package export writes fleet snapshots in the formats the CLI offers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/robofleet/core/model"
)

// Formats lists the accepted format names.
var Formats = []string{"table", "json", "yaml", "csv"}

// WriteJSON writes the fleet to w as a JSON array.
func WriteJSON(w io.Writer, robots []model.Robot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(robots)
}

// WriteYAML writes the fleet in the seed file layout, so the output can be
// loaded back with fleet.LoadSeed.
func WriteYAML(w io.Writer, robots []model.Robot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(struct {
		Robots []model.Robot `yaml:"robots"`
	}{robots}); err != nil {
		return err
	}
	return enc.Close()
}

var csvHeader = []string{
	"robot_id", "name", "model", "status", "battery_level",
	"latitude", "longitude", "order_id", "customer_name", "delivery_address", "estimated_delivery",
}

// WriteCSV writes one row per robot with a header line.
func WriteCSV(w io.Writer, robots []model.Robot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range robots {
		rec := []string{
			r.ID,
			r.Name,
			r.Model,
			r.Status.String(),
			strconv.Itoa(r.BatteryLevel),
			strconv.FormatFloat(r.Location.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Location.Longitude, 'f', -1, 64),
			r.CurrentOrder.OrderID,
			r.CurrentOrder.CustomerName,
			r.CurrentOrder.DeliveryAddress,
			r.CurrentOrder.EstimatedDelivery,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes a fixed-width listing for terminals.
func WriteTable(w io.Writer, robots []model.Robot) error {
	if _, err := fmt.Fprintf(w, "%-10s %-12s %-6s %-12s %7s\n", "ID", "NAME", "MODEL", "STATUS", "BATTERY"); err != nil {
		return err
	}
	for _, r := range robots {
		if _, err := fmt.Fprintf(w, "%-10s %-12s %-6s %-12s %6d%%\n", r.ID, r.Name, r.Model, r.Status, r.BatteryLevel); err != nil {
			return err
		}
	}
	return nil
}

// Write dispatches on format.
func Write(w io.Writer, format string, robots []model.Robot) error {
	switch format {
	case "", "table":
		return WriteTable(w, robots)
	case "json":
		return WriteJSON(w, robots)
	case "yaml":
		return WriteYAML(w, robots)
	case "csv":
		return WriteCSV(w, robots)
	default:
		return fmt.Errorf("unknown output format %q (want one of %v)", format, Formats)
	}
}
