package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amsamiul/femtoclaw/internal/serial"
)

// portsCmd lists serial ports without starting the TUI, for scripting and
// quick checks.
var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List available serial ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := serial.ListPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}

		usbOnly, _ := cmd.Flags().GetBool("usb")

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PORT\tDESCRIPTION\tUSB BRIDGE")
		for _, p := range ports {
			if usbOnly && !p.IsUSB {
				continue
			}
			bridge := ""
			if p.Recognized() {
				bridge = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Device, p.Description, bridge)
		}
		return w.Flush()
	},
}

func init() {
	portsCmd.Flags().Bool("usb", false, "only show USB serial devices")
}
