package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"isoburn/internal/partition"
)

func (c *cli) newDevicesCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List removable disks and their partitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inspector := partition.NewInspector(c.runner)
			out := cmd.OutOrStdout()

			if all {
				table, err := inspector.ListPartitions(cmd.Context())
				if err != nil {
					return err
				}
				devices := make([]string, 0, len(table))
				for dev := range table {
					devices = append(devices, dev)
				}
				sort.Strings(devices)
				for _, dev := range devices {
					mp := table[dev]
					if partition.IsCritical(mp) {
						mp += " (system)"
					}
					fmt.Fprintf(out, "%s\t%s\n", dev, mp)
				}
				return nil
			}

			disks, err := inspector.ListUSBDisks()
			if err != nil {
				return err
			}
			if len(disks) == 0 {
				fmt.Fprintln(out, "No USB drives found")
				return nil
			}
			for _, d := range disks {
				fmt.Fprintln(out, d.String())
				for _, p := range d.Partitions {
					fmt.Fprintln(out, "  "+p.String())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every partition with its mount point")
	return cmd
}
