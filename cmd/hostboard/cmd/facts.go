package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mensylisir/hostboard/pkg/connector"
	"github.com/mensylisir/hostboard/pkg/facts"
	"github.com/mensylisir/hostboard/pkg/logger"
)

var factsTimeout time.Duration

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Collect one host snapshot and print it as tables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.SyncGlobal()

		ctx, cancel := context.WithTimeout(context.Background(), factsTimeout)
		defer cancel()

		conn := connector.NewLocalConnector()
		conn.DefaultTimeout = loadedConfig.Engine.CommandTimeout
		engine := facts.NewEngine(conn, logger.Get(),
			facts.WithRateSampling(loadedConfig.Engine.RateSampleInterval))
		snapshot := engine.Snapshot(ctx)

		printInterfaces(snapshot.Interfaces)
		printPorts(snapshot.Ports)
		printFirewall(snapshot.Firewall)
		printVolumes(snapshot.Volumes)
		printUnits(snapshot.Units)
		printLoad(snapshot.Load)
		return nil
	},
}

func init() {
	factsCmd.Flags().DurationVar(&factsTimeout, "timeout", 60*time.Second, "Overall snapshot deadline")
}

func printInterfaces(ifaces []facts.NetworkInterface) {
	fmt.Println("\nNetwork interfaces:")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"NAME", "KIND", "STATE", "IPV4", "MAC", "MTU", "SPEED"})
	for _, ni := range ifaces {
		table.Append([]string{
			ni.Name, string(ni.Kind), colorState(string(ni.State)),
			ni.IPv4, ni.MAC, strconv.Itoa(ni.MTU), ni.Speed,
		})
	}
	table.Render()
}

func printPorts(ports []facts.ListeningPort) {
	fmt.Println("\nListening ports:")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"PORT", "PROTO", "STATE", "SERVICE", "PROCESS", "CONFIDENCE"})
	for _, p := range ports {
		table.Append([]string{
			strconv.Itoa(p.Port), string(p.Protocol), string(p.State),
			p.Service, p.Process, string(p.Confidence),
		})
	}
	table.Render()
}

func printFirewall(rules []facts.FirewallRule) {
	fmt.Println("\nFirewall rules:")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "CHAIN", "ACTION", "PROTO", "SOURCE", "DPORT", "DESCRIPTION"})
	for _, r := range rules {
		table.Append([]string{
			strconv.Itoa(r.ID), string(r.Chain), string(r.Action),
			string(r.Protocol), r.Source, r.DestinationPort, r.Description,
		})
	}
	table.Render()
}

func printVolumes(vols []facts.StorageVolume) {
	fmt.Println("\nStorage volumes:")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"NAME", "DEVICE", "MOUNT", "TOTAL", "USED%"})
	for _, v := range vols {
		usedPct := "n/a"
		if v.UsedPercent >= 0 {
			usedPct = strconv.Itoa(v.UsedPercent) + "%"
		}
		table.Append([]string{
			v.Name, v.Device, v.Mountpoint, humanBytes(v.TotalBytes), usedPct,
		})
	}
	table.Render()
}

func printUnits(units []facts.ComputeUnit) {
	fmt.Println("\nCompute units:")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"NAME", "KIND", "BACKEND", "STATUS", "CPU%", "MEM(MB)"})
	for _, u := range units {
		table.Append([]string{
			u.Name, string(u.Kind), u.Backend, colorState(string(u.Status)),
			fmt.Sprintf("%.1f", u.CPUPercent), strconv.FormatUint(u.MemoryMB, 10),
		})
	}
	table.Render()
}

func printLoad(load facts.HostLoad) {
	fmt.Printf("\nLoad: %.2f %.2f %.2f  cpus=%d  mem=%d/%dMB  uptime=%s\n",
		load.Load1, load.Load5, load.Load15, load.CPUCount,
		load.MemoryUsedMB, load.MemoryTotalMB,
		(time.Duration(load.UptimeSeconds) * time.Second).String())
}

func colorState(state string) string {
	switch state {
	case "up", "running":
		return color.GreenString(state)
	case "down", "stopped":
		return color.RedString(state)
	case "paused", "disconnected":
		return color.YellowString(state)
	default:
		return state
	}
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatUint(n, 10) + "B"
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}
