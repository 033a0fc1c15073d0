// Command woltest waits for a Wake-on-LAN magic packet on an interface and
// reports who sent it and which address it targets. With --send it emits a
// single packet instead, for testing a woltest listening elsewhere.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/PieterD/wake"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := command(os.Stdout).Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed: %+v\n", err)
		os.Exit(1)
	}
}

func command(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:        "woltest",
		Usage:       "wait for or send a Wake-on-LAN packet",
		Writer:      w,
		HideVersion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "iface",
				Usage: "interface to listen on",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "list the available interfaces",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "UDP port to listen on or send to",
				Value: wake.DefaultPort,
			},
			&cli.StringFlag{
				Name:  "send",
				Usage: "send one packet for hardware address `ADDR` and exit",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "destination `IP` for --send",
				Value: wake.DefaultDestination.Addr().String(),
			},
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("list") {
				return listInterfaces(w)
			}
			if hwStr := cmd.String("send"); hwStr != "" {
				return send(ctx, w, hwStr, cmd.String("to"), cmd.Int("port"))
			}
			ifaceName := cmd.String("iface")
			if ifaceName == "" {
				_ = cli.ShowRootCommandHelp(cmd)
				return errors.New("--iface, --send or --list is required")
			}
			got, err := wake.Wait(ctx, ifaceName, cmd.Int("port"))
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "WOL packet for %s received from %s\n", got.Target, got.From)
			return nil
		},
	}
}

func send(ctx context.Context, w io.Writer, hwStr, to string, port int) error {
	ip, err := netip.ParseAddr(to)
	if err != nil {
		return errors.Wrapf(err, "failed to parse IP address '%s'", to)
	}
	if port <= 0 || port > 0xFFFF {
		return errors.Errorf("invalid port %d", port)
	}
	dest := netip.AddrPortFrom(ip, uint16(port))
	if err := wake.Send(ctx, hwStr, wake.WithDestination(dest)); err != nil {
		return err
	}
	fmt.Fprintf(w, "WOL packet for %s sent to %s\n", hwStr, dest)
	return nil
}

func listInterfaces(w io.Writer) error {
	ifaces, err := net.Interfaces()
	if err != nil {
		return errors.Wrapf(err, "failed to list interfaces")
	}
	longestName := 0
	for _, iface := range ifaces {
		if len(iface.Name) > longestName {
			longestName = len(iface.Name)
		}
	}
	for _, iface := range ifaces {
		fmt.Fprintf(w, "%-*s", longestName, iface.Name)
		if len(iface.HardwareAddr) == len(wake.HardwareAddr{}) {
			var hw wake.HardwareAddr
			copy(hw[:], iface.HardwareAddr)
			fmt.Fprintf(w, " [%s]", hw)
		} else if iface.HardwareAddr != nil {
			fmt.Fprintf(w, " [%s]", iface.HardwareAddr)
		}
		fmt.Fprintf(w, "\n")
		addrs, err := iface.Addrs()
		if err != nil {
			return errors.Wrapf(err, "failed to fetch addresses for interface '%s'", iface.Name)
		}
		for _, addr := range addrs {
			fmt.Fprintf(w, "  %s: %s\n", addr.Network(), addr)
		}
		fmt.Fprintf(w, "\n")
	}
	return nil
}
