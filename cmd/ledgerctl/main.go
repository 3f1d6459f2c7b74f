// Package main runs one ledgerctl command.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	ledgerctlcmd "github.com/louisbranch/challenge.space/internal/cmd/ledgerctl"
	"github.com/louisbranch/challenge.space/internal/platform/config"
)

func main() {
	flag.Usage = func() {
		flag.PrintDefaults()
		ledgerctlcmd.Usage(os.Stderr)
	}
	cfg, err := ledgerctlcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		flag.Usage()
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ledgerctlcmd.Run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		failure := ledgerctlcmd.Describe(err)
		stop()
		config.ExitCodef(failure.Code, "Error: %s", failure.Message)
	}
}
