// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/geomag_logger/internal/app"
	"github.com/relabs-tech/geomag_logger/internal/config"
	"github.com/relabs-tech/geomag_logger/internal/sensors"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "configuration file")
	sim := flag.Bool("sim", false, "use a simulated magnetometer and an accelerated clock")
	simPause := flag.Duration("sim-pause", app.DefaultSimPause, "real time per simulated minute")
	dump := flag.String("dump", "", "print the samples of a day file and exit")
	regs := flag.Bool("regs", false, "print the magnetometer registers and exit")
	flag.Parse()

	if *dump != "" {
		if err := app.Dump(os.Stdout, *dump); err != nil {
			log.Fatalf("gmt: %v", err)
		}
		return
	}
	if *regs {
		os.Exit(dumpRegisters(*configPath))
	}

	log.Println("starting geomagnetic field logger")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.Run(ctx, app.Options{
		ConfigPath: *configPath,
		Sim:        *sim,
		SimPause:   *simPause,
	})
	stop()
	os.Exit(code)
}

func dumpRegisters(configPath string) int {
	cfg := app.LoadConfig(configPath)
	bus, err := sensors.OpenBus(cfg.Bus)
	if err != nil {
		log.Printf("gmt: %v", err)
		return app.ExitBusOpen
	}
	defer bus.Close()
	if err := app.DumpRegisters(os.Stdout, sensors.NewRegisterBus(bus), cfg.Variant().Addr); err != nil {
		log.Printf("gmt: %v", err)
		return app.ExitSetup
	}
	return app.ExitOK
}
