/*
 * onesmallstep - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	getopt "github.com/pborman/getopt/v2"

	reader "github.com/onesmallstep/agc/command/reader"
	config "github.com/onesmallstep/agc/config/configparser"
	core "github.com/onesmallstep/agc/core"
	peripherals "github.com/onesmallstep/agc/peripherals"
	rope "github.com/onesmallstep/agc/rope"
	logger "github.com/onesmallstep/agc/util/logger"

	_ "github.com/onesmallstep/agc/util/debug"
)

var Logger *slog.Logger

// Settings gathered from the config file before the CPU is constructed.
var (
	ropePath     string
	dskyAddr     string
	downruptAddr string
)

func init() {
	config.RegisterOption("ROPE", setRopePath)
	config.RegisterOption("DSKY", setDskyAddr)
	config.RegisterOption("DOWNRUPT", setDownruptAddr)
}

func setRopePath(_ uint16, value string, _ []config.Option) error {
	ropePath = value
	return nil
}

func setDskyAddr(_ uint16, value string, _ []config.Option) error {
	dskyAddr = value
	return nil
}

func setDownruptAddr(_ uint16, value string, _ []config.Option) error {
	downruptAddr = value
	return nil
}

// microsecondsPerMCT is the historical memory cycle time (spec.md 5's
// host pacing formula: expected MCTs = elapsed_microseconds / 11.7).
const microsecondsPerMCT = 11.7

func main() {
	optConfig := getopt.StringLong("config", 'c', "agc.cfg", "Configuration file")
	optRope := getopt.StringLong("rope", 'r', "", "Core rope image (overrides config file)")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if optLogFile != nil && *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	debugLog := false
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debugLog))
	slog.SetDefault(Logger)

	Logger.Info("onesmallstep started")

	if optConfig != nil && *optConfig != "" {
		if _, err := os.Stat(*optConfig); err == nil {
			if err := config.LoadConfigFile(*optConfig); err != nil {
				Logger.Error(err.Error())
				os.Exit(1)
			}
		}
	}

	if optRope != nil && *optRope != "" {
		ropePath = *optRope
	}
	if ropePath == "" {
		Logger.Error("no rope image specified: pass --rope or set ROPE in the config file")
		os.Exit(1)
	}

	program, err := rope.Load(ropePath)
	if err != nil {
		Logger.Error("failed to load rope image: " + err.Error())
		os.Exit(1)
	}

	cpu := core.New()
	cpu.LoadROM(program)

	dsky := peripherals.NewDSKY(dskyAddr)
	downrupt := peripherals.NewDownrupt(downruptAddr)
	cpu.SetPeripherals(dsky, downrupt)

	if err := dsky.Start(); err != nil {
		Logger.Error("failed to start DSKY transport: " + err.Error())
		os.Exit(1)
	}
	if err := downrupt.Start(); err != nil {
		Logger.Error("failed to start DOWNRUPT transport: " + err.Error())
		os.Exit(1)
	}

	shutdown := make(chan struct{})
	go runCPU(cpu, shutdown)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		Logger.Info("got quit signal")
		close(shutdown)
	}()

	reader.ConsoleReader(cpu)

	close(shutdown)
	Logger.Info("shutting down peripherals")
	dsky.Stop()
	downrupt.Stop()
	Logger.Info("stopped")
}

// runCPU paces Step() against the wall clock the way spec.md's host
// pacing sketch describes: convert elapsed real time to expected MCTs
// and run the CPU until it has caught up.
func runCPU(cpu *core.CPU, shutdown chan struct{}) {
	last := time.Now()
	var owed float64

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-shutdown:
			return
		case now := <-ticker.C:
			owed += float64(now.Sub(last).Microseconds()) / microsecondsPerMCT
			last = now
			for owed > 0 {
				owed -= float64(cpu.Step())
			}
		}
	}
}
