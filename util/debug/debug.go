/*
 * onesmallstep - Log debug data to a file
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

// Package debug writes Debugf messages to an optional debug file, gated
// by a per-category bitmask (watchdog trips, decode faults, bank
// violations) instead of S/370's per-device mask. The CORE does not call
// it; the CORE reports its errors through the callback installed with
// CPU.SetErrorLog.
package debug

import (
	"errors"
	"fmt"
	"os"
	"strings"

	config "github.com/onesmallstep/agc/config/configparser"
)

// Category flags, one bit per error-log source named in the CORE's
// operating contract.
const (
	Nightwatchman = 1 << iota
	TCTrap
	RuptLock
	Decode
	BankViolation
	All = Nightwatchman | TCTrap | RuptLock | Decode | BankViolation
)

var categoryNames = map[string]int{
	"NIGHTWATCHMAN": Nightwatchman,
	"TCTRAP":        TCTrap,
	"RUPTLOCK":      RuptLock,
	"DECODE":        Decode,
	"BANK":          BankViolation,
	"ALL":           All,
}

var (
	logFile *os.File
	enabled int
)

// Enable turns on logging for the named category. Matches the teacher's
// cpu.Debug/ch.Debug/tape.Debug per-subsystem toggle functions, collapsed
// to the one set of categories the CORE actually reports.
func Enable(name string) error {
	flag, ok := categoryNames[strings.ToUpper(name)]
	if !ok {
		return errors.New("unknown debug category: " + name)
	}
	enabled |= flag
	return nil
}

// Debugf emits a log line for category if both a debug file has been
// configured and the category is enabled.
func Debugf(category int, format string, a ...interface{}) {
	if logFile == nil || enabled&category == 0 {
		return
	}
	fmt.Fprintf(logFile, format+"\n", a...)
}

func init() {
	config.RegisterOption("DEBUGFILE", createFile)
	config.RegisterModel("DEBUG", config.TypeOptions, setCategories)
}

func createFile(_ uint16, fileName string, _ []config.Option) error {
	if logFile != nil {
		return fmt.Errorf("can't have more than one debug file, previous: %s", logFile.Name())
	}

	file, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("unable to create debug file: %s", fileName)
	}

	logFile = file
	return nil
}

func setCategories(_ uint16, first string, options []config.Option) error {
	if err := Enable(first); err != nil {
		return err
	}
	for _, opt := range options {
		if err := Enable(opt.Name); err != nil {
			return err
		}
	}
	return nil
}
