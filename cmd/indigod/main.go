// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// indigod runs an instrument-control bus server: it reconciles a
// simulated hardware enumeration into devices and accepts TCP clients
// speaking the XML property-vector wire protocol.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"golang.org/x/time/rate"

	"github.com/kkretzschmar/indigo-go/bus"
	"github.com/kkretzschmar/indigo-go/cmd/indigod/simdriver"
	"github.com/kkretzschmar/indigo-go/colors"
	"github.com/kkretzschmar/indigo-go/device"
	"github.com/kkretzschmar/indigo-go/driver"
	"github.com/kkretzschmar/indigo-go/driver/fshotplug"
	"github.com/kkretzschmar/indigo-go/logging"
	"github.com/kkretzschmar/indigo-go/scheduler"
	"github.com/kkretzschmar/indigo-go/wire"
)

func main() {
	addr := flag.String("listen", ":7624", "address to listen on for client connections")
	watchDir := flag.String("watch-dir", "/dev/indigo", "directory of simulated hardware device nodes")
	verbose := flag.Bool("verbose", false, "enable fine-grained debug logging")
	clientRate := flag.Float64("client-notify-rate", 0, "per-client notifications/sec; 0 disables the limit")
	clientBurst := flag.Int("client-notify-burst", 50, "per-client notification burst allowance")
	flag.Parse()

	colors.LoadFromArgs(flag.Args())
	logging.SetVerbose(*verbose)

	var busOpts []bus.Option
	if *clientRate > 0 {
		busOpts = append(busOpts, bus.WithClientRateLimit(rate.Limit(*clientRate), *clientBurst))
	}
	b := bus.New(busOpts...)
	sched := scheduler.New()

	src := fshotplug.New(*watchDir, "camera", []string{"camera", "guider", "wheel"})
	mgr := driver.NewManager(b, simdriver.Opener{}, spawnFn(sched))

	if err := mgr.Reconcile(src); err != nil {
		logging.Log("indigod: initial hardware scan failed: %v", err)
	}
	src.RegisterHotplugCallback(func() {
		if err := mgr.Reconcile(src); err != nil {
			logging.Log("indigod: hotplug reconcile failed: %v", err)
		}
	})

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "indigod:", err)
		os.Exit(1)
	}
	logging.Log("indigod: listening on %s", *addr)

	var nextClientID int
	for {
		conn, err := ln.Accept()
		if err != nil {
			logging.Log("indigod: accept: %v", err)
			continue
		}
		nextClientID++
		id := fmt.Sprintf("client-%d", nextClientID)
		c := wire.NewClient(id, conn, b)
		go func() {
			defer conn.Close()
			if err := c.Serve(); err != nil {
				logging.Fine("indigod: %s disconnected: %v", id, err)
			}
		}()
	}
}

// spawnFn builds the role devices for one discovered hardware instance,
// sharing a single simulated handle across however many roles it
// advertises, and driving each device's CONNECTION property through the
// same shared acquire/release discipline a real vendor SDK wrapper uses.
func spawnFn(sched scheduler.Scheduler) driver.Spawn {
	return func(inst driver.Instance, shared *driver.Shared) []bus.Device {
		h, err := shared.Acquire()
		if err != nil {
			logging.Log("indigod: open %s: %v", inst.ID, err)
			return nil
		}

		hook := func(connect bool) error {
			if connect {
				_, err := shared.Acquire()
				return err
			}
			return shared.Release()
		}

		var devices []bus.Device
		for _, role := range inst.Roles {
			switch role {
			case "camera":
				cam, ok := h.(driver.CameraHandle)
				if !ok {
					continue
				}
				sink := func(buf []byte, width, height, bitsPerPixel int, isRaw bool, hint string) {
					logging.Log("indigod: %s delivered %s frame (%dx%d)", inst.ID, hint, width, height)
				}
				devices = append(devices, device.NewCCD(inst.ID+".ccd", cam, sched, sink, 1600, 1200, 16,
					device.WithConnectHook(hook), device.WithInfo("Simulated CCD")))
			case "guider":
				g, ok := h.(driver.GuiderHandle)
				if !ok {
					continue
				}
				devices = append(devices, device.NewGuider(inst.ID+".guider", g,
					device.WithConnectHook(hook), device.WithInfo("Simulated ST-4 Guider")))
			case "wheel":
				w, ok := h.(driver.WheelHandle)
				if !ok {
					continue
				}
				names := []string{"Luminance", "Red", "Green", "Blue", "Ha", "OIII", "SII", "Dark"}
				devices = append(devices, device.NewFilterWheel(inst.ID+".wheel", w, names,
					device.WithConnectHook(hook), device.WithInfo("Simulated Filter Wheel")))
			}
		}
		return devices
	}
}
