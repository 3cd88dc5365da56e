// Command xrbridge runs a Direct3D 12 application loop through the interop
// layer against a simulated Direct3D 11 OpenXR runtime. It also writes the
// layer manifest and registers it as an implicit layer.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xrlayers/interop"
	"github.com/xrlayers/interop/d3d"
	"github.com/xrlayers/interop/internal/sim"
)

func main() {
	var (
		frames     = flag.Int("frames", 90, "frames to submit")
		swapchains = flag.Int("swapchains", 2, "swapchains to create (one per eye)")
		images     = flag.Uint("images", 3, "images per swapchain")
		width      = flag.Uint("width", 1832, "swapchain width")
		height     = flag.Uint("height", 1920, "swapchain height")
		latency    = flag.Duration("latency", 0, "simulated GPU latency per signal")
		verbose    = flag.Bool("verbose", false, "log every intercepted call")
		config     = flag.String("config", "", "layer settings file (YAML)")
		manifest   = flag.String("manifest", "", "write the layer manifest to this file and exit")
		library    = flag.String("library", "XR_APILAYER_NOVENDOR_d3d12on11_interop.dll", "library_path recorded in the manifest")
		install    = flag.String("install", "", "register this manifest as an implicit layer and exit")
		uninstall  = flag.String("uninstall", "", "remove every implicit layer registration of this manifest and exit")
	)
	flag.Parse()

	if *install != "" {
		path, err := installManifest(*install)
		if err != nil {
			log.Fatalf("Failed to install layer: %v", err)
		}
		log.Printf("Layer registered: %s\n", path)
		return
	}
	if *uninstall != "" {
		if err := interop.UnregisterImplicitLayer(*uninstall); err != nil {
			log.Fatalf("Failed to uninstall layer: %v", err)
		}
		log.Printf("Layer unregistered: %s\n", *uninstall)
		return
	}

	if *manifest != "" {
		if err := writeManifest(*manifest, *library); err != nil {
			log.Fatalf("Failed to write manifest: %v", err)
		}
		log.Printf("Manifest written to %s\n", *manifest)
		return
	}

	settings, err := interop.LoadSettings(*config)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	level, _ := settings.Level()
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	interop.SetLogger(logger)
	sim.SetLogger(logger)

	machine := sim.NewMachine()
	rt := sim.NewRuntime(machine)
	rt.ImageCount = uint32(*images) //nolint:gosec // flag value

	opts := append(settings.Options(), interop.WithFactory(machine))
	loader := sim.NewLoader(interop.NewEntry(opts...), rt)
	if settings.LayerName != "" {
		loader.LayerName = settings.LayerName
	}

	cfg := demo{
		frames:     *frames,
		swapchains: *swapchains,
		width:      uint32(*width),  //nolint:gosec // flag value
		height:     uint32(*height), //nolint:gosec // flag value
		latency:    *latency,
	}
	start := time.Now()
	if err := cfg.run(loader, machine); err != nil {
		log.Fatalf("Demo failed: %v", err)
	}
	log.Printf("Submitted %d frames in %v\n", *frames, time.Since(start))
	log.Printf("%s\n", machine.Stats())
}

func writeManifest(path, library string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := interop.WriteManifest(f, interop.NewManifest(library)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// installManifest checks the manifest at path and registers its absolute
// path.
func installManifest(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	m, err := interop.ReadManifestFile(abs)
	if err != nil {
		return "", err
	}
	if m.ApiLayer.Name != interop.LayerName {
		return "", fmt.Errorf("manifest %s describes layer %q, not %q", abs, m.ApiLayer.Name, interop.LayerName)
	}
	return abs, interop.RegisterImplicitLayer(abs)
}

type demo struct {
	frames     int
	swapchains int
	width      uint32
	height     uint32
	latency    time.Duration
}

// run plays a D3D12 application: instance, system, session, swapchains,
// frames, teardown.
func (c demo) run(loader *sim.Loader, machine *sim.Machine) error {
	instance, r := loader.CreateInstance(&interop.InstanceCreateInfo{
		ApplicationInfo:       interop.ApplicationInfo{ApplicationName: "xrbridge", APIVersion: interop.MakeVersion(1, 0, 0)},
		EnabledExtensionNames: []string{interop.ExtensionD3D12Enable},
	})
	if err := r.Err(); err != nil {
		return fmt.Errorf("create instance: %w", err)
	}

	getSystem := sim.MustResolve[interop.GetSystemFunc](loader, interop.ProcGetSystem)
	getRequirements := sim.MustResolve[interop.GetD3D12GraphicsRequirementsFunc](loader, interop.ProcGetD3D12GraphicsRequirements)
	createSession := sim.MustResolve[interop.CreateSessionFunc](loader, interop.ProcCreateSession)
	destroySession := sim.MustResolve[interop.DestroySessionFunc](loader, interop.ProcDestroySession)
	createSwapchain := sim.MustResolve[interop.CreateSwapchainFunc](loader, interop.ProcCreateSwapchain)
	enumerate := sim.MustResolve[interop.EnumerateSwapchainImagesFunc](loader, interop.ProcEnumerateSwapchainImages)
	endFrame := sim.MustResolve[interop.EndFrameFunc](loader, interop.ProcEndFrame)
	destroyInstance := sim.MustResolve[interop.DestroyInstanceFunc](loader, interop.ProcDestroyInstance)

	system, r := getSystem(instance, &interop.SystemGetInfo{FormFactor: interop.FormFactorHeadMountedDisplay})
	if err := r.Err(); err != nil {
		return fmt.Errorf("get system: %w", err)
	}
	var reqs interop.GraphicsRequirementsD3D12
	if err := getRequirements(instance, system, &reqs).Err(); err != nil {
		return fmt.Errorf("get requirements: %w", err)
	}

	device, err := deviceOn(machine, reqs.AdapterLUID)
	if err != nil {
		return err
	}
	defer device.Release()
	queue := device.NewQueue()
	defer queue.Release()
	queue.SetLatency(c.latency)

	session, r := createSession(instance, &interop.SessionCreateInfo{
		SystemID: system,
		Next:     &interop.GraphicsBindingD3D12{Device: device, Queue: queue},
	})
	if err := r.Err(); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	for i := range c.swapchains {
		sc, r := createSwapchain(session, &interop.SwapchainCreateInfo{
			UsageFlags:  interop.SwapchainUsageColorAttachment | interop.SwapchainUsageSampled,
			Format:      int64(d3d.FormatR8G8B8A8UnormSRGB),
			SampleCount: 1,
			Width:       c.width,
			Height:      c.height,
			FaceCount:   1,
			ArraySize:   1,
			MipCount:    1,
		})
		if err := r.Err(); err != nil {
			return fmt.Errorf("create swapchain %d: %w", i, err)
		}
		var count uint32
		if err := enumerate(sc, 0, &count, nil).Err(); err != nil {
			return fmt.Errorf("count swapchain %d images: %w", i, err)
		}
		images := make([]interop.SwapchainImage, count)
		for j := range images {
			images[j] = &interop.SwapchainImageD3D12{}
		}
		if err := enumerate(sc, count, &count, images).Err(); err != nil {
			return fmt.Errorf("enumerate swapchain %d images: %w", i, err)
		}
	}

	for frame := range c.frames {
		if err := endFrame(session, &interop.FrameEndInfo{DisplayTime: int64(frame)}).Err(); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
	}

	if err := destroySession(session).Err(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	queue.Idle()
	if err := destroyInstance(instance).Err(); err != nil {
		return fmt.Errorf("destroy instance: %w", err)
	}
	return nil
}

func deviceOn(machine *sim.Machine, luid d3d.LUID) (*sim.Device12, error) {
	for i, a := range machine.Adapters() {
		if a.LUID == luid {
			return machine.NewD3D12Device(i)
		}
	}
	return nil, fmt.Errorf("no adapter with the runtime's LUID")
}
