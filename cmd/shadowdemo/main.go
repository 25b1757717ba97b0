// Command shadowdemo renders a shadow-mapped scene with an orbiting light,
// either in a window through OpenGL or headless through the software
// backend.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"shadow-engine/core"
	"shadow-engine/internal/opengl"
	"shadow-engine/internal/platform"
	"shadow-engine/internal/softgl"
	"shadow-engine/renderer"
	"shadow-engine/scene"
)

type options struct {
	configPath string
	dumpConfig string
	width      int
	height     int
	headless   bool
	frames     int
	out        string
	outWidth   int
	workers    int
	pcf        bool
	debug      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "scene JSON file (default: built-in scene)")
	flag.StringVar(&opts.dumpConfig, "dump-config", "", "write the effective scene JSON to this path and exit")
	flag.IntVar(&opts.width, "width", 0, "override the window width")
	flag.IntVar(&opts.height, "height", 0, "override the window height")
	flag.BoolVar(&opts.headless, "headless", false, "render with the software backend and write a PNG")
	flag.IntVar(&opts.frames, "frames", 1, "frames to render in headless mode")
	flag.StringVar(&opts.out, "out", "frame.png", "headless output PNG")
	flag.IntVar(&opts.outWidth, "out-width", 0, "scale the output PNG to this width")
	flag.IntVar(&opts.workers, "workers", 0, "software shading workers (0 = GOMAXPROCS)")
	flag.BoolVar(&opts.pcf, "pcf", false, "filter shadow lookups over 3x3 texels")
	flag.BoolVar(&opts.debug, "debug", false, "log per-frame diagnostics")
	flag.Parse()

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	core.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(opts); err != nil {
		core.Logger().Error("shadowdemo failed", "err", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if opts.dumpConfig != "" {
		return scene.SaveSceneConfig(opts.dumpConfig, cfg)
	}

	s, err := scene.NewSceneFromConfig(cfg)
	if err != nil {
		return err
	}
	pipeCfg, err := renderer.ConfigFromScene(cfg)
	if err != nil {
		return err
	}
	if opts.headless {
		return runHeadless(opts, cfg, s, pipeCfg)
	}
	return runWindowed(cfg, s, pipeCfg)
}

func loadConfig(opts options) (*scene.SceneConfig, error) {
	cfg := scene.DefaultSceneConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = scene.LoadSceneConfig(opts.configPath); err != nil {
			return nil, err
		}
	}
	if opts.width > 0 {
		cfg.Width = opts.width
	}
	if opts.height > 0 {
		cfg.Height = opts.height
	}
	if opts.pcf {
		cfg.Shadow.PCF = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runHeadless(opts options, cfg *scene.SceneConfig, s *scene.Scene, pipeCfg renderer.Config) error {
	if opts.frames < 1 {
		return errors.New("-frames must be at least 1")
	}
	b, err := softgl.New(softgl.Options{
		Width:         cfg.Width,
		Height:        cfg.Height,
		ShadowMapSize: pipeCfg.ShadowMapSize,
		Workers:       opts.workers,
	})
	if err != nil {
		return err
	}
	r, err := renderer.New(b, s, pipeCfg)
	if err != nil {
		b.Release()
		return err
	}
	defer r.Release()

	start := time.Now()
	for i := 0; i < opts.frames; i++ {
		if err := r.RenderFrame(); err != nil {
			return err
		}
		if i < opts.frames-1 {
			r.Advance()
		}
	}
	core.Logger().Info("headless render done",
		"frames", opts.frames, "elapsed", time.Since(start), "stats", fmt.Sprintf("%+v", r.Stats()))
	return b.WritePNG(opts.out, opts.outWidth)
}

func runWindowed(cfg *scene.SceneConfig, s *scene.Scene, pipeCfg renderer.Config) error {
	wc := platform.DefaultWindowConfig()
	wc.Width, wc.Height = cfg.Width, cfg.Height
	if cfg.Name != "" {
		wc.Title = cfg.Name
	}
	win, err := platform.NewWindow(wc)
	if err != nil {
		return err
	}
	defer win.Destroy()

	b, err := opengl.NewRenderer(opengl.Options{
		Width:         win.Width,
		Height:        win.Height,
		ShadowMapSize: pipeCfg.ShadowMapSize,
	})
	if err != nil {
		return err
	}
	r, err := renderer.New(b, s, pipeCfg)
	if err != nil {
		b.Release()
		return err
	}
	// objects hold GL buffers, release them while the context is alive
	defer r.Release()
	r.Resize(win.Width, win.Height)

	installControls(win, r)

	for !win.ShouldClose() {
		win.PollEvents()
		if err := r.RenderFrame(); err != nil {
			return err
		}
		win.SwapBuffers()
		r.Advance()
	}
	return nil
}
