package main

import (
	"context"
	"os"

	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/rs/zerolog/log"

	"isoburn/internal/command"
	"isoburn/internal/config"
	"isoburn/internal/logger"
	"isoburn/internal/privilege"
)

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		log.Warn().Err(err).Msg("using default configuration")
		cfg = config.Config{
			ImageMount:  config.DefaultImageMount,
			DeviceMount: config.DefaultDeviceMount,
			LogLevel:    config.DefaultLogLevel,
		}
	}
	logger.Configure(cfg.LogLevel)

	ctx, cancel := context.WithCancel(log.Logger.WithContext(context.Background()))

	runner := command.NewExecRunner()
	app := gtk.NewApplication("org.isoburn.gtk", gio.ApplicationFlagsNone)

	app.ConnectActivate(func() {
		win := gtk.NewApplicationWindow(app)
		win.SetTitle("isoburn")
		win.SetDefaultSize(640, 480)
		win.Connect("close-request", func() bool {
			cancel()
			return false
		})

		if err := privilege.NewGuard().EnsureElevated(); err != nil {
			permissionDialog(app, &win.Window, err)
			return
		}

		u := newUI(ctx, win, runner, cfg)
		u.showChooser()
		win.SetVisible(true)
	})

	code := app.Run(os.Args)
	cancel()
	os.Exit(code)
}
