package main

import (
	"context"
	"fmt"

	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/rs/zerolog/log"

	"isoburn/internal/command"
	"isoburn/internal/config"
	"isoburn/internal/desktop"
	"isoburn/internal/partition"
	"isoburn/internal/report"
	"isoburn/internal/writer"
)

// ui owns the main window. All fields are touched on the GTK main loop only.
type ui struct {
	ctx       context.Context
	win       *gtk.ApplicationWindow
	runner    command.Runner
	cfg       config.Config
	inspector *partition.Inspector
	worker    *writer.Worker

	isoPath string
	device  string
	choices []desktop.Choice
}

func newUI(ctx context.Context, win *gtk.ApplicationWindow, runner command.Runner, cfg config.Config) *ui {
	return &ui{
		ctx:       ctx,
		win:       win,
		runner:    runner,
		cfg:       cfg,
		inspector: partition.NewInspector(runner),
		worker:    writer.NewWorker(writer.Deps{Runner: runner}, writer.DefaultEventBuffer),
	}
}

func (u *ui) loadChoices() []desktop.Choice {
	disks, err := u.inspector.ListUSBDisks()
	if err != nil {
		log.Ctx(u.ctx).Error().Err(err).Msg("failed to list USB disks")
	}
	return desktop.PartitionChoices(disks)
}

// showChooser puts the image and partition pickers in the window.
func (u *ui) showChooser() {
	writeBtn := gtk.NewButtonWithLabel("🔥 Write")
	writeBtn.SetSensitive(false)
	updateWriteBtn := func() {
		writeBtn.SetSensitive(u.isoPath != "" && u.device != "" && !u.worker.Running())
	}

	isoBtn := gtk.NewButtonWithLabel("💿 Select ISO")
	isoBtn.ConnectClicked(func() {
		dialog := gtk.NewFileDialog()
		dialog.SetTitle("Select ISO File")
		dialog.SetModal(true)

		// $HOME is root's when started through sudo or pkexec
		if home := desktop.NewHomes(u.runner).Directory(u.ctx); home != "" {
			dialog.SetInitialFolder(gio.NewFileForPath(home))
		}

		filter := gtk.NewFileFilter()
		filter.SetName("ISO files")
		filter.AddPattern("*.iso")
		filter.AddMIMEType("application/x-iso9660-image")
		dialog.SetDefaultFilter(filter)

		dialog.Open(u.ctx, &u.win.Window, func(res gio.AsyncResulter) {
			file, err := dialog.OpenFinish(res)
			if err != nil || file == nil {
				return
			}
			u.isoPath = file.Path()
			isoBtn.SetLabel("ISO: " + u.isoPath)
			updateWriteBtn()
		})
	})

	u.choices = u.loadChoices()
	dropdown := gtk.NewDropDown(gtk.NewStringList(desktop.Labels(u.choices)), nil)
	dropdown.SetSelected(0)
	dropdown.SetHExpand(true)
	dropdown.Connect("notify::selected", func() {
		u.device = desktop.Device(u.choices, int(dropdown.Selected()))
		updateWriteBtn()
	})

	refreshBtn := gtk.NewButtonWithLabel("⟳")
	refreshBtn.SetTooltipText("Refresh USB partition list")
	refreshBtn.SetHAlign(gtk.AlignStart)
	refreshBtn.SetVAlign(gtk.AlignCenter)
	refreshBtn.SetSizeRequest(40, 32)
	refreshBtn.ConnectClicked(func() {
		u.choices = u.loadChoices()
		dropdown.SetModel(gtk.NewStringList(desktop.Labels(u.choices)))
		dropdown.SetSelected(0)
		u.device = ""
		updateWriteBtn()
	})

	driveBox := gtk.NewBox(gtk.OrientationHorizontal, 5)
	driveBox.Append(dropdown)
	driveBox.Append(refreshBtn)

	writeBtn.ConnectClicked(func() {
		question := fmt.Sprintf("Everything on %s will be erased and replaced by the contents of\n%s\n\nAre you sure?",
			u.device, u.isoPath)
		confirmDialog(&u.win.Window, "Format Partition", question, "Erase and write", func(ok bool) {
			if ok {
				u.start()
			}
		})
	})

	logo := gtk.NewImageFromIconName("media-removable")
	logo.SetPixelSize(128)

	layout := gtk.NewBox(gtk.OrientationVertical, 10)
	layout.SetMarginTop(20)
	layout.SetMarginBottom(20)
	layout.SetMarginStart(20)
	layout.SetMarginEnd(20)
	layout.Append(logo)
	layout.Append(isoBtn)
	layout.Append(driveBox)
	layout.Append(writeBtn)
	u.win.SetChild(layout)
}

// start swaps in the progress view and hands the request to the worker.
func (u *ui) start() {
	req := writer.NewRequest(u.isoPath, u.device)
	if u.cfg.ImageMount != "" {
		req.ImageMount = u.cfg.ImageMount
	}
	if u.cfg.DeviceMount != "" {
		req.TargetMount = u.cfg.DeviceMount
	}
	events, err := u.worker.Start(u.ctx, req)
	if err != nil {
		errDialog(&u.win.Window, err.Error())
		return
	}

	content := gtk.NewBox(gtk.OrientationVertical, 20)
	content.SetMarginTop(30)
	content.SetMarginBottom(30)
	content.SetMarginStart(30)
	content.SetMarginEnd(30)
	content.SetHAlign(gtk.AlignCenter)
	content.SetVAlign(gtk.AlignCenter)

	progress := gtk.NewProgressBar()
	progress.SetHExpand(true)
	progress.SetMarginBottom(10)

	status := gtk.NewLabel("Starting...")
	status.SetMarginBottom(10)
	status.SetHAlign(gtk.AlignCenter)
	status.SetWrap(true)

	backBtn := gtk.NewButtonWithLabel("Write another")
	backBtn.SetSensitive(false)
	exitBtn := gtk.NewButtonWithLabel("Exit")
	exitBtn.SetSensitive(false)
	buttons := gtk.NewBox(gtk.OrientationHorizontal, 10)
	buttons.SetHAlign(gtk.AlignCenter)
	buttons.Append(backBtn)
	buttons.Append(exitBtn)

	content.Append(progress)
	content.Append(status)
	content.Append(buttons)
	u.win.SetChild(content)

	backBtn.ConnectClicked(func() {
		u.isoPath, u.device = "", ""
		u.showChooser()
	})
	exitBtn.ConnectClicked(func() {
		u.win.Close()
	})

	var state desktop.Status
	show := func(e report.Event) {
		if e.Kind == report.EventConfirm {
			confirmDialog(&u.win.Window, "System Disk", e.Message, "Continue", func(ok bool) {
				e.Reply <- ok
			})
			return
		}
		state.Apply(e)
		progress.SetFraction(state.Fraction)
		status.SetLabel(state.Text)
		if state.Finished {
			if state.ExitCode != 0 {
				log.Ctx(u.ctx).Error().Err(state.Err).Int("exit_code", state.ExitCode).Msg("write failed")
			}
			backBtn.SetSensitive(true)
			exitBtn.SetSensitive(true)
		}
	}

	go func() {
		var filter desktop.ProgressFilter
		for e := range events {
			if filter.Keep(e) {
				glib.IdleAdd(func() { show(e) })
			}
		}
	}()
}
