package main

import (
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// dialogBox returns a modal dialog with a padded vertical box in it.
func dialogBox(parent *gtk.Window, title string) (*gtk.Dialog, *gtk.Box) {
	dialog := gtk.NewDialog()
	dialog.SetTitle(title)
	dialog.SetTransientFor(parent)
	dialog.SetModal(true)

	box := gtk.NewBox(gtk.OrientationVertical, 10)
	box.SetMarginTop(20)
	box.SetMarginBottom(20)
	box.SetMarginStart(20)
	box.SetMarginEnd(20)
	dialog.ContentArea().Append(box)
	return dialog, box
}

func buttonRow(buttons ...*gtk.Button) *gtk.Box {
	row := gtk.NewBox(gtk.OrientationHorizontal, 10)
	row.SetMarginTop(20)
	row.SetMarginBottom(20)
	row.SetMarginStart(20)
	row.SetMarginEnd(20)
	row.SetHAlign(gtk.AlignCenter)
	for _, b := range buttons {
		b.SetMarginTop(10)
		b.SetMarginBottom(10)
		b.SetMarginStart(20)
		b.SetMarginEnd(20)
		row.Append(b)
	}
	return row
}

func icon(name string) *gtk.Image {
	img := gtk.NewImageFromIconName(name)
	img.SetPixelSize(48)
	img.SetMarginBottom(10)
	img.SetHAlign(gtk.AlignCenter)
	return img
}

func wrappedLabel(text string, align gtk.Align) *gtk.Label {
	label := gtk.NewLabel(text)
	label.SetHAlign(align)
	label.SetWrap(true)
	return label
}

// permissionDialog explains that root is needed and quits the application
// when dismissed.
func permissionDialog(app *gtk.Application, parent *gtk.Window, err error) {
	dialog, box := dialogBox(parent, "Elevated Permissions Required")
	box.Append(icon("dialog-warning"))
	box.Append(wrappedLabel("This application requires elevated permissions to format USB partitions.", gtk.AlignCenter))
	box.Append(wrappedLabel("Error: "+err.Error()+"\nPlease run it with sudo or pkexec.", gtk.AlignCenter))

	exitBtn := gtk.NewButtonWithLabel("Exit")
	exitBtn.SetCSSClasses([]string{"suggested-action"})
	dialog.ContentArea().Append(buttonRow(exitBtn))

	exitBtn.ConnectClicked(func() {
		app.Quit()
	})
	dialog.Connect("close-request", func() bool {
		app.Quit()
		return false
	})
	dialog.SetVisible(true)
}

// confirmDialog asks a yes/no question. answer is called exactly once; closing
// the dialog counts as no.
func confirmDialog(parent *gtk.Window, title, question, okLabel string, answer func(bool)) {
	dialog, box := dialogBox(parent, title)
	box.Append(icon("dialog-warning"))
	box.Append(wrappedLabel(question, gtk.AlignStart))

	cancelBtn := gtk.NewButtonWithLabel("Cancel")
	okBtn := gtk.NewButtonWithLabel(okLabel)
	okBtn.SetCSSClasses([]string{"destructive-action"})
	dialog.ContentArea().Append(buttonRow(cancelBtn, okBtn))

	answered := false
	reply := func(ok bool) {
		if answered {
			return
		}
		answered = true
		answer(ok)
	}

	cancelBtn.ConnectClicked(func() {
		reply(false)
		dialog.Destroy()
	})
	okBtn.ConnectClicked(func() {
		reply(true)
		dialog.Destroy()
	})
	dialog.Connect("close-request", func() bool {
		reply(false)
		return false
	})
	dialog.SetVisible(true)
}

func errDialog(parent *gtk.Window, message string) {
	dialog, box := dialogBox(parent, "Error")
	box.Append(icon("dialog-error"))
	box.Append(wrappedLabel(message, gtk.AlignCenter))

	closeBtn := gtk.NewButtonWithLabel("Close")
	closeBtn.SetCSSClasses([]string{"suggested-action"})
	dialog.ContentArea().Append(buttonRow(closeBtn))

	closeBtn.ConnectClicked(func() {
		dialog.Destroy()
	})
	dialog.SetVisible(true)
}
