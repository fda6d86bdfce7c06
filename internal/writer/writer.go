package writer

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"isoburn/internal/command"
	"isoburn/internal/copier"
	"isoburn/internal/mount"
	"isoburn/internal/partition"
	"isoburn/internal/privilege"
	"isoburn/internal/prompt"
	"isoburn/internal/report"
	"isoburn/internal/validate"
)

// Guard is the privilege precondition.
type Guard interface {
	EnsureElevated() error
}

// Deps are the collaborators of a MediaWriter. Zero fields are filled with
// the real implementations by New.
type Deps struct {
	Runner   command.Runner
	Sink     report.Sink
	Prompter prompt.Prompter
	Guard    Guard
	Prober   validate.SpaceProber
	Mounts   mount.MountChecker
	// Sync flushes filesystem buffers after the copy; nil means unix.Sync.
	Sync func()
}

func (d Deps) withDefaults() Deps {
	if d.Runner == nil {
		d.Runner = command.NewExecRunner()
	}
	if d.Sink == nil {
		d.Sink = report.Nop{}
	}
	if d.Prompter == nil {
		d.Prompter = prompt.Static(false)
	}
	if d.Guard == nil {
		d.Guard = privilege.NewGuard()
	}
	if d.Prober == nil {
		d.Prober = validate.NewFilesystemProber(partition.NewInspector(d.Runner).Capacity)
	}
	if d.Mounts == nil {
		d.Mounts = mount.NewKernelMounts()
	}
	return d
}

// MediaWriter turns a partition into install media for an ISO image.
type MediaWriter struct {
	deps Deps
}

func New(deps Deps) *MediaWriter {
	return &MediaWriter{deps: deps.withDefaults()}
}

// Run performs one write: privilege check, validation, mount/format/mount,
// copy, unmount. Cancellation is honored between phases only; a started
// format or copy runs to completion or failure.
//
// Unmounts after a failure are best effort. Their errors are reported on the
// sink and logged but the original error is what Run returns.
func (w *MediaWriter) Run(ctx context.Context, req Request) (err error) {
	req = req.withDefaults()
	d := w.deps
	if req.Silent {
		d.Sink = report.Nop{}
	}
	logger := log.Ctx(ctx).With().Str("image", req.Image).Str("device", req.Device).Logger()
	ctx = logger.WithContext(ctx)

	if err := d.Guard.EnsureElevated(); err != nil {
		return err
	}

	orchestrator := mount.NewOrchestrator(d.Runner, d.Sink, d.Mounts)
	inspector := partition.NewInspector(d.Runner)
	validator := validate.New(inspector, d.Prober, d.Prompter, orchestrator).WithSink(d.Sink)
	if err := validator.Validate(ctx, req.Image, req.Device); err != nil {
		return err
	}

	if err := checkCanceled(ctx, "mounting"); err != nil {
		return err
	}
	if err := orchestrator.EnsureMountPoints(req.ImageMount, req.TargetMount); err != nil {
		return err
	}

	var imageMounted, targetMounted bool
	defer func() {
		if err == nil {
			return
		}
		// best-effort teardown, same order as the success path
		if imageMounted {
			w.cleanup(ctx, d.Sink, orchestrator, "unmounting image", req.ImageMount)
		}
		if targetMounted {
			w.cleanup(ctx, d.Sink, orchestrator, "unmounting "+req.Device, req.Device)
		}
	}()

	if err = orchestrator.MountImage(ctx, req.Image, req.ImageMount); err != nil {
		return err
	}
	imageMounted = true

	total, err := orchestrator.MeasureSize(ctx, req.ImageMount)
	if err != nil {
		return err
	}

	if err = checkCanceled(ctx, "formatting"); err != nil {
		return err
	}
	if err = orchestrator.FormatPartition(ctx, req.Device); err != nil {
		return err
	}
	if err = orchestrator.MountPartition(ctx, req.Device, req.TargetMount); err != nil {
		return err
	}
	targetMounted = true

	info, err := os.Stat(req.Image)
	if err != nil {
		return err
	}
	if err = validate.CheckSpace(ctx, d.Prober, req.Image, info.Size(), req.Device, req.TargetMount); err != nil {
		return err
	}

	if err = checkCanceled(ctx, "copying"); err != nil {
		return err
	}
	cp := copier.New(d.Sink)
	if d.Sync != nil {
		cp = cp.WithSync(d.Sync)
	}
	progress := &copier.Progress{Total: total}
	if err = cp.Copy(ctx, req.ImageMount, req.TargetMount, progress); err != nil {
		return err
	}
	logger.Debug().Int64("bytes", progress.Written).Msg("copy finished")

	// from here on failures are reported, not cleaned up twice
	imageMounted, targetMounted = false, false
	return multierr.Combine(
		orchestrator.UnmountAs(ctx, "unmounting image", req.ImageMount),
		orchestrator.UnmountAs(ctx, "unmounting "+req.Device, req.Device),
	)
}

func (w *MediaWriter) cleanup(ctx context.Context, sink report.Sink, o *mount.Orchestrator, description, target string) {
	// the run may have been canceled; teardown still has to happen
	if cerr := o.UnmountAs(context.WithoutCancel(ctx), description, target); cerr != nil {
		log.Ctx(ctx).Warn().Err(cerr).Str("target", target).Msg("cleanup failed")
		sink.Logf("cleanup: %s", cerr.Error())
	}
}
