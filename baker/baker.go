// Package baker runs the animation baking pipeline: for every configured
// animation it loads the model, copies the animation onto the model's
// armature, bakes it per frame and exports the result.
package baker

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/binzume/animbake/scene"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LockPath returns the temp dir lock file guarding an output directory.
func LockPath(outDir string) string {
	if abs, err := filepath.Abs(outDir); err == nil {
		outDir = abs
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(outDir)))
	return filepath.Join(os.TempDir(), "animbake-"+id.String()+".lock")
}

var (
	ErrLocked      = errors.New("another bake is running on the output directory")
	errNoArmature  = errors.New("no armature")
	errMissingFile = errors.New("file not found")
)

// bakeOptions keys the visual pose of every bone into the current action.
var bakeOptions = scene.BakeOptions{
	OnlySelected:     true,
	VisualKeying:     true,
	ClearConstraints: false,
	UseCurrentAction: true,
	Types:            scene.BakePose,
}

type Status int

const (
	StatusDone Status = iota
	StatusImportFailed
	StatusNoCharacterArmature
	StatusMissingFile
	StatusNoAnimationArmature
	StatusNoAnimationData
	StatusTransferFailed
	StatusBakeFailed
	StatusExportFailed
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusImportFailed:
		return "import failed"
	case StatusNoCharacterArmature:
		return "no model armature"
	case StatusMissingFile:
		return "file not found"
	case StatusNoAnimationArmature:
		return "no animation armature"
	case StatusNoAnimationData:
		return "no animation data"
	case StatusTransferFailed:
		return "transfer failed"
	case StatusBakeFailed:
		return "bake failed"
	case StatusExportFailed:
		return "export failed"
	}
	return "unknown"
}

type Result struct {
	Entry      Entry
	Status     Status
	Err        error
	FrameStart float64
	FrameEnd   float64
	Frames     int
	OutputPath string
}

func (r *Result) fail(status Status, err error) *Result {
	r.Status = status
	r.Err = err
	return r
}

type Baker struct {
	cfg    *Config
	scene  *scene.Scene
	out    io.Writer
	logger *zap.Logger
}

type Option func(*Baker)

// WithOutput sets the writer for progress output. Default: os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(b *Baker) {
		b.out = w
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(b *Baker) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func New(cfg *Config, opts ...Option) *Baker {
	b := &Baker{cfg: cfg, out: os.Stdout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(zap.String("run", uuid.NewString()))
	b.scene = scene.New(scene.WithLogger(b.logger), scene.WithFrameRate(cfg.FrameRate))
	return b
}

func (b *Baker) printf(format string, a ...interface{}) {
	fmt.Fprintf(b.out, format, a...)
}

const rule = "=================================================="

// Run processes every configured animation. Failed entries are reported and
// skipped; an error is returned only when the run cannot start.
func (b *Baker) Run() ([]*Result, error) {
	outDir := b.cfg.OutputDirectory()
	lock := flock.New(LockPath(outDir))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			b.logger.Warn("failed to release lock", zap.Error(err))
		}
	}()
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	b.printf("\n%s\n%s Animation Baker\n%s\n", rule, b.cfg.Label, rule)

	var results []*Result
	for _, e := range b.cfg.Animations {
		r := b.Process(e)
		if r.Err != nil {
			b.logger.Warn("animation skipped", zap.String("animation", e.Name), zap.Stringer("status", r.Status), zap.Error(r.Err))
		} else {
			b.logger.Info("animation baked", zap.String("animation", e.Name), zap.String("output", r.OutputPath), zap.Int("frames", r.Frames))
		}
		results = append(results, r)
	}

	b.printf("\n%s\nAnimation baking complete!\nOutput files are in: %s\n%s\n\n", rule, outDir, rule)
	return results, nil
}

// Process bakes a single animation. The scene is reset first, so a failed
// entry never affects the next one.
func (b *Baker) Process(e Entry) *Result {
	r := &Result{Entry: e}
	s := b.scene
	b.printf("\nProcessing: %s (%s)\n", e.Name, e.File)

	s.Reset()

	b.printf("  Loading %s model...\n", b.cfg.Label)
	modelObjs, err := s.Import(b.cfg.ModelFile())
	if err != nil {
		b.printf("  ERROR: Failed to load %s: %v\n", b.cfg.ModelFile(), err)
		return r.fail(StatusImportFailed, err)
	}
	armature := scene.FindArmature(modelObjs)
	meshes := scene.FindMeshes(modelObjs)
	if armature == nil {
		b.printf("  ERROR: No armature found in %s model!\n", b.cfg.Label)
		return r.fail(StatusNoCharacterArmature, errNoArmature)
	}
	b.printf("  Found armature: %s\n", armature.Name)
	b.printf("  Found %d meshes\n", len(meshes))

	animPath := b.cfg.AnimationFile(e)
	if _, err := os.Stat(animPath); err != nil {
		b.printf("  ERROR: Animation file not found: %s\n", animPath)
		return r.fail(StatusMissingFile, fmt.Errorf("%s: %w", animPath, errMissingFile))
	}

	b.printf("  Loading animation...\n")
	animObjs, err := s.Import(animPath)
	if err != nil {
		b.printf("  ERROR: Failed to load %s: %v\n", animPath, err)
		return r.fail(StatusImportFailed, err)
	}
	animArmature := scene.FindArmature(animObjs)
	if animArmature == nil {
		b.printf("  ERROR: No armature found in animation file!\n")
		return r.fail(StatusNoAnimationArmature, errNoArmature)
	}

	action := animArmature.ActiveAction()
	if action == nil {
		b.printf("  ERROR: No animation data found!\n")
		return r.fail(StatusNoAnimationData, scene.ErrNoAnimationData)
	}
	r.FrameStart, r.FrameEnd = action.FrameRange()
	b.printf("  Animation frames: %s to %s\n", formatFrame(r.FrameStart), formatFrame(r.FrameEnd))

	b.printf("  Retargeting animation...\n")
	if err := s.TransferAction(animArmature, armature); err != nil {
		b.printf("  No animation found in source\n")
		return r.fail(StatusTransferFailed, err)
	}

	for _, obj := range animObjs {
		s.Remove(obj)
	}

	b.printf("  Baking animation...\n")
	if err := b.bake(armature, r.FrameStart, r.FrameEnd); err != nil {
		b.printf("  ERROR: Bake failed: %v\n", err)
		return r.fail(StatusBakeFailed, err)
	}
	r.Frames = int(r.FrameEnd) - int(r.FrameStart) + 1

	r.OutputPath = b.cfg.OutputFile(e)
	b.printf("  Exporting to: %s\n", r.OutputPath)
	err = s.Export(r.OutputPath, scene.ExportOptions{
		Animations:             b.cfg.ExportAnimations,
		Skins:                  b.cfg.ExportSkins,
		TextureResolutionLimit: b.cfg.TextureResolutionLimit,
	})
	if err != nil {
		b.printf("  ERROR: Export failed: %v\n", err)
		return r.fail(StatusExportFailed, err)
	}

	b.printf("  ✓ Done!\n")
	return r
}

func (b *Baker) bake(armature *scene.Object, start, end float64) error {
	s := b.scene
	s.SetActive(armature)
	s.Select(armature, true)

	if err := s.SetMode(scene.ModePose); err != nil {
		return err
	}
	if err := s.SelectAllBones(); err != nil {
		return err
	}
	err := s.Bake(armature, start, end, bakeOptions)
	if merr := s.SetMode(scene.ModeObject); err == nil {
		err = merr
	}
	return err
}

// formatFrame prints integral frames with a trailing ".0".
func formatFrame(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".nN") {
		s += ".0"
	}
	return s
}
