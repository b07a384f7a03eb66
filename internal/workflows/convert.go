package workflows

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/tendant/simple-image-manip/internal/config"
	"github.com/tendant/simple-image-manip/internal/storage"
	"github.com/tendant/simple-image-manip/internal/transform"
)

// ImageSource reads input images
type ImageSource interface {
	GetReader(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	GetMetadata(ctx context.Context, key string) (*storage.Metadata, error)
}

// OutputWriter stores converted images
type OutputWriter interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Exists(ctx context.Context, key string) (bool, error)
	Path(key string) string
}

// Namer picks the output file name for an input path
type Namer interface {
	NextName(inputPath string) string
}

// Option configures a ConvertWorkflow
type Option func(*ConvertWorkflow)

// WithJPEGQuality sets the JPEG encoder quality (1-100)
func WithJPEGQuality(quality int) Option {
	return func(w *ConvertWorkflow) {
		w.encodeOpts = append(w.encodeOpts, imaging.JPEGQuality(quality))
	}
}

// ConvertWorkflow decodes one image, applies the configured transforms and
// writes the result under a fresh name
type ConvertWorkflow struct {
	cfg        config.Config
	source     ImageSource
	output     OutputWriter
	namer      Namer
	pipeline   *transform.Pipeline
	format     imaging.Format
	encodeOpts []imaging.EncodeOption
}

// NewConvertWorkflow creates a conversion workflow for cfg. It fails when the
// configured extension has no encoder.
func NewConvertWorkflow(cfg config.Config, source ImageSource, output OutputWriter, namer Namer, opts ...Option) (*ConvertWorkflow, error) {
	format, err := imaging.FormatFromExtension(cfg.Extension)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, cfg.Extension)
	}

	w := &ConvertWorkflow{
		cfg:      cfg,
		source:   source,
		output:   output,
		namer:    namer,
		pipeline: transform.New(),
		format:   format,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Name returns the workflow name
func (w *ConvertWorkflow) Name() string {
	return "ConvertWorkflow"
}

// Config returns the settings the workflow applies
func (w *ConvertWorkflow) Config() config.Config {
	return w.cfg
}

// Execute runs the conversion for wctx.Item
func (w *ConvertWorkflow) Execute(wctx *WorkflowContext) (*WorkflowResult, error) {
	inputPath := wctx.Item.InputPath
	log.Printf("[%s] Converting %s", wctx.RunID, inputPath)

	// Step 1: Validate request
	if strings.TrimSpace(inputPath) == "" {
		return w.fail(wctx, fmt.Errorf("%w: input path is empty", ErrInvalidRequest))
	}

	// Step 2: Check if source exists
	exists, err := w.source.Exists(wctx.Ctx, inputPath)
	if err != nil {
		return w.fail(wctx, fmt.Errorf("source check failed: %w", err))
	}
	if !exists {
		return w.fail(wctx, fmt.Errorf("%w: %s", ErrSourceNotFound, inputPath))
	}

	meta, err := w.source.GetMetadata(wctx.Ctx, inputPath)
	if err != nil {
		return w.fail(wctx, fmt.Errorf("%w: %w", ErrSourceRead, err))
	}
	if meta.Size == 0 {
		return w.fail(wctx, fmt.Errorf("%w: %s", ErrEmptyInput, inputPath))
	}
	logSource(wctx.RunID, meta)

	// Step 3: Open and decode
	reader, err := w.source.GetReader(wctx.Ctx, inputPath)
	if err != nil {
		return w.fail(wctx, fmt.Errorf("%w: %w", ErrSourceRead, err))
	}
	img, err := imaging.Decode(reader)
	reader.Close()
	if err != nil {
		return w.fail(wctx, fmt.Errorf("%w: %w", ErrDecode, err))
	}
	bounds := img.Bounds()
	log.Printf("[%s] Decoded %dx%d", wctx.RunID, bounds.Dx(), bounds.Dy())

	// Step 4: Transform
	steps := transform.Plan(w.cfg, bounds)
	out := w.pipeline.Run(img, steps)
	if len(steps) > 0 {
		log.Printf("[%s] Applied %s", wctx.RunID, joinSteps(steps))
	}

	// Step 5: Name the output
	name := w.namer.NextName(inputPath)
	if taken, err := w.output.Exists(wctx.Ctx, name); err != nil {
		return w.fail(wctx, fmt.Errorf("%w: %w", ErrWrite, err))
	} else if taken {
		log.Printf("[%s] Overwriting existing output %s", wctx.RunID, name)
	}

	// Step 6: Encode and write
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, w.format, w.encodeOpts...); err != nil {
		return w.fail(wctx, fmt.Errorf("%w: %w", ErrEncode, err))
	}
	if err := w.output.Put(wctx.Ctx, name, &buf); err != nil {
		return w.fail(wctx, fmt.Errorf("%w: %w", ErrWrite, err))
	}

	outputPath := w.output.Path(name)
	width, height := out.Bounds().Dx(), out.Bounds().Dy()
	log.Printf("[%s] ✓ Saved %s (%dx%d)", wctx.RunID, outputPath, width, height)

	return &WorkflowResult{
		Success: true,
		Outputs: map[string]string{
			"input_path":  inputPath,
			"output_path": outputPath,
			"width":       strconv.Itoa(width),
			"height":      strconv.Itoa(height),
			"steps":       joinSteps(steps),
		},
	}, nil
}

func (w *ConvertWorkflow) fail(wctx *WorkflowContext, err error) (*WorkflowResult, error) {
	log.Printf("[%s] Conversion failed: %v", wctx.RunID, err)
	return &WorkflowResult{
		Success: false,
		Error:   err.Error(),
		Outputs: map[string]string{
			"input_path": wctx.Item.InputPath,
		},
	}, err
}

func logSource(runID string, meta *storage.Metadata) {
	size := "unknown size"
	if meta.Size > 0 {
		size = fmt.Sprintf("%d bytes", meta.Size)
	}
	switch {
	case meta.ETag != "":
		log.Printf("[%s] Source: %s, %s, etag %s", runID, size, meta.ContentType, meta.ETag)
	case meta.ContentType != "":
		log.Printf("[%s] Source: %s, %s", runID, size, meta.ContentType)
	default:
		log.Printf("[%s] Source: %s", runID, size)
	}
}

func joinSteps(steps []transform.Step) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}
