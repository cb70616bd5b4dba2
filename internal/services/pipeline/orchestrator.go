package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/imgres/internal/models"
	"github.com/phambaophuc/imgres/pkg/utils"
	"go.uber.org/zap"
)

type Resampler interface {
	Resize(img image.Image, format models.ImageFormat, scale float32) ([]byte, error)
	Encode(img image.Image, format models.ImageFormat) ([]byte, error)
}

type Upscaler interface {
	Upscale(ctx context.Context, imageURL string, scale float32) ([]byte, error)
}

type Stager interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, error)
}

type CreditLedger interface {
	Balance(ctx context.Context, identity string) (int64, error)
	Debit(ctx context.Context, identity string, units int64) error
}

type UsageNotifier interface {
	PublishUsage(ctx context.Context, event models.UsageEvent) error
}

// Orchestrator turns a validated resize request into a zip archive of all
// its variants. It is shared by all requests; every call keeps its own
// staging reference and archive.
type Orchestrator struct {
	resampler Resampler
	upscaler  Upscaler
	stager    Stager
	ledger    CreditLedger
	notifier  UsageNotifier
	tempDir   string
	logger    *zap.Logger
}

type Option func(*Orchestrator)

// WithUsageNotifier publishes a usage event after every successful debit.
func WithUsageNotifier(n UsageNotifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

func NewOrchestrator(
	resampler Resampler,
	upscaler Upscaler,
	stager Stager,
	ledger CreditLedger,
	tempDir string,
	logger *zap.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		resampler: resampler,
		upscaler:  upscaler,
		stager:    stager,
		ledger:    ledger,
		tempDir:   tempDir,
		logger:    logger,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Process produces every variant of req in order and returns the archive
// bytes. account may be nil, in which case no credits are checked or
// charged. Credits are debited only after every variant succeeded.
func (o *Orchestrator) Process(ctx context.Context, req *models.ResizeRequest, account *models.CreditAccount) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	imageURL, aiCount, err := o.stage(ctx, req)
	if err != nil {
		return nil, err
	}

	charged := aiCount > 0 && account != nil
	if charged {
		if err := o.checkBalance(ctx, account); err != nil {
			return nil, err
		}
	}

	data, err := o.buildArchive(ctx, req, imageURL)
	if err != nil {
		return nil, err
	}

	if charged {
		if err := o.ledger.Debit(ctx, account.Identity, int64(aiCount)); err != nil {
			o.logger.Error("Failed to debit credits after processing",
				zap.String("identity", account.Identity),
				zap.Int("units", aiCount),
				zap.Error(err),
			)
			return nil, fmt.Errorf("failed to debit %d credits: %w", aiCount, err)
		}
		o.publishUsage(ctx, account, len(req.Variants), aiCount)
	}

	return data, nil
}

// stage uploads the source image once if any variant uses the upscaler and
// counts those variants.
func (o *Orchestrator) stage(ctx context.Context, req *models.ResizeRequest) (string, int, error) {
	var imageURL string
	aiCount := 0

	for _, v := range req.Variants {
		if !v.UseAI {
			continue
		}
		aiCount++

		if imageURL != "" {
			continue
		}

		source, err := o.resampler.Encode(req.Image, req.TargetFormat)
		if err != nil {
			o.logger.Error("Failed to encode source for staging", zap.Stringer("format", req.TargetFormat), zap.Error(err))
			return "", 0, err
		}

		filename := utils.GenerateFilename(req.TargetFormat.Extension())
		imageURL, err = o.stager.Upload(ctx, source, filename, req.TargetFormat.MimeType())
		if err != nil {
			return "", 0, err
		}

		o.logger.Info("Source image staged", zap.String("filename", filename), zap.String("url", imageURL))
	}

	return imageURL, aiCount, nil
}

func (o *Orchestrator) checkBalance(ctx context.Context, account *models.CreditAccount) error {
	balance, err := o.ledger.Balance(ctx, account.Identity)
	if err != nil {
		o.logger.Error("Failed to read credit balance", zap.String("identity", account.Identity), zap.Error(err))
		return err
	}

	if balance <= 0 {
		return fmt.Errorf("%w: balance is %d", models.ErrInsufficientCredit, balance)
	}

	return nil
}

func (o *Orchestrator) buildArchive(ctx context.Context, req *models.ResizeRequest, imageURL string) ([]byte, error) {
	archive, err := NewArchive(o.tempDir, o.logger)
	if err != nil {
		o.logger.Error("Failed to create archive", zap.Error(err))
		return nil, err
	}
	defer archive.Close()

	for i, v := range req.Variants {
		out, err := o.produce(ctx, req, v, imageURL)
		if err != nil {
			o.logger.Error("Variant failed",
				zap.Int("index", i),
				zap.Float32("scale", v.Scale),
				zap.Bool("use_ai", v.UseAI),
				zap.Error(err),
			)
			return nil, err
		}

		if err := archive.Add(out); err != nil {
			o.logger.Error("Failed to add variant to archive", zap.String("filename", out.Filename), zap.Error(err))
			return nil, err
		}
	}

	data, err := archive.Bytes()
	if err != nil {
		o.logger.Error("Failed to read archive", zap.Error(err))
		return nil, err
	}

	return data, nil
}

func (o *Orchestrator) produce(ctx context.Context, req *models.ResizeRequest, v models.VariantSpec, imageURL string) (models.VariantOutput, error) {
	var (
		data []byte
		err  error
	)

	if v.UseAI {
		data, err = o.upscaler.Upscale(ctx, imageURL, v.Scale)
	} else {
		data, err = o.resampler.Resize(req.Image, req.TargetFormat, v.Scale)
	}
	if err != nil {
		return models.VariantOutput{}, err
	}

	return models.VariantOutput{
		Filename: models.VariantFilename(req.Width, req.Height, v, req.TargetFormat),
		Data:     data,
	}, nil
}

func (o *Orchestrator) publishUsage(ctx context.Context, account *models.CreditAccount, variants, aiCount int) {
	if o.notifier == nil {
		return
	}

	event := models.UsageEvent{
		ID:          uuid.New().String(),
		Identity:    account.Identity,
		Operation:   models.OperationResize,
		Variants:    variants,
		CostCredits: int64(aiCount),
		CreatedAt:   time.Now().UTC(),
	}

	if err := o.notifier.PublishUsage(ctx, event); err != nil {
		o.logger.Warn("Failed to publish usage event", zap.String("event_id", event.ID), zap.Error(err))
	}
}
