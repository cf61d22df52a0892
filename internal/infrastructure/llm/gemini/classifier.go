package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
	"github.com/Heliazer/duply-v6-cli/internal/infrastructure/resilience"
)

// BatchClassifier submits batches to Gemini and decodes the responses. The
// transport is guarded by the resilience executor; decoding failures are
// surfaced as MalformedResponseError with the raw body retained in the logs.
type BatchClassifier struct {
	client *Client
	codec  *Codec
	exec   *resilience.Executor
	logger *slog.Logger
}

func NewBatchClassifier(client *Client, codec *Codec, exec *resilience.Executor, logger *slog.Logger) *BatchClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchClassifier{
		client: client,
		codec:  codec,
		exec:   exec,
		logger: logger,
	}
}

func (b *BatchClassifier) ClassifyBatch(ctx context.Context, items []domain.BatchItem) ([]domain.Record, error) {
	if len(items) == 0 {
		return nil, nil
	}

	prompt := b.codec.EncodePrompt(items)

	var raw string
	err := b.exec.Execute(ctx, "classify_batch", func(callCtx context.Context) error {
		response, callErr := b.client.GenerateContent(callCtx, prompt)
		if callErr != nil {
			return callErr
		}
		raw = response
		return nil
	}, classifyGeminiError)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "classify batch", err)
	}

	records, err := b.codec.Decode(raw)
	if err != nil {
		var malformed *domain.MalformedResponseError
		if errors.As(err, &malformed) {
			b.logger.Error("malformed_model_response",
				"batch_size", len(items),
				"error", malformed.Err,
				"raw_response", malformed.Raw,
			)
		}
		return nil, fmt.Errorf("decode batch response: %w", err)
	}
	return records, nil
}
