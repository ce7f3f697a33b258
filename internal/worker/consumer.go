package worker

import (
	"context"
	"log/slog"

	"github.com/enrichkit/contact-pipeline/internal/submission"
	"github.com/enrichkit/contact-pipeline/pkg/kafka"
	"github.com/enrichkit/contact-pipeline/pkg/logger"
)

// Handler returns a Kafka MessageHandler that decodes batch messages and
// delegates to the BatchProcessor. Malformed payloads are logged and
// dropped: redelivering them could never succeed. Processing errors
// propagate so the message stays uncommitted and the broker redelivers.
func Handler(bp *BatchProcessor) kafka.MessageHandler {
	log := slog.Default().With("component", "batch-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		msg, err := kafka.DecodeJSON[submission.BatchMessage](value)
		if err != nil {
			log.Error("failed to decode batch message",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		ctx = logger.WithRequestID(ctx, msg.RequestID)
		return bp.ProcessBatch(ctx, msg)
	}
}
