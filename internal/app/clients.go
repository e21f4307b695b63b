package app

import (
	"fmt"

	"github.com/scholardesk/scholardesk-backend/internal/clients/ai"
	"github.com/scholardesk/scholardesk-backend/internal/clients/answer"
	"github.com/scholardesk/scholardesk-backend/internal/clients/gcs"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

type Clients struct {
	AI     ai.Client
	Answer answer.Client
	Bucket gcs.BucketService
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	aiClient, err := ai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init ai client: %w", err)
	}
	answerClient, err := answer.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init answer client: %w", err)
	}
	bucket, err := gcs.NewBucketService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket service: %w", err)
	}

	return Clients{AI: aiClient, Answer: answerClient, Bucket: bucket}, nil
}
