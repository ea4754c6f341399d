package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const (
	// ProcessSubject receives document processing requests.
	ProcessSubject = "talent.documents.process"
	// DLQSubject receives requests that exhausted their retries.
	DLQSubject = "talent.documents.process.dlq"
	// MaxRetries before a request is sent to the DLQ.
	MaxRetries = 3

	retryHeader = "X-Retry-Count"
)

// ProcessRequest is the message published to ProcessSubject.
type ProcessRequest struct {
	DocumentID         string `json:"document_id"`
	GenerateEmbeddings bool   `json:"generate_embeddings"`
}

// dlqMessage wraps a failed request for the dead letter queue.
type dlqMessage struct {
	Request ProcessRequest `json:"request"`
	Error   string         `json:"error"`
	Retries int            `json:"retries"`
}

// StartConsumer subscribes to ProcessSubject and runs each request through
// the pipeline, re-publishing failures with a retry header and dead-
// lettering them after MaxRetries.
func StartConsumer(nc *nats.Conn, s *Service) (*nats.Subscription, error) {
	log := s.logger

	return nc.Subscribe(ProcessSubject, func(msg *nats.Msg) {
		var req ProcessRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Error("ingest: unmarshal failed", "error", err)
			return
		}
		if req.DocumentID == "" {
			log.Error("ingest: request without document id")
			return
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get(retryHeader); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		res := s.ProcessDocument(context.Background(), req.DocumentID, req.GenerateEmbeddings)
		if !res.Success {
			retries++
			log.Error("ingest: processing failed",
				"document_id", req.DocumentID,
				"error", res.Error,
				"retry", retries)

			if retries >= MaxRetries {
				data, _ := json.Marshal(dlqMessage{Request: req, Error: res.Error, Retries: retries})
				if err := nc.Publish(DLQSubject, data); err != nil {
					log.Error("ingest: DLQ publish failed", "error", err)
				}
			} else {
				retry := nats.NewMsg(ProcessSubject)
				retry.Data = msg.Data
				retry.Header = nats.Header{}
				retry.Header.Set(retryHeader, fmt.Sprintf("%d", retries))
				if err := nc.PublishMsg(retry); err != nil {
					log.Error("ingest: retry publish failed", "error", err)
				}
			}
		}

		if msg.Reply != "" {
			_ = msg.Ack()
		}
	})
}

// PublishRequest enqueues a processing request.
func PublishRequest(nc *nats.Conn, req ProcessRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal process request: %w", err)
	}
	return nc.Publish(ProcessSubject, data)
}
