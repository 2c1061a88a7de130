package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"docqa/internal/model"
	"docqa/internal/platform/rabbitmq"
)

type QARecordStore interface {
	Create(ctx context.Context, record *model.QARecord) error
}

// QARecordPersistWorker drains the QA record queue into MySQL.
type QARecordPersistWorker struct {
	conn      *amqp.Connection
	repo      QARecordStore
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewQARecordPersistWorker(conn *amqp.Connection, repo QARecordStore, queueName string, logger *slog.Logger) *QARecordPersistWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &QARecordPersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *QARecordPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					w.logger.Error("persist qa record failed", "error", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *QARecordPersistWorker) handle(ctx context.Context, body []byte) error {
	var record model.QARecord
	if err := json.Unmarshal(body, &record); err != nil {
		return fmt.Errorf("decode qa record failed: %w", err)
	}
	return w.repo.Create(ctx, &record)
}

func (w *QARecordPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
