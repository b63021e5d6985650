package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	PrintJobsExchange = "tableside.print_jobs"
	PrintJobsQueue    = "tableside.print_jobs.process"
	PrintJobsDLQ      = "tableside.print_jobs.dlq"
	PrintJobsRK       = "print"
	PrintJobsDeadRK   = "dead"
)

// EnsurePrintJobsTopology declares the direct exchange, the work queue and
// its dead-letter queue. A nil client is a no-op.
func EnsurePrintJobsTopology(qc *Client) error {
	if qc == nil {
		return nil
	}
	if err := qc.EnsureExchangeKind(PrintJobsExchange, "direct"); err != nil {
		return err
	}
	if _, err := qc.EnsureQueueWithArgs(PrintJobsDLQ, nil); err != nil {
		return err
	}
	if err := qc.BindQueue(PrintJobsDLQ, PrintJobsExchange, PrintJobsDeadRK); err != nil {
		return err
	}
	_, err := qc.EnsureQueueWithArgs(PrintJobsQueue, amqp.Table{
		"x-dead-letter-exchange":    PrintJobsExchange,
		"x-dead-letter-routing-key": PrintJobsDeadRK,
	})
	if err != nil {
		return err
	}
	return qc.BindQueue(PrintJobsQueue, PrintJobsExchange, PrintJobsRK)
}
