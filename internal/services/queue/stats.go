package queue

import "fmt"

// GetQueueStats reports the backlog of the validation queue.
func (q *QueueService) GetQueueStats() (map[string]interface{}, error) {
	if q.channel == nil {
		return nil, fmt.Errorf("channel not available")
	}

	queueInfo, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect queue %s: %w", q.queueName, err)
	}

	return map[string]interface{}{
		"queue":           queueInfo.Name,
		"pending_jobs":    queueInfo.Messages,
		"active_workers":  queueInfo.Consumers,
		"connection_open": q.conn != nil && !q.conn.IsClosed(),
	}, nil
}

// HealthCheck reports "healthy" or "unhealthy: <reason>" for the broker link.
func (q *QueueService) HealthCheck() string {
	switch {
	case q.conn == nil || q.conn.IsClosed():
		return "unhealthy: connection closed"
	case q.channel == nil:
		return "unhealthy: channel not available"
	default:
		return "healthy"
	}
}
