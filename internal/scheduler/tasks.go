package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskNotificationOutboxDue delivers one claimed outbox record.
const TaskNotificationOutboxDue = "notification.outbox.due"

// TaskLeadExportCleanup prunes expired export archives.
const TaskLeadExportCleanup = "exports.cleanup"

type NotificationOutboxDuePayload struct {
	OutboxID string `json:"outboxId"`
}

type LeadExportCleanupPayload struct {
	RetentionDays int `json:"retentionDays"`
}

func NewNotificationOutboxDueTask(payload NotificationOutboxDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationOutboxDue, data), nil
}

func ParseNotificationOutboxDuePayload(task *asynq.Task) (NotificationOutboxDuePayload, error) {
	var payload NotificationOutboxDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NotificationOutboxDuePayload{}, err
	}
	return payload, nil
}

func NewLeadExportCleanupTask(payload LeadExportCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadExportCleanup, data), nil
}

func ParseLeadExportCleanupPayload(task *asynq.Task) (LeadExportCleanupPayload, error) {
	var payload LeadExportCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadExportCleanupPayload{}, err
	}
	return payload, nil
}
