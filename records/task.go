// ABOUTME: Task codec for the task_c table
// ABOUTME: Maps due date, priority, status and the completion timestamp

package records

import (
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
)

// Task field names.
const (
	TaskDescription = "description_c"
	TaskDueDate     = "due_date_c"
	TaskPriority    = "priority_c"
	TaskStatus      = "status_c"
	TaskAssignedTo  = "assigned_to_c"
	TaskContactID   = "contact_id_c"
	TaskDealID      = "deal_id_c"
	TaskCompletedAt = "completed_at_c"
)

type TaskCodec struct{}

func (TaskCodec) Table() string { return store.TableTasks }

func (TaskCodec) Fields() []string {
	return []string{
		store.FieldName, store.FieldTags, store.FieldCreatedOn, store.FieldModifiedOn,
		TaskDescription, TaskDueDate, TaskPriority, TaskStatus, TaskAssignedTo,
		TaskContactID, TaskDealID, TaskCompletedAt,
	}
}

func (TaskCodec) Decode(rec store.Record) models.Task {
	return models.Task{
		ID:          recordID(rec),
		Title:       getString(rec, store.FieldName),
		Description: getString(rec, TaskDescription),
		DueDate:     getDate(rec, TaskDueDate),
		Priority:    stringOr(rec, TaskPriority, models.PriorityMedium),
		Status:      stringOr(rec, TaskStatus, models.TaskStatusPending),
		AssignedTo:  getString(rec, TaskAssignedTo),
		ContactID:   getRef(rec, TaskContactID),
		DealID:      getRef(rec, TaskDealID),
		CompletedAt: getTimePtr(rec, TaskCompletedAt),
		CreatedAt:   getTime(rec, store.FieldCreatedOn),
		UpdatedAt:   getTime(rec, store.FieldModifiedOn),
	}
}

func (TaskCodec) Encode(t models.Task) store.Record {
	w := fieldWriter{}
	w.system(t.ID, t.CreatedAt, t.UpdatedAt)
	w.str(store.FieldName, t.Title)
	w.str(TaskDescription, t.Description)
	w.str(TaskDueDate, t.DueDate)
	w.str(TaskPriority, t.Priority)
	w.str(TaskStatus, t.Status)
	w.str(TaskAssignedTo, t.AssignedTo)
	w.ref(TaskContactID, t.ContactID)
	w.ref(TaskDealID, t.DealID)
	if t.CompletedAt != nil {
		w.timestamp(TaskCompletedAt, *t.CompletedAt)
	}
	return store.Record(w)
}

func (TaskCodec) EncodePatch(id int64, p models.TaskPatch) store.Record {
	w := newPatch(id)
	w.str(store.FieldName, p.Title)
	w.str(TaskDescription, p.Description)
	w.str(TaskDueDate, p.DueDate)
	w.str(TaskPriority, p.Priority)
	w.str(TaskStatus, p.Status)
	w.str(TaskAssignedTo, p.AssignedTo)
	w.ref(TaskContactID, p.ContactID, p.ClearContactID)
	w.ref(TaskDealID, p.DealID, p.ClearDealID)
	w.timestamp(TaskCompletedAt, p.CompletedAt)
	if p.ClearCompletedAt {
		w[TaskCompletedAt] = nil
	}
	return store.Record(w)
}
