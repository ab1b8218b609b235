package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/famto/api/internal/domain"
	pfirestore "github.com/famto/api/internal/platform/firestore"
	"github.com/famto/api/internal/repositories"
)

const taskCollection = "tasks"

type taskLegDocument struct {
	Status    string            `firestore:"status,omitempty"`
	Address   *addressDocument  `firestore:"address,omitempty"`
	Location  *locationDocument `firestore:"location,omitempty"`
	StartedAt *time.Time        `firestore:"startedAt,omitempty"`
	EndedAt   *time.Time        `firestore:"endedAt,omitempty"`
}

type taskDocument struct {
	OrderID        string          `firestore:"orderId"`
	AgentID        *string         `firestore:"agentId,omitempty"`
	Status         string          `firestore:"status"`
	PickupDetail   taskLegDocument `firestore:"pickupDetail"`
	DeliveryDetail taskLegDocument `firestore:"deliveryDetail"`
	CreatedAt      time.Time       `firestore:"createdAt"`
	UpdatedAt      time.Time       `firestore:"updatedAt"`
}

// TaskRepository stores agent work units within Firestore.
type TaskRepository struct {
	base *pfirestore.BaseRepository[taskDocument]
}

// NewTaskRepository constructs a Firestore-backed task repository.
func NewTaskRepository(provider *pfirestore.Provider) (*TaskRepository, error) {
	if provider == nil {
		return nil, errors.New("task repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[taskDocument](provider, taskCollection, nil, nil)
	return &TaskRepository{base: base}, nil
}

// Insert creates the task document.
func (r *TaskRepository) Insert(ctx context.Context, task domain.Task) error {
	if r == nil || r.base == nil {
		return errors.New("task repository not initialised")
	}
	id := strings.TrimSpace(task.ID)
	if id == "" {
		return errors.New("task repository: task id is required")
	}
	_, err := r.base.Set(ctx, id, encodeTask(task))
	return err
}

// Update overwrites the task document.
func (r *TaskRepository) Update(ctx context.Context, task domain.Task) error {
	return r.Insert(ctx, task)
}

// FindByID loads one task.
func (r *TaskRepository) FindByID(ctx context.Context, taskID string) (domain.Task, error) {
	if r == nil || r.base == nil {
		return domain.Task{}, errors.New("task repository not initialised")
	}
	id := strings.TrimSpace(taskID)
	if id == "" {
		return domain.Task{}, errors.New("task repository: task id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	return decodeTask(doc.ID, doc.Data), nil
}

// FindByOrder loads the task created for the order.
func (r *TaskRepository) FindByOrder(ctx context.Context, orderID string) (domain.Task, error) {
	if r == nil || r.base == nil {
		return domain.Task{}, errors.New("task repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Task{}, errors.New("task repository: order id is required")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("orderId", "==", id).Limit(1)
	})
	if err != nil {
		return domain.Task{}, err
	}
	if len(docs) == 0 {
		return domain.Task{}, pfirestore.WrapError("tasks.findByOrder", status.Error(codes.NotFound, "task not found"))
	}
	return decodeTask(docs[0].ID, docs[0].Data), nil
}

// NextQueued returns the agent's oldest task still waiting to start.
func (r *TaskRepository) NextQueued(ctx context.Context, agentID string) (domain.Task, error) {
	if r == nil || r.base == nil {
		return domain.Task{}, errors.New("task repository not initialised")
	}
	id := strings.TrimSpace(agentID)
	if id == "" {
		return domain.Task{}, errors.New("task repository: agent id is required")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("agentId", "==", id).
			Where("status", "==", string(domain.TaskStatusAssigned)).
			OrderBy("createdAt", firestore.Asc).
			Limit(1)
	})
	if err != nil {
		return domain.Task{}, err
	}
	if len(docs) == 0 {
		return domain.Task{}, pfirestore.WrapError("tasks.nextQueued", status.Error(codes.NotFound, "no queued task"))
	}
	return decodeTask(docs[0].ID, docs[0].Data), nil
}

func encodeTask(task domain.Task) taskDocument {
	return taskDocument{
		OrderID:        task.OrderID,
		AgentID:        task.AgentID,
		Status:         string(task.Status),
		PickupDetail:   encodeTaskLeg(task.PickupDetail),
		DeliveryDetail: encodeTaskLeg(task.DeliveryDetail),
		CreatedAt:      task.CreatedAt.UTC(),
		UpdatedAt:      task.UpdatedAt.UTC(),
	}
}

func decodeTask(id string, doc taskDocument) domain.Task {
	return domain.Task{
		ID:             id,
		OrderID:        doc.OrderID,
		AgentID:        doc.AgentID,
		Status:         domain.TaskStatus(doc.Status),
		PickupDetail:   decodeTaskLeg(doc.PickupDetail),
		DeliveryDetail: decodeTaskLeg(doc.DeliveryDetail),
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

func encodeTaskLeg(leg domain.TaskLeg) taskLegDocument {
	return taskLegDocument{
		Status:    string(leg.Status),
		Address:   encodeAddress(leg.Address),
		Location:  encodeLocation(leg.Location),
		StartedAt: leg.StartedAt,
		EndedAt:   leg.EndedAt,
	}
}

func decodeTaskLeg(doc taskLegDocument) domain.TaskLeg {
	return domain.TaskLeg{
		Status:    domain.TaskLegStatus(doc.Status),
		Address:   decodeAddress(doc.Address),
		Location:  decodeLocation(doc.Location),
		StartedAt: doc.StartedAt,
		EndedAt:   doc.EndedAt,
	}
}

var _ repositories.TaskRepository = (*TaskRepository)(nil)
