package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/famto/api/internal/domain"
	pfirestore "github.com/famto/api/internal/platform/firestore"
	"github.com/famto/api/internal/repositories"
)

const agentCollection = "agents"

type agentAppDetailDocument struct {
	Orders          int     `firestore:"orders"`
	CancelledOrders int     `firestore:"cancelledOrders"`
	TotalDistanceKm float64 `firestore:"totalDistanceKm"`
	TotalEarning    float64 `firestore:"totalEarning"`
	LoginDurationMS int64   `firestore:"loginDurationMs"`
	PendingOrders   int     `firestore:"pendingOrders"`
}

type agentOrderEarningDocument struct {
	OrderID     string    `firestore:"orderId"`
	DistanceKm  float64   `firestore:"distanceKm"`
	Earning     float64   `firestore:"earning"`
	CompletedAt time.Time `firestore:"completedAt"`
}

type agentDayHistoryDocument struct {
	Date           time.Time                   `firestore:"date"`
	PaymentSettled bool                        `firestore:"paymentSettled"`
	Detail         agentAppDetailDocument      `firestore:"detail"`
	OrderEarnings  []agentOrderEarningDocument `firestore:"orderEarnings,omitempty"`
}

type agentDocument struct {
	FullName         string                    `firestore:"fullName,omitempty"`
	Phone            string                    `firestore:"phone,omitempty"`
	GeofenceID       string                    `firestore:"geofenceId,omitempty"`
	VehicleType      string                    `firestore:"vehicleType,omitempty"`
	TaskCompleted    int                       `firestore:"taskCompleted"`
	AppDetail        agentAppDetailDocument    `firestore:"appDetail"`
	AppDetailHistory []agentDayHistoryDocument `firestore:"appDetailHistory,omitempty"`
	UpdatedAt        time.Time                 `firestore:"updatedAt"`
}

// AgentRepository stores delivery agents and their earnings counters.
type AgentRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[agentDocument]
}

// NewAgentRepository constructs a Firestore-backed agent repository.
func NewAgentRepository(provider *pfirestore.Provider) (*AgentRepository, error) {
	if provider == nil {
		return nil, errors.New("agent repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[agentDocument](provider, agentCollection, nil, nil)
	return &AgentRepository{
		provider: provider,
		base:     base,
	}, nil
}

// FindByID loads one agent.
func (r *AgentRepository) FindByID(ctx context.Context, agentID string) (domain.Agent, error) {
	if r == nil || r.base == nil {
		return domain.Agent{}, errors.New("agent repository not initialised")
	}
	id := strings.TrimSpace(agentID)
	if id == "" {
		return domain.Agent{}, errors.New("agent repository: agent id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Agent{}, err
	}
	return decodeAgent(doc.ID, doc.Data), nil
}

// Update overwrites the agent document.
func (r *AgentRepository) Update(ctx context.Context, agent domain.Agent) error {
	if r == nil || r.base == nil {
		return errors.New("agent repository not initialised")
	}
	id := strings.TrimSpace(agent.ID)
	if id == "" {
		return errors.New("agent repository: agent id is required")
	}
	_, err := r.base.Set(ctx, id, encodeAgent(agent))
	return err
}

// RecordCompletion bumps the running counters, increments taskCompleted and
// appends the per-order earning to the calendar day's history entry in one
// transaction. The first completion of a day creates the entry.
func (r *AgentRepository) RecordCompletion(ctx context.Context, agentID string, record repositories.AgentCompletionRecord) (domain.Agent, error) {
	if r == nil || r.provider == nil {
		return domain.Agent{}, errors.New("agent repository not initialised")
	}
	id := strings.TrimSpace(agentID)
	if id == "" {
		return domain.Agent{}, errors.New("agent repository: agent id is required")
	}

	var updated domain.Agent
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc agentDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return err
		}

		doc.TaskCompleted++
		doc.AppDetail.Orders++
		doc.AppDetail.TotalDistanceKm += record.DistanceKm
		doc.AppDetail.TotalEarning += record.Earning

		earning := agentOrderEarningDocument{
			OrderID:     record.OrderID,
			DistanceKm:  record.DistanceKm,
			Earning:     record.Earning,
			CompletedAt: record.CompletedAt.UTC(),
		}
		day := startOfDay(record.CompletedAt)
		idx := -1
		for i := range doc.AppDetailHistory {
			if doc.AppDetailHistory[i].Date.Equal(day) {
				idx = i
				break
			}
		}
		if idx < 0 {
			doc.AppDetailHistory = append(doc.AppDetailHistory, agentDayHistoryDocument{Date: day})
			idx = len(doc.AppDetailHistory) - 1
		}
		entry := &doc.AppDetailHistory[idx]
		entry.Detail.Orders++
		entry.Detail.TotalDistanceKm += record.DistanceKm
		entry.Detail.TotalEarning += record.Earning
		entry.OrderEarnings = append(entry.OrderEarnings, earning)

		doc.UpdatedAt = record.CompletedAt.UTC()
		if err := tx.Set(ref, doc); err != nil {
			return err
		}
		updated = decodeAgent(snapshot.Ref.ID, doc)
		return nil
	})
	if err != nil {
		return domain.Agent{}, pfirestore.WrapError("agents.recordCompletion", err)
	}
	return updated, nil
}

// startOfDay truncates to the UTC calendar day used as the history key.
func startOfDay(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

func encodeAgent(agent domain.Agent) agentDocument {
	doc := agentDocument{
		FullName:      agent.FullName,
		Phone:         agent.Phone,
		GeofenceID:    agent.GeofenceID,
		VehicleType:   agent.VehicleType,
		TaskCompleted: agent.TaskCompleted,
		AppDetail:     encodeAgentAppDetail(agent.AppDetail),
		UpdatedAt:     agent.UpdatedAt.UTC(),
	}
	for _, day := range agent.AppDetailHistory {
		entry := agentDayHistoryDocument{
			Date:           day.Date.UTC(),
			PaymentSettled: day.PaymentSettled,
			Detail:         encodeAgentAppDetail(day.Detail),
		}
		for _, earning := range day.OrderEarnings {
			entry.OrderEarnings = append(entry.OrderEarnings, agentOrderEarningDocument{
				OrderID:     earning.OrderID,
				DistanceKm:  earning.DistanceKm,
				Earning:     earning.Earning,
				CompletedAt: earning.CompletedAt.UTC(),
			})
		}
		doc.AppDetailHistory = append(doc.AppDetailHistory, entry)
	}
	return doc
}

func encodeAgentAppDetail(detail domain.AgentAppDetail) agentAppDetailDocument {
	return agentAppDetailDocument{
		Orders:          detail.Orders,
		CancelledOrders: detail.CancelledOrders,
		TotalDistanceKm: detail.TotalDistanceKm,
		TotalEarning:    detail.TotalEarning,
		LoginDurationMS: detail.LoginDuration.Milliseconds(),
		PendingOrders:   detail.PendingOrders,
	}
}

func decodeAgent(id string, doc agentDocument) domain.Agent {
	agent := domain.Agent{
		ID:            id,
		FullName:      doc.FullName,
		Phone:         doc.Phone,
		GeofenceID:    doc.GeofenceID,
		VehicleType:   doc.VehicleType,
		TaskCompleted: doc.TaskCompleted,
		AppDetail:     decodeAgentAppDetail(doc.AppDetail),
		UpdatedAt:     doc.UpdatedAt,
	}
	for _, day := range doc.AppDetailHistory {
		entry := domain.AgentDayHistory{
			Date:           day.Date,
			PaymentSettled: day.PaymentSettled,
			Detail:         decodeAgentAppDetail(day.Detail),
		}
		for _, earning := range day.OrderEarnings {
			entry.OrderEarnings = append(entry.OrderEarnings, domain.AgentOrderEarning{
				OrderID:     earning.OrderID,
				DistanceKm:  earning.DistanceKm,
				Earning:     earning.Earning,
				CompletedAt: earning.CompletedAt,
			})
		}
		agent.AppDetailHistory = append(agent.AppDetailHistory, entry)
	}
	return agent
}

func decodeAgentAppDetail(doc agentAppDetailDocument) domain.AgentAppDetail {
	return domain.AgentAppDetail{
		Orders:          doc.Orders,
		CancelledOrders: doc.CancelledOrders,
		TotalDistanceKm: doc.TotalDistanceKm,
		TotalEarning:    doc.TotalEarning,
		LoginDuration:   time.Duration(doc.LoginDurationMS) * time.Millisecond,
		PendingOrders:   doc.PendingOrders,
	}
}

var _ repositories.AgentRepository = (*AgentRepository)(nil)
