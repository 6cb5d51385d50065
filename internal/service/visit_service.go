package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"armonia.dev/intercom/internal/audit"
	"armonia.dev/intercom/internal/domain"
	"armonia.dev/intercom/internal/models"
	apperrors "armonia.dev/intercom/internal/pkg/errors"
	"armonia.dev/intercom/internal/pkg/logger"
)

// VisitorInfo is the caller-supplied identity for registration. The visitor
// is resolved by identification number; name/phone update the existing
// record when it already exists.
type VisitorInfo struct {
	Name           string `json:"name" binding:"required"`
	Identification string `json:"identification" binding:"required"`
	Phone          string `json:"phone"`
	PhotoURL       string `json:"photo_url"`
	TypeID         int    `json:"type_id"`
}

// VisitHistoryFilter narrows GetVisitHistory results.
type VisitHistoryFilter struct {
	Status   models.VisitStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// VisitService owns the visit state machine. All status changes go through
// it; other components never write visit rows directly.
type VisitService struct {
	db         *gorm.DB
	dispatcher *domain.EventDispatcher
	audit      *audit.Logger
}

// NewVisitService creates a VisitService.
func NewVisitService(db *gorm.DB, dispatcher *domain.EventDispatcher, auditLog *audit.Logger) *VisitService {
	return &VisitService{db: db, dispatcher: dispatcher, audit: auditLog}
}

// RegisterVisit resolves or creates the visitor by identification number and
// creates a visit in PENDING, as one transaction. Notification fan-out runs
// through the VISIT_REGISTERED event dispatched after commit, so a fan-out
// failure cannot roll back the registration.
func (s *VisitService) RegisterVisit(ctx context.Context, info VisitorInfo, unitID int, purpose string) (*models.Visit, error) {
	if info.Identification == "" || info.Name == "" {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "visitor name and identification are required")
	}

	var unit models.Unit
	if err := s.db.WithContext(ctx).First(&unit, unitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeValidationFailed, "unit not found").
				WithParams(map[string]interface{}{"unit_id": unitID})
		}
		return nil, fmt.Errorf("load unit: %w", err)
	}

	visit := &models.Visit{
		ID:      newID(),
		UnitID:  unitID,
		Purpose: purpose,
		Status:  models.VisitStatusPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		visitor, err := resolveVisitor(tx, info)
		if err != nil {
			return err
		}
		visit.VisitorID = visitor.ID
		visit.Visitor = *visitor

		return tx.Create(visit).Error
	})
	if err != nil {
		return nil, fmt.Errorf("register visit: %w", err)
	}

	logger.Info("Visit registered",
		zap.String("visit_id", visit.ID),
		zap.Uint("visitor_id", visit.VisitorID),
		zap.Int("unit_id", unitID),
	)
	s.audit.LogAction(ctx, "visit_registered", visit.ID, map[string]interface{}{
		"visitor_id": visit.VisitorID,
		"unit_id":    unitID,
		"purpose":    purpose,
	})

	s.dispatchVisitEvent(ctx, domain.EventVisitRegistered, visit.ID, domain.VisitRegisteredPayload{
		VisitID:   visit.ID,
		VisitorID: visit.VisitorID,
		UnitID:    unitID,
		Purpose:   purpose,
	})

	return visit, nil
}

// resolveVisitor looks up the visitor by identification number, creating it
// on first visit. Exact match only. Contact info is refreshed on reuse.
func resolveVisitor(tx *gorm.DB, info VisitorInfo) (*models.Visitor, error) {
	var visitor models.Visitor
	err := tx.Where("identification = ?", info.Identification).First(&visitor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		visitor = models.Visitor{
			Name:           info.Name,
			Identification: info.Identification,
			Phone:          info.Phone,
			PhotoURL:       info.PhotoURL,
			TypeID:         info.TypeID,
		}
		if err := tx.Create(&visitor).Error; err != nil {
			return nil, fmt.Errorf("create visitor: %w", err)
		}
		return &visitor, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup visitor: %w", err)
	}

	updates := map[string]interface{}{}
	if info.Phone != "" && info.Phone != visitor.Phone {
		updates["phone"] = info.Phone
		visitor.Phone = info.Phone
	}
	if info.PhotoURL != "" && info.PhotoURL != visitor.PhotoURL {
		updates["photo_url"] = info.PhotoURL
		visitor.PhotoURL = info.PhotoURL
	}
	if len(updates) > 0 {
		if err := tx.Model(&visitor).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update visitor contact info: %w", err)
		}
	}
	return &visitor, nil
}

// GetVisit loads a visit with its visitor and notifications.
func (s *VisitService) GetVisit(ctx context.Context, visitID string) (*models.Visit, error) {
	var visit models.Visit
	err := s.db.WithContext(ctx).
		Preload("Visitor").
		Preload("Visitor.Type").
		Preload("Notifications").
		First(&visit, "id = ?", visitID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrVisitNotFoundf(visitID)
		}
		return nil, fmt.Errorf("load visit: %w", err)
	}
	return &visit, nil
}

// ApproveVisit moves a visit to APPROVED and records the authorizing
// resident. Re-approval by the same or another resident is allowed;
// concurrent decisions resolve last-write-wins.
func (s *VisitService) ApproveVisit(ctx context.Context, visitID string, residentID int) (*models.Visit, error) {
	visit, err := s.transition(ctx, visitID, models.VisitStatusApproved, domain.TransitionApprove, map[string]interface{}{
		"authorized_by": residentID,
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, "visit_approved", visitID, map[string]interface{}{"resident_id": residentID})
	s.dispatchVisitEvent(ctx, domain.EventVisitApproved, visitID, domain.VisitDecisionPayload{
		VisitID:    visitID,
		ResidentID: residentID,
	})
	return visit, nil
}

// RejectVisit moves a visit to REJECTED and records the deciding resident.
func (s *VisitService) RejectVisit(ctx context.Context, visitID string, residentID int) (*models.Visit, error) {
	visit, err := s.transition(ctx, visitID, models.VisitStatusRejected, domain.TransitionReject, map[string]interface{}{
		"authorized_by": residentID,
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, "visit_rejected", visitID, map[string]interface{}{"resident_id": residentID})
	s.dispatchVisitEvent(ctx, domain.EventVisitRejected, visitID, domain.VisitDecisionPayload{
		VisitID:    visitID,
		ResidentID: residentID,
	})
	return visit, nil
}

// RegisterEntry records the visitor entering. Legal only from APPROVED.
func (s *VisitService) RegisterEntry(ctx context.Context, visitID string) (*models.Visit, error) {
	now := time.Now().UTC()
	visit, err := s.transition(ctx, visitID, models.VisitStatusInProgress, domain.TransitionRegisterEntry, map[string]interface{}{
		"entry_time": &now,
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, "visit_entry_recorded", visitID, nil)
	s.dispatchVisitEvent(ctx, domain.EventVisitEntryRecorded, visitID, nil)
	return visit, nil
}

// RegisterExit records the visitor leaving. Legal only from IN_PROGRESS.
func (s *VisitService) RegisterExit(ctx context.Context, visitID string) (*models.Visit, error) {
	now := time.Now().UTC()
	visit, err := s.transition(ctx, visitID, models.VisitStatusCompleted, domain.TransitionRegisterExit, map[string]interface{}{
		"exit_time": &now,
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, "visit_exit_recorded", visitID, nil)
	s.dispatchVisitEvent(ctx, domain.EventVisitExitRecorded, visitID, nil)
	return visit, nil
}

// CancelVisit cancels a visit. Legal from any state before entry.
func (s *VisitService) CancelVisit(ctx context.Context, visitID string) (*models.Visit, error) {
	visit, err := s.transition(ctx, visitID, models.VisitStatusCancelled, domain.TransitionCancel, nil)
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, "visit_cancelled", visitID, nil)
	s.dispatchVisitEvent(ctx, domain.EventVisitCancelled, visitID, nil)
	return visit, nil
}

// MarkNotified moves a visit to NOTIFIED after at least one notification was
// queued. A visit already decided (auto-approved during fan-out) is left
// alone rather than regressed.
func (s *VisitService) MarkNotified(ctx context.Context, visitID string) error {
	_, err := s.transition(ctx, visitID, models.VisitStatusNotified, domain.TransitionNotify, nil)
	if err != nil {
		if appErr, ok := apperrors.IsAppError(err); ok && appErr.Code == apperrors.CodeInvalidStateTransition {
			logger.Debug("Visit already decided, leaving status untouched",
				zap.String("visit_id", visitID))
			return nil
		}
		return err
	}
	return nil
}

// transition applies one atomic read-modify-write status change. The status
// guard runs inside the transaction so concurrent transitions serialize on
// the row.
func (s *VisitService) transition(ctx context.Context, visitID string, to models.VisitStatus, name string, extra map[string]interface{}) (*models.Visit, error) {
	var visit models.Visit
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&visit, "id = ?", visitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrVisitNotFoundf(visitID)
			}
			return fmt.Errorf("load visit: %w", err)
		}

		if !domain.CanTransition(visit.Status, to) {
			return apperrors.ErrInvalidTransitionf(visitID, string(visit.Status), name)
		}

		updates := map[string]interface{}{"status": to}
		for k, v := range extra {
			updates[k] = v
		}
		if err := tx.Model(&visit).Updates(updates).Error; err != nil {
			return fmt.Errorf("update visit status: %w", err)
		}

		visit.Status = to
		if authorizedBy, ok := extra["authorized_by"].(int); ok {
			visit.AuthorizedBy = &authorizedBy
		}
		if entry, ok := extra["entry_time"].(*time.Time); ok {
			visit.EntryTime = entry
		}
		if exit, ok := extra["exit_time"].(*time.Time); ok {
			visit.ExitTime = exit
		}
		return nil
	})
	if err != nil {
		if _, ok := apperrors.IsAppError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("transition %s: %w", name, err)
	}

	logger.Info("Visit transitioned",
		zap.String("visit_id", visitID),
		zap.String("transition", name),
		zap.String("status", string(to)),
	)
	return &visit, nil
}

// GetVisitHistory returns a unit's visits, newest first, paginated.
func (s *VisitService) GetVisitHistory(ctx context.Context, unitID int, filter VisitHistoryFilter) (*models.PaginatedVisits, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	query := s.db.WithContext(ctx).Model(&models.Visit{}).Where("unit_id = ?", unitID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}

	var visits []models.Visit
	err := query.
		Preload("Visitor").
		Preload("Visitor.Type").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&visits).Error
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}

	return &models.PaginatedVisits{
		Data:       visits,
		Pagination: models.NewPagination(page, pageSize, total),
	}, nil
}

func (s *VisitService) dispatchVisitEvent(ctx context.Context, eventType domain.EventType, visitID string, payload interface{ ToJSON() ([]byte, error) }) {
	if s.dispatcher == nil {
		return
	}

	event := &domain.Event{
		EventID:       newID(),
		EventType:     eventType,
		AggregateType: "visit",
		AggregateID:   visitID,
		CreatedAt:     time.Now().UTC(),
	}
	if payload != nil {
		data, err := payload.ToJSON()
		if err != nil {
			logger.Error("Failed to encode event payload",
				zap.String("event_type", string(eventType)),
				zap.String("visit_id", visitID),
				zap.Error(err),
			)
			return
		}
		event.Payload = data
	}

	// Dispatch errors are already logged per handler.
	_ = s.dispatcher.Dispatch(ctx, event)
}
