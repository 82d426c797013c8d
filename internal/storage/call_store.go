package storage

import (
	"errors"
	"log"
	"time"

	"connectly/backend/internal/models"

	"gorm.io/gorm"
)

// CreateCall inserts a new call row.
func (s *Service) CreateCall(call *models.Call) error {
	if err := s.DB.Create(call).Error; err != nil {
		log.Printf("ERROR: Failed to create call %s: %v", call.CallID, err)
		return wrapDB(err)
	}
	return nil
}

// TransitionCall writes the call's lifecycle fields only while the stored row
// is still active and in one of fromStatuses, and reports whether a row
// changed. Transitions race each other (ring timers against answer, decline
// and end); the guard in the WHERE clause means a stale snapshot can never
// overwrite a terminal state.
func (s *Service) TransitionCall(call *models.Call, fromStatuses []string) (bool, error) {
	res := s.DB.Model(&models.Call{}).
		Where("call_id = ? AND is_active = ? AND status IN ?", call.CallID, true, fromStatuses).
		Updates(map[string]any{
			"status":     call.Status,
			"end_time":   call.EndTime,
			"duration":   call.Duration,
			"end_reason": call.EndReason,
			"is_active":  call.IsActive,
		})
	if res.Error != nil {
		log.Printf("ERROR: Failed to transition call %s to %s: %v", call.CallID, call.Status, res.Error)
		return false, wrapDB(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetCallByCallID returns the call by its external token, or (nil, nil).
func (s *Service) GetCallByCallID(callID string) (*models.Call, error) {
	var call models.Call
	err := s.DB.First(&call, "call_id = ?", callID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDB(err)
	}
	return &call, nil
}

// GetActiveCallForUser returns the single active call involving the user,
// or (nil, nil) when there is none.
func (s *Service) GetActiveCallForUser(userID string) (*models.Call, error) {
	var call models.Call
	err := s.DB.
		Where("caller_id = ? OR receiver_id = ?", userID, userID).
		Where("status IN ?", []string{models.CallStatusInitiated, models.CallStatusRinging, models.CallStatusAnswered}).
		Where("is_active = ?", true).
		First(&call).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to find active call for user %s: %v", userID, err)
		return nil, wrapDB(err)
	}
	return &call, nil
}

// EndActiveCallsForUser transitions every active call involving the user to
// ended with the given reason and returns the affected calls so that peers
// can be notified.
func (s *Service) EndActiveCallsForUser(userID, reason string) ([]models.Call, error) {
	var calls []models.Call
	err := s.DB.
		Where("caller_id = ? OR receiver_id = ?", userID, userID).
		Where("status IN ?", []string{models.CallStatusInitiated, models.CallStatusRinging, models.CallStatusAnswered}).
		Where("is_active = ?", true).
		Find(&calls).Error
	if err != nil {
		return nil, wrapDB(err)
	}

	now := time.Now()
	ended := make([]models.Call, 0, len(calls))
	for i := range calls {
		calls[i].End(models.CallStatusEnded, reason, now)
		res := s.DB.Model(&models.Call{}).
			Where("call_id = ? AND is_active = ?", calls[i].CallID, true).
			Updates(map[string]any{
				"status":     calls[i].Status,
				"end_time":   calls[i].EndTime,
				"duration":   calls[i].Duration,
				"end_reason": calls[i].EndReason,
				"is_active":  false,
			})
		if res.Error != nil {
			log.Printf("ERROR: Failed to end call %s for user %s: %v", calls[i].CallID, userID, res.Error)
			return nil, wrapDB(res.Error)
		}
		// A call a timer finished in the meantime needs no notification.
		if res.RowsAffected > 0 {
			ended = append(ended, calls[i])
		}
	}
	return ended, nil
}

// GetCallHistory returns one page of the user's calls, newest start time
// first, optionally filtered by type and status.
func (s *Service) GetCallHistory(userID string, page, limit int, callType, status string) ([]models.Call, int64, error) {
	q := s.DB.Model(&models.Call{}).
		Where("caller_id = ? OR receiver_id = ?", userID, userID)
	if callType != "" {
		q = q.Where("type = ?", callType)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrapDB(err)
	}

	var calls []models.Call
	err := q.
		Order("start_time DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&calls).Error
	if err != nil {
		return nil, 0, wrapDB(err)
	}
	return calls, total, nil
}

// GetCallStats aggregates the user's call records in a single query.
func (s *Service) GetCallStats(userID string) (*models.CallStats, error) {
	rawSQL := `
        SELECT COUNT(*)                                        AS total_calls,
               COALESCE(SUM(duration), 0)                      AS total_duration,
               COUNT(*) FILTER (WHERE status = 'answered')     AS answered_calls,
               COUNT(*) FILTER (WHERE status = 'missed')       AS missed_calls,
               COUNT(*) FILTER (WHERE type = 'voice')          AS voice_calls,
               COUNT(*) FILTER (WHERE type = 'video')          AS video_calls
        FROM calls
        WHERE caller_id = ? OR receiver_id = ?
    `

	var stats models.CallStats
	if err := s.DB.Raw(rawSQL, userID, userID).Scan(&stats).Error; err != nil {
		log.Printf("ERROR: Failed to aggregate call stats for %s: %v", userID, err)
		return nil, wrapDB(err)
	}
	return &stats, nil
}
