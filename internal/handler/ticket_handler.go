package handler

import (
	"net/http"
	"strconv"
	"time"

	"agentceo/internal/model"
	"agentceo/internal/service"
	"agentceo/pkg/database"
	"agentceo/pkg/logger"
	"agentceo/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListTickets retrieves workspace tickets, newest first, with optional filters
func ListTickets(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	query := database.GetDB().Where("workspace_id = ?", claims.WorkspaceID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if businessID := c.QueryParam("business_id"); businessID != "" {
		query = query.Where("business_id = ?", businessID)
	}
	if assigneeID := c.QueryParam("assignee_id"); assigneeID != "" {
		query = query.Where("assignee_id = ?", assigneeID)
	}

	var tickets []model.Ticket
	if result := query.Preload("Business").Order("created_at DESC").Find(&tickets); result.Error != nil {
		log.Error("Failed to retrieve tickets", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tickets"})
	}

	return c.JSON(http.StatusOK, tickets)
}

// ListMyTickets retrieves tickets assigned to the caller
func ListMyTickets(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	var tickets []model.Ticket
	result := database.GetDB().
		Where("workspace_id = ? AND assignee_id = ?", claims.WorkspaceID, claims.UserID).
		Preload("Business").
		Order("created_at DESC").
		Find(&tickets)
	if result.Error != nil {
		log.Error("Failed to retrieve assigned tickets", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tickets"})
	}

	return c.JSON(http.StatusOK, tickets)
}

// GetTicket retrieves one ticket with its comments in chronological order
func GetTicket(c echo.Context) error {
	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket ID"})
	}

	var ticket model.Ticket
	result := database.GetDB().
		Preload("Business").
		Preload("Contact").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).
		First(&ticket)
	if result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("ticket")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	}

	return c.JSON(http.StatusOK, ticket)
}

// CreateTicket creates a ticket and tries to link it to a known business.
// Only a high-confidence match links automatically; anything weaker is
// surfaced to the caller for review.
func CreateTicket(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	var req struct {
		Title                string     `json:"title"`
		Description          string     `json:"description"`
		Priority             string     `json:"priority"`
		SubmitterName        string     `json:"submitter_name"`
		SubmitterEmail       string     `json:"submitter_email"`
		SubmittedCompanyName string     `json:"submitted_company_name"`
		BusinessID           *uint      `json:"business_id"`
		AssigneeID           *uint      `json:"assignee_id"`
		DueDate              *time.Time `json:"due_date"`
		EstimatedTime        *int       `json:"estimated_time"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse ticket creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	db := database.GetDB()

	if req.AssigneeID != nil {
		var count int64
		db.Model(&model.User{}).
			Where("id = ? AND workspace_id = ?", *req.AssigneeID, claims.WorkspaceID).
			Count(&count)
		if count == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "assignee not found in workspace"})
		}
	}

	if req.BusinessID != nil {
		var count int64
		db.Model(&model.Business{}).
			Where("id = ? AND workspace_id = ?", *req.BusinessID, claims.WorkspaceID).
			Count(&count)
		if count == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "business not found in workspace"})
		}
	}

	priority := model.TicketPriority(req.Priority)
	if priority == "" {
		priority = model.PriorityMedium
	}

	ticket := model.Ticket{
		Title:                req.Title,
		Description:          req.Description,
		Priority:             priority,
		SubmitterName:        req.SubmitterName,
		SubmitterEmail:       req.SubmitterEmail,
		SubmittedCompanyName: req.SubmittedCompanyName,
		BusinessID:           req.BusinessID,
		AssigneeID:           req.AssigneeID,
		CreatorID:            claims.UserID,
		WorkspaceID:          claims.WorkspaceID,
		DueDate:              req.DueDate,
		EstimatedTime:        req.EstimatedTime,
		Status:               model.TicketUnassigned,
	}

	var match *service.BusinessMatch
	if ticket.BusinessID == nil {
		match, err = service.ResolveBusinessMatch(db, req.SubmitterEmail, req.SubmittedCompanyName, claims.WorkspaceID)
		if err != nil {
			log.Error("Business match lookup failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ticket creation failed"})
		}
		if match != nil {
			prometheus.RecordBusinessMatch(string(match.Confidence))
			if match.Confidence == service.MatchHigh {
				ticket.BusinessID = match.BusinessID
			}
		} else {
			prometheus.RecordBusinessMatch("none")
		}
	}

	if ticket.AssigneeID != nil || ticket.BusinessID != nil {
		ticket.Status = model.TicketOpen
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := db.Create(&ticket); result.Error != nil {
		log.Error("Failed to create ticket", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ticket creation failed"})
	}
	prometheus.RecordTicketOperation("create")

	log.Info("Ticket created",
		zap.Uint("id", ticket.ID),
		zap.String("status", string(ticket.Status)),
		zap.Uint("workspace_id", claims.WorkspaceID))

	response := echo.Map{
		"message":         "ticket created successfully",
		"ticket":          ticket,
		"requires_review": ticket.BusinessID == nil,
	}
	if match != nil && match.Confidence != service.MatchHigh {
		response["possible_matches"] = match
	}

	return c.JSON(http.StatusCreated, response)
}

// UpdateTicket patches ticket fields after workspace verification
func UpdateTicket(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket ID"})
	}

	db := database.GetDB()

	var ticket model.Ticket
	result := db.Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&ticket)
	if result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("ticket")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	}

	var req struct {
		Title         *string    `json:"title"`
		Description   *string    `json:"description"`
		Status        *string    `json:"status"`
		Priority      *string    `json:"priority"`
		BusinessID    *uint      `json:"business_id"`
		AssigneeID    *uint      `json:"assignee_id"`
		DueDate       *time.Time `json:"due_date"`
		EstimatedTime *int       `json:"estimated_time"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.EstimatedTime != nil {
		updates["estimated_time"] = *req.EstimatedTime
	}
	if req.BusinessID != nil {
		var count int64
		db.Model(&model.Business{}).
			Where("id = ? AND workspace_id = ?", *req.BusinessID, claims.WorkspaceID).
			Count(&count)
		if count == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "business not found in workspace"})
		}
		updates["business_id"] = *req.BusinessID
	}
	if req.AssigneeID != nil {
		var count int64
		db.Model(&model.User{}).
			Where("id = ? AND workspace_id = ?", *req.AssigneeID, claims.WorkspaceID).
			Count(&count)
		if count == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "assignee not found in workspace"})
		}
		updates["assignee_id"] = *req.AssigneeID
	}
	if req.Status != nil {
		newStatus := model.TicketStatus(*req.Status)
		updates["status"] = newStatus
		if newStatus.IsTerminal() && ticket.ResolvedAt == nil {
			now := time.Now()
			updates["resolved_at"] = &now
		}
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no updatable fields provided"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := db.Model(&ticket).Updates(updates); result.Error != nil {
		log.Error("Failed to update ticket", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ticket update failed"})
	}
	prometheus.RecordTicketOperation("update")

	return c.JSON(http.StatusOK, echo.Map{
		"message": "ticket updated successfully",
		"ticket":  ticket,
	})
}

// AssignTicket sets the assignee. An unassigned ticket moves to open.
func AssignTicket(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket ID"})
	}

	var req struct {
		AssigneeID uint `json:"assignee_id"`
	}
	if err := c.Bind(&req); err != nil || req.AssigneeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "assignee_id is required"})
	}

	db := database.GetDB()

	var ticket model.Ticket
	if result := db.Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&ticket); result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("ticket")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	}

	var count int64
	db.Model(&model.User{}).
		Where("id = ? AND workspace_id = ?", req.AssigneeID, claims.WorkspaceID).
		Count(&count)
	if count == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "assignee not found in workspace"})
	}

	updates := map[string]interface{}{"assignee_id": req.AssigneeID}
	if ticket.Status == model.TicketUnassigned {
		updates["status"] = model.TicketOpen
	}

	if result := db.Model(&ticket).Updates(updates); result.Error != nil {
		log.Error("Failed to assign ticket", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ticket assignment failed"})
	}
	prometheus.RecordTicketOperation("assign")

	return c.JSON(http.StatusOK, echo.Map{
		"message": "ticket assigned successfully",
		"ticket":  ticket,
	})
}

// UpdateTicketStatus changes only the status, stamping ResolvedAt on the
// first transition into a terminal state
func UpdateTicketStatus(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket ID"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	db := database.GetDB()

	var ticket model.Ticket
	if result := db.Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&ticket); result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("ticket")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	}

	newStatus := model.TicketStatus(req.Status)
	updates := map[string]interface{}{"status": newStatus}
	if newStatus.IsTerminal() && ticket.ResolvedAt == nil {
		now := time.Now()
		updates["resolved_at"] = &now
	}

	if result := db.Model(&ticket).Updates(updates); result.Error != nil {
		log.Error("Failed to update ticket status", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status update failed"})
	}
	prometheus.RecordTicketOperation("status_change")

	return c.JSON(http.StatusOK, echo.Map{
		"message": "ticket status updated",
		"ticket":  ticket,
	})
}

// AddTicketComment appends a comment to a ticket
func AddTicketComment(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket ID"})
	}

	var req struct {
		Content    string `json:"content"`
		IsInternal bool   `json:"is_internal"`
	}
	if err := c.Bind(&req); err != nil || req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content is required"})
	}

	db := database.GetDB()

	var ticket model.Ticket
	if result := db.Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&ticket); result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("ticket")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	}

	comment := model.TicketComment{
		Content:    req.Content,
		IsInternal: req.IsInternal,
		AuthorID:   claims.UserID,
		TicketID:   ticket.ID,
	}
	if result := db.Create(&comment); result.Error != nil {
		log.Error("Failed to create ticket comment", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "comment creation failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "comment added",
		"comment": comment,
	})
}

// DeleteTicket removes a ticket after workspace verification
func DeleteTicket(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket ID"})
	}

	db := database.GetDB()

	var ticket model.Ticket
	if result := db.Where("id = ? AND workspace_id = ?", id, claims.WorkspaceID).First(&ticket); result.Error != nil {
		prometheus.RecordCrossWorkspaceDenied("ticket")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	}

	if result := db.Delete(&ticket); result.Error != nil {
		log.Error("Failed to delete ticket", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ticket deletion failed"})
	}
	prometheus.RecordTicketOperation("delete")

	return c.JSON(http.StatusOK, echo.Map{"message": "ticket deleted successfully"})
}

// BulkDeleteTickets removes several tickets, reporting IDs that were skipped
// because they do not exist in the caller's workspace
func BulkDeleteTickets(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	var req struct {
		IDs []uint `json:"ids"`
	}
	if err := c.Bind(&req); err != nil || len(req.IDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ids are required"})
	}

	db := database.GetDB()

	var owned []uint
	db.Model(&model.Ticket{}).
		Where("id IN ? AND workspace_id = ?", req.IDs, claims.WorkspaceID).
		Pluck("id", &owned)

	ownedSet := make(map[uint]bool, len(owned))
	for _, id := range owned {
		ownedSet[id] = true
	}
	var skipped []uint
	for _, id := range req.IDs {
		if !ownedSet[id] {
			skipped = append(skipped, id)
		}
	}

	if len(owned) > 0 {
		if result := db.Where("id IN ?", owned).Delete(&model.Ticket{}); result.Error != nil {
			log.Error("Failed to bulk delete tickets", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bulk deletion failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "tickets deleted",
		"deleted": len(owned),
		"skipped": skipped,
	})
}

// statusDistribution is one row of the status × priority grid
type statusDistribution struct {
	Status string `json:"status"`
	Low    int64  `json:"low"`
	Medium int64  `json:"medium"`
	High   int64  `json:"high"`
	Urgent int64  `json:"urgent"`
	Total  int64  `json:"total"`
}

// TicketDistribution reports ticket counts grouped by status and by priority,
// plus the full status × priority grid
func TicketDistribution(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	db := database.GetDB()

	type cell struct {
		Status   string
		Priority string
		Count    int64
	}
	var cells []cell
	err = db.Model(&model.Ticket{}).
		Select("status, priority, COUNT(*) AS count").
		Where("workspace_id = ?", claims.WorkspaceID).
		Group("status, priority").
		Scan(&cells).Error
	if err != nil {
		log.Error("Failed to compute ticket distribution", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats query failed"})
	}

	statusCounts := echo.Map{}
	priorityCounts := echo.Map{}
	gridByStatus := map[string]*statusDistribution{}
	var statusOrder []string
	var total int64

	for _, cl := range cells {
		row, ok := gridByStatus[cl.Status]
		if !ok {
			row = &statusDistribution{Status: cl.Status}
			gridByStatus[cl.Status] = row
			statusOrder = append(statusOrder, cl.Status)
		}
		switch model.TicketPriority(cl.Priority) {
		case model.PriorityLow:
			row.Low += cl.Count
		case model.PriorityMedium:
			row.Medium += cl.Count
		case model.PriorityHigh:
			row.High += cl.Count
		case model.PriorityUrgent:
			row.Urgent += cl.Count
		}
		row.Total += cl.Count
		total += cl.Count

		if prev, ok := statusCounts[cl.Status].(int64); ok {
			statusCounts[cl.Status] = prev + cl.Count
		} else {
			statusCounts[cl.Status] = cl.Count
		}
		if prev, ok := priorityCounts[cl.Priority].(int64); ok {
			priorityCounts[cl.Priority] = prev + cl.Count
		} else {
			priorityCounts[cl.Priority] = cl.Count
		}
	}

	distribution := make([]statusDistribution, 0, len(statusOrder))
	for _, status := range statusOrder {
		distribution = append(distribution, *gridByStatus[status])
	}

	return c.JSON(http.StatusOK, echo.Map{
		"distribution":  distribution,
		"by_status":     statusCounts,
		"by_priority":   priorityCounts,
		"total_tickets": total,
	})
}

// SupportStats summarizes open workload and resolution speed for the workspace
func SupportStats(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	db := database.GetDB()
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)
	threeDaysAhead := now.AddDate(0, 0, 3)

	openStatuses := []model.TicketStatus{model.TicketUnassigned, model.TicketOpen, model.TicketInProgress}
	base := func() *gorm.DB {
		return db.Model(&model.Ticket{}).Where("workspace_id = ?", claims.WorkspaceID)
	}

	var open, overdue, dueSoon, highPriority, resolvedLastWeek, total, resolved int64
	base().Where("status IN ?", openStatuses).Count(&open)
	base().Where("status IN ? AND due_date < ?", openStatuses, now).Count(&overdue)
	base().Where("status IN ? AND due_date BETWEEN ? AND ?", openStatuses, now, threeDaysAhead).Count(&dueSoon)
	base().Where("status IN ? AND priority IN ?", openStatuses,
		[]model.TicketPriority{model.PriorityHigh, model.PriorityUrgent}).Count(&highPriority)
	base().Where("resolved_at >= ?", weekAgo).Count(&resolvedLastWeek)
	base().Count(&total)
	base().Where("resolved_at IS NOT NULL").Count(&resolved)

	// Resolution time averaged over resolved tickets, in hours
	type resolvedRow struct {
		CreatedAt  time.Time
		ResolvedAt time.Time
	}
	var resolvedRows []resolvedRow
	err = base().Select("created_at", "resolved_at").
		Where("resolved_at IS NOT NULL").
		Scan(&resolvedRows).Error
	if err != nil {
		log.Error("Failed to load resolved tickets", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats query failed"})
	}

	var avgResolutionHours float64
	if len(resolvedRows) > 0 {
		var totalHours float64
		for _, r := range resolvedRows {
			totalHours += r.ResolvedAt.Sub(r.CreatedAt).Hours()
		}
		avgResolutionHours = roundTo(totalHours/float64(len(resolvedRows)), 1)
	}

	// First response approximated by the earliest comment on each ticket
	type responseRow struct {
		TicketCreated time.Time
		FirstComment  time.Time
	}
	var responseRows []responseRow
	err = db.Model(&model.TicketComment{}).
		Select("tickets.created_at AS ticket_created, MIN(ticket_comments.created_at) AS first_comment").
		Joins("JOIN tickets ON tickets.id = ticket_comments.ticket_id").
		Where("tickets.workspace_id = ?", claims.WorkspaceID).
		Group("ticket_comments.ticket_id, tickets.created_at").
		Scan(&responseRows).Error
	if err != nil {
		log.Error("Failed to load first responses", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats query failed"})
	}

	var avgFirstResponseHours float64
	if len(responseRows) > 0 {
		var totalHours float64
		for _, r := range responseRows {
			totalHours += r.FirstComment.Sub(r.TicketCreated).Hours()
		}
		avgFirstResponseHours = roundTo(totalHours/float64(len(responseRows)), 1)
	}

	var resolutionRate float64
	if total > 0 {
		resolutionRate = roundTo(float64(resolved)/float64(total)*100, 1)
	}

	var urgentUpcoming []model.Ticket
	db.Where("workspace_id = ? AND status IN ? AND priority = ? AND due_date IS NOT NULL",
		claims.WorkspaceID, openStatuses, model.PriorityUrgent).
		Order("due_date ASC").
		Limit(3).
		Find(&urgentUpcoming)

	return c.JSON(http.StatusOK, echo.Map{
		"open_tickets":             open,
		"overdue_tickets":          overdue,
		"due_soon_tickets":         dueSoon,
		"high_priority_tickets":    highPriority,
		"resolved_last_week":       resolvedLastWeek,
		"avg_first_response_hours": avgFirstResponseHours,
		"avg_resolution_hours":     avgResolutionHours,
		"resolution_rate":          resolutionRate,
		"urgent_upcoming":          urgentUpcoming,
	})
}

func roundTo(v float64, places int) float64 {
	factor := 1.0
	for i := 0; i < places; i++ {
		factor *= 10
	}
	return float64(int64(v*factor+0.5)) / factor
}
