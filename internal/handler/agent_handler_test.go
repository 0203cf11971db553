package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"agentceo/internal/model"
	"agentceo/prometheus"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestListAgentsReportsActiveCountAndQueueDepth(t *testing.T) {
	db := setupHandlerTest(t)

	agent := model.Agent{Name: "Ops", Type: model.AgentOperations, MaxConcurrentTasks: 1, Status: model.AgentActive, WorkspaceID: 1}
	if err := db.Create(&agent).Error; err != nil {
		t.Fatalf("failed to seed agent: %v", err)
	}

	statuses := []model.TaskStatus{
		model.TaskPending,
		model.TaskInProgress,
		model.TaskQueued,
		model.TaskQueued,
		model.TaskCompleted,
	}
	for i, status := range statuses {
		task := model.AgentTask{
			Title:       fmt.Sprintf("task %d", i),
			Type:        "analysis",
			Status:      status,
			AgentID:     agent.ID,
			WorkspaceID: 1,
		}
		if err := db.Create(&task).Error; err != nil {
			t.Fatalf("failed to seed task: %v", err)
		}
	}

	c, rec := authedRequest(t, http.MethodGet, "/agents", "", 1, 10)

	if err := ListAgents(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(body))
	}

	// Active covers queued+pending+in_progress; completed does not count
	if body[0]["active_tasks"] != float64(3) {
		t.Errorf("expected 3 active tasks, got %v", body[0]["active_tasks"])
	}

	// The gauge tracks only tasks still waiting in the queue
	depth := testutil.ToFloat64(prometheus.QueueDepthGauge.WithLabelValues(fmt.Sprintf("%d", agent.ID)))
	if depth != 2 {
		t.Errorf("expected queue depth 2, got %v", depth)
	}
}
