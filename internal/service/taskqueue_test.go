package service

import (
	"testing"
	"time"

	"agentceo/internal/model"

	"gorm.io/gorm"
)

func createAgent(t *testing.T, db *gorm.DB, workspaceID uint, maxTasks int) *model.Agent {
	t.Helper()

	agent := model.Agent{
		Name:               "Test Agent",
		Type:               model.AgentOperations,
		MaxConcurrentTasks: maxTasks,
		Status:             model.AgentIdle,
		WorkspaceID:        workspaceID,
	}
	if err := db.Create(&agent).Error; err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}
	return &agent
}

func mustCreateTask(t *testing.T, q *TaskQueue, agentID, workspaceID uint, title string, priority model.TicketPriority) *model.AgentTask {
	t.Helper()

	task, err := q.CreateTask(CreateTaskInput{
		Title:       title,
		Type:        "analysis",
		Priority:    priority,
		AgentID:     agentID,
		WorkspaceID: workspaceID,
	})
	if err != nil {
		t.Fatalf("failed to create task %q: %v", title, err)
	}
	return task
}

func TestCreateTaskQueuesBeyondCapacity(t *testing.T) {
	db := newTestDB(t)
	agent := createAgent(t, db, 1, 2)
	q := NewTaskQueue(db)

	t1 := mustCreateTask(t, q, agent.ID, 1, "first", model.PriorityMedium)
	t2 := mustCreateTask(t, q, agent.ID, 1, "second", model.PriorityMedium)
	t3 := mustCreateTask(t, q, agent.ID, 1, "third", model.PriorityMedium)

	if t1.Status != model.TaskPending {
		t.Errorf("first task: expected pending, got %s", t1.Status)
	}
	if t2.Status != model.TaskPending {
		t.Errorf("second task: expected pending, got %s", t2.Status)
	}
	if t3.Status != model.TaskQueued {
		t.Errorf("third task: expected queued, got %s", t3.Status)
	}
}

func TestCreateTaskUnknownAgent(t *testing.T) {
	db := newTestDB(t)
	q := NewTaskQueue(db)

	_, err := q.CreateTask(CreateTaskInput{
		Title:       "orphan",
		Type:        "analysis",
		AgentID:     999,
		WorkspaceID: 1,
	})
	if err != ErrAgentNotFound {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestCreateTaskAgentInOtherWorkspace(t *testing.T) {
	db := newTestDB(t)
	agent := createAgent(t, db, 2, 3)
	q := NewTaskQueue(db)

	_, err := q.CreateTask(CreateTaskInput{
		Title:       "cross",
		Type:        "analysis",
		AgentID:     agent.ID,
		WorkspaceID: 1,
	})
	if err != ErrAgentNotFound {
		t.Fatalf("expected ErrAgentNotFound for cross-workspace agent, got %v", err)
	}
}

func TestCapacityGateExampleScenario(t *testing.T) {
	db := newTestDB(t)
	agent := createAgent(t, db, 1, 1)
	q := NewTaskQueue(db)

	t1 := mustCreateTask(t, q, agent.ID, 1, "T1", model.PriorityMedium)
	t2 := mustCreateTask(t, q, agent.ID, 1, "T2", model.PriorityMedium)

	if t1.Status != model.TaskPending {
		t.Fatalf("T1: expected pending, got %s", t1.Status)
	}
	if t2.Status != model.TaskQueued {
		t.Fatalf("T2: expected queued, got %s", t2.Status)
	}

	if _, err := q.UpdateTaskStatus(t1.ID, 1, model.TaskInProgress, nil); err != nil {
		t.Fatalf("failed to start T1: %v", err)
	}
	if _, err := q.UpdateTaskStatus(t1.ID, 1, model.TaskCompleted, nil); err != nil {
		t.Fatalf("failed to complete T1: %v", err)
	}

	var promoted model.AgentTask
	if err := db.First(&promoted, t2.ID).Error; err != nil {
		t.Fatalf("failed to reload T2: %v", err)
	}
	if promoted.Status != model.TaskPending {
		t.Errorf("T2: expected promotion to pending, got %s", promoted.Status)
	}

	// Agent must not go idle while work remains
	var reloaded model.Agent
	if err := db.First(&reloaded, agent.ID).Error; err != nil {
		t.Fatalf("failed to reload agent: %v", err)
	}
	if reloaded.Status == model.AgentIdle {
		t.Error("agent went idle with a promoted task outstanding")
	}

	// Drain the queue: completing T2 leaves nothing queued, agent goes idle
	if _, err := q.UpdateTaskStatus(t2.ID, 1, model.TaskInProgress, nil); err != nil {
		t.Fatalf("failed to start T2: %v", err)
	}
	if _, err := q.UpdateTaskStatus(t2.ID, 1, model.TaskCompleted, nil); err != nil {
		t.Fatalf("failed to complete T2: %v", err)
	}
	if err := db.First(&reloaded, agent.ID).Error; err != nil {
		t.Fatalf("failed to reload agent: %v", err)
	}
	if reloaded.Status != model.AgentIdle {
		t.Errorf("expected idle agent after draining, got %s", reloaded.Status)
	}
	if reloaded.TasksCompleted != 2 {
		t.Errorf("expected 2 completed tasks on agent, got %d", reloaded.TasksCompleted)
	}
}

func TestPromotionPrefersPriorityThenAge(t *testing.T) {
	db := newTestDB(t)
	agent := createAgent(t, db, 1, 1)
	q := NewTaskQueue(db)

	blocker := mustCreateTask(t, q, agent.ID, 1, "blocker", model.PriorityMedium)
	lowOld := mustCreateTask(t, q, agent.ID, 1, "low old", model.PriorityLow)
	urgentA := mustCreateTask(t, q, agent.ID, 1, "urgent A", model.PriorityUrgent)
	urgentB := mustCreateTask(t, q, agent.ID, 1, "urgent B", model.PriorityUrgent)

	// Force distinct ages: urgentA is strictly older than urgentB
	base := time.Now().Add(-time.Hour)
	for i, id := range []uint{lowOld.ID, urgentA.ID, urgentB.ID} {
		err := db.Model(&model.AgentTask{}).Where("id = ?", id).
			UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute)).Error
		if err != nil {
			t.Fatalf("failed to set created_at: %v", err)
		}
	}

	if _, err := q.UpdateTaskStatus(blocker.ID, 1, model.TaskCancelled, nil); err != nil {
		t.Fatalf("failed to cancel blocker: %v", err)
	}

	// Each reload uses a fresh struct: gorm folds a previously loaded
	// primary key into the next query's conditions otherwise.
	var promoted model.AgentTask
	if err := db.First(&promoted, urgentA.ID).Error; err != nil {
		t.Fatalf("failed to reload urgent A: %v", err)
	}
	if promoted.Status != model.TaskPending {
		t.Errorf("expected oldest urgent task promoted, got status %s", promoted.Status)
	}

	for _, id := range []uint{lowOld.ID, urgentB.ID} {
		var waiting model.AgentTask
		if err := db.First(&waiting, id).Error; err != nil {
			t.Fatalf("failed to reload task %d: %v", id, err)
		}
		if waiting.Status != model.TaskQueued {
			t.Errorf("task %d: expected still queued, got %s", id, waiting.Status)
		}
	}
}

func TestUpdateTaskStatusStampsTimes(t *testing.T) {
	db := newTestDB(t)
	agent := createAgent(t, db, 1, 3)
	q := NewTaskQueue(db)

	task := mustCreateTask(t, q, agent.ID, 1, "timed", model.PriorityHigh)

	started, err := q.UpdateTaskStatus(task.ID, 1, model.TaskInProgress, nil)
	if err != nil {
		t.Fatalf("failed to start task: %v", err)
	}
	if started.StartedAt == nil {
		t.Fatal("expected StartedAt to be stamped")
	}

	// Backdate the start so the rounded duration is deterministic: 125
	// seconds rounds to 2 minutes.
	backdated := time.Now().Add(-125 * time.Second)
	err = db.Model(&model.AgentTask{}).Where("id = ?", task.ID).
		UpdateColumn("started_at", backdated).Error
	if err != nil {
		t.Fatalf("failed to backdate start: %v", err)
	}

	done, err := q.UpdateTaskStatus(task.ID, 1, model.TaskCompleted, nil)
	if err != nil {
		t.Fatalf("failed to complete task: %v", err)
	}
	if done.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be stamped")
	}
	if done.ActualDuration == nil || *done.ActualDuration != 2 {
		t.Errorf("expected actual duration 2 minutes, got %v", done.ActualDuration)
	}
	if done.Progress != 100 {
		t.Errorf("expected progress 100 on completion, got %d", done.Progress)
	}
}

func TestUpdateTaskStatusKeepsFirstStart(t *testing.T) {
	db := newTestDB(t)
	agent := createAgent(t, db, 1, 3)
	q := NewTaskQueue(db)

	task := mustCreateTask(t, q, agent.ID, 1, "restarted", model.PriorityMedium)

	first, err := q.UpdateTaskStatus(task.ID, 1, model.TaskInProgress, nil)
	if err != nil {
		t.Fatalf("failed to start task: %v", err)
	}
	if _, err := q.UpdateTaskStatus(task.ID, 1, model.TaskPaused, nil); err != nil {
		t.Fatalf("failed to pause task: %v", err)
	}
	second, err := q.UpdateTaskStatus(task.ID, 1, model.TaskInProgress, nil)
	if err != nil {
		t.Fatalf("failed to resume task: %v", err)
	}

	if second.StartedAt == nil || !second.StartedAt.Equal(*first.StartedAt) {
		t.Errorf("expected StartedAt to survive resume, got %v then %v", first.StartedAt, second.StartedAt)
	}
}

func TestUpdateTaskStatusWorkspaceIsolation(t *testing.T) {
	db := newTestDB(t)
	agent := createAgent(t, db, 1, 3)
	q := NewTaskQueue(db)

	task := mustCreateTask(t, q, agent.ID, 1, "isolated", model.PriorityMedium)

	if _, err := q.UpdateTaskStatus(task.ID, 2, model.TaskCompleted, nil); err != ErrTaskNotFound {
		t.Fatalf("expected ErrTaskNotFound across workspaces, got %v", err)
	}
}

func TestUpdateTaskStatusRecordsFailure(t *testing.T) {
	db := newTestDB(t)
	agent := createAgent(t, db, 1, 3)
	q := NewTaskQueue(db)

	task := mustCreateTask(t, q, agent.ID, 1, "doomed", model.PriorityMedium)

	if _, err := q.UpdateTaskStatus(task.ID, 1, model.TaskInProgress, nil); err != nil {
		t.Fatalf("failed to start task: %v", err)
	}
	failed, err := q.UpdateTaskStatus(task.ID, 1, model.TaskFailed, &StatusUpdate{Error: "model timeout"})
	if err != nil {
		t.Fatalf("failed to fail task: %v", err)
	}

	if failed.Error != "model timeout" {
		t.Errorf("expected error message recorded, got %q", failed.Error)
	}
	if failed.CompletedAt == nil {
		t.Error("expected CompletedAt on failure")
	}

	var reloaded model.Agent
	if err := db.First(&reloaded, agent.ID).Error; err != nil {
		t.Fatalf("failed to reload agent: %v", err)
	}
	if reloaded.TasksCompleted != 0 {
		t.Errorf("failed task must not count as completed, got %d", reloaded.TasksCompleted)
	}
}

func TestRefreshAgentMetrics(t *testing.T) {
	db := newTestDB(t)
	agent := createAgent(t, db, 1, 3)

	executions := []model.TaskExecution{
		{TaskID: 1, AgentID: agent.ID, WorkspaceID: 1, Status: model.TaskCompleted, DurationMs: 2000, StartedAt: time.Now().Add(-3 * time.Minute)},
		{TaskID: 2, AgentID: agent.ID, WorkspaceID: 1, Status: model.TaskCompleted, DurationMs: 4000, StartedAt: time.Now().Add(-2 * time.Minute)},
		{TaskID: 3, AgentID: agent.ID, WorkspaceID: 1, Status: model.TaskFailed, DurationMs: 6000, StartedAt: time.Now().Add(-1 * time.Minute)},
	}
	for i := range executions {
		if err := db.Create(&executions[i]).Error; err != nil {
			t.Fatalf("failed to create execution: %v", err)
		}
	}

	if err := RefreshAgentMetrics(db, agent.ID); err != nil {
		t.Fatalf("failed to refresh metrics: %v", err)
	}

	var reloaded model.Agent
	if err := db.First(&reloaded, agent.ID).Error; err != nil {
		t.Fatalf("failed to reload agent: %v", err)
	}
	if reloaded.SuccessRate != 66.67 {
		t.Errorf("expected success rate 66.67, got %v", reloaded.SuccessRate)
	}
	if reloaded.AvgResponseTime != 4 {
		t.Errorf("expected avg response time 4s, got %v", reloaded.AvgResponseTime)
	}
	if reloaded.LastActiveAt == nil {
		t.Error("expected LastActiveAt to be stamped")
	}
}
