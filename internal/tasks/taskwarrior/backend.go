package taskwarrior

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pdxmph/phonebook/internal/tasks"
)

// taskwarrior's export timestamp layout
const exportLayout = "20060102T150405Z"

// taskWarriorTask represents a TaskWarrior task in its native format
type taskWarriorTask struct {
	ID          int      `json:"id"`
	UUID        string   `json:"uuid"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	Entry       string   `json:"entry"`
	Due         string   `json:"due,omitempty"`
}

// Backend implements the tasks.Backend interface for TaskWarrior
type Backend struct {
	bin     string
	enabled bool
}

// NewBackend creates a new TaskWarrior backend using the task binary on PATH
func NewBackend() tasks.Backend {
	return NewBackendWithBinary("task")
}

// NewBackendWithBinary creates a backend that runs bin instead of "task"
func NewBackendWithBinary(bin string) *Backend {
	return &Backend{
		bin:     bin,
		enabled: isTaskWarriorAvailable(bin),
	}
}

// Name returns the backend identifier
func (b *Backend) Name() string {
	return "taskwarrior"
}

// IsEnabled returns whether TaskWarrior integration is available
func (b *Backend) IsEnabled() bool {
	return b.enabled
}

// CreateReminder adds a pending TaskWarrior task
func (b *Backend) CreateReminder(description, tag string, due time.Time) error {
	if !b.enabled {
		return fmt.Errorf("TaskWarrior not available")
	}

	cmd := exec.Command(b.bin, addArgs(description, tag, due)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("creating task: %w (output: %s)", err, string(output))
	}

	return nil
}

// PendingReminders retrieves pending tasks carrying tag
func (b *Backend) PendingReminders(tag string) ([]tasks.Task, error) {
	if !b.enabled {
		return nil, fmt.Errorf("TaskWarrior not available")
	}

	// Filter goes before the export command
	args := []string{"tag:" + tag, "status:pending", "export"}

	cmd := exec.Command(b.bin, args...)
	output, err := cmd.Output()
	if err != nil {
		// If no tasks found, return empty slice
		if strings.Contains(string(output), "No matching tasks") {
			return []tasks.Task{}, nil
		}
		return nil, fmt.Errorf("getting tasks with command '%s %s': %w", b.bin, strings.Join(args, " "), err)
	}

	return parseExport(output)
}

// addArgs builds the arguments for "task add"
func addArgs(description, tag string, due time.Time) []string {
	tag = strings.TrimPrefix(tag, "+")
	return []string{"add", description, "+" + tag, "due:" + due.Format("2006-01-02")}
}

// parseExport converts "task export" JSON into generic tasks
func parseExport(output []byte) ([]tasks.Task, error) {
	var twTasks []taskWarriorTask
	if len(strings.TrimSpace(string(output))) > 0 {
		if err := json.Unmarshal(output, &twTasks); err != nil {
			return nil, fmt.Errorf("parsing task JSON: %w", err)
		}
	}

	genericTasks := make([]tasks.Task, len(twTasks))
	for i, twTask := range twTasks {
		genericTasks[i] = convertToGenericTask(twTask)
	}
	return genericTasks, nil
}

// convertToGenericTask converts a TaskWarrior task to the generic Task type
func convertToGenericTask(twTask taskWarriorTask) tasks.Task {
	task := tasks.Task{
		ID:          twTask.UUID, // Use UUID as the ID for better stability
		Description: twTask.Description,
		Status:      twTask.Status,
		Tags:        twTask.Tags,
	}

	if t, ok := parseTimestamp(twTask.Entry); ok {
		task.Created = t
	}
	if t, ok := parseTimestamp(twTask.Due); ok {
		task.Due = &t
	}

	return task
}

// parseTimestamp accepts taskwarrior's compact export format and RFC 3339
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{exportLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isTaskWarriorAvailable checks if TaskWarrior is installed and configured
func isTaskWarriorAvailable(bin string) bool {
	cmd := exec.Command(bin, "version")
	err := cmd.Run()
	return err == nil
}

// Register the TaskWarrior backend
func init() {
	tasks.Register("taskwarrior", func() tasks.Backend { return NewBackend() })
}
