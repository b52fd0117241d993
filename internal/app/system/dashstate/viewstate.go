// internal/app/system/dashstate/viewstate.go
package dashstate

// LoadFailedMessage is published when any counter of a load cycle fails.
const LoadFailedMessage = "Failed to load dashboard data. Please try again."

// Counts holds one complete set of dashboard counters from a single cycle.
type Counts struct {
	MyGroups          int64
	ActiveAssignments int64
	NewMessages       int64
	TotalTasks        int64
	CompletedTasks    int64
	OverdueTasks      int64
}

// ViewState is the published dashboard snapshot. It is a plain value:
// every update builds a new one and replaces the previous wholesale.
//
// ErrorMessage is non-empty only when IsLoading is false.
type ViewState struct {
	IsLoading    bool   `json:"is_loading"`
	ErrorMessage string `json:"error_message,omitempty"`

	MyGroupsCount          int64 `json:"my_groups_count"`
	ActiveAssignmentsCount int64 `json:"active_assignments_count"`
	NewMessagesCount       int64 `json:"new_messages_count"`
	TotalTasksCount        int64 `json:"total_tasks_count"`
	CompletedTasksCount    int64 `json:"completed_tasks_count"`
	OverdueTasksCount      int64 `json:"overdue_tasks_count"`
}

// InitialState is the state of a freshly constructed Aggregator.
func InitialState() ViewState {
	return ViewState{IsLoading: true}
}

// Counts returns the six counters of s.
func (s ViewState) Counts() Counts {
	return Counts{
		MyGroups:          s.MyGroupsCount,
		ActiveAssignments: s.ActiveAssignmentsCount,
		NewMessages:       s.NewMessagesCount,
		TotalTasks:        s.TotalTasksCount,
		CompletedTasks:    s.CompletedTasksCount,
		OverdueTasks:      s.OverdueTasksCount,
	}
}

func (s ViewState) loading() ViewState {
	s.IsLoading = true
	s.ErrorMessage = ""
	return s
}

func (s ViewState) succeeded(c Counts) ViewState {
	return ViewState{
		MyGroupsCount:          c.MyGroups,
		ActiveAssignmentsCount: c.ActiveAssignments,
		NewMessagesCount:       c.NewMessages,
		TotalTasksCount:        c.TotalTasks,
		CompletedTasksCount:    c.CompletedTasks,
		OverdueTasksCount:      c.OverdueTasks,
	}
}

// failed keeps the counters of s untouched.
func (s ViewState) failed() ViewState {
	s.IsLoading = false
	s.ErrorMessage = LoadFailedMessage
	return s
}

// settled ends loading without touching counters or the error message.
func (s ViewState) settled() ViewState {
	s.IsLoading = false
	return s
}

func (s ViewState) withoutError() ViewState {
	s.ErrorMessage = ""
	return s
}
