package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	sessionsTable    = "sessions"
	taskResultsTable = "task_results"
	mistakesTable    = "mistakes"
	llmRequestsTable = "llm_requests"
)

var (
	sessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "module", Type: field.TypeString},
		{Name: "reason", Type: field.TypeString},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "ended_at", Type: field.TypeTime},
		{Name: "elapsed_ms", Type: field.TypeInt64, Default: 0},
		{Name: "score", Type: field.TypeInt, Default: 0},
		{Name: "max_score", Type: field.TypeInt, Default: 0},
		{Name: "percentage", Type: field.TypeFloat64, Default: 0},
		{Name: "passed", Type: field.TypeBool, Default: false},
		{Name: "report", Type: field.TypeString, Size: 2147483647},
		{Name: "debrief", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	sessionsTableDef = &schema.Table{
		Name:       sessionsTable,
		Columns:    sessionsColumns,
		PrimaryKey: []*schema.Column{sessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_module", Columns: []*schema.Column{sessionsColumns[2]}},
			{Name: "session_started_at", Columns: []*schema.Column{sessionsColumns[4]}},
		},
	}

	taskResultsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "session_id", Type: field.TypeString, Size: 36},
		{Name: "position", Type: field.TypeInt},
		{Name: "task", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "score", Type: field.TypeInt},
		{Name: "max_score", Type: field.TypeInt},
		{Name: "attempted", Type: field.TypeBool},
		{Name: "skipped", Type: field.TypeBool},
		{Name: "units_done", Type: field.TypeInt},
		{Name: "units_total", Type: field.TypeInt},
	}
	taskResultsTableDef = &schema.Table{
		Name:       taskResultsTable,
		Columns:    taskResultsColumns,
		PrimaryKey: []*schema.Column{taskResultsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "task_results_sessions_tasks",
				Columns:    []*schema.Column{taskResultsColumns[1]},
				RefColumns: []*schema.Column{sessionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "taskresult_session_id_position", Unique: true, Columns: []*schema.Column{taskResultsColumns[1], taskResultsColumns[2]}},
		},
	}

	mistakesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "session_id", Type: field.TypeString, Size: 36},
		{Name: "task", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt},
		{Name: "description", Type: field.TypeString},
		{Name: "deduction", Type: field.TypeInt},
		{Name: "tip", Type: field.TypeString, Default: ""},
	}
	mistakesTableDef = &schema.Table{
		Name:       mistakesTable,
		Columns:    mistakesColumns,
		PrimaryKey: []*schema.Column{mistakesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "mistakes_sessions_mistakes",
				Columns:    []*schema.Column{mistakesColumns[1]},
				RefColumns: []*schema.Column{sessionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "mistake_description", Columns: []*schema.Column{mistakesColumns[4]}},
		},
	}

	llmRequestsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "cost_usd", Type: field.TypeFloat64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmRequestsTableDef = &schema.Table{
		Name:       llmRequestsTable,
		Columns:    llmRequestsColumns,
		PrimaryKey: []*schema.Column{llmRequestsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequest_purpose", Columns: []*schema.Column{llmRequestsColumns[6]}},
			{Name: "llmrequest_model", Columns: []*schema.Column{llmRequestsColumns[5]}},
		},
	}

	tables = []*schema.Table{
		sessionsTableDef,
		taskResultsTableDef,
		mistakesTableDef,
		llmRequestsTableDef,
	}
)

func init() {
	taskResultsTableDef.ForeignKeys[0].RefTable = sessionsTableDef
	mistakesTableDef.ForeignKeys[0].RefTable = sessionsTableDef
}

// migrate creates or updates every table.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
