package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Run end reasons
const (
	EndReasonReset    = "reset"
	EndReasonQuit     = "quit"
	EndReasonShutdown = "shutdown"
	EndReasonCorrupt  = "corrupt"
)

// Run is one rack on a table, from reset to the next reset or quit.
type Run struct {
	ID          string         `db:"id" json:"id"`
	TableID     string         `db:"table_id" json:"table_id"`
	Seed        sql.NullInt64  `db:"seed" json:"seed,omitempty"`
	BreakAngle  float64        `db:"break_angle" json:"break_angle"`
	BreakSpeed  float64        `db:"break_speed" json:"break_speed"`
	CueX        float64        `db:"cue_x" json:"cue_x"`
	CueY        float64        `db:"cue_y" json:"cue_y"`
	Pocketed    int            `db:"pocketed" json:"pocketed"`
	EndReason   sql.NullString `db:"end_reason" json:"end_reason,omitempty"`
	SettledTick sql.NullInt64  `db:"settled_tick" json:"settled_tick,omitempty"`
	StartedAt   time.Time      `db:"started_at" json:"started_at"`
	SettledAt   sql.NullTime   `db:"settled_at" json:"settled_at,omitempty"`
	FinishedAt  sql.NullTime   `db:"finished_at" json:"finished_at,omitempty"`
}

// RunCapture is a ball dropped during a run.
type RunCapture struct {
	ID        int       `db:"id" json:"id"`
	RunID     string    `db:"run_id" json:"run_id"`
	Ball      int       `db:"ball" json:"ball"`
	BallKind  string    `db:"ball_kind" json:"ball_kind"`
	Pocket    int       `db:"pocket" json:"pocket"`
	Tick      int64     `db:"tick" json:"tick"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OperatorAccount may issue table commands.
type OperatorAccount struct {
	Name        string         `db:"name" json:"name"`
	DisplayName string         `db:"display_name" json:"display_name"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Tables      pq.StringArray `db:"tables" json:"tables"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// CanOperate reports whether the operator may command tableID. An empty table
// list grants every table.
func (o *OperatorAccount) CanOperate(tableID string) bool {
	if len(o.Tables) == 0 {
		return true
	}
	for _, t := range o.Tables {
		if t == tableID || t == "*" {
			return true
		}
	}
	return false
}

// OperatorAudit records a command issued by an operator.
type OperatorAudit struct {
	ID        int       `db:"id" json:"id"`
	Operator  string    `db:"operator" json:"operator"`
	TableID   string    `db:"table_id" json:"table_id"`
	Command   string    `db:"command" json:"command"`
	Source    string    `db:"source" json:"source"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
