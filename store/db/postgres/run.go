package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/store"
)

func (d *DB) CreateRun(ctx context.Context, create *store.Run) (*store.Run, error) {
	requestJSON, err := marshalNullable(create.Request)
	if err != nil {
		return nil, err
	}
	timingsJSON, err := marshalNullable(create.StageTimings)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	status := create.Status
	if status == "" {
		status = store.RunStatusRunning
	}

	query := `
		INSERT INTO run (trace_id, status, request_text, request, candidates, stage_timings, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, query,
		create.TraceID, string(status), create.RequestText, requestJSON, create.Candidates, timingsJSON, now, now,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to insert run")
	}

	create.Status = status
	create.CreatedTs = now
	create.UpdatedTs = now
	return create, nil
}

func (d *DB) UpdateRun(ctx context.Context, update *store.UpdateRun) error {
	set, args := []string{"updated_ts = $1"}, []any{time.Now().Unix()}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Status != nil {
		add("status", string(*update.Status))
	}
	if update.Request != nil {
		requestJSON, err := marshalNullable(update.Request)
		if err != nil {
			return err
		}
		add("request", requestJSON)
	}
	if update.Candidates != nil {
		add("candidates", *update.Candidates)
	}
	if update.Decision != nil {
		decisionJSON, err := marshalNullable(update.Decision)
		if err != nil {
			return err
		}
		add("decision", decisionJSON)
	}
	if update.Order != nil {
		orderJSON, err := marshalNullable(update.Order)
		if err != nil {
			return err
		}
		add("order_result", orderJSON)
	}
	if update.ErrorMessage != nil {
		add("error_message", *update.ErrorMessage)
	}
	if update.StageTimings != nil {
		timingsJSON, err := marshalNullable(update.StageTimings)
		if err != nil {
			return err
		}
		add("stage_timings", timingsJSON)
	}

	args = append(args, update.TraceID)
	query := fmt.Sprintf("UPDATE run SET %s WHERE trace_id = $%d", strings.Join(set, ", "), len(args))
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "failed to update run %s", update.TraceID)
	}
	return nil
}

func (d *DB) GetRun(ctx context.Context, traceID string) (*store.Run, error) {
	runs, err := d.ListRuns(ctx, &store.FindRun{TraceID: &traceID})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

func (d *DB) ListRuns(ctx context.Context, find *store.FindRun) ([]*store.Run, error) {
	where, args := []string{"TRUE"}, []any{}
	if find.TraceID != nil {
		args = append(args, *find.TraceID)
		where = append(where, fmt.Sprintf("trace_id = $%d", len(args)))
	}
	if find.Status != nil {
		args = append(args, string(*find.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `
		SELECT id, trace_id, status, request_text, request, candidates, decision, order_result, error_message, stage_timings, created_ts, updated_ts
		FROM run
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		args = append(args, *find.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		if find.Offset != nil {
			args = append(args, *find.Offset)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []*store.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate runs")
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (*store.Run, error) {
	var run store.Run
	var status string
	var requestJSON, decisionJSON, orderJSON, timingsJSON sql.NullString

	if err := rows.Scan(
		&run.ID, &run.TraceID, &status, &run.RequestText, &requestJSON,
		&run.Candidates, &decisionJSON, &orderJSON, &run.ErrorMessage,
		&timingsJSON, &run.CreatedTs, &run.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan run")
	}
	run.Status = store.RunStatus(status)

	if requestJSON.Valid && requestJSON.String != "" {
		run.Request = &agent.Request{}
		if err := json.Unmarshal([]byte(requestJSON.String), run.Request); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal run request")
		}
	}
	if decisionJSON.Valid && decisionJSON.String != "" {
		run.Decision = &agent.Decision{}
		if err := json.Unmarshal([]byte(decisionJSON.String), run.Decision); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal run decision")
		}
	}
	if orderJSON.Valid && orderJSON.String != "" {
		run.Order = &agent.OrderResult{}
		if err := json.Unmarshal([]byte(orderJSON.String), run.Order); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal run order")
		}
	}
	if timingsJSON.Valid && timingsJSON.String != "" {
		if err := json.Unmarshal([]byte(timingsJSON.String), &run.StageTimings); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal run stage timings")
		}
	}
	return &run, nil
}

func marshalNullable(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal run field")
	}
	if string(b) == "null" {
		return nil, nil
	}
	return string(b), nil
}
