package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// JobStatus is one dedupe job's persisted progress row. Workers write it as
// the pipeline advances; pollers read it to answer status queries.
type JobStatus struct {
	ID         string
	Status     string
	Percent    float64
	Message    string
	Error      *string
	ResultJSON []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Progress projects the row back into a progress snapshot.
func (j JobStatus) Progress() (types.Progress, error) {
	p := types.Progress{
		Status:  types.Status(j.Status),
		Percent: j.Percent,
		Message: j.Message,
	}
	if j.Error != nil {
		p.Error = *j.Error
	}
	if len(j.ResultJSON) > 0 && string(j.ResultJSON) != "null" && p.Status == types.StatusCompleted {
		var res types.Result
		if err := json.Unmarshal(j.ResultJSON, &res); err != nil {
			return types.Progress{}, err
		}
		p.Result = &res
	}
	return p, nil
}

// JobStore persists job progress across pollers and worker restarts.
type JobStore interface {
	Create(ctx context.Context, id string) (JobStatus, error)
	// UpdateProgress overwrites the job's status, percentage, message, and
	// error; a terminal completed snapshot also stores the result JSON.
	UpdateProgress(ctx context.Context, id string, p types.Progress) error
	Get(ctx context.Context, id string) (JobStatus, error)
}

// NewJobStore returns a store bound to the pool.
func NewJobStore(p *Pool) JobStore { return &jobStore{p: p} }

type jobStore struct{ p *Pool }

func (s *jobStore) Create(ctx context.Context, id string) (JobStatus, error) {
	const q = `insert into dedupe_job (id, status, percent, message)
               values ($1, 'waiting', 0, 'Waiting to start')
               returning id, status, percent, message, error, result, created_at, updated_at`
	var j JobStatus
	err := s.p.QueryRow(ctx, q, id).Scan(
		&j.ID, &j.Status, &j.Percent, &j.Message, &j.Error, &j.ResultJSON, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return JobStatus{}, mapPgErr(err)
	}
	return j, nil
}

func (s *jobStore) UpdateProgress(ctx context.Context, id string, p types.Progress) error {
	var errMsg *string
	if p.Error != "" {
		errMsg = &p.Error
	}
	var resultJSON []byte
	if p.Result != nil {
		b, err := json.Marshal(p.Result)
		if err != nil {
			return err
		}
		resultJSON = b
	}
	const q = `update dedupe_job
               set status=$1, percent=$2, message=$3, error=$4,
                   result=coalesce($5::jsonb, result), updated_at=now()
               where id=$6`
	tag, err := s.p.Exec(ctx, q, string(p.Status), p.Percent, p.Message, errMsg, resultJSON, id)
	if err != nil {
		return mapPgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *jobStore) Get(ctx context.Context, id string) (JobStatus, error) {
	const q = `select id, status, percent, message, error, coalesce(result, 'null'::jsonb), created_at, updated_at
               from dedupe_job where id=$1`
	var j JobStatus
	err := s.p.QueryRow(ctx, q, id).Scan(
		&j.ID, &j.Status, &j.Percent, &j.Message, &j.Error, &j.ResultJSON, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return JobStatus{}, mapPgErr(err)
	}
	return j, nil
}

// Schema is the DDL for the job-status table; applied by deployments, kept
// here so the store and its table never drift.
const Schema = `
create table if not exists dedupe_job (
    id         text primary key,
    status     text not null,
    percent    double precision not null default 0,
    message    text not null default '',
    error      text,
    result     jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);`
