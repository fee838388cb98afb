// Package domain re-exports the model types from the internal/domain/*
// subpackages so the rest of the codebase (repos, handlers, migrations)
// can refer to domain.Job, domain.Household, etc. without importing each
// subpackage directly.
package domain

import (
	"github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/domain/voters"
)

type (
	Job               = jobs.Job
	ErrorEntry        = jobs.ErrorEntry
	GeocodingProvider = jobs.GeocodingProvider
	PoolConfig        = jobs.PoolConfig

	Household = voters.Household
	Person    = voters.Person
	Address   = voters.Address
	Phone     = voters.Phone
	Email     = voters.Email
)

const (
	JobStatusPending    = jobs.StatusPending
	JobStatusProcessing = jobs.StatusProcessing
	JobStatusPaused     = jobs.StatusPaused
	JobStatusCompleted  = jobs.StatusCompleted
	JobStatusFailed     = jobs.StatusFailed
	JobStatusCancelled  = jobs.StatusCancelled

	JobTypeVoterImport = jobs.TypeVoterImport
	JobTypeGeocoding   = jobs.TypeGeocoding

	QueueVoterImport = jobs.QueueVoterImport
	QueueGeocode     = jobs.QueueGeocode
	QueueScheduled   = jobs.QueueScheduled

	MaxErrorLogEntries = jobs.MaxErrorLogEntries
)

var QueueForType = jobs.QueueForType
