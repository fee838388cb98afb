package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/voter-canvass-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedJob(tb testing.TB, ctx context.Context, tx *gorm.DB, jobType, status string, createdBy uuid.UUID) *types.Job {
	tb.Helper()
	j := &types.Job{
		ID:        uuid.New(),
		Type:      jobType,
		Status:    status,
		Payload:   datatypes.JSON([]byte("{}")),
		ErrorLog:  datatypes.JSON([]byte("[]")),
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed job: %v", err)
	}
	return j
}

func SeedProvider(tb testing.TB, ctx context.Context, tx *gorm.DB, providerID string, isPrimary bool, priority int) *types.GeocodingProvider {
	tb.Helper()
	p := &types.GeocodingProvider{
		ID:           uuid.New(),
		ProviderID:   providerID,
		ProviderName: providerID,
		IsEnabled:    true,
		IsPrimary:    isPrimary,
		Priority:     priority,
		Config:       datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed provider: %v", err)
	}
	return p
}

func SeedHousehold(tb testing.TB, ctx context.Context, tx *gorm.DB, line1, city, state, zip string) *types.Household {
	tb.Helper()
	h := &types.Household{
		ID:    uuid.New(),
		Line1: line1,
		City:  city,
		State: state,
		Zip:   zip,
	}
	if err := tx.WithContext(ctx).Create(h).Error; err != nil {
		tb.Fatalf("seed household: %v", err)
	}
	return h
}

func SeedPerson(tb testing.TB, ctx context.Context, tx *gorm.DB, voterID, firstName, lastName string) *types.Person {
	tb.Helper()
	p := &types.Person{
		ID:        uuid.New(),
		FirstName: firstName,
		LastName:  lastName,
		VoterID:   voterID,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed person: %v", err)
	}
	return p
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrFloat(v float64) *float64 { return &v }
