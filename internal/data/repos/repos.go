package repos

import (
	"github.com/yungbote/voter-canvass-backend/internal/data/repos/jobs"
	"github.com/yungbote/voter-canvass-backend/internal/data/repos/voters"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type JobRepo = jobs.JobRepo
type ProviderRepo = jobs.ProviderRepo
type PoolConfigRepo = jobs.PoolConfigRepo
type ListFilter = jobs.ListFilter

type HouseholdRepo = voters.HouseholdRepo
type HouseholdFilter = voters.HouseholdFilter
type PersonRepo = voters.PersonRepo
type AddressRepo = voters.AddressRepo
type PhoneRepo = voters.PhoneRepo
type EmailRepo = voters.EmailRepo

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo { return jobs.NewJobRepo(db, baseLog) }
func NewProviderRepo(db *gorm.DB, baseLog *logger.Logger) ProviderRepo {
	return jobs.NewProviderRepo(db, baseLog)
}
func NewPoolConfigRepo(db *gorm.DB, baseLog *logger.Logger) PoolConfigRepo {
	return jobs.NewPoolConfigRepo(db, baseLog)
}

func NewHouseholdRepo(db *gorm.DB, baseLog *logger.Logger) HouseholdRepo {
	return voters.NewHouseholdRepo(db, baseLog)
}
func NewPersonRepo(db *gorm.DB, baseLog *logger.Logger) PersonRepo {
	return voters.NewPersonRepo(db, baseLog)
}
func NewAddressRepo(db *gorm.DB, baseLog *logger.Logger) AddressRepo {
	return voters.NewAddressRepo(db, baseLog)
}
func NewPhoneRepo(db *gorm.DB, baseLog *logger.Logger) PhoneRepo {
	return voters.NewPhoneRepo(db, baseLog)
}
func NewEmailRepo(db *gorm.DB, baseLog *logger.Logger) EmailRepo {
	return voters.NewEmailRepo(db, baseLog)
}
