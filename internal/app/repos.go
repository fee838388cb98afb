package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/voter-canvass-backend/internal/data/repos"
	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

type Repos struct {
	Jobs       repos.JobRepo
	Providers  repos.ProviderRepo
	PoolConfig repos.PoolConfigRepo

	Households repos.HouseholdRepo
	Persons    repos.PersonRepo
	Addresses  repos.AddressRepo
	Phones     repos.PhoneRepo
	Emails     repos.EmailRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Jobs:       repos.NewJobRepo(db, log),
		Providers:  repos.NewProviderRepo(db, log),
		PoolConfig: repos.NewPoolConfigRepo(db, log),

		Households: repos.NewHouseholdRepo(db, log),
		Persons:    repos.NewPersonRepo(db, log),
		Addresses:  repos.NewAddressRepo(db, log),
		Phones:     repos.NewPhoneRepo(db, log),
		Emails:     repos.NewEmailRepo(db, log),
	}
}
