package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/yungbote/voter-canvass-backend/internal/data/repos"
	domain "github.com/yungbote/voter-canvass-backend/internal/domain"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
)

// contraCostaColumns is the fixed positional layout of this county's voter
// file export: voter_id, last_name, first_name, dob, line1, city, state,
// zip. There is no header row, so column identity is position, not name —
// the reason this format needs its own Importer even though it is also a
// ".csv" file, per spec §4.4's registry design.
const (
	ccVoterID = iota
	ccLastName
	ccFirstName
	ccDOB
	ccLine1
	ccCity
	ccState
	ccZip
	ccColumnCount
)

// ContraCosta imports the fixed-column county voter file variant. Full
// imports only (the format carries no reliable unique key across exports).
type ContraCosta struct {
	Persons   repos.PersonRepo
	Addresses repos.AddressRepo
}

func (c *ContraCosta) FormatID() string             { return "contra_costa" }
func (c *ContraCosta) FormatName() string            { return "Contra Costa County Voter File" }
func (c *ContraCosta) SupportedExtensions() []string { return []string{".csv", ".txt"} }
func (c *ContraCosta) SupportsIncremental() bool     { return false }

func (c *ContraCosta) Import(ctx context.Context, filePath string, importType ImportType, onProgress ProgressFunc, shouldCancel CancelFunc) (Result, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	result := Result{Success: true}
	dbc := dbctx.Context{Ctx: ctx}

	for {
		if shouldCancel != nil && shouldCancel() {
			break
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if len(record) < ccColumnCount {
			result.Skipped++
			result.Processed++
			result.Errors = append(result.Errors, fmt.Sprintf("expected %d columns, got %d", ccColumnCount, len(record)))
			continue
		}

		if record[ccVoterID] == "" {
			result.Skipped++
			result.Errors = append(result.Errors, "missing voter id")
			result.Processed++
			continue
		}

		p := &domain.Person{
			FirstName: record[ccFirstName],
			LastName:  record[ccLastName],
			VoterID:   record[ccVoterID],
		}
		if t, err := time.Parse("01/02/2006", record[ccDOB]); err == nil {
			p.DateOfBirth = &t
		}
		if _, err := c.Persons.Create(dbc, p); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, err.Error())
			result.Processed++
			continue
		}
		result.Created++

		if record[ccLine1] != "" {
			_, _ = c.Addresses.Create(dbc, &domain.Address{
				PersonID: p.ID,
				Line1:    record[ccLine1],
				City:     record[ccCity],
				State:    record[ccState],
				Zip:      record[ccZip],
			})
		}

		result.Processed++
		if onProgress != nil && result.Processed%progressEvery == 0 {
			onProgress(result.Processed)
		}
	}
	if onProgress != nil {
		onProgress(result.Processed)
	}
	return result, nil
}
