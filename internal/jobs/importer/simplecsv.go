package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/yungbote/voter-canvass-backend/internal/data/repos"
	domain "github.com/yungbote/voter-canvass-backend/internal/domain"
	"github.com/yungbote/voter-canvass-backend/internal/platform/dbctx"
)

const progressEvery = 100

// SimpleCSV is a generic header-driven CSV importer: the first row names
// columns, subsequent rows are one Person each. Column names are matched
// case-insensitively against a small fixed vocabulary
// (first_name,last_name,voter_id,date_of_birth,line1,city,state,zip,phone,email).
// Grounded on stdlib encoding/csv — no third-party CSV library appears
// anywhere in the example corpus (see DESIGN.md).
type SimpleCSV struct {
	Persons   repos.PersonRepo
	Addresses repos.AddressRepo
	Phones    repos.PhoneRepo
	Emails    repos.EmailRepo
}

func (s *SimpleCSV) FormatID() string             { return "simple_csv" }
func (s *SimpleCSV) FormatName() string            { return "Simple CSV" }
func (s *SimpleCSV) SupportedExtensions() []string { return []string{".csv"} }
func (s *SimpleCSV) SupportsIncremental() bool     { return true }

func (s *SimpleCSV) Import(ctx context.Context, filePath string, importType ImportType, onProgress ProgressFunc, shouldCancel CancelFunc) (Result, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}
	cols := indexHeader(header)

	result := Result{Success: true}
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

		if err := s.importRow(ctx, cols, record, importType, &result); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, err.Error())
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

func (s *SimpleCSV) importRow(ctx context.Context, cols map[string]int, record []string, importType ImportType, result *Result) error {
	get := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	voterID := get("voter_id")
	if voterID == "" {
		return fmt.Errorf("missing voter_id")
	}

	p := &domain.Person{
		FirstName: get("first_name"),
		LastName:  get("last_name"),
		VoterID:   voterID,
	}
	if dob := get("date_of_birth"); dob != "" {
		if t, err := time.Parse("2006-01-02", dob); err == nil {
			p.DateOfBirth = &t
		}
	}

	dbc := dbctx.Context{Ctx: ctx}
	var created bool
	var err error
	if importType == TypeIncremental {
		created, err = s.Persons.Upsert(dbc, p)
	} else {
		_, err = s.Persons.Create(dbc, p)
		created = true
	}
	if err != nil {
		return err
	}
	if created {
		result.Created++
	} else {
		result.Updated++
	}

	if line1 := get("line1"); line1 != "" {
		_, _ = s.Addresses.Create(dbc, &domain.Address{
			PersonID: p.ID,
			Line1:    line1,
			City:     get("city"),
			State:    get("state"),
			Zip:      get("zip"),
		})
	}
	if phone := get("phone"); phone != "" {
		_, _ = s.Phones.Create(dbc, &domain.Phone{PersonID: p.ID, Value: phone})
	}
	if email := get("email"); email != "" {
		_, _ = s.Emails.Create(dbc, &domain.Email{PersonID: p.ID, Value: email})
	}
	return nil
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}
