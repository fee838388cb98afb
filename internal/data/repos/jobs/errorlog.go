package jobs

import (
	"encoding/json"

	jobsdomain "github.com/yungbote/voter-canvass-backend/internal/domain/jobs"
	"gorm.io/datatypes"
)

func decodeErrorLog(raw datatypes.JSON) ([]jobsdomain.ErrorEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var entries []jobsdomain.ErrorEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func encodeErrorLog(entries []jobsdomain.ErrorEntry) (datatypes.JSON, error) {
	b, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
