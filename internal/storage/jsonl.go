package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lpScope/internal/model"
)

// Record kinds written to JSONL output.
const (
	KindDailyFee = "daily_fee"
	KindOverview = "overview"
	KindEstimate = "estimate"
)

// Record is one JSONL line. Exactly one payload field is set.
type Record struct {
	Kind       string                  `json:"kind"`
	PositionID string                  `json:"position_id,omitempty"`
	DailyFee   *model.DailyFee         `json:"daily_fee,omitempty"`
	Overview   *model.PositionOverview `json:"overview,omitempty"`
	Estimate   *model.FeeEstimate      `json:"estimate,omitempty"`
}

// JsonlStorage appends records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

// NewJsonlStorage returns a sink appending to path. Later records for the
// same position and date supersede earlier ones.
func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

func (s *JsonlStorage) PutDailyFees(_ context.Context, positionID string, series []model.DailyFee) error {
	records := make([]Record, 0, len(series))
	for i := range series {
		records = append(records, Record{Kind: KindDailyFee, PositionID: positionID, DailyFee: &series[i]})
	}
	return s.write(records)
}

func (s *JsonlStorage) PutOverview(_ context.Context, overview model.PositionOverview) error {
	return s.write([]Record{{Kind: KindOverview, PositionID: overview.PositionID, Overview: &overview}})
}

func (s *JsonlStorage) PutEstimates(_ context.Context, estimates []model.FeeEstimate) error {
	records := make([]Record, 0, len(estimates))
	for i := range estimates {
		records = append(records, Record{Kind: KindEstimate, Estimate: &estimates[i]})
	}
	return s.write(records)
}

func (s *JsonlStorage) write(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	enc := json.NewEncoder(writer)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("write %s record: %w", record.Kind, err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
