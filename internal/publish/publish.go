// Package publish writes the final dataset consumed by the front end.
//
// The dataset replaces the previous one wholesale on every run. Writes go
// through a temporary file and a rename so readers never observe a partial
// dataset, and a run that produced nothing refuses to erase a dataset that
// previously had events.
package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mutiny19/indy-events/internal/event"
	"github.com/mutiny19/indy-events/internal/logger"
)

// Dataset is the published wire format.
type Dataset struct {
	LastUpdated time.Time     `json:"lastUpdated"`
	Events      []event.Event `json:"events"`
}

// LoadPrevious reads the currently published dataset. A missing file is
// not an error; the first run starts from nothing.
func LoadPrevious(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Dataset{}, nil
		}
		return nil, fmt.Errorf("reading previous dataset: %w", err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing previous dataset: %w", err)
	}
	return &ds, nil
}

// Publish writes events to path atomically. now becomes lastUpdated.
// Publishing an empty set over a non-empty dataset is refused; a run that
// found nothing must not erase what readers already have.
func Publish(path string, events []*event.Event, now time.Time) error {
	if len(events) == 0 {
		prev, err := LoadPrevious(path)
		if err != nil {
			return err
		}
		if len(prev.Events) > 0 {
			return fmt.Errorf("refusing to overwrite %d published events with an empty dataset", len(prev.Events))
		}
	}

	ds := Dataset{
		LastUpdated: now.UTC().Truncate(time.Second),
		Events:      make([]event.Event, 0, len(events)),
	}
	for _, ev := range events {
		ds.Events = append(ds.Events, *ev)
	}
	sort.SliceStable(ds.Events, func(i, j int) bool {
		if !ds.Events[i].Start.Equal(ds.Events[j].Start) {
			return ds.Events[i].Start.Before(ds.Events[j].Start)
		}
		return ds.Events[i].ID < ds.Events[j].ID
	})

	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling dataset: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing dataset: %w", err)
	}

	logger.Info("published dataset", logger.Fields{
		"path":   path,
		"events": len(ds.Events),
	})
	return nil
}
