package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"

	"github.com/Elactrac/dotnation-sub001/types"
)

var (
	runPrefix      = []byte("r/")
	campaignPrefix = []byte("c/")
	lastRunKey     = []byte("m/lastRun")
)

// RunReport records the outcome of one completed batch run.
type RunReport struct {
	ID         uint64                `json:"id"`
	Kind       types.OperationKind   `json:"kind"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Requested  int                   `json:"requested"`
	Result     types.AggregateResult `json:"result"`
}

// RunStore persists batch run reports and a local campaign cache.
type RunStore struct {
	db KVStore
}

// NewRunStore creates RunStore backed by given KVStore.
func NewRunStore(db KVStore) *RunStore {
	return &RunStore{db: db}
}

// Close closes the underlying KVStore.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// NextRunID allocates the next sequential run identifier, starting from 1.
func (s *RunStore) NextRunID() (uint64, error) {
	var last uint64
	raw, err := s.db.Get(lastRunKey)
	switch {
	case err == nil:
		last = binary.BigEndian.Uint64(raw)
	case err == ErrKeyNotFound:
	default:
		return 0, err
	}
	next := last + 1
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := s.db.Set(lastRunKey, buf); err != nil {
		return 0, err
	}
	return next, nil
}

// SaveReport stores a run report under its identifier.
func (s *RunStore) SaveReport(report RunReport) error {
	if report.ID == 0 {
		return fmt.Errorf("run report requires non-zero id")
	}
	blob, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	return s.db.Set(runKey(report.ID), blob)
}

// Report loads a single run report.
func (s *RunStore) Report(id uint64) (RunReport, error) {
	var report RunReport
	blob, err := s.db.Get(runKey(id))
	if err != nil {
		return report, err
	}
	if err := json.Unmarshal(blob, &report); err != nil {
		return report, fmt.Errorf("unmarshal run report %d: %w", id, err)
	}
	return report, nil
}

// Reports returns all stored run reports ordered by identifier.
func (s *RunStore) Reports() ([]RunReport, error) {
	iter := s.db.PrefixIterator(runPrefix)
	defer iter.Discard()

	var reports []RunReport
	for ; iter.Valid(); iter.Next() {
		var report RunReport
		if err := json.Unmarshal(iter.Value(), &report); err != nil {
			return nil, fmt.Errorf("unmarshal run report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })
	return reports, nil
}

// CacheCampaigns replaces cached entries for the given campaigns.
func (s *RunStore) CacheCampaigns(campaigns []types.Campaign) error {
	var errs error
	for _, c := range campaigns {
		blob, err := json.Marshal(c)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("marshal campaign %d: %w", c.ID, err))
			continue
		}
		errs = multierr.Append(errs, s.db.Set(campaignKey(c.ID), blob))
	}
	return errs
}

// CachedCampaign loads one cached campaign by identifier.
func (s *RunStore) CachedCampaign(id uint32) (types.Campaign, error) {
	var campaign types.Campaign
	blob, err := s.db.Get(campaignKey(id))
	if err != nil {
		return campaign, err
	}
	if err := json.Unmarshal(blob, &campaign); err != nil {
		return campaign, fmt.Errorf("unmarshal campaign %d: %w", id, err)
	}
	return campaign, nil
}

// CachedCampaigns returns all cached campaigns ordered by identifier.
func (s *RunStore) CachedCampaigns() ([]types.Campaign, error) {
	iter := s.db.PrefixIterator(campaignPrefix)
	defer iter.Discard()

	var campaigns []types.Campaign
	for ; iter.Valid(); iter.Next() {
		var campaign types.Campaign
		if err := json.Unmarshal(iter.Value(), &campaign); err != nil {
			return nil, fmt.Errorf("unmarshal campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	sort.Slice(campaigns, func(i, j int) bool { return campaigns[i].ID < campaigns[j].ID })
	return campaigns, nil
}

func runKey(id uint64) []byte {
	buf := make([]byte, len(runPrefix)+8)
	copy(buf, runPrefix)
	binary.BigEndian.PutUint64(buf[len(runPrefix):], id)
	return buf
}

func campaignKey(id uint32) []byte {
	buf := make([]byte, len(campaignPrefix)+4)
	copy(buf, campaignPrefix)
	binary.BigEndian.PutUint32(buf[len(campaignPrefix):], id)
	return buf
}
