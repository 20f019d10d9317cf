package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elactrac/dotnation-sub001/types"
)

func TestKVSetGetDelete(t *testing.T) {
	assert := assert.New(t)
	kv := NewInMemoryKVStore()
	defer kv.Close()

	_, err := kv.Get([]byte("missing"))
	assert.ErrorIs(err, ErrKeyNotFound)

	require.NoError(t, kv.Set([]byte("k1"), []byte("v1")))
	val, err := kv.Get([]byte("k1"))
	assert.NoError(err)
	assert.Equal([]byte("v1"), val)

	require.NoError(t, kv.Delete([]byte("k1")))
	_, err = kv.Get([]byte("k1"))
	assert.ErrorIs(err, ErrKeyNotFound)
}

func TestKVPrefixIterator(t *testing.T) {
	assert := assert.New(t)
	kv := NewInMemoryKVStore()
	defer kv.Close()

	require.NoError(t, kv.Set([]byte("a/1"), []byte("one")))
	require.NoError(t, kv.Set([]byte("a/2"), []byte("two")))
	require.NoError(t, kv.Set([]byte("b/1"), []byte("other")))

	iter := kv.PrefixIterator([]byte("a/"))
	defer iter.Discard()

	var keys []string
	for ; iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	assert.NoError(iter.Error())
	assert.Equal([]string{"a/1", "a/2"}, keys)
}

func TestNextRunIDIsSequential(t *testing.T) {
	assert := assert.New(t)
	rs := NewRunStore(NewInMemoryKVStore())
	defer rs.Close()

	for want := uint64(1); want <= 3; want++ {
		id, err := rs.NextRunID()
		assert.NoError(err)
		assert.Equal(want, id)
	}
}

func TestSaveAndLoadReports(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	rs := NewRunStore(NewInMemoryKVStore())
	defer rs.Close()

	started := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	for i := uint64(1); i <= 3; i++ {
		report := RunReport{
			ID:         i,
			Kind:       types.KindCreateCampaign,
			StartedAt:  started,
			FinishedAt: started.Add(time.Minute),
			Requested:  int(i) * 2,
			Result: types.AggregateResult{
				Successful: i * 2,
			},
		}
		require.NoError(rs.SaveReport(report))
	}

	report, err := rs.Report(2)
	require.NoError(err)
	assert.Equal(uint64(2), report.ID)
	assert.Equal(4, report.Requested)
	assert.Equal(uint64(4), report.Result.Successful)
	assert.True(report.StartedAt.Equal(started))

	reports, err := rs.Reports()
	require.NoError(err)
	require.Len(reports, 3)
	for i, r := range reports {
		assert.Equal(uint64(i+1), r.ID)
	}

	_, err = rs.Report(42)
	assert.ErrorIs(err, ErrKeyNotFound)
}

func TestSaveReportRejectsZeroID(t *testing.T) {
	rs := NewRunStore(NewInMemoryKVStore())
	defer rs.Close()
	assert.Error(t, rs.SaveReport(RunReport{}))
}

func TestCampaignCache(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	rs := NewRunStore(NewInMemoryKVStore())
	defer rs.Close()

	goal, err := types.ParseAmount("100")
	require.NoError(err)
	campaigns := []types.Campaign{
		{ID: 2, Title: "school roof", Goal: goal, State: types.CampaignActive},
		{ID: 1, Title: "well", Goal: goal, State: types.CampaignSuccessful},
	}
	require.NoError(rs.CacheCampaigns(campaigns))

	got, err := rs.CachedCampaign(1)
	require.NoError(err)
	assert.Equal("well", got.Title)
	assert.Equal(types.CampaignSuccessful, got.State)
	assert.Zero(got.Goal.Cmp(goal))

	all, err := rs.CachedCampaigns()
	require.NoError(err)
	require.Len(all, 2)
	assert.Equal(uint32(1), all[0].ID)
	assert.Equal(uint32(2), all[1].ID)

	_, err = rs.CachedCampaign(9)
	assert.ErrorIs(err, ErrKeyNotFound)
}
