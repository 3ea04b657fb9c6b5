package services

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAllocationService() *AllocationService {
	return NewAllocationService(NewUtilityService())
}

func TestDeriveSplitsNIITotal(t *testing.T) {
	service := newAllocationService()

	split := service.Derive(AllocationInput{NIISharesRaw: "5,23,200"}, 4800, 1600)
	require.NotNil(t, split)

	assert.Equal(t, int64(523200), split.NIIShares)
	assert.Equal(t, int64(348800), split.BNIIShares)
	assert.Equal(t, int64(174400), split.SNIIShares)
	assert.True(t, split.Derived)

	assert.Equal(t, "3,48,800 shares", split.BNIISharesDisplay)
	assert.Equal(t, "1,74,400 shares", split.SNIISharesDisplay)

	require.NotNil(t, split.MaxBNIIAllottees)
	require.NotNil(t, split.MaxSNIIAllottees)
	assert.Equal(t, int64(348800/4800), *split.MaxBNIIAllottees)
	assert.Equal(t, int64(174400/4800), *split.MaxSNIIAllottees)
}

func TestDeriveReturnsNilWhenNIITotalUnparseable(t *testing.T) {
	service := newAllocationService()

	assert.Nil(t, service.Derive(AllocationInput{NIISharesRaw: ""}, 4800, 1600))
	assert.Nil(t, service.Derive(AllocationInput{NIISharesRaw: "TBD"}, 4800, 1600))
}

func TestDeriveZeroDivisorLeavesCountersUnknown(t *testing.T) {
	service := newAllocationService()

	split := service.Derive(AllocationInput{NIISharesRaw: "5,23,200"}, 0, 0)
	require.NotNil(t, split)

	assert.Nil(t, split.MaxBNIIAllottees)
	assert.Nil(t, split.MaxSNIIAllottees)
	assert.Nil(t, split.MaxRetailAllottees)
}

func TestDeriveAttachesRetailQuota(t *testing.T) {
	service := newAllocationService()

	split := service.Derive(AllocationInput{
		NIISharesRaw:    "5,23,200",
		RetailSharesRaw: "12,20,800",
	}, 4800, 1600)
	require.NotNil(t, split)

	require.NotNil(t, split.RetailShares)
	assert.Equal(t, int64(1220800), *split.RetailShares)
	require.NotNil(t, split.MaxRetailAllottees)
	assert.Equal(t, int64(1220800/1600), *split.MaxRetailAllottees)
}

func TestDerivePrefersPagePublishedSplit(t *testing.T) {
	service := newAllocationService()

	split := service.Derive(AllocationInput{
		NIISharesRaw:  "6,00,000",
		BNIISharesRaw: "4,50,000",
		SNIISharesRaw: "1,50,000",
		MaxBNIIRaw:    "93",
		MaxSNIIRaw:    "31",
	}, 4800, 1600)
	require.NotNil(t, split)

	assert.False(t, split.Derived)
	assert.Equal(t, int64(450000), split.BNIIShares)
	assert.Equal(t, int64(150000), split.SNIIShares)
	require.NotNil(t, split.MaxBNIIAllottees)
	assert.Equal(t, int64(93), *split.MaxBNIIAllottees)
	require.NotNil(t, split.MaxSNIIAllottees)
	assert.Equal(t, int64(31), *split.MaxSNIIAllottees)
}

func TestDeriveSubQuotasAlwaysSumToTotal(t *testing.T) {
	service := newAllocationService()
	utility := NewUtilityService()

	properties := gopter.NewProperties(nil)

	properties.Property("derived B-NII and S-NII quotas sum exactly to the NII total", prop.ForAll(
		func(niiTotal int64) bool {
			raw := utility.FormatIndianInt(niiTotal)
			split := service.Derive(AllocationInput{NIISharesRaw: raw}, 4800, 1600)
			if split == nil {
				return false
			}
			return split.BNIIShares+split.SNIIShares == niiTotal &&
				split.BNIIShares >= 0 && split.SNIIShares >= 0
		},
		gen.Int64Range(0, 1_000_000_000),
	))

	properties.Property("allottee counters are never negative", prop.ForAll(
		func(niiTotal int64, minShares int64) bool {
			raw := utility.FormatIndianInt(niiTotal)
			split := service.Derive(AllocationInput{NIISharesRaw: raw}, minShares, minShares)
			if split == nil {
				return false
			}
			if minShares <= 0 {
				return split.MaxBNIIAllottees == nil && split.MaxSNIIAllottees == nil
			}
			return *split.MaxBNIIAllottees >= 0 && *split.MaxSNIIAllottees >= 0
		},
		gen.Int64Range(0, 1_000_000_000),
		gen.Int64Range(0, 10_000),
	))

	properties.TestingRun(t)
}
