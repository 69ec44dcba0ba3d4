package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "retention-engine/internal/common/errors"
	"retention-engine/internal/common/logger"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customers.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVListCustomersDatasetHeaders(t *testing.T) {
	// Raw dataset header casing, no explicit customer id.
	path := writeCSV(t, `gender,Near_Location,Partner,Promo_friends,Contract_period,Group_visits,Age,Avg_additional_charges_total,Month_to_end_contract,Lifetime,Avg_class_frequency_current_month,Churn
1,1,0,0,6,1,29,144.20,3,4,1.80,0
0,0,1,1,1,0,35,30.00,1,1,0.50,1
`)

	store := NewCSVStore(path, logger.NewTestLogger(t))
	records, err := store.ListCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, int64(1), first.CustomerID) // row number stands in for an id
	assert.Equal(t, 4.0, first.LifetimeMonths)
	assert.Equal(t, 6, first.ContractPeriodMonths)
	assert.Equal(t, 3.0, first.MonthsToContractEnd)
	assert.Equal(t, 1.8, first.AvgClassFrequencyCurrent)
	assert.Equal(t, 144.20, first.AvgAdditionalChargesTotal)
	assert.True(t, first.GroupVisits)
	assert.True(t, first.NearLocation)
	assert.False(t, first.Partner)
	require.NotNil(t, first.Churn)
	assert.False(t, *first.Churn)

	second := records[1]
	assert.Equal(t, int64(2), second.CustomerID)
	assert.True(t, second.Partner)
	assert.True(t, second.PromoFriends)
	require.NotNil(t, second.Churn)
	assert.True(t, *second.Churn)
}

func TestCSVListCustomersSnakeCaseHeaders(t *testing.T) {
	path := writeCSV(t, `customer_id,lifetime_months,contract_period_months,months_to_contract_end,avg_class_frequency_current_month,avg_additional_charges_total,partner,promo_friends
42,12.0,12,10.0,2.5,210.00,true,false
`)

	store := NewCSVStore(path, logger.NewTestLogger(t))
	records, err := store.ListCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(42), records[0].CustomerID)
	assert.Equal(t, 12.0, records[0].LifetimeMonths)
	assert.True(t, records[0].Partner)
	assert.Nil(t, records[0].Churn)
}

func TestCSVListCustomersDropsUnparseableRows(t *testing.T) {
	path := writeCSV(t, `Lifetime,Contract_period,Month_to_end_contract,Avg_class_frequency_current_month,Avg_additional_charges_total
4,6,3,1.8,144.20
not-a-number,6,3,1.8,144.20
2,1,1,0.5,30.00
`)

	store := NewCSVStore(path, logger.NewTestLogger(t))
	records, err := store.ListCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 4.0, records[0].LifetimeMonths)
	assert.Equal(t, 2.0, records[1].LifetimeMonths)
}

func TestCSVListCustomersMissingFile(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "missing.csv"), logger.NewTestLogger(t))
	_, err := store.ListCustomers(context.Background())
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeDatasourceConnectionFailed, stderrors.CodeOf(err))
}
