package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retention-engine/internal/common/database"
	stderrors "retention-engine/internal/common/errors"
	"retention-engine/internal/common/logger"
	"retention-engine/internal/models"
)

func newMockClient(t *testing.T, driver string) (*database.SQLClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &database.SQLClient{DB: db, Driver: driver}, mock
}

func TestListCustomers(t *testing.T) {
	client, mock := newMockClient(t, "postgres")
	store := NewCustomerStore(client, "customers", logger.NewTestLogger(t))

	churn := true
	rows := sqlmock.NewRows([]string{
		"customer_id", "age", "lifetime_months", "contract_period_months",
		"months_to_contract_end", "avg_class_frequency_current_month",
		"avg_additional_charges_total", "group_visits", "near_location",
		"partner", "promo_friends", "churn",
	}).
		AddRow(int64(1), 29, 4.0, 6, 3.0, 1.8, 144.20, true, true, false, false, churn).
		AddRow(int64(2), 35, 1.0, 1, 1.0, 0.5, 30.00, false, false, true, true, nil)

	mock.ExpectQuery("SELECT customer_id, age, lifetime_months").WillReturnRows(rows)

	records, err := store.ListCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(1), records[0].CustomerID)
	assert.Equal(t, 6, records[0].ContractPeriodMonths)
	require.NotNil(t, records[0].Churn)
	assert.True(t, *records[0].Churn)
	assert.Nil(t, records[1].Churn)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCustomersQueryFailure(t *testing.T) {
	client, mock := newMockClient(t, "postgres")
	store := NewCustomerStore(client, "customers", logger.NewTestLogger(t))

	mock.ExpectQuery("SELECT customer_id").WillReturnError(errors.New("connection reset"))

	_, err := store.ListCustomers(context.Background())
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeQueryExecutionFailed, stderrors.CodeOf(err))
	assert.True(t, stderrors.IsRetryable(err))
}

func TestWriteScoredPostgresUpsert(t *testing.T) {
	client, mock := newMockClient(t, "postgres")
	store := NewScoredStore(client, "scored_customers", logger.NewTestLogger(t))

	mock.ExpectExec("INSERT INTO scored_customers .+ ON CONFLICT \\(customer_id\\) DO UPDATE SET").
		WithArgs(
			int64(7), 85.3, "CRITICAL", 184, "PRIORITY_1_VIP_AT_RISK",
			90, 100, 80, 70, 80, 40, 30,
			"Standard", "Low", "New",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	scored := []models.ScoredCustomer{{
		CustomerRecord: models.CustomerRecord{CustomerID: 7},
		SubScores: models.SubScores{
			Tenure: 90, Activity: 100, Spending: 80, Contract: 70,
			Renewal: 80, Social: 40, Acquisition: 30,
		},
		CompositeRiskScore:   85.3,
		RiskCategory:         models.RiskCritical,
		CustomerValueScore:   184,
		InterventionPriority: models.PriorityVIPAtRisk,
		ValueTier:            "Standard",
		ActivityLevel:        "Low",
		TenureCategory:       "New",
	}}

	require.NoError(t, store.WriteScored(context.Background(), scored))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteScoredMySQLUpsert(t *testing.T) {
	client, mock := newMockClient(t, "mysql")
	store := NewScoredStore(client, "scored_customers", logger.NewTestLogger(t))

	mock.ExpectExec("INSERT INTO scored_customers .+ ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	scored := []models.ScoredCustomer{{
		CustomerRecord: models.CustomerRecord{CustomerID: 3},
		RiskCategory:   models.RiskLow,
	}}

	require.NoError(t, store.WriteScored(context.Background(), scored))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteScoredExecFailure(t *testing.T) {
	client, mock := newMockClient(t, "postgres")
	store := NewScoredStore(client, "scored_customers", logger.NewTestLogger(t))

	mock.ExpectExec("INSERT INTO scored_customers").WillReturnError(errors.New("deadlock"))

	err := store.WriteScored(context.Background(), []models.ScoredCustomer{{
		CustomerRecord: models.CustomerRecord{CustomerID: 1},
	}})
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeExportFailed, stderrors.CodeOf(err))
}

func TestListScoredJoinsChurn(t *testing.T) {
	client, mock := newMockClient(t, "postgres")
	store := NewScoredStore(client, "scored_customers", logger.NewTestLogger(t))

	churned := true
	rows := sqlmock.NewRows([]string{
		"customer_id", "composite_risk_score", "risk_category",
		"customer_value_score", "intervention_priority", "churn",
	}).
		AddRow(int64(1), 85.3, "CRITICAL", 184, "PRIORITY_1_VIP_AT_RISK", churned).
		AddRow(int64(2), 12.5, "LOW", 40, "STANDARD_MONITORING", nil)

	mock.ExpectQuery("SELECT sc.customer_id, sc.composite_risk_score").WillReturnRows(rows)

	scored, err := store.ListScored(context.Background(), "customers")
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, models.RiskCritical, scored[0].RiskCategory)
	require.NotNil(t, scored[0].Churn)
	assert.True(t, *scored[0].Churn)
	assert.Nil(t, scored[1].Churn)
}
