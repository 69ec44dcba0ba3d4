// Package repository reads customer snapshots from the configured source and
// writes scored rows back out.
package repository

import (
	"context"
	"fmt"
	"strings"

	"retention-engine/internal/common/database"
	stderrors "retention-engine/internal/common/errors"
	"retention-engine/internal/common/logger"
	"retention-engine/internal/models"
)

// CustomerStore reads customer records from a SQL table.
type CustomerStore struct {
	client *database.SQLClient
	table  string
	log    logger.Logger
}

// NewCustomerStore creates a SQL-backed customer source.
func NewCustomerStore(client *database.SQLClient, table string, log logger.Logger) *CustomerStore {
	return &CustomerStore{client: client, table: table, log: log}
}

// ListCustomers loads every customer row from the source table. Rows are
// returned unvalidated; the pipeline applies its skip/abort policy.
func (s *CustomerStore) ListCustomers(ctx context.Context) ([]models.CustomerRecord, error) {
	query := fmt.Sprintf(`SELECT customer_id, age, lifetime_months, contract_period_months,
		months_to_contract_end, avg_class_frequency_current_month,
		avg_additional_charges_total, group_visits, near_location,
		partner, promo_friends, churn
		FROM %s ORDER BY customer_id`, s.table)

	rows, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("list_customers", err)
	}
	defer rows.Close()

	var records []models.CustomerRecord
	for rows.Next() {
		var rec models.CustomerRecord
		var churn *bool
		if err := rows.Scan(
			&rec.CustomerID,
			&rec.Age,
			&rec.LifetimeMonths,
			&rec.ContractPeriodMonths,
			&rec.MonthsToContractEnd,
			&rec.AvgClassFrequencyCurrent,
			&rec.AvgAdditionalChargesTotal,
			&rec.GroupVisits,
			&rec.NearLocation,
			&rec.Partner,
			&rec.PromoFriends,
			&churn,
		); err != nil {
			return nil, stderrors.NewRecordParseFailedError(s.table, err)
		}
		rec.Churn = churn
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("list_customers", err)
	}

	s.log.Info("Loaded customer records", map[string]interface{}{
		"table": s.table,
		"count": len(records),
	})
	return records, nil
}

// ScoredStore writes scored customers to the output table.
type ScoredStore struct {
	client *database.SQLClient
	table  string
	log    logger.Logger
}

// NewScoredStore creates a SQL-backed scored-customer sink.
func NewScoredStore(client *database.SQLClient, table string, log logger.Logger) *ScoredStore {
	return &ScoredStore{client: client, table: table, log: log}
}

// Name identifies the sink in batch logs.
func (s *ScoredStore) Name() string { return "sql:" + s.table }

// WriteScored upserts a batch of scored rows, one statement per row. The
// conflict clause depends on the driver the source DSN selected.
func (s *ScoredStore) WriteScored(ctx context.Context, customers []models.ScoredCustomer) error {
	query := s.upsertQuery()
	for _, c := range customers {
		_, err := s.client.Exec(ctx, query,
			c.CustomerID,
			c.CompositeRiskScore,
			string(c.RiskCategory),
			c.CustomerValueScore,
			string(c.InterventionPriority),
			c.SubScores.Tenure,
			c.SubScores.Activity,
			c.SubScores.Spending,
			c.SubScores.Contract,
			c.SubScores.Renewal,
			c.SubScores.Social,
			c.SubScores.Acquisition,
			c.ValueTier,
			c.ActivityLevel,
			c.TenureCategory,
		)
		if err != nil {
			return stderrors.NewExportFailedError(s.Name(), err)
		}
	}

	s.log.Info("Wrote scored customers", map[string]interface{}{
		"table": s.table,
		"count": len(customers),
	})
	return nil
}

func (s *ScoredStore) upsertQuery() string {
	cols := []string{
		"customer_id", "composite_risk_score", "risk_category",
		"customer_value_score", "intervention_priority",
		"tenure_risk", "activity_risk", "spending_risk", "contract_risk",
		"renewal_risk", "social_risk", "acquisition_risk",
		"value_tier", "activity_level", "tenure_category",
	}

	if s.client.Driver == "mysql" {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
		updates := make([]string, 0, len(cols)-1)
		for _, col := range cols[1:] {
			updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", col, col))
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
			s.table, strings.Join(cols, ", "), placeholders, strings.Join(updates, ", "))
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	updates := make([]string, 0, len(cols)-1)
	for _, col := range cols[1:] {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (customer_id) DO UPDATE SET %s",
		s.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))
}

// ListScored loads scored rows joined with churn ground truth for the
// calibration reporter. Rows without ground truth come back with a nil Churn.
func (s *ScoredStore) ListScored(ctx context.Context, sourceTable string) ([]models.ScoredCustomer, error) {
	query := fmt.Sprintf(`SELECT sc.customer_id, sc.composite_risk_score, sc.risk_category,
		sc.customer_value_score, sc.intervention_priority, c.churn
		FROM %s sc LEFT JOIN %s c ON c.customer_id = sc.customer_id
		ORDER BY sc.customer_id`, s.table, sourceTable)

	rows, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("list_scored", err)
	}
	defer rows.Close()

	var scored []models.ScoredCustomer
	for rows.Next() {
		var sc models.ScoredCustomer
		var category, priority string
		var churn *bool
		if err := rows.Scan(
			&sc.CustomerID,
			&sc.CompositeRiskScore,
			&category,
			&sc.CustomerValueScore,
			&priority,
			&churn,
		); err != nil {
			return nil, stderrors.NewRecordParseFailedError(s.table, err)
		}
		sc.RiskCategory = models.RiskCategory(category)
		sc.InterventionPriority = models.InterventionPriority(priority)
		sc.Churn = churn
		scored = append(scored, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("list_scored", err)
	}
	return scored, nil
}
