package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	stderrors "retention-engine/internal/common/errors"
	"retention-engine/internal/common/logger"
	"retention-engine/internal/models"
)

// CSVStore reads customer records from a CSV export of the gym membership
// dataset. Column names are matched case-insensitively so both the raw
// dataset headers (Lifetime, Contract_period, ...) and snake_case exports
// work.
type CSVStore struct {
	path string
	log  logger.Logger
}

// NewCSVStore creates a CSV-backed customer source.
func NewCSVStore(path string, log logger.Logger) *CSVStore {
	return &CSVStore{path: path, log: log}
}

// csvColumns maps normalized header names to record fields. The dataset has
// no explicit customer identifier, so the 1-based data row number is used.
var csvColumns = map[string]string{
	"customer_id":                       "customer_id",
	"lifetime":                          "lifetime_months",
	"lifetime_months":                   "lifetime_months",
	"contract_period":                   "contract_period_months",
	"contract_period_months":            "contract_period_months",
	"month_to_end_contract":             "months_to_contract_end",
	"months_to_contract_end":            "months_to_contract_end",
	"avg_class_frequency_current_month": "avg_class_frequency_current_month",
	"avg_additional_charges_total":      "avg_additional_charges_total",
	"group_visits":                      "group_visits",
	"near_location":                     "near_location",
	"partner":                           "partner",
	"promo_friends":                     "promo_friends",
	"age":                               "age",
	"churn":                             "churn",
}

// ListCustomers parses the whole file. A malformed file is an error; a
// malformed value in one row only fails that row when the pipeline validates
// it, so parse failures are surfaced as RECORD_PARSE_FAILED per row and the
// row is dropped here with a warning.
func (s *CSVStore) ListCustomers(ctx context.Context) ([]models.CustomerRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, stderrors.NewDatasourceConnectionFailedError(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, stderrors.NewRecordParseFailedError(s.path, fmt.Errorf("read header: %w", err))
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if field, ok := csvColumns[key]; ok {
			index[field] = i
		}
	}

	var records []models.CustomerRecord
	rowNum := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stderrors.NewRecordParseFailedError(s.path, err)
		}
		rowNum++

		rec, err := s.parseRow(row, index, rowNum)
		if err != nil {
			s.log.Warn("Dropping unparseable CSV row", map[string]interface{}{
				"row":   rowNum,
				"error": err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}

	s.log.Info("Loaded customer records", map[string]interface{}{
		"path":  s.path,
		"count": len(records),
	})
	return records, nil
}

func (s *CSVStore) parseRow(row []string, index map[string]int, rowNum int) (models.CustomerRecord, error) {
	get := func(field string) (string, bool) {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	rec := models.CustomerRecord{CustomerID: int64(rowNum)}
	var parseErr error

	parseFloat := func(field string, dst *float64) {
		if parseErr != nil {
			return
		}
		raw, ok := get(field)
		if !ok {
			parseErr = fmt.Errorf("missing column %s", field)
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			parseErr = fmt.Errorf("column %s: %w", field, err)
			return
		}
		*dst = v
	}
	parseInt := func(field string, dst *int) {
		if parseErr != nil {
			return
		}
		raw, ok := get(field)
		if !ok {
			parseErr = fmt.Errorf("missing column %s", field)
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			parseErr = fmt.Errorf("column %s: %w", field, err)
			return
		}
		*dst = v
	}
	parseBool := func(field string, dst *bool) {
		if parseErr != nil {
			return
		}
		raw, ok := get(field)
		if !ok {
			return // optional flags default to false
		}
		*dst = raw == "1" || strings.EqualFold(raw, "true")
	}

	if raw, ok := get("customer_id"); ok && raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return rec, fmt.Errorf("column customer_id: %w", err)
		}
		rec.CustomerID = id
	}

	parseFloat("lifetime_months", &rec.LifetimeMonths)
	parseInt("contract_period_months", &rec.ContractPeriodMonths)
	parseFloat("months_to_contract_end", &rec.MonthsToContractEnd)
	parseFloat("avg_class_frequency_current_month", &rec.AvgClassFrequencyCurrent)
	parseFloat("avg_additional_charges_total", &rec.AvgAdditionalChargesTotal)
	if _, ok := index["age"]; ok {
		parseInt("age", &rec.Age)
	}
	parseBool("group_visits", &rec.GroupVisits)
	parseBool("near_location", &rec.NearLocation)
	parseBool("partner", &rec.Partner)
	parseBool("promo_friends", &rec.PromoFriends)

	if raw, ok := get("churn"); ok && raw != "" {
		churn := raw == "1" || strings.EqualFold(raw, "true")
		rec.Churn = &churn
	}

	return rec, parseErr
}
