// Package errors provides standardized error handling for the scoring engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Per-record errors. The batch driver decides whether to skip or abort.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors are fatal: the engine must not run with them.
	ErrCodeConfigurationInvalid ErrorCode = "CONFIGURATION_INVALID"

	ErrCodeDatasourceConnectionFailed ErrorCode = "DATASOURCE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed       ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeRecordParseFailed          ErrorCode = "RECORD_PARSE_FAILED"

	ErrCodeExportFailed           ErrorCode = "EXPORT_FAILED"
	ErrCodeIndexingFailed         ErrorCode = "INDEXING_FAILED"
	ErrCodePublishFailed          ErrorCode = "PUBLISH_FAILED"
	ErrCodeCheckpointFailed       ErrorCode = "CHECKPOINT_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeBatchAborted ErrorCode = "BATCH_ABORTED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidInputError creates a non-retryable per-record validation error.
// The field name and offending value travel in Metadata so the batch driver
// can log them without parsing the message.
func NewInvalidInputError(field, details string, value interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   fmt.Sprintf("invalid value for %s", field),
		Details:   details,
		Retryable: false,
		Metadata: map[string]interface{}{
			"field": field,
			"value": value,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigurationError creates a fatal configuration error.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationInvalid,
		Message:   "invalid scoring configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatasourceConnectionFailedError creates a retryable connection error.
func NewDatasourceConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasourceConnectionFailed,
		Message:   "data source connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "data source query error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordParseFailedError creates a non-retryable parse error for one row.
func NewRecordParseFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordParseFailed,
		Message:   "failed to parse customer record",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewExportFailedError creates a retryable sink error.
func NewExportFailedError(sink string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportFailed,
		Message:   "failed to write scored output",
		Details:   fmt.Sprintf("sink: %s, error: %s", sink, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexingFailedError creates a retryable Elasticsearch indexing error.
func NewIndexingFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexingFailed,
		Message:   "failed to index scored customers",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPublishFailedError creates a retryable event publish error.
func NewPublishFailedError(topic string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePublishFailed,
		Message:   "failed to publish scored event",
		Details:   fmt.Sprintf("topic: %s, error: %s", topic, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCheckpointFailedError creates a retryable checkpoint error.
func NewCheckpointFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCheckpointFailed,
		Message:   "failed to record batch checkpoint",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "failed to send intervention alert",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBatchAbortedError wraps the record error that stopped a batch under the
// abort policy.
func NewBatchAbortedError(customerID int64, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBatchAborted,
		Message:   "batch aborted on invalid record",
		Details:   err.Error(),
		Retryable: false,
		Metadata: map[string]interface{}{
			"customerId": customerID,
		},
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// CodeOf extracts the ErrorCode from any error, or empty when it is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsInvalidInput reports whether err is a per-record validation failure.
func IsInvalidInput(err error) bool {
	return CodeOf(err) == ErrCodeInvalidInput
}

// IsConfiguration reports whether err is a fatal configuration failure.
func IsConfiguration(err error) bool {
	return CodeOf(err) == ErrCodeConfigurationInvalid
}

// IsRetryable reports whether err is worth retrying at the infrastructure
// level. Scoring itself is deterministic and never retried.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}
