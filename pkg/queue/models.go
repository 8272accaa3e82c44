// Package queue implements the durable queue-row state machine (C3):
// fetching pending rows, the exclusive processing lock, and the
// monotonic status/URI/error writes described in spec §3.1 and §4.3.
package queue

import "time"

// Status sentinels, spec §3.1.
const (
	StatusInitial = 0
	StatusSuccess = 100
	StatusFailed  = -1
)

// Row mirrors one doc_text_extraction_queue record (spec §3.1).
type Row struct {
	ExtractionID                 int64      `db:"extraction_id"`
	DocID                        string     `db:"doc_id"`
	DocName                      string     `db:"doc_name"`
	FileExt                      string     `db:"file_ext"`
	SourceURI                    string     `db:"source_uri"`
	DatalakeRawURI               string     `db:"datalake_raw_uri"`
	Password                     *string    `db:"password"`
	TextExtractionStatus         int        `db:"text_extraction_status"`
	NumberOfPages                int        `db:"number_of_pages"`
	IsProcessing                 bool       `db:"is_processing"`
	ProcessingStartedAt          *time.Time `db:"processing_started_at"`
	DatalakeTextURI              string     `db:"datalake_text_uri"`
	TextExtractionDurationSecond *int       `db:"text_extraction_duration_seconds"`
	LastErrorMessage             *string    `db:"last_error_message"`
	ErrorMessage                 *string    `db:"error_message"`
	LastProcessedAt              *time.Time `db:"last_processed_at"`
	ExtractedAt                  *time.Time `db:"extracted_at"`
	UpdatedAt                    time.Time  `db:"updated_at"`
	IsActive                     bool       `db:"is_active"`
}

// URIField enumerates the writable URI columns for SetURI, spec §4.3.
type URIField string

const (
	URIFieldDatalakeRaw  URIField = "datalake_raw_uri"
	URIFieldDatalakeText URIField = "datalake_text_uri"
)
