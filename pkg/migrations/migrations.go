// Package migrations embeds the goose migration files for the
// doc_text_extraction_queue schema consumed by Service 1 (spec §6.3). The
// core does not create DDL beyond this bootstrap table; production
// migrations for the table's full shape are external, per spec §6.3.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
