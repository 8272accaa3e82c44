package config

// Settings holds the typed configuration values consumed by Service 1,
// resolved once from a Provider per the key table in spec §6.1.
type Settings struct {
	PostgresHost     string
	PostgresDatabase string
	PostgresUser     string
	PostgresPassword string
	PostgresPort     string

	DatalakeRoot       string
	Service1OutputRoot string
	DefaultPDFPassword string

	Service2Enabled  bool
	Service2BaseURL  string
	Service2Endpoint string
	Service2Timeout  int

	HTTPPort string

	// MaxPages bounds per-document page extraction (0 = unlimited).
	MaxPages int
	// MinTextLength is the primary-path quality-gate minimum, spec §4.4.2.
	MinTextLength int
	// BatchWorkerLimit bounds intra-batch document concurrency, spec §5.
	BatchWorkerLimit int64

	ComponentLogLevels map[string]string
}

// LoadSettings resolves Settings from a Provider using the precedence and
// fallback values in spec §6.1.
func LoadSettings(p *Provider) *Settings {
	s := &Settings{
		PostgresHost:     p.Get("G_POSTGRES_SERVICE1_HOST", "POSTGRES_SERVICE1", "localhost"),
		PostgresDatabase: p.Get("G_POSTGRES_SERVICE1_DATABASE", "POSTGRES_SERVICE1", "fcr001-text-extraction"),
		PostgresUser:     p.Get("G_POSTGRES_SERVICE1_USER", "POSTGRES_SERVICE1", "postgres"),
		PostgresPassword: p.Get("G_POSTGRES_SERVICE1_PASSWORD", "POSTGRES_SERVICE1", "postgres"),
		PostgresPort:     p.Get("G_POSTGRES_SERVICE1_PORT", "POSTGRES_SERVICE1", "5432"),

		DatalakeRoot:       p.Get("G_AITHON_DATALAKE", "COMMON", "~/projects/aithon/aithon_output/datalake-fcr001"),
		Service1OutputRoot: p.Get("G_SERVICE1_OUTPUT_FOLDER", "COMMON", "~/projects/aithon/aithon_output/service1-extracted-text"),
		DefaultPDFPassword: p.Get("G_DEFAULT_PDF_PWD", "COMMON", "operations@PRI"),

		Service2Enabled:  p.GetBool("G_SERVICE2_ENABLED", "COMMON", false),
		Service2BaseURL:  p.Get("G_SERVICE2_BASE_URL", "COMMON", "http://localhost:8006"),
		Service2Endpoint: p.Get("G_SERVICE2_ENDPOINT", "COMMON", "/api/document-classification/classify"),
		Service2Timeout:  p.GetInt("G_SERVICE2_TIMEOUT", "COMMON", 30),

		HTTPPort: p.Get("SERVICE1_PORT", "", "8015"),

		MaxPages:         p.GetInt("G_SERVICE1_MAX_PAGES", "COMMON", 0),
		MinTextLength:    p.GetInt("G_SERVICE1_MIN_TEXT_LENGTH", "COMMON", 250),
		BatchWorkerLimit: int64(p.GetInt("G_SERVICE1_BATCH_WORKERS", "COMMON", 4)),

		ComponentLogLevels: loadComponentLogLevels(),
	}
	if s.BatchWorkerLimit <= 0 {
		s.BatchWorkerLimit = 4
	}
	return s
}
