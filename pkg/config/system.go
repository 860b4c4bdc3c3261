package config

// ServerConfig holds resolved system-wide HTTP server settings.
type ServerConfig struct {
	Addr            string   // listen address, e.g. ":8080"
	AllowedOrigins  []string // CORS origins allowed to call /api/chat and friends
	GradesCSVPath   string   // on-disk path for pkg/gradesdata's CSV source
	CalendarTimeout string   // reserved for future calendar export tuning; unused today
}

// resolveServerConfig resolves system-wide server settings from the YAML
// system block, applying defaults when the operator omits the section
// entirely (a bare-minimum tarsy.yaml-equivalent config file is valid).
func resolveServerConfig(sys *SystemYAMLConfig) *ServerConfig {
	cfg := &ServerConfig{
		Addr:          ":8080",
		GradesCSVPath: "data/grades.csv",
	}

	if sys == nil {
		return cfg
	}
	if sys.Addr != "" {
		cfg.Addr = sys.Addr
	}
	if len(sys.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = sys.AllowedOrigins
	}
	if sys.GradesCSVPath != "" {
		cfg.GradesCSVPath = sys.GradesCSVPath
	}

	return cfg
}
