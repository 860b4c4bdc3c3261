package config

import "time"

// Defaults holds every tunable numeric/timing constant named across the
// chat orchestrator, event channel, graph services, and store TTLs.
// BuiltinDefaults() supplies the literal defaults; YAML overrides are merged on
// top in loader.go via mergo, non-zero-wins.
type Defaults struct {
	// Per-provider and first-token deadlines.
	ContextTimeout      time.Duration `yaml:"context_timeout,omitempty"`
	FirstTokenDeadline  time.Duration `yaml:"first_token_deadline,omitempty"`
	RedisOpTimeout      time.Duration `yaml:"redis_op_timeout,omitempty"`
	RedisProfileTimeout time.Duration `yaml:"redis_profile_timeout,omitempty"`

	// Chat orchestrator / prompt assembly.
	MaxPromptTokens    int           `yaml:"max_prompt_tokens,omitempty"`
	ConversationTail   int           `yaml:"conversation_tail,omitempty"`
	InterChunkGapAlert time.Duration `yaml:"inter_chunk_gap_alert,omitempty"`
	SLOFirstTokenMs    int           `yaml:"slo_first_token_ms,omitempty"`
	SLOTotalMs         int           `yaml:"slo_total_ms,omitempty"`

	ScheduleFit ScheduleFitConfig `yaml:"schedule_fit,omitempty"`

	HeartbeatInterval  time.Duration `yaml:"heartbeat_interval,omitempty"`
	DisconnectPollTick time.Duration `yaml:"disconnect_poll_tick,omitempty"`

	ProjectionMemoTTL time.Duration `yaml:"projection_memo_ttl,omitempty"`
	CentralityTTL     time.Duration `yaml:"centrality_ttl,omitempty"`
	CommunityTTL      time.Duration `yaml:"community_ttl,omitempty"`
	PathfindingTTL    time.Duration `yaml:"pathfinding_ttl,omitempty"`

	GradesTTL          time.Duration `yaml:"grades_ttl,omitempty"`
	GradesSoftTTL      time.Duration `yaml:"grades_soft_ttl,omitempty"`
	ProfessorTTL       time.Duration `yaml:"professor_ttl,omitempty"`
	EnrollmentTTL      time.Duration `yaml:"enrollment_ttl,omitempty"`
	EmbeddingTTL       time.Duration `yaml:"embedding_ttl,omitempty"`
	ProfileTTL         time.Duration `yaml:"profile_ttl,omitempty"`
	ConversationTTL    time.Duration `yaml:"conversation_ttl,omitempty"`
	DegreeReqsTTL      time.Duration `yaml:"degree_reqs_ttl,omitempty"`
	ProvenanceIndexTTL time.Duration `yaml:"provenance_index_ttl,omitempty"`

	TokenBudget TokenBudgetConfig `yaml:"token_budget,omitempty"`
}

// BuiltinDefaults returns the literal defaults named throughout the design.
// Loaded first, then overridden field-by-field by any YAML the operator
// supplies (see mergeDefaults in merge.go).
func BuiltinDefaults() *Defaults {
	return &Defaults{
		ContextTimeout:      150 * time.Millisecond,
		FirstTokenDeadline:  200 * time.Millisecond,
		RedisOpTimeout:      50 * time.Millisecond,
		RedisProfileTimeout: 25 * time.Millisecond,

		MaxPromptTokens:    1200,
		ConversationTail:   6,
		InterChunkGapAlert: 1500 * time.Millisecond,
		SLOFirstTokenMs:    500,
		SLOTotalMs:         500,

		ScheduleFit: ScheduleFitConfig{
			Timeout:   300 * time.Millisecond,
			BeamWidth: 1024,
			NodeLimit: 50000,
		},

		HeartbeatInterval:  10 * time.Second,
		DisconnectPollTick: 2 * time.Second,

		ProjectionMemoTTL: 300 * time.Second,
		CentralityTTL:     time.Hour,
		CommunityTTL:      2 * time.Hour,
		PathfindingTTL:    time.Hour,

		GradesTTL:          24 * time.Hour,
		GradesSoftTTL:      18 * time.Hour,
		ProfessorTTL:       7 * 24 * time.Hour,
		EnrollmentTTL:      time.Hour,
		EmbeddingTTL:       7 * 24 * time.Hour,
		ProfileTTL:         30 * 24 * time.Hour,
		ConversationTTL:    7 * 24 * time.Hour,
		DegreeReqsTTL:      12 * time.Hour,
		ProvenanceIndexTTL: 60 * 24 * time.Hour,

		TokenBudget: TokenBudgetConfig{
			TotalCeiling: 1200,
			Sections: map[string]int{
				"student_profile":      200,
				"vector_search":        150,
				"graph_analysis":       60,
				"professor_intel":      120,
				"difficulty_data":      80,
				"enrollment_data":      80,
				"conversation_history": 300,
				"system_template":      150,
			},
			Weights: map[string]float64{
				"student_profile": 1.0,
				"vector_search":   0.8,
				"graph_analysis":  0.9,
				"professor_intel": 0.85,
				"difficulty_data": 0.7,
				"enrollment_data": 0.6,
			},
		},
	}
}
