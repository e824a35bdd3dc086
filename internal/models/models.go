package models

// GroupView is one functional group with every trait and property it carries.
type GroupView struct {
	Ordinal    int                `json:"ordinal"`
	Traits     map[string]string  `json:"traits"`
	Properties map[string]float64 `json:"properties"`
}

type Summary struct {
	EntityCount int               `json:"entity_count"`
	Traits      []TraitSummary    `json:"traits"`
	Properties  []PropertySummary `json:"properties"`
}

type TraitSummary struct {
	Name   string       `json:"trait"`
	Values []ValueCount `json:"values"`
}

type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"groups"`
}

type PropertySummary struct {
	Name string  `json:"property"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

type TraitMatch struct {
	Trait    string `json:"trait"`
	Value    string `json:"value"`
	Ordinals []int  `json:"ordinals"`
}

type PropertyValue struct {
	Property string  `json:"property"`
	Ordinal  int     `json:"ordinal"`
	Value    float64 `json:"value"`
}

type Page[T any] struct {
	Data   []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type Health struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// Cohort is the simulation's per-cohort state. It carries no behaviour here; the
// API only uses FunctionalGroupIndex to resolve the cohort's functional group.
type Cohort struct {
	BirthTimeStep                       uint32   `json:"birth_time_step"`
	MaturityTimeStep                    uint32   `json:"maturity_time_step"`
	CohortID                            []uint32 `json:"cohort_id"`
	JuvenileMass                        float64  `json:"juvenile_mass"`
	AdultMass                           float64  `json:"adult_mass"`
	IndividualBodyMass                  float64  `json:"individual_body_mass"`
	IndividualReproductivePotentialMass float64  `json:"individual_reproductive_potential_mass"`
	MaximumAchievedBodyMass             float64  `json:"maximum_achieved_body_mass"`
	CohortAbundance                     float64  `json:"cohort_abundance"`
	FunctionalGroupIndex                uint8    `json:"functional_group_index"`
	Merged                              bool     `json:"merged"`
	ProportionTimeActive                float64  `json:"proportion_time_active"`
	TrophicIndex                        float64  `json:"trophic_index"`
	LogOptimalPreyBodySizeRatio         float64  `json:"log_optimal_prey_body_size_ratio"`
}

type ResolvedCohort struct {
	Cohort Cohort    `json:"cohort"`
	Group  GroupView `json:"functional_group"`
}
