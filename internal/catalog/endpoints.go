// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

/*
endpoints.go - Oura API v2 Endpoint Descriptors

Declarative field maps for the eleven usercollection endpoints. Column names
match the PostgreSQL schema in internal/database/migrations.

Conventions:
  - Nested "contributors" objects are flattened to contributors_<name> columns.
  - Durations are seconds and stay integers.
  - sleep.heart_rate and sleep.hrv are kept as opaque JSON blobs.
*/

//nolint:staticcheck // File documentation, not package doc
package catalog

// field maps a top-level source attribute onto a column of the same name.
func field(column string, typ FieldType) Field {
	return Field{Column: column, Path: []string{column}, Type: typ}
}

// renamed maps a (possibly nested) source path onto a differently named column.
func renamed(column string, typ FieldType, path ...string) Field {
	return Field{Column: column, Path: path, Type: typ}
}

// contributors flattens contributors.<name> into contributors_<name> columns.
func contributors(typ FieldType, names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = renamed("contributors_"+n, typ, "contributors", n)
	}
	return out
}

// daily builds a day-keyed descriptor whose name, path, and table coincide.
func daily(name string, fields ...Field) Descriptor {
	return Descriptor{
		Name:        name,
		Path:        name,
		Table:       name,
		Key:         KeyDay,
		KeyField:    "day",
		DateField:   "day",
		CursorField: DefaultCursorField,
		Fields:      append([]Field{field("day", TypeDate)}, fields...),
	}
}

// byID builds an id-keyed descriptor for multi-record-per-day entities.
func byID(name string, fields ...Field) Descriptor {
	return Descriptor{
		Name:        name,
		Path:        name,
		Table:       name,
		Key:         KeyID,
		KeyField:    "id",
		DateField:   "day",
		CursorField: DefaultCursorField,
		Fields:      append([]Field{field("id", TypeString), field("day", TypeDate)}, fields...),
	}
}

func ouraEndpoints() []Descriptor {
	return []Descriptor{
		daily("daily_activity", append([]Field{
			field("score", TypeInt),
			field("active_calories", TypeInt),
			field("total_calories", TypeInt),
			field("steps", TypeInt),
			field("equivalent_walking_distance", TypeInt),
			field("low_activity_time", TypeInt),
			field("medium_activity_time", TypeInt),
			field("high_activity_time", TypeInt),
			field("resting_time", TypeInt),
			field("sedentary_time", TypeInt),
			field("non_wear_time", TypeInt),
			field("average_met_minutes", TypeFloat),
			field("high_activity_met_minutes", TypeInt),
			field("medium_activity_met_minutes", TypeInt),
			field("low_activity_met_minutes", TypeInt),
			field("sedentary_met_minutes", TypeInt),
			field("inactivity_alerts", TypeInt),
			field("target_calories", TypeInt),
			field("target_meters", TypeInt),
			field("meters_to_target", TypeInt),
		}, contributors(TypeInt,
			"meet_daily_targets", "move_every_hour", "recovery_time",
			"stay_active", "training_frequency", "training_volume",
		)...)...),

		daily("daily_readiness", append([]Field{
			field("score", TypeInt),
			field("temperature_deviation", TypeFloat),
			field("temperature_trend_deviation", TypeFloat),
		}, contributors(TypeInt,
			"activity_balance", "body_temperature", "hrv_balance",
			"previous_day_activity", "previous_night", "recovery_index",
			"resting_heart_rate", "sleep_balance", "sleep_regularity",
		)...)...),

		daily("daily_sleep", append([]Field{
			field("score", TypeInt),
		}, contributors(TypeInt,
			"deep_sleep", "efficiency", "latency", "rem_sleep",
			"restfulness", "timing", "total_sleep",
		)...)...),

		byID("sleep",
			field("bedtime_start", TypeTimestamp),
			field("bedtime_end", TypeTimestamp),
			renamed("duration", TypeInt, "time_in_bed"),
			renamed("total_sleep", TypeInt, "total_sleep_duration"),
			field("awake_time", TypeInt),
			renamed("light_sleep", TypeInt, "light_sleep_duration"),
			renamed("deep_sleep", TypeInt, "deep_sleep_duration"),
			renamed("rem_sleep", TypeInt, "rem_sleep_duration"),
			field("restless_periods", TypeInt),
			field("efficiency", TypeInt),
			field("latency", TypeInt),
			field("type", TypeString),
			field("readiness_score_delta", TypeFloat),
			field("average_breath", TypeFloat),
			field("average_heart_rate", TypeFloat),
			field("average_hrv", TypeInt),
			field("lowest_heart_rate", TypeInt),
			field("heart_rate", TypeJSON),
			field("hrv", TypeJSON),
			field("sleep_phase_5_min", TypeString),
			field("movement_30_sec", TypeString),
			field("sleep_score_delta", TypeFloat),
			field("period", TypeInt),
			field("low_battery_alert", TypeBool),
		),

		byID("sleep_time",
			renamed("optimal_bedtime_start", TypeInt, "optimal_bedtime", "start_offset"),
			renamed("optimal_bedtime_end", TypeInt, "optimal_bedtime", "end_offset"),
			renamed("optimal_bedtime_tz", TypeInt, "optimal_bedtime", "day_tz"),
			field("recommendation", TypeString),
			field("status", TypeString),
		),

		byID("workout",
			field("activity", TypeString),
			field("calories", TypeFloat),
			field("distance", TypeFloat),
			field("start_datetime", TypeTimestamp),
			field("end_datetime", TypeTimestamp),
			field("intensity", TypeString),
			field("label", TypeString),
			field("source", TypeString),
		),

		daily("daily_spo2",
			renamed("spo2_percentage_average", TypeFloat, "spo2_percentage", "average"),
			field("breathing_disturbance_index", TypeInt),
		),

		daily("daily_stress",
			field("stress_high", TypeInt),
			field("recovery_high", TypeInt),
			field("day_summary", TypeString),
		),

		daily("daily_resilience", append([]Field{
			field("level", TypeString),
		}, contributors(TypeFloat, "sleep_recovery", "daytime_recovery", "stress")...)...),

		daily("daily_cardiovascular_age",
			field("vascular_age", TypeInt),
		),

		daily("daily_vo2_max",
			field("vo2_max", TypeFloat),
		),
	}
}
