// Package schema defines the typed view of the study dashboard's stored state.
//
// # Overview
//
// The dashboard persists a single JSON object. Three frontend modules write to
// disjoint parts of it, and the parts are told apart by key shape only:
//
//	{
//	  "2025-01-01": { "tasks": [...], "review": {...} },   // Planner
//	  "vocabulary": [...], "listening": [...],             // Resource Hub
//	  "reading": [...], "writing": [...], "speaking": [...],
//	  "seriesList": [...]                                  // Chill Zone
//	}
//
// The sync package merges raw JSON and never rejects a payload because it does
// not match these types. The types here are used where the server or the CLI
// needs to read or produce region data itself: region-shaped loads, seeding
// defaults and adding planner tasks from the command line.
//
// # Defaults
//
// Default Resource Hub links and Chill Zone series ship in an embedded TOML
// document (defaults.toml) and are returned by Defaults.
//
// # Dates
//
// Planner keys are calendar dates formatted as YYYY-MM-DD. ParseDateKey also
// accepts natural language such as "tomorrow" or "next friday":
//
//	key, err := schema.ParseDateKey("next monday", time.Now())
package schema
