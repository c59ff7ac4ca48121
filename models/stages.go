// ABOUTME: Pipeline stage constants and defaults
// ABOUTME: Defines the terminal Closed stage and the stock ten-stage pipeline
package models

// StageClosedID is the terminal stage. Entering it by drag marks an opportunity Won.
const StageClosedID = "10"

// StageUnknownID buckets opportunities whose stage is not in the configured list.
const StageUnknownID = "unknown"

// StageUnknownTitle is the display title for the Unknown bucket.
const StageUnknownTitle = "Unknown"

// DefaultStages returns a fresh copy of the stock pipeline.
func DefaultStages() []Stage {
	return []Stage{
		{ID: "1", Title: "New Lead", Color: "#94a3b8"},
		{ID: "2", Title: "Contacted", Color: "#60a5fa"},
		{ID: "3", Title: "Qualified", Color: "#38bdf8"},
		{ID: "4", Title: "Meeting Scheduled", Color: "#2dd4bf"},
		{ID: "5", Title: "Needs Analysis", Color: "#4ade80"},
		{ID: "6", Title: "Proposal Sent", Color: "#a3e635"},
		{ID: "7", Title: "Negotiation", Color: "#facc15"},
		{ID: "8", Title: "Contract Sent", Color: "#fb923c"},
		{ID: "9", Title: "Awaiting Signature", Color: "#f472b6"},
		{ID: StageClosedID, Title: "Closed", Color: "#22c55e"},
	}
}
